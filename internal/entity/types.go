// Olapic Go SDK - Media Curation API Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/olapic-go

package entity

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Sorting is the order of a media collection.
type Sorting string

const (
	SortRecent    Sorting = "recent"
	SortShuffled  Sorting = "shuffled"
	SortPhotoRank Sorting = "photorank"
	SortRated     Sorting = "rated"
)

// Sortings lists every sorting the API accepts.
var Sortings = []Sorting{SortRecent, SortShuffled, SortPhotoRank, SortRated}

// Valid reports whether s is one of the API sort keys.
func (s Sorting) Valid() bool {
	switch s {
	case SortRecent, SortShuffled, SortPhotoRank, SortRated:
		return true
	}
	return false
}

// ParseSorting accepts a sort key, case-insensitively. "rank-score" is an
// alias of photorank.
func ParseSorting(s string) (Sorting, error) {
	v := Sorting(strings.ToLower(strings.TrimSpace(s)))
	if v == "rank-score" || v == "rankscore" {
		return SortPhotoRank, nil
	}
	if !v.Valid() {
		return "", fmt.Errorf("unknown sorting %q (want one of recent, shuffled, photorank, rated)", s)
	}
	return v, nil
}

// SortingKey returns the resource path of a sorted media collection,
// e.g. "media/recent".
func SortingKey(s Sorting) string {
	if !s.Valid() {
		s = SortRecent
	}
	return "media/" + string(s)
}

// ImageSize selects one of the renditions of a photo.
type ImageSize string

const (
	ImageSquare    ImageSize = "square"
	ImageThumbnail ImageSize = "thumbnail"
	ImageMobile    ImageSize = "mobile"
	ImageNormal    ImageSize = "normal"
	ImageOriginal  ImageSize = "original"
)

// ImageSizeKey returns the entity path of a rendition URL, e.g. "images/mobile".
func ImageSizeKey(size ImageSize) string {
	return "images/" + string(size)
}

// ParseImageSize validates an image size name.
func ParseImageSize(s string) (ImageSize, error) {
	v := ImageSize(strings.ToLower(strings.TrimSpace(s)))
	switch v {
	case ImageSquare, ImageThumbnail, ImageMobile, ImageNormal, ImageOriginal:
		return v, nil
	}
	return "", fmt.Errorf("unknown image size %q", s)
}

// Customer is the account the auth key belongs to.
type Customer struct {
	*Entity
	uploader related[*Uploader]
}

// NewCustomer wraps e.
func NewCustomer(e *Entity) *Customer { return &Customer{Entity: e} }

// Name returns the customer display name.
func (c *Customer) Name() string { return c.String("name") }

// Uploader returns the customer's default uploader, calling fetch on the
// first request only. Concurrent first calls share one fetch.
func (c *Customer) Uploader(ctx context.Context, fetch func(context.Context) (*Uploader, error)) (*Uploader, error) {
	return c.uploader.load(ctx, fetch)
}

// Media is a photo or video.
type Media struct {
	*Entity
	uploader related[*Uploader]
}

// NewMedia wraps e.
func NewMedia(e *Entity) *Media { return &Media{Entity: e} }

// IsVideo reports whether the media is a video.
func (m *Media) IsVideo() bool {
	if strings.EqualFold(m.String("type"), "video") {
		return true
	}
	_, ok := m.Get("video_url")
	return ok
}

// ImageURL returns the URL of one rendition of the photo.
func (m *Media) ImageURL(size ImageSize) string {
	return m.String(ImageSizeKey(size))
}

// Caption returns the media caption.
func (m *Media) Caption() string { return m.String("caption") }

// OriginalSize returns the pixel size of the original image when the API
// reports it.
func (m *Media) OriginalSize() (width, height int, ok bool) {
	w, okW := m.Int("original_image_width")
	h, okH := m.Int("original_image_height")
	return w, h, okW && okH
}

// Uploader returns the uploader of the media; see Customer.Uploader.
func (m *Media) Uploader(ctx context.Context, fetch func(context.Context) (*Uploader, error)) (*Uploader, error) {
	return m.uploader.load(ctx, fetch)
}

// Stream is a curated collection, usually a product.
type Stream struct{ *Entity }

// NewStream wraps e.
func NewStream(e *Entity) *Stream { return &Stream{Entity: e} }

// Name returns the stream name.
func (s *Stream) Name() string { return s.String("name") }

// TagKey returns the customer-side key of the stream.
func (s *Stream) TagKey() string { return s.String("tag_based_key") }

// Category groups streams.
type Category struct{ *Entity }

// NewCategory wraps e.
func NewCategory(e *Entity) *Category { return &Category{Entity: e} }

// Name returns the category name.
func (c *Category) Name() string { return c.String("name") }

// TagKey returns the customer-side key of the category.
func (c *Category) TagKey() string { return c.String("tag_based_key") }

// Uploader is a user who contributed media.
type Uploader struct{ *Entity }

// NewUploader wraps e.
func NewUploader(e *Entity) *Uploader { return &Uploader{Entity: e} }

// Name returns the uploader display name.
func (u *Uploader) Name() string { return u.String("name") }

// Username returns the uploader handle.
func (u *Uploader) Username() string { return u.String("username") }

// WidgetInstance is a configured gallery embed.
type WidgetInstance struct{ *Entity }

// NewWidgetInstance wraps e.
func NewWidgetInstance(e *Entity) *WidgetInstance { return &WidgetInstance{Entity: e} }

// Hash returns the public instance hash.
func (w *WidgetInstance) Hash() string {
	if h := w.String("hash"); h != "" {
		return h
	}
	return w.ID()
}

// related memoizes a lazily fetched entity.
type related[T any] struct {
	mu    sync.Mutex
	value T
	set   bool
	group singleflight.Group
}

func (r *related[T]) load(ctx context.Context, fetch func(context.Context) (T, error)) (T, error) {
	r.mu.Lock()
	if r.set {
		v := r.value
		r.mu.Unlock()
		return v, nil
	}
	r.mu.Unlock()

	v, err, _ := r.group.Do("load", func() (any, error) {
		val, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.value = val
		r.set = true
		r.mu.Unlock()
		return val, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
