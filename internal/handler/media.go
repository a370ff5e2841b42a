// Olapic Go SDK - Media Curation API Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/olapic-go

package handler

import (
	"context"
	"errors"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/olapic-go/internal/apierr"
	"github.com/tomtom215/olapic-go/internal/entity"
	"github.com/tomtom215/olapic-go/internal/logging"
)

// maxRelatedFetches bounds concurrent stream lookups in
// GetRelatedStreamsFromMedia.
const maxRelatedFetches = 4

// MediaHandler looks up media, pages of media and related resources.
type MediaHandler struct {
	*Base
	streams *StreamHandler
}

// GetMediaByID fetches one media by id.
func (h *MediaHandler) GetMediaByID(ctx context.Context, id string) (*entity.Media, error) {
	target, err := h.prepare(EndpointMedia, map[string]string{"media_id": id})
	if err != nil {
		return nil, err
	}
	return lookup(ctx, h.Base, kindMedia, target, nil, entity.NewMedia)
}

// GetMediaFromURL fetches one page of a media collection. Pages are never
// memoized; the media lists keep their own page cache.
func (h *MediaHandler) GetMediaFromURL(ctx context.Context, rawURL string, params url.Values) (Page, error) {
	if rawURL == "" {
		return Page{}, apierr.NewNotFoundError("", "media list URL is empty")
	}
	target := h.resolve(rawURL)
	resp, err := h.transport.Get(ctx, target, params)
	if err != nil {
		return Page{}, err
	}
	page, err := h.ExtractEntitiesFromRequest(resp)
	if err != nil {
		var apiErr *apierr.Error
		if errors.As(err, &apiErr) && apiErr.URL == "" {
			apiErr.URL = logging.RedactURL(target)
		}
		return Page{}, err
	}
	return page, nil
}

// LoadImage downloads one rendition of a photo.
func (h *MediaHandler) LoadImage(ctx context.Context, m *entity.Media, size entity.ImageSize) ([]byte, error) {
	link := m.ImageURL(size)
	if link == "" {
		return nil, missingLink(kindMedia, m.ID(), string(size)+" image")
	}
	return h.transport.GetBinary(ctx, h.resolve(link), nil)
}

// ReportMedia flags a media for moderation through its report form.
func (h *MediaHandler) ReportMedia(ctx context.Context, m *entity.Media, metadata Metadata) error {
	form := m.Form("report")
	if form == "" {
		return missingLink(kindMedia, m.ID(), "report form")
	}
	_, err := h.post(ctx, form, h.PrepareMetadataForPOST(metadata), nil)
	return err
}

// GetRelatedStreamsFromMedia returns the streams a media is tagged with.
// Items the API sends as bare links are fetched concurrently.
func (h *MediaHandler) GetRelatedStreamsFromMedia(ctx context.Context, m *entity.Media) ([]*entity.Stream, error) {
	link := m.Resource("streams/all")
	if link == "" {
		return nil, missingLink(kindMedia, m.ID(), "streams")
	}
	target := h.resolve(link)
	resp, err := h.transport.Get(ctx, target, nil)
	if err != nil {
		return nil, err
	}
	obj, err := payload(resp, target)
	if err != nil {
		return nil, err
	}

	var items []any
	for _, path := range []string{"_embedded/stream", "_embedded/streams", "streams"} {
		if v, ok := entity.Lookup(obj, path); ok {
			if list, ok := v.([]any); ok {
				items = list
				break
			}
		}
	}

	streams := make([]*entity.Stream, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxRelatedFetches)
	for i, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if _, hasName := item["name"]; hasName {
			streams[i] = entity.NewStream(h.CreateEntityFromJSON(item))
			continue
		}
		href, _ := lookupString(item, "_links/self/href")
		if href == "" {
			continue
		}
		g.Go(func() error {
			s, err := h.streams.GetStreamFromURL(gctx, href, nil)
			if err != nil {
				return err
			}
			streams[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := streams[:0]
	for _, s := range streams {
		if s != nil {
			out = append(out, s)
		}
	}
	return out, nil
}
