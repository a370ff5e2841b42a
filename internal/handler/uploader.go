// Olapic Go SDK - Media Curation API Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/olapic-go

package handler

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"github.com/tomtom215/olapic-go/internal/apierr"
	"github.com/tomtom215/olapic-go/internal/entity"
	"github.com/tomtom215/olapic-go/internal/logging"
	"github.com/tomtom215/olapic-go/internal/metrics"
	"github.com/tomtom215/olapic-go/internal/rest"
)

const (
	// uploadFileField is the multipart field carrying the image.
	uploadFileField = "file"

	// progressBuffer is the capacity of an Upload's progress channel.
	progressBuffer = 64
)

// UploaderHandler looks up uploaders and uploads media on their behalf.
type UploaderHandler struct {
	*Base
}

// GetUploaderFromMedia returns the uploader of m. The result is memoized on
// the media.
func (h *UploaderHandler) GetUploaderFromMedia(ctx context.Context, m *entity.Media) (*entity.Uploader, error) {
	return m.Uploader(ctx, func(ctx context.Context) (*entity.Uploader, error) {
		link := m.Resource("uploader")
		if link == "" {
			return nil, missingLink(kindMedia, m.ID(), "uploader")
		}
		return h.GetUploaderFromURL(ctx, link, nil)
	})
}

// GetUploaderByID fetches an uploader by id.
func (h *UploaderHandler) GetUploaderByID(ctx context.Context, id string) (*entity.Uploader, error) {
	target, err := h.prepare(EndpointUploader, map[string]string{"uploader_id": id})
	if err != nil {
		return nil, err
	}
	return h.GetUploaderFromURL(ctx, target, nil)
}

// GetUploaderFromURL fetches the uploader at rawURL.
func (h *UploaderHandler) GetUploaderFromURL(ctx context.Context, rawURL string, params url.Values) (*entity.Uploader, error) {
	return lookup(ctx, h.Base, kindUploader, rawURL, params, entity.NewUploader)
}

// UploadMedia posts image with metadata through the uploader's media form
// and returns the created media. onProgress may be nil.
func (h *UploaderHandler) UploadMedia(ctx context.Context, u *entity.Uploader, image []byte, metadata Metadata, onProgress rest.ProgressFunc) (*entity.Media, error) {
	form := u.Form("media")
	if form == "" {
		return nil, missingLink(kindUploader, u.ID(), "media upload form")
	}

	parts := h.PrepareMetadataForPOST(metadata)
	parts = append(parts, rest.Part{
		Name:        uploadFileField,
		FileName:    "upload" + imageExtension(image),
		ContentType: http.DetectContentType(image),
		Data:        image,
	})

	logging.Ctx(ctx).Debug().Str("uploader", u.ID()).Int("bytes", len(image)).Msg("Uploading media")
	obj, err := h.post(ctx, form, parts, onProgress)
	if err == nil && obj == nil {
		err = apierr.NewMalformedResponseError(logging.RedactURL(form), "upload returned no media", nil)
	}
	metrics.RecordUpload(len(image), err)
	if err != nil {
		return nil, err
	}
	return entity.NewMedia(h.CreateEntityFromJSON(obj)), nil
}

func imageExtension(image []byte) string {
	switch http.DetectContentType(image) {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}

// UploadResult is the outcome of an asynchronous upload.
type UploadResult struct {
	Media *entity.Media
	Err   error
}

// Upload tracks an asynchronous upload.
type Upload struct {
	mu       sync.Mutex
	closed   bool
	progress chan float64
	done     chan UploadResult
}

// Progress delivers upload fractions in increasing order. It is closed
// before the result is sent on Done. When the reader falls behind the
// oldest buffered fraction is dropped, so the latest one is always
// delivered.
func (u *Upload) Progress() <-chan float64 { return u.progress }

// Done delivers exactly one result.
func (u *Upload) Done() <-chan UploadResult { return u.done }

// Wait blocks until the upload finishes or ctx ends.
func (u *Upload) Wait(ctx context.Context) (*entity.Media, error) {
	select {
	case r := <-u.done:
		return r.Media, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// UploadMediaAsync starts UploadMedia on its own goroutine.
func (h *UploaderHandler) UploadMediaAsync(ctx context.Context, u *entity.Uploader, image []byte, metadata Metadata) *Upload {
	up := &Upload{
		progress: make(chan float64, progressBuffer),
		done:     make(chan UploadResult, 1),
	}
	go func() {
		m, err := h.UploadMedia(ctx, u, image, metadata, up.report)
		up.finish(UploadResult{Media: m, Err: err})
	}()
	return up
}

// report forwards a fraction unless the upload already finished. The
// transport may still be draining the body after the response arrived.
func (u *Upload) report(f float64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return
	}
	select {
	case u.progress <- f:
	default:
		select {
		case <-u.progress:
		default:
		}
		// report is the only sender and holds mu, so a slot is free.
		u.progress <- f
	}
}

func (u *Upload) finish(r UploadResult) {
	u.mu.Lock()
	u.closed = true
	close(u.progress)
	u.mu.Unlock()
	u.done <- r
}
