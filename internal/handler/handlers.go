// Olapic Go SDK - Media Curation API Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/olapic-go

package handler

import (
	"context"
	"net/url"

	"github.com/tomtom215/olapic-go/internal/apierr"
	"github.com/tomtom215/olapic-go/internal/cache"
	"github.com/tomtom215/olapic-go/internal/config"
	"github.com/tomtom215/olapic-go/internal/entity"
	"github.com/tomtom215/olapic-go/internal/logging"
	"github.com/tomtom215/olapic-go/internal/rest"
)

// Entity kinds used as cache key prefixes and metric labels.
const (
	kindCustomer       = "customer"
	kindMedia          = "media"
	kindStream         = "stream"
	kindCategory       = "category"
	kindUploader       = "uploader"
	kindWidgetInstance = "widget_instance"
)

// Handlers groups the typed handlers over one shared Base.
type Handlers struct {
	Base       *Base
	Customers  *CustomerHandler
	Media      *MediaHandler
	Streams    *StreamHandler
	Categories *CategoryHandler
	Uploaders  *UploaderHandler
	Widgets    *WidgetInstanceHandler
}

// New wires the typed handlers. Lookup memoization follows cacheCfg.
func New(transport rest.Transport, endpoints Endpoints, cacheCfg config.CacheConfig) *Handlers {
	return NewFromBase(NewBase(transport, endpoints, newLookupCache(cacheCfg)))
}

// NewFromBase wires the typed handlers around an existing base.
func NewFromBase(b *Base) *Handlers {
	h := &Handlers{Base: b}
	h.Streams = &StreamHandler{Base: b}
	h.Categories = &CategoryHandler{Base: b}
	h.Media = &MediaHandler{Base: b, streams: h.Streams}
	h.Uploaders = &UploaderHandler{Base: b}
	h.Customers = &CustomerHandler{Base: b, uploaders: h.Uploaders}
	h.Widgets = &WidgetInstanceHandler{Base: b}
	return h
}

// newLookupCache builds the lookup cache for cfg, or nil when disabled.
func newLookupCache(cfg config.CacheConfig) *cache.LRU[any] {
	if !cfg.Enabled {
		return nil
	}
	return cache.New[any](cfg.Capacity, cfg.TTL)
}

// missingLink reports an entity that lacks a relation the caller needs.
func missingLink(kind, id, relation string) error {
	msg := kind + " has no " + relation + " link"
	if id != "" {
		msg = kind + " " + id + " has no " + relation + " link"
	}
	return apierr.NewNotFoundError("", msg)
}

// ========================================
// Customers
// ========================================

// CustomerHandler looks up customers and their uploaders.
type CustomerHandler struct {
	*Base
	uploaders *UploaderHandler
}

// GetCustomerByID fetches a customer by id.
func (h *CustomerHandler) GetCustomerByID(ctx context.Context, id string) (*entity.Customer, error) {
	target, err := h.prepare(EndpointCustomer, map[string]string{"customer_id": id})
	if err != nil {
		return nil, err
	}
	return h.GetCustomerFromURL(ctx, target, nil)
}

// GetCustomerFromURL fetches the customer at rawURL.
func (h *CustomerHandler) GetCustomerFromURL(ctx context.Context, rawURL string, params url.Values) (*entity.Customer, error) {
	return lookup(ctx, h.Base, kindCustomer, rawURL, params, entity.NewCustomer)
}

// NewCustomer wraps an already decoded customer object.
func (h *CustomerHandler) NewCustomer(obj map[string]any) *entity.Customer {
	return entity.NewCustomer(h.CreateEntityFromJSON(obj))
}

// GetUploaderFromCustomer returns the customer's default uploader. The
// result is memoized on the customer.
func (h *CustomerHandler) GetUploaderFromCustomer(ctx context.Context, c *entity.Customer) (*entity.Uploader, error) {
	return c.Uploader(ctx, func(ctx context.Context) (*entity.Uploader, error) {
		link := c.Resource("uploader")
		if link == "" {
			return nil, missingLink(kindCustomer, c.ID(), "uploader")
		}
		return h.uploaders.GetUploaderFromURL(ctx, link, nil)
	})
}

// CreateUploaderFromCustomer creates an uploader through the customer's
// uploader form.
func (h *CustomerHandler) CreateUploaderFromCustomer(ctx context.Context, c *entity.Customer, metadata Metadata) (*entity.Uploader, error) {
	form := c.Form("uploader")
	if form == "" {
		return nil, missingLink(kindCustomer, c.ID(), "uploader form")
	}
	obj, err := h.post(ctx, form, h.PrepareMetadataForPOST(metadata), nil)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, apierr.NewMalformedResponseError(logging.RedactURL(form), "uploader creation returned no body", nil)
	}
	return entity.NewUploader(h.CreateEntityFromJSON(obj)), nil
}

// ========================================
// Streams and categories
// ========================================

// StreamHandler looks up streams.
type StreamHandler struct {
	*Base
}

// GetStreamByID fetches a stream by id.
func (h *StreamHandler) GetStreamByID(ctx context.Context, id string) (*entity.Stream, error) {
	target, err := h.prepare(EndpointStream, map[string]string{"stream_id": id})
	if err != nil {
		return nil, err
	}
	return h.GetStreamFromURL(ctx, target, nil)
}

// GetStreamByTagKey searches the connected customer's streams by tag key.
func (h *StreamHandler) GetStreamByTagKey(ctx context.Context, tag string) (*entity.Stream, error) {
	target, err := h.prepare(EndpointStreamSearch, map[string]string{"tag_key": tag})
	if err != nil {
		return nil, err
	}
	return searchOne(ctx, h.Base, kindStream, "streams", target, entity.NewStream)
}

// GetStreamFromURL fetches the stream at rawURL.
func (h *StreamHandler) GetStreamFromURL(ctx context.Context, rawURL string, params url.Values) (*entity.Stream, error) {
	return lookup(ctx, h.Base, kindStream, rawURL, params, entity.NewStream)
}

// CategoryHandler looks up categories.
type CategoryHandler struct {
	*Base
}

// GetCategoryByID fetches a category by id.
func (h *CategoryHandler) GetCategoryByID(ctx context.Context, id string) (*entity.Category, error) {
	target, err := h.prepare(EndpointCategory, map[string]string{"category_id": id})
	if err != nil {
		return nil, err
	}
	return h.GetCategoryFromURL(ctx, target, nil)
}

// GetCategoryByTagKey searches the connected customer's categories by tag key.
func (h *CategoryHandler) GetCategoryByTagKey(ctx context.Context, tag string) (*entity.Category, error) {
	target, err := h.prepare(EndpointCategorySearch, map[string]string{"tag_key": tag})
	if err != nil {
		return nil, err
	}
	return searchOne(ctx, h.Base, kindCategory, "categories", target, entity.NewCategory)
}

// GetCategoryFromURL fetches the category at rawURL.
func (h *CategoryHandler) GetCategoryFromURL(ctx context.Context, rawURL string, params url.Values) (*entity.Category, error) {
	return lookup(ctx, h.Base, kindCategory, rawURL, params, entity.NewCategory)
}

// searchOne runs a search endpoint. The API answers either with the match
// itself or with an embedded array whose first element is the match.
func searchOne[T any](ctx context.Context, b *Base, kind, plural, target string, wrap func(*entity.Entity) T) (T, error) {
	var zero T
	resp, err := b.transport.Get(ctx, b.resolve(target), nil)
	if err != nil {
		return zero, err
	}
	obj, err := payload(resp, target)
	if err != nil {
		return zero, err
	}

	for _, key := range []string{kind, plural} {
		v, ok := entity.Lookup(obj, "_embedded/"+key)
		if !ok {
			continue
		}
		items, ok := v.([]any)
		if !ok {
			break
		}
		if len(items) == 0 {
			return zero, apierr.NewNotFoundError(logging.RedactURL(target), "no "+kind+" matches the tag key")
		}
		first, ok := items[0].(map[string]any)
		if !ok {
			return zero, apierr.NewMalformedResponseError(logging.RedactURL(target), "search result is not an object", nil)
		}
		return wrap(b.CreateEntityFromJSON(first)), nil
	}

	if _, ok := obj["id"]; !ok {
		return zero, apierr.NewNotFoundError(logging.RedactURL(target), "no "+kind+" matches the tag key")
	}
	return wrap(b.CreateEntityFromJSON(obj)), nil
}

// ========================================
// Widget instances
// ========================================

// WidgetInstanceHandler looks up widget instances.
type WidgetInstanceHandler struct {
	*Base
}

// GetWidgetInstanceByHash fetches a widget instance by its public hash.
func (h *WidgetInstanceHandler) GetWidgetInstanceByHash(ctx context.Context, hash string) (*entity.WidgetInstance, error) {
	target, err := h.prepare(EndpointWidgetInstance, map[string]string{"widget_instance": hash})
	if err != nil {
		return nil, err
	}
	return h.GetWidgetInstanceFromURL(ctx, target, nil)
}

// GetWidgetInstanceFromURL fetches the widget instance at rawURL.
func (h *WidgetInstanceHandler) GetWidgetInstanceFromURL(ctx context.Context, rawURL string, params url.Values) (*entity.WidgetInstance, error) {
	return lookup(ctx, h.Base, kindWidgetInstance, rawURL, params, entity.NewWidgetInstance)
}
