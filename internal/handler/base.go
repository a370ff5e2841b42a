// Olapic Go SDK - Media Curation API Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/olapic-go

/*
Package handler turns Olapic API responses into entities and back.

The Base type holds the behavior every typed handler shares:

  - CreateEntityFromJSON: wrap one API object, first resolving its
    "_embedded" relations and "_forms" into absolute URLs stored under the
    "resources" and "forms" keys of the entity
  - GetResources / GetForms: the link extraction itself
  - ExtractEntitiesFromRequest: split a list response into links and media
  - PrepareMetadataForPOST: flatten ordered metadata into multipart parts

The typed handlers (customers, media, streams, categories, uploaders and
widget instances) are thin lookups on top of Base: one GET per call, the
result wrapped in the concrete entity type. Lookups by URL are memoized in a
TTL LRU keyed by the resolved URL, and concurrent identical lookups share a
single request.

Handlers never retry. Every failure is an *apierr.Error so callers can tell a
network failure from a missing resource or a malformed payload.
*/
package handler

import (
	"context"
	"net/url"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/olapic-go/internal/apierr"
	"github.com/tomtom215/olapic-go/internal/cache"
	"github.com/tomtom215/olapic-go/internal/entity"
	"github.com/tomtom215/olapic-go/internal/logging"
	"github.com/tomtom215/olapic-go/internal/metrics"
	"github.com/tomtom215/olapic-go/internal/rest"
)

// Endpoint template names understood by Endpoints.PrepareURL.
const (
	EndpointCustomer       = "customer"
	EndpointCustomerMedia  = "customer_media"
	EndpointStream         = "stream"
	EndpointStreamMedia    = "stream_media"
	EndpointCategory       = "category"
	EndpointCategoryMedia  = "category_media"
	EndpointStreamSearch   = "stream_search"
	EndpointCategorySearch = "category_search"
	EndpointUploader       = "uploader"
	EndpointMedia          = "media"
	EndpointWidgetInstance = "widget_instance"
)

// Endpoints resolves API hrefs and endpoint templates against the
// connected base URL.
type Endpoints interface {
	// ResolveURL turns an absolute, protocol-relative or relative href into
	// an absolute URL.
	ResolveURL(href string) string
	// PrepareURL fills the named endpoint template. Variables the template
	// does not use are sent as query parameters.
	PrepareURL(kind string, vars map[string]string) (string, error)
}

// Base is the shared entity handler.
type Base struct {
	transport rest.Transport
	endpoints Endpoints
	lookups   *cache.LRU[any]
	group     singleflight.Group
}

// NewBase creates a handler base. lookups may be nil to disable memoization.
func NewBase(transport rest.Transport, endpoints Endpoints, lookups *cache.LRU[any]) *Base {
	return &Base{
		transport: transport,
		endpoints: endpoints,
		lookups:   lookups,
	}
}

// Transport returns the transport the handler issues requests through.
func (b *Base) Transport() rest.Transport { return b.transport }

// CreateEntityFromJSON wraps one API object. The returned entity carries the
// object's fields plus "resources" and "forms" maps of resolved URLs. The
// caller's map is not modified.
func (b *Base) CreateEntityFromJSON(obj map[string]any) *entity.Entity {
	data := make(map[string]any, len(obj)+2)
	for k, v := range obj {
		data[k] = v
	}
	data[entity.ResourcesKey] = nestLinks(b.GetResources(obj["_embedded"]))
	data[entity.FormsKey] = nestLinks(b.GetForms(obj["_forms"]))
	return entity.New(data)
}

// GetResources returns relation name to absolute URL for every embedded
// relation that carries a link. Relations without one, and relations given
// as arrays, are omitted.
func (b *Base) GetResources(embedded any) map[string]string {
	return b.collectLinks(embedded, "_links/self/href", "href")
}

// GetForms returns form name to absolute submission URL.
func (b *Base) GetForms(forms any) map[string]string {
	return b.collectLinks(forms, "_links/self/href", "href", "action")
}

func (b *Base) collectLinks(raw any, paths ...string) map[string]string {
	out := make(map[string]string)
	relations, ok := raw.(map[string]any)
	if !ok {
		return out
	}
	for name, rel := range relations {
		obj, ok := rel.(map[string]any)
		if !ok {
			continue
		}
		for _, p := range paths {
			if href, ok := lookupString(obj, p); ok && href != "" {
				out[name] = b.resolve(href)
				break
			}
		}
	}
	return out
}

func (b *Base) resolve(href string) string {
	if b.endpoints == nil {
		return href
	}
	return b.endpoints.ResolveURL(href)
}

// nestLinks turns "media:recent" style names into nested maps. When a name
// is both a link and the parent of other links, its own URL is kept under
// "self".
func nestLinks(links map[string]string) map[string]any {
	root := make(map[string]any, len(links))
	for name, href := range links {
		segments := strings.Split(strings.ReplaceAll(name, ":", "/"), "/")
		cur := root
		for _, seg := range segments[:len(segments)-1] {
			switch next := cur[seg].(type) {
			case map[string]any:
				cur = next
			case string:
				m := map[string]any{"self": next}
				cur[seg] = m
				cur = m
			default:
				m := map[string]any{}
				cur[seg] = m
				cur = m
			}
		}
		leaf := segments[len(segments)-1]
		if existing, ok := cur[leaf].(map[string]any); ok {
			existing["self"] = href
			continue
		}
		cur[leaf] = href
	}
	return root
}

func lookupString(obj map[string]any, path string) (string, bool) {
	v, ok := entity.Lookup(obj, path)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// payload extracts the entity object from a response. The API wraps single
// resources as {"metadata": ..., "data": {...}}; bare objects are accepted
// too.
func payload(resp any, target string) (map[string]any, error) {
	root, ok := resp.(map[string]any)
	if !ok || len(root) == 0 {
		return nil, apierr.NewMalformedResponseError(logging.RedactURL(target), "response is not a JSON object", nil)
	}
	if data, ok := root["data"].(map[string]any); ok {
		return data, nil
	}
	if _, hasData := root["data"]; hasData {
		return nil, apierr.NewMalformedResponseError(logging.RedactURL(target), "response data is not an object", nil)
	}
	return root, nil
}

// lookup fetches rawURL and wraps the payload with wrap. Results are
// memoized per kind and URL; concurrent identical lookups share one request,
// which keeps running when the caller that started it is cancelled.
func lookup[T any](ctx context.Context, b *Base, kind, rawURL string, params url.Values, wrap func(*entity.Entity) T) (T, error) {
	var zero T
	if rawURL == "" {
		return zero, apierr.NewNotFoundError("", kind+" URL is empty")
	}
	target := b.resolve(rawURL)
	key := kind + " " + target
	if len(params) > 0 {
		key += "?" + params.Encode()
	}

	if b.lookups != nil {
		if v, ok := b.lookups.Get(key); ok {
			if typed, ok := v.(T); ok {
				metrics.RecordEntityCacheHit(kind)
				return typed, nil
			}
		}
		metrics.RecordEntityCacheMiss(kind)
	}

	// The shared request outlives any single caller: a caller that gives up
	// returns its own ctx error and leaves the request to the others.
	sharedCtx := context.WithoutCancel(ctx)
	ch := b.group.DoChan(key, func() (any, error) {
		resp, err := b.transport.Get(sharedCtx, target, params)
		if err != nil {
			return nil, err
		}
		obj, err := payload(resp, target)
		if err != nil {
			return nil, err
		}
		typed := wrap(b.CreateEntityFromJSON(obj))
		if b.lookups != nil {
			b.lookups.Add(key, typed)
		}
		return typed, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return zero, ctx.Err()
	}
	v, err, shared := res.Val, res.Err, res.Shared
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Str("kind", kind).Str("url", logging.RedactURL(target)).Msg("Entity lookup failed")
		return zero, err
	}
	if shared {
		logging.Ctx(ctx).Debug().Str("kind", kind).Msg("Entity lookup shared an in-flight request")
	}
	return v.(T), nil
}

// prepare fills an endpoint template.
func (b *Base) prepare(kind string, vars map[string]string) (string, error) {
	if b.endpoints == nil {
		return "", apierr.NewNotConnectedError("PrepareURL " + kind)
	}
	return b.endpoints.PrepareURL(kind, vars)
}

// post submits parts to rawURL and returns the created object.
func (b *Base) post(ctx context.Context, rawURL string, parts []rest.Part, onProgress rest.ProgressFunc) (map[string]any, error) {
	target := b.resolve(rawURL)
	resp, err := b.transport.Post(ctx, target, nil, parts, onProgress)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}
	return payload(resp, target)
}
