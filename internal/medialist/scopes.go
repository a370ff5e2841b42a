// Olapic Go SDK - Media Curation API Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/olapic-go

package medialist

import (
	"context"
	"fmt"

	"github.com/tomtom215/olapic-go/internal/apierr"
	"github.com/tomtom215/olapic-go/internal/entity"
)

// StreamLookup fetches a stream by id.
type StreamLookup func(ctx context.Context, id string) (*entity.Stream, error)

// CategoryLookup fetches a category by id.
type CategoryLookup func(ctx context.Context, id string) (*entity.Category, error)

// mediaLink returns the media collection URL of a scope entity for sorting.
func mediaLink(kind ScopeKind, e *entity.Entity, sorting entity.Sorting) (string, error) {
	if e == nil {
		return "", fmt.Errorf("medialist: %s entity is nil", kind)
	}
	key := entity.SortingKey(sorting)
	if link := e.Resource(key); link != "" {
		return link, nil
	}
	return "", apierr.NewNotFoundError("", fmt.Sprintf("%s %s has no %s link", kind, e.ID(), key))
}

// sortingOf normalizes the requested order; anything unparsable has already
// been rejected by validation, so it falls back to recent.
func sortingOf(opts Options) entity.Sorting {
	s, err := entity.ParseSorting(string(opts.Sorting))
	if err != nil {
		return entity.SortRecent
	}
	return s
}

// NewForCustomer pages through every media of a customer.
func NewForCustomer(source PageSource, c *entity.Customer, opts Options) (*List, error) {
	if c == nil {
		return nil, fmt.Errorf("medialist: customer is nil")
	}
	link, err := mediaLink(ScopeCustomer, c.Entity, sortingOf(opts))
	if err != nil {
		return nil, err
	}
	return newList(source, ScopeCustomer, c.ID(), link, opts)
}

// NewForStream pages through the media of a stream.
func NewForStream(source PageSource, s *entity.Stream, opts Options) (*List, error) {
	if s == nil {
		return nil, fmt.Errorf("medialist: stream is nil")
	}
	link, err := mediaLink(ScopeStream, s.Entity, sortingOf(opts))
	if err != nil {
		return nil, err
	}
	return newList(source, ScopeStream, s.ID(), link, opts)
}

// NewForCategory pages through the media of a category.
func NewForCategory(source PageSource, c *entity.Category, opts Options) (*List, error) {
	if c == nil {
		return nil, fmt.Errorf("medialist: category is nil")
	}
	link, err := mediaLink(ScopeCategory, c.Entity, sortingOf(opts))
	if err != nil {
		return nil, err
	}
	return newList(source, ScopeCategory, c.ID(), link, opts)
}

// NewForUploader pages through the media of an uploader. Uploader
// collections only exist in recent order, so opts.Sorting is ignored.
func NewForUploader(source PageSource, u *entity.Uploader, opts Options) (*List, error) {
	if u == nil {
		return nil, fmt.Errorf("medialist: uploader is nil")
	}
	opts.Sorting = entity.SortRecent
	link, err := mediaLink(ScopeUploader, u.Entity, entity.SortRecent)
	if err != nil {
		return nil, err
	}
	return newList(source, ScopeUploader, u.ID(), link, opts)
}

// NewWithStreamID pages through a stream known only by id. When rawURL is
// empty the stream is fetched with lookup on the first StartFetching and
// its media link is used.
func NewWithStreamID(source PageSource, id, rawURL string, lookup StreamLookup, opts Options) (*List, error) {
	l, err := newList(source, ScopeStream, id, rawURL, opts)
	if err != nil {
		return nil, err
	}
	if rawURL == "" {
		if lookup == nil {
			return nil, fmt.Errorf("medialist: stream %s needs a URL or a lookup", id)
		}
		l.resolve = func(ctx context.Context) (string, error) {
			s, err := lookup(ctx, id)
			if err != nil {
				return "", err
			}
			return mediaLink(ScopeStream, s.Entity, l.sorting)
		}
	}
	return l, nil
}

// NewWithCategoryID is NewWithStreamID for categories.
func NewWithCategoryID(source PageSource, id, rawURL string, lookup CategoryLookup, opts Options) (*List, error) {
	l, err := newList(source, ScopeCategory, id, rawURL, opts)
	if err != nil {
		return nil, err
	}
	if rawURL == "" {
		if lookup == nil {
			return nil, fmt.Errorf("medialist: category %s needs a URL or a lookup", id)
		}
		l.resolve = func(ctx context.Context) (string, error) {
			c, err := lookup(ctx, id)
			if err != nil {
				return "", err
			}
			return mediaLink(ScopeCategory, c.Entity, l.sorting)
		}
	}
	return l, nil
}

// FromConnectionData builds a list for the scope entity returned by an
// endpoint bootstrap.
func FromConnectionData(source PageSource, kind ScopeKind, scope *entity.Entity, opts Options) (*List, error) {
	switch kind {
	case ScopeCustomer:
		return NewForCustomer(source, entity.NewCustomer(scope), opts)
	case ScopeStream:
		return NewForStream(source, entity.NewStream(scope), opts)
	case ScopeCategory:
		return NewForCategory(source, entity.NewCategory(scope), opts)
	case ScopeUploader:
		return NewForUploader(source, entity.NewUploader(scope), opts)
	default:
		return nil, fmt.Errorf("medialist: unknown scope %d", kind)
	}
}
