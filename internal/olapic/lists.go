// Olapic Go SDK - Media Curation API Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/olapic-go

package olapic

import (
	"fmt"

	"github.com/tomtom215/olapic-go/internal/apierr"
	"github.com/tomtom215/olapic-go/internal/entity"
	"github.com/tomtom215/olapic-go/internal/handler"
	"github.com/tomtom215/olapic-go/internal/medialist"
)

// listOptions fills the unset sorting and page size from the config.
func (c *Client) listOptions(opts medialist.Options) medialist.Options {
	if opts.Sorting == "" {
		opts.Sorting = entity.Sorting(c.cfg.MediaList.DefaultSorting)
	}
	if opts.MediaPerPage == 0 {
		opts.MediaPerPage = c.cfg.MediaList.MediaPerPage
	}
	return opts
}

// sortVar is the sort template value of opts. Unknown values pass through
// and are rejected when the list validates its options.
func sortVar(opts medialist.Options) string {
	if s, err := entity.ParseSorting(string(opts.Sorting)); err == nil {
		return string(s)
	}
	return string(opts.Sorting)
}

// CustomerMediaList pages through the connected customer's media.
func (c *Client) CustomerMediaList(opts medialist.Options) (*medialist.List, error) {
	customer := c.Customer()
	if customer == nil {
		return nil, apierr.NewNotConnectedError("CustomerMediaList")
	}
	return medialist.NewForCustomer(c.Media(), customer, c.listOptions(opts))
}

// StreamMediaList pages through the media of a stream entity.
func (c *Client) StreamMediaList(s *entity.Stream, opts medialist.Options) (*medialist.List, error) {
	return medialist.NewForStream(c.Media(), s, c.listOptions(opts))
}

// CategoryMediaList pages through the media of a category entity.
func (c *Client) CategoryMediaList(cat *entity.Category, opts medialist.Options) (*medialist.List, error) {
	return medialist.NewForCategory(c.Media(), cat, c.listOptions(opts))
}

// UploaderMediaList pages through an uploader's media, always in recent
// order.
func (c *Client) UploaderMediaList(u *entity.Uploader, opts medialist.Options) (*medialist.List, error) {
	return medialist.NewForUploader(c.Media(), u, c.listOptions(opts))
}

// StreamMediaListByID pages through the media of a stream known by id. The
// URL comes from the stream_media template; if it cannot be built the
// stream is looked up on the first fetch and its media link followed.
func (c *Client) StreamMediaListByID(id string, opts medialist.Options) (*medialist.List, error) {
	if id == "" {
		return nil, fmt.Errorf("olapic: stream id is empty")
	}
	opts = c.listOptions(opts)
	rawURL, err := c.PrepareURL(handler.EndpointStreamMedia, map[string]string{
		"stream_id": id,
		varSort:     sortVar(opts),
	})
	if err != nil {
		rawURL = ""
	}
	return medialist.NewWithStreamID(c.Media(), id, rawURL, c.Streams().GetStreamByID, opts)
}

// CategoryMediaListByID is StreamMediaListByID for categories.
func (c *Client) CategoryMediaListByID(id string, opts medialist.Options) (*medialist.List, error) {
	if id == "" {
		return nil, fmt.Errorf("olapic: category id is empty")
	}
	opts = c.listOptions(opts)
	rawURL, err := c.PrepareURL(handler.EndpointCategoryMedia, map[string]string{
		"category_id": id,
		varSort:       sortVar(opts),
	})
	if err != nil {
		rawURL = ""
	}
	return medialist.NewWithCategoryID(c.Media(), id, rawURL, c.Categories().GetCategoryByID, opts)
}
