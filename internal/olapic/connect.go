// Olapic Go SDK - Media Curation API Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/olapic-go

package olapic

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/tomtom215/olapic-go/internal/apierr"
	"github.com/tomtom215/olapic-go/internal/entity"
	"github.com/tomtom215/olapic-go/internal/logging"
	"github.com/tomtom215/olapic-go/internal/medialist"
)

// EndpointType selects what ConnectToEndpoint loads after connecting.
type EndpointType int

const (
	EndpointDefault EndpointType = iota
	EndpointCustomerMedia
	EndpointCategoryMedia
	EndpointStreamMedia
	EndpointStream
	EndpointCategory
	EndpointStreamSearch
	EndpointCategorySearch
	EndpointWidgetInstance
)

func (t EndpointType) String() string {
	switch t {
	case EndpointDefault:
		return "default"
	case EndpointCustomerMedia:
		return "customer_media"
	case EndpointCategoryMedia:
		return "category_media"
	case EndpointStreamMedia:
		return "stream_media"
	case EndpointStream:
		return "stream"
	case EndpointCategory:
		return "category"
	case EndpointStreamSearch:
		return "stream_search"
	case EndpointCategorySearch:
		return "category_search"
	case EndpointWidgetInstance:
		return "widget_instance"
	default:
		return "endpoint(" + strconv.Itoa(int(t)) + ")"
	}
}

// EndpointParams are the inputs of ConnectToEndpoint. Each endpoint reads
// only the fields it needs.
type EndpointParams struct {
	// Sorting and Count configure media lists.
	Sorting entity.Sorting
	Count   int
	// TagKey finds a stream or category by its tag based key.
	TagKey string
	// CustomerID selects another customer than the connected one.
	CustomerID     string
	StreamID       string
	CategoryID     string
	WidgetInstance string
	// Params are extra query parameters for media lists.
	Params url.Values
	// Delegate receives the events of the returned list.
	Delegate medialist.Delegate
}

// Connection is the result of ConnectToEndpoint. Only the fields of the
// requested endpoint are set, besides Customer.
type Connection struct {
	Endpoint       EndpointType
	Customer       *entity.Customer
	Stream         *entity.Stream
	Category       *entity.Category
	WidgetInstance *entity.WidgetInstance
	// List is set for the media endpoints. It has not started fetching.
	List *medialist.List
}

// Connect authenticates with the auth key and loads the customer it
// belongs to.
func (c *Client) Connect(ctx context.Context) (*entity.Customer, error) {
	base := c.BaseURL()
	target := base + "/"

	resp, err := c.transport.Get(ctx, target, nil)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("base_url", base).Msg("Connection to Olapic API failed")
		return nil, err
	}
	obj, err := customerPayload(resp, target)
	if err != nil {
		return nil, err
	}
	customer := c.handlers.Customers.NewCustomer(obj)

	c.mu.Lock()
	if c.baseURL != base {
		c.mu.Unlock()
		return nil, apierr.NewNotConnectedError("Connect: base URL changed while connecting")
	}
	c.customer = customer
	c.mu.Unlock()

	logging.Ctx(ctx).Info().
		Str("customer_id", customer.ID()).
		Str("customer", customer.Name()).
		Msg("Connected to Olapic API")
	return customer, nil
}

// customerPayload finds the customer object in the bootstrap response:
// data._embedded.customer, or the data object itself when it has an id.
func customerPayload(resp any, target string) (map[string]any, error) {
	redacted := logging.RedactURL(target)
	root, ok := resp.(map[string]any)
	if !ok {
		return nil, apierr.NewMalformedResponseError(redacted, "bootstrap response is not a JSON object", nil)
	}
	if data, ok := root["data"].(map[string]any); ok {
		root = data
	}
	if v, ok := entity.Lookup(root, "_embedded/customer"); ok {
		switch t := v.(type) {
		case map[string]any:
			return t, nil
		case []any:
			if len(t) > 0 {
				if obj, ok := t[0].(map[string]any); ok {
					return obj, nil
				}
			}
		}
	}
	if _, ok := root["id"]; ok {
		return root, nil
	}
	return nil, apierr.NewMalformedResponseError(redacted, "bootstrap response has no customer", nil)
}

// ConnectToEndpoint connects if needed, then loads what endpoint names.
func (c *Client) ConnectToEndpoint(ctx context.Context, endpoint EndpointType, params EndpointParams) (*Connection, error) {
	customer := c.Customer()
	if customer == nil {
		var err error
		if customer, err = c.Connect(ctx); err != nil {
			return nil, err
		}
	}

	conn := &Connection{Endpoint: endpoint, Customer: customer}
	opts := medialist.Options{
		Sorting:      params.Sorting,
		MediaPerPage: params.Count,
		Params:       params.Params,
		Delegate:     params.Delegate,
	}

	var err error
	switch endpoint {
	case EndpointDefault:
	case EndpointCustomerMedia:
		target := customer
		if params.CustomerID != "" && params.CustomerID != customer.ID() {
			if target, err = c.Customers().GetCustomerByID(ctx, params.CustomerID); err != nil {
				return nil, err
			}
		}
		conn.List, err = medialist.NewForCustomer(c.Media(), target, c.listOptions(opts))
	case EndpointStreamMedia:
		if conn.Stream, err = c.findStream(ctx, endpoint, params); err != nil {
			return nil, err
		}
		conn.List, err = medialist.NewForStream(c.Media(), conn.Stream, c.listOptions(opts))
	case EndpointCategoryMedia:
		if conn.Category, err = c.findCategory(ctx, endpoint, params); err != nil {
			return nil, err
		}
		conn.List, err = medialist.NewForCategory(c.Media(), conn.Category, c.listOptions(opts))
	case EndpointStream:
		if params.StreamID == "" {
			return nil, missingParam(endpoint, "stream id")
		}
		conn.Stream, err = c.Streams().GetStreamByID(ctx, params.StreamID)
	case EndpointCategory:
		if params.CategoryID == "" {
			return nil, missingParam(endpoint, "category id")
		}
		conn.Category, err = c.Categories().GetCategoryByID(ctx, params.CategoryID)
	case EndpointStreamSearch:
		if params.TagKey == "" {
			return nil, missingParam(endpoint, "tag key")
		}
		conn.Stream, err = c.Streams().GetStreamByTagKey(ctx, params.TagKey)
	case EndpointCategorySearch:
		if params.TagKey == "" {
			return nil, missingParam(endpoint, "tag key")
		}
		conn.Category, err = c.Categories().GetCategoryByTagKey(ctx, params.TagKey)
	case EndpointWidgetInstance:
		if params.WidgetInstance == "" {
			return nil, missingParam(endpoint, "widget instance hash")
		}
		conn.WidgetInstance, err = c.WidgetInstances().GetWidgetInstanceByHash(ctx, params.WidgetInstance)
	default:
		return nil, fmt.Errorf("olapic: unknown endpoint %s", endpoint)
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// findStream loads the stream of a media endpoint by id, or by tag key.
func (c *Client) findStream(ctx context.Context, endpoint EndpointType, params EndpointParams) (*entity.Stream, error) {
	switch {
	case params.StreamID != "":
		return c.Streams().GetStreamByID(ctx, params.StreamID)
	case params.TagKey != "":
		return c.Streams().GetStreamByTagKey(ctx, params.TagKey)
	default:
		return nil, missingParam(endpoint, "stream id or tag key")
	}
}

func (c *Client) findCategory(ctx context.Context, endpoint EndpointType, params EndpointParams) (*entity.Category, error) {
	switch {
	case params.CategoryID != "":
		return c.Categories().GetCategoryByID(ctx, params.CategoryID)
	case params.TagKey != "":
		return c.Categories().GetCategoryByTagKey(ctx, params.TagKey)
	default:
		return nil, missingParam(endpoint, "category id or tag key")
	}
}

func missingParam(endpoint EndpointType, what string) error {
	return fmt.Errorf("olapic: %s endpoint needs a %s", endpoint, what)
}
