// Olapic Go SDK - Media Curation API Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/olapic-go

/*
Package olapic is the entry point of the SDK.

A Client holds the base URL, the auth key, the transport and the typed
handlers. There is no package-level instance: applications create a Client
from a config and pass it, or its handlers, to the code that needs them.

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	client, err := olapic.New(cfg)
	if err != nil {
		return err
	}
	customer, err := client.Connect(ctx)
	if err != nil {
		return err
	}
	list, err := client.CustomerMediaList(medialist.Options{Delegate: d})
	if err != nil {
		return err
	}
	err = <-list.StartFetching(ctx)

Until Connect succeeds, every operation that needs the customer returns a
NotConnected error.
*/
package olapic

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/tomtom215/olapic-go/internal/config"
	"github.com/tomtom215/olapic-go/internal/entity"
	"github.com/tomtom215/olapic-go/internal/handler"
	"github.com/tomtom215/olapic-go/internal/rest"
)

// Client connects an application to the Olapic API.
type Client struct {
	cfg       *config.Config
	transport rest.Transport
	handlers  *handler.Handlers

	mu       sync.RWMutex
	baseURL  string
	customer *entity.Customer
}

var _ handler.Endpoints = (*Client)(nil)

type options struct {
	transport  rest.Transport
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*options)

// WithTransport replaces the HTTP transport, typically with a fake in tests.
func WithTransport(t rest.Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithHTTPClient sets the *http.Client of the default transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// New validates cfg and builds a disconnected client.
func New(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("olapic: config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("olapic: invalid config: %w", err)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.transport == nil {
		o.transport = rest.New(cfg, rest.WithHTTPClient(o.httpClient))
	}

	c := &Client{
		cfg:       cfg,
		transport: o.transport,
		baseURL:   normalizeBaseURL(cfg.API.BaseURL),
	}
	c.handlers = handler.New(c.transport, c, cfg.Cache)
	return c, nil
}

func normalizeBaseURL(u string) string {
	return strings.TrimRight(strings.TrimSpace(u), "/")
}

// Config returns the configuration the client was built with.
func (c *Client) Config() *config.Config { return c.cfg }

// Transport returns the transport every request goes through.
func (c *Client) Transport() rest.Transport { return c.transport }

// Connected reports whether Connect has succeeded since the client was
// created or its base URL last changed.
func (c *Client) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.customer != nil
}

// Customer returns the connected customer, or nil.
func (c *Client) Customer() *entity.Customer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.customer
}

// StartLoggingURLs logs every requested URL at info level from now on.
// Transports that cannot log URLs ignore it.
func (c *Client) StartLoggingURLs() {
	if t, ok := c.transport.(interface{ SetLogURLs(bool) }); ok {
		t.SetLogURLs(true)
	}
}

// ========================================
// Handlers
// ========================================

// Handlers returns every typed handler.
func (c *Client) Handlers() *handler.Handlers { return c.handlers }

// Customers returns the customer handler.
func (c *Client) Customers() *handler.CustomerHandler { return c.handlers.Customers }

// Media returns the media handler.
func (c *Client) Media() *handler.MediaHandler { return c.handlers.Media }

// Streams returns the stream handler.
func (c *Client) Streams() *handler.StreamHandler { return c.handlers.Streams }

// Categories returns the category handler.
func (c *Client) Categories() *handler.CategoryHandler { return c.handlers.Categories }

// Uploaders returns the uploader handler.
func (c *Client) Uploaders() *handler.UploaderHandler { return c.handlers.Uploaders }

// WidgetInstances returns the widget instance handler.
func (c *Client) WidgetInstances() *handler.WidgetInstanceHandler { return c.handlers.Widgets }
