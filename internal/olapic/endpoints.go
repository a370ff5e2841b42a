// Olapic Go SDK - Media Curation API Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/olapic-go

package olapic

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/tomtom215/olapic-go/internal/apierr"
	"github.com/tomtom215/olapic-go/internal/entity"
	"github.com/tomtom215/olapic-go/internal/handler"
)

// Template variables with a fallback.
const (
	varCustomerID = "customer_id"
	varSort       = "sort"
)

// templates are the API paths PrepareURL fills, keyed by endpoint kind.
var templates = map[string]string{
	handler.EndpointCustomer:       "/customers/{customer_id}",
	handler.EndpointCustomerMedia:  "/customers/{customer_id}/media/{sort}",
	handler.EndpointStream:         "/streams/{stream_id}",
	handler.EndpointStreamMedia:    "/streams/{stream_id}/media/{sort}",
	handler.EndpointCategory:       "/categories/{category_id}",
	handler.EndpointCategoryMedia:  "/categories/{category_id}/media/{sort}",
	handler.EndpointStreamSearch:   "/customers/{customer_id}/streams/search",
	handler.EndpointCategorySearch: "/customers/{customer_id}/categories/search",
	handler.EndpointUploader:       "/uploaders/{uploader_id}",
	handler.EndpointMedia:          "/media/{media_id}",
	handler.EndpointWidgetInstance: "/widgets/{widget_instance}",
}

var placeholder = regexp.MustCompile(`\{([a-z_]+)\}`)

// BaseURL returns the API root, without a trailing slash.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// SetBaseURL points the client at another API root. The client is
// disconnected: the customer belonged to the previous root.
func (c *Client) SetBaseURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("olapic: invalid base URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("olapic: base URL %q must be an absolute http(s) URL", raw)
	}

	c.mu.Lock()
	c.baseURL = normalizeBaseURL(raw)
	c.customer = nil
	c.mu.Unlock()
	return nil
}

// ResolveURL turns an href from an API response into an absolute URL.
// Protocol-relative hrefs get https; relative ones are resolved against the
// base URL. Absolute URLs are returned unchanged.
func (c *Client) ResolveURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if ref.IsAbs() {
		return href
	}
	base, err := url.Parse(c.BaseURL() + "/")
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// PrepareURL fills the template of an endpoint kind. customer_id defaults
// to the connected customer and sort to the configured sorting. Variables
// the template does not use are sent as query parameters.
func (c *Client) PrepareURL(kind string, vars map[string]string) (string, error) {
	tmpl, ok := templates[kind]
	if !ok {
		return "", fmt.Errorf("olapic: unknown endpoint %q", kind)
	}

	used := make(map[string]bool)
	var missing error
	path := placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := m[1 : len(m)-1]
		used[name] = true
		value, err := c.templateVar(kind, name, vars)
		if err != nil {
			if missing == nil {
				missing = err
			}
			return m
		}
		return url.PathEscape(value)
	})
	if missing != nil {
		return "", missing
	}

	query := url.Values{}
	for k, v := range vars {
		if !used[k] && v != "" {
			query.Set(k, v)
		}
	}
	target := c.BaseURL() + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return target, nil
}

func (c *Client) templateVar(kind, name string, vars map[string]string) (string, error) {
	if v := vars[name]; v != "" {
		return v, nil
	}
	switch name {
	case varCustomerID:
		customer := c.Customer()
		if customer == nil {
			return "", apierr.NewNotConnectedError("PrepareURL " + kind)
		}
		return customer.ID(), nil
	case varSort:
		s, err := entity.ParseSorting(c.cfg.MediaList.DefaultSorting)
		if err != nil {
			return string(entity.SortRecent), nil
		}
		return string(s), nil
	default:
		return "", fmt.Errorf("olapic: endpoint %q needs %s", kind, name)
	}
}
