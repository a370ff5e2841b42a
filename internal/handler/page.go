// Olapic Go SDK - Media Curation API Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/olapic-go

package handler

import (
	"github.com/tomtom215/olapic-go/internal/apierr"
	"github.com/tomtom215/olapic-go/internal/entity"
	"github.com/tomtom215/olapic-go/internal/logging"
)

// Links are the pagination links of one list page. An empty Next or
// Previous means there is no such page.
type Links struct {
	Self     string
	Next     string
	Previous string
}

// Page is one page of a media collection.
type Page struct {
	Links Links
	Media []*entity.Media
}

// ExtractEntitiesFromRequest splits a list response into its links and media.
// Two shapes are accepted:
//
//	{"links": {"self", "next", "previous"}, "media": [...]}
//	{"data": {"_links": {"self", "next", "prev"}, "_embedded": {"media": [...]}}}
//
// Link values may be strings or {"href": ...} objects; null means absent.
// The response is malformed only when neither links nor media are present.
func (b *Base) ExtractEntitiesFromRequest(resp any) (Page, error) {
	root, ok := resp.(map[string]any)
	if !ok {
		return Page{}, apierr.NewMalformedResponseError("", "list response is not a JSON object", nil)
	}
	if data, ok := root["data"].(map[string]any); ok {
		root = data
	}

	linksObj, hasLinks := root["links"].(map[string]any)
	if !hasLinks {
		linksObj, hasLinks = root["_links"].(map[string]any)
	}

	rawMedia, hasMedia := root["media"].([]any)
	if !hasMedia {
		if v, ok := entity.Lookup(root, "_embedded/media"); ok {
			rawMedia, hasMedia = v.([]any)
		}
	}

	if !hasLinks && !hasMedia {
		return Page{}, apierr.NewMalformedResponseError("", "list response has neither links nor media", nil)
	}

	page := Page{
		Links: Links{
			Self:     b.linkValue(linksObj, "self"),
			Next:     b.linkValue(linksObj, "next"),
			Previous: b.linkValue(linksObj, "previous", "prev"),
		},
		Media: make([]*entity.Media, 0, len(rawMedia)),
	}
	for i, raw := range rawMedia {
		obj, ok := raw.(map[string]any)
		if !ok {
			logging.Debug().Int("index", i).Msg("Skipping list item that is not an object")
			continue
		}
		page.Media = append(page.Media, entity.NewMedia(b.CreateEntityFromJSON(obj)))
	}
	return page, nil
}

// linkValue reads the first present name from links and resolves it.
func (b *Base) linkValue(links map[string]any, names ...string) string {
	for _, name := range names {
		var href string
		switch v := links[name].(type) {
		case string:
			href = v
		case map[string]any:
			href, _ = v["href"].(string)
		}
		if href != "" {
			return b.resolve(href)
		}
	}
	return ""
}
