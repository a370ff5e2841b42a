// Olapic Go SDK - Media Curation API Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/olapic-go

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/olapic-go/internal/entity"
	"github.com/tomtom215/olapic-go/internal/handler"
	"github.com/tomtom215/olapic-go/internal/medialist"
	"github.com/tomtom215/olapic-go/internal/olapic"
)

var stdout io.Writer = os.Stdout

// ========================================
// connect
// ========================================

func runConnect(ctx context.Context, client *olapic.Client, args []string) error {
	fs := flag.NewFlagSet("connect", flag.ExitOnError)
	_ = fs.Parse(args)

	customer, err := client.Connect(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "connected to %s\n", client.BaseURL())
	fmt.Fprintf(stdout, "customer %s (%s)\n", customer.ID(), customer.Name())
	for _, s := range entity.Sortings {
		if link := customer.Resource(entity.SortingKey(s)); link != "" {
			fmt.Fprintf(stdout, "  %-10s %s\n", s, link)
		}
	}
	return nil
}

// ========================================
// list
// ========================================

// printer writes every page a list delivers.
type printer struct {
	w io.Writer
}

func (p printer) OnMediaLoaded(l *medialist.List, media []*entity.Media, links handler.Links) {
	fmt.Fprintf(p.w, "page %d (%d media)\n", l.CurrentOffset()+1, len(media))
	for _, m := range media {
		kind := "photo"
		if m.IsVideo() {
			kind = "video"
		}
		fmt.Fprintf(p.w, "  %-12s %-5s %s\n", m.ID(), kind, oneLine(m.Caption(), 60))
	}
	if links.Next == "" {
		fmt.Fprintln(p.w, "(last page)")
	}
}

func (p printer) OnError(_ *medialist.List, err error) {
	fmt.Fprintf(p.w, "error: %v\n", err)
}

func oneLine(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > limit {
		return s[:limit-3] + "..."
	}
	return s
}

func parseScope(s string) (medialist.ScopeKind, error) {
	switch strings.ToLower(s) {
	case "", "customer":
		return medialist.ScopeCustomer, nil
	case "stream":
		return medialist.ScopeStream, nil
	case "category":
		return medialist.ScopeCategory, nil
	case "uploader":
		return medialist.ScopeUploader, nil
	default:
		return 0, fmt.Errorf("unknown scope %q", s)
	}
}

func runList(ctx context.Context, client *olapic.Client, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	scopeName := fs.String("scope", "customer", "customer, stream, category or uploader")
	id := fs.String("id", "", "stream, category or uploader id")
	tag := fs.String("tag", "", "stream or category tag key")
	sorting := fs.String("sort", "", "recent, shuffled, photorank or rated")
	count := fs.Int("count", 0, "media per page")
	pages := fs.Int("pages", 1, "number of pages to print")
	_ = fs.Parse(args)

	scope, err := parseScope(*scopeName)
	if err != nil {
		return err
	}
	if *sorting != "" {
		s, err := entity.ParseSorting(*sorting)
		if err != nil {
			return err
		}
		*sorting = string(s)
	}

	params := olapic.EndpointParams{
		Sorting:    entity.Sorting(*sorting),
		Count:      *count,
		TagKey:     *tag,
		StreamID:   *id,
		CategoryID: *id,
		Delegate:   printer{w: stdout},
	}
	list, err := buildList(ctx, client, scope, *id, params)
	if err != nil {
		return err
	}
	return walk(ctx, list, *pages)
}

func buildList(ctx context.Context, client *olapic.Client, scope medialist.ScopeKind, id string, params olapic.EndpointParams) (*medialist.List, error) {
	var endpoint olapic.EndpointType
	switch scope {
	case medialist.ScopeCustomer:
		endpoint = olapic.EndpointCustomerMedia
	case medialist.ScopeStream:
		endpoint = olapic.EndpointStreamMedia
	case medialist.ScopeCategory:
		endpoint = olapic.EndpointCategoryMedia
	case medialist.ScopeUploader:
		if id == "" {
			return nil, fmt.Errorf("uploader lists need -id")
		}
		if _, err := client.Connect(ctx); err != nil {
			return nil, err
		}
		u, err := client.Uploaders().GetUploaderByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return client.UploaderMediaList(u, medialist.Options{
			MediaPerPage: params.Count,
			Delegate:     params.Delegate,
		})
	}
	conn, err := client.ConnectToEndpoint(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	return conn.List, nil
}

// walk loads up to pages pages, stopping at the end of the collection.
func walk(ctx context.Context, list *medialist.List, pages int) error {
	if err := <-list.StartFetching(ctx); err != nil {
		return err
	}
	for loaded := 1; loaded < pages && list.CanLoadNextPage(); loaded++ {
		if err := <-list.LoadNextPage(ctx); err != nil {
			return err
		}
	}
	return nil
}

// ========================================
// show
// ========================================

func runShow(ctx context.Context, client *olapic.Client, args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	kind := fs.String("kind", "customer", "customer, media, stream, category, uploader or widget")
	id := fs.String("id", "", "entity id (widget hash for widgets)")
	_ = fs.Parse(args)

	customer, err := client.Connect(ctx)
	if err != nil {
		return err
	}
	if *kind != "customer" && *id == "" {
		return fmt.Errorf("show -kind %s needs -id", *kind)
	}

	var e *entity.Entity
	switch *kind {
	case "customer":
		e = customer.Entity
	case "media":
		m, err := client.Media().GetMediaByID(ctx, *id)
		if err != nil {
			return err
		}
		e = m.Entity
	case "stream":
		s, err := client.Streams().GetStreamByID(ctx, *id)
		if err != nil {
			return err
		}
		e = s.Entity
	case "category":
		c, err := client.Categories().GetCategoryByID(ctx, *id)
		if err != nil {
			return err
		}
		e = c.Entity
	case "uploader":
		u, err := client.Uploaders().GetUploaderByID(ctx, *id)
		if err != nil {
			return err
		}
		e = u.Entity
	case "widget":
		w, err := client.WidgetInstances().GetWidgetInstanceByHash(ctx, *id)
		if err != nil {
			return err
		}
		e = w.Entity
	default:
		return fmt.Errorf("unknown kind %q", *kind)
	}
	return printJSON(stdout, e.Data())
}

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// ========================================
// upload
// ========================================

func runUpload(ctx context.Context, client *olapic.Client, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	path := fs.String("file", "", "image to upload")
	caption := fs.String("caption", "", "media caption")
	lat := fs.String("lat", "", "latitude")
	lon := fs.String("lon", "", "longitude")
	streams := fs.String("stream", "", "comma separated stream ids to tag")
	_ = fs.Parse(args)

	if *path == "" {
		return fmt.Errorf("upload needs -file")
	}
	image, err := os.ReadFile(*path)
	if err != nil {
		return err
	}

	req := handler.UploadRequest{Caption: *caption}
	if req.Latitude, err = optionalFloat("lat", *lat); err != nil {
		return err
	}
	if req.Longitude, err = optionalFloat("lon", *lon); err != nil {
		return err
	}

	customer, err := client.Connect(ctx)
	if err != nil {
		return err
	}
	for _, id := range splitIDs(*streams) {
		s, err := client.Streams().GetStreamByID(ctx, id)
		if err != nil {
			return fmt.Errorf("stream %s: %w", id, err)
		}
		req.Streams = append(req.Streams, s)
	}
	if err := req.Validate(); err != nil {
		return err
	}

	uploader, err := client.Customers().GetUploaderFromCustomer(ctx, customer)
	if err != nil {
		return err
	}

	up := client.Uploaders().UploadMediaAsync(ctx, uploader, image, req.Metadata())
	for f := range up.Progress() {
		fmt.Fprintf(stdout, "\ruploading %3.0f%%", f*100)
	}
	fmt.Fprintln(stdout)

	media, err := up.Wait(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "uploaded media %s\n", media.ID())
	return nil
}

func optionalFloat(name, s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("-%s: %w", name, err)
	}
	return &v, nil
}

func splitIDs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
