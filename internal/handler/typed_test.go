// Olapic Go SDK - Media Curation API Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/olapic-go

package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/olapic-go/internal/apierr"
	"github.com/tomtom215/olapic-go/internal/config"
	"github.com/tomtom215/olapic-go/internal/entity"
	"github.com/tomtom215/olapic-go/internal/rest"
)

// ========================================
// Lookups
// ========================================

func TestStreamHandler_GetStreamByIDIsMemoized(t *testing.T) {
	t.Parallel()

	ft := newFakeTransport()
	ft.get[testBase+"/streams/42"] = decode(t, `{"data": {"id": 42, "name": "Boots", "tag_based_key": "SKU-1"}}`)
	h := newTestHandlers(t, ft, true)

	for i := 0; i < 3; i++ {
		s, err := h.Streams.GetStreamByID(context.Background(), "42")
		if err != nil {
			t.Fatalf("GetStreamByID() error = %v", err)
		}
		if s.Name() != "Boots" || s.TagKey() != "SKU-1" {
			t.Errorf("stream = %v", s.Data())
		}
	}
	if n := ft.callCount(testBase + "/streams/42"); n != 1 {
		t.Errorf("transport calls = %d, want 1", n)
	}
}

func TestStreamHandler_NoCacheWhenDisabled(t *testing.T) {
	t.Parallel()

	ft := newFakeTransport()
	ft.get[testBase+"/streams/42"] = decode(t, `{"data": {"id": 42}}`)
	h := newTestHandlers(t, ft, false)

	for i := 0; i < 2; i++ {
		if _, err := h.Streams.GetStreamByID(context.Background(), "42"); err != nil {
			t.Fatal(err)
		}
	}
	if n := ft.callCount(testBase + "/streams/42"); n != 2 {
		t.Errorf("transport calls = %d, want 2", n)
	}
}

// gatedTransport blocks every Get until gate is closed and records the
// context error the request saw once released.
type gatedTransport struct {
	*fakeTransport
	once    sync.Once
	started chan struct{}
	gate    chan struct{}
	ctxErr  chan error
}

func (g *gatedTransport) Get(ctx context.Context, rawURL string, params url.Values) (any, error) {
	g.once.Do(func() { close(g.started) })
	<-g.gate
	select {
	case g.ctxErr <- ctx.Err():
	default:
	}
	return g.fakeTransport.Get(ctx, rawURL, params)
}

func TestLookup_SharedRequestSurvivesCallerCancel(t *testing.T) {
	t.Parallel()

	ft := newFakeTransport()
	ft.get[testBase+"/streams/42"] = decode(t, `{"data": {"id": 42, "name": "Boots"}}`)
	gt := &gatedTransport{
		fakeTransport: ft,
		started:       make(chan struct{}),
		gate:          make(chan struct{}),
		ctxErr:        make(chan error, 1),
	}
	h := New(gt, fakeEndpoints{}, config.CacheConfig{Enabled: true, Capacity: 16, TTL: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := h.Streams.GetStreamByID(ctx, "42")
		firstErr <- err
	}()
	<-gt.started

	second := make(chan error, 1)
	go func() {
		s, err := h.Streams.GetStreamByID(context.Background(), "42")
		if err == nil && s.Name() != "Boots" {
			t.Errorf("stream = %v", s.Data())
		}
		second <- err
	}()

	cancel()
	select {
	case err := <-firstErr:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("cancelled caller error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(gt.gate)
	if err := <-gt.ctxErr; err != nil {
		t.Errorf("shared request saw ctx error %v", err)
	}
	select {
	case err := <-second:
		if err != nil {
			t.Errorf("waiting caller error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("waiting caller did not return")
	}
}

func TestLookup_Errors(t *testing.T) {
	t.Parallel()

	ft := newFakeTransport()
	ft.get[testBase+"/categories/bad"] = []any{"not", "an", "object"}
	ft.get[testBase+"/categories/down"] = apierr.NewNetworkError(testBase+"/categories/down", context.DeadlineExceeded)
	h := newTestHandlers(t, ft, true)

	tests := []struct {
		id   string
		want apierr.Kind
	}{
		{"missing", apierr.KindNotFound},
		{"bad", apierr.KindMalformedResponse},
		{"down", apierr.KindNetwork},
	}
	for _, tt := range tests {
		_, err := h.Categories.GetCategoryByID(context.Background(), tt.id)
		checkKind(t, err, tt.want)
	}

	// Failures are not memoized.
	ft.mu.Lock()
	ft.get[testBase+"/categories/missing"] = decode(t, `{"data": {"id": "missing", "name": "Later"}}`)
	ft.mu.Unlock()
	c, err := h.Categories.GetCategoryByID(context.Background(), "missing")
	if err != nil || c.Name() != "Later" {
		t.Errorf("GetCategoryByID after failure = %v, %v", c, err)
	}
}

func TestSearchByTagKey(t *testing.T) {
	t.Parallel()

	ft := newFakeTransport()
	ft.get[testBase+"/customers/1/streams/search?tag_key=SKU-1"] = decode(t,
		`{"data": {"_embedded": {"stream": [{"id": 5, "name": "Boots", "tag_based_key": "SKU-1"}]}}}`)
	ft.get[testBase+"/customers/1/streams/search?tag_key=none"] = decode(t,
		`{"data": {"_embedded": {"stream": []}}}`)
	ft.get[testBase+"/customers/1/categories/search?tag_key=shoes"] = decode(t,
		`{"data": {"id": 9, "name": "Shoes", "tag_based_key": "shoes"}}`)
	h := newTestHandlers(t, ft, true)

	s, err := h.Streams.GetStreamByTagKey(context.Background(), "SKU-1")
	if err != nil || s.ID() != "5" {
		t.Fatalf("GetStreamByTagKey = %v, %v", s, err)
	}

	_, err = h.Streams.GetStreamByTagKey(context.Background(), "none")
	checkKind(t, err, apierr.KindNotFound)

	c, err := h.Categories.GetCategoryByTagKey(context.Background(), "shoes")
	if err != nil || c.Name() != "Shoes" {
		t.Fatalf("GetCategoryByTagKey = %v, %v", c, err)
	}
}

// ========================================
// Related entities
// ========================================

func TestGetUploaderFromMedia(t *testing.T) {
	t.Parallel()

	ft := newFakeTransport()
	ft.get[testBase+"/uploaders/9"] = decode(t, `{"data": {"id": 9, "name": "Ana", "username": "ana"}}`)
	h := newTestHandlers(t, ft, false)

	m := entity.NewMedia(h.Base.CreateEntityFromJSON(decode(t,
		`{"id": "m1", "_embedded": {"uploader": {"_links": {"self": {"href": "/uploaders/9"}}}}}`)))

	for i := 0; i < 2; i++ {
		u, err := h.Uploaders.GetUploaderFromMedia(context.Background(), m)
		if err != nil {
			t.Fatalf("GetUploaderFromMedia() error = %v", err)
		}
		if u.Username() != "ana" {
			t.Errorf("Username() = %q", u.Username())
		}
	}
	if n := ft.callCount(testBase + "/uploaders/9"); n != 1 {
		t.Errorf("transport calls = %d, want 1 (memoized on the media)", n)
	}

	orphan := entity.NewMedia(h.Base.CreateEntityFromJSON(map[string]any{"id": "m2"}))
	_, err := h.Uploaders.GetUploaderFromMedia(context.Background(), orphan)
	checkKind(t, err, apierr.KindNotFound)
}

func TestGetUploaderFromCustomer(t *testing.T) {
	t.Parallel()

	ft := newFakeTransport()
	ft.get[testBase+"/uploaders/default"] = decode(t, `{"data": {"id": "default"}}`)
	h := newTestHandlers(t, ft, false)

	c := h.Customers.NewCustomer(decode(t,
		`{"id": 1, "_embedded": {"uploader": {"href": "//api.example/uploaders/default"}}}`))
	u, err := h.Customers.GetUploaderFromCustomer(context.Background(), c)
	if err != nil || u.ID() != "default" {
		t.Fatalf("GetUploaderFromCustomer = %v, %v", u, err)
	}
}

func TestGetRelatedStreamsFromMedia(t *testing.T) {
	t.Parallel()

	ft := newFakeTransport()
	ft.get[testBase+"/media/m1/streams"] = decode(t, `{"data": {"_embedded": {"stream": [
		{"id": 1, "name": "Inline"},
		{"_links": {"self": {"href": "/streams/2"}}},
		{"_links": {"self": {"href": "/streams/3"}}}
	]}}}`)
	ft.get[testBase+"/streams/2"] = decode(t, `{"data": {"id": 2, "name": "Two"}}`)
	ft.get[testBase+"/streams/3"] = decode(t, `{"data": {"id": 3, "name": "Three"}}`)
	h := newTestHandlers(t, ft, true)

	m := entity.NewMedia(h.Base.CreateEntityFromJSON(decode(t,
		`{"id": "m1", "_embedded": {"streams:all": {"_links": {"self": {"href": "/media/m1/streams"}}}}}`)))

	streams, err := h.Media.GetRelatedStreamsFromMedia(context.Background(), m)
	if err != nil {
		t.Fatalf("GetRelatedStreamsFromMedia() error = %v", err)
	}
	want := []string{"Inline", "Two", "Three"}
	if len(streams) != len(want) {
		t.Fatalf("got %d streams, want %d", len(streams), len(want))
	}
	for i, name := range want {
		if streams[i].Name() != name {
			t.Errorf("streams[%d] = %q, want %q", i, streams[i].Name(), name)
		}
	}
}

func TestGetRelatedStreamsFromMedia_FetchError(t *testing.T) {
	t.Parallel()

	ft := newFakeTransport()
	ft.get[testBase+"/media/m1/streams"] = decode(t, `{"data": {"_embedded": {"stream": [
		{"_links": {"self": {"href": "/streams/gone"}}}
	]}}}`)
	h := newTestHandlers(t, ft, true)

	m := entity.NewMedia(h.Base.CreateEntityFromJSON(decode(t,
		`{"id": "m1", "_embedded": {"streams:all": {"href": "/media/m1/streams"}}}`)))
	_, err := h.Media.GetRelatedStreamsFromMedia(context.Background(), m)
	checkKind(t, err, apierr.KindNotFound)
}

// ========================================
// Media actions
// ========================================

func TestMediaHandler_LoadImage(t *testing.T) {
	t.Parallel()

	ft := newFakeTransport()
	ft.binary["https://cdn.example/sq.jpg"] = []byte{0xff, 0xd8, 0xff}
	h := newTestHandlers(t, ft, false)

	m := entity.NewMedia(h.Base.CreateEntityFromJSON(decode(t,
		`{"id": "m1", "images": {"square": "https://cdn.example/sq.jpg"}}`)))

	data, err := h.Media.LoadImage(context.Background(), m, entity.ImageSquare)
	if err != nil || len(data) != 3 {
		t.Fatalf("LoadImage = %v, %v", data, err)
	}
	_, err = h.Media.LoadImage(context.Background(), m, entity.ImageOriginal)
	checkKind(t, err, apierr.KindNotFound)
}

func TestMediaHandler_ReportMedia(t *testing.T) {
	t.Parallel()

	ft := newFakeTransport()
	h := newTestHandlers(t, ft, false)

	m := entity.NewMedia(h.Base.CreateEntityFromJSON(decode(t,
		`{"id": "m1", "_forms": {"report": {"_links": {"self": {"href": "/media/m1/reports"}}}}}`)))

	req := ReportRequest{Email: "a@example.com", Reason: "offensive"}
	if err := h.Media.ReportMedia(context.Background(), m, req.Metadata()); err != nil {
		t.Fatalf("ReportMedia() error = %v", err)
	}
	if len(ft.posts) != 1 || ft.posts[0].url != testBase+"/media/m1/reports" {
		t.Fatalf("posts = %+v", ft.posts)
	}
	parts := ft.posts[0].parts
	if len(parts) != 2 || parts[0].Name != "email" || parts[1].Value != "offensive" {
		t.Errorf("parts = %+v", parts)
	}

	noForm := entity.NewMedia(h.Base.CreateEntityFromJSON(map[string]any{"id": "m2"}))
	checkKind(t, h.Media.ReportMedia(context.Background(), noForm, nil), apierr.KindNotFound)
}

func TestMediaHandler_GetMediaFromURL(t *testing.T) {
	t.Parallel()

	ft := newFakeTransport()
	ft.get[testBase+"/customers/1/media/recent"] = decode(t,
		`{"links": {"self": "/customers/1/media/recent", "next": "/customers/1/media/recent?page=2"}, "media": [{"id": 1}]}`)
	ft.get[testBase+"/broken"] = decode(t, `{"unexpected": true}`)
	h := newTestHandlers(t, ft, true)

	page, err := h.Media.GetMediaFromURL(context.Background(), "/customers/1/media/recent", nil)
	if err != nil {
		t.Fatalf("GetMediaFromURL() error = %v", err)
	}
	if page.Links.Next != testBase+"/customers/1/media/recent?page=2" || len(page.Media) != 1 {
		t.Errorf("page = %+v", page)
	}

	_, err = h.Media.GetMediaFromURL(context.Background(), "/broken", nil)
	checkKind(t, err, apierr.KindMalformedResponse)

	_, err = h.Media.GetMediaFromURL(context.Background(), "/absent", nil)
	checkKind(t, err, apierr.KindNotFound)
}

// ========================================
// Upload
// ========================================

func TestUploadMedia_FakeTransport(t *testing.T) {
	t.Parallel()

	ft := newFakeTransport()
	ft.postResp = decode(t, `{"data": {"id": "new-media", "caption": "beach"}}`)
	h := newTestHandlers(t, ft, false)

	u := entity.NewUploader(h.Base.CreateEntityFromJSON(decode(t,
		`{"id": 9, "_forms": {"media": {"action": "/uploaders/9/media"}}}`)))
	png := []byte("\x89PNG\r\n\x1a\n0000")

	var fractions []float64
	m, err := h.Uploaders.UploadMedia(context.Background(), u, png, Metadata{}.Add("caption", "beach"), func(f float64) {
		fractions = append(fractions, f)
	})
	if err != nil {
		t.Fatalf("UploadMedia() error = %v", err)
	}
	if m.ID() != "new-media" || m.Caption() != "beach" {
		t.Errorf("media = %v", m.Data())
	}
	if len(fractions) != 2 || fractions[1] != 1 {
		t.Errorf("fractions = %v", fractions)
	}

	parts := ft.posts[0].parts
	last := parts[len(parts)-1]
	if parts[0].Name != "caption" || last.Name != uploadFileField || last.FileName != "upload.png" || last.ContentType != "image/png" {
		t.Errorf("parts = %+v", parts)
	}
}

func TestUploadMedia_NoForm(t *testing.T) {
	t.Parallel()

	h := newTestHandlers(t, newFakeTransport(), false)
	u := entity.NewUploader(h.Base.CreateEntityFromJSON(map[string]any{"id": 9}))
	_, err := h.Uploaders.UploadMedia(context.Background(), u, []byte("x"), nil, nil)
	checkKind(t, err, apierr.KindNotFound)
}

func TestUploadProgress_SlowReaderSeesFinalFraction(t *testing.T) {
	t.Parallel()

	up := &Upload{
		progress: make(chan float64, 4),
		done:     make(chan UploadResult, 1),
	}
	for i := 1; i <= 100; i++ {
		up.report(float64(i) / 100)
	}
	up.finish(UploadResult{})

	var got []float64
	for f := range up.Progress() {
		got = append(got, f)
	}
	if len(got) != 4 {
		t.Fatalf("buffered fractions = %v, want 4", got)
	}
	for i := 1; i < len(got); i++ {
		if got[i] < got[i-1] {
			t.Errorf("progress went backwards: %v", got)
		}
	}
	if got[len(got)-1] != 1 {
		t.Errorf("last fraction = %v, want 1", got[len(got)-1])
	}

	// Reports after finish are ignored.
	up.report(0.5)
}

func TestUploadMediaAsync_OverHTTP(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
		}
		if got := r.FormValue("caption"); got != "sunset" {
			t.Errorf("caption = %q", got)
		}
		if _, _, err := r.FormFile(uploadFileField); err != nil {
			t.Errorf("FormFile: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"data": {"id": "m-77"}}`)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.API.AuthKey = "k"
	cfg.Resilience.RateLimitRPS = 0
	cfg.Resilience.BreakerEnabled = false
	h := New(rest.New(cfg), fakeEndpoints{}, cfg.Cache)

	u := entity.NewUploader(h.Base.CreateEntityFromJSON(map[string]any{
		"id":     "9",
		"_forms": map[string]any{"media": map[string]any{"href": server.URL + "/uploaders/9/media"}},
	}))
	req := UploadRequest{Caption: "sunset"}
	upload := h.Uploaders.UploadMediaAsync(context.Background(), u, make([]byte, 32*1024), req.Metadata())

	var last float64
	for f := range upload.Progress() {
		if f < last {
			t.Errorf("progress went backwards: %v after %v", f, last)
		}
		last = f
	}

	select {
	case res := <-upload.Done():
		if res.Err != nil {
			t.Fatalf("upload error = %v", res.Err)
		}
		if res.Media.ID() != "m-77" {
			t.Errorf("media id = %q", res.Media.ID())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("upload did not finish")
	}
	if last != 1 {
		t.Errorf("last progress = %v, want 1", last)
	}
}
