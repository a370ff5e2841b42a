// Olapic Go SDK - Media Curation API Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/olapic-go

package entity

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"
)

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return m
}

// ========================================
// Path lookup
// ========================================

func TestEntity_Get(t *testing.T) {
	t.Parallel()

	e := New(decode(t, `{
		"a": {"b": {"c": 5}},
		"list": [1, 2],
		"name": "beach",
		"nothing": null,
		"resources": {"media": {"recent": "https://api.example/media/recent"}}
	}`))

	tests := []struct {
		name   string
		path   string
		want   any
		wantOK bool
	}{
		{"nested scalar", "a/b/c", 5.0, true},
		{"missing middle segment", "a/x/c", nil, false},
		{"missing leaf", "a/b/x", nil, false},
		{"through scalar", "name/x", nil, false},
		{"through array", "list/0", nil, false},
		{"top level", "name", "beach", true},
		{"explicit null", "nothing", nil, true},
		{"injected resource", "resources/media/recent", "https://api.example/media/recent", true},
		{"trailing slash", "a/b/", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := e.Get(tt.path)
			if ok != tt.wantOK {
				t.Fatalf("Get(%q) ok = %v, want %v", tt.path, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("Get(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestEntity_GetReturnsObjectsAndArrays(t *testing.T) {
	t.Parallel()

	e := New(decode(t, `{"a": {"b": {"c": 5}}, "list": [1, 2]}`))

	b, ok := e.Map("a/b")
	if !ok || b["c"] != 5.0 {
		t.Errorf("Map(a/b) = %v, %v", b, ok)
	}
	list, ok := e.Slice("list")
	if !ok || len(list) != 2 {
		t.Errorf("Slice(list) = %v, %v", list, ok)
	}
}

func TestEntity_GetIsIdempotent(t *testing.T) {
	t.Parallel()

	e := New(decode(t, `{"a": {"b": {"c": 5}}}`))
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if v, ok := e.Get("a/b/c"); !ok || v != 5.0 {
					t.Errorf("Get = %v, %v", v, ok)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestEntity_NilSafe(t *testing.T) {
	t.Parallel()

	var e *Entity
	if _, ok := e.Get("a"); ok {
		t.Error("nil entity should resolve nothing")
	}
	if New(nil).ID() != "" {
		t.Error("empty entity should have no id")
	}
}

func TestEntity_Readers(t *testing.T) {
	t.Parallel()

	e := New(decode(t, `{"id": 1234567, "count": "12", "ratio": 0.5, "video": true, "sid": "abc"}`))

	if got := e.ID(); got != "1234567" {
		t.Errorf("ID() = %q, want 1234567", got)
	}
	if n, ok := e.Int("count"); !ok || n != 12 {
		t.Errorf("Int(count) = %d, %v", n, ok)
	}
	if f, ok := e.Float("ratio"); !ok || f != 0.5 {
		t.Errorf("Float(ratio) = %v, %v", f, ok)
	}
	if !e.Bool("video") {
		t.Error("Bool(video) = false")
	}
	if _, ok := e.Int("sid"); ok {
		t.Error("Int on a non-numeric string should fail")
	}
	if New(map[string]any{"id": "abc"}).ID() != "abc" {
		t.Error("string ids should pass through")
	}
}

func TestEntity_DataIsACopy(t *testing.T) {
	t.Parallel()

	e := New(decode(t, `{"a": {"b": [1, {"c": 2}]}}`))
	cp := e.Data()
	cp["a"].(map[string]any)["b"].([]any)[1].(map[string]any)["c"] = 99.0

	if v, _ := e.Get("a/b"); v.([]any)[1].(map[string]any)["c"] != 2.0 {
		t.Error("mutating Data() leaked into the entity")
	}
}

func TestEntity_ResourceAndForm(t *testing.T) {
	t.Parallel()

	e := New(map[string]any{
		ResourcesKey: map[string]any{
			"media": map[string]any{
				"recent": "https://api.example/c/1/media/recent",
				"self":   "https://api.example/c/1/media",
			},
			"uploader": "https://api.example/u/9",
		},
		FormsKey: map[string]any{"report": "https://api.example/m/1/report"},
	})

	tests := []struct {
		got  string
		want string
	}{
		{e.Resource("media/recent"), "https://api.example/c/1/media/recent"},
		{e.Resource("media:recent"), "https://api.example/c/1/media/recent"},
		{e.Resource("media"), "https://api.example/c/1/media"},
		{e.Resource("uploader"), "https://api.example/u/9"},
		{e.Form("report"), "https://api.example/m/1/report"},
		{e.Resource("streams"), ""},
	}
	for i, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("case %d: link = %q, want %q", i, tt.got, tt.want)
		}
	}
}

// ========================================
// Keys
// ========================================

func TestSortingKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   Sorting
		want string
	}{
		{SortRecent, "media/recent"},
		{SortShuffled, "media/shuffled"},
		{SortPhotoRank, "media/photorank"},
		{SortRated, "media/rated"},
		{Sorting("bogus"), "media/recent"},
	}
	for _, tt := range tests {
		if got := SortingKey(tt.in); got != tt.want {
			t.Errorf("SortingKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseSorting(t *testing.T) {
	t.Parallel()

	if s, err := ParseSorting(" PhotoRank "); err != nil || s != SortPhotoRank {
		t.Errorf("ParseSorting = %q, %v", s, err)
	}
	if s, err := ParseSorting("rank-score"); err != nil || s != SortPhotoRank {
		t.Errorf("ParseSorting(rank-score) = %q, %v", s, err)
	}
	if _, err := ParseSorting("newest"); err == nil {
		t.Error("expected an error for an unknown sorting")
	}
}

func TestMedia_ImageURLAndVideo(t *testing.T) {
	t.Parallel()

	photo := NewMedia(New(decode(t, `{
		"id": "m1", "type": "image",
		"images": {"square": "https://cdn/sq.jpg", "original": "https://cdn/o.jpg"},
		"original_image_width": 1024, "original_image_height": 768
	}`)))
	video := NewMedia(New(decode(t, `{"id": "m2", "type": "VIDEO"}`)))

	if photo.IsVideo() {
		t.Error("photo reported as video")
	}
	if !video.IsVideo() {
		t.Error("video not reported as video")
	}
	if got := photo.ImageURL(ImageSquare); got != "https://cdn/sq.jpg" {
		t.Errorf("ImageURL(square) = %q", got)
	}
	if got := photo.ImageURL(ImageMobile); got != "" {
		t.Errorf("ImageURL(mobile) = %q, want empty", got)
	}
	if w, h, ok := photo.OriginalSize(); !ok || w != 1024 || h != 768 {
		t.Errorf("OriginalSize = %d x %d, %v", w, h, ok)
	}
}

// ========================================
// Related entity memoization
// ========================================

func TestMedia_UploaderIsMemoized(t *testing.T) {
	t.Parallel()

	m := NewMedia(New(map[string]any{"id": "m1"}))
	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(context.Context) (*Uploader, error) {
		calls.Add(1)
		<-release
		return NewUploader(New(map[string]any{"id": "u1"})), nil
	}

	var wg sync.WaitGroup
	results := make([]*Uploader, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, err := m.Uploader(context.Background(), fetch)
			if err != nil {
				t.Errorf("Uploader: %v", err)
			}
			results[i] = u
		}(i)
	}
	close(release)
	wg.Wait()

	again, err := m.Uploader(context.Background(), fetch)
	if err != nil {
		t.Fatalf("Uploader: %v", err)
	}
	for i, u := range results {
		if u == nil || u.ID() != "u1" {
			t.Errorf("results[%d] = %v", i, u)
		}
	}
	if again.ID() != "u1" {
		t.Errorf("memoized uploader id = %q", again.ID())
	}
	if calls.Load() > int32(len(results)) || calls.Load() < 1 {
		t.Errorf("fetch called %d times", calls.Load())
	}

	before := calls.Load()
	if _, err := m.Uploader(context.Background(), fetch); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != before {
		t.Error("fetch called again after a successful load")
	}
}

func TestCustomer_UploaderRetriesAfterFailure(t *testing.T) {
	t.Parallel()

	c := NewCustomer(New(map[string]any{"id": 7.0}))
	boom := errors.New("boom")
	fail := func(context.Context) (*Uploader, error) { return nil, boom }
	ok := func(context.Context) (*Uploader, error) {
		return NewUploader(New(map[string]any{"id": "u7"})), nil
	}

	if _, err := c.Uploader(context.Background(), fail); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	u, err := c.Uploader(context.Background(), ok)
	if err != nil || u.ID() != "u7" {
		t.Fatalf("Uploader = %v, %v", u, err)
	}
}
