// Olapic Go SDK - Media Curation API Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/olapic-go

package rest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/olapic-go/internal/apierr"
	"github.com/tomtom215/olapic-go/internal/config"
)

// testConfig returns settings with fast retries and no pacing or breaker.
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.API.AuthKey = "test-auth-key"
	cfg.API.Timeout = 5 * time.Second
	cfg.Resilience.RetryBaseDelay = time.Millisecond
	cfg.Resilience.MaxRetries = 2
	cfg.Resilience.RateLimitRPS = 0
	cfg.Resilience.BreakerEnabled = false
	return cfg
}

func checkKind(t *testing.T, err error, want apierr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := apierr.KindOf(err); got != want {
		t.Fatalf("error kind = %v, want %v (%v)", got, want, err)
	}
}

// ========================================
// GET
// ========================================

func TestClient_GetDecodesAndAuthenticates(t *testing.T) {
	t.Parallel()

	var gotQuery url.Values
	var gotRequestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"data": {"id": 215757, "name": "Olapic"}}`)
	}))
	defer server.Close()

	c := New(testConfig())
	resp, err := c.Get(context.Background(), server.URL+"/customers/215757?sort=recent", url.Values{"count": {"5"}})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	data := resp.(map[string]any)["data"].(map[string]any)
	if data["name"] != "Olapic" || data["id"] != 215757.0 {
		t.Errorf("decoded data = %v", data)
	}
	if gotQuery.Get("auth_token") != "test-auth-key" {
		t.Errorf("auth_token = %q", gotQuery.Get("auth_token"))
	}
	if gotQuery.Get("version") != "v2.2" {
		t.Errorf("version = %q", gotQuery.Get("version"))
	}
	if gotQuery.Get("sort") != "recent" || gotQuery.Get("count") != "5" {
		t.Errorf("query = %v, want existing and extra params merged", gotQuery)
	}
	if len(gotRequestID) != 36 {
		t.Errorf("X-Request-ID = %q, want a UUID", gotRequestID)
	}
}

func TestClient_GetErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		body     string
		wantKind apierr.Kind
	}{
		{"not found", http.StatusNotFound, `{"metadata": {"code": 404}}`, apierr.KindNotFound},
		{"server error", http.StatusInternalServerError, "boom", apierr.KindHTTPStatus},
		{"forbidden", http.StatusForbidden, "", apierr.KindHTTPStatus},
		{"invalid json", http.StatusOK, "<html>", apierr.KindMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer server.Close()

			_, err := New(testConfig()).Get(context.Background(), server.URL+"/x", nil)
			checkKind(t, err, tt.wantKind)

			var apiErr *apierr.Error
			if errors.As(err, &apiErr) && apiErr.URL != "" && !containsRedacted(apiErr.URL) {
				t.Errorf("error URL leaks the auth token: %s", apiErr.URL)
			}
		})
	}
}

func containsRedacted(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	return parsed.Query().Get("auth_token") != "test-auth-key"
}

func TestClient_GetEmptyBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	resp, err := New(testConfig()).Get(context.Background(), server.URL, nil)
	if err != nil || resp != nil {
		t.Errorf("Get() = %v, %v; want nil, nil", resp, err)
	}
}

func TestClient_NetworkError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	target := server.URL
	server.Close()

	_, err := New(testConfig()).Get(context.Background(), target, nil)
	checkKind(t, err, apierr.KindNetwork)
}

func TestClient_RelativeURLRejected(t *testing.T) {
	t.Parallel()

	_, err := New(testConfig()).Get(context.Background(), "/customers/1", nil)
	checkKind(t, err, apierr.KindNetwork)
}

func TestClient_ContextCanceled(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := New(testConfig()).Get(ctx, server.URL, nil)
	checkKind(t, err, apierr.KindNetwork)
}

// ========================================
// 429 handling
// ========================================

func TestClient_RetriesRateLimit(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = io.WriteString(w, `{"ok": true}`)
	}))
	defer server.Close()

	resp, err := New(testConfig()).Get(context.Background(), server.URL, nil)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if resp.(map[string]any)["ok"] != true {
		t.Errorf("resp = %v", resp)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestClient_RateLimitExhausted(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := New(testConfig()).Get(context.Background(), server.URL, nil)
	checkKind(t, err, apierr.KindHTTPStatus)
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 1 + 2 retries", calls.Load())
	}
}

func TestClient_RetryDelay(t *testing.T) {
	t.Parallel()

	c := &Client{retryBaseDelay: 100 * time.Millisecond}
	tests := []struct {
		attempt    int
		retryAfter string
		want       time.Duration
	}{
		{0, "", 100 * time.Millisecond},
		{2, "", 400 * time.Millisecond},
		{1, "3", 3 * time.Second},
		{1, "soon", 200 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := c.retryDelay(tt.attempt, tt.retryAfter); got != tt.want {
			t.Errorf("retryDelay(%d, %q) = %v, want %v", tt.attempt, tt.retryAfter, got, tt.want)
		}
	}
}

// ========================================
// Binary and multipart
// ========================================

func TestClient_GetBinary(t *testing.T) {
	t.Parallel()

	png := []byte("\x89PNG\r\n\x1a\nfake")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}))
	defer server.Close()

	got, err := New(testConfig()).GetBinary(context.Background(), server.URL+"/img.png", nil)
	if err != nil {
		t.Fatalf("GetBinary() error = %v", err)
	}
	if string(got) != string(png) {
		t.Errorf("GetBinary() = %q", got)
	}
}

func TestClient_PostMultipartWithProgress(t *testing.T) {
	t.Parallel()

	var (
		mu       sync.Mutex
		captions []string
		streams  []string
		fileName string
		fileData string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
			return
		}
		f, header, err := r.FormFile("image")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			return
		}
		data, _ := io.ReadAll(f)
		mu.Lock()
		captions = r.MultipartForm.Value["caption"]
		streams = r.MultipartForm.Value["stream"]
		fileName = header.Filename
		fileData = string(data)
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"data": {"id": "m-1"}}`)
	}))
	defer server.Close()

	var (
		progressMu sync.Mutex
		fractions  []float64
	)
	parts := []Part{
		{Name: "caption", Value: "sunset"},
		{Name: "stream", Value: "S1"},
		{Name: "stream", Value: "S2"},
		{Name: "image", FileName: "sunset.jpg", ContentType: "image/jpeg", Data: make([]byte, 64*1024)},
	}
	resp, err := New(testConfig()).Post(context.Background(), server.URL+"/uploaders/1/media", nil, parts, func(f float64) {
		progressMu.Lock()
		fractions = append(fractions, f)
		progressMu.Unlock()
	})
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if resp.(map[string]any)["data"].(map[string]any)["id"] != "m-1" {
		t.Errorf("resp = %v", resp)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(captions) != 1 || captions[0] != "sunset" {
		t.Errorf("caption = %v", captions)
	}
	if len(streams) != 2 || streams[0] != "S1" || streams[1] != "S2" {
		t.Errorf("stream = %v, want [S1 S2] in order", streams)
	}
	if fileName != "sunset.jpg" || len(fileData) != 64*1024 {
		t.Errorf("file = %s (%d bytes)", fileName, len(fileData))
	}

	progressMu.Lock()
	defer progressMu.Unlock()
	if len(fractions) == 0 {
		t.Fatal("no progress reported")
	}
	for i := 1; i < len(fractions); i++ {
		if fractions[i] <= fractions[i-1] {
			t.Errorf("progress not increasing: %v", fractions)
			break
		}
	}
	if last := fractions[len(fractions)-1]; last != 1 {
		t.Errorf("last fraction = %v, want 1", last)
	}
}

// ========================================
// Circuit breaker
// ========================================

func TestClient_BreakerOpensOnServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.Resilience.BreakerEnabled = true
	cfg.Resilience.BreakerMinRequests = 2
	cfg.Resilience.BreakerFailureRatio = 0.5
	cfg.Resilience.BreakerTimeout = time.Minute
	c := New(cfg)

	for i := 0; i < 2; i++ {
		_, err := c.Get(context.Background(), server.URL, nil)
		checkKind(t, err, apierr.KindHTTPStatus)
	}

	_, err := c.Get(context.Background(), server.URL, nil)
	checkKind(t, err, apierr.KindNetwork)
	if calls.Load() != 2 {
		t.Errorf("server calls = %d, want 2 (third rejected)", calls.Load())
	}
	if c.breaker.State() != "open" {
		t.Errorf("breaker state = %s, want open", c.breaker.State())
	}
}

func TestClient_BreakerIgnoresClientErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.Resilience.BreakerEnabled = true
	cfg.Resilience.BreakerMinRequests = 2
	cfg.Resilience.BreakerFailureRatio = 0.5
	c := New(cfg)

	for i := 0; i < 5; i++ {
		_, err := c.Get(context.Background(), server.URL, nil)
		checkKind(t, err, apierr.KindNotFound)
	}
	if c.breaker.State() != "closed" {
		t.Errorf("breaker state = %s, want closed", c.breaker.State())
	}
}

// ========================================
// Helpers
// ========================================

func TestBuildURL(t *testing.T) {
	t.Parallel()

	c := &Client{authKey: "k", version: "v2.2"}
	tests := []struct {
		name    string
		raw     string
		params  url.Values
		want    string
		wantErr bool
	}{
		{"adds credentials", "https://api.example/customers/1", nil, "https://api.example/customers/1?auth_token=k&version=v2.2", false},
		{"protocol relative", "//api.example/media/2", nil, "https://api.example/media/2?auth_token=k&version=v2.2", false},
		{"keeps explicit version", "https://api.example/m?version=v2.1", nil, "https://api.example/m?auth_token=k&version=v2.1", false},
		{"params override query", "https://api.example/m?count=5", url.Values{"count": {"20"}}, "https://api.example/m?auth_token=k&count=20&version=v2.2", false},
		{"relative", "customers/1", nil, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := c.buildURL(tt.raw, tt.params)
			if (err != nil) != tt.wantErr {
				t.Fatalf("buildURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("buildURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEndpointLabel(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"https://api.example/":                   "root",
		"https://api.example":                    "root",
		"https://api.example/customers/1/media":  "customers",
		"https://api.example/media?auth_token=x": "media",
	}
	for in, want := range tests {
		if got := endpointLabel(in); got != want {
			t.Errorf("endpointLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
