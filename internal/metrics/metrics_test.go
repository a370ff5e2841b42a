// Olapic Go SDK - Media Curation API Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/olapic-go

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	tests := []struct {
		name       string
		endpoint   string
		statusCode int
		wantLabel  string
	}{
		{"success", "customers", 200, "200"},
		{"not found", "streams", 404, "404"},
		{"no response", "media", 0, "none"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", tt.endpoint, tt.wantLabel))
			RecordAPIRequest("GET", tt.endpoint, tt.statusCode, 25*time.Millisecond)
			after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", tt.endpoint, tt.wantLabel))
			if after-before != 1 {
				t.Errorf("counter delta = %v, want 1", after-before)
			}
		})
	}
}

func TestRecordMediaListPage(t *testing.T) {
	network := MediaListPages.WithLabelValues("stream", "network")
	cached := MediaListPages.WithLabelValues("stream", "cache")
	n0, c0 := testutil.ToFloat64(network), testutil.ToFloat64(cached)

	RecordMediaListPage("stream", false)
	RecordMediaListPage("stream", true)
	RecordMediaListPage("stream", true)

	if d := testutil.ToFloat64(network) - n0; d != 1 {
		t.Errorf("network delta = %v, want 1", d)
	}
	if d := testutil.ToFloat64(cached) - c0; d != 2 {
		t.Errorf("cache delta = %v, want 2", d)
	}
}

func TestRecordUpload(t *testing.T) {
	bytes0 := testutil.ToFloat64(UploadBytesTotal)
	fail0 := testutil.ToFloat64(UploadsTotal.WithLabelValues("failure"))

	RecordUpload(2048, nil)
	RecordUpload(4096, errors.New("timeout"))

	if d := testutil.ToFloat64(UploadBytesTotal) - bytes0; d != 2048 {
		t.Errorf("bytes delta = %v, want 2048", d)
	}
	if d := testutil.ToFloat64(UploadsTotal.WithLabelValues("failure")) - fail0; d != 1 {
		t.Errorf("failure delta = %v, want 1", d)
	}
}

func TestEntityCacheCounters(t *testing.T) {
	h0 := testutil.ToFloat64(EntityCacheHits.WithLabelValues("stream"))
	m0 := testutil.ToFloat64(EntityCacheMisses.WithLabelValues("stream"))

	RecordEntityCacheMiss("stream")
	RecordEntityCacheHit("stream")
	RecordEntityCacheHit("stream")

	if d := testutil.ToFloat64(EntityCacheHits.WithLabelValues("stream")) - h0; d != 2 {
		t.Errorf("hits delta = %v, want 2", d)
	}
	if d := testutil.ToFloat64(EntityCacheMisses.WithLabelValues("stream")) - m0; d != 1 {
		t.Errorf("misses delta = %v, want 1", d)
	}
}
