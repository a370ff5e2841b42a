// Olapic Go SDK - Media Curation API Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/olapic-go

// Package metrics holds the Prometheus collectors of the SDK. They register
// on the default registry; applications expose them with promhttp.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Request Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "olapic_api_requests_total",
			Help: "Total number of requests sent to the Olapic API",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "olapic_api_request_duration_seconds",
			Help:    "Duration of Olapic API requests in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	APIRateLimitRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "olapic_api_rate_limit_retries_total",
			Help: "Requests retried after an HTTP 429 response",
		},
		[]string{"endpoint"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "olapic_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "olapic_circuit_breaker_requests_total",
			Help: "Requests passed through the circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "olapic_circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "olapic_circuit_breaker_state_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Media List Metrics
	MediaListPages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "olapic_media_list_pages_total",
			Help: "Pages delivered by media lists",
		},
		[]string{"scope", "source"}, // source: network, cache
	)

	MediaListErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "olapic_media_list_errors_total",
			Help: "Failed media list fetches",
		},
		[]string{"scope", "phase"}, // phase: first, next, previous
	)

	// Upload Metrics
	UploadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "olapic_upload_bytes_total",
			Help: "Bytes of media sent to uploader endpoints",
		},
	)

	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "olapic_uploads_total",
			Help: "Media uploads by result",
		},
		[]string{"result"},
	)

	// Entity Cache Metrics
	EntityCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "olapic_entity_cache_hits_total",
			Help: "Entity lookups served from the cache",
		},
		[]string{"kind"},
	)

	EntityCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "olapic_entity_cache_misses_total",
			Help: "Entity lookups that went to the API",
		},
		[]string{"kind"},
	)
)

// RecordAPIRequest records one completed API request. statusCode 0 means no
// response was received.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	code := "none"
	if statusCode > 0 {
		code = strconv.Itoa(statusCode)
	}
	APIRequestsTotal.WithLabelValues(method, endpoint, code).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordRateLimitRetry counts a 429 retry.
func RecordRateLimitRetry(endpoint string) {
	APIRateLimitRetries.WithLabelValues(endpoint).Inc()
}

// RecordMediaListPage counts a page delivered from the network or the cache.
func RecordMediaListPage(scope string, fromCache bool) {
	source := "network"
	if fromCache {
		source = "cache"
	}
	MediaListPages.WithLabelValues(scope, source).Inc()
}

// RecordMediaListError counts a failed fetch.
func RecordMediaListError(scope, phase string) {
	MediaListErrors.WithLabelValues(scope, phase).Inc()
}

// RecordUpload counts an upload attempt and, on success, its size.
func RecordUpload(bytes int, err error) {
	if err != nil {
		UploadsTotal.WithLabelValues("failure").Inc()
		return
	}
	UploadsTotal.WithLabelValues("success").Inc()
	UploadBytesTotal.Add(float64(bytes))
}

// RecordEntityCacheHit counts a cache hit for an entity kind.
func RecordEntityCacheHit(kind string) {
	EntityCacheHits.WithLabelValues(kind).Inc()
}

// RecordEntityCacheMiss counts a cache miss for an entity kind.
func RecordEntityCacheMiss(kind string) {
	EntityCacheMisses.WithLabelValues(kind).Inc()
}
