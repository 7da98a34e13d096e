// Copyright (c) 2025 CertNode
//
// This file is part of certnode-go.
//
// Licensed under the Apache License, Version 2.0.
// See the LICENSE file for details.

// Package metrics provides Prometheus instrumentation for the receipt
// service: signing and verification counters, JWKS fetch outcomes, and
// HTTP request durations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all certnode metrics
	Namespace = "certnode"

	// Label names
	LabelResult = "result"
	LabelStatus = "status"
	LabelMethod = "method"
	LabelPath   = "path"

	// Result values for verification outcomes
	ResultValid   = "valid"
	ResultInvalid = "invalid"

	// Status values for JWKS fetches
	StatusSuccess = "success"
	StatusError   = "error"
)

var (
	// ReceiptsSignedTotal counts receipts produced by the signing endpoint.
	ReceiptsSignedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "receipts_signed_total",
			Help:      "Total number of receipts signed",
		},
	)

	// VerificationsTotal counts verification requests by outcome.
	VerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "verifications_total",
			Help:      "Total number of receipt verifications by result",
		},
		[]string{LabelResult},
	)

	// JWKSFetchesTotal counts key set fetches by status.
	JWKSFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "jwks_fetches_total",
			Help:      "Total number of JWKS fetches by status",
		},
		[]string{LabelStatus},
	)

	// HTTPRequestDuration observes request latency per method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)
)

// RecordVerification increments the verification counter for the
// given outcome.
func RecordVerification(ok bool) {
	if ok {
		VerificationsTotal.WithLabelValues(ResultValid).Inc()
	} else {
		VerificationsTotal.WithLabelValues(ResultInvalid).Inc()
	}
}

// RecordJWKSFetch increments the fetch counter for the given status.
func RecordJWKSFetch(err error) {
	if err != nil {
		JWKSFetchesTotal.WithLabelValues(StatusError).Inc()
		return
	}
	JWKSFetchesTotal.WithLabelValues(StatusSuccess).Inc()
}

// ObserveRequest records one HTTP request's duration.
func ObserveRequest(method, path string, start time.Time) {
	HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
}
