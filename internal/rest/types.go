// Copyright (c) 2025 CertNode
//
// This file is part of certnode-go.
//
// Licensed under the Apache License, Version 2.0.
// See the LICENSE file for details.

package rest

import (
	"encoding/json"

	"github.com/certnode/certnode-go/pkg/receipt"
)

// SignRequest is the body for POST /api/v1/receipts. The payload is
// the JSON value to canonicalize and sign.
type SignRequest struct {
	Payload any `json:"payload"`
}

// SignResponse returns the signed receipt.
type SignResponse struct {
	Receipt *receipt.Receipt `json:"receipt"`
}

// VerifyRequest is the body for POST /api/v1/verify. JWKS is optional;
// when absent the service verifies against its own signing key (or the
// configured remote key set).
type VerifyRequest struct {
	Receipt *receipt.Receipt `json:"receipt"`
	JWKS    json.RawMessage  `json:"jwks,omitempty"`
}

// VerifyResponse carries the verification result.
type VerifyResponse struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Kid     string `json:"kid,omitempty"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
