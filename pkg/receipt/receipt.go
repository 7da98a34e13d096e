// Copyright (c) 2025 CertNode
//
// This file is part of certnode-go.
//
// Licensed under the Apache License, Version 2.0.
// See the LICENSE file for details.

// Package receipt builds and verifies CertNode receipts: compact
// signed envelopes over canonicalized JSON payloads. ES256 (ECDSA
// P-256) and EdDSA (Ed25519) are the only supported algorithms.
package receipt

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Supported JWS algorithm identifiers.
const (
	AlgES256 = "ES256"
	AlgEdDSA = "EdDSA"
)

// SignatureSize is the raw signature length for both algorithms:
// r||s for ES256 and the native Ed25519 form.
const SignatureSize = 64

var (
	// ErrUnsupportedAlgorithm is returned by Sign for keys outside the
	// ES256/EdDSA profile
	ErrUnsupportedAlgorithm = errors.New("receipt: unsupported algorithm")

	// ErrNilPayload is returned by Sign when the payload is nil
	ErrNilPayload = errors.New("receipt: payload is required")
)

// Receipt is the signed envelope attached to a JSON payload. It is
// produced once by the signer and consumed read-only by verifiers.
type Receipt struct {
	Protected        string `json:"protected"`
	Payload          any    `json:"payload"`
	Signature        string `json:"signature"`
	Kid              string `json:"kid"`
	PayloadJCSSHA256 string `json:"payload_jcs_sha256,omitempty"`
	ReceiptID        string `json:"receipt_id,omitempty"`
}

// Header is the JWS protected header.
type Header struct {
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	Typ string `json:"typ,omitempty"`
}

// Result is the outcome of verification. Verification failure is a
// normal outcome carried in Reason, not an error.
type Result struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

func fail(reason string) Result {
	return Result{OK: false, Reason: reason}
}

func failf(format string, args ...any) Result {
	return Result{OK: false, Reason: fmt.Sprintf(format, args...)}
}

// Unmarshal parses a JSON-encoded receipt.
func Unmarshal(data []byte) (*Receipt, error) {
	var r Receipt
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("receipt: failed to unmarshal receipt: %w", err)
	}
	return &r, nil
}

// Marshal returns the JSON wire form of the receipt.
func (r *Receipt) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
