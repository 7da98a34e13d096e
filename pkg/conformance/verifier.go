// Copyright (c) 2025 CertNode
//
// This file is part of certnode-go.
//
// Licensed under the Apache License, Version 2.0.
// See the LICENSE file for details.

package conformance

import (
	"github.com/certnode/certnode-go/pkg/jwks"
	"github.com/certnode/certnode-go/pkg/receipt"
)

// Verifier is one receipt verification implementation. Each registered
// implementation judges every fixture independently; the runner
// compares their outcomes.
type Verifier interface {
	// Name identifies the implementation in reports.
	Name() string

	// Verify returns the boolean outcome and a reason for negative
	// outcomes.
	Verify(r *receipt.Receipt, keys *jwks.Set) (bool, string)
}

// EngineVerifier wraps the native pkg/receipt pipeline.
type EngineVerifier struct{}

// Name returns the implementation name.
func (EngineVerifier) Name() string { return "certnode-go" }

// Verify runs the native verification pipeline.
func (EngineVerifier) Verify(r *receipt.Receipt, keys *jwks.Set) (bool, string) {
	result := receipt.Verify(r, keys)
	return result.OK, result.Reason
}

// DefaultVerifiers returns every implementation available in this
// repository: the native engine plus the two independent JOSE-stack
// backends.
func DefaultVerifiers() []Verifier {
	return []Verifier{
		EngineVerifier{},
		JoseVerifier{},
		JWTVerifier{},
	}
}
