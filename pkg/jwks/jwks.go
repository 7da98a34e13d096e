// Copyright (c) 2025 CertNode
//
// This file is part of certnode-go.
//
// Licensed under the Apache License, Version 2.0.
// See the LICENSE file for details.

// Package jwks validates, caches, and resolves the public-key sets
// that receipts are verified against.
package jwks

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/certnode/certnode-go/pkg/jwk"
)

var (
	// ErrNoKeys is returned when a key set has no keys member
	ErrNoKeys = errors.New("jwks: key set has no keys")

	// ErrInvalidKey is returned when any member of a key set fails
	// validation. Validation is all-or-nothing: one bad member
	// invalidates the whole set.
	ErrInvalidKey = errors.New("jwks: invalid key in set")

	// ErrFetch wraps transport failures from the injected fetcher
	ErrFetch = errors.New("jwks: fetch failed")
)

// Set is a JSON Web Key Set.
type Set struct {
	Keys []jwk.Key `json:"keys"`
}

// Parse decodes a JWKS document without validating its members.
func Parse(data []byte) (*Set, error) {
	var set Set
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("jwks: failed to parse key set: %w", err)
	}
	return &set, nil
}

// Validate checks every member of the set against the CertNode key
// profile. The set fails closed: the first invalid member rejects the
// entire set.
func Validate(set *Set) error {
	if set == nil || set.Keys == nil {
		return ErrNoKeys
	}
	for i := range set.Keys {
		if err := set.Keys[i].Validate(); err != nil {
			return fmt.Errorf("%w: key %d: %v", ErrInvalidKey, i, err)
		}
	}
	return nil
}

// Resolve finds the key matching kid. Each member is first matched by
// its RFC 7638 thumbprint; members whose thumbprint cannot be computed
// or does not match fall back to a literal comparison of their own kid
// field. First match wins. Returns nil when no member matches.
func Resolve(set *Set, kid string) *jwk.Key {
	if set == nil {
		return nil
	}
	for i := range set.Keys {
		k := &set.Keys[i]
		if thumb, err := k.Thumbprint(); err == nil && thumb == kid {
			return k
		}
		if k.Kid != "" && k.Kid == kid {
			return k
		}
	}
	return nil
}

// Thumbprints returns the RFC 7638 thumbprints of every key in the set
// that supports one. Unsupported members are skipped.
func Thumbprints(set *Set) []string {
	if set == nil {
		return nil
	}
	thumbs := make([]string, 0, len(set.Keys))
	for i := range set.Keys {
		thumb, err := set.Keys[i].Thumbprint()
		if err != nil {
			continue
		}
		thumbs = append(thumbs, thumb)
	}
	return thumbs
}
