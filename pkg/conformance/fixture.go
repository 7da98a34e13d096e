// Copyright (c) 2025 CertNode
//
// This file is part of certnode-go.
//
// Licensed under the Apache License, Version 2.0.
// See the LICENSE file for details.

// Package conformance runs a shared corpus of receipt fixtures through
// multiple verifier implementations and asserts they agree, both with
// the fixtures' expected outcomes and with each other. Agreement
// across independently authored implementations is what pins the
// canonicalization and signing semantics bit-for-bit.
package conformance

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/certnode/certnode-go/pkg/jwks"
	"github.com/certnode/certnode-go/pkg/receipt"
)

// Fixture is one conformance case: a receipt, the key set to verify it
// against, and the expected boolean outcome.
type Fixture struct {
	Description    string          `json:"description"`
	Receipt        receipt.Receipt `json:"receipt"`
	JWKS           jwks.Set        `json:"jwks"`
	ExpectedResult bool            `json:"expected_result"`
	Metadata       map[string]any  `json:"metadata"`
}

// fixtureWire mirrors Fixture with pointer fields so missing members
// can be told apart from empty ones.
type fixtureWire struct {
	Description    *string          `json:"description"`
	Receipt        *receipt.Receipt `json:"receipt"`
	JWKS           *jwks.Set        `json:"jwks"`
	ExpectedResult *bool            `json:"expected_result"`
	Metadata       map[string]any   `json:"metadata"`
}

// ParseFixture decodes and validates a fixture document. All five
// members are required.
func ParseFixture(data []byte) (*Fixture, error) {
	var wire fixtureWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("conformance: invalid fixture JSON: %w", err)
	}
	switch {
	case wire.Description == nil:
		return nil, fmt.Errorf("conformance: fixture missing required field: description")
	case wire.Receipt == nil:
		return nil, fmt.Errorf("conformance: fixture missing required field: receipt")
	case wire.JWKS == nil:
		return nil, fmt.Errorf("conformance: fixture missing required field: jwks")
	case wire.ExpectedResult == nil:
		return nil, fmt.Errorf("conformance: fixture missing required field: expected_result")
	case wire.Metadata == nil:
		return nil, fmt.Errorf("conformance: fixture missing required field: metadata")
	}
	return &Fixture{
		Description:    *wire.Description,
		Receipt:        *wire.Receipt,
		JWKS:           *wire.JWKS,
		ExpectedResult: *wire.ExpectedResult,
		Metadata:       wire.Metadata,
	}, nil
}

// LoadFixture reads and parses a fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("conformance: failed to read fixture %s: %w", path, err)
	}
	fixture, err := ParseFixture(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return fixture, nil
}

// LoadDir loads every .json fixture in a directory, sorted by file
// name for stable run order.
func LoadDir(dir string) ([]*Fixture, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("conformance: failed to read corpus directory %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	fixtures := make([]*Fixture, 0, len(names))
	for _, name := range names {
		fixture, err := LoadFixture(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		fixtures = append(fixtures, fixture)
	}
	return fixtures, nil
}
