// Copyright (c) 2025 CertNode
//
// This file is part of certnode-go.
//
// Licensed under the Apache License, Version 2.0.
// See the LICENSE file for details.

package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/certnode/certnode-go/pkg/jwks"
	"github.com/certnode/certnode-go/pkg/receipt"
)

// loadReceipt reads a receipt from a file path or an inline JSON
// string.
func loadReceipt(source string) (*receipt.Receipt, error) {
	data, err := readSource(source)
	if err != nil {
		return nil, err
	}
	return receipt.Unmarshal(data)
}

// loadKeySet reads a JWKS from a file path, an inline JSON string, or
// an http(s) URL.
func loadKeySet(source string) (*jwks.Set, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		body, err := jwks.NewHTTPFetcher(nil).Fetch(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch JWKS from %s: %w", source, err)
		}
		return jwks.Parse(body)
	}
	data, err := readSource(source)
	if err != nil {
		return nil, err
	}
	return jwks.Parse(data)
}

// readSource returns the content of a file, or the source itself when
// it looks like inline JSON.
func readSource(source string) ([]byte, error) {
	trimmed := strings.TrimSpace(source)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return []byte(trimmed), nil
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}
	return data, nil
}
