// Copyright (c) 2025 CertNode
//
// This file is part of certnode-go.
//
// Licensed under the Apache License, Version 2.0.
// See the LICENSE file for details.

// Package encoding provides the byte-level primitives shared by every
// certnode-go component: base64url (RFC 4648, unpadded) and SHA-256
// digest helpers.
package encoding

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// EncodeBase64URL encodes data as unpadded base64url.
func EncodeBase64URL(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeBase64URL decodes an unpadded base64url string.
func DecodeBase64URL(s string) ([]byte, error) {
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("encoding: invalid base64url: %w", err)
	}
	return data, nil
}

// DigestSHA256 returns the SHA-256 digest of data.
func DigestSHA256(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// DigestBase64URL returns the unpadded base64url encoding of the
// SHA-256 digest of data. This is the form used for JWK thumbprints,
// payload hashes, and receipt identifiers.
func DigestBase64URL(data []byte) string {
	return EncodeBase64URL(DigestSHA256(data))
}
