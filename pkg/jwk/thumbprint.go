// Copyright (c) 2025 CertNode
//
// This file is part of certnode-go.
//
// Licensed under the Apache License, Version 2.0.
// See the LICENSE file for details.

package jwk

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/certnode/certnode-go/pkg/encoding"
)

// Thumbprint computes the RFC 7638 SHA-256 thumbprint of the key's
// public part, base64url-encoded without padding.
//
// Per RFC 7638 the input is a JSON object holding only the required
// members for the key type, lexicographically sorted, with no
// whitespace:
//
//	EC:  {"crv":"P-256","kty":"EC","x":"...","y":"..."}
//	OKP: {"crv":"Ed25519","kty":"OKP","x":"..."}
//
// Note this serialization is plain compact JSON; the receipt
// canonicalizer's null-dropping rule plays no part here.
func (k *Key) Thumbprint() (string, error) {
	fields, err := k.thumbprintFields()
	if err != nil {
		return "", err
	}
	serialized, err := serializeSorted(fields)
	if err != nil {
		return "", fmt.Errorf("jwk: failed to serialize thumbprint input: %w", err)
	}
	return encoding.DigestBase64URL(serialized), nil
}

func (k *Key) thumbprintFields() (map[string]string, error) {
	switch {
	case KeyType(k.Kty) == KeyTypeEC && Curve(k.Crv) == CurveP256 && k.X != "" && k.Y != "":
		return map[string]string{
			"crv": k.Crv,
			"kty": k.Kty,
			"x":   k.X,
			"y":   k.Y,
		}, nil
	case KeyType(k.Kty) == KeyTypeOKP && Curve(k.Crv) == CurveEd25519 && k.X != "":
		return map[string]string{
			"crv": k.Crv,
			"kty": k.Kty,
			"x":   k.X,
		}, nil
	default:
		return nil, fmt.Errorf("%w: thumbprint requires EC P-256 or OKP Ed25519 with coordinates", ErrUnsupportedKeyType)
	}
}

// serializeSorted builds the JSON by hand so the byte layout is exact:
// sorted keys, no whitespace. json.Marshal on a map would sort too,
// but building explicitly keeps the thumbprint input independent of
// encoder behavior.
func serializeSorted(fields map[string]string) ([]byte, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := []byte{'{'}
	for i, k := range keys {
		if i > 0 {
			out = append(out, ',')
		}
		keyJSON, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		valueJSON, err := json.Marshal(fields[k])
		if err != nil {
			return nil, err
		}
		out = append(out, keyJSON...)
		out = append(out, ':')
		out = append(out, valueJSON...)
	}
	return append(out, '}'), nil
}
