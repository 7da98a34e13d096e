// Copyright (c) 2025 CertNode
//
// This file is part of certnode-go.
//
// Licensed under the Apache License, Version 2.0.
// See the LICENSE file for details.

package jwk

import "errors"

var (
	// ErrUnsupportedKeyType is returned when kty is not EC or OKP
	ErrUnsupportedKeyType = errors.New("jwk: unsupported key type")

	// ErrUnsupportedCurve is returned when crv does not match the key type
	// (P-256 for EC, Ed25519 for OKP)
	ErrUnsupportedCurve = errors.New("jwk: unsupported curve")

	// ErrMissingCoordinate is returned when a required coordinate field is absent
	ErrMissingCoordinate = errors.New("jwk: missing coordinate")

	// ErrInvalidCoordinate is returned when a coordinate is not valid base64url
	// or has the wrong length for its curve
	ErrInvalidCoordinate = errors.New("jwk: invalid coordinate")

	// ErrNotPrivate is returned when private key material is required but absent
	ErrNotPrivate = errors.New("jwk: key has no private material")

	// ErrPointNotOnCurve is returned when EC coordinates do not lie on P-256
	ErrPointNotOnCurve = errors.New("jwk: point is not on curve")
)
