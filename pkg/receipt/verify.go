// Copyright (c) 2025 CertNode
//
// This file is part of certnode-go.
//
// Licensed under the Apache License, Version 2.0.
// See the LICENSE file for details.

package receipt

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/certnode/certnode-go/pkg/canonical"
	"github.com/certnode/certnode-go/pkg/encoding"
	"github.com/certnode/certnode-go/pkg/jwk"
	"github.com/certnode/certnode-go/pkg/jwks"
)

// Verify checks a receipt against a key set. Every reachable failure
// is reported through the Result; nothing in the pipeline escapes as
// an error or panic for malformed input.
//
// The pipeline, in order: structural check, protected header decode,
// algorithm check, kid consistency, key resolution, optional payload
// hash check, signature verification over the signing input, optional
// receipt ID check.
func Verify(r *Receipt, keys *jwks.Set) Result {
	if r == nil {
		return fail("missing field: receipt")
	}
	if r.Protected == "" {
		return fail("missing field: protected")
	}
	if r.Signature == "" {
		return fail("missing field: signature")
	}
	if r.Payload == nil {
		return fail("missing field: payload")
	}
	if r.Kid == "" {
		return fail("missing field: kid")
	}

	headerBytes, err := encoding.DecodeBase64URL(r.Protected)
	if err != nil {
		return failf("invalid protected header: %v", err)
	}
	var header Header
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return failf("invalid protected header: %v", err)
	}

	if header.Alg != AlgES256 && header.Alg != AlgEdDSA {
		return failf("unsupported algorithm: %s", header.Alg)
	}

	if header.Kid != r.Kid {
		return fail("kid mismatch")
	}

	key := jwks.Resolve(keys, r.Kid)
	if key == nil {
		return fail("key not found")
	}

	payloadBytes, err := canonical.Canonicalize(r.Payload)
	if err != nil {
		return failf("payload canonicalization failed: %v", err)
	}

	if r.PayloadJCSSHA256 != "" {
		expected, err := encoding.DecodeBase64URL(r.PayloadJCSSHA256)
		if err != nil {
			return failf("invalid payload hash: %v", err)
		}
		if subtle.ConstantTimeCompare(encoding.DigestSHA256(payloadBytes), expected) != 1 {
			return fail("JCS hash mismatch")
		}
	}

	payloadB64 := encoding.EncodeBase64URL(payloadBytes)
	signingInput := []byte(r.Protected + "." + payloadB64)

	signature, err := encoding.DecodeBase64URL(r.Signature)
	if err != nil {
		return failf("invalid signature format: %v", err)
	}

	var valid bool
	switch header.Alg {
	case AlgES256:
		valid, err = verifyES256(key, signingInput, signature)
	case AlgEdDSA:
		valid, err = verifyEdDSA(key, signingInput, signature)
	}
	if err != nil {
		return failf("signature verification failed: %v", err)
	}
	if !valid {
		return fail("invalid signature")
	}

	if r.ReceiptID != "" {
		computed := encoding.DigestBase64URL([]byte(r.Protected + "." + payloadB64 + "." + r.Signature))
		if computed != r.ReceiptID {
			return fail("receipt ID mismatch")
		}
	}

	return Result{OK: true}
}

// verifyES256 checks a fixed-width JOSE signature with ECDSA P-256
// over SHA-256. Shape violations are reported as errors and surface as
// verification failures, never as exceptions.
func verifyES256(key *jwk.Key, signingInput, signature []byte) (bool, error) {
	pub, err := key.ECDSAPublicKey()
	if err != nil {
		return false, err
	}
	if len(signature) != SignatureSize {
		return false, fmt.Errorf("ES256 signature must be %d bytes, got %d", SignatureSize, len(signature))
	}
	r := new(big.Int).SetBytes(signature[:32])
	s := new(big.Int).SetBytes(signature[32:])
	digest := encoding.DigestSHA256(signingInput)
	return ecdsa.Verify(pub, digest, r, s), nil
}

// verifyEdDSA checks a raw Ed25519 signature directly over the signing
// input, with no digest pre-hashing.
func verifyEdDSA(key *jwk.Key, signingInput, signature []byte) (bool, error) {
	pub, err := key.Ed25519PublicKey()
	if err != nil {
		return false, err
	}
	if len(signature) != SignatureSize {
		return false, fmt.Errorf("Ed25519 signature must be %d bytes, got %d", SignatureSize, len(signature))
	}
	return ed25519.Verify(pub, signingInput, signature), nil
}
