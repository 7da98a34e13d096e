// Copyright (c) 2025 CertNode
//
// This file is part of certnode-go.
//
// Licensed under the Apache License, Version 2.0.
// See the LICENSE file for details.

package conformance

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"

	"github.com/certnode/certnode-go/pkg/canonical"
	"github.com/certnode/certnode-go/pkg/jwk"
	"github.com/certnode/certnode-go/pkg/jwks"
	"github.com/certnode/certnode-go/pkg/receipt"
)

// The independent verifiers deliberately re-implement the receipt
// pipeline on top of foreign JOSE stacks (go-jose and golang-jwt),
// sharing only the canonicalizer with the native engine. Divergent
// outcomes between them and pkg/receipt are conformance regressions.

// preVerify runs the stages every implementation agrees on before
// signature checking: structure, header, algorithm, kid consistency,
// payload canonicalization, and the optional payload hash. It returns
// the signing-input pieces on success.
type preVerified struct {
	header     receipt.Header
	payloadB64 string
	signature  []byte
}

func preVerify(r *receipt.Receipt) (*preVerified, string) {
	if r == nil || r.Protected == "" || r.Signature == "" || r.Payload == nil || r.Kid == "" {
		return nil, "missing field"
	}

	headerBytes, err := base64.RawURLEncoding.DecodeString(r.Protected)
	if err != nil {
		return nil, "invalid protected header"
	}
	var header receipt.Header
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, "invalid protected header"
	}
	if header.Alg != receipt.AlgES256 && header.Alg != receipt.AlgEdDSA {
		return nil, "unsupported algorithm: " + header.Alg
	}
	if header.Kid != r.Kid {
		return nil, "kid mismatch"
	}

	payloadBytes, err := canonical.Canonicalize(r.Payload)
	if err != nil {
		return nil, "payload canonicalization failed"
	}

	if r.PayloadJCSSHA256 != "" {
		sum := sha256.Sum256(payloadBytes)
		if base64.RawURLEncoding.EncodeToString(sum[:]) != r.PayloadJCSSHA256 {
			return nil, "JCS hash mismatch"
		}
	}

	signature, err := base64.RawURLEncoding.DecodeString(r.Signature)
	if err != nil {
		return nil, "invalid signature format"
	}

	return &preVerified{
		header:     header,
		payloadB64: base64.RawURLEncoding.EncodeToString(payloadBytes),
		signature:  signature,
	}, ""
}

func checkReceiptID(r *receipt.Receipt, payloadB64 string) string {
	if r.ReceiptID == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(r.Protected + "." + payloadB64 + "." + r.Signature))
	if base64.RawURLEncoding.EncodeToString(sum[:]) != r.ReceiptID {
		return "receipt ID mismatch"
	}
	return ""
}

// JoseVerifier verifies receipts through go-jose: keys are resolved by
// go-jose thumbprints and signatures checked by rebuilding the compact
// JWS serialization.
type JoseVerifier struct{}

// Name returns the implementation name.
func (JoseVerifier) Name() string { return "go-jose" }

// Verify runs the go-jose-backed pipeline.
func (JoseVerifier) Verify(r *receipt.Receipt, keys *jwks.Set) (bool, string) {
	pre, reason := preVerify(r)
	if reason != "" {
		return false, reason
	}

	key, parsed := resolveJose(keys, r.Kid)
	if key == nil {
		return false, "key not found"
	}
	if parsed == nil {
		return false, "key not parseable"
	}

	compact := r.Protected + "." + pre.payloadB64 + "." + r.Signature
	sig, err := jose.ParseSigned(compact, []jose.SignatureAlgorithm{jose.ES256, jose.EdDSA})
	if err != nil {
		return false, fmt.Sprintf("signature parse failed: %v", err)
	}
	if _, err := sig.Verify(parsed.Key); err != nil {
		return false, "invalid signature"
	}

	if reason := checkReceiptID(r, pre.payloadB64); reason != "" {
		return false, reason
	}
	return true, ""
}

// resolveJose mirrors the key store's resolution order using go-jose's
// own thumbprint implementation: thumbprint match first, then the
// member's literal kid. The second return is nil when the matched key
// cannot be parsed by go-jose.
func resolveJose(keys *jwks.Set, kid string) (*jwk.Key, *jose.JSONWebKey) {
	if keys == nil {
		return nil, nil
	}
	for i := range keys.Keys {
		k := &keys.Keys[i]
		parsed := parseJoseKey(k)
		if parsed != nil {
			if thumb, err := parsed.Thumbprint(crypto.SHA256); err == nil &&
				base64.RawURLEncoding.EncodeToString(thumb) == kid {
				return k, parsed
			}
		}
		if k.Kid != "" && k.Kid == kid {
			return k, parsed
		}
	}
	return nil, nil
}

func parseJoseKey(k *jwk.Key) *jose.JSONWebKey {
	data, err := json.Marshal(k.Public())
	if err != nil {
		return nil
	}
	var parsed jose.JSONWebKey
	if err := parsed.UnmarshalJSON(data); err != nil {
		return nil
	}
	return &parsed
}

// JWTVerifier verifies receipts through golang-jwt's signing methods,
// with its own coordinate decoding and thumbprint computation.
type JWTVerifier struct{}

// Name returns the implementation name.
func (JWTVerifier) Name() string { return "golang-jwt" }

// Verify runs the golang-jwt-backed pipeline.
func (JWTVerifier) Verify(r *receipt.Receipt, keys *jwks.Set) (bool, string) {
	pre, reason := preVerify(r)
	if reason != "" {
		return false, reason
	}

	key := resolveRaw(keys, r.Kid)
	if key == nil {
		return false, "key not found"
	}

	signingString := r.Protected + "." + pre.payloadB64
	switch pre.header.Alg {
	case receipt.AlgES256:
		pub, err := rawECDSAKey(key)
		if err != nil {
			return false, fmt.Sprintf("signature verification failed: %v", err)
		}
		if err := jwt.SigningMethodES256.Verify(signingString, pre.signature, pub); err != nil {
			return false, "invalid signature"
		}
	case receipt.AlgEdDSA:
		pub, err := rawEd25519Key(key)
		if err != nil {
			return false, fmt.Sprintf("signature verification failed: %v", err)
		}
		if err := jwt.SigningMethodEdDSA.Verify(signingString, pre.signature, pub); err != nil {
			return false, "invalid signature"
		}
	}

	if reason := checkReceiptID(r, pre.payloadB64); reason != "" {
		return false, reason
	}
	return true, ""
}

// resolveRaw matches by an inline RFC 7638 thumbprint computation,
// then by literal kid.
func resolveRaw(keys *jwks.Set, kid string) *jwk.Key {
	if keys == nil {
		return nil
	}
	for i := range keys.Keys {
		k := &keys.Keys[i]
		if thumb := rawThumbprint(k); thumb != "" && thumb == kid {
			return k
		}
		if k.Kid != "" && k.Kid == kid {
			return k
		}
	}
	return nil
}

func rawThumbprint(k *jwk.Key) string {
	var input string
	switch {
	case k.Kty == "EC" && k.Crv == "P-256" && k.X != "" && k.Y != "":
		input = fmt.Sprintf(`{"crv":%q,"kty":%q,"x":%q,"y":%q}`, k.Crv, k.Kty, k.X, k.Y)
	case k.Kty == "OKP" && k.Crv == "Ed25519" && k.X != "":
		input = fmt.Sprintf(`{"crv":%q,"kty":%q,"x":%q}`, k.Crv, k.Kty, k.X)
	default:
		return ""
	}
	sum := sha256.Sum256([]byte(input))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func rawECDSAKey(k *jwk.Key) (*ecdsa.PublicKey, error) {
	if k.Kty != "EC" || k.Crv != "P-256" {
		return nil, fmt.Errorf("ES256 requires an EC P-256 key")
	}
	xBytes, err := base64.RawURLEncoding.DecodeString(k.X)
	if err != nil {
		return nil, fmt.Errorf("invalid x coordinate: %w", err)
	}
	yBytes, err := base64.RawURLEncoding.DecodeString(k.Y)
	if err != nil {
		return nil, fmt.Errorf("invalid y coordinate: %w", err)
	}
	if len(xBytes) != 32 || len(yBytes) != 32 {
		return nil, fmt.Errorf("P-256 coordinates must be 32 bytes")
	}
	pub := &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(xBytes),
		Y:     new(big.Int).SetBytes(yBytes),
	}
	if !pub.Curve.IsOnCurve(pub.X, pub.Y) {
		return nil, fmt.Errorf("point is not on curve")
	}
	return pub, nil
}

func rawEd25519Key(k *jwk.Key) (ed25519.PublicKey, error) {
	if k.Kty != "OKP" || k.Crv != "Ed25519" {
		return nil, fmt.Errorf("EdDSA requires an OKP Ed25519 key")
	}
	raw, err := base64.RawURLEncoding.DecodeString(k.X)
	if err != nil {
		return nil, fmt.Errorf("invalid x coordinate: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("Ed25519 public key must be %d bytes", ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(raw), nil
}
