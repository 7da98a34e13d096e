// Copyright (c) 2025 CertNode
//
// This file is part of certnode-go.
//
// Licensed under the Apache License, Version 2.0.
// See the LICENSE file for details.

// Package jwk models the two JSON Web Key shapes CertNode receipts are
// signed with: EC P-256 (ES256) and OKP Ed25519 (EdDSA). Keys are
// validated once at the JWKS boundary and treated as immutable records
// afterwards.
package jwk

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
)

// KeyType represents the key type (kty) parameter values.
type KeyType string

const (
	KeyTypeEC  KeyType = "EC"
	KeyTypeOKP KeyType = "OKP" // Octet Key Pair (Ed25519)
)

// Curve represents curve (crv) parameter values.
type Curve string

const (
	CurveP256    Curve = "P-256"
	CurveEd25519 Curve = "Ed25519"
)

// CoordinateSize is the raw byte length of every coordinate this
// package accepts: P-256 field elements and Ed25519 public keys are
// both 32 bytes.
const CoordinateSize = 32

// Key is a JSON Web Key restricted to the CertNode profile.
// Coordinates are unpadded base64url. D carries private key material
// (the P-256 scalar or the Ed25519 seed) and is never serialized by
// Public().
type Key struct {
	Kty string `json:"kty"`
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
	D   string `json:"d,omitempty"`
	Kid string `json:"kid,omitempty"`
	Alg string `json:"alg,omitempty"`
	Use string `json:"use,omitempty"`
}

// Validate checks the key against the CertNode profile: supported
// kty/crv pairing and coordinates that decode to exactly 32 raw bytes.
// Validation is structural only; it does not prove EC coordinates lie
// on the curve (that is enforced when the key material is built).
func (k *Key) Validate() error {
	switch KeyType(k.Kty) {
	case KeyTypeEC:
		if Curve(k.Crv) != CurveP256 {
			return fmt.Errorf("%w: EC key requires P-256, got %q", ErrUnsupportedCurve, k.Crv)
		}
		if k.X == "" || k.Y == "" {
			return fmt.Errorf("%w: EC key requires x and y", ErrMissingCoordinate)
		}
		if err := checkCoordinate("x", k.X); err != nil {
			return err
		}
		return checkCoordinate("y", k.Y)
	case KeyTypeOKP:
		if Curve(k.Crv) != CurveEd25519 {
			return fmt.Errorf("%w: OKP key requires Ed25519, got %q", ErrUnsupportedCurve, k.Crv)
		}
		if k.X == "" {
			return fmt.Errorf("%w: OKP key requires x", ErrMissingCoordinate)
		}
		return checkCoordinate("x", k.X)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedKeyType, k.Kty)
	}
}

func checkCoordinate(name, value string) error {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return fmt.Errorf("%w: %s is not base64url: %v", ErrInvalidCoordinate, name, err)
	}
	if len(raw) != CoordinateSize {
		return fmt.Errorf("%w: %s must be %d bytes, got %d", ErrInvalidCoordinate, name, CoordinateSize, len(raw))
	}
	return nil
}

// IsPrivate reports whether the key carries private material.
func (k *Key) IsPrivate() bool {
	return k.D != ""
}

// Public returns a copy of the key with private material stripped.
func (k *Key) Public() *Key {
	pub := *k
	pub.D = ""
	return &pub
}

// ECDSAPublicKey reconstructs the P-256 public key from the x and y
// coordinates and confirms the point lies on the curve.
func (k *Key) ECDSAPublicKey() (*ecdsa.PublicKey, error) {
	if KeyType(k.Kty) != KeyTypeEC || Curve(k.Crv) != CurveP256 {
		return nil, fmt.Errorf("%w: ES256 requires an EC P-256 key", ErrUnsupportedKeyType)
	}
	if k.X == "" || k.Y == "" {
		return nil, fmt.Errorf("%w: EC key requires x and y", ErrMissingCoordinate)
	}
	xBytes, err := base64.RawURLEncoding.DecodeString(k.X)
	if err != nil {
		return nil, fmt.Errorf("%w: x is not base64url: %v", ErrInvalidCoordinate, err)
	}
	yBytes, err := base64.RawURLEncoding.DecodeString(k.Y)
	if err != nil {
		return nil, fmt.Errorf("%w: y is not base64url: %v", ErrInvalidCoordinate, err)
	}
	if len(xBytes) != CoordinateSize || len(yBytes) != CoordinateSize {
		return nil, fmt.Errorf("%w: P-256 coordinates must be %d bytes", ErrInvalidCoordinate, CoordinateSize)
	}
	pub := &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(xBytes),
		Y:     new(big.Int).SetBytes(yBytes),
	}
	if !pub.Curve.IsOnCurve(pub.X, pub.Y) {
		return nil, ErrPointNotOnCurve
	}
	return pub, nil
}

// Ed25519PublicKey reconstructs the Ed25519 public key from x.
func (k *Key) Ed25519PublicKey() (ed25519.PublicKey, error) {
	if KeyType(k.Kty) != KeyTypeOKP || Curve(k.Crv) != CurveEd25519 {
		return nil, fmt.Errorf("%w: EdDSA requires an OKP Ed25519 key", ErrUnsupportedKeyType)
	}
	if k.X == "" {
		return nil, fmt.Errorf("%w: OKP key requires x", ErrMissingCoordinate)
	}
	raw, err := base64.RawURLEncoding.DecodeString(k.X)
	if err != nil {
		return nil, fmt.Errorf("%w: x is not base64url: %v", ErrInvalidCoordinate, err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: Ed25519 public key must be %d bytes, got %d", ErrInvalidCoordinate, ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

// Signer returns the crypto.Signer backed by the key's private
// material: *ecdsa.PrivateKey for EC, ed25519.PrivateKey for OKP.
func (k *Key) Signer() (crypto.Signer, error) {
	if !k.IsPrivate() {
		return nil, ErrNotPrivate
	}
	dBytes, err := base64.RawURLEncoding.DecodeString(k.D)
	if err != nil {
		return nil, fmt.Errorf("%w: d is not base64url: %v", ErrInvalidCoordinate, err)
	}
	switch KeyType(k.Kty) {
	case KeyTypeEC:
		pub, err := k.ECDSAPublicKey()
		if err != nil {
			return nil, err
		}
		return &ecdsa.PrivateKey{
			PublicKey: *pub,
			D:         new(big.Int).SetBytes(dBytes),
		}, nil
	case KeyTypeOKP:
		if len(dBytes) != ed25519.SeedSize {
			return nil, fmt.Errorf("%w: Ed25519 seed must be %d bytes, got %d", ErrInvalidCoordinate, ed25519.SeedSize, len(dBytes))
		}
		return ed25519.NewKeyFromSeed(dBytes), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKeyType, k.Kty)
	}
}

// GenerateES256 generates a fresh P-256 private JWK with kid set to its
// RFC 7638 thumbprint.
func GenerateES256() (*Key, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("jwk: failed to generate P-256 key: %w", err)
	}
	return FromECDSAPrivateKey(priv)
}

// GenerateEd25519 generates a fresh Ed25519 private JWK with kid set to
// its RFC 7638 thumbprint.
func GenerateEd25519() (*Key, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("jwk: failed to generate Ed25519 key: %w", err)
	}
	return FromEd25519PrivateKey(priv)
}

// FromECDSAPrivateKey builds a private JWK from a P-256 key.
// Coordinates are zero-padded to the full 32-byte field width so the
// base64url form is stable regardless of leading zero bytes.
func FromECDSAPrivateKey(priv *ecdsa.PrivateKey) (*Key, error) {
	if priv.Curve != elliptic.P256() {
		return nil, fmt.Errorf("%w: only P-256 is supported", ErrUnsupportedCurve)
	}
	key := &Key{
		Kty: string(KeyTypeEC),
		Crv: string(CurveP256),
		X:   base64.RawURLEncoding.EncodeToString(priv.X.FillBytes(make([]byte, CoordinateSize))),
		Y:   base64.RawURLEncoding.EncodeToString(priv.Y.FillBytes(make([]byte, CoordinateSize))),
		D:   base64.RawURLEncoding.EncodeToString(priv.D.FillBytes(make([]byte, CoordinateSize))),
		Alg: "ES256",
	}
	return withThumbprintKid(key)
}

// FromEd25519PrivateKey builds a private JWK from an Ed25519 key.
func FromEd25519PrivateKey(priv ed25519.PrivateKey) (*Key, error) {
	pub, ok := priv.Public().(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("jwk: unexpected Ed25519 public key type")
	}
	key := &Key{
		Kty: string(KeyTypeOKP),
		Crv: string(CurveEd25519),
		X:   base64.RawURLEncoding.EncodeToString(pub),
		D:   base64.RawURLEncoding.EncodeToString(priv.Seed()),
		Alg: "EdDSA",
	}
	return withThumbprintKid(key)
}

func withThumbprintKid(key *Key) (*Key, error) {
	thumb, err := key.Thumbprint()
	if err != nil {
		return nil, err
	}
	key.Kid = thumb
	return key, nil
}

// Unmarshal parses a JSON-encoded JWK.
func Unmarshal(data []byte) (*Key, error) {
	var key Key
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, fmt.Errorf("jwk: failed to unmarshal JWK: %w", err)
	}
	return &key, nil
}
