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
	"crypto/rand"
	"encoding/json"
	"fmt"

	"github.com/certnode/certnode-go/pkg/canonical"
	"github.com/certnode/certnode-go/pkg/encoding"
	"github.com/certnode/certnode-go/pkg/jwk"
)

// Sign canonicalizes the payload and produces a complete receipt:
// protected header, fixed-width signature, payload digest, and receipt
// ID. The key must be a private ES256 or EdDSA JWK; its kid (or its
// RFC 7638 thumbprint when kid is empty) becomes the receipt kid.
//
// Unlike Verify, Sign fails with a typed error: a bad private key or
// an uncanonicalizable payload is a caller precondition violation.
func Sign(payload any, key *jwk.Key) (*Receipt, error) {
	if payload == nil {
		return nil, ErrNilPayload
	}
	if key == nil || !key.IsPrivate() {
		return nil, jwk.ErrNotPrivate
	}

	alg, err := algorithmFor(key)
	if err != nil {
		return nil, err
	}

	kid := key.Kid
	if kid == "" {
		kid, err = key.Thumbprint()
		if err != nil {
			return nil, err
		}
	}

	payloadBytes, err := canonical.Canonicalize(payload)
	if err != nil {
		return nil, fmt.Errorf("receipt: payload canonicalization failed: %w", err)
	}

	header := Header{Alg: alg, Kid: kid, Typ: "JWS"}
	headerBytes, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("receipt: failed to marshal header: %w", err)
	}

	protected := encoding.EncodeBase64URL(headerBytes)
	payloadB64 := encoding.EncodeBase64URL(payloadBytes)
	signingInput := []byte(protected + "." + payloadB64)

	signature, err := signBytes(alg, key, signingInput)
	if err != nil {
		return nil, err
	}
	signatureB64 := encoding.EncodeBase64URL(signature)

	return &Receipt{
		Protected:        protected,
		Payload:          payload,
		Signature:        signatureB64,
		Kid:              kid,
		PayloadJCSSHA256: encoding.DigestBase64URL(payloadBytes),
		ReceiptID:        encoding.DigestBase64URL([]byte(protected + "." + payloadB64 + "." + signatureB64)),
	}, nil
}

func algorithmFor(key *jwk.Key) (string, error) {
	switch {
	case jwk.KeyType(key.Kty) == jwk.KeyTypeEC && jwk.Curve(key.Crv) == jwk.CurveP256:
		return AlgES256, nil
	case jwk.KeyType(key.Kty) == jwk.KeyTypeOKP && jwk.Curve(key.Crv) == jwk.CurveEd25519:
		return AlgEdDSA, nil
	default:
		return "", fmt.Errorf("%w: kty=%s crv=%s", ErrUnsupportedAlgorithm, key.Kty, key.Crv)
	}
}

func signBytes(alg string, key *jwk.Key, signingInput []byte) ([]byte, error) {
	signer, err := key.Signer()
	if err != nil {
		return nil, err
	}

	switch alg {
	case AlgES256:
		priv, ok := signer.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: signer is not an ECDSA key", ErrUnsupportedAlgorithm)
		}
		digest := encoding.DigestSHA256(signingInput)
		r, s, err := ecdsa.Sign(rand.Reader, priv, digest)
		if err != nil {
			return nil, fmt.Errorf("receipt: ES256 signing failed: %w", err)
		}
		// Fixed-width JOSE form: r||s, each zero-padded to 32 bytes.
		signature := make([]byte, SignatureSize)
		r.FillBytes(signature[:32])
		s.FillBytes(signature[32:])
		return signature, nil
	case AlgEdDSA:
		priv, ok := signer.(ed25519.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: signer is not an Ed25519 key", ErrUnsupportedAlgorithm)
		}
		return ed25519.Sign(priv, signingInput), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg)
	}
}
