// Copyright (c) 2025 CertNode
//
// This file is part of certnode-go.
//
// Licensed under the Apache License, Version 2.0.
// See the LICENSE file for details.

package jwk

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateES256(t *testing.T) {
	key, err := GenerateES256()
	require.NoError(t, err, "GenerateES256 failed")

	assert.Equal(t, string(KeyTypeEC), key.Kty)
	assert.Equal(t, string(CurveP256), key.Crv)
	assert.Equal(t, "ES256", key.Alg)
	assert.True(t, key.IsPrivate())
	require.NoError(t, key.Validate())

	// kid defaults to the RFC 7638 thumbprint
	thumb, err := key.Thumbprint()
	require.NoError(t, err)
	assert.Equal(t, thumb, key.Kid)
}

func TestGenerateEd25519(t *testing.T) {
	key, err := GenerateEd25519()
	require.NoError(t, err, "GenerateEd25519 failed")

	assert.Equal(t, string(KeyTypeOKP), key.Kty)
	assert.Equal(t, string(CurveEd25519), key.Crv)
	assert.Equal(t, "EdDSA", key.Alg)
	assert.Empty(t, key.Y, "OKP keys have no y coordinate")
	assert.True(t, key.IsPrivate())
	require.NoError(t, key.Validate())

	thumb, err := key.Thumbprint()
	require.NoError(t, err)
	assert.Equal(t, thumb, key.Kid)
}

func TestValidate(t *testing.T) {
	ec, err := GenerateES256()
	require.NoError(t, err)
	okp, err := GenerateEd25519()
	require.NoError(t, err)

	short := base64.RawURLEncoding.EncodeToString(make([]byte, 16))

	tests := []struct {
		name    string
		key     Key
		wantErr error
	}{
		{"valid EC", *ec, nil},
		{"valid OKP", *okp, nil},
		{"unsupported kty", Key{Kty: "RSA"}, ErrUnsupportedKeyType},
		{"empty kty", Key{}, ErrUnsupportedKeyType},
		{"EC wrong curve", Key{Kty: "EC", Crv: "P-384", X: ec.X, Y: ec.Y}, ErrUnsupportedCurve},
		{"OKP wrong curve", Key{Kty: "OKP", Crv: "X25519", X: okp.X}, ErrUnsupportedCurve},
		{"EC missing y", Key{Kty: "EC", Crv: "P-256", X: ec.X}, ErrMissingCoordinate},
		{"OKP missing x", Key{Kty: "OKP", Crv: "Ed25519"}, ErrMissingCoordinate},
		{"EC short coordinate", Key{Kty: "EC", Crv: "P-256", X: short, Y: ec.Y}, ErrInvalidCoordinate},
		{"EC bad base64", Key{Kty: "EC", Crv: "P-256", X: "not+base64url!", Y: ec.Y}, ErrInvalidCoordinate},
		{"OKP short x", Key{Kty: "OKP", Crv: "Ed25519", X: short}, ErrInvalidCoordinate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.key.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestPublicStripsPrivateMaterial(t *testing.T) {
	key, err := GenerateES256()
	require.NoError(t, err)

	pub := key.Public()
	assert.Empty(t, pub.D)
	assert.False(t, pub.IsPrivate())
	assert.Equal(t, key.X, pub.X)
	assert.Equal(t, key.Kid, pub.Kid)

	// The original is untouched.
	assert.True(t, key.IsPrivate())
}

func TestECDSAPublicKeyRoundTrip(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	key, err := FromECDSAPrivateKey(priv)
	require.NoError(t, err)

	pub, err := key.ECDSAPublicKey()
	require.NoError(t, err)
	assert.Zero(t, pub.X.Cmp(priv.X))
	assert.Zero(t, pub.Y.Cmp(priv.Y))
}

func TestECDSAPublicKeyRejectsOffCurvePoint(t *testing.T) {
	key, err := GenerateES256()
	require.NoError(t, err)

	// A y coordinate of all zero bytes is not on P-256 for any
	// generated x.
	key.Y = base64.RawURLEncoding.EncodeToString(make([]byte, CoordinateSize))
	_, err = key.ECDSAPublicKey()
	assert.ErrorIs(t, err, ErrPointNotOnCurve)
}

func TestEd25519PublicKeyRoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	key, err := FromEd25519PrivateKey(priv)
	require.NoError(t, err)

	got, err := key.Ed25519PublicKey()
	require.NoError(t, err)
	assert.Equal(t, pub, got)
}

func TestSigner(t *testing.T) {
	t.Run("EC", func(t *testing.T) {
		key, err := GenerateES256()
		require.NoError(t, err)

		signer, err := key.Signer()
		require.NoError(t, err)
		_, ok := signer.(*ecdsa.PrivateKey)
		assert.True(t, ok, "EC signer should be *ecdsa.PrivateKey")
	})

	t.Run("OKP", func(t *testing.T) {
		key, err := GenerateEd25519()
		require.NoError(t, err)

		signer, err := key.Signer()
		require.NoError(t, err)
		priv, ok := signer.(ed25519.PrivateKey)
		require.True(t, ok, "OKP signer should be ed25519.PrivateKey")

		// The rebuilt key signs identically to the original seed.
		msg := []byte("signer round trip")
		sig := ed25519.Sign(priv, msg)
		pub, err := key.Ed25519PublicKey()
		require.NoError(t, err)
		assert.True(t, ed25519.Verify(pub, msg, sig))
	})

	t.Run("public key refuses", func(t *testing.T) {
		key, err := GenerateES256()
		require.NoError(t, err)
		_, err = key.Public().Signer()
		assert.ErrorIs(t, err, ErrNotPrivate)
	})
}

func TestFromECDSAPrivateKeyZeroPadsCoordinates(t *testing.T) {
	// Regenerate until a coordinate has a leading zero byte, then check
	// the encoded form still decodes to exactly 32 bytes. Bounded so a
	// pathological RNG cannot hang the test.
	for i := 0; i < 500; i++ {
		key, err := GenerateES256()
		require.NoError(t, err)

		for _, coord := range []string{key.X, key.Y, key.D} {
			raw, err := base64.RawURLEncoding.DecodeString(coord)
			require.NoError(t, err)
			require.Len(t, raw, CoordinateSize)
		}

		xRaw, _ := base64.RawURLEncoding.DecodeString(key.X)
		if xRaw[0] == 0 {
			return
		}
	}
	t.Log("no leading-zero coordinate observed; padding still verified for every sample")
}

func TestFromECDSAPrivateKeyRejectsOtherCurves(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	require.NoError(t, err)

	_, err = FromECDSAPrivateKey(priv)
	assert.ErrorIs(t, err, ErrUnsupportedCurve)
}

func TestUnmarshal(t *testing.T) {
	key, err := GenerateEd25519()
	require.NoError(t, err)

	parsed, err := Unmarshal([]byte(`{"kty":"OKP","crv":"Ed25519","x":"` + key.X + `","kid":"` + key.Kid + `"}`))
	require.NoError(t, err)
	assert.Equal(t, key.X, parsed.X)
	assert.Equal(t, key.Kid, parsed.Kid)
	require.NoError(t, parsed.Validate())

	_, err = Unmarshal([]byte(`{not json`))
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "jwk:"))
}
