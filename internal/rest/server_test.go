// Copyright (c) 2025 CertNode
//
// This file is part of certnode-go.
//
// Licensed under the Apache License, Version 2.0.
// See the LICENSE file for details.

package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certnode/certnode-go/pkg/jwk"
	"github.com/certnode/certnode-go/pkg/jwks"
	"github.com/certnode/certnode-go/pkg/receipt"
)

func newTestServer(t *testing.T) (*Server, *jwk.Key) {
	t.Helper()
	key, err := jwk.GenerateES256()
	require.NoError(t, err)

	srv, err := NewServer(&Config{
		Version:    "test",
		SigningKey: key,
	})
	require.NoError(t, err)
	return srv, key
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestNewServerRequiresPrivateKey(t *testing.T) {
	_, err := NewServer(nil)
	assert.Error(t, err)

	key, err := jwk.GenerateES256()
	require.NoError(t, err)
	_, err = NewServer(&Config{SigningKey: key.Public()})
	assert.Error(t, err)
}

func TestHealthEndpoint(t *testing.T) {
	srv, key := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "test", health.Version)
	assert.Equal(t, key.Kid, health.Kid)
}

func TestJWKSEndpoint(t *testing.T) {
	srv, key := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	set, err := jwks.Parse(rec.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, set.Keys, 1)
	assert.Equal(t, key.Kid, set.Keys[0].Kid)
	assert.Empty(t, set.Keys[0].D, "published keys must not carry private material")
}

func TestSignVerifyRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()

	rec := postJSON(t, handler, "/api/v1/receipts", SignRequest{
		Payload: map[string]any{"invoice": "inv-9", "total": 99.95},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var signResp SignResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &signResp))
	require.NotNil(t, signResp.Receipt)
	assert.NotEmpty(t, signResp.Receipt.ReceiptID)

	// The signed payload carries request metadata.
	obj, ok := signResp.Receipt.Payload.(map[string]any)
	require.True(t, ok)
	meta, ok := obj["_receipt_meta"].(map[string]any)
	require.True(t, ok, "signed payloads are enriched with _receipt_meta")
	assert.NotEmpty(t, meta["generated_at"])
	assert.NotEmpty(t, meta["request_id"])
	assert.Equal(t, "inv-9", obj["invoice"])

	// Verify against the service's own key.
	rec = postJSON(t, handler, "/api/v1/verify", VerifyRequest{Receipt: signResp.Receipt})
	require.Equal(t, http.StatusOK, rec.Code)

	var verifyResp VerifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &verifyResp))
	assert.True(t, verifyResp.OK, "round trip failed: %s", verifyResp.Reason)
}

func TestVerifyRejectsTamperedReceipt(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()

	rec := postJSON(t, handler, "/api/v1/receipts", SignRequest{
		Payload: map[string]any{"amount": 10},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var signResp SignResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &signResp))

	tampered := signResp.Receipt
	obj := tampered.Payload.(map[string]any)
	obj["amount"] = 1000000

	rec = postJSON(t, handler, "/api/v1/verify", VerifyRequest{Receipt: tampered})
	require.Equal(t, http.StatusOK, rec.Code)

	var verifyResp VerifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &verifyResp))
	assert.False(t, verifyResp.OK)
	assert.NotEmpty(t, verifyResp.Reason)
}

func TestVerifyWithInlineJWKS(t *testing.T) {
	srv, _ := newTestServer(t)

	// Receipt signed by a key the server has never seen, verified via
	// an inline key set.
	other, err := jwk.GenerateEd25519()
	require.NoError(t, err)
	signed, err := receipt.Sign(map[string]any{"x": 1}, other)
	require.NoError(t, err)

	inline, err := json.Marshal(jwks.Set{Keys: []jwk.Key{*other.Public()}})
	require.NoError(t, err)

	rec := postJSON(t, srv.Handler(), "/api/v1/verify", VerifyRequest{
		Receipt: signed,
		JWKS:    inline,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var verifyResp VerifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &verifyResp))
	assert.True(t, verifyResp.OK, verifyResp.Reason)
}

func TestVerifyUnknownSignerRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	other, err := jwk.GenerateES256()
	require.NoError(t, err)
	signed, err := receipt.Sign(map[string]any{"x": 1}, other)
	require.NoError(t, err)

	// Without the inline set the signer's key is unknown.
	rec := postJSON(t, srv.Handler(), "/api/v1/verify", VerifyRequest{Receipt: signed})
	require.Equal(t, http.StatusOK, rec.Code)
	var verifyResp VerifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &verifyResp))
	assert.False(t, verifyResp.OK)
	assert.Equal(t, "key not found", verifyResp.Reason)
}

func TestSignRequestValidation(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()

	tests := []struct {
		name string
		body string
	}{
		{"not json", `{broken`},
		{"missing payload", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/receipts", bytes.NewReader([]byte(tt.body)))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var errResp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
			assert.NotEmpty(t, errResp.Error)
		})
	}
}

func TestVerifyRequestValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := postJSON(t, srv.Handler(), "/api/v1/verify", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestIDHeader(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader), "responses carry a request id")

	// A caller-provided request id is echoed back.
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "caller-7")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "caller-7", rec.Header().Get(RequestIDHeader))
}
