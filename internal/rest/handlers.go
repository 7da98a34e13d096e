// Copyright (c) 2025 CertNode
//
// This file is part of certnode-go.
//
// Licensed under the Apache License, Version 2.0.
// See the LICENSE file for details.

package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/certnode/certnode-go/pkg/jwk"
	"github.com/certnode/certnode-go/pkg/jwks"
	"github.com/certnode/certnode-go/pkg/logging"
	"github.com/certnode/certnode-go/pkg/metrics"
	"github.com/certnode/certnode-go/pkg/receipt"
)

// HandlerContext holds the handlers' dependencies: the signing key is
// an explicit component owned by the server, never process state.
type HandlerContext struct {
	version    string
	signingKey *jwk.Key
	publicSet  *jwks.Set
	manager    *jwks.Manager
	jwksURL    string
	logger     *logging.Logger
	now        func() time.Time
}

// NewHandlerContext creates the handler context. signingKey must be a
// private JWK; manager and jwksURL are optional and enable remote key
// set verification.
func NewHandlerContext(version string, signingKey *jwk.Key, manager *jwks.Manager, jwksURL string, logger *logging.Logger) *HandlerContext {
	if logger == nil {
		logger = logging.Default()
	}
	return &HandlerContext{
		version:    version,
		signingKey: signingKey,
		publicSet:  &jwks.Set{Keys: []jwk.Key{*signingKey.Public()}},
		manager:    manager,
		jwksURL:    jwksURL,
		logger:     logger,
		now:        time.Now,
	}
}

// SignHandler handles POST /api/v1/receipts: it enriches the payload
// with request metadata, signs it, and returns the receipt.
func (h *HandlerContext) SignHandler(w http.ResponseWriter, r *http.Request) {
	var req SignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Payload == nil {
		writeError(w, "payload is required", http.StatusBadRequest)
		return
	}

	payload := req.Payload
	if obj, ok := payload.(map[string]any); ok {
		enriched := make(map[string]any, len(obj)+1)
		for k, v := range obj {
			enriched[k] = v
		}
		enriched["_receipt_meta"] = map[string]any{
			"generated_at": h.now().UTC().Format(time.RFC3339),
			"request_id":   uuid.NewString(),
		}
		payload = enriched
	}

	signed, err := receipt.Sign(payload, h.signingKey)
	if err != nil {
		h.logger.Error("signing failed", "error", err)
		writeError(w, "signing failed", http.StatusInternalServerError)
		return
	}

	metrics.ReceiptsSignedTotal.Inc()
	h.logger.Debug("receipt signed", "kid", signed.Kid, "receipt_id", signed.ReceiptID)
	writeJSON(w, SignResponse{Receipt: signed}, http.StatusCreated)
}

// VerifyHandler handles POST /api/v1/verify. The key set is taken from
// the request if provided, else the configured remote JWKS, else the
// service's own public key.
func (h *HandlerContext) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Receipt == nil {
		writeError(w, "receipt is required", http.StatusBadRequest)
		return
	}

	keys, err := h.keySet(r, req.JWKS)
	if err != nil {
		h.logger.Warn("key set unavailable", "error", err)
		writeError(w, "key set unavailable", http.StatusBadGateway)
		return
	}

	result := receipt.Verify(req.Receipt, keys)
	metrics.RecordVerification(result.OK)
	writeJSON(w, VerifyResponse(result), http.StatusOK)
}

func (h *HandlerContext) keySet(r *http.Request, raw json.RawMessage) (*jwks.Set, error) {
	if len(raw) > 0 {
		return jwks.Parse(raw)
	}
	if h.manager != nil && h.jwksURL != "" {
		set, err := h.manager.FetchFromURL(r.Context(), h.jwksURL)
		metrics.RecordJWKSFetch(err)
		if err != nil {
			return nil, err
		}
		return set, nil
	}
	return h.publicSet, nil
}

// JWKSHandler handles GET /.well-known/jwks.json, publishing the
// service's signing key.
func (h *HandlerContext) JWKSHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.publicSet, http.StatusOK)
}

// HealthHandler handles GET /health.
func (h *HandlerContext) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, HealthResponse{
		Status:  "healthy",
		Version: h.version,
		Kid:     h.signingKey.Kid,
	}, http.StatusOK)
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, ErrorResponse{Error: msg}, status)
}
