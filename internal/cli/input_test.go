// Copyright (c) 2025 CertNode
//
// This file is part of certnode-go.
//
// Licensed under the Apache License, Version 2.0.
// See the LICENSE file for details.

package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSourceInlineJSON(t *testing.T) {
	data, err := readSource(`{"a":1}`)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))

	data, err = readSource(`  [1,2]  `)
	require.NoError(t, err)
	assert.Equal(t, `[1,2]`, string(data))
}

func TestReadSourceFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"from":"file"}`), 0o644))

	data, err := readSource(path)
	require.NoError(t, err)
	assert.Equal(t, `{"from":"file"}`, string(data))

	_, err = readSource(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestLoadReceipt(t *testing.T) {
	r, err := loadReceipt(`{"protected":"p","payload":{"a":1},"signature":"s","kid":"k"}`)
	require.NoError(t, err)
	assert.Equal(t, "k", r.Kid)

	_, err = loadReceipt(`{broken`)
	assert.Error(t, err)
}

func TestLoadKeySetFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"keys":[{"kty":"OKP","crv":"Ed25519","x":"11qYAYKxCrfVS_7TyWQHOg7hcvPapiMlrwIaaPcHURo","kid":"k1"}]}`))
	}))
	defer srv.Close()

	set, err := loadKeySet(srv.URL)
	require.NoError(t, err)
	require.Len(t, set.Keys, 1)
	assert.Equal(t, "k1", set.Keys[0].Kid)
}

func TestLoadKeySetInline(t *testing.T) {
	set, err := loadKeySet(`{"keys":[]}`)
	require.NoError(t, err)
	assert.Empty(t, set.Keys)
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter("json", &buf)
	assert.True(t, p.JSON())
	require.NoError(t, p.PrintJSON(map[string]any{"ok": true}))
	assert.JSONEq(t, `{"ok":true}`, buf.String())

	buf.Reset()
	p = NewPrinter("text", &buf)
	assert.False(t, p.JSON())
	p.Printf("result: %s\n", "VALID")
	assert.Equal(t, "result: VALID\n", buf.String())
}
