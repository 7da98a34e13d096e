// Copyright (c) 2025 CertNode
//
// This file is part of certnode-go.
//
// Licensed under the Apache License, Version 2.0.
// See the LICENSE file for details.

package jwks

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certnode/certnode-go/pkg/jwk"
)

// fakeClock is a manually advanced clock for cache expiry tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// countingFetcher serves a fixed document and counts fetches.
type countingFetcher struct {
	mu    sync.Mutex
	count int
	body  []byte
	err   error
}

func (f *countingFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count++
	if f.err != nil {
		return nil, f.err
	}
	return f.body, nil
}

func (f *countingFetcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

func (f *countingFetcher) setResponse(body []byte, err error) {
	f.mu.Lock()
	f.body = body
	f.err = err
	f.mu.Unlock()
}

func jwksDocument(t *testing.T, keys ...jwk.Key) []byte {
	t.Helper()
	doc, err := json.Marshal(Set{Keys: keys})
	require.NoError(t, err)
	return doc
}

func TestManagerCachesWithinTTL(t *testing.T) {
	ec, err := jwk.GenerateES256()
	require.NoError(t, err)

	clock := newFakeClock()
	fetcher := &countingFetcher{body: jwksDocument(t, *ec.Public())}
	mgr := NewManager(&ManagerOptions{Fetcher: fetcher, Now: clock.Now})

	ctx := context.Background()
	first, err := mgr.FetchFromURL(ctx, "https://keys.example/jwks.json")
	require.NoError(t, err)
	require.Len(t, first.Keys, 1)
	assert.Equal(t, 1, fetcher.calls())

	// Repeated calls within the TTL never touch the network.
	clock.Advance(4 * time.Minute)
	for i := 0; i < 5; i++ {
		again, err := mgr.FetchFromURL(ctx, "https://keys.example/jwks.json")
		require.NoError(t, err)
		assert.Same(t, first, again, "fresh cache returns the same set")
	}
	assert.Equal(t, 1, fetcher.calls())
}

func TestManagerRefetchesAfterExpiry(t *testing.T) {
	ec, err := jwk.GenerateES256()
	require.NoError(t, err)

	clock := newFakeClock()
	fetcher := &countingFetcher{body: jwksDocument(t, *ec.Public())}
	mgr := NewManager(&ManagerOptions{Fetcher: fetcher, Now: clock.Now})

	ctx := context.Background()
	_, err = mgr.FetchFromURL(ctx, "https://keys.example/jwks.json")
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls())

	// The default TTL is five minutes; one nanosecond past it expires
	// the entry.
	clock.Advance(DefaultTTL + time.Nanosecond)
	_, err = mgr.FetchFromURL(ctx, "https://keys.example/jwks.json")
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls(), "expired cache triggers exactly one refetch")
}

func TestManagerCustomTTL(t *testing.T) {
	ec, err := jwk.GenerateES256()
	require.NoError(t, err)

	clock := newFakeClock()
	fetcher := &countingFetcher{body: jwksDocument(t, *ec.Public())}
	mgr := NewManager(&ManagerOptions{TTL: 10 * time.Second, Fetcher: fetcher, Now: clock.Now})

	ctx := context.Background()
	_, err = mgr.FetchFromURL(ctx, "u")
	require.NoError(t, err)

	clock.Advance(9 * time.Second)
	_, err = mgr.FetchFromURL(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls())

	clock.Advance(2 * time.Second)
	_, err = mgr.FetchFromURL(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls())
}

func TestManagerFetchFailurePreservesCache(t *testing.T) {
	ec, err := jwk.GenerateES256()
	require.NoError(t, err)

	clock := newFakeClock()
	fetcher := &countingFetcher{body: jwksDocument(t, *ec.Public())}
	mgr := NewManager(&ManagerOptions{Fetcher: fetcher, Now: clock.Now})

	ctx := context.Background()
	_, err = mgr.FetchFromURL(ctx, "u")
	require.NoError(t, err)

	// Expire, then fail the refresh.
	clock.Advance(DefaultTTL + time.Second)
	fetcher.setResponse(nil, errors.New("connection refused"))

	_, err = mgr.FetchFromURL(ctx, "u")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetch)

	// The stale set is still installed; a recovered fetch works again.
	fetcher.setResponse(jwksDocument(t, *ec.Public()), nil)
	set, err := mgr.FetchFromURL(ctx, "u")
	require.NoError(t, err)
	assert.Len(t, set.Keys, 1)
}

func TestManagerRejectsInvalidDocument(t *testing.T) {
	clock := newFakeClock()
	tests := []struct {
		name string
		body []byte
	}{
		{"not json", []byte(`<html>`)},
		{"missing keys member", []byte(`{}`)},
		{"invalid member", []byte(`{"keys":[{"kty":"RSA"}]}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &countingFetcher{body: tt.body}
			mgr := NewManager(&ManagerOptions{Fetcher: fetcher, Now: clock.Now})

			_, err := mgr.FetchFromURL(context.Background(), "u")
			require.Error(t, err)
			assert.Nil(t, mgr.GetFresh(), "invalid documents are never cached")
		})
	}
}

func TestManagerSetFromObject(t *testing.T) {
	ec, err := jwk.GenerateES256()
	require.NoError(t, err)

	clock := newFakeClock()
	fetcher := &countingFetcher{}
	mgr := NewManager(&ManagerOptions{Fetcher: fetcher, Now: clock.Now})

	require.NoError(t, mgr.SetFromObject(&Set{Keys: []jwk.Key{*ec.Public()}}))

	// The seeded cache satisfies fetches without the fetcher.
	set, err := mgr.FetchFromURL(context.Background(), "u")
	require.NoError(t, err)
	assert.Len(t, set.Keys, 1)
	assert.Equal(t, 0, fetcher.calls())

	assert.ErrorIs(t, mgr.SetFromObject(&Set{}), ErrNoKeys)
}

func TestManagerConcurrentAccess(t *testing.T) {
	ec, err := jwk.GenerateES256()
	require.NoError(t, err)

	fetcher := &countingFetcher{body: jwksDocument(t, *ec.Public())}
	mgr := NewManager(&ManagerOptions{Fetcher: fetcher})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			set, err := mgr.FetchFromURL(context.Background(), "u")
			assert.NoError(t, err)
			assert.NotNil(t, set)
		}()
	}
	wg.Wait()

	// Refreshes are serialized: every caller after the first hits the
	// cache installed by whichever goroutine won the fetch lock.
	assert.Equal(t, 1, fetcher.calls())
}
