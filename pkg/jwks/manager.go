// Copyright (c) 2025 CertNode
//
// This file is part of certnode-go.
//
// Licensed under the Apache License, Version 2.0.
// See the LICENSE file for details.

package jwks

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultTTL is the cache lifetime applied when none is configured.
const DefaultTTL = 5 * time.Minute

// Manager caches a validated key set with a TTL. It is safe for
// concurrent use: readers take a shared lock and never observe a torn
// cache entry, and refreshes are serialized so a slow fetch cannot
// clobber a fresher concurrent one.
type Manager struct {
	ttl     time.Duration
	fetcher Fetcher
	now     func() time.Time

	// fetchMu serializes refreshes; mu guards the cache pair.
	fetchMu  sync.Mutex
	mu       sync.RWMutex
	cache    *Set
	cachedAt time.Time
}

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	// TTL is the cache lifetime. Zero means DefaultTTL.
	TTL time.Duration

	// Fetcher retrieves JWKS documents. Nil means an HTTPFetcher with
	// default timeouts.
	Fetcher Fetcher

	// Now overrides the clock, for tests. Nil means time.Now.
	Now func() time.Time
}

// NewManager creates a key set manager with an empty cache.
func NewManager(opts *ManagerOptions) *Manager {
	if opts == nil {
		opts = &ManagerOptions{}
	}
	ttl := opts.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = NewHTTPFetcher(nil)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		ttl:     ttl,
		fetcher: fetcher,
		now:     now,
	}
}

// FetchFromURL returns the cached set while it is fresh; otherwise it
// fetches, validates, and swaps the cache. On fetch or validation
// failure the existing cache is left untouched — stale-but-available
// beats unavailable — and the error wraps ErrFetch or the validation
// error respectively.
func (m *Manager) FetchFromURL(ctx context.Context, url string) (*Set, error) {
	if set := m.GetFresh(); set != nil {
		return set, nil
	}

	m.fetchMu.Lock()
	defer m.fetchMu.Unlock()

	// A concurrent refresh may have landed while we waited.
	if set := m.GetFresh(); set != nil {
		return set, nil
	}

	body, err := m.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, url, err)
	}

	set, err := Parse(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, url, err)
	}
	if err := Validate(set); err != nil {
		return nil, fmt.Errorf("invalid key set from %s: %w", url, err)
	}

	m.mu.Lock()
	m.cache = set
	m.cachedAt = m.now()
	m.mu.Unlock()

	return set, nil
}

// SetFromObject validates a set and installs it in the cache directly,
// bypassing the fetcher.
func (m *Manager) SetFromObject(set *Set) error {
	if err := Validate(set); err != nil {
		return err
	}
	m.mu.Lock()
	m.cache = set
	m.cachedAt = m.now()
	m.mu.Unlock()
	return nil
}

// GetFresh returns the cached set while it is within its TTL, or nil.
func (m *Manager) GetFresh() *Set {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cache != nil && m.now().Sub(m.cachedAt) < m.ttl {
		return m.cache
	}
	return nil
}
