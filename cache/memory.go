// Copyright 2025 AxonFlow
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hkjang/jainsight-sub000/connectors/base"
)

type memoryEntry struct {
	result    *base.QueryResult
	expiresAt time.Time
}

// Memory is a process-local result cache with lazy expiry: stale entries are
// dropped on read rather than by a background sweeper.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry

	hits   int64
	misses int64
}

// NewMemory creates an empty in-memory result cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
	}
}

// Get returns the cached result for key, treating expired entries as misses.
func (m *Memory) Get(_ context.Context, key string) (*base.QueryResult, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || time.Now().After(e.expiresAt) {
		m.mu.Lock()
		if ok {
			delete(m.entries, key)
		}
		m.misses++
		m.mu.Unlock()
		return nil, false
	}

	m.mu.Lock()
	m.hits++
	m.mu.Unlock()
	return e.result, true
}

// Set stores a result under key for the given TTL. Non-positive TTLs are
// ignored.
func (m *Memory) Set(_ context.Context, key string, result *base.QueryResult, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{
		result:    result,
		expiresAt: time.Now().Add(ttl),
	}
}

// Cleanup sweeps expired entries and returns how many were removed. Callers
// that keep large caches warm can run it periodically; Get already drops
// expired entries lazily.
func (m *Memory) Cleanup() int {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

// Stats returns the hit and miss counters since construction.
func (m *Memory) Stats() (hits, misses int64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hits, m.misses
}

// Len returns the number of entries currently stored, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
