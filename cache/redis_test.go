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
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	r, err := NewRedis(context.Background(), RedisOptions{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r, mr
}

func TestRedisRoundTrip(t *testing.T) {
	r, _ := newTestRedis(t)
	ctx := context.Background()

	r.Set(ctx, "tpl-1:{}", sampleResult(), time.Minute)

	got, ok := r.Get(ctx, "tpl-1:{}")
	require.True(t, ok, "expected hit after Set")
	assert.Equal(t, 1, got.RowCount)
	assert.Equal(t, []string{"id"}, got.Fields)
}

func TestRedisMiss(t *testing.T) {
	r, _ := newTestRedis(t)

	_, ok := r.Get(context.Background(), "absent")
	assert.False(t, ok)
}

func TestRedisExpiry(t *testing.T) {
	r, mr := newTestRedis(t)
	ctx := context.Background()

	r.Set(ctx, "k", sampleResult(), time.Second)
	mr.FastForward(2 * time.Second)

	_, ok := r.Get(ctx, "k")
	assert.False(t, ok, "expired entry must miss")
}

func TestRedisCorruptEntryIsDiscarded(t *testing.T) {
	r, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, mr.Set(redisKeyPrefix+"bad", "not json"))

	_, ok := r.Get(ctx, "bad")
	assert.False(t, ok)
	assert.False(t, mr.Exists(redisKeyPrefix+"bad"), "corrupt entry should be deleted")
}

func TestRedisUnreachable(t *testing.T) {
	_, err := NewRedis(context.Background(), RedisOptions{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
