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
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/hkjang/jainsight-sub000/connectors/base"
	"github.com/hkjang/jainsight-sub000/shared/logger"
)

// redisKeyPrefix namespaces cache entries so the cache can share a Redis
// database with other subsystems.
const redisKeyPrefix = "tplcache:"

// Redis is a result cache backed by a shared Redis instance, letting multiple
// service replicas serve each other's cached results. Results are stored as
// JSON with Redis-native expiry. Redis failures degrade to cache misses.
type Redis struct {
	client *redis.Client
	log    *logger.Logger
}

// RedisOptions configures the Redis result cache.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedis creates a Redis-backed result cache and verifies connectivity.
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis cache unreachable at %s: %w", opts.Addr, err)
	}

	return &Redis{
		client: client,
		log:    logger.New("result_cache"),
	}, nil
}

// Get returns the cached result for key. Transport and decode failures are
// logged and reported as misses.
func (r *Redis) Get(ctx context.Context, key string) (*base.QueryResult, bool) {
	data, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		r.log.Warn("", "cache read failed", map[string]interface{}{"error": err.Error()})
		return nil, false
	}

	var result base.QueryResult
	if err := json.Unmarshal(data, &result); err != nil {
		r.log.Warn("", "cache entry corrupt, discarding", map[string]interface{}{"error": err.Error()})
		_ = r.client.Del(ctx, redisKeyPrefix+key).Err()
		return nil, false
	}
	return &result, true
}

// Set stores a result under key with Redis-native expiry. Failures are logged
// and swallowed; caching is best effort.
func (r *Redis) Set(ctx context.Context, key string, result *base.QueryResult, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		r.log.Warn("", "cache encode failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := r.client.Set(ctx, redisKeyPrefix+key, data, ttl).Err(); err != nil {
		r.log.Warn("", "cache write failed", map[string]interface{}{"error": err.Error()})
	}
}

// Close releases the Redis client.
func (r *Redis) Close() error {
	return r.client.Close()
}
