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

// Package cache stores template query results under deterministic keys with a
// per-entry TTL. Two implementations exist: a process-local memory cache and a
// Redis-backed cache for multi-instance deployments.
package cache

import (
	"context"
	"time"

	"github.com/hkjang/jainsight-sub000/connectors/base"
)

// ResultCache is the contract the template engine caches through. Get reports
// a miss for absent and expired entries alike. Implementations must be safe
// for concurrent use.
type ResultCache interface {
	Get(ctx context.Context, key string) (*base.QueryResult, bool)
	Set(ctx context.Context, key string, result *base.QueryResult, ttl time.Duration)
}
