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

// Package metrics exposes Prometheus instrumentation for query execution
// and template result caching.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueryExecutions counts executed statements by engine and outcome.
	QueryExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "db_query_executions_total",
		Help: "Total statements executed, labeled by engine and status.",
	}, []string{"engine", "status"})

	// QueryDuration observes statement latency by engine.
	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Statement execution latency, labeled by engine.",
		Buckets: prometheus.DefBuckets,
	}, []string{"engine"})

	// TemplateExecutions counts template executions by outcome.
	TemplateExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "template_executions_total",
		Help: "Total template executions, labeled by status.",
	}, []string{"status"})

	// CacheRequests counts result-cache probes by outcome (hit or miss).
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "template_cache_requests_total",
		Help: "Total result cache probes, labeled by outcome.",
	}, []string{"outcome"})
)

// ObserveQuery records one statement execution.
func ObserveQuery(engine string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	QueryExecutions.WithLabelValues(engine, status).Inc()
	QueryDuration.WithLabelValues(engine).Observe(d.Seconds())
}
