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

package template

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/hkjang/jainsight-sub000/cache"
	"github.com/hkjang/jainsight-sub000/connectors/base"
	"github.com/hkjang/jainsight-sub000/shared/logger"
	"github.com/hkjang/jainsight-sub000/shared/metrics"
)

// Engine executes stored SQL templates. The per-call step order is fixed:
// lookup, gate, validate, usage accounting, cache probe, bind, resolve
// connection, execute, cache store. Validation always precedes any database
// I/O, and accounting runs before the cache probe so cache hits still count
// as usage.
type Engine struct {
	templates   TemplateStore
	connections ConnectionStore
	executor    Executor
	results     cache.ResultCache
	log         *logger.Logger
}

// NewEngine creates a template engine. A nil results cache falls back to a
// process-local memory cache.
func NewEngine(templates TemplateStore, connections ConnectionStore, executor Executor, results cache.ResultCache) *Engine {
	if results == nil {
		results = cache.NewMemory()
	}
	return &Engine{
		templates:   templates,
		connections: connections,
		executor:    executor,
		results:     results,
		log:         logger.New("template_engine"),
	}
}

// CacheKey derives the deterministic cache key for a template invocation.
// Parameters are serialized with sorted keys, so caller argument order never
// affects cache identity.
func CacheKey(templateID string, params map[string]interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		// Unserializable parameter values fall back to an uncacheable key.
		return templateID + ":" + uuid.NewString()
	}
	return templateID + ":" + string(data)
}

// Execute runs the template identified by templateID with the caller's
// parameters. An empty apiKey means the caller supplied none.
func (e *Engine) Execute(ctx context.Context, templateID string, params map[string]interface{}, apiKey string) (*base.QueryResult, error) {
	requestID := uuid.NewString()
	start := time.Now()

	tmpl, err := e.templates.GetTemplate(ctx, templateID)
	if err != nil {
		metrics.TemplateExecutions.WithLabelValues("not_found").Inc()
		return nil, err
	}

	if err := e.gate(tmpl, apiKey); err != nil {
		metrics.TemplateExecutions.WithLabelValues("rejected").Inc()
		return nil, err
	}

	effective, err := e.validate(tmpl, params)
	if err != nil {
		metrics.TemplateExecutions.WithLabelValues("rejected").Inc()
		return nil, err
	}

	// Accounting runs before the cache probe: a cache hit is still a use of
	// the template.
	if err := e.templates.RecordUsage(ctx, tmpl.ID); err != nil {
		e.log.Warn(requestID, "usage accounting failed", map[string]interface{}{
			"template_id": tmpl.ID,
			"error":       err.Error(),
		})
	}

	cacheable := tmpl.CacheTTLSeconds > 0
	var key string
	if cacheable {
		key = CacheKey(tmpl.ID, effective)
		if result, ok := e.results.Get(ctx, key); ok {
			metrics.CacheRequests.WithLabelValues("hit").Inc()
			metrics.TemplateExecutions.WithLabelValues("cache_hit").Inc()
			e.log.Debug(requestID, "cache hit", map[string]interface{}{"template_id": tmpl.ID})
			return result, nil
		}
		metrics.CacheRequests.WithLabelValues("miss").Inc()
	}

	statement, values := BindParameters(tmpl.SQL, effective)

	desc, err := e.connections.GetDescriptor(ctx, tmpl.ConnectionID)
	if err != nil {
		metrics.TemplateExecutions.WithLabelValues("error").Inc()
		return nil, err
	}

	result, err := e.executor.ExecuteQuery(ctx, desc, statement, values...)
	elapsed := time.Since(start)
	if err != nil {
		metrics.TemplateExecutions.WithLabelValues("error").Inc()
		e.log.ErrorWithErr(requestID, "template execution failed", err, map[string]interface{}{
			"template_id": tmpl.ID,
			"duration_ms": elapsed.Milliseconds(),
		})
		return nil, err
	}

	if cacheable {
		e.results.Set(ctx, key, result, time.Duration(tmpl.CacheTTLSeconds)*time.Second)
	}

	metrics.TemplateExecutions.WithLabelValues("ok").Inc()
	e.log.InfoWithDuration(requestID, "template executed", float64(elapsed.Milliseconds()), map[string]interface{}{
		"template_id": tmpl.ID,
		"rows":        result.RowCount,
	})
	return result, nil
}

// gate rejects inactive templates and API-key mismatches.
func (e *Engine) gate(tmpl *SQLTemplate, apiKey string) error {
	if !tmpl.IsActive {
		return validationErrorf("API is currently disabled")
	}
	if apiKey != "" && apiKey != tmpl.APIKey {
		return validationErrorf("invalid API key for template %s", tmpl.ID)
	}
	return nil
}

// validate checks the caller's parameters against the declared specs and
// returns the effective parameter map with declared defaults filled in.
// Unknown caller-supplied keys are ignored rather than rejected.
func (e *Engine) validate(tmpl *SQLTemplate, params map[string]interface{}) (map[string]interface{}, error) {
	effective := make(map[string]interface{}, len(tmpl.Params))

	for _, spec := range tmpl.Params {
		value, supplied := params[spec.Name]
		if !supplied {
			if spec.Required && spec.Default == nil {
				return nil, validationErrorf("missing required parameter: %s", spec.Name)
			}
			if spec.Default != nil {
				effective[spec.Name] = spec.Default
			}
			continue
		}
		if isNumericType(spec.Type) && !isNumericValue(value) {
			return nil, validationErrorf("parameter %s must be numeric, got %T", spec.Name, value)
		}
		effective[spec.Name] = value
	}
	return effective, nil
}
