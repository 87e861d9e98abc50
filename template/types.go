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

// Package template turns stored SQL templates plus caller parameters into
// query results, with validation, result caching and usage accounting.
package template

import (
	"fmt"
	"time"
)

// ParamSpec declares one template parameter. Type is a caller-facing hint;
// "number", "int", "integer", "float" and "numeric" values are validated as
// numeric before binding.
type ParamSpec struct {
	Name     string      `json:"name"`
	Type     string      `json:"type"`
	Required bool        `json:"required"`
	Default  interface{} `json:"default,omitempty"`
}

// SQLTemplate is a stored, parameterized SQL statement exposed as a
// repeatable operation. The engine reads every field and writes back only the
// usage counter and last-used timestamp.
type SQLTemplate struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	SQL             string      `json:"sql"`
	Params          []ParamSpec `json:"params"`
	ConnectionID    string      `json:"connection_id"`
	APIKey          string      `json:"api_key,omitempty"`
	CacheTTLSeconds int         `json:"cache_ttl_seconds"`
	IsActive        bool        `json:"is_active"`
	UsageCount      int64       `json:"usage_count"`
	LastUsedAt      *time.Time  `json:"last_used_at,omitempty"`
}

// NotFoundError reports a missing template or connection.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// ValidationError reports a request rejected before any database I/O:
// inactive template, API-key mismatch, missing required parameter or a
// type mismatch.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
