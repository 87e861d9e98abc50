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

	"github.com/hkjang/jainsight-sub000/connectors/base"
)

// TemplateStore supplies stored templates and persists usage accounting.
type TemplateStore interface {
	// GetTemplate fetches a template by id, returning *NotFoundError when
	// absent.
	GetTemplate(ctx context.Context, id string) (*SQLTemplate, error)

	// RecordUsage increments the template's usage counter and stamps its
	// last-used timestamp.
	RecordUsage(ctx context.Context, id string) error
}

// ConnectionStore resolves a connection id to its decrypted descriptor.
type ConnectionStore interface {
	// GetDescriptor returns the descriptor for id, returning *NotFoundError
	// when absent.
	GetDescriptor(ctx context.Context, id string) (base.Descriptor, error)
}

// Executor runs a bound statement against a descriptor. The connectors
// facade satisfies it.
type Executor interface {
	ExecuteQuery(ctx context.Context, desc base.Descriptor, statement string, args ...interface{}) (*base.QueryResult, error)
}
