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

// Package connectors provides the polymorphic entry point for database
// operations. A single Connector fronts one driver per engine and a shared
// pool registry; callers never touch engine adapters directly.
package connectors

import (
	"context"
	"fmt"
	"time"

	"github.com/hkjang/jainsight-sub000/connectors/base"
	"github.com/hkjang/jainsight-sub000/connectors/mysql"
	"github.com/hkjang/jainsight-sub000/connectors/postgres"
	"github.com/hkjang/jainsight-sub000/connectors/registry"
	"github.com/hkjang/jainsight-sub000/connectors/sqlite"
	"github.com/hkjang/jainsight-sub000/connectors/sqlserver"
	"github.com/hkjang/jainsight-sub000/shared/logger"
	"github.com/hkjang/jainsight-sub000/shared/metrics"
)

// Connector dispatches operations to the engine driver selected by the
// descriptor's engine type. Construct it once and share it; all methods are
// safe for concurrent use.
type Connector struct {
	drivers map[string]base.Driver
	pools   *registry.Registry
	log     *logger.Logger
}

// New creates a Connector with all supported engine drivers registered.
func New() *Connector {
	pools := registry.New()

	c := &Connector{
		drivers: make(map[string]base.Driver),
		pools:   pools,
		log:     logger.New("connectors"),
	}
	c.register(mysql.New(pools))
	c.register(postgres.New(pools))
	c.register(sqlserver.New(pools))
	c.register(sqlite.New())
	return c
}

func (c *Connector) register(d base.Driver) {
	c.drivers[d.Type()] = d
}

// driver resolves the engine driver for a descriptor, normalizing aliases.
func (c *Connector) driver(desc base.Descriptor) (base.Driver, bool) {
	d, ok := c.drivers[base.NormalizeEngine(desc.EngineType)]
	return d, ok
}

// Pools exposes the shared registry for diagnostics.
func (c *Connector) Pools() *registry.Registry {
	return c.pools
}

// TestConnection probes connectivity for the descriptor. An unsupported
// engine type is a failed test, not an error.
func (c *Connector) TestConnection(ctx context.Context, desc base.Descriptor) *base.TestResult {
	d, ok := c.driver(desc)
	if !ok {
		return &base.TestResult{
			Success: false,
			Message: fmt.Sprintf("unsupported database type: %s", desc.EngineType),
		}
	}
	return d.TestConnection(ctx, desc)
}

// ExecuteQuery dispatches a statement to the descriptor's engine driver and
// records execution metrics.
func (c *Connector) ExecuteQuery(ctx context.Context, desc base.Descriptor, statement string, args ...interface{}) (*base.QueryResult, error) {
	d, ok := c.driver(desc)
	if !ok {
		return nil, base.NewConnectorError(desc.EngineType, "ExecuteQuery",
			fmt.Sprintf("unsupported database type: %s", desc.EngineType), nil)
	}

	start := time.Now()
	result, err := d.ExecuteQuery(ctx, desc, statement, args...)
	elapsed := time.Since(start)
	metrics.ObserveQuery(d.Type(), elapsed, err)

	if err != nil {
		c.log.ErrorWithErr("", "query execution failed", err, map[string]interface{}{
			"engine":      d.Type(),
			"duration_ms": elapsed.Milliseconds(),
		})
		return nil, err
	}

	c.log.Debug("", "query executed", map[string]interface{}{
		"engine":      d.Type(),
		"rows":        result.RowCount,
		"duration_ms": elapsed.Milliseconds(),
	})
	return result, nil
}

// ListTables dispatches table discovery to the descriptor's engine driver.
func (c *Connector) ListTables(ctx context.Context, desc base.Descriptor) ([]base.TableInfo, error) {
	d, ok := c.driver(desc)
	if !ok {
		return nil, base.NewConnectorError(desc.EngineType, "ListTables",
			fmt.Sprintf("unsupported database type: %s", desc.EngineType), nil)
	}
	return d.ListTables(ctx, desc)
}

// ListColumns dispatches column discovery to the descriptor's engine driver.
func (c *Connector) ListColumns(ctx context.Context, desc base.Descriptor, table string) ([]base.ColumnInfo, error) {
	d, ok := c.driver(desc)
	if !ok {
		return nil, base.NewConnectorError(desc.EngineType, "ListColumns",
			fmt.Sprintf("unsupported database type: %s", desc.EngineType), nil)
	}
	return d.ListColumns(ctx, desc, table)
}

// Close releases every pooled handle. Safe to call once during shutdown.
func (c *Connector) Close() {
	c.pools.CloseAll()
}
