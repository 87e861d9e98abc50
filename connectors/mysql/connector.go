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

package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver

	"github.com/hkjang/jainsight-sub000/connectors/base"
	"github.com/hkjang/jainsight-sub000/connectors/registry"
)

const (
	// MaxOpenConns bounds the pool for every MySQL endpoint. Callers beyond
	// the ceiling queue on the pool with no queue limit.
	MaxOpenConns = 10
	// MaxIdleConns keeps the full ceiling warm between bursts.
	MaxIdleConns = 10
	// TestTimeout bounds connectivity probes so a dead host cannot hang the
	// caller.
	TestTimeout = 5 * time.Second
)

// Connector implements the base.Driver contract for MySQL and MariaDB.
// Pooled handles are owned by the shared registry; the connector itself is
// stateless apart from its logger.
type Connector struct {
	pools  *registry.Registry
	logger *log.Logger
}

// New creates a MySQL connector backed by the shared pool registry.
func New(pools *registry.Registry) *Connector {
	return &Connector{
		pools:  pools,
		logger: log.New(os.Stdout, "[MYSQL] ", log.LstdFlags),
	}
}

// Type returns the canonical engine type.
func (c *Connector) Type() string {
	return base.EngineMySQL
}

// buildDSN constructs a MySQL Data Source Name from a descriptor.
func buildDSN(desc base.Descriptor) string {
	params := []string{
		"parseTime=true",
		"loc=UTC",
		"charset=utf8mb4",
		"multiStatements=false",
		"interpolateParams=false",
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		desc.Username, desc.Password, desc.Host, desc.Port, desc.Database,
		strings.Join(params, "&"))
}

// openPool constructs the bounded pool for one endpoint.
func openPool(desc base.Descriptor) (*sql.DB, error) {
	db, err := sql.Open("mysql", buildDSN(desc))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(MaxOpenConns)
	db.SetMaxIdleConns(MaxIdleConns)
	return db, nil
}

// TestConnection opens a throwaway connection, probes it and closes it.
// Failures are reported as data, never as an error.
func (c *Connector) TestConnection(ctx context.Context, desc base.Descriptor) *base.TestResult {
	start := time.Now()

	probeCtx, cancel := context.WithTimeout(ctx, TestTimeout)
	defer cancel()

	db, err := sql.Open("mysql", buildDSN(desc))
	if err != nil {
		return &base.TestResult{Success: false, Message: err.Error(), Latency: time.Since(start)}
	}
	defer func() { _ = db.Close() }()

	var one int
	if err := db.QueryRowContext(probeCtx, "SELECT 1").Scan(&one); err != nil {
		return &base.TestResult{Success: false, Message: err.Error(), Latency: time.Since(start)}
	}

	return &base.TestResult{
		Success: true,
		Message: "connection successful",
		Latency: time.Since(start),
	}
}

// ExecuteQuery runs a statement through the pooled handle and normalizes the
// result. MySQL binds `?` natively, so no placeholder rewriting is needed.
func (c *Connector) ExecuteQuery(ctx context.Context, desc base.Descriptor, statement string, args ...interface{}) (*base.QueryResult, error) {
	db, err := c.pools.GetOrCreate(desc, openPool)
	if err != nil {
		return nil, base.NewConnectorError(c.Type(), "ExecuteQuery", "failed to open pool", err)
	}

	if base.IsReadStatement(statement) {
		rows, err := db.QueryContext(ctx, statement, args...)
		if err != nil {
			return nil, base.NewConnectorError(c.Type(), "ExecuteQuery", "query execution failed", err)
		}
		defer func() { _ = rows.Close() }()

		result, err := base.ScanRows(rows)
		if err != nil {
			return nil, base.NewConnectorError(c.Type(), "ExecuteQuery", "failed to read result", err)
		}
		return result, nil
	}

	res, err := db.ExecContext(ctx, statement, args...)
	if err != nil {
		return nil, base.NewConnectorError(c.Type(), "ExecuteQuery", "statement execution failed", err)
	}
	return base.WriteResult(res), nil
}

// ListTables returns base tables and views of the descriptor's schema.
func (c *Connector) ListTables(ctx context.Context, desc base.Descriptor) ([]base.TableInfo, error) {
	db, err := c.pools.GetOrCreate(desc, openPool)
	if err != nil {
		return nil, base.NewConnectorError(c.Type(), "ListTables", "failed to open pool", err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT TABLE_NAME, TABLE_TYPE
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_TYPE IN ('BASE TABLE', 'VIEW')
		ORDER BY TABLE_NAME`, desc.Database)
	if err != nil {
		return nil, base.NewConnectorError(c.Type(), "ListTables", "catalog query failed", err)
	}
	defer func() { _ = rows.Close() }()

	tables := make([]base.TableInfo, 0)
	for rows.Next() {
		var name, tableType string
		if err := rows.Scan(&name, &tableType); err != nil {
			return nil, base.NewConnectorError(c.Type(), "ListTables", "failed to scan table row", err)
		}
		kind := base.KindTable
		if tableType == "VIEW" {
			kind = base.KindView
		}
		tables = append(tables, base.TableInfo{Name: name, Schema: desc.Database, Kind: kind})
	}
	if err := rows.Err(); err != nil {
		return nil, base.NewConnectorError(c.Type(), "ListTables", "error during row iteration", err)
	}
	return tables, nil
}

// ListColumns returns column metadata ordered by ordinal position. The type
// string is the full COLUMN_TYPE including length. MySQL column comments are
// not joined here.
func (c *Connector) ListColumns(ctx context.Context, desc base.Descriptor, table string) ([]base.ColumnInfo, error) {
	db, err := c.pools.GetOrCreate(desc, openPool)
	if err != nil {
		return nil, base.NewConnectorError(c.Type(), "ListColumns", "failed to open pool", err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT COLUMN_NAME, COLUMN_TYPE, IS_NULLABLE, COLUMN_KEY, COLUMN_DEFAULT
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`, desc.Database, table)
	if err != nil {
		return nil, base.NewConnectorError(c.Type(), "ListColumns", "catalog query failed", err)
	}
	defer func() { _ = rows.Close() }()

	columns := make([]base.ColumnInfo, 0)
	for rows.Next() {
		var name, colType, nullable, colKey string
		var colDefault sql.NullString
		if err := rows.Scan(&name, &colType, &nullable, &colKey, &colDefault); err != nil {
			return nil, base.NewConnectorError(c.Type(), "ListColumns", "failed to scan column row", err)
		}
		col := base.ColumnInfo{
			Name:       name,
			Type:       colType,
			Nullable:   nullable == "YES",
			PrimaryKey: colKey == "PRI",
		}
		if colDefault.Valid {
			v := colDefault.String
			col.DefaultValue = &v
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, base.NewConnectorError(c.Type(), "ListColumns", "error during row iteration", err)
	}
	return columns, nil
}
