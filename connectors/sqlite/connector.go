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

package sqlite

import (
	"context"
	"database/sql"
	"log"
	"os"
	"time"

	_ "modernc.org/sqlite" // CGO-free SQLite driver

	"github.com/hkjang/jainsight-sub000/connectors/base"
)

// TestTimeout bounds connectivity probes.
const TestTimeout = 5 * time.Second

// Connector implements the base.Driver contract for SQLite. The descriptor's
// Database field is the database file path; host, port and credentials are
// ignored. SQLite handles are file descriptors, not network sockets, so the
// connector opens and closes one per operation instead of registering a pool.
type Connector struct {
	logger *log.Logger
}

// New creates a SQLite connector.
func New() *Connector {
	return &Connector{
		logger: log.New(os.Stdout, "[SQLITE] ", log.LstdFlags),
	}
}

// Type returns the canonical engine type.
func (c *Connector) Type() string {
	return base.EngineSQLite
}

func open(desc base.Descriptor) (*sql.DB, error) {
	return sql.Open("sqlite", desc.Database)
}

// TestConnection opens the database file and pings it.
func (c *Connector) TestConnection(ctx context.Context, desc base.Descriptor) *base.TestResult {
	start := time.Now()

	probeCtx, cancel := context.WithTimeout(ctx, TestTimeout)
	defer cancel()

	db, err := open(desc)
	if err != nil {
		return &base.TestResult{Success: false, Message: err.Error(), Latency: time.Since(start)}
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(probeCtx); err != nil {
		return &base.TestResult{Success: false, Message: err.Error(), Latency: time.Since(start)}
	}

	return &base.TestResult{
		Success: true,
		Message: "connection successful",
		Latency: time.Since(start),
	}
}

// ExecuteQuery opens the file, runs the statement and closes the handle.
// SQLite binds `?` natively.
func (c *Connector) ExecuteQuery(ctx context.Context, desc base.Descriptor, statement string, args ...interface{}) (*base.QueryResult, error) {
	db, err := open(desc)
	if err != nil {
		return nil, base.NewConnectorError(c.Type(), "ExecuteQuery", "failed to open database file", err)
	}
	defer func() { _ = db.Close() }()

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

// ListTables returns tables and views from sqlite_master, skipping the
// sqlite_ internal tables.
func (c *Connector) ListTables(ctx context.Context, desc base.Descriptor) ([]base.TableInfo, error) {
	db, err := open(desc)
	if err != nil {
		return nil, base.NewConnectorError(c.Type(), "ListTables", "failed to open database file", err)
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, `
		SELECT name, type
		FROM sqlite_master
		WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'
		ORDER BY name`)
	if err != nil {
		return nil, base.NewConnectorError(c.Type(), "ListTables", "catalog query failed", err)
	}
	defer func() { _ = rows.Close() }()

	tables := make([]base.TableInfo, 0)
	for rows.Next() {
		var name, objType string
		if err := rows.Scan(&name, &objType); err != nil {
			return nil, base.NewConnectorError(c.Type(), "ListTables", "failed to scan table row", err)
		}
		kind := base.KindTable
		if objType == "view" {
			kind = base.KindView
		}
		tables = append(tables, base.TableInfo{Name: name, Kind: kind})
	}
	if err := rows.Err(); err != nil {
		return nil, base.NewConnectorError(c.Type(), "ListTables", "error during row iteration", err)
	}
	return tables, nil
}

// ListColumns returns column metadata from PRAGMA table_info. PRAGMA does not
// accept bind parameters, so the table name is sanitized to a bare identifier
// before interpolation.
func (c *Connector) ListColumns(ctx context.Context, desc base.Descriptor, table string) ([]base.ColumnInfo, error) {
	db, err := open(desc)
	if err != nil {
		return nil, base.NewConnectorError(c.Type(), "ListColumns", "failed to open database file", err)
	}
	defer func() { _ = db.Close() }()

	safe := base.SanitizeIdentifier(table)
	if safe == "" {
		return nil, base.NewConnectorError(c.Type(), "ListColumns", "invalid table name", nil)
	}

	rows, err := db.QueryContext(ctx, `PRAGMA table_info("`+safe+`")`)
	if err != nil {
		return nil, base.NewConnectorError(c.Type(), "ListColumns", "pragma query failed", err)
	}
	defer func() { _ = rows.Close() }()

	columns := make([]base.ColumnInfo, 0)
	for rows.Next() {
		var cid, notNull, pk int
		var name, colType string
		var colDefault sql.NullString
		if err := rows.Scan(&cid, &name, &colType, &notNull, &colDefault, &pk); err != nil {
			return nil, base.NewConnectorError(c.Type(), "ListColumns", "failed to scan column row", err)
		}
		col := base.ColumnInfo{
			Name:       name,
			Type:       colType,
			Nullable:   notNull == 0,
			PrimaryKey: pk > 0,
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
