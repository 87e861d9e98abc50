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

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/hkjang/jainsight-sub000/connectors/base"
	"github.com/hkjang/jainsight-sub000/connectors/registry"
)

const (
	// MaxOpenConns bounds the pool for every PostgreSQL endpoint.
	MaxOpenConns = 10
	// ConnMaxIdleTime releases idle connections after a short window.
	ConnMaxIdleTime = 30 * time.Second
	// TestTimeout bounds connectivity probes.
	TestTimeout = 5 * time.Second
)

// Connector implements the base.Driver contract for PostgreSQL.
type Connector struct {
	pools  *registry.Registry
	logger *log.Logger
}

// New creates a PostgreSQL connector backed by the shared pool registry.
func New(pools *registry.Registry) *Connector {
	return &Connector{
		pools:  pools,
		logger: log.New(os.Stdout, "[POSTGRES] ", log.LstdFlags),
	}
}

// Type returns the canonical engine type.
func (c *Connector) Type() string {
	return base.EnginePostgres
}

func buildDSN(desc base.Descriptor) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable connect_timeout=5",
		desc.Host, desc.Port, desc.Username, desc.Password, desc.Database)
}

func openPool(desc base.Descriptor) (*sql.DB, error) {
	db, err := sql.Open("postgres", buildDSN(desc))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(MaxOpenConns)
	db.SetMaxIdleConns(MaxOpenConns)
	db.SetConnMaxIdleTime(ConnMaxIdleTime)
	return db, nil
}

// translatePlaceholders rewrites driver-neutral `?` placeholders into
// PostgreSQL's positional `$N` form, left to right.
func translatePlaceholders(statement string) string {
	var b strings.Builder
	n := 0
	for _, r := range statement {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// TestConnection opens a throwaway connection, probes it and closes it.
func (c *Connector) TestConnection(ctx context.Context, desc base.Descriptor) *base.TestResult {
	start := time.Now()

	probeCtx, cancel := context.WithTimeout(ctx, TestTimeout)
	defer cancel()

	db, err := sql.Open("postgres", buildDSN(desc))
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

// ExecuteQuery applies the mixed-case identifier quoter, translates
// placeholders and runs the statement through the pooled handle.
func (c *Connector) ExecuteQuery(ctx context.Context, desc base.Descriptor, statement string, args ...interface{}) (*base.QueryResult, error) {
	db, err := c.pools.GetOrCreate(desc, openPool)
	if err != nil {
		return nil, base.NewConnectorError(c.Type(), "ExecuteQuery", "failed to open pool", err)
	}

	stmt := translatePlaceholders(QuoteIdentifiers(statement))

	if base.IsReadStatement(stmt) {
		rows, err := db.QueryContext(ctx, stmt, args...)
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

	res, err := db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return nil, base.NewConnectorError(c.Type(), "ExecuteQuery", "statement execution failed", err)
	}
	return base.WriteResult(res), nil
}

// ListTables returns base tables and views outside the system schemas.
func (c *Connector) ListTables(ctx context.Context, desc base.Descriptor) ([]base.TableInfo, error) {
	db, err := c.pools.GetOrCreate(desc, openPool)
	if err != nil {
		return nil, base.NewConnectorError(c.Type(), "ListTables", "failed to open pool", err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT table_schema, table_name, table_type
		FROM information_schema.tables
		WHERE table_schema NOT IN ('pg_catalog', 'information_schema')
		  AND table_type IN ('BASE TABLE', 'VIEW')
		ORDER BY table_schema, table_name`)
	if err != nil {
		return nil, base.NewConnectorError(c.Type(), "ListTables", "catalog query failed", err)
	}
	defer func() { _ = rows.Close() }()

	tables := make([]base.TableInfo, 0)
	for rows.Next() {
		var schema, name, tableType string
		if err := rows.Scan(&schema, &name, &tableType); err != nil {
			return nil, base.NewConnectorError(c.Type(), "ListTables", "failed to scan table row", err)
		}
		kind := base.KindTable
		if tableType == "VIEW" {
			kind = base.KindView
		}
		tables = append(tables, base.TableInfo{Name: name, Schema: schema, Kind: kind})
	}
	if err := rows.Err(); err != nil {
		return nil, base.NewConnectorError(c.Type(), "ListTables", "error during row iteration", err)
	}
	return tables, nil
}

// richColumnQuery joins the constraint and description catalogs for primary
// key and comment enrichment.
const richColumnQuery = `
	SELECT a.attname,
	       format_type(a.atttypid, a.atttypmod),
	       NOT a.attnotnull,
	       COALESCE(i.indisprimary, false),
	       pg_get_expr(ad.adbin, ad.adrelid),
	       col_description(a.attrelid, a.attnum)
	FROM pg_attribute a
	JOIN pg_class t ON a.attrelid = t.oid
	LEFT JOIN pg_attrdef ad ON ad.adrelid = a.attrelid AND ad.adnum = a.attnum
	LEFT JOIN pg_index i ON i.indrelid = a.attrelid
	    AND a.attnum = ANY(i.indkey) AND i.indisprimary
	WHERE t.relname = $1 AND a.attnum > 0 AND NOT a.attisdropped
	ORDER BY a.attnum`

// fallbackColumnQuery keeps ordinal order and the basic fields when the rich
// query fails (missing catalog privileges, exotic server versions).
const fallbackColumnQuery = `
	SELECT column_name, data_type, is_nullable, column_default
	FROM information_schema.columns
	WHERE table_name = $1
	ORDER BY ordinal_position`

// ListColumns returns column metadata enriched with primary-key and comment
// information, degrading to a minimal catalog query on failure.
func (c *Connector) ListColumns(ctx context.Context, desc base.Descriptor, table string) ([]base.ColumnInfo, error) {
	db, err := c.pools.GetOrCreate(desc, openPool)
	if err != nil {
		return nil, base.NewConnectorError(c.Type(), "ListColumns", "failed to open pool", err)
	}

	columns, err := c.listColumnsRich(ctx, db, table)
	if err == nil {
		return columns, nil
	}
	c.logger.Printf("rich column query failed for %q, falling back: %v", table, err)

	return c.listColumnsFallback(ctx, db, table)
}

func (c *Connector) listColumnsRich(ctx context.Context, db *sql.DB, table string) ([]base.ColumnInfo, error) {
	rows, err := db.QueryContext(ctx, richColumnQuery, table)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	columns := make([]base.ColumnInfo, 0)
	for rows.Next() {
		var name, colType string
		var nullable, primary bool
		var colDefault, comment sql.NullString
		if err := rows.Scan(&name, &colType, &nullable, &primary, &colDefault, &comment); err != nil {
			return nil, err
		}
		col := base.ColumnInfo{
			Name:       name,
			Type:       colType,
			Nullable:   nullable,
			PrimaryKey: primary,
			Comment:    comment.String,
		}
		if colDefault.Valid {
			v := colDefault.String
			col.DefaultValue = &v
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (c *Connector) listColumnsFallback(ctx context.Context, db *sql.DB, table string) ([]base.ColumnInfo, error) {
	rows, err := db.QueryContext(ctx, fallbackColumnQuery, table)
	if err != nil {
		return nil, base.NewConnectorError(c.Type(), "ListColumns", "catalog query failed", err)
	}
	defer func() { _ = rows.Close() }()

	columns := make([]base.ColumnInfo, 0)
	for rows.Next() {
		var name, colType, nullable string
		var colDefault sql.NullString
		if err := rows.Scan(&name, &colType, &nullable, &colDefault); err != nil {
			return nil, base.NewConnectorError(c.Type(), "ListColumns", "failed to scan column row", err)
		}
		col := base.ColumnInfo{
			Name:     name,
			Type:     colType,
			Nullable: nullable == "YES",
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
