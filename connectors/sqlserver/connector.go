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

package sqlserver

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	_ "github.com/denisenkom/go-mssqldb" // SQL Server driver

	"github.com/hkjang/jainsight-sub000/connectors/base"
	"github.com/hkjang/jainsight-sub000/connectors/registry"
)

const (
	// MaxOpenConns bounds the pool for every SQL Server endpoint.
	MaxOpenConns = 10
	// MinIdleConns keeps no connections warm; the pool grows on demand.
	MinIdleConns = 0
	// ConnMaxIdleTime releases idle connections after a short window.
	ConnMaxIdleTime = 30 * time.Second
	// TestTimeout bounds connectivity probes.
	TestTimeout = 5 * time.Second
)

// Connector implements the base.Driver contract for SQL Server. Encryption is
// disabled and the server certificate trusted, matching the admin-tool
// deployments this targets.
type Connector struct {
	pools  *registry.Registry
	logger *log.Logger
}

// New creates a SQL Server connector backed by the shared pool registry.
func New(pools *registry.Registry) *Connector {
	return &Connector{
		pools:  pools,
		logger: log.New(os.Stdout, "[SQLSERVER] ", log.LstdFlags),
	}
}

// Type returns the canonical engine type.
func (c *Connector) Type() string {
	return base.EngineSQLServer
}

func buildDSN(desc base.Descriptor) string {
	query := url.Values{}
	query.Set("database", desc.Database)
	query.Set("encrypt", "disable")
	query.Set("TrustServerCertificate", "true")
	query.Set("connection timeout", "5")

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(desc.Username, desc.Password),
		Host:     fmt.Sprintf("%s:%d", desc.Host, desc.Port),
		RawQuery: query.Encode(),
	}
	return u.String()
}

func openPool(desc base.Descriptor) (*sql.DB, error) {
	db, err := sql.Open("sqlserver", buildDSN(desc))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(MaxOpenConns)
	db.SetMaxIdleConns(MinIdleConns)
	db.SetConnMaxIdleTime(ConnMaxIdleTime)
	return db, nil
}

// translatePlaceholders rewrites driver-neutral `?` placeholders into SQL
// Server's positional `@pN` form, left to right.
func translatePlaceholders(statement string) string {
	var b strings.Builder
	n := 0
	for _, r := range statement {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "@p%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// splitTableName splits a dotted schema.table name, defaulting the schema
// to dbo.
func splitTableName(table string) (schema, name string) {
	if i := strings.IndexByte(table, '.'); i >= 0 {
		return table[:i], table[i+1:]
	}
	return "dbo", table
}

// TestConnection opens a throwaway connection, probes it and closes it.
func (c *Connector) TestConnection(ctx context.Context, desc base.Descriptor) *base.TestResult {
	start := time.Now()

	probeCtx, cancel := context.WithTimeout(ctx, TestTimeout)
	defer cancel()

	db, err := sql.Open("sqlserver", buildDSN(desc))
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

// ExecuteQuery translates placeholders and runs the statement through the
// pooled handle.
func (c *Connector) ExecuteQuery(ctx context.Context, desc base.Descriptor, statement string, args ...interface{}) (*base.QueryResult, error) {
	db, err := c.pools.GetOrCreate(desc, openPool)
	if err != nil {
		return nil, base.NewConnectorError(c.Type(), "ExecuteQuery", "failed to open pool", err)
	}

	stmt := translatePlaceholders(statement)

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

// ListTables returns base tables and views across all schemas.
func (c *Connector) ListTables(ctx context.Context, desc base.Descriptor) ([]base.TableInfo, error) {
	db, err := c.pools.GetOrCreate(desc, openPool)
	if err != nil {
		return nil, base.NewConnectorError(c.Type(), "ListTables", "failed to open pool", err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT TABLE_SCHEMA, TABLE_NAME, TABLE_TYPE
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_TYPE IN ('BASE TABLE', 'VIEW')
		ORDER BY TABLE_SCHEMA, TABLE_NAME`)
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

// richColumnQuery joins the constraint catalog and extended properties for
// primary-key and comment enrichment.
const richColumnQuery = `
	SELECT c.COLUMN_NAME,
	       c.DATA_TYPE,
	       c.CHARACTER_MAXIMUM_LENGTH,
	       c.IS_NULLABLE,
	       c.COLUMN_DEFAULT,
	       CASE WHEN pk.COLUMN_NAME IS NOT NULL THEN 1 ELSE 0 END,
	       CAST(ep.value AS NVARCHAR(4000))
	FROM INFORMATION_SCHEMA.COLUMNS c
	LEFT JOIN (
	    SELECT ku.TABLE_SCHEMA, ku.TABLE_NAME, ku.COLUMN_NAME
	    FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
	    JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE ku
	      ON tc.CONSTRAINT_NAME = ku.CONSTRAINT_NAME
	     AND tc.TABLE_SCHEMA = ku.TABLE_SCHEMA
	    WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY'
	) pk ON pk.TABLE_SCHEMA = c.TABLE_SCHEMA
	    AND pk.TABLE_NAME = c.TABLE_NAME
	    AND pk.COLUMN_NAME = c.COLUMN_NAME
	LEFT JOIN sys.extended_properties ep
	  ON ep.major_id = OBJECT_ID(c.TABLE_SCHEMA + '.' + c.TABLE_NAME)
	 AND ep.minor_id = COLUMNPROPERTY(OBJECT_ID(c.TABLE_SCHEMA + '.' + c.TABLE_NAME), c.COLUMN_NAME, 'ColumnId')
	 AND ep.name = 'MS_Description'
	WHERE c.TABLE_SCHEMA = @p1 AND c.TABLE_NAME = @p2
	ORDER BY c.ORDINAL_POSITION`

const fallbackColumnQuery = `
	SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE, COLUMN_DEFAULT
	FROM INFORMATION_SCHEMA.COLUMNS
	WHERE TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2
	ORDER BY ORDINAL_POSITION`

// ListColumns returns column metadata with length-qualified types, primary
// keys and comments, degrading to a minimal catalog query on failure. Table
// names may be dotted schema.table, defaulting to dbo.
func (c *Connector) ListColumns(ctx context.Context, desc base.Descriptor, table string) ([]base.ColumnInfo, error) {
	db, err := c.pools.GetOrCreate(desc, openPool)
	if err != nil {
		return nil, base.NewConnectorError(c.Type(), "ListColumns", "failed to open pool", err)
	}

	schema, name := splitTableName(table)

	columns, err := c.listColumnsRich(ctx, db, schema, name)
	if err == nil {
		return columns, nil
	}
	c.logger.Printf("rich column query failed for %q, falling back: %v", table, err)

	return c.listColumnsFallback(ctx, db, schema, name)
}

// qualifyType appends the character length to the base type when present.
// -1 means max.
func qualifyType(dataType string, maxLen sql.NullInt64) string {
	if !maxLen.Valid {
		return dataType
	}
	if maxLen.Int64 < 0 {
		return dataType + "(max)"
	}
	return fmt.Sprintf("%s(%d)", dataType, maxLen.Int64)
}

func (c *Connector) listColumnsRich(ctx context.Context, db *sql.DB, schema, table string) ([]base.ColumnInfo, error) {
	rows, err := db.QueryContext(ctx, richColumnQuery, schema, table)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	columns := make([]base.ColumnInfo, 0)
	for rows.Next() {
		var name, dataType, nullable string
		var maxLen sql.NullInt64
		var colDefault, comment sql.NullString
		var isPK int
		if err := rows.Scan(&name, &dataType, &maxLen, &nullable, &colDefault, &isPK, &comment); err != nil {
			return nil, err
		}
		col := base.ColumnInfo{
			Name:       name,
			Type:       qualifyType(dataType, maxLen),
			Nullable:   nullable == "YES",
			PrimaryKey: isPK == 1,
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

func (c *Connector) listColumnsFallback(ctx context.Context, db *sql.DB, schema, table string) ([]base.ColumnInfo, error) {
	rows, err := db.QueryContext(ctx, fallbackColumnQuery, schema, table)
	if err != nil {
		return nil, base.NewConnectorError(c.Type(), "ListColumns", "catalog query failed", err)
	}
	defer func() { _ = rows.Close() }()

	columns := make([]base.ColumnInfo, 0)
	for rows.Next() {
		var name, dataType, nullable string
		var colDefault sql.NullString
		if err := rows.Scan(&name, &dataType, &nullable, &colDefault); err != nil {
			return nil, base.NewConnectorError(c.Type(), "ListColumns", "failed to scan column row", err)
		}
		col := base.ColumnInfo{
			Name:     name,
			Type:     dataType,
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
