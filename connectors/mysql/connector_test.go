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
	"errors"
	"strings"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/hkjang/jainsight-sub000/connectors/base"
	"github.com/hkjang/jainsight-sub000/connectors/registry"
)

func testDescriptor() base.Descriptor {
	return base.Descriptor{
		EngineType: "mysql",
		Host:       "db.internal",
		Port:       3306,
		Username:   "app",
		Password:   "secret",
		Database:   "orders",
	}
}

// seedPool parks a sqlmock handle in the registry under the descriptor's key
// so the connector executes against the mock instead of dialing out.
func seedPool(t *testing.T, pools *registry.Registry, desc base.Descriptor) sqlmock.Sqlmock {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	if _, err := pools.GetOrCreate(desc, func(base.Descriptor) (*sql.DB, error) {
		return db, nil
	}); err != nil {
		t.Fatalf("failed to seed pool: %v", err)
	}
	return mock
}

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN(testDescriptor())

	if !strings.HasPrefix(dsn, "app:secret@tcp(db.internal:3306)/orders?") {
		t.Errorf("unexpected DSN shape: %s", dsn)
	}
	for _, param := range []string{"parseTime=true", "charset=utf8mb4", "multiStatements=false"} {
		if !strings.Contains(dsn, param) {
			t.Errorf("DSN missing %s: %s", param, dsn)
		}
	}
}

func TestExecuteQueryRead(t *testing.T) {
	pools := registry.New()
	defer pools.CloseAll()
	desc := testDescriptor()
	mock := seedPool(t, pools, desc)

	mock.ExpectQuery("SELECT id, name FROM users").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name"}).
			AddRow(1, "A").
			AddRow(2, "B"))

	c := New(pools)
	result, err := c.ExecuteQuery(context.Background(), desc, "SELECT id, name FROM users")
	if err != nil {
		t.Fatalf("ExecuteQuery failed: %v", err)
	}

	if result.RowCount != 2 {
		t.Errorf("RowCount = %d, want 2", result.RowCount)
	}
	if len(result.Fields) != 2 || result.Fields[0] != "id" || result.Fields[1] != "name" {
		t.Errorf("Fields = %v, want [id name]", result.Fields)
	}
	if result.Rows[0]["name"] != "A" || result.Rows[1]["name"] != "B" {
		t.Errorf("unexpected rows: %v", result.Rows)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestExecuteQueryWrite(t *testing.T) {
	pools := registry.New()
	defer pools.CloseAll()
	desc := testDescriptor()
	mock := seedPool(t, pools, desc)

	mock.ExpectExec("UPDATE users SET active").
		WithArgs(false).
		WillReturnResult(sqlmock.NewResult(0, 3))

	c := New(pools)
	result, err := c.ExecuteQuery(context.Background(), desc, "UPDATE users SET active = ?", false)
	if err != nil {
		t.Fatalf("ExecuteQuery failed: %v", err)
	}

	if result.RowCount != 3 {
		t.Errorf("RowCount = %d, want 3", result.RowCount)
	}
	if len(result.Rows) != 0 || len(result.Fields) != 0 {
		t.Errorf("write result must carry empty rows and fields, got %v / %v", result.Rows, result.Fields)
	}
}

func TestExecuteQueryWrapsErrors(t *testing.T) {
	pools := registry.New()
	defer pools.CloseAll()
	desc := testDescriptor()
	mock := seedPool(t, pools, desc)

	mock.ExpectQuery("SELECT").WillReturnError(sql.ErrConnDone)

	c := New(pools)
	_, err := c.ExecuteQuery(context.Background(), desc, "SELECT 1")
	if err == nil {
		t.Fatal("expected an error")
	}

	var connErr *base.ConnectorError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected *base.ConnectorError, got %T", err)
	}
	if connErr.Engine != "mysql" || connErr.Operation != "ExecuteQuery" {
		t.Errorf("unexpected error envelope: %+v", connErr)
	}
	if !errors.Is(err, sql.ErrConnDone) {
		t.Error("cause must stay reachable through Unwrap")
	}
}

func TestListTables(t *testing.T) {
	pools := registry.New()
	defer pools.CloseAll()
	desc := testDescriptor()
	mock := seedPool(t, pools, desc)

	mock.ExpectQuery("information_schema.TABLES").
		WithArgs("orders").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME", "TABLE_TYPE"}).
			AddRow("customers", "BASE TABLE").
			AddRow("order_summary", "VIEW"))

	c := New(pools)
	tables, err := c.ListTables(context.Background(), desc)
	if err != nil {
		t.Fatalf("ListTables failed: %v", err)
	}

	if len(tables) != 2 {
		t.Fatalf("got %d tables, want 2", len(tables))
	}
	if tables[0].Kind != base.KindTable || tables[1].Kind != base.KindView {
		t.Errorf("unexpected kinds: %+v", tables)
	}
	if tables[0].Schema != "orders" {
		t.Errorf("Schema = %q, want orders", tables[0].Schema)
	}
}

func TestListColumns(t *testing.T) {
	pools := registry.New()
	defer pools.CloseAll()
	desc := testDescriptor()
	mock := seedPool(t, pools, desc)

	mock.ExpectQuery("information_schema.COLUMNS").
		WithArgs("orders", "customers").
		WillReturnRows(sqlmock.NewRows(
			[]string{"COLUMN_NAME", "COLUMN_TYPE", "IS_NULLABLE", "COLUMN_KEY", "COLUMN_DEFAULT"}).
			AddRow("id", "bigint(20)", "NO", "PRI", nil).
			AddRow("email", "varchar(255)", "YES", "", "''"))

	c := New(pools)
	columns, err := c.ListColumns(context.Background(), desc, "customers")
	if err != nil {
		t.Fatalf("ListColumns failed: %v", err)
	}

	if len(columns) != 2 {
		t.Fatalf("got %d columns, want 2", len(columns))
	}
	if !columns[0].PrimaryKey || columns[0].Nullable {
		t.Errorf("id column flags wrong: %+v", columns[0])
	}
	if columns[1].Type != "varchar(255)" {
		t.Errorf("Type = %q, want full column type", columns[1].Type)
	}
	if columns[1].DefaultValue == nil {
		t.Error("expected default value for email")
	}
}
