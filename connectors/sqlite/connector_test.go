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
	"path/filepath"
	"testing"

	"github.com/hkjang/jainsight-sub000/connectors/base"
)

func testDescriptor(t *testing.T) base.Descriptor {
	t.Helper()
	return base.Descriptor{
		EngineType: "sqlite",
		Database:   filepath.Join(t.TempDir(), "test.db"),
	}
}

func setupFixture(t *testing.T, c *Connector, desc base.Descriptor) {
	t.Helper()
	ctx := context.Background()

	statements := []string{
		`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL, active INTEGER DEFAULT 1)`,
		`CREATE VIEW active_users AS SELECT * FROM users WHERE active = 1`,
		`INSERT INTO users (id, name) VALUES (1, 'A'), (2, 'B'), (3, 'C')`,
	}
	for _, stmt := range statements {
		if _, err := c.ExecuteQuery(ctx, desc, stmt); err != nil {
			t.Fatalf("fixture statement failed: %v", err)
		}
	}
}

func TestTestConnection(t *testing.T) {
	c := New()
	result := c.TestConnection(context.Background(), testDescriptor(t))
	if !result.Success {
		t.Errorf("TestConnection failed: %s", result.Message)
	}
}

func TestExecuteQueryReadAndWrite(t *testing.T) {
	c := New()
	desc := testDescriptor(t)
	setupFixture(t, c, desc)
	ctx := context.Background()

	read, err := c.ExecuteQuery(ctx, desc, "SELECT id, name FROM users ORDER BY id")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if read.RowCount != 3 {
		t.Errorf("RowCount = %d, want 3", read.RowCount)
	}
	if read.Rows[0]["name"] != "A" {
		t.Errorf("unexpected first row: %v", read.Rows[0])
	}

	write, err := c.ExecuteQuery(ctx, desc, "UPDATE users SET active = ?", 0)
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if write.RowCount != 3 {
		t.Errorf("affected rows = %d, want 3", write.RowCount)
	}
	if len(write.Rows) != 0 || len(write.Fields) != 0 {
		t.Errorf("write result must carry empty rows and fields, got %v / %v", write.Rows, write.Fields)
	}
}

func TestExecuteQueryPragmaIsRead(t *testing.T) {
	c := New()
	desc := testDescriptor(t)
	setupFixture(t, c, desc)

	result, err := c.ExecuteQuery(context.Background(), desc, "PRAGMA table_info(users)")
	if err != nil {
		t.Fatalf("pragma failed: %v", err)
	}
	if result.RowCount == 0 {
		t.Error("PRAGMA must be classified as a read and return rows")
	}
}

func TestListTables(t *testing.T) {
	c := New()
	desc := testDescriptor(t)
	setupFixture(t, c, desc)

	tables, err := c.ListTables(context.Background(), desc)
	if err != nil {
		t.Fatalf("ListTables failed: %v", err)
	}

	byName := make(map[string]string)
	for _, tbl := range tables {
		byName[tbl.Name] = tbl.Kind
	}
	if byName["users"] != base.KindTable {
		t.Errorf("users kind = %q, want %q", byName["users"], base.KindTable)
	}
	if byName["active_users"] != base.KindView {
		t.Errorf("active_users kind = %q, want %q", byName["active_users"], base.KindView)
	}
}

func TestListColumns(t *testing.T) {
	c := New()
	desc := testDescriptor(t)
	setupFixture(t, c, desc)

	columns, err := c.ListColumns(context.Background(), desc, "users")
	if err != nil {
		t.Fatalf("ListColumns failed: %v", err)
	}

	if len(columns) != 3 {
		t.Fatalf("got %d columns, want 3", len(columns))
	}
	if columns[0].Name != "id" || !columns[0].PrimaryKey {
		t.Errorf("unexpected first column: %+v", columns[0])
	}
	if columns[1].Name != "name" || columns[1].Nullable {
		t.Errorf("name column should be NOT NULL: %+v", columns[1])
	}
	if columns[2].DefaultValue == nil || *columns[2].DefaultValue != "1" {
		t.Errorf("active column default wrong: %+v", columns[2])
	}
}

func TestListColumnsSanitizesHostileName(t *testing.T) {
	c := New()
	desc := testDescriptor(t)
	setupFixture(t, c, desc)

	// Stripping the hostile characters yields a harmless unknown table name.
	columns, err := c.ListColumns(context.Background(), desc, `users"); DROP TABLE users;--`)
	if err != nil {
		t.Fatalf("ListColumns failed: %v", err)
	}
	if len(columns) != 0 {
		t.Errorf("sanitized unknown table should yield no columns, got %d", len(columns))
	}

	// The table must survive.
	result, err := c.ExecuteQuery(context.Background(), desc, "SELECT COUNT(*) AS n FROM users")
	if err != nil {
		t.Fatalf("users table was damaged: %v", err)
	}
	if result.RowCount != 1 {
		t.Errorf("unexpected count result: %+v", result)
	}
}
