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
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/hkjang/jainsight-sub000/shared/logger"
)

func newMockStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &SQLStore{db: db, log: logger.New("template_store")}, mock
}

func TestGetTemplate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("FROM sql_templates").
		WithArgs("tpl-1").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "name", "sql_text", "params", "connection_id", "api_key",
				"cache_ttl_seconds", "is_active", "usage_count", "last_used_at"}).
			AddRow("tpl-1", "user by id", "SELECT * FROM users WHERE id = :id",
				[]byte(`[{"name":"id","type":"number","required":true}]`),
				"conn-1", "", 60, true, 5, nil))

	tmpl, err := store.GetTemplate(context.Background(), "tpl-1")
	if err != nil {
		t.Fatalf("GetTemplate failed: %v", err)
	}

	if tmpl.Name != "user by id" || tmpl.CacheTTLSeconds != 60 || tmpl.UsageCount != 5 {
		t.Errorf("unexpected template: %+v", tmpl)
	}
	if len(tmpl.Params) != 1 || tmpl.Params[0].Name != "id" || tmpl.Params[0].Type != "number" {
		t.Errorf("parameter specs not decoded: %+v", tmpl.Params)
	}
	if tmpl.LastUsedAt != nil {
		t.Error("LastUsedAt should be nil for a never-used template")
	}
}

func TestGetTemplateNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("FROM sql_templates").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.GetTemplate(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected an error")
	}
	if _, ok := err.(*NotFoundError); !ok {
		t.Errorf("expected *NotFoundError, got %T", err)
	}
}

func TestRecordUsage(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE sql_templates").
		WithArgs("tpl-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.RecordUsage(context.Background(), "tpl-1"); err != nil {
		t.Fatalf("RecordUsage failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRecordUsageMissingTemplate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE sql_templates").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.RecordUsage(context.Background(), "missing")
	if _, ok := err.(*NotFoundError); !ok {
		t.Errorf("expected *NotFoundError, got %v", err)
	}
}

func TestGetDescriptor(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("FROM db_connections").
		WithArgs("conn-1").
		WillReturnRows(sqlmock.NewRows(
			[]string{"engine_type", "host", "port", "username", "password", "database_name"}).
			AddRow("postgres", "db.internal", 5432, "app", "secret", "orders"))

	desc, err := store.GetDescriptor(context.Background(), "conn-1")
	if err != nil {
		t.Fatalf("GetDescriptor failed: %v", err)
	}
	if desc.EngineType != "postgres" || desc.Port != 5432 || desc.Database != "orders" {
		t.Errorf("unexpected descriptor: %+v", desc)
	}
}

func TestSaveTemplateSynthesizesSpecs(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO sql_templates").
		WillReturnResult(sqlmock.NewResult(0, 1))

	tmpl := &SQLTemplate{
		ID:           "tpl-2",
		Name:         "orders by customer",
		SQL:          "SELECT * FROM orders WHERE customer_id = :customer_id AND status = :status",
		Params:       []ParamSpec{{Name: "customer_id", Type: "number", Required: true}},
		ConnectionID: "conn-1",
		IsActive:     true,
	}
	if err := store.SaveTemplate(context.Background(), tmpl); err != nil {
		t.Fatalf("SaveTemplate failed: %v", err)
	}

	if len(tmpl.Params) != 2 {
		t.Fatalf("got %d specs after save, want 2", len(tmpl.Params))
	}
	if tmpl.Params[1].Name != "status" || tmpl.Params[1].Type != "string" {
		t.Errorf("synthesized spec wrong: %+v", tmpl.Params[1])
	}
}
