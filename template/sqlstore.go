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
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/hkjang/jainsight-sub000/connectors/base"
	"github.com/hkjang/jainsight-sub000/shared/logger"
)

// SQLStore persists templates and connection descriptors in PostgreSQL and
// satisfies both TemplateStore and ConnectionStore.
type SQLStore struct {
	db  *sql.DB
	log *logger.Logger
}

// NewSQLStore connects to PostgreSQL, verifies connectivity and ensures the
// schema exists.
func NewSQLStore(connString string) (*SQLStore, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open template store: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping template store: %w", err)
	}

	s := &SQLStore{
		db:  db,
		log: logger.New("template_store"),
	}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize template store schema: %w", err)
	}
	return s, nil
}

func (s *SQLStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sql_templates (
		id                TEXT PRIMARY KEY,
		name              TEXT NOT NULL,
		sql_text          TEXT NOT NULL,
		params            JSONB NOT NULL DEFAULT '[]',
		connection_id     TEXT NOT NULL,
		api_key           TEXT NOT NULL DEFAULT '',
		cache_ttl_seconds INTEGER NOT NULL DEFAULT 0,
		is_active         BOOLEAN NOT NULL DEFAULT true,
		usage_count       BIGINT NOT NULL DEFAULT 0,
		last_used_at      TIMESTAMPTZ,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS db_connections (
		id            TEXT PRIMARY KEY,
		engine_type   TEXT NOT NULL,
		host          TEXT NOT NULL DEFAULT '',
		port          INTEGER NOT NULL DEFAULT 0,
		username      TEXT NOT NULL DEFAULT '',
		password      TEXT NOT NULL DEFAULT '',
		database_name TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_sql_templates_connection
		ON sql_templates(connection_id);`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// GetTemplate fetches a template by id.
func (s *SQLStore) GetTemplate(ctx context.Context, id string) (*SQLTemplate, error) {
	var tmpl SQLTemplate
	var paramsJSON []byte
	var lastUsed sql.NullTime

	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, sql_text, params, connection_id, api_key,
		       cache_ttl_seconds, is_active, usage_count, last_used_at
		FROM sql_templates
		WHERE id = $1`, id).Scan(
		&tmpl.ID, &tmpl.Name, &tmpl.SQL, &paramsJSON, &tmpl.ConnectionID,
		&tmpl.APIKey, &tmpl.CacheTTLSeconds, &tmpl.IsActive, &tmpl.UsageCount,
		&lastUsed)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: "template", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch template %s: %w", id, err)
	}

	if len(paramsJSON) > 0 {
		if err := json.Unmarshal(paramsJSON, &tmpl.Params); err != nil {
			return nil, fmt.Errorf("corrupt parameter specs for template %s: %w", id, err)
		}
	}
	if lastUsed.Valid {
		t := lastUsed.Time
		tmpl.LastUsedAt = &t
	}
	return &tmpl, nil
}

// SaveTemplate inserts or replaces a template. Parameter specs are
// synthesized from the SQL text for placeholders the caller did not declare.
func (s *SQLStore) SaveTemplate(ctx context.Context, tmpl *SQLTemplate) error {
	tmpl.Params = SynthesizeSpecs(tmpl.SQL, tmpl.Params)

	paramsJSON, err := json.Marshal(tmpl.Params)
	if err != nil {
		return fmt.Errorf("failed to encode parameter specs: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sql_templates
			(id, name, sql_text, params, connection_id, api_key,
			 cache_ttl_seconds, is_active, usage_count, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			sql_text = EXCLUDED.sql_text,
			params = EXCLUDED.params,
			connection_id = EXCLUDED.connection_id,
			api_key = EXCLUDED.api_key,
			cache_ttl_seconds = EXCLUDED.cache_ttl_seconds,
			is_active = EXCLUDED.is_active,
			updated_at = NOW()`,
		tmpl.ID, tmpl.Name, tmpl.SQL, paramsJSON, tmpl.ConnectionID,
		tmpl.APIKey, tmpl.CacheTTLSeconds, tmpl.IsActive, tmpl.UsageCount)
	if err != nil {
		return fmt.Errorf("failed to save template %s: %w", tmpl.ID, err)
	}
	return nil
}

// RecordUsage increments the usage counter and stamps last_used_at.
func (s *SQLStore) RecordUsage(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sql_templates
		SET usage_count = usage_count + 1, last_used_at = NOW()
		WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to record usage for template %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &NotFoundError{Kind: "template", ID: id}
	}
	return nil
}

// GetDescriptor fetches the decrypted descriptor for a connection id.
func (s *SQLStore) GetDescriptor(ctx context.Context, id string) (base.Descriptor, error) {
	var desc base.Descriptor
	err := s.db.QueryRowContext(ctx, `
		SELECT engine_type, host, port, username, password, database_name
		FROM db_connections
		WHERE id = $1`, id).Scan(
		&desc.EngineType, &desc.Host, &desc.Port, &desc.Username,
		&desc.Password, &desc.Database)
	if err == sql.ErrNoRows {
		return base.Descriptor{}, &NotFoundError{Kind: "connection", ID: id}
	}
	if err != nil {
		return base.Descriptor{}, fmt.Errorf("failed to fetch connection %s: %w", id, err)
	}
	return desc, nil
}

// SaveConnection inserts or replaces a connection descriptor.
func (s *SQLStore) SaveConnection(ctx context.Context, id string, desc base.Descriptor) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO db_connections
			(id, engine_type, host, port, username, password, database_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			engine_type = EXCLUDED.engine_type,
			host = EXCLUDED.host,
			port = EXCLUDED.port,
			username = EXCLUDED.username,
			password = EXCLUDED.password,
			database_name = EXCLUDED.database_name`,
		id, desc.EngineType, desc.Host, desc.Port, desc.Username,
		desc.Password, desc.Database)
	if err != nil {
		return fmt.Errorf("failed to save connection %s: %w", id, err)
	}
	return nil
}

// Close releases the underlying pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
