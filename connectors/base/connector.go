// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package base

import (
	"context"
	"time"
)

// Engine type discriminators. MariaDB shares the MySQL wire protocol and
// driver; "mssql" is accepted as an alias for "sqlserver".
const (
	EngineMySQL     = "mysql"
	EngineMariaDB   = "mariadb"
	EnginePostgres  = "postgres"
	EngineSQLServer = "sqlserver"
	EngineMSSQL     = "mssql"
	EngineSQLite    = "sqlite"
)

// NormalizeEngine collapses engine aliases onto their canonical type.
// Unknown values are returned unchanged so callers can report them.
func NormalizeEngine(engine string) string {
	switch engine {
	case EngineMariaDB:
		return EngineMySQL
	case EngineMSSQL:
		return EngineSQLServer
	default:
		return engine
	}
}

// Descriptor holds the decrypted connection parameters for one database
// instance. It is a value type owned by the caller for the duration of a
// single operation and is never persisted by this subsystem. For SQLite,
// Database carries the file path and the remaining fields are ignored.
type Descriptor struct {
	EngineType string `json:"engine_type"`
	Host       string `json:"host"`
	Port       int    `json:"port"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	Database   string `json:"database"`
}

// Driver is the four-operation contract every engine adapter implements.
// One concrete implementation exists per engine, selected by the facade via
// a type-keyed map rather than per-operation switches.
type Driver interface {
	// TestConnection opens a short-lived, throwaway connection, issues a
	// trivial liveness probe and closes it regardless of outcome. It never
	// returns an error; failures are reported through the TestResult.
	TestConnection(ctx context.Context, desc Descriptor) *TestResult

	// ExecuteQuery runs a statement through the pooled handle for desc.
	// Placeholders in the statement use the driver-neutral `?` form; each
	// adapter translates to its engine's native binding syntax.
	ExecuteQuery(ctx context.Context, desc Descriptor, statement string, args ...interface{}) (*QueryResult, error)

	// ListTables returns the base tables and views of the descriptor's
	// database, in the engine catalog's order.
	ListTables(ctx context.Context, desc Descriptor) ([]TableInfo, error)

	// ListColumns returns column metadata for one table, ordered by the
	// engine's native column ordinal.
	ListColumns(ctx context.Context, desc Descriptor, table string) ([]ColumnInfo, error)

	// Type returns the canonical engine type this driver serves.
	Type() string
}

// TestResult reports the outcome of a connectivity test. Connectivity
// failures are data, not errors.
type TestResult struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Latency time.Duration `json:"latency"`
}

// QueryResult is the uniform output of every execute operation regardless of
// engine. Rows preserve engine-returned order. For write statements Rows and
// Fields are empty and RowCount carries the affected-row count, coerced to 0
// when the engine reports none.
type QueryResult struct {
	Rows     []map[string]interface{} `json:"rows"`
	Fields   []string                 `json:"fields"`
	RowCount int                      `json:"row_count"`
}

// Table kinds reported by ListTables.
const (
	KindTable = "TABLE"
	KindView  = "VIEW"
)

// TableInfo describes one table or view from an engine catalog.
type TableInfo struct {
	Name   string `json:"name"`
	Schema string `json:"schema,omitempty"`
	Kind   string `json:"kind"`
}

// ColumnInfo describes one column from an engine catalog. Comment carries
// engine-native column documentation where the engine supports it and is
// empty otherwise.
type ColumnInfo struct {
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	Nullable     bool    `json:"nullable"`
	PrimaryKey   bool    `json:"primary_key"`
	DefaultValue *string `json:"default_value,omitempty"`
	Comment      string  `json:"comment,omitempty"`
}

// ConnectorError represents errors raised by engine adapters and the facade.
type ConnectorError struct {
	Engine    string
	Operation string
	Message   string
	Cause     error
}

func (e *ConnectorError) Error() string {
	if e.Cause != nil {
		return e.Engine + "." + e.Operation + ": " + e.Message + " (cause: " + e.Cause.Error() + ")"
	}
	return e.Engine + "." + e.Operation + ": " + e.Message
}

func (e *ConnectorError) Unwrap() error {
	return e.Cause
}

// NewConnectorError creates a new ConnectorError.
func NewConnectorError(engine, operation, message string, cause error) *ConnectorError {
	return &ConnectorError{
		Engine:    engine,
		Operation: operation,
		Message:   message,
		Cause:     cause,
	}
}
