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

package base

import (
	"database/sql"
	"fmt"
	"strings"
)

// readPrefixes classify a statement as row-returning. Everything else is
// executed as a write and reported through the affected-row count.
var readPrefixes = []string{"SELECT", "PRAGMA", "WITH", "SHOW", "DESCRIBE", "DESC", "EXPLAIN"}

// IsReadStatement reports whether the statement returns rows.
func IsReadStatement(statement string) bool {
	trimmed := strings.ToUpper(strings.TrimSpace(statement))
	for _, prefix := range readPrefixes {
		if strings.HasPrefix(trimmed, prefix+" ") || trimmed == prefix ||
			strings.HasPrefix(trimmed, prefix+"\n") || strings.HasPrefix(trimmed, prefix+"\t") ||
			strings.HasPrefix(trimmed, prefix+"(") {
			return true
		}
	}
	return false
}

// ScanRows drains a database/sql result set into the uniform QueryResult
// shape. Row order is preserved; field order follows the result set's column
// order. Row keys are the plain column names as reported by the driver.
func ScanRows(rows *sql.Rows) (*QueryResult, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get column types: %w", err)
	}

	results := make([]map[string]interface{}, 0)
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = convertValue(values[i], columnTypes[i])
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}

	return &QueryResult{
		Rows:     results,
		Fields:   columns,
		RowCount: len(results),
	}, nil
}

// WriteResult builds the uniform result for a write statement. A missing
// native row-count signal is coerced to 0.
func WriteResult(res sql.Result) *QueryResult {
	var affected int64
	if res != nil {
		if n, err := res.RowsAffected(); err == nil {
			affected = n
		}
	}
	return &QueryResult{
		Rows:     []map[string]interface{}{},
		Fields:   []string{},
		RowCount: int(affected),
	}
}

// convertValue converts driver values to plain Go types. Text and decimal
// columns arrive as []byte from several drivers and become strings; decimals
// stay strings to preserve precision.
func convertValue(val interface{}, colType *sql.ColumnType) interface{} {
	if val == nil {
		return nil
	}

	b, ok := val.([]byte)
	if !ok {
		return val
	}

	typeName := ""
	if colType != nil {
		typeName = strings.ToUpper(colType.DatabaseTypeName())
	}
	switch {
	case strings.Contains(typeName, "BLOB"),
		strings.Contains(typeName, "BINARY"),
		typeName == "BYTEA",
		typeName == "IMAGE":
		return b
	default:
		return string(b)
	}
}
