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
	"regexp"
	"strings"
	"unicode"
)

// PostgreSQL folds unquoted identifiers to lowercase, so schemas created with
// mixed-case table or column names become unreachable without quoting. The
// quoter wraps bare mixed-case tokens in double quotes before execution.
//
// This is a lexical heuristic, not a SQL parser: it operates on token
// boundaries and can misfire on mixed-case words inside string literals. Any
// statement that already contains a double quote is returned unchanged, which
// also makes the rewrite idempotent.

var tokenRegex = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

var sqlKeywords = map[string]struct{}{
	"SELECT": {}, "FROM": {}, "WHERE": {}, "AND": {}, "OR": {}, "NOT": {},
	"INSERT": {}, "INTO": {}, "VALUES": {}, "UPDATE": {}, "SET": {},
	"DELETE": {}, "CREATE": {}, "DROP": {}, "ALTER": {}, "TABLE": {},
	"INDEX": {}, "VIEW": {}, "JOIN": {}, "INNER": {}, "LEFT": {}, "RIGHT": {},
	"FULL": {}, "OUTER": {}, "CROSS": {}, "ON": {}, "AS": {}, "IN": {},
	"IS": {}, "NULL": {}, "LIKE": {}, "ILIKE": {}, "BETWEEN": {}, "EXISTS": {},
	"ORDER": {}, "GROUP": {}, "BY": {}, "HAVING": {}, "LIMIT": {},
	"OFFSET": {}, "UNION": {}, "ALL": {}, "DISTINCT": {}, "CASE": {},
	"WHEN": {}, "THEN": {}, "ELSE": {}, "END": {}, "CAST": {}, "COALESCE": {},
	"COUNT": {}, "SUM": {}, "AVG": {}, "MIN": {}, "MAX": {}, "TRUE": {},
	"FALSE": {}, "ASC": {}, "DESC": {}, "WITH": {}, "RETURNING": {},
	"PRIMARY": {}, "KEY": {}, "FOREIGN": {}, "REFERENCES": {}, "DEFAULT": {},
	"CONSTRAINT": {}, "UNIQUE": {}, "CHECK": {}, "USING": {}, "NATURAL": {},
}

// hasMixedCase reports whether a token contains both an uppercase and a
// lowercase letter.
func hasMixedCase(token string) bool {
	var upper, lower bool
	for _, r := range token {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		}
		if upper && lower {
			return true
		}
	}
	return false
}

// QuoteIdentifiers wraps every bare mixed-case identifier in double quotes.
// Statements that already contain a double quote are returned unchanged to
// avoid double-quoting hand-written queries.
func QuoteIdentifiers(statement string) string {
	if strings.Contains(statement, `"`) {
		return statement
	}

	return tokenRegex.ReplaceAllStringFunc(statement, func(token string) string {
		if len(token) < 2 {
			return token
		}
		if _, ok := sqlKeywords[strings.ToUpper(token)]; ok {
			return token
		}
		if !hasMixedCase(token) {
			return token
		}
		return `"` + token + `"`
	})
}
