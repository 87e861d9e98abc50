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
	"fmt"
	"regexp"
	"strings"
)

var identifierRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

var nonIdentifierChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// ValidateIdentifier checks that a string is safe to use as a SQL identifier
// (table or column name) before it reaches a catalog query.
func ValidateIdentifier(identifier string) error {
	if identifier == "" {
		return fmt.Errorf("identifier cannot be empty")
	}
	if !identifierRegex.MatchString(identifier) {
		return fmt.Errorf("invalid SQL identifier: %q", identifier)
	}
	return nil
}

// SanitizeIdentifier strips every character outside [A-Za-z0-9_]. Used where
// an engine's introspection command cannot be parameterized and the name must
// be interpolated into the statement text.
func SanitizeIdentifier(identifier string) string {
	return nonIdentifierChars.ReplaceAllString(identifier, "")
}

// SanitizeLogString removes control characters that could be used for log
// injection and bounds the length of logged statement text.
func SanitizeLogString(s string) string {
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	const maxLogLength = 500
	if len(s) > maxLogLength {
		s = s[:maxLogLength] + "...[truncated]"
	}
	return s
}
