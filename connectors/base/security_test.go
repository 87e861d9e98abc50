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
	"strings"
	"testing"
)

func TestValidateIdentifier(t *testing.T) {
	valid := []string{"users", "user_accounts", "_internal", "Table1"}
	for _, id := range valid {
		if err := ValidateIdentifier(id); err != nil {
			t.Errorf("ValidateIdentifier(%q) = %v, want nil", id, err)
		}
	}

	invalid := []string{"", "1table", "users; DROP TABLE users", "a-b", "a.b", `a"b`}
	for _, id := range invalid {
		if err := ValidateIdentifier(id); err == nil {
			t.Errorf("ValidateIdentifier(%q) = nil, want error", id)
		}
	}
}

func TestSanitizeIdentifier(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"users", "users"},
		{"users; DROP TABLE x", "usersDROPTABLEx"},
		{`t")--`, "t"},
		{"a.b.c", "abc"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SanitizeIdentifier(tt.in); got != tt.want {
			t.Errorf("SanitizeIdentifier(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeLogString(t *testing.T) {
	if got := SanitizeLogString("line1\nline2\r"); got != `line1\nline2\r` {
		t.Errorf("newlines not escaped: %q", got)
	}

	long := strings.Repeat("x", 600)
	got := SanitizeLogString(long)
	if !strings.HasSuffix(got, "...[truncated]") {
		t.Errorf("long string not truncated: %d chars", len(got))
	}
}
