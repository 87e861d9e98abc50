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
	"encoding/json"
	"reflect"
	"testing"
)

func TestBindParameters(t *testing.T) {
	statement, values := BindParameters(
		"SELECT * FROM t WHERE id = :id", map[string]interface{}{"id": 7})

	if statement != "SELECT * FROM t WHERE id = ?" {
		t.Errorf("statement = %q, want placeholder rewrite", statement)
	}
	if !reflect.DeepEqual(values, []interface{}{7}) {
		t.Errorf("values = %v, want [7]", values)
	}
}

func TestBindParametersOccurrenceOrder(t *testing.T) {
	statement, values := BindParameters(
		"SELECT * FROM t WHERE a = :x AND b = :y AND c = :x",
		map[string]interface{}{"x": 1, "y": 2})

	if statement != "SELECT * FROM t WHERE a = ? AND b = ? AND c = ?" {
		t.Errorf("statement = %q", statement)
	}
	if !reflect.DeepEqual(values, []interface{}{1, 2, 1}) {
		t.Errorf("values = %v, want [1 2 1]", values)
	}
}

func TestBindParametersKeepsCasts(t *testing.T) {
	statement, values := BindParameters(
		"SELECT created_at::date FROM t WHERE id = :id",
		map[string]interface{}{"id": 5})

	if statement != "SELECT created_at::date FROM t WHERE id = ?" {
		t.Errorf("cast was mangled: %q", statement)
	}
	if len(values) != 1 {
		t.Errorf("values = %v, want one binding", values)
	}
}

func TestBindParametersUnreferencedDropped(t *testing.T) {
	statement, values := BindParameters(
		"SELECT * FROM t WHERE id = :id",
		map[string]interface{}{"id": 1, "extra": "ignored"})

	if statement != "SELECT * FROM t WHERE id = ?" {
		t.Errorf("statement = %q", statement)
	}
	if len(values) != 1 {
		t.Errorf("unreferenced parameter leaked into bindings: %v", values)
	}
}

func TestDiscoverParams(t *testing.T) {
	names := DiscoverParams(
		"SELECT * FROM t WHERE a = :first AND b = :second AND c = :first AND d = CAST(:second AS int)")

	if !reflect.DeepEqual(names, []string{"first", "second"}) {
		t.Errorf("names = %v, want [first second] in first-seen order", names)
	}
}

func TestDiscoverParamsSkipsCasts(t *testing.T) {
	names := DiscoverParams("SELECT created_at::date FROM t")
	if len(names) != 0 {
		t.Errorf("cast target discovered as parameter: %v", names)
	}
}

func TestSynthesizeSpecs(t *testing.T) {
	declared := []ParamSpec{{Name: "id", Type: "number", Required: true}}
	specs := SynthesizeSpecs("SELECT * FROM t WHERE id = :id AND name = :name", declared)

	if len(specs) != 2 {
		t.Fatalf("got %d specs, want 2", len(specs))
	}
	if specs[0].Type != "number" {
		t.Error("declared spec must not be overwritten")
	}
	if specs[1].Name != "name" || specs[1].Type != "string" || !specs[1].Required {
		t.Errorf("synthesized spec wrong: %+v", specs[1])
	}
}

func TestIsNumericValue(t *testing.T) {
	numeric := []interface{}{1, int64(2), 3.5, json.Number("42"), "17", "3.14"}
	for _, v := range numeric {
		if !isNumericValue(v) {
			t.Errorf("isNumericValue(%v) = false, want true", v)
		}
	}

	nonNumeric := []interface{}{"abc", "", true, nil, []int{1}}
	for _, v := range nonNumeric {
		if isNumericValue(v) {
			t.Errorf("isNumericValue(%v) = true, want false", v)
		}
	}
}
