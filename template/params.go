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
	"strconv"
	"strings"
)

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// BindParameters rewrites every `:name` placeholder into the driver-neutral
// `?` form and collects the bound values in occurrence order. A `::` pair is
// passed through untouched so PostgreSQL casts survive. Names referenced in
// the text but absent from params bind as nil.
func BindParameters(sqlText string, params map[string]interface{}) (string, []interface{}) {
	var b strings.Builder
	values := make([]interface{}, 0)

	for i := 0; i < len(sqlText); {
		c := sqlText[i]
		if c == ':' {
			if i+1 < len(sqlText) && sqlText[i+1] == ':' {
				b.WriteString("::")
				i += 2
				continue
			}
			if i+1 < len(sqlText) && isIdentStart(sqlText[i+1]) {
				j := i + 1
				for j < len(sqlText) && isIdentChar(sqlText[j]) {
					j++
				}
				name := sqlText[i+1 : j]
				b.WriteByte('?')
				values = append(values, params[name])
				i = j
				continue
			}
		}
		b.WriteByte(c)
		i++
	}
	return b.String(), values
}

// DiscoverParams scans SQL text for `:identifier` tokens and returns the
// names deduplicated in first-seen order. Used when a template is created or
// its text edited to synthesize parameter specs.
func DiscoverParams(sqlText string) []string {
	seen := make(map[string]struct{})
	names := make([]string, 0)

	for i := 0; i < len(sqlText); {
		c := sqlText[i]
		if c == ':' {
			if i+1 < len(sqlText) && sqlText[i+1] == ':' {
				i += 2
				continue
			}
			if i+1 < len(sqlText) && isIdentStart(sqlText[i+1]) {
				j := i + 1
				for j < len(sqlText) && isIdentChar(sqlText[j]) {
					j++
				}
				name := sqlText[i+1 : j]
				if _, ok := seen[name]; !ok {
					seen[name] = struct{}{}
					names = append(names, name)
				}
				i = j
				continue
			}
		}
		i++
	}
	return names
}

// SynthesizeSpecs merges auto-discovered placeholder names into declared
// parameter specs. Declared specs are kept as-is; every discovered name
// without a declaration gets a required string spec appended in first-seen
// order.
func SynthesizeSpecs(sqlText string, declared []ParamSpec) []ParamSpec {
	byName := make(map[string]struct{}, len(declared))
	for _, p := range declared {
		byName[p.Name] = struct{}{}
	}

	specs := append([]ParamSpec(nil), declared...)
	for _, name := range DiscoverParams(sqlText) {
		if _, ok := byName[name]; ok {
			continue
		}
		specs = append(specs, ParamSpec{Name: name, Type: "string", Required: true})
	}
	return specs
}

// numericTypes lists the spec type strings validated as numeric.
var numericTypes = map[string]struct{}{
	"number": {}, "int": {}, "integer": {}, "float": {}, "numeric": {},
}

func isNumericType(t string) bool {
	_, ok := numericTypes[strings.ToLower(t)]
	return ok
}

// isNumericValue accepts native numeric types, json.Number and numeric
// strings.
func isNumericValue(v interface{}) bool {
	switch n := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	case json.Number:
		_, err := n.Float64()
		return err == nil
	case string:
		_, err := strconv.ParseFloat(n, 64)
		return err == nil
	default:
		return false
	}
}
