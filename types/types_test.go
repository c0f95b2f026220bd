/*
 * Copyright 2025 The RadMonitor Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprintStability(t *testing.T) {
	ctx := CompilationContext{
		IndexPattern:        "traffic-*",
		TimeRange:           TimeRange{From: "now-24h", To: "now"},
		FieldCatalogVersion: "v1",
	}
	assert.Equal(t, ctx.Fingerprint(), ctx.Fingerprint())

	other := ctx
	other.FieldCatalogVersion = "v2"
	assert.NotEqual(t, ctx.Fingerprint(), other.Fingerprint())

	shifted := ctx
	shifted.TimeRange.From = "now-7d"
	assert.NotEqual(t, ctx.Fingerprint(), shifted.Fingerprint())
}

func TestDiagnosticString(t *testing.T) {
	withPos := Diagnostic{
		Code:     "UnknownField",
		Message:  "unknown field 'bytes'",
		Position: &Position{Line: 1, Column: 5},
		Severity: SeverityError,
	}
	assert.Equal(t, "[UnknownField] unknown field 'bytes' at line 1, column 5", withPos.String())

	withoutPos := Diagnostic{Code: "TooLong", Message: "formula too long"}
	assert.Equal(t, "[TooLong] formula too long", withoutPos.String())
}
