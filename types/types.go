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

// Package types defines the wire-level types shared by the formula
// compilation pipeline: the compilation context supplied by callers,
// the diagnostics returned by every stage, and the request/response
// envelope consumed by server collaborators.
package types

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
)

// TimeRange is the query time window, expressed in the store's native
// date-math syntax (absolute timestamps or expressions like "now-24h").
type TimeRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// CompilationContext carries everything beyond the formula text that
// influences the compiled query. Two compilations with equal formula
// text and equal contexts must produce identical output.
type CompilationContext struct {
	IndexPattern        string    `json:"indexPattern"`
	TimeRange           TimeRange `json:"timeRange"`
	FieldCatalogVersion string    `json:"fieldCatalogVersion"`
}

// Fingerprint returns a stable hash of the context, used as part of
// the compilation cache key.
func (c CompilationContext) Fingerprint() string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s", c.IndexPattern, c.TimeRange.From, c.TimeRange.To, c.FieldCatalogVersion)
	return fmt.Sprintf("%016x", h.Sum64())
}

// Severity classifies a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Position is a 1-based source location inside the formula text.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Diagnostic is a single problem (or advisory) reported by any stage
// of the pipeline. Position is nil when no source location applies,
// for example for whole-formula checks.
type Diagnostic struct {
	Code     string    `json:"code"`
	Message  string    `json:"message"`
	Position *Position `json:"position"`
	Severity Severity  `json:"severity"`
}

func (d Diagnostic) String() string {
	if d.Position != nil {
		return fmt.Sprintf("[%s] %s at line %d, column %d", d.Code, d.Message, d.Position.Line, d.Position.Column)
	}
	return fmt.Sprintf("[%s] %s", d.Code, d.Message)
}

// CompileRequest is the envelope consumed from the UI/server
// collaborator.
type CompileRequest struct {
	Formula string             `json:"formula"`
	Context CompilationContext `json:"context"`
}

// CompileResponse is the envelope returned to the caller. On success
// Valid is true and CompiledQuery holds the aggregation-query
// document; on failure Errors is non-empty and CompiledQuery is nil.
// Warnings may accompany either outcome.
type CompileResponse struct {
	Valid         bool            `json:"valid"`
	CompiledQuery json.RawMessage `json:"compiledQuery,omitempty"`
	Errors        []Diagnostic    `json:"errors,omitempty"`
	Warnings      []Diagnostic    `json:"warnings,omitempty"`
}
