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

package radmonitor

import (
	"github.com/gitbasheer/radmonitor-sub001/cache"
	"github.com/gitbasheer/radmonitor-sub001/compile"
	"github.com/gitbasheer/radmonitor-sub001/formula"
	"github.com/gitbasheer/radmonitor-sub001/functions"
	"github.com/gitbasheer/radmonitor-sub001/logger"
	"github.com/gitbasheer/radmonitor-sub001/types"
	"github.com/gitbasheer/radmonitor-sub001/validate"
)

// Compiler is the main interface of the formula compilation pipeline.
// It wires the lexer, parser, validator and query compiler behind a
// bounded LRU cache.
//
// Usage:
//
//	c := radmonitor.New(radmonitor.WithFieldCatalog(catalog))
//	resp := c.Compile(types.CompileRequest{
//	    Formula: "count() / count(shift='1d')",
//	    Context: ctx,
//	})
//
// The pipeline itself is purely functional; Compile is safe for
// concurrent use from any goroutine, and concurrent compilation of
// the same formula and context converges on a single run.
type Compiler struct {
	maxFormulaLength int
	cacheCapacity    int
	validateOpts     validate.Options
	compileOpts      compile.Options
	catalog          *validate.FieldCatalog

	validator *validate.Validator
	backend   *compile.Compiler
	cache     *cache.Cache
}

// New creates a Compiler, applying any functional options over the
// defaults.
func New(options ...Option) *Compiler {
	c := &Compiler{
		maxFormulaLength: formula.MaxFormulaLength,
		cacheCapacity:    cache.DefaultCapacity,
		validateOpts:     validate.DefaultOptions(),
		compileOpts:      compile.DefaultOptions(),
	}
	for _, option := range options {
		option(c)
	}
	c.validator = validate.New(c.validateOpts)
	c.backend = compile.New(c.compileOpts)
	c.cache = cache.New(c.cacheCapacity)
	return c
}

// Compile runs the full pipeline for the request, memoized by the
// compilation cache. Failed compilations are cached exactly like
// successes, so re-submitting a known-bad formula costs one lookup.
func (c *Compiler) Compile(req types.CompileRequest) types.CompileResponse {
	return c.cache.GetOrCompile(req.Formula, req.Context, func() types.CompileResponse {
		return c.compileOnce(req)
	})
}

// Check runs everything short of query lowering: the denylist pass,
// lexer, parser and validator. Editors revalidating on every keystroke
// use this to surface diagnostics without paying for compilation.
func (c *Compiler) Check(formulaText string) types.CompileResponse {
	resp, _ := c.analyze(formulaText)
	return resp
}

// compileOnce runs the uncached pipeline.
func (c *Compiler) compileOnce(req types.CompileRequest) types.CompileResponse {
	resp, ast := c.analyze(req.Formula)
	if !resp.Valid {
		return resp
	}

	query, compileErrs := c.backend.Compile(ast, req.Context)
	if len(compileErrs) > 0 {
		logger.Debug("formula failed compilation with %d errors", len(compileErrs))
		resp.Valid = false
		for _, err := range compileErrs {
			resp.Errors = append(resp.Errors, err.Diagnostic())
		}
		return resp
	}

	dsl, err := query.MarshalDSL()
	if err != nil {
		// Descriptor trees hold only JSON-safe values; failing to
		// marshal one is a bug in this core, not a user error.
		logger.Error("compiled query failed to marshal: %v", err)
		resp.Valid = false
		resp.Errors = append(resp.Errors, types.Diagnostic{
			Code:     "InternalError",
			Message:  "compiled query could not be serialized",
			Severity: types.SeverityError,
		})
		return resp
	}

	resp.CompiledQuery = dsl
	return resp
}

// analyze runs denylist, lexer, parser and validator, returning the
// response so far and the AST when analysis succeeded.
func (c *Compiler) analyze(formulaText string) (types.CompileResponse, formula.Node) {
	resp := types.CompileResponse{Valid: true}

	// The denylist pass sees the raw text before any parsing; inputs
	// that do not even lex can still be rejected here.
	if sourceResult := c.validator.ValidateSource(formulaText); !sourceResult.Valid {
		resp.Valid = false
		resp.Errors = sourceResult.Errors
		return resp, nil
	}

	tokens, lexErr := formula.NewLexerWithLimit(formulaText, c.maxFormulaLength).Tokenize()
	if lexErr != nil {
		resp.Valid = false
		resp.Errors = append(resp.Errors, types.Diagnostic{
			Code:     lexErr.Code(),
			Message:  lexErr.Message,
			Position: &types.Position{Line: lexErr.Pos.Line, Column: lexErr.Pos.Column},
			Severity: types.SeverityError,
		})
		return resp, nil
	}

	ast, parseErrs := formula.Parse(tokens)
	if len(parseErrs) > 0 {
		resp.Valid = false
		for _, err := range parseErrs {
			resp.Errors = append(resp.Errors, types.Diagnostic{
				Code:     err.Code(),
				Message:  err.Message,
				Position: &types.Position{Line: err.Pos.Line, Column: err.Pos.Column},
				Severity: types.SeverityError,
			})
		}
		return resp, nil
	}

	result := c.validator.Validate(ast, c.catalog)
	resp.Warnings = result.Warnings
	if !result.Valid {
		resp.Valid = false
		resp.Errors = result.Errors
		return resp, nil
	}

	return resp, ast
}

// Functions exports the function catalog for editor autocomplete and
// documentation collaborators.
func (c *Compiler) Functions() []functions.CatalogEntry {
	return functions.Export()
}

// CacheStats returns a snapshot of the compilation cache counters.
func (c *Compiler) CacheStats() cache.Stats {
	return c.cache.Stats()
}

// Compilations returns how many times the query compiler has actually
// run, cache hits excluded.
func (c *Compiler) Compilations() int64 {
	return c.backend.Invocations()
}
