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
	"io"
	"time"

	"github.com/gitbasheer/radmonitor-sub001/logger"
	"github.com/gitbasheer/radmonitor-sub001/validate"
)

// Option modifies the default behavior of a Compiler.
type Option func(*Compiler)

// WithLogger sets a custom logger. Any implementation of the
// logger.Logger interface works, so callers can route pipeline logs
// into their own logging backend.
//
// Example:
//
//	custom := logger.NewLogger(logger.DEBUG, os.Stderr)
//	c := radmonitor.New(radmonitor.WithLogger(custom))
func WithLogger(log logger.Logger) Option {
	return func(c *Compiler) {
		logger.SetDefault(log)
	}
}

// WithLogLevel sets the log level on the default logger.
//
// Example:
//
//	c := radmonitor.New(radmonitor.WithLogLevel(logger.OFF))
func WithLogLevel(level logger.Level) Option {
	return func(c *Compiler) {
		logger.GetDefault().SetLevel(level)
	}
}

// WithLogOutput sends pipeline logs to the given writer at the given
// level.
func WithLogOutput(output io.Writer, level logger.Level) Option {
	return func(c *Compiler) {
		logger.SetDefault(logger.NewLogger(level, output))
	}
}

// WithDiscardLog silences all pipeline logging. Useful in tests and
// benchmarks.
func WithDiscardLog() Option {
	return func(c *Compiler) {
		logger.SetDefault(logger.NewDiscardLogger())
	}
}

// WithFieldCatalog sets the field catalog used to resolve field
// references during validation. Without a catalog every field
// reference is rejected as unknown.
func WithFieldCatalog(catalog *validate.FieldCatalog) Option {
	return func(c *Compiler) {
		c.catalog = catalog
	}
}

// WithCacheCapacity bounds the compilation cache. Non-positive
// capacities fall back to the default.
func WithCacheCapacity(capacity int) Option {
	return func(c *Compiler) {
		c.cacheCapacity = capacity
	}
}

// WithMaxFormulaLength caps accepted formula length in bytes.
func WithMaxFormulaLength(max int) Option {
	return func(c *Compiler) {
		c.maxFormulaLength = max
	}
}

// WithMaxDepth caps AST nesting depth accepted by the validator.
func WithMaxDepth(max int) Option {
	return func(c *Compiler) {
		c.validateOpts.MaxDepth = max
	}
}

// WithMaxCalls caps the number of function calls in a single formula.
func WithMaxCalls(max int) Option {
	return func(c *Compiler) {
		c.validateOpts.MaxCalls = max
	}
}

// WithMaxFieldDepth sets the field path depth above which the
// validator emits a performance warning.
func WithMaxFieldDepth(max int) Option {
	return func(c *Compiler) {
		c.validateOpts.MaxFieldDepth = max
	}
}

// WithMaxLookback caps how far back a time shift may reach.
func WithMaxLookback(d time.Duration) Option {
	return func(c *Compiler) {
		c.compileOpts.MaxLookback = d
	}
}

// WithMaxQueryNodes caps the size of the generated aggregation tree.
func WithMaxQueryNodes(max int) Option {
	return func(c *Compiler) {
		c.compileOpts.MaxNodes = max
	}
}

// WithTimeField sets the document timestamp field used for range
// scoping, "@timestamp" by default.
func WithTimeField(field string) Option {
	return func(c *Compiler) {
		c.compileOpts.TimeField = field
	}
}

// WithInterval sets the date histogram bucket interval, "1h" by
// default.
func WithInterval(interval string) Option {
	return func(c *Compiler) {
		c.compileOpts.Interval = interval
	}
}
