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

// Package cache provides a bounded, thread-safe LRU cache for
// compilation outcomes.
//
// The cache memoizes the whole pipeline (lex, parse, validate,
// compile) keyed by whitespace-normalized formula text plus a
// fingerprint of the compilation context. Failed compilations are
// cached exactly like successes: re-attempting a known-bad formula on
// every keystroke is wasted work. Concurrent misses on the same key
// converge on a single compilation; losers reuse the winner's result.
package cache

import (
	"container/list"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/gitbasheer/radmonitor-sub001/types"
)

// DefaultCapacity is the entry limit used when none is configured.
const DefaultCapacity = 1000

// entry is a cache entry stored in the doubly-linked list.
type entry struct {
	key    string
	result types.CompileResponse
}

// Stats are cumulative cache counters, readable at any time.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
}

// Cache is a thread-safe LRU cache of compilation outcomes. Once the
// capacity is reached, the least recently accessed entry is evicted.
// Entries are never partially updated; a result is always replaced
// wholesale.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element
	stats    Stats
	group    singleflight.Group
}

// New creates an LRU cache with the given capacity. A capacity <= 0
// falls back to DefaultCapacity.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// Key derives the cache key from the formula text and the compilation
// context. Formulas differing only in whitespace share a key.
func Key(formula string, ctx types.CompilationContext) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s\x00%s", normalizeWhitespace(formula), ctx.Fingerprint())
	return fmt.Sprintf("%016x", h.Sum64())
}

// normalizeWhitespace collapses runs of whitespace into single spaces
// and trims the ends.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// GetOrCompile returns the cached outcome for the formula and context,
// or runs compile once to produce, store and return it. Under
// concurrent calls with the same key, compile runs at most once; the
// losers receive the winner's result.
func (c *Cache) GetOrCompile(formula string, ctx types.CompilationContext, compile func() types.CompileResponse) types.CompileResponse {
	key := Key(formula, ctx)

	out, _, _ := c.group.Do(key, func() (interface{}, error) {
		if result, ok := c.get(key); ok {
			return result, nil
		}
		result := compile()
		c.put(key, result)
		return result, nil
	})
	return out.(types.CompileResponse)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Len returns the number of entries currently cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Capacity returns the maximum number of entries the cache can hold.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[string]*list.Element, c.capacity)
}

// get retrieves an entry and promotes it to most recently used.
func (c *Cache) get(key string) (types.CompileResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return types.CompileResponse{}, false
	}
	c.ll.MoveToFront(el)
	c.stats.Hits++
	return el.Value.(*entry).result, true
}

// put inserts or replaces an entry, evicting the least recently used
// entry when over capacity.
func (c *Cache) put(key string, result types.CompileResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*entry).result = result
		c.ll.MoveToFront(el)
		return
	}

	if c.ll.Len() >= c.capacity {
		back := c.ll.Back()
		if back != nil {
			c.ll.Remove(back)
			delete(c.items, back.Value.(*entry).key)
			c.stats.Evictions++
		}
	}

	el := c.ll.PushFront(&entry{key: key, result: result})
	c.items[key] = el
}
