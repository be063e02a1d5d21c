// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package presentation

import (
	"sync"

	"github.com/specialistvlad/toscago/internal/issue"
)

type cacheKey struct {
	p   *Presentation
	key string
}

// Cycle is the context of one parse-and-build run. It owns the computed-once
// field cache and the issue sink. A new Cycle must be created for every run;
// caches are never shared between runs.
type Cycle struct {
	reporter issue.Reporter

	mu    sync.Mutex
	cache map[cacheKey]any
}

// NewCycle returns a cycle reporting into r.
func NewCycle(r issue.Reporter) *Cycle {
	if r == nil {
		r = issue.Discard
	}
	return &Cycle{reporter: r, cache: make(map[cacheKey]any)}
}

// Report forwards an issue to the cycle's sink.
func (c *Cycle) Report(i issue.Issue) {
	c.reporter.Report(i)
}

// Reportf reports a formatted issue.
func (c *Cycle) Reportf(severity issue.Severity, kind issue.Kind, pos *issue.Position, format string, args ...any) {
	c.reporter.Report(issue.New(severity, kind, pos, format, args...))
}

// Reporter returns the sink of the cycle.
func (c *Cycle) Reporter() issue.Reporter {
	return c.reporter
}

// Memo caches a derived value of p under key, next to its field values.
// Keys must not collide with field names; by convention they start with '#'.
func (c *Cycle) Memo(p *Presentation, key string, compute func() any) any {
	if v, ok := c.lookup(p, key); ok {
		return v
	}
	return c.store(p, key, compute())
}

func (c *Cycle) lookup(p *Presentation, key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.cache[cacheKey{p, key}]
	return v, ok
}

// store records v unless another reader got there first, and returns the
// value that is now cached.
func (c *Cycle) store(p *Presentation, key string, v any) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := cacheKey{p, key}
	if existing, ok := c.cache[k]; ok {
		return existing
	}
	c.cache[k] = v
	return v
}
