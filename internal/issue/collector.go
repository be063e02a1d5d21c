// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package issue

import (
	"io"
	"sync"

	"github.com/hashicorp/hcl/v2"
)

// Reporter is anything that accepts issues. Stages depend on this rather than
// on the concrete Collector so that speculative work (node filter probing)
// can swap in a Discard reporter.
type Reporter interface {
	Report(i Issue)
}

type discard struct{}

func (discard) Report(Issue) {}

// Discard drops every issue reported to it.
var Discard Reporter = discard{}

// Collector is an append-only, insertion-ordered issue sequence. It is safe
// for concurrent use; the import workers report into it in parallel.
type Collector struct {
	mu     sync.Mutex
	issues []Issue
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Report appends an issue.
func (c *Collector) Report(i Issue) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issues = append(c.issues, i)
}

// Reportf appends an issue built from a format string.
func (c *Collector) Reportf(severity Severity, kind Kind, pos *Position, format string, args ...any) {
	c.Report(New(severity, kind, pos, format, args...))
}

// Issues returns a snapshot copy of the collected issues in insertion order.
func (c *Collector) Issues() []Issue {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Issue, len(c.issues))
	copy(out, c.issues)
	return out
}

// Len returns the number of collected issues.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.issues)
}

// HasFatal reports whether any collected issue invalidates the plan.
func (c *Collector) HasFatal() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, i := range c.issues {
		if i.Fatal() {
			return true
		}
	}
	return false
}

// Count returns how many issues of the given kind were collected.
func (c *Collector) Count(kind Kind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, i := range c.issues {
		if i.Kind == kind {
			n++
		}
	}
	return n
}

// Diagnostics converts the collected issues to HCL diagnostics so they can be
// rendered by HCL's diagnostic writer.
func (c *Collector) Diagnostics() hcl.Diagnostics {
	return ToDiagnostics(c.Issues())
}

// ToDiagnostics converts issues to HCL diagnostics. Info and Warning map to
// hcl.DiagWarning, everything else to hcl.DiagError.
func ToDiagnostics(issues []Issue) hcl.Diagnostics {
	diags := make(hcl.Diagnostics, 0, len(issues))
	for _, i := range issues {
		severity := hcl.DiagError
		if !i.Fatal() {
			severity = hcl.DiagWarning
		}
		detail := i.Message
		if i.Cause != nil {
			detail += ": " + i.Cause.Error()
		}
		diag := &hcl.Diagnostic{
			Severity: severity,
			Summary:  i.Kind.String(),
			Detail:   detail,
		}
		if i.Position != nil && !i.Position.IsZero() {
			pos := hcl.Pos{Line: i.Position.Line, Column: i.Position.Column}
			diag.Subject = &hcl.Range{Filename: i.Position.Location, Start: pos, End: pos}
		}
		diags = append(diags, diag)
	}
	return diags
}

// Write renders issues in HCL's human-readable diagnostic format.
func Write(w io.Writer, issues []Issue, width uint, color bool) error {
	writer := hcl.NewDiagnosticTextWriter(w, nil, width, color)
	return writer.WriteDiagnostics(ToDiagnostics(issues))
}
