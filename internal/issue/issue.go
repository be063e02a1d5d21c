// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package issue is the diagnostics sink shared by every pipeline stage.
//
// Stages never abort on a recoverable problem. They append an Issue to the
// Collector and keep going with a best-effort result, so a single run reports
// as many problems as possible. The presence of an Issue with severity Error
// or Fatal is the only failure signal for the pipeline as a whole.
package issue

import (
	"fmt"
	"strings"
)

// Severity orders issues by how much they compromise the plan.
type Severity int

const (
	// Info is purely informational.
	Info Severity = iota
	// Warning marks a problem that does not invalidate the plan, e.g. an
	// optional requirement that could not be satisfied.
	Warning
	// Error invalidates the plan.
	Error
	// Fatal marks a problem that prevented a stage from producing anything.
	Fatal
)

// String returns the lower-case name of the severity.
func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// Kind classifies the origin of an issue.
type Kind int

const (
	// LoadError means a document could not be located or loaded.
	LoadError Kind = iota + 1
	// ReadError means a document was loaded but is not well-formed.
	ReadError
	// PresentationError is a schema mismatch: wrong field type, missing
	// required field, unknown field, dangling type reference.
	PresentationError
	// TypeResolutionError is a missing or cyclic derived_from parent.
	TypeResolutionError
	// MatchError is an unsatisfiable requirement or an invalid binding.
	MatchError
	// ConstraintError is a value that failed coercion or a constraint clause.
	ConstraintError
	// InternalError is a bug surfaced as a diagnostic instead of a panic.
	InternalError
)

var kindNames = map[Kind]string{
	LoadError:           "LoadError",
	ReadError:           "ReadError",
	PresentationError:   "PresentationError",
	TypeResolutionError: "TypeResolutionError",
	MatchError:          "MatchError",
	ConstraintError:     "ConstraintError",
	InternalError:       "InternalError",
}

// String returns the taxonomy name of the kind, e.g. "MatchError".
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Position locates a raw value inside a source document. Line and Column
// are 1-based; zero means unknown.
type Position struct {
	Location string
	Line     int
	Column   int
}

// IsZero reports whether the position carries no information.
func (p Position) IsZero() bool {
	return p.Location == "" && p.Line == 0 && p.Column == 0
}

// String renders the position as `"location":line:column`.
func (p Position) String() string {
	return fmt.Sprintf("%q:%d:%d", p.Location, p.Line, p.Column)
}

// Issue is a single collected diagnostic.
type Issue struct {
	Severity Severity
	Kind     Kind
	Message  string
	Cause    error
	Position *Position
}

// Fatal reports whether the issue invalidates the plan.
func (i Issue) Fatal() bool {
	return i.Severity >= Error
}

// String renders the issue on one line.
func (i Issue) String() string {
	var sb strings.Builder
	sb.WriteString(i.Severity.String())
	sb.WriteString(": ")
	sb.WriteString(i.Kind.String())
	sb.WriteString(": ")
	sb.WriteString(i.Message)
	if i.Position != nil && !i.Position.IsZero() {
		sb.WriteString(" @ ")
		sb.WriteString(i.Position.String())
	}
	if i.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(i.Cause.Error())
	}
	return sb.String()
}

// Error lets an Issue travel as an error value where a caller needs one.
func (i Issue) Error() string {
	return i.String()
}

// Unwrap exposes the cause for errors.Is/errors.As.
func (i Issue) Unwrap() error {
	return i.Cause
}

// New builds an issue with a formatted message.
func New(severity Severity, kind Kind, pos *Position, format string, args ...any) Issue {
	return Issue{
		Severity: severity,
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Position: pos,
	}
}
