// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/specialistvlad/toscago/internal/issue"
	"github.com/specialistvlad/toscago/internal/loader"
	"github.com/specialistvlad/toscago/internal/plan"
)

// ErrInvalidPlan is returned by Execute when the plan carries issues that
// invalidate it.
var ErrInvalidPlan = errors.New("service template is invalid")

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	errW   io.Writer
	logger *slog.Logger
	config *Config
	source *loader.Source
}

// NewApp is the constructor for the main application. The plan is written to
// outW; logs and rendered issues go to errW. A nil source reads from the file
// system only.
func NewApp(outW, errW io.Writer, cfg *Config, source *loader.Source) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, errW)
	logger.Debug("Logger configured successfully.")

	if source == nil {
		source = &loader.Source{}
	}
	return &App{
		outW:   outW,
		errW:   errW,
		logger: logger,
		config: cfg,
		source: source,
	}
}

// Result is the outcome of one pipeline run.
type Result struct {
	// Plan is the deployment plan. It may be partial when Issues holds
	// errors.
	Plan *plan.Plan
	// Documents lists the composed documents, root first.
	Documents []string
	Issues    []issue.Issue
}

// Err reports whether the run produced a usable plan. Warnings count as
// failures when strict is set.
func (r *Result) Err(strict bool) error {
	var errs, warnings int
	for _, i := range r.Issues {
		switch {
		case i.Fatal():
			errs++
		case i.Severity == issue.Warning:
			warnings++
		}
	}
	if errs > 0 || (strict && warnings > 0) {
		return fmt.Errorf("%w: %d error(s), %d warning(s)", ErrInvalidPlan, errs, warnings)
	}
	return nil
}
