// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"errors"
	"fmt"
)

// Output formats understood by App.Execute.
const (
	OutputYAML  = "yaml"
	OutputJSON  = "json"
	OutputGraph = "graph"
	OutputNone  = "none"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	TemplatePath string // service template file, directory or CSAR
	InputsPath   string // YAML or JSON (with comments) inputs file
	Inputs       map[string]string

	Output      string
	LogFormat   string
	LogLevel    string
	WorkerCount int
	// Strict fails the run on warnings as well as errors.
	Strict bool
}

// NewConfig validates cfg and fills in defaults for empty fields.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.TemplatePath == "" {
		return nil, errors.New("TemplatePath is a required configuration field and cannot be empty")
	}

	if cfg.Output == "" {
		cfg.Output = OutputYAML
	}
	switch cfg.Output {
	case OutputYAML, OutputJSON, OutputGraph, OutputNone:
	default:
		return nil, fmt.Errorf("invalid output %q: must be 'yaml', 'json', 'graph' or 'none'", cfg.Output)
	}

	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}

	if cfg.WorkerCount < 0 {
		return nil, fmt.Errorf("invalid worker count %d: must not be negative", cfg.WorkerCount)
	}
	return &cfg, nil
}
