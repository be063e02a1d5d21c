// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/toscago/internal/app"
	"github.com/spf13/pflag"
)

// Exit codes.
const (
	CodeInvalid = 1
	CodeUsage   = 2
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
//
// Settings are layered: flag defaults, then the config file given with
// --config, then flags set explicitly on the command line.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := pflag.NewFlagSet("toscago", pflag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.SortFlags = false

	flagSet.Usage = func() {
		fmt.Fprint(output, `
toscago - A TOSCA Simple Profile parser and deployment plan builder.

Usage:
  toscago [options] TEMPLATE

Arguments:
  TEMPLATE
    Path to a service template, a directory holding one, or a CSAR archive.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.StringP("config", "c", "", "Path to an HCL config file, e.g. toscago.hcl.")
	inputsFlag := flagSet.StringP("inputs", "i", "", "Path to a YAML or JSON inputs file.")
	inputFlag := flagSet.StringArray("input", nil, "Set one input as NAME=VALUE. May be repeated; wins over the inputs file.")
	outputFlag := flagSet.StringP("output", "o", app.OutputYAML, "Plan output format. Options: 'yaml', 'json', 'graph' or 'none'.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workersFlag := flagSet.IntP("workers", "w", 0, "Number of documents loaded concurrently. 0 uses one per CPU.")
	strictFlag := flagSet.Bool("strict", false, "Treat warnings as errors.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: CodeUsage, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if flagSet.NArg() == 0 {
		slog.Debug("No template path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}
	if flagSet.NArg() > 1 {
		return nil, false, &ExitError{Code: CodeUsage, Message: fmt.Sprintf("expected one template path, got %d", flagSet.NArg())}
	}

	cfg := app.Config{
		TemplatePath: flagSet.Arg(0),
		InputsPath:   *inputsFlag,
		Inputs:       map[string]string{},
		Output:       *outputFlag,
		LogFormat:    *logFormatFlag,
		LogLevel:     *logLevelFlag,
		WorkerCount:  *workersFlag,
		Strict:       *strictFlag,
	}

	if *configFlag != "" {
		file, err := loadConfigFile(*configFlag)
		if err != nil {
			return nil, false, &ExitError{Code: CodeUsage, Message: err.Error()}
		}
		file.apply(&cfg, flagSet.Changed)
		slog.Debug("Config file applied.", "path", *configFlag)
	}

	for _, kv := range *inputFlag {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return nil, false, &ExitError{Code: CodeUsage, Message: fmt.Sprintf("invalid input %q: must be NAME=VALUE", kv)}
		}
		cfg.Inputs[name] = value
	}

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.Output = strings.ToLower(cfg.Output)

	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, &ExitError{Code: CodeUsage, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
