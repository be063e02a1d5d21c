// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"io"
	"log/slog"
)

// newLogger builds the App's own logger. Config validation already limited
// level and format to known names; anything else falls back to info and
// text.
func newLogger(level, format string, logW io.Writer) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(logW, opts))
	}
	return slog.New(slog.NewTextHandler(logW, opts))
}
