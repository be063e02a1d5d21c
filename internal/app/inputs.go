// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/specialistvlad/toscago/internal/issue"
	"github.com/specialistvlad/toscago/internal/raw"
	"github.com/specialistvlad/toscago/internal/reader"
	"github.com/tidwall/jsonc"
)

// loadInputs merges the inputs file with the inline inputs. Inline values
// win and are read as YAML scalars, so "port=8080" yields an integer.
func (a *App) loadInputs() (*raw.Node, error) {
	inputs := raw.NewMap(issue.Position{Location: "inputs"})

	if path := a.config.InputsPath; path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read inputs: %w", err)
		}
		fromFile, err := readInputs(path, data)
		if err != nil {
			return nil, err
		}
		for _, name := range fromFile.Keys() {
			inputs.Set(name, fromFile.Get(name))
		}
	}

	names := make([]string, 0, len(a.config.Inputs))
	for name := range a.config.Inputs {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		location := "input " + name
		text := a.config.Inputs[name]
		if strings.TrimSpace(text) == "" {
			inputs.Set(name, raw.NewScalar("", issue.Position{Location: location}))
			continue
		}
		v, err := reader.Read(location, []byte(text))
		if err != nil {
			return nil, fmt.Errorf("failed to read input %q: %w", name, err)
		}
		inputs.Set(name, v)
	}
	return inputs, nil
}

// readInputs reads an inputs document. JSON files may carry comments and
// trailing commas; anything else is read as YAML.
func readInputs(path string, data []byte) (*raw.Node, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}
	n, err := reader.Read(path, data)
	if err != nil {
		return nil, fmt.Errorf("failed to read inputs: %w", err)
	}
	if !n.IsMap() {
		return nil, fmt.Errorf("failed to read inputs: %s must hold a map of input names to values, got %s", path, n.Kind)
	}
	return n, nil
}
