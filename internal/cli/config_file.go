// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package cli

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/toscago/internal/app"
)

// configFile is the decoded form of an HCL config file:
//
//	output     = "json"
//	log_level  = "debug"
//	workers    = 8
//	inputs     = { port = 8080 }
type configFile struct {
	InputsFile *string           `hcl:"inputs_file,optional"`
	Inputs     map[string]string `hcl:"inputs,optional"`
	Output     *string           `hcl:"output,optional"`
	LogFormat  *string           `hcl:"log_format,optional"`
	LogLevel   *string           `hcl:"log_level,optional"`
	Workers    *int              `hcl:"workers,optional"`
	Strict     *bool             `hcl:"strict,optional"`
}

func loadConfigFile(path string) (*configFile, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, diags)
	}

	var file configFile
	diags = gohcl.DecodeBody(hclFile.Body, nil, &file)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, diags)
	}
	return &file, nil
}

// apply copies every setting the file makes into cfg, unless the matching
// flag was set on the command line.
func (f *configFile) apply(cfg *app.Config, changed func(name string) bool) {
	set := func(flag string, v *string, dst *string) {
		if v != nil && !changed(flag) {
			*dst = *v
		}
	}
	set("inputs", f.InputsFile, &cfg.InputsPath)
	set("output", f.Output, &cfg.Output)
	set("log-format", f.LogFormat, &cfg.LogFormat)
	set("log-level", f.LogLevel, &cfg.LogLevel)
	if f.Workers != nil && !changed("workers") {
		cfg.WorkerCount = *f.Workers
	}
	if f.Strict != nil && !changed("strict") {
		cfg.Strict = *f.Strict
	}
	for name, value := range f.Inputs {
		cfg.Inputs[name] = value
	}
}
