// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/specialistvlad/toscago/internal/ctxlog"
	"github.com/specialistvlad/toscago/internal/issue"
	"github.com/specialistvlad/toscago/internal/parser"
	"github.com/specialistvlad/toscago/internal/plan"
	"github.com/specialistvlad/toscago/internal/presentation"
	"gopkg.in/yaml.v3"
)

// Run parses the configured service template and builds its deployment
// plan. Problems found along the way are returned in the Result; an error
// means no plan could be attempted at all.
func (a *App) Run(ctx context.Context) (*Result, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "template", a.config.TemplatePath)

	inputs, err := a.loadInputs()
	if err != nil {
		return nil, err
	}
	a.logger.Debug("Inputs loaded.", "count", inputs.Len())

	collector := issue.NewCollector()
	cycle := presentation.NewCycle(collector)
	parsed, err := parser.New(a.source, parser.WithWorkers(a.config.WorkerCount)).
		Parse(ctx, cycle, a.config.TemplatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service template: %w", err)
	}
	for _, doc := range parsed.Documents {
		a.logger.Debug("Document merged.", "location", doc, "blake3", parsed.Digests[doc])
	}
	a.logger.Debug("Service template composed.", "documents", len(parsed.Documents))

	builder := plan.NewBuilder(cycle, parsed.Root, plan.WithInputs(inputs))
	p := plan.New()
	for _, stage := range builder.Stages() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		before := collector.Len()
		stage.Run(ctx, p)
		a.logger.Debug("Stage finished.", "stage", stage.Name, "issues", collector.Len()-before)
	}

	a.logger.Info("Deployment plan built.",
		"nodes", len(p.Nodes), "relationships", len(p.Relationships), "issues", collector.Len())
	a.logger.Debug("App.Run method finished.")
	return &Result{
		Plan:      p,
		Documents: parsed.Documents,
		Issues:    collector.Issues(),
	}, nil
}

// Execute runs the pipeline, renders any issues and writes the plan in the
// configured output format. An invalid plan is not written; the returned
// error wraps ErrInvalidPlan.
func (a *App) Execute(ctx context.Context) error {
	res, err := a.Run(ctx)
	if err != nil {
		return err
	}
	if len(res.Issues) > 0 {
		if err := issue.Write(a.errW, res.Issues, 0, false); err != nil {
			return fmt.Errorf("failed to write issues: %w", err)
		}
	}
	if err := res.Err(a.config.Strict); err != nil {
		return err
	}
	if err := a.writePlan(res.Plan); err != nil {
		return fmt.Errorf("failed to write plan: %w", err)
	}
	return nil
}

func (a *App) writePlan(p *plan.Plan) error {
	switch a.config.Output {
	case OutputJSON:
		data, err := p.MarshalJSON()
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err != nil {
			return err
		}
		buf.WriteByte('\n')
		_, err = a.outW.Write(buf.Bytes())
		return err

	case OutputGraph:
		return p.WriteGraph(a.outW)

	case OutputNone:
		return nil
	}

	enc := yaml.NewEncoder(a.outW)
	enc.SetIndent(2)
	if err := enc.Encode(p.Dump()); err != nil {
		return err
	}
	return enc.Close()
}
