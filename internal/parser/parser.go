// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package parser composes a service template and everything it imports into
// a single presentation tree.
//
// Parsing runs in two phases. The load phase fetches every reachable
// location exactly once, in parallel, bounded by a shared semaphore. The
// compose phase then walks the import graph depth-first from the root in
// declaration order and deep-merges each import into its importer: keys the
// importer already has are kept, keys only the import has are added. A
// document imported from several places is merged into every importer, so
// the composed tree does not depend on load timing. A failing import is
// reported once and only removes its own subtree; siblings are never
// cancelled.
package parser

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"

	"github.com/specialistvlad/toscago/internal/ctxlog"
	"github.com/specialistvlad/toscago/internal/issue"
	"github.com/specialistvlad/toscago/internal/loader"
	"github.com/specialistvlad/toscago/internal/presentation"
	"github.com/specialistvlad/toscago/internal/raw"
	"github.com/specialistvlad/toscago/internal/reader"
	"github.com/specialistvlad/toscago/internal/tosca"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// ErrNoPresenter is returned when a document carries no recognised
// tosca_definitions_version.
var ErrNoPresenter = errors.New("no presenter matches document")

// Parser loads service templates. It is safe to reuse across runs.
type Parser struct {
	source  *loader.Source
	workers int
	schema  *presentation.Schema
}

// Option configures a Parser.
type Option func(*Parser)

// WithWorkers caps how many documents are loaded at the same time.
func WithWorkers(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithSchema fixes the root schema instead of selecting it per document.
func WithSchema(s *presentation.Schema) Option {
	return func(p *Parser) { p.schema = s }
}

// New returns a parser reading through source.
func New(source *loader.Source, opts ...Option) *Parser {
	if source == nil {
		source = &loader.Source{}
	}
	p := &Parser{source: source, workers: runtime.NumCPU()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Result is a composed service template.
type Result struct {
	// Root is the linked presentation of the merged tree.
	Root *presentation.Presentation
	// Documents lists the canonical locations that were merged, root first,
	// in the order the compose phase first reached them.
	Documents []string
	// Digests maps every merged location to the BLAKE3 fingerprint of its
	// contents.
	Digests map[string]string
}

type document struct {
	location    string
	fingerprint string
	pres        *presentation.Presentation
	imports     []edge
	composed    bool
}

// edge is one import entry of a document, resolved during the load phase.
type edge struct {
	imp      *presentation.Presentation
	location string
	err      error
	message  string
}

// loaded is the outcome of loading one location.
type loaded struct {
	doc      *document
	err      error
	reported bool
}

// run holds the state of one Parse call.
type run struct {
	parser *Parser
	cycle  *presentation.Cycle
	sem    *semaphore.Weighted
	group  errgroup.Group

	mu        sync.Mutex
	locations map[string]*loaded

	documents []string
	digests   map[string]string
}

// Parse loads the document at location, composes its imports and links the
// result. Problems with imports are reported to the cycle. An error is
// returned only when the root document itself cannot be obtained.
func (p *Parser) Parse(ctx context.Context, c *presentation.Cycle, location string) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	r := &run{
		parser:    p,
		cycle:     c,
		sem:       semaphore.NewWeighted(int64(p.workers)),
		locations: make(map[string]*loaded),
		digests:   make(map[string]string),
	}

	ldr, err := p.source.GetLoader(location, "")
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	root, err := r.load(ctx, ldr)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	r.locations[root.location] = &loaded{doc: root}

	r.group.Go(func() error {
		r.resolve(ctx, root)
		return nil
	})
	_ = r.group.Wait()
	logger.Debug("Parse: loaded documents.", "count", len(r.locations))

	r.compose(ctx, root, []string{root.location})
	root.pres.Link(c)

	logger.Debug("Parse: composed service template.", "location", root.location, "documents", len(r.documents))
	return &Result{Root: root.pres, Documents: r.documents, Digests: r.digests}, nil
}

// load fetches and reads one document and selects its presenter.
func (r *run) load(ctx context.Context, ldr loader.Loader) (*document, error) {
	location := ldr.Location()
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, &loader.Error{Location: location, Err: err}
	}
	data, err := ldr.Load(ctx)
	r.sem.Release(1)
	if err != nil {
		return nil, err
	}

	node, err := reader.Read(location, data)
	if err != nil {
		return nil, err
	}

	schema := r.parser.schema
	if schema == nil {
		var ok bool
		if schema, ok = tosca.SelectPresenter(node); !ok {
			return nil, fmt.Errorf("%q: %w", location, ErrNoPresenter)
		}
	}
	return &document{
		location:    location,
		fingerprint: loader.Fingerprint(data),
		pres:        presentation.New("", node, schema, nil),
	}, nil
}

// resolve records where each import of doc points and starts loading every
// location not requested before.
func (r *run) resolve(ctx context.Context, doc *document) {
	c := r.cycle
	for _, imp := range doc.pres.List(c, "imports") {
		target, err := tosca.ImportLocation(c, doc.pres, imp)
		if err != nil {
			doc.imports = append(doc.imports, edge{imp: imp, err: err,
				message: fmt.Sprintf("%s: cannot resolve import", doc.location)})
			continue
		}
		ldr, err := r.parser.source.GetLoader(target, doc.location)
		if err != nil {
			doc.imports = append(doc.imports, edge{imp: imp, err: err,
				message: fmt.Sprintf("%s: cannot import %q", doc.location, target)})
			continue
		}
		doc.imports = append(doc.imports, edge{imp: imp, location: ldr.Location()})
		r.fetch(ctx, ldr)
	}
}

// fetch loads a location in the background unless it was requested before.
func (r *run) fetch(ctx context.Context, ldr loader.Loader) {
	location := ldr.Location()
	r.mu.Lock()
	if _, ok := r.locations[location]; ok {
		r.mu.Unlock()
		return
	}
	entry := &loaded{}
	r.locations[location] = entry
	r.mu.Unlock()

	r.group.Go(func() error {
		doc, err := r.load(ctx, ldr)
		r.mu.Lock()
		entry.doc, entry.err = doc, err
		r.mu.Unlock()
		if err == nil {
			r.resolve(ctx, doc)
		}
		return nil
	})
}

// compose merges the imports of doc into it in declaration order, composing
// each import first. chain is the list of locations from the root down to
// doc. It runs after the load phase and is single-threaded.
func (r *run) compose(ctx context.Context, doc *document, chain []string) {
	doc.composed = true
	r.documents = append(r.documents, doc.location)
	r.digests[doc.location] = doc.fingerprint
	if len(doc.imports) == 0 {
		return
	}
	ctx, logger := ctxlog.With(ctx, "importer", doc.location)

	merged := 0
	for _, e := range doc.imports {
		if e.err != nil {
			r.report(issue.LoadError, e.imp.Pos(), e.err, "%s", e.message)
			continue
		}
		if slices.Contains(chain, e.location) {
			r.report(issue.LoadError, e.imp.Pos(), nil, "%s: import cycle through %q", doc.location, e.location)
			continue
		}
		entry := r.locations[e.location]
		if entry.err != nil {
			if !entry.reported {
				entry.reported = true
				r.reportLoad(e.imp, e.location, entry.err)
			}
			continue
		}
		child := entry.doc
		if !child.composed {
			r.compose(ctx, child, append(slices.Clip(chain), e.location))
		} else {
			logger.Debug("Compose: import already composed.", "location", e.location)
		}
		raw.Merge(doc.pres.Raw, child.pres.Raw)
		merged++
	}
	logger.Debug("Compose: merged imports.", "merged", merged, "declared", len(doc.imports))
}

func (r *run) reportLoad(imp *presentation.Presentation, location string, err error) {
	var readErr *reader.Error
	switch {
	case errors.As(err, &readErr):
		r.report(issue.ReadError, readErr.Position(), err, "cannot read import %q", location)
	case errors.Is(err, ErrNoPresenter):
		r.report(issue.PresentationError, imp.Pos(), err, "unsupported import %q", location)
	default:
		r.report(issue.LoadError, imp.Pos(), err, "cannot load import %q", location)
	}
}

func (r *run) report(kind issue.Kind, pos *issue.Position, cause error, format string, args ...any) {
	r.cycle.Report(issue.Issue{
		Severity: issue.Error,
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Cause:    cause,
		Position: pos,
	})
}
