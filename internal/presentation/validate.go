// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package presentation

import (
	"github.com/specialistvlad/toscago/internal/issue"
)

// Link materialises every nested presentation below p so that each one has
// its container reference set. It is run once on a composed document.
func (p *Presentation) Link(c *Cycle) {
	p.walk(c, func(child *Presentation) { child.Link(c) })
}

// Validate checks p and everything below it: required fields, unknown keys,
// field checks and schema checks. It is meant to run once per cycle; read
// problems are cached, structural ones are reported on every call.
func (p *Presentation) Validate(c *Cycle) {
	if p == nil {
		return
	}
	if !p.Schema.AsIs {
		p.validateFields(c)
	}
	for _, check := range p.Schema.Checks {
		check(c, p)
	}
}

func (p *Presentation) validateFields(c *Cycle) {
	if p.Raw.IsMap() && !p.Schema.AllowUnknown {
		for _, k := range p.Raw.Keys() {
			if p.Schema.Field(k) == nil {
				c.Reportf(issue.Error, issue.PresentationError, p.Raw.Get(k).Position(),
					"%s: unknown field %q", p.Describe(), k)
			}
		}
	}

	for _, f := range p.Schema.Fields() {
		node := p.FieldRaw(f.Name)
		if f.Required && node.IsNull() {
			c.Reportf(issue.Error, issue.PresentationError, p.Pos(),
				"%s: missing required field %q", p.Describe(), f.Name)
		}
		v := p.Read(c, f.Name)
		if !node.IsNull() {
			for _, check := range f.Checks {
				check(c, p, f, v)
			}
		}
	}

	p.walk(c, func(child *Presentation) { child.Validate(c) })
}

// walk calls fn on every direct child presentation in field order.
func (p *Presentation) walk(c *Cycle, fn func(*Presentation)) {
	if p == nil || p.Schema.AsIs {
		return
	}
	for _, f := range p.Schema.Fields() {
		switch f.Kind {
		case Object:
			if child := p.Object(c, f.Name); child != nil {
				fn(child)
			}
		case ObjectList, ObjectSequencedList:
			for _, child := range p.List(c, f.Name) {
				fn(child)
			}
		case ObjectDict:
			for _, child := range p.Dict(c, f.Name).All() {
				fn(child)
			}
		}
	}
}
