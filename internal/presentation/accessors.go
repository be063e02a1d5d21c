// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package presentation

import (
	"github.com/Masterminds/semver/v3"
	"github.com/specialistvlad/toscago/internal/raw"
)

// The typed accessors below wrap Read. All of them are safe on a nil
// presentation and return the zero value.

func (p *Presentation) String(c *Cycle, name string) string {
	if p == nil {
		return ""
	}
	s, _ := p.Read(c, name).(string)
	return s
}

func (p *Presentation) Int(c *Cycle, name string) int64 {
	if p == nil {
		return 0
	}
	i, _ := p.Read(c, name).(int64)
	return i
}

func (p *Presentation) Float(c *Cycle, name string) float64 {
	if p == nil {
		return 0
	}
	f, _ := p.Read(c, name).(float64)
	return f
}

func (p *Presentation) Bool(c *Cycle, name string) bool {
	if p == nil {
		return false
	}
	b, _ := p.Read(c, name).(bool)
	return b
}

func (p *Presentation) Version(c *Cycle, name string) *semver.Version {
	if p == nil {
		return nil
	}
	v, _ := p.Read(c, name).(*semver.Version)
	return v
}

// Node returns the raw value of an Any primitive field.
func (p *Presentation) Node(c *Cycle, name string) *raw.Node {
	if p == nil {
		return nil
	}
	n, _ := p.Read(c, name).(*raw.Node)
	return n
}

// Strings returns a PrimitiveList field as strings, dropping elements that
// failed to cast.
func (p *Presentation) Strings(c *Cycle, name string) []string {
	if p == nil {
		return nil
	}
	items, _ := p.Read(c, name).([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Values returns a PrimitiveDict field.
func (p *Presentation) Values(c *Cycle, name string) *Dict[any] {
	if p == nil {
		return nil
	}
	d, _ := p.Read(c, name).(*Dict[any])
	return d
}

// Object returns an Object field, or nil when absent.
func (p *Presentation) Object(c *Cycle, name string) *Presentation {
	if p == nil {
		return nil
	}
	o, _ := p.Read(c, name).(*Presentation)
	return o
}

// List returns an ObjectList or ObjectSequencedList field.
func (p *Presentation) List(c *Cycle, name string) []*Presentation {
	if p == nil {
		return nil
	}
	l, _ := p.Read(c, name).([]*Presentation)
	return l
}

// Dict returns an ObjectDict field. The result may be nil; Dict methods
// accept a nil receiver.
func (p *Presentation) Dict(c *Cycle, name string) *Dict[*Presentation] {
	if p == nil {
		return nil
	}
	d, _ := p.Read(c, name).(*Dict[*Presentation])
	return d
}
