// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package tools

import (
	"github.com/oklog/ulid/v2"

	"github.com/worldkeeper/worldkeeper/internal/world"
)

// patch copies optional arguments onto entity fields. Absent arguments leave
// the field untouched; the first bad argument stops further copying and is
// reported by err.
type patch struct {
	args    Args
	err     error
	changed []string
}

func newPatch(args Args) *patch {
	return &patch{args: args}
}

func (p *patch) skip(name string) bool {
	return p.err != nil || !p.args.Has(name)
}

func (p *patch) mark(name string, err error) {
	if err != nil {
		p.err = err
		return
	}
	p.changed = append(p.changed, name)
}

func (p *patch) str(name string, dst *string) {
	if p.skip(name) {
		return
	}
	v, err := p.args.OptString(name, "")
	if err == nil {
		*dst = v
	}
	p.mark(name, err)
}

func (p *patch) strs(name string, dst *world.StringSet) {
	if p.skip(name) {
		return
	}
	v, err := p.args.OptStrings(name)
	if err == nil {
		*dst = world.StringSet(v)
	}
	p.mark(name, err)
}

func (p *patch) integer(name string, dst *int) {
	if p.skip(name) {
		return
	}
	v, err := p.args.OptInt(name, 0)
	if err == nil {
		*dst = v
	}
	p.mark(name, err)
}

func (p *patch) float(name string, dst *float64) {
	if p.skip(name) {
		return
	}
	v, err := p.args.OptFloat(name, 0)
	if err == nil {
		*dst = v
	}
	p.mark(name, err)
}

func (p *patch) boolean(name string, dst *bool) {
	if p.skip(name) {
		return
	}
	v, err := p.args.OptBool(name, false)
	if err == nil {
		*dst = v
	}
	p.mark(name, err)
}

// id sets dst from a ULID argument. An empty string clears it.
func (p *patch) id(name string, dst **ulid.ULID) {
	if p.skip(name) {
		return
	}
	v, err := p.args.OptID(name)
	if err == nil {
		*dst = v
	}
	p.mark(name, err)
}

func (p *patch) ids(name string, dst *world.IDSet) {
	if p.skip(name) {
		return
	}
	v, err := p.args.OptIDs(name)
	if err == nil {
		*dst = v
	}
	p.mark(name, err)
}

func (p *patch) decode(name string, dst any) {
	if p.skip(name) {
		return
	}
	_, err := p.args.Decode(name, dst)
	p.mark(name, err)
}

// position patches x, y and z.
func (p *patch) position(dst *world.Position) {
	p.float("x", &dst.X)
	p.float("y", &dst.Y)
	p.float("z", &dst.Z)
}
