// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package tools

import (
	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// Grants maps a caller role to the glob patterns of "<category>.<tool>"
// names it may call.
type Grants struct {
	roles map[string][]glob.Glob
}

// DefaultGrants lets the narrator call anything, NPC agents read the world
// and talk, and observers only read.
func DefaultGrants() map[string][]string {
	return map[string][]string{
		"dm":       {"*"},
		"npc":      {CategoryRead + ".*", CategoryCompound + ".*", CategoryWrite + ".update_npc_*"},
		"observer": {CategoryRead + ".*"},
	}
}

// NewGrants compiles role patterns.
func NewGrants(patterns map[string][]string) (*Grants, error) {
	g := &Grants{roles: make(map[string][]glob.Glob, len(patterns))}
	for role, list := range patterns {
		for _, p := range list {
			compiled, err := glob.Compile(p)
			if err != nil {
				return nil, oops.Code("CONFIG_INVALID").With("role", role).With("pattern", p).
					Wrapf(err, "invalid grant pattern")
			}
			g.roles[role] = append(g.roles[role], compiled)
		}
	}
	return g, nil
}

// Allows reports whether role may call the tool.
func (g *Grants) Allows(role string, t Tool) bool {
	name := t.QualifiedName()
	for _, p := range g.roles[role] {
		if p.Match(name) {
			return true
		}
	}
	return false
}

// Roles returns the number of configured roles.
func (g *Grants) Roles() int {
	return len(g.roles)
}
