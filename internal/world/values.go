// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package world

import (
	"slices"

	"github.com/oklog/ulid/v2"
)

// StringSet is an ordered collection of unique strings (goals, secrets, skills, tags).
// Insertion order is preserved.
type StringSet []string

// Contains reports whether s holds v.
func (s StringSet) Contains(v string) bool {
	return slices.Contains(s, v)
}

// Add appends v if absent and reports whether it was added.
func (s *StringSet) Add(v string) bool {
	if v == "" || s.Contains(v) {
		return false
	}
	*s = append(*s, v)
	return true
}

// Remove deletes v and reports whether it was present.
func (s *StringSet) Remove(v string) bool {
	i := slices.Index(*s, v)
	if i < 0 {
		return false
	}
	*s = slices.Delete(*s, i, i+1)
	return true
}

// Clone returns an independent copy.
func (s StringSet) Clone() StringSet {
	if s == nil {
		return StringSet{}
	}
	return slices.Clone(s)
}

// IDSet is an ordered collection of unique entity ids (party members, quests).
type IDSet []ulid.ULID

// Contains reports whether s holds id.
func (s IDSet) Contains(id ulid.ULID) bool {
	return slices.Contains(s, id)
}

// Add appends id if absent and reports whether it was added.
func (s *IDSet) Add(id ulid.ULID) bool {
	if s.Contains(id) {
		return false
	}
	*s = append(*s, id)
	return true
}

// Remove deletes id and reports whether it was present.
func (s *IDSet) Remove(id ulid.ULID) bool {
	i := slices.Index(*s, id)
	if i < 0 {
		return false
	}
	*s = slices.Delete(*s, i, i+1)
	return true
}

// Strings renders the ids for response payloads.
func (s IDSet) Strings() []string {
	out := make([]string, len(s))
	for i, id := range s {
		out[i] = id.String()
	}
	return out
}

// Position is a point on a parent map. X and Y are percentages (0-100) of the
// parent map; Z is an optional layer.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}
