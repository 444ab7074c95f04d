// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package world

import (
	"fmt"
	"math"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/worldkeeper/worldkeeper/internal/core"
)

// Power and stability bounds.
const (
	MinPower          = 1
	MaxPower          = 100
	DefaultPower      = 50
	MinStability      = 1
	MaxStability      = 100
	DefaultStability  = 50
	DefaultResource   = 50
	volatileStability = 30
	criticalStability = 20
)

// Resources are named non-negative gauges such as military or economic strength.
type Resources map[string]int

// DefaultResources returns the gauges every new faction starts with.
func DefaultResources() Resources {
	return Resources{"military": DefaultResource, "economic": DefaultResource, "influence": DefaultResource}
}

// Adjust applies delta to a gauge, flooring at zero, and returns the new value.
func (r Resources) Adjust(name string, delta int) int {
	v, ok := AddInt(r[name], delta)
	switch {
	case !ok && delta > 0:
		v = math.MaxInt
	case !ok || v < 0:
		v = 0
	}
	r[name] = v
	return v
}

// Leadership describes who runs a faction.
type Leadership struct {
	LeaderName    string `json:"leader_name,omitempty"`
	StructureType string `json:"structure_type,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// Faction is an organization with power, resources and goals.
type Faction struct {
	ID           ulid.ULID  `json:"id"`
	Name         string     `json:"name"`
	Ideology     string     `json:"ideology"`
	Methods      StringSet  `json:"methods"`
	Aesthetic    string     `json:"aesthetic,omitempty"`
	PowerLevel   int        `json:"power_level"`
	Resources    Resources  `json:"resources"`
	GoalsShort   StringSet  `json:"goals_short_term"`
	GoalsLong    StringSet  `json:"goals_long_term"`
	Leadership   Leadership `json:"leadership"`
	Secrets      StringSet  `json:"secrets"`
	HistoryNotes string     `json:"history_notes,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// NewFaction creates a faction with default power and resources.
func NewFaction(name string) *Faction {
	return &Faction{
		ID:         core.NewULID(),
		Name:       name,
		Methods:    StringSet{},
		PowerLevel: DefaultPower,
		Resources:  DefaultResources(),
		GoalsShort: StringSet{},
		GoalsLong:  StringSet{},
		Secrets:    StringSet{},
		CreatedAt:  time.Now().UTC(),
	}
}

// AdjustPower applies delta to the power level, clamped to [1,100].
func (f *Faction) AdjustPower(delta int) int {
	f.PowerLevel = clampAdd(f.PowerLevel, delta, MinPower, MaxPower)
	return f.PowerLevel
}

// Validate checks the faction's invariants.
func (f *Faction) Validate() error {
	if err := ValidateName(f.Name); err != nil {
		return err
	}
	if err := ValidateRange("power_level", f.PowerLevel, MinPower, MaxPower); err != nil {
		return err
	}
	for k, v := range f.Resources {
		if v < 0 {
			return &ValidationError{Field: "resources", Message: fmt.Sprintf("%s cannot be negative", k)}
		}
	}
	if err := validateTextField("ideology", f.Ideology); err != nil {
		return err
	}
	for field, list := range map[string]StringSet{
		"methods": f.Methods, "goals_short_term": f.GoalsShort, "goals_long_term": f.GoalsLong, "secrets": f.Secrets,
	} {
		if err := ValidateStringList(field, list); err != nil {
			return err
		}
	}
	return nil
}

// RelationshipType classifies the relationship between two factions.
type RelationshipType string

// Faction relationship types.
const (
	RelationAllied  RelationshipType = "allied"
	RelationNeutral RelationshipType = "neutral"
	RelationRival   RelationshipType = "rival"
	RelationWar     RelationshipType = "war"
	RelationVassal  RelationshipType = "vassal"
)

// IsValid reports whether t is a known relationship type.
func (t RelationshipType) IsValid() bool {
	switch t {
	case RelationAllied, RelationNeutral, RelationRival, RelationWar, RelationVassal:
		return true
	}
	return false
}

// FactionRelationship links an unordered pair of factions. The pair is stored
// normalized (A < B) so each pair has exactly one row.
type FactionRelationship struct {
	ID           ulid.ULID        `json:"id"`
	FactionAID   ulid.ULID        `json:"faction_a_id"`
	FactionBID   ulid.ULID        `json:"faction_b_id"`
	Type         RelationshipType `json:"relationship_type"`
	PublicReason string           `json:"public_reason,omitempty"`
	SecretReason string           `json:"secret_reason,omitempty"`
	Stability    int              `json:"stability"`
}

// NewFactionRelationship builds a relationship with the pair normalized.
func NewFactionRelationship(a, b ulid.ULID, typ RelationshipType) *FactionRelationship {
	a, b = OrderedPair(a, b)
	return &FactionRelationship{
		ID:         core.NewULID(),
		FactionAID: a,
		FactionBID: b,
		Type:       typ,
		Stability:  DefaultStability,
	}
}

// OrderedPair returns a and b in canonical order.
func OrderedPair(a, b ulid.ULID) (ulid.ULID, ulid.ULID) {
	if b.Compare(a) < 0 {
		return b, a
	}
	return a, b
}

// Involves reports whether the relationship includes the faction.
func (r *FactionRelationship) Involves(id ulid.ULID) bool {
	return r.FactionAID == id || r.FactionBID == id
}

// Other returns the counterpart of id in the pair.
func (r *FactionRelationship) Other(id ulid.ULID) ulid.ULID {
	if r.FactionAID == id {
		return r.FactionBID
	}
	return r.FactionAID
}

// AdjustStability applies delta clamped to [1,100].
func (r *FactionRelationship) AdjustStability(delta int) int {
	r.Stability = clampAdd(r.Stability, delta, MinStability, MaxStability)
	return r.Stability
}

// IsVolatile reports whether a rivalry is unstable enough to surface as tension.
func (r *FactionRelationship) IsVolatile() bool {
	return r.Type == RelationRival && r.Stability < volatileStability
}

// CouldEscalate reports whether a volatile rivalry is close to open conflict.
func (r *FactionRelationship) CouldEscalate() bool {
	return r.Stability < criticalStability
}

// Validate checks the relationship's invariants.
func (r *FactionRelationship) Validate() error {
	if r.FactionAID == r.FactionBID {
		return &ValidationError{Field: "faction_b_id", Message: "a faction cannot have a relationship with itself"}
	}
	if !r.Type.IsValid() {
		return &ValidationError{Field: "relationship_type", Message: fmt.Sprintf("unknown relationship type %q", r.Type)}
	}
	return ValidateRange("stability", r.Stability, MinStability, MaxStability)
}
