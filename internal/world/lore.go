// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package world

import (
	"github.com/oklog/ulid/v2"

	"github.com/worldkeeper/worldkeeper/internal/core"
)

// WorldBible is the singleton lore record written during world generation.
type WorldBible struct {
	Name              string            `json:"name" yaml:"name"`
	Genre             string            `json:"genre" yaml:"genre"`
	Tone              string            `json:"tone" yaml:"tone"`
	TimePeriod        string            `json:"time_period,omitempty" yaml:"time_period,omitempty"`
	Setting           string            `json:"setting" yaml:"setting"`
	Themes            StringSet         `json:"themes" yaml:"themes"`
	Rules             StringSet         `json:"rules" yaml:"rules"`
	MagicSystem       string            `json:"magic_system,omitempty" yaml:"magic_system,omitempty"`
	TechnologyLevel   string            `json:"technology_level,omitempty" yaml:"technology_level,omitempty"`
	NamingConventions map[string]string `json:"naming_conventions,omitempty" yaml:"naming_conventions,omitempty"`
	CentralTension    string            `json:"central_tension,omitempty" yaml:"central_tension,omitempty"`
	Notes             string            `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Validate checks the bible's invariants.
func (b *WorldBible) Validate() error {
	if err := ValidateName(b.Name); err != nil {
		return err
	}
	if err := validateTextField("setting", b.Setting); err != nil {
		return err
	}
	if err := ValidateStringList("themes", b.Themes); err != nil {
		return err
	}
	return ValidateStringList("rules", b.Rules)
}

// HistoricalEvent is static backstory.
type HistoricalEvent struct {
	ID                ulid.ULID `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	EraOrYearsAgo     string    `json:"era_or_years_ago"`
	Significance      string    `json:"significance,omitempty"`
	FactionsInvolved  IDSet     `json:"factions_involved"`
	LocationsInvolved IDSet     `json:"locations_involved"`
}

// NewHistoricalEvent creates a historical event with a fresh ID.
func NewHistoricalEvent(name, era string) *HistoricalEvent {
	return &HistoricalEvent{
		ID:                core.NewULID(),
		Name:              name,
		EraOrYearsAgo:     era,
		FactionsInvolved:  IDSet{},
		LocationsInvolved: IDSet{},
	}
}

// Validate checks the event's invariants.
func (h *HistoricalEvent) Validate() error {
	if err := ValidateName(h.Name); err != nil {
		return err
	}
	return ValidateDescription(h.Description)
}
