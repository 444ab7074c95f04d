// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package world

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/worldkeeper/worldkeeper/internal/core"
)

// NPCTier controls how much generated detail an NPC carries.
type NPCTier string

// NPC tiers.
const (
	TierMajor   NPCTier = "major"
	TierMinor   NPCTier = "minor"
	TierAmbient NPCTier = "ambient"
)

// IsValid reports whether t is a known tier.
func (t NPCTier) IsValid() bool {
	return t == TierMajor || t == TierMinor || t == TierAmbient
}

// NPCStatus is the life status of an NPC. Transitions are one-directional in
// normal play but the store does not enforce that.
type NPCStatus string

// NPC statuses.
const (
	StatusAlive      NPCStatus = "alive"
	StatusDead       NPCStatus = "dead"
	StatusMissing    NPCStatus = "missing"
	StatusImprisoned NPCStatus = "imprisoned"
)

// IsValid reports whether s is a known status.
func (s NPCStatus) IsValid() bool {
	switch s {
	case StatusAlive, StatusDead, StatusMissing, StatusImprisoned:
		return true
	}
	return false
}

// NPC is a non-player character.
type NPC struct {
	ID                     ulid.ULID  `json:"id"`
	Name                   string     `json:"name"`
	Tier                   NPCTier    `json:"tier"`
	Species                string     `json:"species,omitempty"`
	Age                    string     `json:"age,omitempty"`
	Profession             string     `json:"profession,omitempty"`
	FactionID              *ulid.ULID `json:"faction_id,omitempty"`
	HomeLocationID         *ulid.ULID `json:"home_location_id,omitempty"`
	CurrentLocationID      *ulid.ULID `json:"current_location_id,omitempty"`
	Position               Position   `json:"position"`
	DescriptionPhysical    string     `json:"description_physical"`
	DescriptionPersonality string     `json:"description_personality"`
	VoicePattern           string     `json:"voice_pattern,omitempty"`
	Goals                  StringSet  `json:"goals"`
	Secrets                StringSet  `json:"secrets"`
	Skills                 StringSet  `json:"skills"`
	Inventory              Inventory  `json:"inventory"`
	Currency               int        `json:"currency"`
	Status                 NPCStatus  `json:"status"`
	CurrentMood            string     `json:"current_mood"`
	CreatedAt              time.Time  `json:"created_at"`
}

// NewNPC creates an alive NPC with a fresh ID.
func NewNPC(name string, tier NPCTier) *NPC {
	return &NPC{
		ID:          core.NewULID(),
		Name:        name,
		Tier:        tier,
		Goals:       StringSet{},
		Secrets:     StringSet{},
		Skills:      StringSet{},
		Inventory:   Inventory{},
		Status:      StatusAlive,
		CurrentMood: "neutral",
		CreatedAt:   time.Now().UTC(),
	}
}

// IsAlive reports whether the NPC is alive.
func (n *NPC) IsAlive() bool {
	return n.Status == StatusAlive
}

// CanConverse returns a coded NPC_UNAVAILABLE error unless the NPC is alive.
func (n *NPC) CanConverse() error {
	if n.IsAlive() {
		return nil
	}
	return oops.Code(CodeNPCUnavailable).
		With("npc_id", n.ID.String()).
		With("status", string(n.Status)).
		Wrapf(ErrNPCUnavailable, "%s is %s", n.Name, n.Status)
}

// IsAt reports whether the NPC is currently at the location.
func (n *NPC) IsAt(locationID ulid.ULID) bool {
	return n.CurrentLocationID != nil && *n.CurrentLocationID == locationID
}

// SecretAt returns the secret at index, or an INVALID_INPUT error when out of range.
func (n *NPC) SecretAt(index int) (string, error) {
	if index < 0 || index >= len(n.Secrets) {
		return "", InvalidInput("secret index %d out of range for %s (has %d)", index, n.Name, len(n.Secrets))
	}
	return n.Secrets[index], nil
}

// Validate checks the NPC's invariants.
func (n *NPC) Validate() error {
	if err := ValidateName(n.Name); err != nil {
		return err
	}
	if !n.Tier.IsValid() {
		return &ValidationError{Field: "tier", Message: fmt.Sprintf("unknown tier %q", n.Tier)}
	}
	if !n.Status.IsValid() {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", n.Status)}
	}
	if n.Currency < 0 {
		return &ValidationError{Field: "currency", Message: "cannot be negative"}
	}
	if err := validateTextField("description_physical", n.DescriptionPhysical); err != nil {
		return err
	}
	if err := validateTextField("description_personality", n.DescriptionPersonality); err != nil {
		return err
	}
	for field, list := range map[string]StringSet{"goals": n.Goals, "secrets": n.Secrets, "skills": n.Skills} {
		if err := ValidateStringList(field, list); err != nil {
			return err
		}
	}
	for _, it := range n.Inventory {
		if err := it.Validate(); err != nil {
			return err
		}
	}
	return nil
}
