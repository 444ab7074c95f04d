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

// HealthStatus is a coarse narrative health state.
type HealthStatus string

// Health statuses, worst first.
const (
	HealthCritical  HealthStatus = "critical"
	HealthBadlyHurt HealthStatus = "badly_hurt"
	HealthHurt      HealthStatus = "hurt"
	HealthWinded    HealthStatus = "winded"
	HealthHealthy   HealthStatus = "healthy"
)

var healthLadder = []HealthStatus{HealthCritical, HealthBadlyHurt, HealthHurt, HealthWinded, HealthHealthy}

// IsValid reports whether h is a known health status.
func (h HealthStatus) IsValid() bool {
	return h.rung() >= 0
}

func (h HealthStatus) rung() int {
	for i, s := range healthLadder {
		if s == h {
			return i
		}
	}
	return -1
}

// Heal moves h up the ladder by steps rungs, stopping at healthy.
// Unknown statuses are treated as critical.
func (h HealthStatus) Heal(steps int) HealthStatus {
	r := h.rung()
	if r < 0 {
		r = 0
	}
	return healthLadder[clampAdd(r, steps, 0, len(healthLadder)-1)]
}

// Reputation bounds.
const (
	DefaultReputation = 50
	MinReputation     = 0
	MaxReputation     = 100
)

// Reputation maps faction id strings to a 0-100 standing.
type Reputation map[string]int

// Score returns the standing with a faction, defaulting unseen factions.
func (r Reputation) Score(factionID ulid.ULID) int {
	if v, ok := r[factionID.String()]; ok {
		return v
	}
	return DefaultReputation
}

// Adjust applies delta to a faction's standing, clamped to [0,100], and
// returns the new value.
func (r Reputation) Adjust(factionID ulid.ULID, delta int) int {
	v := clampAdd(r.Score(factionID), delta, MinReputation, MaxReputation)
	r[factionID.String()] = v
	return v
}

// Player is the protagonist of a save slot.
type Player struct {
	ID                ulid.ULID    `json:"id"`
	Name              string       `json:"name"`
	CurrentLocationID *ulid.ULID   `json:"current_location_id,omitempty"`
	Position          Position     `json:"position"`
	Facing            string       `json:"facing"`
	Description       string       `json:"description,omitempty"`
	Background        string       `json:"background,omitempty"`
	Traits            StringSet    `json:"traits"`
	Inventory         Inventory    `json:"inventory"`
	Currency          int          `json:"currency"`
	Reputation        Reputation   `json:"reputation"`
	StatusEffects     StringSet    `json:"status_effects"`
	HealthStatus      HealthStatus `json:"health_status"`
	PartyMembers      IDSet        `json:"party_members"`
	ActiveQuests      IDSet        `json:"active_quests"`
	CompletedQuests   IDSet        `json:"completed_quests"`
	CreatedAt         time.Time    `json:"created_at"`
}

// NewPlayer creates a healthy player with a fresh ID.
func NewPlayer(name string) *Player {
	return &Player{
		ID:              core.NewULID(),
		Name:            name,
		Facing:          "down",
		Traits:          StringSet{},
		Inventory:       Inventory{},
		Reputation:      Reputation{},
		StatusEffects:   StringSet{},
		HealthStatus:    HealthHealthy,
		PartyMembers:    IDSet{},
		ActiveQuests:    IDSet{},
		CompletedQuests: IDSet{},
		CreatedAt:       time.Now().UTC(),
	}
}

// AdjustCurrency applies delta to the balance. A debit that would go negative
// fails with INSUFFICIENT_FUNDS and leaves the balance unchanged.
func (p *Player) AdjustCurrency(delta int) error {
	return adjustBalance(&p.Currency, delta, p.ID)
}

// CompleteQuest moves a quest from active to completed.
func (p *Player) CompleteQuest(questID ulid.ULID) {
	p.ActiveQuests.Remove(questID)
	p.CompletedQuests.Add(questID)
}

// Validate checks the player's invariants.
func (p *Player) Validate() error {
	if err := ValidateName(p.Name); err != nil {
		return err
	}
	if p.Currency < 0 {
		return &ValidationError{Field: "currency", Message: "cannot be negative"}
	}
	if !p.HealthStatus.IsValid() {
		return &ValidationError{Field: "health_status", Message: fmt.Sprintf("unknown health status %q", p.HealthStatus)}
	}
	for k, v := range p.Reputation {
		if v < MinReputation || v > MaxReputation {
			return &ValidationError{Field: "reputation", Message: fmt.Sprintf("%s out of range: %d", k, v)}
		}
	}
	for _, it := range p.Inventory {
		if err := it.Validate(); err != nil {
			return err
		}
	}
	if err := ValidateDescription(p.Description); err != nil {
		return err
	}
	return ValidateStringList("traits", p.Traits)
}

func adjustBalance(balance *int, delta int, owner ulid.ULID) error {
	next, ok := AddInt(*balance, delta)
	if !ok {
		return oops.Code(CodeInvalidInput).
			With("owner_id", owner.String()).
			With("balance", *balance).
			With("delta", delta).
			Wrapf(ErrInvalidInput, "adjusting balance %d by %d overflows", *balance, delta)
	}
	if next < 0 {
		return oops.Code(CodeInsufficientFunds).
			With("owner_id", owner.String()).
			With("balance", *balance).
			With("delta", delta).
			Wrapf(ErrInsufficientFunds, "balance %d cannot cover %d", *balance, -delta)
	}
	*balance = next
	return nil
}

// AdjustCurrency applies delta to the NPC's purse with the same rules as players.
func (n *NPC) AdjustCurrency(delta int) error {
	return adjustBalance(&n.Currency, delta, n.ID)
}
