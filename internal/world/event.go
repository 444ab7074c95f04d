// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package world

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/worldkeeper/worldkeeper/internal/core"
)

// EventType is the scale of a runtime event.
type EventType string

// Event scales.
const (
	EventMacro  EventType = "macro"
	EventMeso   EventType = "meso"
	EventPlayer EventType = "player"
)

// IsValid reports whether t is a known event type.
func (t EventType) IsValid() bool {
	return t == EventMacro || t == EventMeso || t == EventPlayer
}

// Event is something that happened (or will happen) in the world.
type Event struct {
	ID                ulid.ULID `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	Type              EventType `json:"event_type"`
	OccurredDay       *int      `json:"occurred_day,omitempty"`
	OccurredHour      *int      `json:"occurred_hour,omitempty"`
	ScheduledDay      *int      `json:"scheduled_day,omitempty"`
	ScheduledHour     *int      `json:"scheduled_hour,omitempty"`
	FactionsInvolved  IDSet     `json:"factions_involved"`
	LocationsInvolved IDSet     `json:"locations_involved"`
	NPCsInvolved      IDSet     `json:"npcs_involved"`
	Consequences      StringSet `json:"consequences"`
	PlayerVisible     bool      `json:"player_visible"`
	PlayerWitnessed   bool      `json:"player_witnessed"`
	NarratedToPlayer  bool      `json:"narrated_to_player"`
	CreatedAt         time.Time `json:"created_at"`
}

// NewEvent creates an event that occurred at the clock's current time.
func NewEvent(name string, typ EventType, clock *WorldClock) *Event {
	now := time.Now().UTC()
	e := &Event{
		ID:                core.NewULIDAt(now),
		Name:              name,
		Type:              typ,
		FactionsInvolved:  IDSet{},
		LocationsInvolved: IDSet{},
		NPCsInvolved:      IDSet{},
		Consequences:      StringSet{},
		CreatedAt:         now,
	}
	if clock != nil {
		d, h := clock.Day, clock.Hour
		e.OccurredDay, e.OccurredHour = &d, &h
	}
	return e
}

// Validate checks the event's invariants.
func (e *Event) Validate() error {
	if err := ValidateName(e.Name); err != nil {
		return err
	}
	if !e.Type.IsValid() {
		return &ValidationError{Field: "event_type", Message: fmt.Sprintf("unknown event type %q", e.Type)}
	}
	if err := ValidateDescription(e.Description); err != nil {
		return err
	}
	return ValidateStringList("consequences", e.Consequences)
}
