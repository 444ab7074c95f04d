// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package world

import (
	"github.com/oklog/ulid/v2"

	"github.com/worldkeeper/worldkeeper/internal/core"
)

// Travel types synthesized for implicit hierarchy edges.
const (
	TravelEnter = "enter"
	TravelExit  = "exit"
	TravelWalk  = "walk"
)

// Travel times in hours.
const (
	// HierarchyTravelHours is the time to step into a child or out to a parent.
	HierarchyTravelHours = 0.1
	// FallbackTravelHours applies when no connection or hierarchy link exists.
	FallbackTravelHours = 0.5
)

// Connection is a travel edge between two locations.
type Connection struct {
	ID              ulid.ULID `json:"id"`
	FromID          ulid.ULID `json:"from_location_id"`
	ToID            ulid.ULID `json:"to_location_id"`
	TravelType      string    `json:"travel_type"`
	TravelTimeHours float64   `json:"travel_time_hours"`
	Difficulty      int       `json:"difficulty"`
	Description     string    `json:"description"`
	Requirements    StringSet `json:"requirements"`
	Bidirectional   bool      `json:"bidirectional"`
	Hidden          bool      `json:"hidden"`
	Discovered      bool      `json:"discovered"`
}

// NewConnection creates a bidirectional, discovered connection with a fresh ID.
func NewConnection(from, to ulid.ULID, travelType string, hours float64) *Connection {
	return &Connection{
		ID:              core.NewULID(),
		FromID:          from,
		ToID:            to,
		TravelType:      travelType,
		TravelTimeHours: hours,
		Requirements:    StringSet{},
		Bidirectional:   true,
		Discovered:      true,
	}
}

// Visible reports whether the connection may appear in destination listings.
// Hidden connections stay invisible until discovered.
func (c *Connection) Visible() bool {
	return !c.Hidden || c.Discovered
}

// Links reports whether the connection can be travelled from a to b,
// honouring the bidirectional flag for the reverse direction.
func (c *Connection) Links(a, b ulid.ULID) bool {
	if c.FromID == a && c.ToID == b {
		return true
	}
	return c.Bidirectional && c.FromID == b && c.ToID == a
}

// Other returns the endpoint opposite id.
func (c *Connection) Other(id ulid.ULID) ulid.ULID {
	if c.FromID == id {
		return c.ToID
	}
	return c.FromID
}

// Validate checks the connection's invariants.
func (c *Connection) Validate() error {
	if c.FromID == c.ToID {
		return &ValidationError{Field: "to_location_id", Message: "connection cannot loop to its origin"}
	}
	if c.TravelType == "" {
		return &ValidationError{Field: "travel_type", Message: "cannot be empty"}
	}
	if c.TravelTimeHours < 0 {
		return &ValidationError{Field: "travel_time_hours", Message: "cannot be negative"}
	}
	if err := ValidateRange("difficulty", c.Difficulty, 0, 100); err != nil {
		return err
	}
	if err := ValidateDescription(c.Description); err != nil {
		return err
	}
	return ValidateStringList("requirements", c.Requirements)
}
