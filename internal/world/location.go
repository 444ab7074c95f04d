// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

// Package world contains the world-state domain types and logic.
package world

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/worldkeeper/worldkeeper/internal/core"
)

// LocationLevel is the canonical hierarchy level of a location.
// Setting-specific names ("planet", "kingdom", "tavern") live in DisplayLabel.
type LocationLevel string

// Location levels, outermost first.
const (
	LevelRoot       LocationLevel = "root"
	LevelRegion1    LocationLevel = "region_1"
	LevelRegion2    LocationLevel = "region_2"
	LevelRegion3    LocationLevel = "region_3"
	LevelSettlement LocationLevel = "settlement"
	LevelDistrict   LocationLevel = "district"
	LevelPOI        LocationLevel = "poi"
	LevelInterior   LocationLevel = "interior"
)

var levelRanks = map[LocationLevel]int{
	LevelRoot:       0,
	LevelRegion1:    1,
	LevelRegion2:    2,
	LevelRegion3:    3,
	LevelSettlement: 4,
	LevelDistrict:   5,
	LevelPOI:        6,
	LevelInterior:   7,
}

// String returns the string representation of the level.
func (l LocationLevel) String() string {
	return string(l)
}

// IsValid reports whether l is a known level.
func (l LocationLevel) IsValid() bool {
	_, ok := levelRanks[l]
	return ok
}

// Rank returns the nesting rank of the level (root = 0), or -1 if unknown.
func (l LocationLevel) Rank() int {
	r, ok := levelRanks[l]
	if !ok {
		return -1
	}
	return r
}

// DefaultLabel returns a human-readable label used when no display label is set.
func (l LocationLevel) DefaultLabel() string {
	switch l {
	case LevelRoot:
		return "World"
	case LevelRegion1:
		return "Region"
	case LevelRegion2:
		return "Subregion"
	case LevelRegion3:
		return "Area"
	case LevelSettlement:
		return "Settlement"
	case LevelDistrict:
		return "District"
	case LevelPOI:
		return "Point of Interest"
	case LevelInterior:
		return "Interior"
	default:
		return string(l)
	}
}

// Location states. State is free text; these are the values the world uses by default.
const (
	StatePeaceful   = "peaceful"
	StateUnderSiege = "under_siege"
	StateDestroyed  = "destroyed"
)

// Display types for map rendering.
const (
	DisplayPin  = "pin"
	DisplayArea = "area"
)

// MapDisplay holds presentation metadata for a location on its parent's map.
type MapDisplay struct {
	DisplayType string  `json:"display_type"`
	IsContainer bool    `json:"is_map_container"`
	ImagePath   string  `json:"map_image_path,omitempty"`
	Width       int     `json:"map_width,omitempty"`
	Height      int     `json:"map_height,omitempty"`
	PinIcon     string  `json:"pin_icon"`
	PinColor    string  `json:"pin_color"`
	PinSize     float64 `json:"pin_size"`
}

// DefaultMapDisplay returns the pin styling applied to new locations.
func DefaultMapDisplay() MapDisplay {
	return MapDisplay{
		DisplayType: DisplayPin,
		PinIcon:     "circle",
		PinColor:    "#3388ff",
		PinSize:     15,
	}
}

// Location is a node in both the containment hierarchy (ParentID) and the
// travel graph (via Connection).
type Location struct {
	ID                   ulid.ULID     `json:"id"`
	Name                 string        `json:"name"`
	Level                LocationLevel `json:"level"`
	DisplayLabel         string        `json:"display_label,omitempty"`
	ParentID             *ulid.ULID    `json:"parent_id,omitempty"`
	Depth                int           `json:"depth"`
	ChildrenGenerated    bool          `json:"children_generated"`
	Position             Position      `json:"position"`
	Description          string        `json:"description"`
	AtmosphereTags       StringSet     `json:"atmosphere_tags"`
	EconomicFunction     string        `json:"economic_function,omitempty"`
	PopulationLevel      string        `json:"population_level,omitempty"`
	Secrets              StringSet     `json:"secrets"`
	ControllingFactionID *ulid.ULID    `json:"controlling_faction_id,omitempty"`
	State                string        `json:"current_state"`
	Visited              bool          `json:"visited"`
	Discovered           bool          `json:"discovered"`
	LastVisitedDay       *int          `json:"last_visited_day,omitempty"`
	Map                  MapDisplay    `json:"map"`
	CreatedAt            time.Time     `json:"created_at"`
}

// NewLocation creates a location with a fresh ID and default state.
func NewLocation(name string, level LocationLevel) *Location {
	return NewLocationWithID(core.NewULID(), name, level)
}

// NewLocationWithID creates a location with the given ID.
func NewLocationWithID(id ulid.ULID, name string, level LocationLevel) *Location {
	return &Location{
		ID:             id,
		Name:           name,
		Level:          level,
		AtmosphereTags: StringSet{},
		Secrets:        StringSet{},
		State:          StatePeaceful,
		Map:            DefaultMapDisplay(),
		CreatedAt:      time.Now().UTC(),
	}
}

// Label returns the display label, falling back to the level's default label.
func (l *Location) Label() string {
	if l.DisplayLabel != "" {
		return l.DisplayLabel
	}
	return l.Level.DefaultLabel()
}

// IsRoot reports whether the location has no parent.
func (l *Location) IsRoot() bool {
	return l.ParentID == nil
}

// IsChildOf reports whether l's parent is other.
func (l *Location) IsChildOf(other *Location) bool {
	return l.ParentID != nil && other != nil && *l.ParentID == other.ID
}

// SetParent attaches l beneath parent and recomputes depth. A nil parent makes l a root.
func (l *Location) SetParent(parent *Location) {
	if parent == nil {
		l.ParentID = nil
		l.Depth = 0
		return
	}
	id := parent.ID
	l.ParentID = &id
	l.Depth = parent.Depth + 1
}

// MarkVisited records a visit on the given world day. Visiting implies discovery.
func (l *Location) MarkVisited(day int) {
	l.Visited = true
	l.Discovered = true
	d := day
	l.LastVisitedDay = &d
}

// Validate checks the location's invariants.
func (l *Location) Validate() error {
	if err := ValidateName(l.Name); err != nil {
		return err
	}
	if !l.Level.IsValid() {
		return &ValidationError{Field: "level", Message: fmt.Sprintf("unknown location level %q", l.Level)}
	}
	if l.ParentID != nil && *l.ParentID == l.ID {
		return &ValidationError{Field: "parent_id", Message: "location cannot be its own parent"}
	}
	if l.Depth < 0 {
		return &ValidationError{Field: "depth", Message: "cannot be negative"}
	}
	if err := ValidateDescription(l.Description); err != nil {
		return err
	}
	if err := ValidateStringList("atmosphere_tags", l.AtmosphereTags); err != nil {
		return err
	}
	if err := ValidateStringList("secrets", l.Secrets); err != nil {
		return err
	}
	if l.Map.DisplayType != DisplayPin && l.Map.DisplayType != DisplayArea {
		return &ValidationError{Field: "display_type", Message: fmt.Sprintf("must be %q or %q", DisplayPin, DisplayArea)}
	}
	if err := ValidateColor("pin_color", l.Map.PinColor); err != nil {
		return err
	}
	if l.Position.X < 0 || l.Position.X > 100 || l.Position.Y < 0 || l.Position.Y > 100 {
		return &ValidationError{Field: "position", Message: "x and y must be between 0 and 100"}
	}
	return nil
}
