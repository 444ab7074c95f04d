// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

// Package seed imports authored world files and exports world snapshots.
//
// A world file is YAML. Entities refer to each other by name, and every
// referenced location, faction or NPC must be declared in the same file.
// Locations must be declared after their parent.
package seed

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/worldkeeper/worldkeeper/internal/world"
)

// Error codes returned by this package.
const (
	CodeInvalid        = "SEED_INVALID"
	CodeUnsupported    = "SEED_UNSUPPORTED_VERSION"
	CodeApplyFailed    = "SEED_FAILED"
	CodeSnapshotFailed = "SNAPSHOT_FAILED"
)

// FormatVersion is the world file format this build writes.
const FormatVersion = "1.0.0"

// supportedFormats is the range of format versions this build reads.
const supportedFormats = "^1.0.0"

// WorldFile is an authored world.
type WorldFile struct {
	FormatVersion        string                    `json:"format_version" yaml:"format_version" jsonschema:"description=Semantic version of the world file format,example=1.0.0"`
	Bible                *world.WorldBible         `json:"world_bible,omitempty" yaml:"world_bible,omitempty"`
	Clock                *ClockSpec                `json:"clock,omitempty" yaml:"clock,omitempty"`
	Factions             []FactionSpec             `json:"factions,omitempty" yaml:"factions,omitempty"`
	FactionRelationships []FactionRelationshipSpec `json:"faction_relationships,omitempty" yaml:"faction_relationships,omitempty"`
	Locations            []LocationSpec            `json:"locations,omitempty" yaml:"locations,omitempty"`
	Connections          []ConnectionSpec          `json:"connections,omitempty" yaml:"connections,omitempty"`
	NPCs                 []NPCSpec                 `json:"npcs,omitempty" yaml:"npcs,omitempty"`
	Players              []PlayerSpec              `json:"players,omitempty" yaml:"players,omitempty"`
	Quests               []QuestSpec               `json:"quests,omitempty" yaml:"quests,omitempty"`
	History              []HistorySpec             `json:"history,omitempty" yaml:"history,omitempty"`
}

// ClockSpec sets the starting clock of a fresh world.
type ClockSpec struct {
	Day  int `json:"day" yaml:"day" jsonschema:"minimum=1"`
	Hour int `json:"hour" yaml:"hour" jsonschema:"minimum=0,maximum=23"`
}

// FactionSpec declares a faction.
type FactionSpec struct {
	Name       string   `json:"name" yaml:"name" jsonschema:"minLength=1"`
	Ideology   string   `json:"ideology,omitempty" yaml:"ideology,omitempty"`
	Methods    []string `json:"methods,omitempty" yaml:"methods,omitempty"`
	Aesthetic  string   `json:"aesthetic,omitempty" yaml:"aesthetic,omitempty"`
	PowerLevel *int     `json:"power_level,omitempty" yaml:"power_level,omitempty" jsonschema:"minimum=1,maximum=100"`
	GoalsShort []string `json:"goals_short_term,omitempty" yaml:"goals_short_term,omitempty"`
	GoalsLong  []string `json:"goals_long_term,omitempty" yaml:"goals_long_term,omitempty"`
	Leader     string   `json:"leader,omitempty" yaml:"leader,omitempty"`
	Secrets    []string `json:"secrets,omitempty" yaml:"secrets,omitempty"`
}

// FactionRelationshipSpec links two declared factions.
type FactionRelationshipSpec struct {
	A            string `json:"a" yaml:"a"`
	B            string `json:"b" yaml:"b"`
	Type         string `json:"type" yaml:"type" jsonschema:"enum=allied,enum=neutral,enum=rival,enum=war,enum=vassal"`
	Stability    *int   `json:"stability,omitempty" yaml:"stability,omitempty" jsonschema:"minimum=0,maximum=100"`
	PublicReason string `json:"public_reason,omitempty" yaml:"public_reason,omitempty"`
	SecretReason string `json:"secret_reason,omitempty" yaml:"secret_reason,omitempty"`
}

// PositionSpec places a location on its parent's map, in percent.
type PositionSpec struct {
	X float64 `json:"x" yaml:"x" jsonschema:"minimum=0,maximum=100"`
	Y float64 `json:"y" yaml:"y" jsonschema:"minimum=0,maximum=100"`
}

// LocationSpec declares a location. Level defaults to the level below the
// parent's, or root for a location without a parent. Position defaults to
// a deterministic placement on the parent's map.
type LocationSpec struct {
	Name               string        `json:"name" yaml:"name" jsonschema:"minLength=1"`
	Parent             string        `json:"parent,omitempty" yaml:"parent,omitempty"`
	Level              string        `json:"level,omitempty" yaml:"level,omitempty" jsonschema:"enum=root,enum=region_1,enum=region_2,enum=region_3,enum=settlement,enum=district,enum=poi,enum=interior"`
	DisplayLabel       string        `json:"display_label,omitempty" yaml:"display_label,omitempty"`
	Description        string        `json:"description,omitempty" yaml:"description,omitempty"`
	Position           *PositionSpec `json:"position,omitempty" yaml:"position,omitempty"`
	AtmosphereTags     []string      `json:"atmosphere_tags,omitempty" yaml:"atmosphere_tags,omitempty"`
	EconomicFunction   string        `json:"economic_function,omitempty" yaml:"economic_function,omitempty"`
	PopulationLevel    string        `json:"population_level,omitempty" yaml:"population_level,omitempty"`
	ControllingFaction string        `json:"controlling_faction,omitempty" yaml:"controlling_faction,omitempty"`
	Secrets            []string      `json:"secrets,omitempty" yaml:"secrets,omitempty"`
	// Hidden locations start undiscovered.
	Hidden bool `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	// TravelTimeToParent adds a walking connection to the parent when set.
	TravelTimeToParent *float64 `json:"travel_time_to_parent,omitempty" yaml:"travel_time_to_parent,omitempty" jsonschema:"minimum=0"`
}

// ConnectionSpec declares a travel edge.
type ConnectionSpec struct {
	From            string   `json:"from" yaml:"from"`
	To              string   `json:"to" yaml:"to"`
	TravelType      string   `json:"travel_type" yaml:"travel_type" jsonschema:"minLength=1"`
	TravelTimeHours float64  `json:"travel_time_hours" yaml:"travel_time_hours" jsonschema:"minimum=0"`
	OneWay          bool     `json:"one_way,omitempty" yaml:"one_way,omitempty"`
	Hidden          bool     `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Difficulty      int      `json:"difficulty,omitempty" yaml:"difficulty,omitempty"`
	Description     string   `json:"description,omitempty" yaml:"description,omitempty"`
	Requirements    []string `json:"requirements,omitempty" yaml:"requirements,omitempty"`
}

// ItemSpec is an inventory stack.
type ItemSpec struct {
	ID          string         `json:"id" yaml:"id" jsonschema:"minLength=1"`
	Name        string         `json:"name" yaml:"name" jsonschema:"minLength=1"`
	Type        string         `json:"type" yaml:"type" jsonschema:"enum=consumable,enum=weapon,enum=armor,enum=quest_item,enum=misc"`
	Value       int            `json:"value,omitempty" yaml:"value,omitempty" jsonschema:"minimum=0"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Stackable   bool           `json:"stackable,omitempty" yaml:"stackable,omitempty"`
	Effects     map[string]int `json:"effects,omitempty" yaml:"effects,omitempty"`
	Quantity    int            `json:"quantity,omitempty" yaml:"quantity,omitempty" jsonschema:"minimum=1"`
}

// NPCSpec declares a non-player character.
type NPCSpec struct {
	Name        string     `json:"name" yaml:"name" jsonschema:"minLength=1"`
	Tier        string     `json:"tier,omitempty" yaml:"tier,omitempty" jsonschema:"enum=major,enum=minor,enum=ambient"`
	Species     string     `json:"species,omitempty" yaml:"species,omitempty"`
	Profession  string     `json:"profession,omitempty" yaml:"profession,omitempty"`
	Faction     string     `json:"faction,omitempty" yaml:"faction,omitempty"`
	Home        string     `json:"home,omitempty" yaml:"home,omitempty"`
	Location    string     `json:"location,omitempty" yaml:"location,omitempty"`
	Mood        string     `json:"mood,omitempty" yaml:"mood,omitempty"`
	Physical    string     `json:"description_physical,omitempty" yaml:"description_physical,omitempty"`
	Personality string     `json:"description_personality,omitempty" yaml:"description_personality,omitempty"`
	Voice       string     `json:"voice_pattern,omitempty" yaml:"voice_pattern,omitempty"`
	Goals       []string   `json:"goals,omitempty" yaml:"goals,omitempty"`
	Secrets     []string   `json:"secrets,omitempty" yaml:"secrets,omitempty"`
	Skills      []string   `json:"skills,omitempty" yaml:"skills,omitempty"`
	Currency    int        `json:"currency,omitempty" yaml:"currency,omitempty" jsonschema:"minimum=0"`
	Inventory   []ItemSpec `json:"inventory,omitempty" yaml:"inventory,omitempty"`
}

// PlayerSpec declares a player save slot.
type PlayerSpec struct {
	Name        string     `json:"name" yaml:"name" jsonschema:"minLength=1"`
	Location    string     `json:"location,omitempty" yaml:"location,omitempty"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Background  string     `json:"background,omitempty" yaml:"background,omitempty"`
	Traits      []string   `json:"traits,omitempty" yaml:"traits,omitempty"`
	Currency    int        `json:"currency,omitempty" yaml:"currency,omitempty" jsonschema:"minimum=0"`
	Inventory   []ItemSpec `json:"inventory,omitempty" yaml:"inventory,omitempty"`
}

// QuestSpec declares a quest. Reputation rewards are keyed by faction name.
type QuestSpec struct {
	Title            string         `json:"title" yaml:"title" jsonschema:"minLength=1"`
	Description      string         `json:"description,omitempty" yaml:"description,omitempty"`
	Status           string         `json:"status,omitempty" yaml:"status,omitempty" jsonschema:"enum=not_started,enum=active,enum=completed,enum=failed"`
	Objectives       []string       `json:"objectives,omitempty" yaml:"objectives,omitempty"`
	AssignedBy       string         `json:"assigned_by,omitempty" yaml:"assigned_by,omitempty"`
	RewardCurrency   int            `json:"reward_currency,omitempty" yaml:"reward_currency,omitempty" jsonschema:"minimum=0"`
	RewardItems      []string       `json:"reward_items,omitempty" yaml:"reward_items,omitempty"`
	RewardReputation map[string]int `json:"reward_reputation,omitempty" yaml:"reward_reputation,omitempty"`
}

// HistorySpec declares a historical event.
type HistorySpec struct {
	Name         string   `json:"name" yaml:"name" jsonschema:"minLength=1"`
	Description  string   `json:"description" yaml:"description"`
	Era          string   `json:"era" yaml:"era"`
	Significance string   `json:"significance,omitempty" yaml:"significance,omitempty"`
	Factions     []string `json:"factions,omitempty" yaml:"factions,omitempty"`
	Locations    []string `json:"locations,omitempty" yaml:"locations,omitempty"`
}

// Parse validates data against the world file schema, decodes it and
// checks its references.
func Parse(data []byte) (*WorldFile, error) {
	if err := ValidateSchema(data); err != nil {
		return nil, err
	}
	var wf WorldFile
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, oops.Code(CodeInvalid).Wrapf(err, "decode world file")
	}
	if err := wf.Validate(); err != nil {
		return nil, err
	}
	return &wf, nil
}

// CheckVersion reports whether this build can read a world file with the
// given format version.
func CheckVersion(v string) error {
	version, err := semver.StrictNewVersion(v)
	if err != nil {
		return oops.Code(CodeUnsupported).With("format_version", v).Wrapf(err, "format_version is not a semantic version")
	}
	constraint, err := semver.NewConstraint(supportedFormats)
	if err != nil {
		return oops.Code(CodeUnsupported).Wrap(err)
	}
	if !constraint.Check(version) {
		return oops.Code(CodeUnsupported).With("format_version", v).With("supported", supportedFormats).
			Errorf("world file format %s is not supported", v)
	}
	return nil
}

// Validate checks the version, name uniqueness and references. Every
// problem is reported in one error.
func (wf *WorldFile) Validate() error {
	if err := CheckVersion(wf.FormatVersion); err != nil {
		return err
	}

	v := &validator{}
	factions := v.names("faction", len(wf.Factions), func(i int) string { return wf.Factions[i].Name })
	npcs := v.names("npc", len(wf.NPCs), func(i int) string { return wf.NPCs[i].Name })
	v.names("player", len(wf.Players), func(i int) string { return wf.Players[i].Name })
	v.names("quest", len(wf.Quests), func(i int) string { return wf.Quests[i].Title })

	locations := map[string]bool{}
	for i, l := range wf.Locations {
		where := fmt.Sprintf("locations[%d]", i)
		if locations[l.Name] {
			v.addf("%s: duplicate location name %q", where, l.Name)
		}
		if l.Parent != "" && !locations[l.Parent] {
			v.addf("%s: parent %q must be declared earlier", where, l.Parent)
		}
		if l.Parent == "" && l.Level != "" && l.Level != string(world.LevelRoot) {
			v.addf("%s: location without a parent must be level root", where)
		}
		v.ref(where+".controlling_faction", l.ControllingFaction, factions)
		locations[l.Name] = true
	}

	for i, r := range wf.FactionRelationships {
		where := fmt.Sprintf("faction_relationships[%d]", i)
		v.ref(where+".a", r.A, factions)
		v.ref(where+".b", r.B, factions)
		if r.A == r.B {
			v.addf("%s: a faction cannot have a relationship with itself", where)
		}
	}
	for i, c := range wf.Connections {
		where := fmt.Sprintf("connections[%d]", i)
		v.ref(where+".from", c.From, locations)
		v.ref(where+".to", c.To, locations)
		if c.From == c.To {
			v.addf("%s: connection must join two different locations", where)
		}
	}
	for i, n := range wf.NPCs {
		where := fmt.Sprintf("npcs[%d]", i)
		v.ref(where+".faction", n.Faction, factions)
		v.ref(where+".home", n.Home, locations)
		v.ref(where+".location", n.Location, locations)
	}
	for i, p := range wf.Players {
		v.ref(fmt.Sprintf("players[%d].location", i), p.Location, locations)
	}
	for i, q := range wf.Quests {
		where := fmt.Sprintf("quests[%d]", i)
		v.ref(where+".assigned_by", q.AssignedBy, npcs)
		for name := range q.RewardReputation {
			v.ref(where+".reward_reputation", name, factions)
		}
	}
	for i, h := range wf.History {
		where := fmt.Sprintf("history[%d]", i)
		for _, f := range h.Factions {
			v.ref(where+".factions", f, factions)
		}
		for _, l := range h.Locations {
			v.ref(where+".locations", l, locations)
		}
	}
	return v.err()
}

type validator struct {
	problems []string
}

func (v *validator) addf(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) names(kind string, n int, name func(int) string) map[string]bool {
	seen := make(map[string]bool, n)
	for i := range n {
		if seen[name(i)] {
			v.addf("duplicate %s name %q", kind, name(i))
		}
		seen[name(i)] = true
	}
	return seen
}

// ref records a problem when a non-empty reference is not declared.
func (v *validator) ref(where, name string, declared map[string]bool) {
	if name != "" && !declared[name] {
		v.addf("%s: %q is not declared", where, name)
	}
}

func (v *validator) err() error {
	if len(v.problems) == 0 {
		return nil
	}
	return oops.Code(CodeInvalid).With("problems", v.problems).
		Errorf("world file has %d problem(s): %s", len(v.problems), strings.Join(v.problems, "; "))
}
