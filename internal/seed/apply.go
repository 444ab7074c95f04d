// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package seed

import (
	"context"
	"errors"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/worldkeeper/worldkeeper/internal/world"
)

// Report counts what Apply created and what already existed.
type Report struct {
	Created map[string]int `json:"created"`
	Skipped map[string]int `json:"skipped"`
	// Fresh is set when the database held no locations before seeding.
	Fresh bool `json:"fresh"`
}

func newReport() *Report {
	return &Report{Created: map[string]int{}, Skipped: map[string]int{}}
}

func (r *Report) record(kind string, created bool) {
	if created {
		r.Created[kind]++
		return
	}
	r.Skipped[kind]++
}

// Apply writes wf into the world in one unit of work. Entities that already
// exist by name (title for quests) are left untouched, so applying the same
// file twice creates nothing the second time. The clock is only set on a
// fresh world.
func Apply(ctx context.Context, b world.Beginner, wf *WorldFile) (*Report, error) {
	report := newReport()
	err := world.InTransaction(ctx, b, func(uow world.UnitOfWork) error {
		a := &applier{uow: uow, report: report, locations: map[string]*world.Location{},
			factions: map[string]ulid.ULID{}, npcs: map[string]ulid.ULID{}}
		return a.apply(ctx, wf)
	})
	if err != nil {
		// Store errors that already carry a code keep it.
		return nil, oops.Code(CodeApplyFailed).With("operation", "apply world file").Wrap(err)
	}
	slog.InfoContext(ctx, "world seeded", "created", report.Created, "skipped", report.Skipped, "fresh", report.Fresh)
	return report, nil
}

type applier struct {
	uow       world.UnitOfWork
	report    *Report
	locations map[string]*world.Location
	factions  map[string]ulid.ULID
	npcs      map[string]ulid.ULID
}

func (a *applier) apply(ctx context.Context, wf *WorldFile) error {
	existing, err := a.uow.Locations().List(ctx, world.LocationFilter{})
	if err != nil {
		return err
	}
	a.report.Fresh = len(existing) == 0

	steps := []func(context.Context, *WorldFile) error{
		a.bible, a.clock, a.createFactions, a.relationships, a.createLocations,
		a.connections, a.createNPCs, a.players, a.quests, a.history,
	}
	for _, step := range steps {
		if err := step(ctx, wf); err != nil {
			return err
		}
	}
	return nil
}

// exists turns a by-name lookup into a found flag. Only not-found errors
// are swallowed.
func exists(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, world.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (a *applier) bible(ctx context.Context, wf *WorldFile) error {
	if wf.Bible == nil {
		return nil
	}
	_, err := a.uow.Lore().WorldBible(ctx)
	found, err := exists(err)
	if err != nil {
		return err
	}
	a.report.record("world_bible", !found)
	if found {
		return nil
	}
	return a.uow.Lore().SaveWorldBible(ctx, wf.Bible)
}

func (a *applier) clock(ctx context.Context, wf *WorldFile) error {
	if wf.Clock == nil || !a.report.Fresh {
		return nil
	}
	return a.uow.Clock().Save(ctx, &world.WorldClock{Day: wf.Clock.Day, Hour: wf.Clock.Hour})
}

func (a *applier) createFactions(ctx context.Context, wf *WorldFile) error {
	for _, spec := range wf.Factions {
		f, err := a.uow.Factions().GetByName(ctx, spec.Name)
		found, err := exists(err)
		if err != nil {
			return err
		}
		if !found {
			f = world.NewFaction(spec.Name)
			f.Ideology = spec.Ideology
			f.Methods = world.StringSet(spec.Methods).Clone()
			f.Aesthetic = spec.Aesthetic
			if spec.PowerLevel != nil {
				f.PowerLevel = *spec.PowerLevel
			}
			f.GoalsShort = world.StringSet(spec.GoalsShort).Clone()
			f.GoalsLong = world.StringSet(spec.GoalsLong).Clone()
			f.Leadership.LeaderName = spec.Leader
			f.Secrets = world.StringSet(spec.Secrets).Clone()
			if err := a.uow.Factions().Create(ctx, f); err != nil {
				return err
			}
		}
		a.factions[spec.Name] = f.ID
		a.report.record("factions", !found)
	}
	return nil
}

func (a *applier) relationships(ctx context.Context, wf *WorldFile) error {
	for _, spec := range wf.FactionRelationships {
		rel := world.NewFactionRelationship(a.factions[spec.A], a.factions[spec.B], world.RelationshipType(spec.Type))
		if spec.Stability != nil {
			rel.Stability = *spec.Stability
		}
		rel.PublicReason = spec.PublicReason
		rel.SecretReason = spec.SecretReason
		_, created, err := a.uow.Factions().UpsertRelationship(ctx, rel)
		if err != nil {
			return err
		}
		a.report.record("faction_relationships", created)
	}
	return nil
}

func (a *applier) createLocations(ctx context.Context, wf *WorldFile) error {
	placed := map[string]int{}
	for _, spec := range wf.Locations {
		loc, err := a.uow.Locations().GetByName(ctx, spec.Name)
		found, err := exists(err)
		if err != nil {
			return err
		}
		if found {
			a.locations[spec.Name] = loc
			a.report.record("locations", false)
			continue
		}

		var parent *world.Location
		if spec.Parent != "" {
			parent = a.locations[spec.Parent]
		}
		level := world.LocationLevel(spec.Level)
		if level == "" {
			level = world.LevelRoot
			if parent != nil {
				level = world.ChildLevel(parent.Level)
			}
		}

		loc = world.NewLocation(spec.Name, level)
		loc.SetParent(parent)
		loc.DisplayLabel = spec.DisplayLabel
		loc.Description = spec.Description
		loc.AtmosphereTags = world.StringSet(spec.AtmosphereTags).Clone()
		loc.EconomicFunction = spec.EconomicFunction
		loc.PopulationLevel = spec.PopulationLevel
		loc.Secrets = world.StringSet(spec.Secrets).Clone()
		loc.Discovered = !spec.Hidden
		if spec.ControllingFaction != "" {
			id := a.factions[spec.ControllingFaction]
			loc.ControllingFactionID = &id
		}
		switch {
		case spec.Position != nil:
			loc.Position = world.Position{X: spec.Position.X, Y: spec.Position.Y}
		case parent != nil:
			loc.Position = world.PlaceChild(parent.ID, placed[spec.Parent])
		default:
			loc.Position = world.Position{X: 50, Y: 50}
		}
		if parent != nil {
			placed[spec.Parent]++
			if !parent.ChildrenGenerated {
				parent.ChildrenGenerated = true
				if err := a.uow.Locations().Update(ctx, parent); err != nil {
					return err
				}
			}
		}
		if err := a.uow.Locations().Create(ctx, loc); err != nil {
			return err
		}
		if parent != nil && spec.TravelTimeToParent != nil {
			conn := world.NewConnection(parent.ID, loc.ID, world.TravelWalk, *spec.TravelTimeToParent)
			if err := a.uow.Connections().Create(ctx, conn); err != nil {
				return err
			}
			a.report.record("connections", true)
		}
		a.locations[spec.Name] = loc
		a.report.record("locations", true)
	}
	return nil
}

func (a *applier) connections(ctx context.Context, wf *WorldFile) error {
	for _, spec := range wf.Connections {
		from, to := a.locations[spec.From].ID, a.locations[spec.To].ID
		_, err := a.uow.Connections().Between(ctx, from, to)
		found, err := exists(err)
		if err != nil {
			return err
		}
		a.report.record("connections", !found)
		if found {
			continue
		}
		c := world.NewConnection(from, to, spec.TravelType, spec.TravelTimeHours)
		c.Bidirectional = !spec.OneWay
		c.Hidden = spec.Hidden
		c.Discovered = !spec.Hidden
		c.Difficulty = spec.Difficulty
		c.Description = spec.Description
		c.Requirements = world.StringSet(spec.Requirements).Clone()
		if err := a.uow.Connections().Create(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (a *applier) locationID(name string) *ulid.ULID {
	if name == "" {
		return nil
	}
	id := a.locations[name].ID
	return &id
}

func inventory(specs []ItemSpec) (world.Inventory, error) {
	inv := world.Inventory{}
	for _, s := range specs {
		qty := s.Quantity
		if qty == 0 {
			qty = 1
		}
		item := world.Item{
			ID: s.ID, Name: s.Name, Type: world.ItemType(s.Type), Value: s.Value,
			Description: s.Description, Stackable: s.Stackable, Effects: s.Effects, Quantity: qty,
		}
		if err := world.FromValidation(item.Validate()); err != nil {
			return nil, err
		}
		if err := inv.Add(item); err != nil {
			return nil, err
		}
	}
	return inv, nil
}

func (a *applier) createNPCs(ctx context.Context, wf *WorldFile) error {
	for _, spec := range wf.NPCs {
		n, err := a.uow.NPCs().GetByName(ctx, spec.Name)
		found, err := exists(err)
		if err != nil {
			return err
		}
		if !found {
			tier := world.NPCTier(spec.Tier)
			if tier == "" {
				tier = world.TierMinor
			}
			n = world.NewNPC(spec.Name, tier)
			n.Species = spec.Species
			n.Profession = spec.Profession
			if spec.Faction != "" {
				id := a.factions[spec.Faction]
				n.FactionID = &id
			}
			n.HomeLocationID = a.locationID(spec.Home)
			n.CurrentLocationID = a.locationID(spec.Location)
			if n.CurrentLocationID == nil {
				n.CurrentLocationID = n.HomeLocationID
			}
			if spec.Mood != "" {
				n.CurrentMood = spec.Mood
			}
			n.DescriptionPhysical = spec.Physical
			n.DescriptionPersonality = spec.Personality
			n.VoicePattern = spec.Voice
			n.Goals = world.StringSet(spec.Goals).Clone()
			n.Secrets = world.StringSet(spec.Secrets).Clone()
			n.Skills = world.StringSet(spec.Skills).Clone()
			n.Currency = spec.Currency
			if n.Inventory, err = inventory(spec.Inventory); err != nil {
				return oops.With("npc", spec.Name).Wrap(err)
			}
			if err := a.uow.NPCs().Create(ctx, n); err != nil {
				return err
			}
		}
		a.npcs[spec.Name] = n.ID
		a.report.record("npcs", !found)
	}
	return nil
}

func (a *applier) players(ctx context.Context, wf *WorldFile) error {
	for _, spec := range wf.Players {
		_, err := a.uow.Players().GetByName(ctx, spec.Name)
		found, err := exists(err)
		if err != nil {
			return err
		}
		a.report.record("players", !found)
		if found {
			continue
		}
		p := world.NewPlayer(spec.Name)
		p.CurrentLocationID = a.locationID(spec.Location)
		p.Description = spec.Description
		p.Background = spec.Background
		p.Traits = world.StringSet(spec.Traits).Clone()
		p.Currency = spec.Currency
		if p.Inventory, err = inventory(spec.Inventory); err != nil {
			return oops.With("player", spec.Name).Wrap(err)
		}
		if err := a.uow.Players().Create(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (a *applier) quests(ctx context.Context, wf *WorldFile) error {
	if len(wf.Quests) == 0 {
		return nil
	}
	all, err := a.uow.Quests().List(ctx, nil)
	if err != nil {
		return err
	}
	titles := make(map[string]bool, len(all))
	for _, q := range all {
		titles[q.Title] = true
	}

	for _, spec := range wf.Quests {
		a.report.record("quests", !titles[spec.Title])
		if titles[spec.Title] {
			continue
		}
		q := world.NewQuest(spec.Title)
		q.Description = spec.Description
		if spec.Status != "" {
			q.Status = world.QuestStatus(spec.Status)
		}
		q.Objectives = world.StringSet(spec.Objectives).Clone()
		if spec.AssignedBy != "" {
			id := a.npcs[spec.AssignedBy]
			q.AssignedByNPCID = &id
		}
		q.Rewards = world.Rewards{Currency: spec.RewardCurrency, Items: spec.RewardItems}
		if len(spec.RewardReputation) > 0 {
			q.Rewards.Reputation = make(map[string]int, len(spec.RewardReputation))
			for name, delta := range spec.RewardReputation {
				q.Rewards.Reputation[a.factions[name].String()] = delta
			}
		}
		if err := a.uow.Quests().Create(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (a *applier) history(ctx context.Context, wf *WorldFile) error {
	if len(wf.History) == 0 {
		return nil
	}
	all, err := a.uow.Lore().HistoricalEvents(ctx)
	if err != nil {
		return err
	}
	names := make(map[string]bool, len(all))
	for _, h := range all {
		names[h.Name] = true
	}

	for _, spec := range wf.History {
		a.report.record("history", !names[spec.Name])
		if names[spec.Name] {
			continue
		}
		h := world.NewHistoricalEvent(spec.Name, spec.Era)
		h.Description = spec.Description
		h.Significance = spec.Significance
		for _, f := range spec.Factions {
			h.FactionsInvolved.Add(a.factions[f])
		}
		for _, l := range spec.Locations {
			h.LocationsInvolved.Add(a.locations[l].ID)
		}
		if err := a.uow.Lore().CreateHistoricalEvent(ctx, h); err != nil {
			return err
		}
	}
	return nil
}
