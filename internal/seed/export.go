// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package seed

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/worldkeeper/worldkeeper/internal/world"
)

// Snapshot is a full dump of world state.
type Snapshot struct {
	FormatVersion        string                       `json:"format_version"`
	ExportedAt           time.Time                    `json:"exported_at"`
	Clock                *world.WorldClock            `json:"clock"`
	Bible                *world.WorldBible            `json:"world_bible,omitempty"`
	Locations            []*world.Location            `json:"locations"`
	Connections          []*world.Connection          `json:"connections"`
	Factions             []*world.Faction             `json:"factions"`
	FactionRelationships []*world.FactionRelationship `json:"faction_relationships"`
	NPCs                 []*world.NPC                 `json:"npcs"`
	Players              []*world.Player              `json:"players"`
	Relationships        []*world.NPCRelationship     `json:"npc_relationships"`
	Quests               []*world.Quest               `json:"quests"`
	Events               []*world.Event               `json:"events"`
	History              []*world.HistoricalEvent     `json:"history"`
}

// Collect reads the whole world inside one unit of work. The unit of work
// is never committed.
func Collect(ctx context.Context, b world.Beginner) (*Snapshot, error) {
	uow, err := b.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = uow.Rollback() }()

	snap := &Snapshot{FormatVersion: FormatVersion, ExportedAt: time.Now().UTC()}
	if snap.Clock, err = uow.Clock().Get(ctx); err != nil {
		return nil, err
	}
	switch bible, err := uow.Lore().WorldBible(ctx); {
	case err == nil:
		snap.Bible = bible
	case !errors.Is(err, world.ErrNotFound):
		return nil, err
	}
	if snap.Locations, err = uow.Locations().List(ctx, world.LocationFilter{}); err != nil {
		return nil, err
	}
	if snap.Connections, err = uow.Connections().List(ctx, world.ConnectionFilter{}); err != nil {
		return nil, err
	}
	if snap.Factions, err = uow.Factions().List(ctx); err != nil {
		return nil, err
	}
	if snap.FactionRelationships, err = factionRelationships(ctx, uow.Factions(), snap.Factions); err != nil {
		return nil, err
	}
	if snap.NPCs, err = uow.NPCs().List(ctx, world.NPCFilter{}); err != nil {
		return nil, err
	}
	if snap.Players, err = uow.Players().List(ctx); err != nil {
		return nil, err
	}
	snap.Relationships = []*world.NPCRelationship{}
	for _, p := range snap.Players {
		rels, err := uow.Relationships().ListForPlayer(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		snap.Relationships = append(snap.Relationships, rels...)
	}
	if snap.Quests, err = uow.Quests().List(ctx, nil); err != nil {
		return nil, err
	}
	if snap.Events, err = uow.Events().Recent(ctx, world.EventQuery{Limit: math.MaxInt32}); err != nil {
		return nil, err
	}
	if snap.History, err = uow.Lore().HistoricalEvents(ctx); err != nil {
		return nil, err
	}
	return snap, nil
}

func factionRelationships(ctx context.Context, store world.FactionStore, factions []*world.Faction) ([]*world.FactionRelationship, error) {
	seen := map[ulid.ULID]bool{}
	out := []*world.FactionRelationship{}
	for _, f := range factions {
		rels, err := store.Relationships(ctx, f.ID)
		if err != nil {
			return nil, err
		}
		for _, r := range rels {
			if !seen[r.ID] {
				seen[r.ID] = true
				out = append(out, r)
			}
		}
	}
	return out, nil
}

// Export collects the world and writes it to w as zstd-compressed JSON.
func Export(ctx context.Context, b world.Beginner, w io.Writer) (*Snapshot, error) {
	snap, err := Collect(ctx, b)
	if err != nil {
		return nil, err
	}
	if err := WriteSnapshot(w, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// WriteSnapshot writes snap to w as zstd-compressed JSON.
func WriteSnapshot(w io.Writer, snap *Snapshot) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return oops.Code(CodeSnapshotFailed).Wrap(err)
	}
	bw := bufio.NewWriterSize(enc, 256*1024)
	if err := json.NewEncoder(bw).Encode(snap); err != nil {
		_ = enc.Close()
		return oops.Code(CodeSnapshotFailed).With("operation", "encode snapshot").Wrap(err)
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return oops.Code(CodeSnapshotFailed).With("operation", "flush snapshot").Wrap(err)
	}
	if err := enc.Close(); err != nil {
		return oops.Code(CodeSnapshotFailed).With("operation", "finish snapshot").Wrap(err)
	}
	return nil
}

// ReadSnapshot decodes a snapshot written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, oops.Code(CodeSnapshotFailed).Wrap(err)
	}
	defer dec.Close()

	var snap Snapshot
	if err := json.NewDecoder(dec).Decode(&snap); err != nil {
		return nil, oops.Code(CodeSnapshotFailed).With("operation", "decode snapshot").Wrap(err)
	}
	if err := CheckVersion(snap.FormatVersion); err != nil {
		return nil, err
	}
	return &snap, nil
}
