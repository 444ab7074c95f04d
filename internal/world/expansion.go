// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package world

import (
	"context"
	"hash/fnv"

	"github.com/oklog/ulid/v2"
	opensimplex "github.com/ojrac/opensimplex-go"
)

// ExpansionSpec describes a location created on demand beneath an existing one.
type ExpansionSpec struct {
	Name           string
	Description    string
	Level          LocationLevel
	DisplayLabel   string
	AtmosphereTags StringSet
	Position       *Position
	TravelType     string
	// TravelTimeHours defaults to HierarchyTravelHours when zero.
	TravelTimeHours float64
	// MarkParentGenerated sets the parent's ChildrenGenerated flag.
	MarkParentGenerated bool
}

// ExpandLocation creates a child beneath parentID, discovered but not yet
// visited, and links it to the parent with a bidirectional connection.
func ExpandLocation(ctx context.Context, uow UnitOfWork, parentID ulid.ULID, spec ExpansionSpec) (*Location, *Connection, error) {
	parent, err := uow.Locations().Get(ctx, parentID)
	if err != nil {
		return nil, nil, err
	}
	siblings, err := uow.Locations().Children(ctx, parentID)
	if err != nil {
		return nil, nil, err
	}

	level := spec.Level
	if level == "" {
		level = ChildLevel(parent.Level)
	}
	child := NewLocation(spec.Name, level)
	child.SetParent(parent)
	child.Description = spec.Description
	child.DisplayLabel = spec.DisplayLabel
	child.Discovered = true
	if spec.AtmosphereTags != nil {
		child.AtmosphereTags = spec.AtmosphereTags.Clone()
	}
	if spec.Position != nil {
		child.Position = *spec.Position
	} else {
		child.Position = PlaceChild(parent.ID, len(siblings))
	}
	if err := child.Validate(); err != nil {
		return nil, nil, FromValidation(err)
	}
	if err := uow.Locations().Create(ctx, child); err != nil {
		return nil, nil, err
	}

	travelType := spec.TravelType
	if travelType == "" {
		travelType = TravelWalk
	}
	hours := spec.TravelTimeHours
	if hours == 0 {
		hours = HierarchyTravelHours
	}
	conn := NewConnection(parent.ID, child.ID, travelType, hours)
	if err := conn.Validate(); err != nil {
		return nil, nil, FromValidation(err)
	}
	if err := uow.Connections().Create(ctx, conn); err != nil {
		return nil, nil, err
	}

	if spec.MarkParentGenerated && !parent.ChildrenGenerated {
		parent.ChildrenGenerated = true
		parent.Map.IsContainer = true
		if err := uow.Locations().Update(ctx, parent); err != nil {
			return nil, nil, err
		}
	}
	return child, conn, nil
}

// ChildLevel returns the level one step below l, staying at interior.
func ChildLevel(l LocationLevel) LocationLevel {
	next := l.Rank() + 1
	for level, rank := range levelRanks {
		if rank == next {
			return level
		}
	}
	return LevelInterior
}

// placement keeps children away from the map edge.
const (
	placementMargin = 10.0
	placementSpan   = 100.0 - 2*placementMargin
)

// PlaceChild returns a deterministic map position for the index-th child of
// parentID. Positions are spread with OpenSimplex noise seeded from the parent
// id so the same world lays out the same way every time.
func PlaceChild(parentID ulid.ULID, index int) Position {
	h := fnv.New64a()
	_, _ = h.Write(parentID[:])
	seed := int64(h.Sum64() >> 1)

	noise := opensimplex.NewNormalized(seed)
	t := float64(index) * 1.7
	x := placementMargin + noise.Eval2(t, 0.5)*placementSpan
	y := placementMargin + noise.Eval2(0.5, t+31.3)*placementSpan
	return Position{X: roundTenth(x), Y: roundTenth(y)}
}

func roundTenth(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}
