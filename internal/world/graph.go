// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package world

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Destination is a place reachable from a location, either over an explicit
// connection or over an implicit parent/child edge.
type Destination struct {
	ID              ulid.ULID     `json:"id"`
	Name            string        `json:"name"`
	Type            LocationLevel `json:"type"`
	DisplayLabel    string        `json:"display_label"`
	TravelType      string        `json:"travel_type"`
	TravelTimeHours float64       `json:"travel_time_hours"`
	Requirements    StringSet     `json:"requirements"`
	Position        Position      `json:"position"`
	ConnectionID    *ulid.ULID    `json:"connection_id,omitempty"`
}

func newDestination(loc *Location, travelType string, hours float64, reqs StringSet, connID *ulid.ULID) Destination {
	if reqs == nil {
		reqs = StringSet{}
	}
	return Destination{
		ID:              loc.ID,
		Name:            loc.Name,
		Type:            loc.Level,
		DisplayLabel:    loc.Label(),
		TravelType:      travelType,
		TravelTimeHours: hours,
		Requirements:    reqs,
		Position:        loc.Position,
		ConnectionID:    connID,
	}
}

// AvailableDestinations lists where a traveller at loc can go. Explicit
// outgoing connections come first, then incoming bidirectional ones, then
// discovered children and finally the parent. Each destination appears once
// and explicit connections win over implicit edges.
func AvailableDestinations(ctx context.Context, uow UnitOfWork, loc *Location) ([]Destination, error) {
	var (
		out  []Destination
		seen = map[ulid.ULID]bool{loc.ID: true}
	)
	add := func(d Destination) {
		if seen[d.ID] {
			return
		}
		seen[d.ID] = true
		out = append(out, d)
	}

	outgoing, err := uow.Connections().Outgoing(ctx, loc.ID)
	if err != nil {
		return nil, err
	}
	incoming, err := uow.Connections().IncomingBidirectional(ctx, loc.ID)
	if err != nil {
		return nil, err
	}
	for _, c := range append(outgoing, incoming...) {
		if !c.Visible() {
			continue
		}
		other, err := uow.Locations().Get(ctx, c.Other(loc.ID))
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		connID := c.ID
		add(newDestination(other, c.TravelType, c.TravelTimeHours, c.Requirements, &connID))
	}

	children, err := uow.Locations().Children(ctx, loc.ID)
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		if child.Discovered {
			add(newDestination(child, TravelEnter, HierarchyTravelHours, nil, nil))
		}
	}

	if loc.ParentID != nil {
		parent, err := uow.Locations().Get(ctx, *loc.ParentID)
		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			return nil, err
		default:
			add(newDestination(parent, TravelExit, HierarchyTravelHours, nil, nil))
		}
	}

	if out == nil {
		out = []Destination{}
	}
	return out, nil
}

// ResolveTravelTime returns the hours needed to travel from origin to dest and
// the connection used, if any. A missing origin uses the fallback time.
func ResolveTravelTime(ctx context.Context, conns ConnectionStore, origin, dest *Location) (float64, *Connection, error) {
	if origin == nil {
		return FallbackTravelHours, nil, nil
	}
	c, err := conns.Between(ctx, origin.ID, dest.ID)
	switch {
	case err == nil:
		return c.TravelTimeHours, c, nil
	case !errors.Is(err, ErrNotFound):
		return 0, nil, err
	}
	if dest.IsChildOf(origin) || origin.IsChildOf(dest) {
		return HierarchyTravelHours, nil, nil
	}
	return FallbackTravelHours, nil, nil
}

// MoveResult describes a completed move.
type MoveResult struct {
	From            *Location `json:"-"`
	To              *Location `json:"-"`
	Destination     string    `json:"destination"`
	DestinationID   ulid.ULID `json:"destination_id"`
	TravelTimeHours float64   `json:"travel_time_hours"`
	TravelType      string    `json:"travel_type"`
}

// Move relocates the player to destID. The destination becomes visited and
// discovered with the current world day recorded. The clock is not advanced;
// callers decide whether travel time passes.
func Move(ctx context.Context, uow UnitOfWork, player *Player, destID ulid.ULID) (*MoveResult, error) {
	dest, err := uow.Locations().Get(ctx, destID)
	if err != nil {
		return nil, err
	}

	var origin *Location
	if player.CurrentLocationID != nil {
		origin, err = uow.Locations().Get(ctx, *player.CurrentLocationID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	hours, conn, err := ResolveTravelTime(ctx, uow.Connections(), origin, dest)
	if err != nil {
		return nil, err
	}
	travelType := TravelWalk
	switch {
	case conn != nil:
		travelType = conn.TravelType
	case origin != nil && dest.IsChildOf(origin):
		travelType = TravelEnter
	case origin != nil && origin.IsChildOf(dest):
		travelType = TravelExit
	}

	clock, err := uow.Clock().Get(ctx)
	if err != nil {
		return nil, err
	}
	dest.MarkVisited(clock.Day)
	if err := uow.Locations().Update(ctx, dest); err != nil {
		return nil, err
	}

	id := dest.ID
	player.CurrentLocationID = &id
	if err := uow.Players().Update(ctx, player); err != nil {
		return nil, err
	}

	return &MoveResult{
		From:            origin,
		To:              dest,
		Destination:     dest.Name,
		DestinationID:   dest.ID,
		TravelTimeHours: hours,
		TravelType:      travelType,
	}, nil
}

// LocationGetter is the lookup needed to walk the hierarchy.
type LocationGetter interface {
	Get(ctx context.Context, id ulid.ULID) (*Location, error)
}

// WalkHierarchy returns the chain of locations from the root down to id.
// A parent chain that revisits a location fails with HIERARCHY_CYCLE.
// A dangling parent reference ends the walk at the last resolvable ancestor.
func WalkHierarchy(ctx context.Context, locs LocationGetter, id ulid.ULID) ([]*Location, error) {
	loc, err := locs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	visited := map[ulid.ULID]bool{loc.ID: true}
	chain := []*Location{loc}
	for loc.ParentID != nil {
		pid := *loc.ParentID
		if visited[pid] {
			return nil, oops.Code(CodeHierarchyCycle).
				With("location_id", id.String()).
				With("repeated_id", pid.String()).
				Wrapf(ErrHierarchyCycle, "parent chain of %s revisits %s", id, pid)
		}
		parent, err := locs.Get(ctx, pid)
		if errors.Is(err, ErrNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
		visited[pid] = true
		chain = append(chain, parent)
		loc = parent
	}
	slices.Reverse(chain)
	return chain, nil
}

// Breadcrumb renders a hierarchy chain as "Root > Region > Here".
func Breadcrumb(chain []*Location) string {
	names := make([]string, len(chain))
	for i, l := range chain {
		names[i] = l.Name
	}
	return strings.Join(names, " > ")
}

// RootReport is the result of a world structure check.
type RootReport struct {
	Roots     []*Location `json:"-"`
	RootIDs   []string    `json:"roots"`
	Anomalies []string    `json:"anomalies"`
}

// OK reports whether no anomalies were found.
func (r *RootReport) OK() bool {
	return len(r.Anomalies) == 0
}

// ValidateRoots checks the containment tree. It reports missing or multiple
// roots, parent cycles and dangling parent references without changing
// anything.
func ValidateRoots(ctx context.Context, locs LocationStore) (*RootReport, error) {
	all, err := locs.List(ctx, LocationFilter{})
	if err != nil {
		return nil, err
	}
	byID := make(map[ulid.ULID]*Location, len(all))
	for _, l := range all {
		byID[l.ID] = l
	}

	report := &RootReport{RootIDs: []string{}, Anomalies: []string{}}
	for _, l := range all {
		if l.IsRoot() {
			report.Roots = append(report.Roots, l)
			report.RootIDs = append(report.RootIDs, l.ID.String())
		}
	}
	switch n := len(report.Roots); {
	case n == 0 && len(all) > 0:
		report.Anomalies = append(report.Anomalies, "no root location")
	case n > 1:
		report.Anomalies = append(report.Anomalies, fmt.Sprintf("%d root locations; expected one", n))
	}

	for _, l := range all {
		if l.ParentID == nil {
			continue
		}
		if _, ok := byID[*l.ParentID]; !ok {
			report.Anomalies = append(report.Anomalies,
				fmt.Sprintf("location %s (%s) references missing parent %s", l.Name, l.ID, *l.ParentID))
			continue
		}
		seen := map[ulid.ULID]bool{l.ID: true}
		for cur := l; cur.ParentID != nil; {
			p, ok := byID[*cur.ParentID]
			if !ok {
				break
			}
			if seen[p.ID] {
				report.Anomalies = append(report.Anomalies,
					fmt.Sprintf("location %s (%s) is in a parent cycle", l.Name, l.ID))
				break
			}
			seen[p.ID] = true
			cur = p
		}
	}
	return report, nil
}

// LocationDetail is a location together with the NPCs present there.
type LocationDetail struct {
	Location *Location
	NPCs     []*NPC
}

// LocationWithNPCs loads a location and its living occupants.
func LocationWithNPCs(ctx context.Context, uow UnitOfWork, id ulid.ULID) (*LocationDetail, error) {
	loc, err := uow.Locations().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	npcs, err := uow.NPCs().AtLocation(ctx, id, false)
	if err != nil {
		return nil, err
	}
	return &LocationDetail{Location: loc, NPCs: npcs}, nil
}
