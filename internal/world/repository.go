// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package world

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// LocationFilter narrows location listings. Nil fields match everything.
type LocationFilter struct {
	Level      *LocationLevel
	ParentID   *ulid.ULID
	Discovered *bool
}

// LocationStore manages location persistence.
type LocationStore interface {
	// Get retrieves a location by ID. Missing rows fail with LOCATION_NOT_FOUND.
	Get(ctx context.Context, id ulid.ULID) (*Location, error)

	// GetByName retrieves a location by exact name.
	GetByName(ctx context.Context, name string) (*Location, error)

	List(ctx context.Context, filter LocationFilter) ([]*Location, error)

	// Children returns the direct children of a location, ordered by name.
	Children(ctx context.Context, id ulid.ULID) ([]*Location, error)

	// Roots returns every location without a parent.
	Roots(ctx context.Context) ([]*Location, error)

	Create(ctx context.Context, loc *Location) error
	Update(ctx context.Context, loc *Location) error

	// Delete removes a leaf location and the connections touching it. A
	// location that still has children fails with INVALID_STATE.
	Delete(ctx context.Context, id ulid.ULID) error

	// Hierarchy returns the chain from the root down to id.
	Hierarchy(ctx context.Context, id ulid.ULID) ([]*Location, error)

	MarkVisited(ctx context.Context, id ulid.ULID, day int) (*Location, error)
	Discover(ctx context.Context, id ulid.ULID) (*Location, error)
	UpdateState(ctx context.Context, id ulid.ULID, state string) (*Location, error)
}

// ConnectionFilter narrows connection listings. Nil fields match everything.
type ConnectionFilter struct {
	FromID *ulid.ULID
	ToID   *ulid.ULID
}

// ConnectionStore manages travel edges.
type ConnectionStore interface {
	Get(ctx context.Context, id ulid.ULID) (*Connection, error)
	Create(ctx context.Context, c *Connection) error
	Update(ctx context.Context, c *Connection) error
	Delete(ctx context.Context, id ulid.ULID) error
	List(ctx context.Context, filter ConnectionFilter) ([]*Connection, error)

	// Outgoing returns connections whose origin is id.
	Outgoing(ctx context.Context, id ulid.ULID) ([]*Connection, error)

	// IncomingBidirectional returns bidirectional connections whose destination is id.
	IncomingBidirectional(ctx context.Context, id ulid.ULID) ([]*Connection, error)

	// Between finds a connection travellable from a to b, honouring the
	// bidirectional flag. Fails with CONNECTION_NOT_FOUND when none exists.
	Between(ctx context.Context, a, b ulid.ULID) (*Connection, error)
}

// NPCFilter narrows NPC listings. Nil fields match everything.
type NPCFilter struct {
	LocationID *ulid.ULID
	FactionID  *ulid.ULID
	Tier       *NPCTier
	Status     *NPCStatus
}

// NPCStore manages non-player characters.
type NPCStore interface {
	Get(ctx context.Context, id ulid.ULID) (*NPC, error)
	GetByName(ctx context.Context, name string) (*NPC, error)
	List(ctx context.Context, filter NPCFilter) ([]*NPC, error)

	// AtLocation returns NPCs currently at a location. Dead NPCs are omitted
	// unless includeDead is set.
	AtLocation(ctx context.Context, locationID ulid.ULID, includeDead bool) ([]*NPC, error)

	Create(ctx context.Context, npc *NPC) error
	Update(ctx context.Context, npc *NPC) error
	Delete(ctx context.Context, id ulid.ULID) error

	// ValidateForConversation fetches the NPC and fails with NPC_UNAVAILABLE
	// unless it is alive.
	ValidateForConversation(ctx context.Context, id ulid.ULID) (*NPC, error)

	MoveTo(ctx context.Context, id, locationID ulid.ULID) (*NPC, error)
	UpdateMood(ctx context.Context, id ulid.ULID, mood string) (*NPC, error)
	UpdateStatus(ctx context.Context, id ulid.ULID, status NPCStatus) (*NPC, error)
	AddGoal(ctx context.Context, id ulid.ULID, goal string) (*NPC, error)
	RemoveGoal(ctx context.Context, id ulid.ULID, goal string) (*NPC, error)
	AddSecret(ctx context.Context, id ulid.ULID, secret string) (*NPC, error)
	RemoveSecret(ctx context.Context, id ulid.ULID, secret string) (*NPC, error)
	AddSkill(ctx context.Context, id ulid.ULID, skill string) (*NPC, error)
	AdjustCurrency(ctx context.Context, id ulid.ULID, delta int) (*NPC, error)
}

// PlayerStore manages player save slots.
type PlayerStore interface {
	Get(ctx context.Context, id ulid.ULID) (*Player, error)
	GetByName(ctx context.Context, name string) (*Player, error)
	List(ctx context.Context) ([]*Player, error)
	Create(ctx context.Context, p *Player) error
	Update(ctx context.Context, p *Player) error
	Delete(ctx context.Context, id ulid.ULID) error

	UpdatePosition(ctx context.Context, id ulid.ULID, pos Position, facing string) (*Player, error)

	// MoveTo sets the current location without travel bookkeeping. Use Move for travel.
	MoveTo(ctx context.Context, id, locationID ulid.ULID) (*Player, error)

	UpdateHealth(ctx context.Context, id ulid.ULID, status HealthStatus) (*Player, error)
	AddItem(ctx context.Context, id ulid.ULID, item Item) (*Player, error)
	RemoveItem(ctx context.Context, id ulid.ULID, itemID string, qty int) (*Player, Item, error)

	// AdjustCurrency fails with INSUFFICIENT_FUNDS when the balance would go
	// negative and leaves it unchanged.
	AdjustCurrency(ctx context.Context, id ulid.ULID, delta int) (*Player, error)

	AddPartyMember(ctx context.Context, id, npcID ulid.ULID) (*Player, error)
	RemovePartyMember(ctx context.Context, id, npcID ulid.ULID) (*Player, error)
	AddQuest(ctx context.Context, id, questID ulid.ULID) (*Player, error)
	CompleteQuest(ctx context.Context, id, questID ulid.ULID) (*Player, error)

	// AdjustReputation applies a clamped delta and returns the new standing.
	AdjustReputation(ctx context.Context, id, factionID ulid.ULID, delta int) (*Player, int, error)
}

// FactionStore manages factions and the relationships between them.
type FactionStore interface {
	Get(ctx context.Context, id ulid.ULID) (*Faction, error)
	GetByName(ctx context.Context, name string) (*Faction, error)
	List(ctx context.Context) ([]*Faction, error)
	Create(ctx context.Context, f *Faction) error
	Update(ctx context.Context, f *Faction) error

	// Delete removes a faction, its relationships and any references to it.
	Delete(ctx context.Context, id ulid.ULID) error

	// UpsertRelationship inserts a relationship, or updates the existing row for
	// the same unordered pair. It reports whether a new row was created.
	UpsertRelationship(ctx context.Context, rel *FactionRelationship) (*FactionRelationship, bool, error)

	GetRelationship(ctx context.Context, a, b ulid.ULID) (*FactionRelationship, error)
	Relationships(ctx context.Context, factionID ulid.ULID) ([]*FactionRelationship, error)
	RelationshipsByType(ctx context.Context, typ RelationshipType) ([]*FactionRelationship, error)
	DeleteRelationship(ctx context.Context, id ulid.ULID) error
}

// RelationshipStore manages NPC regard for players.
type RelationshipStore interface {
	// Get returns the relationship or an error wrapping ErrNotFound.
	Get(ctx context.Context, npcID, playerID ulid.ULID) (*NPCRelationship, error)

	// GetOrCreate returns the existing relationship or persists a neutral one.
	// The bool reports whether it was created.
	GetOrCreate(ctx context.Context, npcID, playerID ulid.ULID) (*NPCRelationship, bool, error)

	Save(ctx context.Context, rel *NPCRelationship) error
	ListForPlayer(ctx context.Context, playerID ulid.ULID) ([]*NPCRelationship, error)
}

// QuestStore manages quests.
type QuestStore interface {
	Get(ctx context.Context, id ulid.ULID) (*Quest, error)

	// List returns quests, optionally restricted to one status.
	List(ctx context.Context, status *QuestStatus) ([]*Quest, error)

	ListByNPC(ctx context.Context, npcID ulid.ULID) ([]*Quest, error)
	Create(ctx context.Context, q *Quest) error
	Update(ctx context.Context, q *Quest) error
	Delete(ctx context.Context, id ulid.ULID) error
}

// EventQuery selects recent events.
type EventQuery struct {
	SinceDay    int
	VisibleOnly bool
	Limit       int
}

// EventStore manages runtime events.
type EventStore interface {
	Get(ctx context.Context, id ulid.ULID) (*Event, error)
	Create(ctx context.Context, e *Event) error

	// Recent returns events on or after SinceDay, newest first.
	Recent(ctx context.Context, q EventQuery) ([]*Event, error)

	ListForLocation(ctx context.Context, locationID ulid.ULID, limit int) ([]*Event, error)
}

// ClockStore persists the singleton world clock.
type ClockStore interface {
	// Get returns the stored clock, or the starting clock when none is stored.
	Get(ctx context.Context) (*WorldClock, error)
	Save(ctx context.Context, c *WorldClock) error
}

// LoreStore persists static world lore.
type LoreStore interface {
	// WorldBible returns the bible or an error wrapping ErrNotFound.
	WorldBible(ctx context.Context) (*WorldBible, error)
	SaveWorldBible(ctx context.Context, b *WorldBible) error
	HistoricalEvents(ctx context.Context) ([]*HistoricalEvent, error)
	CreateHistoricalEvent(ctx context.Context, h *HistoricalEvent) error
}

// MessageStore persists full conversation transcripts between players and NPCs.
type MessageStore interface {
	Append(ctx context.Context, playerID, npcID ulid.ULID, m Message) error

	// ForNPC returns up to limit of the latest messages, oldest first.
	ForNPC(ctx context.Context, playerID, npcID ulid.ULID, limit int) ([]Message, error)
}

// UnitOfWork is one transactional scope. Every store it hands out shares the
// same transaction; nothing is durable until Commit.
type UnitOfWork interface {
	Locations() LocationStore
	Connections() ConnectionStore
	NPCs() NPCStore
	Players() PlayerStore
	Factions() FactionStore
	Relationships() RelationshipStore
	Quests() QuestStore
	Events() EventStore
	Clock() ClockStore
	Lore() LoreStore
	Messages() MessageStore

	Commit() error

	// Rollback discards the transaction. It is a no-op after Commit.
	Rollback() error
}

// Beginner opens units of work.
type Beginner interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}

// InTransaction runs fn inside a unit of work. It commits when fn returns nil
// and rolls back otherwise, including when fn panics.
func InTransaction(ctx context.Context, b Beginner, fn func(uow UnitOfWork) error) error {
	uow, err := b.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = uow.Rollback()
			panic(p)
		}
	}()

	if err := fn(uow); err != nil {
		if rbErr := uow.Rollback(); rbErr != nil {
			return oops.With("operation", "rollback").With("rollback_error", rbErr.Error()).Wrap(err)
		}
		return err
	}
	if err := uow.Commit(); err != nil {
		return oops.Code(CodeTransactionFailed).With("operation", "commit").Wrap(err)
	}
	return nil
}
