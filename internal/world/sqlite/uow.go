// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package sqlite

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/samber/oops"

	"github.com/worldkeeper/worldkeeper/internal/world"
)

// unitOfWork binds every store to one transaction.
type unitOfWork struct {
	tx   *sqlx.Tx
	done bool

	locations     *LocationStore
	connections   *ConnectionStore
	npcs          *NPCStore
	players       *PlayerStore
	factions      *FactionStore
	relationships *RelationshipStore
	quests        *QuestStore
	events        *EventStore
	clock         *ClockStore
	lore          *LoreStore
	messages      *MessageStore
}

var _ world.UnitOfWork = (*unitOfWork)(nil)

func newUnitOfWork(tx *sqlx.Tx) *unitOfWork {
	return &unitOfWork{
		tx:            tx,
		locations:     &LocationStore{q: tx},
		connections:   &ConnectionStore{q: tx},
		npcs:          &NPCStore{q: tx},
		players:       &PlayerStore{q: tx},
		factions:      &FactionStore{q: tx},
		relationships: &RelationshipStore{q: tx},
		quests:        &QuestStore{q: tx},
		events:        &EventStore{q: tx},
		clock:         &ClockStore{q: tx},
		lore:          &LoreStore{q: tx},
		messages:      &MessageStore{q: tx},
	}
}

func (u *unitOfWork) Locations() world.LocationStore         { return u.locations }
func (u *unitOfWork) Connections() world.ConnectionStore     { return u.connections }
func (u *unitOfWork) NPCs() world.NPCStore                   { return u.npcs }
func (u *unitOfWork) Players() world.PlayerStore             { return u.players }
func (u *unitOfWork) Factions() world.FactionStore           { return u.factions }
func (u *unitOfWork) Relationships() world.RelationshipStore { return u.relationships }
func (u *unitOfWork) Quests() world.QuestStore               { return u.quests }
func (u *unitOfWork) Events() world.EventStore               { return u.events }
func (u *unitOfWork) Clock() world.ClockStore                { return u.clock }
func (u *unitOfWork) Lore() world.LoreStore                  { return u.lore }
func (u *unitOfWork) Messages() world.MessageStore           { return u.messages }

// Commit makes the unit of work durable. A second Commit fails.
func (u *unitOfWork) Commit() error {
	if u.done {
		return oops.Code(world.CodeTransactionFailed).Errorf("unit of work already finished")
	}
	u.done = true
	if err := u.tx.Commit(); err != nil {
		return oops.Code(world.CodeTransactionFailed).With("operation", "commit").Wrap(err)
	}
	return nil
}

// Rollback discards the unit of work. It is a no-op once finished.
func (u *unitOfWork) Rollback() error {
	if u.done {
		return nil
	}
	u.done = true
	if err := u.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return oops.With("operation", "rollback").Wrap(err)
	}
	return nil
}
