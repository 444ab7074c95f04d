// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package world

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/worldkeeper/worldkeeper/internal/core"
)

// QuestStatus is the lifecycle state of a quest.
type QuestStatus string

// Quest statuses.
const (
	QuestNotStarted QuestStatus = "not_started"
	QuestActive     QuestStatus = "active"
	QuestCompleted  QuestStatus = "completed"
	QuestFailed     QuestStatus = "failed"
)

// IsValid reports whether s is a known quest status.
func (s QuestStatus) IsValid() bool {
	switch s {
	case QuestNotStarted, QuestActive, QuestCompleted, QuestFailed:
		return true
	}
	return false
}

// Rewards describes what completing a quest grants.
type Rewards struct {
	Currency   int            `json:"currency,omitempty"`
	Items      []string       `json:"items,omitempty"`
	Reputation map[string]int `json:"reputation,omitempty"`
	Other      string         `json:"other,omitempty"`
}

// Quest is a narrative objective.
type Quest struct {
	ID              ulid.ULID   `json:"id"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	Status          QuestStatus `json:"status"`
	Objectives      StringSet   `json:"objectives"`
	Rewards         Rewards     `json:"rewards"`
	AssignedByNPCID *ulid.ULID  `json:"assigned_by_npc_id,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
}

// NewQuest creates a quest that has not started.
func NewQuest(title string) *Quest {
	return &Quest{
		ID:         core.NewULID(),
		Title:      title,
		Status:     QuestNotStarted,
		Objectives: StringSet{},
		CreatedAt:  time.Now().UTC(),
	}
}

// Activate moves a not-started quest to active.
func (q *Quest) Activate() error {
	if q.Status != QuestNotStarted {
		return InvalidState("quest %q is %s, expected %s", q.Title, q.Status, QuestNotStarted)
	}
	q.Status = QuestActive
	return nil
}

// SetStatus changes the status after validating it.
func (q *Quest) SetStatus(s QuestStatus) error {
	if !s.IsValid() {
		return InvalidInput("unknown quest status %q", s)
	}
	q.Status = s
	return nil
}

// Validate checks the quest's invariants.
func (q *Quest) Validate() error {
	if err := validateNameField("title", q.Title); err != nil {
		return err
	}
	if !q.Status.IsValid() {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("unknown quest status %q", q.Status)}
	}
	if q.Rewards.Currency < 0 {
		return &ValidationError{Field: "rewards.currency", Message: "cannot be negative"}
	}
	if err := ValidateDescription(q.Description); err != nil {
		return err
	}
	return ValidateStringList("objectives", q.Objectives)
}
