// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package session

import (
	"context"
	"log/slog"
	"maps"
	"sort"
	"time"
)

// GameSession tracks one player's activity.
type GameSession struct {
	PlayerID     string         `json:"player_id"`
	CreatedAt    time.Time      `json:"created_at"`
	LastActivity time.Time      `json:"last_activity"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

func (s GameSession) clone() GameSession {
	s.Metadata = maps.Clone(s.Metadata)
	return s
}

// Conversation is the handle cached for an ongoing player/NPC exchange.
// Context holds whatever the caller loaded when the conversation started.
type Conversation struct {
	PlayerID  string         `json:"player_id"`
	NPCID     string         `json:"npc_id"`
	StartedAt time.Time      `json:"started_at"`
	Turns     int            `json:"turns"`
	Context   map[string]any `json:"context,omitempty"`
}

// SweepResult counts the entries removed by one sweep.
type SweepResult struct {
	Sessions int `json:"sessions"`
	Agents   int `json:"agents"`
}

// Total is the number of entries removed across both registries.
func (r SweepResult) Total() int { return r.Sessions + r.Agents }

// Manager owns the game session registry and the agent handle registry.
// It is built once at startup and passed to whatever needs it.
type Manager struct {
	now      func() time.Time
	sessions *Registry[GameSession]
	agents   *Registry[*Conversation]
}

// NewManager creates a manager whose registries share the given options.
func NewManager(opts ...Option) *Manager {
	o := options{ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Manager{
		now:      o.now,
		sessions: NewRegistry[GameSession]("sessions", opts...),
		agents:   NewRegistry[*Conversation]("agents", opts...),
	}
}

// Agents exposes the agent handle registry.
func (m *Manager) Agents() *Registry[*Conversation] { return m.agents }

// StartSession returns the player's live session, creating it if needed.
func (m *Manager) StartSession(playerID string) GameSession {
	s, _ := m.sessions.GetOrCreate(playerID, func() (GameSession, error) {
		now := m.now()
		return GameSession{PlayerID: playerID, CreatedAt: now, LastActivity: now}, nil
	})
	if m.TouchSession(playerID) {
		s, _ = m.sessions.Get(playerID)
	}
	return s.clone()
}

// Session returns the player's live session.
func (m *Manager) Session(playerID string) (GameSession, bool) {
	s, ok := m.sessions.Get(playerID)
	if !ok {
		return GameSession{}, false
	}
	return s.clone(), true
}

// TouchSession records activity for the player. It reports false when no
// live session exists.
func (m *Manager) TouchSession(playerID string) bool {
	now := m.now()
	return m.sessions.Update(playerID, func(s GameSession) GameSession {
		s.LastActivity = now
		return s
	})
}

// SetMetadata stores a value on the player's live session.
func (m *Manager) SetMetadata(playerID, key string, value any) bool {
	now := m.now()
	return m.sessions.Update(playerID, func(s GameSession) GameSession {
		s.Metadata = maps.Clone(s.Metadata)
		if s.Metadata == nil {
			s.Metadata = make(map[string]any)
		}
		s.Metadata[key] = value
		s.LastActivity = now
		return s
	})
}

// EndSession drops the player's session along with every agent handle
// held for that player. It returns whether a session existed and how many
// handles were cleared.
func (m *Manager) EndSession(playerID string) (bool, int) {
	ended := m.sessions.Remove(playerID)
	cleared := m.agents.ClearForPlayer(playerID)
	return ended, cleared
}

// ActiveSessions returns the live sessions ordered by player id.
func (m *Manager) ActiveSessions() []GameSession {
	live := m.sessions.Values()
	out := make([]GameSession, 0, len(live))
	for _, s := range live {
		out = append(out, s.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out
}

// Conversation returns the handle for a player/NPC pair, building it with
// load when absent or expired. Starting a conversation also records
// activity on the player's session.
func (m *Manager) Conversation(playerID, npcID string, load func() (map[string]any, error)) (*Conversation, bool, error) {
	created := false
	conv, err := m.agents.GetOrCreate(NPCKey(playerID, npcID), func() (*Conversation, error) {
		ctx, err := load()
		if err != nil {
			return nil, err
		}
		created = true
		return &Conversation{PlayerID: playerID, NPCID: npcID, StartedAt: m.now(), Context: ctx}, nil
	})
	if err != nil {
		return nil, false, err
	}
	m.StartSession(playerID)
	return conv, created, nil
}

// ActiveConversation returns the live handle for a player/NPC pair.
func (m *Manager) ActiveConversation(playerID, npcID string) (*Conversation, bool) {
	return m.agents.Get(NPCKey(playerID, npcID))
}

// RecordTurn counts one exchange in an active conversation.
func (m *Manager) RecordTurn(playerID, npcID string) (int, bool) {
	turns := 0
	ok := m.agents.Update(NPCKey(playerID, npcID), func(c *Conversation) *Conversation {
		c.Turns++
		turns = c.Turns
		return c
	})
	if ok {
		m.TouchSession(playerID)
	}
	return turns, ok
}

// EndConversation drops the handle for a player/NPC pair.
func (m *Manager) EndConversation(playerID, npcID string) bool {
	return m.agents.Remove(NPCKey(playerID, npcID))
}

// Sweep removes expired entries from both registries.
func (m *Manager) Sweep() SweepResult {
	return SweepResult{
		Sessions: m.sessions.CleanupExpired(),
		Agents:   m.agents.CleanupExpired(),
	}
}

// Stats reports both registries.
func (m *Manager) Stats() []Stats {
	return []Stats{m.sessions.Stats(), m.agents.Stats()}
}

// SetTTL changes the inactivity period of both registries.
func (m *Manager) SetTTL(ttl time.Duration) {
	m.sessions.SetTTL(ttl)
	m.agents.SetTTL(ttl)
}

// RunSweeper calls Sweep every interval until ctx is done. It blocks, so the
// host runs it on a goroutine it owns. observe, when non-nil, sees every
// sweep that removed something.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration, logger *slog.Logger, observe func(SweepResult)) error {
	if logger == nil {
		logger = slog.Default()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			res := m.Sweep()
			if res.Total() == 0 {
				continue
			}
			logger.Debug("session sweep", "sessions", res.Sessions, "agents", res.Agents)
			if observe != nil {
				observe(res)
			}
		}
	}
}
