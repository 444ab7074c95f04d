// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package session_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/worldkeeper/worldkeeper/internal/session"
)

func TestManager_SessionLifecycle(t *testing.T) {
	clock := newFakeClock()
	m := session.NewManager(session.WithClock(clock.Now))

	s := m.StartSession("p1")
	assert.Equal(t, "p1", s.PlayerID)
	assert.Equal(t, clock.Now(), s.CreatedAt)

	clock.Advance(10 * time.Minute)
	again := m.StartSession("p1")
	assert.Equal(t, s.CreatedAt, again.CreatedAt)
	assert.Equal(t, clock.Now(), again.LastActivity)

	require.True(t, m.SetMetadata("p1", "scene", "harbor"))
	got, ok := m.Session("p1")
	require.True(t, ok)
	assert.Equal(t, "harbor", got.Metadata["scene"])

	got.Metadata["scene"] = "mutated"
	fresh, _ := m.Session("p1")
	assert.Equal(t, "harbor", fresh.Metadata["scene"])

	assert.False(t, m.SetMetadata("nobody", "k", 1))
}

func TestManager_EndSessionClearsPlayerAgents(t *testing.T) {
	m := session.NewManager()
	load := func() (map[string]any, error) { return map[string]any{"trust": 50}, nil }

	m.StartSession("p1")
	_, _, err := m.Conversation("p1", "n1", load)
	require.NoError(t, err)
	_, _, err = m.Conversation("p1", "n2", load)
	require.NoError(t, err)
	_, _, err = m.Conversation("p2", "n1", load)
	require.NoError(t, err)
	m.Agents().Put(session.DMKey("p1"), &session.Conversation{PlayerID: "p1"})

	ended, cleared := m.EndSession("p1")
	assert.True(t, ended)
	assert.Equal(t, 3, cleared)

	_, ok := m.Session("p1")
	assert.False(t, ok)
	_, ok = m.ActiveConversation("p2", "n1")
	assert.True(t, ok)

	ended, cleared = m.EndSession("p1")
	assert.False(t, ended)
	assert.Zero(t, cleared)
}

func TestManager_Conversation(t *testing.T) {
	m := session.NewManager()
	loads := 0
	load := func() (map[string]any, error) {
		loads++
		return map[string]any{"disposition": "wary"}, nil
	}

	conv, created, err := m.Conversation("p1", "n1", load)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "wary", conv.Context["disposition"])

	_, created, err = m.Conversation("p1", "n1", load)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 1, loads)

	turns, ok := m.RecordTurn("p1", "n1")
	require.True(t, ok)
	assert.Equal(t, 1, turns)
	turns, _ = m.RecordTurn("p1", "n1")
	assert.Equal(t, 2, turns)

	_, ok = m.Session("p1")
	assert.True(t, ok, "conversation starts a game session")

	assert.True(t, m.EndConversation("p1", "n1"))
	_, ok = m.RecordTurn("p1", "n1")
	assert.False(t, ok)
}

func TestManager_ConversationLoadFailure(t *testing.T) {
	m := session.NewManager()
	boom := errors.New("npc gone")

	_, _, err := m.Conversation("p1", "n1", func() (map[string]any, error) { return nil, boom })
	require.ErrorIs(t, err, boom)
	_, ok := m.ActiveConversation("p1", "n1")
	assert.False(t, ok)
	_, ok = m.Session("p1")
	assert.False(t, ok)
}

func TestManager_Sweep(t *testing.T) {
	clock := newFakeClock()
	m := session.NewManager(session.WithClock(clock.Now), session.WithTTL(time.Hour))

	m.StartSession("p1")
	_, _, err := m.Conversation("p1", "n1", func() (map[string]any, error) { return nil, nil })
	require.NoError(t, err)

	clock.Advance(30 * time.Minute)
	m.StartSession("p2")

	clock.Advance(45 * time.Minute)
	res := m.Sweep()
	assert.Equal(t, session.SweepResult{Sessions: 1, Agents: 1}, res)
	assert.Equal(t, 2, res.Total())

	active := m.ActiveSessions()
	require.Len(t, active, 1)
	assert.Equal(t, "p2", active[0].PlayerID)

	stats := m.Stats()
	require.Len(t, stats, 2)
	assert.Equal(t, "sessions", stats[0].Name)
	assert.Equal(t, 1, stats[0].Valid)
}

func TestManager_RunSweeperStopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := session.NewManager(session.WithTTL(time.Nanosecond))
	m.StartSession("p1")

	var swept atomic.Int64
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- m.RunSweeper(ctx, time.Millisecond, nil, func(r session.SweepResult) {
			swept.Add(int64(r.Total()))
		})
	}()

	require.Eventually(t, func() bool {
		return swept.Load() == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, m.Stats()[0].Total)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
