// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package world

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldkeeper/worldkeeper/pkg/errutil"
)

func TestNewNPCRelationship_Defaults(t *testing.T) {
	r := NewNPCRelationship(ulid.Make(), ulid.Make())
	assert.Equal(t, DefaultTrust, r.TrustLevel)
	assert.Equal(t, DefaultDisposition, r.Disposition)
	assert.Nil(t, r.LastInteractionDay)
	require.NoError(t, r.Validate())
}

func TestNPCRelationship_ApplyClampsTrust(t *testing.T) {
	tests := []struct {
		name  string
		start int
		delta int
		want  int
	}{
		{"raise", 50, 20, 70},
		{"lower", 50, -30, 20},
		{"ceiling", 95, 20, 100},
		{"floor", 5, -50, 0},
		{"max delta", 50, math.MaxInt, 100},
		{"min delta", 50, math.MinInt, 0},
		{"max delta at ceiling", 100, math.MaxInt, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewNPCRelationship(ulid.Make(), ulid.Make())
			r.TrustLevel = tt.start
			r.Apply(RelationshipUpdate{TrustDelta: tt.delta}, 3)
			assert.Equal(t, tt.want, r.TrustLevel)
		})
	}
}

func TestNPCRelationship_ApplyBookkeeping(t *testing.T) {
	r := NewNPCRelationship(ulid.Make(), ulid.Make())

	r.Apply(RelationshipUpdate{Disposition: "wary but curious", KeyMoment: "shared bread"}, 4)
	assert.Equal(t, "wary but curious", r.Disposition, "any disposition label is accepted")
	assert.Equal(t, []string{"shared bread"}, r.KeyMoments)
	require.NotNil(t, r.LastInteractionDay)
	assert.Equal(t, 4, *r.LastInteractionDay)

	r.Apply(RelationshipUpdate{}, 5)
	assert.Equal(t, "wary but curious", r.Disposition, "empty disposition keeps current")
	assert.Len(t, r.KeyMoments, 1)
	assert.Equal(t, 5, *r.LastInteractionDay)
}

func TestMessageLog_KeepsLastTwenty(t *testing.T) {
	r := NewNPCRelationship(ulid.Make(), ulid.Make())
	for i := 0; i < 25; i++ {
		r.Apply(RelationshipUpdate{Message: &Message{Role: "player", Content: fmt.Sprintf("m%d", i), Timestamp: time.Now()}}, 1)
	}
	require.Len(t, r.RecentMessages, MaxRecentMessages)
	assert.Equal(t, "m5", r.RecentMessages[0].Content)
	assert.Equal(t, "m24", r.RecentMessages[MaxRecentMessages-1].Content)
	assert.NoError(t, r.Validate())
}

func TestNPCRelationship_RevealSecret(t *testing.T) {
	npc := NewNPC("Mira", TierMajor)
	npc.Secrets = StringSet{"smuggles salt", "fears the dark"}
	r := NewNPCRelationship(npc.ID, ulid.Make())

	secret, added, err := r.RevealSecret(npc, 1)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, "fears the dark", secret)

	_, added, err = r.RevealSecret(npc, 1)
	require.NoError(t, err, "re-revealing is not an error")
	assert.False(t, added)
	assert.Equal(t, []int{1}, r.RevealedSecrets)

	_, _, err = r.RevealSecret(npc, 2)
	errutil.AssertErrorCode(t, err, CodeInvalidInput)
	assert.Equal(t, []int{1}, r.RevealedSecrets)

	assert.Equal(t, []string{"fears the dark"}, r.Revealed(npc))
}

func TestFactionRelationship_Pairing(t *testing.T) {
	a, b := ulid.Make(), ulid.Make()
	r1 := NewFactionRelationship(a, b, RelationRival)
	r2 := NewFactionRelationship(b, a, RelationRival)

	assert.Equal(t, r1.FactionAID, r2.FactionAID)
	assert.Equal(t, r1.FactionBID, r2.FactionBID)
	assert.True(t, r1.Involves(a))
	assert.Equal(t, b, r1.Other(a))
	assert.Equal(t, a, r1.Other(b))
}

func TestFactionRelationship_Stability(t *testing.T) {
	r := NewFactionRelationship(ulid.Make(), ulid.Make(), RelationRival)
	assert.Equal(t, MinStability, r.AdjustStability(-200))
	assert.Equal(t, MaxStability, r.AdjustStability(500))

	r.Stability = 25
	assert.True(t, r.IsVolatile())
	assert.False(t, r.CouldEscalate())
	r.Stability = 10
	assert.True(t, r.CouldEscalate())

	r.Type = RelationAllied
	assert.False(t, r.IsVolatile())
}

func TestFactionRelationship_Validate(t *testing.T) {
	a := ulid.Make()
	r := NewFactionRelationship(a, ulid.Make(), RelationWar)
	require.NoError(t, r.Validate())

	r.Type = "frenemies"
	assert.Error(t, r.Validate())

	self := NewFactionRelationship(a, a, RelationAllied)
	assert.Error(t, self.Validate())

	assert.Equal(t, MinStability, r.AdjustStability(math.MinInt))
	assert.Equal(t, MaxStability, r.AdjustStability(math.MaxInt))
}

func TestFaction_Clamps(t *testing.T) {
	f := NewFaction("Salt Guild")
	assert.Equal(t, DefaultPower, f.PowerLevel)
	assert.Equal(t, DefaultResource, f.Resources["military"])

	assert.Equal(t, MaxPower, f.AdjustPower(80))
	assert.Equal(t, MinPower, f.AdjustPower(-500))
	assert.Equal(t, 0, f.Resources.Adjust("economic", -80))
	assert.Equal(t, 15, f.Resources.Adjust("economic", 15))
	assert.Equal(t, MaxPower, f.AdjustPower(math.MaxInt))
	assert.Equal(t, MinPower, f.AdjustPower(math.MinInt))
	assert.Equal(t, math.MaxInt, f.Resources.Adjust("economic", math.MaxInt), "resources saturate instead of wrapping")
	assert.Equal(t, 0, f.Resources.Adjust("economic", math.MinInt))
	require.NoError(t, f.Validate())
}
