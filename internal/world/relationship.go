// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package world

import (
	"slices"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/worldkeeper/worldkeeper/internal/core"
)

// Trust bounds and defaults for NPC relationships.
const (
	DefaultTrust       = 50
	MinTrust           = 0
	MaxTrust           = 100
	DefaultDisposition = "neutral"
	// MaxRecentMessages is the size of the rolling conversation window.
	MaxRecentMessages = 20
)

// Message is one line of conversation between a player and an NPC.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// MessageLog is a bounded window of the most recent messages.
type MessageLog []Message

// Append adds m and drops the oldest entries beyond MaxRecentMessages.
func (l *MessageLog) Append(m Message) {
	*l = append(*l, m)
	if over := len(*l) - MaxRecentMessages; over > 0 {
		*l = slices.Clone((*l)[over:])
	}
}

// NPCRelationship is the state of one NPC's regard for one player.
type NPCRelationship struct {
	ID                 ulid.ULID  `json:"id"`
	NPCID              ulid.ULID  `json:"npc_id"`
	PlayerID           ulid.ULID  `json:"player_id"`
	Summary            string     `json:"relationship_summary,omitempty"`
	TrustLevel         int        `json:"trust_level"`
	Disposition        string     `json:"current_disposition"`
	KeyMoments         []string   `json:"key_moments"`
	RecentMessages     MessageLog `json:"recent_messages"`
	RevealedSecrets    []int      `json:"revealed_secrets"`
	LastInteractionDay *int       `json:"last_interaction_day,omitempty"`
}

// NewNPCRelationship creates a first-meeting relationship.
func NewNPCRelationship(npcID, playerID ulid.ULID) *NPCRelationship {
	return &NPCRelationship{
		ID:              core.NewULID(),
		NPCID:           npcID,
		PlayerID:        playerID,
		TrustLevel:      DefaultTrust,
		Disposition:     DefaultDisposition,
		KeyMoments:      []string{},
		RecentMessages:  MessageLog{},
		RevealedSecrets: []int{},
	}
}

// RelationshipUpdate is a bounded change to an NPC relationship. Zero values
// leave the corresponding field untouched.
type RelationshipUpdate struct {
	TrustDelta  int
	Disposition string
	KeyMoment   string
	Message     *Message
}

// Apply folds u into the relationship and stamps the interaction day.
// Disposition is a narrative label and accepts any non-empty string.
func (r *NPCRelationship) Apply(u RelationshipUpdate, day int) {
	r.TrustLevel = clampAdd(r.TrustLevel, u.TrustDelta, MinTrust, MaxTrust)
	if u.Disposition != "" {
		r.Disposition = u.Disposition
	}
	if u.KeyMoment != "" {
		r.KeyMoments = append(r.KeyMoments, u.KeyMoment)
	}
	if u.Message != nil {
		r.RecentMessages.Append(*u.Message)
	}
	d := day
	r.LastInteractionDay = &d
}

// RevealSecret marks the NPC's secret at index as revealed to the player and
// returns its text. Re-revealing an index is a no-op.
func (r *NPCRelationship) RevealSecret(npc *NPC, index int) (string, bool, error) {
	secret, err := npc.SecretAt(index)
	if err != nil {
		return "", false, err
	}
	if slices.Contains(r.RevealedSecrets, index) {
		return secret, false, nil
	}
	r.RevealedSecrets = append(r.RevealedSecrets, index)
	return secret, true, nil
}

// Revealed returns the secret texts already disclosed, skipping stale indices.
func (r *NPCRelationship) Revealed(npc *NPC) []string {
	out := make([]string, 0, len(r.RevealedSecrets))
	for _, idx := range r.RevealedSecrets {
		if s, err := npc.SecretAt(idx); err == nil {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks the relationship's invariants.
func (r *NPCRelationship) Validate() error {
	if err := ValidateRange("trust_level", r.TrustLevel, MinTrust, MaxTrust); err != nil {
		return err
	}
	if len(r.RecentMessages) > MaxRecentMessages {
		return &ValidationError{Field: "recent_messages", Message: "exceeds rolling window"}
	}
	return nil
}
