// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package session

import "strings"

const keySeparator = "_"

// Agent kinds used as key prefixes.
const (
	KindDM  = "dm"
	KindNPC = "npc"
)

// AgentKey joins kind and ids into a cache key, e.g. "npc_<player>_<npc>".
func AgentKey(kind string, ids ...string) string {
	parts := make([]string, 0, len(ids)+1)
	parts = append(parts, kind)
	parts = append(parts, ids...)
	return strings.Join(parts, keySeparator)
}

// DMKey is the key of a player's narrator handle.
func DMKey(playerID string) string {
	return AgentKey(KindDM, playerID)
}

// NPCKey is the key of the conversation handle between a player and an NPC.
func NPCKey(playerID, npcID string) string {
	return AgentKey(KindNPC, playerID, npcID)
}

// NPCPattern matches every NPC conversation handle held for playerID.
func NPCPattern(playerID string) string {
	return NPCKey(playerID, "*")
}
