// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package seed_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldkeeper/worldkeeper/internal/seed"
)

func TestGenerateSchema(t *testing.T) {
	data, err := seed.GenerateSchema()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, seed.SchemaID, doc["$id"])
	assert.Equal(t, "Worldkeeper World File", doc["title"])
	assert.Equal(t, false, doc["additionalProperties"])
	assert.Contains(t, doc["required"], "format_version")

	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"world_bible", "locations", "connections", "factions", "npcs", "quests"} {
		assert.Contains(t, props, key)
	}
}

func TestValidateSchema_AcceptsTestWorld(t *testing.T) {
	assert.NoError(t, seed.ValidateSchema(readWorld(t)))
}
