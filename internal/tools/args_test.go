// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package tools_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldkeeper/worldkeeper/internal/core"
	"github.com/worldkeeper/worldkeeper/internal/tools"
	"github.com/worldkeeper/worldkeeper/internal/world"
	"github.com/worldkeeper/worldkeeper/pkg/errutil"
)

func TestArgs_Int(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  int
		code  string
	}{
		{"int", 3, 3, ""},
		{"whole float", float64(4), 4, ""},
		{"json number", json.Number("5"), 5, ""},
		{"numeric string", " 6 ", 6, ""},
		{"fractional float", 1.5, 0, world.CodeInvalidInput},
		{"word", "six", 0, world.CodeInvalidInput},
		{"bool", true, 0, world.CodeInvalidInput},
		{"at bound", tools.MaxIntArg, tools.MaxIntArg, ""},
		{"negative bound", json.Number("-1000000000"), -tools.MaxIntArg, ""},
		{"above bound", tools.MaxIntArg + 1, 0, world.CodeInvalidInput},
		{"max int64", int64(math.MaxInt64), 0, world.CodeInvalidInput},
		{"min int", math.MinInt, 0, world.CodeInvalidInput},
		{"huge float", 1e300, 0, world.CodeInvalidInput},
		{"huge negative float", -1e300, 0, world.CodeInvalidInput},
		{"json number overflow", json.Number("9223372036854775807"), 0, world.CodeInvalidInput},
		{"json number exponent", json.Number("1e300"), 0, world.CodeInvalidInput},
		{"string overflow", "99999999999999999999", 0, world.CodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tools.Args{"n": tt.value}.Int("n")
			if tt.code != "" {
				errutil.AssertErrorCode(t, err, tt.code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := tools.Args{}.Int("n")
	errutil.AssertErrorCode(t, err, world.CodeMissingRequired)
	_, err = tools.Args{"n": nil}.Int("n")
	errutil.AssertErrorCode(t, err, world.CodeMissingRequired)
}

func TestArgs_Optional(t *testing.T) {
	args := tools.Args{"flag": "true", "ratio": "0.25", "tags": "a,b"}

	b, err := args.OptBool("flag", false)
	require.NoError(t, err)
	assert.True(t, b)

	b, err = args.OptBool("missing", true)
	require.NoError(t, err)
	assert.True(t, b)

	f, err := args.OptFloat("ratio", 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, f, 1e-9)

	tags, err := args.OptStrings("tags")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tags)

	tags, err = tools.Args{"tags": []any{"x", "y"}}.OptStrings("tags")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, tags)

	_, err = tools.Args{"tags": []any{"x", 1}}.OptStrings("tags")
	errutil.AssertErrorCode(t, err, world.CodeInvalidInput)

	n, err := args.OptIntPtr("absent")
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestArgs_IDs(t *testing.T) {
	id := core.NewULID()

	got, err := tools.Args{"id": id.String()}.ID("id")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	opt, err := tools.Args{"id": ""}.OptID("id")
	require.NoError(t, err)
	assert.Nil(t, opt)

	ids, err := tools.Args{"ids": []any{id.String(), id.String()}}.OptIDs("ids")
	require.NoError(t, err)
	assert.Equal(t, world.IDSet{id}, ids, "duplicates collapse")

	_, err = tools.Args{"ids": []any{"nope"}}.OptIDs("ids")
	errutil.AssertErrorCode(t, err, world.CodeInvalidInput)
}

func TestArgs_Decode(t *testing.T) {
	args := tools.Args{"item": map[string]any{"id": "rope", "name": "Rope", "type": "misc", "value": 2}}

	var item world.Item
	ok, err := args.Decode("item", &item)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "rope", item.ID)
	assert.Equal(t, world.ItemTypeMisc, item.Type)
	assert.Equal(t, 2, item.Value)

	ok, err = args.Decode("absent", &item)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGrants(t *testing.T) {
	g, err := tools.NewGrants(tools.DefaultGrants())
	require.NoError(t, err)
	assert.Equal(t, 3, g.Roles())

	r := tools.NewDefaultRegistry()
	get := func(name string) tools.Tool {
		tool, ok := r.Get(name)
		require.True(t, ok, name)
		return tool
	}

	tests := []struct {
		role, tool string
		want       bool
	}{
		{"dm", "delete_faction", true},
		{"npc", "get_npc", true},
		{"npc", "update_npc_mood", true},
		{"npc", "start_npc_conversation", true},
		{"npc", "move_player", false},
		{"observer", "get_world_clock", true},
		{"observer", "continue_npc_conversation", false},
		{"stranger", "get_world_clock", false},
	}
	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.tool, func(t *testing.T) {
			assert.Equal(t, tt.want, g.Allows(tt.role, get(tt.tool)))
		})
	}
}
