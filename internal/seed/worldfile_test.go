// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package seed_test

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldkeeper/worldkeeper/internal/seed"
	"github.com/worldkeeper/worldkeeper/pkg/errutil"
)

func readWorld(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/world.yaml")
	require.NoError(t, err)
	return data
}

func TestParse_WorldFile(t *testing.T) {
	wf, err := seed.Parse(readWorld(t))
	require.NoError(t, err)

	assert.Equal(t, "1.0.0", wf.FormatVersion)
	require.NotNil(t, wf.Bible)
	assert.Equal(t, "Vael", wf.Bible.Name)
	assert.Len(t, wf.Factions, 2)
	assert.Len(t, wf.Locations, 5)
	assert.Equal(t, "Lowmarch", wf.Locations[2].Parent)
	require.NotNil(t, wf.Locations[2].TravelTimeToParent)
	assert.InDelta(t, 4.0, *wf.Locations[2].TravelTimeToParent, 0.001)
	assert.True(t, wf.Locations[4].Hidden)
	assert.Equal(t, 10, wf.Quests[0].RewardReputation["River Guild"])
}

func TestParse_SchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", "   \n"},
		{"not yaml", "format_version: [1.0.0"},
		{"missing format version", "locations:\n  - name: Vael\n"},
		{"unknown key", "format_version: \"1.0.0\"\nweather: rainy\n"},
		{"unknown location key", "format_version: \"1.0.0\"\nlocations:\n  - name: Vael\n    colour: red\n"},
		{"bad relationship type", `format_version: "1.0.0"
factions: [{name: A}, {name: B}]
faction_relationships: [{a: A, b: B, type: feud}]
`},
		{"hour out of range", "format_version: \"1.0.0\"\nclock: {day: 1, hour: 24}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := seed.Parse([]byte(tt.body))
			errutil.AssertErrorCode(t, err, seed.CodeInvalid)
		})
	}
}

func TestCheckVersion(t *testing.T) {
	tests := []struct {
		version string
		ok      bool
	}{
		{"1.0.0", true},
		{"1.4.2", true},
		{"2.0.0", false},
		{"0.9.0", false},
		{"v1", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			err := seed.CheckVersion(tt.version)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			errutil.AssertErrorCode(t, err, seed.CodeUnsupported)
		})
	}
}

func TestParse_UnsupportedVersion(t *testing.T) {
	_, err := seed.Parse([]byte("format_version: \"2.0.0\"\n"))
	errutil.AssertErrorCode(t, err, seed.CodeUnsupported)
	errutil.AssertErrorContext(t, err, "format_version", "2.0.0")
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	wf := &seed.WorldFile{
		FormatVersion: seed.FormatVersion,
		Factions:      []seed.FactionSpec{{Name: "Guild"}, {Name: "Guild"}},
		FactionRelationships: []seed.FactionRelationshipSpec{
			{A: "Guild", B: "Guild", Type: "rival"},
		},
		Locations: []seed.LocationSpec{
			{Name: "Town", Parent: "Region"},
			{Name: "Region", Level: "region_1"},
			{Name: "Town"},
		},
		Connections: []seed.ConnectionSpec{{From: "Town", To: "Nowhere", TravelType: "road"}},
		NPCs:        []seed.NPCSpec{{Name: "Oswin", Faction: "Cult"}},
		Quests:      []seed.QuestSpec{{Title: "Q", AssignedBy: "Nobody"}},
	}

	err := wf.Validate()
	errutil.AssertErrorCode(t, err, seed.CodeInvalid)

	problems, ok := errutil.ErrorContextValue(t, err, "problems").([]string)
	require.True(t, ok)

	want := []string{
		`duplicate faction name "Guild"`,
		`locations[0]: parent "Region" must be declared earlier`,
		`locations[1]: location without a parent must be level root`,
		`locations[2]: duplicate location name "Town"`,
		`a faction cannot have a relationship with itself`,
		`connections[0].to: "Nowhere" is not declared`,
		`npcs[0].faction: "Cult" is not declared`,
		`quests[0].assigned_by: "Nobody" is not declared`,
	}
	joined := strings.Join(problems, "\n")
	for _, w := range want {
		assert.Contains(t, joined, w)
	}
}

func TestValidate_SelfConnection(t *testing.T) {
	wf := &seed.WorldFile{
		FormatVersion: seed.FormatVersion,
		Locations:     []seed.LocationSpec{{Name: "Vael"}},
		Connections:   []seed.ConnectionSpec{{From: "Vael", To: "Vael", TravelType: "walk"}},
	}
	err := wf.Validate()
	errutil.AssertErrorCode(t, err, seed.CodeInvalid)
	assert.Contains(t, err.Error(), "two different locations")
}
