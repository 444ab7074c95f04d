// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package world

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		errMsg  string
	}{
		{"valid name", "Rusty Anchor Tavern", false, ""},
		{"empty name", "", true, "cannot be empty"},
		{"name too long", strings.Repeat("a", MaxNameLength+1), true, "exceeds maximum length"},
		{"max length name", strings.Repeat("a", MaxNameLength), false, ""},
		{"unicode name", "Ærøskøbing", false, ""},
		{"invalid UTF-8 bytes", "\xff\xfe", true, "must be valid UTF-8"},
		{"control char", "name\x00with null", true, "cannot contain control characters"},
		{"newline not allowed", "name\nwith newline", true, "cannot contain control characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				var ve *ValidationError
				assert.ErrorAs(t, err, &ve)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateDescription(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid description", "Smoke curls from the hearth.", false},
		{"empty description", "", false},
		{"too long", strings.Repeat("a", MaxDescriptionLength+1), true},
		{"newline allowed", "line1\nline2", false},
		{"tab allowed", "column1\tcolumn2", false},
		{"bell rejected", "ring\x07", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDescription(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateStringList(t *testing.T) {
	many := make([]string, MaxListCount+1)
	for i := range many {
		many[i] = "x"
	}

	assert.NoError(t, ValidateStringList("goals", []string{"find the relic", "avenge the mill"}))
	assert.NoError(t, ValidateStringList("goals", nil))

	err := ValidateStringList("goals", []string{"ok", ""})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry 1 cannot be empty")

	err = ValidateStringList("goals", many)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds maximum count")

	err = ValidateStringList("goals", []string{strings.Repeat("a", MaxListEntryLength+1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds maximum length")
}

func TestValidateColor(t *testing.T) {
	assert.NoError(t, ValidateColor("pin_color", ""))
	assert.NoError(t, ValidateColor("pin_color", "#3388ff"))
	assert.NoError(t, ValidateColor("pin_color", "#FFF"))
	assert.Error(t, ValidateColor("pin_color", "blue"))
	assert.Error(t, ValidateColor("pin_color", "#12345"))
}

func TestIsValidIdentifier(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"health_potion", true},
		{"_private", true},
		{"sword2", true},
		{"iron-key", true},
		{"", false},
		{"2sword", false},
		{"-lead", false},
		{"key id", false},
		{"key.id", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, isValidIdentifier(tt.input))
		})
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, clamp(-5, 0, 100))
	assert.Equal(t, 100, clamp(150, 0, 100))
	assert.Equal(t, 42, clamp(42, 0, 100))
}

func TestClampAdd(t *testing.T) {
	tests := []struct {
		name       string
		cur, delta int
		want       int
	}{
		{"inside", 40, 5, 45},
		{"past ceiling", 90, 20, 100},
		{"past floor", 10, -20, 0},
		{"max int", 50, math.MaxInt, 100},
		{"min int", 50, math.MinInt, 0},
		{"out of range start", 500, -10, 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clampAdd(tt.cur, tt.delta, 0, 100))
		})
	}
}

func TestAddInt(t *testing.T) {
	sum, ok := AddInt(2, 3)
	assert.True(t, ok)
	assert.Equal(t, 5, sum)

	_, ok = AddInt(math.MaxInt, 1)
	assert.False(t, ok)
	_, ok = AddInt(math.MinInt, -1)
	assert.False(t, ok)
}

func TestMulInt(t *testing.T) {
	p, ok := MulInt(1_000_000_000, 3)
	assert.True(t, ok)
	assert.Equal(t, 3_000_000_000, p)

	p, ok = MulInt(0, math.MaxInt)
	assert.True(t, ok)
	assert.Zero(t, p)

	_, ok = MulInt(math.MaxInt, 2)
	assert.False(t, ok)
	_, ok = MulInt(-1, math.MinInt)
	assert.False(t, ok)
}
