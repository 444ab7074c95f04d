// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package world

import (
	"math"
)

// Clock defaults.
const (
	StartDay  = 1
	StartHour = 8
)

// Time-of-day buckets.
const (
	Morning   = "morning"
	Afternoon = "afternoon"
	Evening   = "evening"
	Night     = "night"
)

// WorldClock is the singleton in-world calendar.
type WorldClock struct {
	Day  int `json:"day"`
	Hour int `json:"hour"`
}

// NewWorldClock returns the clock at the start of the world.
func NewWorldClock() *WorldClock {
	return &WorldClock{Day: StartDay, Hour: StartHour}
}

// Advance moves the clock forward by hours, rolling overflow into days.
// Fractional hours accumulate toward the day rollover but the stored hour is
// truncated to a whole number.
func (c *WorldClock) Advance(hours float64) error {
	if hours < 0 || math.IsNaN(hours) || math.IsInf(hours, 0) {
		return InvalidInput("cannot advance clock by %v hours", hours)
	}
	total := float64(c.Hour) + hours
	c.Day += int(math.Floor(total / 24))
	c.Hour = int(math.Mod(total, 24))
	return nil
}

// TimeOfDay returns the narrative bucket for the current hour.
func (c *WorldClock) TimeOfDay() string {
	switch {
	case c.Hour >= 6 && c.Hour < 12:
		return Morning
	case c.Hour >= 12 && c.Hour < 17:
		return Afternoon
	case c.Hour >= 17 && c.Hour < 21:
		return Evening
	default:
		return Night
	}
}

// Validate checks the clock's invariants.
func (c *WorldClock) Validate() error {
	if c.Day < 1 {
		return &ValidationError{Field: "day", Message: "must be at least 1"}
	}
	return ValidateRange("hour", c.Hour, 0, 23)
}
