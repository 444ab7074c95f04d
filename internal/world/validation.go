// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package world

import (
	"fmt"
	"math"
	"regexp"
	"unicode"
	"unicode/utf8"
)

// Validation limits for domain types.
const (
	MaxNameLength        = 100
	MaxDescriptionLength = 4000
	MaxListCount         = 50
	MaxListEntryLength   = 500
	MaxEffectKeys        = 20
)

// ValidationError represents an input validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateName checks that a name is valid.
// Names must be non-empty, valid UTF-8, no control characters, and within length limit.
func ValidateName(name string) error {
	return validateNameField("name", name)
}

func validateNameField(field, name string) error {
	if name == "" {
		return &ValidationError{Field: field, Message: "cannot be empty"}
	}
	if !utf8.ValidString(name) {
		return &ValidationError{Field: field, Message: "must be valid UTF-8"}
	}
	if len(name) > MaxNameLength {
		return &ValidationError{Field: field, Message: fmt.Sprintf("exceeds maximum length of %d", MaxNameLength)}
	}
	if hasControlChars(name) {
		return &ValidationError{Field: field, Message: "cannot contain control characters"}
	}
	return nil
}

// ValidateDescription checks that a description is valid.
// Descriptions may be empty, must be valid UTF-8, no control characters (except newline/tab), and within length limit.
func ValidateDescription(desc string) error {
	return validateTextField("description", desc)
}

func validateTextField(field, text string) error {
	if text == "" {
		return nil
	}
	if !utf8.ValidString(text) {
		return &ValidationError{Field: field, Message: "must be valid UTF-8"}
	}
	if len(text) > MaxDescriptionLength {
		return &ValidationError{Field: field, Message: fmt.Sprintf("exceeds maximum length of %d", MaxDescriptionLength)}
	}
	if hasControlCharsExceptWhitespace(text) {
		return &ValidationError{Field: field, Message: "cannot contain control characters (except newline/tab)"}
	}
	return nil
}

// ValidateStringList checks an ordered string collection such as goals, secrets or tags.
// Entries must be non-empty, valid UTF-8 and within length limits.
func ValidateStringList(field string, values []string) error {
	if len(values) > MaxListCount {
		return &ValidationError{Field: field, Message: fmt.Sprintf("exceeds maximum count of %d", MaxListCount)}
	}
	for i, v := range values {
		if v == "" {
			return &ValidationError{Field: field, Message: fmt.Sprintf("entry %d cannot be empty", i)}
		}
		if !utf8.ValidString(v) {
			return &ValidationError{Field: field, Message: fmt.Sprintf("entry %d must be valid UTF-8", i)}
		}
		if len(v) > MaxListEntryLength {
			return &ValidationError{Field: field, Message: fmt.Sprintf("entry %d exceeds maximum length of %d", i, MaxListEntryLength)}
		}
	}
	return nil
}

// ValidateRange checks that v lies within [lo, hi].
func ValidateRange(field string, v, lo, hi int) error {
	if v < lo || v > hi {
		return &ValidationError{Field: field, Message: fmt.Sprintf("must be between %d and %d, got %d", lo, hi, v)}
	}
	return nil
}

// hexColorRegex matches #rgb and #rrggbb colors.
var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidateColor checks a map pin color.
func ValidateColor(field, color string) error {
	if color == "" {
		return nil
	}
	if !hexColorRegex.MatchString(color) {
		return &ValidationError{Field: field, Message: fmt.Sprintf("%q is not a hex color", color)}
	}
	return nil
}

// ValidateIdentifier checks a slug-style identifier (letters, digits, underscore, hyphen).
func ValidateIdentifier(field, s string) error {
	if s == "" {
		return &ValidationError{Field: field, Message: "cannot be empty"}
	}
	if len(s) > MaxNameLength {
		return &ValidationError{Field: field, Message: fmt.Sprintf("exceeds maximum length of %d", MaxNameLength)}
	}
	if !isValidIdentifier(s) {
		return &ValidationError{Field: field, Message: fmt.Sprintf("%q is not a valid identifier", s)}
	}
	return nil
}

// hasControlChars returns true if the string contains control characters.
func hasControlChars(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) {
			return true
		}
	}
	return false
}

// hasControlCharsExceptWhitespace returns true if the string contains control characters
// other than newline, carriage return, and tab.
func hasControlCharsExceptWhitespace(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return true
		}
	}
	return false
}

// isValidIdentifier returns true if s starts with a letter or underscore and
// continues with letters, digits, underscores or hyphens.
func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
		} else {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' {
				return false
			}
		}
	}
	return true
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clampAdd returns cur+delta bounded to [lo, hi]. The sum saturates instead
// of wrapping, so any delta lands on the nearer bound.
func clampAdd(cur, delta, lo, hi int) int {
	cur = clamp(cur, lo, hi)
	switch {
	case delta > 0 && delta > hi-cur:
		return hi
	case delta < 0 && delta < lo-cur:
		return lo
	}
	return cur + delta
}

// AddInt returns a+b and false when the sum does not fit in an int.
func AddInt(a, b int) (int, bool) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, false
	}
	return sum, true
}

// MulInt returns a*b and false when the product does not fit in an int.
func MulInt(a, b int) (int, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	p := a * b
	if p/b != a || (a == -1 && b == math.MinInt) || (b == -1 && a == math.MinInt) {
		return 0, false
	}
	return p, true
}
