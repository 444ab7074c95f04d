// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

// Package core holds identifier helpers shared by every world entity.
package core

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// CodeInvalidID marks a string that is not a ULID.
const CodeInvalidID = "INVALID_INPUT"

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewULID returns an ID stamped with the current time. IDs minted in the
// same millisecond still sort in creation order.
func NewULID() ulid.ULID {
	return NewULIDAt(time.Now())
}

// NewULIDAt returns an ID stamped with t.
func NewULIDAt(t time.Time) ulid.ULID {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy)
}

// ParseULID parses an entity ID. Surrounding whitespace is ignored and
// lowercase input is accepted.
func ParseULID(s string) (ulid.ULID, error) {
	trimmed := strings.TrimSpace(s)
	id, err := ulid.ParseStrict(strings.ToUpper(trimmed))
	if err != nil {
		return ulid.ULID{}, oops.Code(CodeInvalidID).With("id", s).Wrapf(err, "invalid id %q", trimmed)
	}
	return id, nil
}
