// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package world

import (
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Error codes for expected failures. Stores and operations attach these with
// oops.Code so callers can map them onto the response envelope.
const (
	CodePlayerNotFound       = "PLAYER_NOT_FOUND"
	CodeNPCNotFound          = "NPC_NOT_FOUND"
	CodeLocationNotFound     = "LOCATION_NOT_FOUND"
	CodeConnectionNotFound   = "CONNECTION_NOT_FOUND"
	CodeItemNotFound         = "ITEM_NOT_FOUND"
	CodeFactionNotFound      = "FACTION_NOT_FOUND"
	CodeQuestNotFound        = "QUEST_NOT_FOUND"
	CodeEventNotFound        = "EVENT_NOT_FOUND"
	CodeWorldBibleNotFound   = "WORLD_BIBLE_NOT_FOUND"
	CodeInvalidState         = "INVALID_STATE"
	CodeNPCUnavailable       = "NPC_UNAVAILABLE"
	CodeLocationInaccessible = "LOCATION_INACCESSIBLE"
	CodeInvalidInput         = "INVALID_INPUT"
	CodeMissingRequired      = "MISSING_REQUIRED"
	CodeTransactionFailed    = "TRANSACTION_FAILED"
	CodeInsufficientFunds    = "INSUFFICIENT_FUNDS"
	CodeInsufficientQuantity = "INSUFFICIENT_QUANTITY"
	CodeInventoryFull        = "INVENTORY_FULL"
	CodeHierarchyCycle       = "HIERARCHY_CYCLE"
	CodeAgentError           = "AGENT_ERROR"
	CodeToolError            = "TOOL_ERROR"
	CodePermissionDenied     = "PERMISSION_DENIED"
	CodeUnknownTool          = "UNKNOWN_TOOL"
	CodeUnknown              = "UNKNOWN"
)

// expectedCodes is the set of codes that represent anticipated outcomes
// rather than faults.
var expectedCodes = map[string]bool{
	CodePlayerNotFound:       true,
	CodeNPCNotFound:          true,
	CodeLocationNotFound:     true,
	CodeConnectionNotFound:   true,
	CodeItemNotFound:         true,
	CodeFactionNotFound:      true,
	CodeQuestNotFound:        true,
	CodeEventNotFound:        true,
	CodeWorldBibleNotFound:   true,
	CodeInvalidState:         true,
	CodeNPCUnavailable:       true,
	CodeLocationInaccessible: true,
	CodeInvalidInput:         true,
	CodeMissingRequired:      true,
	CodeTransactionFailed:    true,
	CodeInsufficientFunds:    true,
	CodeInsufficientQuantity: true,
	CodeInventoryFull:        true,
	CodePermissionDenied:     true,
	CodeUnknownTool:          true,
}

// IsExpectedCode reports whether code is part of the expected-failure taxonomy.
// HIERARCHY_CYCLE is deliberately absent: a cycle is a configuration fault.
func IsExpectedCode(code string) bool {
	return expectedCodes[code]
}

// Sentinel errors wrapped by coded failures so callers can use errors.Is.
var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidState         = errors.New("invalid state")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientQuantity = errors.New("insufficient quantity")
	ErrInventoryFull        = errors.New("inventory full")
	ErrNPCUnavailable       = errors.New("npc unavailable")
	ErrHierarchyCycle       = errors.New("hierarchy cycle")
)

// NotFound builds a coded not-found error for an entity kind.
func NotFound(code, kind string, id ulid.ULID) error {
	return oops.Code(code).With("id", id.String()).Wrapf(ErrNotFound, "%s %s", kind, id)
}

// InvalidInput builds a coded error for malformed or out-of-range input.
func InvalidInput(format string, args ...any) error {
	return oops.Code(CodeInvalidInput).Wrapf(ErrInvalidInput, format, args...)
}

// InvalidState builds a coded error for an entity that forbids the operation.
func InvalidState(format string, args ...any) error {
	return oops.Code(CodeInvalidState).Wrapf(ErrInvalidState, format, args...)
}

// FromValidation converts a validation failure into a coded INVALID_INPUT error.
// Errors that are not *ValidationError are returned unchanged.
func FromValidation(err error) error {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return oops.Code(CodeInvalidInput).With("field", ve.Field).Wrap(fmt.Errorf("%w: %s", ErrInvalidInput, ve.Error()))
	}
	return err
}

// ErrorCode extracts the oops code from err, or "" when err carries none.
func ErrorCode(err error) string {
	if oopsErr, ok := oops.AsOops(err); ok {
		if code, ok := oopsErr.Code().(string); ok {
			return code
		}
	}
	return ""
}
