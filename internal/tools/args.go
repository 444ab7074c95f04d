// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package tools

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/worldkeeper/worldkeeper/internal/core"
	"github.com/worldkeeper/worldkeeper/internal/world"
)

// Args are the named parameters of a tool call, as decoded from JSON or
// parsed from the command line.
type Args map[string]any

func missingArg(name string) error {
	return oops.Code(world.CodeMissingRequired).With("param", name).
		Errorf("missing required parameter %q", name)
}

func invalidArg(name, format string, args ...any) error {
	return oops.Code(world.CodeInvalidInput).With("param", name).
		Wrapf(world.ErrInvalidInput, "parameter %q: "+format, append([]any{name}, args...)...)
}

// Has reports whether name was supplied with a non-nil value.
func (a Args) Has(name string) bool {
	v, ok := a[name]
	return ok && v != nil
}

// String returns a required, non-blank string argument.
func (a Args) String(name string) (string, error) {
	if !a.Has(name) {
		return "", missingArg(name)
	}
	s, ok := a[name].(string)
	if !ok {
		return "", invalidArg(name, "expected a string, got %T", a[name])
	}
	if strings.TrimSpace(s) == "" {
		return "", missingArg(name)
	}
	return s, nil
}

// OptString returns a string argument or def when absent.
func (a Args) OptString(name, def string) (string, error) {
	if !a.Has(name) {
		return def, nil
	}
	s, ok := a[name].(string)
	if !ok {
		return "", invalidArg(name, "expected a string, got %T", a[name])
	}
	return s, nil
}

// Int returns a required integer argument. Whole floats, as produced by JSON
// decoding, and numeric strings are accepted.
func (a Args) Int(name string) (int, error) {
	if !a.Has(name) {
		return 0, missingArg(name)
	}
	return toInt(name, a[name])
}

// OptInt returns an integer argument or def when absent.
func (a Args) OptInt(name string, def int) (int, error) {
	if !a.Has(name) {
		return def, nil
	}
	return toInt(name, a[name])
}

// OptIntPtr returns an integer argument, or nil when absent.
func (a Args) OptIntPtr(name string) (*int, error) {
	if !a.Has(name) {
		return nil, nil
	}
	v, err := toInt(name, a[name])
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// MaxIntArg bounds every integer argument. Deltas, amounts and counts
// beyond it are rejected rather than wrapped.
const MaxIntArg = 1_000_000_000

func toInt(name string, v any) (int, error) {
	n, err := parseInt(name, v)
	if err != nil {
		return 0, err
	}
	if n > MaxIntArg || n < -MaxIntArg {
		return 0, invalidArg(name, "%v is out of range [-%d, %d]", v, MaxIntArg, MaxIntArg)
	}
	return int(n), nil
}

func parseInt(name string, v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, invalidArg(name, "expected a whole number, got %v", n)
		}
		if n > MaxIntArg || n < -MaxIntArg {
			return 0, invalidArg(name, "%v is out of range [-%d, %d]", n, MaxIntArg, MaxIntArg)
		}
		return int64(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, invalidArg(name, "expected a whole number in range, got %s", n)
		}
		return i, nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, invalidArg(name, "expected a whole number in range, got %q", n)
		}
		return i, nil
	default:
		return 0, invalidArg(name, "expected a number, got %T", v)
	}
}

// Float returns a required numeric argument.
func (a Args) Float(name string) (float64, error) {
	if !a.Has(name) {
		return 0, missingArg(name)
	}
	return toFloat(name, a[name])
}

// OptFloat returns a numeric argument or def when absent.
func (a Args) OptFloat(name string, def float64) (float64, error) {
	if !a.Has(name) {
		return def, nil
	}
	return toFloat(name, a[name])
}

func toFloat(name string, v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, invalidArg(name, "expected a number, got %s", n)
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, invalidArg(name, "expected a number, got %q", n)
		}
		return f, nil
	default:
		return 0, invalidArg(name, "expected a number, got %T", v)
	}
}

// OptBool returns a boolean argument or def when absent.
func (a Args) OptBool(name string, def bool) (bool, error) {
	if !a.Has(name) {
		return def, nil
	}
	switch b := a[name].(type) {
	case bool:
		return b, nil
	case string:
		v, err := strconv.ParseBool(b)
		if err != nil {
			return false, invalidArg(name, "expected true or false, got %q", b)
		}
		return v, nil
	default:
		return false, invalidArg(name, "expected a boolean, got %T", a[name])
	}
}

// ID returns a required ULID argument.
func (a Args) ID(name string) (ulid.ULID, error) {
	s, err := a.String(name)
	if err != nil {
		return ulid.ULID{}, err
	}
	id, err := core.ParseULID(s)
	if err != nil {
		return ulid.ULID{}, invalidArg(name, "%v", err)
	}
	return id, nil
}

// OptID returns a ULID argument, or nil when absent or empty.
func (a Args) OptID(name string) (*ulid.ULID, error) {
	s, err := a.OptString(name, "")
	if err != nil || s == "" {
		return nil, err
	}
	id, err := core.ParseULID(s)
	if err != nil {
		return nil, invalidArg(name, "%v", err)
	}
	return &id, nil
}

// OptIDs returns a list of ULID arguments.
func (a Args) OptIDs(name string) (world.IDSet, error) {
	raw, err := a.OptStrings(name)
	if err != nil {
		return nil, err
	}
	ids := make(world.IDSet, 0, len(raw))
	for _, s := range raw {
		id, err := core.ParseULID(s)
		if err != nil {
			return nil, invalidArg(name, "%v", err)
		}
		ids.Add(id)
	}
	return ids, nil
}

// OptStrings returns a string list argument, or nil when absent.
func (a Args) OptStrings(name string) ([]string, error) {
	if !a.Has(name) {
		return nil, nil
	}
	switch v := a[name].(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, invalidArg(name, "expected a list of strings, found %T", e)
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		if v == "" {
			return []string{}, nil
		}
		return strings.Split(v, ","), nil
	default:
		return nil, invalidArg(name, "expected a list of strings, got %T", v)
	}
}

// Decode converts a structured argument into dst by round-tripping it
// through JSON. It reports false when the argument is absent.
func (a Args) Decode(name string, dst any) (bool, error) {
	if !a.Has(name) {
		return false, nil
	}
	v := a[name]
	if s, ok := v.(string); ok {
		if err := json.Unmarshal([]byte(s), dst); err != nil {
			return false, invalidArg(name, "%v", err)
		}
		return true, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return false, invalidArg(name, "%v", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, invalidArg(name, "%v", err)
	}
	return true, nil
}
