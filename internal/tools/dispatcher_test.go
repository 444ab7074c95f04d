// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package tools_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldkeeper/worldkeeper/internal/core"
	"github.com/worldkeeper/worldkeeper/internal/result"
	"github.com/worldkeeper/worldkeeper/internal/tools"
	"github.com/worldkeeper/worldkeeper/internal/world"
)

func TestNewDispatcher_RequiresStore(t *testing.T) {
	_, err := tools.NewDispatcher(nil, nil)
	assert.ErrorIs(t, err, tools.ErrNilBeginner)
}

func TestDefaultRegistry_Surface(t *testing.T) {
	r := tools.NewDefaultRegistry()

	byCategory := map[string]int{}
	for _, tool := range r.All() {
		byCategory[tool.Category]++
		assert.NotNil(t, tool.Handler, tool.Name)
		assert.NotEmpty(t, tool.Help, tool.Name)
	}
	assert.Equal(t, 25, byCategory[tools.CategoryRead])
	assert.Equal(t, 40, byCategory[tools.CategoryWrite])
	assert.Equal(t, 3, byCategory[tools.CategoryCompound])

	for _, name := range []string{"move_player", "get_available_destinations", "update_npc_relationship",
		"adjust_currency", "transfer_item", "advance_time", "create_quest", "update_quest_status", "delete_quest"} {
		_, ok := r.Get(name)
		assert.True(t, ok, name)
	}
}

func TestDispatcher_UnknownTool(t *testing.T) {
	d, _ := newDispatcher(t)
	resp := call(t, d, "summon_dragon", nil)
	assertFails(t, resp, world.CodeUnknownTool)
}

func TestDispatcher_PermissionDenied(t *testing.T) {
	grants, err := tools.NewGrants(tools.DefaultGrants())
	require.NoError(t, err)
	d, _ := newDispatcher(t, tools.WithGrants(grants))

	resp := d.Call(context.Background(), tools.Call{
		Tool: "advance_time", Role: "observer", Args: tools.Args{"hours": 1},
	})
	assertFails(t, resp, world.CodePermissionDenied)

	resp = d.Call(context.Background(), tools.Call{Tool: "get_world_clock", Role: "observer"})
	requireOK(t, resp)

	resp = d.Call(context.Background(), tools.Call{Tool: "advance_time", Args: tools.Args{"hours": 1}})
	requireOK(t, resp)
}

func TestDispatcher_EntityArgument(t *testing.T) {
	d, _ := newDispatcher(t)

	tests := []struct {
		name string
		args tools.Args
		code string
	}{
		{"missing", tools.Args{}, world.CodeMissingRequired},
		{"blank", tools.Args{"player_id": "  "}, world.CodeMissingRequired},
		{"malformed", tools.Args{"player_id": "not-a-ulid"}, world.CodeInvalidInput},
		{"wrong type", tools.Args{"player_id": 42}, world.CodeInvalidInput},
		{"unknown", tools.Args{"player_id": core.NewULID().String()}, world.CodePlayerNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertFails(t, call(t, d, "get_player", tt.args), tt.code)
		})
	}
}

// customDispatcher serves only the given tools.
func customDispatcher(t *testing.T, ts ...tools.Tool) (*tools.Dispatcher, context.Context, world.Beginner) {
	t.Helper()
	s := newStore(t)
	r := tools.NewRegistry()
	r.Register(ts...)
	d, err := tools.NewDispatcher(r, s)
	require.NoError(t, err)
	return d, context.Background(), s
}

func factionCount(t *testing.T, b world.Beginner) int {
	t.Helper()
	n := 0
	err := world.InTransaction(context.Background(), b, func(uow world.UnitOfWork) error {
		fs, err := uow.Factions().List(context.Background())
		n = len(fs)
		return err
	})
	require.NoError(t, err)
	return n
}

func createGuild(ctx context.Context, env *tools.Env) error {
	return env.UoW.Factions().Create(ctx, world.NewFaction("Guild"))
}

func TestDispatcher_PanicBecomesToolError(t *testing.T) {
	d, ctx, _ := customDispatcher(t, tools.Tool{
		Name: "explode", Category: tools.CategoryWrite, Help: "panics",
		Handler: func(context.Context, *tools.Env, tools.Args) (any, error) {
			panic("boom")
		},
	})
	resp := d.Call(ctx, tools.Call{Tool: "explode"})
	assertFails(t, resp, world.CodeToolError)
	assert.Contains(t, resp["error"], "boom")
}

func TestDispatcher_UnexpectedErrorBecomesToolError(t *testing.T) {
	d, ctx, _ := customDispatcher(t, tools.Tool{
		Name: "fault", Category: tools.CategoryWrite, Help: "faults",
		Handler: func(context.Context, *tools.Env, tools.Args) (any, error) {
			return nil, errors.New("disk on fire")
		},
	})
	assertFails(t, d.Call(ctx, tools.Call{Tool: "fault"}), world.CodeToolError)
}

func TestDispatcher_FailureRollsBack(t *testing.T) {
	d, ctx, store := customDispatcher(t,
		tools.Tool{
			Name: "half_done", Category: tools.CategoryWrite, Help: "writes then fails",
			Handler: func(ctx context.Context, env *tools.Env, _ tools.Args) (any, error) {
				if err := createGuild(ctx, env); err != nil {
					return nil, err
				}
				return nil, world.InvalidState("second step refused")
			},
		},
		tools.Tool{
			Name: "soft_fail", Category: tools.CategoryWrite, Help: "writes then reports failure",
			Handler: func(ctx context.Context, env *tools.Env, _ tools.Args) (any, error) {
				if err := createGuild(ctx, env); err != nil {
					return nil, err
				}
				return result.Fail[any]("nope", world.CodeInvalidState), nil
			},
		},
	)

	assertFails(t, d.Call(ctx, tools.Call{Tool: "half_done"}), world.CodeInvalidState)
	assert.Equal(t, 0, factionCount(t, store))

	assertFails(t, d.Call(ctx, tools.Call{Tool: "soft_fail"}), world.CodeInvalidState)
	assert.Equal(t, 0, factionCount(t, store))
}

func TestDispatcher_CommitsWritesNotReads(t *testing.T) {
	handler := func(ctx context.Context, env *tools.Env, _ tools.Args) (any, error) {
		return nil, createGuild(ctx, env)
	}
	d, ctx, store := customDispatcher(t,
		tools.Tool{Name: "peek", Category: tools.CategoryRead, Help: "read", ReadOnly: true, Handler: handler},
		tools.Tool{Name: "found", Category: tools.CategoryWrite, Help: "write", Handler: handler},
	)

	resp := d.Call(ctx, tools.Call{Tool: "peek"})
	requireOK(t, resp)
	assert.Equal(t, 0, factionCount(t, store), "read-only tools never commit")

	requireOK(t, d.Call(ctx, tools.Call{Tool: "found"}))
	assert.Equal(t, 1, factionCount(t, store))
}

func TestDispatcher_NormalizesReturnValues(t *testing.T) {
	d, ctx, _ := customDispatcher(t,
		tools.Tool{Name: "plain", Category: tools.CategoryRead, Help: "value", ReadOnly: true,
			Handler: func(context.Context, *tools.Env, tools.Args) (any, error) { return 7, nil }},
		tools.Tool{Name: "mapped", Category: tools.CategoryRead, Help: "map", ReadOnly: true,
			Handler: func(context.Context, *tools.Env, tools.Args) (any, error) {
				return map[string]any{"answer": 42}, nil
			}},
		tools.Tool{Name: "wrapped", Category: tools.CategoryRead, Help: "result", ReadOnly: true,
			Handler: func(context.Context, *tools.Env, tools.Args) (any, error) {
				return result.Ok(result.Response{"answer": 42}), nil
			}},
	)

	resp := d.Call(ctx, tools.Call{Tool: "plain"})
	requireOK(t, resp)
	assert.Equal(t, 7, resp["data"])

	for _, name := range []string{"mapped", "wrapped"} {
		resp = d.Call(ctx, tools.Call{Tool: name})
		requireOK(t, resp)
		assert.Equal(t, 42, resp["answer"], name)
	}
}

func TestDispatcher_RecordsMetrics(t *testing.T) {
	d, ctx, _ := customDispatcher(t, tools.Tool{
		Name: "metered_probe", Category: tools.CategoryRead, Help: "metrics", ReadOnly: true,
		Handler: func(_ context.Context, _ *tools.Env, args tools.Args) (any, error) {
			if args.Has("fail") {
				return nil, world.InvalidInput("asked to fail")
			}
			return nil, nil
		},
	})

	success := tools.ToolCalls.WithLabelValues("metered_probe", tools.CategoryRead, tools.StatusSuccess)
	failed := tools.ToolCalls.WithLabelValues("metered_probe", tools.CategoryRead, world.CodeInvalidInput)
	beforeOK, beforeFail := testutil.ToFloat64(success), testutil.ToFloat64(failed)

	d.Call(ctx, tools.Call{Tool: "metered_probe"})
	d.Call(ctx, tools.Call{Tool: "metered_probe"})
	d.Call(ctx, tools.Call{Tool: "metered_probe", Args: tools.Args{"fail": true}})

	assert.InDelta(t, beforeOK+2, testutil.ToFloat64(success), 0.001)
	assert.InDelta(t, beforeFail+1, testutil.ToFloat64(failed), 0.001)
}
