// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/worldkeeper/worldkeeper/internal/logging"
	"github.com/worldkeeper/worldkeeper/internal/result"
	"github.com/worldkeeper/worldkeeper/internal/session"
	"github.com/worldkeeper/worldkeeper/internal/world"
	"github.com/worldkeeper/worldkeeper/pkg/errutil"
)

var tracer = otel.Tracer("worldkeeper/tools")

// ErrNilBeginner is returned by NewDispatcher when no store is supplied.
var ErrNilBeginner = errors.New("tools: dispatcher requires a unit of work source")

// Call is one tool invocation.
type Call struct {
	Tool string `json:"tool"`
	Role string `json:"role,omitempty"`
	Args Args   `json:"args,omitempty"`
}

// Dispatcher runs tools inside units of work.
type Dispatcher struct {
	registry    *Registry
	store       world.Beginner
	grants      *Grants
	defaultRole string
	sessions    *session.Manager
	logger      *slog.Logger
}

// DispatcherOption configures a Dispatcher during construction.
type DispatcherOption func(*Dispatcher)

// WithGrants restricts calls by role. Without grants every role may call
// every tool.
func WithGrants(g *Grants) DispatcherOption {
	return func(d *Dispatcher) { d.grants = g }
}

// WithDefaultRole sets the role used when a call names none.
func WithDefaultRole(role string) DispatcherOption {
	return func(d *Dispatcher) { d.defaultRole = role }
}

// WithSessions hands the session manager to handlers.
func WithSessions(m *session.Manager) DispatcherOption {
	return func(d *Dispatcher) { d.sessions = m }
}

// WithLogger overrides slog.Default.
func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l }
}

// NewDispatcher creates a dispatcher over registry and store.
func NewDispatcher(registry *Registry, store world.Beginner, opts ...DispatcherOption) (*Dispatcher, error) {
	if store == nil {
		return nil, ErrNilBeginner
	}
	if registry == nil {
		registry = NewDefaultRegistry()
	}
	d := &Dispatcher{
		registry:    registry,
		store:       store,
		defaultRole: "dm",
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.sessions == nil {
		d.sessions = session.NewManager()
	}
	return d, nil
}

// Registry returns the tools this dispatcher serves.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Sessions returns the session manager handed to handlers.
func (d *Dispatcher) Sessions() *session.Manager { return d.sessions }

// Call runs one tool and returns its flattened response. It never returns
// an error: every failure, including a panicking handler, becomes a
// response with success=false.
func (d *Dispatcher) Call(ctx context.Context, call Call) result.Response {
	start := time.Now()
	role := call.Role
	if role == "" {
		role = d.defaultRole
	}

	ctx, span := tracer.Start(ctx, "tool.call",
		trace.WithAttributes(
			attribute.String("tool.name", call.Tool),
			attribute.String("tool.role", role),
		),
	)
	defer span.End()
	ctx = logging.WithAttrs(ctx, "tool", call.Tool, "role", role)

	t, resp := d.run(ctx, call, role)

	status := StatusSuccess
	if !resp.Success() {
		status = resp.ErrorCode()
		span.SetStatus(codes.Error, fmt.Sprint(resp["error"]))
	}
	span.SetAttributes(
		attribute.String("tool.category", t.Category),
		attribute.String("tool.status", status),
	)
	recordCall(call.Tool, t.Category, status, time.Since(start))
	return resp
}

func (d *Dispatcher) run(ctx context.Context, call Call, role string) (Tool, result.Response) {
	t, ok := d.registry.Get(call.Tool)
	if !ok {
		err := oops.Code(world.CodeUnknownTool).With("tool", call.Tool).Errorf("unknown tool %q", call.Tool)
		return t, d.fail(ctx, err)
	}
	if d.grants != nil && !d.grants.Allows(role, t) {
		err := oops.Code(world.CodePermissionDenied).With("tool", call.Tool).With("role", role).
			Errorf("role %q may not call %s", role, t.QualifiedName())
		return t, d.fail(ctx, err)
	}

	uow, err := d.store.Begin(ctx)
	if err != nil {
		return t, d.fail(ctx, err)
	}
	defer func() {
		if rbErr := uow.Rollback(); rbErr != nil {
			d.logger.WarnContext(ctx, "tool rollback failed", "error", rbErr)
		}
	}()

	env := &Env{UoW: uow, Sessions: d.sessions}
	args := call.Args
	if args == nil {
		args = Args{}
	}

	if t.Entity != EntityNone {
		id, err := args.ID(t.idParam())
		if err != nil {
			return t, d.fail(ctx, err)
		}
		entity, err := fetchEntity(ctx, uow, t.Entity, id)
		if err != nil {
			return t, d.fail(ctx, err)
		}
		env.Entity = entity
		trace.SpanFromContext(ctx).SetAttributes(attribute.String("tool.entity_id", id.String()))
	}

	out, err := invoke(ctx, t, env, args)
	if err != nil {
		return t, d.fail(ctx, err)
	}

	resp := normalize(out)
	if !resp.Success() || t.ReadOnly {
		return t, resp
	}
	if err := uow.Commit(); err != nil {
		return t, d.fail(ctx, err)
	}
	return t, resp
}

// invoke runs the handler, turning a panic into a TOOL_ERROR.
func invoke(ctx context.Context, t Tool, env *Env, args Args) (out any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = oops.Code(world.CodeToolError).With("tool", t.Name).Errorf("tool %s panicked: %v", t.Name, p)
		}
	}()
	return t.Handler(ctx, env, args)
}

// fail converts err into a failure response. Expected failures keep their
// code; anything else is reported as TOOL_ERROR.
func (d *Dispatcher) fail(ctx context.Context, err error) result.Response {
	code := world.ErrorCode(err)
	if world.IsExpectedCode(code) {
		d.logger.WarnContext(ctx, "tool call failed",
			"code", code,
			"error", err,
		)
		return result.Fail[any](err.Error(), code).ToResponse()
	}

	trace.SpanFromContext(ctx).RecordError(err)
	errutil.LogError(ctx, d.logger, "tool call errored", err)
	return result.Fail[any](err.Error(), world.CodeToolError).ToResponse()
}

// normalize flattens whatever a handler returned into a response.
func normalize(out any) result.Response {
	switch v := out.(type) {
	case nil:
		return result.Response{"success": true}
	case result.Responder:
		return v.ToResponse()
	case result.Response:
		return withSuccess(v)
	case map[string]any:
		return withSuccess(v)
	default:
		return result.Ok(out).ToResponse()
	}
}

func withSuccess(m map[string]any) result.Response {
	resp := make(result.Response, len(m)+1)
	for k, v := range m {
		resp[k] = v
	}
	if _, ok := resp["success"]; !ok {
		resp["success"] = true
	}
	return resp
}
