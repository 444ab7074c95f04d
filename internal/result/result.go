// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

// Package result provides the success/failure envelope returned by world
// operations and its flattened response shape.
package result

import (
	"errors"

	"github.com/samber/oops"

	"github.com/worldkeeper/worldkeeper/internal/world"
)

// Response is the map handed to external callers. It always carries
// "success"; failures add "error" and "error_code".
type Response map[string]any

// Success reports the envelope's success flag.
func (r Response) Success() bool {
	ok, _ := r["success"].(bool)
	return ok
}

// ErrorCode returns the failure code, or "" on success.
func (r Response) ErrorCode() string {
	code, _ := r["error_code"].(string)
	return code
}

// Result wraps either data or an expected failure.
type Result[T any] struct {
	ok      bool
	data    T
	message string
	code    string
}

// Ok wraps data in a successful result.
func Ok[T any](data T) Result[T] {
	return Result[T]{ok: true, data: data}
}

// Fail builds a failed result. An empty code becomes UNKNOWN.
func Fail[T any](message, code string) Result[T] {
	if code == "" {
		code = world.CodeUnknown
	}
	return Result[T]{message: message, code: code}
}

// FromError converts an error into a failed result, carrying the oops code
// when one is attached. A nil error yields a successful zero result.
func FromError[T any](err error) Result[T] {
	if err == nil {
		var zero T
		return Ok(zero)
	}
	return Fail[T](err.Error(), world.ErrorCode(err))
}

// Of combines a (value, error) pair into a result.
func Of[T any](data T, err error) Result[T] {
	if err != nil {
		return FromError[T](err)
	}
	return Ok(data)
}

// IsOk reports whether the result succeeded.
func (r Result[T]) IsOk() bool { return r.ok }

// Data returns the wrapped value, which is the zero value on failure.
func (r Result[T]) Data() T { return r.data }

// Message returns the failure message.
func (r Result[T]) Message() string { return r.message }

// Code returns the failure code, or "" on success.
func (r Result[T]) Code() string { return r.code }

// Unwrap returns the data, or an error carrying the failure code.
func (r Result[T]) Unwrap() (T, error) {
	if r.ok {
		return r.data, nil
	}
	var zero T
	return zero, oops.Code(r.code).Wrap(errors.New(r.message))
}

// UnwrapOr returns the data, or fallback on failure.
func (r Result[T]) UnwrapOr(fallback T) T {
	if r.ok {
		return r.data
	}
	return fallback
}

// ToResponse flattens the result. Map data is merged into the top level;
// anything else is placed under "data".
func (r Result[T]) ToResponse() Response {
	if !r.ok {
		return Response{"success": false, "error": r.message, "error_code": r.code}
	}
	resp := Response{"success": true}
	switch d := any(r.data).(type) {
	case Response:
		mergeInto(resp, d)
	case map[string]any:
		mergeInto(resp, d)
	default:
		resp["data"] = r.data
	}
	return resp
}

// Map transforms the data of a successful result. Failures pass through.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if !r.ok {
		return Result[U]{message: r.message, code: r.code}
	}
	return Ok(fn(r.data))
}

// Responder is implemented by results of any type parameter so callers can
// flatten them without knowing T.
type Responder interface {
	ToResponse() Response
}

var _ Responder = Result[int]{}

func mergeInto(dst Response, src map[string]any) {
	for k, v := range src {
		if k == "success" {
			continue
		}
		dst[k] = v
	}
}
