// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package main

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/worldkeeper/worldkeeper/internal/result"
	"github.com/worldkeeper/worldkeeper/internal/tools"
	"github.com/worldkeeper/worldkeeper/internal/world"
)

// NewToolCmd creates the tool subcommand.
func NewToolCmd() *cobra.Command {
	var (
		pairs    []string
		argsJSON string
		list     bool
	)

	cmd := &cobra.Command{
		Use:   "tool NAME",
		Short: "Run one tool and print its JSON response",
		Long: `Dispatches a single tool call against the configured database and
prints the response as JSON. Arguments are given as --arg key=value, where
value is parsed as JSON when possible and taken as a string otherwise, or
all at once with --args '{"key": value}'. The caller role comes from --role.`,
		Example: `  worldkeeper tool get_player --arg player_id=01J0000000000000000000000
  worldkeeper tool advance_time --arg hours=6 --role dm
  worldkeeper tool --list`,
		Args: func(cmd *cobra.Command, args []string) error {
			if list {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				return listTools(cmd.OutOrStdout(), tools.NewDefaultRegistry())
			}
			toolArgs, err := parseToolArgs(argsJSON, pairs)
			if err != nil {
				return err
			}
			return runTool(cmd, tools.Call{Tool: args[0], Args: toolArgs})
		},
	}

	cmd.Flags().StringArrayVar(&pairs, "arg", nil, "tool argument as key=value (repeatable)")
	cmd.Flags().StringVar(&argsJSON, "args", "", "tool arguments as a JSON object")
	cmd.Flags().BoolVar(&list, "list", false, "list available tools and exit")

	return cmd
}

// parseToolArgs merges a JSON object with key=value pairs. Pairs win.
func parseToolArgs(argsJSON string, pairs []string) (tools.Args, error) {
	args := tools.Args{}
	if strings.TrimSpace(argsJSON) != "" {
		dec := json.NewDecoder(strings.NewReader(argsJSON))
		dec.UseNumber()
		if err := dec.Decode(&args); err != nil {
			return nil, oops.Code(world.CodeInvalidInput).Wrapf(err, "--args must be a JSON object")
		}
	}
	for _, p := range pairs {
		key, raw, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, oops.Code(world.CodeInvalidInput).With("arg", p).Errorf("argument %q is not key=value", p)
		}
		args[key] = argValue(raw)
	}
	return args, nil
}

// argValue decodes raw as a JSON value, falling back to the raw string.
func argValue(raw string) any {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return raw
	}
	return v
}

func runTool(cmd *cobra.Command, call tools.Call) error {
	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	d, err := newDispatcher(store)
	if err != nil {
		return err
	}
	resp := d.Call(ctx, call)
	if err := writeJSON(cmd.OutOrStdout(), resp, true); err != nil {
		return err
	}
	if !resp.Success() {
		return oops.Code(resp.ErrorCode()).With("tool", call.Tool).Errorf("tool call failed")
	}
	return nil
}

func writeJSON(w io.Writer, resp result.Response, indent bool) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(resp); err != nil {
		return oops.Code(world.CodeToolError).Wrapf(err, "encode response")
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return oops.With("operation", "write response").Wrap(err)
	}
	return nil
}

func listTools(w io.Writer, registry *tools.Registry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, t := range registry.All() {
		mode := "write"
		if t.ReadOnly {
			mode = "read"
		}
		if _, err := io.WriteString(tw, t.QualifiedName()+"\t"+mode+"\t"+t.Help+"\n"); err != nil {
			return err
		}
	}
	return tw.Flush()
}
