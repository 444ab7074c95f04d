// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

// Package main is the entry point for the Worldkeeper CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/worldkeeper/worldkeeper/pkg/errutil"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCmd()
	cmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)

	if err := cmd.ExecuteContext(ctx); err != nil {
		errutil.LogError(ctx, slog.Default(), "command failed", err)
		stop()
		os.Exit(1)
	}
}
