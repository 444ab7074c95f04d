// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package sqlite_test

import (
	"context"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/worldkeeper/worldkeeper/internal/world"
	"github.com/worldkeeper/worldkeeper/internal/world/sqlite"
)

func TestTravelGraph(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Travel Graph Suite")
}

// graphEnv is a fresh database with an open unit of work per spec.
type graphEnv struct {
	ctx   context.Context
	store *sqlite.Store
	uow   world.UnitOfWork
}

func newGraphEnv() *graphEnv {
	dir, err := os.MkdirTemp("", "worldkeeper-graph-*")
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(os.RemoveAll, dir)

	s, err := openStore(dir)
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(s.Close)

	ctx := context.Background()
	uow, err := s.Begin(ctx)
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(uow.Rollback)

	return &graphEnv{ctx: ctx, store: s, uow: uow}
}

func (e *graphEnv) location(name string, parent *world.Location) *world.Location {
	level := world.LevelRoot
	if parent != nil {
		level = world.ChildLevel(parent.Level)
	}
	loc := world.NewLocation(name, level)
	loc.SetParent(parent)
	Expect(e.uow.Locations().Create(e.ctx, loc)).To(Succeed())
	return loc
}

func (e *graphEnv) connect(from, to *world.Location, travelType string, hours float64, mutate ...func(*world.Connection)) *world.Connection {
	c := world.NewConnection(from.ID, to.ID, travelType, hours)
	for _, m := range mutate {
		m(c)
	}
	Expect(e.uow.Connections().Create(e.ctx, c)).To(Succeed())
	return c
}

func destinationNames(ds []world.Destination) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Name
	}
	return out
}
