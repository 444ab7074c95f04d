// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package sqlite_test

import (
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/worldkeeper/worldkeeper/internal/core"
	"github.com/worldkeeper/worldkeeper/internal/world"
)

var _ = Describe("AvailableDestinations", func() {
	var (
		env                   *graphEnv
		realm, city, harbor   *world.Location
		market, cellar, ridge *world.Location
	)

	BeforeEach(func() {
		env = newGraphEnv()
		realm = env.location("Realm", nil)
		city = env.location("City", realm)
		harbor = env.location("Harbor", realm)
		ridge = env.location("Ridge", realm)
		market = env.location("Market", city)
		cellar = env.location("Cellar", city)

		market.Discovered = true
		Expect(env.uow.Locations().Update(env.ctx, market)).To(Succeed())
	})

	It("lists outgoing, incoming, children and parent in that order", func() {
		env.connect(city, harbor, "road", 2)
		env.connect(ridge, city, "trail", 3)

		dests, err := world.AvailableDestinations(env.ctx, env.uow, city)
		Expect(err).NotTo(HaveOccurred())
		Expect(destinationNames(dests)).To(Equal([]string{"Harbor", "Ridge", "Market", "Realm"}))

		Expect(dests[0].TravelType).To(Equal("road"))
		Expect(dests[0].ConnectionID).NotTo(BeNil())
		Expect(dests[2].TravelType).To(Equal(world.TravelEnter))
		Expect(dests[2].TravelTimeHours).To(BeNumerically("~", world.HierarchyTravelHours))
		Expect(dests[3].TravelType).To(Equal(world.TravelExit))
	})

	It("merges every edge kind and counts an overlapping child once", func() {
		cellar.Discovered = true
		Expect(env.uow.Locations().Update(env.ctx, cellar)).To(Succeed())
		env.connect(city, market, "stairs", 0.2)
		env.connect(ridge, city, "trail", 3)

		dests, err := world.AvailableDestinations(env.ctx, env.uow, city)
		Expect(err).NotTo(HaveOccurred())
		Expect(dests).To(HaveLen(4))
		Expect(destinationNames(dests)).To(Equal([]string{"Market", "Ridge", "Cellar", "Realm"}))
		Expect(dests[0].TravelType).To(Equal("stairs"))
	})

	It("shows a hidden connection once it is discovered", func() {
		tunnel := env.connect(city, harbor, "secret tunnel", 1, func(c *world.Connection) {
			c.Hidden = true
			c.Discovered = false
		})

		dests, err := world.AvailableDestinations(env.ctx, env.uow, city)
		Expect(err).NotTo(HaveOccurred())
		Expect(destinationNames(dests)).NotTo(ContainElement("Harbor"))

		tunnel.Discovered = true
		Expect(env.uow.Connections().Update(env.ctx, tunnel)).To(Succeed())

		dests, err = world.AvailableDestinations(env.ctx, env.uow, city)
		Expect(err).NotTo(HaveOccurred())
		Expect(destinationNames(dests)).To(ContainElement("Harbor"))
		Expect(dests[0].TravelType).To(Equal("secret tunnel"))
	})

	It("omits undiscovered children", func() {
		dests, err := world.AvailableDestinations(env.ctx, env.uow, city)
		Expect(err).NotTo(HaveOccurred())
		Expect(destinationNames(dests)).NotTo(ContainElement(cellar.Name))
	})

	It("hides undiscovered hidden connections and one-way arrivals", func() {
		env.connect(city, harbor, "secret tunnel", 1, func(c *world.Connection) {
			c.Hidden = true
			c.Discovered = false
		})
		env.connect(ridge, city, "rapids", 1, func(c *world.Connection) {
			c.Bidirectional = false
		})

		dests, err := world.AvailableDestinations(env.ctx, env.uow, city)
		Expect(err).NotTo(HaveOccurred())
		Expect(destinationNames(dests)).To(Equal([]string{"Market", "Realm"}))
	})

	It("prefers an explicit connection over the implicit parent edge", func() {
		env.connect(market, city, "stairs", 0.3)

		dests, err := world.AvailableDestinations(env.ctx, env.uow, market)
		Expect(err).NotTo(HaveOccurred())
		Expect(dests).To(HaveLen(1))
		Expect(dests[0].Name).To(Equal("City"))
		Expect(dests[0].TravelType).To(Equal("stairs"))
	})

	It("returns an empty list for an isolated root", func() {
		lonely := env.location("Island", nil)
		dests, err := world.AvailableDestinations(env.ctx, env.uow, lonely)
		Expect(err).NotTo(HaveOccurred())
		Expect(dests).To(BeEmpty())
		Expect(dests).NotTo(BeNil())
	})
})

var _ = Describe("Move", func() {
	var (
		env          *graphEnv
		realm, city  *world.Location
		harbor       *world.Location
		player       *world.Player
		roadToHarbor *world.Connection
	)

	BeforeEach(func() {
		env = newGraphEnv()
		realm = env.location("Realm", nil)
		city = env.location("City", realm)
		harbor = env.location("Harbor", realm)
		roadToHarbor = env.connect(city, harbor, "road", 2.5)

		player = world.NewPlayer("Mara")
		player.CurrentLocationID = &city.ID
		Expect(env.uow.Players().Create(env.ctx, player)).To(Succeed())

		clock := &world.WorldClock{Day: 7, Hour: 10}
		Expect(env.uow.Clock().Save(env.ctx, clock)).To(Succeed())
	})

	It("travels over a connection and marks the destination visited", func() {
		res, err := world.Move(env.ctx, env.uow, player, harbor.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.TravelType).To(Equal("road"))
		Expect(res.TravelTimeHours).To(BeNumerically("~", 2.5))
		Expect(res.DestinationID).To(Equal(harbor.ID))

		got, err := env.uow.Locations().Get(env.ctx, harbor.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Visited).To(BeTrue())
		Expect(got.Discovered).To(BeTrue())
		Expect(*got.LastVisitedDay).To(Equal(7))

		p, err := env.uow.Players().Get(env.ctx, player.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(*p.CurrentLocationID).To(Equal(harbor.ID))
	})

	It("travels a bidirectional connection in reverse", func() {
		player.CurrentLocationID = &harbor.ID
		res, err := world.Move(env.ctx, env.uow, player, city.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.TravelTimeHours).To(BeNumerically("~", roadToHarbor.TravelTimeHours))
	})

	It("uses the hierarchy edge when exiting to the parent", func() {
		res, err := world.Move(env.ctx, env.uow, player, realm.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.TravelType).To(Equal(world.TravelExit))
		Expect(res.TravelTimeHours).To(BeNumerically("~", world.HierarchyTravelHours))
	})

	It("falls back to walking between unrelated places", func() {
		ridge := env.location("Ridge", realm)
		res, err := world.Move(env.ctx, env.uow, player, ridge.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.TravelType).To(Equal(world.TravelWalk))
		Expect(res.TravelTimeHours).To(BeNumerically("~", world.FallbackTravelHours))
	})

	It("does not advance the clock", func() {
		_, err := world.Move(env.ctx, env.uow, player, harbor.ID)
		Expect(err).NotTo(HaveOccurred())
		clock, err := env.uow.Clock().Get(env.ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(clock.Day).To(Equal(7))
		Expect(clock.Hour).To(Equal(10))
	})

	It("fails with LOCATION_NOT_FOUND for an unknown destination", func() {
		_, err := world.Move(env.ctx, env.uow, player, core.NewULID())
		Expect(err).To(MatchError(world.ErrNotFound))
		Expect(world.ErrorCode(err)).To(Equal(world.CodeLocationNotFound))
	})
})

var _ = Describe("Hierarchy", func() {
	var env *graphEnv

	BeforeEach(func() {
		env = newGraphEnv()
	})

	It("walks from the root down and renders a breadcrumb", func() {
		realm := env.location("Realm", nil)
		city := env.location("City", realm)
		tavern := env.location("Tavern", city)

		chain, err := env.uow.Locations().Hierarchy(env.ctx, tavern.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(world.Breadcrumb(chain)).To(Equal("Realm > City > Tavern"))
	})

	It("reports a clean tree with one root", func() {
		realm := env.location("Realm", nil)
		env.location("City", realm)

		report, err := world.ValidateRoots(env.ctx, env.uow.Locations())
		Expect(err).NotTo(HaveOccurred())
		Expect(report.OK()).To(BeTrue())
		Expect(report.RootIDs).To(Equal([]string{realm.ID.String()}))
	})

	It("flags multiple roots", func() {
		env.location("Realm", nil)
		env.location("Other Realm", nil)

		report, err := world.ValidateRoots(env.ctx, env.uow.Locations())
		Expect(err).NotTo(HaveOccurred())
		Expect(report.OK()).To(BeFalse())
		Expect(report.Anomalies).To(ContainElement(ContainSubstring("2 root locations")))
	})

	It("loads living NPCs with a location", func() {
		realm := env.location("Realm", nil)
		npc := world.NewNPC("Brenna", world.TierMajor)
		npc.CurrentLocationID = &realm.ID
		Expect(env.uow.NPCs().Create(env.ctx, npc)).To(Succeed())

		detail, err := world.LocationWithNPCs(env.ctx, env.uow, realm.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(detail.NPCs).To(HaveLen(1))
		Expect(detail.Location.Name).To(Equal("Realm"))
	})
})

var _ = Describe("ExpandLocation", func() {
	var (
		env  *graphEnv
		city *world.Location
	)

	BeforeEach(func() {
		env = newGraphEnv()
		realm := env.location("Realm", nil)
		city = env.location("City", realm)
	})

	It("creates a discovered, unvisited child linked to its parent", func() {
		child, conn, err := world.ExpandLocation(env.ctx, env.uow, city.ID, world.ExpansionSpec{
			Name:                "Docks",
			Description:         "Tar and rope.",
			MarkParentGenerated: true,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(child.Discovered).To(BeTrue())
		Expect(child.Visited).To(BeFalse())
		Expect(child.Level).To(Equal(world.ChildLevel(city.Level)))
		Expect(child.Depth).To(Equal(city.Depth + 1))
		Expect(child.Position).To(Equal(world.PlaceChild(city.ID, 0)))

		Expect(conn.Bidirectional).To(BeTrue())
		Expect(conn.TravelTimeHours).To(BeNumerically("~", world.HierarchyTravelHours))

		parent, err := env.uow.Locations().Get(env.ctx, city.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(parent.ChildrenGenerated).To(BeTrue())
		Expect(parent.Map.IsContainer).To(BeTrue())

		dests, err := world.AvailableDestinations(env.ctx, env.uow, child)
		Expect(err).NotTo(HaveOccurred())
		Expect(destinationNames(dests)).To(Equal([]string{"City"}))
	})

	It("honours an explicit position and travel time", func() {
		pos := world.Position{X: 20, Y: 80}
		child, conn, err := world.ExpandLocation(env.ctx, env.uow, city.ID, world.ExpansionSpec{
			Name:            "Lighthouse",
			Position:        &pos,
			TravelType:      "boat",
			TravelTimeHours: 1.5,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(child.Position).To(Equal(pos))
		Expect(conn.TravelType).To(Equal("boat"))
		Expect(conn.TravelTimeHours).To(BeNumerically("~", 1.5))
	})

	It("fails for an unknown parent", func() {
		_, _, err := world.ExpandLocation(env.ctx, env.uow, core.NewULID(), world.ExpansionSpec{Name: "Nowhere"})
		Expect(world.ErrorCode(err)).To(Equal(world.CodeLocationNotFound))
	})
})
