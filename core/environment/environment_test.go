package environment_test

import (
	"context"
	"math"
	"math/rand"

	"github.com/agothe/agothe/core/archive"
	. "github.com/agothe/agothe/core/environment"
	"github.com/agothe/agothe/core/quantum"
	"github.com/agothe/agothe/core/types"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func mustAgent(opts ...quantum.Option) *quantum.Agent {
	agent, err := quantum.New(opts...)
	Expect(err).ToNot(HaveOccurred())
	return agent
}

var _ = Describe("Environment", func() {
	var (
		rng *rand.Rand
		env *Environment
	)

	// Four agents mirroring the spawn rotation: learner, memory,
	// collapser, learner. The two memory-capable ones share a key.
	BeforeEach(func() {
		rng = rand.New(rand.NewSource(99))
		agents := []*quantum.Agent{
			mustAgent(
				quantum.WithLabel("learner_0"),
				quantum.WithCapability(quantum.CapabilityLearning),
				quantum.WithIntent([]float64{1, 0, 0}),
				quantum.WithMemory("baseline", []float64{1, 0}),
				quantum.WithRand(rng),
			),
			mustAgent(
				quantum.WithLabel("memory_1"),
				quantum.WithCapability(quantum.CapabilityMemory),
				quantum.WithIntent([]float64{0, 1, 0}),
				quantum.WithMemory("baseline", []float64{0, 1}),
				quantum.WithRand(rng),
			),
			mustAgent(
				quantum.WithLabel("collapser_2"),
				quantum.WithCapability(quantum.CapabilityCollapse),
				quantum.WithIntent([]float64{0, 0, 1}),
				quantum.WithRand(rng),
			),
			mustAgent(
				quantum.WithLabel("learner_3"),
				quantum.WithCapability(quantum.CapabilityLearning),
				quantum.WithIntent([]float64{1, 1, 0}),
				quantum.WithRand(rng),
			),
		}

		var err error
		env, err = New(WithAgents(agents...), WithRand(rng))
		Expect(err).ToNot(HaveOccurred())
	})

	Context("bootstrap", func() {
		It("spawns a population with baseline memories", func() {
			spawned, err := New(WithAgentCount(5), WithRand(rand.New(rand.NewSource(3))))
			Expect(err).ToNot(HaveOccurred())
			Expect(spawned.ListAgents()).To(HaveLen(5))
			for _, summary := range spawned.ListAgents() {
				Expect(summary.MemoryKeys).To(ContainElement("baseline"))
				Expect(summary.Active).To(BeTrue())
			}
		})
	})

	Context("UpdateIntent", func() {
		It("blends and reports old and new intents", func() {
			result := env.UpdateIntent(0, []float64{0, 1, 0})
			Expect(result.Success).To(BeTrue())
			Expect(result.OldIntent).To(Equal([]float64{1, 0, 0}))
			Expect(result.NewIntent[0]).To(BeNumerically("~", 1/math.Sqrt2, 1e-9))
			Expect(result.Timestamp).ToNot(BeZero())
		})

		It("rejects an out-of-range index without touching last_update", func() {
			before := env.LastUpdate()
			result := env.UpdateIntent(99, []float64{1, 2, 3})
			Expect(result.Success).To(BeFalse())
			Expect(result.Error).To(Equal("Agent ID out of range"))
			Expect(env.LastUpdate()).To(Equal(before))
		})
	})

	Context("TriggerLearning", func() {
		It("runs a learning step on a learning-capable agent", func() {
			result := env.TriggerLearning(0, nil)
			Expect(result.Success).To(BeTrue())
			Expect(result.Before).To(Equal([]float64{1, 0, 0}))
			Expect(result.After).To(HaveLen(3))
		})

		It("reports unsupported variants as structured errors", func() {
			result := env.TriggerLearning(1, nil)
			Expect(result.Success).To(BeFalse())
			Expect(result.Error).To(Equal("Agent does not support learning"))
		})

		It("rejects an out-of-range index", func() {
			result := env.TriggerLearning(42, nil)
			Expect(result.Success).To(BeFalse())
			Expect(result.Error).To(Equal("Agent ID out of range"))
		})
	})

	Context("EntangleAgents", func() {
		It("entangles two memory-capable agents over a shared key", func() {
			result := env.EntangleAgents(0, 1, "baseline", 0.5)
			Expect(result.Success).To(BeTrue())
			Expect(result.EntangledState).To(HaveLen(2))

			first, _ := env.Agent(0)
			second, _ := env.Agent(1)
			Expect(first.EntangledBank()["baseline"]).To(Equal(result.EntangledState))
			Expect(second.EntangledBank()["baseline"]).To(Equal(result.EntangledState))
		})

		It("rejects self-entanglement without touching the agent", func() {
			agent, _ := env.Agent(2)
			before := agent.Snapshot()

			result := env.EntangleAgents(2, 2, "baseline", 0.5)
			Expect(result.Success).To(BeFalse())
			Expect(result.Error).To(Equal("Cannot entangle an agent with itself"))
			Expect(agent.Snapshot()).To(Equal(before))
		})

		It("requires entanglement capability on both sides", func() {
			result := env.EntangleAgents(0, 2, "baseline", 0.5)
			Expect(result.Success).To(BeFalse())
			Expect(result.Error).To(Equal("Both agents must support entanglement"))
		})

		It("surfaces a missing key as a structured error", func() {
			result := env.EntangleAgents(0, 1, "absent", 0.5)
			Expect(result.Success).To(BeFalse())
			Expect(result.Error).To(ContainSubstring("absent"))
		})

		It("rejects out-of-range indices", func() {
			result := env.EntangleAgents(0, 17, "baseline", 0.5)
			Expect(result.Success).To(BeFalse())
			Expect(result.Error).To(Equal("Agent ID out of range"))
		})
	})

	Context("SimulateCollapse", func() {
		It("merges the phase into the collapse engine payload", func() {
			result := env.SimulateCollapse(math.Pi / 3)
			Expect(result.AlphaEigenvalues).To(HaveLen(1))
			Expect(result.AlphaEigenvalues[0]).To(BeNumerically("~", 0.5, 1e-9))
			Expect(result.BetaEigenvalues[0]).To(BeNumerically("~", math.Sin(math.Pi/3), 1e-9))
			Expect(result.Message).To(ContainSubstring("intent phase"))
			Expect(result.IntentPhase).To(BeNumerically("~", math.Pi/3, 1e-9))
		})
	})

	Context("RunEvolution", func() {
		It("returns the winner and a full history without shrinking the roster", func() {
			result, err := env.RunEvolution(2, 0.1)
			Expect(err).ToNot(HaveOccurred())
			Expect(result.RunID).ToNot(BeEmpty())
			Expect(result.History).To(HaveLen(2))
			for _, entry := range result.History {
				Expect(entry.PopulationSize).To(Equal(4))
			}
			Expect(result.BestAgent.Label).ToNot(BeEmpty())
			Expect(env.ListAgents()).To(HaveLen(4))
		})

		It("propagates the insufficient-population precondition", func() {
			small, err := New(
				WithAgents(mustAgent(quantum.WithRand(rng))),
				WithRand(rng),
			)
			Expect(err).ToNot(HaveOccurred())
			_, err = small.RunEvolution(1, 0.1)
			Expect(err).To(MatchError(types.ErrInsufficientPopulation))
		})
	})

	Context("dashboard views", func() {
		It("aggregates an overview", func() {
			env.EntangleAgents(0, 1, "baseline", 0.5)
			overview := env.Overview()
			Expect(overview.TotalAgents).To(Equal(4))
			Expect(overview.ActiveAgents).To(Equal(4))
			Expect(overview.EntangledAgents).To(Equal(2))
			Expect(overview.MeanCoherence).To(BeNumerically(">", 0.0))
			Expect(overview.State).To(Equal("monitoring"))
		})

		It("lists every agent with its variant", func() {
			listing := env.ListAgents()
			Expect(listing).To(HaveLen(4))
			Expect(listing[0].Capability).To(Equal("learning"))
			Expect(listing[1].Capability).To(Equal("memory"))
			Expect(listing[2].Capability).To(Equal("collapse"))
			Expect(listing[2].ID).To(Equal(2))
		})

		It("returns full details for a valid index", func() {
			details, err := env.AgentDetails(1)
			Expect(err).ToNot(HaveOccurred())
			Expect(details.Label).To(Equal("memory_1"))
			Expect(details.Memory).To(HaveKey("baseline"))
		})

		It("reports out-of-range detail requests", func() {
			_, err := env.AgentDetails(44)
			Expect(err).To(MatchError(types.ErrIndexOutOfRange))
		})
	})

	Context("activation", func() {
		It("toggles membership in the active set", func() {
			Expect(env.Deactivate(3).Success).To(BeTrue())
			Expect(env.Overview().ActiveAgents).To(Equal(3))
			Expect(env.Activate(3).Success).To(BeTrue())
			Expect(env.Overview().ActiveAgents).To(Equal(4))
		})

		It("validates indices", func() {
			Expect(env.Activate(-1).Success).To(BeFalse())
			Expect(env.Deactivate(9).Success).To(BeFalse())
		})
	})

	Context("alignment archive", func() {
		It("finds the agents closest to a target intent", func() {
			alignment, err := archive.New("test-intents")
			Expect(err).ToNot(HaveOccurred())

			indexed, err := New(
				WithAgents(
					mustAgent(quantum.WithLabel("north"), quantum.WithIntent([]float64{1, 0, 0}), quantum.WithRand(rng)),
					mustAgent(quantum.WithLabel("east"), quantum.WithIntent([]float64{0, 1, 0}), quantum.WithRand(rng)),
					mustAgent(quantum.WithLabel("up"), quantum.WithIntent([]float64{0, 0, 1}), quantum.WithRand(rng)),
				),
				WithRand(rng),
				WithArchive(alignment),
			)
			Expect(err).ToNot(HaveOccurred())

			matches, err := indexed.SimilarAgents(context.Background(), []float64{0.9, 0.1, 0}, 2)
			Expect(err).ToNot(HaveOccurred())
			Expect(matches).To(HaveLen(2))
			Expect(matches[0].Label).To(Equal("north"))
		})

		It("fails cleanly when no archive is configured", func() {
			_, err := env.SimilarAgents(context.Background(), []float64{1, 0, 0}, 2)
			Expect(err).To(HaveOccurred())
		})
	})
})
