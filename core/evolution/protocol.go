package evolution

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/agothe/agothe/core/quantum"
	"github.com/agothe/agothe/core/types"
	"github.com/mudler/xlog"
)

// Protocol runs selection, crossover and mutation over a population of
// agents. A protocol keeps a history of one Event per completed generation.
type Protocol struct {
	selectionPressure float64
	rng               *rand.Rand
	history           []Event
}

type Option func(*Protocol)

// WithRand threads an explicit random source through the protocol so runs
// are reproducible under a fixed seed.
func WithRand(rng *rand.Rand) Option {
	return func(p *Protocol) {
		p.rng = rng
	}
}

// WithSelectionPressure sets the survivor fraction kept each generation.
func WithSelectionPressure(pressure float64) Option {
	return func(p *Protocol) {
		p.selectionPressure = pressure
	}
}

func New(opts ...Option) *Protocol {
	p := &Protocol{
		selectionPressure: 0.6,
	}
	for _, o := range opts {
		o(p)
	}
	if p.rng == nil {
		p.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return p
}

// Evaluate scores an agent: a blend of coherence and intent magnitude.
// Deterministic given the agent's state.
func (p *Protocol) Evaluate(a *quantum.Agent) float64 {
	intentNorm := 0.0
	for _, x := range a.Intent() {
		intentNorm += x * x
	}
	intentNorm = math.Sqrt(intentNorm) + 1e-9
	return 0.7*a.Coherence() + 0.3*math.Tanh(intentNorm)
}

// Mutate returns a fresh learning-capable clone of agent with state and
// intent perturbed by Gaussian noise scaled by rate. The memory bank is
// deep-copied unchanged; the parent is never touched.
func (p *Protocol) Mutate(a *quantum.Agent, rate float64) *quantum.Agent {
	state := a.State()
	for i := range state {
		state[i] += complex(p.rng.NormFloat64()*rate, 0)
	}
	intent := a.Intent()
	for i := range intent {
		intent[i] += p.rng.NormFloat64() * rate
	}

	opts := []quantum.Option{
		quantum.WithLabel(a.Label()),
		quantum.WithCapability(quantum.CapabilityLearning),
		quantum.WithState(state),
		quantum.WithIntent(intent),
		quantum.WithRand(p.rng),
	}
	for key, value := range a.MemoryBank() {
		opts = append(opts, quantum.WithMemory(key, value))
	}

	clone, err := quantum.New(opts...)
	if err != nil {
		// Only reachable with an empty state, which State() never yields.
		panic(err)
	}
	return clone
}

// Crossover blends two parents into a new learning-capable offspring with
// a random mixing ratio. When the parents share a memory key, one shared
// key is picked at random and blended the same way. Parents are read, not
// mutated.
func (p *Protocol) Crossover(a, b *quantum.Agent) *quantum.Agent {
	alpha := p.rng.Float64()

	state := blendComplex(a.State(), b.State(), alpha)
	intent := blendReal(a.Intent(), b.Intent(), alpha)

	opts := []quantum.Option{
		quantum.WithLabel("offspring"),
		quantum.WithCapability(quantum.CapabilityLearning),
		quantum.WithState(state),
		quantum.WithIntent(intent),
		quantum.WithRand(p.rng),
	}

	if key, ok := p.sharedKey(a, b); ok {
		mine, _ := a.RetrieveMemory(key)
		theirs, _ := b.RetrieveMemory(key)
		opts = append(opts, quantum.WithMemory(key, quantum.NormalizeReal(blendReal(mine, theirs, alpha))))
	}

	offspring, err := quantum.New(opts...)
	if err != nil {
		panic(err)
	}
	return offspring
}

func (p *Protocol) sharedKey(a, b *quantum.Agent) (string, bool) {
	theirs := map[string]struct{}{}
	for _, k := range b.MemoryKeys() {
		theirs[k] = struct{}{}
	}
	var shared []string
	for _, k := range a.MemoryKeys() {
		if _, ok := theirs[k]; ok {
			shared = append(shared, k)
		}
	}
	if len(shared) == 0 {
		return "", false
	}
	return shared[p.rng.Intn(len(shared))], true
}

// Run evolves the population for depth generations and returns the single
// highest-fitness agent of the final one. Each generation evaluates every
// agent, keeps the top max(2, pressure*N) and refills to the original size
// with mutated crossover children of random survivor pairs. The input
// slice is not modified; survivors are the caller's own agents, children
// are fresh constructions.
func (p *Protocol) Run(population []*quantum.Agent, depth int, mutationRate float64) (*quantum.Agent, error) {
	if len(population) < 2 {
		return nil, fmt.Errorf("%w: got %d", types.ErrInsufficientPopulation, len(population))
	}

	agents := append([]*quantum.Agent(nil), population...)
	for generation := 0; generation < depth; generation++ {
		fitness := make([]float64, len(agents))
		for i, a := range agents {
			fitness[i] = p.Evaluate(a)
		}
		best := fitness[0]
		for _, f := range fitness[1:] {
			if f > best {
				best = f
			}
		}

		order := make([]int, len(agents))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(i, j int) bool {
			return fitness[order[i]] > fitness[order[j]]
		})

		keep := int(float64(len(agents)) * p.selectionPressure)
		if keep < 2 {
			keep = 2
		}
		survivors := make([]*quantum.Agent, 0, len(agents))
		for _, idx := range order[:keep] {
			survivors = append(survivors, agents[idx])
		}

		next := append([]*quantum.Agent(nil), survivors...)
		for len(next) < len(agents) {
			parentA := survivors[p.rng.Intn(len(survivors))]
			parentB := survivors[p.rng.Intn(len(survivors))]
			next = append(next, p.Mutate(p.Crossover(parentA, parentB), mutationRate))
		}
		agents = next

		coherence := 0.0
		for _, a := range agents {
			coherence += a.Coherence()
		}
		event := Event{
			Generation:     generation,
			PopulationSize: len(agents),
			MeanCoherence:  coherence / float64(len(agents)),
			BestFitness:    best,
		}
		p.history = append(p.history, event)

		xlog.Debug(
			"Generation complete",
			"generation", generation,
			"survivors", keep,
			"best_fitness", best,
			"mean_coherence", event.MeanCoherence,
		)
	}

	winner := agents[0]
	bestFitness := p.Evaluate(winner)
	for _, a := range agents[1:] {
		if f := p.Evaluate(a); f > bestFitness {
			winner, bestFitness = a, f
		}
	}
	return winner, nil
}

// Spawn creates a diverse starting population: Bloch-sphere states from
// two random angles and random unit 3-dimensional intents, cycling the
// learning, memory and collapse variants round-robin.
func (p *Protocol) Spawn(size int) []*quantum.Agent {
	population := make([]*quantum.Agent, 0, size)
	for i := 0; i < size; i++ {
		theta := p.rng.Float64() * math.Pi
		phi := p.rng.Float64() * math.Pi

		intent := make([]float64, 3)
		for j := range intent {
			intent[j] = p.rng.NormFloat64()
		}

		var capability quantum.Capability
		var label string
		switch i % 3 {
		case 0:
			capability, label = quantum.CapabilityLearning, fmt.Sprintf("learner_%d", i)
		case 1:
			capability, label = quantum.CapabilityMemory, fmt.Sprintf("memory_%d", i)
		default:
			capability, label = quantum.CapabilityCollapse, fmt.Sprintf("collapser_%d", i)
		}

		agent, err := quantum.New(
			quantum.WithLabel(label),
			quantum.WithCapability(capability),
			quantum.WithState(quantum.BlochState(theta, phi)),
			quantum.WithIntent(quantum.NormalizeReal(intent)),
			quantum.WithRand(p.rng),
		)
		if err != nil {
			panic(err)
		}
		population = append(population, agent)
	}
	return population
}

// History returns a copy of the per-generation trace.
func (p *Protocol) History() []Event {
	return append([]Event(nil), p.history...)
}

// Reset clears the history before a fresh run.
func (p *Protocol) Reset() {
	p.history = nil
}

func blendComplex(a, b []complex128, alpha float64) []complex128 {
	dim := len(a)
	if len(b) > dim {
		dim = len(b)
	}
	out := make([]complex128, dim)
	for i := range out {
		var x, y complex128
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		out[i] = complex(alpha, 0)*x + complex(1-alpha, 0)*y
	}
	return out
}

func blendReal(a, b []float64, alpha float64) []float64 {
	dim := len(a)
	if len(b) > dim {
		dim = len(b)
	}
	out := make([]float64, dim)
	for i := range out {
		var x, y float64
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		out[i] = alpha*x + (1-alpha)*y
	}
	return out
}
