package environment

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/agothe/agothe/core/archive"
	"github.com/agothe/agothe/core/evolution"
	"github.com/agothe/agothe/core/quantum"
	"github.com/agothe/agothe/core/types"
	"github.com/agothe/agothe/pkg/collapse"
	"github.com/google/uuid"
	"github.com/mudler/xlog"
)

// Environment owns the authoritative agent population. Every operation is
// index-validated and returns a structured result; an invalid index is a
// recoverable error payload, never a crash. All operations serialize on
// the environment lock, which also covers the pairwise entanglement write.
type Environment struct {
	sync.Mutex

	agents     []*quantum.Agent
	active     map[int]struct{}
	state      string
	lastUpdate time.Time
	protocol   *evolution.Protocol
	rng        *rand.Rand
	archive    *archive.Archive
	spawnCount int
}

type Option func(*Environment) error

// WithRand seeds the environment's random source. The protocol and the
// spawned agents share it, so a fixed seed pins the whole run.
func WithRand(rng *rand.Rand) Option {
	return func(e *Environment) error {
		e.rng = rng
		return nil
	}
}

// WithAgents supplies the population explicitly instead of spawning one.
func WithAgents(agents ...*quantum.Agent) Option {
	return func(e *Environment) error {
		e.agents = agents
		return nil
	}
}

// WithAgentCount spawns a population of the given size on construction.
func WithAgentCount(count int) Option {
	return func(e *Environment) error {
		if count < 0 {
			return fmt.Errorf("agent count must not be negative, got %d", count)
		}
		e.spawnCount = count
		return nil
	}
}

// WithArchive attaches the alignment archive; intent snapshots are
// recorded there after every intent-mutating operation.
func WithArchive(a *archive.Archive) Option {
	return func(e *Environment) error {
		e.archive = a
		return nil
	}
}

func New(opts ...Option) (*Environment, error) {
	e := &Environment{
		state:      "monitoring",
		active:     map[int]struct{}{},
		lastUpdate: time.Now().UTC(),
	}
	for _, o := range opts {
		if err := o(e); err != nil {
			return nil, err
		}
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	e.protocol = evolution.New(evolution.WithRand(e.rng))

	if len(e.agents) == 0 && e.spawnCount > 0 {
		e.agents = e.protocol.Spawn(e.spawnCount)
		for _, a := range e.agents {
			baseline := make([]float64, 3)
			for i := range baseline {
				baseline[i] = e.rng.NormFloat64()
			}
			a.StoreMemory("baseline", baseline)
		}
	}

	for i := range e.agents {
		e.active[i] = struct{}{}
	}
	e.syncArchive()

	xlog.Info("Environment ready", "agents", len(e.agents))
	return e, nil
}

func (e *Environment) validIndex(id int) bool {
	return id >= 0 && id < len(e.agents)
}

// Agent returns the live agent at id, or false when out of range.
func (e *Environment) Agent(id int) (*quantum.Agent, bool) {
	e.Lock()
	defer e.Unlock()
	if !e.validIndex(id) {
		return nil, false
	}
	return e.agents[id], true
}

// UpdateIntent blends a new direction into one agent's intent.
func (e *Environment) UpdateIntent(id int, intent []float64) types.IntentUpdateResult {
	e.Lock()
	defer e.Unlock()

	if !e.validIndex(id) {
		return types.IntentUpdateResult{Result: types.Fail(types.ErrIndexOutOfRange.Error())}
	}
	agent := e.agents[id]
	previous := agent.Intent()
	next := agent.AddIntent(intent, 1.0)
	e.touch()
	e.recordIntent(id)

	xlog.Info("Agent intent updated", "agent", id, "label", agent.Label())
	return types.IntentUpdateResult{
		Result:    types.Ok(fmt.Sprintf("Agent %d intent updated", id)),
		OldIntent: previous,
		NewIntent: next,
		Timestamp: e.lastUpdate,
	}
}

// TriggerLearning runs one learning iteration on a learning-capable agent.
func (e *Environment) TriggerLearning(id int, reward *float64) types.LearningResult {
	e.Lock()
	defer e.Unlock()

	if !e.validIndex(id) {
		return types.LearningResult{Result: types.Fail(types.ErrIndexOutOfRange.Error())}
	}
	agent := e.agents[id]
	if !agent.Capability().CanLearn() {
		return types.LearningResult{Result: types.Fail("Agent does not support learning")}
	}
	before := agent.Intent()
	after, err := agent.Learn(reward)
	if err != nil {
		return types.LearningResult{Result: types.Fail(err.Error())}
	}
	e.touch()
	e.recordIntent(id)

	xlog.Info("Learning executed", "agent", id, "label", agent.Label())
	return types.LearningResult{
		Result:    types.Ok(fmt.Sprintf("Learning executed for agent %d", id)),
		Before:    before,
		After:     after,
		Timestamp: e.lastUpdate,
	}
}

// EntangleAgents blends the same-keyed memories of two distinct agents and
// writes the result into both entangled banks. Self-entanglement and
// capability mismatches are rejected without touching either agent.
func (e *Environment) EntangleAgents(a, b int, key string, strength float64) types.EntangleResult {
	e.Lock()
	defer e.Unlock()

	if a == b {
		return types.EntangleResult{Result: types.Fail("Cannot entangle an agent with itself")}
	}
	if !e.validIndex(a) || !e.validIndex(b) {
		return types.EntangleResult{Result: types.Fail(types.ErrIndexOutOfRange.Error())}
	}
	first, second := e.agents[a], e.agents[b]
	if !first.Capability().CanEntangle() || !second.Capability().CanEntangle() {
		return types.EntangleResult{Result: types.Fail("Both agents must support entanglement")}
	}

	combined, err := first.EntangleMemory(second, key, strength)
	if err != nil {
		return types.EntangleResult{Result: types.Fail(err.Error())}
	}
	e.touch()

	xlog.Info("Agents entangled", "first", a, "second", b, "key", key)
	return types.EntangleResult{
		Result:         types.Ok(fmt.Sprintf("Agents %d and %d entangled via '%s'", a, b, key)),
		EntangledState: combined,
		Timestamp:      e.lastUpdate,
	}
}

// SimulateCollapse delegates to the toy collapse engine and merges the
// phase into the payload.
func (e *Environment) SimulateCollapse(phase float64) types.CollapseResult {
	out := collapse.Simulate(phase)
	return types.CollapseResult{
		AlphaEigenvalues: out.AlphaEigenvalues,
		BetaEigenvalues:  out.BetaEigenvalues,
		Message:          out.Message,
		IntentPhase:      phase,
	}
}

// RunEvolution evolves the live population and returns the winner plus the
// per-generation history. The environment's roster is left untouched:
// survivors are shared with the run, children are fresh agents owned by
// the protocol's final population.
func (e *Environment) RunEvolution(generations int, mutationRate float64) (types.EvolutionResult, error) {
	e.Lock()
	defer e.Unlock()

	e.protocol.Reset()
	best, err := e.protocol.Run(e.agents, generations, mutationRate)
	if err != nil {
		return types.EvolutionResult{}, err
	}
	e.touch()

	history := e.protocol.History()
	log := make([]types.GenerationLog, len(history))
	for i, event := range history {
		log[i] = types.GenerationLog{
			Generation:     event.Generation,
			PopulationSize: event.PopulationSize,
			MeanCoherence:  event.MeanCoherence,
			BestFitness:    event.BestFitness,
			Annotations:    event.Annotations,
		}
	}

	runID := uuid.New().String()
	xlog.Info("Evolution run complete",
		"run_id", runID,
		"generations", generations,
		"mutation_rate", mutationRate,
		"best", best.Label(),
	)
	return types.EvolutionResult{
		RunID:     runID,
		BestAgent: best.Snapshot(),
		History:   log,
	}, nil
}

// Activate marks an agent index active.
func (e *Environment) Activate(id int) types.Result {
	e.Lock()
	defer e.Unlock()
	if !e.validIndex(id) {
		return types.Fail(types.ErrIndexOutOfRange.Error())
	}
	e.active[id] = struct{}{}
	e.touch()
	return types.Ok(fmt.Sprintf("Agent %d activated", id))
}

// Deactivate removes an agent index from the active set.
func (e *Environment) Deactivate(id int) types.Result {
	e.Lock()
	defer e.Unlock()
	if !e.validIndex(id) {
		return types.Fail(types.ErrIndexOutOfRange.Error())
	}
	delete(e.active, id)
	e.touch()
	return types.Ok(fmt.Sprintf("Agent %d deactivated", id))
}

// SimilarAgents queries the alignment archive for the agents whose
// recorded intent is closest to target.
func (e *Environment) SimilarAgents(ctx context.Context, target []float64, n int) ([]archive.Match, error) {
	e.Lock()
	a := e.archive
	e.Unlock()
	if a == nil {
		return nil, fmt.Errorf("alignment archive not configured")
	}
	return a.Search(ctx, target, n)
}

// LastUpdate is the timestamp of the most recent successful mutation.
func (e *Environment) LastUpdate() time.Time {
	e.Lock()
	defer e.Unlock()
	return e.lastUpdate
}

// touch refreshes lastUpdate. Caller holds the lock; only successful
// mutations reach here.
func (e *Environment) touch() {
	e.lastUpdate = time.Now().UTC()
}

func (e *Environment) recordIntent(id int) {
	if e.archive == nil {
		return
	}
	agent := e.agents[id]
	if err := e.archive.Record(context.Background(), id, agent.Label(), agent.Intent()); err != nil {
		xlog.Warn("Failed to record intent snapshot", "agent", id, "error", err)
	}
}

func (e *Environment) syncArchive() {
	if e.archive == nil {
		return
	}
	for i := range e.agents {
		e.recordIntent(i)
	}
}
