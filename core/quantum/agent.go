package quantum

import (
	"fmt"
	"math"
	"math/rand"
	"reflect"
	"sort"
	"sync"

	"github.com/agothe/agothe/core/types"
)

// Agent carries a normalized complex state vector, a unit-norm real intent
// vector and a keyed associative memory. All operations mutate the agent in
// place; population membership is managed by the environment and the
// evolution protocol.
type Agent struct {
	mu sync.Mutex

	label        string
	capability   Capability
	state        []complex128
	intent       []float64
	memory       map[string][]float64
	entangled    map[string][]float64
	learningRate float64
	rng          *rand.Rand
}

func New(opts ...Option) (*Agent, error) {
	o, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}

	a := &Agent{
		label:        o.label,
		capability:   o.capability,
		state:        Normalize(o.state),
		intent:       NormalizeReal(o.intent),
		memory:       map[string][]float64{},
		entangled:    map[string][]float64{},
		learningRate: o.learningRate,
		rng:          o.rng,
	}
	for k, v := range o.memory {
		a.memory[k] = v
	}
	return a, nil
}

func (a *Agent) Label() string { return a.label }

func (a *Agent) Capability() Capability { return a.capability }

// State returns a copy of the current state vector.
func (a *Agent) State() []complex128 {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]complex128, len(a.state))
	copy(out, a.state)
	return out
}

// Intent returns a copy of the current intent vector.
func (a *Agent) Intent() []float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]float64, len(a.intent))
	copy(out, a.intent)
	return out
}

// ApplyUnitary replaces the state with normalize(matrix * state). The
// matrix must be square with the state's dimension.
func (a *Agent) ApplyUnitary(matrix [][]complex128) ([]complex128, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	dim := len(a.state)
	if len(matrix) != dim {
		return nil, fmt.Errorf("unitary has %d rows for a %d-dimensional state: %w", len(matrix), dim, types.ErrDimensionMismatch)
	}
	next := make([]complex128, dim)
	for i, row := range matrix {
		if len(row) != dim {
			return nil, fmt.Errorf("unitary row %d has %d columns for a %d-dimensional state: %w", i, len(row), dim, types.ErrDimensionMismatch)
		}
		var sum complex128
		for j, m := range row {
			sum += m * a.state[j]
		}
		next[i] = sum
	}
	a.state = Normalize(next)

	out := make([]complex128, dim)
	copy(out, a.state)
	return out, nil
}

// Measure samples an outcome from the computational-basis distribution
// |amplitude|^2 and collapses the state to the matching one-hot vector.
// Collapse specialists additionally leave a diagnostic trace in memory.
func (a *Agent) Measure() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	outcome := a.sample(Probabilities(a.state))
	collapsed := make([]complex128, len(a.state))
	collapsed[outcome] = 1
	a.state = collapsed

	a.recordCollapse(outcome)
	return outcome
}

// MeasureInBasis projects the state onto each candidate vector, samples an
// outcome from the renormalized squared magnitudes and collapses the state
// to the normalized chosen candidate.
func (a *Agent) MeasureInBasis(basis [][]complex128) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(basis) == 0 {
		return 0, fmt.Errorf("empty measurement basis: %w", types.ErrDimensionMismatch)
	}
	probs := make([]float64, len(basis))
	total := 0.0
	for i, candidate := range basis {
		if len(candidate) != len(a.state) {
			return 0, fmt.Errorf("basis vector %d has dimension %d, state has %d: %w", i, len(candidate), len(a.state), types.ErrDimensionMismatch)
		}
		var projection complex128
		for j, c := range candidate {
			projection += c * a.state[j]
		}
		m := real(projection)*real(projection) + imag(projection)*imag(projection)
		probs[i] = m
		total += m
	}
	if total == 0 {
		return 0, fmt.Errorf("state is orthogonal to every basis vector")
	}
	for i := range probs {
		probs[i] /= total
	}

	outcome := a.sample(probs)
	a.state = Normalize(basis[outcome])

	a.recordCollapse(outcome)
	return outcome, nil
}

// sample draws one index from a categorical distribution. Caller holds the
// lock.
func (a *Agent) sample(probs []float64) int {
	r := a.rng.Float64()
	acc := 0.0
	for i, p := range probs {
		acc += p
		if r < acc {
			return i
		}
	}
	// Floating error can leave acc marginally below 1.
	return len(probs) - 1
}

// recordCollapse writes the collapse-specialist diagnostic entry. Caller
// holds the lock.
func (a *Agent) recordCollapse(outcome int) {
	if a.capability != CapabilityCollapse {
		return
	}
	key := fmt.Sprintf("collapse_%d", len(a.memory))
	a.memory[key] = []float64{float64(outcome), a.coherence()}
}

// Coherence maps the entropy of the outcome distribution to (0, 1]:
// exp(-H) with H = -sum p*ln(p + eps). A collapsed state scores 1.
func (a *Agent) Coherence() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.coherence()
}

func (a *Agent) coherence() float64 {
	entropy := 0.0
	for _, p := range Probabilities(a.state) {
		entropy -= p * math.Log(p+epsilon)
	}
	return math.Exp(-entropy)
}

// AddIntent blends a weighted delta into the intent and renormalizes. When
// the delta's dimension differs, the stored intent is resized to the
// delta's length first (zero-padded or truncated), so dimensions stay
// consistent across agents.
func (a *Agent) AddIntent(delta []float64, weight float64) []float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(delta) != len(a.intent) {
		resized := make([]float64, len(delta))
		copy(resized, a.intent)
		a.intent = resized
	}
	next := make([]float64, len(delta))
	for i, d := range delta {
		next[i] = a.intent[i] + weight*d
	}
	a.intent = NormalizeReal(next)

	out := make([]float64, len(a.intent))
	copy(out, a.intent)
	return out
}

// AdaptFromFeedback blends an external feedback vector into the intent of
// a learning-capable agent. Unlike AddIntent the feedback must already
// match the intent's dimension.
func (a *Agent) AdaptFromFeedback(feedback []float64, weight float64) ([]float64, error) {
	if !a.capability.CanLearn() {
		return nil, fmt.Errorf("feedback adaptation needs a learning-capable agent: %w", types.ErrUnsupportedCapability)
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(feedback) != len(a.intent) {
		return nil, fmt.Errorf("feedback has dimension %d, intent has %d: %w", len(feedback), len(a.intent), types.ErrDimensionMismatch)
	}
	next := make([]float64, len(a.intent))
	for i, x := range a.intent {
		next[i] = x + weight*feedback[i]
	}
	a.intent = NormalizeReal(next)

	out := make([]float64, len(a.intent))
	copy(out, a.intent)
	return out, nil
}

// CollapseProbability is the chance Measure would yield outcome on the
// current state. Out-of-range outcomes have probability 0.
func (a *Agent) CollapseProbability(outcome int) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if outcome < 0 || outcome >= len(a.state) {
		return 0
	}
	return Probabilities(a.state)[outcome]
}

// StoreMemory copies value into the memory bank under key.
func (a *Agent) StoreMemory(key string, value []float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	v := make([]float64, len(value))
	copy(v, value)
	a.memory[key] = v
}

// RetrieveMemory returns a copy of the stored vector; the second return is
// false when the key is absent.
func (a *Agent) RetrieveMemory(key string) ([]float64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	v, ok := a.memory[key]
	if !ok {
		return nil, false
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out, true
}

// ForgetMemory drops a key. Forgetting an absent key is a no-op.
func (a *Agent) ForgetMemory(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.memory, key)
}

// EntangleMemory blends this agent's memory under key with another agent's
// and writes the combined vector into both entangled banks. Both agents
// are mutated; locks are taken in a fixed order so concurrent entangle
// calls cannot deadlock. On failure neither agent is touched.
func (a *Agent) EntangleMemory(other *Agent, key string, strength float64) ([]float64, error) {
	if !a.capability.CanEntangle() || !other.capability.CanEntangle() {
		return nil, fmt.Errorf("entanglement needs memory-capable agents: %w", types.ErrUnsupportedCapability)
	}

	first, second := a, other
	if reflect.ValueOf(first).Pointer() > reflect.ValueOf(second).Pointer() {
		first, second = second, first
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	if first != second {
		second.mu.Lock()
		defer second.mu.Unlock()
	}

	mine, ok := a.memory[key]
	if !ok {
		return nil, fmt.Errorf("key %q: %w", key, types.ErrMissingMemoryKey)
	}
	theirs, ok := other.memory[key]
	if !ok {
		return nil, fmt.Errorf("key %q: %w", key, types.ErrMissingMemoryKey)
	}

	dim := len(mine)
	if len(theirs) > dim {
		dim = len(theirs)
	}
	combined := make([]float64, dim)
	for i := range combined {
		var m, t float64
		if i < len(mine) {
			m = mine[i]
		}
		if i < len(theirs) {
			t = theirs[i]
		}
		combined[i] = strength*m + (1-strength)*t
	}
	combined = NormalizeReal(combined)

	a.entangled[key] = combined
	other.entangled[key] = append([]float64(nil), combined...)

	out := make([]float64, len(combined))
	copy(out, combined)
	return out, nil
}

// MemorySimilarity is the cosine similarity between a stored memory and a
// target vector. An absent key scores 0 rather than failing.
func (a *Agent) MemorySimilarity(key string, target []float64) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	mem, ok := a.memory[key]
	if !ok {
		return 0
	}
	return Cosine(mem, target)
}

// Learn performs one stochastic intent update: a Gaussian direction,
// optionally biased by a scalar reward, scaled by the learning rate. This
// is local search, not gradient descent.
func (a *Agent) Learn(reward *float64) ([]float64, error) {
	if !a.capability.CanLearn() {
		return nil, fmt.Errorf("learning needs a learning-capable agent: %w", types.ErrUnsupportedCapability)
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	next := make([]float64, len(a.intent))
	for i := range next {
		gradient := a.rng.NormFloat64()
		if reward != nil {
			gradient += *reward
		}
		next[i] = a.intent[i] + a.learningRate*gradient
	}
	a.intent = NormalizeReal(next)

	out := make([]float64, len(a.intent))
	copy(out, a.intent)
	return out, nil
}

// Clone deep-copies the agent: fresh vector buffers and memory maps, no
// aliasing with the parent. The random source is shared.
func (a *Agent) Clone() *Agent {
	a.mu.Lock()
	defer a.mu.Unlock()

	clone := &Agent{
		label:        a.label,
		capability:   a.capability,
		state:        append([]complex128(nil), a.state...),
		intent:       append([]float64(nil), a.intent...),
		memory:       map[string][]float64{},
		entangled:    map[string][]float64{},
		learningRate: a.learningRate,
		rng:          a.rng,
	}
	for k, v := range a.memory {
		clone.memory[k] = append([]float64(nil), v...)
	}
	for k, v := range a.entangled {
		clone.entangled[k] = append([]float64(nil), v...)
	}
	return clone
}

// MemoryKeys returns the sorted memory key list.
func (a *Agent) MemoryKeys() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return sortedKeys(a.memory)
}

// EntangledKeys returns the sorted entangled key list.
func (a *Agent) EntangledKeys() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return sortedKeys(a.entangled)
}

// MemoryBank returns a deep copy of the memory map.
func (a *Agent) MemoryBank() map[string][]float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return copyBank(a.memory)
}

// EntangledBank returns a deep copy of the entangled map.
func (a *Agent) EntangledBank() map[string][]float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return copyBank(a.entangled)
}

// Snapshot exports the agent for serialization. It is a one-way view;
// there is no load path back into a live agent.
func (a *Agent) Snapshot() types.AgentSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	state := make([]types.Complex, len(a.state))
	for i, amp := range a.state {
		state[i] = types.Complex{Re: real(amp), Im: imag(amp)}
	}
	return types.AgentSnapshot{
		Label:         a.label,
		State:         state,
		Intent:        append([]float64(nil), a.intent...),
		Coherence:     a.coherence(),
		MemoryKeys:    sortedKeys(a.memory),
		EntangledKeys: sortedKeys(a.entangled),
	}
}

func (a *Agent) String() string {
	return fmt.Sprintf("Agent(label=%s, type=%s, coherence=%.3f)", a.label, a.capability, a.Coherence())
}

func sortedKeys(bank map[string][]float64) []string {
	keys := make([]string, 0, len(bank))
	for k := range bank {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func copyBank(bank map[string][]float64) map[string][]float64 {
	out := make(map[string][]float64, len(bank))
	for k, v := range bank {
		out[k] = append([]float64(nil), v...)
	}
	return out
}
