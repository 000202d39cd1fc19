package types

import "time"

// Result is the envelope shared by every environment operation.
// Success carries Message, failure carries Error; callers never get both.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func Ok(message string) Result {
	return Result{Success: true, Message: message}
}

func Fail(err string) Result {
	return Result{Success: false, Error: err}
}

// Complex is a JSON-friendly complex amplitude.
type Complex struct {
	Re float64 `json:"re"`
	Im float64 `json:"im"`
}

// IntentUpdateResult reports an intent blend on a single agent.
type IntentUpdateResult struct {
	Result
	OldIntent []float64 `json:"old_intent,omitempty"`
	NewIntent []float64 `json:"new_intent,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// LearningResult reports one learning iteration.
type LearningResult struct {
	Result
	Before    []float64 `json:"before,omitempty"`
	After     []float64 `json:"after,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// EntangleResult reports a pairwise memory entanglement.
type EntangleResult struct {
	Result
	EntangledState []float64 `json:"entangled_state,omitempty"`
	Timestamp      time.Time `json:"timestamp,omitempty"`
}

// CollapseResult wraps the toy collapse engine output with the phase that
// produced it.
type CollapseResult struct {
	AlphaEigenvalues []float64 `json:"alphaEigenvalues"`
	BetaEigenvalues  []float64 `json:"betaEigenvalues"`
	Message          string    `json:"message"`
	IntentPhase      float64   `json:"intentPhase"`
}

// EvolutionResult carries the winning agent and the per-generation trace.
type EvolutionResult struct {
	RunID     string          `json:"run_id"`
	BestAgent AgentSnapshot   `json:"best_agent"`
	History   []GenerationLog `json:"history"`
}

// GenerationLog mirrors one evolution event for the wire.
type GenerationLog struct {
	Generation     int                `json:"generation"`
	PopulationSize int                `json:"population_size"`
	MeanCoherence  float64            `json:"mean_coherence"`
	BestFitness    float64            `json:"best_fitness"`
	Annotations    map[string]float64 `json:"annotations,omitempty"`
}

// Overview aggregates population statistics for the dashboard.
type Overview struct {
	TotalAgents     int       `json:"total_agents"`
	ActiveAgents    int       `json:"active_agents"`
	EntangledAgents int       `json:"quantum_entangled"`
	MeanCoherence   float64   `json:"consciousness_coherence"`
	LastUpdate      time.Time `json:"last_update"`
	State           string    `json:"dashboard_state"`
}

// AgentSummary is the per-agent listing row.
type AgentSummary struct {
	ID         int       `json:"id"`
	Label      string    `json:"label"`
	Capability string    `json:"type"`
	Active     bool      `json:"active"`
	Coherence  float64   `json:"coherence"`
	Intent     []float64 `json:"intent"`
	MemoryKeys []string  `json:"memory_keys"`
}

// AgentDetail is the full single-agent view, memory vectors included.
type AgentDetail struct {
	ID        int                  `json:"id"`
	Label     string               `json:"label"`
	State     []Complex            `json:"state_vector"`
	Intent    []float64            `json:"intent"`
	Memory    map[string][]float64 `json:"memory_bank"`
	Entangled map[string][]float64 `json:"entangled"`
	Coherence float64              `json:"coherence"`
}

// AgentSnapshot is the one-way export of an agent. There is no load path
// back into a live agent.
type AgentSnapshot struct {
	Label         string    `json:"label"`
	State         []Complex `json:"state"`
	Intent        []float64 `json:"intent"`
	Coherence     float64   `json:"coherence"`
	MemoryKeys    []string  `json:"memory_keys"`
	EntangledKeys []string  `json:"entangled_keys"`
}
