package environment

import (
	"github.com/agothe/agothe/core/types"
)

// Overview aggregates population-wide statistics.
func (e *Environment) Overview() types.Overview {
	e.Lock()
	defer e.Unlock()

	coherence := 0.0
	entangled := 0
	for _, agent := range e.agents {
		coherence += agent.Coherence()
		if len(agent.EntangledKeys()) > 0 {
			entangled++
		}
	}
	mean := 0.0
	if len(e.agents) > 0 {
		mean = coherence / float64(len(e.agents))
	}
	return types.Overview{
		TotalAgents:     len(e.agents),
		ActiveAgents:    len(e.active),
		EntangledAgents: entangled,
		MeanCoherence:   mean,
		LastUpdate:      e.lastUpdate,
		State:           e.state,
	}
}

// ListAgents returns the per-agent listing, one row per index.
func (e *Environment) ListAgents() []types.AgentSummary {
	e.Lock()
	defer e.Unlock()

	summaries := make([]types.AgentSummary, 0, len(e.agents))
	for i, agent := range e.agents {
		_, active := e.active[i]
		summaries = append(summaries, types.AgentSummary{
			ID:         i,
			Label:      agent.Label(),
			Capability: agent.Capability().String(),
			Active:     active,
			Coherence:  agent.Coherence(),
			Intent:     agent.Intent(),
			MemoryKeys: agent.MemoryKeys(),
		})
	}
	return summaries
}

// AgentDetails returns the full view of one agent, memory vectors
// included. Out-of-range indices report ErrIndexOutOfRange.
func (e *Environment) AgentDetails(id int) (types.AgentDetail, error) {
	e.Lock()
	defer e.Unlock()

	if !e.validIndex(id) {
		return types.AgentDetail{}, types.ErrIndexOutOfRange
	}
	agent := e.agents[id]
	snapshot := agent.Snapshot()
	return types.AgentDetail{
		ID:        id,
		Label:     snapshot.Label,
		State:     snapshot.State,
		Intent:    snapshot.Intent,
		Memory:    agent.MemoryBank(),
		Entangled: agent.EntangledBank(),
		Coherence: snapshot.Coherence,
	}, nil
}
