package quantum

// Capability tags an agent variant. Callers branch on the tag instead of
// probing for methods.
type Capability int

const (
	// CapabilityBase holds state, intent and memory only.
	CapabilityBase Capability = iota
	// CapabilityMemory adds entanglement and similarity.
	CapabilityMemory
	// CapabilityLearning adds the stochastic learning step. A learning
	// agent is also memory-capable.
	CapabilityLearning
	// CapabilityCollapse specialises in measurement: every collapse leaves
	// a diagnostic trace in memory.
	CapabilityCollapse
)

func (c Capability) String() string {
	switch c {
	case CapabilityMemory:
		return "memory"
	case CapabilityLearning:
		return "learning"
	case CapabilityCollapse:
		return "collapse"
	default:
		return "base"
	}
}

// CanEntangle reports whether the variant supports memory entanglement and
// similarity queries.
func (c Capability) CanEntangle() bool {
	return c == CapabilityMemory || c == CapabilityLearning
}

// CanLearn reports whether the variant supports the learning step.
func (c Capability) CanLearn() bool {
	return c == CapabilityLearning
}
