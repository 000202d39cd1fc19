package evolution

// Event describes one completed generation. Events are appended to the
// protocol history and never mutated afterwards.
type Event struct {
	Generation     int                `json:"generation"`
	PopulationSize int                `json:"population_size"`
	MeanCoherence  float64            `json:"mean_coherence"`
	BestFitness    float64            `json:"best_fitness"`
	Annotations    map[string]float64 `json:"annotations,omitempty"`
}
