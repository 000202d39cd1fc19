package quantum

import (
	"fmt"
	"math/rand"
	"time"
)

type Option func(*options) error

type options struct {
	label        string
	capability   Capability
	state        []complex128
	intent       []float64
	memory       map[string][]float64
	learningRate float64
	rng          *rand.Rand
}

func defaultOptions() *options {
	return &options{
		label:        "agent",
		capability:   CapabilityBase,
		state:        []complex128{1, 0},
		intent:       make([]float64, 3),
		memory:       map[string][]float64{},
		learningRate: 0.25,
	}
}

func newOptions(opts ...Option) (*options, error) {
	options := defaultOptions()
	for _, o := range opts {
		if err := o(options); err != nil {
			return nil, err
		}
	}
	if options.rng == nil {
		options.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return options, nil
}

func WithLabel(label string) Option {
	return func(o *options) error {
		o.label = label
		return nil
	}
}

func WithCapability(c Capability) Option {
	return func(o *options) error {
		o.capability = c
		return nil
	}
}

// WithState sets the initial state vector. It is normalized on
// construction; an all-zero state maps to the canonical basis state.
func WithState(state []complex128) Option {
	return func(o *options) error {
		if len(state) == 0 {
			return fmt.Errorf("state vector must not be empty")
		}
		o.state = state
		return nil
	}
}

func WithIntent(intent []float64) Option {
	return func(o *options) error {
		o.intent = intent
		return nil
	}
}

// WithMemory seeds the associative memory. Vectors are copied.
func WithMemory(key string, value []float64) Option {
	return func(o *options) error {
		v := make([]float64, len(value))
		copy(v, value)
		o.memory[key] = v
		return nil
	}
}

func WithLearningRate(rate float64) Option {
	return func(o *options) error {
		if rate <= 0 {
			return fmt.Errorf("learning rate must be positive, got %f", rate)
		}
		o.learningRate = rate
		return nil
	}
}

// WithRand threads an explicit random source through the agent. Every
// stochastic operation draws from it, so seeding it makes measurement and
// learning reproducible.
func WithRand(rng *rand.Rand) Option {
	return func(o *options) error {
		o.rng = rng
		return nil
	}
}
