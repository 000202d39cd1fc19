// Package collapse is the toy eigenvalue engine the environment delegates
// collapse simulations to. It is a pure function boundary: no shared state,
// no randomness.
package collapse

import (
	"fmt"
	"math"
)

// Output carries the dummy eigenvalues derived from an intent phase.
type Output struct {
	AlphaEigenvalues []float64 `json:"alphaEigenvalues"`
	BetaEigenvalues  []float64 `json:"betaEigenvalues"`
	Message          string    `json:"message"`
}

// Simulate computes alpha/beta eigenvalues from the cosine and sine of the
// phase, with a message describing the run.
func Simulate(phase float64) Output {
	return Output{
		AlphaEigenvalues: []float64{math.Cos(phase)},
		BetaEigenvalues:  []float64{math.Sin(phase)},
		Message:          fmt.Sprintf("Quantum simulation executed with intent phase %g", phase),
	}
}
