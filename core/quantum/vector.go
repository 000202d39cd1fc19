package quantum

import (
	"math"
	"math/cmplx"
)

const epsilon = 1e-12

// Normalize returns a unit-norm copy of state. A zero vector cannot live on
// the unit sphere, so it falls back to the |0> basis state.
func Normalize(state []complex128) []complex128 {
	norm := 0.0
	for _, a := range state {
		norm += real(a)*real(a) + imag(a)*imag(a)
	}
	norm = math.Sqrt(norm)

	out := make([]complex128, len(state))
	if norm == 0 {
		if len(out) > 0 {
			out[0] = 1
		}
		return out
	}
	for i, a := range state {
		out[i] = a / complex(norm, 0)
	}
	return out
}

// NormalizeReal returns a unit-norm copy of v. A zero vector is returned
// unchanged: intents have no canonical fallback direction.
func NormalizeReal(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	norm := 0.0
	for _, x := range v {
		norm += x * x
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return out
	}
	for i := range out {
		out[i] /= norm
	}
	return out
}

// BlochState maps two real angles to a single-qubit state
// [cos(theta/2), e^{i*phi}*sin(theta/2)].
func BlochState(theta, phi float64) []complex128 {
	return []complex128{
		complex(math.Cos(theta/2), 0),
		cmplx.Exp(complex(0, phi)) * complex(math.Sin(theta/2), 0),
	}
}

// Probabilities returns |amplitude|^2 per index. For a normalized state the
// entries sum to 1.
func Probabilities(state []complex128) []float64 {
	probs := make([]float64, len(state))
	for i, a := range state {
		m := cmplx.Abs(a)
		probs[i] = m * m
	}
	return probs
}

// Cosine is the cosine similarity of two real vectors, with a small guard
// against zero denominators. Vectors of different lengths compare over the
// shorter prefix.
func Cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	dot := 0.0
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
	}
	return dot / (normOf(a)*normOf(b) + epsilon)
}

func normOf(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}
