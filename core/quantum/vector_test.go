package quantum_test

import (
	"math"
	"math/cmplx"

	. "github.com/agothe/agothe/core/quantum"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func stateNorm(state []complex128) float64 {
	sum := 0.0
	for _, a := range state {
		sum += real(a)*real(a) + imag(a)*imag(a)
	}
	return math.Sqrt(sum)
}

var _ = Describe("Vector helpers", func() {
	Context("Normalize", func() {
		It("scales any non-zero vector onto the unit sphere", func() {
			out := Normalize([]complex128{3, complex(0, 4)})
			Expect(stateNorm(out)).To(BeNumerically("~", 1.0, 1e-9))
		})

		It("maps the zero vector to the canonical basis state", func() {
			out := Normalize([]complex128{0, 0, 0})
			Expect(out).To(Equal([]complex128{1, 0, 0}))
		})

		It("does not mutate its input", func() {
			in := []complex128{2, 0}
			Normalize(in)
			Expect(in[0]).To(Equal(complex128(2)))
		})
	})

	Context("NormalizeReal", func() {
		It("returns a unit vector", func() {
			out := NormalizeReal([]float64{3, 4})
			Expect(out[0]).To(BeNumerically("~", 0.6, 1e-9))
			Expect(out[1]).To(BeNumerically("~", 0.8, 1e-9))
		})

		It("returns the zero vector unnormalized", func() {
			Expect(NormalizeReal([]float64{0, 0})).To(Equal([]float64{0, 0}))
		})
	})

	Context("BlochState", func() {
		It("builds a normalized single-qubit state", func() {
			state := BlochState(math.Pi/3, math.Pi/5)
			Expect(stateNorm(state)).To(BeNumerically("~", 1.0, 1e-9))
			Expect(real(state[0])).To(BeNumerically("~", math.Cos(math.Pi/6), 1e-9))
			Expect(cmplx.Abs(state[1])).To(BeNumerically("~", math.Sin(math.Pi/6), 1e-9))
		})

		It("reaches the poles at theta 0 and pi", func() {
			north := BlochState(0, 0)
			Expect(real(north[0])).To(BeNumerically("~", 1.0, 1e-9))
			south := BlochState(math.Pi, 0)
			Expect(cmplx.Abs(south[1])).To(BeNumerically("~", 1.0, 1e-9))
		})
	})

	Context("Probabilities", func() {
		It("sums to one for a normalized state", func() {
			probs := Probabilities(Normalize([]complex128{1, complex(0, 2), 3}))
			total := 0.0
			for _, p := range probs {
				total += p
			}
			Expect(total).To(BeNumerically("~", 1.0, 1e-9))
		})
	})

	Context("Cosine", func() {
		It("is 1 for parallel vectors", func() {
			Expect(Cosine([]float64{1, 2}, []float64{2, 4})).To(BeNumerically("~", 1.0, 1e-6))
		})

		It("is 0 for orthogonal vectors", func() {
			Expect(Cosine([]float64{1, 0}, []float64{0, 1})).To(BeNumerically("~", 0.0, 1e-9))
		})

		It("is -1 for opposite vectors", func() {
			Expect(Cosine([]float64{1, 0}, []float64{-3, 0})).To(BeNumerically("~", -1.0, 1e-6))
		})
	})
})
