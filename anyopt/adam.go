package anyopt

import (
	"math"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
)

const (
	adamDefaultBeta1   = 0.9
	adamDefaultBeta2   = 0.999
	adamDefaultEpsilon = 1e-8
)

// Adam implements the adaptive moments technique
// described in https://arxiv.org/pdf/1412.6980.pdf.
type Adam struct {
	// Beta1 and Beta2 are the decay rates for the first and
	// second moments of the gradient.
	// If these are 0, the defaults from the paper are used.
	Beta1, Beta2 float64

	// Epsilon prevents divisions by zero.
	// If it is 0, a default is used.
	Epsilon float64

	first  anydiff.Grad
	second anydiff.Grad
	steps  float64
}

// Transform replaces the gradient with the bias-corrected
// Adam step direction.
//
// This is not thread-safe.
func (a *Adam) Transform(g anydiff.Grad) anydiff.Grad {
	beta1 := valueOrDefault(a.Beta1, adamDefaultBeta1)
	beta2 := valueOrDefault(a.Beta2, adamDefaultBeta2)
	a.updateMoment(&a.first, g, beta1, false)
	a.updateMoment(&a.second, g, beta2, true)

	a.steps++
	correction := math.Sqrt(1-math.Pow(beta2, a.steps)) / (1 - math.Pow(beta1, a.steps))
	eps := valueOrDefault(a.Epsilon, adamDefaultEpsilon)
	for v, vec := range g {
		c := vec.Creator()
		vec.Set(a.first[v])
		vec.Scale(c.MakeNumeric(correction))

		divisor := a.second[v].Copy()
		anyvec.Pow(divisor, c.MakeNumeric(0.5))
		divisor.AddScalar(c.MakeNumeric(eps))
		vec.Div(divisor)
	}
	return g
}

// updateMoment sets m to beta*m + (1-beta)*f(g), where f
// squares its input if square is set.
func (a *Adam) updateMoment(m *anydiff.Grad, g anydiff.Grad, beta float64, square bool) {
	if *m == nil {
		*m = anydiff.Grad{}
		for v, vec := range g {
			(*m)[v] = vec.Creator().MakeVector(vec.Len())
		}
	}
	for v, vec := range g {
		c := vec.Creator()
		term := vec.Copy()
		if square {
			anyvec.Pow(term, c.MakeNumeric(2))
		}
		term.Scale(c.MakeNumeric(1 - beta))
		moment := (*m)[v]
		moment.Scale(c.MakeNumeric(beta))
		moment.Add(term)
	}
}
