package anyopt

import (
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
)

const (
	rmspropDefaultDecayRate = 0.9
	rmspropDefaultDamping   = 1e-8
)

// RMSProp divides each gradient component by a running
// root-mean-square of its recent values.
type RMSProp struct {
	// The decay rate for the running average.
	// If it is 0, a default of 0.9 is used.
	DecayRate float64

	// Damping is used to prevent divisions by zero.
	// If it is 0, a default is used.
	Damping float64

	meanSquare anydiff.Grad
}

// Transform transforms the gradient using RMSProp.
//
// This is not thread-safe.
func (r *RMSProp) Transform(g anydiff.Grad) anydiff.Grad {
	decay := valueOrDefault(r.DecayRate, rmspropDefaultDecayRate)
	if r.meanSquare == nil {
		r.meanSquare = copyGrad(g)
		for _, sq := range r.meanSquare {
			anyvec.Pow(sq, sq.Creator().MakeNumeric(2))
		}
	} else {
		scaleGrad(r.meanSquare, decay)
		for v, vec := range g {
			sq := vec.Copy()
			anyvec.Pow(sq, sq.Creator().MakeNumeric(2))
			sq.Scale(sq.Creator().MakeNumeric(1 - decay))
			r.meanSquare[v].Add(sq)
		}
	}
	damping := valueOrDefault(r.Damping, rmspropDefaultDamping)
	for v, vec := range g {
		div := r.meanSquare[v].Copy()
		div.AddScalar(div.Creator().MakeNumeric(damping))
		anyvec.Pow(div, div.Creator().MakeNumeric(-0.5))
		vec.Mul(div)
	}
	return g
}
