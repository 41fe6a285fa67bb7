package anyopt

import "github.com/unixpickle/anydiff"

const momentumDefault = 0.9

// Momentum implements SGD with heavy-ball or Nesterov
// momentum.
//
// The velocity v and the step direction d are
//
//	v := momentum*v + grad
//	d := v                      (heavy-ball)
//	d := grad + momentum*v      (Nesterov)
//
// The velocity starts at zero, so the first step is the
// plain gradient.
type Momentum struct {
	// Momentum is the velocity decay.
	// If it is 0, a default of 0.9 is used.
	Momentum float64

	Nesterov bool

	velocity anydiff.Grad
}

// Transform replaces the gradient with the momentum step
// direction.
//
// This is not thread-safe.
func (m *Momentum) Transform(g anydiff.Grad) anydiff.Grad {
	mu := valueOrDefault(m.Momentum, momentumDefault)
	if m.velocity == nil {
		m.velocity = anydiff.Grad{}
		for v, vec := range g {
			m.velocity[v] = vec.Creator().MakeVector(vec.Len())
		}
	}
	for v, vec := range g {
		c := vec.Creator()
		vel := m.velocity[v]
		vel.Scale(c.MakeNumeric(mu))
		vel.Add(vec)
		if m.Nesterov {
			lookahead := vel.Copy()
			lookahead.Scale(c.MakeNumeric(mu))
			vec.Add(lookahead)
		} else {
			vec.Set(vel)
		}
	}
	return g
}
