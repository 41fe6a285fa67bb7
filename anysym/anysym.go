// Package anysym turns atomic coordinates into rotation
// and permutation invariant radial symmetry features.
//
// A radial specification lists cutoffs, radial means, and
// smoothness coefficients.
// ExpandRadial turns it into the parameter tuples used by
// a Featurizer, which sums, for every atom and every
// neighbor atom type, a Gaussian of the neighbor distance
// damped by a cosine cutoff.
package anysym

import (
	"errors"
	"fmt"
	"math"
)

// A RadialParam is one radial basis function.
type RadialParam struct {
	Cutoff     float64
	Mean       float64
	Smoothness float64
}

// Eval evaluates the basis function at distance r.
func (p RadialParam) Eval(r float64) float64 {
	d := r - p.Mean
	return math.Exp(-p.Smoothness*d*d) * CosineCutoff(r, p.Cutoff)
}

// ExpandRadial expands a radial specification of the form
//
//	[][]float64{cutoffs, means, smoothnesses}
//
// into the cross product of its three lists.
// Cutoffs vary slowest and smoothnesses fastest.
//
// An empty list yields no parameters.
// Every cutoff must be positive.
func ExpandRadial(radial [][]float64) ([]RadialParam, error) {
	if len(radial) != 3 {
		return nil, fmt.Errorf("expand radial: need 3 lists but got %d", len(radial))
	}
	cutoffs, means, smoothnesses := radial[0], radial[1], radial[2]
	for _, c := range cutoffs {
		if !(c > 0) {
			return nil, fmt.Errorf("expand radial: cutoff must be positive, got %v", c)
		}
	}
	res := make([]RadialParam, 0, len(cutoffs)*len(means)*len(smoothnesses))
	for _, c := range cutoffs {
		for _, m := range means {
			for _, s := range smoothnesses {
				res = append(res, RadialParam{Cutoff: c, Mean: m, Smoothness: s})
			}
		}
	}
	return res, nil
}

// CosineCutoff is 0.5*(cos(pi*r/rc)+1) inside the cutoff
// radius rc and 0 outside of it.
func CosineCutoff(r, rc float64) float64 {
	if r >= rc {
		return 0
	}
	return 0.5 * (math.Cos(math.Pi*r/rc) + 1)
}

// An Atom is a position and an atomic number.
type Atom struct {
	X, Y, Z float64
	Number  float64
}

// AtomWidth is the number of packed values per atom.
const AtomWidth = 4

var errTooManyAtoms = errors.New("too many atoms")

// PackAtoms flattens atoms into maxAtoms*AtomWidth values,
// padding with atoms whose number is 0.
func PackAtoms(atoms []Atom, maxAtoms int) ([]float64, error) {
	if len(atoms) > maxAtoms {
		return nil, fmt.Errorf("pack atoms: %w (%d > %d)", errTooManyAtoms, len(atoms), maxAtoms)
	}
	res := make([]float64, maxAtoms*AtomWidth)
	for i, a := range atoms {
		copy(res[i*AtomWidth:], []float64{a.X, a.Y, a.Z, a.Number})
	}
	return res, nil
}

// UnpackAtoms reverses PackAtoms, keeping padding atoms
// so that indices line up with the packed layout.
func UnpackAtoms(packed []float64) []Atom {
	res := make([]Atom, len(packed)/AtomWidth)
	for i := range res {
		p := packed[i*AtomWidth:]
		res[i] = Atom{X: p[0], Y: p[1], Z: p[2], Number: p[3]}
	}
	return res
}

// Real reports whether the atom is not padding.
func (a Atom) Real() bool {
	return a.Number != 0
}
