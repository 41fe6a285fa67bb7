package anysym

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

// A Neighbor is an index into an atom list and the
// distance to that atom.
type Neighbor struct {
	Index    int
	Distance float64
}

// NeighborList finds, for every real atom, the other real
// atoms within cutoff, nearest first, keeping at most
// maxNeighbors of them.
// Padding atoms get no neighbors.
func NeighborList(atoms []Atom, maxNeighbors int, cutoff float64) [][]Neighbor {
	positions := make([][]float64, len(atoms))
	for i, a := range atoms {
		positions[i] = []float64{a.X, a.Y, a.Z}
	}
	res := make([][]Neighbor, len(atoms))
	for i, a := range atoms {
		if !a.Real() {
			continue
		}
		var neighbors []Neighbor
		for j, b := range atoms {
			if i == j || !b.Real() {
				continue
			}
			dist := floats.Distance(positions[i], positions[j], 2)
			if dist < cutoff {
				neighbors = append(neighbors, Neighbor{Index: j, Distance: dist})
			}
		}
		sort.SliceStable(neighbors, func(x, y int) bool {
			return neighbors[x].Distance < neighbors[y].Distance
		})
		if len(neighbors) > maxNeighbors {
			neighbors = neighbors[:maxNeighbors]
		}
		res[i] = neighbors
	}
	return res
}

// A Featurizer computes radial symmetry features for
// packed atom lists.
type Featurizer struct {
	// AtomTypes lists the atomic numbers which get their own
	// block of features.
	// Neighbors of other types are ignored.
	AtomTypes []float64

	Params []RadialParam

	MaxNeighbors   int
	NeighborCutoff float64
}

// NumFeatures returns the number of features per atom.
func (f *Featurizer) NumFeatures() int {
	return len(f.AtomTypes) * len(f.Params)
}

// TypeIndex returns the index of an atomic number in
// f.AtomTypes, or -1.
func (f *Featurizer) TypeIndex(number float64) int {
	for i, t := range f.AtomTypes {
		if t == number {
			return i
		}
	}
	return -1
}

// Featurize computes a row of NumFeatures() values for
// every atom.
//
// Feature t*len(Params)+k of atom i sums Params[k]
// evaluated at the distance to every neighbor of type
// AtomTypes[t].
// Rows of padding atoms are zero.
func (f *Featurizer) Featurize(atoms []Atom) []float64 {
	numParams := len(f.Params)
	width := f.NumFeatures()
	res := make([]float64, len(atoms)*width)
	if width == 0 {
		return res
	}
	for i, neighbors := range NeighborList(atoms, f.MaxNeighbors, f.NeighborCutoff) {
		row := res[i*width : (i+1)*width]
		for _, n := range neighbors {
			t := f.TypeIndex(atoms[n.Index].Number)
			if t < 0 {
				continue
			}
			for k, p := range f.Params {
				row[t*numParams+k] += p.Eval(n.Distance)
			}
		}
	}
	return res
}
