// Package anyfrag implements an atomic fragment regressor
// for protein-ligand binding affinity.
//
// A complex is split into a ligand fragment, a pocket
// fragment, and the complex itself.
// Every fragment is featurized with radial symmetry
// functions, scored atom by atom with one network per
// atom type, and the binding energy is the energy of the
// complex minus the energies of its fragments.
package anyfrag

import (
	"fmt"
	"math/rand"

	"github.com/unixpickle/anychem"
	"github.com/unixpickle/anychem/anydata"
	"github.com/unixpickle/anychem/anysym"
)

// New creates an untrained fragment regressor.
//
// The model predicts a single task, so cfg.NumTasks must
// be 1.
func New(cfg *anychem.Config, p Params) (*anychem.Model, error) {
	if cfg.NumTasks != 1 {
		return nil, &anychem.ConfigError{
			Field:  "NumTasks",
			Reason: fmt.Sprintf("fragment regressor predicts 1 task, not %d", cfg.NumTasks),
		}
	}
	radial, err := p.Validate()
	if err != nil {
		return nil, err
	}
	r := anychem.NewRand(cfg)
	featurizer := &anysym.Featurizer{
		AtomTypes:      append([]float64{}, p.AtomTypes...),
		Params:         radial,
		MaxNeighbors:   p.MaxNumNeighbors,
		NeighborCutoff: p.NeighborCutoff,
	}
	atomic := &AtomicNet{
		Featurizer: featurizer,
		FragAtoms:  [3]int{p.Frag1NumAtoms, p.Frag2NumAtoms, p.ComplexNumAtoms},
	}
	model := anychem.NewModel(cfg, anychem.Net{atomic}, anychem.WeightedMSE{},
		anychem.Regression, p.InputDim(), r)
	for range featurizer.AtomTypes {
		atomic.TypeNets = append(atomic.TypeNets,
			anychem.BuildMLP(model.Creator, cfg, featurizer.NumFeatures(), 1, r))
	}
	return model, nil
}

// RandomDataset generates n synthetic complexes.
//
// Ligands sit near the origin and pockets surround them.
// The label rewards ligand-pocket contacts closer than
// 4 angstroms, so it depends on the geometry the model
// sees.
func RandomDataset(r *rand.Rand, n int, p Params) (*anydata.Dataset, error) {
	records := make([]*anydata.Record, n)
	for i := range records {
		ligand := randomAtoms(r, p.AtomTypes, 1+r.Intn(p.Frag1NumAtoms), 2)
		maxPocket := p.Frag2NumAtoms
		if room := p.ComplexNumAtoms - len(ligand); room < maxPocket {
			maxPocket = room
		}
		if maxPocket < 1 {
			return nil, fmt.Errorf("random dataset: no room for pocket atoms")
		}
		pocket := randomAtoms(r, p.AtomTypes, 1+r.Intn(maxPocket), 6)
		x, err := p.Pack(ligand, pocket)
		if err != nil {
			return nil, err
		}
		var contacts float64
		for _, a := range ligand {
			for _, b := range pocket {
				dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
				if dx*dx+dy*dy+dz*dz < 16 {
					contacts++
				}
			}
		}
		records[i] = &anydata.Record{
			ID: fmt.Sprintf("complex%d", i),
			X:  x,
			Y:  []float64{-0.5*contacts + 0.1*r.NormFloat64()},
			W:  []float64{1},
		}
	}
	return anydata.NewDataset([]string{"-logKd/Ki"}, records)
}

func randomAtoms(r *rand.Rand, types []float64, n int, radius float64) []anysym.Atom {
	res := make([]anysym.Atom, n)
	for i := range res {
		res[i] = anysym.Atom{
			X:      (r.Float64()*2 - 1) * radius,
			Y:      (r.Float64()*2 - 1) * radius,
			Z:      (r.Float64()*2 - 1) * radius,
			Number: types[r.Intn(len(types))],
		}
	}
	return res
}
