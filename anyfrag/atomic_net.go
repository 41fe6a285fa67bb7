package anyfrag

import (
	"fmt"
	"math/rand"

	"github.com/unixpickle/anychem"
	"github.com/unixpickle/anychem/anysym"
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec64"
	"github.com/unixpickle/anyvec/anyvecsave"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var a AtomicNet
	serializer.RegisterTypedDeserializer(a.SerializerType(), DeserializeAtomicNet)
}

// An AtomicNet predicts a binding energy from a batch of
// packed complexes.
//
// Each fragment's energy is the sum of per-atom energies,
// where an atom's energy comes from the network for its
// atom type applied to its radial symmetry features.
// The output is E(complex) - E(frag1) - E(frag2).
type AtomicNet struct {
	Featurizer *anysym.Featurizer

	// FragAtoms holds the padded atom counts of fragment 1,
	// fragment 2, and the complex.
	FragAtoms [3]int

	// TypeNets has one network per featurizer atom type,
	// each mapping a feature row to one energy.
	TypeNets []anychem.Net
}

// DeserializeAtomicNet deserializes an AtomicNet.
func DeserializeAtomicNet(d []byte) (*AtomicNet, error) {
	var types, params *anyvecsave.S
	var maxNeighbors, frag1, frag2, complexAtoms serializer.Int
	var cutoff float64
	var nets anychem.Net
	err := serializer.DeserializeAny(d, &types, &params, &maxNeighbors, &cutoff,
		&frag1, &frag2, &complexAtoms, &nets)
	if err != nil {
		return nil, essentials.AddCtx("deserialize AtomicNet", err)
	}
	flatParams := anychem.VectorFloats(params.Vector)
	if len(flatParams)%3 != 0 {
		return nil, fmt.Errorf("deserialize AtomicNet: bad parameter count %d", len(flatParams))
	}
	res := &AtomicNet{
		Featurizer: &anysym.Featurizer{
			AtomTypes:      anychem.VectorFloats(types.Vector),
			MaxNeighbors:   int(maxNeighbors),
			NeighborCutoff: cutoff,
		},
		FragAtoms: [3]int{int(frag1), int(frag2), int(complexAtoms)},
	}
	for i := 0; i < len(flatParams); i += 3 {
		res.Featurizer.Params = append(res.Featurizer.Params, anysym.RadialParam{
			Cutoff:     flatParams[i],
			Mean:       flatParams[i+1],
			Smoothness: flatParams[i+2],
		})
	}
	for _, layer := range nets {
		net, ok := layer.(anychem.Net)
		if !ok {
			return nil, fmt.Errorf("deserialize AtomicNet: not a Net: %T", layer)
		}
		res.TypeNets = append(res.TypeNets, net)
	}
	if len(res.TypeNets) != len(res.Featurizer.AtomTypes) {
		return nil, fmt.Errorf("deserialize AtomicNet: %d networks for %d atom types",
			len(res.TypeNets), len(res.Featurizer.AtomTypes))
	}
	return res, nil
}

// Apply computes the binding energy of every complex in
// the batch.
// The input is treated as a constant.
func (a *AtomicNet) Apply(in anydiff.Res, n int) anydiff.Res {
	width := anysym.AtomWidth * (a.FragAtoms[0] + a.FragAtoms[1] + a.FragAtoms[2])
	if in.Output().Len() != n*width {
		panic(fmt.Sprintf("input length should be %d, but got %d", n*width,
			in.Output().Len()))
	}
	c := in.Output().Creator()
	data := anychem.VectorFloats(in.Output())
	var energies [3]anydiff.Res
	offset := 0
	for i, numAtoms := range a.FragAtoms {
		fragments := make([][]anysym.Atom, n)
		for j := range fragments {
			start := j*width + offset
			fragments[j] = anysym.UnpackAtoms(data[start : start+numAtoms*anysym.AtomWidth])
		}
		energies[i] = a.fragmentEnergy(c, fragments)
		offset += numAtoms * anysym.AtomWidth
	}
	return anydiff.Sub(energies[2], anydiff.Add(energies[0], energies[1]))
}

// fragmentEnergy sums per-atom energies for every
// fragment in a batch.
//
// Each type network only sees the atoms of its type.
// An assignment matrix with one row per fragment scatters
// the atom energies back into per-fragment sums.
func (a *AtomicNet) fragmentEnergy(c anyvec.Creator, fragments [][]anysym.Atom) anydiff.Res {
	numFeatures := a.Featurizer.NumFeatures()
	typeFeatures := make([][]float64, len(a.TypeNets))
	typeOwners := make([][]int, len(a.TypeNets))
	for j, atoms := range fragments {
		features := a.Featurizer.Featurize(atoms)
		for i, atom := range atoms {
			t := a.Featurizer.TypeIndex(atom.Number)
			if !atom.Real() || t < 0 {
				continue
			}
			row := features[i*numFeatures : (i+1)*numFeatures]
			typeFeatures[t] = append(typeFeatures[t], row...)
			typeOwners[t] = append(typeOwners[t], j)
		}
	}

	var sum anydiff.Res = anydiff.NewConst(c.MakeVector(len(fragments)))
	for t, net := range a.TypeNets {
		numAtoms := len(typeOwners[t])
		if numAtoms == 0 {
			continue
		}
		inputs := anydiff.NewConst(c.MakeVectorData(c.MakeNumericList(typeFeatures[t])))
		atomEnergies := net.Apply(inputs, numAtoms)

		assignment := make([]float64, len(fragments)*numAtoms)
		for i, owner := range typeOwners[t] {
			assignment[owner*numAtoms+i] = 1
		}
		assignMat := &anydiff.Matrix{
			Data: anydiff.NewConst(c.MakeVectorData(c.MakeNumericList(assignment))),
			Rows: len(fragments),
			Cols: numAtoms,
		}
		energyMat := &anydiff.Matrix{Data: atomEnergies, Rows: numAtoms, Cols: 1}
		sum = anydiff.Add(sum, anydiff.MatMul(false, false, assignMat, energyMat).Data)
	}
	return sum
}

// Parameters returns the parameters of every type
// network, in atom type order.
func (a *AtomicNet) Parameters() []*anydiff.Var {
	var res []*anydiff.Var
	for _, net := range a.TypeNets {
		res = append(res, net.Parameters()...)
	}
	return res
}

// RegularizedParameters returns the weights of every type
// network.
func (a *AtomicNet) RegularizedParameters() []*anydiff.Var {
	var res []*anydiff.Var
	for _, net := range a.TypeNets {
		res = append(res, net.RegularizedParameters()...)
	}
	return res
}

// SetTraining switches dropout in every type network.
func (a *AtomicNet) SetTraining(training bool) {
	for _, net := range a.TypeNets {
		net.SetTraining(training)
	}
}

// SetRand sets the dropout source of every type network.
func (a *AtomicNet) SetRand(r *rand.Rand) {
	for _, net := range a.TypeNets {
		for _, layer := range net {
			if d, ok := layer.(*anychem.Dropout); ok {
				d.Rand = r
			}
		}
	}
}

// SerializerType returns the unique ID used to serialize
// an AtomicNet with the serializer package.
func (a *AtomicNet) SerializerType() string {
	return "github.com/unixpickle/anychem/anyfrag.AtomicNet"
}

// Serialize serializes the AtomicNet.
func (a *AtomicNet) Serialize() ([]byte, error) {
	var flatParams []float64
	for _, p := range a.Featurizer.Params {
		flatParams = append(flatParams, p.Cutoff, p.Mean, p.Smoothness)
	}
	nets := make(anychem.Net, len(a.TypeNets))
	for i, net := range a.TypeNets {
		nets[i] = net
	}
	return serializer.SerializeAny(
		&anyvecsave.S{Vector: anychem.MakeVector(anyvec64.DefaultCreator{}, a.Featurizer.AtomTypes)},
		&anyvecsave.S{Vector: anychem.MakeVector(anyvec64.DefaultCreator{}, flatParams)},
		serializer.Int(a.Featurizer.MaxNeighbors),
		a.Featurizer.NeighborCutoff,
		serializer.Int(a.FragAtoms[0]),
		serializer.Int(a.FragAtoms[1]),
		serializer.Int(a.FragAtoms[2]),
		nets,
	)
}
