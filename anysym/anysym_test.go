package anysym

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandRadial(t *testing.T) {
	params, err := ExpandRadial([][]float64{{12.0}, {0.0, 4.0, 8.0}, {4.0}})
	require.NoError(t, err)
	assert.Equal(t, []RadialParam{
		{Cutoff: 12, Mean: 0, Smoothness: 4},
		{Cutoff: 12, Mean: 4, Smoothness: 4},
		{Cutoff: 12, Mean: 8, Smoothness: 4},
	}, params)
}

func TestExpandRadialOrder(t *testing.T) {
	params, err := ExpandRadial([][]float64{{6, 12}, {0, 1}, {2, 3}})
	require.NoError(t, err)
	require.Len(t, params, 8)
	assert.Equal(t, RadialParam{Cutoff: 6, Mean: 0, Smoothness: 3}, params[1])
	assert.Equal(t, RadialParam{Cutoff: 6, Mean: 1, Smoothness: 2}, params[2])
	assert.Equal(t, RadialParam{Cutoff: 12, Mean: 0, Smoothness: 2}, params[4])
}

func TestExpandRadialEmpty(t *testing.T) {
	for _, radial := range [][][]float64{
		{{}, {0, 4}, {4}},
		{{12}, {}, {4}},
		{{12}, {0, 4}, {}},
	} {
		params, err := ExpandRadial(radial)
		require.NoError(t, err)
		assert.Empty(t, params)
	}
}

func TestExpandRadialErrors(t *testing.T) {
	_, err := ExpandRadial([][]float64{{12}, {0}})
	assert.Error(t, err)
	_, err = ExpandRadial([][]float64{{0}, {0}, {4}})
	assert.Error(t, err)
	_, err = ExpandRadial([][]float64{{12, -1}, {0}, {4}})
	assert.Error(t, err)
}

func TestCosineCutoff(t *testing.T) {
	assert.InDelta(t, 1, CosineCutoff(0, 5), 1e-12)
	assert.InDelta(t, 0.5, CosineCutoff(2.5, 5), 1e-12)
	assert.Equal(t, 0.0, CosineCutoff(5, 5))
	assert.Equal(t, 0.0, CosineCutoff(7, 5))
}

func TestPackAtoms(t *testing.T) {
	atoms := []Atom{{X: 1, Y: 2, Z: 3, Number: 6}, {X: -1, Y: 0, Z: 0.5, Number: 8}}
	packed, err := PackAtoms(atoms, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 6, -1, 0, 0.5, 8, 0, 0, 0, 0}, packed)

	unpacked := UnpackAtoms(packed)
	require.Len(t, unpacked, 3)
	assert.Equal(t, atoms, unpacked[:2])
	assert.False(t, unpacked[2].Real())

	_, err = PackAtoms(atoms, 1)
	assert.Error(t, err)
}

func TestNeighborList(t *testing.T) {
	atoms := []Atom{
		{X: 0, Number: 6},
		{X: 3, Number: 6},
		{X: 1, Number: 8},
		{X: 2, Number: 1},
		{X: 0.5},
	}
	lists := NeighborList(atoms, 2, 2.5)
	assert.Equal(t, []Neighbor{{Index: 2, Distance: 1}, {Index: 3, Distance: 2}}, lists[0])
	assert.Equal(t, []Neighbor{{Index: 3, Distance: 1}, {Index: 2, Distance: 2}}, lists[1])
	assert.Len(t, lists[2], 2)
	assert.Nil(t, lists[4])
}

func TestFeaturize(t *testing.T) {
	params, err := ExpandRadial([][]float64{{12.0}, {0.0, 4.0, 8.0}, {4.0}})
	require.NoError(t, err)
	f := &Featurizer{
		AtomTypes:      []float64{6, 8},
		Params:         params,
		MaxNeighbors:   12,
		NeighborCutoff: 12,
	}
	atoms := []Atom{
		{X: 0, Number: 6},
		{X: 4, Number: 8},
		{X: 0, Y: 3, Number: 17},
		{},
	}
	feats := f.Featurize(atoms)
	require.Len(t, feats, 4*f.NumFeatures())

	// Atom 0 sees one oxygen at distance 4; chlorine is not
	// a listed type.
	row := feats[:6]
	fc := CosineCutoff(4, 12)
	assert.Equal(t, []float64{0, 0, 0}, row[:3])
	assert.InDelta(t, math.Exp(-4*16)*fc, row[3], 1e-12)
	assert.InDelta(t, fc, row[4], 1e-12)
	assert.InDelta(t, math.Exp(-4*16)*fc, row[5], 1e-12)

	// Atom 1 sees one carbon at distance 4.
	assert.InDelta(t, fc, feats[6+1], 1e-12)

	// Padding rows are zero.
	for _, x := range feats[18:] {
		assert.Equal(t, 0.0, x)
	}
}

func TestFeaturizeNoParams(t *testing.T) {
	f := &Featurizer{AtomTypes: []float64{6}, MaxNeighbors: 4, NeighborCutoff: 5}
	assert.Equal(t, 0, f.NumFeatures())
	assert.Empty(t, f.Featurize([]Atom{{Number: 6}, {X: 1, Number: 6}}))
}
