package anychem

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvecsave"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var f FC
	serializer.RegisterTypedDeserializer(f.SerializerType(), DeserializeFC)
}

// FC is a fully-connected layer.
type FC struct {
	InCount  int
	OutCount int
	Weights  *anydiff.Var
	Biases   *anydiff.Var
}

// DeserializeFC attempts to deserialize an FC.
func DeserializeFC(d []byte) (*FC, error) {
	var inCount, outCount serializer.Int
	var weights, biases *anyvecsave.S
	if err := serializer.DeserializeAny(d, &inCount, &outCount, &weights, &biases); err != nil {
		return nil, essentials.AddCtx("deserialize FC", err)
	}
	if biases.Vector.Len() != int(outCount) || weights.Vector.Len() != int(inCount*outCount) {
		return nil, errors.New("deserialize FC: invalid matrix dimensions")
	}
	return &FC{
		InCount:  int(inCount),
		OutCount: int(outCount),
		Weights:  anydiff.NewVar(weights.Vector),
		Biases:   anydiff.NewVar(biases.Vector),
	}, nil
}

// NewFC creates an FC with weights drawn from a normal
// distribution with the given standard deviation and
// every bias set to biasInit.
//
// If r is nil, the global random source is used.
func NewFC(c anyvec.Creator, in, out int, stddev, biasInit float64, r *rand.Rand) *FC {
	res := NewFCZero(c, in, out)
	if in > 0 {
		anyvec.Rand(res.Weights.Vector, anyvec.Normal, r)
		res.Weights.Vector.Scale(c.MakeNumeric(stddev))
	}
	if biasInit != 0 {
		biases := make([]float64, out)
		for i := range biases {
			biases[i] = biasInit
		}
		res.Biases.Vector.SetData(c.MakeNumericList(biases))
	}
	return res
}

// NewFCZero creates a new, zero'd out FC.
func NewFCZero(c anyvec.Creator, in, out int) *FC {
	return &FC{
		InCount:  in,
		OutCount: out,
		Weights:  anydiff.NewVar(c.MakeVector(in * out)),
		Biases:   anydiff.NewVar(c.MakeVector(out)),
	}
}

// Apply applies the fully-connected layer to a batch of
// inputs.
//
// A layer with no inputs outputs its biases.
func (f *FC) Apply(in anydiff.Res, batch int) anydiff.Res {
	if batch*f.InCount != in.Output().Len() {
		panic(fmt.Sprintf("input length should be %d, but got %d",
			batch*f.InCount, in.Output().Len()))
	}
	if f.InCount == 0 {
		zeros := in.Output().Creator().MakeVector(batch * f.OutCount)
		return anydiff.AddRepeated(anydiff.NewConst(zeros), f.Biases)
	}
	weightMat := &anydiff.Matrix{
		Data: f.Weights,
		Rows: f.OutCount,
		Cols: f.InCount,
	}
	inMat := &anydiff.Matrix{
		Data: in,
		Rows: batch,
		Cols: f.InCount,
	}
	weighted := anydiff.MatMul(false, true, inMat, weightMat)
	return anydiff.AddRepeated(weighted.Data, f.Biases)
}

// Parameters returns a slice containing the weights
// and the biases, in that order.
func (f *FC) Parameters() []*anydiff.Var {
	return []*anydiff.Var{f.Weights, f.Biases}
}

// RegularizedParameters returns the weights.
func (f *FC) RegularizedParameters() []*anydiff.Var {
	return []*anydiff.Var{f.Weights}
}

// SerializerType returns the unique ID used to serialize
// an FC with the serializer package.
func (f *FC) SerializerType() string {
	return "github.com/unixpickle/anychem.FC"
}

// Serialize serializes the FC.
func (f *FC) Serialize() ([]byte, error) {
	weights := &anyvecsave.S{Vector: f.Weights.Vector}
	biases := &anyvecsave.S{Vector: f.Biases.Vector}
	return serializer.SerializeAny(serializer.Int(f.InCount), serializer.Int(f.OutCount),
		weights, biases)
}
