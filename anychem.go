// Package anychem trains and evaluates neural network
// models on molecular data.
//
// The root package holds the model configuration, the
// layers and costs the models are built from, and the
// Model type which ties a network to the training
// sequencer in anyopt and the evaluator in anyeval.
// Concrete models live in sub-packages such as anyfrag
// and anylogreg.
package anychem

import (
	"fmt"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var n Net
	serializer.RegisterTypedDeserializer(n.SerializerType(), DeserializeNet)
}

// A Parameterizer is anything with learnable variables.
//
// The parameters of a Parameterizer must be in the same
// order every time Parameters() is called.
type Parameterizer interface {
	Parameters() []*anydiff.Var
}

// A Regularized layer reports the subset of its
// parameters which weight penalties apply to.
// Biases are usually left out.
type Regularized interface {
	RegularizedParameters() []*anydiff.Var
}

// A Trainable layer behaves differently while training,
// as dropout does.
type Trainable interface {
	SetTraining(training bool)
}

// A Layer is a composable computation unit for use in a
// neural network.
//
// A Layer's Apply method is inherently batched.
// The input's length must be divisible by the batch size,
// since the batch size indicates how many equally-long
// vectors are packed into the input vector.
type Layer interface {
	Apply(in anydiff.Res, batchSize int) anydiff.Res
}

// A Net evaluates a list of layers, one after another.
type Net []Layer

// DeserializeNet attempts to deserialize the network.
func DeserializeNet(d []byte) (Net, error) {
	slice, err := serializer.DeserializeSlice(d)
	if err != nil {
		return nil, essentials.AddCtx("deserialize Net", err)
	}
	res := make(Net, len(slice))
	for i, x := range slice {
		if layer, ok := x.(Layer); ok {
			res[i] = layer
		} else {
			return nil, fmt.Errorf("deserialize Net: not a Layer: %T", x)
		}
	}
	return res, nil
}

// Apply applies the network to a batch.
// If the network contains no layers, the input is
// returned as output.
func (n Net) Apply(in anydiff.Res, batchSize int) anydiff.Res {
	for _, l := range n {
		in = l.Apply(in, batchSize)
	}
	return in
}

// Parameters returns the parameters of the network.
//
// Every layer which implements Parameterizer will have
// its parameters added to the slice.
// Parameters are ordered from the first layer onwards.
func (n Net) Parameters() []*anydiff.Var {
	var res []*anydiff.Var
	for _, x := range n {
		if p, ok := x.(Parameterizer); ok {
			res = append(res, p.Parameters()...)
		}
	}
	return res
}

// RegularizedParameters gathers the regularized
// parameters of every layer.
func (n Net) RegularizedParameters() []*anydiff.Var {
	var res []*anydiff.Var
	for _, x := range n {
		if r, ok := x.(Regularized); ok {
			res = append(res, r.RegularizedParameters()...)
		}
	}
	return res
}

// SetTraining switches every Trainable layer in and out
// of training mode.
func (n Net) SetTraining(training bool) {
	for _, x := range n {
		if t, ok := x.(Trainable); ok {
			t.SetTraining(training)
		}
	}
}

// SerializerType returns the unique ID used to serialize
// a Net with the serializer package.
func (n Net) SerializerType() string {
	return "github.com/unixpickle/anychem.Net"
}

// Serialize attempts to serialize the network.
// If any Layer is not a serializer.Serializer,
// this fails.
func (n Net) Serialize() ([]byte, error) {
	var slice []serializer.Serializer
	for _, x := range n {
		if s, ok := x.(serializer.Serializer); ok {
			slice = append(slice, s)
		} else {
			return nil, fmt.Errorf("not a Serializer: %T", x)
		}
	}
	return serializer.SerializeSlice(slice)
}
