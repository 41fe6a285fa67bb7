package anychem

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/unixpickle/anychem/anydata"
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec/anyvec64"
)

func testTrainer() (*Trainer, RecordList) {
	c := anyvec64.DefaultCreator{}
	fc := NewFCZero(c, 2, 1)
	fc.Weights.Vector.SetData(c.MakeNumericList([]float64{1, -1}))
	fc.Biases.Vector.SetData(c.MakeNumericList([]float64{0.5}))
	net := Net{fc}
	records := RecordList{
		{ID: "a", X: []float64{1, 2}, Y: []float64{0}, W: []float64{1}},
		{ID: "b", X: []float64{3, 1}, Y: []float64{1}, W: []float64{2}},
		{ID: "c", X: []float64{0, 0}, Y: []float64{5}, W: []float64{0}},
	}
	return &Trainer{
		Creator:         c,
		Net:             net,
		Cost:            WeightedMSE{},
		Params:          net.Parameters(),
		InputDim:        2,
		NumTasks:        1,
		Penalty:         PenaltyL2,
		PenaltyStrength: 0.5,
		PenaltyParams:   net.RegularizedParameters(),
		MaxGos:          2,
	}, records
}

func TestTrainerFetch(t *testing.T) {
	trainer, records := testTrainer()
	batch, err := trainer.Fetch(records)
	if err != nil {
		t.Fatal(err)
	}
	b := batch.(*Batch)
	if b.Num != 3 {
		t.Errorf("expected 3 samples but got %d", b.Num)
	}
	checks := []struct {
		name     string
		actual   *anydiff.Const
		expected []float64
	}{
		{"inputs", b.Inputs, []float64{1, 2, 3, 1, 0, 0}},
		{"outputs", b.Outputs, []float64{0, 1, 5}},
		{"weights", b.Weights, []float64{1, 2, 0}},
	}
	for _, c := range checks {
		if actual := VectorFloats(c.actual.Output()); !reflect.DeepEqual(actual, c.expected) {
			t.Errorf("%s: expected %v but got %v", c.name, c.expected, actual)
		}
	}
}

func TestTrainerFetchShape(t *testing.T) {
	trainer, records := testTrainer()
	records[1] = &anydata.Record{ID: "bad", X: []float64{1, 2}, Y: []float64{1}, W: nil}
	_, err := trainer.Fetch(records)
	var shapeErr *ShapeError
	if !errors.As(err, &shapeErr) || shapeErr.What != "weight" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestTrainerCost(t *testing.T) {
	trainer, records := testTrainer()
	batch, err := trainer.Fetch(records)
	if err != nil {
		t.Fatal(err)
	}
	// Outputs are -0.5, 2.5, 0.5; weighted squared errors
	// are 0.25, 4.5, and 0, averaged over 3 samples.
	// The penalty is 0.5/2 * (1 + 1).
	expected := 4.75/3 + 0.5
	if _, err := trainer.Gradient(batch); err != nil {
		t.Fatal(err)
	}
	if math.Abs(trainer.LastCost-expected) > 1e-9 {
		t.Errorf("expected cost %f but got %f", expected, trainer.LastCost)
	}
}
