package anychem

import (
	"math"
	"testing"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anydiff/anydifftest"
	"github.com/unixpickle/anyvec/anyvec32"
	"github.com/unixpickle/anyvec/anyvec64"
)

func TestWeightedMSE(t *testing.T) {
	t.Run("Unweighted", func(t *testing.T) {
		testCost(t, WeightedMSE{}, []float32{
			1, 0.5, 2,
			3, -1, 2,
		}, []float32{
			-1, -2, -3,
			-2, -3, -1,
		}, []float32{
			1, 1, 1,
			1, 1, 1,
		}, []float32{11 + 3.0/4, 12 + 2.0/3}, 2)
	})
	t.Run("Weighted", func(t *testing.T) {
		testCost(t, WeightedMSE{}, []float32{
			1, 0.5, 2,
			3, -1, 2,
		}, []float32{
			-1, -2, -3,
			-2, -3, -1,
		}, []float32{
			1, 0, 0,
			0.5, 2, 0,
		}, []float32{4.0 / 3, (12.5 + 8) / 3}, 2)
	})
}

func TestSigmoidCE(t *testing.T) {
	t.Run("Unaveraged", func(t *testing.T) {
		testCost(t, SigmoidCE{}, []float32{
			1, 0.6,
			0.2, 0,
		}, []float32{
			1, 0,
			2, -1,
		}, []float32{
			1, 1,
			1, 1,
		}, []float32{
			0.3132616875 + 0.6931471806,
			0.02538560221 + 1.7015424088 + 0.3132616875,
		}, 2)
	})
	t.Run("Averaged", func(t *testing.T) {
		testCost(t, SigmoidCE{Average: true}, []float32{
			1, 0.6, 0,
			0.2, 0, 0,
		}, []float32{
			1, 0, -50,
			2, -1, -50,
		}, []float32{
			1, 1, 1,
			1, 1, 1,
		}, []float32{
			(1.0 / 3) * (0.3132616875 + 0.6931471806),
			(1.0 / 3) * (0.02538560221 + 1.7015424088 + 0.3132616875),
		}, 2)
	})
	t.Run("Weighted", func(t *testing.T) {
		testCost(t, SigmoidCE{}, []float32{
			1, 0.6,
			0.2, 0,
		}, []float32{
			1, 0,
			2, -1,
		}, []float32{
			1, 0,
			0.5, 1,
		}, []float32{
			0.3132616875,
			0.5*(0.02538560221+1.7015424088) + 0.3132616875,
		}, 2)
	})
}

func TestCostGradients(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	desired := anydiff.NewVar(c.MakeVectorData([]float64{1, 0, 0.3, 1, 0, 0}))
	actual := anydiff.NewVar(c.MakeVectorData([]float64{0.5, -1, 2, 1.5, -0.3, 0.7}))
	weights := anydiff.NewConst(c.MakeVectorData([]float64{1, 0.5, 0, 2, 1, 1}))
	for _, cost := range []Cost{WeightedMSE{}, SigmoidCE{}, SigmoidCE{Average: true}} {
		checker := &anydifftest.ResChecker{
			F: func() anydiff.Res {
				return cost.Cost(desired, actual, weights, 2)
			},
			V: []*anydiff.Var{desired, actual},
		}
		checker.FullCheck(t)
	}
}

func TestPenaltyTerm(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	params := []*anydiff.Var{
		anydiff.NewVar(c.MakeVectorData([]float64{1, -2})),
		anydiff.NewVar(c.MakeVectorData([]float64{3})),
	}

	l2 := PenaltyTerm(c, PenaltyL2, 0.1, params).Output().Data().([]float64)
	if len(l2) != 1 || math.Abs(l2[0]-0.7) > 1e-9 {
		t.Errorf("unexpected L2 penalty: %v", l2)
	}
	l1 := PenaltyTerm(c, PenaltyL1, 0.1, params).Output().Data().([]float64)
	if len(l1) != 1 || math.Abs(l1[0]-0.6) > 1e-6 {
		t.Errorf("unexpected L1 penalty: %v", l1)
	}
	if PenaltyTerm(c, PenaltyNone, 0.1, params) != nil {
		t.Error("expected no penalty")
	}
	if PenaltyTerm(c, PenaltyL2, 0, params) != nil {
		t.Error("expected no penalty for zero strength")
	}

	for _, p := range []Penalty{PenaltyL1, PenaltyL2} {
		checker := &anydifftest.ResChecker{
			F: func() anydiff.Res {
				return PenaltyTerm(c, p, 0.3, params)
			},
			V: params,
		}
		checker.FullCheck(t)
	}
}

func testCost(t *testing.T, c Cost, desired, output, weights, expected []float32, n int) {
	desiredRes := anydiff.NewConst(anyvec32.MakeVectorData(desired))
	outputRes := anydiff.NewConst(anyvec32.MakeVectorData(output))
	weightRes := anydiff.NewConst(anyvec32.MakeVectorData(weights))

	actual := c.Cost(desiredRes, outputRes, weightRes, n).Output().Data().([]float32)

	for i, x := range expected {
		a := actual[i]
		if math.IsNaN(float64(a)) || math.Abs(float64(x-a)) > 1e-3 {
			t.Errorf("component %d: expected %f but got %f", i, x, a)
		}
	}
}
