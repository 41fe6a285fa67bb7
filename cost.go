package anychem

import (
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
)

const l1Smoothing = 1e-12

// A Cost measures the amount of error from the output of
// a network.
//
// Costs are batched and weighted.
// The desired, actual, and weights vectors all pack n
// equally long rows, one component per task, and the
// result holds one cost per row.
// A weight of 0 removes a component from the cost.
type Cost interface {
	Cost(desired, actual, weights anydiff.Res, n int) anydiff.Res
}

// WeightedMSE evaluates cost as the weighted mean of the
// squared differences between the actual and desired
// outputs.
type WeightedMSE struct{}

// Cost computes, for each row, the mean weighted squared
// distance between the actual and desired output value.
func (w WeightedMSE) Cost(desired, actual, weights anydiff.Res, n int) anydiff.Res {
	diff := anydiff.Sub(desired, actual)
	sq := anydiff.Mul(anydiff.Square(diff), weights)
	numComps := sq.Output().Len() / n
	sum := anydiff.SumCols(&anydiff.Matrix{
		Data: sq,
		Rows: n,
		Cols: numComps,
	})
	normalizer := 1.0 / float64(numComps)
	return anydiff.Scale(sum, sum.Output().Creator().MakeNumeric(normalizer))
}

// SigmoidCE combines a sigmoid output activation with a
// weighted cross-entropy loss.
type SigmoidCE struct {
	// Average indicates whether or not the cross-entropy
	// cost should be an average over tasks rather than a
	// sum.
	Average bool
}

// Cost is mathematically equivalent to applying the
// sigmoid to each component of actual, then finding the
// weighted cross-entropy loss.
func (s SigmoidCE) Cost(desired, actual, weights anydiff.Res, n int) anydiff.Res {
	minusOne := actual.Output().Creator().MakeNumeric(-1)
	costProducts := anydiff.Pool(desired, func(desired anydiff.Res) anydiff.Res {
		return anydiff.Pool(actual, func(actual anydiff.Res) anydiff.Res {
			logRegular := anydiff.LogSigmoid(actual)
			logComplement := anydiff.LogSigmoid(anydiff.Scale(actual, minusOne))
			return anydiff.Add(
				anydiff.Mul(desired, logRegular),
				anydiff.Mul(anydiff.Complement(desired), logComplement),
			)
		})
	})
	weighted := anydiff.Mul(costProducts, weights)
	res := anydiff.SumCols(&anydiff.Matrix{
		Data: weighted,
		Rows: n,
		Cols: actual.Output().Len() / n,
	})
	d := -1.0
	if s.Average {
		d /= float64(actual.Output().Len() / n)
	}
	return anydiff.Scale(res, res.Output().Creator().MakeNumeric(d))
}

// PenaltyTerm computes the weight penalty for a set of
// parameters as a one-component result.
//
// L2 penalties sum the squared parameters and scale the
// sum by strength/2.
// L1 penalties sum the absolute values, smoothed near
// zero, and scale the sum by strength.
//
// It returns nil if there is nothing to penalize.
func PenaltyTerm(c anyvec.Creator, p Penalty, strength float64,
	params []*anydiff.Var) anydiff.Res {
	if p == PenaltyNone || strength == 0 || len(params) == 0 {
		return nil
	}
	var sum anydiff.Res
	sum = anydiff.NewConst(c.MakeVector(1))
	for _, param := range params {
		sq := anydiff.Square(param)
		switch p {
		case PenaltyL2:
			sum = anydiff.Add(sum, anydiff.Sum(sq))
		case PenaltyL1:
			abs := anydiff.Pow(anydiff.AddScalar(sq, c.MakeNumeric(l1Smoothing)),
				c.MakeNumeric(0.5))
			sum = anydiff.Add(sum, anydiff.Sum(abs))
		}
	}
	scale := strength
	if p == PenaltyL2 {
		scale /= 2
	}
	return anydiff.Scale(sum, c.MakeNumeric(scale))
}
