package anychem

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/unixpickle/anychem/anydata"
	"github.com/unixpickle/anychem/anyopt"
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
)

// A Batch stores inputs, labels, and weights in a packed
// format.
type Batch struct {
	Inputs  *anydiff.Const
	Outputs *anydiff.Const
	Weights *anydiff.Const
	Num     int
}

// RecordList adapts dataset records to an
// anyopt.SampleList.
type RecordList []*anydata.Record

// Len returns the number of records.
func (r RecordList) Len() int {
	return len(r)
}

// Swap swaps two records.
func (r RecordList) Swap(i, j int) {
	r[i], r[j] = r[j], r[i]
}

// Slice copies a sub-slice of the list.
func (r RecordList) Slice(i, j int) anyopt.SampleList {
	return append(RecordList{}, r[i:j]...)
}

// A Trainer packs batches and computes gradients of a
// weighted, penalized cost for a network.
type Trainer struct {
	Creator anyvec.Creator
	Net     Layer
	Cost    Cost
	Params  []*anydiff.Var

	InputDim int
	NumTasks int

	// Penalty is applied to PenaltyParams with the given
	// strength.
	Penalty         Penalty
	PenaltyStrength float64
	PenaltyParams   []*anydiff.Var

	// After every gradient computation, LastCost is set to
	// the mean cost of the batch, including the penalty.
	LastCost float64

	// MaxGos specifies the maximum goroutines to use
	// simultaneously for packing samples.
	// If it is 0, GOMAXPROCS is used.
	MaxGos int
}

// Fetch produces a *Batch for the subset of records.
// The s argument must be a RecordList.
//
// Records whose dimensions disagree with the trainer
// produce a *ShapeError.
func (t *Trainer) Fetch(s anyopt.SampleList) (anyopt.Batch, error) {
	l := s.(RecordList)
	if len(l) == 0 {
		return nil, fmt.Errorf("fetch batch: empty batch")
	}
	for _, r := range l {
		if err := checkRecord(r, t.InputDim, t.NumTasks); err != nil {
			return nil, err
		}
	}

	ins := make([]float64, len(l)*t.InputDim)
	outs := make([]float64, len(l)*t.NumTasks)
	weights := make([]float64, len(l)*t.NumTasks)

	idxChan := make(chan int, len(l))
	for i := range l {
		idxChan <- i
	}
	close(idxChan)

	maxGos := t.MaxGos
	if maxGos == 0 {
		maxGos = runtime.GOMAXPROCS(0)
	}
	var wg sync.WaitGroup
	for i := 0; i < maxGos; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idxChan {
				r := l[i]
				copy(ins[i*t.InputDim:], r.X)
				copy(outs[i*t.NumTasks:], r.Y)
				copy(weights[i*t.NumTasks:], r.W)
			}
		}()
	}
	wg.Wait()

	c := t.Creator
	return &Batch{
		Inputs:  anydiff.NewConst(c.MakeVectorData(c.MakeNumericList(ins))),
		Outputs: anydiff.NewConst(c.MakeVectorData(c.MakeNumericList(outs))),
		Weights: anydiff.NewConst(c.MakeVectorData(c.MakeNumericList(weights))),
		Num:     len(l),
	}, nil
}

// TotalCost computes the mean cost of the *Batch, plus
// the weight penalty.
func (t *Trainer) TotalCost(batch anyopt.Batch) anydiff.Res {
	b := batch.(*Batch)
	outRes := t.Net.Apply(b.Inputs, b.Num)
	cost := t.Cost.Cost(b.Outputs, outRes, b.Weights, b.Num)
	total := anydiff.Scale(anydiff.Sum(cost), t.Creator.MakeNumeric(1/float64(b.Num)))
	if penalty := PenaltyTerm(t.Creator, t.Penalty, t.PenaltyStrength,
		t.PenaltyParams); penalty != nil {
		total = anydiff.Add(total, penalty)
	}
	return total
}

// Gradient computes the gradient of TotalCost and sets
// t.LastCost.
//
// A NaN or infinite cost yields ErrDiverged.
func (t *Trainer) Gradient(b anyopt.Batch) (anydiff.Grad, error) {
	grad := anydiff.Grad{}
	for _, p := range t.Params {
		grad[p] = p.Vector.Creator().MakeVector(p.Vector.Len())
	}
	total := t.TotalCost(b)
	t.LastCost = floatSum(total.Output())
	if math.IsNaN(t.LastCost) || math.IsInf(t.LastCost, 0) {
		return nil, ErrDiverged
	}
	upstream := t.Creator.MakeVectorData(t.Creator.MakeNumericList([]float64{1}))
	total.Propagate(upstream, grad)
	return grad, nil
}

func checkRecord(r *anydata.Record, inputDim, numTasks int) error {
	if len(r.X) != inputDim {
		return &ShapeError{RecordID: r.ID, What: "feature", Expected: inputDim, Actual: len(r.X)}
	}
	if len(r.Y) != numTasks {
		return &ShapeError{RecordID: r.ID, What: "label", Expected: numTasks, Actual: len(r.Y)}
	}
	if len(r.W) != numTasks {
		return &ShapeError{RecordID: r.ID, What: "weight", Expected: numTasks, Actual: len(r.W)}
	}
	return nil
}

func floatSum(v anyvec.Vector) float64 {
	var sum float64
	for _, x := range VectorFloats(v) {
		sum += x
	}
	return sum
}

// VectorFloats copies a float32 or float64 vector into a
// []float64.
func VectorFloats(v anyvec.Vector) []float64 {
	switch data := v.Data().(type) {
	case []float32:
		res := make([]float64, len(data))
		for i, x := range data {
			res[i] = float64(x)
		}
		return res
	case []float64:
		return data
	default:
		panic(fmt.Sprintf("unsupported numeric list: %T", data))
	}
}

// MakeVector creates a vector from float64 data.
func MakeVector(c anyvec.Creator, data []float64) anyvec.Vector {
	return c.MakeVectorData(c.MakeNumericList(data))
}
