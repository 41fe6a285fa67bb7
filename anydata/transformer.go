package anydata

import (
	"errors"

	"gonum.org/v1/gonum/stat"
)

// A Transformer is a fitted, reusable transformation of a
// dataset's labels or weights.
//
// A Transformer is fitted once, usually on a training
// split, and then applied unchanged to every split.
type Transformer interface {
	// Transform returns a transformed copy of the dataset.
	// The input is not modified.
	Transform(d *Dataset) *Dataset

	// UntransformY maps labels (or predictions of labels)
	// back to their original scale.
	// The input is not modified.
	UntransformY(y [][]float64) [][]float64
}

// TransformAll applies the transformers in order.
func TransformAll(ts []Transformer, d *Dataset) *Dataset {
	for _, t := range ts {
		d = t.Transform(d)
	}
	return d
}

// UntransformAll undoes the transformers on labels, in
// reverse order.
func UntransformAll(ts []Transformer, y [][]float64) [][]float64 {
	y = copyRows(y)
	for i := len(ts) - 1; i >= 0; i-- {
		y = ts[i].UntransformY(y)
	}
	return y
}

// Identity is a Transformer that changes nothing.
type Identity struct{}

// Transform returns a copy of d.
func (Identity) Transform(d *Dataset) *Dataset {
	return d.Copy()
}

// UntransformY returns a copy of y.
func (Identity) UntransformY(y [][]float64) [][]float64 {
	return copyRows(y)
}

// Normalization shifts and scales labels to zero mean
// and unit variance, per task.
type Normalization struct {
	Means   []float64
	Stddevs []float64
}

// NewNormalization fits a Normalization to the labels of
// a dataset.
// Tasks with no spread get a standard deviation of 1.
func NewNormalization(d *Dataset) (*Normalization, error) {
	if d.Len() == 0 {
		return nil, errors.New("fit normalization: empty dataset")
	}
	res := &Normalization{
		Means:   make([]float64, d.NumTasks()),
		Stddevs: make([]float64, d.NumTasks()),
	}
	column := make([]float64, d.Len())
	for task := range d.Tasks {
		for i, r := range d.Records {
			column[i] = r.Y[task]
		}
		mean, std := stat.MeanStdDev(column, nil)
		if std == 0 || d.Len() < 2 {
			std = 1
		}
		res.Means[task] = mean
		res.Stddevs[task] = std
	}
	return res, nil
}

// Transform normalizes the labels of a copy of d.
func (n *Normalization) Transform(d *Dataset) *Dataset {
	res := d.Copy()
	for _, r := range res.Records {
		for task, y := range r.Y {
			r.Y[task] = (y - n.Means[task]) / n.Stddevs[task]
		}
	}
	return res
}

// UntransformY maps normalized labels back.
func (n *Normalization) UntransformY(y [][]float64) [][]float64 {
	res := copyRows(y)
	for _, row := range res {
		for task, x := range row {
			row[task] = x*n.Stddevs[task] + n.Means[task]
		}
	}
	return res
}

// Balancing reweights binary classification examples so
// that, per task, positive examples carry the same total
// weight as negative ones.
//
// Labels above 0.5 count as positive.
// Weights of 0 are left alone.
type Balancing struct {
	NegWeights []float64
	PosWeights []float64
}

// NewBalancing fits a Balancing to a dataset.
func NewBalancing(d *Dataset) (*Balancing, error) {
	if d.Len() == 0 {
		return nil, errors.New("fit balancing: empty dataset")
	}
	res := &Balancing{
		NegWeights: make([]float64, d.NumTasks()),
		PosWeights: make([]float64, d.NumTasks()),
	}
	for task := range d.Tasks {
		var numPos, numNeg int
		for _, r := range d.Records {
			if r.W[task] == 0 {
				continue
			}
			if r.Y[task] > 0.5 {
				numPos++
			} else {
				numNeg++
			}
		}
		res.NegWeights[task] = 1
		res.PosWeights[task] = 1
		if numPos > 0 {
			res.PosWeights[task] = float64(numNeg) / float64(numPos)
		}
	}
	return res, nil
}

// Transform rebalances the weights of a copy of d.
func (b *Balancing) Transform(d *Dataset) *Dataset {
	res := d.Copy()
	for _, r := range res.Records {
		for task, w := range r.W {
			if w == 0 {
				continue
			}
			if r.Y[task] > 0.5 {
				r.W[task] = b.PosWeights[task]
			} else {
				r.W[task] = b.NegWeights[task]
			}
		}
	}
	return res
}

// UntransformY returns a copy of y, since balancing does
// not touch labels.
func (b *Balancing) UntransformY(y [][]float64) [][]float64 {
	return copyRows(y)
}

func copyRows(y [][]float64) [][]float64 {
	res := make([][]float64, len(y))
	for i, row := range y {
		res[i] = append([]float64{}, row...)
	}
	return res
}
