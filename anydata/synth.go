package anydata

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// RandomClassification generates a dataset of binary
// fingerprints with binary labels.
//
// Each task labels a record positive when a hidden random
// projection of its fingerprint is above the median, so
// every task has both classes when n >= 2.
func RandomClassification(r *rand.Rand, n, numFeatures, numTasks int) *Dataset {
	records := make([]*Record, n)
	for i := range records {
		x := make([]float64, numFeatures)
		for j := range x {
			if r.Intn(2) == 1 {
				x[j] = 1
			}
		}
		records[i] = &Record{
			ID: fmt.Sprintf("mol%d", i),
			X:  x,
			Y:  make([]float64, numTasks),
			W:  ones(numTasks),
		}
	}
	scores := make([]float64, n)
	for task := 0; task < numTasks; task++ {
		projection := randomProjection(r, numFeatures)
		for i, rec := range records {
			scores[i] = floats.Dot(projection, rec.X)
		}
		order := make([]int, n)
		sorted := append([]float64{}, scores...)
		floats.Argsort(sorted, order)
		for rank, idx := range order {
			if rank >= n/2 {
				records[idx].Y[task] = 1
			}
		}
	}
	return &Dataset{Tasks: taskNames(numTasks), Records: records}
}

// RandomRegression generates a dataset whose labels are a
// hidden linear function of Gaussian features plus a
// small amount of noise.
func RandomRegression(r *rand.Rand, n, numFeatures, numTasks int) *Dataset {
	projections := make([][]float64, numTasks)
	for i := range projections {
		projections[i] = randomProjection(r, numFeatures)
	}
	records := make([]*Record, n)
	for i := range records {
		x := make([]float64, numFeatures)
		for j := range x {
			x[j] = r.NormFloat64()
		}
		y := make([]float64, numTasks)
		for task, p := range projections {
			y[task] = floats.Dot(p, x) + 0.01*r.NormFloat64()
		}
		records[i] = &Record{ID: fmt.Sprintf("sample%d", i), X: x, Y: y, W: ones(numTasks)}
	}
	return &Dataset{Tasks: taskNames(numTasks), Records: records}
}

func randomProjection(r *rand.Rand, n int) []float64 {
	res := make([]float64, n)
	for i := range res {
		res[i] = r.NormFloat64()
	}
	return res
}

func ones(n int) []float64 {
	res := make([]float64, n)
	for i := range res {
		res[i] = 1
	}
	return res
}

func taskNames(n int) []string {
	res := make([]string, n)
	for i := range res {
		res[i] = fmt.Sprintf("task%d", i)
	}
	return res
}
