package anyeval

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// A MetricFunc scores predictions against labels for a
// single task.
// Both slices have the same length.
type MetricFunc func(yTrue, yPred []float64) (float64, error)

var errTooFewSamples = errors.New("too few samples")

// MeanAbsoluteError computes the mean of |yTrue - yPred|.
func MeanAbsoluteError(yTrue, yPred []float64) (float64, error) {
	if len(yTrue) == 0 {
		return 0, errTooFewSamples
	}
	var sum float64
	for i, y := range yTrue {
		sum += math.Abs(y - yPred[i])
	}
	return sum / float64(len(yTrue)), nil
}

// RMSError computes the root mean squared error.
func RMSError(yTrue, yPred []float64) (float64, error) {
	if len(yTrue) == 0 {
		return 0, errTooFewSamples
	}
	var sum float64
	for i, y := range yTrue {
		sum += (y - yPred[i]) * (y - yPred[i])
	}
	return math.Sqrt(sum / float64(len(yTrue))), nil
}

// PearsonR2 computes the squared Pearson correlation
// coefficient.
func PearsonR2(yTrue, yPred []float64) (float64, error) {
	if len(yTrue) < 2 {
		return 0, errTooFewSamples
	}
	r := stat.Correlation(yTrue, yPred, nil)
	if math.IsNaN(r) {
		return 0, errors.New("correlation undefined for constant values")
	}
	return r * r, nil
}

// RSquared computes the coefficient of determination of
// the predictions.
func RSquared(yTrue, yPred []float64) (float64, error) {
	if len(yTrue) < 2 {
		return 0, errTooFewSamples
	}
	return stat.RSquaredFrom(yPred, yTrue, nil), nil
}

// ROCAUC computes the area under the ROC curve.
// Labels above 0.5 count as positive, and predictions
// are probabilities (or any score) for the positive
// class.
//
// Both classes must be present.
func ROCAUC(yTrue, yPred []float64) (float64, error) {
	scores := append([]float64{}, yPred...)
	classes := make([]bool, len(yTrue))
	var numPos int
	for i, y := range yTrue {
		classes[i] = y > 0.5
		if classes[i] {
			numPos++
		}
	}
	if numPos == 0 || numPos == len(yTrue) {
		return 0, fmt.Errorf("ROC AUC needs both classes (%d positive of %d)",
			numPos, len(yTrue))
	}
	stat.SortWeightedLabeled(scores, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, scores, classes, nil)
	return integrate.Trapezoidal(fpr, tpr), nil
}

// Accuracy computes the fraction of predictions on the
// same side of 0.5 as the labels.
func Accuracy(yTrue, yPred []float64) (float64, error) {
	if len(yTrue) == 0 {
		return 0, errTooFewSamples
	}
	var correct int
	for i, y := range yTrue {
		if (y > 0.5) == (yPred[i] > 0.5) {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue)), nil
}
