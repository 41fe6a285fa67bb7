// Package anyeval computes named metrics of a model's
// predictions.
package anyeval

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/unixpickle/anychem/anydata"
	"github.com/unixpickle/essentials"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// A Metric is a named MetricFunc together with a way to
// combine its per-task values.
type Metric struct {
	Name string
	Func MetricFunc

	// TaskAverager combines per-task values.
	// Tasks the metric failed on are left out.
	// If it is nil, the mean is used.
	TaskAverager func(perTask []float64) float64
}

// These are the common metrics.
var (
	MAE      = &Metric{Name: "mean_absolute_error", Func: MeanAbsoluteError}
	RMSE     = &Metric{Name: "rms_error", Func: RMSError}
	Pearson  = &Metric{Name: "pearson_r2_score", Func: PearsonR2}
	R2       = &Metric{Name: "r2_score", Func: RSquared}
	AUC      = &Metric{Name: "roc_auc_score", Func: ROCAUC}
	Accurate = &Metric{Name: "accuracy_score", Func: Accuracy}
)

// A Score is the result of a Metric.
//
// PerTask is NaN for tasks the metric could not be
// computed on.
type Score struct {
	PerTask []float64
	Value   float64
}

// Scores maps metric names to results.
type Scores map[string]*Score

// String formats the scores one metric per line, in
// name order.
func (s Scores) String() string {
	var names []string
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	var lines []string
	for _, name := range names {
		score := s[name]
		line := fmt.Sprintf("%s: %.6f", name, score.Value)
		if len(score.PerTask) > 1 {
			line += fmt.Sprintf(" %v", score.PerTask)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// A Predictor produces one prediction per task for every
// record of a dataset.
type Predictor interface {
	Predict(d *anydata.Dataset) ([][]float64, error)
}

// An Evaluator scores a model on one dataset split.
type Evaluator struct {
	Model   Predictor
	Dataset *anydata.Dataset

	// Transformers were applied to Dataset, in order.
	// Predictions and labels are untransformed before any
	// metric sees them.
	Transformers []anydata.Transformer

	// Logger receives metric failures.
	// If it is nil, nothing is logged.
	Logger *zap.Logger
}

// ComputeModelPerformance predicts the dataset and
// computes every metric.
// The dataset is not modified.
func (e *Evaluator) ComputeModelPerformance(metrics []*Metric) (Scores, error) {
	pred, err := e.Model.Predict(e.Dataset)
	if err != nil {
		return nil, essentials.AddCtx("evaluate", err)
	}
	yPred := anydata.UntransformAll(e.Transformers, pred)
	yTrue := anydata.UntransformAll(e.Transformers, e.Dataset.Labels())
	return ComputeScores(yTrue, yPred, e.Dataset.Weights(), metrics, e.Logger)
}

// ComputeScores evaluates metrics on labels and
// predictions with one row per sample and one column per
// task.
// Samples with a weight of 0 for a task are left out of
// that task's metrics.
//
// A metric that fails on a task is logged as a warning
// and scores NaN for that task; the remaining tasks are
// averaged.
// It is an error for a metric to fail on every task.
func ComputeScores(yTrue, yPred, weights [][]float64, metrics []*Metric,
	logger *zap.Logger) (Scores, error) {
	if len(yTrue) != len(yPred) || len(yTrue) != len(weights) {
		return nil, fmt.Errorf("compute scores: %d labels, %d predictions, %d weights",
			len(yTrue), len(yPred), len(weights))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var numTasks int
	if len(yTrue) > 0 {
		numTasks = len(yTrue[0])
	}
	res := Scores{}
	for _, m := range metrics {
		score := &Score{PerTask: make([]float64, numTasks)}
		var valid []float64
		var lastErr error
		for task := 0; task < numTasks; task++ {
			var taskTrue, taskPred []float64
			for i, w := range weights {
				if w[task] != 0 {
					taskTrue = append(taskTrue, yTrue[i][task])
					taskPred = append(taskPred, yPred[i][task])
				}
			}
			value, err := m.Func(taskTrue, taskPred)
			if err != nil {
				logger.Warn("metric failed", zap.String("metric", m.Name),
					zap.Int("task", task), zap.Error(err))
				score.PerTask[task] = math.NaN()
				lastErr = essentials.AddCtx(fmt.Sprintf("%s: task %d", m.Name, task), err)
				continue
			}
			score.PerTask[task] = value
			valid = append(valid, value)
		}
		if numTasks > 0 && len(valid) == 0 {
			return nil, lastErr
		}
		if m.TaskAverager != nil {
			score.Value = m.TaskAverager(valid)
		} else if len(valid) > 0 {
			score.Value = stat.Mean(valid, nil)
		}
		res[m.Name] = score
	}
	return res, nil
}
