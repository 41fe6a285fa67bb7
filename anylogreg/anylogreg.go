// Package anylogreg implements multitask logistic
// regression.
//
// Every task is an independent linear classifier over the
// same features, trained jointly with a weighted sigmoid
// cross-entropy.
package anylogreg

import (
	"github.com/unixpickle/anychem"
)

// New creates an untrained logistic regression model for
// numFeatures inputs and cfg.NumTasks outputs.
//
// The model has no hidden layers, so cfg.LayerSizes must
// be empty.
// Weights are drawn from N(0, cfg.OutputInitStddev²) and
// biases start at zero.
func New(cfg *anychem.Config, numFeatures int) (*anychem.Model, error) {
	if len(cfg.LayerSizes) != 0 {
		return nil, &anychem.ConfigError{
			Field:  "LayerSizes",
			Reason: "logistic regression has no hidden layers",
		}
	}
	if numFeatures < 1 {
		return nil, &anychem.ConfigError{
			Field:  "NumFeatures",
			Reason: "must be positive",
		}
	}
	r := anychem.NewRand(cfg)
	model := anychem.NewModel(cfg, nil, anychem.SigmoidCE{}, anychem.Classification,
		numFeatures, r)
	model.Net = anychem.Net{
		anychem.NewFC(model.Creator, numFeatures, cfg.NumTasks, cfg.OutputStddev(numFeatures), 0, r),
	}
	return model, nil
}
