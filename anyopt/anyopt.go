// Package anyopt runs epoch-driven stochastic gradient
// descent.
//
// The SGD type walks a sample list in mini-batches for a
// fixed number of epochs, reshuffling with a caller
// supplied random source at the start of every epoch, so
// that a run is reproducible given its seed.
package anyopt

import (
	"context"
	"errors"
	"math/rand"
)

// Status describes a completed optimization step.
type Status struct {
	Epoch     int
	Step      int
	BatchSize int

	// NumProcessed is the number of samples passed to the
	// Gradienter so far, including this step's batch.
	NumProcessed int
}

// SGD performs stochastic gradient descent.
type SGD struct {
	// Fetcher turns a slice of the sample list into a
	// Batch for the Gradienter.
	Fetcher Fetcher

	// Gradienter is used to compute initial, untransformed
	// gradients for each mini-batch.
	Gradienter Gradienter

	// Transformer, if non-nil, is used to transform each
	// gradient before the step.
	Transformer Transformer

	// Samples is the list of training samples to use for
	// training.
	// It will be re-shuffled at the start of each epoch.
	//
	// The list may not be empty.
	Samples SampleList

	// Rater determines the learning rate for each step.
	Rater Rater

	// BatchSize is the mini-batch size.
	// If it is 0, then the entire sample list is used at
	// every iteration.
	// The last batch of an epoch holds whatever samples
	// remain, so it may be smaller.
	BatchSize int

	// Epochs is the number of full passes to make.
	// It must be positive.
	Epochs int

	// Rand is used for shuffling.
	// If it is nil, the global source is used.
	Rand *rand.Rand

	// StatusFunc, if non-nil, is called after every step.
	StatusFunc func(s *Status)

	// EpochFunc, if non-nil, is called after every epoch.
	// A non-nil error stops training and is returned by
	// Run.
	EpochFunc func(epoch int) error

	// NumProcessed keeps track of the number of samples that
	// have been passed to Gradienter so far.
	// It is used to compute the epoch for Rater.
	// Most of the time, this should be initialized to 0.
	NumProcessed int
}

// Run runs SGD for s.Epochs epochs.
//
// The context is checked between steps.
// Errors from the Fetcher and Gradienter abort the run
// and are returned unchanged.
func (s *SGD) Run(ctx context.Context) error {
	if s.Epochs <= 0 {
		return errors.New("run SGD: epoch count must be positive")
	}
	if s.Samples.Len() == 0 {
		return errors.New("run SGD: empty sample list")
	}
	var step int
	for epoch := 0; epoch < s.Epochs; epoch++ {
		Shuffle(s.Rand, s.Samples)
		for idx := 0; idx < s.Samples.Len(); {
			if err := ctx.Err(); err != nil {
				return err
			}
			batchSize := s.batchSize(s.Samples.Len() - idx)
			samples := s.Samples.Slice(idx, idx+batchSize)
			idx += batchSize

			batch, err := s.Fetcher.Fetch(samples)
			if err != nil {
				return err
			}
			grad, err := s.Gradienter.Gradient(batch)
			if err != nil {
				return err
			}
			if s.Transformer != nil {
				grad = s.Transformer.Transform(grad)
			}

			rateEpoch := float64(s.NumProcessed) / float64(s.Samples.Len())
			scaleGrad(grad, -s.Rater.Rate(rateEpoch))
			grad.AddToVars()

			s.NumProcessed += batchSize
			if s.StatusFunc != nil {
				s.StatusFunc(&Status{
					Epoch:        epoch,
					Step:         step,
					BatchSize:    batchSize,
					NumProcessed: s.NumProcessed,
				})
			}
			step++
		}
		if s.EpochFunc != nil {
			if err := s.EpochFunc(epoch); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *SGD) batchSize(remaining int) int {
	if s.BatchSize == 0 || s.BatchSize > remaining {
		return remaining
	}
	return s.BatchSize
}
