package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/unixpickle/anychem"
	"github.com/unixpickle/anychem/anydata"
	"github.com/unixpickle/anychem/anyeval"
	"github.com/unixpickle/anychem/anyfrag"
	"go.uber.org/zap"
)

func newScaffoldCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scaffold",
		Short: "Train an atomic fragment regressor on a scaffold split.",
		Long: `Train an atomic fragment regressor on <data-dir>/scaffold_train,
save it to the model directory, and report mean absolute error and
Pearson r² on the train and <data-dir>/scaffold_test splits.`,
		Args: cobra.NoArgs,
		RunE: runScaffold,
	}
}

func scaffoldDefaults(v *viper.Viper) {
	setModelDefaults(v, anychem.Config{
		NumTasks:     1,
		LayerSizes:   []int{32, 32, 16},
		Penalty:      anychem.PenaltyL2,
		LearningRate: 0.002,
		Momentum:     0.8,
		Optimizer:    anychem.OptimizerAdam,
		BatchSize:    24,
		Seed:         123,
		ModelDir:     "scaffold_model",
	})
	setFragmentDefaults(v, anyfrag.DefaultParams())
	v.SetDefault("epochs", 100)
	v.SetDefault("data_dir", "datasets")
}

func runScaffold(cmd *cobra.Command, args []string) error {
	v := viper.New()
	scaffoldDefaults(v)
	opts, err := readOptions(cmd, v)
	if err != nil {
		return err
	}
	logger, err := newLogger(opts.Verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	train, err := anydata.Load(filepath.Join(opts.DataDir, "scaffold_train"))
	if err != nil {
		return err
	}
	test, err := anydata.Load(filepath.Join(opts.DataDir, "scaffold_test"))
	if err != nil {
		return err
	}
	logger.Info("loaded datasets", zap.Int("train", train.Len()), zap.Int("test", test.Len()))

	norm, err := anydata.NewNormalization(train)
	if err != nil {
		return err
	}
	transformers := []anydata.Transformer{norm}
	train = anydata.TransformAll(transformers, train)
	test = anydata.TransformAll(transformers, test)

	cfg, err := anychem.NewConfig(opts.Config)
	if err != nil {
		return err
	}
	model, err := anyfrag.New(cfg, opts.Fragment)
	if err != nil {
		return err
	}
	model.Logger = logger
	if _, err := model.Fit(cmd.Context(), train, opts.Epochs); err != nil {
		return err
	}
	if err := model.Save(); err != nil {
		return err
	}

	metrics := []*anyeval.Metric{anyeval.MAE, anyeval.Pearson}
	return printScores(model, metrics, transformers, []namedSplit{
		{"Train scores", train},
		{"Test scores", test},
	})
}

type namedSplit struct {
	Title   string
	Dataset *anydata.Dataset
}

func printScores(m *anychem.Model, metrics []*anyeval.Metric,
	transformers []anydata.Transformer, splits []namedSplit) error {
	for _, split := range splits {
		scores, err := m.Evaluate(split.Dataset, metrics, transformers)
		if err != nil {
			return err
		}
		fmt.Println(split.Title)
		fmt.Println(scores)
	}
	return nil
}
