package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/unixpickle/anychem"
	"github.com/unixpickle/anychem/anydata"
	"github.com/unixpickle/anychem/anyeval"
	"github.com/unixpickle/anychem/anylogreg"
	"go.uber.org/zap"
)

func newTox21Cmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tox21",
		Short: "Train a multitask logistic regression on Tox21.",
		Long: `Train a multitask logistic regression on <data-dir>/tox21_train,
save it to the model directory, and report the mean ROC AUC over
tasks on the train and <data-dir>/tox21_valid splits.`,
		Args: cobra.NoArgs,
		RunE: runTox21,
	}
}

func tox21Defaults(v *viper.Viper) {
	setModelDefaults(v, anychem.Config{
		NumTasks:         12,
		OutputInitStddev: 0.002,
		Penalty:          anychem.PenaltyL2,
		PenaltyStrength:  0.05,
		LearningRate:     0.006,
		Momentum:         0.9,
		Optimizer:        anychem.OptimizerAdam,
		BatchSize:        32,
		Seed:             123,
		ModelDir:         "tox21_model",
	})
	v.SetDefault("epochs", 50)
	v.SetDefault("data_dir", "datasets")
}

func runTox21(cmd *cobra.Command, args []string) error {
	v := viper.New()
	tox21Defaults(v)
	opts, err := readOptions(cmd, v)
	if err != nil {
		return err
	}
	logger, err := newLogger(opts.Verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	train, err := anydata.Load(filepath.Join(opts.DataDir, "tox21_train"))
	if err != nil {
		return err
	}
	valid, err := anydata.Load(filepath.Join(opts.DataDir, "tox21_valid"))
	if err != nil {
		return err
	}
	if train.Len() == 0 {
		return fmt.Errorf("empty training set")
	}
	logger.Info("loaded datasets", zap.Int("train", train.Len()), zap.Int("valid", valid.Len()),
		zap.Strings("tasks", train.Tasks))

	balancing, err := anydata.NewBalancing(train)
	if err != nil {
		return err
	}
	transformers := []anydata.Transformer{balancing}
	train = anydata.TransformAll(transformers, train)
	valid = anydata.TransformAll(transformers, valid)

	opts.NumTasks = train.NumTasks()
	cfg, err := anychem.NewConfig(opts.Config)
	if err != nil {
		return err
	}
	model, err := anylogreg.New(cfg, len(train.Records[0].X))
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

	fmt.Println("Evaluating model")
	metrics := []*anyeval.Metric{anyeval.AUC}
	return printScores(model, metrics, transformers, []namedSplit{
		{"Train scores", train},
		{"Validation scores", valid},
	})
}
