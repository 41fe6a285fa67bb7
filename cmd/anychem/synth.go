package main

import (
	"math/rand"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/unixpickle/anychem/anydata"
	"github.com/unixpickle/anychem/anyfrag"
)

func newSynthCmd() *cobra.Command {
	synth := &cobra.Command{
		Use:   "synth",
		Short: "Write synthetic datasets.",
	}
	fragment := &cobra.Command{
		Use:   "fragment",
		Short: "Write a synthetic protein-ligand complex dataset.",
		Args:  cobra.NoArgs,
		RunE:  runSynthFragment,
	}
	classification := &cobra.Command{
		Use:   "classification",
		Short: "Write a synthetic multitask fingerprint dataset.",
		Args:  cobra.NoArgs,
		RunE:  runSynthClassification,
	}
	for _, cmd := range []*cobra.Command{fragment, classification} {
		cmd.Flags().String("out", "", "output dataset directory")
		cmd.Flags().Int("samples", 100, "number of records")
		cmd.Flags().Int64("seed", 1, "random seed")
		cmd.MarkFlagRequired("out")
		synth.AddCommand(cmd)
	}
	classification.Flags().Int("features", 1024, "fingerprint length")
	classification.Flags().Int("tasks", 12, "number of tasks")
	return synth
}

func runSynthFragment(cmd *cobra.Command, args []string) error {
	v := viper.New()
	setFragmentDefaults(v, anyfrag.DefaultParams())
	opts, err := readOptions(cmd, v)
	if err != nil {
		return err
	}
	r, n, out := synthFlags(cmd)
	d, err := anyfrag.RandomDataset(r, n, opts.Fragment)
	if err != nil {
		return err
	}
	return d.Save(out)
}

func runSynthClassification(cmd *cobra.Command, args []string) error {
	r, n, out := synthFlags(cmd)
	numFeatures, _ := cmd.Flags().GetInt("features")
	numTasks, _ := cmd.Flags().GetInt("tasks")
	return anydata.RandomClassification(r, n, numFeatures, numTasks).Save(out)
}

func synthFlags(cmd *cobra.Command) (r *rand.Rand, n int, out string) {
	seed, _ := cmd.Flags().GetInt64("seed")
	n, _ = cmd.Flags().GetInt("samples")
	out, _ = cmd.Flags().GetString("out")
	return rand.New(rand.NewSource(seed)), n, out
}
