package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/unixpickle/anychem"
	"github.com/unixpickle/anychem/anyfrag"
	"github.com/unixpickle/essentials"
	"go.uber.org/zap"
)

// newRootCmd creates the base command and all of its sub
// commands.
// Every call returns a fresh tree with default flags.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "anychem",
		Short:         "Train and evaluate molecular property models.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addCommonFlags(root.PersistentFlags())
	root.AddCommand(newScaffoldCmd(), newTox21Cmd(), newSynthCmd())
	return root
}

// addCommonFlags adds the flags which readOptions binds.
// Their defaults are empty so that per-command defaults
// and config files take effect.
func addCommonFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "configuration file (yaml, toml, or json)")
	flags.String("data-dir", "", "directory holding the dataset directories")
	flags.String("model-dir", "", "directory for model checkpoints")
	flags.Int("epochs", 0, "number of training epochs")
	flags.BoolP("verbose", "v", false, "log every epoch")
}

// Execute runs the root command and exits with status 1
// on failure.
// An interrupt cancels training between batches.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// options is everything a command reads from flags and
// configuration files.
type options struct {
	anychem.Config `mapstructure:",squash"`

	Fragment anyfrag.Params `mapstructure:"fragment"`

	Epochs  int    `mapstructure:"epochs"`
	DataDir string `mapstructure:"data_dir"`
	Verbose bool   `mapstructure:"verbose"`
}

// readOptions merges defaults, the optional config file,
// and command line flags, in increasing priority.
func readOptions(cmd *cobra.Command, v *viper.Viper) (*options, error) {
	flags := cmd.Flags()
	for key, flag := range map[string]string{
		"data_dir":  "data-dir",
		"model_dir": "model-dir",
		"epochs":    "epochs",
		"verbose":   "verbose",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return nil, err
		}
	}
	if path, _ := flags.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, essentials.AddCtx("read config", err)
		}
	}
	var opts options
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		textUnmarshalerHook,
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&opts, hook); err != nil {
		return nil, essentials.AddCtx("read config", err)
	}
	return &opts, nil
}

// textUnmarshalerHook decodes strings into enum types
// such as anychem.Penalty.
func textUnmarshalerHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	result := reflect.New(to).Interface()
	unmarshaler, ok := result.(interface{ UnmarshalText([]byte) error })
	if !ok {
		return data, nil
	}
	if err := unmarshaler.UnmarshalText([]byte(strings.TrimSpace(data.(string)))); err != nil {
		return nil, err
	}
	return reflect.ValueOf(result).Elem().Interface(), nil
}

// setModelDefaults registers cfg as the default model
// configuration.
// Nil slices are left unset so that NewConfig derives
// them from the layer sizes.
func setModelDefaults(v *viper.Viper, cfg anychem.Config) {
	v.SetDefault("num_tasks", cfg.NumTasks)
	v.SetDefault("layer_sizes", cfg.LayerSizes)
	if cfg.WeightInitStddevs != nil {
		v.SetDefault("weight_init_stddevs", cfg.WeightInitStddevs)
	}
	if cfg.BiasInitConsts != nil {
		v.SetDefault("bias_init_consts", cfg.BiasInitConsts)
	}
	if cfg.Dropouts != nil {
		v.SetDefault("dropouts", cfg.Dropouts)
	}
	v.SetDefault("output_init_stddev", cfg.OutputInitStddev)
	v.SetDefault("penalty_type", cfg.Penalty.String())
	v.SetDefault("penalty", cfg.PenaltyStrength)
	v.SetDefault("learning_rate", cfg.LearningRate)
	v.SetDefault("momentum", cfg.Momentum)
	v.SetDefault("nesterov", cfg.Nesterov)
	v.SetDefault("optimizer", cfg.Optimizer.String())
	v.SetDefault("batch_size", cfg.BatchSize)
	v.SetDefault("seed", cfg.Seed)
	v.SetDefault("model_dir", cfg.ModelDir)
}

func setFragmentDefaults(v *viper.Viper, p anyfrag.Params) {
	v.SetDefault("fragment.atom_types", p.AtomTypes)
	v.SetDefault("fragment.radial", p.Radial)
	v.SetDefault("fragment.frag1_num_atoms", p.Frag1NumAtoms)
	v.SetDefault("fragment.frag2_num_atoms", p.Frag2NumAtoms)
	v.SetDefault("fragment.complex_num_atoms", p.ComplexNumAtoms)
	v.SetDefault("fragment.max_num_neighbors", p.MaxNumNeighbors)
	v.SetDefault("fragment.neighbor_cutoff", p.NeighborCutoff)
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
