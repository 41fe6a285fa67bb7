package anychem

import (
	"fmt"
	"math"
	"strings"

	"gopkg.in/go-playground/validator.v9"
)

// Penalty is a weight regularization scheme.
type Penalty int

// These are the supported penalties.
const (
	PenaltyNone Penalty = iota
	PenaltyL1
	PenaltyL2
)

var penaltyNames = []string{"none", "l1", "l2"}

// ParsePenalty parses a penalty name such as "l2".
func ParsePenalty(s string) (Penalty, error) {
	for i, name := range penaltyNames {
		if strings.EqualFold(s, name) {
			return Penalty(i), nil
		}
	}
	return 0, configErrorf("Penalty", "unknown penalty type %q", s)
}

func (p Penalty) String() string {
	if p < 0 || int(p) >= len(penaltyNames) {
		return fmt.Sprintf("Penalty(%d)", int(p))
	}
	return penaltyNames[p]
}

// MarshalText encodes the penalty name.
func (p Penalty) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a penalty name.
func (p *Penalty) UnmarshalText(text []byte) error {
	res, err := ParsePenalty(string(text))
	if err != nil {
		return err
	}
	*p = res
	return nil
}

// Optimizer is a gradient-based optimization algorithm.
type Optimizer int

// These are the supported optimizers.
const (
	OptimizerAdam Optimizer = iota
	OptimizerMomentum
	OptimizerRMSProp
	OptimizerSGD
)

var optimizerNames = []string{"adam", "momentum", "rmsprop", "sgd"}

// ParseOptimizer parses an optimizer name such as "adam".
func ParseOptimizer(s string) (Optimizer, error) {
	for i, name := range optimizerNames {
		if strings.EqualFold(s, name) {
			return Optimizer(i), nil
		}
	}
	return 0, configErrorf("Optimizer", "unknown optimizer %q", s)
}

func (o Optimizer) String() string {
	if o < 0 || int(o) >= len(optimizerNames) {
		return fmt.Sprintf("Optimizer(%d)", int(o))
	}
	return optimizerNames[o]
}

// MarshalText encodes the optimizer name.
func (o Optimizer) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes an optimizer name.
func (o *Optimizer) UnmarshalText(text []byte) error {
	res, err := ParseOptimizer(string(text))
	if err != nil {
		return err
	}
	*o = res
	return nil
}

// Config stores the hyperparameters of a model.
//
// LayerSizes, WeightInitStddevs, BiasInitConsts, and
// Dropouts describe the hidden layers and must have one
// entry per hidden layer.
type Config struct {
	NumTasks int `yaml:"num_tasks" mapstructure:"num_tasks" validate:"min=1"`

	LayerSizes        []int     `yaml:"layer_sizes" mapstructure:"layer_sizes" validate:"dive,min=1"`
	WeightInitStddevs []float64 `yaml:"weight_init_stddevs" mapstructure:"weight_init_stddevs" validate:"dive,gte=0"`
	BiasInitConsts    []float64 `yaml:"bias_init_consts" mapstructure:"bias_init_consts"`
	Dropouts          []float64 `yaml:"dropouts" mapstructure:"dropouts" validate:"dive,gte=0,lt=1"`

	// OutputInitStddev is the standard deviation for the
	// output layer's weights.
	// If it is 0, 1/sqrt(fan-in) is used.
	OutputInitStddev float64 `yaml:"output_init_stddev" mapstructure:"output_init_stddev" validate:"gte=0"`

	Penalty         Penalty `yaml:"penalty_type" mapstructure:"penalty_type"`
	PenaltyStrength float64 `yaml:"penalty" mapstructure:"penalty" validate:"gte=0"`

	LearningRate float64   `yaml:"learning_rate" mapstructure:"learning_rate" validate:"gt=0"`
	Momentum     float64   `yaml:"momentum" mapstructure:"momentum" validate:"gte=0,lt=1"`
	Nesterov     bool      `yaml:"nesterov" mapstructure:"nesterov"`
	Optimizer    Optimizer `yaml:"optimizer" mapstructure:"optimizer"`
	BatchSize    int       `yaml:"batch_size" mapstructure:"batch_size" validate:"min=1"`
	Seed         int64     `yaml:"seed" mapstructure:"seed"`

	// ModelDir is where Save writes checkpoints.
	ModelDir string `yaml:"model_dir" mapstructure:"model_dir"`
}

var validate = validator.New()

// NewConfig fills in defaults for c and validates the
// result.
//
// A nil WeightInitStddevs becomes DefaultWeightInitStddevs
// of the layer sizes, and nil BiasInitConsts and Dropouts
// become zeros.
// Non-nil slices are never resized.
func NewConfig(c Config) (*Config, error) {
	res := c
	res.LayerSizes = append([]int(nil), c.LayerSizes...)
	if c.WeightInitStddevs == nil {
		res.WeightInitStddevs = DefaultWeightInitStddevs(c.LayerSizes)
	} else {
		res.WeightInitStddevs = append([]float64{}, c.WeightInitStddevs...)
	}
	if c.BiasInitConsts == nil {
		res.BiasInitConsts = make([]float64, len(c.LayerSizes))
	} else {
		res.BiasInitConsts = append([]float64{}, c.BiasInitConsts...)
	}
	if c.Dropouts == nil {
		res.Dropouts = make([]float64, len(c.LayerSizes))
	} else {
		res.Dropouts = append([]float64{}, c.Dropouts...)
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return &res, nil
}

// Validate checks the configuration without filling in
// any defaults.
// The returned error is a *ConfigError.
func (c *Config) Validate() error {
	numLayers := len(c.LayerSizes)
	lengths := []struct {
		field string
		n     int
	}{
		{"WeightInitStddevs", len(c.WeightInitStddevs)},
		{"BiasInitConsts", len(c.BiasInitConsts)},
		{"Dropouts", len(c.Dropouts)},
	}
	for _, l := range lengths {
		if l.n != numLayers {
			return configErrorf(l.field, "has %d entries but LayerSizes has %d", l.n, numLayers)
		}
	}
	if c.Penalty < PenaltyNone || c.Penalty > PenaltyL2 {
		return configErrorf("Penalty", "unknown penalty type %v", c.Penalty)
	}
	if c.Optimizer < OptimizerAdam || c.Optimizer > OptimizerSGD {
		return configErrorf("Optimizer", "unknown optimizer %v", c.Optimizer)
	}
	if err := validate.Struct(c); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return configErrorf(fe.Field(), "failed %q constraint (value %v)",
				validationRule(fe), fe.Value())
		}
		return &ConfigError{Field: "Config", Reason: err.Error()}
	}
	return nil
}

// InputLayerSize returns the fan-in of hidden layer i,
// given the model's input width.
func (c *Config) InputLayerSize(inputs, i int) int {
	if i == 0 {
		return inputs
	}
	return c.LayerSizes[i-1]
}

// OutputStddev returns the standard deviation used to
// initialize an output layer with the given fan-in.
func (c *Config) OutputStddev(fanIn int) float64 {
	if c.OutputInitStddev != 0 || fanIn == 0 {
		return c.OutputInitStddev
	}
	return 1 / math.Sqrt(float64(fanIn))
}

// DefaultWeightInitStddevs returns 1/sqrt(size) for every
// layer size.
func DefaultWeightInitStddevs(layerSizes []int) []float64 {
	res := make([]float64, len(layerSizes))
	for i, size := range layerSizes {
		res[i] = 1 / math.Sqrt(float64(size))
	}
	return res
}

func validationRule(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}
