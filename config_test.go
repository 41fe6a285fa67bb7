package anychem

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func validConfig() Config {
	return Config{
		NumTasks:     2,
		LayerSizes:   []int{32, 32, 16},
		LearningRate: 0.002,
		Momentum:     0.8,
		BatchSize:    24,
		Seed:         123,
	}
}

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig(validConfig())
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, cfg.BiasInitConsts)
	assert.Equal(t, []float64{0, 0, 0}, cfg.Dropouts)
	require.Len(t, cfg.WeightInitStddevs, 3)
	assert.InDelta(t, 1/math.Sqrt(32), cfg.WeightInitStddevs[0], 1e-12)
	assert.InDelta(t, 0.25, cfg.WeightInitStddevs[2], 1e-12)
	assert.Equal(t, PenaltyNone, cfg.Penalty)
	assert.Equal(t, OptimizerAdam, cfg.Optimizer)
}

func TestNewConfigCopies(t *testing.T) {
	c := validConfig()
	c.Dropouts = []float64{0.1, 0.2, 0.3}
	cfg, err := NewConfig(c)
	require.NoError(t, err)
	cfg.Dropouts[0] = 0.5
	cfg.LayerSizes[0] = 1
	assert.Equal(t, 0.1, c.Dropouts[0])
	assert.Equal(t, 32, c.LayerSizes[0])
}

func TestNewConfigErrors(t *testing.T) {
	cases := []struct {
		field  string
		modify func(c *Config)
	}{
		{"Dropouts", func(c *Config) { c.Dropouts = []float64{0.1} }},
		{"WeightInitStddevs", func(c *Config) { c.WeightInitStddevs = []float64{} }},
		{"BiasInitConsts", func(c *Config) { c.BiasInitConsts = []float64{1, 2, 3, 4} }},
		{"NumTasks", func(c *Config) { c.NumTasks = 0 }},
		{"BatchSize", func(c *Config) { c.BatchSize = 0 }},
		{"LearningRate", func(c *Config) { c.LearningRate = 0 }},
		{"PenaltyStrength", func(c *Config) { c.PenaltyStrength = -1 }},
		{"Momentum", func(c *Config) { c.Momentum = 1 }},
		{"LayerSizes", func(c *Config) { c.LayerSizes = []int{32, 0, 16} }},
		{"Dropouts", func(c *Config) { c.Dropouts = []float64{0, 1, 0} }},
		{"Penalty", func(c *Config) { c.Penalty = Penalty(7) }},
		{"Optimizer", func(c *Config) { c.Optimizer = Optimizer(-1) }},
	}
	for _, tc := range cases {
		c := validConfig()
		tc.modify(&c)
		_, err := NewConfig(c)
		require.Error(t, err, tc.field)
		assert.True(t, errors.Is(err, ErrInvalidConfig), tc.field)
		var cfgErr *ConfigError
		require.True(t, errors.As(err, &cfgErr), tc.field)
		assert.Contains(t, cfgErr.Field, tc.field)
	}
}

func TestParseEnums(t *testing.T) {
	p, err := ParsePenalty("L2")
	require.NoError(t, err)
	assert.Equal(t, PenaltyL2, p)
	_, err = ParsePenalty("l3")
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	o, err := ParseOptimizer("rmsprop")
	require.NoError(t, err)
	assert.Equal(t, OptimizerRMSProp, o)
	_, err = ParseOptimizer("lbfgs")
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestConfigYAML(t *testing.T) {
	c := validConfig()
	c.Penalty = PenaltyL1
	c.PenaltyStrength = 0.05
	c.Optimizer = OptimizerMomentum
	cfg, err := NewConfig(c)
	require.NoError(t, err)

	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(data), "penalty_type: l1")
	assert.Contains(t, string(data), "optimizer: momentum")

	var decoded Config
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, *cfg, decoded)
}

func TestOutputStddev(t *testing.T) {
	cfg, err := NewConfig(validConfig())
	require.NoError(t, err)
	assert.InDelta(t, 0.25, cfg.OutputStddev(16), 1e-12)
	cfg.OutputInitStddev = 0.002
	assert.Equal(t, 0.002, cfg.OutputStddev(16))
}
