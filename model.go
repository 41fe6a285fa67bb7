package anychem

import (
	"context"
	"io/ioutil"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/snappy"
	"github.com/unixpickle/anychem/anydata"
	"github.com/unixpickle/anychem/anyeval"
	"github.com/unixpickle/anychem/anyopt"
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec64"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// Files written to a model directory.
const (
	CheckpointFile = "model.snappy"
	ConfigFile     = "config.yaml"
)

// Mode determines how network outputs and labels relate.
type Mode int

const (
	// Regression models predict raw network outputs.
	Regression Mode = iota

	// Classification models treat outputs as logits and
	// predict probabilities of the positive class.
	Classification
)

// A Report summarizes a call to Model.Fit.
type Report struct {
	Epochs     int
	Steps      int
	EpochCosts []float64
	Elapsed    time.Duration
}

// A Model binds a network to its configuration and
// training procedure.
type Model struct {
	Config   *Config
	Net      Net
	Cost     Cost
	Mode     Mode
	InputDim int

	Creator anyvec.Creator
	Logger  *zap.Logger

	// Rand is used for shuffling during training.
	// Layers which need randomness share it.
	Rand *rand.Rand
}

// NewModel creates a model around a network.
// The network's dropout layers are switched to r, as are
// the layers of any nested network with a SetRand method.
func NewModel(cfg *Config, net Net, cost Cost, mode Mode, inputDim int,
	r *rand.Rand) *Model {
	for _, layer := range net {
		switch layer := layer.(type) {
		case *Dropout:
			layer.Rand = r
		case interface{ SetRand(*rand.Rand) }:
			layer.SetRand(r)
		}
	}
	return &Model{
		Config:   cfg,
		Net:      net,
		Cost:     cost,
		Mode:     mode,
		InputDim: inputDim,
		Creator:  anyvec64.DefaultCreator{},
		Logger:   zap.NewNop(),
		Rand:     r,
	}
}

// NewRand creates the random source for a model from the
// configured seed.
func NewRand(cfg *Config) *rand.Rand {
	return rand.New(rand.NewSource(cfg.Seed))
}

// BuildMLP creates a feed-forward network with the
// configured hidden layers, each followed by a ReLU and,
// when its dropout rate is non-zero, a Dropout.
// A final linear layer produces numOutputs values.
func BuildMLP(c anyvec.Creator, cfg *Config, numInputs, numOutputs int,
	r *rand.Rand) Net {
	var net Net
	for i, size := range cfg.LayerSizes {
		in := cfg.InputLayerSize(numInputs, i)
		net = append(net, NewFC(c, in, size, cfg.WeightInitStddevs[i],
			cfg.BiasInitConsts[i], r), ReLU)
		if cfg.Dropouts[i] > 0 {
			net = append(net, &Dropout{KeepProb: 1 - cfg.Dropouts[i], Rand: r})
		}
	}
	fanIn := cfg.InputLayerSize(numInputs, len(cfg.LayerSizes))
	return append(net, NewFC(c, fanIn, numOutputs, cfg.OutputStddev(fanIn), 0, r))
}

// Fit trains the model for the given number of epochs.
//
// Shapes are checked against every record before the
// first step, so a bad dataset never trains partially.
func (m *Model) Fit(ctx context.Context, d *anydata.Dataset, epochs int) (*Report, error) {
	if epochs <= 0 {
		return nil, configErrorf("Epochs", "must be positive, got %d", epochs)
	}
	if err := m.checkDataset(d, true); err != nil {
		return nil, err
	}
	if d.Len() == 0 {
		return nil, essentials.AddCtx("fit", errEmptyDataset)
	}

	m.Net.SetTraining(true)
	defer m.Net.SetTraining(false)

	trainer := &Trainer{
		Creator:         m.Creator,
		Net:             m.Net,
		Cost:            m.Cost,
		Params:          m.Net.Parameters(),
		InputDim:        m.InputDim,
		NumTasks:        m.Config.NumTasks,
		Penalty:         m.Config.Penalty,
		PenaltyStrength: m.Config.PenaltyStrength,
		PenaltyParams:   m.Net.RegularizedParameters(),
	}

	report := &Report{Epochs: epochs}
	start := time.Now()
	var epochCost float64
	var epochSamples int
	sgd := &anyopt.SGD{
		Fetcher:     trainer,
		Gradienter:  trainer,
		Transformer: m.gradTransformer(),
		Samples:     append(RecordList{}, d.Records...),
		Rater:       anyopt.ConstRater(m.Config.LearningRate),
		BatchSize:   m.Config.BatchSize,
		Epochs:      epochs,
		Rand:        m.Rand,
		StatusFunc: func(s *anyopt.Status) {
			epochCost += trainer.LastCost * float64(s.BatchSize)
			epochSamples += s.BatchSize
			report.Steps++
		},
		EpochFunc: func(epoch int) error {
			mean := epochCost / float64(epochSamples)
			report.EpochCosts = append(report.EpochCosts, mean)
			m.Logger.Debug("finished epoch",
				zap.Int("epoch", epoch),
				zap.Float64("cost", mean),
				zap.Duration("elapsed", time.Since(start)))
			epochCost, epochSamples = 0, 0
			return nil
		},
	}
	m.Logger.Info("training model",
		zap.Int("samples", d.Len()),
		zap.Int("epochs", epochs),
		zap.Int("batch_size", m.Config.BatchSize),
		zap.Stringer("optimizer", m.Config.Optimizer))
	err := sgd.Run(ctx)
	report.Elapsed = time.Since(start)
	if err != nil {
		m.Logger.Error("training failed", zap.Error(err), zap.Int("steps", report.Steps))
		return report, err
	}
	m.Logger.Info("training complete", zap.Duration("elapsed", report.Elapsed))
	return report, nil
}

// Predict computes one prediction per task for every
// record.
// Classification models produce probabilities.
func (m *Model) Predict(d *anydata.Dataset) ([][]float64, error) {
	if err := m.checkDataset(d, false); err != nil {
		return nil, err
	}
	batchSize := m.Config.BatchSize
	numTasks := m.Config.NumTasks
	res := make([][]float64, 0, d.Len())
	for start := 0; start < d.Len(); start += batchSize {
		end := start + batchSize
		if end > d.Len() {
			end = d.Len()
		}
		ins := make([]float64, 0, (end-start)*m.InputDim)
		for _, r := range d.Records[start:end] {
			ins = append(ins, r.X...)
		}
		inRes := anydiff.NewConst(m.Creator.MakeVectorData(m.Creator.MakeNumericList(ins)))
		out := m.Net.Apply(inRes, end-start)
		if m.Mode == Classification {
			out = anydiff.Sigmoid(out)
		}
		outs := VectorFloats(out.Output())
		for i := 0; i < end-start; i++ {
			res = append(res, append([]float64{}, outs[i*numTasks:(i+1)*numTasks]...))
		}
	}
	return res, nil
}

// Evaluate scores the model on a dataset which was
// produced by the given transformers.
func (m *Model) Evaluate(d *anydata.Dataset, metrics []*anyeval.Metric,
	transformers []anydata.Transformer) (anyeval.Scores, error) {
	e := &anyeval.Evaluator{
		Model:        m,
		Dataset:      d,
		Transformers: transformers,
		Logger:       m.Logger,
	}
	return e.ComputeModelPerformance(metrics)
}

// Save writes the network and configuration to
// m.Config.ModelDir.
func (m *Model) Save() error {
	dir := m.Config.ModelDir
	if dir == "" {
		return configErrorf("ModelDir", "no model directory to save to")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := serializer.SerializeAny(serializer.Int(m.Mode), serializer.Int(m.InputDim),
		m.Net)
	if err != nil {
		return essentials.AddCtx("save model", err)
	}
	err = ioutil.WriteFile(filepath.Join(dir, CheckpointFile), snappy.Encode(nil, data), 0644)
	if err != nil {
		return err
	}
	cfgData, err := yaml.Marshal(m.Config)
	if err != nil {
		return essentials.AddCtx("save model", err)
	}
	m.Logger.Info("saved model", zap.String("dir", dir))
	return ioutil.WriteFile(filepath.Join(dir, ConfigFile), cfgData, 0644)
}

// Load reads a model written by Save.
//
// Only the network and configuration are stored; costs
// are picked from the mode, so models with custom costs
// should set Cost after loading.
func Load(dir string) (*Model, error) {
	cfgData, err := ioutil.ReadFile(filepath.Join(dir, ConfigFile))
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(cfgData, &cfg); err != nil {
		return nil, essentials.AddCtx("load model", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, essentials.AddCtx("load model", err)
	}
	compressed, err := ioutil.ReadFile(filepath.Join(dir, CheckpointFile))
	if err != nil {
		return nil, err
	}
	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, essentials.AddCtx("load model", err)
	}
	var mode, inputDim serializer.Int
	var net Net
	if err := serializer.DeserializeAny(data, &mode, &inputDim, &net); err != nil {
		return nil, essentials.AddCtx("load model", err)
	}
	cfg.ModelDir = dir
	var cost Cost = WeightedMSE{}
	if Mode(mode) == Classification {
		cost = SigmoidCE{}
	}
	return NewModel(&cfg, net, cost, Mode(mode), int(inputDim), NewRand(&cfg)), nil
}

func (m *Model) checkDataset(d *anydata.Dataset, labels bool) error {
	if labels && d.NumTasks() != m.Config.NumTasks {
		return &ShapeError{RecordID: "*", What: "task", Expected: m.Config.NumTasks,
			Actual: d.NumTasks()}
	}
	for _, r := range d.Records {
		if labels {
			if err := checkRecord(r, m.InputDim, m.Config.NumTasks); err != nil {
				return err
			}
		} else if len(r.X) != m.InputDim {
			return &ShapeError{RecordID: r.ID, What: "feature", Expected: m.InputDim,
				Actual: len(r.X)}
		}
	}
	return nil
}

func (m *Model) gradTransformer() anyopt.Transformer {
	switch m.Config.Optimizer {
	case OptimizerAdam:
		return &anyopt.Adam{}
	case OptimizerMomentum:
		return &anyopt.Momentum{Momentum: m.Config.Momentum, Nesterov: m.Config.Nesterov}
	case OptimizerRMSProp:
		return &anyopt.RMSProp{}
	default:
		return nil
	}
}
