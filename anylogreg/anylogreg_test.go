package anylogreg

import (
	"context"
	"errors"
	"io/ioutil"
	"math/rand"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unixpickle/anychem"
	"github.com/unixpickle/anychem/anydata"
	"github.com/unixpickle/anychem/anyeval"
)

func tox21Config(t *testing.T, numTasks int) *anychem.Config {
	cfg, err := anychem.NewConfig(anychem.Config{
		NumTasks:         numTasks,
		OutputInitStddev: 0.002,
		Penalty:          anychem.PenaltyL2,
		PenaltyStrength:  0.05,
		LearningRate:     0.006,
		Momentum:         0.9,
		BatchSize:        32,
		Seed:             123,
	})
	require.NoError(t, err)
	return cfg
}

func TestNewErrors(t *testing.T) {
	cfg := tox21Config(t, 2)
	cfg.LayerSizes = []int{10}
	_, err := New(cfg, 8)
	assert.True(t, errors.Is(err, anychem.ErrInvalidConfig))

	_, err = New(tox21Config(t, 2), 0)
	assert.True(t, errors.Is(err, anychem.ErrInvalidConfig))
}

func TestNewShape(t *testing.T) {
	model, err := New(tox21Config(t, 3), 16)
	require.NoError(t, err)
	require.Len(t, model.Net, 1)
	fc := model.Net[0].(*anychem.FC)
	assert.Equal(t, 16, fc.InCount)
	assert.Equal(t, 3, fc.OutCount)
	assert.Equal(t, anychem.Classification, model.Mode)

	d := anydata.RandomClassification(rand.New(rand.NewSource(1)), 5, 16, 3)
	preds, err := model.Predict(d)
	require.NoError(t, err)
	require.Len(t, preds, 5)
	for _, row := range preds {
		require.Len(t, row, 3)
		for _, p := range row {
			assert.True(t, p > 0 && p < 1)
		}
	}
}

func TestEndToEnd(t *testing.T) {
	const numTasks = 4
	r := rand.New(rand.NewSource(1))
	train := anydata.RandomClassification(r, 64, 1024, numTasks)
	balancing, err := anydata.NewBalancing(train)
	require.NoError(t, err)
	transformers := []anydata.Transformer{balancing}
	train = anydata.TransformAll(transformers, train)

	model, err := New(tox21Config(t, numTasks), 1024)
	require.NoError(t, err)
	report, err := model.Fit(context.Background(), train, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Steps)

	scores, err := model.Evaluate(train, []*anyeval.Metric{anyeval.AUC}, transformers)
	require.NoError(t, err)
	score := scores[anyeval.AUC.Name]
	require.NotNil(t, score)
	require.Len(t, score.PerTask, numTasks)
	for _, auc := range score.PerTask {
		assert.True(t, auc >= 0 && auc <= 1)
	}
	assert.True(t, score.Value >= 0 && score.Value <= 1)
}

func TestSaveLoad(t *testing.T) {
	dir, err := ioutil.TempDir("", "anylogreg")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	cfg := tox21Config(t, 2)
	cfg.ModelDir = dir
	model, err := New(cfg, 12)
	require.NoError(t, err)
	d := anydata.RandomClassification(rand.New(rand.NewSource(2)), 20, 12, 2)
	_, err = model.Fit(context.Background(), d, 3)
	require.NoError(t, err)
	require.NoError(t, model.Save())

	loaded, err := anychem.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, anychem.Classification, loaded.Mode)
	assert.Equal(t, 12, loaded.InputDim)
	assert.Equal(t, cfg.Penalty, loaded.Config.Penalty)
	assert.Equal(t, cfg.LearningRate, loaded.Config.LearningRate)

	expected, err := model.Predict(d)
	require.NoError(t, err)
	actual, err := loaded.Predict(d)
	require.NoError(t, err)
	assert.Equal(t, expected, actual)
}
