package anyopt

import (
	"context"
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec/anyvec64"
)

type testSample struct {
	X2 float64
	Y2 float64
	XY float64
	X  float64
	Y  float64
}

func (t *testSample) Apply(x, y anydiff.Res) anydiff.Res {
	mk := x.Output().Creator().MakeNumeric
	a := anydiff.Scale(anydiff.Mul(x, x), mk(t.X2))
	b := anydiff.Scale(anydiff.Mul(y, y), mk(t.Y2))
	c := anydiff.Scale(anydiff.Mul(x, y), mk(t.XY))
	d := anydiff.Scale(x, mk(t.X))
	e := anydiff.Scale(y, mk(t.Y))
	return anydiff.Add(
		anydiff.Add(a, b),
		anydiff.Add(anydiff.Add(c, d), e),
	)
}

type testSampleList []*testSample

func newTestSampleList() testSampleList {
	// Together, these polynomials add up to 3x^2+3xy-2x+y^2.
	// The global minimum is (x = 4/3, y = -2).
	return testSampleList{
		{X2: 2, X: -1, XY: 0, Y2: 0.5},
		{X2: -1, X: 0, XY: 2, Y2: 0.5},
		{X2: 2, X: -1, XY: 1, Y2: 0},
	}
}

func (t testSampleList) Len() int {
	return len(t)
}

func (t testSampleList) Swap(i, j int) {
	t[i], t[j] = t[j], t[i]
}

func (t testSampleList) Slice(i, j int) SampleList {
	return append(testSampleList{}, t[i:j]...)
}

type testGradienter struct {
	X *anydiff.Var
	Y *anydiff.Var
}

func newTestGradienter() *testGradienter {
	c := anyvec64.DefaultCreator{}
	return &testGradienter{
		X: anydiff.NewVar(c.MakeVector(1)),
		Y: anydiff.NewVar(c.MakeVector(1)),
	}
}

func (t *testGradienter) Fetch(s SampleList) (Batch, error) {
	return s, nil
}

func (t *testGradienter) Gradient(b Batch) (anydiff.Grad, error) {
	var cost anydiff.Res
	for _, x := range b.(testSampleList) {
		res := x.Apply(t.X, t.Y)
		if cost == nil {
			cost = res
		} else {
			cost = anydiff.Add(cost, res)
		}
	}
	c := t.X.Vector.Creator()
	grad := anydiff.Grad{
		t.X: c.MakeVector(1),
		t.Y: c.MakeVector(1),
	}
	cost.Propagate(c.MakeVectorData(c.MakeNumericList([]float64{1})), grad)
	return grad, nil
}

func (t *testGradienter) current() (x, y float64) {
	return t.X.Vector.Data().([]float64)[0], t.Y.Vector.Data().([]float64)[0]
}

func (t *testGradienter) errorMargin() float64 {
	x, y := t.current()
	return math.Max(math.Abs(x-4.0/3), math.Abs(y+2))
}

func TestSGD(t *testing.T) {
	testOptimizer(t, nil, 0.05, 2000)
}

func TestMomentum(t *testing.T) {
	testOptimizer(t, &Momentum{Momentum: 0.9}, 0.01, 3000)
}

func TestNesterov(t *testing.T) {
	testOptimizer(t, &Momentum{Momentum: 0.9, Nesterov: true}, 0.01, 3000)
}

func TestMomentumSteps(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	v := anydiff.NewVar(c.MakeVector(1))
	step := func(tr Transformer, grad float64) float64 {
		g := anydiff.Grad{v: c.MakeVectorData(c.MakeNumericList([]float64{grad}))}
		return tr.Transform(g)[v].Data().([]float64)[0]
	}

	heavy := &Momentum{}
	nesterov := &Momentum{Momentum: 0.5, Nesterov: true}
	for i, x := range []struct {
		Actual   float64
		Expected float64
	}{
		{step(heavy, 1), 1},
		{step(heavy, 2), 0.9 + 2},
		{step(nesterov, 1), 1 + 0.5},
		{step(nesterov, 2), 2 + 0.5*2.5},
	} {
		if math.Abs(x.Actual-x.Expected) > 1e-12 {
			t.Errorf("step %d: expected %f but got %f", i, x.Expected, x.Actual)
		}
	}
}

func TestRMSProp(t *testing.T) {
	testOptimizer(t, &RMSProp{}, 0.001, 20000)
}

func TestAdam(t *testing.T) {
	testOptimizer(t, &Adam{}, 0.001, 20000)
}

func testOptimizer(t *testing.T, tr Transformer, rate float64, epochs int) {
	g := newTestGradienter()
	s := &SGD{
		Fetcher:     g,
		Gradienter:  g,
		Transformer: tr,
		Samples:     newTestSampleList(),
		Rater:       ConstRater(rate),
		Epochs:      epochs,
		Rand:        rand.New(rand.NewSource(1)),
	}
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if g.errorMargin() > 1e-2 {
		x, y := g.current()
		t.Errorf("bad solution: %f, %f", x, y)
	}
}

func TestSGDRemainderBatches(t *testing.T) {
	g := newTestGradienter()
	samples := append(newTestSampleList(), newTestSampleList()[:2]...)
	var sizes []int
	var epochs []int
	s := &SGD{
		Fetcher:    g,
		Gradienter: g,
		Samples:    samples,
		Rater:      ConstRater(0),
		BatchSize:  2,
		Epochs:     2,
		Rand:       rand.New(rand.NewSource(1)),
		StatusFunc: func(st *Status) {
			sizes = append(sizes, st.BatchSize)
		},
		EpochFunc: func(epoch int) error {
			epochs = append(epochs, epoch)
			return nil
		},
	}
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(sizes, []int{2, 2, 1, 2, 2, 1}) {
		t.Errorf("unexpected batch sizes: %v", sizes)
	}
	if !reflect.DeepEqual(epochs, []int{0, 1}) {
		t.Errorf("unexpected epochs: %v", epochs)
	}
	if s.NumProcessed != 10 {
		t.Errorf("expected 10 processed samples but got %d", s.NumProcessed)
	}
}

func TestSGDBadEpochs(t *testing.T) {
	g := newTestGradienter()
	s := &SGD{
		Fetcher:    g,
		Gradienter: g,
		Samples:    newTestSampleList(),
		Rater:      ConstRater(0.1),
	}
	if err := s.Run(context.Background()); err == nil {
		t.Error("expected error for zero epochs")
	}
}

func TestSGDCancel(t *testing.T) {
	g := newTestGradienter()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &SGD{
		Fetcher:    g,
		Gradienter: g,
		Samples:    newTestSampleList(),
		Rater:      ConstRater(0.1),
		Epochs:     1,
	}
	if err := s.Run(ctx); err != context.Canceled {
		t.Errorf("expected context.Canceled but got %v", err)
	}
	if x, y := g.current(); x != 0 || y != 0 {
		t.Error("parameters changed after cancellation")
	}
}

func TestShuffleSeeded(t *testing.T) {
	order := func(seed int64) []float64 {
		list := newTestSampleList()
		list = append(list, newTestSampleList()...)
		for i, s := range list {
			s.X = float64(i)
		}
		Shuffle(rand.New(rand.NewSource(seed)), list)
		var res []float64
		for _, s := range list {
			res = append(res, s.X)
		}
		return res
	}
	if !reflect.DeepEqual(order(42), order(42)) {
		t.Error("same seed gave different orders")
	}
}

func TestAdamFirstStep(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	v := anydiff.NewVar(c.MakeVector(2))
	grad := anydiff.Grad{v: c.MakeVectorData(c.MakeNumericList([]float64{3, -0.5}))}
	out := (&Adam{}).Transform(grad)
	data := out[v].Data().([]float64)
	for i, x := range data {
		expected := math.Copysign(1, []float64{3, -0.5}[i])
		if math.Abs(x-expected) > 1e-4 {
			t.Errorf("component %d: expected %f but got %f", i, expected, x)
		}
	}
}
