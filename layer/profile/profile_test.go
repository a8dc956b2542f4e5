package profile

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurlang/msahmm/datasets"
	"github.com/neurlang/msahmm/errs"
	"github.com/neurlang/msahmm/tensor"
)

func batchOf(letters ...string) tensor.D3 {
	var rows [][]datasets.Symbol
	for _, l := range letters {
		rows = append(rows, datasets.Terminate(datasets.Encode(l)))
	}
	seqs, _ := datasets.OneHot(datasets.Pad(rows))
	return seqs
}

func objective(t *testing.T, o *Profile, x tensor.D3, c []float32) float32 {
	t.Helper()
	ll, err := o.Forward(x)
	require.NoError(t, err)
	var f float32
	for i := range ll {
		f += c[i] * ll[i]
	}
	return f
}

func TestNewRejectsInvalidShapes(t *testing.T) {
	for _, c := range []struct{ length, numSeq int }{{0, 3}, {-1, 3}, {4, 0}} {
		_, err := New(c.length, c.numSeq, DefaultParams())
		assert.True(t, errors.Is(err, errs.ErrConfiguration), "%+v", c)
	}
	p := DefaultParams()
	p.EmissionInit = []float32{1, 2}
	_, err := New(3, 3, p)
	assert.True(t, errors.Is(err, errs.ErrConfiguration))

	p = DefaultParams()
	p.AlphaSingle = 0
	_, err = New(3, 3, p)
	assert.True(t, errors.Is(err, errs.ErrConfiguration))
}

func TestUniformEmissionLikelihood(t *testing.T) {
	p := DefaultParams()
	p.UsePrior = false
	p.Jitter = 0
	o := MustNew(5, 2, p)
	ll, err := o.Forward(batchOf("ARN", "A"))
	require.NoError(t, err)

	// every non-terminal symbol has probability 1/24, terminal and padding 1
	assert.InDelta(t, 3*math32.Log(1.0/24), ll[0], 1e-4)
	assert.InDelta(t, math32.Log(1.0/24), ll[1], 1e-4)
}

func TestEmissionInitTiled(t *testing.T) {
	p := DefaultParams()
	p.Jitter = 0
	p.EmissionInit = make([]float32, width)
	p.EmissionInit[3] = 2
	p.TrainableKernels = map[string]bool{EmissionKernel: false}
	o := MustNew(3, 1, p)
	e := o.Parameters()[0]
	assert.False(t, e.Trainable)
	for k := 0; k < 3; k++ {
		assert.Equal(t, float32(2), e.Value.Data[k*width+3])
	}
}

func TestGradientsMatchFiniteDifferences(t *testing.T) {
	p := DefaultParams()
	p.Seed = 3
	p.Jitter = 0.5
	o := MustNew(4, 5, p)
	x := batchOf("ACDW", "YV", "BZXK")
	c := []float32{0.7, -1.3, 0.4}

	_ = objective(t, o, x, c)
	dx, err := o.Backward(c)
	require.NoError(t, err)

	e := o.Parameters()[0]
	const h = 1e-2
	for _, idx := range []int{0, 5, 23, 30, 71, 95} {
		v := e.Value.Data[idx]
		e.Value.Data[idx] = v + h
		up := objective(t, o, x, c)
		e.Value.Data[idx] = v - h
		down := objective(t, o, x, c)
		e.Value.Data[idx] = v
		num := (up - down) / (2 * h)
		assert.InDelta(t, num, e.Grad.Data[idx], float64(5e-3+5e-2*math32.Abs(num)), "emission %d", idx)
	}

	for _, pos := range [][3]int{{0, 0, 1}, {0, 2, 2}, {1, 1, 19}, {2, 3, 7}, {0, 4, 24}} {
		i, j, s := pos[0], pos[1], pos[2]
		v := x.At(i, j, s)
		x.Set(i, j, s, v+h)
		up := objective(t, o, x, c)
		x.Set(i, j, s, v-h)
		down := objective(t, o, x, c)
		x.Set(i, j, s, v)
		num := (up - down) / (2 * h)
		assert.InDelta(t, num, dx.At(i, j, s), float64(5e-3+5e-2*math32.Abs(num)), "input %v", pos)
	}
}

func TestBackwardErrors(t *testing.T) {
	o := MustNew(2, 1, DefaultParams())
	_, err := o.Backward([]float32{1})
	assert.Error(t, err)

	_, err = o.Forward(tensor.NewD3(1, 2, 3))
	assert.Error(t, err)

	_, err = o.Forward(batchOf("AR"))
	require.NoError(t, err)
	_, err = o.Backward([]float32{1, 2})
	assert.Error(t, err)
}

func TestGradientAscentIncreasesLikelihood(t *testing.T) {
	p := DefaultParams()
	p.UsePrior = false
	o := MustNew(2, 1, p)
	x := batchOf("WWWWWW")
	before, err := o.Forward(x)
	require.NoError(t, err)
	_, err = o.Backward([]float32{1})
	require.NoError(t, err)
	e := o.Parameters()[0]
	for i := range e.Value.Data {
		e.Value.Data[i] += 0.5 * e.Grad.Data[i]
	}
	after, err := o.Forward(x)
	require.NoError(t, err)
	assert.Greater(t, after[0], before[0])
}
