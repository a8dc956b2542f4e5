package layer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyAndAccumulate(t *testing.T) {
	a := []*Parameter{NewParameter("w", 3), NewParameter("b", 1)}
	b := []*Parameter{NewParameter("w", 3), NewParameter("b", 1)}
	copy(b[0].Value.Data, []float32{1, 2, 3})
	b[1].Value.Data[0] = 4
	require.NoError(t, CopyValues(a, b))
	assert.Equal(t, []float32{1, 2, 3}, a[0].Value.Data)
	assert.Equal(t, float32(4), a[1].Value.Data[0])

	copy(b[0].Grad.Data, []float32{1, 1, 1})
	require.NoError(t, AccumulateGrads(a, b))
	require.NoError(t, AccumulateGrads(a, b))
	assert.Equal(t, []float32{2, 2, 2}, a[0].Grad.Data)

	ZeroGrads(a)
	assert.Equal(t, []float32{0, 0, 0}, a[0].Grad.Data)

	assert.Error(t, CopyValues(a, b[:1]))
	assert.Error(t, a[0].CopyFrom(b[1]))
	assert.Error(t, AccumulateGrads(a[:1], b[1:]))
}

func TestSessionReset(t *testing.T) {
	s := Default()
	s.Reset()
	_, _, gen := s.Stats()

	NewParameter("x", 10)
	NewParameter("y", 5)
	params, scalars, _ := s.Stats()
	assert.Equal(t, 2, params)
	assert.Equal(t, 15, scalars)

	s.Reset()
	s.Reset()
	params, scalars, after := s.Stats()
	assert.Zero(t, params)
	assert.Zero(t, scalars)
	assert.Equal(t, gen+2, after)
}
