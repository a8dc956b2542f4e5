package device

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverListsHostFirst(t *testing.T) {
	devs, err := Discover()
	require.NoError(t, err)
	require.NotEmpty(t, devs)
	assert.Equal(t, CPU, devs[0].Kind)
	assert.Equal(t, 1, Count(devs, CPU))
	assert.GreaterOrEqual(t, devs[0].Cores, 1)
}

func TestWorkersPositive(t *testing.T) {
	assert.GreaterOrEqual(t, Workers(), 1)
}

func TestStaticWithGPUs(t *testing.T) {
	s := WithGPUs(3)
	devs, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, 3, Count(devs, GPU))
	assert.Equal(t, "GPU:2 virtual-2", devs[3].String())

	devs[1].Name = "changed"
	assert.Equal(t, "virtual-0", s[1].Name)
}

func TestListerFunc(t *testing.T) {
	boom := errors.New("driver missing")
	_, err := ListerFunc(func() ([]Device, error) { return nil, boom }).List()
	assert.Equal(t, boom, err)
	assert.Equal(t, "Kind(7)", Kind(7).String())
}
