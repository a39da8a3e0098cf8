package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestL2NormalizeRows(t *testing.T) {
	m := [][]float64{
		{3, 4},
		{0, 0},
	}

	L2NormalizeRows(m)

	assert.InDelta(t, 0.6, m[0][0], 1e-9)
	assert.InDelta(t, 0.8, m[0][1], 1e-9)
	assert.Equal(t, []float64{0, 0}, m[1])

	var norm float64
	for _, v := range m[0] {
		norm += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
}

func TestToFloat32Matrix(t *testing.T) {
	m := [][]float64{{1.5, 2.5}, {3.5, 4.5}}
	out := ToFloat32Matrix(m)

	assert.Equal(t, [][]float32{{1.5, 2.5}, {3.5, 4.5}}, out)
}
