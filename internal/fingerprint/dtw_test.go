package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func makeMatrix(rows, cols int, fn func(i, j int) float32) Matrix {
	m := make(Matrix, rows)
	for i := range m {
		m[i] = make([]float32, cols)
		for j := range m[i] {
			m[i][j] = fn(i, j)
		}
	}
	return m
}

func defaultDTWConfig() DTWConfig {
	return DTWConfig{MaxFrames: 300, MaxCells: 90000, SakoeChibaBand: 20}
}

func TestDTWDistanceSelfSimilarityIsZero(t *testing.T) {
	m := makeMatrix(12, 40, func(i, j int) float32 { return float32(i+j) * 0.1 })

	dist, ok := defaultDTWConfig().Distance(m, m)

	assert.True(t, ok)
	assert.InDelta(t, 0.0, dist, 1e-6)
}

func TestDTWSimilarityOfIdenticalMatricesIs100(t *testing.T) {
	m := makeMatrix(12, 40, func(i, j int) float32 { return float32(i+j) * 0.1 })

	sim := defaultDTWConfig().Similarity(m, m, 0.24)

	assert.InDelta(t, 100.0, sim, 1e-4)
}

func TestDTWDistanceIsSymmetric(t *testing.T) {
	a := makeMatrix(12, 30, func(i, j int) float32 { return float32(i)*0.3 + float32(j)*0.05 })
	b := makeMatrix(12, 35, func(i, j int) float32 { return float32(i)*0.2 + float32(j)*0.07 })

	distAB, okAB := defaultDTWConfig().Distance(a, b)
	distBA, okBA := defaultDTWConfig().Distance(b, a)

	assert.True(t, okAB)
	assert.True(t, okBA)
	assert.InDelta(t, distAB, distBA, 1e-9)
}

func TestDTWDistanceInvalidInputReturnsFalse(t *testing.T) {
	empty := Matrix{}
	m := makeMatrix(12, 10, func(i, j int) float32 { return 1 })

	_, ok := defaultDTWConfig().Distance(empty, m)
	assert.False(t, ok)

	mismatchedRows := makeMatrix(5, 10, func(i, j int) float32 { return 1 })
	_, ok = defaultDTWConfig().Distance(m, mismatchedRows)
	assert.False(t, ok)
}

func TestDTWSimilarityOfDivergentMatricesIsLow(t *testing.T) {
	a := makeMatrix(12, 40, func(i, j int) float32 { return 0 })
	b := makeMatrix(12, 40, func(i, j int) float32 { return 100 })

	sim := defaultDTWConfig().Similarity(a, b, 0.24)

	assert.Less(t, sim, 10.0)
}

func TestDTWRespectsMaxCellsBudget(t *testing.T) {
	a := makeMatrix(12, 1000, func(i, j int) float32 { return float32(j) })
	b := makeMatrix(12, 1000, func(i, j int) float32 { return float32(j) })

	cfg := DTWConfig{MaxFrames: 300, MaxCells: 2500, SakoeChibaBand: 20}
	dist, ok := cfg.Distance(a, b)

	assert.True(t, ok)
	assert.GreaterOrEqual(t, dist, 0.0)
}
