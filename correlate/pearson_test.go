package correlate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPearson(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6, 7, 8}

	assert.InDelta(t, 1.0, Pearson(x, x), 1e-12, "identical series")

	rev := []float64{8, 7, 6, 5, 4, 3, 2, 1}
	assert.InDelta(t, -1.0, Pearson(x, rev), 1e-12, "reversed series")

	flat := []float64{5, 5, 5, 5, 5, 5, 5, 5}
	assert.Equal(t, 0.0, Pearson(x, flat), "constant series clamps to 0")
	assert.Equal(t, 0.0, Pearson(flat, x), "constant series clamps to 0")
}

func TestPearsonDegenerateInputs(t *testing.T) {
	assert.Equal(t, 0.0, Pearson(nil, nil))
	assert.Equal(t, 0.0, Pearson([]float64{1, 2}, []float64{1}))
}
