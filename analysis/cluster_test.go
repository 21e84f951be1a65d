package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestClusterPerfectCorrelations(t *testing.T) {
	c := NewCorrelation([]string{"x", "y", "z"}, mat.NewSymDense(3, []float64{
		1, 1, -1,
		1, 1, -1,
		-1, -1, 1,
	}))
	d := Cluster(c)

	require.Len(t, d.Merges, 2)
	assert.Equal(t, Merge{Left: 0, Right: 1, Distance: 0, Size: 2}, d.Merges[0])
	assert.Equal(t, Merge{Left: 2, Right: 3, Distance: 2, Size: 3}, d.Merges[1])
	assert.Equal(t, []int{2, 0, 1}, d.Order)
	assert.Equal(t, []string{"z", "x", "y"}, d.OrderedLabels())
}

func TestClusterAverageLinkage(t *testing.T) {
	// distances: ab 0.2, ac 0.6, ad 1 (NaN), bc 0.4, bd 0.8, cd 0.3
	nan := math.NaN()
	c := NewCorrelation([]string{"a", "b", "c", "d"}, mat.NewSymDense(4, []float64{
		1, 0.8, 0.4, nan,
		0.8, 1, 0.6, 0.2,
		0.4, 0.6, 1, 0.7,
		nan, 0.2, 0.7, 1,
	}))
	d := Cluster(c)

	require.Len(t, d.Merges, 3)
	assert.Equal(t, 0, d.Merges[0].Left)
	assert.Equal(t, 1, d.Merges[0].Right)
	assert.InDelta(t, 0.2, d.Merges[0].Distance, 1e-12)

	assert.Equal(t, 2, d.Merges[1].Left)
	assert.Equal(t, 3, d.Merges[1].Right)
	assert.InDelta(t, 0.3, d.Merges[1].Distance, 1e-12)

	// mean of ac, ad, bc, bd
	assert.Equal(t, 4, d.Merges[2].Left)
	assert.Equal(t, 5, d.Merges[2].Right)
	assert.InDelta(t, (0.6+1+0.4+0.8)/4, d.Merges[2].Distance, 1e-12)
	assert.Equal(t, 4, d.Merges[2].Size)

	assert.Equal(t, []int{0, 1, 2, 3}, d.Order)
}

func TestClusterDegenerate(t *testing.T) {
	d := Cluster(NewCorrelation(nil, nil))
	assert.Empty(t, d.Merges)
	assert.Empty(t, d.Order)

	one := Cluster(NewCorrelation([]string{"x"}, mat.NewSymDense(1, []float64{1})))
	assert.Empty(t, one.Merges)
	assert.Equal(t, []int{0}, one.Order)
}
