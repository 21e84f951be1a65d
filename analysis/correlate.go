// Package analysis computes topic correlations and a hierarchical clustering
// of topics. Results are diagnostic and are not consumed by model training.
package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/surveyboost/frame"
	"github.com/YuminosukeSato/surveyboost/pkg/errors"
	"github.com/YuminosukeSato/surveyboost/pkg/log"
)

// Correlation is a symmetric Pearson matrix over topic columns.
type Correlation struct {
	Labels []string
	Values *mat.SymDense
	index  map[string]int
}

// At returns r(a, b). ok is false for unknown labels.
func (c *Correlation) At(a, b string) (r float64, ok bool) {
	i, okA := c.index[a]
	j, okB := c.index[b]
	if !okA || !okB {
		return math.NaN(), false
	}
	return c.Values.At(i, j), true
}

// Len returns the number of topics.
func (c *Correlation) Len() int {
	return len(c.Labels)
}

// Correlate computes pairwise Pearson correlations between the columns of
// w. Each pair uses the groups where both cells are present. Pairs with
// fewer than two such groups, or where either side is constant, are NaN.
func Correlate(w *frame.WideTable) (*Correlation, error) {
	groups, n := w.Dims()
	if n == 0 {
		return nil, errors.ErrEmptyData
	}
	labels := w.Topics()
	data := w.Matrix()

	corr := mat.NewSymDense(n, nil)
	undefined := make(map[string]bool)
	x := make([]float64, 0, groups)
	y := make([]float64, 0, groups)

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			x, y = x[:0], y[:0]
			for g := 0; g < groups; g++ {
				a, b := data.At(g, i), data.At(g, j)
				if math.IsNaN(a) || math.IsNaN(b) {
					continue
				}
				x = append(x, a)
				y = append(y, b)
			}
			corr.SetSym(i, j, pearson(x, y))
		}
	}

	for j := 0; j < n; j++ {
		x = x[:0]
		for g := 0; g < groups; g++ {
			if v := data.At(g, j); !math.IsNaN(v) {
				x = append(x, v)
			}
		}
		if len(x) >= 2 && constant(x) {
			undefined[labels[j]] = true
		}
	}
	if len(undefined) > 0 {
		names := make([]string, 0, len(undefined))
		for name := range undefined {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			errors.Warn(errors.NewUndefinedMetricWarning("pearson", "column "+name+" is constant", math.NaN()))
		}
	}

	log.GetLoggerWithName("analysis.correlate").Debug("Correlation computed",
		log.OperationKey, log.OperationCorrelate,
		log.GroupsKey, groups,
		log.TopicsKey, n,
		"undefined_columns", len(undefined),
	)

	return NewCorrelation(labels, corr), nil
}

// NewCorrelation wraps a precomputed matrix.
func NewCorrelation(labels []string, values *mat.SymDense) *Correlation {
	index := make(map[string]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}
	return &Correlation{Labels: labels, Values: values, index: index}
}

func pearson(x, y []float64) float64 {
	if len(x) < 2 || constant(x) || constant(y) {
		return math.NaN()
	}
	return stat.Correlation(x, y, nil)
}

func constant(v []float64) bool {
	for i := 1; i < len(v); i++ {
		if v[i] != v[0] {
			return false
		}
	}
	return true
}

// Pair is one off-diagonal correlation.
type Pair struct {
	A, B string
	R    float64
}

// TopPairs returns up to n pairs with the largest |r|, skipping NaN. Ties
// keep the matrix order. n <= 0 returns every pair.
func TopPairs(c *Correlation, n int) []Pair {
	var pairs []Pair
	for i := range c.Labels {
		for j := i + 1; j < len(c.Labels); j++ {
			r := c.Values.At(i, j)
			if math.IsNaN(r) {
				continue
			}
			pairs = append(pairs, Pair{A: c.Labels[i], B: c.Labels[j], R: r})
		}
	}
	sort.SliceStable(pairs, func(a, b int) bool {
		return math.Abs(pairs[a].R) > math.Abs(pairs[b].R)
	})
	if n > 0 && n < len(pairs) {
		pairs = pairs[:n]
	}
	return pairs
}

// Against returns every topic's correlation with target, strongest first.
// It is the view used when choosing a response column.
func Against(c *Correlation, target string) ([]Pair, error) {
	i, ok := c.index[target]
	if !ok {
		return nil, errors.NewValidationError("response_topic", "unknown topic", target)
	}
	var pairs []Pair
	for j, label := range c.Labels {
		if j == i {
			continue
		}
		r := c.Values.At(i, j)
		if math.IsNaN(r) {
			continue
		}
		pairs = append(pairs, Pair{A: target, B: label, R: r})
	}
	sort.SliceStable(pairs, func(a, b int) bool {
		return math.Abs(pairs[a].R) > math.Abs(pairs[b].R)
	})
	return pairs, nil
}
