// Package tune searches booster hyperparameters by minimising a
// cross-validated loss with a Tree-structured Parzen Estimator.
package tune

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/surveyboost/pkg/errors"
)

// Point maps hyperparameter names to values.
type Point map[string]float64

// Key is a canonical string for memoising trials.
func (p Point) Key() string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(strconv.FormatFloat(p[name], 'g', -1, 64))
	}
	return b.String()
}

// Clone copies p.
func (p Point) Clone() Point {
	out := make(Point, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Dimension is one bounded hyperparameter. Step > 0 makes it quantized:
// decoded values are Low plus an integer multiple of Step.
type Dimension struct {
	Name string
	Low  float64
	High float64
	Step float64
}

// Uniform is a continuous dimension on [low, high].
func Uniform(name string, low, high float64) Dimension {
	return Dimension{Name: name, Low: low, High: high}
}

// QUniform is a quantized dimension on [low, high] with the given step.
func QUniform(name string, low, high, step float64) Dimension {
	return Dimension{Name: name, Low: low, High: high, Step: step}
}

// Quantized reports whether the dimension has a step.
func (d Dimension) Quantized() bool {
	return d.Step > 0
}

// Decode maps a raw sampled value into the dimension's domain.
func (d Dimension) Decode(v float64) float64 {
	if d.Quantized() {
		v = d.Low + math.Round((v-d.Low)/d.Step)*d.Step
		for v > d.High && v-d.Step >= d.Low {
			v -= d.Step
		}
	}
	return errors.ClipValue(v, d.Low, d.High)
}

// Validate checks the bounds.
func (d Dimension) Validate() error {
	switch {
	case d.Name == "":
		return errors.NewValidationError("dimension", "name must not be empty", d)
	case math.IsNaN(d.Low) || math.IsNaN(d.High) || d.Low > d.High:
		return errors.NewValidationError(d.Name, "low must not exceed high", fmt.Sprintf("[%g, %g]", d.Low, d.High))
	case d.Step < 0 || math.IsNaN(d.Step):
		return errors.NewValidationError(d.Name, "step must be non-negative", d.Step)
	}
	return nil
}

func (d Dimension) String() string {
	if d.Quantized() {
		return fmt.Sprintf("%s ~ quniform(%g, %g, %g)", d.Name, d.Low, d.High, d.Step)
	}
	return fmt.Sprintf("%s ~ uniform(%g, %g)", d.Name, d.Low, d.High)
}

// Space is an ordered set of dimensions. It is immutable once built.
type Space struct {
	dims []Dimension
}

// NewSpace validates dims and rejects duplicate names.
func NewSpace(dims ...Dimension) (Space, error) {
	seen := make(map[string]bool, len(dims))
	for _, d := range dims {
		if err := d.Validate(); err != nil {
			return Space{}, err
		}
		if seen[d.Name] {
			return Space{}, errors.NewValidationError(d.Name, "duplicate dimension", d.Name)
		}
		seen[d.Name] = true
	}
	if len(dims) == 0 {
		return Space{}, errors.NewValidationError("space", "needs at least one dimension", 0)
	}
	return Space{dims: append([]Dimension(nil), dims...)}, nil
}

// DefaultSpace is the seven-parameter booster space.
func DefaultSpace() Space {
	s, err := NewSpace(
		QUniform("max_depth", 1, 10, 1),
		Uniform("gamma", 0, 0.05),
		Uniform("reg_alpha", 0, 0.3),
		Uniform("reg_lambda", 0, 1),
		Uniform("colsample_bytree", 0.5, 1),
		Uniform("min_child_weight", 0, 10),
		QUniform("n_estimators", 10, 20, 1),
	)
	if err != nil {
		panic(err)
	}
	return s
}

// Dims returns the dimensions in declaration order.
func (s Space) Dims() []Dimension {
	return append([]Dimension(nil), s.dims...)
}

// Len returns the number of dimensions.
func (s Space) Len() int {
	return len(s.dims)
}

// Decode maps every dimension of p into its domain. Missing names decode
// from the lower bound; names outside the space are dropped.
func (s Space) Decode(p Point) Point {
	out := make(Point, len(s.dims))
	for _, d := range s.dims {
		v, ok := p[d.Name]
		if !ok || math.IsNaN(v) {
			v = d.Low
		}
		out[d.Name] = d.Decode(v)
	}
	return out
}

// Contains reports whether p is a decoded point of s.
func (s Space) Contains(p Point) bool {
	for _, d := range s.dims {
		v, ok := p[d.Name]
		if !ok || v < d.Low || v > d.High {
			return false
		}
		if d.Quantized() {
			k := (v - d.Low) / d.Step
			if math.Abs(k-math.Round(k)) > 1e-9 {
				return false
			}
		}
	}
	return true
}
