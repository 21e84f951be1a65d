package tune

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/surveyboost/pkg/errors"
)

func TestDimensionDecode(t *testing.T) {
	depth := QUniform("max_depth", 1, 10, 1)
	assert.Equal(t, 3.0, depth.Decode(3.4))
	assert.Equal(t, 4.0, depth.Decode(3.5))
	assert.Equal(t, 10.0, depth.Decode(11.7))
	assert.Equal(t, 1.0, depth.Decode(-5))

	stepped := QUniform("n", 10, 20, 4)
	assert.Equal(t, 18.0, stepped.Decode(19.9))
	assert.Equal(t, 14.0, stepped.Decode(13))

	gamma := Uniform("gamma", 0, 0.05)
	assert.Equal(t, 0.01, gamma.Decode(0.01))
	assert.Equal(t, 0.05, gamma.Decode(0.2))
	assert.Equal(t, 0.0, gamma.Decode(-1))
	assert.Equal(t, 0.05, gamma.Decode(math.Inf(1)))
}

func TestDefaultSpaceDecodesInsideBounds(t *testing.T) {
	space := DefaultSpace()
	require.Equal(t, 7, space.Len())

	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 500; i++ {
		raw := Point{}
		for _, d := range space.Dims() {
			width := d.High - d.Low
			raw[d.Name] = d.Low - width + rng.Float64()*3*width
		}
		p := space.Decode(raw)
		require.True(t, space.Contains(p), "%v", p)
		for _, name := range []string{"max_depth", "n_estimators"} {
			assert.Equal(t, math.Round(p[name]), p[name])
		}
		assert.GreaterOrEqual(t, p["colsample_bytree"], 0.5)
		assert.LessOrEqual(t, p["n_estimators"], 20.0)
	}
}

func TestSpaceDecodeFillsAndDrops(t *testing.T) {
	space, err := NewSpace(Uniform("a", 1, 2), QUniform("b", 0, 5, 1))
	require.NoError(t, err)
	p := space.Decode(Point{"b": 2.2, "extra": 9})
	assert.Equal(t, Point{"a": 1, "b": 2}, p)
}

func TestNewSpaceValidation(t *testing.T) {
	_, err := NewSpace(Uniform("a", 0, 1), Uniform("a", 0, 2))
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))

	_, err = NewSpace(Uniform("a", 2, 1))
	assert.True(t, errors.As(err, &ve))

	_, err = NewSpace(QUniform("a", 0, 1, -1))
	assert.Error(t, err)

	_, err = NewSpace()
	assert.Error(t, err)
}

func TestPointKeyIsCanonical(t *testing.T) {
	a := Point{"x": 1, "y": 0.25}
	b := Point{"y": 0.25, "x": 1}
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, "x=1,y=0.25", a.Key())
}
