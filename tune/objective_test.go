package tune

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/surveyboost/pkg/errors"
	"github.com/YuminosukeSato/surveyboost/selection"
	"github.com/YuminosukeSato/surveyboost/sklearn/boost"
)

func linearData(n int, seed uint64) (*mat.Dense, *mat.VecDense) {
	rng := rand.New(rand.NewPCG(seed, seed))
	X := mat.NewDense(n, 3, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		a, b, c := rng.Float64()*10, rng.Float64()*10, rng.Float64()*10
		X.SetRow(i, []float64{a, b, c})
		y.SetVec(i, 2*a-b+0.1*rng.NormFloat64())
	}
	return X, y
}

func TestCVObjectiveReturnsMeanFoldRMSE(t *testing.T) {
	X, y := linearData(60, 9)
	obj := CVObjective(X, y, selection.NewKFold(5), BoostBuilder(boost.DefaultParams()))

	p := Point{"max_depth": 3, "n_estimators": 15, "gamma": 0, "reg_alpha": 0,
		"reg_lambda": 1, "colsample_bytree": 1, "min_child_weight": 1}
	loss, err := obj(context.Background(), p)
	require.NoError(t, err)
	assert.Greater(t, loss, 0.0)
	// y spans roughly [-10, 20]; the mean predictor has RMSE above 6
	assert.Less(t, loss, 6.0)
}

func TestCVObjectiveRejectsUnknownParameter(t *testing.T) {
	X, y := linearData(20, 1)
	obj := CVObjective(X, y, selection.NewKFold(5), BoostBuilder(boost.DefaultParams()))
	_, err := obj(context.Background(), Point{"subsample": 0.5})
	var ve *errors.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "subsample", ve.ParamName)
}

func TestApply(t *testing.T) {
	params, err := Apply(boost.DefaultParams(), Point{"max_depth": 4, "colsample_bytree": 0.75})
	require.NoError(t, err)
	assert.Equal(t, 4, params.MaxDepth)
	assert.Equal(t, 0.75, params.ColsampleBytree)
	assert.Equal(t, 0.3, params.LearningRate)

	_, err = Apply(boost.DefaultParams(), Point{"colsample_bytree": 0})
	assert.Error(t, err)
}

func TestMinimizeOverCVObjective(t *testing.T) {
	X, y := linearData(40, 4)
	space, err := NewSpace(
		QUniform("max_depth", 2, 3, 1),
		QUniform("n_estimators", 10, 12, 1),
		Uniform("colsample_bytree", 0.5, 1),
	)
	require.NoError(t, err)

	obj := CVObjective(X, y, selection.NewKFold(5), BoostBuilder(boost.DefaultParams()))
	res, err := Minimize(context.Background(), obj, space, 8, WithSeed(42))
	require.NoError(t, err)
	assert.True(t, space.Contains(res.Best))
	assert.Greater(t, res.BestLoss, 0.0)
}
