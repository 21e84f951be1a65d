package selection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/surveyboost/core/model"
	"github.com/YuminosukeSato/surveyboost/pkg/errors"
	"github.com/YuminosukeSato/surveyboost/sklearn/boost"
)

// meanRegressor predicts the training mean.
type meanRegressor struct {
	mean float64
	fail bool
}

func (m *meanRegressor) Fit(_, y mat.Matrix) error {
	if m.fail {
		return errors.New("fit failed")
	}
	n, _ := y.Dims()
	var sum float64
	for i := 0; i < n; i++ {
		sum += y.At(i, 0)
	}
	m.mean = sum / float64(n)
	return nil
}

func (m *meanRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	n, _ := X.Dims()
	out := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		out.SetVec(i, m.mean)
	}
	return out, nil
}

func TestCrossValScoreMeanModel(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{0, 0, 0, 0})
	y := mat.NewVecDense(4, []float64{1, 3, 5, 7})

	res, err := CrossValScore(context.Background(),
		func() model.Regressor { return &meanRegressor{} },
		X, y, NewKFold(2), NegRMSE)
	require.NoError(t, err)

	// fold 0 trains on {5,7} and predicts 6 for {1,3}; fold 1 the mirror image
	assert.InDeltaSlice(t, []float64{-4.123105625617661, -4.123105625617661}, res.Scores, 1e-12)
	assert.InDelta(t, -4.123105625617661, res.Mean(), 1e-12)
	assert.InDelta(t, 0, res.Std(), 1e-12)
	assert.Len(t, res.FitTimes, 2)
}

func TestCrossValScoreFirstErrorWins(t *testing.T) {
	X := mat.NewDense(6, 1, nil)
	y := mat.NewVecDense(6, nil)
	_, err := CrossValScore(context.Background(),
		func() model.Regressor { return &meanRegressor{fail: true} },
		X, y, NewKFold(3), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fit failed")
}

func TestCrossValScoreCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	X := mat.NewDense(6, 1, nil)
	y := mat.NewVecDense(6, nil)
	_, err := CrossValScore(ctx,
		func() model.Regressor { return &meanRegressor{} },
		X, y, NewKFold(3), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCrossValScoreBoostedTrees(t *testing.T) {
	n := 40
	X := mat.NewDense(n, 2, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		a, b := float64(i%10), float64(i/10)
		X.Set(i, 0, a)
		X.Set(i, 1, b)
		y.SetVec(i, 3*a+b)
	}
	params := boost.DefaultParams()
	params.NEstimators = 20
	params.MaxDepth = 3

	res, err := CrossValScore(context.Background(),
		func() model.Regressor { return boost.NewRegressor(params) },
		X, y, NewKFold(5).WithShuffle(1), NegRMSE)
	require.NoError(t, err)
	for _, s := range res.Scores {
		assert.LessOrEqual(t, s, 0.0)
		assert.Greater(t, s, -5.0)
	}
}
