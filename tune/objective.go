package tune

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/surveyboost/core/model"
	"github.com/YuminosukeSato/surveyboost/selection"
	"github.com/YuminosukeSato/surveyboost/sklearn/boost"
)

// Builder turns a decoded point into a model factory.
type Builder func(p Point) (model.Factory, error)

// BoostBuilder applies the point on top of base and builds boosted-tree
// regressors.
func BoostBuilder(base boost.Params) Builder {
	return func(p Point) (model.Factory, error) {
		params, err := Apply(base, p)
		if err != nil {
			return nil, err
		}
		return func() model.Regressor { return boost.NewRegressor(params) }, nil
	}
}

// CVObjective scores a point by k-fold cross-validation on (X, y). The loss
// is the negated mean NegRMSE fold score, i.e. the mean fold RMSE.
func CVObjective(X, y mat.Matrix, splitter selection.Splitter, build Builder) Objective {
	return func(ctx context.Context, p Point) (float64, error) {
		factory, err := build(p)
		if err != nil {
			return 0, err
		}
		res, err := selection.CrossValScore(ctx, factory, X, y, splitter, selection.NegRMSE)
		if err != nil {
			return 0, err
		}
		return -res.Mean(), nil
	}
}

// Apply copies base and sets the tuned values from p.
func Apply(base boost.Params, p Point) (boost.Params, error) {
	params := base
	if err := params.SetParams(p); err != nil {
		return base, err
	}
	if err := params.Validate(); err != nil {
		return base, err
	}
	return params, nil
}
