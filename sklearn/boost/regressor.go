// Package boost implements a gradient-boosted regression tree ensemble with
// exact TreeSHAP attributions.
package boost

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/surveyboost/core/model"
	"github.com/YuminosukeSato/surveyboost/metrics"
	"github.com/YuminosukeSato/surveyboost/pkg/errors"
	"github.com/YuminosukeSato/surveyboost/pkg/log"
)

// Regressor is a gradient-boosted tree regressor with a scikit-learn style API.
type Regressor struct {
	model.BaseEstimator

	Params Params

	model         *Model
	evals         EvalsResult
	bestIteration int
	featureNames  []string
	callbacks     []Callback
	logger        log.Logger
}

// NewRegressor creates a regressor with the given parameters.
func NewRegressor(params Params) *Regressor {
	return &Regressor{
		Params: params,
		logger: log.GetLoggerWithName("boost.regressor"),
	}
}

// WithFeatureNames sets the column names carried into the model and SHAP output.
func (r *Regressor) WithFeatureNames(names []string) *Regressor {
	r.featureNames = append([]string(nil), names...)
	return r
}

// WithCallbacks adds per-round callbacks.
func (r *Regressor) WithCallbacks(callbacks ...Callback) *Regressor {
	r.callbacks = append(r.callbacks, callbacks...)
	return r
}

// WithLearningRate sets eta.
func (r *Regressor) WithLearningRate(lr float64) *Regressor {
	r.Params.LearningRate = lr
	return r
}

// WithSeed sets the column-subsampling seed.
func (r *Regressor) WithSeed(seed uint64) *Regressor {
	r.Params.Seed = seed
	return r
}

// EvalOption configures FitWithEvalSets.
type EvalOption func(*[]EvalSet) error

// WithEvalSet scores (X, y) under name after every boosting round.
func WithEvalSet(name string, X, y mat.Matrix) EvalOption {
	return func(sets *[]EvalSet) error {
		xd, yv, err := toTrainingData("WithEvalSet", X, y)
		if err != nil {
			return err
		}
		*sets = append(*sets, EvalSet{Name: name, X: xd, Y: yv})
		return nil
	}
}

// Fit trains the regressor without eval sets.
func (r *Regressor) Fit(X, y mat.Matrix) error {
	return r.FitWithEvalSets(X, y)
}

// FitWithEvalSets trains the regressor and records RMSE per round for
// every eval set.
func (r *Regressor) FitWithEvalSets(X, y mat.Matrix, opts ...EvalOption) (err error) {
	defer errors.Recover(&err, "Regressor.Fit")

	xd, yv, err := toTrainingData("Fit", X, y)
	if err != nil {
		return err
	}
	rows, cols := xd.Dims()
	if len(r.featureNames) > 0 && len(r.featureNames) != cols {
		return errors.NewDimensionError("Fit feature names", cols, len(r.featureNames), 1)
	}

	var sets []EvalSet
	for _, opt := range opts {
		if err := opt(&sets); err != nil {
			return err
		}
	}

	r.Reset()
	r.evals = nil

	callbacks := append([]Callback{RecordEvaluation(&r.evals)}, r.callbacks...)
	trainer := NewTrainer(r.Params).
		WithCallbacks(callbacks...).
		WithEvalSets(sets...).
		WithFeatureNames(r.featureNames)
	if err := trainer.Fit(xd, yv); err != nil {
		return errors.NewModelError("Regressor.Fit", "training failed", err)
	}

	r.model = trainer.GetModel()
	r.bestIteration = trainer.BestIteration()
	r.SetDimensions(rows, cols)
	r.SetFitted()

	r.logger.Debug("Training completed",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		"trees", len(r.model.Trees),
	)
	return nil
}

// Predict returns an n×1 matrix of predictions.
func (r *Regressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := r.RequireFitted("Regressor", "Predict"); err != nil {
		return nil, err
	}
	_, cols := X.Dims()
	if err := r.CheckFeatures("Predict", cols); err != nil {
		return nil, err
	}
	return r.model.Predict(X)
}

// Score returns the coefficient of determination R² of the prediction.
func (r *Regressor) Score(X, y mat.Matrix) (float64, error) {
	pred, err := r.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2Matrix(y, pred)
}

// EvalsResult returns the per-round metrics recorded for each eval set.
func (r *Regressor) EvalsResult() EvalsResult {
	return r.evals
}

// BestIteration returns the best boosting round (0-based).
func (r *Regressor) BestIteration() int {
	return r.bestIteration
}

// FeatureImportance returns per-feature importance of the given type.
func (r *Regressor) FeatureImportance(importanceType string) ([]float64, error) {
	if err := r.RequireFitted("Regressor", "FeatureImportance"); err != nil {
		return nil, err
	}
	return r.model.FeatureImportance(importanceType)
}

// FeatureNames returns the training column names, if set.
func (r *Regressor) FeatureNames() []string {
	return r.featureNames
}

// Model returns the fitted ensemble.
func (r *Regressor) Model() *Model {
	return r.model
}

// GetParams returns the tunable parameters.
func (r *Regressor) GetParams() map[string]float64 {
	return r.Params.GetParams()
}

// SetParams updates parameters from a search point.
func (r *Regressor) SetParams(values map[string]float64) error {
	return r.Params.SetParams(values)
}

// Save writes the fitted ensemble as JSON.
func (r *Regressor) Save(path string) error {
	if err := r.RequireFitted("Regressor", "Save"); err != nil {
		return err
	}
	return r.model.SaveJSON(path)
}

// LoadRegressor restores a regressor from a JSON ensemble.
func LoadRegressor(path string) (*Regressor, error) {
	m, err := LoadJSON(path)
	if err != nil {
		return nil, err
	}
	r := NewRegressor(m.Params).WithFeatureNames(m.FeatureNames)
	r.model = m
	r.bestIteration = len(m.Trees) - 1
	r.SetDimensions(0, m.NumFeatures)
	r.SetFitted()
	return r, nil
}

// toTrainingData validates X and y and converts them to dense storage.
func toTrainingData(op string, X, y mat.Matrix) (*mat.Dense, []float64, error) {
	rows, cols := X.Dims()
	yRows, yCols := y.Dims()
	if rows == 0 || cols == 0 {
		return nil, nil, errors.ErrEmptyData
	}
	if rows != yRows {
		return nil, nil, errors.NewDimensionError(op, rows, yRows, 0)
	}
	if yCols != 1 {
		return nil, nil, errors.NewDimensionError(op, 1, yCols, 1)
	}
	if err := errors.CheckMatrix(op+"/X", X, rows, cols, 0); err != nil {
		return nil, nil, err
	}
	if err := errors.CheckMatrix(op+"/y", y, yRows, 1, 0); err != nil {
		return nil, nil, err
	}

	xd := mat.DenseCopyOf(X)
	yv := make([]float64, rows)
	for i := range yv {
		yv[i] = y.At(i, 0)
	}
	return xd, yv, nil
}
