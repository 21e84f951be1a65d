// Package explain attributes boosted-tree predictions to topic features
// with exact TreeSHAP values.
package explain

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/surveyboost/frame"
	"github.com/YuminosukeSato/surveyboost/pkg/errors"
	"github.com/YuminosukeSato/surveyboost/pkg/log"
	"github.com/YuminosukeSato/surveyboost/sklearn/boost"
)

// Attribution holds one SHAP value per (group, feature).
type Attribution struct {
	Groups      []string
	Features    []string
	Values      *mat.Dense // groups × features
	Data        *mat.Dense // feature values that were explained
	BaseValue   float64
	Predictions []float64
}

// Explain computes SHAP values for every row of X. Columns of X are put in
// the model's training order first.
func Explain(reg *boost.Regressor, X *frame.WideTable) (*Attribution, error) {
	if err := reg.RequireFitted("Regressor", "Explain"); err != nil {
		return nil, err
	}
	if names := reg.FeatureNames(); len(names) > 0 {
		var err error
		if X, err = X.Reorder(names); err != nil {
			return nil, errors.Wrap(err, "explain features differ from training features")
		}
	}

	data := X.Matrix()
	values, err := reg.SHAP(data)
	if err != nil {
		return nil, err
	}
	pred, err := reg.Predict(data)
	if err != nil {
		return nil, err
	}
	rows, _ := data.Dims()
	preds := make([]float64, rows)
	for i := range preds {
		preds[i] = pred.At(i, 0)
	}

	log.GetLoggerWithName("explain").Debug("SHAP values computed",
		log.OperationKey, log.OperationExplain,
		log.SamplesKey, rows,
		log.FeaturesKey, len(X.Topics()),
		"base_value", values.BaseValue,
	)
	return &Attribution{
		Groups:      X.Groups(),
		Features:    X.Topics(),
		Values:      values.Values,
		Data:        data,
		BaseValue:   values.BaseValue,
		Predictions: preds,
	}, nil
}

// Check verifies that base plus the row's attributions equals pred[i] within
// tol for every row.
func (a *Attribution) Check(pred []float64, tol float64) error {
	rows, cols := a.Values.Dims()
	if len(pred) != rows {
		return errors.NewDimensionError("Attribution.Check", rows, len(pred), 0)
	}
	for i := 0; i < rows; i++ {
		sum := a.BaseValue
		for j := 0; j < cols; j++ {
			sum += a.Values.At(i, j)
		}
		if diff := math.Abs(sum - pred[i]); diff > tol || math.IsNaN(diff) {
			return errors.NewValueError("Attribution.Check",
				fmt.Sprintf("group %q: base + attributions = %.9g, prediction = %.9g (|diff| %.3g > %.3g)",
					a.Groups[i], sum, pred[i], diff, tol))
		}
	}
	return nil
}

// Importance is a feature's mean absolute attribution.
type Importance struct {
	Feature string
	MeanAbs float64
}

// Top returns the n features with the largest mean |SHAP|. n <= 0 returns
// all features.
func (a *Attribution) Top(n int) []Importance {
	rows, cols := a.Values.Dims()
	out := make([]Importance, cols)
	for j := 0; j < cols; j++ {
		var sum float64
		for i := 0; i < rows; i++ {
			sum += math.Abs(a.Values.At(i, j))
		}
		if rows > 0 {
			sum /= float64(rows)
		}
		out[j] = Importance{Feature: a.Features[j], MeanAbs: sum}
	}
	sort.SliceStable(out, func(x, y int) bool { return out[x].MeanAbs > out[y].MeanAbs })
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// Contribution is one feature's step in a waterfall.
type Contribution struct {
	Feature string
	Value   float64 // feature value of the row
	SHAP    float64
}

// Waterfall decomposes one prediction from the base value.
type Waterfall struct {
	Group         string
	Base          float64
	Contributions []Contribution // largest |SHAP| first
	Prediction    float64
	Actual        float64
}

// Waterfall returns the decomposition for group. actual is the observed
// response, shown next to the prediction.
func (a *Attribution) Waterfall(group string, actual float64) (*Waterfall, error) {
	row := -1
	for i, g := range a.Groups {
		if g == group {
			row = i
			break
		}
	}
	if row < 0 {
		return nil, errors.NewValidationError("explain.row", "unknown group", group)
	}

	_, cols := a.Values.Dims()
	contribs := make([]Contribution, cols)
	for j := 0; j < cols; j++ {
		contribs[j] = Contribution{
			Feature: a.Features[j],
			Value:   a.Data.At(row, j),
			SHAP:    a.Values.At(row, j),
		}
	}
	sort.SliceStable(contribs, func(x, y int) bool {
		return math.Abs(contribs[x].SHAP) > math.Abs(contribs[y].SHAP)
	})
	return &Waterfall{
		Group:         group,
		Base:          a.BaseValue,
		Contributions: contribs,
		Prediction:    a.Predictions[row],
		Actual:        actual,
	}, nil
}

// Cumulative returns the running total after each contribution, starting
// from Base. The last element equals the prediction.
func (w *Waterfall) Cumulative() []float64 {
	out := make([]float64, len(w.Contributions))
	acc := w.Base
	for i, c := range w.Contributions {
		acc += c.SHAP
		out[i] = acc
	}
	return out
}
