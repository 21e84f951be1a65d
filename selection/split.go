// Package selection splits wide tables into model matrices and runs k-fold
// cross-validation.
package selection

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/surveyboost/frame"
	"github.com/YuminosukeSato/surveyboost/pkg/errors"
	"github.com/YuminosukeSato/surveyboost/pkg/log"
)

// Dataset holds the train and test matrices produced from two wide tables.
// XTest columns follow FeatureNames, the training column order.
type Dataset struct {
	Response     string
	FeatureNames []string

	Train *frame.WideTable // features only
	Test  *frame.WideTable // features only

	XTrain *mat.Dense
	YTrain *mat.VecDense
	XTest  *mat.Dense
	YTest  *mat.VecDense
}

// SplitByTable uses train for fitting and test for evaluation. The response
// column becomes y and every other column is a feature.
func SplitByTable(train, test *frame.WideTable, response string) (*Dataset, error) {
	if !train.HasColumn(response) {
		return nil, errors.NewValidationError("response_topic", "column not found in training table", response)
	}
	if !test.HasColumn(response) {
		return nil, errors.NewValidationError("response_topic", "column not found in test table", response)
	}

	yTrain, err := train.Column(response)
	if err != nil {
		return nil, err
	}
	yTest, err := test.Column(response)
	if err != nil {
		return nil, err
	}
	xTrain, err := train.Drop(response)
	if err != nil {
		return nil, err
	}
	xTest, err := test.Drop(response)
	if err != nil {
		return nil, err
	}

	features := xTrain.Topics()
	xTest, err = xTest.Reorder(features)
	if err != nil {
		return nil, errors.Wrap(err, "test features differ from training features")
	}
	if len(features) == 0 {
		return nil, errors.NewValueError("SplitByTable", "no feature columns besides the response")
	}
	if len(yTrain) == 0 || len(yTest) == 0 {
		return nil, errors.ErrEmptyData
	}

	ds := &Dataset{
		Response:     response,
		FeatureNames: features,
		Train:        xTrain,
		Test:         xTest,
		XTrain:       xTrain.Matrix(),
		YTrain:       mat.NewVecDense(len(yTrain), yTrain),
		XTest:        xTest.Matrix(),
		YTest:        mat.NewVecDense(len(yTest), yTest),
	}

	log.GetLoggerWithName("selection.split").Info("Dataset split",
		log.OperationKey, log.OperationSplit,
		"train_samples", len(yTrain),
		"test_samples", len(yTest),
		log.FeaturesKey, len(features),
	)
	return ds, nil
}
