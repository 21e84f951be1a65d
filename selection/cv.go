package selection

import (
	"context"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/surveyboost/core/model"
	"github.com/YuminosukeSato/surveyboost/core/parallel"
	"github.com/YuminosukeSato/surveyboost/metrics"
	"github.com/YuminosukeSato/surveyboost/pkg/errors"
	"github.com/YuminosukeSato/surveyboost/pkg/log"
)

// NegRMSE is the default cross-validation scorer; greater is better.
var NegRMSE metrics.Scorer = metrics.NegRMSE

// CVResult holds per-fold validation scores.
type CVResult struct {
	Scores   []float64
	FitTimes []time.Duration
}

// Mean returns the mean fold score.
func (r *CVResult) Mean() float64 {
	if len(r.Scores) == 0 {
		return math.NaN()
	}
	return stat.Mean(r.Scores, nil)
}

// Std returns the sample standard deviation of the fold scores.
func (r *CVResult) Std() float64 {
	if len(r.Scores) < 2 {
		return 0
	}
	return stat.StdDev(r.Scores, nil)
}

// CrossValScore fits a fresh model from factory on every training fold and
// scores it on the held-out fold. Folds run concurrently; the first error
// cancels the rest.
func CrossValScore(ctx context.Context, factory model.Factory, X, y mat.Matrix,
	splitter Splitter, scorer metrics.Scorer) (*CVResult, error) {

	if scorer == nil {
		scorer = NegRMSE
	}
	rows, _ := X.Dims()
	yRows, _ := y.Dims()
	if rows != yRows {
		return nil, errors.NewDimensionError("CrossValScore", rows, yRows, 0)
	}

	folds, err := splitter.Split(X)
	if err != nil {
		return nil, err
	}

	result := &CVResult{
		Scores:   make([]float64, len(folds)),
		FitTimes: make([]time.Duration, len(folds)),
	}
	logger := log.GetLoggerWithName("selection.cv")

	err = parallel.ForEach(ctx, len(folds), 0, func(_ context.Context, f int) (err error) {
		defer errors.Recover(&err, "CrossValScore")

		fold := folds[f]
		xTrain, yTrain := Subset(X, y, fold.TrainIndices)
		xTest, yTest := Subset(X, y, fold.TestIndices)

		est := factory()
		start := time.Now()
		if err := est.Fit(xTrain, yTrain); err != nil {
			return errors.Wrapf(err, "fold %d", f)
		}
		result.FitTimes[f] = time.Since(start)

		pred, err := est.Predict(xTest)
		if err != nil {
			return errors.Wrapf(err, "fold %d", f)
		}
		score, err := scorer(yTest, pred)
		if err != nil {
			return errors.Wrapf(err, "fold %d", f)
		}
		result.Scores[f] = score

		logger.Debug("Fold scored",
			log.FoldKey, f,
			log.ScoreKey, score,
			log.SamplesKey, len(fold.TrainIndices),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
