package boost

import (
	"github.com/YuminosukeSato/surveyboost/pkg/errors"
)

// OverfitReport summarises the learning curves of a train/test pair.
type OverfitReport struct {
	Metric        string
	Window        int
	TrainDelta    float64
	TestDelta     float64
	FinalTrain    float64
	FinalTest     float64
	BestTestRound int
	BestTest      float64
	Overfitting   bool
}

// OverfitDiagnosis compares the last window rounds of the train and test
// RMSE curves. The model is flagged when the training error falls while the
// test error rises; an OverfittingWarning is emitted in that case.
// window <= 0 or larger than the curve uses the whole curve.
func OverfitDiagnosis(history EvalsResult, trainSet, testSet string, window int) (OverfitReport, error) {
	train := history[trainSet][MetricRMSE]
	test := history[testSet][MetricRMSE]
	if len(train) == 0 {
		return OverfitReport{}, errors.NewValidationError("train_set", "no recorded rmse", trainSet)
	}
	if len(test) != len(train) {
		return OverfitReport{}, errors.NewDimensionError("OverfitDiagnosis", len(train), len(test), 0)
	}

	n := len(train)
	if window <= 0 || window >= n {
		window = n - 1
	}
	start := n - 1 - window

	report := OverfitReport{
		Metric:     MetricRMSE,
		Window:     window,
		TrainDelta: train[n-1] - train[start],
		TestDelta:  test[n-1] - test[start],
		FinalTrain: train[n-1],
		FinalTest:  test[n-1],
		BestTest:   test[0],
	}
	for i, v := range test {
		if v < report.BestTest {
			report.BestTest = v
			report.BestTestRound = i
		}
	}
	report.Overfitting = report.TrainDelta < 0 && report.TestDelta > 0

	if report.Overfitting {
		errors.Warn(&errors.OverfittingWarning{
			Metric:      MetricRMSE,
			TrainDelta:  report.TrainDelta,
			TestDelta:   report.TestDelta,
			WindowStart: start,
		})
	}
	return report, nil
}
