package pipeline

import (
	"context"
	"io"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/surveyboost/config"
	"github.com/YuminosukeSato/surveyboost/explain"
	"github.com/YuminosukeSato/surveyboost/metrics"
	"github.com/YuminosukeSato/surveyboost/pkg/errors"
	"github.com/YuminosukeSato/surveyboost/pkg/log"
	"github.com/YuminosukeSato/surveyboost/report"
	"github.com/YuminosukeSato/surveyboost/selection"
	"github.com/YuminosukeSato/surveyboost/sklearn/boost"
	"github.com/YuminosukeSato/surveyboost/tune"
)

// Eval set names used for the final fit.
const (
	TrainSet = "train"
	TestSet  = "test"
)

// Result is everything a full run produced.
type Result struct {
	*Analysis

	Dataset *selection.Dataset
	Search  *tune.Result
	Params  boost.Params

	Regressor *boost.Regressor
	Overfit   boost.OverfitReport

	TrainRMSE float64
	TestRMSE  float64
	// BaselineRMSE is the training RMSE of always predicting the mean response.
	BaselineRMSE float64

	Attribution *explain.Attribution
	Top         []explain.Importance
	Waterfall   *explain.Waterfall

	Summary *report.Summary
}

// Run executes the whole pipeline with cfg and prints its tables to out.
// The summary, model and plots are written when their output paths are set.
func Run(ctx context.Context, cfg *config.Config, out io.Writer) (*Result, error) {
	runID, logger := newRunLogger()
	a, err := analyze(ctx, cfg, runID, logger)
	if err != nil {
		return nil, err
	}
	res := &Result{Analysis: a}

	if res.Dataset, err = selection.SplitByTable(a.Industry, a.Demographic, cfg.Model.ResponseTopic); err != nil {
		return nil, err
	}
	ds := res.Dataset

	if err := search(ctx, cfg, res); err != nil {
		return nil, err
	}
	if err := train(cfg, res); err != nil {
		return nil, err
	}
	if err := explainTest(cfg, res); err != nil {
		return nil, err
	}

	res.Summary = buildSummary(cfg, res)
	logger.Info("Pipeline finished",
		log.FeaturesKey, len(ds.FeatureNames),
		"train_rmse", res.TrainRMSE,
		"test_rmse", res.TestRMSE,
		"baseline_rmse", res.BaselineRMSE,
		log.DurationMsKey, res.Summary.DurationMs,
	)

	if err := printRun(out, res); err != nil {
		return nil, err
	}
	if err := writeArtifacts(cfg, res); err != nil {
		return nil, err
	}
	return res, nil
}

func baseParams(cfg *config.Config) boost.Params {
	params := boost.DefaultParams()
	params.LearningRate = cfg.Model.LearningRate
	if cfg.Model.Seeded() {
		params.Seed = uint64(cfg.Model.Seed)
	}
	return params
}

func search(ctx context.Context, cfg *config.Config, res *Result) error {
	algorithm, err := tune.ParseAlgorithm(cfg.Model.Algorithm)
	if err != nil {
		return err
	}
	opts := []tune.Option{tune.WithAlgorithm(algorithm), tune.WithLogger(log.GetLoggerWithName("tune.search").With(log.RunIDKey, res.RunID))}
	if cfg.Model.Seeded() {
		opts = append(opts, tune.WithSeed(uint64(cfg.Model.Seed)))
	}

	ds := res.Dataset
	base := baseParams(cfg)
	objective := tune.CVObjective(ds.XTrain, ds.YTrain, selection.NewKFold(cfg.Model.CVFolds), tune.BoostBuilder(base))

	res.Search, err = tune.Minimize(ctx, objective, tune.DefaultSpace(), cfg.Model.SearchBudget, opts...)
	if err != nil {
		return err
	}
	res.Params, err = tune.Apply(base, res.Search.Best)
	return err
}

func train(cfg *config.Config, res *Result) error {
	ds := res.Dataset
	reg := boost.NewRegressor(res.Params).
		WithFeatureNames(ds.FeatureNames).
		WithCallbacks(boost.LogEvaluation(log.GetLoggerWithName("boost.eval"), 10))
	if rounds := cfg.Model.EarlyStoppingRounds; rounds > 0 {
		reg.WithCallbacks(boost.EarlyStopping(rounds, TestSet, boost.MetricRMSE))
	}
	if limit := cfg.Model.TimeLimit; limit > 0 {
		reg.WithCallbacks(boost.TimeLimit(limit))
	}
	err := reg.FitWithEvalSets(ds.XTrain, ds.YTrain,
		boost.WithEvalSet(TrainSet, ds.XTrain, ds.YTrain),
		boost.WithEvalSet(TestSet, ds.XTest, ds.YTest),
	)
	if err != nil {
		return err
	}
	res.Regressor = reg

	if res.Overfit, err = boost.OverfitDiagnosis(reg.EvalsResult(), TrainSet, TestSet, cfg.Model.OverfitWindow); err != nil {
		return err
	}
	if res.TrainRMSE, err = rmse(reg, ds.XTrain, ds.YTrain); err != nil {
		return err
	}
	if res.TestRMSE, err = rmse(reg, ds.XTest, ds.YTest); err != nil {
		return err
	}
	res.BaselineRMSE = meanPredictorRMSE(ds.YTrain)
	return nil
}

func rmse(reg *boost.Regressor, X *mat.Dense, y *mat.VecDense) (float64, error) {
	pred, err := reg.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.RMSEMatrix(y, pred)
}

func meanPredictorRMSE(y *mat.VecDense) float64 {
	values := mat.Col(nil, 0, y)
	_, sd := stat.PopMeanStdDev(values, nil)
	return sd
}

func explainTest(cfg *config.Config, res *Result) error {
	ds := res.Dataset
	attr, err := explain.Explain(res.Regressor, ds.Test)
	if err != nil {
		return err
	}
	pred, err := res.Regressor.Predict(ds.XTest)
	if err != nil {
		return err
	}
	if err := attr.Check(mat.Col(nil, 0, pred), 1e-4); err != nil {
		return err
	}
	res.Attribution = attr
	res.Top = attr.Top(cfg.Explain.TopN)

	groups := ds.Test.Groups()
	group := cfg.Explain.Row
	if group == "" {
		group = groups[0]
	}
	actual := math.NaN()
	for i, g := range groups {
		if g == group {
			actual = ds.YTest.AtVec(i)
			break
		}
	}
	res.Waterfall, err = attr.Waterfall(group, actual)
	if err != nil {
		return errors.Wrap(err, "waterfall")
	}
	return nil
}

func printRun(out io.Writer, res *Result) error {
	if err := printAnalysis(out, res.Analysis); err != nil {
		return err
	}
	steps := []struct {
		title string
		write func() error
	}{
		{"Tuned hyperparameters", func() error { return report.WriteParams(out, res.Search.Best) }},
		{"Evaluation (RMSE per round)", func() error { return report.WriteEvals(out, res.Regressor.EvalsResult(), res.Overfit) }},
		{"SHAP importance (test groups)", func() error { return report.WriteImportance(out, res.Top) }},
		{"SHAP waterfall", func() error { return report.WriteWaterfall(out, res.Waterfall) }},
	}
	for _, s := range steps {
		if err := section(out, s.title); err != nil {
			return err
		}
		if err := s.write(); err != nil {
			return err
		}
	}
	if err := section(out, "Fit quality"); err != nil {
		return err
	}
	return report.WriteRMSE(out, res.TrainRMSE, res.TestRMSE, res.BaselineRMSE)
}
