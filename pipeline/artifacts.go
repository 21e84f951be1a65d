package pipeline

import (
	"os"
	"path/filepath"
	"time"

	"github.com/YuminosukeSato/surveyboost/config"
	"github.com/YuminosukeSato/surveyboost/pkg/errors"
	"github.com/YuminosukeSato/surveyboost/pkg/log"
	"github.com/YuminosukeSato/surveyboost/report"
	"github.com/YuminosukeSato/surveyboost/sklearn/boost"
	"github.com/YuminosukeSato/surveyboost/tune"
)

// Plot file names under the configured plot directory.
const (
	HeatmapFile     = "correlation_heatmap.png"
	DendrogramFile  = "dendrogram.png"
	LearningFile    = "learning_curves.png"
	ConvergenceFile = "search_convergence.png"
	SHAPFile        = "shap_importance.png"
	WaterfallFile   = "shap_waterfall.png"
)

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.NewIOError("mkdir", dir, err)
	}
	return nil
}

func writeAnalysisPlots(dir string, a *Analysis) error {
	if err := ensureDir(dir); err != nil {
		return err
	}
	if err := report.CorrelationHeatmap(filepath.Join(dir, HeatmapFile), a.Correlation); err != nil {
		return err
	}
	if len(a.Dendrogram.Merges) == 0 {
		return nil
	}
	return report.DendrogramPlot(filepath.Join(dir, DendrogramFile), a.Dendrogram)
}

func writeArtifacts(cfg *config.Config, res *Result) error {
	logger := log.GetLoggerWithName("pipeline").With(log.RunIDKey, res.RunID)

	if path := cfg.Output.SummaryPath; path != "" {
		if err := report.WriteSummary(path, res.Summary); err != nil {
			return err
		}
		logger.Info("Summary written", log.PathKey, path)
	}
	if path := cfg.Output.ModelPath; path != "" {
		if err := res.Regressor.Save(path); err != nil {
			return err
		}
		logger.Info("Model written", log.PathKey, path)
	}

	dir := cfg.Output.PlotDir
	if dir == "" {
		return nil
	}
	if err := writeAnalysisPlots(dir, res.Analysis); err != nil {
		return err
	}
	plots := map[string]func(string) error{
		LearningFile:    func(p string) error { return report.LearningCurves(p, res.Regressor.EvalsResult()) },
		ConvergenceFile: func(p string) error { return report.SearchConvergence(p, res.Search.Trials.Losses()) },
		SHAPFile:        func(p string) error { return report.SHAPBar(p, res.Top) },
		WaterfallFile:   func(p string) error { return report.WaterfallPlot(p, res.Waterfall) },
	}
	for name, draw := range plots {
		if err := draw(filepath.Join(dir, name)); err != nil {
			return errors.Wrapf(err, "plot %s", name)
		}
	}
	logger.Info("Plots written", log.PathKey, dir)
	return nil
}

func buildSummary(cfg *config.Config, res *Result) *report.Summary {
	ds := res.Dataset
	s := &report.Summary{
		RunID:           res.RunID,
		StartedAt:       res.StartedAt.UTC(),
		DurationMs:      time.Since(res.StartedAt).Milliseconds(),
		ResponseTopic:   ds.Response,
		Datasets:        make(map[string]report.DatasetSummary, 2),
		Features:        ds.FeatureNames,
		DendrogramOrder: res.Dendrogram.OrderedLabels(),
		Params:          res.Params.GetParams(),
		Evals:           make(map[string][]float64),
		TrainRMSE:       res.TrainRMSE,
		TestRMSE:        res.TestRMSE,
	}

	paths := map[string]string{"industry": cfg.Data.IndustryPath, "demographic": cfg.Data.DemographicPath}
	tables := map[string]interface{ Dims() (int, int) }{"industry": res.Industry, "demographic": res.Demographic}
	for name, st := range res.Stats {
		groups, topics := tables[name].Dims()
		s.Datasets[name] = report.DatasetSummary{
			Path:          paths[name],
			Rows:          st.Rows,
			Kept:          st.Kept,
			DroppedGroups: st.DroppedGroups,
			Groups:        groups,
			Topics:        topics,
		}
	}

	for _, p := range res.Pairs {
		s.TopPairs = append(s.TopPairs, report.PairSummary{A: p.A, B: p.B, R: p.R})
	}

	search := res.Search
	evaluated := 0
	for _, t := range search.Trials.All() {
		if t.State == tune.TrialComplete && !t.Cached {
			evaluated++
		}
	}
	s.Search = &report.SearchSummary{
		Algorithm:   string(search.Algorithm),
		Seed:        search.Seed,
		Trials:      search.Trials.Len(),
		Evaluated:   evaluated,
		BestTrial:   search.BestTrial,
		BestLoss:    search.BestLoss,
		Best:        search.Best,
		Convergence: search.Trials.Losses(),
	}

	evals := res.Regressor.EvalsResult()
	for _, set := range evals.Sets() {
		s.Evals[set] = evals[set][boost.MetricRMSE]
	}
	s.Overfit = &report.OverfitSummary{
		Window:      res.Overfit.Window,
		TrainDelta:  res.Overfit.TrainDelta,
		TestDelta:   res.Overfit.TestDelta,
		BestRound:   res.Overfit.BestTestRound,
		Overfitting: res.Overfit.Overfitting,
	}

	for _, imp := range res.Top {
		s.Importance = append(s.Importance, report.ImportanceSummary{Feature: imp.Feature, MeanAbs: imp.MeanAbs})
	}
	wf := res.Waterfall
	contribs := make(map[string]float64, len(wf.Contributions))
	for _, c := range wf.Contributions {
		contribs[c.Feature] = c.SHAP
	}
	s.Waterfall = &report.WaterfallSummary{
		Group:         wf.Group,
		Base:          wf.Base,
		Contributions: contribs,
		Prediction:    wf.Prediction,
		Actual:        wf.Actual,
	}
	return s
}
