package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/surveyboost/analysis"
	"github.com/YuminosukeSato/surveyboost/explain"
	"github.com/YuminosukeSato/surveyboost/sklearn/boost"
	"github.com/YuminosukeSato/surveyboost/survey"
)

func sampleCorrelation() *analysis.Correlation {
	return analysis.NewCorrelation([]string{"Ledelse", "Trivsel", "Tryghed"}, mat.NewSymDense(3, []float64{
		1, 0.8, -0.2,
		0.8, 1, 0.1,
		-0.2, 0.1, 1,
	}))
}

func sampleWaterfall() *explain.Waterfall {
	return &explain.Waterfall{
		Group: "Kvinder 18-34",
		Base:  60,
		Contributions: []explain.Contribution{
			{Feature: "Ledelse", Value: 72, SHAP: 3.5},
			{Feature: "Tryghed", Value: 55, SHAP: -1.25},
		},
		Prediction: 62.25,
		Actual:     63,
	}
}

func sampleEvals() boost.EvalsResult {
	return boost.EvalsResult{
		"train": {boost.MetricRMSE: {5, 3, 2, 1.5}},
		"test":  {boost.MetricRMSE: {6, 4, 4.5, 5}},
	}
}

func TestTables(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteCleanStats(&buf, map[string]survey.CleanStats{
		"industry": {Rows: 10, Kept: 8, Dropped: 2, DroppedGroups: []string{"Total"}},
	}))
	assert.Contains(t, buf.String(), "industry")
	assert.Contains(t, buf.String(), "[Total]")

	buf.Reset()
	require.NoError(t, WritePairs(&buf, analysis.TopPairs(sampleCorrelation(), 1)))
	assert.Contains(t, buf.String(), "Ledelse")
	assert.Contains(t, buf.String(), "+0.800")

	buf.Reset()
	require.NoError(t, WriteDendrogram(&buf, analysis.Cluster(sampleCorrelation())))
	assert.Contains(t, buf.String(), "leaf order:")
	assert.Contains(t, buf.String(), "#3")

	buf.Reset()
	require.NoError(t, WriteParams(&buf, map[string]float64{"max_depth": 4, "gamma": 0.01}))
	out := buf.String()
	assert.Less(t, bytes.Index([]byte(out), []byte("gamma")), bytes.Index([]byte(out), []byte("max_depth")))

	buf.Reset()
	report, err := boost.OverfitDiagnosis(sampleEvals(), "train", "test", 2)
	require.NoError(t, err)
	require.NoError(t, WriteEvals(&buf, sampleEvals(), report))
	assert.Contains(t, buf.String(), "OVERFITTING")

	buf.Reset()
	require.NoError(t, WriteImportance(&buf, []explain.Importance{{Feature: "Ledelse", MeanAbs: 2.5}}))
	assert.Contains(t, buf.String(), "2.5000")

	buf.Reset()
	require.NoError(t, WriteWaterfall(&buf, sampleWaterfall()))
	assert.Contains(t, buf.String(), "Kvinder 18-34")
	assert.Contains(t, buf.String(), "62.2500")
	assert.Contains(t, buf.String(), "63.0000")

	buf.Reset()
	require.NoError(t, WriteRMSE(&buf, 1.5, 3.25, 4))
	assert.Contains(t, buf.String(), "3.2500")
	assert.Contains(t, buf.String(), "mean predictor")
}

func TestSummaryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.json")
	s := &Summary{
		RunID:         "run-1",
		StartedAt:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		ResponseTopic: "Trivsel",
		Features:      []string{"Ledelse"},
		Search:        &SearchSummary{Algorithm: "tpe", Seed: 42, Best: map[string]float64{"max_depth": 3}},
		TestRMSE:      2.5,
	}
	require.NoError(t, WriteSummary(path, s))

	got, err := ReadSummary(path)
	require.NoError(t, err)
	assert.Equal(t, s.RunID, got.RunID)
	assert.True(t, s.StartedAt.Equal(got.StartedAt))
	assert.Equal(t, 3.0, got.Search.Best["max_depth"])

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"response_topic": "Trivsel"`)
}

func TestPlotsWritePNG(t *testing.T) {
	dir := t.TempDir()
	corr := sampleCorrelation()

	cases := map[string]func(string) error{
		"heatmap.png":     func(p string) error { return CorrelationHeatmap(p, corr) },
		"dendrogram.png":  func(p string) error { return DendrogramPlot(p, analysis.Cluster(corr)) },
		"learning.png":    func(p string) error { return LearningCurves(p, sampleEvals()) },
		"convergence.png": func(p string) error { return SearchConvergence(p, []float64{3, 2, 2, 1.5}) },
		"shap.png": func(p string) error {
			return SHAPBar(p, []explain.Importance{{Feature: "Ledelse", MeanAbs: 2}, {Feature: "Tryghed", MeanAbs: 1}})
		},
		"waterfall.png": func(p string) error { return WaterfallPlot(p, sampleWaterfall()) },
	}
	for name, draw := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, draw(path))
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
		})
	}
}

func TestPlotsRejectEmptyInput(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, LearningCurves(filepath.Join(dir, "a.png"), boost.EvalsResult{}))
	assert.Error(t, SHAPBar(filepath.Join(dir, "b.png"), nil))
	assert.Error(t, WaterfallPlot(filepath.Join(dir, "c.png"), &explain.Waterfall{}))
}
