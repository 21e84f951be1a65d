package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/surveyboost/frame"
	"github.com/YuminosukeSato/surveyboost/selection"
	"github.com/YuminosukeSato/surveyboost/sklearn/boost"
	"github.com/YuminosukeSato/surveyboost/survey"
	"github.com/YuminosukeSato/surveyboost/tune"
)

func TestTinyScenarioBeatsMeanPredictor(t *testing.T) {
	rec := func(group, topic, q string, v float64) survey.Record {
		return survey.Record{Group: group, TopicLabel: topic, QuestionLabel: q, IndexedScore: v}
	}
	records := []survey.Record{
		rec("Handel", "Trivsel", "Q1", 60), rec("Handel", "Trivsel", "Q2", 70),
		rec("Handel", "Ledelse", "Q1", 50), rec("Handel", "Ledelse", "Q2", 54),
		rec("Industri", "Trivsel", "Q1", 80), rec("Industri", "Trivsel", "Q2", 90),
		rec("Industri", "Ledelse", "Q1", 40), rec("Industri", "Ledelse", "Q2", 41),
		rec("Bygge", "Trivsel", "Q1", 45), rec("Bygge", "Trivsel", "Q2", 55),
		rec("Bygge", "Ledelse", "Q1", 66), rec("Bygge", "Ledelse", "Q2", 68),
	}

	wide, err := frame.PivotRecords(records)
	require.NoError(t, err)
	for group, want := range map[string][2]float64{
		"Handel":   {52, 65},
		"Industri": {40.5, 85},
		"Bygge":    {67, 50},
	} {
		l, _ := wide.At(group, "Ledelse")
		tr, _ := wide.At(group, "Trivsel")
		assert.Equal(t, want[0], l, group)
		assert.Equal(t, want[1], tr, group)
	}

	ds, err := selection.SplitByTable(wide, wide, "Trivsel")
	require.NoError(t, err)

	space, err := tune.NewSpace(
		tune.QUniform("max_depth", 2, 2, 1),
		tune.Uniform("gamma", 0, 0),
		tune.Uniform("reg_alpha", 0, 0),
		tune.Uniform("reg_lambda", 1, 1),
		tune.Uniform("colsample_bytree", 1, 1),
		tune.Uniform("min_child_weight", 0, 0),
		tune.QUniform("n_estimators", 10, 10, 1),
	)
	require.NoError(t, err)

	base := boost.DefaultParams()
	base.Seed = 7
	objective := tune.CVObjective(ds.XTrain, ds.YTrain, selection.NewKFold(3), tune.BoostBuilder(base))
	search, err := tune.Minimize(context.Background(), objective, space, 3, tune.WithSeed(7))
	require.NoError(t, err)

	cached := 0
	for _, tr := range search.Trials.All() {
		if tr.Cached {
			cached++
		}
	}
	assert.Equal(t, 2, cached)

	params, err := tune.Apply(base, search.Best)
	require.NoError(t, err)
	assert.Equal(t, 2, params.MaxDepth)
	assert.Equal(t, 10, params.NEstimators)

	reg := boost.NewRegressor(params).WithFeatureNames(ds.FeatureNames)
	require.NoError(t, reg.Fit(ds.XTrain, ds.YTrain))

	trainRMSE, err := rmse(reg, ds.XTrain, ds.YTrain)
	require.NoError(t, err)
	assert.Less(t, trainRMSE, meanPredictorRMSE(ds.YTrain))
}
