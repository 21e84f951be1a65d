package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/surveyboost/frame"
	"github.com/YuminosukeSato/surveyboost/pkg/errors"
)

func wide(t *testing.T, groups, topics []string, data ...float64) *frame.WideTable {
	t.Helper()
	w, err := frame.NewWideTable(groups, topics, mat.NewDense(len(groups), len(topics), data))
	require.NoError(t, err)
	return w
}

func TestSplitByTable(t *testing.T) {
	train := wide(t, []string{"A", "B"}, []string{"a", "b", "resp"},
		1, 2, 10,
		3, 4, 20)
	test := wide(t, []string{"X"}, []string{"resp", "b", "a"},
		30, 6, 5)

	ds, err := SplitByTable(train, test, "resp")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, ds.FeatureNames)
	assert.Equal(t, []float64{10, 20}, ds.YTrain.RawVector().Data)
	assert.Equal(t, []float64{30}, ds.YTest.RawVector().Data)
	assert.Equal(t, []float64{1, 2}, mat.Row(nil, 0, ds.XTrain))
	// test columns follow the training order
	assert.Equal(t, []float64{5, 6}, mat.Row(nil, 0, ds.XTest))
	assert.Equal(t, []string{"a", "b"}, ds.Test.Topics())
	assert.Equal(t, []string{"X"}, ds.Test.Groups())
}

func TestSplitByTableMissingResponse(t *testing.T) {
	train := wide(t, []string{"A"}, []string{"a", "resp"}, 1, 2)
	test := wide(t, []string{"X"}, []string{"a"}, 1)

	_, err := SplitByTable(train, test, "nope")
	var ve *errors.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "response_topic", ve.ParamName)

	_, err = SplitByTable(train, test, "resp")
	assert.True(t, errors.As(err, &ve))
}

func TestSplitByTableSchemaMismatch(t *testing.T) {
	train := wide(t, []string{"A"}, []string{"a", "b", "resp"}, 1, 2, 3)
	test := wide(t, []string{"X"}, []string{"a", "c", "resp"}, 1, 2, 3)

	_, err := SplitByTable(train, test, "resp")
	var sm *errors.SchemaMismatchError
	require.True(t, errors.As(err, &sm))
	assert.Equal(t, []string{"b"}, sm.OnlyTrain)
	assert.Equal(t, []string{"c"}, sm.OnlyTest)
}

func TestSplitByTableNoFeatures(t *testing.T) {
	train := wide(t, []string{"A"}, []string{"resp"}, 1)
	test := wide(t, []string{"X"}, []string{"resp"}, 2)
	_, err := SplitByTable(train, test, "resp")
	assert.Error(t, err)
}
