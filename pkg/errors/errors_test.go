package errors

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		kind    string
		err     error
		wantMsg string
	}{
		{
			name:    "with original error",
			op:      "Fit",
			kind:    "invalid input",
			err:     fmt.Errorf("test error"),
			wantMsg: "surveyboost: Fit: invalid input: test error",
		},
		{
			name:    "without original error",
			op:      "Predict",
			kind:    "not fitted",
			wantMsg: "surveyboost: Predict: not fitted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)
			assert.Equal(t, tt.wantMsg, err.Error())

			// スタックトレースの存在確認
			formatted := fmt.Sprintf("%+v", err)
			assert.Contains(t, formatted, "errors_test.go")

			var modelErr *ModelError
			assert.True(t, As(err, &modelErr))
		})
	}
}

func TestNewIOError(t *testing.T) {
	_, openErr := os.Open("/definitely/not/here.csv")
	require.Error(t, openErr)

	err := NewIOError("open", "/definitely/not/here.csv", openErr)

	var ioErr *IOError
	require.True(t, As(err, &ioErr))
	assert.Equal(t, "/definitely/not/here.csv", ioErr.Path)
	assert.True(t, Is(err, os.ErrNotExist), "IOError must unwrap to the OS error")
}

func TestNewParseError(t *testing.T) {
	err := NewParseError("data/branche.csv", 12, "Score", `cannot parse "1,2,3"`)
	assert.Equal(t, `surveyboost: parse data/branche.csv:12 column "Score": cannot parse "1,2,3"`, err.Error())

	err = NewParseError("data/branche.csv", 4, "", "wrong number of fields")
	assert.Equal(t, "surveyboost: parse data/branche.csv:4: wrong number of fields", err.Error())

	var parseErr *ParseError
	require.True(t, As(err, &parseErr))
	assert.Equal(t, 4, parseErr.Line)
}

func TestNewShapeError(t *testing.T) {
	missing := []Cell{
		{Row: "Bygge", Column: "Ledelse"},
		{Row: "Handel", Column: "Ledelse"},
	}
	err := NewShapeError("pivot", missing)
	assert.Equal(t, "surveyboost: pivot: 2 missing cells: (Bygge, Ledelse), (Handel, Ledelse)", err.Error())

	many := make([]Cell, 8)
	for i := range many {
		many[i] = Cell{Row: fmt.Sprintf("g%d", i), Column: "t"}
	}
	err = NewShapeError("pivot", many)
	assert.True(t, strings.HasSuffix(err.Error(), ", ..."))

	var shapeErr *ShapeError
	require.True(t, As(err, &shapeErr))
	assert.Len(t, shapeErr.Missing, 8)
}

func TestNewSchemaMismatchError(t *testing.T) {
	err := NewSchemaMismatchError([]string{"b", "a"}, []string{"c"})

	var schemaErr *SchemaMismatchError
	require.True(t, As(err, &schemaErr))
	assert.Equal(t, []string{"a", "b"}, schemaErr.OnlyTrain)
	assert.Equal(t, []string{"c"}, schemaErr.OnlyTest)
	assert.Contains(t, err.Error(), "only in train [a b]")
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Predict", 10, 9, 1)
	assert.Equal(t, "surveyboost: Predict: dimension mismatch on axis 1 (features). Expected 10, got 9", err.Error())

	var dimErr *DimensionError
	assert.True(t, As(err, &dimErr))
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("Regressor", "Predict")
	assert.Equal(t, "surveyboost: Regressor: this model is not fitted yet. Call Fit() before using Predict()", err.Error())

	var notFittedErr *NotFittedError
	assert.True(t, As(err, &notFittedErr))
}

func TestWarnRoutesToZerologFunc(t *testing.T) {
	var got []error
	SetZerologWarnFunc(func(w error) { got = append(got, w) })
	defer SetZerologWarnFunc(nil)

	Warn(NewDataConversionWarning("missing", "column mean", "impute_mean policy"))
	Warn(NewUndefinedMetricWarning("pearson", "constant column", 0))

	require.Len(t, got, 2)
	assert.Contains(t, got[0].Error(), "impute_mean policy")
	assert.Contains(t, got[1].Error(), "'pearson' is ill-defined")
}

func TestCheckMatrix(t *testing.T) {
	clean := matrixFunc(func(i, j int) float64 { return float64(i + j) })
	assert.NoError(t, CheckMatrix("fit_input", clean, 3, 3, 0))

	dirty := matrixFunc(func(i, j int) float64 {
		if i == 1 && j == 2 {
			return nan()
		}
		return 1
	})
	err := CheckMatrix("fit_input", dirty, 3, 3, 0)
	var numErr *NumericalInstabilityError
	require.True(t, As(err, &numErr))
	assert.Equal(t, "fit_input", numErr.Operation)
}

func TestLogSumExp(t *testing.T) {
	assert.InDelta(t, 1000+0.6931471805599453, LogSumExp([]float64{1000, 1000}), 1e-12)
	assert.True(t, LogSumExp(nil) < -1e308)
}

type matrixFunc func(i, j int) float64

func (m matrixFunc) At(i, j int) float64 { return m(i, j) }

func nan() float64 {
	zero := 0.0
	return zero / zero
}
