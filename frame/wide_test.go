package frame

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/surveyboost/pkg/errors"
)

func mustTable(t *testing.T, groups, topics []string, data []float64) *WideTable {
	t.Helper()
	w, err := NewWideTable(groups, topics, mat.NewDense(len(groups), len(topics), data))
	require.NoError(t, err)
	return w
}

func TestNewWideTableRejectsDuplicates(t *testing.T) {
	_, err := NewWideTable([]string{"A", "A"}, []string{"x"}, mat.NewDense(2, 1, []float64{1, 2}))
	var ve *errors.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "group", ve.ParamName)

	_, err = NewWideTable([]string{"A"}, []string{"x", "x"}, mat.NewDense(1, 2, []float64{1, 2}))
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "topic", ve.ParamName)
}

func TestNewWideTableDimensionMismatch(t *testing.T) {
	_, err := NewWideTable([]string{"A"}, []string{"x", "y"}, mat.NewDense(1, 1, []float64{1}))
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))
}

func TestNewWideTableCopiesData(t *testing.T) {
	data := mat.NewDense(1, 1, []float64{1})
	w, err := NewWideTable([]string{"A"}, []string{"x"}, data)
	require.NoError(t, err)
	data.Set(0, 0, 99)
	v, _ := w.At("A", "x")
	assert.Equal(t, 1.0, v)
}

func TestCompleteReportsEveryMissingCell(t *testing.T) {
	nan := math.NaN()
	w := mustTable(t, []string{"A", "B"}, []string{"x", "y"}, []float64{1, nan, nan, 4})

	err := w.Complete()
	var se *errors.ShapeError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, []errors.Cell{{Row: "A", Column: "y"}, {Row: "B", Column: "x"}}, se.Missing)
}

func TestDropAndSelect(t *testing.T) {
	w := mustTable(t, []string{"A", "B"}, []string{"x", "y", "z"}, []float64{1, 2, 3, 4, 5, 6})

	dropped, err := w.Drop("y")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "z"}, dropped.Topics())
	assert.False(t, dropped.HasColumn("y"))
	col, err := dropped.Column("z")
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 6}, col)

	_, err = w.Drop("missing")
	assert.Error(t, err)

	sel, err := w.Select([]string{"z", "x"})
	require.NoError(t, err)
	row, err := sel.Row("B")
	require.NoError(t, err)
	assert.Equal(t, []float64{6, 4}, row)

	rows, err := w.SelectRows([]string{"B"})
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, rows.Groups())

	// the source table is unchanged
	assert.Equal(t, []string{"x", "y", "z"}, w.Topics())
}

func TestAtUnknownLabels(t *testing.T) {
	w := mustTable(t, []string{"A"}, []string{"x"}, []float64{1})
	_, ok := w.At("B", "x")
	assert.False(t, ok)
	_, ok = w.At("A", "y")
	assert.False(t, ok)
}

func TestStackUnionsColumns(t *testing.T) {
	a := mustTable(t, []string{"A"}, []string{"x", "y"}, []float64{1, 2})
	b := mustTable(t, []string{"B"}, []string{"y", "z"}, []float64{3, 4})

	s, err := Stack(a, b, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, s.Groups())
	assert.Equal(t, []string{"x", "y", "z"}, s.Topics())

	v, _ := s.At("B", "y")
	assert.Equal(t, 3.0, v)
	v, _ = s.At("A", "z")
	assert.True(t, math.IsNaN(v))
	v, _ = s.At("B", "x")
	assert.True(t, math.IsNaN(v))
}

func TestStackRejectsDuplicateGroups(t *testing.T) {
	a := mustTable(t, []string{"A"}, []string{"x"}, []float64{1})
	_, err := Stack(a, a, "")
	assert.Error(t, err)
}

func TestStackRenamesSharedGroups(t *testing.T) {
	a := mustTable(t, []string{"Alle", "A"}, []string{"x"}, []float64{1, 2})
	b := mustTable(t, []string{"Alle", "B"}, []string{"x"}, []float64{3, 4})

	s, err := Stack(a, b, " (b)")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alle", "A", "Alle (b)", "B"}, s.Groups())

	v, _ := s.At("Alle", "x")
	assert.Equal(t, 1.0, v)
	v, _ = s.At("Alle (b)", "x")
	assert.Equal(t, 3.0, v)

	// A renamed label that still collides is an error.
	c := mustTable(t, []string{"Alle", "Alle (b)"}, []string{"x"}, []float64{1, 2})
	_, err = Stack(c, b, " (b)")
	assert.Error(t, err)
}

func TestReorder(t *testing.T) {
	w := mustTable(t, []string{"A"}, []string{"x", "y"}, []float64{1, 2})

	r, err := w.Reorder([]string{"y", "x"})
	require.NoError(t, err)
	row, _ := r.Row("A")
	assert.Equal(t, []float64{2, 1}, row)

	_, err = w.Reorder([]string{"y", "z"})
	var sm *errors.SchemaMismatchError
	require.True(t, errors.As(err, &sm))
	assert.Equal(t, []string{"z"}, sm.OnlyTrain)
	assert.Equal(t, []string{"x"}, sm.OnlyTest)
}
