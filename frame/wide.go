// Package frame holds the wide group × topic feature tables.
package frame

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/surveyboost/pkg/errors"
)

// WideTable has one row per group and one column per topic. NaN marks an
// absent cell. Tables are immutable; every operation returns a new table.
type WideTable struct {
	groups     []string
	topics     []string
	data       *mat.Dense
	groupIndex map[string]int
	topicIndex map[string]int
}

// NewWideTable builds a table over data (rows = groups, cols = topics).
// data is copied.
func NewWideTable(groups, topics []string, data mat.Matrix) (*WideTable, error) {
	r, c := 0, 0
	if data != nil {
		r, c = data.Dims()
	}
	if r != len(groups) {
		return nil, errors.NewDimensionError("NewWideTable", len(groups), r, 0)
	}
	if c != len(topics) {
		return nil, errors.NewDimensionError("NewWideTable", len(topics), c, 1)
	}

	w := &WideTable{
		groups:     append([]string(nil), groups...),
		topics:     append([]string(nil), topics...),
		groupIndex: make(map[string]int, len(groups)),
		topicIndex: make(map[string]int, len(topics)),
	}
	for i, g := range groups {
		if _, dup := w.groupIndex[g]; dup {
			return nil, errors.NewValidationError("group", "duplicate group in row index", g)
		}
		w.groupIndex[g] = i
	}
	for j, t := range topics {
		if _, dup := w.topicIndex[t]; dup {
			return nil, errors.NewValidationError("topic", "duplicate topic column", t)
		}
		w.topicIndex[t] = j
	}
	if r > 0 && c > 0 {
		w.data = mat.DenseCopyOf(data)
	}
	return w, nil
}

// Dims returns (groups, topics).
func (w *WideTable) Dims() (int, int) {
	return len(w.groups), len(w.topics)
}

// Groups returns the row index.
func (w *WideTable) Groups() []string {
	return append([]string(nil), w.groups...)
}

// Topics returns the column names.
func (w *WideTable) Topics() []string {
	return append([]string(nil), w.topics...)
}

// HasColumn reports whether topic is a column.
func (w *WideTable) HasColumn(topic string) bool {
	_, ok := w.topicIndex[topic]
	return ok
}

// At returns the cell for (group, topic). ok is false when either label is
// unknown; an absent cell returns NaN with ok true.
func (w *WideTable) At(group, topic string) (v float64, ok bool) {
	i, okG := w.groupIndex[group]
	j, okT := w.topicIndex[topic]
	if !okG || !okT {
		return math.NaN(), false
	}
	return w.data.At(i, j), true
}

// Matrix returns a copy of the cells.
func (w *WideTable) Matrix() *mat.Dense {
	if w.data == nil {
		return &mat.Dense{}
	}
	return mat.DenseCopyOf(w.data)
}

// Column returns a copy of one topic column.
func (w *WideTable) Column(topic string) ([]float64, error) {
	j, ok := w.topicIndex[topic]
	if !ok {
		return nil, errors.NewValidationError("column", "unknown topic column", topic)
	}
	if w.data == nil {
		return []float64{}, nil
	}
	return mat.Col(nil, j, w.data), nil
}

// Row returns a copy of one group row.
func (w *WideTable) Row(group string) ([]float64, error) {
	i, ok := w.groupIndex[group]
	if !ok {
		return nil, errors.NewValidationError("group", "unknown group", group)
	}
	if w.data == nil {
		return []float64{}, nil
	}
	return mat.Row(nil, i, w.data), nil
}

// Drop returns the table without topic.
func (w *WideTable) Drop(topic string) (*WideTable, error) {
	if !w.HasColumn(topic) {
		return nil, errors.NewValidationError("column", "unknown topic column", topic)
	}
	keep := make([]string, 0, len(w.topics)-1)
	for _, t := range w.topics {
		if t != topic {
			keep = append(keep, t)
		}
	}
	return w.Select(keep)
}

// Select returns the given columns in the given order.
func (w *WideTable) Select(topics []string) (*WideTable, error) {
	idx := make([]int, len(topics))
	for k, t := range topics {
		j, ok := w.topicIndex[t]
		if !ok {
			return nil, errors.NewValidationError("column", "unknown topic column", t)
		}
		idx[k] = j
	}
	out := mat.NewDense(max(len(w.groups), 1), max(len(topics), 1), nil)
	for i := range w.groups {
		for k, j := range idx {
			out.Set(i, k, w.data.At(i, j))
		}
	}
	return NewWideTable(w.groups, topics, trim(out, len(w.groups), len(topics)))
}

// SelectRows returns the given groups in the given order.
func (w *WideTable) SelectRows(groups []string) (*WideTable, error) {
	out := mat.NewDense(max(len(groups), 1), max(len(w.topics), 1), nil)
	for k, g := range groups {
		i, ok := w.groupIndex[g]
		if !ok {
			return nil, errors.NewValidationError("group", "unknown group", g)
		}
		for j := range w.topics {
			out.Set(k, j, w.data.At(i, j))
		}
	}
	return NewWideTable(groups, w.topics, trim(out, len(groups), len(w.topics)))
}

// MissingCells lists every NaN cell in row-major order.
func (w *WideTable) MissingCells() []errors.Cell {
	var missing []errors.Cell
	for i, g := range w.groups {
		for j, t := range w.topics {
			if math.IsNaN(w.data.At(i, j)) {
				missing = append(missing, errors.Cell{Row: g, Column: t})
			}
		}
	}
	return missing
}

// Complete returns a ShapeError when any cell is absent.
func (w *WideTable) Complete() error {
	if missing := w.MissingCells(); len(missing) > 0 {
		return errors.NewShapeError("pivot", missing)
	}
	return nil
}

// Stack concatenates the rows of a and b. The column set is the union:
// a's columns first, then b's new columns in b's order. Cells a table does
// not have are NaN. A group of b that already names a row of a is renamed
// with suffix appended; with an empty suffix the duplicate is rejected.
func Stack(a, b *WideTable, suffix string) (*WideTable, error) {
	topics := a.Topics()
	for _, t := range b.topics {
		if !a.HasColumn(t) {
			topics = append(topics, t)
		}
	}
	groups := a.Groups()
	for _, g := range b.groups {
		if _, taken := a.groupIndex[g]; taken && suffix != "" {
			g += suffix
		}
		groups = append(groups, g)
	}

	out := mat.NewDense(max(len(groups), 1), max(len(topics), 1), nil)
	for k := range groups {
		src, i := a, k
		if k >= len(a.groups) {
			src, i = b, k-len(a.groups)
		}
		for j, t := range topics {
			v := math.NaN()
			if sj, ok := src.topicIndex[t]; ok {
				v = src.data.At(i, sj)
			}
			out.Set(k, j, v)
		}
	}
	return NewWideTable(groups, topics, trim(out, len(groups), len(topics)))
}

// trim drops the placeholder row/column used for empty shapes, since
// gonum cannot allocate a zero-sized Dense.
func trim(m *mat.Dense, r, c int) mat.Matrix {
	if r == 0 || c == 0 {
		return emptyMatrix{r: r, c: c}
	}
	return m
}

type emptyMatrix struct{ r, c int }

func (e emptyMatrix) Dims() (int, int)    { return e.r, e.c }
func (e emptyMatrix) At(int, int) float64 { panic(mat.ErrIndexOutOfRange) }
func (e emptyMatrix) T() mat.Matrix       { return emptyMatrix{r: e.c, c: e.r} }

// Reorder returns the table with its columns in the order of topics, which
// must be the same set as the table's columns.
func (w *WideTable) Reorder(topics []string) (*WideTable, error) {
	want := make(map[string]bool, len(topics))
	var onlyWant, onlyHave []string
	for _, t := range topics {
		want[t] = true
		if !w.HasColumn(t) {
			onlyWant = append(onlyWant, t)
		}
	}
	for _, t := range w.topics {
		if !want[t] {
			onlyHave = append(onlyHave, t)
		}
	}
	if len(onlyWant) > 0 || len(onlyHave) > 0 || len(topics) != len(w.topics) {
		return nil, errors.NewSchemaMismatchError(onlyWant, onlyHave)
	}
	return w.Select(topics)
}
