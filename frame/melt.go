package frame

import "math"

// Melt unpivots the table to long rows in row-major order. Absent cells
// are omitted, so Pivot(Melt(w), MeanAggregate) reproduces w.
func Melt(w *WideTable) []LongRow {
	rows := make([]LongRow, 0, len(w.groups)*len(w.topics))
	for i, g := range w.groups {
		for j, t := range w.topics {
			v := w.data.At(i, j)
			if math.IsNaN(v) {
				continue
			}
			rows = append(rows, LongRow{Group: g, Topic: t, Value: v})
		}
	}
	return rows
}
