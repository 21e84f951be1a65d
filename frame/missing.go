package frame

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/surveyboost/pkg/errors"
	"github.com/YuminosukeSato/surveyboost/pkg/log"
)

// MissingPolicy decides what happens to absent pivot cells.
type MissingPolicy string

const (
	// MissingFail rejects the table with a ShapeError listing every absent cell.
	MissingFail MissingPolicy = "fail"
	// MissingDrop removes every group that has an absent cell.
	MissingDrop MissingPolicy = "drop"
	// MissingImputeMean fills absent cells with the column mean.
	MissingImputeMean MissingPolicy = "impute_mean"
)

// ParseMissingPolicy converts a configuration value. The empty string
// selects MissingFail.
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch p := MissingPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return MissingFail, nil
	case MissingFail, MissingDrop, MissingImputeMean:
		return p, nil
	default:
		return "", errors.NewValidationError("missing_policy", "must be one of fail, drop, impute_mean", s)
	}
}

// ResolveMissing applies policy to w and returns a table without NaN cells.
// A complete table is returned unchanged.
func ResolveMissing(w *WideTable, policy MissingPolicy) (*WideTable, error) {
	missing := w.MissingCells()
	if len(missing) == 0 {
		return w, nil
	}

	logger := log.GetLoggerWithName("frame.missing")
	switch policy {
	case MissingFail, "":
		return nil, errors.NewShapeError("pivot", missing)

	case MissingDrop:
		incomplete := make(map[string]bool)
		for _, c := range missing {
			incomplete[c.Row] = true
		}
		keep := make([]string, 0, len(w.groups))
		for _, g := range w.groups {
			if !incomplete[g] {
				keep = append(keep, g)
			}
		}
		if len(keep) == 0 {
			return nil, errors.NewShapeError("pivot", missing)
		}
		errors.Warn(errors.NewDataConversionWarning("pivot", "complete rows",
			fmt.Sprintf("dropped %d of %d groups with absent cells", len(incomplete), len(w.groups))))
		logger.Info("Dropped incomplete groups", log.GroupsKey, len(incomplete))
		return w.SelectRows(keep)

	case MissingImputeMean:
		rows, cols := w.Dims()
		out := mat.DenseCopyOf(w.data)
		for j := 0; j < cols; j++ {
			var sum float64
			var n int
			for i := 0; i < rows; i++ {
				if v := out.At(i, j); !math.IsNaN(v) {
					sum += v
					n++
				}
			}
			if n == 0 {
				return nil, errors.NewValueError("ResolveMissing",
					fmt.Sprintf("column %q has no values to impute from", w.topics[j]))
			}
			mean := sum / float64(n)
			for i := 0; i < rows; i++ {
				if math.IsNaN(out.At(i, j)) {
					out.Set(i, j, mean)
				}
			}
		}
		errors.Warn(errors.NewDataConversionWarning("pivot", "imputed",
			fmt.Sprintf("filled %d absent cells with column means", len(missing))))
		logger.Info("Imputed absent cells", "cells", len(missing))
		return NewWideTable(w.groups, w.topics, out)

	default:
		return nil, errors.NewValidationError("missing_policy", "unknown policy", string(policy))
	}
}
