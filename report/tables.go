// Package report renders pipeline results as text tables, a JSON summary
// and PNG plots.
package report

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/YuminosukeSato/surveyboost/analysis"
	"github.com/YuminosukeSato/surveyboost/explain"
	"github.com/YuminosukeSato/surveyboost/sklearn/boost"
	"github.com/YuminosukeSato/surveyboost/survey"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// WriteCleanStats prints the row counts kept per dataset.
func WriteCleanStats(w io.Writer, stats map[string]survey.CleanStats) error {
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := newTable(w)
	fmt.Fprintln(tw, "DATASET\tROWS\tKEPT\tDROPPED\tDROPPED GROUPS")
	for _, name := range names {
		s := stats[name]
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%v\n", name, s.Rows, s.Kept, s.Dropped, s.DroppedGroups)
	}
	return tw.Flush()
}

// WritePairs prints correlation pairs.
func WritePairs(w io.Writer, pairs []analysis.Pair) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "TOPIC A\tTOPIC B\tR")
	for _, p := range pairs {
		fmt.Fprintf(tw, "%s\t%s\t%+.3f\n", p.A, p.B, p.R)
	}
	return tw.Flush()
}

// WriteDendrogram prints the merge steps and the leaf order.
func WriteDendrogram(w io.Writer, d *analysis.Dendrogram) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "STEP\tLEFT\tRIGHT\tDISTANCE\tSIZE")
	for i, m := range d.Merges {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.4f\t%d\n", i, nodeName(d, m.Left), nodeName(d, m.Right), m.Distance, m.Size)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "leaf order: %v\n", d.OrderedLabels())
	return err
}

func nodeName(d *analysis.Dendrogram, id int) string {
	if id < len(d.Labels) {
		return d.Labels[id]
	}
	return fmt.Sprintf("#%d", id)
}

// WriteParams prints hyperparameters in name order.
func WriteParams(w io.Writer, params map[string]float64) error {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := newTable(w)
	fmt.Fprintln(tw, "PARAMETER\tVALUE")
	for _, name := range names {
		fmt.Fprintf(tw, "%s\t%g\n", name, params[name])
	}
	return tw.Flush()
}

// WriteEvals prints the first, best and final RMSE of each eval set and
// the overfitting verdict.
func WriteEvals(w io.Writer, evals boost.EvalsResult, overfit boost.OverfitReport) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "SET\tROUNDS\tFIRST\tBEST\tBEST ROUND\tFINAL")
	for _, set := range evals.Sets() {
		curve := evals[set][boost.MetricRMSE]
		if len(curve) == 0 {
			continue
		}
		best, bestRound := curve[0], 0
		for i, v := range curve {
			if v < best {
				best, bestRound = v, i
			}
		}
		fmt.Fprintf(tw, "%s\t%d\t%.4f\t%.4f\t%d\t%.4f\n", set, len(curve), curve[0], best, bestRound, curve[len(curve)-1])
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	verdict := "no overfitting signal"
	if overfit.Overfitting {
		verdict = "OVERFITTING: test error rises while train error falls"
	}
	_, err := fmt.Fprintf(w, "last %d rounds: train %+.4f, test %+.4f (%s)\n",
		overfit.Window, overfit.TrainDelta, overfit.TestDelta, verdict)
	return err
}

// WriteImportance prints the SHAP ranking.
func WriteImportance(w io.Writer, top []explain.Importance) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "RANK\tFEATURE\tMEAN |SHAP|")
	for i, imp := range top {
		fmt.Fprintf(tw, "%d\t%s\t%.4f\n", i+1, imp.Feature, imp.MeanAbs)
	}
	return tw.Flush()
}

// WriteWaterfall prints one decomposed prediction.
func WriteWaterfall(w io.Writer, wf *explain.Waterfall) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "group\t%s\t\n", wf.Group)
	fmt.Fprintf(tw, "base value\t\t%.4f\n", wf.Base)
	cum := wf.Cumulative()
	for i, c := range wf.Contributions {
		fmt.Fprintf(tw, "%s = %.2f\t%+.4f\t%.4f\n", c.Feature, c.Value, c.SHAP, cum[i])
	}
	fmt.Fprintf(tw, "prediction\t\t%.4f\n", wf.Prediction)
	fmt.Fprintf(tw, "actual\t\t%.4f\n", wf.Actual)
	return tw.Flush()
}

// WriteRMSE prints the train and test RMSE next to the mean-predictor
// baseline on the training rows.
func WriteRMSE(w io.Writer, train, test, baseline float64) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "SET\tRMSE")
	fmt.Fprintf(tw, "train\t%.4f\n", train)
	fmt.Fprintf(tw, "test\t%.4f\n", test)
	fmt.Fprintf(tw, "train (mean predictor)\t%.4f\n", baseline)
	return tw.Flush()
}
