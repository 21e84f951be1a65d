package report

import (
	"image/color"
	"math"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/surveyboost/analysis"
	"github.com/YuminosukeSato/surveyboost/explain"
	"github.com/YuminosukeSato/surveyboost/pkg/errors"
	"github.com/YuminosukeSato/surveyboost/sklearn/boost"
)

var (
	positiveColor = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	negativeColor = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
)

func save(p *plot.Plot, w, h vg.Length, path string) error {
	if err := p.Save(w, h, path); err != nil {
		return errors.NewIOError("save plot", path, err)
	}
	return nil
}

// CorrelationHeatmap draws the correlation matrix on a blue-red scale
// fixed to [-1, 1].
func CorrelationHeatmap(path string, c *analysis.Correlation) error {
	if c.Len() == 0 {
		return errors.ErrEmptyData
	}
	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(-1)
	cmap.SetMax(1)

	hm := plotter.NewHeatMap(corrGrid{c}, cmap.Palette(255))
	hm.Min, hm.Max = -1, 1
	hm.NaN = color.Gray{Y: 0xcc}

	p := plot.New()
	p.Title.Text = "Topic correlation"
	p.Add(hm)
	ticks := labelTicks(c.Labels)
	p.X.Tick.Marker = ticks
	p.Y.Tick.Marker = ticks
	rotate(&p.X.Tick.Label)

	side := vg.Length(3+0.35*float64(c.Len())) * vg.Inch
	return save(p, side, side, path)
}

type corrGrid struct{ c *analysis.Correlation }

func (g corrGrid) Dims() (int, int)   { n := g.c.Len(); return n, n }
func (g corrGrid) Z(c, r int) float64 { return g.c.Values.At(r, c) }
func (g corrGrid) X(c int) float64    { return float64(c) }
func (g corrGrid) Y(r int) float64    { return float64(r) }

// DendrogramPlot draws the average-linkage tree with leaves along x.
func DendrogramPlot(path string, d *analysis.Dendrogram) error {
	n := len(d.Labels)
	if n == 0 {
		return errors.ErrEmptyData
	}
	xs := make([]float64, n+len(d.Merges))
	ys := make([]float64, n+len(d.Merges))
	for pos, leaf := range d.Order {
		xs[leaf] = float64(pos)
	}

	p := plot.New()
	p.Title.Text = "Topic clustering (average linkage, 1 - r)"
	p.Y.Label.Text = "distance"
	for k, m := range d.Merges {
		id := n + k
		xs[id] = (xs[m.Left] + xs[m.Right]) / 2
		ys[id] = m.Distance
		u, err := plotter.NewLine(plotter.XYs{
			{X: xs[m.Left], Y: ys[m.Left]},
			{X: xs[m.Left], Y: m.Distance},
			{X: xs[m.Right], Y: m.Distance},
			{X: xs[m.Right], Y: ys[m.Right]},
		})
		if err != nil {
			return errors.Wrap(err, "dendrogram segment")
		}
		u.LineStyle.Width = vg.Points(1.2)
		p.Add(u)
	}

	ordered := d.OrderedLabels()
	p.X.Tick.Marker = labelTicks(ordered)
	rotate(&p.X.Tick.Label)
	p.X.Min, p.X.Max = -0.5, float64(n)-0.5
	p.Y.Min = 0

	return save(p, vg.Length(4+0.3*float64(n))*vg.Inch, 5*vg.Inch, path)
}

// LearningCurves draws RMSE per boosting round for every eval set.
func LearningCurves(path string, evals boost.EvalsResult) error {
	sets := evals.Sets()
	if len(sets) == 0 {
		return errors.ErrEmptyData
	}
	p := plot.New()
	p.Title.Text = "Learning curves"
	p.X.Label.Text = "boosting round"
	p.Y.Label.Text = "RMSE"
	p.Add(plotter.NewGrid())

	var lines []interface{}
	for _, set := range sets {
		curve := evals[set][boost.MetricRMSE]
		xys := make(plotter.XYs, len(curve))
		for i, v := range curve {
			xys[i] = plotter.XY{X: float64(i + 1), Y: v}
		}
		lines = append(lines, set, xys)
	}
	if err := plotutil.AddLinePoints(p, lines...); err != nil {
		return errors.Wrap(err, "learning curves")
	}
	return save(p, 6*vg.Inch, 4*vg.Inch, path)
}

// SearchConvergence draws the best loss found after each trial.
func SearchConvergence(path string, bestSoFar []float64) error {
	if len(bestSoFar) == 0 {
		return errors.ErrEmptyData
	}
	var xys plotter.XYs
	for i, v := range bestSoFar {
		if math.IsInf(v, 0) {
			continue
		}
		xys = append(xys, plotter.XY{X: float64(i + 1), Y: v})
	}
	p := plot.New()
	p.Title.Text = "Hyperparameter search"
	p.X.Label.Text = "trial"
	p.Y.Label.Text = "best CV RMSE"
	if err := plotutil.AddLines(p, "best so far", xys); err != nil {
		return errors.Wrap(err, "search convergence")
	}
	return save(p, 6*vg.Inch, 4*vg.Inch, path)
}

// SHAPBar draws the mean |SHAP| ranking with the strongest feature on top.
func SHAPBar(path string, top []explain.Importance) error {
	if len(top) == 0 {
		return errors.ErrEmptyData
	}
	n := len(top)
	values := make(plotter.Values, n)
	names := make([]string, n)
	for i, imp := range top {
		values[n-1-i] = imp.MeanAbs
		names[n-1-i] = imp.Feature
	}
	bars, err := plotter.NewBarChart(values, vg.Points(14))
	if err != nil {
		return errors.Wrap(err, "shap bars")
	}
	bars.Horizontal = true
	bars.Color = positiveColor
	bars.LineStyle.Width = 0

	p := plot.New()
	p.Title.Text = "Mean |SHAP value|"
	p.Add(bars)
	p.NominalY(names...)
	return save(p, 7*vg.Inch, vg.Length(1.5+0.3*float64(n))*vg.Inch, path)
}

// WaterfallPlot draws one prediction as floating bars from the base value,
// red for contributions that raise the prediction and blue for those that
// lower it.
func WaterfallPlot(path string, wf *explain.Waterfall) error {
	n := len(wf.Contributions)
	if n == 0 {
		return errors.ErrEmptyData
	}
	base := make(plotter.Values, n)
	up := make(plotter.Values, n)
	down := make(plotter.Values, n)
	names := make([]string, n)

	lo, hi := wf.Base, wf.Base
	start := wf.Base
	for i, c := range wf.Contributions {
		row := n - 1 - i
		end := start + c.SHAP
		base[row] = math.Min(start, end)
		if c.SHAP >= 0 {
			up[row] = c.SHAP
		} else {
			down[row] = -c.SHAP
		}
		names[row] = c.Feature
		lo, hi = math.Min(lo, end), math.Max(hi, end)
		start = end
	}

	baseBars, err := plotter.NewBarChart(base, vg.Points(14))
	if err != nil {
		return errors.Wrap(err, "waterfall bars")
	}
	baseBars.Horizontal = true
	baseBars.Color = color.Transparent
	baseBars.LineStyle.Width = 0

	upBars, err := plotter.NewBarChart(up, vg.Points(14))
	if err != nil {
		return errors.Wrap(err, "waterfall bars")
	}
	upBars.Horizontal = true
	upBars.Color = positiveColor
	upBars.LineStyle.Width = 0
	upBars.StackOn(baseBars)

	downBars, err := plotter.NewBarChart(down, vg.Points(14))
	if err != nil {
		return errors.Wrap(err, "waterfall bars")
	}
	downBars.Horizontal = true
	downBars.Color = negativeColor
	downBars.LineStyle.Width = 0
	downBars.StackOn(upBars)

	p := plot.New()
	p.Title.Text = "SHAP waterfall: " + wf.Group
	p.X.Label.Text = "predicted response (actual " + formatFloat(wf.Actual) + ")"
	p.Add(baseBars, upBars, downBars)
	p.NominalY(names...)
	pad := 0.05*(hi-lo) + 1e-9
	p.X.Min, p.X.Max = lo-pad, hi+pad

	return save(p, 7*vg.Inch, vg.Length(1.5+0.3*float64(n))*vg.Inch, path)
}

func labelTicks(labels []string) plot.ConstantTicks {
	ticks := make(plot.ConstantTicks, len(labels))
	for i, l := range labels {
		ticks[i] = plot.Tick{Value: float64(i), Label: l}
	}
	return ticks
}

func rotate(style *text.Style) {
	style.Rotation = math.Pi / 2
	style.XAlign = text.XRight
	style.YAlign = text.YCenter
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
