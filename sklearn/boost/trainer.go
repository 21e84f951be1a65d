package boost

import (
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/surveyboost/metrics"
	"github.com/YuminosukeSato/surveyboost/pkg/errors"
	"github.com/YuminosukeSato/surveyboost/pkg/log"
)

// EvalSet is a named dataset scored after every round.
type EvalSet struct {
	Name string
	X    *mat.Dense
	Y    []float64
}

// Trainer implements second-order gradient boosting with exact greedy splits.
type Trainer struct {
	params Params

	X    *mat.Dense
	y    []float64
	rows int
	cols int

	gradients []float64
	hessians  []float64
	preds     []float64

	evalSets  []EvalSet
	evalPreds [][]float64

	trees     []Tree
	objective ObjectiveFunction
	initScore float64
	rng       *rand.Rand

	featureNames []string
	callbacks    *CallbackList
	logger       log.Logger
}

// SplitInfo describes a candidate split.
type SplitInfo struct {
	Feature   int
	Threshold float64
	Gain      float64
	LeftGrad  float64
	LeftHess  float64
	RightGrad float64
	RightHess float64
}

// NewTrainer creates a trainer for the squared-error objective.
func NewTrainer(params Params) *Trainer {
	return &Trainer{
		params:    params,
		objective: NewSquaredError(),
		callbacks: NewCallbackList(),
		logger:    log.GetLoggerWithName("boost.trainer"),
	}
}

// WithCallbacks sets the per-round callbacks.
func (t *Trainer) WithCallbacks(callbacks ...Callback) *Trainer {
	t.callbacks = NewCallbackList(callbacks...)
	return t
}

// WithEvalSets registers datasets scored after every round.
func (t *Trainer) WithEvalSets(sets ...EvalSet) *Trainer {
	t.evalSets = sets
	return t
}

// WithFeatureNames records column names on the fitted model.
func (t *Trainer) WithFeatureNames(names []string) *Trainer {
	t.featureNames = names
	return t
}

// Fit trains the ensemble on X and y.
func (t *Trainer) Fit(X *mat.Dense, y []float64) error {
	if err := t.params.Validate(); err != nil {
		return err
	}
	t.X = X
	t.y = y
	t.rows, t.cols = X.Dims()
	if t.rows == 0 || t.cols == 0 {
		return errors.ErrEmptyData
	}
	if len(y) != t.rows {
		return errors.NewDimensionError("Fit", t.rows, len(y), 0)
	}
	for _, es := range t.evalSets {
		r, c := es.X.Dims()
		if c != t.cols {
			return errors.NewDimensionError("Fit eval set "+es.Name, t.cols, c, 1)
		}
		if len(es.Y) != r {
			return errors.NewDimensionError("Fit eval set "+es.Name, r, len(es.Y), 0)
		}
	}

	t.initialize()

	start := time.Now()
	t.logger.Debug("Training started",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, t.rows,
		log.FeaturesKey, t.cols,
		log.HyperParamsKey, t.params.GetParams(),
	)

	for iter := 0; iter < t.params.NEstimators; iter++ {
		t.callbacks.BeforeIteration(iter)

		t.calculateGradients()
		tree := t.buildTree(t.sampleFeatures())
		t.trees = append(t.trees, tree)
		t.updatePredictions(&tree)

		results, err := t.evaluate(iter)
		if err != nil {
			return err
		}
		if err := t.callbacks.AfterIteration(iter, t.GetModel(), results); err != nil {
			return errors.Wrapf(err, "callback error at iteration %d", iter)
		}
		if t.callbacks.ShouldStop() {
			t.logger.Debug("Training stopped by callback", log.IterationKey, iter)
			break
		}
	}

	t.logger.Debug("Training finished",
		"trees", len(t.trees),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

func (t *Trainer) initialize() {
	t.initScore = t.objective.GetInitScore(t.y)
	t.gradients = make([]float64, t.rows)
	t.hessians = make([]float64, t.rows)
	t.preds = make([]float64, t.rows)
	for i := range t.preds {
		t.preds[i] = t.initScore
	}

	t.evalPreds = make([][]float64, len(t.evalSets))
	for k, es := range t.evalSets {
		t.evalPreds[k] = make([]float64, len(es.Y))
		for i := range t.evalPreds[k] {
			t.evalPreds[k][i] = t.initScore
		}
	}

	t.trees = t.trees[:0]
	t.rng = rand.New(rand.NewPCG(t.params.Seed, t.params.Seed))
}

func (t *Trainer) calculateGradients() {
	for i := 0; i < t.rows; i++ {
		t.gradients[i] = t.objective.CalculateGradient(t.preds[i], t.y[i])
		t.hessians[i] = t.objective.CalculateHessian(t.preds[i], t.y[i])
	}
}

// sampleFeatures draws the column subset for one tree. At least one
// column is always kept and the subset is returned in column order.
func (t *Trainer) sampleFeatures() []int {
	k := int(t.params.ColsampleBytree * float64(t.cols))
	if k < 1 {
		k = 1
	}
	if k >= t.cols {
		all := make([]int, t.cols)
		for j := range all {
			all[j] = j
		}
		return all
	}
	features := t.rng.Perm(t.cols)[:k]
	sort.Ints(features)
	return features
}

func (t *Trainer) buildTree(features []int) Tree {
	tree := Tree{ShrinkageRate: t.params.LearningRate}
	indices := make([]int, t.rows)
	for i := range indices {
		indices[i] = i
	}
	t.buildNode(&tree, indices, 0, features)
	return tree
}

// buildNode grows the subtree for indices and returns its node index.
func (t *Trainer) buildNode(tree *Tree, indices []int, depth int, features []int) int {
	nodeIdx := len(tree.Nodes)

	var sumGrad, sumHess float64
	for _, idx := range indices {
		sumGrad += t.gradients[idx]
		sumHess += t.hessians[idx]
	}

	tree.Nodes = append(tree.Nodes, Node{
		Left:      -1,
		Right:     -1,
		Feature:   -1,
		Cover:     sumHess,
		LeafValue: t.leafWeight(sumGrad, sumHess),
	})

	if depth >= t.params.MaxDepth || len(indices) < 2 {
		return nodeIdx
	}

	best := t.findBestSplit(indices, features, sumGrad, sumHess)
	if best.Feature < 0 || best.Gain <= 0 {
		return nodeIdx
	}

	leftIndices, rightIndices := t.splitData(indices, best)

	tree.Nodes[nodeIdx].Feature = best.Feature
	tree.Nodes[nodeIdx].Threshold = best.Threshold
	tree.Nodes[nodeIdx].Gain = best.Gain
	tree.Nodes[nodeIdx].LeafValue = 0

	left := t.buildNode(tree, leftIndices, depth+1, features)
	right := t.buildNode(tree, rightIndices, depth+1, features)
	tree.Nodes[nodeIdx].Left = left
	tree.Nodes[nodeIdx].Right = right

	return nodeIdx
}

func (t *Trainer) findBestSplit(indices, features []int, sumGrad, sumHess float64) SplitInfo {
	best := SplitInfo{Feature: -1, Gain: math.Inf(-1)}
	for _, f := range features {
		split := t.findBestSplitForFeature(indices, f, sumGrad, sumHess)
		if split.Gain > best.Gain {
			best = split
		}
	}
	return best
}

type featureValue struct {
	value float64
	idx   int
}

func (t *Trainer) findBestSplitForFeature(indices []int, feature int, totalGrad, totalHess float64) SplitInfo {
	values := make([]featureValue, len(indices))
	for i, idx := range indices {
		values[i] = featureValue{value: t.X.At(idx, feature), idx: idx}
	}
	sort.SliceStable(values, func(i, j int) bool {
		return values[i].value < values[j].value
	})

	best := SplitInfo{Feature: -1, Gain: math.Inf(-1)}

	var leftGrad, leftHess float64
	for i := 0; i < len(values)-1; i++ {
		leftGrad += t.gradients[values[i].idx]
		leftHess += t.hessians[values[i].idx]

		if values[i].value == values[i+1].value {
			continue
		}

		rightGrad := totalGrad - leftGrad
		rightHess := totalHess - leftHess
		if leftHess < t.params.MinChildWeight || rightHess < t.params.MinChildWeight {
			continue
		}

		gain := t.calculateSplitGain(leftGrad, leftHess, rightGrad, rightHess, totalGrad, totalHess)
		if gain > best.Gain {
			best = SplitInfo{
				Feature:   feature,
				Threshold: (values[i].value + values[i+1].value) / 2,
				Gain:      gain,
				LeftGrad:  leftGrad,
				LeftHess:  leftHess,
				RightGrad: rightGrad,
				RightHess: rightHess,
			}
		}
	}
	return best
}

// calculateSplitGain is the regularised loss reduction of a split minus gamma.
func (t *Trainer) calculateSplitGain(leftGrad, leftHess, rightGrad, rightHess, totalGrad, totalHess float64) float64 {
	return 0.5*(t.score(leftGrad, leftHess)+t.score(rightGrad, rightHess)-t.score(totalGrad, totalHess)) - t.params.Gamma
}

func (t *Trainer) score(g, h float64) float64 {
	tg := thresholdL1(g, t.params.RegAlpha)
	return errors.SafeDivide(tg*tg, h+t.params.RegLambda)
}

// leafWeight is the optimal leaf value -T(G)/(H+lambda).
func (t *Trainer) leafWeight(g, h float64) float64 {
	return -errors.SafeDivide(thresholdL1(g, t.params.RegAlpha), h+t.params.RegLambda)
}

// thresholdL1 is the soft-thresholding operator for L1 regularisation.
func thresholdL1(g, alpha float64) float64 {
	switch {
	case g > alpha:
		return g - alpha
	case g < -alpha:
		return g + alpha
	default:
		return 0
	}
}

func (t *Trainer) splitData(indices []int, split SplitInfo) ([]int, []int) {
	var leftIndices, rightIndices []int
	for _, idx := range indices {
		if t.X.At(idx, split.Feature) <= split.Threshold {
			leftIndices = append(leftIndices, idx)
		} else {
			rightIndices = append(rightIndices, idx)
		}
	}
	return leftIndices, rightIndices
}

func (t *Trainer) updatePredictions(tree *Tree) {
	row := make([]float64, t.cols)
	for i := 0; i < t.rows; i++ {
		mat.Row(row, i, t.X)
		t.preds[i] += tree.Predict(row)
	}
	for k, es := range t.evalSets {
		for i := range t.evalPreds[k] {
			mat.Row(row, i, es.X)
			t.evalPreds[k][i] += tree.Predict(row)
		}
	}
}

func (t *Trainer) evaluate(iter int) (map[string]map[string]float64, error) {
	results := make(map[string]map[string]float64, len(t.evalSets))
	for k, es := range t.evalSets {
		rmse, err := metrics.RMSESlice(es.Y, t.evalPreds[k])
		if err != nil {
			return nil, err
		}
		if err := errors.CheckScalar("rmse/"+es.Name, rmse, iter); err != nil {
			return nil, err
		}
		results[es.Name] = map[string]float64{MetricRMSE: rmse}
	}
	return results, nil
}

// TrainingPredictions returns the cached predictions for the training rows.
func (t *Trainer) TrainingPredictions() []float64 {
	out := make([]float64, len(t.preds))
	copy(out, t.preds)
	return out
}

// BestIteration returns the best round (0-based).
func (t *Trainer) BestIteration() int {
	return t.callbacks.BestIteration()
}

// GetModel returns the current ensemble.
func (t *Trainer) GetModel() *Model {
	trees := make([]Tree, len(t.trees))
	copy(trees, t.trees)
	return &Model{
		InitScore:    t.initScore,
		Trees:        trees,
		NumFeatures:  t.cols,
		FeatureNames: t.featureNames,
		Objective:    t.objective.Name(),
		Params:       t.params,
	}
}
