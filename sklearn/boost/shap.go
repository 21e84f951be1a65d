package boost

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/surveyboost/core/parallel"
	"github.com/YuminosukeSato/surveyboost/pkg/errors"
)

// SHAPValues holds per-sample feature attributions.
type SHAPValues struct {
	Values       *mat.Dense // samples × features
	BaseValue    float64    // expected model output over the training data
	FeatureNames []string
}

// RowSum returns BaseValue plus the attributions of row i, which equals the
// model prediction for that row.
func (s *SHAPValues) RowSum(i int) float64 {
	_, cols := s.Values.Dims()
	sum := s.BaseValue
	for j := 0; j < cols; j++ {
		sum += s.Values.At(i, j)
	}
	return sum
}

// MeanAbs returns the mean absolute attribution per feature.
func (s *SHAPValues) MeanAbs() []float64 {
	rows, cols := s.Values.Dims()
	out := make([]float64, cols)
	if rows == 0 {
		return out
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out[j] += math.Abs(s.Values.At(i, j))
		}
	}
	for j := range out {
		out[j] /= float64(rows)
	}
	return out
}

// TreeSHAP computes exact path-dependent SHAP values for the ensemble.
type TreeSHAP struct {
	model *Model
}

// NewTreeSHAP creates an explainer for m.
func NewTreeSHAP(m *Model) *TreeSHAP {
	return &TreeSHAP{model: m}
}

// BaseValue is the init score plus every tree's cover-weighted mean output.
func (ts *TreeSHAP) BaseValue() float64 {
	base := ts.model.InitScore
	for i := range ts.model.Trees {
		base += ts.model.Trees[i].ExpectedValue()
	}
	return base
}

// CalculateSHAP returns attributions for every row of X.
func (ts *TreeSHAP) CalculateSHAP(X mat.Matrix) (*SHAPValues, error) {
	if ts.model == nil {
		return nil, errors.NewNotFittedError("TreeSHAP", "CalculateSHAP")
	}
	rows, cols := X.Dims()
	if cols != ts.model.NumFeatures {
		return nil, errors.NewDimensionError("CalculateSHAP", ts.model.NumFeatures, cols, 1)
	}

	values := make([]float64, rows*cols)
	parallel.ParallelizeWithThreshold(rows, 16, func(start, end int) {
		sample := make([]float64, cols)
		for i := start; i < end; i++ {
			mat.Row(sample, i, X)
			phi := values[i*cols : (i+1)*cols]
			for t := range ts.model.Trees {
				tree := &ts.model.Trees[t]
				if tree.Nodes[0].IsLeaf() {
					continue
				}
				treeShap(tree, sample, phi, 0, 0, nil, 1, 1, -1)
			}
		}
	})

	return &SHAPValues{
		Values:       mat.NewDense(rows, cols, values),
		BaseValue:    ts.BaseValue(),
		FeatureNames: ts.model.FeatureNames,
	}, nil
}

// SHAP explains X with the fitted ensemble.
func (r *Regressor) SHAP(X mat.Matrix) (*SHAPValues, error) {
	if err := r.RequireFitted("Regressor", "SHAP"); err != nil {
		return nil, err
	}
	return NewTreeSHAP(r.model).CalculateSHAP(X)
}

// pathElement tracks one feature on the current root-to-node path.
type pathElement struct {
	featureIndex int
	zeroFraction float64
	oneFraction  float64
	pweight      float64
}

// treeShap recursively distributes leaf outputs over the features on the path
// (Lundberg et al., Algorithm 2).
func treeShap(tree *Tree, x, phi []float64, nodeIndex, uniqueDepth int,
	parentPath []pathElement, parentZero, parentOne float64, parentFeature int) {

	path := make([]pathElement, uniqueDepth+1)
	copy(path, parentPath[:uniqueDepth])
	extendPath(path, uniqueDepth, parentZero, parentOne, parentFeature)

	node := &tree.Nodes[nodeIndex]
	if node.IsLeaf() {
		leafValue := node.LeafValue * tree.ShrinkageRate
		for i := 1; i <= uniqueDepth; i++ {
			w := unwoundPathSum(path, uniqueDepth, i)
			el := path[i]
			phi[el.featureIndex] += w * (el.oneFraction - el.zeroFraction) * leafValue
		}
		return
	}

	hot, cold := node.Right, node.Left
	if x[node.Feature] <= node.Threshold {
		hot, cold = node.Left, node.Right
	}
	var hotZero, coldZero float64
	if node.Cover > 0 {
		hotZero = tree.Nodes[hot].Cover / node.Cover
		coldZero = tree.Nodes[cold].Cover / node.Cover
	}

	incomingZero, incomingOne := 1.0, 1.0
	pathIndex := 0
	for ; pathIndex <= uniqueDepth; pathIndex++ {
		if path[pathIndex].featureIndex == node.Feature {
			break
		}
	}
	if pathIndex != uniqueDepth+1 {
		incomingZero = path[pathIndex].zeroFraction
		incomingOne = path[pathIndex].oneFraction
		unwindPath(path, uniqueDepth, pathIndex)
		uniqueDepth--
	}

	treeShap(tree, x, phi, hot, uniqueDepth+1, path, hotZero*incomingZero, incomingOne, node.Feature)
	treeShap(tree, x, phi, cold, uniqueDepth+1, path, coldZero*incomingZero, 0, node.Feature)
}

func extendPath(path []pathElement, uniqueDepth int, zeroFraction, oneFraction float64, featureIndex int) {
	path[uniqueDepth] = pathElement{
		featureIndex: featureIndex,
		zeroFraction: zeroFraction,
		oneFraction:  oneFraction,
	}
	if uniqueDepth == 0 {
		path[0].pweight = 1
	}
	d := float64(uniqueDepth + 1)
	for i := uniqueDepth - 1; i >= 0; i-- {
		path[i+1].pweight += oneFraction * path[i].pweight * float64(i+1) / d
		path[i].pweight = zeroFraction * path[i].pweight * float64(uniqueDepth-i) / d
	}
}

func unwindPath(path []pathElement, uniqueDepth, pathIndex int) {
	one := path[pathIndex].oneFraction
	zero := path[pathIndex].zeroFraction
	next := path[uniqueDepth].pweight
	d := float64(uniqueDepth + 1)

	for i := uniqueDepth - 1; i >= 0; i-- {
		if one != 0 {
			tmp := path[i].pweight
			path[i].pweight = next * d / (float64(i+1) * one)
			next = tmp - path[i].pweight*zero*float64(uniqueDepth-i)/d
		} else {
			path[i].pweight = path[i].pweight * d / (zero * float64(uniqueDepth-i))
		}
	}
	for i := pathIndex; i < uniqueDepth; i++ {
		path[i].featureIndex = path[i+1].featureIndex
		path[i].zeroFraction = path[i+1].zeroFraction
		path[i].oneFraction = path[i+1].oneFraction
	}
}

func unwoundPathSum(path []pathElement, uniqueDepth, pathIndex int) float64 {
	one := path[pathIndex].oneFraction
	zero := path[pathIndex].zeroFraction
	next := path[uniqueDepth].pweight
	d := float64(uniqueDepth + 1)

	var total float64
	for i := uniqueDepth - 1; i >= 0; i-- {
		if one != 0 {
			tmp := next * d / (float64(i+1) * one)
			total += tmp
			next = path[i].pweight - tmp*zero*float64(uniqueDepth-i)/d
		} else if zero != 0 {
			total += path[i].pweight / zero / (float64(uniqueDepth-i) / d)
		}
	}
	return total
}
