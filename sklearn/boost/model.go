package boost

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/surveyboost/core/model"
	"github.com/YuminosukeSato/surveyboost/core/parallel"
	"github.com/YuminosukeSato/surveyboost/pkg/errors"
)

// Node is a single node of a regression tree. Leaves have Left == Right == -1.
type Node struct {
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Gain      float64 `json:"gain"`
	// Cover is the hessian sum of the training rows reaching the node.
	// For squared error it equals the row count.
	Cover     float64 `json:"cover"`
	LeafValue float64 `json:"leaf_value"`
}

// IsLeaf reports whether the node is a leaf.
func (n *Node) IsLeaf() bool {
	return n.Left == -1 && n.Right == -1
}

// Tree is a regression tree stored as a flat node slice with the root at 0.
type Tree struct {
	Nodes         []Node  `json:"nodes"`
	ShrinkageRate float64 `json:"shrinkage_rate"`
}

// Predict returns the scaled leaf value reached by features.
// Rows go left when the value is <= the threshold.
func (t *Tree) Predict(features []float64) float64 {
	idx := 0
	for {
		node := &t.Nodes[idx]
		if node.IsLeaf() {
			return node.LeafValue * t.ShrinkageRate
		}
		if features[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
}

// ExpectedValue is the cover-weighted mean output of the tree.
func (t *Tree) ExpectedValue() float64 {
	root := t.Nodes[0].Cover
	if root == 0 {
		return 0
	}
	var sum float64
	for i := range t.Nodes {
		if t.Nodes[i].IsLeaf() {
			sum += t.Nodes[i].Cover * t.Nodes[i].LeafValue * t.ShrinkageRate
		}
	}
	return sum / root
}

// Depth returns the depth of the deepest leaf. A single leaf has depth 0.
func (t *Tree) Depth() int {
	var walk func(idx int) int
	walk = func(idx int) int {
		n := &t.Nodes[idx]
		if n.IsLeaf() {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return walk(0)
}

// NumLeaves counts the leaves.
func (t *Tree) NumLeaves() int {
	count := 0
	for i := range t.Nodes {
		if t.Nodes[i].IsLeaf() {
			count++
		}
	}
	return count
}

// Model is the fitted ensemble.
type Model struct {
	InitScore    float64  `json:"base_score"`
	Trees        []Tree   `json:"trees"`
	NumFeatures  int      `json:"num_features"`
	FeatureNames []string `json:"feature_names,omitempty"`
	Objective    string   `json:"objective"`
	Params       Params   `json:"params"`
}

// PredictRow predicts a single sample.
func (m *Model) PredictRow(features []float64) float64 {
	pred := m.InitScore
	for i := range m.Trees {
		pred += m.Trees[i].Predict(features)
	}
	return pred
}

// Predict returns an n×1 matrix of predictions.
func (m *Model) Predict(X mat.Matrix) (*mat.Dense, error) {
	rows, cols := X.Dims()
	if cols != m.NumFeatures {
		return nil, errors.NewDimensionError("Predict", m.NumFeatures, cols, 1)
	}

	out := make([]float64, rows)
	parallel.ParallelizeWithThreshold(rows, 256, func(start, end int) {
		row := make([]float64, cols)
		for i := start; i < end; i++ {
			mat.Row(row, i, X)
			out[i] = m.PredictRow(row)
		}
	})
	return mat.NewDense(rows, 1, out), nil
}

// Importance types accepted by FeatureImportance.
const (
	ImportanceWeight    = "weight"
	ImportanceGain      = "gain"
	ImportanceTotalGain = "total_gain"
	ImportanceCover     = "cover"
)

// FeatureImportance returns one score per feature.
//
//   - weight: number of splits on the feature
//   - gain: average gain of those splits
//   - total_gain: summed gain
//   - cover: average cover of those splits
func (m *Model) FeatureImportance(importanceType string) ([]float64, error) {
	weight := make([]float64, m.NumFeatures)
	gain := make([]float64, m.NumFeatures)
	cover := make([]float64, m.NumFeatures)
	for t := range m.Trees {
		for _, n := range m.Trees[t].Nodes {
			if n.IsLeaf() {
				continue
			}
			weight[n.Feature]++
			gain[n.Feature] += n.Gain
			cover[n.Feature] += n.Cover
		}
	}

	switch importanceType {
	case ImportanceWeight:
		return weight, nil
	case ImportanceTotalGain:
		return gain, nil
	case ImportanceGain, ImportanceCover:
		src := gain
		if importanceType == ImportanceCover {
			src = cover
		}
		out := make([]float64, m.NumFeatures)
		for j := range out {
			if weight[j] > 0 {
				out[j] = src[j] / weight[j]
			}
		}
		return out, nil
	default:
		return nil, errors.NewValidationError("importance_type", "must be one of weight, gain, total_gain, cover", importanceType)
	}
}

// RankedImportance pairs feature names with scores, highest first.
type RankedImportance struct {
	Feature string
	Score   float64
}

// RankImportance sorts the importances in descending order. Ties keep the
// feature order.
func (m *Model) RankImportance(importanceType string) ([]RankedImportance, error) {
	scores, err := m.FeatureImportance(importanceType)
	if err != nil {
		return nil, err
	}
	ranked := make([]RankedImportance, len(scores))
	for j, s := range scores {
		name := ""
		if j < len(m.FeatureNames) {
			name = m.FeatureNames[j]
		}
		ranked[j] = RankedImportance{Feature: name, Score: s}
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].Score > ranked[b].Score })
	return ranked, nil
}

// SaveJSON writes the ensemble to path.
func (m *Model) SaveJSON(path string) error {
	return model.SaveJSON(m, path)
}

// LoadJSON reads an ensemble written by SaveJSON.
func LoadJSON(path string) (*Model, error) {
	var m Model
	if err := model.LoadJSON(&m, path); err != nil {
		return nil, err
	}
	if len(m.Trees) > 0 && m.NumFeatures == 0 {
		return nil, errors.NewValueError("LoadJSON", "model has trees but no features")
	}
	return &m, nil
}
