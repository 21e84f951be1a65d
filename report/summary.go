package report

import (
	"io"
	"time"

	"github.com/YuminosukeSato/surveyboost/core/model"
)

// Summary is the machine-readable record of one pipeline run.
type Summary struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs int64     `json:"duration_ms"`

	ResponseTopic string                    `json:"response_topic"`
	Datasets      map[string]DatasetSummary `json:"datasets"`
	Features      []string                  `json:"features"`

	TopPairs        []PairSummary `json:"top_pairs"`
	DendrogramOrder []string      `json:"dendrogram_order"`

	Search  *SearchSummary       `json:"search,omitempty"`
	Params  map[string]float64   `json:"params,omitempty"`
	Evals   map[string][]float64 `json:"eval_rmse,omitempty"`
	Overfit *OverfitSummary      `json:"overfit,omitempty"`

	TrainRMSE float64 `json:"train_rmse"`
	TestRMSE  float64 `json:"test_rmse"`

	Importance []ImportanceSummary `json:"shap_importance,omitempty"`
	Waterfall  *WaterfallSummary   `json:"waterfall,omitempty"`
}

// DatasetSummary describes one cleaned and pivoted export.
type DatasetSummary struct {
	Path          string   `json:"path"`
	Rows          int      `json:"rows"`
	Kept          int      `json:"kept"`
	DroppedGroups []string `json:"dropped_groups"`
	Groups        int      `json:"groups"`
	Topics        int      `json:"topics"`
}

// PairSummary is one reported correlation.
type PairSummary struct {
	A string  `json:"a"`
	B string  `json:"b"`
	R float64 `json:"r"`
}

// SearchSummary records the hyperparameter search.
type SearchSummary struct {
	Algorithm   string             `json:"algorithm"`
	Seed        uint64             `json:"seed"`
	Trials      int                `json:"trials"`
	Evaluated   int                `json:"evaluated"`
	BestTrial   int                `json:"best_trial"`
	BestLoss    float64            `json:"best_loss"`
	Best        map[string]float64 `json:"best"`
	Convergence []float64          `json:"convergence"`
}

// OverfitSummary is the end-of-training diagnosis.
type OverfitSummary struct {
	Window      int     `json:"window"`
	TrainDelta  float64 `json:"train_delta"`
	TestDelta   float64 `json:"test_delta"`
	BestRound   int     `json:"best_test_round"`
	Overfitting bool    `json:"overfitting"`
}

// ImportanceSummary is one ranked feature.
type ImportanceSummary struct {
	Feature string  `json:"feature"`
	MeanAbs float64 `json:"mean_abs_shap"`
}

// WaterfallSummary is the decomposition of one prediction.
type WaterfallSummary struct {
	Group         string             `json:"group"`
	Base          float64            `json:"base"`
	Contributions map[string]float64 `json:"contributions"`
	Prediction    float64            `json:"prediction"`
	Actual        float64            `json:"actual"`
}

// WriteSummary saves s as indented JSON at path.
func WriteSummary(path string, s *Summary) error {
	return model.SaveJSON(s, path)
}

// EncodeSummary writes s as JSON to w.
func EncodeSummary(w io.Writer, s *Summary) error {
	return model.WriteJSON(s, w)
}

// ReadSummary loads a summary written by WriteSummary.
func ReadSummary(path string) (*Summary, error) {
	var s Summary
	if err := model.LoadJSON(&s, path); err != nil {
		return nil, err
	}
	return &s, nil
}
