package boost

import (
	"math"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/YuminosukeSato/surveyboost/pkg/errors"
)

// Params holds the booster hyperparameters. Names follow XGBoost.
type Params struct {
	NEstimators     int     `json:"n_estimators" validate:"gte=1"`
	MaxDepth        int     `json:"max_depth" validate:"gte=1"`
	LearningRate    float64 `json:"learning_rate" validate:"gt=0,lte=1"`
	Gamma           float64 `json:"gamma" validate:"gte=0"`
	RegAlpha        float64 `json:"reg_alpha" validate:"gte=0"`
	RegLambda       float64 `json:"reg_lambda" validate:"gte=0"`
	ColsampleBytree float64 `json:"colsample_bytree" validate:"gt=0,lte=1"`
	MinChildWeight  float64 `json:"min_child_weight" validate:"gte=0"`
	Seed            uint64  `json:"seed"`
}

// DefaultParams returns the XGBoost defaults.
func DefaultParams() Params {
	return Params{
		NEstimators:     100,
		MaxDepth:        6,
		LearningRate:    0.3,
		Gamma:           0,
		RegAlpha:        0,
		RegLambda:       1,
		ColsampleBytree: 1,
		MinChildWeight:  1,
	}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func paramValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks every field against its bounds.
func (p Params) Validate() error {
	err := paramValidator().Struct(p)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return errors.NewValidationError(fe.Field(), "failed '"+fe.Tag()+"' constraint", fe.Value())
	}
	return errors.Wrap(err, "invalid booster parameters")
}

// GetParams returns the tunable parameters keyed by their XGBoost names.
func (p Params) GetParams() map[string]float64 {
	return map[string]float64{
		"n_estimators":     float64(p.NEstimators),
		"max_depth":        float64(p.MaxDepth),
		"learning_rate":    p.LearningRate,
		"gamma":            p.Gamma,
		"reg_alpha":        p.RegAlpha,
		"reg_lambda":       p.RegLambda,
		"colsample_bytree": p.ColsampleBytree,
		"min_child_weight": p.MinChildWeight,
	}
}

// SetParams applies values from a search point. Integer parameters are
// rounded to the nearest integer. Unknown keys are rejected.
func (p *Params) SetParams(values map[string]float64) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		v := values[key]
		switch key {
		case "n_estimators":
			p.NEstimators = int(math.Round(v))
		case "max_depth":
			p.MaxDepth = int(math.Round(v))
		case "learning_rate":
			p.LearningRate = v
		case "gamma":
			p.Gamma = v
		case "reg_alpha":
			p.RegAlpha = v
		case "reg_lambda":
			p.RegLambda = v
		case "colsample_bytree":
			p.ColsampleBytree = v
		case "min_child_weight":
			p.MinChildWeight = v
		default:
			return errors.NewValidationError(key, "unknown booster parameter", v)
		}
	}
	return nil
}
