// Package config loads the pipeline configuration from defaults, an
// optional YAML file and SURVEYBOOST_ environment variables.
package config

import (
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/YuminosukeSato/surveyboost/pkg/errors"
)

// Config is the explicit pipeline configuration.
type Config struct {
	Data    DataConfig    `koanf:"data"`
	Model   ModelConfig   `koanf:"model"`
	Explain ExplainConfig `koanf:"explain"`
	Output  OutputConfig  `koanf:"output"`
	Logging LoggingConfig `koanf:"logging"`
}

// DataConfig locates and parses the two survey exports. The industry
// export is the training table and the demographic export the test table.
type DataConfig struct {
	IndustryPath    string   `koanf:"industry_path" validate:"required"`
	DemographicPath string   `koanf:"demographic_path" validate:"required"`
	Comma           string   `koanf:"comma" validate:"len=1"`
	Decimal         string   `koanf:"decimal" validate:"len=1,nefield=Comma"`
	ExcludeGroups   []string `koanf:"exclude_groups"`
}

// ModelConfig drives the split, the search and the final fit.
type ModelConfig struct {
	ResponseTopic       string        `koanf:"response_topic" validate:"required"`
	CVFolds             int           `koanf:"cv_folds" validate:"gte=2"`
	SearchBudget        int           `koanf:"search_budget" validate:"gte=1"`
	Algorithm           string        `koanf:"algorithm" validate:"oneof=tpe random"`
	Seed                int64         `koanf:"seed" validate:"gte=-1"` // -1 seeds from the clock
	LearningRate        float64       `koanf:"learning_rate" validate:"gt=0,lte=1"`
	MissingPolicy       string        `koanf:"missing_policy" validate:"oneof=fail drop impute_mean"`
	EarlyStoppingRounds int           `koanf:"early_stopping_rounds" validate:"gte=0"`
	TimeLimit           time.Duration `koanf:"time_limit" validate:"gte=0"` // final fit wall clock; 0 disables
	OverfitWindow       int           `koanf:"overfit_window" validate:"gte=1"`
}

// ExplainConfig selects the SHAP views.
type ExplainConfig struct {
	TopN int    `koanf:"top_n" validate:"gte=1"`
	Row  string `koanf:"row"` // waterfall group; empty selects the first test group
}

// OutputConfig lists optional artefacts. Empty paths are skipped.
type OutputConfig struct {
	SummaryPath string `koanf:"summary_path"`
	PlotDir     string `koanf:"plot_dir"`
	ModelPath   string `koanf:"model_path"`
}

// LoggingConfig configures pkg/log.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			IndustryPath:    "data/branche.csv",
			DemographicPath: "data/koen_alder.csv",
			Comma:           ";",
			Decimal:         ",",
		},
		Model: ModelConfig{
			ResponseTopic: "Trivsel",
			CVFolds:       5,
			SearchBudget:  100,
			Algorithm:     "tpe",
			Seed:          42,
			LearningRate:  0.3,
			MissingPolicy: "fail",
			OverfitWindow: 5,
		},
		Explain: ExplainConfig{
			TopN: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Seeded reports whether the search seed is fixed.
func (m ModelConfig) Seeded() bool {
	return m.Seed >= 0
}

// CommaRune returns the field separator.
func (d DataConfig) CommaRune() rune {
	return []rune(d.Comma)[0]
}

// DecimalRune returns the decimal separator.
func (d DataConfig) DecimalRune() rune {
	return []rune(d.Decimal)[0]
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validate checks every field. The first violation is returned as an
// errors.ValidationError named by its koanf path.
func (c *Config) Validate() error {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string { return f.Tag.Get("koanf") })
	})
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return errors.NewValidationError(keyPath(fe.Namespace()), "failed '"+fe.Tag()+"' constraint", fe.Value())
	}
	return errors.Wrap(err, "invalid configuration")
}

// keyPath turns "Config.model.cv_folds" into "model.cv_folds".
func keyPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}
