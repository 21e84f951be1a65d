package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/YuminosukeSato/surveyboost/config"
	"github.com/YuminosukeSato/surveyboost/pkg/log"
)

var configPath string

// flagKeys maps flag names to the configuration keys they override.
var flagKeys = map[string]string{
	"industry":       "data.industry_path",
	"demographic":    "data.demographic_path",
	"exclude":        "data.exclude_groups",
	"response":       "model.response_topic",
	"folds":          "model.cv_folds",
	"budget":         "model.search_budget",
	"algorithm":      "model.algorithm",
	"seed":           "model.seed",
	"learning-rate":  "model.learning_rate",
	"missing":        "model.missing_policy",
	"early-stopping": "model.early_stopping_rounds",
	"time-limit":     "model.time_limit",
	"top":            "explain.top_n",
	"row":            "explain.row",
	"summary":        "output.summary_path",
	"plots":          "output.plot_dir",
	"model-out":      "output.model_path",
	"log-level":      "logging.level",
	"log-format":     "logging.format",
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Path to a YAML configuration file")
	pf.String("industry", "", "Industry export (training groups)")
	pf.String("demographic", "", "Gender/age export (test groups)")
	pf.StringSlice("exclude", nil, "Extra aggregate group labels to drop")
	pf.String("response", "", "Response topic")
	pf.String("missing", "", "Missing cell policy: fail, drop or impute_mean")
	pf.Int("top", 0, "Number of correlation pairs and SHAP features to report")
	pf.String("plots", "", "Directory for PNG plots")
	pf.String("log-level", "", "Log level: debug, info, warn or error")
	pf.String("log-format", "", "Log format: json or console")
}

// overrides collects the flags set on the command line.
func overrides(flags *pflag.FlagSet) map[string]any {
	out := map[string]any{}
	flags.Visit(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			out[key] = sv.GetSlice()
			return
		}
		out[key] = f.Value.String()
	})
	return out
}

// loadConfig resolves the configuration for cmd and installs the logger.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath, overrides(cmd.Flags()))
	if err != nil {
		return nil, err
	}
	if err := log.SetupLogger(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return nil, err
	}
	return cfg, nil
}
