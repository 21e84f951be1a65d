package main

import (
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/surveyboost/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline",
	Long: `Loads and cleans both exports, pivots them to group x topic means,
correlates and clusters the topics, tunes the booster with k-fold CV on the
industry groups, trains it with the gender/age groups as the test set and
prints SHAP importances and one waterfall.`,
	RunE: runPipeline,
}

func init() {
	f := runCmd.Flags()
	f.Int("folds", 0, "Cross-validation folds")
	f.Int("budget", 0, "Number of search trials")
	f.String("algorithm", "", "Search algorithm: tpe or random")
	f.Int64("seed", 0, "Search seed, -1 seeds from the clock")
	f.Float64("learning-rate", 0, "Booster learning rate")
	f.Int("early-stopping", 0, "Stop after this many rounds without test improvement (0 disables)")
	f.Duration("time-limit", 0, "Stop the final fit after this long (0 disables)")
	f.String("row", "", "Test group for the waterfall (default: first)")
	f.String("summary", "", "Write a JSON run summary to this path")
	f.String("model-out", "", "Write the fitted model as JSON to this path")

	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	_, err = pipeline.Run(cmd.Context(), cfg, cmd.OutOrStdout())
	return err
}
