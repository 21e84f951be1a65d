// Command surveyboost models survey topic scores with boosted trees and
// explains the fit with SHAP values.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "surveyboost",
	Short: "Survey topic-score modelling",
	Long: `surveyboost loads the industry and gender/age survey exports, correlates
and clusters their topics, tunes a boosted-tree model of the response topic
and explains its predictions with SHAP values.

Configuration is read from surveyboost.yaml (or --config), SURVEYBOOST_*
environment variables and flags, in increasing priority.`,
	SilenceUsage: true,
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
