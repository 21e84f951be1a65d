package main

import (
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/surveyboost/pipeline"
)

var correlateCmd = &cobra.Command{
	Use:   "correlate",
	Short: "Correlate and cluster topics without modelling",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		_, err = pipeline.Correlate(cmd.Context(), cfg, cmd.OutOrStdout())
		return err
	},
}

func init() {
	rootCmd.AddCommand(correlateCmd)
}
