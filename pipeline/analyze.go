// Package pipeline runs the survey analysis end to end: load, clean, pivot,
// correlate, split, tune, train and explain.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/surveyboost/analysis"
	"github.com/YuminosukeSato/surveyboost/config"
	"github.com/YuminosukeSato/surveyboost/frame"
	"github.com/YuminosukeSato/surveyboost/pkg/errors"
	"github.com/YuminosukeSato/surveyboost/pkg/log"
	"github.com/YuminosukeSato/surveyboost/report"
	"github.com/YuminosukeSato/surveyboost/survey"
)

// Analysis is the exploratory part of a run.
type Analysis struct {
	RunID     string
	StartedAt time.Time

	Stats map[string]survey.CleanStats

	// Industry and Demographic are the group × topic mean tables after the
	// missing-value policy has been applied.
	Industry    *frame.WideTable
	Demographic *frame.WideTable

	Correlation *analysis.Correlation
	Pairs       []analysis.Pair
	Response    []analysis.Pair // every topic against the response, if present
	Dendrogram  *analysis.Dendrogram
}

// Correlate loads both exports and reports topic correlations and the
// hierarchical clustering of topics. Tables are written to out.
func Correlate(ctx context.Context, cfg *config.Config, out io.Writer) (*Analysis, error) {
	runID, logger := newRunLogger()
	a, err := analyze(ctx, cfg, runID, logger)
	if err != nil {
		return nil, err
	}
	if err := printAnalysis(out, a); err != nil {
		return nil, err
	}
	if dir := cfg.Output.PlotDir; dir != "" {
		if err := writeAnalysisPlots(dir, a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func newRunLogger() (string, log.Logger) {
	id := uuid.NewString()
	return id, log.GetLoggerWithName("pipeline").With(log.RunIDKey, id)
}

func analyze(ctx context.Context, cfg *config.Config, runID string, logger log.Logger) (*Analysis, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := frame.ParseMissingPolicy(cfg.Model.MissingPolicy)
	if err != nil {
		return nil, err
	}

	a := &Analysis{
		RunID:     runID,
		StartedAt: time.Now(),
		Stats:     make(map[string]survey.CleanStats, 2),
	}
	opts := survey.LoadOptions{Comma: cfg.Data.CommaRune(), Decimal: cfg.Data.DecimalRune()}

	load := func(path string, d survey.Dataset) (*frame.WideTable, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records, stats, err := survey.LoadClean(path, d, opts, cfg.Data.ExcludeGroups...)
		if err != nil {
			return nil, errors.Wrapf(err, "load %s export", d)
		}
		a.Stats[d.String()] = stats

		wide, err := frame.PivotRecords(records)
		if err != nil {
			return nil, errors.Wrapf(err, "pivot %s export", d)
		}
		wide, err = frame.ResolveMissing(wide, policy)
		if err != nil {
			return nil, errors.Wrapf(err, "%s export", d)
		}
		groups, topics := wide.Dims()
		logger.Info("Dataset prepared",
			log.OperationKey, log.OperationLoad,
			log.PathKey, path,
			log.RowsKey, stats.Rows,
			log.GroupsKey, groups,
			log.TopicsKey, topics,
		)
		return wide, nil
	}

	if a.Industry, err = load(cfg.Data.IndustryPath, survey.Industry); err != nil {
		return nil, err
	}
	if a.Demographic, err = load(cfg.Data.DemographicPath, survey.Demographic); err != nil {
		return nil, err
	}

	both, err := frame.Stack(a.Industry, a.Demographic, " ("+survey.Demographic.String()+")")
	if err != nil {
		return nil, errors.Wrap(err, "combine exports")
	}
	if a.Correlation, err = analysis.Correlate(both); err != nil {
		return nil, err
	}
	a.Pairs = analysis.TopPairs(a.Correlation, cfg.Explain.TopN)
	if _, ok := a.Correlation.At(cfg.Model.ResponseTopic, cfg.Model.ResponseTopic); ok {
		if a.Response, err = analysis.Against(a.Correlation, cfg.Model.ResponseTopic); err != nil {
			return nil, err
		}
	}
	a.Dendrogram = analysis.Cluster(a.Correlation)

	logger.Info("Topics correlated",
		log.OperationKey, log.OperationCorrelate,
		log.TopicsKey, a.Correlation.Len(),
		"leaf_order", a.Dendrogram.OrderedLabels(),
	)
	return a, nil
}

func printAnalysis(out io.Writer, a *Analysis) error {
	if err := section(out, "Cleaning"); err != nil {
		return err
	}
	if err := report.WriteCleanStats(out, a.Stats); err != nil {
		return err
	}
	if err := section(out, "Strongest topic correlations"); err != nil {
		return err
	}
	if err := report.WritePairs(out, a.Pairs); err != nil {
		return err
	}
	if len(a.Response) > 0 {
		if err := section(out, "Correlation with response"); err != nil {
			return err
		}
		if err := report.WritePairs(out, a.Response); err != nil {
			return err
		}
	}
	if err := section(out, "Topic clustering (average linkage, 1 - r)"); err != nil {
		return err
	}
	return report.WriteDendrogram(out, a.Dendrogram)
}

func section(out io.Writer, title string) error {
	_, err := fmt.Fprintf(out, "\n== %s ==\n", title)
	return err
}
