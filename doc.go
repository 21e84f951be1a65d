// Package surveyboost models workplace-survey topic scores with gradient
// boosted trees and explains the fitted model with TreeSHAP values.
//
// The input is two semicolon separated exports of the same survey, one
// segmented by industry and one by gender and age. Decimals use a comma.
// A run loads and cleans both exports, averages the indexed scores into a
// group × topic table, correlates and clusters the topics, then tunes a
// booster on the industry groups and evaluates it on the gender/age groups.
//
// # Quick Start
//
//	surveyboost run --industry data/branche.csv --demographic data/koen_alder.csv \
//	    --response Trivsel --budget 100 --plots out/plots --summary out/summary.json
//
// or from Go:
//
//	cfg, err := config.Load("", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := pipeline.Run(ctx, cfg, os.Stdout)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Top[0].Feature)
//
// # Packages
//
//   - survey: CSV loading, aggregate-row removal and projection to records
//   - frame: pivot, melt and the group × topic WideTable
//   - analysis: pairwise Pearson correlation and average-linkage clustering
//   - selection: train/test split by table, k-fold and cross-validation
//   - tune: search space, TPE and random samplers, Minimize
//   - sklearn/boost: the boosted-tree regressor, eval sets and TreeSHAP
//   - explain: SHAP rankings and waterfalls per group
//   - report: text tables, JSON summary and PNG plots
//   - pipeline: the end-to-end run
//   - config: defaults, YAML, SURVEYBOOST_ environment and flag overrides
//   - metrics, core/model, core/parallel, pkg/errors, pkg/log: shared plumbing
package surveyboost
