package boost

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/YuminosukeSato/surveyboost/pkg/errors"
	"github.com/YuminosukeSato/surveyboost/pkg/log"
)

// MetricRMSE is the evaluation metric recorded for every eval set.
const MetricRMSE = "rmse"

// EvalsResult maps eval set name → metric → per-round values.
type EvalsResult map[string]map[string][]float64

// Rounds returns the number of recorded rounds for set/metric.
func (r EvalsResult) Rounds(set, metric string) int {
	return len(r[set][metric])
}

// Sets returns the eval set names in sorted order.
func (r EvalsResult) Sets() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CallbackEnv is passed to callbacks after every boosting round.
type CallbackEnv struct {
	Model     *Model
	Iteration int
	BeginTime time.Time
	EndTime   time.Time
	// EvalResults holds this round's scores: set → metric → value.
	EvalResults   map[string]map[string]float64
	StopTraining  bool
	BestIteration int
}

// Callback is invoked once per round. Returning an error aborts training.
type Callback func(env *CallbackEnv) error

// RecordEvaluation appends every round's eval results to history.
func RecordEvaluation(history *EvalsResult) Callback {
	return func(env *CallbackEnv) error {
		if *history == nil {
			*history = make(EvalsResult)
		}
		for set, metrics := range env.EvalResults {
			if (*history)[set] == nil {
				(*history)[set] = make(map[string][]float64)
			}
			for metric, value := range metrics {
				(*history)[set][metric] = append((*history)[set][metric], value)
			}
		}
		return nil
	}
}

// EarlyStopping stops training when set/metric has not improved for rounds
// consecutive rounds. Lower is better. The state resets on iteration 0, so
// one callback can serve repeated fits.
func EarlyStopping(rounds int, set, metric string) Callback {
	var (
		bestScore       float64
		bestIteration   int
		roundsNoImprove int
	)
	logger := log.GetLoggerWithName("boost.callbacks")

	return func(env *CallbackEnv) error {
		if env.Iteration == 0 {
			bestScore = math.Inf(1)
			bestIteration = 0
			roundsNoImprove = 0
		}
		value, ok := env.EvalResults[set][metric]
		if !ok {
			return nil
		}
		if value < bestScore {
			bestScore = value
			bestIteration = env.Iteration
			roundsNoImprove = 0
		} else {
			roundsNoImprove++
		}
		env.BestIteration = bestIteration

		if roundsNoImprove >= rounds {
			logger.Info("Early stopping",
				log.IterationKey, env.Iteration,
				"best_iteration", bestIteration,
				log.EvalSetKey, set,
				log.ScoreKey, bestScore,
			)
			env.StopTraining = true
		}
		return nil
	}
}

// LogEvaluation logs the eval results every period rounds.
func LogEvaluation(logger log.Logger, period int) Callback {
	if period < 1 {
		period = 1
	}
	return func(env *CallbackEnv) error {
		if env.Iteration%period != 0 {
			return nil
		}
		fields := []any{log.IterationKey, env.Iteration}
		sets := make([]string, 0, len(env.EvalResults))
		for set := range env.EvalResults {
			sets = append(sets, set)
		}
		sort.Strings(sets)
		for _, set := range sets {
			for metric, value := range env.EvalResults[set] {
				fields = append(fields, set+"."+metric, value)
			}
		}
		logger.Debug("Boosting round", fields...)
		return nil
	}
}

// TimeLimit stops training once maxDuration has passed since iteration 0.
func TimeLimit(maxDuration time.Duration) Callback {
	return timeLimit(maxDuration, time.Now)
}

func timeLimit(maxDuration time.Duration, now func() time.Time) Callback {
	var startTime time.Time
	return func(env *CallbackEnv) error {
		if env.Iteration == 0 {
			startTime = now()
		}
		if now().Sub(startTime) > maxDuration {
			env.StopTraining = true
		}
		return nil
	}
}

// CallbackList runs callbacks in order and shares one environment.
type CallbackList struct {
	callbacks []Callback
	env       *CallbackEnv
}

// NewCallbackList creates a callback list.
func NewCallbackList(callbacks ...Callback) *CallbackList {
	return &CallbackList{
		callbacks: callbacks,
		env:       &CallbackEnv{},
	}
}

// BeforeIteration stamps the round start.
func (cl *CallbackList) BeforeIteration(iteration int) {
	cl.env.Iteration = iteration
	cl.env.BeginTime = time.Now()
}

// AfterIteration runs every callback with this round's results.
func (cl *CallbackList) AfterIteration(iteration int, model *Model, evalResults map[string]map[string]float64) error {
	cl.env.Iteration = iteration
	cl.env.Model = model
	cl.env.EndTime = time.Now()
	cl.env.EvalResults = evalResults
	cl.env.BestIteration = iteration

	for i, cb := range cl.callbacks {
		err := errors.SafeExecute(fmt.Sprintf("callback %d", i), func() error { return cb(cl.env) })
		if err != nil {
			return err
		}
	}
	return nil
}

// ShouldStop reports whether a callback requested a stop.
func (cl *CallbackList) ShouldStop() bool {
	return cl.env.StopTraining
}

// BestIteration returns the best round seen by EarlyStopping, or the last
// round when no EarlyStopping callback is registered.
func (cl *CallbackList) BestIteration() int {
	return cl.env.BestIteration
}
