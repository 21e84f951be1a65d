package tune

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/YuminosukeSato/surveyboost/pkg/errors"
	"github.com/YuminosukeSato/surveyboost/pkg/log"
)

// Objective returns the loss of a decoded point. Lower is better.
type Objective func(ctx context.Context, p Point) (float64, error)

// Algorithm selects the sampler.
type Algorithm string

const (
	TPE          Algorithm = "tpe"
	RandomSearch Algorithm = "random"
)

// ParseAlgorithm converts a configuration value. The empty string selects TPE.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch a := Algorithm(strings.ToLower(strings.TrimSpace(s))); a {
	case "":
		return TPE, nil
	case TPE, RandomSearch:
		return a, nil
	default:
		return "", errors.NewValidationError("algorithm", "must be tpe or random", s)
	}
}

type options struct {
	seed      uint64
	seeded    bool
	algorithm Algorithm
	sampler   Sampler
	logger    log.Logger
}

// Option configures Minimize.
type Option func(*options)

// WithSeed makes the search reproducible.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

// WithAlgorithm selects TPE or RandomSearch.
func WithAlgorithm(a Algorithm) Option {
	return func(o *options) { o.algorithm = a }
}

// WithSampler overrides the algorithm with a custom sampler.
func WithSampler(s Sampler) Option {
	return func(o *options) { o.sampler = s }
}

// WithLogger sets the progress logger.
func WithLogger(l log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Result is the outcome of a search.
type Result struct {
	Best      Point // decoded
	BestLoss  float64
	BestTrial int
	Trials    *Trials
	Seed      uint64
	Algorithm Algorithm
}

// Minimize evaluates objective on budget points of space and returns the
// best decoded point. A failing objective aborts the search. Cancelling ctx
// stops the search between trials with an error matching
// errors.ErrSearchAborted; the partial Result is still returned.
func Minimize(ctx context.Context, objective Objective, space Space, budget int, opts ...Option) (*Result, error) {
	o := options{algorithm: TPE}
	for _, opt := range opts {
		opt(&o)
	}
	if budget < 1 {
		return nil, errors.NewValidationError("search_budget", "must be at least 1", budget)
	}
	if space.Len() == 0 {
		return nil, errors.NewValidationError("space", "needs at least one dimension", 0)
	}
	if !o.seeded {
		o.seed = uint64(time.Now().UnixNano())
	}
	if o.sampler == nil {
		switch o.algorithm {
		case TPE:
			o.sampler = NewTPESampler()
		case RandomSearch:
			o.sampler = RandomSampler{}
		default:
			return nil, errors.NewValidationError("algorithm", "must be tpe or random", string(o.algorithm))
		}
	}
	if o.logger == nil {
		o.logger = log.GetLoggerWithName("tune.search")
	}

	rng := rand.New(rand.NewPCG(o.seed, o.seed))
	trials := NewTrials()
	res := &Result{Trials: trials, Seed: o.seed, Algorithm: o.algorithm, BestTrial: -1}

	o.logger.Info("Search started",
		log.OperationKey, log.OperationSearch,
		"algorithm", string(o.algorithm),
		"budget", budget,
		log.RandomSeedKey, o.seed,
	)
	start := time.Now()

	for i := 0; i < budget; i++ {
		if err := ctx.Err(); err != nil {
			fillBest(res)
			return res, aborted(err, i, budget)
		}

		p := space.Decode(o.sampler.Suggest(rng, space, trials.All()))
		if loss, ok := trials.Lookup(p); ok {
			trials.Record(Trial{Point: p, Loss: loss, State: TrialComplete, Cached: true})
			continue
		}

		began := time.Now()
		loss, err := evaluate(ctx, objective, p, i)
		elapsed := time.Since(began)
		if err != nil {
			trials.Record(Trial{Point: p, State: TrialFailed, Err: err, Duration: elapsed})
			fillBest(res)
			if ctx.Err() != nil {
				return res, aborted(ctx.Err(), i, budget)
			}
			o.logger.Error("Trial failed", err, log.TrialKey, i)
			return res, errors.NewModelError("tune.Minimize", fmt.Sprintf("trial %d failed", i), err)
		}

		t := trials.Record(Trial{Point: p, Loss: loss, State: TrialComplete, Duration: elapsed})
		o.logger.Debug("Trial complete",
			log.TrialKey, t.Number,
			log.ScoreKey, loss,
			log.HyperParamsKey, map[string]float64(p),
			log.DurationMsKey, elapsed.Milliseconds(),
		)
	}

	fillBest(res)
	if res.BestTrial < 0 {
		return res, errors.NewValueError("tune.Minimize", "no trial completed")
	}
	o.logger.Info("Search finished",
		log.OperationKey, log.OperationSearch,
		"trials", trials.Len(),
		"best_loss", res.BestLoss,
		log.HyperParamsKey, map[string]float64(res.Best),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return res, nil
}

func evaluate(ctx context.Context, objective Objective, p Point, trial int) (loss float64, err error) {
	defer errors.Recover(&err, "tune.Objective")
	loss, err = objective(ctx, p.Clone())
	if err != nil {
		return 0, err
	}
	if err := errors.CheckScalar("tune.loss", loss, trial); err != nil {
		return 0, err
	}
	return loss, nil
}

func fillBest(res *Result) {
	if best, ok := res.Trials.Best(); ok {
		res.Best = best.Point.Clone()
		res.BestLoss = best.Loss
		res.BestTrial = best.Number
	}
}

// aborted wraps both the sentinel and the cause so that errors.Is matches
// either of them.
func aborted(cause error, done, budget int) error {
	return fmt.Errorf("%w: %w", errors.ErrSearchAborted,
		errors.Wrapf(cause, "search stopped after %d of %d trials", done, budget))
}
