package tune

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TrialState is the outcome of one evaluation.
type TrialState int

const (
	TrialComplete TrialState = iota
	TrialFailed
)

func (s TrialState) String() string {
	if s == TrialFailed {
		return "failed"
	}
	return "complete"
}

// Trial is one evaluated point.
type Trial struct {
	Number   int
	ID       uuid.UUID
	Point    Point // decoded
	Loss     float64
	State    TrialState
	Cached   bool // loss reused from an earlier trial at the same point
	Duration time.Duration
	Err      error
}

// Trials is the search history. Points are memoised by their decoded value
// so a repeated suggestion does not re-run the objective.
type Trials struct {
	mu     sync.RWMutex
	trials []Trial
	memo   map[string]float64
}

// NewTrials creates an empty history.
func NewTrials() *Trials {
	return &Trials{memo: make(map[string]float64)}
}

// Record appends t and returns it with its number set.
func (ts *Trials) Record(t Trial) Trial {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	t.Number = len(ts.trials)
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	ts.trials = append(ts.trials, t)
	if t.State == TrialComplete && !t.Cached {
		ts.memo[t.Point.Key()] = t.Loss
	}
	return t
}

// Lookup returns the loss already recorded for p.
func (ts *Trials) Lookup(p Point) (float64, bool) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	loss, ok := ts.memo[p.Key()]
	return loss, ok
}

// Len returns the number of recorded trials.
func (ts *Trials) Len() int {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return len(ts.trials)
}

// All returns a copy of the history in evaluation order.
func (ts *Trials) All() []Trial {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return append([]Trial(nil), ts.trials...)
}

// Complete returns the successful trials.
func (ts *Trials) Complete() []Trial {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	out := make([]Trial, 0, len(ts.trials))
	for _, t := range ts.trials {
		if t.State == TrialComplete {
			out = append(out, t)
		}
	}
	return out
}

// Best returns the successful trial with the lowest loss. Ties keep the
// earliest trial.
func (ts *Trials) Best() (Trial, bool) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	best, found := Trial{Loss: math.Inf(1)}, false
	for _, t := range ts.trials {
		if t.State == TrialComplete && t.Loss < best.Loss {
			best, found = t, true
		}
	}
	return best, found
}

// Losses returns the running minimum loss after each trial, for plotting
// convergence.
func (ts *Trials) Losses() []float64 {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	out := make([]float64, 0, len(ts.trials))
	best := math.Inf(1)
	for _, t := range ts.trials {
		if t.State == TrialComplete && t.Loss < best {
			best = t.Loss
		}
		out = append(out, best)
	}
	return out
}

// sortedByLoss returns the complete trials ordered by ascending loss.
func sortedByLoss(trials []Trial) []Trial {
	out := make([]Trial, 0, len(trials))
	for _, t := range trials {
		if t.State == TrialComplete {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Loss < out[j].Loss })
	return out
}
