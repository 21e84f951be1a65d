package tune

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/surveyboost/pkg/errors"
)

// Sampler proposes the next raw point from the history. Minimize decodes
// the proposal into the space.
type Sampler interface {
	Suggest(rng *rand.Rand, space Space, history []Trial) Point
}

// RandomSampler draws every dimension uniformly from its bounds.
type RandomSampler struct{}

// Suggest implements Sampler.
func (RandomSampler) Suggest(rng *rand.Rand, space Space, _ []Trial) Point {
	p := make(Point, space.Len())
	for _, d := range space.dims {
		p[d.Name] = d.Low + rng.Float64()*(d.High-d.Low)
	}
	return p
}

// TPESampler is a Tree-structured Parzen Estimator (Bergstra et al. 2011).
// After StartupTrials random draws, the history is split at the Gamma
// quantile of loss into good and bad observations. Each dimension gets a
// truncated Gaussian mixture per group, l(x) and g(x), and the candidate
// drawn from l maximising l(x)/g(x) is proposed.
type TPESampler struct {
	StartupTrials int
	Gamma         float64
	Candidates    int
	PriorWeight   float64
}

// NewTPESampler returns the sampler with hyperopt's defaults.
func NewTPESampler() *TPESampler {
	return &TPESampler{
		StartupTrials: 20,
		Gamma:         0.25,
		Candidates:    24,
		PriorWeight:   1,
	}
}

// Suggest implements Sampler.
func (s *TPESampler) Suggest(rng *rand.Rand, space Space, history []Trial) Point {
	complete := sortedByLoss(history)
	if len(complete) < max(s.StartupTrials, 1) {
		return RandomSampler{}.Suggest(rng, space, history)
	}

	nGood := int(math.Ceil(s.Gamma * float64(len(complete))))
	nGood = max(1, min(nGood, 25, len(complete)))
	good, bad := complete[:nGood], complete[nGood:]

	p := make(Point, space.Len())
	for _, d := range space.dims {
		if d.Low == d.High {
			p[d.Name] = d.Low
			continue
		}
		l := newParzen(values(good, d.Name), d.Low, d.High, s.PriorWeight)
		g := newParzen(values(bad, d.Name), d.Low, d.High, s.PriorWeight)

		best, bestScore := d.Low, math.Inf(-1)
		for c := 0; c < max(s.Candidates, 1); c++ {
			x := l.sample(rng)
			if score := l.logPdf(x) - g.logPdf(x); score > bestScore {
				best, bestScore = x, score
			}
		}
		p[d.Name] = best
	}
	return p
}

func values(trials []Trial, name string) []float64 {
	out := make([]float64, len(trials))
	for i, t := range trials {
		out[i] = t.Point[name]
	}
	return out
}

// parzen is a mixture of Gaussians truncated to [low, high], one per
// observation plus a wide prior component centred on the interval.
type parzen struct {
	weights []float64
	comps   []distuv.Normal
	logMass []float64
	low     float64
	high    float64
}

func newParzen(obs []float64, low, high, priorWeight float64) *parzen {
	priorMu := (low + high) / 2
	priorSigma := high - low

	mus := append([]float64{priorMu}, obs...)
	weights := make([]float64, len(mus))
	weights[0] = priorWeight
	for i := 1; i < len(weights); i++ {
		weights[i] = 1
	}

	// bandwidth of each observation is its larger gap to a sorted neighbour
	order := make([]int, len(mus))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return mus[order[a]] < mus[order[b]] })

	sigmas := make([]float64, len(mus))
	minSigma := priorSigma / math.Min(100, float64(1+len(mus)))
	for k, i := range order {
		left, right := 0.0, 0.0
		if k > 0 {
			left = mus[i] - mus[order[k-1]]
		}
		if k < len(order)-1 {
			right = mus[order[k+1]] - mus[i]
		}
		sigmas[i] = math.Max(minSigma, math.Min(priorSigma, math.Max(left, right)))
	}
	sigmas[0] = priorSigma

	var total float64
	for _, w := range weights {
		total += w
	}

	p := &parzen{low: low, high: high}
	for i := range mus {
		n := distuv.Normal{Mu: mus[i], Sigma: sigmas[i]}
		mass := n.CDF(high) - n.CDF(low)
		if mass <= 0 {
			mass = math.SmallestNonzeroFloat64
		}
		p.weights = append(p.weights, weights[i]/total)
		p.comps = append(p.comps, n)
		p.logMass = append(p.logMass, math.Log(mass))
	}
	return p
}

func (p *parzen) logPdf(x float64) float64 {
	terms := make([]float64, len(p.comps))
	for i, n := range p.comps {
		terms[i] = math.Log(p.weights[i]) + n.LogProb(x) - p.logMass[i]
	}
	return errors.LogSumExp(terms)
}

func (p *parzen) sample(rng *rand.Rand) float64 {
	u := rng.Float64()
	k := len(p.comps) - 1
	var acc float64
	for i, w := range p.weights {
		acc += w
		if u < acc {
			k = i
			break
		}
	}
	n := p.comps[k]
	for try := 0; try < 64; try++ {
		if x := n.Mu + n.Sigma*rng.NormFloat64(); x >= p.low && x <= p.high {
			return x
		}
	}
	return math.Max(p.low, math.Min(p.high, n.Mu))
}
