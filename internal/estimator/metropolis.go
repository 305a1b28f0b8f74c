package estimator

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/swot-confluence/metroman/internal/obs"
	"github.com/swot-confluence/metroman/internal/quality"
)

// Metropolis is the sampling estimator. Zero values are not usable; build
// one with NewMetropolis.
type Metropolis struct {
	Chain int    // total iterations
	Burn  int    // discarded leading iterations
	Thin  int    // keep every Thin-th post-burn sample
	Seed  uint64 // fixed seed; runs are reproducible

	// random-walk jump scales
	JumpLogA0 float64
	JumpLogNa float64
	JumpX1    float64

	// spread of per-reach discharge around the set mean at one instant;
	// mass conservation says reaches in a set carry the same flow
	SigmaSpatial float64
}

// NewMetropolis returns the estimator with the production chain settings.
func NewMetropolis() *Metropolis {
	return &Metropolis{
		Chain:        10000,
		Burn:         2000,
		Thin:         10,
		Seed:         9,
		JumpLogA0:    0.05,
		JumpLogNa:    0.05,
		JumpX1:       0.02,
		SigmaSpatial: 0.2,
	}
}

// Estimate runs the path selected by tier. Degraded propagates the prior
// means through the flow law; Nominal samples the posterior.
func (m *Metropolis) Estimate(d *obs.Domain, set *obs.Set, prior Prior, tier quality.Tier) (*Estimate, error) {
	if set.DA == nil {
		CalcDA(set)
	}

	switch tier {
	case quality.Degraded:
		return m.estimateFromPrior(set, prior)
	case quality.Nominal:
		return m.sample(set, prior)
	default:
		return nil, fmt.Errorf("estimator: tier %v has no estimation path", tier)
	}
}

// estimateFromPrior is the Degraded path: flow law at the prior means, no
// uncertainty series.
func (m *Metropolis) estimateFromPrior(set *obs.Set, prior Prior) (*Estimate, error) {
	q, ok := flowQ(set, prior.MeanA0, prior.MeanNa, prior.MeanX1)
	if !ok {
		return nil, fmt.Errorf("estimator: flow law non-physical at prior means")
	}
	return &Estimate{
		A0: append([]float64(nil), prior.MeanA0...),
		Na: append([]float64(nil), prior.MeanNa...),
		X1: append([]float64(nil), prior.MeanX1...),
		Q:  q,
	}, nil
}

// sample is the Nominal path: random-walk Metropolis over per-reach
// (log A0, log na, x1) against the flow-law likelihood.
func (m *Metropolis) sample(set *obs.Set, prior Prior) (*Estimate, error) {
	nR, nt := set.Dims()

	cur := newState(prior)
	curLP := m.logPosterior(set, prior, cur)
	if math.IsInf(curLP, -1) || math.IsNaN(curLP) {
		return nil, fmt.Errorf("estimator: posterior has no mass at the prior means")
	}

	src := rand.NewPCG(m.Seed, m.Seed)
	rng := rand.New(src)
	jump := distuv.Normal{Mu: 0, Sigma: 1, Src: src}

	acc := newAccumulator(nR, nt)
	accepted := 0

	for it := 0; it < m.Chain; it++ {
		prop := cur.clone()
		for r := 0; r < nR; r++ {
			prop.logA0[r] += m.JumpLogA0 * jump.Rand()
			prop.logNa[r] += m.JumpLogNa * jump.Rand()
			prop.x1[r] += m.JumpX1 * jump.Rand()
		}

		propLP := m.logPosterior(set, prior, prop)
		if !math.IsInf(propLP, -1) && !math.IsNaN(propLP) && propLP-curLP >= math.Log(rng.Float64()) {
			cur, curLP = prop, propLP
			accepted++
		}

		if it >= m.Burn && (it-m.Burn)%m.Thin == 0 {
			q, ok := flowQ(set, cur.a0(), cur.na(), cur.x1)
			if !ok {
				// cur was accepted with finite posterior, so its flow
				// law must evaluate
				return nil, fmt.Errorf("estimator: accepted state failed flow-law evaluation")
			}
			acc.add(cur, q)
		}
	}

	if acc.n == 0 {
		return nil, fmt.Errorf("estimator: chain of %d produced no retained samples", m.Chain)
	}

	est := acc.estimate()
	for r := 0; r < nR; r++ {
		for t := 0; t < nt; t++ {
			if !isFinitePositive(est.Q[r][t]) {
				return nil, fmt.Errorf("estimator: non-finite posterior discharge at reach %d step %d", r, t)
			}
		}
	}
	return est, nil
}

// logPosterior is the unnormalized log posterior: parameter priors, a
// lognormal anchor of set-mean discharge to the discharge prior, and a
// mass-conservation term tying reach discharges together per instant.
func (m *Metropolis) logPosterior(set *obs.Set, prior Prior, st *state) float64 {
	nR, nt := set.Dims()

	lp := 0.0
	for r := 0; r < nR; r++ {
		lp += -0.5 * sq((st.logA0[r]-math.Log(prior.MeanA0[r]))/prior.SigmaLogA0)
		lp += -0.5 * sq((st.logNa[r]-math.Log(prior.MeanNa[r]))/prior.SigmaLogNa)
		lp += -0.5 * sq((st.x1[r]-prior.MeanX1[r])/prior.SigmaX1)
	}

	q, ok := flowQ(set, st.a0(), st.na(), st.x1)
	if !ok {
		return math.Inf(-1)
	}

	logQbarHat := 0.0
	for t := 0; t < nt; t++ {
		logQt := 0.0
		for r := 0; r < nR; r++ {
			logQt += math.Log(q[r][t])
		}
		logQt /= float64(nR)
		logQbarHat += logQt

		for r := 0; r < nR; r++ {
			lp += -0.5 * sq((math.Log(q[r][t])-logQt)/m.SigmaSpatial)
		}
	}
	logQbarHat /= float64(nt)

	lp += -0.5 * sq((logQbarHat-math.Log(prior.MeanQbar))/prior.CovQbar)
	return lp
}

func sq(v float64) float64 { return v * v }

// state is one point in parameter space; A0 and na are carried in log space
// so the random walk cannot leave the physical domain.
type state struct {
	logA0 []float64
	logNa []float64
	x1    []float64
}

func newState(prior Prior) *state {
	nR := len(prior.MeanA0)
	st := &state{
		logA0: make([]float64, nR),
		logNa: make([]float64, nR),
		x1:    make([]float64, nR),
	}
	for r := 0; r < nR; r++ {
		st.logA0[r] = math.Log(prior.MeanA0[r])
		st.logNa[r] = math.Log(prior.MeanNa[r])
		st.x1[r] = prior.MeanX1[r]
	}
	return st
}

func (s *state) clone() *state {
	return &state{
		logA0: append([]float64(nil), s.logA0...),
		logNa: append([]float64(nil), s.logNa...),
		x1:    append([]float64(nil), s.x1...),
	}
}

func (s *state) a0() []float64 { return expAll(s.logA0) }
func (s *state) na() []float64 { return expAll(s.logNa) }

func expAll(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, v := range xs {
		out[i] = math.Exp(v)
	}
	return out
}

// accumulator keeps running first and second moments of the retained
// samples so the chain never has to be stored.
type accumulator struct {
	n int

	sumA0, sumNa, sumX1 []float64
	sumQ, sumQ2         [][]float64
}

func newAccumulator(nR, nt int) *accumulator {
	a := &accumulator{
		sumA0: make([]float64, nR),
		sumNa: make([]float64, nR),
		sumX1: make([]float64, nR),
		sumQ:  make([][]float64, nR),
		sumQ2: make([][]float64, nR),
	}
	for r := 0; r < nR; r++ {
		a.sumQ[r] = make([]float64, nt)
		a.sumQ2[r] = make([]float64, nt)
	}
	return a
}

func (a *accumulator) add(st *state, q [][]float64) {
	a.n++
	for r := range a.sumA0 {
		a.sumA0[r] += math.Exp(st.logA0[r])
		a.sumNa[r] += math.Exp(st.logNa[r])
		a.sumX1[r] += st.x1[r]
		for t := range a.sumQ[r] {
			a.sumQ[r][t] += q[r][t]
			a.sumQ2[r][t] += q[r][t] * q[r][t]
		}
	}
}

func (a *accumulator) estimate() *Estimate {
	nR := len(a.sumA0)
	n := float64(a.n)

	est := &Estimate{
		A0:   make([]float64, nR),
		Na:   make([]float64, nR),
		X1:   make([]float64, nR),
		Q:    make([][]float64, nR),
		QUnc: make([][]float64, nR),
	}
	for r := 0; r < nR; r++ {
		est.A0[r] = a.sumA0[r] / n
		est.Na[r] = a.sumNa[r] / n
		est.X1[r] = a.sumX1[r] / n

		nt := len(a.sumQ[r])
		est.Q[r] = make([]float64, nt)
		est.QUnc[r] = make([]float64, nt)
		for t := 0; t < nt; t++ {
			mean := a.sumQ[r][t] / n
			variance := a.sumQ2[r][t]/n - mean*mean
			if variance < 0 {
				variance = 0
			}
			est.Q[r][t] = mean
			est.QUnc[r][t] = math.Sqrt(variance)
		}
	}
	return est
}
