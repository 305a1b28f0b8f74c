// Package estimator produces discharge estimates for a reconciled reach set.
//
// The pipeline hands in a filtered, aligned observation set together with
// the quality tier; the estimator answers with per-reach flow-law parameters
// and per-time-step discharge. The Nominal tier runs a Metropolis sampler
// over the flow-law parameters, the Degraded tier propagates the prior
// means through the flow law without sampling. The Invalid tier never
// reaches this package.
package estimator

import (
	"github.com/swot-confluence/metroman/internal/obs"
	"github.com/swot-confluence/metroman/internal/quality"
)

// Estimate is the collaborator output, indexed on the filtered time axis
// until output assembly re-expands it.
type Estimate struct {
	// per-reach flow-law scalars
	A0 []float64 // area offset at minimum observed stage [m^2]
	Na []float64 // roughness coefficient
	X1 []float64 // at-a-station friction exponent

	// per-reach, per-time-step series, filtered-axis length
	Q    [][]float64 // discharge [m^3/s]
	QUnc [][]float64 // discharge uncertainty; nil on the prior-only path
}

// Estimator is the estimation collaborator contract. Implementations are
// handed only Nominal or Degraded tiers. Numerical faults are fatal to the
// run and are returned as errors, never absorbed.
type Estimator interface {
	Estimate(d *obs.Domain, set *obs.Set, prior Prior, tier quality.Tier) (*Estimate, error)
}
