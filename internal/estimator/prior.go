package estimator

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/swot-confluence/metroman/internal/obs"
)

// Prior anchors the estimation to externally supplied mean discharge and
// hydraulic-geometry relations.
type Prior struct {
	MeanQbar float64 // set-mean discharge prior [m^3/s]
	CovQbar  float64 // coefficient of variation on MeanQbar

	// per-reach prior means for the flow-law parameters
	MeanA0 []float64
	MeanNa []float64
	MeanX1 []float64

	// prior spreads, shared across reaches
	SigmaLogA0 float64
	SigmaLogNa float64
	SigmaX1    float64
}

const (
	priorCovQbar = 0.5
	priorMeanNa  = 0.03
	priorMeanX1  = 0.0

	priorSigmaLogA0 = 0.5
	priorSigmaLogNa = 0.5
	priorSigmaX1    = 0.25
)

// BuildPrior derives per-reach parameter priors from each reach's mean
// discharge and the filtered observations. A0 prior means come from the
// Moody-Troutman depth relation d = 0.27 Q^0.39 applied to the reach's mean
// observed width, net of the mean area change already present in the
// observations.
func BuildPrior(qbar []float64, set *obs.Set) (Prior, error) {
	nR, nt := set.Dims()
	if len(qbar) != nR {
		return Prior{}, fmt.Errorf("prior: %d discharge priors for %d reaches", len(qbar), nR)
	}
	if set.DA == nil {
		return Prior{}, fmt.Errorf("prior: area-change matrix not derived")
	}

	meanQbar := stat.Mean(qbar, nil)
	if !(meanQbar > 0) || math.IsInf(meanQbar, 0) {
		return Prior{}, fmt.Errorf("prior: unusable set-mean discharge %g", meanQbar)
	}

	p := Prior{
		MeanQbar:   meanQbar,
		CovQbar:    priorCovQbar,
		MeanA0:     make([]float64, nR),
		MeanNa:     make([]float64, nR),
		MeanX1:     make([]float64, nR),
		SigmaLogA0: priorSigmaLogA0,
		SigmaLogNa: priorSigmaLogNa,
		SigmaX1:    priorSigmaX1,
	}

	depth := 0.27 * math.Pow(meanQbar, 0.39)
	for r := 0; r < nR; r++ {
		wSum, daSum := 0.0, 0.0
		for t := 0; t < nt; t++ {
			wSum += set.W.At(r, t)
			daSum += set.DA.At(r, t)
		}
		wBar := wSum / float64(nt)
		daBar := daSum / float64(nt)

		a0 := depth*wBar - daBar
		if floor := 0.1 * depth * wBar; a0 < floor {
			a0 = floor
		}
		p.MeanA0[r] = a0
		p.MeanNa[r] = priorMeanNa
		p.MeanX1[r] = priorMeanX1
	}

	return p, nil
}
