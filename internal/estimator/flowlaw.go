package estimator

import (
	"math"

	"github.com/swot-confluence/metroman/internal/obs"
)

// flowQ evaluates the Manning-type flow law for one parameter vector:
//
//	Q = (1/n) A^(5/3) W^(-2/3) S^(1/2)
//
// with A = A0 + dA and a stage-dependent friction n = na (D/Dbar)^x1, where
// D = A/W is hydraulic depth and Dbar its time mean for the reach. ok is
// false when any section goes non-physical (non-positive area or width),
// which the sampler treats as zero posterior mass.
func flowQ(set *obs.Set, a0, na, x1 []float64) (q [][]float64, ok bool) {
	nR, nt := set.Dims()

	// evaluated every chain iteration; work on the flattened views
	w := obs.Flatten(set.W)
	s := obs.Flatten(set.S)
	da := obs.Flatten(set.DA)

	q = make([][]float64, nR)
	for r := 0; r < nR; r++ {
		depths := make([]float64, nt)
		dBar := 0.0
		for t := 0; t < nt; t++ {
			area := a0[r] + da[t*nR+r]
			width := w[t*nR+r]
			if area <= 0 || width <= 0 {
				return nil, false
			}
			depths[t] = area / width
			dBar += depths[t]
		}
		dBar /= float64(nt)

		q[r] = make([]float64, nt)
		for t := 0; t < nt; t++ {
			area := a0[r] + da[t*nR+r]
			width := w[t*nR+r]
			n := na[r] * math.Pow(depths[t]/dBar, x1[r])
			if n <= 0 || math.IsNaN(n) {
				return nil, false
			}
			q[r][t] = math.Pow(area, 5.0/3.0) * math.Pow(width, -2.0/3.0) *
				math.Sqrt(s[t*nR+r]) / n
			if !isFinitePositive(q[r][t]) {
				return nil, false
			}
		}
	}
	return q, true
}

func isFinitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
