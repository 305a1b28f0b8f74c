package estimator

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/swot-confluence/metroman/internal/obs"
)

// SlopeFloor is the minimum usable water surface slope. Slopes below it are
// clamped before estimation; near-zero slopes make the flow law blow up.
const SlopeFloor = 5e-5

// ApplySlopeFloor clamps every slope reading to at least SlopeFloor.
func ApplySlopeFloor(set *obs.Set) {
	nR, nt := set.Dims()
	for r := 0; r < nR; r++ {
		for t := 0; t < nt; t++ {
			if set.S.At(r, t) < SlopeFloor {
				set.S.Set(r, t, SlopeFloor)
			}
		}
	}
}

// CalcDA fills set.DA, the change in cross-sectional flow area relative to
// each reach's minimum observed stage. For one reach the time steps are
// visited in order of increasing stage and the area increment between
// consecutive stages is the trapezoid of the two widths; dA is zero at the
// minimum stage by construction.
func CalcDA(set *obs.Set) {
	nR, nt := set.Dims()
	da := mat.NewDense(nR, nt, nil)

	for r := 0; r < nR; r++ {
		order := make([]int, nt)
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(i, j int) bool {
			return set.H.At(r, order[i]) < set.H.At(r, order[j])
		})

		cum := 0.0
		for k := 1; k < nt; k++ {
			prev, cur := order[k-1], order[k]
			dh := set.H.At(r, cur) - set.H.At(r, prev)
			wAvg := (set.W.At(r, cur) + set.W.At(r, prev)) / 2
			cum += wAvg * dh
			da.Set(r, cur, cum)
		}
		if nt > 0 {
			da.Set(r, order[0], 0)
		}
	}

	set.DA = da
}
