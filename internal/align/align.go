// Package align computes the shared observation time axis for a set of
// reaches and, for each reach, a selection mask from its raw sample sequence
// onto that axis.
//
// Overpass times arrive independently per reach, with gaps and occasional
// duplicate timestamps. The common axis is the intersection of every reach's
// defined instants, sorted ascending and deduplicated. Masks always select
// the first occurrence of an instant within a reach's own raw sequence.
package align

import "sort"

// Tick is one raw observation instant in a reach's sample sequence. Defined
// is false when the source recorded no usable timestamp at that position.
type Tick struct {
	Value   int64
	Defined bool
}

// ReachSeries is the raw, ordered instant sequence for one reach. A reach
// whose source file is absent contributes an empty (nil) sequence.
type ReachSeries struct {
	ReachID int64
	Ticks   []Tick
}

// Alignment is the common time axis across a reach set plus per-reach
// selection masks. Each mask has the length of that reach's raw sequence;
// the number of true entries equals len(Instants) whenever alignment is
// consistent.
type Alignment struct {
	Instants []int64          // sorted ascending, deduplicated
	Masks    map[int64][]bool // keyed by reach ID
}

// NT returns the number of aligned time steps.
func (a *Alignment) NT() int {
	return len(a.Instants)
}

// SelectedCount returns the number of raw positions the mask for reachID
// selects. Used by callers as a consistency guard against the axis length.
func (a *Alignment) SelectedCount(reachID int64) int {
	n := 0
	for _, sel := range a.Masks[reachID] {
		if sel {
			n++
		}
	}
	return n
}

// Overlap intersects the defined instants of every reach in order and builds
// the per-reach selection masks.
//
// The overlap set is seeded from the first reach's candidate set, so a first
// reach with no data yields an empty axis. That ordering sensitivity is
// inherited behavior; callers catch the nt=0 case through the quality
// checkpoints rather than here.
func Overlap(series []ReachSeries) *Alignment {
	a := &Alignment{
		Masks: make(map[int64][]bool, len(series)),
	}
	if len(series) == 0 {
		return a
	}

	overlap := make(map[int64]bool)
	for i, rs := range series {
		candidates := make(map[int64]bool)
		for _, tk := range rs.Ticks {
			if tk.Defined {
				candidates[tk.Value] = true
			}
		}
		if i == 0 {
			overlap = candidates
			continue
		}
		for t := range overlap {
			if !candidates[t] {
				delete(overlap, t)
			}
		}
	}

	a.Instants = make([]int64, 0, len(overlap))
	for t := range overlap {
		a.Instants = append(a.Instants, t)
	}
	sort.Slice(a.Instants, func(i, j int) bool { return a.Instants[i] < a.Instants[j] })

	for _, rs := range series {
		mask := make([]bool, len(rs.Ticks))
		seen := make(map[int64]bool, len(rs.Ticks))
		for i, tk := range rs.Ticks {
			if !tk.Defined {
				continue
			}
			if seen[tk.Value] {
				// duplicate timestamp within this reach; only the
				// first occurrence is ever selected
				continue
			}
			seen[tk.Value] = true
			if overlap[tk.Value] {
				mask[i] = true
			}
		}
		a.Masks[rs.ReachID] = mask
	}

	return a
}

// ElapsedDays converts hour ticks to fractional days elapsed since the first
// instant. Returns nil for an empty axis.
func ElapsedDays(instants []int64) []float64 {
	if len(instants) == 0 {
		return nil
	}
	out := make([]float64, len(instants))
	for i, t := range instants {
		out[i] = float64(t-instants[0]) / 24.0
	}
	return out
}

// DeltaSeconds returns the len(elapsedDays)-1 spacings between consecutive
// instants, in seconds.
func DeltaSeconds(elapsedDays []float64) []float64 {
	if len(elapsedDays) < 2 {
		return nil
	}
	out := make([]float64, len(elapsedDays)-1)
	for i := 0; i < len(out); i++ {
		out[i] = (elapsedDays[i+1] - elapsedDays[i]) * 86400.0
	}
	return out
}
