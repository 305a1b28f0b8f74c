// Package assemble re-expresses estimates computed on the filtered time axis
// back onto the pre-filter aligned axis, writing the fill value at every
// position the validity filter deleted.
package assemble

// FillValue is the reserved sentinel marking removed or unavailable data in
// every numeric output.
const FillValue = -999999999999.0

// InsertionTargets maps an ascending set of pre-filter deletion indices to
// positions on the filtered axis. Target j is deleted[j]-j: the filtered
// position in front of which the j-th sentinel belongs. During sequential
// insertion the j earlier sentinels have shifted that position back to
// deleted[j].
func InsertionTargets(deleted []int) []int {
	targets := make([]int, len(deleted))
	for j, d := range deleted {
		targets[j] = d - j
	}
	return targets
}

// Expand inserts fill at the insertion targets derived from deleted,
// lengthening filtered back to the pre-filter axis, so that sentinel j ends
// up at pre-filter index deleted[j]. The input slice is not modified. Expand
// with an empty deletion set returns a copy of filtered.
func Expand(filtered []float64, deleted []int, fill float64) []float64 {
	out := make([]float64, len(filtered), len(filtered)+len(deleted))
	copy(out, filtered)
	for j, pos := range InsertionTargets(deleted) {
		at := pos + j // j sentinels already sit to the left
		out = append(out, 0)
		copy(out[at+1:], out[at:])
		out[at] = fill
	}
	return out
}

// ExpandRows applies Expand to each row of a reach-by-time matrix.
func ExpandRows(filtered [][]float64, deleted []int, fill float64) [][]float64 {
	out := make([][]float64, len(filtered))
	for i, row := range filtered {
		out[i] = Expand(row, deleted, fill)
	}
	return out
}

// FillSlice returns a slice of n fill values.
func FillSlice(n int, fill float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = fill
	}
	return out
}

// FillRows returns an r-by-c matrix of fill values.
func FillRows(r, c int, fill float64) [][]float64 {
	out := make([][]float64, r)
	for i := range out {
		out[i] = FillSlice(c, fill)
	}
	return out
}
