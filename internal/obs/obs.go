// Package obs holds the domain descriptor and the aligned reach-by-time
// observation matrices for one reach set, along with the validity filter
// that drops time columns containing bad readings.
package obs

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Domain describes the spatial and temporal extent of one reach set.
type Domain struct {
	NR int // number of reaches
	NT int // number of aligned time steps

	Length  []float64 // reach length [m], per reach
	DistOut []float64 // distance to outlet [m], per reach
	XKM     []float64 // reach midpoint distance downstream [m], derived

	ElapsedDays []float64 // time axis, days since first instant
	DTSeconds   []float64 // NT-1 spacings between instants [s]
}

// DeriveXKM computes reach midpoint distance downstream from lengths and
// outlet distances: max(distOut) - distOut + L[0]/2.
func (d *Domain) DeriveXKM() {
	if len(d.DistOut) == 0 || len(d.Length) == 0 {
		return
	}
	maxOut := d.DistOut[0]
	for _, v := range d.DistOut[1:] {
		if v > maxOut {
			maxOut = v
		}
	}
	d.XKM = make([]float64, len(d.DistOut))
	for i, v := range d.DistOut {
		d.XKM[i] = maxOut - v + d.Length[0]/2
	}
}

// Set is the aligned observation set: one nR-by-nt matrix per channel.
// DA (cross-sectional area change) is derived later, once the channels are
// filtered.
type Set struct {
	H *mat.Dense // water surface elevation
	W *mat.Dense // width
	S *mat.Dense // slope

	DA *mat.Dense // area change relative to minimum-stage section
}

// NewSet allocates empty nR-by-nt channel matrices.
func NewSet(nR, nt int) *Set {
	return &Set{
		H: mat.NewDense(nR, nt, nil),
		W: mat.NewDense(nR, nt, nil),
		S: mat.NewDense(nR, nt, nil),
	}
}

// Dims returns the reach and time-step dimensions of the channel matrices.
func (s *Set) Dims() (nR, nt int) {
	return s.H.Dims()
}

// SetReach copies one reach's aligned channel rows into row r. Every slice
// must have the aligned axis length.
func (s *Set) SetReach(r int, h, w, slope []float64) error {
	_, nt := s.H.Dims()
	if len(h) != nt || len(w) != nt || len(slope) != nt {
		return fmt.Errorf("reach row %d: channel lengths (%d,%d,%d) do not match nt=%d",
			r, len(h), len(w), len(slope), nt)
	}
	s.H.SetRow(r, h)
	s.W.SetRow(r, w)
	s.S.SetRow(r, slope)
	return nil
}

// ApplyMask selects the masked positions of a raw channel sequence,
// preserving order. len(mask) must equal len(raw).
func ApplyMask(raw []float64, mask []bool) []float64 {
	out := make([]float64, 0, len(raw))
	for i, sel := range mask {
		if sel {
			out = append(out, raw[i])
		}
	}
	return out
}

// BadColumns scans the channel matrices for time columns where any reach
// has a NaN reading in any channel. Indices are returned ascending.
func (s *Set) BadColumns() []int {
	nR, nt := s.H.Dims()
	var bad []int
	for t := 0; t < nt; t++ {
		colBad := false
		for r := 0; r < nR && !colBad; r++ {
			if math.IsNaN(s.H.At(r, t)) || math.IsNaN(s.W.At(r, t)) || math.IsNaN(s.S.At(r, t)) {
				colBad = true
			}
		}
		if colBad {
			bad = append(bad, t)
		}
	}
	return bad
}

// Filter removes every time column flagged by BadColumns from all three
// channel matrices and returns the deletion ledger: the ascending pre-filter
// indices of the removed columns. Relative order of retained columns is
// preserved. Filtering an already-clean set removes nothing.
func (s *Set) Filter() []int {
	bad := s.BadColumns()
	if len(bad) == 0 {
		return nil
	}
	s.H = deleteColumns(s.H, bad)
	s.W = deleteColumns(s.W, bad)
	s.S = deleteColumns(s.S, bad)
	return bad
}

func deleteColumns(m *mat.Dense, deleted []int) *mat.Dense {
	nR, nt := m.Dims()
	isDeleted := make(map[int]bool, len(deleted))
	for _, d := range deleted {
		isDeleted[d] = true
	}
	out := mat.NewDense(nR, nt-len(deleted), nil)
	dst := 0
	for t := 0; t < nt; t++ {
		if isDeleted[t] {
			continue
		}
		for r := 0; r < nR; r++ {
			out.Set(r, dst, m.At(r, t))
		}
		dst++
	}
	return out
}

// Flatten returns the column-major view of a channel matrix used by the
// estimator: v[t*nR+r] = M[r,t], reach index fastest.
func Flatten(m *mat.Dense) []float64 {
	nR, nt := m.Dims()
	out := make([]float64, nR*nt)
	for t := 0; t < nt; t++ {
		for r := 0; r < nR; r++ {
			out[t*nR+r] = m.At(r, t)
		}
	}
	return out
}

// DeleteFloats removes the listed ascending indices from a slice, returning
// a new slice with relative order preserved.
func DeleteFloats(xs []float64, deleted []int) []float64 {
	if len(deleted) == 0 {
		return append([]float64(nil), xs...)
	}
	isDeleted := make(map[int]bool, len(deleted))
	for _, d := range deleted {
		isDeleted[d] = true
	}
	out := make([]float64, 0, len(xs)-len(deleted))
	for i, v := range xs {
		if !isDeleted[i] {
			out = append(out, v)
		}
	}
	return out
}
