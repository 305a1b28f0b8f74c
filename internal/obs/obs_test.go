package obs

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func nan() float64 { return math.NaN() }

func buildSet(t *testing.T, h, w, s [][]float64) *Set {
	t.Helper()
	set := NewSet(len(h), len(h[0]))
	for r := range h {
		if err := set.SetReach(r, h[r], w[r], s[r]); err != nil {
			t.Fatalf("SetReach(%d): %v", r, err)
		}
	}
	return set
}

func TestFilterRemovesBadColumns(t *testing.T) {
	// 3 reaches, 5 aligned instants; one width reading bad at column 2
	h := [][]float64{
		{1, 2, 3, 4, 5},
		{1, 2, 3, 4, 5},
		{1, 2, 3, 4, 5},
	}
	w := [][]float64{
		{10, 11, 12, 13, 14},
		{10, 11, nan(), 13, 14},
		{10, 11, 12, 13, 14},
	}
	s := [][]float64{
		{1e-4, 1e-4, 1e-4, 1e-4, 1e-4},
		{1e-4, 1e-4, 1e-4, 1e-4, 1e-4},
		{1e-4, 1e-4, 1e-4, 1e-4, 1e-4},
	}
	set := buildSet(t, h, w, s)

	ledger := set.Filter()
	if len(ledger) != 1 || ledger[0] != 2 {
		t.Fatalf("ledger = %v, want [2]", ledger)
	}

	_, nt := set.Dims()
	if nt != 4 {
		t.Fatalf("nt after filter = %d, want 4", nt)
	}

	// retained columns keep relative order
	wantRow := []float64{1, 2, 4, 5}
	got := mat.Row(nil, 0, set.H)
	for i := range wantRow {
		if got[i] != wantRow[i] {
			t.Errorf("H[0] after filter = %v, want %v", got, wantRow)
			break
		}
	}

	// refiltering an already-filtered set removes nothing
	if again := set.Filter(); again != nil {
		t.Errorf("second filter pass removed columns: %v", again)
	}
}

func TestFilterMultipleChannels(t *testing.T) {
	h := [][]float64{{nan(), 2, 3, 4}}
	w := [][]float64{{10, 11, 12, 13}}
	s := [][]float64{{1e-4, 1e-4, nan(), 1e-4}}
	set := buildSet(t, h, w, s)

	ledger := set.Filter()
	if len(ledger) != 2 || ledger[0] != 0 || ledger[1] != 2 {
		t.Fatalf("ledger = %v, want [0 2]", ledger)
	}
}

func TestFilterCleanSet(t *testing.T) {
	set := buildSet(t,
		[][]float64{{1, 2}},
		[][]float64{{3, 4}},
		[][]float64{{5, 6}},
	)
	if ledger := set.Filter(); ledger != nil {
		t.Errorf("clean set produced ledger %v", ledger)
	}
}

func TestSetReachLengthMismatch(t *testing.T) {
	set := NewSet(1, 3)
	if err := set.SetReach(0, []float64{1, 2}, []float64{1, 2, 3}, []float64{1, 2, 3}); err == nil {
		t.Error("expected error for short channel row")
	}
}

func TestApplyMask(t *testing.T) {
	raw := []float64{10, 20, 30, 40}
	mask := []bool{true, false, true, false}
	got := ApplyMask(raw, mask)
	if len(got) != 2 || got[0] != 10 || got[1] != 30 {
		t.Errorf("ApplyMask = %v, want [10 30]", got)
	}
}

func TestFlattenColumnMajor(t *testing.T) {
	m := mat.NewDense(2, 3, []float64{
		1, 2, 3,
		4, 5, 6,
	})
	got := Flatten(m)
	want := []float64{1, 4, 2, 5, 3, 6}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Flatten = %v, want %v", got, want)
		}
	}
}

func TestDeriveXKM(t *testing.T) {
	d := &Domain{
		Length:  []float64{50e3, 50e3, 50e3},
		DistOut: []float64{150e3, 100e3, 50e3},
	}
	d.DeriveXKM()
	want := []float64{25e3, 75e3, 125e3}
	for i := range want {
		if math.Abs(d.XKM[i]-want[i]) > 1e-9 {
			t.Fatalf("XKM = %v, want %v", d.XKM, want)
		}
	}
}

func TestDeleteFloats(t *testing.T) {
	xs := []float64{0, 1, 2, 3, 4}
	got := DeleteFloats(xs, []int{1, 3})
	want := []float64{0, 2, 4}
	if len(got) != len(want) {
		t.Fatalf("DeleteFloats = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("DeleteFloats = %v, want %v", got, want)
		}
	}

	// empty ledger copies, not aliases
	cp := DeleteFloats(xs, nil)
	cp[0] = 99
	if xs[0] != 0 {
		t.Error("DeleteFloats with empty ledger aliased its input")
	}
}
