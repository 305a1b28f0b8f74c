package assemble

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scatter is the reference form of the re-expansion: place filtered values
// into the complement of deleted within a full-length slice and write fill
// at every deleted index.
func scatter(filtered []float64, deleted []int, fill float64) []float64 {
	n := len(filtered) + len(deleted)
	isDeleted := make(map[int]bool, len(deleted))
	for _, d := range deleted {
		isDeleted[d] = true
	}
	out := make([]float64, n)
	src := 0
	for i := 0; i < n; i++ {
		if isDeleted[i] {
			out[i] = fill
		} else {
			out[i] = filtered[src]
			src++
		}
	}
	return out
}

func TestInsertionTargets(t *testing.T) {
	assert.Equal(t, []int{1, 2}, InsertionTargets([]int{1, 3}))
	assert.Equal(t, []int{0, 0, 0}, InsertionTargets([]int{0, 1, 2}))
	assert.Empty(t, InsertionTargets(nil))
}

func TestExpandConcrete(t *testing.T) {
	// pre-filter nt=6, deleted columns 1 and 3
	filtered := []float64{1, 2, 3, 4}
	got := Expand(filtered, []int{1, 3}, FillValue)

	want := []float64{1, FillValue, 2, FillValue, 3, 4}
	assert.Equal(t, want, got)
}

func TestExpandNoDeletions(t *testing.T) {
	filtered := []float64{5, 6, 7}
	got := Expand(filtered, nil, FillValue)
	assert.Equal(t, filtered, got)

	// input must not be aliased
	got[0] = 99
	assert.Equal(t, 5.0, filtered[0])
}

func TestExpandEdgePositions(t *testing.T) {
	tests := []struct {
		name     string
		filtered []float64
		deleted  []int
		want     []float64
	}{
		{"first column", []float64{2, 3}, []int{0}, []float64{FillValue, 2, 3}},
		{"last column", []float64{2, 3}, []int{2}, []float64{2, 3, FillValue}},
		{"all columns", nil, []int{0, 1, 2}, []float64{FillValue, FillValue, FillValue}},
		{"consecutive run", []float64{9}, []int{0, 1, 2}, []float64{FillValue, FillValue, FillValue, 9}},
		{"spread columns", []float64{1, 2, 3}, []int{0, 2, 5}, []float64{FillValue, 1, FillValue, 2, 3, FillValue}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Expand(tt.filtered, tt.deleted, FillValue))
		})
	}
}

func TestExpandMatchesScatter(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 200; trial++ {
		n := 1 + rng.Intn(40)
		k := rng.Intn(n + 1)

		perm := rng.Perm(n)
		deleted := append([]int(nil), perm[:k]...)
		sort.Ints(deleted)

		filtered := make([]float64, n-k)
		for i := range filtered {
			filtered[i] = rng.NormFloat64()
		}

		got := Expand(filtered, deleted, FillValue)
		want := scatter(filtered, deleted, FillValue)

		require.Equal(t, want, got, "n=%d deleted=%v", n, deleted)
		require.Len(t, got, n)
	}
}

func TestExpandRows(t *testing.T) {
	rows := [][]float64{{1, 2}, {3, 4}}
	got := ExpandRows(rows, []int{1}, FillValue)
	assert.Equal(t, [][]float64{
		{1, FillValue, 2},
		{3, FillValue, 4},
	}, got)
}

func TestFillHelpers(t *testing.T) {
	assert.Equal(t, []float64{FillValue, FillValue}, FillSlice(2, FillValue))
	m := FillRows(2, 3, FillValue)
	require.Len(t, m, 2)
	for _, row := range m {
		assert.Equal(t, FillSlice(3, FillValue), row)
	}
}
