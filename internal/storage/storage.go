// Package storage writes the per-reach-set output record to the configured
// sinks. Every run that reaches a terminal quality tier writes exactly one
// record; fatal conditions upstream write nothing.
package storage

import (
	"context"
	"time"
)

// Record is the single output of one reach-set run. Series are on the
// pre-filter aligned axis (zero-length when the set is invalid); scalars are
// fill-valued when the set is invalid.
type Record struct {
	SetID   string    `json:"set_id"`
	RunID   string    `json:"run_id"`
	RunTime time.Time `json:"run_time"`

	ReachIDs []int64 `json:"reach_ids"`
	Valid    int     `json:"valid"` // 1 when the tier produced estimates
	Tier     string  `json:"tier"`

	A0 []float64 `json:"a0hat"`
	Na []float64 `json:"nahat"`
	X1 []float64 `json:"x1hat"`

	Q    [][]float64 `json:"allq"`
	QUnc [][]float64 `json:"q_u"`

	// Time is the aligned axis as elapsed days since the set's first
	// observation.
	Time []float64 `json:"t"`
}

// Engine is one output sink.
type Engine interface {
	WriteRecord(ctx context.Context, rec *Record) error
	Close() error
}
