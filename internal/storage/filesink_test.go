package storage

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"
)

func TestFileSinkWriteRecord(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(dir)
	if err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}
	defer sink.Close()

	rec := &Record{
		SetID:    "101-102",
		RunID:    "test-run",
		RunTime:  time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		ReachIDs: []int64{101, 102},
		Valid:    1,
		Tier:     "nominal",
		A0:       []float64{120.5, 130.2},
		Na:       []float64{0.031, 0.029},
		X1:       []float64{0.01, -0.02},
		Q:        [][]float64{{200, 210}, {201, 209}},
		QUnc:     [][]float64{{12, 13}, {11, 14}},
		Time:     []float64{0, 0.875},
	}
	if err := sink.WriteRecord(context.Background(), rec); err != nil {
		t.Fatalf("WriteRecord: %v", err)
	}

	raw, err := os.ReadFile(sink.Path("101-102"))
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	var got Record
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if got.SetID != rec.SetID || got.Valid != 1 || got.Tier != "nominal" {
		t.Errorf("round-tripped record header = %+v", got)
	}
	if len(got.Q) != 2 || got.Q[1][0] != 201 {
		t.Errorf("round-tripped series = %v", got.Q)
	}
}

func TestFileSinkCreatesDirectory(t *testing.T) {
	dir := t.TempDir() + "/nested/out"
	if _, err := NewFileSink(dir); err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("output directory not created: %v", err)
	}
}
