package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileSink writes each record as a JSON document named
// <set_id>_metroman.json in the output directory.
type FileSink struct {
	dir string
}

// NewFileSink creates the output directory if needed.
func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", dir, err)
	}
	return &FileSink{dir: dir}, nil
}

// Path returns the output file path for a set key.
func (s *FileSink) Path(setID string) string {
	return filepath.Join(s.dir, setID+"_metroman.json")
}

func (s *FileSink) WriteRecord(_ context.Context, rec *Record) error {
	raw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding record %s: %w", rec.SetID, err)
	}
	path := s.Path(rec.SetID)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing record %s: %w", path, err)
	}
	return nil
}

func (s *FileSink) Close() error { return nil }
