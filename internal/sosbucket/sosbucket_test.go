package sosbucket

import (
	"context"
	"testing"
)

func TestShouldFetch(t *testing.T) {
	tests := []struct {
		bucket string
		want   bool
	}{
		{"", false},
		{"local", false},
		{"confluence-sos", true},
	}
	for _, tt := range tests {
		if got := ShouldFetch(tt.bucket); got != tt.want {
			t.Errorf("ShouldFetch(%q) = %v, want %v", tt.bucket, got, tt.want)
		}
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Error("expected error for empty bucket name")
	}
}
