package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/bianoble/bundlepack/internal/progress"
)

func TestHumanSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{1, "1 B"},
		{512, "512 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{1073741824, "1.0 GB"},
		{2684354560, "2.5 GB"},
	}

	for _, tt := range tests {
		got := humanSize(tt.bytes)
		if got != tt.want {
			t.Errorf("humanSize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

func TestCancelledRecognizesAbort(t *testing.T) {
	old := quiet
	quiet = true
	defer func() { quiet = old }()

	if !cancelled(fmt.Errorf("scan: %w", progress.ErrCancelled)) {
		t.Error("wrapped ErrCancelled should count as cancelled")
	}
	if cancelled(errors.New("disk full")) {
		t.Error("ordinary error should not count as cancelled")
	}
}

func TestReporterSilentUnlessVerbose(t *testing.T) {
	old := verbose
	verbose = false
	defer func() { verbose = old }()

	if newReporter() != nil {
		t.Error("reporter should be nil without --verbose")
	}
}
