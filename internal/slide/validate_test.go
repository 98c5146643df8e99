package slide

import (
	"strings"
	"testing"
)

func TestSanitizeFilenameComponent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "deck-name", "deck-name"},
		{"spaces collapse", "my deck name", "my-deck-name"},
		{"leading trailing junk", "!!hello!!", "hello"},
		{"double dash collapses", "a--b", "a-b"},
		{"slashes become dash", "a/b\\c", "a-b-c"},
		{"unicode collapses", "déck", "d-ck"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeFilenameComponent(tt.in)
			if got != tt.want {
				t.Errorf("SanitizeFilenameComponent(%q) = %q; want %q", tt.in, got, tt.want)
			}
			for i := 0; i+1 < len(got); i++ {
				if got[i] == '-' && got[i+1] == '-' {
					t.Errorf("SanitizeFilenameComponent(%q) = %q contains a -- run", tt.in, got)
				}
			}
			if len(got) > 0 && (got[0] == '-' || got[len(got)-1] == '-') {
				t.Errorf("SanitizeFilenameComponent(%q) = %q has leading/trailing dash", tt.in, got)
			}
		})
	}
}

func TestRangeContiguous(t *testing.T) {
	tests := []struct {
		name string
		r    Range
		want bool
	}{
		{"empty", Range{}, false},
		{"single", Range{3}, true},
		{"contiguous", Range{2, 3, 4}, true},
		{"gap", Range{1, 3}, false},
		{"reversed", Range{3, 2, 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Contiguous(); got != tt.want {
				t.Errorf("Range(%v).Contiguous() = %v; want %v", tt.r, got, tt.want)
			}
		})
	}
}

func TestExportRequestValidate(t *testing.T) {
	base := DefaultExportRequest()
	base.Format = FormatMP4

	t.Run("rejects withClicks=false", func(t *testing.T) {
		req := base
		req.WithClicks = false
		if err := req.Validate(Range{1, 2}); err == nil {
			t.Fatal("expected error for withClicks=false")
		}
	})

	t.Run("rejects non-contiguous range", func(t *testing.T) {
		req := base
		req.WithClicks = true
		if err := req.Validate(Range{1, 3}); err == nil {
			t.Fatal("expected error for non-contiguous range")
		} else if got := err.Error(); !strings.Contains(got, "contiguous") {
			t.Fatalf("error = %q, want substring 'contiguous'", got)
		}
	})

	t.Run("rejects bad fps", func(t *testing.T) {
		req := base
		req.WithClicks = true
		req.VideoFps = 0
		if err := req.Validate(Range{1, 2}); err == nil {
			t.Fatal("expected error for fps=0")
		}
	})

	t.Run("accepts valid mp4 request", func(t *testing.T) {
		req := base
		req.WithClicks = true
		if err := req.Validate(Range{1, 2}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("rejects empty range regardless of format", func(t *testing.T) {
		req := DefaultExportRequest()
		req.Format = FormatPDF
		if err := req.Validate(Range{}); err == nil {
			t.Fatal("expected error for empty range")
		}
	})
}
