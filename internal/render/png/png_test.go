package png

import (
	"testing"

	"github.com/slidev/export-pipeline/internal/slide"
)

func TestRangeParamPNG(t *testing.T) {
	tests := []struct {
		name string
		in   slide.Range
		want string
	}{
		{"empty", slide.Range{}, ""},
		{"single", slide.Range{3}, "3"},
		{"multiple", slide.Range{1, 2, 3}, "1,2,3"},
		{"non-contiguous", slide.Range{1, 3}, "1,3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rangeParamPNG(tt.in); got != tt.want {
				t.Errorf("rangeParamPNG(%v) = %q; want %q", tt.in, got, tt.want)
			}
		})
	}
}
