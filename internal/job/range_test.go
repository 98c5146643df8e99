package job

import (
	"reflect"
	"testing"

	"github.com/slidev/export-pipeline/internal/slide"
)

func TestParseRangeExpr(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    slide.Range
		wantErr bool
	}{
		{"single", "3", slide.Range{3}, false},
		{"contiguous dash", "1-3", slide.Range{1, 2, 3}, false},
		{"comma list", "1,3", slide.Range{1, 3}, false},
		{"mixed", "1-2,5", slide.Range{1, 2, 5}, false},
		{"empty", "", nil, true},
		{"reversed range", "3-1", nil, true},
		{"garbage", "abc", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRangeExpr(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseRangeExpr(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("parseRangeExpr(%q) = %v; want %v", tt.in, got, tt.want)
			}
		})
	}
}
