package slide

import (
	"reflect"
	"testing"
)

func TestExpandRangeExpr(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Range
		wantErr bool
	}{
		{"single", "3", Range{3}, false},
		{"contiguous dash", "1-3", Range{1, 2, 3}, false},
		{"comma list", "1,3", Range{1, 3}, false},
		{"mixed", "1-2,5", Range{1, 2, 5}, false},
		{"whitespace", " 1 , 3 ", Range{1, 3}, false},
		{"empty", "", nil, true},
		{"reversed range", "3-1", nil, true},
		{"garbage", "abc", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandRangeExpr(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExpandRangeExpr(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ExpandRangeExpr(%q) = %v; want %v", tt.in, got, tt.want)
			}
		})
	}
}
