package stepbridge

import "testing"

func TestToInt(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want int
	}{
		{"float64", float64(3), 3},
		{"int", 7, 7},
		{"nil", nil, 0},
		{"string", "3", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := toInt(tt.in); got != tt.want {
				t.Fatalf("toInt(%v) = %d; want %d", tt.in, got, tt.want)
			}
		})
	}
}
