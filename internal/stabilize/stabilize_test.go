package stabilize

import "testing"

func TestParseCSSDurationMs(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int
		wantErr bool
	}{
		{"empty", "", 0, false},
		{"milliseconds", "300ms", 300, false},
		{"seconds", "0.5s", 500, false},
		{"whole seconds", "1s", 1000, false},
		{"unitless", "250", 250, false},
		{"garbage", "not-a-duration", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCSSDurationMs(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseCSSDurationMs(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Fatalf("parseCSSDurationMs(%q) = %d; want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestClampDuration(t *testing.T) {
	tests := []struct {
		name     string
		v, lo, hi int
		want     int
	}{
		{"within range", 500, 120, 3000, 500},
		{"below floor", 50, 120, 3000, 120},
		{"above ceiling", 5000, 120, 3000, 3000},
		{"at floor", 120, 120, 3000, 120},
		{"at ceiling", 3000, 120, 3000, 3000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clampDuration(tt.v, tt.lo, tt.hi); got != tt.want {
				t.Fatalf("clampDuration(%d,%d,%d) = %d; want %d", tt.v, tt.lo, tt.hi, got, tt.want)
			}
		})
	}
}
