package mp4

import (
	"testing"
	"time"
)

func TestFrameScheduler_CatchUp(t *testing.T) {
	start := time.Unix(0, 0)
	s := NewFrameScheduler(30, start)

	// 500ms have elapsed but only 2 frames were written; the scheduler
	// must report enough duplicates to catch writtenFrames up to
	// wall-clock expectations.
	s.RecordWritten(2)
	now := start.Add(500 * time.Millisecond)

	expected := s.ExpectedFrames(now)
	if expected != 15 {
		t.Fatalf("ExpectedFrames = %d; want 15", expected)
	}

	dup := s.Duplicates(now)
	if dup != expected-2 {
		t.Fatalf("Duplicates = %d; want %d", dup, expected-2)
	}

	s.RecordWritten(dup)
	if s.WrittenFrames() != expected {
		t.Fatalf("WrittenFrames = %d; want %d", s.WrittenFrames(), expected)
	}
}

func TestFrameScheduler_NoDrop(t *testing.T) {
	start := time.Unix(0, 0)
	s := NewFrameScheduler(30, start)

	// Writing ahead of wall-clock expectations must never produce a
	// negative duplicate count (no frame is ever "dropped" to compensate).
	s.RecordWritten(100)
	now := start.Add(500 * time.Millisecond)

	if dup := s.Duplicates(now); dup != 0 {
		t.Fatalf("Duplicates = %d; want 0 when ahead of schedule", dup)
	}
}

func TestFrameScheduler_ExpectedFramesFloorAtOne(t *testing.T) {
	start := time.Unix(0, 0)
	s := NewFrameScheduler(30, start)
	if got := s.ExpectedFrames(start); got != 1 {
		t.Fatalf("ExpectedFrames at t=0 = %d; want 1", got)
	}
}

func TestFrameScheduler_SleepDuration(t *testing.T) {
	start := time.Unix(0, 0)
	s := NewFrameScheduler(30, start)
	s.RecordWritten(1)

	// frameInterval = 1000/30ms ~ 33.33ms; target for frame 2 is 2*interval.
	now := start
	got := s.SleepDuration(now)
	want := 2 * (time.Second / 30)
	if got != want {
		t.Fatalf("SleepDuration = %v; want %v", got, want)
	}

	// once elapsed has caught up, sleep must not go negative.
	if got := s.SleepDuration(start.Add(time.Second)); got != 0 {
		t.Fatalf("SleepDuration past target = %v; want 0", got)
	}
}

func TestMinFramesForDuration(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		fps  int
		want int
	}{
		{"exact second at 30fps", time.Second, 30, 30},
		{"exact half second at 30fps", 500 * time.Millisecond, 30, 15},
		{"odd duration rounds up", 101 * time.Millisecond, 30, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MinFramesForDuration(tt.d, tt.fps); got != tt.want {
				t.Fatalf("MinFramesForDuration(%v,%d) = %d; want %d", tt.d, tt.fps, got, tt.want)
			}
		})
	}
}

func TestClipRectRoundsInward(t *testing.T) {
	r := ClipRect(10.2, 20.9, 110.9, 220.1)
	if r.Left != 11 || r.Top != 21 || r.Right != 110 || r.Bottom != 220 {
		t.Fatalf("ClipRect = %+v; want {11 21 110 220}", r)
	}
}

func TestTransitionTimeout(t *testing.T) {
	tests := []struct {
		name string
		in   time.Duration
		want time.Duration
	}{
		{"below floor clamps up", time.Second, 2 * time.Second},
		{"within range passes through", 5 * time.Second, 5 * time.Second},
		{"above ceiling clamps down", 30 * time.Second, 10 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TransitionTimeout(tt.in); got != tt.want {
				t.Fatalf("TransitionTimeout(%v) = %v; want %v", tt.in, got, tt.want)
			}
		})
	}
}
