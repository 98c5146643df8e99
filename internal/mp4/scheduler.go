// Frame scheduling (§4.E "Frame scheduling"): the wall-clock catch-up
// algorithm, pulled out as pure logic so it can be tested without a real
// browser or encoder. Generalizes the teacher's recordLoop, which already
// computes expectedFrames/duplicates this same way for its fixed-fps
// capture loop.
package mp4

import (
	"math"
	"time"
)

// FrameScheduler tracks how many frames have been written against how many
// wall-clock time says should have been written by now, and tells the
// caller how many duplicate frames to emit to catch up.
type FrameScheduler struct {
	fps           int
	frameInterval time.Duration
	startedAt     time.Time
	writtenFrames int
}

// NewFrameScheduler starts a scheduler at startedAt for the given fps.
func NewFrameScheduler(fps int, startedAt time.Time) *FrameScheduler {
	return &FrameScheduler{
		fps:           fps,
		frameInterval: time.Second / time.Duration(fps),
		startedAt:     startedAt,
	}
}

// WrittenFrames reports how many frames have been recorded so far.
func (s *FrameScheduler) WrittenFrames() int { return s.writtenFrames }

// ExpectedFrames is max(1, floor(elapsed_ms · fps / 1000)).
func (s *FrameScheduler) ExpectedFrames(now time.Time) int {
	elapsedMs := now.Sub(s.startedAt).Milliseconds()
	expected := int(math.Floor(float64(elapsedMs) * float64(s.fps) / 1000))
	if expected < 1 {
		expected = 1
	}
	return expected
}

// Duplicates reports how many extra copies of the last frame are needed to
// catch writtenFrames up to ExpectedFrames(now). Never negative.
func (s *FrameScheduler) Duplicates(now time.Time) int {
	d := s.ExpectedFrames(now) - s.writtenFrames
	if d < 0 {
		return 0
	}
	return d
}

// RecordWritten advances the written-frame counter after the caller has
// successfully written n frames (the original plus any duplicates) to the
// encoder's stdin.
func (s *FrameScheduler) RecordWritten(n int) {
	s.writtenFrames += n
}

// SleepDuration is max(0, (writtenFrames+1)·frameInterval − elapsedSinceStart),
// pacing when the next screenshot should be taken.
func (s *FrameScheduler) SleepDuration(now time.Time) time.Duration {
	target := time.Duration(s.writtenFrames+1) * s.frameInterval
	elapsed := now.Sub(s.startedAt)
	if target <= elapsed {
		return 0
	}
	return target - elapsed
}

// MinFramesForDuration is ceil(durationMs · fps / 1000), the lower bound
// property 1 of the testable-properties list requires writtenFrames to
// satisfy at loop exit.
func MinFramesForDuration(duration time.Duration, fps int) int {
	ms := duration.Milliseconds()
	return int(math.Ceil(float64(ms) * float64(fps) / 1000))
}

// Rect is an integer screen-space rectangle.
type Rect struct {
	Left, Top, Right, Bottom int
}

func (r Rect) Width() int  { return r.Right - r.Left }
func (r Rect) Height() int { return r.Bottom - r.Top }

// ClipRect rounds a fractional bounding box inward (ceil the near edges,
// floor the far edges) per §4.E "Capture clipping", to avoid sub-pixel
// seams at the clip boundary.
func ClipRect(left, top, right, bottom float64) Rect {
	return Rect{
		Left:   int(math.Ceil(left)),
		Top:    int(math.Ceil(top)),
		Right:  int(math.Floor(right)),
		Bottom: int(math.Floor(bottom)),
	}
}

// TransitionTimeout is min(10s, max(2s, timeout)) from §4.E/§5.
func TransitionTimeout(timeout time.Duration) time.Duration {
	lo := 2 * time.Second
	hi := 10 * time.Second
	if timeout < lo {
		timeout = lo
	}
	if timeout > hi {
		timeout = hi
	}
	return timeout
}
