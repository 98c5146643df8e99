package job

import (
	"strings"
	"testing"
	"time"
)

func TestBuildFilename(t *testing.T) {
	at := time.Date(2026, 3, 5, 9, 30, 0, 0, time.UTC)
	got := BuildFilename("deck name", "1-3", 30, 1920, 1080, at, "abcdef1234567890")

	want := "deck-name-1-3-30fps-1920x1080-20260305-093000-abcdef12.mp4"
	if got != want {
		t.Fatalf("BuildFilename() = %q; want %q", got, want)
	}
}

func TestBuildFilenameShortJobID(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	got := BuildFilename("d", "1", 24, 640, 480, at, "abc")
	if !strings.HasSuffix(got, "-abc.mp4") {
		t.Fatalf("BuildFilename() = %q; want suffix -abc.mp4", got)
	}
}
