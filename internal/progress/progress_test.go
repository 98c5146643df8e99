package progress

import (
	"bytes"
	"strings"
	"testing"
)

func TestReporterRendersProgress(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, "pdf", 4)
	r.Advance(2)
	r.render()
	r.Stop()

	out := buf.String()
	if !strings.Contains(out, "pdf") {
		t.Fatalf("render output %q missing label", out)
	}
	if !strings.Contains(out, "2/4") {
		t.Fatalf("render output %q missing progress fraction", out)
	}
}

func TestReporterIndeterminate(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, "mp4", 0)
	r.Advance(3)
	r.render()
	r.Stop()

	out := buf.String()
	if !strings.Contains(out, "mp4") || !strings.Contains(out, "(3)") {
		t.Fatalf("render output %q missing indeterminate counter", out)
	}
}

func TestReporterQuietWithNilWriter(t *testing.T) {
	r := New(nil, "noop", 1)
	r.Advance(1)
	r.Stop() // must not block or panic when no loop was started
}
