package md

import (
	"strings"
	"testing"

	"github.com/slidev/export-pipeline/internal/slide"
)

func TestRenderSection(t *testing.T) {
	meta := slide.Slide{Title: "Intro", Note: "speaker note"}
	got := renderSection(meta, []string{"01.png", "01-1.png"})

	if !strings.Contains(got, "![Intro](./01.png)") {
		t.Errorf("missing first image reference: %q", got)
	}
	if !strings.Contains(got, "![Intro](./01-1.png)") {
		t.Errorf("missing second image reference: %q", got)
	}
	if !strings.Contains(got, "speaker note") {
		t.Errorf("missing note text: %q", got)
	}
}

func TestRenderNotePassesThroughValidMarkdown(t *testing.T) {
	got := renderNote("plain note")
	if got != "plain note" {
		t.Errorf("renderNote(%q) = %q", "plain note", got)
	}
}
