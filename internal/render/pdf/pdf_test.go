package pdf

import (
	"testing"

	"github.com/slidev/export-pipeline/internal/slide"
)

func TestBuildOutline(t *testing.T) {
	slides := []slide.Slide{
		{Title: "Intro", Frontmatter: slide.Frontmatter{TitleLevel: 1}},
		{Title: "Background", Frontmatter: slide.Frontmatter{TitleLevel: 2}},
		{Title: "Details", Frontmatter: slide.Frontmatter{TitleLevel: 2}},
		{Title: "Conclusion", Frontmatter: slide.Frontmatter{TitleLevel: 1}},
		{Title: ""}, // untitled slide contributes no line
		{Title: "Hidden", Frontmatter: slide.Frontmatter{TitleLevel: 1, HideInToc: true}},
	}

	lines := BuildOutline(slides)

	want := []string{
		"1|", // Intro, level 1 -> 0 dashes
		"2|-",
		"3|-",
		"4|",
		"6|", // Hidden, kept and flagged
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d outline lines, want %d: %+v", len(lines), len(want), lines)
	}
	for i, l := range lines {
		got := l.String()
		if got[:len(want[i])] != want[i] {
			t.Errorf("line %d = %q, want prefix %q", i, got, want[i])
		}
	}

	for _, l := range lines {
		if l.Title == "Hidden" && !l.Hidden {
			t.Errorf("hideInToc slide must produce an outline line flagged Hidden")
		}
	}
}

func TestOutlineLineString(t *testing.T) {
	l := OutlineLine{Page: 5, Level: 3, Title: "Deep"}
	got := l.String()
	want := "5|--|Deep"
	if got != want {
		t.Errorf("OutlineLine.String() = %q; want %q", got, want)
	}
}
