package slide

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestFileSourceLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")
	const manifest = `[
		{"index": 1, "title": "Intro", "note": "say hi", "author": "Ada", "keywords": ["go", "slidev"]},
		{"index": 2, "title": "Details", "hideInToc": true, "titleLevel": 2}
	]`
	if err := os.WriteFile(path, []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	slides, err := FileSource{Path: path}.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := []Slide{
		{
			Index: 1,
			Title: "Intro",
			Note:  "say hi",
			Frontmatter: Frontmatter{
				Author:   "Ada",
				Keywords: []string{"go", "slidev"},
			},
		},
		{
			Index: 2,
			Title: "Details",
			Frontmatter: Frontmatter{
				HideInToc:  true,
				TitleLevel: 2,
			},
		},
	}
	if !reflect.DeepEqual(slides, want) {
		t.Fatalf("Load() = %#v; want %#v", slides, want)
	}
}

func TestFileSourceLoadMissingFile(t *testing.T) {
	_, err := FileSource{Path: "/nonexistent/manifest.json"}.Load()
	if err == nil {
		t.Fatal("Load() expected error for missing file, got nil")
	}
}

func TestFileSourceLoadInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	_, err := FileSource{Path: path}.Load()
	if err == nil {
		t.Fatal("Load() expected error for invalid json, got nil")
	}
}
