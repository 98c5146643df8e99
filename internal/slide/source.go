package slide

import (
	"encoding/json"
	"fmt"
	"os"
)

// Source loads the immutable slide metadata that drives every renderer.
// Slide parsing and metadata extraction are explicitly out of scope (§1);
// this is the interface boundary a caller's own extractor writes to and
// this pipeline reads from.
type Source interface {
	Load() ([]Slide, error)
}

// FileSource reads a pre-extracted JSON manifest of slide metadata, the
// shape an out-of-scope parser (§1) is expected to produce.
type FileSource struct {
	Path string
}

type manifestSlide struct {
	Index       int      `json:"index"`
	Title       string   `json:"title"`
	Note        string   `json:"note"`
	Author      string   `json:"author"`
	Info        string   `json:"info"`
	Keywords    []string `json:"keywords"`
	HideInToc   bool     `json:"hideInToc"`
	TitleLevel  int      `json:"titleLevel"`
}

// Load reads and decodes the manifest at s.Path.
func (s FileSource) Load() ([]Slide, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("slide manifest %s: %w", s.Path, err)
	}
	var raw []manifestSlide
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("slide manifest %s: invalid json: %w", s.Path, err)
	}
	slides := make([]Slide, 0, len(raw))
	for _, m := range raw {
		slides = append(slides, Slide{
			Index: m.Index,
			Title: m.Title,
			Note:  m.Note,
			Frontmatter: Frontmatter{
				Author:     m.Author,
				Info:       m.Info,
				Keywords:   m.Keywords,
				HideInToc:  m.HideInToc,
				TitleLevel: m.TitleLevel,
			},
		})
	}
	return slides, nil
}
