// Package pdf implements the PDF Format Renderer (§4.D): one-piece and
// per-slide capture, page merge, metadata, and TOC/outline injection, built
// on pdfcpu's merge, properties, and bookmark APIs, grounded on the
// retrieval pack's MiniCodeMonkey-tap PDF exporter.
package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/playwright-community/playwright-go"

	"github.com/slidev/export-pipeline/internal/browser"
	"github.com/slidev/export-pipeline/internal/render"
	"github.com/slidev/export-pipeline/internal/slide"
	"github.com/slidev/export-pipeline/internal/stabilize"
	"github.com/slidev/export-pipeline/internal/stepbridge"
)

func init() {
	render.Register(slide.FormatPDF, Renderer{})
}

// Renderer implements render.Renderer for the pdf format.
type Renderer struct{}

func (Renderer) Render(ctx context.Context, drv *browser.Driver, baseURL string, req slide.ExportRequest, slides []slide.Slide, expanded slide.Range) (string, error) {
	sess, err := drv.NewPrintSession(req.Width, req.Height, req.Scale)
	if err != nil {
		return "", fmt.Errorf("pdf: open session: %w", err)
	}
	defer sess.Close()

	var pages []string
	var cleanup func()
	if req.PerSlide {
		pages, cleanup, err = capturePerSlide(sess, baseURL, req, expanded)
	} else {
		pages, cleanup, err = captureOnePiece(sess, baseURL, req, expanded)
	}
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		return "", err
	}

	merged, err := mergePages(pages, req.Output)
	if err != nil {
		return "", err
	}

	if err := addMetadata(merged, req, slides); err != nil {
		return "", fmt.Errorf("pdf: add metadata: %w", err)
	}

	if req.WithToc {
		if err := addOutline(merged, slides); err != nil {
			return "", fmt.Errorf("pdf: add outline: %w", err)
		}
	}

	return merged, nil
}

func captureOnePiece(sess *browser.Session, baseURL string, req slide.ExportRequest, expanded slide.Range) ([]string, func(), error) {
	opts := browser.NavOptions{
		Base:       baseURL,
		RouterMode: req.RouterMode,
		Dark:       req.Dark,
		WaitUntil:  req.WaitUntil,
		Timeout:    int(req.Timeout.Milliseconds()),
		Range:      rangeParam(expanded),
	}
	if err := sess.GotoPrintAll(opts); err != nil {
		return nil, nil, err
	}
	if _, err := stabilize.Stabilize(sess.Page(), stabilize.Options{Timeout: req.Timeout}); err != nil {
		return nil, nil, fmt.Errorf("pdf: stabilize: %w", err)
	}

	tmp, err := os.CreateTemp("", "slidev-export-*.pdf")
	if err != nil {
		return nil, nil, fmt.Errorf("pdf: create temp file: %w", err)
	}
	path := tmp.Name()
	tmp.Close()

	if _, err := sess.Page().PDF(playwright.PagePdfOptions{
		Path:            playwright.String(path),
		Width:           playwright.String(fmt.Sprintf("%dpx", req.Width)),
		Height:          playwright.String(fmt.Sprintf("%dpx", req.Height)),
		PrintBackground: playwright.Bool(!req.OmitBackground),
	}); err != nil {
		// playwright's page.PDF requires Chromium headless in "new" mode.
		// There is no fallback path; the original error is surfaced for
		// diagnostics.
		return nil, func() { os.Remove(path) }, fmt.Errorf("pdf: render print route: %w", err)
	}

	return []string{path}, func() { os.Remove(path) }, nil
}

func capturePerSlide(sess *browser.Session, baseURL string, req slide.ExportRequest, expanded slide.Range) ([]string, func(), error) {
	var pages []string
	var tmpFiles []string
	cleanup := func() {
		for _, p := range tmpFiles {
			os.Remove(p)
		}
	}

	for _, no := range expanded {
		opts := browser.NavOptions{
			Base:       baseURL,
			RouterMode: req.RouterMode,
			Dark:       req.Dark,
			WaitUntil:  req.WaitUntil,
			Timeout:    int(req.Timeout.Milliseconds()),
		}
		if err := sess.GotoSlide(no, 0, req.WithClicks, "true", opts); err != nil {
			cleanup()
			return nil, nil, err
		}

		clicksTotal := 0
		if req.WithClicks {
			if info, err := stepbridge.GetStepInfo(sess.Page()); err == nil {
				clicksTotal = info.ClicksTotal
			}
		}

		for clicks := 0; clicks <= clicksTotal; clicks++ {
			if clicks > 0 {
				if err := sess.GotoSlide(no, clicks, req.WithClicks, "true", opts); err != nil {
					cleanup()
					return nil, nil, err
				}
			}

			tmp, err := os.CreateTemp("", "slidev-export-page-*.pdf")
			if err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("pdf: create temp page file: %w", err)
			}
			path := tmp.Name()
			tmp.Close()
			tmpFiles = append(tmpFiles, path)

			if _, err := stabilize.Stabilize(sess.Page(), stabilize.Options{Timeout: req.Timeout}); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("pdf: stabilize slide %d click %d: %w", no, clicks, err)
			}

			if _, err := sess.Page().PDF(playwright.PagePdfOptions{
				Path:            playwright.String(path),
				Width:           playwright.String(fmt.Sprintf("%dpx", req.Width)),
				Height:          playwright.String(fmt.Sprintf("%dpx", req.Height)),
				PrintBackground: playwright.Bool(!req.OmitBackground),
			}); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("pdf: render slide %d click %d: %w", no, clicks, err)
			}
			pages = append(pages, path)
		}
	}

	return pages, cleanup, nil
}

func mergePages(pages []string, output string) (string, error) {
	if output == "" {
		return "", fmt.Errorf("pdf: output path required")
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return "", fmt.Errorf("pdf: create output dir: %w", err)
	}
	if len(pages) == 1 {
		if err := copyFile(pages[0], output); err != nil {
			return "", err
		}
		return output, nil
	}
	if err := api.MergeCreateFile(pages, output, false, nil); err != nil {
		return "", fmt.Errorf("pdf: merge pages: %w", err)
	}
	return output, nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("pdf: read %s: %w", src, err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("pdf: write %s: %w", dst, err)
	}
	return nil
}

func addMetadata(path string, req slide.ExportRequest, slides []slide.Slide) error {
	if len(slides) == 0 {
		return nil
	}
	first := slides[0]
	props := map[string]string{
		"Title":    first.Title,
		"Subject":  first.Frontmatter.Info,
		"Author":   first.Frontmatter.Author,
		"Keywords": strings.Join(first.Frontmatter.Keywords, ", "),
	}
	return api.AddPropertiesFile(path, "", props, nil)
}

func addOutline(path string, slides []slide.Slide) error {
	lines := BuildOutline(slides)
	if len(lines) == 0 {
		return nil
	}
	return api.AddBookmarksFile(path, "", bookmarkTree(lines), false, nil)
}

// bmNode is a scratch tree node used while nesting the flat, page-ordered
// OutlineLine slice; it holds *bmNode children so appending a sibling never
// invalidates a pointer held by an ancestor frame (unlike appending
// model.Bookmark values directly, where a slice reallocation would strand
// writes to the old backing array).
type bmNode struct {
	page  int
	title string
	kids  []*bmNode
}

// bookmarkTree nests the flat, page-ordered OutlineLine slice into pdfcpu's
// model.Bookmark tree shape (parent/Kids) using the same level-stack
// algorithm BuildOutline already applied to compute indentation.
func bookmarkTree(lines []OutlineLine) []model.Bookmark {
	type frame struct {
		level int
		node  *bmNode
	}

	var roots []*bmNode
	var stack []frame

	for _, l := range lines {
		n := &bmNode{page: l.Page, title: l.Title}

		for len(stack) > 0 && stack[len(stack)-1].level >= l.Level {
			stack = stack[:len(stack)-1]
		}

		if len(stack) == 0 {
			roots = append(roots, n)
		} else {
			parent := stack[len(stack)-1].node
			parent.kids = append(parent.kids, n)
		}
		stack = append(stack, frame{level: l.Level, node: n})
	}

	return toBookmarks(roots)
}

func toBookmarks(nodes []*bmNode) []model.Bookmark {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]model.Bookmark, len(nodes))
	for i, n := range nodes {
		out[i] = model.Bookmark{PageFrom: n.page, Title: n.title, Kids: toBookmarks(n.kids)}
	}
	return out
}

// OutlineLine is one rendered TOC line: "<page>|<dashes>|<title>". Hidden
// flags a slide whose frontmatter sets hideInToc.
type OutlineLine struct {
	Page   int
	Level  int
	Title  string
	Hidden bool
}

func (l OutlineLine) String() string {
	return fmt.Sprintf("%d|%s|%s", l.Page, strings.Repeat("-", l.Level-1), l.Title)
}

// BuildOutline maps titled slides into a tree by titleLevel: a slide with a
// deeper level descends under the previous sibling if that sibling's level
// is shallower; otherwise it joins at the current level. Every titled slide
// yields exactly one line; hideInToc slides are kept and flagged Hidden.
func BuildOutline(slides []slide.Slide) []OutlineLine {
	var lines []OutlineLine
	var stack []int // level of each open ancestor

	for i, s := range slides {
		if s.Title == "" {
			continue
		}
		level := s.Frontmatter.TitleLevel
		if level <= 0 {
			level = 1
		}

		for len(stack) > 0 && stack[len(stack)-1] >= level {
			stack = stack[:len(stack)-1]
		}
		stack = append(stack, level)

		lines = append(lines, OutlineLine{
			Page:   i + 1,
			Level:  level,
			Title:  s.Title,
			Hidden: s.Frontmatter.HideInToc,
		})
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Page < lines[j].Page })
	return lines
}

func rangeParam(expanded slide.Range) string {
	parts := make([]string, len(expanded))
	for i, n := range expanded {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
