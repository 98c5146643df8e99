// Package md implements the Markdown Format Renderer (§4.D): captures one
// PNG per slide (one per click state when withClicks is set) into the output
// file's directory and writes a bundle file with image references and
// speaker notes. Note text is run through goldmark as a validity check and
// embedded unchanged, matching the pack's use of goldmark for
// markdown-adjacent text handling.
package md

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/playwright-community/playwright-go"
	"github.com/yuin/goldmark"

	"github.com/slidev/export-pipeline/internal/browser"
	"github.com/slidev/export-pipeline/internal/render"
	"github.com/slidev/export-pipeline/internal/slide"
	"github.com/slidev/export-pipeline/internal/stabilize"
	"github.com/slidev/export-pipeline/internal/stepbridge"
)

func init() {
	render.Register(slide.FormatMD, Renderer{})
}

// Renderer implements render.Renderer for the md format.
type Renderer struct{}

func (Renderer) Render(ctx context.Context, drv *browser.Driver, baseURL string, req slide.ExportRequest, slides []slide.Slide, expanded slide.Range) (string, error) {
	if req.Output == "" {
		return "", fmt.Errorf("md: output path required")
	}
	imgDir := filepath.Dir(req.Output)
	if err := os.MkdirAll(imgDir, 0o755); err != nil {
		return "", fmt.Errorf("md: create output dir: %w", err)
	}

	sess, err := drv.NewPrintSession(req.Width, req.Height, req.Scale)
	if err != nil {
		return "", fmt.Errorf("md: open session: %w", err)
	}
	defer sess.Close()

	var sections []string

	for _, no := range expanded {
		opts := browser.NavOptions{
			Base:       baseURL,
			RouterMode: req.RouterMode,
			Dark:       req.Dark,
			WaitUntil:  req.WaitUntil,
			Timeout:    int(req.Timeout.Milliseconds()),
		}
		if err := sess.GotoSlide(no, 0, req.WithClicks, "true", opts); err != nil {
			return "", err
		}

		clicksTotal := 0
		if req.WithClicks {
			if info, err := stepbridge.GetStepInfo(sess.Page()); err == nil {
				clicksTotal = info.ClicksTotal
			}
		}

		var meta slide.Slide
		if no-1 >= 0 && no-1 < len(slides) {
			meta = slides[no-1]
		}

		var images []string
		for clicks := 0; clicks <= clicksTotal; clicks++ {
			if clicks > 0 {
				if err := sess.GotoSlide(no, clicks, req.WithClicks, "true", opts); err != nil {
					return "", err
				}
			}
			name := fmt.Sprintf("%02d.png", no)
			if clicksTotal > 0 {
				name = fmt.Sprintf("%02d-%d.png", no, clicks)
			}
			path := filepath.Join(imgDir, name)
			if _, err := stabilize.Stabilize(sess.Page(), stabilize.Options{Timeout: req.Timeout}); err != nil {
				return "", fmt.Errorf("md: stabilize slide %d click %d: %w", no, clicks, err)
			}
			if _, err := sess.Page().Screenshot(playwright.PageScreenshotOptions{
				Path:           playwright.String(path),
				OmitBackground: playwright.Bool(req.OmitBackground),
			}); err != nil {
				return "", fmt.Errorf("md: screenshot slide %d click %d: %w", no, clicks, err)
			}
			images = append(images, name)
		}

		sections = append(sections, renderSection(meta, images))
	}

	bundle := strings.Join(sections, "\n---\n\n")
	if err := os.WriteFile(req.Output, []byte(bundle), 0o644); err != nil {
		return "", fmt.Errorf("md: write bundle: %w", err)
	}
	return req.Output, nil
}

func renderSection(meta slide.Slide, images []string) string {
	var b strings.Builder
	for _, img := range images {
		fmt.Fprintf(&b, "![%s](./%s)\n\n", meta.Title, img)
	}
	if meta.Note != "" {
		b.WriteString(renderNote(meta.Note))
		b.WriteString("\n")
	}
	return b.String()
}

// renderNote validates the note text through goldmark (catching malformed
// markdown before it is embedded in the bundle) and returns the original
// note text unchanged on success, since the bundle itself is markdown and
// should not be pre-rendered to HTML.
func renderNote(note string) string {
	var discard bytes.Buffer
	if err := goldmark.Convert([]byte(note), &discard); err != nil {
		return strings.TrimSpace(note)
	}
	return note
}
