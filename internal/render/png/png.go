// Package png implements the PNG Format Renderer (§4.D): one-piece capture
// via the print-all route's .print-slide-container elements, and per-slide
// capture with zero-padded filenames.
package png

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/playwright-community/playwright-go"

	"github.com/slidev/export-pipeline/internal/browser"
	"github.com/slidev/export-pipeline/internal/render"
	"github.com/slidev/export-pipeline/internal/slide"
	"github.com/slidev/export-pipeline/internal/stabilize"
	"github.com/slidev/export-pipeline/internal/stepbridge"
)

func init() {
	render.Register(slide.FormatPNG, Renderer{})
}

// Renderer implements render.Renderer for the png format.
type Renderer struct{}

func (Renderer) Render(ctx context.Context, drv *browser.Driver, baseURL string, req slide.ExportRequest, slides []slide.Slide, expanded slide.Range) (string, error) {
	outDir := req.Output
	if outDir == "" {
		return "", fmt.Errorf("png: output directory required")
	}
	if err := recreateDir(outDir); err != nil {
		return "", err
	}

	sess, err := drv.NewPrintSession(req.Width, req.Height, req.Scale)
	if err != nil {
		return "", fmt.Errorf("png: open session: %w", err)
	}
	defer sess.Close()

	if req.PerSlide {
		if err := capturePerSlide(sess, baseURL, req, expanded, outDir); err != nil {
			return "", err
		}
		return outDir, nil
	}

	if err := captureOnePiece(sess, baseURL, req, expanded, outDir); err != nil {
		return "", err
	}
	return outDir, nil
}

func recreateDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("png: remove existing output dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("png: create output dir: %w", err)
	}
	return nil
}

func captureOnePiece(sess *browser.Session, baseURL string, req slide.ExportRequest, expanded slide.Range, outDir string) error {
	opts := browser.NavOptions{
		Base:       baseURL,
		RouterMode: req.RouterMode,
		Dark:       req.Dark,
		WaitUntil:  req.WaitUntil,
		Timeout:    int(req.Timeout.Milliseconds()),
		Range:      rangeParamPNG(expanded),
	}
	if err := sess.GotoPrintAll(opts); err != nil {
		return err
	}

	page := sess.Page()
	if _, err := stabilize.Stabilize(page, stabilize.Options{Timeout: req.Timeout}); err != nil {
		return fmt.Errorf("png: stabilize: %w", err)
	}

	locators := page.Locator(".print-slide-container")
	count, err := locators.Count()
	if err != nil {
		return fmt.Errorf("png: count print-slide-container: %w", err)
	}

	for i := 0; i < count; i++ {
		el := locators.Nth(i)
		id, err := el.GetAttribute("id")
		if err != nil || id == "" {
			id = fmt.Sprintf("%d", i+1)
		}
		name := fmt.Sprintf("%s.png", id)
		if !req.WithClicks && len(expanded) > 0 {
			name = fmt.Sprintf("%d.png", expanded[i%len(expanded)])
		}
		path := filepath.Join(outDir, name)
		if _, err := el.Screenshot(playwright.LocatorScreenshotOptions{
			Path:           playwright.String(path),
			OmitBackground: playwright.Bool(req.OmitBackground),
		}); err != nil {
			return fmt.Errorf("png: screenshot container %d: %w", i, err)
		}
	}
	return nil
}

func capturePerSlide(sess *browser.Session, baseURL string, req slide.ExportRequest, expanded slide.Range, outDir string) error {
	page := sess.Page()

	for _, no := range expanded {
		opts := browser.NavOptions{
			Base:       baseURL,
			RouterMode: req.RouterMode,
			Dark:       req.Dark,
			WaitUntil:  req.WaitUntil,
			Timeout:    int(req.Timeout.Milliseconds()),
		}
		if err := sess.GotoSlide(no, 0, req.WithClicks, "true", opts); err != nil {
			return err
		}

		clicksTotal := 0
		if req.WithClicks {
			if info, err := stepbridge.GetStepInfo(page); err == nil {
				clicksTotal = info.ClicksTotal
			}
		}

		for clicks := 0; clicks <= clicksTotal; clicks++ {
			if clicks > 0 {
				if err := sess.GotoSlide(no, clicks, req.WithClicks, "true", opts); err != nil {
					return err
				}
			}

			name := fmt.Sprintf("%02d.png", no)
			if req.WithClicks && clicksTotal > 0 {
				name = fmt.Sprintf("%02d-%d.png", no, clicks)
			}
			path := filepath.Join(outDir, name)

			if _, err := stabilize.Stabilize(page, stabilize.Options{Timeout: req.Timeout}); err != nil {
				return fmt.Errorf("png: stabilize slide %d click %d: %w", no, clicks, err)
			}

			if _, err := page.Screenshot(playwright.PageScreenshotOptions{
				Path:           playwright.String(path),
				OmitBackground: playwright.Bool(req.OmitBackground),
			}); err != nil {
				return fmt.Errorf("png: screenshot slide %d click %d: %w", no, clicks, err)
			}
		}
	}
	return nil
}

func rangeParamPNG(expanded slide.Range) string {
	s := ""
	for i, n := range expanded {
		if i > 0 {
			s += ","
		}
		s += fmt.Sprintf("%d", n)
	}
	return s
}
