// Package render dispatches an ExportRequest to the renderer registered for
// its format (§9 design note: "dynamic dispatch across formats" rather than
// a switch statement, so each format lives in its own package and the set
// is open to extension).
package render

import (
	"context"
	"fmt"

	"github.com/slidev/export-pipeline/internal/browser"
	"github.com/slidev/export-pipeline/internal/slide"
)

// Renderer produces one export artifact from a running Slidev deck.
type Renderer interface {
	Render(ctx context.Context, drv *browser.Driver, baseURL string, req slide.ExportRequest, slides []slide.Slide, expanded slide.Range) (outputPath string, err error)
}

var registry = map[slide.Format]Renderer{}

// Register installs a Renderer for a format. Called from each renderer
// package's init().
func Register(format slide.Format, r Renderer) {
	registry[format] = r
}

// Dispatch looks up and invokes the renderer for req.Format.
func Dispatch(ctx context.Context, drv *browser.Driver, baseURL string, req slide.ExportRequest, slides []slide.Slide, expanded slide.Range) (string, error) {
	r, ok := registry[req.Format]
	if !ok {
		return "", fmt.Errorf("no renderer registered for format %q", req.Format)
	}
	return r.Render(ctx, drv, baseURL, req, slides, expanded)
}
