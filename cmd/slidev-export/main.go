// slidev-export drives a one-shot, synchronous export of a running Slidev
// deck to pdf, png, pptx, md, or mp4 — the direct (non-job-service) path
// described alongside §4.G's background HTTP service. Flags mirror the
// ExportRequest fields of §3; this is the CLI surface config/CLI parsing
// (§1 Out of scope) is consumed through.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/slidev/export-pipeline/internal/browser"
	"github.com/slidev/export-pipeline/internal/mp4"
	"github.com/slidev/export-pipeline/internal/progress"
	"github.com/slidev/export-pipeline/internal/render"
	_ "github.com/slidev/export-pipeline/internal/render/md"
	_ "github.com/slidev/export-pipeline/internal/render/pdf"
	_ "github.com/slidev/export-pipeline/internal/render/png"
	_ "github.com/slidev/export-pipeline/internal/render/pptx"
	"github.com/slidev/export-pipeline/internal/slide"
)

var (
	flagBase           string
	flagSlides         string
	flagFormat         string
	flagRange          string
	flagOutput         string
	flagWidth          int
	flagHeight         int
	flagDark           bool
	flagRouterMode     string
	flagWithClicks     bool
	flagPerSlide       bool
	flagScale          float64
	flagOmitBg         bool
	flagTimeoutMs      int
	flagWaitMs         int
	flagWaitUntil      string
	flagWithToc        bool
	flagExecutablePath string
	flagVideoInterval  int
	flagVideoFps       int
	flagVideoSize      string
	flagVideoMotion    float64
	flagFfmpegBin      string
	flagDebug          bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "slidev-export",
	Short: "Export a running Slidev deck to pdf, png, pptx, md, or mp4",
	RunE:  runExport,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&flagBase, "base", "http://localhost:3030", "base URL of the running Slidev deck")
	flags.StringVar(&flagSlides, "slides", "", "path to a JSON slide-metadata manifest (required for pdf/pptx/md)")
	flags.StringVar(&flagFormat, "format", "pdf", "output format: pdf|png|pptx|md|mp4")
	flags.StringVar(&flagRange, "range", "", "slide range expression, e.g. \"1-3,5\" (empty means every slide)")
	flags.StringVar(&flagOutput, "output", "", "output path (file for pdf/pptx/md/mp4, directory for png)")
	flags.IntVar(&flagWidth, "width", 1920, "print canvas width")
	flags.IntVar(&flagHeight, "height", 1080, "print canvas height")
	flags.BoolVar(&flagDark, "dark", false, "use the dark color scheme")
	flags.StringVar(&flagRouterMode, "router-mode", "history", "router mode: hash|history")
	flags.BoolVar(&flagWithClicks, "with-clicks", false, "capture every click state (forced on for pptx/mp4; pptx captures only each slide's initial state)")
	flags.BoolVar(&flagPerSlide, "per-slide", false, "per-slide capture instead of one-piece")
	flags.Float64Var(&flagScale, "scale", 2, "device scale factor")
	flags.BoolVar(&flagOmitBg, "omit-background", false, "transparent PNG background")
	flags.IntVar(&flagTimeoutMs, "timeout", 30000, "per-navigation timeout in ms")
	flags.IntVar(&flagWaitMs, "wait", 0, "post-navigation delay in ms (stored in the request; no renderer applies it)")
	flags.StringVar(&flagWaitUntil, "wait-until", "networkidle", "networkidle|load|domcontentloaded|none")
	flags.BoolVar(&flagWithToc, "with-toc", false, "attach a PDF table of contents")
	flags.StringVar(&flagExecutablePath, "executable-path", "", "override the Chromium executable path")
	flags.IntVar(&flagVideoInterval, "video-interval", 2000, "ms to dwell per step (mp4)")
	flags.IntVar(&flagVideoFps, "video-fps", 30, "encoded frame rate, 1-60 (mp4)")
	flags.StringVar(&flagVideoSize, "video-size", "1920x1080", "WxH video canvas (mp4)")
	flags.Float64Var(&flagVideoMotion, "video-motion-scale", 1, "capture-side motion dilation factor (mp4)")
	flags.StringVar(&flagFfmpegBin, "ffmpeg", "ffmpeg", "ffmpeg binary path (mp4)")
	flags.BoolVar(&flagDebug, "debug", false, "verbose mp4 diagnostics to stderr")
}

func runExport(cmd *cobra.Command, _ []string) error {
	format := slide.Format(flagFormat)

	req := slide.DefaultExportRequest()
	req.Format = format
	req.Range = flagRange
	req.Output = flagOutput
	req.Width = flagWidth
	req.Height = flagHeight
	req.Dark = flagDark
	req.RouterMode = slide.RouterMode(flagRouterMode)
	req.WithClicks = flagWithClicks || format == slide.FormatPPTX || format == slide.FormatMP4
	req.PerSlide = flagPerSlide
	req.Scale = flagScale
	req.OmitBackground = flagOmitBg
	req.Timeout = time.Duration(flagTimeoutMs) * time.Millisecond
	req.Wait = time.Duration(flagWaitMs) * time.Millisecond
	req.WaitUntil = slide.WaitUntil(flagWaitUntil)
	req.WithToc = flagWithToc
	req.ExecutablePath = flagExecutablePath

	if format == slide.FormatMP4 {
		w, h, err := slide.ParseSize(flagVideoSize)
		if err != nil {
			return err
		}
		req.VideoWidth = w
		req.VideoHeight = h
		req.VideoInterval = time.Duration(flagVideoInterval) * time.Millisecond
		req.VideoFps = flagVideoFps
		req.VideoMotionScale = flagVideoMotion
	}

	var slides []slide.Slide
	if flagSlides != "" {
		loaded, err := (slide.FileSource{Path: flagSlides}).Load()
		if err != nil {
			return err
		}
		slides = loaded
	} else if format != slide.FormatPNG && format != slide.FormatMP4 {
		return fmt.Errorf("--slides is required for format %q", format)
	}

	expanded, err := expandRangeFallback(flagRange, slides)
	if err != nil {
		return err
	}
	if err := req.Validate(expanded); err != nil {
		return err
	}

	logger := newLogger(flagDebug)

	if format == slide.FormatMP4 {
		if err := mp4.ProbeFfmpeg(flagFfmpegBin); err != nil {
			return err
		}
	}

	drv, err := browser.New(req.ExecutablePath)
	if err != nil {
		return err
	}
	defer drv.Close()

	reporter := progress.New(os.Stderr, string(format)+" export", progressTotal(format, expanded))
	defer reporter.Stop()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if format == slide.FormatMP4 {
		recorder := mp4.New(logger, flagFfmpegBin)
		if err := recorder.Record(ctx, drv, flagBase, req, expanded); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "wrote %s\n", req.Output)
		return nil
	}

	out, err := render.Dispatch(ctx, drv, flagBase, req, slides, expanded)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "wrote %s\n", out)
	return nil
}

func progressTotal(format slide.Format, expanded slide.Range) int {
	if format == slide.FormatMP4 {
		return 0
	}
	return len(expanded)
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// expandRangeFallback expands flagRange, defaulting to every known slide
// when the flag is empty.
func expandRangeFallback(expr string, slides []slide.Slide) (slide.Range, error) {
	if expr != "" {
		return slide.ExpandRangeExpr(expr)
	}
	if len(slides) == 0 {
		return nil, fmt.Errorf("no slides available to derive a default range; pass --slides or --range")
	}
	out := make(slide.Range, 0, len(slides))
	for _, s := range slides {
		out = append(out, s.Index)
	}
	return out, nil
}
