// Package mp4 implements the MP4 Recorder (§4.E) and Encoder Process
// (§4.F): navigates to the embedded "play" route, drives the Step Bridge
// through every step of the requested range, and streams a clipped
// screenshot per frame into an ffmpeg subprocess. Grounded on the teacher's
// internal/recorder/recorder.go recordLoop, generalized from a fixed-fps
// dashboard capture to step/clip/motion-dilation-aware slide recording.
package mp4

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/slidev/export-pipeline/internal/browser"
	"github.com/slidev/export-pipeline/internal/slide"
	"github.com/slidev/export-pipeline/internal/stabilize"
	"github.com/slidev/export-pipeline/internal/stepbridge"
)

// Recorder drives one MP4 export job end to end.
type Recorder struct {
	logger    *slog.Logger
	ffmpegBin string
}

// New builds a Recorder. ffmpegBin is the encoder binary path (teacher's
// cfg.FfmpegPath equivalent).
func New(logger *slog.Logger, ffmpegBin string) *Recorder {
	return &Recorder{logger: logger, ffmpegBin: ffmpegBin}
}

// Record runs the full capture loop and writes the MP4 to req.Output.
func (r *Recorder) Record(ctx context.Context, drv *browser.Driver, baseURL string, req slide.ExportRequest, expanded slide.Range) (err error) {
	if err := ProbeFfmpeg(r.ffmpegBin); err != nil {
		return err
	}
	if len(expanded) == 0 {
		return fmt.Errorf("mp4: empty range")
	}
	if !expanded.Contiguous() {
		return fmt.Errorf("mp4: range must be contiguous")
	}

	CheckClockSkew(r.logger, "")

	startSlideNo := expanded[0]
	endSlideNo := expanded[len(expanded)-1]

	sess, err := drv.NewVideoSession(req.VideoWidth, req.VideoHeight)
	if err != nil {
		return fmt.Errorf("mp4: open session: %w", err)
	}
	defer sess.Close()

	opts := browser.NavOptions{
		Base:       baseURL,
		RouterMode: req.RouterMode,
		Dark:       req.Dark,
		WaitUntil:  req.WaitUntil,
		Timeout:    int(req.Timeout.Milliseconds()),
	}
	if err := sess.GotoPlay(startSlideNo, opts); err != nil {
		return fmt.Errorf("mp4: navigate to play mode: %w", err)
	}

	if _, err := stepbridge.Detect(sess.Page()); err != nil {
		return err
	}

	speedup := req.VideoMotionScale
	if speedup < 1 {
		speedup = 1
	}

	var cleanupMotion func()
	if req.VideoMotionScale > 1 {
		cleanupMotion, err = applyMotionDilation(sess.Page(), req.VideoMotionScale)
		if err != nil {
			return fmt.Errorf("mp4: apply motion dilation: %w", err)
		}
	}
	if cleanupMotion != nil {
		defer cleanupMotion()
	}

	enc, err := StartEncoder(ctx, EncoderOptions{
		FfmpegBin: r.ffmpegBin,
		Fps:       req.VideoFps,
		Speedup:   speedup,
		Output:    req.Output,
	})
	if err != nil {
		return fmt.Errorf("mp4: start encoder: %w", err)
	}

	if err := r.captureLoop(ctx, sess, req, startSlideNo, endSlideNo, enc); err != nil {
		enc.Abort()
		return err
	}

	enc.CloseStdin()
	if err := enc.Wait(); err != nil {
		return fmt.Errorf("mp4: encoder: %w", err)
	}
	return nil
}

func (r *Recorder) captureLoop(ctx context.Context, sess *browser.Session, req slide.ExportRequest, startSlideNo, endSlideNo int, enc *Encoder) error {
	page := sess.Page()
	scheduler := NewFrameScheduler(req.VideoFps, time.Now())
	speedup := req.VideoMotionScale
	if speedup < 1 {
		speedup = 1
	}

	capture := func() error {
		frame, err := captureFrame(page)
		if err != nil {
			return fmt.Errorf("mp4: capture frame: %w", err)
		}
		return r.writeWithCatchUp(scheduler, enc, frame)
	}

	captureFor := func(d time.Duration) error {
		deadline := time.Now().Add(d)
		for time.Now().Before(deadline) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if err := capture(); err != nil {
				return err
			}
			time.Sleep(scheduler.SleepDuration(time.Now()))
		}
		return nil
	}

	if err := capture(); err != nil {
		return err
	}

	dwell := time.Duration(float64(req.VideoInterval) * speedup)
	transitionTimeout := TransitionTimeout(req.Timeout)

	for {
		res, err := stabilize.StabilizeForVideo(page, "#slide-content", stabilize.Options{Timeout: req.Timeout})
		if err != nil {
			r.logger.Warn("mp4: step-settle wait failed", "err", err)
		}
		for _, w := range res.Warnings {
			r.logger.Warn("mp4: step-settle warning", "warning", w)
		}

		if err := captureFor(dwell); err != nil {
			return err
		}

		info, err := stepbridge.GetStepInfo(page)
		if err != nil {
			return fmt.Errorf("mp4: read step info: %w", err)
		}
		if !info.HasNext || (info.No >= endSlideNo && info.Clicks >= info.ClicksTotal) {
			break
		}

		prevKey := info.Key()
		advanced, err := stepbridge.NextStep(page)
		if err != nil {
			return fmt.Errorf("mp4: advance step: %w", err)
		}
		if !advanced {
			return fmt.Errorf("mp4: advance from step %+v: %w", prevKey, stepbridge.ErrNoStepBridge)
		}

		if err := r.waitForStepChange(ctx, page, prevKey, transitionTimeout, capture, scheduler); err != nil {
			return err
		}

		// Capture for one additional transition budget — the Stabilizer's
		// own clamp(duration+300ms, 120ms, 3000ms), not the (much longer)
		// step-advance timeout above — to record the tail of the animation.
		if err := captureFor(stabilize.TransitionSettleBudget(page)); err != nil {
			return err
		}
	}

	return capture()
}

func (r *Recorder) waitForStepChange(ctx context.Context, page playwright.Page, prevKey slide.StepKey, timeout time.Duration, capture func() error, scheduler *FrameScheduler) error {
	deadline := time.Now().Add(timeout)
	for {
		if err := capture(); err != nil {
			return err
		}

		info, err := stepbridge.GetStepInfo(page)
		if err != nil {
			return fmt.Errorf("mp4: read step info during transition: %w", err)
		}
		if info.Key() != prevKey {
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("failed to advance from step %+v", prevKey)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		time.Sleep(scheduler.SleepDuration(time.Now()))
	}
}

func (r *Recorder) writeWithCatchUp(scheduler *FrameScheduler, enc *Encoder, frame []byte) error {
	if err := enc.WriteFrame(frame); err != nil {
		return err
	}
	scheduler.RecordWritten(1)

	now := time.Now()
	dup := scheduler.Duplicates(now)
	for i := 0; i < dup; i++ {
		if err := enc.WriteFrame(frame); err != nil {
			return err
		}
	}
	if dup > 0 {
		scheduler.RecordWritten(dup)
	}
	return nil
}

func captureFrame(page playwright.Page) ([]byte, error) {
	clip, err := slideContentClip(page)
	opts := playwright.PageScreenshotOptions{Type: playwright.ScreenshotTypePng}
	if err == nil {
		opts.Clip = &playwright.Rect{
			X:      float64(clip.Left),
			Y:      float64(clip.Top),
			Width:  float64(clip.Width()),
			Height: float64(clip.Height()),
		}
	}
	return page.Screenshot(opts)
}

func slideContentClip(page playwright.Page) (Rect, error) {
	box, err := page.Locator("#slide-content").BoundingBox()
	if err != nil || box == nil {
		return Rect{}, fmt.Errorf("mp4: slide-content bounding box unavailable: %w", err)
	}
	return ClipRect(box.X, box.Y, box.X+box.Width, box.Y+box.Height), nil
}

const motionDilationScript = `(scale) => {
	document.documentElement.style.setProperty(
		'--slidev-transition-duration',
		(parseFloat(getComputedStyle(document.documentElement).getPropertyValue('--slidev-transition-duration')) || 500) * scale + 'ms'
	);
	const original = new WeakMap();
	const normalize = () => {
		document.getAnimations().forEach((anim) => {
			if (!original.has(anim)) original.set(anim, anim.playbackRate);
			anim.playbackRate = original.get(anim) / scale;
		});
	};
	normalize();
	const timer = setInterval(normalize, 250);
	window.__slidev_export_motion_cleanup__ = () => clearInterval(timer);
}`

const motionCleanupScript = `() => {
	if (window.__slidev_export_motion_cleanup__) {
		window.__slidev_export_motion_cleanup__();
		delete window.__slidev_export_motion_cleanup__;
	}
}`

// applyMotionDilation implements §4.E's "capture-side motion dilation": it
// multiplies the transition duration custom property and normalizes every
// running animation's playbackRate on a 250ms in-page timer. The returned
// cleanup function clears that timer; per §9's open question, if the page
// navigates before cleanup runs the timer is simply discarded with the
// page, which is accepted and documented rather than guarded against.
func applyMotionDilation(page playwright.Page, scale float64) (func(), error) {
	if _, err := page.Evaluate(motionDilationScript, scale); err != nil {
		return nil, err
	}
	return func() {
		_, _ = page.Evaluate(motionCleanupScript)
	}, nil
}
