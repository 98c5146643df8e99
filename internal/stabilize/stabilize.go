// Package stabilize implements the Stabilizer (§4.B): it waits for a slide
// to reach visual quiescence before a screenshot is taken, and (for MP4)
// waits for CSS transitions to settle between steps.
//
// Grounded on the teacher's page.Evaluate / page.WaitForLoadState usage and
// on the Promise-wrapped polling idiom shown in the pack's
// MiniCodeMonkey-tap waitForImages helper (a setTimeout-guarded Promise that
// resolves instead of rejecting on timeout, so a stalled wait never aborts
// capture).
package stabilize

import (
	"fmt"
	"math"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Options configures which quiescence checks to run.
type Options struct {
	Timeout time.Duration
}

// Result carries non-fatal warnings collected during stabilization (§9 open
// question: resolved to "per-job warning list" rather than a process-wide
// exit code, see DESIGN.md).
type Result struct {
	Warnings []string
}

// Stabilize waits for the print/raster quiescence checks of §4.B steps 1-5.
func Stabilize(page playwright.Page, opts Options) (Result, error) {
	var res Result

	if err := waitDetach(page, ".slidev-loading, .loading-placeholder", opts.Timeout); err != nil {
		return res, fmt.Errorf("loading placeholder never detached: %w", err)
	}

	if warn := waitForDataWaitfor(page, opts.Timeout); warn != "" {
		res.Warnings = append(res.Warnings, warn)
	}

	if err := waitFramesLoaded(page, opts.Timeout); err != nil {
		return res, fmt.Errorf("sub-frame load state: %w", err)
	}

	if err := settleMermaid(page, opts.Timeout); err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("mermaid settle: %v", err))
	}

	if err := hideCodeEditorA11y(page); err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("code editor a11y hide: %v", err))
	}

	return res, nil
}

// StabilizeForVideo performs the base print/raster quiescence checks of
// §4.B steps 1-5 ("additionally" in the spec's wording implies the base
// checks still apply for MP4), then the MP4-specific transition wait: read
// --slidev-transition-duration, sleep clamp(duration+300ms, 120ms, 3000ms),
// poll for no *-enter-active/*-leave-active elements, then yield two
// animation frames.
func StabilizeForVideo(page playwright.Page, slideshowSelector string, opts Options) (Result, error) {
	res, err := Stabilize(page, opts)
	if err != nil {
		return res, err
	}

	time.Sleep(TransitionSettleBudget(page))

	if err := pollTransitionsSettled(page, slideshowSelector, 3*time.Second); err != nil {
		return res, err
	}

	return res, yieldAnimationFrames(page, 2)
}

// TransitionSettleBudget reads --slidev-transition-duration and returns
// clamp(duration+300ms, 120ms, 3000ms) — "the Stabilizer's clamp" §4.E
// names for its post-transition tail capture, so the recorder can reuse
// the exact same budget instead of the unrelated navigation-timeout clamp.
func TransitionSettleBudget(page playwright.Page) time.Duration {
	durationMs, err := readTransitionDurationMs(page)
	if err != nil {
		durationMs = 0
	}
	return time.Duration(clampDuration(durationMs+300, 120, 3000)) * time.Millisecond
}

func waitDetach(page playwright.Page, selector string, timeout time.Duration) error {
	locator := page.Locator(selector).First()
	return locator.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateDetached,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

// waitForDataWaitfor implements step 2: any element with data-waitfor must
// have its referenced descendant become visible. A failure here is logged
// and returned as a warning, never aborting capture.
func waitForDataWaitfor(page playwright.Page, timeout time.Duration) string {
	result, err := page.Evaluate(`async (timeoutMs) => {
		const hosts = Array.from(document.querySelectorAll('[data-waitfor]'));
		const failures = [];
		await Promise.all(hosts.map(async (host) => {
			const selector = host.getAttribute('data-waitfor');
			const deadline = Date.now() + timeoutMs;
			while (Date.now() < deadline) {
				const el = host.querySelector(selector);
				if (el && el.offsetParent !== null) return;
				await new Promise(r => setTimeout(r, 50));
			}
			failures.push(selector);
		}));
		return failures;
	}`, timeout.Milliseconds())
	if err != nil {
		return fmt.Sprintf("data-waitfor evaluation failed: %v", err)
	}
	failures, _ := result.([]interface{})
	if len(failures) == 0 {
		return ""
	}
	return fmt.Sprintf("data-waitfor selector(s) never visible: %v", failures)
}

func waitFramesLoaded(page playwright.Page, timeout time.Duration) error {
	for _, f := range page.Frames() {
		if f == page.MainFrame() {
			continue
		}
		if err := f.WaitForLoadState(playwright.FrameWaitForLoadStateOptions{
			State:   playwright.LoadStateDomcontentloaded,
			Timeout: playwright.Float(float64(timeout.Milliseconds())),
		}); err != nil {
			return err
		}
	}
	return nil
}

func settleMermaid(page playwright.Page, timeout time.Duration) error {
	has, err := page.Evaluate(`() => !!document.querySelector('.mermaid, [class*="mermaid-container"]')`)
	if err != nil {
		return err
	}
	present, _ := has.(bool)
	if !present {
		return nil
	}

	if err := waitDetach(page, ".mermaid .mermaid-loading, [class*=\"mermaid-container\"] .loading", timeout); err != nil {
		return err
	}

	_, err = page.Evaluate(`() => {
		document.querySelectorAll('.mermaid, [class*="mermaid-container"]').forEach(el => {
			el.style.visibility = 'hidden';
		});
	}`)
	return err
}

func hideCodeEditorA11y(page playwright.Page) error {
	_, err := page.Evaluate(`() => {
		document.querySelectorAll('.cm-announcements, [class*="editor-a11y"]').forEach(el => {
			el.style.display = 'none';
		});
	}`)
	return err
}

func readTransitionDurationMs(page playwright.Page) (int, error) {
	raw, err := page.Evaluate(`() => getComputedStyle(document.documentElement).getPropertyValue('--slidev-transition-duration').trim()`)
	if err != nil {
		return 0, err
	}
	s, _ := raw.(string)
	return parseCSSDurationMs(s)
}

// parseCSSDurationMs parses a CSS duration value expressed in ms, s, or
// unitless milliseconds.
func parseCSSDurationMs(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	var value float64
	var unit string
	n, err := fmt.Sscanf(s, "%f%s", &value, &unit)
	if err != nil && n == 0 {
		return 0, fmt.Errorf("unparseable css duration %q", s)
	}
	switch unit {
	case "s":
		return int(value * 1000), nil
	case "ms", "":
		return int(value), nil
	default:
		return int(value), nil
	}
}

func clampDuration(v, lo, hi int) int {
	return int(math.Max(float64(lo), math.Min(float64(hi), float64(v))))
}

func pollTransitionsSettled(page playwright.Page, rootSelector string, timeout time.Duration) error {
	_, err := page.Evaluate(`async ({ root, timeoutMs }) => {
		const container = root ? document.querySelector(root) : document;
		const deadline = Date.now() + timeoutMs;
		const selector = '[class*="-enter-active"], [class*="-leave-active"]';
		while (Date.now() < deadline) {
			const scope = container || document;
			if (!scope.querySelector(selector)) return;
			await new Promise(r => setTimeout(r, 30));
		}
	}`, map[string]interface{}{"root": rootSelector, "timeoutMs": timeout.Milliseconds()})
	return err
}

func yieldAnimationFrames(page playwright.Page, n int) error {
	_, err := page.Evaluate(`async (n) => {
		for (let i = 0; i < n; i++) {
			await new Promise(r => requestAnimationFrame(r));
		}
	}`, n)
	return err
}
