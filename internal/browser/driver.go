// Package browser implements the Browser Driver (§4.A): it launches a
// headless Chromium via playwright-go and drives navigation between
// slide/click states through the print, history, and embedded-play routes.
package browser

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/playwright-community/playwright-go"

	"github.com/slidev/export-pipeline/internal/netguard"
	"github.com/slidev/export-pipeline/internal/slide"
)

// Driver owns one Playwright process and one Browser for its lifetime. A
// caller opens a Session per export job via NewSession, mirroring the
// teacher's one-Worker-per-process / one-BrowserContext-per-job split.
type Driver struct {
	pw      *playwright.Playwright
	browser playwright.Browser
}

// New launches Playwright and Chromium. Mirrors the teacher's recorder.New:
// SkipInstallBrowsers so it never tries to fetch a browser at runtime, the
// same sandbox-disabling launch args, and an executable-path override with
// a conventional system-chromium fallback.
func New(executablePath string) (*Driver, error) {
	pw, err := playwright.Run(&playwright.RunOptions{
		SkipInstallBrowsers: true,
	})
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
		Args: []string{
			"--no-sandbox",
			"--disable-setuid-sandbox",
			"--disable-dev-shm-usage",
		},
	}

	if executablePath != "" {
		opts.ExecutablePath = playwright.String(executablePath)
	} else if _, err := os.Stat("/usr/bin/chromium"); err == nil {
		opts.ExecutablePath = playwright.String("/usr/bin/chromium")
	}

	b, err := pw.Chromium.Launch(opts)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("could not launch browser: %w", err)
	}

	return &Driver{pw: pw, browser: b}, nil
}

// Close releases the browser and Playwright process.
func (d *Driver) Close() {
	if d.browser != nil {
		d.browser.Close()
	}
	if d.pw != nil {
		d.pw.Stop()
	}
}

// Session wraps one BrowserContext+Page for a single export job.
type Session struct {
	ctx  playwright.BrowserContext
	page playwright.Page
}

// NewPrintSession opens a viewport sized for PDF/PNG/PPTX/MD capture.
// width x height for per-slide mode, or width x (height*pageCount) for
// one-piece mode — the caller passes the already-computed viewport height.
func (d *Driver) NewPrintSession(width, height int, scale float64) (*Session, error) {
	bctx, err := d.browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport:          &playwright.Size{Width: width, Height: height},
		DeviceScaleFactor: playwright.Float(scale),
	})
	if err != nil {
		return nil, err
	}
	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		return nil, err
	}
	return &Session{ctx: bctx, page: page}, nil
}

// NewVideoSession opens the fixed-scale viewport used by the MP4 Recorder
// (§4.E "Setup"): device scale 1, videoWidth x videoHeight.
func (d *Driver) NewVideoSession(width, height int) (*Session, error) {
	bctx, err := d.browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport:          &playwright.Size{Width: width, Height: height},
		DeviceScaleFactor: playwright.Float(1),
	})
	if err != nil {
		return nil, err
	}
	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		return nil, err
	}
	return &Session{ctx: bctx, page: page}, nil
}

func (s *Session) Page() playwright.Page { return s.page }

func (s *Session) Close() {
	if s.ctx != nil {
		s.ctx.Close()
	}
}

// NavOptions parameterizes a single Goto call.
type NavOptions struct {
	Base       string
	RouterMode slide.RouterMode
	Dark       bool
	WaitUntil  slide.WaitUntil
	Timeout    int // ms
	Range      string
	ExtraQuery map[string]string
}

// GotoPrintAll navigates to the print-all route ("/print"), which stacks
// every slide in one page (§4.A, one-piece mode).
func (s *Session) GotoPrintAll(opts NavOptions) error {
	q := url.Values{}
	q.Set("print", "true")
	if opts.Range != "" {
		q.Set("range", opts.Range)
	}
	for k, v := range opts.ExtraQuery {
		q.Set(k, v)
	}
	return s.goto_(buildURL(opts.Base, opts.RouterMode, "print", q.Encode()), opts, "body")
}

// GotoSlide navigates to a single (slideNo, clicks) step, in print or
// embedded-play mode depending on opts.ExtraQuery.
func (s *Session) GotoSlide(no int, clicks int, withClicks bool, printMode string, opts NavOptions) error {
	q := url.Values{}
	if printMode != "" {
		q.Set("print", printMode)
	}
	if withClicks {
		q.Set("clicks", strconv.Itoa(clicks))
	}
	for k, v := range opts.ExtraQuery {
		q.Set(k, v)
	}
	return s.goto_(buildURL(opts.Base, opts.RouterMode, strconv.Itoa(no), q.Encode()), opts, slideSelector(no))
}

// GotoPlay navigates to the embedded "play" route used by the MP4 Recorder.
func (s *Session) GotoPlay(no int, opts NavOptions) error {
	q := url.Values{}
	q.Set("embedded", "true")
	for k, v := range opts.ExtraQuery {
		q.Set(k, v)
	}
	return s.goto_(buildURL(opts.Base, opts.RouterMode, strconv.Itoa(no), q.Encode()), opts, slideSelector(no))
}

// slideSelector scopes the slide-root wait to the specific slide being
// navigated to (§4.A: `[data-slidev-no="<n>"]`), so a stale node left over
// from the previous render during a SPA transition never satisfies the
// wait.
func slideSelector(no int) string {
	return fmt.Sprintf(`[data-slidev-no="%d"]`, no)
}

func buildURL(base string, mode slide.RouterMode, slideNo string, query string) string {
	if mode == slide.RouterHash {
		if query == "" {
			return fmt.Sprintf("%s#%s", base, slideNo)
		}
		return fmt.Sprintf("%s?%s#%s", base, query, slideNo)
	}
	if query == "" {
		return fmt.Sprintf("%s/%s", base, slideNo)
	}
	return fmt.Sprintf("%s/%s?%s", base, slideNo, query)
}

func (s *Session) goto_(target string, opts NavOptions, selector string) error {
	if err := netguard.Validate(target, opts.Base); err != nil {
		return fmt.Errorf("navigation blocked: %w", err)
	}

	waitUntil := playwright.WaitUntilStateNetworkidle
	switch opts.WaitUntil {
	case slide.WaitLoad:
		waitUntil = playwright.WaitUntilStateLoad
	case slide.WaitDOMContentLoaded:
		waitUntil = playwright.WaitUntilStateDomcontentloaded
	case slide.WaitNone:
		waitUntil = ""
	}

	gotoOpts := playwright.PageGotoOptions{}
	if opts.Timeout > 0 {
		gotoOpts.Timeout = playwright.Float(float64(opts.Timeout))
	}
	if waitUntil != "" {
		gotoOpts.WaitUntil = waitUntil
	}

	if _, err := s.page.Goto(target, gotoOpts); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", target, err)
	}

	scheme := playwright.ColorSchemeLight
	if opts.Dark {
		scheme = playwright.ColorSchemeDark
	}
	if err := s.page.EmulateMedia(playwright.PageEmulateMediaOptions{
		ColorScheme: scheme,
	}); err != nil {
		return fmt.Errorf("failed to set color scheme: %w", err)
	}

	if selector == "" {
		selector = `body`
	}
	if _, err := s.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(float64(opts.Timeout)),
	}); err != nil {
		return fmt.Errorf("slide root never appeared: %w", err)
	}

	return nil
}
