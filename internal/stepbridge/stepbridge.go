// Package stepbridge talks to the in-page click/step navigation bridge that
// Slidev's player exposes as a global (§4.C). Two shapes exist in the wild:
// the current "__slidev_export__" bridge, read by calling its methods, and
// the legacy "__slidev__.nav" bridge, whose fields may be plain values or
// Vue-style {value: ...} cells and are read through the in-page cell helper
// in stepInfoScript.
package stepbridge

import (
	"errors"
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/slidev/export-pipeline/internal/slide"
)

// ErrNoStepBridge is returned when neither bridge global is present on the
// page. The MP4 Recorder treats this as fatal before it spawns the encoder
// (§9 open question, resolved in DESIGN.md): there is no point paying for an
// ffmpeg process that will never receive a completed recording.
var ErrNoStepBridge = errors.New("stepbridge: no step navigation bridge found on page")

const probeScript = `() => {
	if (window.__slidev_export__) return 'export';
	if (window.__slidev__ && window.__slidev__.nav) return 'legacy';
	return null;
}`

// Detect reports which bridge shape is present, or ErrNoStepBridge.
func Detect(page playwright.Page) (string, error) {
	result, err := page.Evaluate(probeScript)
	if err != nil {
		return "", fmt.Errorf("stepbridge probe failed: %w", err)
	}
	kind, _ := result.(string)
	if kind == "" {
		return "", ErrNoStepBridge
	}
	return kind, nil
}

// stepInfoScript calls getStepInfo() on the preferred __slidev_export__
// bridge (§4.C/§6: it is a method contract, not a field bag); only the
// legacy __slidev__.nav fallback is read as plain/reactive-cell fields.
const stepInfoScript = `() => {
	const cell = (v) => (v && typeof v === 'object' && 'value' in v) ? v.value : v;
	if (window.__slidev_export__ && typeof window.__slidev_export__.getStepInfo === 'function') {
		const info = window.__slidev_export__.getStepInfo();
		return {
			no: info.no,
			clicks: info.clicks,
			clicksTotal: info.clicksTotal,
			hasNext: info.hasNext ?? true,
		};
	}
	if (window.__slidev__ && window.__slidev__.nav) {
		const nav = window.__slidev__.nav;
		return {
			no: cell(nav.currentSlideNo ?? nav.currentPage ?? nav.page),
			clicks: cell(nav.clicks),
			clicksTotal: cell(nav.clicksTotal),
			hasNext: cell(nav.hasNext ?? true),
		};
	}
	return null;
}`

// GetStepInfo reads the current (slide, clicks) position from whichever
// bridge is present.
func GetStepInfo(page playwright.Page) (slide.StepInfo, error) {
	var info slide.StepInfo

	raw, err := page.Evaluate(stepInfoScript)
	if err != nil {
		return info, fmt.Errorf("stepbridge: read step info: %w", err)
	}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return info, ErrNoStepBridge
	}

	info.No = toInt(m["no"])
	info.Clicks = toInt(m["clicks"])
	info.ClicksTotal = toInt(m["clicksTotal"])
	if hasNext, ok := m["hasNext"].(bool); ok {
		info.HasNext = hasNext
	} else {
		info.HasNext = true
	}
	return info, nil
}

// nextStepScript calls nextStep() on the preferred bridge; the legacy
// bridge instead exposes a bare nav.next() method.
const nextStepScript = `async () => {
	if (window.__slidev_export__ && typeof window.__slidev_export__.nextStep === 'function') {
		const result = await window.__slidev_export__.nextStep();
		return result === undefined ? true : !!result;
	}
	if (window.__slidev__ && window.__slidev__.nav && typeof window.__slidev__.nav.next === 'function') {
		window.__slidev__.nav.next();
		return true;
	}
	return false;
}`

// NextStep advances one click/step. It reports false when no bridge is
// present or when the preferred bridge's nextStep() resolves to a falsy
// value other than undefined; otherwise true.
func NextStep(page playwright.Page) (bool, error) {
	result, err := page.Evaluate(nextStepScript)
	if err != nil {
		return false, fmt.Errorf("stepbridge: next step: %w", err)
	}
	advanced, _ := result.(bool)
	return advanced, nil
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}
