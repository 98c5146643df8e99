package slide

import (
	"fmt"
	"regexp"
)

var (
	filenameComponentRe = regexp.MustCompile(`[^\w.-]+`)
	dashRunRe           = regexp.MustCompile(`-{2,}`)
)

// SanitizeFilenameComponent collapses any run of characters outside
// [\w.-] into a single "-", collapses any resulting (or pre-existing) run
// of literal "-" characters into one, then trims leading/trailing "-"
// (§4.G, §8 property 5).
func SanitizeFilenameComponent(s string) string {
	out := filenameComponentRe.ReplaceAllString(s, "-")
	out = dashRunRe.ReplaceAllString(out, "-")
	out = trimDashes(out)
	return out
}

func trimDashes(s string) string {
	start := 0
	for start < len(s) && s[start] == '-' {
		start++
	}
	end := len(s)
	for end > start && s[end-1] == '-' {
		end--
	}
	return s[start:end]
}

// Validate applies the Input-error checks of §5/§7: bad fps, bad motion
// scale, non-contiguous MP4 range, withClicks=false for MP4. It does not
// validate the range expression itself — that is parsed externally (§1
// Out of scope) and handed in as a Range.
func (r ExportRequest) Validate(expanded Range) error {
	switch r.Format {
	case FormatPDF, FormatPNG, FormatPPTX, FormatMD, FormatMP4:
	default:
		return fmt.Errorf("invalid format %q", r.Format)
	}

	if len(expanded) == 0 {
		return fmt.Errorf("range is empty")
	}

	if r.Format != FormatMP4 {
		return nil
	}

	if !r.WithClicks {
		return fmt.Errorf("withClicks cannot be false for mp4 export")
	}
	if r.VideoFps < 1 || r.VideoFps > 60 {
		return fmt.Errorf("videoFps must be between 1 and 60, got %d", r.VideoFps)
	}
	if r.VideoInterval < 0 {
		return fmt.Errorf("videoInterval must be >= 0")
	}
	if r.VideoMotionScale <= 0 {
		return fmt.Errorf("videoMotionScale must be > 0, got %v", r.VideoMotionScale)
	}
	if !expanded.Contiguous() {
		return fmt.Errorf("mp4 export requires a contiguous range, got %v", []int(expanded))
	}
	return nil
}

// ParseSize parses a "WxH" string as used by the videoWidth/videoHeight
// option (§3).
func ParseSize(s string) (w, h int, err error) {
	if _, err = fmt.Sscanf(s, "%dx%d", &w, &h); err != nil {
		return 0, 0, fmt.Errorf("invalid size %q, expected WxH: %w", s, err)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid size %q: dimensions must be positive", s)
	}
	return w, h, nil
}
