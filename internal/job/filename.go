package job

import (
	"fmt"
	"time"

	"github.com/slidev/export-pipeline/internal/slide"
)

// BuildFilename constructs the §4.G output filename:
// "<base>-<range>-<fps>fps-<size>-<YYYYMMDD-hhmmss>-<jobId[:8]>.mp4", with
// every component sanitized individually before being joined.
func BuildFilename(base, rangeExpr string, fps, width, height int, now time.Time, jobID string) string {
	size := fmt.Sprintf("%dx%d", width, height)
	jobPrefix := jobID
	if len(jobPrefix) > 8 {
		jobPrefix = jobPrefix[:8]
	}

	parts := []string{
		slide.SanitizeFilenameComponent(base),
		slide.SanitizeFilenameComponent(rangeExpr),
		slide.SanitizeFilenameComponent(fmt.Sprintf("%dfps", fps)),
		slide.SanitizeFilenameComponent(size),
		slide.SanitizeFilenameComponent(now.Format("20060102-150405")),
		slide.SanitizeFilenameComponent(jobPrefix),
	}

	name := parts[0]
	for _, p := range parts[1:] {
		if p == "" {
			continue
		}
		name += "-" + p
	}
	return name + ".mp4"
}
