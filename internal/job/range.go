package job

import (
	"github.com/slidev/export-pipeline/internal/slide"
)

// parseRangeExpr expands a comma-separated list of slide numbers and
// dash-ranges (e.g. "1-3,5,7-8") into an ordered slide.Range. This is the
// "external collaborator" range-expansion step spec.md §1 marks out of
// scope for the renderers themselves; the Job Service still needs it to
// validate and size an incoming request before a job is registered. The
// CLI entrypoint shares the same expansion via slide.ExpandRangeExpr.
func parseRangeExpr(expr string) (slide.Range, error) {
	return slide.ExpandRangeExpr(expr)
}
