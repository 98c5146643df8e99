package slide

import (
	"fmt"
	"strconv"
	"strings"
)

// ExpandRangeExpr expands a comma-separated list of slide numbers and
// dash-ranges (e.g. "1-3,5,7-8") into an ordered Range. Range-expression
// parsing is marked out of scope for the renderers themselves (§1), but
// both the Job Service and the CLI entrypoint need a concrete expansion to
// validate and size a request before a job starts, so it lives here as a
// small shared helper rather than being duplicated per caller.
func ExpandRangeExpr(expr string) (Range, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("range must not be empty")
	}

	var out Range
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if dash := strings.IndexByte(part, '-'); dash > 0 {
			lo, err := strconv.Atoi(strings.TrimSpace(part[:dash]))
			if err != nil {
				return nil, fmt.Errorf("invalid range segment %q", part)
			}
			hi, err := strconv.Atoi(strings.TrimSpace(part[dash+1:]))
			if err != nil {
				return nil, fmt.Errorf("invalid range segment %q", part)
			}
			if hi < lo {
				return nil, fmt.Errorf("invalid range segment %q: end before start", part)
			}
			for n := lo; n <= hi; n++ {
				out = append(out, n)
			}
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid range segment %q", part)
		}
		out = append(out, n)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("range must not be empty")
	}
	return out, nil
}
