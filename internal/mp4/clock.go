// Clock-skew probe (supplemented, §5 of SPEC_FULL.md): the frame scheduler's
// pacing math is wall-clock based, so a large host clock offset from NTP
// would silently skew dwell/transition timing. Grounded on the teacher's
// internal/recorder/ntp.go GetNTPTime helper.
package mp4

import (
	"log/slog"
	"time"

	"github.com/beevik/ntp"
)

// maxClockSkew is the drift above which the recorder logs a warning. It
// never aborts a job: the scheduler only ever reads the local monotonic
// clock, so skew is a diagnostic signal, not a correctness requirement.
const maxClockSkew = 250 * time.Millisecond

// CheckClockSkew queries an NTP server once and logs a warning if the local
// clock differs from it by more than maxClockSkew. Best-effort: an NTP
// query failure is itself only logged, never returned as an error.
func CheckClockSkew(logger *slog.Logger, server string) {
	if server == "" {
		server = "pool.ntp.org"
	}
	resp, err := ntp.Query(server)
	if err != nil {
		logger.Warn("ntp clock-skew probe failed", "server", server, "err", err)
		return
	}
	if err := resp.Validate(); err != nil {
		logger.Warn("ntp response invalid", "server", server, "err", err)
		return
	}
	if offset := resp.ClockOffset; offset > maxClockSkew || offset < -maxClockSkew {
		logger.Warn("host clock skew may affect video frame pacing",
			"offset", offset, "server", server)
	}
}
