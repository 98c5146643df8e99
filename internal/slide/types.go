// Package slide defines the data model shared by every export renderer:
// slides, ranges, step state, and the export request options of §3.
package slide

import "time"

// Slide is an indexed, immutable unit of the deck.
type Slide struct {
	Index       int
	Title       string
	Note        string
	Frontmatter Frontmatter
}

// Frontmatter holds the recognized per-slide metadata keys.
type Frontmatter struct {
	Author     string
	Info       string
	Keywords   []string
	HideInToc  bool
	TitleLevel int // 1-based heading depth used for the PDF TOC
}

// Range is an ordered sequence of 1-based slide indices, already expanded
// from a range expression by an external collaborator (§1 Out of scope).
type Range []int

// Contiguous reports whether the range forms an arithmetic progression of
// step 1 (required for MP4 export, §3).
func (r Range) Contiguous() bool {
	if len(r) == 0 {
		return false
	}
	for i := 1; i < len(r); i++ {
		if r[i] != r[i-1]+1 {
			return false
		}
	}
	return true
}

// StepKey uniquely identifies a reveal state on a slide.
type StepKey struct {
	No     int
	Clicks int
}

// StepInfo is the in-page playback state exposed by the Step Bridge.
type StepInfo struct {
	No          int
	Clicks      int
	ClicksTotal int
	HasNext     bool
}

// Key returns the StepKey for this StepInfo.
func (s StepInfo) Key() StepKey { return StepKey{No: s.No, Clicks: s.Clicks} }

// Format is the tagged choice over export targets (§9 "dynamic dispatch
// across formats").
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatPNG  Format = "png"
	FormatPPTX Format = "pptx"
	FormatMD   Format = "md"
	FormatMP4  Format = "mp4"
)

// RouterMode selects the navigation URL shape (§4.A).
type RouterMode string

const (
	RouterHash    RouterMode = "hash"
	RouterHistory RouterMode = "history"
)

// WaitUntil mirrors the browser's navigation-completion condition.
type WaitUntil string

const (
	WaitNetworkIdle       WaitUntil = "networkidle"
	WaitLoad              WaitUntil = "load"
	WaitDOMContentLoaded  WaitUntil = "domcontentloaded"
	WaitNone              WaitUntil = "none"
)

// ExportRequest captures every recognized option of §3.
type ExportRequest struct {
	Format Format
	Range  string
	Output string

	Width, Height int
	Dark          bool
	RouterMode    RouterMode
	WithClicks    bool
	PerSlide      bool
	Scale         float64

	OmitBackground bool
	Timeout        time.Duration
	Wait           time.Duration
	WaitUntil      WaitUntil
	WithToc        bool
	ExecutablePath string

	VideoInterval    time.Duration
	VideoFps         int
	VideoWidth       int
	VideoHeight      int
	VideoMotionScale float64
}

// DefaultExportRequest returns an ExportRequest with the defaults from §3,
// except Format/Range/Output which the caller must always supply.
func DefaultExportRequest() ExportRequest {
	return ExportRequest{
		Width:            1920,
		Height:           1080,
		RouterMode:       RouterHistory,
		Scale:            2,
		Timeout:          30 * time.Second,
		WaitUntil:        WaitNetworkIdle,
		VideoInterval:    2 * time.Second,
		VideoFps:         30,
		VideoWidth:       1920,
		VideoHeight:      1080,
		VideoMotionScale: 1,
	}
}

// JobStatus is a VideoJob's lifecycle state.
type JobStatus string

const (
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobError   JobStatus = "error"
)

// VideoJob is the lifecycle record for a background MP4 export (§3).
type VideoJob struct {
	ID       string
	Status   JobStatus
	File     string
	Filename string
	Err      string
	Warnings []string

	StartedAt   time.Time
	CompletedAt *time.Time
}

// DurationMs reports elapsed time: pinned once completed, live while running.
func (j *VideoJob) DurationMs(now time.Time) int64 {
	if j.CompletedAt != nil {
		return j.CompletedAt.Sub(j.StartedAt).Milliseconds()
	}
	return now.Sub(j.StartedAt).Milliseconds()
}

// Expired reports whether a non-running job has outlived ttl relative to now.
func (j *VideoJob) Expired(now time.Time, ttl time.Duration) bool {
	if j.Status == JobRunning || j.CompletedAt == nil {
		return false
	}
	return j.CompletedAt.Add(ttl).Before(now)
}
