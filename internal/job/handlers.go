package job

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"golang.org/x/time/rate"

	"github.com/slidev/export-pipeline/internal/auth"
	"github.com/slidev/export-pipeline/internal/browser"
	"github.com/slidev/export-pipeline/internal/mp4"
	"github.com/slidev/export-pipeline/internal/slide"
)

// Handler exposes the Job Service HTTP surface of §4.G, plus the
// supplemented stats/stream/cancel endpoints of SPEC_FULL.md §5.
type Handler struct {
	logger   *slog.Logger
	drv      *browser.Driver
	registry *Registry
	tickets  auth.TicketStore

	baseURL     string
	outputDir   string
	maxFpsLimit int
	ffmpegBin   string

	limiters   map[string]*rate.Limiter
	limitersMu sync.Mutex

	frames   map[string][]byte
	framesMu sync.RWMutex
}

// New builds a Handler. baseURL is the Slidev deck's own served origin
// (what the Browser Driver navigates to), not this HTTP service's address.
func New(logger *slog.Logger, drv *browser.Driver, registry *Registry, baseURL, outputDir, ffmpegBin string, maxFpsLimit int) *Handler {
	return &Handler{
		logger:      logger,
		drv:         drv,
		registry:    registry,
		tickets:     auth.NewInMemoryTicketStore(),
		baseURL:     baseURL,
		outputDir:   outputDir,
		maxFpsLimit: maxFpsLimit,
		ffmpegBin:   ffmpegBin,
		limiters:    make(map[string]*rate.Limiter),
		frames:      make(map[string][]byte),
	}
}

// RegisterRoutes wires the Job Service's routes onto e, mirroring the
// teacher's RegisterRoutes split between public handlers and the
// rate-limited/auth-gated subset.
// Middleware passed in applies to every route of the /export group;
// JWTMiddleware's own Skipper is what exempts the ticket-gated stream
// endpoint.
func (h *Handler) RegisterRoutes(e *echo.Echo, groupMiddleware ...echo.MiddlewareFunc) {
	g := e.Group("/export", groupMiddleware...)
	g.POST("/video", h.CreateVideoJob, h.RateLimitMiddleware)
	g.GET("/video/jobs", h.ListVideoJobs)
	g.GET("/video/:id", h.GetVideoJob)
	g.GET("/video/:id/download", h.DownloadVideoJob)
	g.DELETE("/video/:id", h.CancelVideoJob)
	g.GET("/video/:id/stream", h.StreamVideoJob)
	g.GET("/stats", h.GetStats)
}

type createVideoRequest struct {
	Range            string  `json:"range"`
	Output           string  `json:"output"`
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	Dark             bool    `json:"dark"`
	RouterMode       string  `json:"routerMode"`
	Timeout          int     `json:"timeout"` // ms
	WaitUntil        string  `json:"waitUntil"`
	VideoInterval    int     `json:"videoInterval"` // ms
	VideoFps         int     `json:"videoFps"`
	VideoWidth       int     `json:"videoWidth"`
	VideoHeight      int     `json:"videoHeight"`
	VideoMotionScale float64 `json:"videoMotionScale"`
}

// CreateVideoJob implements `POST /export/video` (§4.G).
func (h *Handler) CreateVideoJob(c echo.Context) error {
	var body createVideoRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, errBody("invalid request body"))
	}

	expanded, err := parseRange(body.Range)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errBody(err.Error()))
	}

	req := slide.DefaultExportRequest()
	req.Format = slide.FormatMP4
	req.Range = body.Range
	req.WithClicks = true
	if body.Width > 0 {
		req.Width = body.Width
	}
	if body.Height > 0 {
		req.Height = body.Height
	}
	req.Dark = body.Dark
	if body.RouterMode != "" {
		req.RouterMode = slide.RouterMode(body.RouterMode)
	}
	if body.Timeout > 0 {
		req.Timeout = time.Duration(body.Timeout) * time.Millisecond
	}
	if body.WaitUntil != "" {
		req.WaitUntil = slide.WaitUntil(body.WaitUntil)
	}
	if body.VideoInterval > 0 || body.VideoInterval == 0 {
		req.VideoInterval = time.Duration(body.VideoInterval) * time.Millisecond
	}
	if body.VideoFps > 0 {
		req.VideoFps = body.VideoFps
	}
	if h.maxFpsLimit > 0 && req.VideoFps > h.maxFpsLimit {
		req.VideoFps = h.maxFpsLimit
	}
	if body.VideoWidth > 0 {
		req.VideoWidth = body.VideoWidth
	}
	if body.VideoHeight > 0 {
		req.VideoHeight = body.VideoHeight
	}
	if body.VideoMotionScale > 0 {
		req.VideoMotionScale = body.VideoMotionScale
	}

	if err := req.Validate(expanded); err != nil {
		return c.JSON(http.StatusBadRequest, errBody(err.Error()))
	}
	if err := mp4.ProbeFfmpeg(h.ffmpegBin); err != nil {
		return c.JSON(http.StatusBadRequest, errBody(err.Error()))
	}

	jobID := uuid.NewString()
	filename := BuildFilename("export", body.Range, req.VideoFps, req.VideoWidth, req.VideoHeight, time.Now(), jobID)
	output, err := filepath.Abs(filepath.Join(h.outputDir, filename))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errBody(err.Error()))
	}
	req.Output = output

	j := &slide.VideoJob{
		ID:        jobID,
		Status:    slide.JobRunning,
		File:      output,
		Filename:  filename,
		StartedAt: time.Now(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.registry.Register(j, cancel)

	go h.runVideoJob(ctx, jobID, req, expanded)

	return c.JSON(http.StatusOK, map[string]string{"jobId": jobID})
}

func (h *Handler) runVideoJob(ctx context.Context, jobID string, req slide.ExportRequest, expanded slide.Range) {
	recorder := mp4.New(h.logger, h.ffmpegBin)
	if err := recorder.Record(ctx, h.drv, h.baseURL, req, expanded); err != nil {
		h.logger.Error("mp4 job failed", "jobId", jobID, "err", err)
		h.registry.Fail(jobID, err)
		return
	}
	h.registry.Complete(jobID, req.Output, jobIDFilename(req.Output), nil)
}

func jobIDFilename(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}

type jobResponse struct {
	JobID       string   `json:"jobId"`
	Status      string   `json:"status"`
	File        string   `json:"file,omitempty"`
	Error       string   `json:"error,omitempty"`
	StartedAt   string   `json:"startedAt"`
	CompletedAt *string  `json:"completedAt,omitempty"`
	DurationMs  int64    `json:"durationMs"`
	Filename    string   `json:"filename"`
	DownloadURL string   `json:"downloadUrl,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
}

func toJobResponse(j *slide.VideoJob) jobResponse {
	now := time.Now()
	resp := jobResponse{
		JobID:      j.ID,
		Status:     string(j.Status),
		File:       j.File,
		Error:      j.Err,
		StartedAt:  j.StartedAt.Format(time.RFC3339),
		DurationMs: j.DurationMs(now),
		Filename:   j.Filename,
		Warnings:   j.Warnings,
	}
	if j.CompletedAt != nil {
		s := j.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &s
	}
	if j.Status == slide.JobDone && j.File != "" {
		resp.DownloadURL = fmt.Sprintf("/export/video/%s/download", j.ID)
	}
	return resp
}

// GetVideoJob implements `GET /export/video/:id`.
func (h *Handler) GetVideoJob(c echo.Context) error {
	j, ok := h.registry.Get(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, errBody("Export job not found"))
	}
	return c.JSON(http.StatusOK, toJobResponse(j))
}

// ListVideoJobs implements `GET /export/video/jobs`.
func (h *Handler) ListVideoJobs(c echo.Context) error {
	jobs := h.registry.List()
	out := make([]jobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toJobResponse(j))
	}
	return c.JSON(http.StatusOK, map[string]any{"jobs": out})
}

// DownloadVideoJob implements `GET /export/video/:id/download`.
func (h *Handler) DownloadVideoJob(c echo.Context) error {
	j, ok := h.registry.Get(c.Param("id"))
	if !ok || j.Status != slide.JobDone || j.File == "" {
		return c.JSON(http.StatusNotFound, errBody("Export job not found"))
	}
	return c.Attachment(j.File, j.Filename)
}

// CancelVideoJob implements the supplemented `DELETE /export/video/:id`
// (§9 open question: resolved in favor of adding cancellation).
func (h *Handler) CancelVideoJob(c echo.Context) error {
	if !h.registry.Cancel(c.Param("id")) {
		return c.JSON(http.StatusNotFound, errBody("Export job not found or already finished"))
	}
	return c.NoContent(http.StatusNoContent)
}

// GetStats implements the supplemented `GET /export/stats` diagnostic
// endpoint, grounded on the teacher's GetStats handler, retargeted at the
// MP4 output directory instead of the teacher's recordings directory.
func (h *Handler) GetStats(c echo.Context) error {
	cpuPercent, _ := cpu.Percent(0, false)
	vm, _ := mem.VirtualMemory()
	du, _ := disk.Usage(h.outputDir)

	stats := map[string]any{
		"cpuPercent": firstOrZero(cpuPercent),
	}
	if vm != nil {
		stats["memUsedPercent"] = vm.UsedPercent
	}
	if du != nil {
		stats["diskUsedPercent"] = du.UsedPercent
		stats["diskFreeBytes"] = du.Free
	}
	return c.JSON(http.StatusOK, stats)
}

func firstOrZero(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	return vs[0]
}

func errBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func parseRange(expr string) (slide.Range, error) {
	return parseRangeExpr(expr)
}
