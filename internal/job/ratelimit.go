package job

import (
	"net"
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// perIPBurst and perIPRate bound how often a single client can start a new
// MP4 export, grounded on the teacher's RateLimitMiddleware in
// internal/api/handler.go (a per-IP golang.org/x/time/rate.Limiter map).
const (
	perIPRate  = rate.Limit(1) // one new job per second, sustained
	perIPBurst = 3
)

// RateLimitMiddleware throttles POST /export/video per client IP.
func (h *Handler) RateLimitMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ip := clientIP(c.Request())
		if !h.limiterFor(ip).Allow() {
			return c.JSON(http.StatusTooManyRequests, errBody("too many requests, slow down"))
		}
		return next(c)
	}
}

func (h *Handler) limiterFor(ip string) *rate.Limiter {
	h.limitersMu.Lock()
	defer h.limitersMu.Unlock()
	l, ok := h.limiters[ip]
	if !ok {
		l = rate.NewLimiter(perIPRate, perIPBurst)
		h.limiters[ip] = l
	}
	return l
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
