// exportd is the Job Service daemon (§4.G): it exposes the background MP4
// export HTTP surface. Grounded almost line-for-line on the teacher's
// cmd/server/main.go two-phase EchoServer/StartServer split, graceful
// shutdown, and security-headers middleware.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/slidev/export-pipeline/internal/browser"
	"github.com/slidev/export-pipeline/internal/config"
	"github.com/slidev/export-pipeline/internal/job"
)

func main() {
	cfg := config.Load()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: levelFor(cfg.Debug),
	}))

	drv, err := browser.New(cfg.PlaywrightPath)
	if err != nil {
		log.Fatalf("failed to launch browser: %v", err)
	}
	defer drv.Close()

	registry := job.NewRegistry(cfg.JobTTL)

	baseURL := getEnv("SLIDEV_BASE_URL", "http://localhost:3030")
	handler := job.New(logger, drv, registry, baseURL, cfg.OutputDir, cfg.FfmpegPath, cfg.MaxFpsLimit)

	e := EchoServer(handler, cfg.OutputDir, cfg.JWTSecret)
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("Content-Security-Policy", "default-src 'self'; img-src 'self' blob: data:; style-src 'self' 'unsafe-inline'; script-src 'self'; connect-src 'self' ws: wss:;")
			c.Response().Header().Set("X-Content-Type-Options", "nosniff")
			c.Response().Header().Set("X-Frame-Options", "DENY")
			return next(c)
		}
	})

	StartServer(e, cfg)
}

// EchoServer wires middleware and routes onto a fresh Echo instance. When
// jwtSecret is non-empty, every /export/* route (save the ticket-gated
// live-preview stream) requires a bearer token signed with it (§6 optional
// auth); an empty secret leaves the service open, matching the teacher's
// own conditional JWT wiring.
func EchoServer(h *job.Handler, outputDir, jwtSecret string) *echo.Echo {
	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	if jwtSecret != "" {
		h.RegisterRoutes(e, job.JWTMiddleware(jwtSecret))
	} else {
		h.RegisterRoutes(e)
	}

	e.Static("/exports", outputDir)

	return e
}

// StartServer runs the HTTP server and blocks until an interrupt signal,
// then shuts it down gracefully.
func StartServer(e *echo.Echo, cfg *config.Config) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	const (
		readTimeout       = 10 * time.Second
		writeTimeout      = 30 * time.Second
		readHeaderTimeout = 5 * time.Second
		idleTimeout       = 120 * time.Second
	)

	httpServer := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           e,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}

	go func() {
		log.Printf("starting export job service on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down http server", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		e.Logger.Fatal(err)
	}
}

func levelFor(debug bool) slog.Level {
	if debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func getEnv(key, defaultVal string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultVal
}
