package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPPort string

	// Browser / encoder
	PlaywrightPath string
	FfmpegPath     string

	// Output and retention
	OutputDir   string
	JobTTL      time.Duration
	MaxFpsLimit int

	// Optional bearer auth for the Job Service. When empty the service runs open.
	JWTSecret string

	// Debug toggles verbose MP4 diagnostics to stderr (§6 of the spec).
	Debug bool
}

func Load() *Config {
	return &Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		PlaywrightPath: getEnv("PLAYWRIGHT_PATH", ""),
		FfmpegPath:     getEnv("FFMPEG_PATH", "ffmpeg"),
		OutputDir:      getEnv("EXPORT_OUTPUT_DIR", "./data/exports"),
		JobTTL:         getEnvDuration("EXPORT_JOB_TTL", 10*time.Minute),
		MaxFpsLimit:    getEnvInt("EXPORT_MAX_FPS_LIMIT", 60),
		JWTSecret:      getEnvOrFile("JWT_SECRET", ""),
		Debug:          getEnv("EXPORT_DEBUG", "") != "",
	}
}

// Validate checks critical configuration and permissions.
func (c *Config) Validate() error {
	if err := os.MkdirAll(c.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", c.OutputDir, err)
	}
	testFile := c.OutputDir + "/.write_test"
	if err := os.WriteFile(testFile, []byte("test"), 0600); err != nil {
		return fmt.Errorf("output directory %s is not writable: %w", c.OutputDir, err)
	}
	os.Remove(testFile)
	return nil
}

func getEnv(key, defaultVal string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultVal
}

// getEnvOrFile tries to read from Key_FILE first, then Key environment variable.
func getEnvOrFile(key, defaultVal string) string {
	fileKey := key + "_FILE"
	if filePath, ok := os.LookupEnv(fileKey); ok && filePath != "" {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return string(bytes.TrimSpace(content))
		}
	}
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
