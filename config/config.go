package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Fetch     FetchConfig
	Evaluator EvaluatorConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8000
	Mode string // "debug", "release", "test"; default: "release"

	// StaticDir is served as a fallback for unmatched routes when it
	// contains an index.html.
	StaticDir string // default: "."
}

// FetchConfig controls the outbound page fetch.
type FetchConfig struct {
	// AllowedPrefix is the scheme+host every requested URL must start with.
	AllowedPrefix string // default: "https://mcpedl.com"

	// Timeout bounds the whole upstream request.
	Timeout time.Duration // default: 20s
}

// Evaluator backend names.
const (
	EvaluatorGoja    = "goja"
	EvaluatorNode    = "node"
	EvaluatorBrowser = "browser"
)

// EvaluatorConfig controls how the page's state script is evaluated.
type EvaluatorConfig struct {
	// Backend is one of "goja", "node" or "browser".
	Backend string // default: "goja"

	// Timeout bounds a single evaluation.
	Timeout time.Duration // default: 10s

	// NodeBin is the Node.js executable, looked up on PATH.
	NodeBin string // default: "node"

	// NodeArgs are passed to NodeBin before the script is piped in.
	// The default enables Node's permission model (Node 23.5+), which denies
	// filesystem access, child processes and workers to page scripts. Older
	// runtimes need "--experimental-permission" instead.
	NodeArgs []string // default: ["--permission"]

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserPages is the page pool capacity for the browser backend.
	BrowserPages int // default: 2
}

// RateLimitConfig controls per-client rate limiting.
type RateLimitConfig struct {
	Enabled bool // default: true

	// RequestsPerSecond is the sustained rate per client IP.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per client IP.
	Burst int // default: 10
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:      envOr("NUXTINFO_HOST", "0.0.0.0"),
			Port:      envIntOr("NUXTINFO_PORT", 8000),
			Mode:      envOr("NUXTINFO_MODE", "release"),
			StaticDir: envOr("NUXTINFO_STATIC_DIR", "."),
		},
		Fetch: FetchConfig{
			AllowedPrefix: envOr("NUXTINFO_ALLOWED_PREFIX", "https://mcpedl.com"),
			Timeout:       envDurationOr("NUXTINFO_FETCH_TIMEOUT", 20*time.Second),
		},
		Evaluator: EvaluatorConfig{
			Backend:      strings.ToLower(envOr("NUXTINFO_EVALUATOR", EvaluatorGoja)),
			Timeout:      envDurationOr("NUXTINFO_EVAL_TIMEOUT", 10*time.Second),
			NodeBin:      envOr("NUXTINFO_NODE_BIN", "node"),
			NodeArgs:     envSliceOr("NUXTINFO_NODE_ARGS", []string{"--permission"}),
			BrowserBin:   os.Getenv("NUXTINFO_BROWSER_BIN"),
			NoSandbox:    envBoolOr("NUXTINFO_NO_SANDBOX", false),
			BrowserPages: envIntOr("NUXTINFO_BROWSER_PAGES", 2),
		},
		RateLimit: RateLimitConfig{
			Enabled:           envBoolOr("NUXTINFO_RATE_ENABLED", true),
			RequestsPerSecond: envFloatOr("NUXTINFO_RATE_RPS", 5.0),
			Burst:             envIntOr("NUXTINFO_RATE_BURST", 10),
		},
		Log: LogConfig{
			Level:  envOr("NUXTINFO_LOG_LEVEL", "info"),
			Format: envOr("NUXTINFO_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envSliceOr splits a comma-separated value, dropping empty items.
func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
