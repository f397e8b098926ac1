package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Rule limits one route. A Path ending in "/" matches by prefix, so
// "/runs/" covers "/runs/{id}".
type Rule struct {
	Path   string
	Method string

	// Limit is the admitted requests per Window; <= 0 means unlimited.
	Limit  int
	Window time.Duration

	// Burst is the bucket capacity; defaults to Limit.
	Burst int
}

// Config holds the limiter settings.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Rules           []Rule
}

func defaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		Rules:           DefaultRules(),
	}
}

// LoadConfig reads the limiter settings from RATE_LIMIT_* environment
// variables, falling back to the built-in defaults.
func LoadConfig() *Config {
	cfg := defaultConfig()
	cfg.Enabled = envBool("RATE_LIMIT_ENABLED", cfg.Enabled)
	if !cfg.Enabled {
		return &Config{Enabled: false}
	}
	cfg.DefaultLimit = envInt("RATE_LIMIT_DEFAULT_LIMIT", cfg.DefaultLimit)
	cfg.DefaultWindow = envDuration("RATE_LIMIT_DEFAULT_WINDOW", cfg.DefaultWindow)
	cfg.CleanupInterval = envDuration("RATE_LIMIT_CLEANUP_INTERVAL", cfg.CleanupInterval)
	return cfg
}

// DefaultRules throttles the two expensive surfaces: tailoring runs,
// which cost model tokens and a compile, and run-history deletion.
func DefaultRules() []Rule {
	return []Rule{
		{Path: "/tailor_resume", Method: "POST", Limit: 10, Window: time.Hour, Burst: 2},
		{Path: "/tailor_resume/", Method: "POST", Limit: 10, Window: time.Hour, Burst: 2},
		{Path: "/runs/", Method: "DELETE", Limit: 100, Window: time.Minute, Burst: 10},
	}
}

// match finds the rule for a request: the health check is never
// limited, exact path+method matches win, then "/"-suffixed prefix
// rules, then the default limit.
func (c *Config) match(path, method string) Rule {
	if path == "/health" && method == "GET" {
		return Rule{}
	}

	for _, r := range c.Rules {
		if r.Path == path && r.Method == method {
			return r
		}
	}
	for _, r := range c.Rules {
		if r.Method == method && strings.HasSuffix(r.Path, "/") && strings.HasPrefix(path, r.Path) {
			return r
		}
	}

	return Rule{Limit: c.DefaultLimit, Window: c.DefaultWindow}
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
