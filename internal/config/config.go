// Package config reads Turbo agent configuration from the environment.
//
// Most settings are read once at startup via FromEnv. The project allow-list
// is the exception: the scope enforcement hook consults AllowedProjects on
// every call so the variable can be changed at runtime (the agent driver sets
// it when constructed with a project scope).
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Environment variable names recognised by the agent.
const (
	EnvAPIURL            = "TURBO_API_URL"
	EnvAPIKey            = "TURBO_API_KEY"
	EnvAllowedProjectIDs = "TURBO_ALLOWED_PROJECT_IDS"
	EnvRateLimit         = "TURBO_AGENT_RATE_LIMIT"
	EnvAuditLogPath      = "TURBO_AGENT_AUDIT_LOG"
	EnvSmartModel        = "TURBO_AGENT_SMART_MODEL"
	EnvFastModel         = "TURBO_AGENT_FAST_MODEL"
)

// Defaults applied when the corresponding variable is unset.
const (
	DefaultAPIURL    = "http://localhost:8001/api/v1"
	DefaultRateLimit = 30
)

// Config holds the startup configuration for the agent.
type Config struct {
	// APIURL is the base URL of the Turbo API.
	APIURL string

	// APIKey is sent as a bearer token when non-empty.
	APIKey string

	// RateLimit is the per-tool ceiling for the sliding 60-second window.
	RateLimit int

	// AuditLogPath is the rotating audit log location.
	AuditLogPath string

	// SmartModel is the model tier for reasoning-heavy subagents.
	SmartModel string

	// FastModel is the model tier for fast summarisation subagents.
	FastModel string
}

// FromEnv builds a Config from the environment, applying defaults.
func FromEnv() Config {
	cfg := Config{
		APIURL:       DefaultAPIURL,
		RateLimit:    DefaultRateLimit,
		AuditLogPath: DefaultAuditLogPath(),
		SmartModel:   "sonnet",
		FastModel:    "haiku",
	}
	if v := os.Getenv(EnvAPIURL); v != "" {
		cfg.APIURL = v
	}
	cfg.APIKey = os.Getenv(EnvAPIKey)
	if v := os.Getenv(EnvRateLimit); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimit = n
		}
	}
	if v := os.Getenv(EnvAuditLogPath); v != "" {
		cfg.AuditLogPath = v
	}
	if v := os.Getenv(EnvSmartModel); v != "" {
		cfg.SmartModel = v
	}
	if v := os.Getenv(EnvFastModel); v != "" {
		cfg.FastModel = v
	}
	return cfg
}

// DefaultAuditLogPath returns ~/.turbo/agent-audit.jsonl, falling back to a
// relative path when the home directory cannot be determined.
func DefaultAuditLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".turbo", "agent-audit.jsonl")
	}
	return filepath.Join(home, ".turbo", "agent-audit.jsonl")
}

// AllowedProjects returns the configured project allow-list, or nil when no
// restriction is configured. It reads the environment fresh on every call so
// the scope can change at runtime.
func AllowedProjects() map[string]struct{} {
	raw := os.Getenv(EnvAllowedProjectIDs)
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	allowed := make(map[string]struct{})
	for _, id := range strings.Split(raw, ",") {
		id = strings.TrimSpace(id)
		if id != "" {
			allowed[id] = struct{}{}
		}
	}
	if len(allowed) == 0 {
		return nil
	}
	return allowed
}
