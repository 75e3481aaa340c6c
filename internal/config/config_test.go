package config

import (
	"testing"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvRateLimit, "")
	t.Setenv(EnvAuditLogPath, "")

	cfg := FromEnv()
	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("APIURL = %q, want %q", cfg.APIURL, DefaultAPIURL)
	}
	if cfg.RateLimit != DefaultRateLimit {
		t.Errorf("RateLimit = %d, want %d", cfg.RateLimit, DefaultRateLimit)
	}
	if cfg.AuditLogPath == "" {
		t.Error("AuditLogPath should have a default")
	}
	if cfg.SmartModel != "sonnet" || cfg.FastModel != "haiku" {
		t.Errorf("model tiers = %q/%q, want sonnet/haiku", cfg.SmartModel, cfg.FastModel)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv(EnvAPIURL, "http://turbo.example:9000/api/v1")
	t.Setenv(EnvAPIKey, "secret")
	t.Setenv(EnvRateLimit, "5")
	t.Setenv(EnvAuditLogPath, "/tmp/audit.jsonl")
	t.Setenv(EnvSmartModel, "opus")

	cfg := FromEnv()
	if cfg.APIURL != "http://turbo.example:9000/api/v1" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.APIKey != "secret" {
		t.Errorf("APIKey = %q", cfg.APIKey)
	}
	if cfg.RateLimit != 5 {
		t.Errorf("RateLimit = %d, want 5", cfg.RateLimit)
	}
	if cfg.AuditLogPath != "/tmp/audit.jsonl" {
		t.Errorf("AuditLogPath = %q", cfg.AuditLogPath)
	}
	if cfg.SmartModel != "opus" {
		t.Errorf("SmartModel = %q, want opus", cfg.SmartModel)
	}
}

func TestFromEnv_InvalidRateLimitIgnored(t *testing.T) {
	t.Setenv(EnvRateLimit, "not-a-number")
	if got := FromEnv().RateLimit; got != DefaultRateLimit {
		t.Errorf("RateLimit = %d, want default %d", got, DefaultRateLimit)
	}

	t.Setenv(EnvRateLimit, "-3")
	if got := FromEnv().RateLimit; got != DefaultRateLimit {
		t.Errorf("RateLimit = %d, want default %d", got, DefaultRateLimit)
	}
}

func TestAllowedProjects(t *testing.T) {
	t.Setenv(EnvAllowedProjectIDs, "")
	if got := AllowedProjects(); got != nil {
		t.Errorf("unset allow-list should be nil, got %v", got)
	}

	t.Setenv(EnvAllowedProjectIDs, "   ")
	if got := AllowedProjects(); got != nil {
		t.Errorf("blank allow-list should be nil, got %v", got)
	}

	t.Setenv(EnvAllowedProjectIDs, "a, b ,,c")
	got := AllowedProjects()
	if len(got) != 3 {
		t.Fatalf("allow-list size = %d, want 3 (%v)", len(got), got)
	}
	for _, id := range []string{"a", "b", "c"} {
		if _, ok := got[id]; !ok {
			t.Errorf("allow-list missing %q", id)
		}
	}
}

func TestAllowedProjects_ReadPerCall(t *testing.T) {
	t.Setenv(EnvAllowedProjectIDs, "first")
	if _, ok := AllowedProjects()["first"]; !ok {
		t.Fatal("expected first in allow-list")
	}

	t.Setenv(EnvAllowedProjectIDs, "second")
	got := AllowedProjects()
	if _, ok := got["second"]; !ok {
		t.Fatal("allow-list should reflect the updated environment")
	}
	if _, ok := got["first"]; ok {
		t.Fatal("stale allow-list entry survived an env change")
	}
}
