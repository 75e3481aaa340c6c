package hooks

import (
	"log/slog"

	"github.com/turbohq/turbo-agent/internal/api"
	"github.com/turbohq/turbo-agent/internal/config"
	"github.com/turbohq/turbo-agent/internal/ratelimit"
)

// TurboPipeline bundles the assembled pipeline with the stateful pieces the
// driver needs to manage (and tests need to reset).
type TurboPipeline struct {
	*Pipeline
	Auditor *Auditor
	Limiter *ratelimit.Limiter
	Scope   *ScopeEnforcer
}

// NewTurboPipeline assembles the standard hook configuration.
//
// Pre-call order:
//  1. audit log (always first, records every attempt)
//  2. rate limit (blocks runaway loops)
//  3. project scope (blocks unauthorized access)
//  4. destructive command filter (blocks dangerous Bash)
func NewTurboPipeline(client *api.Client, cfg config.Config, logger *slog.Logger) (*TurboPipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}

	auditor, err := NewAuditor(cfg.AuditLogPath, logger)
	if err != nil {
		return nil, err
	}
	limiter := ratelimit.NewLimiter(cfg.RateLimit)
	scope := NewScopeEnforcer(APIIssueResolver(client), logger)

	pipeline := NewPipeline(
		[]Matcher{
			NewMatcher(".*", auditor.ToolCallHook()),
			NewMatcher(".*", RateLimitHook(limiter, logger)),
			NewMatcher("mcp__turbo__.*", scope.Hook()),
			NewMatcher("Bash", BlockDestructiveCommands(logger)),
		},
		[]Matcher{
			NewMatcher(".*", auditor.ToolResultHook()),
		},
	)

	return &TurboPipeline{
		Pipeline: pipeline,
		Auditor:  auditor,
		Limiter:  limiter,
		Scope:    scope,
	}, nil
}

// Close releases the pipeline's resources.
func (t *TurboPipeline) Close() error {
	return t.Auditor.Close()
}
