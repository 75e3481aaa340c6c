// Package agent implements the Turbo agent driver: a turn-bounded tool-use
// loop over an LLM provider, gated by the security hook pipeline, with
// specialized subagents for delegation.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/turbohq/turbo-agent/internal/api"
	"github.com/turbohq/turbo-agent/internal/config"
	"github.com/turbohq/turbo-agent/internal/hooks"
	"github.com/turbohq/turbo-agent/internal/tools"
)

// Defaults for agent options.
const (
	DefaultModel     = "claude-sonnet-4-20250514"
	DefaultMaxTurns  = 25
	DefaultMaxBudget = 2.0
)

// Options configures an Agent. Zero values take the defaults above.
type Options struct {
	// ProjectID scopes the agent to one project. Empty means all projects.
	ProjectID string

	// Model used for the main loop.
	Model string

	// MaxTurns bounds the number of model calls per run.
	MaxTurns int

	// MaxBudgetUSD bounds the estimated spend per agent.
	MaxBudgetUSD float64

	// Provider overrides the LLM backend. Nil selects Anthropic.
	Provider LLMProvider

	// Logger for lifecycle events. Nil selects slog.Default.
	Logger *slog.Logger
}

// Agent is an autonomous project management agent. It connects to the Turbo
// API through the tool catalog, enforces project-scoped access control
// through hooks, and delegates specialized tasks to subagents.
type Agent struct {
	opts      Options
	client    *api.Client
	registry  *tools.Registry
	pipeline  *hooks.TurboPipeline
	provider  LLMProvider
	subagents map[string]Subagent
	logger    *slog.Logger

	mu        sync.Mutex
	costUSD   float64
	warnedPct bool
}

// New validates opts and builds an Agent.
func New(opts Options) (*Agent, error) {
	if opts.MaxTurns == 0 {
		opts.MaxTurns = DefaultMaxTurns
	}
	if opts.MaxTurns < 1 {
		return nil, fmt.Errorf("max_turns must be >= 1, got %d", opts.MaxTurns)
	}
	if opts.MaxBudgetUSD == 0 {
		opts.MaxBudgetUSD = DefaultMaxBudget
	}
	if opts.MaxBudgetUSD <= 0 {
		return nil, fmt.Errorf("max_budget_usd must be > 0, got %g", opts.MaxBudgetUSD)
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "agent")

	// Set the project scope for the hook pipeline before anything reads it.
	if opts.ProjectID != "" {
		if err := os.Setenv(config.EnvAllowedProjectIDs, opts.ProjectID); err != nil {
			return nil, fmt.Errorf("set project scope: %w", err)
		}
	}

	cfg := config.FromEnv()
	client := api.NewClient(api.ClientConfig{
		BaseURL:          cfg.APIURL,
		APIKey:           cfg.APIKey,
		MaxRetries:       api.DefaultMaxRetries,
		BackoffBase:      api.DefaultBackoffBase,
		BreakerThreshold: api.DefaultBreakerThreshold,
		BreakerRecovery:  api.DefaultBreakerRecovery,
		Logger:           logger,
	})

	pipeline, err := hooks.NewTurboPipeline(client, cfg, logger)
	if err != nil {
		client.Close()
		return nil, err
	}

	provider := opts.Provider
	if provider == nil {
		provider = NewAnthropicProvider("")
	}

	project := opts.ProjectID
	if project == "" {
		project = "all"
	}
	logger.Info("agent initialized",
		"model", opts.Model, "project", project, "budget_usd", opts.MaxBudgetUSD)

	return &Agent{
		opts:      opts,
		client:    client,
		registry:  tools.NewCatalog(client, logger),
		pipeline:  pipeline,
		provider:  provider,
		subagents: SubagentCatalog(cfg.SmartModel, cfg.FastModel),
		logger:    logger,
	}, nil
}

// Close releases the agent's resources. Safe to call more than once.
func (a *Agent) Close() error {
	a.client.Close()
	return a.pipeline.Close()
}

// CostUSD returns the estimated spend so far.
func (a *Agent) CostUSD() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.costUSD
}

// addCost accumulates spend and logs the 80% budget warning once.
func (a *Agent) addCost(delta float64) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.costUSD += delta
	if !a.warnedPct && a.costUSD > a.opts.MaxBudgetUSD*0.8 {
		a.warnedPct = true
		a.logger.Warn("cost exceeds 80% of budget",
			"cost_usd", a.costUSD, "budget_usd", a.opts.MaxBudgetUSD)
	}
	return a.costUSD
}

// systemPrompt builds the main agent's system prompt, including the scope
// block when a project is configured.
func (a *Agent) systemPrompt() string {
	parts := []string{
		"You are Turbo Agent, an autonomous project management assistant.",
		"You manage projects, issues, initiatives, and decisions using the Turbo platform.",
		"",
		"## Your tools",
		"You have access to Turbo tools prefixed with mcp__turbo__.",
		"Use these to read and manage project data.",
		"",
		"## Your subagents",
		"You can delegate specialized tasks:",
		"- **triager**: Analyzes issues and recommends priorities (read-only)",
		"- **planner**: Breaks features into issues and records decisions",
		"- **reporter**: Generates status reports",
		"- **worker**: Manages work sessions (claim issues, log progress)",
		"",
		"## Guidelines",
		"- Always check current state before making changes",
		"- Be concise in responses — bullet points over paragraphs",
		"- When creating issues, include clear acceptance criteria",
		"- Respect the work queue ordering unless told otherwise",
		"- Log decisions and their rationale",
	}
	if a.opts.ProjectID != "" {
		parts = append(parts,
			"",
			"## Scope",
			"You are scoped to project ID: "+a.opts.ProjectID,
			"All operations are restricted to this project.",
		)
	}
	return strings.Join(parts, "\n")
}

// Run executes a one-shot task and returns the final text response.
func (a *Agent) Run(ctx context.Context, prompt string) (string, error) {
	a.logger.Info("starting one-shot run", "prompt", truncate(prompt, 100))
	stats, err := a.runLoop(ctx, []Message{TextMessage(RoleUser, prompt)}, nil, nil)
	if err != nil {
		return "", err
	}
	a.logger.Info("run complete",
		"session_id", stats.SessionID, "cost_usd", stats.CostUSD, "turns", stats.Turns)
	return stats.Text, nil
}

// Stream executes a task, emitting structured events on the returned
// channel. The channel closes when the run ends; the last event is either an
// EventResult or an EventError.
func (a *Agent) Stream(ctx context.Context, prompt string) (<-chan Event, error) {
	a.logger.Info("starting streaming run", "prompt", truncate(prompt, 100))
	events := make(chan Event)
	go func() {
		defer close(events)
		emit := func(e Event) {
			select {
			case events <- e:
			case <-ctx.Done():
			}
		}
		stats, err := a.runLoop(ctx, []Message{TextMessage(RoleUser, prompt)}, nil, emit)
		if err != nil {
			a.logger.Error("streaming run failed", "error", err)
			emit(Event{Kind: EventError, Err: err})
			return
		}
		a.logger.Info("stream complete",
			"session_id", stats.SessionID, "cost_usd", stats.CostUSD, "turns", stats.Turns)
		emit(Event{Kind: EventResult, Result: stats})
	}()
	return events, nil
}

// Session starts a multi-turn conversation that keeps context across
// exchanges.
func (a *Agent) Session() *Session {
	a.logger.Info("multi-turn session started")
	return &Session{agent: a}
}

// Session is a stateful multi-turn conversation.
type Session struct {
	agent    *Agent
	mu       sync.Mutex
	messages []Message
	closed   bool
}

// Send submits a user message and returns the agent's response. The
// conversation history carries over between calls.
func (s *Session) Send(ctx context.Context, message string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", fmt.Errorf("session closed")
	}
	s.agent.logger.Info("session message", "prompt", truncate(message, 100))
	s.messages = append(s.messages, TextMessage(RoleUser, message))
	stats, err := s.agent.runLoop(ctx, s.messages, func(history []Message) {
		s.messages = history
	}, nil)
	if err != nil {
		return "", err
	}
	return stats.Text, nil
}

// Close ends the session. The agent itself stays usable.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		s.agent.logger.Info("multi-turn session ended")
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
