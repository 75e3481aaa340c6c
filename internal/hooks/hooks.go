// Package hooks implements the security hook pipeline that gates every tool
// call: audit logging, rate limiting, project scope enforcement, and a
// destructive shell command filter.
package hooks

import (
	"context"
	"regexp"
)

// Event identifies when in the tool lifecycle a hook runs.
type Event string

const (
	EventPreToolUse  Event = "PreToolUse"
	EventPostToolUse Event = "PostToolUse"
)

// Context carries one tool call through the pipeline.
type Context struct {
	// Tool is the full tool name as the model sees it.
	Tool string

	// Input is the decoded tool input.
	Input map[string]any

	// ToolUseID is the model's identifier for this call.
	ToolUseID string

	// Event is the lifecycle stage.
	Event Event

	// IsError reports whether the tool returned an error result. Only
	// meaningful for PostToolUse.
	IsError bool
}

// Decision is a hook's verdict on a tool call.
type Decision struct {
	denied bool
	reason string
}

// Continue allows the call to proceed.
func Continue() Decision {
	return Decision{}
}

// Deny blocks the call with a reason the agent will see.
func Deny(reason string) Decision {
	return Decision{denied: true, reason: reason}
}

// Denied reports whether the call was blocked.
func (d Decision) Denied() bool { return d.denied }

// Reason returns the denial reason, empty for Continue.
func (d Decision) Reason() string { return d.reason }

// Hook inspects a tool call and decides whether it may proceed.
type Hook func(ctx context.Context, hc *Context) Decision

// Matcher pairs a tool-name pattern with the hooks that run when it matches.
type Matcher struct {
	pattern *regexp.Regexp
	hooks   []Hook
}

// NewMatcher compiles pattern and attaches hooks. The pattern matches the
// whole tool name.
func NewMatcher(pattern string, hooks ...Hook) Matcher {
	return Matcher{
		pattern: regexp.MustCompile("^(?:" + pattern + ")$"),
		hooks:   hooks,
	}
}

// Pipeline is an ordered set of pre- and post-call matchers.
type Pipeline struct {
	pre  []Matcher
	post []Matcher
}

// NewPipeline builds a pipeline from ordered matcher lists.
func NewPipeline(pre, post []Matcher) *Pipeline {
	return &Pipeline{pre: pre, post: post}
}

// RunPre runs the pre-call hooks in order. The first denial short-circuits
// the rest.
func (p *Pipeline) RunPre(ctx context.Context, hc *Context) Decision {
	hc.Event = EventPreToolUse
	for _, m := range p.pre {
		if !m.pattern.MatchString(hc.Tool) {
			continue
		}
		for _, hook := range m.hooks {
			if d := hook(ctx, hc); d.Denied() {
				return d
			}
		}
	}
	return Continue()
}

// RunPost runs the post-call hooks in order. Post hooks observe; their
// decisions are ignored.
func (p *Pipeline) RunPost(ctx context.Context, hc *Context) {
	hc.Event = EventPostToolUse
	for _, m := range p.post {
		if !m.pattern.MatchString(hc.Tool) {
			continue
		}
		for _, hook := range m.hooks {
			hook(ctx, hc)
		}
	}
}
