package hooks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/turbohq/turbo-agent/internal/api"
	"github.com/turbohq/turbo-agent/internal/config"
	"github.com/turbohq/turbo-agent/internal/tools"
)

// Tools that take issue_id instead of project_id. These need the issue
// resolved to its project before the scope check.
var issueScopedTools = map[string]struct{}{
	tools.Qualified("get_issue"):        {},
	tools.Qualified("update_issue"):     {},
	tools.Qualified("start_issue_work"): {},
	tools.Qualified("log_work"):         {},
}

// Tools that read across all projects. Allowed under scope enforcement
// because the server filters their results, unless they carry an explicit
// out-of-scope project_id.
var crossProjectTools = map[string]struct{}{
	tools.Qualified("list_projects"):    {},
	tools.Qualified("list_issues"):      {},
	tools.Qualified("list_initiatives"): {},
	tools.Qualified("list_decisions"):   {},
	tools.Qualified("get_work_queue"):   {},
	tools.Qualified("get_next_issue"):   {},
}

// IssueResolver maps an issue ID or key to its project ID.
type IssueResolver func(ctx context.Context, issueID string) (string, error)

// APIIssueResolver resolves issues through GET /issues/{id}.
func APIIssueResolver(client *api.Client) IssueResolver {
	return func(ctx context.Context, issueID string) (string, error) {
		raw, err := client.Get(ctx, "/issues/"+issueID, nil)
		if err != nil {
			return "", err
		}
		var issue struct {
			ProjectID string `json:"project_id"`
		}
		if err := json.Unmarshal(raw, &issue); err != nil {
			return "", fmt.Errorf("decode issue %s: %w", issueID, err)
		}
		return issue.ProjectID, nil
	}
}

// ScopeEnforcer blocks tool calls that target projects outside the allowed
// scope. The allow-list is re-read from the environment on every call.
// Issue-to-project resolutions are cached for the life of the process.
type ScopeEnforcer struct {
	resolve IssueResolver
	logger  *slog.Logger

	mu    sync.Mutex
	cache map[string]string
}

// NewScopeEnforcer builds an enforcer using resolve for issue lookups.
func NewScopeEnforcer(resolve IssueResolver, logger *slog.Logger) *ScopeEnforcer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScopeEnforcer{
		resolve: resolve,
		logger:  logger.With("component", "scope"),
		cache:   make(map[string]string),
	}
}

// ClearCache drops all cached issue resolutions. Intended for tests.
func (s *ScopeEnforcer) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]string)
}

func (s *ScopeEnforcer) cachedProject(issueID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pid, ok := s.cache[issueID]
	return pid, ok
}

func (s *ScopeEnforcer) storeProject(issueID, projectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[issueID] = projectID
}

func allowedList(allowed map[string]struct{}) string {
	ids := make([]string, 0, len(allowed))
	for id := range allowed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return strings.Join(ids, ", ")
}

func stringArg(input map[string]any, key string) string {
	if v, ok := input[key].(string); ok {
		return v
	}
	return ""
}

// Hook returns the scope enforcement hook.
//
// Three cases:
//  1. tools with project_id in args get a direct check
//  2. tools with issue_id are resolved to a project, then checked
//  3. cross-project read tools pass (their results are server-filtered)
//
// Tools not explicitly handled pass; they carry no project context.
func (s *ScopeEnforcer) Hook() Hook {
	return func(ctx context.Context, hc *Context) Decision {
		allowed := config.AllowedProjects()
		if allowed == nil {
			return Continue()
		}

		if _, ok := crossProjectTools[hc.Tool]; ok {
			pid := stringArg(hc.Input, "project_id")
			if pid != "" {
				if _, inScope := allowed[pid]; !inScope {
					s.logger.Warn("blocked out-of-scope project filter", "tool", hc.Tool, "project_id", pid)
					return Deny(fmt.Sprintf("Project %s is not in the allowed scope. Allowed: %s", pid, allowedList(allowed)))
				}
			}
			return Continue()
		}

		if pid := stringArg(hc.Input, "project_id"); pid != "" {
			if _, inScope := allowed[pid]; !inScope {
				s.logger.Warn("blocked out-of-scope project", "tool", hc.Tool, "project_id", pid)
				return Deny(fmt.Sprintf("Project %s is not in the allowed scope. Allowed: %s", pid, allowedList(allowed)))
			}
			return Continue()
		}

		if _, ok := issueScopedTools[hc.Tool]; ok {
			issueID := stringArg(hc.Input, "issue_id")
			if issueID == "" {
				return Deny("issue_id is required but missing.")
			}

			if pid, ok := s.cachedProject(issueID); ok {
				if _, inScope := allowed[pid]; !inScope {
					return Deny(fmt.Sprintf("Issue %s belongs to project %s, which is not in scope.", issueID, pid))
				}
				return Continue()
			}

			pid, err := s.resolve(ctx, issueID)
			if err != nil {
				s.logger.Warn("could not resolve project for issue", "issue_id", issueID, "error", err)
				return Deny(fmt.Sprintf("Cannot verify project scope for issue %s. Access denied for safety.", issueID))
			}
			if pid != "" {
				s.storeProject(issueID, pid)
				if _, inScope := allowed[pid]; !inScope {
					return Deny(fmt.Sprintf("Issue %s belongs to project %s, which is not in scope.", issueID, pid))
				}
			}
			return Continue()
		}

		return Continue()
	}
}
