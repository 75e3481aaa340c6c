package tools

import (
	"log/slog"

	"github.com/turbohq/turbo-agent/internal/api"
)

// writeTools is the bare-name set of tools that modify data.
var writeTools = map[string]struct{}{
	"create_issue":     {},
	"update_issue":     {},
	"start_issue_work": {},
	"log_work":         {},
	"create_decision":  {},
	"add_comment":      {},
}

// Names of every tool in the catalog, in registration order.
var catalogNames = []string{
	"list_projects",
	"get_project",
	"get_project_issues",
	"list_issues",
	"get_issue",
	"create_issue",
	"update_issue",
	"start_issue_work",
	"get_work_queue",
	"get_next_issue",
	"log_work",
	"list_initiatives",
	"list_decisions",
	"create_decision",
	"add_comment",
	"project_status_summary",
}

// CatalogNames returns the namespaced names of every catalog tool.
func CatalogNames() []string {
	names := make([]string, len(catalogNames))
	for i, name := range catalogNames {
		names[i] = Qualified(name)
	}
	return names
}

// WriteTools returns the namespaced names of tools that modify data.
func WriteTools() map[string]struct{} {
	set := make(map[string]struct{}, len(writeTools))
	for name := range writeTools {
		set[Qualified(name)] = struct{}{}
	}
	return set
}

// ReadTools returns the namespaced names of tools that only read data.
func ReadTools() map[string]struct{} {
	set := make(map[string]struct{}, len(catalogNames)-len(writeTools))
	for _, name := range catalogNames {
		if _, isWrite := writeTools[name]; !isWrite {
			set[Qualified(name)] = struct{}{}
		}
	}
	return set
}

// NewCatalog builds a registry holding the full Turbo tool catalog, backed
// by the given API client.
func NewCatalog(client *api.Client, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "tools")

	registry := NewRegistry()
	for _, tool := range []Tool{
		newListProjects(client, logger),
		newGetProject(client, logger),
		newGetProjectIssues(client, logger),
		newListIssues(client, logger),
		newGetIssue(client, logger),
		newCreateIssue(client, logger),
		newUpdateIssue(client, logger),
		newStartIssueWork(client, logger),
		newGetWorkQueue(client, logger),
		newGetNextIssue(client, logger),
		newLogWork(client, logger),
		newListInitiatives(client, logger),
		newListDecisions(client, logger),
		newCreateDecision(client, logger),
		newAddComment(client, logger),
		newProjectStatusSummary(client, logger),
	} {
		registry.Register(tool)
	}
	return registry
}
