package tools

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/turbohq/turbo-agent/internal/api"
)

func itoa(n int) string {
	return strconv.Itoa(n)
}

func newListIssues(client *api.Client, logger *slog.Logger) Tool {
	return newTool("list_issues",
		"List issues across all projects with optional filtering",
		KindRead,
		"",
		logger,
		func(ctx context.Context, in listIssuesInput) (any, error) {
			params := url.Values{}
			if in.Status != "" {
				params.Set("status", in.Status)
			}
			if in.Priority != "" {
				params.Set("priority", in.Priority)
			}
			if in.ProjectID != "" {
				params.Set("project_id", in.ProjectID)
			}
			if in.Limit > 0 {
				params.Set("limit", itoa(in.Limit))
			}
			return client.Get(ctx, "/issues", params)
		})
}

func newGetIssue(client *api.Client, logger *slog.Logger) Tool {
	return newTool("get_issue",
		"Get detailed information about a specific issue by ID or key (e.g. TURBO-1)",
		KindRead,
		"Try: Use list_issues to find valid issue IDs or keys.",
		logger,
		func(ctx context.Context, in issueIDInput) (any, error) {
			return client.Get(ctx, "/issues/"+in.IssueID, nil)
		})
}

func newCreateIssue(client *api.Client, logger *slog.Logger) Tool {
	return newTool("create_issue",
		"Create a new issue in a project",
		KindWrite,
		"Try: Use list_projects to verify the project_id.",
		logger,
		func(ctx context.Context, in createIssueInput) (any, error) {
			body := map[string]any{
				"project_id": in.ProjectID,
				"title":      in.Title,
			}
			if in.Description != "" {
				body["description"] = in.Description
			}
			if in.Type != "" {
				body["type"] = in.Type
			}
			if in.Priority != "" {
				body["priority"] = in.Priority
			}
			return client.Post(ctx, "/issues", body)
		})
}

func newUpdateIssue(client *api.Client, logger *slog.Logger) Tool {
	return newTool("update_issue",
		"Update an existing issue's status, priority, title, or description",
		KindWrite,
		"Try: Use get_issue to check current issue state.",
		logger,
		func(ctx context.Context, in updateIssueInput) (any, error) {
			body := map[string]any{}
			if in.Status != "" {
				body["status"] = in.Status
			}
			if in.Priority != "" {
				body["priority"] = in.Priority
			}
			if in.Title != "" {
				body["title"] = in.Title
			}
			if in.Description != "" {
				body["description"] = in.Description
			}
			return client.Patch(ctx, "/issues/"+in.IssueID, body)
		})
}

func newStartIssueWork(client *api.Client, logger *slog.Logger) Tool {
	return newTool("start_issue_work",
		"Claim an issue and mark it as in_progress",
		KindWrite,
		"Try: Use get_issue to check the issue's current status.",
		logger,
		func(ctx context.Context, in issueIDInput) (any, error) {
			return client.Post(ctx, "/issues/"+in.IssueID+"/work", map[string]any{})
		})
}
