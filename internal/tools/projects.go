package tools

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/turbohq/turbo-agent/internal/api"
)

func newListProjects(client *api.Client, logger *slog.Logger) Tool {
	return newTool("list_projects",
		"List all projects in Turbo with their status and issue counts",
		KindRead,
		"Try: Check that the Turbo API is running.",
		logger,
		func(ctx context.Context, in listProjectsInput) (any, error) {
			params := url.Values{}
			if in.Status != "" {
				params.Set("status", in.Status)
			}
			if in.Limit > 0 {
				params.Set("limit", itoa(in.Limit))
			}
			return client.Get(ctx, "/projects", params)
		})
}

func newGetProject(client *api.Client, logger *slog.Logger) Tool {
	return newTool("get_project",
		"Get detailed information about a specific project",
		KindRead,
		"Try: Use list_projects to find valid project IDs.",
		logger,
		func(ctx context.Context, in projectIDInput) (any, error) {
			return client.Get(ctx, "/projects/"+in.ProjectID, nil)
		})
}

func newGetProjectIssues(client *api.Client, logger *slog.Logger) Tool {
	return newTool("get_project_issues",
		"List all issues for a project, optionally filtered by status",
		KindRead,
		"Try: Use list_projects to verify the project exists.",
		logger,
		func(ctx context.Context, in projectIssuesInput) (any, error) {
			params := url.Values{}
			if in.Status != "" {
				params.Set("status", in.Status)
			}
			return client.Get(ctx, "/projects/"+in.ProjectID+"/issues", params)
		})
}
