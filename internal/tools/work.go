package tools

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/turbohq/turbo-agent/internal/api"
)

func newGetWorkQueue(client *api.Client, logger *slog.Logger) Tool {
	return newTool("get_work_queue",
		"Get the prioritized work queue for a project",
		KindRead,
		"",
		logger,
		func(ctx context.Context, in optionalProjectInput) (any, error) {
			params := url.Values{"status": {"queued"}}
			if in.ProjectID != "" {
				params.Set("project_id", in.ProjectID)
			}
			return client.Get(ctx, "/issues", params)
		})
}

func newGetNextIssue(client *api.Client, logger *slog.Logger) Tool {
	return newTool("get_next_issue",
		"Get the highest priority issue ready to work on",
		KindRead,
		"",
		logger,
		func(ctx context.Context, in optionalProjectInput) (any, error) {
			params := url.Values{"status": {"ready"}, "limit": {"1"}}
			if in.ProjectID != "" {
				params.Set("project_id", in.ProjectID)
			}
			return client.Get(ctx, "/issues", params)
		})
}

func newLogWork(client *api.Client, logger *slog.Logger) Tool {
	return newTool("log_work",
		"Log a work session or progress update on an issue",
		KindWrite,
		"Try: Use get_issue to verify the issue exists.",
		logger,
		func(ctx context.Context, in logWorkInput) (any, error) {
			body := map[string]any{
				"issue_id": in.IssueID,
				"summary":  in.Summary,
			}
			if in.Hours != nil {
				body["hours"] = *in.Hours
			}
			return client.Post(ctx, "/issues/"+in.IssueID+"/work-logs", body)
		})
}
