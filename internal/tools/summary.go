package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/turbohq/turbo-agent/internal/api"
)

// issueRecord is the subset of issue fields the summary needs.
type issueRecord struct {
	IssueKey string `json:"issue_key"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
}

// decodeIssueList accepts either a bare JSON array or an object with an
// "items" array, which is how list endpoints paginate.
func decodeIssueList(raw json.RawMessage) ([]issueRecord, error) {
	var list []issueRecord
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Items []issueRecord `json:"items"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode issue list: %w", err)
	}
	return wrapped.Items, nil
}

func newProjectStatusSummary(client *api.Client, logger *slog.Logger) Tool {
	return newTool("project_status_summary",
		"Get a high-level status summary of a project: open issues, blockers, recent activity",
		KindRead,
		"",
		logger,
		func(ctx context.Context, in projectIDInput) (any, error) {
			projectRaw, err := client.Get(ctx, "/projects/"+in.ProjectID, nil)
			if err != nil {
				return nil, err
			}
			issuesRaw, err := client.Get(ctx, "/projects/"+in.ProjectID+"/issues", url.Values{"limit": {"100"}})
			if err != nil {
				return nil, err
			}

			var project struct {
				Name string `json:"name"`
			}
			if err := json.Unmarshal(projectRaw, &project); err != nil {
				return nil, fmt.Errorf("decode project: %w", err)
			}
			issues, err := decodeIssueList(issuesRaw)
			if err != nil {
				return nil, err
			}

			byStatus := map[string]int{}
			blockers := []map[string]any{}
			for _, issue := range issues {
				status := issue.Status
				if status == "" {
					status = "unknown"
				}
				byStatus[status]++
				if (issue.Priority == "critical" || issue.Priority == "high") &&
					status != "closed" && status != "done" {
					blockers = append(blockers, map[string]any{
						"key":      issue.IssueKey,
						"title":    issue.Title,
						"priority": issue.Priority,
						"status":   status,
					})
				}
			}

			return map[string]any{
				"project":            project.Name,
				"total_issues":       len(issues),
				"by_status":          byStatus,
				"high_priority_open": blockers,
			}, nil
		})
}
