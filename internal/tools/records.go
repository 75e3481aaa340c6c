package tools

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/turbohq/turbo-agent/internal/api"
)

func newListInitiatives(client *api.Client, logger *slog.Logger) Tool {
	return newTool("list_initiatives",
		"List all initiatives with their status and linked issues",
		KindRead,
		"",
		logger,
		func(ctx context.Context, in statusFilterInput) (any, error) {
			params := url.Values{}
			if in.Status != "" {
				params.Set("status", in.Status)
			}
			return client.Get(ctx, "/initiatives", params)
		})
}

func newListDecisions(client *api.Client, logger *slog.Logger) Tool {
	return newTool("list_decisions",
		"List strategic decisions",
		KindRead,
		"",
		logger,
		func(ctx context.Context, in statusFilterInput) (any, error) {
			params := url.Values{}
			if in.Status != "" {
				params.Set("status", in.Status)
			}
			return client.Get(ctx, "/decisions", params)
		})
}

func newCreateDecision(client *api.Client, logger *slog.Logger) Tool {
	return newTool("create_decision",
		"Record a strategic or tactical decision",
		KindWrite,
		"",
		logger,
		func(ctx context.Context, in createDecisionInput) (any, error) {
			body := map[string]any{
				"title":       in.Title,
				"description": in.Description,
			}
			if in.DecisionType != "" {
				body["decision_type"] = in.DecisionType
			}
			if in.Rationale != "" {
				body["rationale"] = in.Rationale
			}
			return client.Post(ctx, "/decisions", body)
		})
}

func newAddComment(client *api.Client, logger *slog.Logger) Tool {
	return newTool("add_comment",
		"Add a comment to an issue or other entity",
		KindWrite,
		"",
		logger,
		func(ctx context.Context, in addCommentInput) (any, error) {
			body := map[string]any{
				"entity_type": in.EntityType,
				"entity_id":   in.EntityID,
				"content":     in.Content,
			}
			return client.Post(ctx, "/comments", body)
		})
}
