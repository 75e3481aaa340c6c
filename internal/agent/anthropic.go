package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// messagesService is the slice of the Anthropic SDK the provider uses,
// extracted so tests can substitute a fake.
type messagesService interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicProvider implements LLMProvider over the Anthropic Messages API.
type AnthropicProvider struct {
	msg messagesService
}

// NewAnthropicProvider builds a provider. An empty apiKey falls back to the
// SDK's environment handling (ANTHROPIC_API_KEY).
func NewAnthropicProvider(apiKey string) *AnthropicProvider {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)
	return &AnthropicProvider{msg: &client.Messages}
}

// Complete issues a non-streaming Messages.New call.
func (p *AnthropicProvider) Complete(ctx context.Context, req *CompletionRequest) (*Completion, error) {
	params, err := encodeRequest(req)
	if err != nil {
		return nil, err
	}
	msg, err := p.msg.New(ctx, *params)
	if err != nil {
		return nil, fmt.Errorf("anthropic messages.new: %w", err)
	}
	return translateMessage(msg)
}

func encodeRequest(req *CompletionRequest) (*anthropic.MessageNewParams, error) {
	if len(req.Messages) == 0 {
		return nil, errors.New("anthropic: messages are required")
	}
	if req.Model == "" {
		return nil, errors.New("anthropic: model identifier is required")
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	msgs, err := encodeMessages(req.Messages)
	if err != nil {
		return nil, err
	}
	params := &anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: maxTokens,
		Messages:  msgs,
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if len(req.Tools) > 0 {
		tools, err := encodeTools(req.Tools)
		if err != nil {
			return nil, err
		}
		params.Tools = tools
	}
	return params, nil
}

func encodeMessages(messages []Message) ([]anthropic.MessageParam, error) {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(m.Blocks))
		for _, b := range m.Blocks {
			switch b.Kind {
			case BlockText:
				blocks = append(blocks, anthropic.NewTextBlock(b.Text))
			case BlockToolUse:
				blocks = append(blocks, anthropic.NewToolUseBlock(b.ToolUseID, b.ToolInput, b.ToolName))
			case BlockToolResult:
				blocks = append(blocks, anthropic.NewToolResultBlock(b.ToolUseID, b.Content, b.IsError))
			default:
				return nil, fmt.Errorf("anthropic: unsupported block kind %q", b.Kind)
			}
		}
		switch m.Role {
		case RoleUser:
			out = append(out, anthropic.NewUserMessage(blocks...))
		case RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		default:
			return nil, fmt.Errorf("anthropic: unsupported role %q", m.Role)
		}
	}
	return out, nil
}

func encodeTools(specs []ToolSpec) ([]anthropic.ToolUnionParam, error) {
	out := make([]anthropic.ToolUnionParam, 0, len(specs))
	for _, spec := range specs {
		var schema map[string]any
		if len(spec.Schema) > 0 {
			if err := json.Unmarshal(spec.Schema, &schema); err != nil {
				return nil, fmt.Errorf("anthropic: tool %q schema: %w", spec.Name, err)
			}
		}
		u := anthropic.ToolUnionParamOfTool(anthropic.ToolInputSchemaParam{ExtraFields: schema}, spec.Name)
		if u.OfTool != nil && spec.Description != "" {
			u.OfTool.Description = anthropic.String(spec.Description)
		}
		out = append(out, u)
	}
	return out, nil
}

func translateMessage(msg *anthropic.Message) (*Completion, error) {
	if msg == nil {
		return nil, errors.New("anthropic: response message is nil")
	}
	completion := &Completion{
		StopReason: string(msg.StopReason),
		Usage: Usage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
	}
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			if block.Text == "" {
				continue
			}
			completion.Blocks = append(completion.Blocks, Block{Kind: BlockText, Text: block.Text})
		case "tool_use":
			completion.Blocks = append(completion.Blocks, Block{
				Kind:      BlockToolUse,
				ToolUseID: block.ID,
				ToolName:  block.Name,
				ToolInput: block.Input,
			})
		}
	}
	return completion, nil
}

// Per-million-token prices in USD, by model family.
type modelPrice struct {
	inputPerMTok  float64
	outputPerMTok float64
}

func priceFor(model string) modelPrice {
	lowered := strings.ToLower(model)
	switch {
	case strings.Contains(lowered, "opus"):
		return modelPrice{inputPerMTok: 15, outputPerMTok: 75}
	case strings.Contains(lowered, "haiku"):
		return modelPrice{inputPerMTok: 1, outputPerMTok: 5}
	default:
		return modelPrice{inputPerMTok: 3, outputPerMTok: 15}
	}
}

// costUSD estimates the cost of one completion.
func costUSD(model string, usage Usage) float64 {
	price := priceFor(model)
	return float64(usage.InputTokens)/1e6*price.inputPerMTok +
		float64(usage.OutputTokens)/1e6*price.outputPerMTok
}
