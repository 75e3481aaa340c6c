package agent

import (
	"context"
	"encoding/json"
)

// Role of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// BlockKind discriminates content blocks.
type BlockKind string

const (
	BlockText       BlockKind = "text"
	BlockToolUse    BlockKind = "tool_use"
	BlockToolResult BlockKind = "tool_result"
)

// Block is one content block in a conversation message.
type Block struct {
	Kind BlockKind

	// Text for text blocks.
	Text string

	// Tool call fields for tool_use blocks, plus the id for tool_result.
	ToolUseID string
	ToolName  string
	ToolInput json.RawMessage

	// Tool result fields.
	Content string
	IsError bool
}

// Message is one turn of conversation content.
type Message struct {
	Role   Role
	Blocks []Block
}

// TextMessage builds a single-text-block message.
func TextMessage(role Role, text string) Message {
	return Message{Role: role, Blocks: []Block{{Kind: BlockText, Text: text}}}
}

// ToolSpec advertises a tool to the model.
type ToolSpec struct {
	Name        string
	Description string
	Schema      json.RawMessage
}

// CompletionRequest is one model call.
type CompletionRequest struct {
	Model     string
	System    string
	MaxTokens int64
	Messages  []Message
	Tools     []ToolSpec
}

// Usage is the token accounting for one completion.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Completion is the model's response to one call.
type Completion struct {
	Blocks     []Block
	StopReason string
	Usage      Usage
}

// ToolCalls returns the tool_use blocks of the completion.
func (c *Completion) ToolCalls() []Block {
	var calls []Block
	for _, b := range c.Blocks {
		if b.Kind == BlockToolUse {
			calls = append(calls, b)
		}
	}
	return calls
}

// Text returns the concatenated text blocks of the completion.
func (c *Completion) Text() string {
	text := ""
	for _, b := range c.Blocks {
		if b.Kind == BlockText {
			if text != "" {
				text += "\n"
			}
			text += b.Text
		}
	}
	return text
}

// LLMProvider abstracts the model backend so the loop can be tested without
// network access.
type LLMProvider interface {
	Complete(ctx context.Context, req *CompletionRequest) (*Completion, error)
}
