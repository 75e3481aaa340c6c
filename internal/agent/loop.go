package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/turbohq/turbo-agent/internal/hooks"
)

// TaskToolName is the delegation tool the main loop exposes for handing work
// to subagents.
const TaskToolName = "Task"

// subagentMaxTurns bounds a delegated subagent run.
const subagentMaxTurns = 10

var taskSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"subagent": {
			"type": "string",
			"enum": ["triager", "planner", "reporter", "worker"],
			"description": "Name of the subagent to delegate to"
		},
		"prompt": {
			"type": "string",
			"minLength": 1,
			"description": "The task for the subagent to perform"
		}
	},
	"required": ["subagent", "prompt"]
}`)

// loopConfig shapes one tool-use loop: the main agent run or a delegated
// subagent run.
type loopConfig struct {
	model     string
	system    string
	specs     []ToolSpec
	allowed   map[string]struct{}
	maxTurns  int
	allowTask bool
}

func (a *Agent) mainConfig() loopConfig {
	specs := a.catalogSpecs(nil)
	specs = append(specs, ToolSpec{
		Name:        TaskToolName,
		Description: "Delegate a specialized task to a subagent: triager, planner, reporter, or worker.",
		Schema:      taskSchema,
	})
	return loopConfig{
		model:     resolveModel(a.opts.Model),
		system:    a.systemPrompt(),
		specs:     specs,
		maxTurns:  a.opts.MaxTurns,
		allowTask: true,
	}
}

// catalogSpecs advertises the registry's tools, optionally restricted to an
// allow-set of namespaced names.
func (a *Agent) catalogSpecs(allowed map[string]struct{}) []ToolSpec {
	var specs []ToolSpec
	for _, tool := range a.registry.All() {
		if allowed != nil {
			if _, ok := allowed[tool.Name()]; !ok {
				continue
			}
		}
		specs = append(specs, ToolSpec{
			Name:        tool.Name(),
			Description: tool.Description(),
			Schema:      tool.Schema(),
		})
	}
	return specs
}

// runLoop executes the main agent loop over the given conversation, tagging
// the result with a fresh session ID.
func (a *Agent) runLoop(ctx context.Context, messages []Message, saveHistory func([]Message), emit func(Event)) (*RunStats, error) {
	stats, err := a.loop(ctx, a.mainConfig(), messages, saveHistory, emit)
	if err != nil {
		return nil, err
	}
	stats.SessionID = uuid.NewString()
	return stats, nil
}

// loop is the turn-bounded tool-use loop. Each turn makes one model call;
// every requested tool call runs through the hook pipeline before and after
// execution. The loop ends when the model stops requesting tools, the turn
// ceiling is reached, or the budget is exhausted.
func (a *Agent) loop(ctx context.Context, cfg loopConfig, messages []Message, saveHistory func([]Message), emit func(Event)) (*RunStats, error) {
	lastText := ""
	turns := 0

	for turns < cfg.maxTurns {
		turns++

		completion, err := a.provider.Complete(ctx, &CompletionRequest{
			Model:    cfg.model,
			System:   cfg.system,
			Messages: messages,
			Tools:    cfg.specs,
		})
		if err != nil {
			return nil, fmt.Errorf("turn %d: %w", turns, err)
		}

		total := a.addCost(costUSD(cfg.model, completion.Usage))

		if text := completion.Text(); text != "" {
			lastText = text
			if emit != nil {
				emit(Event{Kind: EventText, Text: text})
			}
		}

		calls := completion.ToolCalls()
		if len(calls) == 0 {
			messages = append(messages, Message{Role: RoleAssistant, Blocks: completion.Blocks})
			break
		}

		if total >= a.opts.MaxBudgetUSD {
			a.logger.Warn("budget exhausted, ending run",
				"cost_usd", total, "budget_usd", a.opts.MaxBudgetUSD)
			messages = append(messages, Message{Role: RoleAssistant, Blocks: completion.Blocks})
			messages = append(messages, a.abortToolCalls(calls))
			break
		}

		messages = append(messages, Message{Role: RoleAssistant, Blocks: completion.Blocks})

		results := make([]Block, 0, len(calls))
		for _, call := range calls {
			results = append(results, a.executeCall(ctx, cfg, call, emit))
		}
		messages = append(messages, Message{Role: RoleUser, Blocks: results})
	}

	if saveHistory != nil {
		saveHistory(messages)
	}
	return &RunStats{Text: lastText, CostUSD: a.CostUSD(), Turns: turns}, nil
}

// executeCall runs one tool call through the hook pipeline and the registry.
func (a *Agent) executeCall(ctx context.Context, cfg loopConfig, call Block, emit func(Event)) Block {
	id := call.ToolUseID
	if id == "" {
		id = uuid.NewString()
	}

	var input map[string]any
	if len(call.ToolInput) > 0 {
		if err := json.Unmarshal(call.ToolInput, &input); err != nil {
			input = nil
		}
	}
	if input == nil {
		input = map[string]any{}
	}

	if emit != nil {
		emit(Event{Kind: EventToolCall, ToolName: call.ToolName, ToolInput: input})
	}

	var content string
	var isError bool

	hc := &hooks.Context{Tool: call.ToolName, Input: input, ToolUseID: id}
	if decision := a.pipeline.RunPre(ctx, hc); decision.Denied() {
		content = decision.Reason()
		isError = true
	} else if call.ToolName == TaskToolName {
		if cfg.allowTask {
			content, isError = a.runTask(ctx, call.ToolInput)
		} else {
			content = "tool not found: " + TaskToolName
			isError = true
		}
	} else if cfg.allowed != nil && !inSet(cfg.allowed, call.ToolName) {
		content = "tool not found: " + call.ToolName
		isError = true
	} else {
		result, err := a.registry.Execute(ctx, call.ToolName, call.ToolInput)
		if err != nil {
			content = fmt.Sprintf("Error: %v", err)
			isError = true
		} else {
			content = result.Content
			isError = result.IsError
		}
	}

	a.pipeline.RunPost(ctx, &hooks.Context{
		Tool:      call.ToolName,
		Input:     input,
		ToolUseID: id,
		IsError:   isError,
	})

	return Block{
		Kind:      BlockToolResult,
		ToolUseID: id,
		Content:   content,
		IsError:   isError,
	}
}

func inSet(set map[string]struct{}, name string) bool {
	_, ok := set[name]
	return ok
}

// abortToolCalls answers pending tool calls with an error result so the
// conversation stays well-formed when a run stops early.
func (a *Agent) abortToolCalls(calls []Block) Message {
	blocks := make([]Block, 0, len(calls))
	for _, call := range calls {
		id := call.ToolUseID
		if id == "" {
			id = uuid.NewString()
		}
		blocks = append(blocks, Block{
			Kind:      BlockToolResult,
			ToolUseID: id,
			Content:   "Run budget exhausted before this tool call could execute.",
			IsError:   true,
		})
	}
	return Message{Role: RoleUser, Blocks: blocks}
}

type taskInput struct {
	Subagent string `json:"subagent"`
	Prompt   string `json:"prompt"`
}

// runTask delegates to a subagent: a nested loop with the subagent's prompt,
// restricted tool set, and model tier.
func (a *Agent) runTask(ctx context.Context, rawInput json.RawMessage) (string, bool) {
	var in taskInput
	if err := json.Unmarshal(rawInput, &in); err != nil {
		return fmt.Sprintf("Invalid input: %v. Check the tool's parameter descriptions and try again.", err), true
	}
	sub, ok := a.subagents[in.Subagent]
	if !ok {
		return fmt.Sprintf("Invalid input: unknown subagent %q. Available: triager, planner, reporter, worker.", in.Subagent), true
	}
	if in.Prompt == "" {
		return "Invalid input: prompt is required. Check the tool's parameter descriptions and try again.", true
	}

	allowed := make(map[string]struct{}, len(sub.Tools))
	for _, name := range sub.Tools {
		allowed[name] = struct{}{}
	}

	a.logger.Info("delegating to subagent", "subagent", sub.Name, "prompt", truncate(in.Prompt, 100))
	stats, err := a.loop(ctx, loopConfig{
		model:    resolveModel(sub.Model),
		system:   sub.Prompt,
		specs:    a.catalogSpecs(allowed),
		allowed:  allowed,
		maxTurns: subagentMaxTurns,
	}, []Message{TextMessage(RoleUser, in.Prompt)}, nil, nil)
	if err != nil {
		return fmt.Sprintf("Error: subagent %s failed: %v", sub.Name, err), true
	}
	return stats.Text, false
}
