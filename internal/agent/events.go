package agent

// EventKind discriminates stream events.
type EventKind string

const (
	// EventText is a chunk of assistant text.
	EventText EventKind = "text"

	// EventToolCall reports a tool invocation the agent requested.
	EventToolCall EventKind = "tool_call"

	// EventResult is the final event of a successful run.
	EventResult EventKind = "result"

	// EventError is the final event of a failed run.
	EventError EventKind = "error"
)

// Event is one structured streaming event.
type Event struct {
	Kind EventKind

	// Text for EventText.
	Text string

	// Tool call details for EventToolCall.
	ToolName  string
	ToolInput map[string]any

	// Final stats for EventResult.
	Result *RunStats

	// Err for EventError.
	Err error
}

// RunStats summarises a completed run.
type RunStats struct {
	SessionID string
	Text      string
	CostUSD   float64
	Turns     int
}
