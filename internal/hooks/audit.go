package hooks

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Audit log rotation: 10 MiB per file, 5 backups.
const (
	auditMaxSizeMB  = 10
	auditMaxBackups = 5

	summaryMaxLen = 200
)

// Auditor writes JSONL audit entries for every tool call and result. Writes
// are serialised by a mutex so concurrent tool calls never interleave lines.
type Auditor struct {
	mu     sync.Mutex
	out    io.WriteCloser
	logger *slog.Logger
	now    func() time.Time
}

// NewAuditor opens a rotating audit log at path, creating parent directories
// as needed.
func NewAuditor(path string, logger *slog.Logger) (*Auditor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create audit log dir: %w", err)
	}
	return &Auditor{
		out: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    auditMaxSizeMB,
			MaxBackups: auditMaxBackups,
		},
		logger: logger.With("component", "audit"),
		now:    time.Now,
	}, nil
}

// Close flushes and closes the audit log.
func (a *Auditor) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.out.Close()
}

// hashInput returns the first 16 hex characters of the SHA-256 of the
// canonical (sorted-key) JSON encoding of the tool input. Used for tamper
// detection without storing full inputs.
func hashInput(input map[string]any) string {
	canonical, err := json.Marshal(input)
	if err != nil {
		canonical = []byte(fmt.Sprint(input))
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])[:16]
}

// summarize truncates long input values so audit entries stay compact.
// Truncation counts runes, never splitting a multi-byte character.
func summarize(input map[string]any) map[string]any {
	summary := make(map[string]any, len(input))
	for k, v := range input {
		s := fmt.Sprint(v)
		runes := []rune(s)
		if len(runes) < summaryMaxLen {
			summary[k] = v
		} else {
			summary[k] = string(runes[:summaryMaxLen]) + "..."
		}
	}
	return summary
}

type auditCallEntry struct {
	Event        string         `json:"event"`
	Tool         string         `json:"tool"`
	ToolUseID    string         `json:"tool_use_id"`
	InputHash    string         `json:"input_hash"`
	InputSummary map[string]any `json:"input_summary"`
	Timestamp    string         `json:"timestamp"`
}

type auditResultEntry struct {
	Event     string `json:"event"`
	Tool      string `json:"tool"`
	ToolUseID string `json:"tool_use_id"`
	IsError   bool   `json:"is_error"`
	Timestamp string `json:"timestamp"`
}

func (a *Auditor) write(entry any) {
	line, err := json.Marshal(entry)
	if err != nil {
		a.logger.Error("encode audit entry", "error", err)
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, err := a.out.Write(append(line, '\n')); err != nil {
		a.logger.Error("write audit entry", "error", err)
	}
}

// ToolCallHook returns the pre-call hook that records every attempt. It
// never denies.
func (a *Auditor) ToolCallHook() Hook {
	return func(_ context.Context, hc *Context) Decision {
		a.write(auditCallEntry{
			Event:        "tool_call",
			Tool:         hc.Tool,
			ToolUseID:    hc.ToolUseID,
			InputHash:    hashInput(hc.Input),
			InputSummary: summarize(hc.Input),
			Timestamp:    a.now().UTC().Format(time.RFC3339Nano),
		})
		return Continue()
	}
}

// ToolResultHook returns the post-call hook that records outcomes.
func (a *Auditor) ToolResultHook() Hook {
	return func(_ context.Context, hc *Context) Decision {
		a.write(auditResultEntry{
			Event:     "tool_result",
			Tool:      hc.Tool,
			ToolUseID: hc.ToolUseID,
			IsError:   hc.IsError,
			Timestamp: a.now().UTC().Format(time.RFC3339Nano),
		})
		return Continue()
	}
}
