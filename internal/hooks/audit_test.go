package hooks

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"
)

func newTestAuditor(t *testing.T) (*Auditor, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	a, err := NewAuditor(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { a.Close() })
	return a, path
}

func readEntries(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var entries []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("line %q: %v", scanner.Text(), err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestAudit_ToolCallEntry(t *testing.T) {
	a, path := newTestAuditor(t)

	hook := a.ToolCallHook()
	d := hook(context.Background(), &Context{
		Tool:      "mcp__turbo__get_issue",
		Input:     map[string]any{"issue_id": "TURBO-1"},
		ToolUseID: "toolu_01",
	})
	if d.Denied() {
		t.Fatal("audit hook must never deny")
	}

	entries := readEntries(t, path)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e["event"] != "tool_call" || e["tool"] != "mcp__turbo__get_issue" || e["tool_use_id"] != "toolu_01" {
		t.Errorf("entry = %v", e)
	}
	hash, _ := e["input_hash"].(string)
	if len(hash) != 16 {
		t.Errorf("input_hash = %q, want 16 hex chars", hash)
	}
	if e["timestamp"] == "" {
		t.Error("missing timestamp")
	}
	summary, _ := e["input_summary"].(map[string]any)
	if summary["issue_id"] != "TURBO-1" {
		t.Errorf("input_summary = %v", summary)
	}
}

func TestAudit_ToolResultEntry(t *testing.T) {
	a, path := newTestAuditor(t)

	a.ToolResultHook()(context.Background(), &Context{
		Tool:      "mcp__turbo__create_issue",
		ToolUseID: "toolu_02",
		IsError:   true,
	})

	entries := readEntries(t, path)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e["event"] != "tool_result" || e["is_error"] != true {
		t.Errorf("entry = %v", e)
	}
}

func TestHashInput_DeterministicAndKeyOrderFree(t *testing.T) {
	a := map[string]any{"b": 2, "a": "one", "c": map[string]any{"y": 1, "x": 2}}
	b := map[string]any{"c": map[string]any{"x": 2, "y": 1}, "a": "one", "b": 2}
	if hashInput(a) != hashInput(b) {
		t.Error("hash should not depend on key order")
	}
	if hashInput(a) == hashInput(map[string]any{"a": "two"}) {
		t.Error("different inputs should hash differently")
	}
	for _, r := range hashInput(a) {
		if !strings.ContainsRune("0123456789abcdef", r) {
			t.Fatalf("non-hex rune %q in hash", r)
		}
	}
}

func TestSummarize_TruncatesLongValues(t *testing.T) {
	long := strings.Repeat("x", 500)
	summary := summarize(map[string]any{"description": long, "title": "short"})

	got, _ := summary["description"].(string)
	if len(got) != summaryMaxLen+3 || !strings.HasSuffix(got, "...") {
		t.Errorf("len = %d, suffix ok = %v", len(got), strings.HasSuffix(got, "..."))
	}
	if summary["title"] != "short" {
		t.Errorf("short value altered: %v", summary["title"])
	}
}

func TestSummarize_TruncatesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("日", 300)
	summary := summarize(map[string]any{"description": long})

	got, _ := summary["description"].(string)
	if !utf8.ValidString(got) {
		t.Fatalf("truncated value is not valid UTF-8: %q", got[:20])
	}
	if n := utf8.RuneCountInString(got); n != summaryMaxLen+3 {
		t.Errorf("rune count = %d, want %d", n, summaryMaxLen+3)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("missing ... suffix: %q", got[len(got)-10:])
	}
}
