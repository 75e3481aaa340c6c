package agent

import (
	"strings"
	"testing"

	"github.com/turbohq/turbo-agent/internal/tools"
)

func TestSubagentCatalog_ToolsExistAndAreNamespaced(t *testing.T) {
	catalog := SubagentCatalog("sonnet", "haiku")
	if len(catalog) != 4 {
		t.Fatalf("subagents = %d, want 4", len(catalog))
	}

	known := make(map[string]struct{})
	for _, name := range tools.CatalogNames() {
		known[name] = struct{}{}
	}

	for name, sub := range catalog {
		if sub.Name != name {
			t.Errorf("subagent %q has Name %q", name, sub.Name)
		}
		if sub.Description == "" || sub.Prompt == "" {
			t.Errorf("subagent %q missing description or prompt", name)
		}
		if len(sub.Tools) == 0 {
			t.Errorf("subagent %q has no tools", name)
		}
		for _, tool := range sub.Tools {
			if !strings.HasPrefix(tool, tools.Namespace) {
				t.Errorf("subagent %q tool %q lacks namespace", name, tool)
			}
			if _, ok := known[tool]; !ok {
				t.Errorf("subagent %q references unknown tool %q", name, tool)
			}
		}
	}
}

func TestSubagentCatalog_LeastPrivilege(t *testing.T) {
	catalog := SubagentCatalog("sonnet", "haiku")
	write := tools.WriteTools()

	// The triager is strictly read-only.
	for _, tool := range catalog["triager"].Tools {
		if _, isWrite := write[tool]; isWrite {
			t.Errorf("triager holds write tool %q", tool)
		}
	}

	// The planner can create but not modify.
	planner := toolSet(catalog["planner"].Tools)
	for _, banned := range []string{"update_issue", "start_issue_work", "log_work", "add_comment"} {
		if _, ok := planner[tools.Qualified(banned)]; ok {
			t.Errorf("planner holds %q", banned)
		}
	}
	for _, required := range []string{"create_issue", "create_decision"} {
		if _, ok := planner[tools.Qualified(required)]; !ok {
			t.Errorf("planner missing %q", required)
		}
	}

	// The reporter's only write tool is add_comment.
	for _, tool := range catalog["reporter"].Tools {
		if _, isWrite := write[tool]; isWrite && tool != tools.Qualified("add_comment") {
			t.Errorf("reporter holds write tool %q", tool)
		}
	}

	// The worker cannot create issues or decisions.
	worker := toolSet(catalog["worker"].Tools)
	for _, banned := range []string{"create_issue", "create_decision", "add_comment"} {
		if _, ok := worker[tools.Qualified(banned)]; ok {
			t.Errorf("worker holds %q", banned)
		}
	}
	for _, required := range []string{"start_issue_work", "log_work", "get_work_queue"} {
		if _, ok := worker[tools.Qualified(required)]; !ok {
			t.Errorf("worker missing %q", required)
		}
	}
}

func TestSubagentCatalog_ModelTiers(t *testing.T) {
	catalog := SubagentCatalog("smart-tier", "fast-tier")
	if catalog["triager"].Model != "smart-tier" {
		t.Errorf("triager model = %q", catalog["triager"].Model)
	}
	if catalog["planner"].Model != "smart-tier" {
		t.Errorf("planner model = %q", catalog["planner"].Model)
	}
	if catalog["reporter"].Model != "fast-tier" {
		t.Errorf("reporter model = %q", catalog["reporter"].Model)
	}
	if catalog["worker"].Model != "smart-tier" {
		t.Errorf("worker model = %q", catalog["worker"].Model)
	}
}

func TestResolveModel(t *testing.T) {
	tests := []struct {
		tier string
		want string
	}{
		{"sonnet", "claude-sonnet-4-20250514"},
		{"haiku", "claude-3-5-haiku-20241022"},
		{"opus", "claude-opus-4-20250514"},
		{"claude-sonnet-4-20250514", "claude-sonnet-4-20250514"},
		{"custom-model", "custom-model"},
	}
	for _, tt := range tests {
		if got := resolveModel(tt.tier); got != tt.want {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.tier, got, tt.want)
		}
	}
}

func toolSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}
