package agent

import (
	"strings"

	"github.com/turbohq/turbo-agent/internal/tools"
)

// Subagent is a focused role with scoped tool access. Tool access is
// intentionally restricted:
//
//   - triager: read-only (cannot modify data while analyzing)
//   - planner: read + create (cannot modify existing items)
//   - reporter: read + comment (cannot create/modify issues)
//   - worker: read + claim + log (cannot create new issues or decisions)
type Subagent struct {
	Name        string
	Description string
	Prompt      string
	Tools       []string
	Model       string
}

const triagerPrompt = `You are a project triage specialist. Your job is to:

1. Review open issues in a project
2. Assess priority based on impact, urgency, and dependencies
3. Identify blockers and critical path items
4. Recommend a prioritized work order
5. Flag issues that need clarification or are missing acceptance criteria

Be concise. Output a ranked list with brief justifications.
Do NOT modify any issues — only read and analyze.`

const plannerPrompt = `You are a technical planner. Given a goal or feature request:

1. Break it into concrete, actionable issues with clear titles and descriptions
2. Set appropriate types (task, bug, feature, improvement) and priorities
3. Record any architectural decisions made during planning
4. Identify dependencies between issues
5. Suggest a logical implementation order

Each issue should be small enough to complete in a single work session.
Include acceptance criteria in descriptions.`

const reporterPrompt = `You are a project status reporter. Generate clear, actionable status reports:

1. Summarize overall project health (on track, at risk, blocked)
2. List completed work since last report
3. Highlight blockers and risks
4. Show upcoming priorities from the work queue
5. Post the report as a comment on the project

Keep reports concise — bullet points, not paragraphs. Use data from the tools, not assumptions.`

const workerPrompt = `You are a work session manager. When asked to start a work session:

1. Check the work queue for the highest priority ready issue
2. Claim the issue by starting work on it
3. Present the issue details and acceptance criteria
4. When work is complete, log a summary of what was done

Always confirm before claiming an issue. Never skip the work queue order unless explicitly told to.`

// SubagentCatalog returns the standard subagents keyed by name, with model
// tiers resolved through smartModel and fastModel.
func SubagentCatalog(smartModel, fastModel string) map[string]Subagent {
	return map[string]Subagent{
		"triager": {
			Name:        "triager",
			Description: "Analyzes project issues and recommends prioritization. Read-only — does not modify any data.",
			Prompt:      triagerPrompt,
			Tools: []string{
				tools.Qualified("list_projects"),
				tools.Qualified("get_project"),
				tools.Qualified("get_project_issues"),
				tools.Qualified("list_issues"),
				tools.Qualified("get_issue"),
				tools.Qualified("project_status_summary"),
			},
			Model: smartModel,
		},
		"planner": {
			Name:        "planner",
			Description: "Creates implementation plans by breaking work into issues and recording decisions. Can create but not modify.",
			Prompt:      plannerPrompt,
			Tools: []string{
				tools.Qualified("list_projects"),
				tools.Qualified("get_project"),
				tools.Qualified("get_project_issues"),
				tools.Qualified("list_issues"),
				tools.Qualified("get_issue"),
				tools.Qualified("create_issue"),
				tools.Qualified("create_decision"),
				tools.Qualified("list_initiatives"),
			},
			Model: smartModel,
		},
		"reporter": {
			Name:        "reporter",
			Description: "Generates project status reports and posts summaries as comments.",
			Prompt:      reporterPrompt,
			Tools: []string{
				tools.Qualified("list_projects"),
				tools.Qualified("get_project"),
				tools.Qualified("get_project_issues"),
				tools.Qualified("project_status_summary"),
				tools.Qualified("list_issues"),
				tools.Qualified("get_issue"),
				tools.Qualified("add_comment"),
			},
			Model: fastModel,
		},
		"worker": {
			Name:        "worker",
			Description: "Manages work sessions: picks up next issue, claims it, and logs progress.",
			Prompt:      workerPrompt,
			Tools: []string{
				tools.Qualified("get_work_queue"),
				tools.Qualified("get_next_issue"),
				tools.Qualified("get_issue"),
				tools.Qualified("start_issue_work"),
				tools.Qualified("update_issue"),
				tools.Qualified("log_work"),
			},
			Model: smartModel,
		},
	}
}

// resolveModel maps a tier alias (sonnet, haiku, opus) to a concrete model
// identifier. Full model IDs pass through unchanged.
func resolveModel(tier string) string {
	if strings.Contains(tier, "claude") {
		return tier
	}
	switch tier {
	case "haiku":
		return "claude-3-5-haiku-20241022"
	case "opus":
		return "claude-opus-4-20250514"
	case "sonnet":
		return "claude-sonnet-4-20250514"
	default:
		return tier
	}
}
