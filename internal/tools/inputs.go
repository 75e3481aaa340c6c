package tools

// Input structs for the tool catalog. JSON schemas are reflected from the
// jsonschema struct tags, so constraints here are enforced before any
// network I/O.

type listProjectsInput struct {
	Status string `json:"status,omitempty" jsonschema:"description=Filter by project status"`
	Limit  int    `json:"limit,omitempty" jsonschema:"minimum=1,maximum=100,description=Max results"`
}

type projectIDInput struct {
	ProjectID string `json:"project_id" jsonschema:"required,minLength=1,description=UUID of the project"`
}

type projectIssuesInput struct {
	ProjectID string `json:"project_id" jsonschema:"required,minLength=1,description=UUID of the project"`
	Status    string `json:"status,omitempty" jsonschema:"description=Filter by issue status"`
}

type listIssuesInput struct {
	Status    string `json:"status,omitempty" jsonschema:"description=Filter by status"`
	Priority  string `json:"priority,omitempty" jsonschema:"description=Filter by priority"`
	ProjectID string `json:"project_id,omitempty" jsonschema:"description=Filter by project UUID"`
	Limit     int    `json:"limit,omitempty" jsonschema:"minimum=1,maximum=100,description=Max results"`
}

type issueIDInput struct {
	IssueID string `json:"issue_id" jsonschema:"required,minLength=1,description=UUID or key (e.g. TURBO-1)"`
}

type createIssueInput struct {
	ProjectID   string `json:"project_id" jsonschema:"required,minLength=1,description=UUID of the project"`
	Title       string `json:"title" jsonschema:"required,minLength=1,maxLength=500,description=Issue title"`
	Description string `json:"description,omitempty" jsonschema:"description=Detailed description"`
	Type        string `json:"type,omitempty" jsonschema:"enum=task,enum=bug,enum=feature,enum=improvement,description=Issue type"`
	Priority    string `json:"priority,omitempty" jsonschema:"enum=critical,enum=high,enum=medium,enum=low,description=Priority level"`
}

type updateIssueInput struct {
	IssueID     string `json:"issue_id" jsonschema:"required,minLength=1,description=UUID of the issue"`
	Status      string `json:"status,omitempty" jsonschema:"description=New status"`
	Priority    string `json:"priority,omitempty" jsonschema:"description=New priority"`
	Title       string `json:"title,omitempty" jsonschema:"maxLength=500,description=New title"`
	Description string `json:"description,omitempty" jsonschema:"description=New description"`
}

type optionalProjectInput struct {
	ProjectID string `json:"project_id,omitempty" jsonschema:"description=UUID of the project"`
}

type logWorkInput struct {
	IssueID string `json:"issue_id" jsonschema:"required,minLength=1,description=UUID of the issue"`
	Summary string `json:"summary" jsonschema:"required,minLength=1,description=Summary of work done"`
	// Pointer so an explicit 0 is distinguishable from absent.
	Hours *float64 `json:"hours,omitempty" jsonschema:"minimum=0,description=Hours spent"`
}

type statusFilterInput struct {
	Status string `json:"status,omitempty" jsonschema:"description=Filter by status"`
}

type createDecisionInput struct {
	Title        string `json:"title" jsonschema:"required,minLength=1,maxLength=500,description=Decision title"`
	Description  string `json:"description" jsonschema:"required,minLength=1,description=What was decided"`
	DecisionType string `json:"decision_type,omitempty" jsonschema:"enum=strategic,enum=tactical,description=Decision category"`
	Rationale    string `json:"rationale,omitempty" jsonschema:"description=Why this decision was made"`
}

type addCommentInput struct {
	EntityType string `json:"entity_type" jsonschema:"required,enum=issue,enum=project,enum=initiative,enum=decision,description=Type of entity to comment on"`
	EntityID   string `json:"entity_id" jsonschema:"required,minLength=1,description=UUID of the entity"`
	Content    string `json:"content" jsonschema:"required,minLength=1,description=Comment text"`
}
