package model

import "time"

// DefaultMaxRetries is the retry budget for a ScheduledTask unless the
// creator overrides it.
const DefaultMaxRetries = 3

// Scheduled task types making up a campaign workflow.
const (
	StepProspecting      = "prospecting"
	StepQualification    = "qualification"
	StepFirstEngagement  = "first_engagement"
	StepSecondEngagement = "second_engagement"
	StepThirdEngagement  = "third_engagement"
)

// TaskData is the discriminated payload of a ScheduledTask: which agent role
// acts, what it does, and with which parameters. It is validated at the
// persistence boundary before a row is written.
type TaskData struct {
	AgentRole string            `json:"agent_role" validate:"required,oneof=prospector qualifier engager closer trainer"`
	Action    string            `json:"action" validate:"required"`
	Params    map[string]string `json:"params,omitempty"`
}

// ScheduledTask is a persisted, company-scoped unit of delegated work with a
// future execution time and bounded retry. Rows are never deleted, only
// transitioned; cancelled is terminal.
type ScheduledTask struct {
	ID           string     `json:"id"`
	CompanyID    string     `json:"company_id"`
	TaskType     string     `json:"task_type"`
	TaskData     TaskData   `json:"task_data"`
	Status       string     `json:"status"`
	ScheduledFor time.Time  `json:"scheduled_for"`
	ExecutedAt   *time.Time `json:"executed_at,omitempty"`
	RetryCount   int        `json:"retry_count"`
	MaxRetries   int        `json:"max_retries"`
	CreatedBy    string     `json:"created_by"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
