package model

import "time"

// TaskType identifies the executor responsible for an in-process task.
type TaskType string

const (
	TaskFixErrors        TaskType = "fix_errors"
	TaskTrainAgent       TaskType = "train_agent"
	TaskHealSystem       TaskType = "heal_system"
	TaskAuditPlatform    TaskType = "audit_platform"
	TaskChatResponse     TaskType = "chat_response"
	TaskGenerateCampaign TaskType = "generate_campaign"
)

// TaskTypes returns the closed set of task types. Every type listed here must
// have an executor registered before the orchestrator starts.
func TaskTypes() []TaskType {
	return []TaskType{
		TaskFixErrors,
		TaskTrainAgent,
		TaskHealSystem,
		TaskAuditPlatform,
		TaskChatResponse,
		TaskGenerateCampaign,
	}
}

// TaskPriority orders dispatch urgency.
type TaskPriority string

const (
	PriorityLow      TaskPriority = "low"
	PriorityMedium   TaskPriority = "medium"
	PriorityHigh     TaskPriority = "high"
	PriorityCritical TaskPriority = "critical"
)

// DispatchImmediately reports whether a task of this priority is executed as
// soon as it is created, without a separate dispatch call.
func (p TaskPriority) DispatchImmediately() bool {
	return p == PriorityHigh || p == PriorityCritical
}

// Task is an ephemeral, process-owned unit of orchestrator work. It has a
// monotonic lifecycle (pending -> running -> completed|failed), no automatic
// retry, and is lost on process restart.
type Task struct {
	ID          string            `json:"id"`
	Type        TaskType          `json:"type"`
	Priority    TaskPriority      `json:"priority"`
	Status      string            `json:"status"`
	Description string            `json:"description"`
	CreatedAt   time.Time         `json:"created_at"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Result      string            `json:"result,omitempty"`
	Error       string            `json:"error,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}
