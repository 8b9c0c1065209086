package model

// ScheduledTask status constants.
const (
	ScheduledPending    = "pending"
	ScheduledProcessing = "processing"
	ScheduledCompleted  = "completed"
	ScheduledFailed     = "failed"
	ScheduledCancelled  = "cancelled"
)

// In-process Task status constants.
const (
	TaskPending   = "pending"
	TaskRunning   = "running"
	TaskCompleted = "completed"
	TaskFailed    = "failed"
)

// Health status constants, ordered from best to worst.
const (
	HealthHealthy  = "healthy"
	HealthDegraded = "degraded"
	HealthCritical = "critical"
)

// Issue severity constants.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Agent status constants.
const (
	AgentActive = "active"
	AgentIdle   = "idle"
	AgentFailed = "failed"
)
