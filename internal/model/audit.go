package model

import "time"

// AuditResult records the outcome of one audit cycle. Snapshot is the full
// health picture the cycle started from; Health mirrors its status for quick
// display.
type AuditResult struct {
	Timestamp       time.Time      `json:"timestamp"`
	ErrorCount      int            `json:"error_count"`
	QualityScore    int            `json:"quality_score"`
	Health          string         `json:"health"`
	Snapshot        HealthSnapshot `json:"snapshot"`
	Recommendations []string       `json:"recommendations,omitempty"`
	CriticalIssues  []string       `json:"critical_issues,omitempty"`
	CreatedTaskIDs  []string       `json:"created_task_ids,omitempty"`
}
