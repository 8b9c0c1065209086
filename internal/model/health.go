package model

import "time"

// Monitored component names.
const (
	ComponentDatabase  = "database"
	ComponentRuntime   = "runtime"
	ComponentAgentPool = "agent_pool"
	ComponentCampaigns = "campaign_pipeline"
)

// ComponentHealth is one probe's snapshot of a single component.
type ComponentHealth struct {
	Component    string        `json:"component"`
	Status       string        `json:"status"`
	Uptime       time.Duration `json:"uptime,omitempty"`
	ErrorRate    float64       `json:"error_rate,omitempty"`
	ResponseTime time.Duration `json:"response_time,omitempty"`
	Details      string        `json:"details,omitempty"`
}

// HealthIssue is a detected deviation from healthy.
type HealthIssue struct {
	Severity    string    `json:"severity"`
	Component   string    `json:"component"`
	Description string    `json:"description"`
	DetectedAt  time.Time `json:"detected_at"`
	AutoFixable bool      `json:"auto_fixable"`
}

// HealthSnapshot is the aggregated, recomputed-per-poll view of the platform.
// Status is critical if any issue is critical, degraded if any issue exists,
// healthy otherwise.
type HealthSnapshot struct {
	Status     string                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
	Issues     []HealthIssue              `json:"issues,omitempty"`
	CheckedAt  time.Time                  `json:"checked_at"`
}

// AutoFixableIssues returns the subset of issues flagged auto-fixable.
func (s *HealthSnapshot) AutoFixableIssues() []HealthIssue {
	var out []HealthIssue
	for _, issue := range s.Issues {
		if issue.AutoFixable {
			out = append(out, issue)
		}
	}
	return out
}

// CriticalIssues returns the subset of issues with critical severity.
func (s *HealthSnapshot) CriticalIssues() []HealthIssue {
	var out []HealthIssue
	for _, issue := range s.Issues {
		if issue.Severity == SeverityCritical {
			out = append(out, issue)
		}
	}
	return out
}
