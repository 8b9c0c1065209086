package model

import "time"

// Company is a tenant whose campaigns and agents are isolated from other
// tenants.
type Company struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Industry    string    `json:"industry,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProfileText returns the text used for industry classification.
func (c *Company) ProfileText() string {
	return c.Name + " " + c.Description + " " + c.Industry
}

// Agent is a worker agent owned by a company.
type Agent struct {
	ID           string     `json:"id"`
	CompanyID    string     `json:"company_id"`
	Name         string     `json:"name"`
	Role         string     `json:"role"`
	Status       string     `json:"status"`
	LastActiveAt *time.Time `json:"last_active_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Notification is a user-facing platform notification subject to the 30-day
// retention window.
type Notification struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id,omitempty"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Communication is an agent activity log entry (outbound message, training
// run, error) subject to the 90-day retention window.
type Communication struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agent_id"`
	Kind      string    `json:"kind"`
	Outcome   string    `json:"outcome"` // "ok" or "error"
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
