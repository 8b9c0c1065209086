// Package chat turns operator messages into platform actions, first through a
// bilingual command table and, for everything else, through an LLM
// conversation with tool calling.
package chat

import (
	"context"

	"github.com/sales440/ivy-ai-platform/internal/campaign"
	"github.com/sales440/ivy-ai-platform/internal/health"
	"github.com/sales440/ivy-ai-platform/internal/model"
	"github.com/sales440/ivy-ai-platform/internal/orchestrator"
	"github.com/sales440/ivy-ai-platform/internal/webintel"
)

// TaskManager is the orchestrator surface chat needs.
type TaskManager interface {
	Status() orchestrator.StatusReport
	CreateTask(ctx context.Context, t model.TaskType, priority model.TaskPriority, description string, metadata map[string]string) string
	List() []model.Task
}

// HealthChecker is satisfied by *health.Monitor.
type HealthChecker interface {
	Check(ctx context.Context) model.HealthSnapshot
}

// SnapshotHealer is satisfied by *health.Healer.
type SnapshotHealer interface {
	Heal(ctx context.Context, snap model.HealthSnapshot) health.HealResult
}

// CampaignManager is satisfied by *campaign.WorkflowScheduler.
type CampaignManager interface {
	Status(ctx context.Context, companyID string) (campaign.WorkflowStatus, error)
	MonitorAndRepair(ctx context.Context) (campaign.RepairSummary, error)
	CreateWorkflow(ctx context.Context, companyID, industry string) ([]string, error)
}

// AgentLister is satisfied by *core.AgentService.
type AgentLister interface {
	List(ctx context.Context) ([]model.Agent, error)
}

// WebSearcher is satisfied by *webintel.Client.
type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]webintel.SearchResult, error)
}

// Deps bundles the platform components chat commands and tools act on.
type Deps struct {
	Tasks     TaskManager
	Monitor   HealthChecker
	Healer    SnapshotHealer
	Campaigns CampaignManager
	Agents    AgentLister
	Web       WebSearcher
}
