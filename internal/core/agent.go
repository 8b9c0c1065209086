package core

import (
	"context"
	"fmt"
	"time"

	"github.com/sales440/ivy-ai-platform/internal/model"
)

type AgentService struct {
	db DB
}

func NewAgentService(db DB) *AgentService {
	return &AgentService{db: db}
}

// List returns all agents.
func (s *AgentService) List(ctx context.Context) ([]model.Agent, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, company_id, name, role, status, last_active_at, created_at, updated_at
		 FROM agents ORDER BY company_id, name`)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	var agents []model.Agent
	for rows.Next() {
		var a model.Agent
		if err := rows.Scan(&a.ID, &a.CompanyID, &a.Name, &a.Role, &a.Status,
			&a.LastActiveAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

// RecomputeStatuses marks agents active when they produced activity since the
// cutoff and idle otherwise. Failed agents are left alone; the healer owns
// that transition. Returns (activated, idled).
func (s *AgentService) RecomputeStatuses(ctx context.Context, activeSince time.Time) (int64, int64, error) {
	now := time.Now()

	activated, err := s.db.Exec(ctx,
		`UPDATE agents SET status = $1, updated_at = $2
		 WHERE status = $3 AND EXISTS (
		   SELECT 1 FROM agent_communications c
		   WHERE c.agent_id = agents.id AND c.created_at > $4)`,
		model.AgentActive, now, model.AgentIdle, activeSince,
	)
	if err != nil {
		return 0, 0, fmt.Errorf("activate agents: %w", err)
	}

	idled, err := s.db.Exec(ctx,
		`UPDATE agents SET status = $1, updated_at = $2
		 WHERE status = $3 AND NOT EXISTS (
		   SELECT 1 FROM agent_communications c
		   WHERE c.agent_id = agents.id AND c.created_at > $4)`,
		model.AgentIdle, now, model.AgentActive, activeSince,
	)
	if err != nil {
		return activated.RowsAffected(), 0, fmt.Errorf("idle agents: %w", err)
	}

	return activated.RowsAffected(), idled.RowsAffected(), nil
}

// ResetFailing moves failed agents back to idle so they can pick up work
// again. Used by the auto-healer for the agent-error-rate issue class.
func (s *AgentService) ResetFailing(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE agents SET status = $1, updated_at = $2 WHERE status = $3`,
		model.AgentIdle, time.Now(), model.AgentFailed,
	)
	if err != nil {
		return 0, fmt.Errorf("reset failing agents: %w", err)
	}
	return tag.RowsAffected(), nil
}
