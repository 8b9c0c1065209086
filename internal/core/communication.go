package core

import (
	"context"
	"fmt"
	"time"

	"github.com/sales440/ivy-ai-platform/internal/platform"
)

type CommunicationService struct {
	db DB
}

func NewCommunicationService(db DB) *CommunicationService {
	return &CommunicationService{db: db}
}

// Log records an agent activity entry.
func (s *CommunicationService) Log(ctx context.Context, agentID, kind, outcome, detail string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO agent_communications (id, agent_id, kind, outcome, detail, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		platform.NewID(), agentID, kind, outcome, detail, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("log communication: %w", err)
	}
	return nil
}

// ErrorRateSince returns the fraction of communications since the cutoff with
// an error outcome. Zero activity yields a zero rate.
func (s *CommunicationService) ErrorRateSince(ctx context.Context, since time.Time) (float64, error) {
	var total, failed int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE outcome = 'error')
		 FROM agent_communications WHERE created_at > $1`, since,
	).Scan(&total, &failed)
	if err != nil {
		return 0, fmt.Errorf("communication error rate: %w", err)
	}
	if total == 0 {
		return 0, nil
	}
	return float64(failed) / float64(total), nil
}

// DeleteOlderThan removes communications created before the cutoff. The audit
// cycle uses a 90-day retention window.
func (s *CommunicationService) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM agent_communications WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old communications: %w", err)
	}
	return tag.RowsAffected(), nil
}
