package core

import (
	"context"
	"fmt"
	"time"

	"github.com/sales440/ivy-ai-platform/internal/model"
	"github.com/sales440/ivy-ai-platform/internal/platform"
)

type NotificationService struct {
	db DB
}

func NewNotificationService(db DB) *NotificationService {
	return &NotificationService{db: db}
}

// Create persists a notification.
func (s *NotificationService) Create(ctx context.Context, n *model.Notification) error {
	n.ID = platform.NewID()
	n.CreatedAt = time.Now()

	_, err := s.db.Exec(ctx,
		`INSERT INTO notifications (id, company_id, kind, message, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		n.ID, nullable(n.CompanyID), n.Kind, n.Message, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// DeleteOlderThan removes notifications created before the cutoff. The audit
// cycle uses a 30-day retention window.
func (s *NotificationService) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM notifications WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old notifications: %w", err)
	}
	return tag.RowsAffected(), nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
