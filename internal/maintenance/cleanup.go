package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Retention windows for cleanup. Notifications are user-facing and short
// lived; agent communication logs feed the error-rate probe and keep longer.
const (
	notificationRetention  = 30 * 24 * time.Hour
	communicationRetention = 90 * 24 * time.Hour
)

// Reaper deletes rows older than a cutoff. *core.NotificationService and
// *core.CommunicationService satisfy it.
type Reaper interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// CleanupReport summarizes one cleanup pass.
type CleanupReport struct {
	NotificationsDeleted  int64 `json:"notifications_deleted"`
	CommunicationsDeleted int64 `json:"communications_deleted"`
}

// Cleaner enforces the data retention windows.
type Cleaner struct {
	logger         zerolog.Logger
	notifications  Reaper
	communications Reaper
}

func NewCleaner(logger zerolog.Logger, notifications, communications Reaper) *Cleaner {
	return &Cleaner{
		logger:         logger.With().Str("component", "cleanup").Logger(),
		notifications:  notifications,
		communications: communications,
	}
}

// Run deletes notifications past 30 days and communications past 90 days.
// The two deletions are independent; a failure in one does not block the
// other.
func (c *Cleaner) Run(ctx context.Context) (CleanupReport, error) {
	now := time.Now()
	var report CleanupReport
	var firstErr error

	n, err := c.notifications.DeleteOlderThan(ctx, now.Add(-notificationRetention))
	if err != nil {
		firstErr = fmt.Errorf("cleanup notifications: %w", err)
	} else {
		report.NotificationsDeleted = n
	}

	n, err = c.communications.DeleteOlderThan(ctx, now.Add(-communicationRetention))
	if err != nil && firstErr == nil {
		firstErr = fmt.Errorf("cleanup communications: %w", err)
	} else if err == nil {
		report.CommunicationsDeleted = n
	}

	if report.NotificationsDeleted > 0 || report.CommunicationsDeleted > 0 {
		c.logger.Info().
			Int64("notifications", report.NotificationsDeleted).
			Int64("communications", report.CommunicationsDeleted).
			Msg("retention cleanup done")
	}
	return report, firstErr
}
