package campaign

import (
	"time"

	"github.com/sales440/ivy-ai-platform/internal/model"
)

// retryDelay is the fixed backoff between repair attempts. The cadence is
// deliberately flat: campaign steps are not latency sensitive and a flat
// half-hour keeps the repair math trivially auditable.
const retryDelay = 30 * time.Minute

// RepairDecision is the outcome of the retry policy for one failed task.
type RepairDecision struct {
	// NextStatus is ScheduledPending when the task gets another attempt,
	// ScheduledCancelled when the retry budget is exhausted.
	NextStatus string
	// ScheduledFor is the new execution time. Only meaningful for pending.
	ScheduledFor time.Time
	// Retry reports whether the task gets another attempt.
	Retry bool
}

// NextRetry is the pure retry policy for a failed campaign task. A task below
// its budget is rescheduled 30 minutes from now; a task at or over budget is
// cancelled. It never touches the store.
func NextRetry(retryCount, maxRetries int, now time.Time) RepairDecision {
	if retryCount < maxRetries {
		return RepairDecision{
			NextStatus:   model.ScheduledPending,
			ScheduledFor: now.Add(retryDelay),
			Retry:        true,
		}
	}
	return RepairDecision{NextStatus: model.ScheduledCancelled}
}
