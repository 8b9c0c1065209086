package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Data-sync cutoffs. An agent is active if it communicated within 24h; a
// processing workflow step executed more than 7 days ago is assumed done; a
// pending step with no response for 30 days is declared failed.
const (
	agentActiveWindow = 24 * time.Hour
	staleWorkflowAge  = 7 * 24 * time.Hour
	unresponsiveAge   = 30 * 24 * time.Hour
	dequeueBatch      = 10
)

// AgentSyncer recomputes agent statuses from recent activity.
// *core.AgentService satisfies it.
type AgentSyncer interface {
	RecomputeStatuses(ctx context.Context, activeSince time.Time) (activated, idled int64, err error)
}

// WorkflowSyncer transitions stale scheduled tasks. *core.ScheduledTaskService
// satisfies it.
type WorkflowSyncer interface {
	CompleteStale(ctx context.Context, executedBefore time.Time) (int64, error)
	FailUnresponsive(ctx context.Context, scheduledBefore time.Time) (int64, error)
}

// TaskDrainer executes queued in-process tasks. *orchestrator.Orchestrator
// satisfies it.
type TaskDrainer interface {
	DequeuePending(n int) []string
	ExecuteTask(ctx context.Context, id string) error
}

// SyncReport summarizes one data-sync pass.
type SyncReport struct {
	AgentsActivated  int64 `json:"agents_activated"`
	AgentsIdled      int64 `json:"agents_idled"`
	WorkflowsClosed  int64 `json:"workflows_closed"`
	WorkflowsExpired int64 `json:"workflows_expired"`
	TasksExecuted    int   `json:"tasks_executed"`
}

// Syncer reconciles derived state: agent statuses, stale workflows, and the
// pending in-process task queue.
type Syncer struct {
	logger zerolog.Logger
	agents AgentSyncer
	tasks  WorkflowSyncer
	queue  TaskDrainer
}

func NewSyncer(logger zerolog.Logger, agents AgentSyncer, tasks WorkflowSyncer, queue TaskDrainer) *Syncer {
	return &Syncer{
		logger: logger.With().Str("component", "data-sync").Logger(),
		agents: agents,
		tasks:  tasks,
		queue:  queue,
	}
}

// Run performs one sync pass. Steps are independent: a failing step is
// reported but later steps still run, so a single bad query cannot starve
// the task queue.
func (s *Syncer) Run(ctx context.Context) (SyncReport, error) {
	now := time.Now()
	var report SyncReport
	var firstErr error

	activated, idled, err := s.agents.RecomputeStatuses(ctx, now.Add(-agentActiveWindow))
	if err != nil {
		firstErr = fmt.Errorf("recompute agent statuses: %w", err)
		s.logger.Error().Err(err).Msg("agent status sync failed")
	} else {
		report.AgentsActivated = activated
		report.AgentsIdled = idled
	}

	closed, err := s.tasks.CompleteStale(ctx, now.Add(-staleWorkflowAge))
	if err != nil {
		if firstErr == nil {
			firstErr = fmt.Errorf("complete stale workflows: %w", err)
		}
		s.logger.Error().Err(err).Msg("stale workflow sync failed")
	} else {
		report.WorkflowsClosed = closed
	}

	expired, err := s.tasks.FailUnresponsive(ctx, now.Add(-unresponsiveAge))
	if err != nil {
		if firstErr == nil {
			firstErr = fmt.Errorf("fail unresponsive workflows: %w", err)
		}
		s.logger.Error().Err(err).Msg("unresponsive workflow sync failed")
	} else {
		report.WorkflowsExpired = expired
	}

	for _, id := range s.queue.DequeuePending(dequeueBatch) {
		if err := s.queue.ExecuteTask(ctx, id); err != nil {
			s.logger.Error().Err(err).Str("task", id).Msg("queued task execution failed")
			continue
		}
		report.TasksExecuted++
	}

	return report, firstErr
}
