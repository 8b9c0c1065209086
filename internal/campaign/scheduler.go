package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/sales440/ivy-ai-platform/internal/model"
)

// createdBy stamps workflow tasks so audit queries can tell delegated
// campaign steps apart from manually created ones.
const createdBy = "campaign-scheduler"

// repairBatchSize bounds how many failed tasks one repair pass touches.
const repairBatchSize = 10

// Workflow step offsets from the campaign start time. The engagement
// sequence anchors on the first engagement: follow-ups land 72h and 168h
// after it, not after each other.
const (
	offsetQualification   = 1 * time.Hour
	offsetFirstEngagement = 3 * time.Hour
	offsetSecondFollowUp  = 72 * time.Hour
	offsetThirdFollowUp   = 168 * time.Hour
)

// TaskStore is the slice of the scheduled-task service the workflow scheduler
// needs. *core.ScheduledTaskService satisfies it.
type TaskStore interface {
	Create(ctx context.Context, t *model.ScheduledTask) error
	ListFailed(ctx context.Context, limit int) ([]model.ScheduledTask, error)
	Reschedule(ctx context.Context, id string, priorRetryCount int, scheduledFor time.Time) (bool, error)
	Cancel(ctx context.Context, id string, priorRetryCount int) (bool, error)
	CountsByCompany(ctx context.Context, companyID string) (map[string]int, error)
	RecentByCompany(ctx context.Context, companyID string, limit int) ([]model.ScheduledTask, error)
}

// WorkflowStatus is the read-only view of one company's campaign pipeline.
type WorkflowStatus struct {
	CompanyID string                `json:"company_id"`
	Counts    map[string]int        `json:"counts"`
	Recent    []model.ScheduledTask `json:"recent"`
}

// RepairSummary reports one monitor-and-repair pass.
type RepairSummary struct {
	Examined    int `json:"examined"`
	Rescheduled int `json:"rescheduled"`
	Cancelled   int `json:"cancelled"`
	Skipped     int `json:"skipped"`
}

// WorkflowScheduler delegates campaign workflows as scheduled tasks and
// repairs the ones that fail.
type WorkflowScheduler struct {
	logger  zerolog.Logger
	tasks   TaskStore
	catalog *Catalog
	now     func() time.Time

	workflowsCreated prometheus.Counter
	repairOutcomes   *prometheus.CounterVec
}

func NewWorkflowScheduler(logger zerolog.Logger, reg prometheus.Registerer, tasks TaskStore, catalog *Catalog) *WorkflowScheduler {
	metrics := promauto.With(reg)
	return &WorkflowScheduler{
		logger:  logger.With().Str("component", "workflow-scheduler").Logger(),
		tasks:   tasks,
		catalog: catalog,
		now:     time.Now,
		workflowsCreated: metrics.NewCounter(prometheus.CounterOpts{
			Name: "campaign_workflows_created_total",
			Help: "Campaign workflows delegated",
		}),
		repairOutcomes: metrics.NewCounterVec(prometheus.CounterOpts{
			Name: "campaign_repair_outcomes_total",
			Help: "Repair pass outcomes by action",
		}, []string{"action"}),
	}
}

// workflowSteps returns the five steps of a campaign starting at base, in
// execution order.
func workflowSteps(base time.Time) []struct {
	Type string
	At   time.Time
} {
	firstEngagement := base.Add(offsetFirstEngagement)
	return []struct {
		Type string
		At   time.Time
	}{
		{model.StepProspecting, base},
		{model.StepQualification, base.Add(offsetQualification)},
		{model.StepFirstEngagement, firstEngagement},
		{model.StepSecondEngagement, firstEngagement.Add(offsetSecondFollowUp)},
		{model.StepThirdEngagement, firstEngagement.Add(offsetThirdFollowUp)},
	}
}

// CreateWorkflow delegates the five campaign steps for a company using the
// industry's template. Steps are created in execution order; a mid-sequence
// store failure leaves the earlier steps in place and returns the error.
func (s *WorkflowScheduler) CreateWorkflow(ctx context.Context, companyID, industry string) ([]string, error) {
	template, ok := s.catalog.Lookup(industry)
	if !ok {
		return nil, fmt.Errorf("no campaign template for industry %q", industry)
	}

	base := s.now()
	var ids []string
	for _, step := range workflowSteps(base) {
		stepTemplate, ok := template.Steps[step.Type]
		if !ok {
			return ids, fmt.Errorf("template %q missing step %q", industry, step.Type)
		}
		task := &model.ScheduledTask{
			CompanyID: companyID,
			TaskType:  step.Type,
			TaskData: model.TaskData{
				AgentRole: stepTemplate.AgentRole,
				Action:    stepTemplate.Action,
				Params:    stepTemplate.Params,
			},
			ScheduledFor: step.At,
			CreatedBy:    createdBy,
		}
		if err := s.tasks.Create(ctx, task); err != nil {
			return ids, fmt.Errorf("delegate step %s: %w", step.Type, err)
		}
		ids = append(ids, task.ID)
	}

	s.workflowsCreated.Inc()
	s.logger.Info().
		Str("company", companyID).
		Str("industry", industry).
		Int("steps", len(ids)).
		Msg("campaign workflow delegated")
	return ids, nil
}

// MonitorAndRepair examines up to ten failed tasks, oldest first, and applies
// the retry policy to each. The store transitions are conditional on the
// state this pass observed, so a concurrent repair pass touching the same row
// results in a skip, never a double retry.
func (s *WorkflowScheduler) MonitorAndRepair(ctx context.Context) (RepairSummary, error) {
	failed, err := s.tasks.ListFailed(ctx, repairBatchSize)
	if err != nil {
		return RepairSummary{}, fmt.Errorf("list failed tasks: %w", err)
	}

	summary := RepairSummary{Examined: len(failed)}
	for _, task := range failed {
		decision := NextRetry(task.RetryCount, task.MaxRetries, s.now())

		var applied bool
		var applyErr error
		if decision.Retry {
			applied, applyErr = s.tasks.Reschedule(ctx, task.ID, task.RetryCount, decision.ScheduledFor)
		} else {
			applied, applyErr = s.tasks.Cancel(ctx, task.ID, task.RetryCount)
		}
		if applyErr != nil {
			return summary, fmt.Errorf("repair task %s: %w", task.ID, applyErr)
		}
		if !applied {
			summary.Skipped++
			s.repairOutcomes.WithLabelValues("skipped").Inc()
			continue
		}

		if decision.Retry {
			summary.Rescheduled++
			s.repairOutcomes.WithLabelValues("rescheduled").Inc()
			s.logger.Info().
				Str("task", task.ID).
				Int("retry", task.RetryCount+1).
				Time("scheduled_for", decision.ScheduledFor).
				Msg("failed task rescheduled")
		} else {
			summary.Cancelled++
			s.repairOutcomes.WithLabelValues("cancelled").Inc()
			s.logger.Warn().
				Str("task", task.ID).
				Str("company", task.CompanyID).
				Msg("retry budget exhausted, task cancelled")
		}
	}
	return summary, nil
}

// Status returns the per-status counts and recent tasks for one company.
func (s *WorkflowScheduler) Status(ctx context.Context, companyID string) (WorkflowStatus, error) {
	counts, err := s.tasks.CountsByCompany(ctx, companyID)
	if err != nil {
		return WorkflowStatus{}, fmt.Errorf("campaign status: %w", err)
	}
	recent, err := s.tasks.RecentByCompany(ctx, companyID, 20)
	if err != nil {
		return WorkflowStatus{}, fmt.Errorf("campaign status: %w", err)
	}
	return WorkflowStatus{CompanyID: companyID, Counts: counts, Recent: recent}, nil
}
