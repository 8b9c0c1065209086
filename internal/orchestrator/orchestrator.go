// Package orchestrator owns the in-process registry of ephemeral tasks.
// Tasks move pending -> running -> completed|failed exactly once, are never
// retried at this layer, and are lost on process restart.
package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/sales440/ivy-ai-platform/internal/model"
	"github.com/sales440/ivy-ai-platform/internal/platform"
)

// Executor runs one task type. Implementations are external capabilities
// (code remediation, agent training, healing, auditing, chat) wired in at
// process start.
type Executor interface {
	Execute(ctx context.Context, task *model.Task) (string, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, task *model.Task) (string, error)

func (f ExecutorFunc) Execute(ctx context.Context, task *model.Task) (string, error) {
	return f(ctx, task)
}

// StatusReport is the orchestrator's best-effort view of its task registry.
type StatusReport struct {
	Pending   int                `json:"pending"`
	Running   int                `json:"running"`
	Completed int                `json:"completed"`
	Failed    int                `json:"failed"`
	LastAudit *model.AuditResult `json:"last_audit,omitempty"`
}

// Orchestrator creates, dispatches, and tracks in-process tasks against a
// closed table of executors.
type Orchestrator struct {
	logger zerolog.Logger

	mu        sync.Mutex
	tasks     map[string]*model.Task
	executors map[model.TaskType]Executor
	lastAudit *model.AuditResult

	tasksCreated  *prometheus.CounterVec
	tasksFinished *prometheus.CounterVec
}

func New(logger zerolog.Logger, reg prometheus.Registerer) *Orchestrator {
	metrics := promauto.With(reg)
	return &Orchestrator{
		logger:    logger.With().Str("component", "task-orchestrator").Logger(),
		tasks:     make(map[string]*model.Task),
		executors: make(map[model.TaskType]Executor),
		tasksCreated: metrics.NewCounterVec(prometheus.CounterOpts{
			Name: "orchestrator_tasks_created_total",
			Help: "Tasks created by type and priority",
		}, []string{"type", "priority"}),
		tasksFinished: metrics.NewCounterVec(prometheus.CounterOpts{
			Name: "orchestrator_tasks_finished_total",
			Help: "Tasks finished by type and result",
		}, []string{"type", "result"}),
	}
}

// RegisterExecutor binds an executor to a task type. Unknown types are
// rejected so the table stays closed over model.TaskTypes.
func (o *Orchestrator) RegisterExecutor(t model.TaskType, e Executor) error {
	known := false
	for _, tt := range model.TaskTypes() {
		if tt == t {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown task type %q", t)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if _, dup := o.executors[t]; dup {
		return fmt.Errorf("executor for %q already registered", t)
	}
	o.executors[t] = e
	return nil
}

// ValidateRegistry verifies every task type has an executor. Called once at
// startup so a missing binding is a boot failure, not a runtime surprise.
func (o *Orchestrator) ValidateRegistry() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, t := range model.TaskTypes() {
		if _, ok := o.executors[t]; !ok {
			return fmt.Errorf("no executor registered for task type %q", t)
		}
	}
	return nil
}

// CreateTask registers a pending task and returns its id. It always
// succeeds; executor failures are captured on the task later, never here.
// High and critical priority tasks are dispatched immediately in the
// background.
func (o *Orchestrator) CreateTask(ctx context.Context, t model.TaskType, priority model.TaskPriority, description string, metadata map[string]string) string {
	task := &model.Task{
		ID:          platform.NewName("task"),
		Type:        t,
		Priority:    priority,
		Status:      model.TaskPending,
		Description: description,
		CreatedAt:   time.Now(),
		Metadata:    metadata,
	}

	o.mu.Lock()
	o.tasks[task.ID] = task
	o.mu.Unlock()

	o.tasksCreated.WithLabelValues(string(t), string(priority)).Inc()
	o.logger.Info().
		Str("task", task.ID).
		Str("type", string(t)).
		Str("priority", string(priority)).
		Msg("task created")

	if priority.DispatchImmediately() {
		go func() {
			if err := o.ExecuteTask(context.WithoutCancel(ctx), task.ID); err != nil {
				o.logger.Error().Err(err).Str("task", task.ID).Msg("immediate dispatch failed")
			}
		}()
	}

	return task.ID
}

// ExecuteTask transitions a pending task to running, invokes its executor,
// and records the outcome on the task. Invoking a task that is already
// running or finished is a logged no-op.
func (o *Orchestrator) ExecuteTask(ctx context.Context, id string) error {
	o.mu.Lock()
	task, ok := o.tasks[id]
	if !ok {
		o.mu.Unlock()
		return fmt.Errorf("unknown task %q", id)
	}
	if task.Status != model.TaskPending {
		status := task.Status
		o.mu.Unlock()
		o.logger.Debug().Str("task", id).Str("status", status).Msg("execute skipped, task not pending")
		return nil
	}

	executor, ok := o.executors[task.Type]
	if !ok {
		// Unreachable after ValidateRegistry, but never leave a task running.
		now := time.Now()
		task.Status = model.TaskFailed
		task.Error = fmt.Sprintf("no executor for type %q", task.Type)
		task.CompletedAt = &now
		o.mu.Unlock()
		return fmt.Errorf("no executor for type %q", task.Type)
	}

	now := time.Now()
	task.Status = model.TaskRunning
	task.StartedAt = &now
	taskCopy := *task
	o.mu.Unlock()

	result, err := executor.Execute(ctx, &taskCopy)

	o.mu.Lock()
	defer o.mu.Unlock()
	done := time.Now()
	task.CompletedAt = &done
	if err != nil {
		task.Status = model.TaskFailed
		task.Error = err.Error()
		o.tasksFinished.WithLabelValues(string(task.Type), "failed").Inc()
		o.logger.Error().Err(err).Str("task", id).Str("type", string(task.Type)).Msg("task failed")
		return nil
	}
	task.Status = model.TaskCompleted
	task.Result = result
	o.tasksFinished.WithLabelValues(string(task.Type), "completed").Inc()
	o.logger.Info().Str("task", id).Str("type", string(task.Type)).Msg("task completed")
	return nil
}

// Get returns a copy of one task.
func (o *Orchestrator) Get(id string) (model.Task, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	task, ok := o.tasks[id]
	if !ok {
		return model.Task{}, false
	}
	return *task, true
}

// List returns copies of all tasks, newest first.
func (o *Orchestrator) List() []model.Task {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]model.Task, 0, len(o.tasks))
	for _, task := range o.tasks {
		out = append(out, *task)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// DequeuePending returns the ids of up to n pending tasks, oldest first. The
// data-sync cycle uses this to drain the queue in bounded batches.
func (o *Orchestrator) DequeuePending(n int) []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	var pending []*model.Task
	for _, task := range o.tasks {
		if task.Status == model.TaskPending {
			pending = append(pending, task)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].CreatedAt.Before(pending[j].CreatedAt) })

	if n > 0 && len(pending) > n {
		pending = pending[:n]
	}
	ids := make([]string, len(pending))
	for i, task := range pending {
		ids[i] = task.ID
	}
	return ids
}

// Status returns task counts and the last audit result.
func (o *Orchestrator) Status() StatusReport {
	o.mu.Lock()
	defer o.mu.Unlock()

	report := StatusReport{LastAudit: o.lastAudit}
	for _, task := range o.tasks {
		switch task.Status {
		case model.TaskPending:
			report.Pending++
		case model.TaskRunning:
			report.Running++
		case model.TaskCompleted:
			report.Completed++
		case model.TaskFailed:
			report.Failed++
		}
	}
	return report
}

// SetLastAudit records the most recent audit result for status queries.
func (o *Orchestrator) SetLastAudit(result *model.AuditResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastAudit = result
}
