package campaign

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sales440/ivy-ai-platform/internal/model"
)

// fakeTaskStore records calls and plays back canned failed tasks.
type fakeTaskStore struct {
	created []model.ScheduledTask
	failed  []model.ScheduledTask

	rescheduled  []string
	cancelled    []string
	applyResults map[string]bool // per-id conditional outcome; default true

	createErr error
}

func (f *fakeTaskStore) Create(_ context.Context, t *model.ScheduledTask) error {
	if f.createErr != nil {
		return f.createErr
	}
	t.ID = "stask-" + t.TaskType
	f.created = append(f.created, *t)
	return nil
}

func (f *fakeTaskStore) ListFailed(_ context.Context, limit int) ([]model.ScheduledTask, error) {
	if len(f.failed) > limit {
		return f.failed[:limit], nil
	}
	return f.failed, nil
}

func (f *fakeTaskStore) Reschedule(_ context.Context, id string, _ int, _ time.Time) (bool, error) {
	f.rescheduled = append(f.rescheduled, id)
	if applied, ok := f.applyResults[id]; ok {
		return applied, nil
	}
	return true, nil
}

func (f *fakeTaskStore) Cancel(_ context.Context, id string, _ int) (bool, error) {
	f.cancelled = append(f.cancelled, id)
	if applied, ok := f.applyResults[id]; ok {
		return applied, nil
	}
	return true, nil
}

func (f *fakeTaskStore) CountsByCompany(_ context.Context, _ string) (map[string]int, error) {
	counts := make(map[string]int)
	for _, t := range f.created {
		counts[t.Status]++
	}
	return counts, nil
}

func (f *fakeTaskStore) RecentByCompany(_ context.Context, _ string, limit int) ([]model.ScheduledTask, error) {
	if len(f.created) > limit {
		return f.created[:limit], nil
	}
	return f.created, nil
}

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	steps := map[string]StepTemplate{
		model.StepProspecting:      {AgentRole: "prospector", Action: "build_prospect_list"},
		model.StepQualification:    {AgentRole: "qualifier", Action: "score_prospects"},
		model.StepFirstEngagement:  {AgentRole: "engager", Action: "send_intro_email"},
		model.StepSecondEngagement: {AgentRole: "engager", Action: "send_follow_up"},
		model.StepThirdEngagement:  {AgentRole: "closer", Action: "send_meeting_request"},
	}
	return &Catalog{templates: map[string]Template{
		"saas": {Industry: "saas", Steps: steps},
	}}
}

func testScheduler(t *testing.T, store *fakeTaskStore) *WorkflowScheduler {
	t.Helper()
	return NewWorkflowScheduler(zerolog.Nop(), prometheus.NewRegistry(), store, testCatalog(t))
}

// ---------- CreateWorkflow ----------

func TestCreateWorkflow_StepOffsets(t *testing.T) {
	store := &fakeTaskStore{}
	s := testScheduler(t, store)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	ids, err := s.CreateWorkflow(context.Background(), "comp-1", "saas")
	require.NoError(t, err)
	require.Len(t, ids, 5)
	require.Len(t, store.created, 5)

	want := map[string]time.Time{
		model.StepProspecting:      base,
		model.StepQualification:    base.Add(1 * time.Hour),
		model.StepFirstEngagement:  base.Add(3 * time.Hour),
		model.StepSecondEngagement: base.Add(3*time.Hour + 72*time.Hour),
		model.StepThirdEngagement:  base.Add(3*time.Hour + 168*time.Hour),
	}
	for _, task := range store.created {
		assert.Equal(t, want[task.TaskType], task.ScheduledFor, "offset for %s", task.TaskType)
		assert.Equal(t, "comp-1", task.CompanyID)
		assert.Equal(t, "campaign-scheduler", task.CreatedBy)
	}
}

func TestCreateWorkflow_FollowUpsAnchorOnFirstEngagement(t *testing.T) {
	store := &fakeTaskStore{}
	s := testScheduler(t, store)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	_, err := s.CreateWorkflow(context.Background(), "comp-1", "saas")
	require.NoError(t, err)

	byType := make(map[string]model.ScheduledTask)
	for _, task := range store.created {
		byType[task.TaskType] = task
	}
	first := byType[model.StepFirstEngagement].ScheduledFor
	assert.Equal(t, first.Add(72*time.Hour), byType[model.StepSecondEngagement].ScheduledFor)
	assert.Equal(t, first.Add(168*time.Hour), byType[model.StepThirdEngagement].ScheduledFor)
}

func TestCreateWorkflow_UnknownIndustry(t *testing.T) {
	store := &fakeTaskStore{}
	s := testScheduler(t, store)

	_, err := s.CreateWorkflow(context.Background(), "comp-1", "zeppelin-repair")
	require.Error(t, err)
	assert.Empty(t, store.created)
}

// ---------- MonitorAndRepair ----------

func failedTask(id string, retryCount int) model.ScheduledTask {
	return model.ScheduledTask{
		ID:         id,
		CompanyID:  "comp-1",
		TaskType:   model.StepQualification,
		Status:     model.ScheduledFailed,
		RetryCount: retryCount,
		MaxRetries: model.DefaultMaxRetries,
	}
}

func TestMonitorAndRepair_ReschedulesWithinBudget(t *testing.T) {
	store := &fakeTaskStore{failed: []model.ScheduledTask{failedTask("stask-1", 1)}}
	s := testScheduler(t, store)

	summary, err := s.MonitorAndRepair(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Examined)
	assert.Equal(t, 1, summary.Rescheduled)
	assert.Zero(t, summary.Cancelled)
	assert.Equal(t, []string{"stask-1"}, store.rescheduled)
}

func TestMonitorAndRepair_CancelsExhausted(t *testing.T) {
	store := &fakeTaskStore{failed: []model.ScheduledTask{failedTask("stask-1", 3)}}
	s := testScheduler(t, store)

	summary, err := s.MonitorAndRepair(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Cancelled)
	assert.Zero(t, summary.Rescheduled)
	assert.Equal(t, []string{"stask-1"}, store.cancelled)
	assert.Empty(t, store.rescheduled)
}

func TestMonitorAndRepair_SkipsConcurrentlyTouchedRow(t *testing.T) {
	store := &fakeTaskStore{
		failed:       []model.ScheduledTask{failedTask("stask-1", 1)},
		applyResults: map[string]bool{"stask-1": false},
	}
	s := testScheduler(t, store)

	summary, err := s.MonitorAndRepair(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, summary.Rescheduled)
	assert.Zero(t, summary.Cancelled)
}

func TestMonitorAndRepair_BatchBounded(t *testing.T) {
	store := &fakeTaskStore{}
	for i := 0; i < 25; i++ {
		store.failed = append(store.failed, failedTask("stask-n", 0))
	}
	s := testScheduler(t, store)

	summary, err := s.MonitorAndRepair(context.Background())
	require.NoError(t, err)
	assert.Equal(t, repairBatchSize, summary.Examined)
}
