package maintenance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sales440/ivy-ai-platform/internal/health"
	"github.com/sales440/ivy-ai-platform/internal/model"
	"github.com/sales440/ivy-ai-platform/internal/remediation"
)

type fakeMonitor struct{ snap model.HealthSnapshot }

func (f *fakeMonitor) Check(_ context.Context) model.HealthSnapshot { return f.snap }

type fakeHealer struct {
	calls  int
	result health.HealResult
}

func (f *fakeHealer) Heal(_ context.Context, _ model.HealthSnapshot) health.HealResult {
	f.calls++
	return f.result
}

type fakeDetector struct {
	defects []remediation.Defect
	err     error
}

func (f *fakeDetector) Detect(_ context.Context) ([]remediation.Defect, error) {
	return f.defects, f.err
}

type fakeTaskCreator struct {
	created   []model.TaskType
	lastAudit *model.AuditResult
}

func (f *fakeTaskCreator) CreateTask(_ context.Context, t model.TaskType, _ model.TaskPriority, _ string, _ map[string]string) string {
	f.created = append(f.created, t)
	return "task-1"
}

func (f *fakeTaskCreator) SetLastAudit(result *model.AuditResult) { f.lastAudit = result }

type fakeMigrations struct {
	pending    int
	pendingErr error
	applied    bool
	applyErr   error
}

func (f *fakeMigrations) PendingCount(_ context.Context) (int, error) { return f.pending, f.pendingErr }

func (f *fakeMigrations) Apply(_ context.Context) error {
	f.applied = true
	return f.applyErr
}

type fakeSync struct{ err error }

func (f *fakeSync) Run(_ context.Context) (SyncReport, error) { return SyncReport{}, f.err }

type fakeCleanup struct{ err error }

func (f *fakeCleanup) Run(_ context.Context) (CleanupReport, error) { return CleanupReport{}, f.err }

type auditFixture struct {
	monitor    *fakeMonitor
	healer     *fakeHealer
	detector   *fakeDetector
	tasks      *fakeTaskCreator
	migrations *fakeMigrations
	auditor    *Auditor
}

func newAuditFixture(t *testing.T) *auditFixture {
	t.Helper()
	f := &auditFixture{
		monitor:    &fakeMonitor{snap: model.HealthSnapshot{Status: model.HealthHealthy}},
		healer:     &fakeHealer{},
		detector:   &fakeDetector{},
		tasks:      &fakeTaskCreator{},
		migrations: &fakeMigrations{},
	}
	f.auditor = NewAuditor(zerolog.Nop(), f.monitor, f.healer, f.detector, f.tasks,
		f.migrations, &fakeSync{}, &fakeCleanup{}, time.Second, time.Second)
	return f
}

func nDefects(n int) []remediation.Defect {
	defects := make([]remediation.Defect, n)
	for i := range defects {
		defects[i] = remediation.Defect{Location: "pkg/x", Category: "lint", Severity: "warning"}
	}
	return defects
}

func TestAudit_HealthyNoDefects(t *testing.T) {
	f := newAuditFixture(t)

	result := f.auditor.Run(context.Background())
	assert.Equal(t, model.HealthHealthy, result.Health)
	assert.Zero(t, result.ErrorCount)
	assert.Equal(t, 100, result.QualityScore)
	assert.Empty(t, f.tasks.created)
	assert.Zero(t, f.healer.calls)
	assert.Same(t, result, f.tasks.lastAudit)
}

func TestAudit_FixableDefectBacklogCreatesTask(t *testing.T) {
	f := newAuditFixture(t)
	f.detector.defects = nDefects(7)

	result := f.auditor.Run(context.Background())
	assert.Equal(t, 7, result.ErrorCount)
	require.Len(t, f.tasks.created, 1)
	assert.Equal(t, model.TaskFixErrors, f.tasks.created[0])
	assert.Len(t, result.CreatedTaskIDs, 1)
}

// 50 or more defects means something systemic; no blanket fix task.
func TestAudit_DefectFloodHeldForInvestigation(t *testing.T) {
	f := newAuditFixture(t)
	f.detector.defects = nDefects(defectFixMax)

	result := f.auditor.Run(context.Background())
	assert.Empty(t, f.tasks.created)
	assert.NotEmpty(t, result.Recommendations)
}

func TestAudit_DetectorFailureDegrades(t *testing.T) {
	f := newAuditFixture(t)
	f.detector.err = errors.New("provider down")

	result := f.auditor.Run(context.Background())
	assert.Zero(t, result.ErrorCount)
	assert.Empty(t, f.tasks.created)
	assert.NotEmpty(t, result.Recommendations)
	assert.Same(t, result, f.tasks.lastAudit)
}

func TestAudit_CriticalHealthTriggersHeal(t *testing.T) {
	f := newAuditFixture(t)
	f.monitor.snap = model.HealthSnapshot{
		Status: model.HealthCritical,
		Issues: []model.HealthIssue{{
			Severity:    model.SeverityCritical,
			Component:   model.ComponentDatabase,
			Description: "store unreachable",
		}},
	}

	result := f.auditor.Run(context.Background())
	assert.Equal(t, 1, f.healer.calls)
	assert.Equal(t, model.HealthCritical, result.Health)
	assert.NotEmpty(t, result.CriticalIssues)
}

// The result carries the full snapshot the cycle started from, not just the
// status string, so status queries can show per-component detail.
func TestAudit_ResultCarriesHealthSnapshot(t *testing.T) {
	f := newAuditFixture(t)
	f.monitor.snap = model.HealthSnapshot{
		Status: model.HealthDegraded,
		Components: map[string]model.ComponentHealth{
			model.ComponentDatabase: {Status: model.HealthHealthy},
			model.ComponentRuntime:  {Status: model.HealthDegraded},
		},
		Issues: []model.HealthIssue{{
			Severity:    model.SeverityWarning,
			Component:   model.ComponentRuntime,
			Description: "error rate elevated",
		}},
		CheckedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}

	result := f.auditor.Run(context.Background())
	assert.Equal(t, f.monitor.snap, result.Snapshot)
	assert.Equal(t, result.Snapshot.Status, result.Health)
}

func TestAudit_DegradedHealthDoesNotHeal(t *testing.T) {
	f := newAuditFixture(t)
	f.monitor.snap = model.HealthSnapshot{
		Status: model.HealthDegraded,
		Issues: []model.HealthIssue{{Severity: model.SeverityWarning, Component: model.ComponentRuntime}},
	}

	f.auditor.Run(context.Background())
	assert.Zero(t, f.healer.calls)
}

func TestAudit_MigrationsAppliedWhenStable(t *testing.T) {
	f := newAuditFixture(t)
	f.migrations.pending = 2

	f.auditor.Run(context.Background())
	assert.True(t, f.migrations.applied)
}

func TestAudit_MigrationsHeldOnUnstablePlatform(t *testing.T) {
	f := newAuditFixture(t)
	f.migrations.pending = 2

	var issues []model.HealthIssue
	for i := 0; i < migrationAutoFixableMax; i++ {
		issues = append(issues, model.HealthIssue{
			Severity:    model.SeverityError,
			Component:   model.ComponentAgentPool,
			AutoFixable: true,
		})
	}
	f.monitor.snap = model.HealthSnapshot{Status: model.HealthDegraded, Issues: issues}

	result := f.auditor.Run(context.Background())
	assert.False(t, f.migrations.applied)
	assert.NotEmpty(t, result.Recommendations)
}

func TestAudit_QualityScoreReflectsIssuesAndDefects(t *testing.T) {
	f := newAuditFixture(t)
	f.monitor.snap = model.HealthSnapshot{
		Status: model.HealthDegraded,
		Issues: []model.HealthIssue{
			{Severity: model.SeverityCritical, Component: model.ComponentDatabase},
			{Severity: model.SeverityWarning, Component: model.ComponentRuntime},
		},
	}
	f.detector.defects = nDefects(10)

	result := f.auditor.Run(context.Background())
	// 100 - 20 (critical) - 10 (warning) - 10 (defects)
	assert.Equal(t, 60, result.QualityScore)
}
