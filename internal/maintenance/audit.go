package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sales440/ivy-ai-platform/internal/health"
	"github.com/sales440/ivy-ai-platform/internal/model"
	"github.com/sales440/ivy-ai-platform/internal/remediation"
)

// Audit gates. A defect count of 50 or more means something systemic broke
// and a blanket fix run would thrash; a platform with 5 or more auto-fixable
// issues open is too unstable to apply schema migrations.
const (
	defectFixMax            = 50
	migrationAutoFixableMax = 5
)

// HealthChecker is satisfied by *health.Monitor.
type HealthChecker interface {
	Check(ctx context.Context) model.HealthSnapshot
}

// SnapshotHealer is satisfied by *health.Healer.
type SnapshotHealer interface {
	Heal(ctx context.Context, snap model.HealthSnapshot) health.HealResult
}

// DefectDetector is satisfied by *remediation.Client.
type DefectDetector interface {
	Detect(ctx context.Context) ([]remediation.Defect, error)
}

// TaskCreator is the orchestrator surface the auditor needs.
type TaskCreator interface {
	CreateTask(ctx context.Context, t model.TaskType, priority model.TaskPriority, description string, metadata map[string]string) string
	SetLastAudit(result *model.AuditResult)
}

// MigrationGate is satisfied by *db.Migrator.
type MigrationGate interface {
	PendingCount(ctx context.Context) (int, error)
	Apply(ctx context.Context) error
}

// SyncRunner is satisfied by *Syncer.
type SyncRunner interface {
	Run(ctx context.Context) (SyncReport, error)
}

// CleanupRunner is satisfied by *Cleaner.
type CleanupRunner interface {
	Run(ctx context.Context) (CleanupReport, error)
}

// Auditor runs the full platform audit: health, healing, defect detection,
// migration gating, data sync, and cleanup, producing one AuditResult.
type Auditor struct {
	logger       zerolog.Logger
	monitor      HealthChecker
	healer       SnapshotHealer
	defects      DefectDetector
	orchestrator TaskCreator
	migrations   MigrationGate
	syncer       SyncRunner
	cleaner      CleanupRunner

	callTimeout      time.Duration
	migrationTimeout time.Duration
}

func NewAuditor(logger zerolog.Logger, monitor HealthChecker, healer SnapshotHealer, defects DefectDetector,
	orchestrator TaskCreator, migrations MigrationGate, syncer SyncRunner, cleaner CleanupRunner,
	callTimeout, migrationTimeout time.Duration) *Auditor {
	if callTimeout <= 0 {
		callTimeout = 30 * time.Second
	}
	if migrationTimeout <= 0 {
		migrationTimeout = 2 * time.Minute
	}
	return &Auditor{
		logger:           logger.With().Str("component", "auditor").Logger(),
		monitor:          monitor,
		healer:           healer,
		defects:          defects,
		orchestrator:     orchestrator,
		migrations:       migrations,
		syncer:           syncer,
		cleaner:          cleaner,
		callTimeout:      callTimeout,
		migrationTimeout: migrationTimeout,
	}
}

// Run executes one audit pass. Every step degrades independently: a failing
// external call becomes a recommendation on the result, never an aborted
// audit. The result is recorded on the orchestrator for status queries.
func (a *Auditor) Run(ctx context.Context) *model.AuditResult {
	result := &model.AuditResult{Timestamp: time.Now()}

	snap := a.monitor.Check(ctx)
	result.Health = snap.Status
	result.Snapshot = snap
	for _, issue := range snap.CriticalIssues() {
		result.CriticalIssues = append(result.CriticalIssues, issue.Description)
	}

	if snap.Status == model.HealthCritical {
		healed := a.healer.Heal(ctx, snap)
		a.logger.Warn().
			Int("found", healed.IssuesFound).
			Int("fixed", healed.IssuesFixed).
			Msg("critical health, remediation attempted")
		if healed.IssuesFixed < healed.IssuesFound {
			result.Recommendations = append(result.Recommendations,
				fmt.Sprintf("%d issues could not be auto-fixed, manual intervention needed",
					healed.IssuesFound-healed.IssuesFixed))
		}
	}

	defectCount := a.checkDefects(ctx, result)
	a.checkMigrations(ctx, snap, result)

	if _, err := a.syncer.Run(ctx); err != nil {
		a.logger.Error().Err(err).Msg("audit data sync failed")
		result.Recommendations = append(result.Recommendations, "data sync incomplete, will retry next cycle")
	}
	if _, err := a.cleaner.Run(ctx); err != nil {
		a.logger.Error().Err(err).Msg("audit cleanup failed")
		result.Recommendations = append(result.Recommendations, "retention cleanup incomplete, will retry next cycle")
	}

	result.QualityScore = qualityScore(snap, defectCount)
	a.orchestrator.SetLastAudit(result)

	a.logger.Info().
		Str("health", result.Health).
		Int("errors", result.ErrorCount).
		Int("quality", result.QualityScore).
		Int("tasks_created", len(result.CreatedTaskIDs)).
		Msg("audit completed")
	return result
}

// checkDefects queries the remediation provider and, for a fixable backlog,
// creates a fix_errors task. Returns the defect count for scoring.
func (a *Auditor) checkDefects(ctx context.Context, result *model.AuditResult) int {
	callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()

	defects, err := a.defects.Detect(callCtx)
	if err != nil {
		a.logger.Error().Err(err).Msg("defect detection unavailable")
		result.Recommendations = append(result.Recommendations, "defect detection unavailable, skipped this cycle")
		return 0
	}

	n := len(defects)
	result.ErrorCount = n
	switch {
	case n == 0:
	case n < defectFixMax:
		id := a.orchestrator.CreateTask(ctx, model.TaskFixErrors, model.PriorityHigh,
			fmt.Sprintf("fix %d detected defects", n), map[string]string{"defects": fmt.Sprint(n)})
		result.CreatedTaskIDs = append(result.CreatedTaskIDs, id)
	default:
		result.Recommendations = append(result.Recommendations,
			fmt.Sprintf("%d defects exceed the automatic fix limit (%d), needs investigation", n, defectFixMax))
	}
	return n
}

// checkMigrations applies pending schema migrations, but only on a platform
// stable enough to absorb them.
func (a *Auditor) checkMigrations(ctx context.Context, snap model.HealthSnapshot, result *model.AuditResult) {
	callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
	pending, err := a.migrations.PendingCount(callCtx)
	cancel()
	if err != nil {
		a.logger.Error().Err(err).Msg("migration status unavailable")
		result.Recommendations = append(result.Recommendations, "migration status unavailable, skipped this cycle")
		return
	}
	if pending == 0 {
		return
	}

	if n := len(snap.AutoFixableIssues()); n >= migrationAutoFixableMax {
		result.Recommendations = append(result.Recommendations,
			fmt.Sprintf("%d pending migrations held back, platform has %d open auto-fixable issues", pending, n))
		return
	}

	applyCtx, cancel := context.WithTimeout(ctx, a.migrationTimeout)
	defer cancel()
	if err := a.migrations.Apply(applyCtx); err != nil {
		a.logger.Error().Err(err).Msg("migration apply failed")
		result.Recommendations = append(result.Recommendations, "pending migrations failed to apply")
		return
	}
	a.logger.Info().Int("applied", pending).Msg("schema migrations applied")
}

// qualityScore condenses a snapshot and defect count into a 0-100 score.
// Critical issues weigh 20, other issues 10, each defect 1.
func qualityScore(snap model.HealthSnapshot, defects int) int {
	score := 100
	for _, issue := range snap.Issues {
		if issue.Severity == model.SeverityCritical {
			score -= 20
		} else {
			score -= 10
		}
	}
	score -= defects
	if score < 0 {
		score = 0
	}
	return score
}
