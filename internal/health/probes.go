package health

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/sales440/ivy-ai-platform/internal/model"
)

// Probe checks a single platform component. Probes never return errors:
// a failure to probe is itself health information and is reported as an
// issue on the component.
type Probe interface {
	Name() string
	Probe(ctx context.Context) (model.ComponentHealth, []model.HealthIssue)
}

// Thresholds used by the built-in probes.
const (
	dbDegradedLatency  = 100 * time.Millisecond
	heapDegradedRatio  = 0.9
	agentErrorRateMax  = 0.2
	agentActivityScope = 24 * time.Hour
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DatabaseProbe measures store reachability and latency.
type DatabaseProbe struct {
	db Pinger
}

func NewDatabaseProbe(db Pinger) *DatabaseProbe {
	return &DatabaseProbe{db: db}
}

func (p *DatabaseProbe) Name() string { return model.ComponentDatabase }

func (p *DatabaseProbe) Probe(ctx context.Context) (model.ComponentHealth, []model.HealthIssue) {
	start := time.Now()
	err := p.db.Ping(ctx)
	elapsed := time.Since(start)

	ch := model.ComponentHealth{
		Component:    model.ComponentDatabase,
		ResponseTime: elapsed,
	}

	if err != nil {
		ch.Status = model.HealthCritical
		ch.Details = err.Error()
		return ch, []model.HealthIssue{{
			Severity:    model.SeverityCritical,
			Component:   model.ComponentDatabase,
			Description: fmt.Sprintf("data store unreachable: %v", err),
			DetectedAt:  time.Now(),
			AutoFixable: false,
		}}
	}

	if elapsed >= dbDegradedLatency {
		ch.Status = model.HealthDegraded
		ch.Details = fmt.Sprintf("slow response: %s", elapsed)
		return ch, []model.HealthIssue{{
			Severity:    model.SeverityWarning,
			Component:   model.ComponentDatabase,
			Description: fmt.Sprintf("data store responding slowly (%s)", elapsed),
			DetectedAt:  time.Now(),
			AutoFixable: false,
		}}
	}

	ch.Status = model.HealthHealthy
	return ch, nil
}

// RuntimeProbe reports process memory pressure and uptime.
type RuntimeProbe struct {
	startedAt time.Time
}

func NewRuntimeProbe(startedAt time.Time) *RuntimeProbe {
	return &RuntimeProbe{startedAt: startedAt}
}

func (p *RuntimeProbe) Name() string { return model.ComponentRuntime }

func (p *RuntimeProbe) Probe(_ context.Context) (model.ComponentHealth, []model.HealthIssue) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	ratio := 0.0
	if m.HeapSys > 0 {
		ratio = float64(m.HeapAlloc) / float64(m.HeapSys)
	}

	ch := model.ComponentHealth{
		Component: model.ComponentRuntime,
		Uptime:    time.Since(p.startedAt),
		Details:   fmt.Sprintf("heap %.0f%%, goroutines %d", ratio*100, runtime.NumGoroutine()),
	}

	if ratio >= heapDegradedRatio {
		ch.Status = model.HealthDegraded
		return ch, []model.HealthIssue{{
			Severity:    model.SeverityWarning,
			Component:   model.ComponentRuntime,
			Description: fmt.Sprintf("heap usage at %.0f%% of reserved memory", ratio*100),
			DetectedAt:  time.Now(),
			AutoFixable: false,
		}}
	}

	ch.Status = model.HealthHealthy
	return ch, nil
}

// ErrorRater reports the recent agent communication error rate.
// *core.CommunicationService satisfies it.
type ErrorRater interface {
	ErrorRateSince(ctx context.Context, since time.Time) (float64, error)
}

// AgentPoolProbe watches the worker-agent pool's error rate. A rate above 20%
// raises an auto-fixable issue; the healer owns the remediation.
type AgentPoolProbe struct {
	comms ErrorRater
}

func NewAgentPoolProbe(comms ErrorRater) *AgentPoolProbe {
	return &AgentPoolProbe{comms: comms}
}

func (p *AgentPoolProbe) Name() string { return model.ComponentAgentPool }

func (p *AgentPoolProbe) Probe(ctx context.Context) (model.ComponentHealth, []model.HealthIssue) {
	rate, err := p.comms.ErrorRateSince(ctx, time.Now().Add(-agentActivityScope))

	ch := model.ComponentHealth{Component: model.ComponentAgentPool}

	if err != nil {
		ch.Status = model.HealthDegraded
		ch.Details = err.Error()
		return ch, []model.HealthIssue{{
			Severity:    model.SeverityWarning,
			Component:   model.ComponentAgentPool,
			Description: fmt.Sprintf("agent pool probe failed: %v", err),
			DetectedAt:  time.Now(),
			AutoFixable: false,
		}}
	}

	ch.ErrorRate = rate
	if rate > agentErrorRateMax {
		ch.Status = model.HealthDegraded
		ch.Details = fmt.Sprintf("error rate %.0f%%", rate*100)
		return ch, []model.HealthIssue{{
			Severity:    model.SeverityError,
			Component:   model.ComponentAgentPool,
			Description: fmt.Sprintf("agent error rate %.0f%% exceeds %.0f%%", rate*100, agentErrorRateMax*100),
			DetectedAt:  time.Now(),
			AutoFixable: true,
		}}
	}

	ch.Status = model.HealthHealthy
	return ch, nil
}

// StatusCounter reports platform-wide scheduled task counts by status.
// *core.ScheduledTaskService satisfies it.
type StatusCounter interface {
	CountByStatus(ctx context.Context) (map[string]int, error)
}

// CampaignProbe watches the campaign pipeline. A query failure is reported as
// a critical probe error, never masked as healthy-with-zero; an empty
// pipeline is genuinely healthy.
type CampaignProbe struct {
	tasks StatusCounter
}

func NewCampaignProbe(tasks StatusCounter) *CampaignProbe {
	return &CampaignProbe{tasks: tasks}
}

func (p *CampaignProbe) Name() string { return model.ComponentCampaigns }

func (p *CampaignProbe) Probe(ctx context.Context) (model.ComponentHealth, []model.HealthIssue) {
	counts, err := p.tasks.CountByStatus(ctx)

	ch := model.ComponentHealth{Component: model.ComponentCampaigns}

	if err != nil {
		ch.Status = model.HealthCritical
		ch.Details = err.Error()
		return ch, []model.HealthIssue{{
			Severity:    model.SeverityCritical,
			Component:   model.ComponentCampaigns,
			Description: fmt.Sprintf("campaign pipeline probe failed: %v", err),
			DetectedAt:  time.Now(),
			AutoFixable: false,
		}}
	}

	ch.Status = model.HealthHealthy
	ch.Details = fmt.Sprintf("pending=%d processing=%d failed=%d",
		counts[model.ScheduledPending], counts[model.ScheduledProcessing], counts[model.ScheduledFailed])
	return ch, nil
}
