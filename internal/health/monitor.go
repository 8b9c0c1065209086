package health

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/sales440/ivy-ai-platform/internal/model"
)

// Monitor polls all probes and aggregates one system-wide snapshot.
type Monitor struct {
	logger zerolog.Logger
	probes []Probe

	statusGauge prometheus.Gauge
	checksTotal prometheus.Counter
	issuesGauge prometheus.Gauge
}

func NewMonitor(logger zerolog.Logger, reg prometheus.Registerer, probes ...Probe) *Monitor {
	metrics := promauto.With(reg)
	return &Monitor{
		logger: logger.With().Str("component", "health-monitor").Logger(),
		probes: probes,
		statusGauge: metrics.NewGauge(prometheus.GaugeOpts{
			Name: "platform_health_status",
			Help: "Current platform health (1=healthy, 0.5=degraded, 0=critical)",
		}),
		checksTotal: metrics.NewCounter(prometheus.CounterOpts{
			Name: "platform_health_checks_total",
			Help: "Total health checks performed",
		}),
		issuesGauge: metrics.NewGauge(prometheus.GaugeOpts{
			Name: "platform_health_open_issues",
			Help: "Issues detected by the most recent health check",
		}),
	}
}

// Check runs every probe in parallel and aggregates the results. The overall
// status is critical if any issue is critical, degraded if any issue exists,
// healthy otherwise.
func (m *Monitor) Check(ctx context.Context) model.HealthSnapshot {
	snap := model.HealthSnapshot{
		Components: make(map[string]model.ComponentHealth, len(m.probes)),
		CheckedAt:  time.Now(),
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, probe := range m.probes {
		wg.Add(1)
		go func(p Probe) {
			defer wg.Done()
			ch, issues := p.Probe(ctx)
			mu.Lock()
			snap.Components[p.Name()] = ch
			snap.Issues = append(snap.Issues, issues...)
			mu.Unlock()
		}(probe)
	}
	wg.Wait()

	snap.Status = aggregate(snap.Issues)

	m.checksTotal.Inc()
	m.issuesGauge.Set(float64(len(snap.Issues)))
	m.statusGauge.Set(statusValue(snap.Status))

	if snap.Status != model.HealthHealthy {
		m.logger.Warn().
			Str("status", snap.Status).
			Int("issues", len(snap.Issues)).
			Msg("platform not healthy")
	}

	return snap
}

func aggregate(issues []model.HealthIssue) string {
	status := model.HealthHealthy
	for _, issue := range issues {
		if issue.Severity == model.SeverityCritical {
			return model.HealthCritical
		}
		status = model.HealthDegraded
	}
	return status
}

func statusValue(status string) float64 {
	switch status {
	case model.HealthHealthy:
		return 1
	case model.HealthDegraded:
		return 0.5
	default:
		return 0
	}
}
