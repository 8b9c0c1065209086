package health

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/sales440/ivy-ai-platform/internal/model"
)

// AgentResetter resets failed agents. *core.AgentService satisfies it.
type AgentResetter interface {
	ResetFailing(ctx context.Context) (int64, error)
}

// Notifier records platform notifications. *core.NotificationService
// satisfies it.
type Notifier interface {
	Create(ctx context.Context, n *model.Notification) error
}

// HealResult summarizes one remediation pass.
type HealResult struct {
	IssuesFound int      `json:"issues_found"`
	IssuesFixed int      `json:"issues_fixed"`
	Actions     []string `json:"actions,omitempty"`
}

// Healer attempts automatic remediation of auto-fixable issues. Only the
// agent-error-rate class has a real remediation today; the data store and
// campaign classes are deliberate pass-throughs that report "not fixed" so
// unresolved issues stay visible for the next cycle.
type Healer struct {
	logger        zerolog.Logger
	agents        AgentResetter
	notifications Notifier

	fixAttempts *prometheus.CounterVec
}

func NewHealer(logger zerolog.Logger, reg prometheus.Registerer, agents AgentResetter, notifications Notifier) *Healer {
	return &Healer{
		logger:        logger.With().Str("component", "auto-healer").Logger(),
		agents:        agents,
		notifications: notifications,
		fixAttempts: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "platform_heal_attempts_total",
			Help: "Remediation attempts by component and result",
		}, []string{"component", "result"}),
	}
}

// Heal iterates the auto-fixable issues of a snapshot. Each fix attempt is
// isolated: a failing fix is logged and counted, and the loop moves on.
func (h *Healer) Heal(ctx context.Context, snap model.HealthSnapshot) HealResult {
	fixable := snap.AutoFixableIssues()
	result := HealResult{IssuesFound: len(fixable)}

	for _, issue := range fixable {
		action, err := h.fix(ctx, issue)
		if err != nil {
			h.fixAttempts.WithLabelValues(issue.Component, "failed").Inc()
			h.logger.Error().Err(err).
				Str("component", issue.Component).
				Msg("remediation failed")
			continue
		}
		if action == "" {
			h.fixAttempts.WithLabelValues(issue.Component, "unimplemented").Inc()
			h.logger.Warn().
				Str("component", issue.Component).
				Str("issue", issue.Description).
				Msg("no remediation implemented, issue left open")
			continue
		}
		h.fixAttempts.WithLabelValues(issue.Component, "fixed").Inc()
		result.IssuesFixed++
		result.Actions = append(result.Actions, action)
	}

	return result
}

// fix attempts one remediation. An empty action with nil error means the
// issue class has no implemented remediation.
func (h *Healer) fix(ctx context.Context, issue model.HealthIssue) (string, error) {
	switch issue.Component {
	case model.ComponentAgentPool:
		n, err := h.agents.ResetFailing(ctx)
		if err != nil {
			return "", fmt.Errorf("reset failing agents: %w", err)
		}
		action := fmt.Sprintf("reset %d failing agents to idle", n)
		if err := h.notifications.Create(ctx, &model.Notification{
			Kind:    "auto_heal",
			Message: action,
		}); err != nil {
			h.logger.Warn().Err(err).Msg("heal notification not recorded")
		}
		return action, nil

	case model.ComponentDatabase, model.ComponentCampaigns:
		// Intentional pass-through: these classes have no safe automatic
		// remediation. Reporting "not fixed" keeps the asymmetry explicit.
		return "", nil

	default:
		return "", nil
	}
}
