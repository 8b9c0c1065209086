package campaign

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/sales440/ivy-ai-platform/internal/model"
)

// optimizeFailedThreshold is the failed-task count above which the generator
// triggers an extra repair pass between scheduled ones.
const optimizeFailedThreshold = 5

// CompanyLister is satisfied by *core.CompanyService.
type CompanyLister interface {
	List(ctx context.Context) ([]model.Company, error)
}

// ActivityStore is the scheduled-task surface the generator reads.
// *core.ScheduledTaskService satisfies it.
type ActivityStore interface {
	HasActive(ctx context.Context, companyID string) (bool, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
}

// Candidate is a company that has no active workflow, with its classified
// industry.
type Candidate struct {
	Company  model.Company
	Industry string
}

// Generator finds companies without an active campaign workflow and delegates
// one for each, using the industry classified from the company profile.
type Generator struct {
	logger    zerolog.Logger
	companies CompanyLister
	activity  ActivityStore
	scheduler *WorkflowScheduler

	generated *prometheus.CounterVec
}

func NewGenerator(logger zerolog.Logger, reg prometheus.Registerer, companies CompanyLister, activity ActivityStore, scheduler *WorkflowScheduler) *Generator {
	return &Generator{
		logger:    logger.With().Str("component", "campaign-generator").Logger(),
		companies: companies,
		activity:  activity,
		scheduler: scheduler,
		generated: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "campaign_generator_outcomes_total",
			Help: "Generator outcomes by result",
		}, []string{"result"}),
	}
}

// DetectNew returns the companies with no pending or processing scheduled
// task, each with its classified industry.
func (g *Generator) DetectNew(ctx context.Context) ([]Candidate, error) {
	companies, err := g.companies.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}

	var candidates []Candidate
	for _, company := range companies {
		active, err := g.activity.HasActive(ctx, company.ID)
		if err != nil {
			return nil, fmt.Errorf("check activity for %s: %w", company.ID, err)
		}
		if active {
			continue
		}
		candidates = append(candidates, Candidate{
			Company:  company,
			Industry: ClassifyIndustry(company.ProfileText()),
		})
	}
	return candidates, nil
}

// GenerateForNew delegates a workflow for every candidate. A candidate whose
// industry has no template is skipped and logged, not treated as an error;
// the catalog grows over time and unknown industries are expected.
func (g *Generator) GenerateForNew(ctx context.Context) (int, error) {
	candidates, err := g.DetectNew(ctx)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, c := range candidates {
		if _, ok := g.scheduler.catalog.Lookup(c.Industry); !ok {
			g.generated.WithLabelValues("no_template").Inc()
			g.logger.Info().
				Str("company", c.Company.ID).
				Str("industry", c.Industry).
				Msg("no template for industry, company skipped")
			continue
		}
		if _, err := g.scheduler.CreateWorkflow(ctx, c.Company.ID, c.Industry); err != nil {
			g.generated.WithLabelValues("failed").Inc()
			g.logger.Error().Err(err).
				Str("company", c.Company.ID).
				Msg("workflow generation failed")
			continue
		}
		g.generated.WithLabelValues("created").Inc()
		created++
	}
	return created, nil
}

// Optimize triggers an extra repair pass when the failed-task backlog grows
// past the threshold. Run between regular repair passes by the generator
// cycle.
func (g *Generator) Optimize(ctx context.Context) error {
	counts, err := g.activity.CountByStatus(ctx)
	if err != nil {
		return fmt.Errorf("optimize: %w", err)
	}
	if counts[model.ScheduledFailed] <= optimizeFailedThreshold {
		return nil
	}

	summary, err := g.scheduler.MonitorAndRepair(ctx)
	if err != nil {
		return fmt.Errorf("optimize repair pass: %w", err)
	}
	g.logger.Info().
		Int("failed_backlog", counts[model.ScheduledFailed]).
		Int("rescheduled", summary.Rescheduled).
		Int("cancelled", summary.Cancelled).
		Msg("optimization repair pass completed")
	return nil
}

// Run is one full generator cycle: delegate workflows for new companies, then
// optimize the failed backlog.
func (g *Generator) Run(ctx context.Context) error {
	created, err := g.GenerateForNew(ctx)
	if err != nil {
		return err
	}
	if created > 0 {
		g.logger.Info().Int("workflows", created).Msg("campaign workflows generated")
	}
	return g.Optimize(ctx)
}
