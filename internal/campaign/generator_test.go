package campaign

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sales440/ivy-ai-platform/internal/model"
)

type fakeCompanies struct {
	companies []model.Company
}

func (f *fakeCompanies) List(_ context.Context) ([]model.Company, error) {
	return f.companies, nil
}

type fakeActivity struct {
	active map[string]bool
	counts map[string]int
}

func (f *fakeActivity) HasActive(_ context.Context, companyID string) (bool, error) {
	return f.active[companyID], nil
}

func (f *fakeActivity) CountByStatus(_ context.Context) (map[string]int, error) {
	return f.counts, nil
}

func testGenerator(t *testing.T, companies *fakeCompanies, activity *fakeActivity, store *fakeTaskStore) *Generator {
	t.Helper()
	s := testScheduler(t, store)
	return NewGenerator(zerolog.Nop(), prometheus.NewRegistry(), companies, activity, s)
}

func TestDetectNew_SkipsCompaniesWithActiveWorkflow(t *testing.T) {
	companies := &fakeCompanies{companies: []model.Company{
		{ID: "comp-1", Name: "Acme SaaS platform"},
		{ID: "comp-2", Name: "Busy software vendor"},
	}}
	activity := &fakeActivity{active: map[string]bool{"comp-2": true}}
	g := testGenerator(t, companies, activity, &fakeTaskStore{})

	candidates, err := g.DetectNew(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "comp-1", candidates[0].Company.ID)
	assert.Equal(t, "saas", candidates[0].Industry)
}

func TestGenerateForNew_CreatesWorkflows(t *testing.T) {
	companies := &fakeCompanies{companies: []model.Company{
		{ID: "comp-1", Name: "Acme cloud software"},
	}}
	store := &fakeTaskStore{}
	g := testGenerator(t, companies, &fakeActivity{}, store)

	created, err := g.GenerateForNew(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Len(t, store.created, 5)
}

// A company whose industry has no template is skipped, not an error.
func TestGenerateForNew_MissingTemplateSkips(t *testing.T) {
	companies := &fakeCompanies{companies: []model.Company{
		{ID: "comp-1", Name: "Bob's Consulting"}, // classifies as general, not in catalog
	}}
	store := &fakeTaskStore{}
	g := testGenerator(t, companies, &fakeActivity{}, store)

	created, err := g.GenerateForNew(context.Background())
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Empty(t, store.created)
}

func TestOptimize_BelowThresholdNoRepair(t *testing.T) {
	store := &fakeTaskStore{failed: []model.ScheduledTask{failedTask("stask-1", 0)}}
	activity := &fakeActivity{counts: map[string]int{model.ScheduledFailed: optimizeFailedThreshold}}
	g := testGenerator(t, &fakeCompanies{}, activity, store)

	require.NoError(t, g.Optimize(context.Background()))
	assert.Empty(t, store.rescheduled)
}

func TestOptimize_AboveThresholdRunsRepair(t *testing.T) {
	store := &fakeTaskStore{failed: []model.ScheduledTask{failedTask("stask-1", 0)}}
	activity := &fakeActivity{counts: map[string]int{model.ScheduledFailed: optimizeFailedThreshold + 1}}
	g := testGenerator(t, &fakeCompanies{}, activity, store)

	require.NoError(t, g.Optimize(context.Background()))
	assert.Equal(t, []string{"stask-1"}, store.rescheduled)
}
