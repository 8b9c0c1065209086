package chat

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sales440/ivy-ai-platform/internal/model"
)

func TestExecute_UnknownToolIsPayloadNotError(t *testing.T) {
	deps, _ := testDeps()
	r := NewRegistry(deps)

	result, err := r.Execute(context.Background(), "launch_rockets", "{}")
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"unknown tool: launch_rockets"}`, result)
}

func TestExecute_EveryDefinedToolHasHandler(t *testing.T) {
	deps, _ := testDeps()
	r := NewRegistry(deps)

	for _, def := range r.Tools() {
		result, err := r.Execute(context.Background(), def.Function.Name, `{"company_id":"c1","industry":"saas","query":"q"}`)
		require.NoError(t, err, "tool %s", def.Function.Name)
		assert.NotContains(t, result, "unknown tool", "tool %s", def.Function.Name)
	}
}

func TestExecute_RunAuditCreatesTask(t *testing.T) {
	deps, tasks := testDeps()
	r := NewRegistry(deps)

	result, err := r.Execute(context.Background(), "run_audit", "{}")
	require.NoError(t, err)
	assert.JSONEq(t, `{"task_id":"task-1"}`, result)
	require.Len(t, tasks.created, 1)
	assert.Equal(t, model.TaskAuditPlatform, tasks.created[0])
}

func TestExecute_ListTasksLimit(t *testing.T) {
	deps, tasks := testDeps()
	for i := 0; i < 20; i++ {
		tasks.tasks = append(tasks.tasks, model.Task{ID: "task-n"})
	}
	r := NewRegistry(deps)

	result, err := r.Execute(context.Background(), "list_tasks", `{"limit":3}`)
	require.NoError(t, err)
	var listed []model.Task
	require.NoError(t, json.Unmarshal([]byte(result), &listed))
	assert.Len(t, listed, 3)

	// Missing or absurd limits fall back to the default.
	result, err = r.Execute(context.Background(), "list_tasks", "")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(result), &listed))
	assert.Len(t, listed, 15)
}

func TestExecute_CreateCampaignParsesArgs(t *testing.T) {
	deps, _ := testDeps()
	campaigns := deps.Campaigns.(*fakeCampaigns)
	r := NewRegistry(deps)

	result, err := r.Execute(context.Background(), "create_campaign", `{"company_id":"comp-9","industry":"saas"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"task_ids":["stask-1"]}`, result)
	assert.Equal(t, []string{"comp-9"}, campaigns.created)
}

func TestExecute_MalformedArgs(t *testing.T) {
	deps, _ := testDeps()
	r := NewRegistry(deps)

	_, err := r.Execute(context.Background(), "create_campaign", `{"company_id":`)
	assert.Error(t, err)
}

func TestExecute_TrainAgentTopicMetadata(t *testing.T) {
	deps, tasks := testDeps()
	r := NewRegistry(deps)

	_, err := r.Execute(context.Background(), "train_agent", `{"topic":"objection handling"}`)
	require.NoError(t, err)
	require.Len(t, tasks.created, 1)
	assert.Equal(t, model.TaskTrainAgent, tasks.created[0])
}

func TestExecute_HealSystemReportsResult(t *testing.T) {
	deps, _ := testDeps()
	healer := deps.Healer.(*fakeHealer)
	r := NewRegistry(deps)

	result, err := r.Execute(context.Background(), "heal_system", "{}")
	require.NoError(t, err)
	assert.Equal(t, 1, healer.calls)
	assert.Contains(t, result, `"issues_fixed":1`)
}
