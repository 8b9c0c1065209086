package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sales440/ivy-ai-platform/internal/llm"
	"github.com/sales440/ivy-ai-platform/internal/model"
)

// Registry exposes platform operations as LLM tools. Handlers act on the
// components directly; results are JSON strings fed back into the
// conversation.
type Registry struct {
	deps Deps
}

func NewRegistry(deps Deps) *Registry {
	return &Registry{deps: deps}
}

// Tools returns the tool definitions for the LLM.
func (r *Registry) Tools() []llm.ToolDefinition {
	return []llm.ToolDefinition{
		{
			Type: "function",
			Function: llm.FunctionSchema{
				Name:        "get_system_status",
				Description: "Get the orchestrator task counts and the last audit result.",
				Parameters:  json.RawMessage(`{"type":"object","properties":{}}`),
			},
		},
		{
			Type: "function",
			Function: llm.FunctionSchema{
				Name:        "get_health",
				Description: "Run a live health check across all platform components.",
				Parameters:  json.RawMessage(`{"type":"object","properties":{}}`),
			},
		},
		{
			Type: "function",
			Function: llm.FunctionSchema{
				Name:        "run_audit",
				Description: "Start a full platform audit. Returns the created task id.",
				Parameters:  json.RawMessage(`{"type":"object","properties":{}}`),
			},
		},
		{
			Type: "function",
			Function: llm.FunctionSchema{
				Name:        "heal_system",
				Description: "Run a health check and attempt automatic remediation of the issues found.",
				Parameters:  json.RawMessage(`{"type":"object","properties":{}}`),
			},
		},
		{
			Type: "function",
			Function: llm.FunctionSchema{
				Name:        "fix_errors",
				Description: "Start a code defect detection and fix run. Returns the created task id.",
				Parameters:  json.RawMessage(`{"type":"object","properties":{}}`),
			},
		},
		{
			Type: "function",
			Function: llm.FunctionSchema{
				Name:        "list_tasks",
				Description: "List recent orchestrator tasks with status and result.",
				Parameters:  json.RawMessage(`{"type":"object","properties":{"limit":{"type":"integer","description":"Max tasks to return (default 15)"}}}`),
			},
		},
		{
			Type: "function",
			Function: llm.FunctionSchema{
				Name:        "get_campaign_status",
				Description: "Get the campaign workflow status for a company: per-status counts and recent steps.",
				Parameters:  json.RawMessage(`{"type":"object","properties":{"company_id":{"type":"string","description":"Company ID"}},"required":["company_id"]}`),
			},
		},
		{
			Type: "function",
			Function: llm.FunctionSchema{
				Name:        "repair_campaigns",
				Description: "Run a repair pass over failed campaign tasks: retry those within budget, cancel the exhausted ones.",
				Parameters:  json.RawMessage(`{"type":"object","properties":{}}`),
			},
		},
		{
			Type: "function",
			Function: llm.FunctionSchema{
				Name:        "create_campaign",
				Description: "Delegate a new 5-step campaign workflow for a company.",
				Parameters:  json.RawMessage(`{"type":"object","properties":{"company_id":{"type":"string","description":"Company ID"},"industry":{"type":"string","description":"Industry template to use"}},"required":["company_id","industry"]}`),
			},
		},
		{
			Type: "function",
			Function: llm.FunctionSchema{
				Name:        "train_agent",
				Description: "Queue a training task for the worker agents.",
				Parameters:  json.RawMessage(`{"type":"object","properties":{"topic":{"type":"string","description":"Optional training topic"}}}`),
			},
		},
		{
			Type: "function",
			Function: llm.FunctionSchema{
				Name:        "list_agents",
				Description: "List the worker agents with role and status.",
				Parameters:  json.RawMessage(`{"type":"object","properties":{}}`),
			},
		},
		{
			Type: "function",
			Function: llm.FunctionSchema{
				Name:        "search_web",
				Description: "Search the web for market or sales intelligence.",
				Parameters:  json.RawMessage(`{"type":"object","properties":{"query":{"type":"string","description":"Search query"},"max_results":{"type":"integer","description":"Max results (default 5)"}},"required":["query"]}`),
			},
		},
	}
}

type toolHandler func(ctx context.Context, args json.RawMessage) (string, error)

// Execute dispatches a tool call and returns its JSON result. An unknown tool
// name is reported to the model as an error payload, not a Go error.
func (r *Registry) Execute(ctx context.Context, name string, argsJSON string) (string, error) {
	handlers := map[string]toolHandler{
		"get_system_status":   r.getSystemStatus,
		"get_health":          r.getHealth,
		"run_audit":           r.runAudit,
		"heal_system":         r.healSystem,
		"fix_errors":          r.fixErrors,
		"list_tasks":          r.listTasks,
		"get_campaign_status": r.getCampaignStatus,
		"repair_campaigns":    r.repairCampaigns,
		"create_campaign":     r.createCampaign,
		"train_agent":         r.trainAgent,
		"list_agents":         r.listAgents,
		"search_web":          r.searchWeb,
	}

	handler, ok := handlers[name]
	if !ok {
		return fmt.Sprintf(`{"error":"unknown tool: %s"}`, name), nil
	}
	return handler(ctx, json.RawMessage(argsJSON))
}

// --- Tool handlers ---

func (r *Registry) getSystemStatus(_ context.Context, _ json.RawMessage) (string, error) {
	return asJSON(r.deps.Tasks.Status())
}

func (r *Registry) getHealth(ctx context.Context, _ json.RawMessage) (string, error) {
	return asJSON(r.deps.Monitor.Check(ctx))
}

func (r *Registry) runAudit(ctx context.Context, _ json.RawMessage) (string, error) {
	id := r.deps.Tasks.CreateTask(ctx, model.TaskAuditPlatform, model.PriorityHigh,
		"chat-requested platform audit", nil)
	return asJSON(map[string]string{"task_id": id})
}

func (r *Registry) healSystem(ctx context.Context, _ json.RawMessage) (string, error) {
	snap := r.deps.Monitor.Check(ctx)
	result := r.deps.Healer.Heal(ctx, snap)
	return asJSON(result)
}

func (r *Registry) fixErrors(ctx context.Context, _ json.RawMessage) (string, error) {
	id := r.deps.Tasks.CreateTask(ctx, model.TaskFixErrors, model.PriorityHigh,
		"chat-requested error fix", nil)
	return asJSON(map[string]string{"task_id": id})
}

func (r *Registry) listTasks(_ context.Context, args json.RawMessage) (string, error) {
	var p struct {
		Limit int `json:"limit"`
	}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &p); err != nil {
			return "", fmt.Errorf("parse args: %w", err)
		}
	}
	if p.Limit <= 0 || p.Limit > 50 {
		p.Limit = 15
	}
	tasks := r.deps.Tasks.List()
	if len(tasks) > p.Limit {
		tasks = tasks[:p.Limit]
	}
	return asJSON(tasks)
}

func (r *Registry) getCampaignStatus(ctx context.Context, args json.RawMessage) (string, error) {
	var p struct {
		CompanyID string `json:"company_id"`
	}
	if err := json.Unmarshal(args, &p); err != nil {
		return "", fmt.Errorf("parse args: %w", err)
	}
	status, err := r.deps.Campaigns.Status(ctx, p.CompanyID)
	if err != nil {
		return "", err
	}
	return asJSON(status)
}

func (r *Registry) repairCampaigns(ctx context.Context, _ json.RawMessage) (string, error) {
	summary, err := r.deps.Campaigns.MonitorAndRepair(ctx)
	if err != nil {
		return "", err
	}
	return asJSON(summary)
}

func (r *Registry) createCampaign(ctx context.Context, args json.RawMessage) (string, error) {
	var p struct {
		CompanyID string `json:"company_id"`
		Industry  string `json:"industry"`
	}
	if err := json.Unmarshal(args, &p); err != nil {
		return "", fmt.Errorf("parse args: %w", err)
	}
	ids, err := r.deps.Campaigns.CreateWorkflow(ctx, p.CompanyID, p.Industry)
	if err != nil {
		return "", err
	}
	return asJSON(map[string]any{"task_ids": ids})
}

func (r *Registry) trainAgent(ctx context.Context, args json.RawMessage) (string, error) {
	var p struct {
		Topic string `json:"topic"`
	}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &p); err != nil {
			return "", fmt.Errorf("parse args: %w", err)
		}
	}
	var metadata map[string]string
	if p.Topic != "" {
		metadata = map[string]string{"topic": p.Topic}
	}
	id := r.deps.Tasks.CreateTask(ctx, model.TaskTrainAgent, model.PriorityMedium,
		"chat-requested agent training", metadata)
	return asJSON(map[string]string{"task_id": id})
}

func (r *Registry) listAgents(ctx context.Context, _ json.RawMessage) (string, error) {
	agents, err := r.deps.Agents.List(ctx)
	if err != nil {
		return "", err
	}
	return asJSON(agents)
}

func (r *Registry) searchWeb(ctx context.Context, args json.RawMessage) (string, error) {
	var p struct {
		Query      string `json:"query"`
		MaxResults int    `json:"max_results"`
	}
	if err := json.Unmarshal(args, &p); err != nil {
		return "", fmt.Errorf("parse args: %w", err)
	}
	results, err := r.deps.Web.Search(ctx, p.Query, p.MaxResults)
	if err != nil {
		return "", err
	}
	return asJSON(results)
}

func asJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal tool result: %w", err)
	}
	return string(raw), nil
}
