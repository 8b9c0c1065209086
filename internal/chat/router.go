package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sales440/ivy-ai-platform/internal/model"
)

// Reply is the router's answer to one message.
type Reply struct {
	Text   string `json:"text"`
	Action string `json:"action,omitempty"`
}

// Canonical command actions.
const (
	ActionStatus    = "status"
	ActionFix       = "fix"
	ActionAudit     = "audit"
	ActionTrain     = "train"
	ActionHelp      = "help"
	ActionTasks     = "tasks"
	ActionMetrics   = "metrics"
	ActionAgents    = "agents"
	ActionErrors    = "errors"
	ActionAutoTrain = "auto-train"
	ActionChat      = "chat"
)

// commandSynonyms maps every accepted command word to its canonical action.
// English and Spanish are first-class; the operator base speaks both.
var commandSynonyms = map[string]string{
	"status":        ActionStatus,
	"estado":        ActionStatus,
	"health":        ActionStatus,
	"fix":           ActionFix,
	"arreglar":      ActionFix,
	"repair":        ActionFix,
	"audit":         ActionAudit,
	"auditar":       ActionAudit,
	"check":         ActionAudit,
	"train":         ActionTrain,
	"entrenar":      ActionTrain,
	"teach":         ActionTrain,
	"help":          ActionHelp,
	"ayuda":         ActionHelp,
	"tasks":         ActionTasks,
	"tareas":        ActionTasks,
	"metrics":       ActionMetrics,
	"metricas":      ActionMetrics,
	"agents":        ActionAgents,
	"agentes":       ActionAgents,
	"errors":        ActionErrors,
	"errores":       ActionErrors,
	"auto-train":    ActionAutoTrain,
	"auto-entrenar": ActionAutoTrain,
}

// Conversationalist handles messages no command matched.
type Conversationalist interface {
	Respond(ctx context.Context, message string) string
}

// Router matches operator messages against the command table and falls back
// to the conversational path.
type Router struct {
	logger       zerolog.Logger
	deps         Deps
	conversation Conversationalist
}

func NewRouter(logger zerolog.Logger, deps Deps, conversation Conversationalist) *Router {
	return &Router{
		logger:       logger.With().Str("component", "chat-router").Logger(),
		deps:         deps,
		conversation: conversation,
	}
}

// matchCommand returns the canonical action for a message, or "" when no
// command matches. A command matches only as the whole message or as a prefix
// followed by a space; "my status report" is conversation, not a command.
func matchCommand(message string) string {
	text := strings.ToLower(strings.TrimSpace(message))
	for word, action := range commandSynonyms {
		if text == word || strings.HasPrefix(text, word+" ") {
			return action
		}
	}
	return ""
}

// Route answers one operator message. Command handlers act on components
// directly; anything unmatched goes through the LLM conversation.
func (r *Router) Route(ctx context.Context, message string) Reply {
	action := matchCommand(message)
	if action == "" {
		r.logger.Debug().Msg("no command matched, conversational path")
		return Reply{Text: r.conversation.Respond(ctx, message), Action: ActionChat}
	}

	r.logger.Info().Str("action", action).Msg("command matched")
	switch action {
	case ActionStatus:
		return Reply{Text: r.statusText(ctx), Action: action}
	case ActionFix:
		id := r.deps.Tasks.CreateTask(ctx, model.TaskFixErrors, model.PriorityHigh,
			"operator-requested error fix", nil)
		return Reply{Text: fmt.Sprintf("On it. Error fix started (task %s).", id), Action: action}
	case ActionAudit:
		id := r.deps.Tasks.CreateTask(ctx, model.TaskAuditPlatform, model.PriorityHigh,
			"operator-requested platform audit", nil)
		return Reply{Text: fmt.Sprintf("Full platform audit started (task %s).", id), Action: action}
	case ActionTrain:
		id := r.deps.Tasks.CreateTask(ctx, model.TaskTrainAgent, model.PriorityMedium,
			"operator-requested agent training", nil)
		return Reply{Text: fmt.Sprintf("Agent training queued (task %s). It will run with the next sync cycle.", id), Action: action}
	case ActionAutoTrain:
		id := r.deps.Tasks.CreateTask(ctx, model.TaskTrainAgent, model.PriorityMedium,
			"recurring training for all agents", map[string]string{"scope": "all"})
		return Reply{Text: fmt.Sprintf("Auto-training for all agents queued (task %s).", id), Action: action}
	case ActionTasks:
		return Reply{Text: r.tasksText(), Action: action}
	case ActionMetrics:
		return Reply{Text: r.metricsText(), Action: action}
	case ActionAgents:
		return Reply{Text: r.agentsText(ctx), Action: action}
	case ActionErrors:
		return Reply{Text: r.errorsText(), Action: action}
	case ActionHelp:
		return Reply{Text: helpText, Action: action}
	default:
		return Reply{Text: r.conversation.Respond(ctx, message), Action: ActionChat}
	}
}

func (r *Router) statusText(ctx context.Context) string {
	snap := r.deps.Monitor.Check(ctx)
	report := r.deps.Tasks.Status()
	var b strings.Builder
	fmt.Fprintf(&b, "Platform health: %s\n", snap.Status)
	fmt.Fprintf(&b, "Tasks: %d pending, %d running, %d completed, %d failed\n",
		report.Pending, report.Running, report.Completed, report.Failed)
	if len(snap.Issues) > 0 {
		fmt.Fprintf(&b, "Open issues: %d\n", len(snap.Issues))
		for _, issue := range snap.Issues {
			fmt.Fprintf(&b, "  [%s] %s: %s\n", issue.Severity, issue.Component, issue.Description)
		}
	}
	if report.LastAudit != nil {
		fmt.Fprintf(&b, "Last audit: %s (quality %d/100)",
			report.LastAudit.Timestamp.Format("2006-01-02 15:04"), report.LastAudit.QualityScore)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *Router) tasksText() string {
	tasks := r.deps.Tasks.List()
	if len(tasks) == 0 {
		return "No tasks yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d tasks:\n", len(tasks))
	limit := 15
	if len(tasks) < limit {
		limit = len(tasks)
	}
	for _, t := range tasks[:limit] {
		fmt.Fprintf(&b, "  %s  %-18s %-10s %s\n", t.ID, t.Type, t.Status, t.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *Router) metricsText() string {
	report := r.deps.Tasks.Status()
	total := report.Pending + report.Running + report.Completed + report.Failed
	var b strings.Builder
	fmt.Fprintf(&b, "Task totals: %d (pending %d, running %d, completed %d, failed %d)\n",
		total, report.Pending, report.Running, report.Completed, report.Failed)
	if report.LastAudit != nil {
		fmt.Fprintf(&b, "Last audit quality: %d/100, defects: %d",
			report.LastAudit.QualityScore, report.LastAudit.ErrorCount)
	} else {
		b.WriteString("No audit has run yet.")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *Router) agentsText(ctx context.Context) string {
	agents, err := r.deps.Agents.List(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("agent list failed")
		return "Could not load the agent list right now, try again in a moment."
	}
	if len(agents) == 0 {
		return "No agents registered."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d agents:\n", len(agents))
	for _, a := range agents {
		fmt.Fprintf(&b, "  %-20s %-12s %s\n", a.Name, a.Role, a.Status)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *Router) errorsText() string {
	var failed []string
	for _, t := range r.deps.Tasks.List() {
		if t.Status == model.TaskFailed {
			failed = append(failed, fmt.Sprintf("  %s  %s: %s", t.ID, t.Type, t.Error))
		}
	}
	if len(failed) == 0 {
		return "No failed tasks. Use 'fix' to scan for code defects."
	}
	return fmt.Sprintf("%d failed tasks:\n%s", len(failed), strings.Join(failed, "\n"))
}

const helpText = `Commands (English / Español):
  status | estado     platform health and task counts
  fix | arreglar      detect and fix code defects
  audit | auditar     run a full platform audit
  train | entrenar    queue agent training
  auto-train          queue training for all agents
  tasks | tareas      list recent tasks
  metrics | metricas  task and audit metrics
  agents | agentes    list worker agents
  errors | errores    list failed tasks
  help | ayuda        this text
Anything else is answered conversationally.`
