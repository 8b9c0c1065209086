package chat

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/sales440/ivy-ai-platform/internal/llm"
)

// systemPromptKey is the platform_config key holding an operator-supplied
// system prompt override.
const systemPromptKey = "chat.system_prompt"

const defaultSystemPrompt = `You are the operations assistant for an autonomous sales platform.
You can inspect platform health, run audits and fixes, manage campaign
workflows, and train agents through the tools available to you. Answer in the
operator's language, be concise, and prefer acting through tools over
speculating. Never invent tool results.`

const fallbackReply = "I could not process that right now. Try a direct command like 'status' or 'help'."

// Chatter is satisfied by *llm.Client.
type Chatter interface {
	Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error)
}

// ToolExecutor is satisfied by *Registry.
type ToolExecutor interface {
	Tools() []llm.ToolDefinition
	Execute(ctx context.Context, name string, argsJSON string) (string, error)
}

// PromptSource reads the system prompt override. *core.PlatformConfigService
// satisfies it.
type PromptSource interface {
	Get(ctx context.Context, key string) (string, error)
}

// Conversation is the LLM-backed path for messages no command matched. One
// model round may request tools; their results feed exactly one more round.
// There are no recursive tool chains.
type Conversation struct {
	logger zerolog.Logger
	client Chatter
	tools  ToolExecutor
	config PromptSource
}

func NewConversation(logger zerolog.Logger, client Chatter, tools ToolExecutor, config PromptSource) *Conversation {
	return &Conversation{
		logger: logger.With().Str("component", "chat-conversation").Logger(),
		client: client,
		tools:  tools,
		config: config,
	}
}

// Respond answers one free-form message. Internal failures never surface to
// the operator; they degrade to a canned fallback.
func (c *Conversation) Respond(ctx context.Context, message string) string {
	messages := []llm.Message{
		{Role: "system", Content: c.systemPrompt(ctx)},
		{Role: "user", Content: message},
	}

	resp, err := c.client.Chat(ctx, llm.ChatRequest{Messages: messages, Tools: c.tools.Tools()})
	if err != nil {
		c.logger.Error().Err(err).Msg("first model round failed")
		return fallbackReply
	}
	if len(resp.Choices) == 0 {
		c.logger.Error().Msg("model returned no choices")
		return fallbackReply
	}

	assistant := resp.Choices[0].Message
	if len(assistant.ToolCalls) == 0 {
		if assistant.Content == "" {
			return fallbackReply
		}
		return assistant.Content
	}

	messages = append(messages, assistant)
	for _, call := range assistant.ToolCalls {
		result, err := c.tools.Execute(ctx, call.Function.Name, call.Function.Arguments)
		if err != nil {
			// The model sees tool failures as data and can explain them.
			c.logger.Warn().Err(err).Str("tool", call.Function.Name).Msg("tool call failed")
			payload, _ := json.Marshal(map[string]string{"error": err.Error()})
			result = string(payload)
		}
		messages = append(messages, llm.Message{
			Role:       "tool",
			ToolCallID: call.ID,
			Content:    result,
		})
	}

	// ToolChoice "none" caps the exchange at one tool round.
	final, err := c.client.Chat(ctx, llm.ChatRequest{Messages: messages, ToolChoice: "none"})
	if err != nil {
		c.logger.Error().Err(err).Msg("second model round failed")
		return fallbackReply
	}
	if len(final.Choices) == 0 || final.Choices[0].Message.Content == "" {
		return fallbackReply
	}
	return final.Choices[0].Message.Content
}

func (c *Conversation) systemPrompt(ctx context.Context) string {
	override, err := c.config.Get(ctx, systemPromptKey)
	if err != nil {
		c.logger.Warn().Err(err).Msg("system prompt override unavailable")
		return defaultSystemPrompt
	}
	if override == "" {
		return defaultSystemPrompt
	}
	return override
}
