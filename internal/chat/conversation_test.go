package chat

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sales440/ivy-ai-platform/internal/llm"
)

type fakeChatter struct {
	responses []*llm.ChatResponse
	errs      []error
	requests  []llm.ChatRequest
}

func (f *fakeChatter) Chat(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	f.requests = append(f.requests, req)
	i := len(f.requests) - 1
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return &llm.ChatResponse{}, nil
}

type fakeTools struct {
	results map[string]string
	errs    map[string]error
	calls   []string
}

func (f *fakeTools) Tools() []llm.ToolDefinition {
	return []llm.ToolDefinition{{Type: "function", Function: llm.FunctionSchema{Name: "get_health"}}}
}

func (f *fakeTools) Execute(_ context.Context, name string, _ string) (string, error) {
	f.calls = append(f.calls, name)
	if err := f.errs[name]; err != nil {
		return "", err
	}
	return f.results[name], nil
}

type fakePrompts struct {
	value string
	err   error
}

func (f *fakePrompts) Get(_ context.Context, _ string) (string, error) { return f.value, f.err }

func textResponse(content string) *llm.ChatResponse {
	return &llm.ChatResponse{Choices: []llm.Choice{{Message: llm.Message{Role: "assistant", Content: content}}}}
}

func toolCallResponse(calls ...llm.ToolCall) *llm.ChatResponse {
	return &llm.ChatResponse{Choices: []llm.Choice{{Message: llm.Message{Role: "assistant", ToolCalls: calls}}}}
}

func newTestConversation(client *fakeChatter, tools *fakeTools, prompts *fakePrompts) *Conversation {
	if tools == nil {
		tools = &fakeTools{}
	}
	if prompts == nil {
		prompts = &fakePrompts{}
	}
	return NewConversation(zerolog.Nop(), client, tools, prompts)
}

func TestRespond_DirectAnswer(t *testing.T) {
	client := &fakeChatter{responses: []*llm.ChatResponse{textResponse("all good")}}
	c := newTestConversation(client, nil, nil)

	reply := c.Respond(context.Background(), "how are things?")
	assert.Equal(t, "all good", reply)
	require.Len(t, client.requests, 1)
	assert.NotEmpty(t, client.requests[0].Tools, "first round must offer the tools")
}

func TestRespond_ToolCallRoundTrip(t *testing.T) {
	client := &fakeChatter{responses: []*llm.ChatResponse{
		toolCallResponse(llm.ToolCall{
			ID:       "call-1",
			Type:     "function",
			Function: llm.FunctionCall{Name: "get_health", Arguments: "{}"},
		}),
		textResponse("everything is healthy"),
	}}
	tools := &fakeTools{results: map[string]string{"get_health": `{"status":"healthy"}`}}
	c := newTestConversation(client, tools, nil)

	reply := c.Respond(context.Background(), "is the platform ok?")
	assert.Equal(t, "everything is healthy", reply)
	assert.Equal(t, []string{"get_health"}, tools.calls)

	require.Len(t, client.requests, 2)
	second := client.requests[1]
	assert.Empty(t, second.Tools, "second round must not offer tools again")
	assert.Equal(t, "none", second.ToolChoice, "second round must forbid further tool calls")

	last := second.Messages[len(second.Messages)-1]
	assert.Equal(t, "tool", last.Role)
	assert.Equal(t, "call-1", last.ToolCallID)
	assert.Equal(t, `{"status":"healthy"}`, last.Content)
}

// A failing tool becomes an error payload the model can explain, not a
// dropped message.
func TestRespond_ToolErrorBecomesPayload(t *testing.T) {
	client := &fakeChatter{responses: []*llm.ChatResponse{
		toolCallResponse(llm.ToolCall{
			ID:       "call-1",
			Type:     "function",
			Function: llm.FunctionCall{Name: "get_health", Arguments: "{}"},
		}),
		textResponse("the health check is unavailable"),
	}}
	tools := &fakeTools{errs: map[string]error{"get_health": errors.New("probe timeout")}}
	c := newTestConversation(client, tools, nil)

	reply := c.Respond(context.Background(), "check health")
	assert.Equal(t, "the health check is unavailable", reply)

	require.Len(t, client.requests, 2)
	last := client.requests[1].Messages[len(client.requests[1].Messages)-1]
	assert.Equal(t, "tool", last.Role)

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(last.Content), &payload))
	assert.Equal(t, "probe timeout", payload["error"])
}

func TestRespond_FallbackOnClientError(t *testing.T) {
	client := &fakeChatter{errs: []error{errors.New("connection refused")}}
	c := newTestConversation(client, nil, nil)

	assert.Equal(t, fallbackReply, c.Respond(context.Background(), "hello"))
}

func TestRespond_FallbackOnEmptyChoices(t *testing.T) {
	client := &fakeChatter{responses: []*llm.ChatResponse{{}}}
	c := newTestConversation(client, nil, nil)

	assert.Equal(t, fallbackReply, c.Respond(context.Background(), "hello"))
}

func TestRespond_FallbackOnSecondRoundError(t *testing.T) {
	client := &fakeChatter{
		responses: []*llm.ChatResponse{
			toolCallResponse(llm.ToolCall{
				ID:       "call-1",
				Function: llm.FunctionCall{Name: "get_health", Arguments: "{}"},
			}),
		},
		errs: []error{nil, errors.New("connection reset")},
	}
	c := newTestConversation(client, &fakeTools{results: map[string]string{"get_health": "{}"}}, nil)

	assert.Equal(t, fallbackReply, c.Respond(context.Background(), "hello"))
}

func TestSystemPrompt_Override(t *testing.T) {
	client := &fakeChatter{responses: []*llm.ChatResponse{textResponse("ok")}}
	c := newTestConversation(client, nil, &fakePrompts{value: "You speak only Spanish."})

	c.Respond(context.Background(), "hola")
	require.NotEmpty(t, client.requests)
	assert.Equal(t, "You speak only Spanish.", client.requests[0].Messages[0].Content)
}

func TestSystemPrompt_DefaultWhenUnset(t *testing.T) {
	client := &fakeChatter{responses: []*llm.ChatResponse{textResponse("ok")}}
	c := newTestConversation(client, nil, &fakePrompts{})

	c.Respond(context.Background(), "hi")
	assert.Equal(t, defaultSystemPrompt, client.requests[0].Messages[0].Content)
}

func TestSystemPrompt_DefaultWhenConfigFails(t *testing.T) {
	client := &fakeChatter{responses: []*llm.ChatResponse{textResponse("ok")}}
	c := newTestConversation(client, nil, &fakePrompts{err: errors.New("db down")})

	c.Respond(context.Background(), "hi")
	assert.Equal(t, defaultSystemPrompt, client.requests[0].Messages[0].Content)
}
