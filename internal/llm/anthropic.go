package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/mealwise/mealwise/internal/tools"
	"github.com/rs/zerolog/log"
)

// DefaultModel is used when NewAnthropicClient gets an empty model.
const DefaultModel = "claude-sonnet-4-6"

// AnthropicClient talks to the Anthropic Messages API or a compatible provider.
type AnthropicClient struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

// NewAnthropicClient builds a client. baseURL may be empty.
func NewAnthropicClient(apiKey, model, baseURL string, maxTokens int) *AnthropicClient {
	if model == "" {
		model = DefaultModel
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	// retries belong to the agent loop
	opts = append(opts, option.WithMaxRetries(0))
	return &AnthropicClient{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
	}
}

// Model returns the configured model name.
func (c *AnthropicClient) Model() string { return c.model }

// Complete implements Client.
func (c *AnthropicClient) Complete(ctx context.Context, req Request) (Reply, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.F(anthropic.Model(c.model)),
		MaxTokens: anthropic.F(int64(c.maxTokens)),
		Messages:  anthropic.F(toMessageParams(req.Messages)),
	}
	if len(req.Tools) > 0 {
		params.Tools = anthropic.F(toToolParams(req.Tools))
	}
	if req.System != "" {
		params.System = anthropic.F([]anthropic.TextBlockParam{
			anthropic.NewTextBlock(req.System),
		})
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classify(err)
	}

	var text string
	var calls []tools.Call
	for _, block := range resp.Content {
		switch b := block.AsUnion().(type) {
		case anthropic.TextBlock:
			text += b.Text
		case anthropic.ToolUseBlock:
			var input map[string]interface{}
			if len(b.Input) > 0 {
				if err := json.Unmarshal(b.Input, &input); err != nil {
					return nil, fmt.Errorf("%w: tool %s input: %v", ErrMalformedReply, b.Name, err)
				}
			}
			calls = append(calls, tools.Call{ID: b.ID, Name: b.Name, Arguments: input})
		}
	}
	usage := Usage{InputTokens: resp.Usage.InputTokens, OutputTokens: resp.Usage.OutputTokens}

	log.Debug().
		Str("model", c.model).
		Str("stop_reason", string(resp.StopReason)).
		Int("tool_calls", len(calls)).
		Int64("input_tokens", usage.InputTokens).
		Int64("output_tokens", usage.OutputTokens).
		Msg("model reply")

	if len(calls) > 0 {
		return ToolCalls{Calls: calls, Text: text, Usage: usage}, nil
	}
	if text == "" {
		return nil, fmt.Errorf("%w: empty reply (stop reason %q)", ErrMalformedReply, resp.StopReason)
	}
	return FinalText{Text: text, Usage: usage}, nil
}

// classify marks request errors that will fail the same way on retry.
// Auth failures (401/403), rate limits and 5xx stay retryable.
func classify(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusBadRequest, http.StatusNotFound, http.StatusRequestEntityTooLarge, http.StatusUnprocessableEntity:
			return Permanent(fmt.Errorf("anthropic: status %d: %w", apiErr.StatusCode, err))
		}
		return fmt.Errorf("anthropic: status %d: %w", apiErr.StatusCode, err)
	}
	return fmt.Errorf("anthropic: %w", err)
}

func toToolParams(schemas []tools.Schema) []anthropic.ToolUnionUnionParam {
	out := make([]anthropic.ToolUnionUnionParam, len(schemas))
	for i, s := range schemas {
		out[i] = anthropic.ToolParam{
			Name:        anthropic.String(s.Name),
			Description: anthropic.String(s.Description),
			InputSchema: anthropic.F[interface{}](s.JSONSchema()),
		}
	}
	return out
}

// toMessageParams maps the conversation onto Anthropic messages. Tool turns
// become tool_result blocks, and consecutive tool turns share one user message
// as the API requires.
func toMessageParams(msgs []Message) []anthropic.MessageParam {
	var out []anthropic.MessageParam
	var results []anthropic.ContentBlockParamUnion
	flush := func() {
		if len(results) > 0 {
			out = append(out, anthropic.NewUserMessage(results...))
			results = nil
		}
	}

	for _, m := range msgs {
		switch m.Role {
		case RoleTool:
			results = append(results, anthropic.NewToolResultBlock(m.ToolCallID, m.Text, m.IsError))
		case RoleAssistant:
			flush()
			var blocks []anthropic.ContentBlockParamUnion
			if m.Text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Text))
			}
			for _, call := range m.ToolCalls {
				args := call.Arguments
				if args == nil {
					args = map[string]interface{}{}
				}
				blocks = append(blocks, anthropic.NewToolUseBlockParam(call.ID, call.Name, args))
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		default:
			flush()
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Text)))
		}
	}
	flush()
	return out
}
