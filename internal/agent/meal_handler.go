package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mealwise/mealwise/internal/llm"
	"github.com/mealwise/mealwise/internal/models"
	"github.com/mealwise/mealwise/internal/recipe"
	"github.com/mealwise/mealwise/internal/security"
	"github.com/mealwise/mealwise/internal/service"
	"github.com/mealwise/mealwise/internal/tools"
	"github.com/rs/zerolog/log"
)

// IndexSource resolves a corpus source to a shared index. *corpus.Cache
// implements it.
type IndexSource interface {
	Index(ctx context.Context, source string) (*recipe.Index, error)
}

// MealHandler orchestrates the prompt → tools → answer pipeline
type MealHandler struct {
	client        llm.Client
	model         string
	opts          Options
	indexes       IndexSource
	defaultSource string
	router        *service.IntentRouter
	piiDetector   *security.PIIDetector
	promptVal     *security.PromptValidator
	costTracker   *security.CostTracker
	dataMasker    *security.DataMasker
	auditLogger   *security.AuditLogger
}

// NewMealHandler creates a handler with all security components wired in
func NewMealHandler(
	client llm.Client,
	model string,
	opts Options,
	indexes IndexSource,
	defaultSource string,
	router *service.IntentRouter,
	piiDetector *security.PIIDetector,
	promptVal *security.PromptValidator,
	costTracker *security.CostTracker,
	dataMasker *security.DataMasker,
	auditLogger *security.AuditLogger,
) *MealHandler {
	return &MealHandler{
		client:        client,
		model:         model,
		opts:          opts.withDefaults(),
		indexes:       indexes,
		defaultSource: defaultSource,
		router:        router,
		piiDetector:   piiDetector,
		promptVal:     promptVal,
		costTracker:   costTracker,
		dataMasker:    dataMasker,
		auditLogger:   auditLogger,
	}
}

// DefaultSource is the corpus used when a request names none.
func (h *MealHandler) DefaultSource() string { return h.defaultSource }

func (h *MealHandler) resolve(source *string) string {
	if source != nil && *source != "" {
		return *source
	}
	return h.defaultSource
}

// Index returns the recipe index for a source, or the default corpus when
// source is nil or empty.
func (h *MealHandler) Index(ctx context.Context, source *string) (*recipe.Index, error) {
	src := h.resolve(source)
	if src == "" {
		return nil, fmt.Errorf("%w: no corpus source configured", ErrCorpusUnavailable)
	}
	idx, err := h.indexes.Index(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorpusUnavailable, err)
	}
	return idx, nil
}

func (h *MealHandler) registry(ctx context.Context, source *string) (*tools.Registry, error) {
	idx, err := h.Index(ctx, source)
	if err != nil {
		return nil, err
	}
	return tools.NewDefaultRegistry(idx)
}

// Tools lists the tool schemas offered to the model for a corpus.
func (h *MealHandler) Tools(ctx context.Context, source *string) ([]tools.Schema, error) {
	reg, err := h.registry(ctx, source)
	if err != nil {
		return nil, err
	}
	return reg.Describe(), nil
}

// CallTool runs one tool directly, outside any chat. Registry errors
// (unknown tool, invalid arguments) are returned alongside the failure result.
func (h *MealHandler) CallTool(ctx context.Context, req *models.ToolCallRequest, name, apiKey string) (tools.Result, error) {
	start := time.Now()
	src := h.resolve(req.Source)
	reg, err := h.registry(ctx, req.Source)
	if err != nil {
		h.auditLogger.LogToolCall(name, apiKey, src, time.Since(start).Milliseconds(), false, err.Error())
		return tools.Result{}, err
	}
	res, err := reg.Execute(ctx, name, req.Arguments)
	errMsg := ""
	switch {
	case err != nil:
		errMsg = err.Error()
	case res.IsError:
		errMsg = res.Rationale
	}
	h.auditLogger.LogToolCall(name, apiKey, src, time.Since(start).Milliseconds(), errMsg == "", errMsg)
	return res, err
}

// Handle answers a chat request. When the prompt is rejected the partial
// response is returned together with an error matching ErrPromptRejected.
func (h *MealHandler) Handle(ctx context.Context, req *models.ChatRequest, apiKey string) (*models.ChatResponse, error) {
	start := time.Now()
	req.SetDefaults(int(h.opts.RequestTimeout / time.Second))
	source := h.resolve(req.Source)
	metadata := map[string]interface{}{
		"source": source,
		"model":  h.model,
		"method": "agent",
	}
	audit := security.ChatAudit{Prompt: req.Prompt, APIKey: apiKey, Source: source}
	reject := func(reason string) (*models.ChatResponse, error) {
		audit.Error = reason
		audit.ExecutionTimeMs = time.Since(start).Milliseconds()
		h.auditLogger.LogChat(audit)
		return &models.ChatResponse{
			Status:        "error",
			Prompt:        req.Prompt,
			ToolsUsed:     []string{},
			AgentMetadata: metadata,
		}, fmt.Errorf("%w: %s", ErrPromptRejected, reason)
	}

	// 1. PII detection
	if found, kw := h.piiDetector.Detect(req.Prompt); found {
		metadata["pii_check"] = "blocked: " + kw
		return reject("PII detected in prompt: " + kw)
	}
	metadata["pii_check"] = "passed"

	// 2. Prompt validation
	vr := h.promptVal.Validate(req.Prompt)
	if !vr.Valid {
		metadata["prompt_validation"] = "blocked: " + vr.Message
		return reject("prompt validation failed: " + vr.Message)
	}
	metadata["prompt_validation"] = "passed"
	audit.ValidationPassed = true

	// 3. Corpus index and tools
	idx, err := h.Index(ctx, req.Source)
	if err != nil {
		return nil, err
	}
	reg, err := tools.NewDefaultRegistry(idx)
	if err != nil {
		return nil, fmt.Errorf("build tools: %w", err)
	}

	// 4. Routing hints go into the system prompt; the model still picks the tools.
	route := h.router.Route(req.Prompt)
	metadata["intent"] = string(route.Intent)
	metadata["routing_confidence"] = route.Confidence
	metadata["routing_reasoning"] = route.Reasoning
	audit.Intent = string(route.Intent)
	system := buildSystemPrompt(h.opts.SystemPrompt, source, idx, route)

	// 5. Run agent loop
	chatCtx, cancel := context.WithTimeout(ctx, time.Duration(req.Timeout)*time.Second)
	defer cancel()

	log.Debug().
		Str("source", source).
		Str("intent", string(route.Intent)).
		Str("prompt", h.dataMasker.Preview(req.Prompt)).
		Msg("chat started")

	opts := h.opts
	opts.TokenLimit = h.costTracker.CheckLimits
	reply, err := New(h.client, reg, opts).ChatWithPrompt(chatCtx, system, req.Prompt)
	if errors.Is(err, ErrTokenBudgetExceeded) {
		metadata["cost_tracking"] = "over limit"
		resp, _ := reject(err.Error())
		return resp, err
	}
	if err != nil {
		audit.Error = err.Error()
		audit.ExecutionTimeMs = time.Since(start).Milliseconds()
		h.auditLogger.LogChat(audit)
		return nil, fmt.Errorf("agent run: %w", err)
	}

	toolsUsed := make([]string, 0, len(reply.Trace))
	for _, e := range reply.Trace {
		toolsUsed = append(toolsUsed, e.Name)
	}
	states := make([]string, 0, len(reply.States))
	for _, s := range reply.States {
		states = append(states, string(s))
	}
	metadata["states"] = states

	// 6. Token spend
	execTimeMs := time.Since(start).Milliseconds()
	metadata["cost_tracking"] = "ok"
	h.costTracker.LogChatCost(req.Prompt, apiKey, reply.Usage.InputTokens, reply.Usage.OutputTokens, reply.Rounds, execTimeMs)

	audit.ToolCalls = toolsUsed
	audit.StopReason = reply.StopReason
	audit.ExecutionTimeMs = execTimeMs
	h.auditLogger.LogChat(audit)

	log.Debug().Str("answer", h.dataMasker.Preview(reply.Text)).Msg("chat answered")

	resp := &models.ChatResponse{
		Status:     "success",
		Prompt:     req.Prompt,
		Answer:     reply.Text,
		StopReason: reply.StopReason,
		Rounds:     reply.Rounds,
		ToolsUsed:  toolsUsed,
		Usage: models.TokenUsage{
			InputTokens:  reply.Usage.InputTokens,
			OutputTokens: reply.Usage.OutputTokens,
		},
		AgentMetadata: metadata,
	}
	if req.IncludeTrace {
		resp.Trace = traceSteps(reply.Trace)
	}
	return resp, nil
}

func traceSteps(trace []TraceEntry) []models.TraceStep {
	out := make([]models.TraceStep, 0, len(trace))
	for _, e := range trace {
		out = append(out, models.TraceStep{
			Round:      e.Round,
			Tool:       e.Name,
			Arguments:  e.Arguments,
			Result:     e.Result.Data,
			Rationale:  e.Result.Rationale,
			IsError:    e.Result.IsError,
			Error:      e.Error,
			DurationMs: e.Duration.Milliseconds(),
		})
	}
	return out
}
