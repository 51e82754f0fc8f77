// Package agent runs the tool-calling conversation that turns a meal request
// into a recommendation.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mealwise/mealwise/internal/llm"
	"github.com/mealwise/mealwise/internal/tools"
	"github.com/rs/zerolog/log"
)

// Stop reasons reported on AssistantReply.
const (
	StopFinalAnswer  = "final_answer"
	StopIterationCap = "iteration_cap"
)

// Options tunes the loop. Zero fields take the defaults below.
type Options struct {
	// MaxIterations is the number of model round-trips allowed per Chat.
	MaxIterations int
	ModelTimeout  time.Duration
	// MaxRetries is retries after the first attempt of each model call.
	MaxRetries   int
	RetryBackoff time.Duration
	MaxBackoff   time.Duration
	SystemPrompt string
	// RequestTimeout is the default and the ceiling for a MealHandler chat.
	RequestTimeout time.Duration
	// TokenLimit is checked against the running usage after every model
	// call; a false result stops the chat with ErrTokenBudgetExceeded.
	// Nil means unlimited.
	TokenLimit func(inputTokens, outputTokens int64) (bool, string)
}

const (
	DefaultMaxIterations  = 5
	DefaultModelTimeout   = 60 * time.Second
	DefaultMaxRetries     = 2
	DefaultRetryBackoff   = 500 * time.Millisecond
	DefaultMaxBackoff     = 4 * time.Second
	DefaultRequestTimeout = 120 * time.Second
)

func (o Options) withDefaults() Options {
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.ModelTimeout <= 0 {
		o.ModelTimeout = DefaultModelTimeout
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = DefaultRetryBackoff
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = DefaultMaxBackoff
	}
	if o.MaxBackoff < o.RetryBackoff {
		o.MaxBackoff = o.RetryBackoff
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = DefaultRequestTimeout
	}
	if o.SystemPrompt == "" {
		o.SystemPrompt = BaseSystemPrompt
	}
	return o
}

// TraceEntry records one tool call.
type TraceEntry struct {
	Round     int
	CallID    string
	Name      string
	Arguments map[string]interface{}
	Result    tools.Result
	// Error is set when the registry rejected the call before its handler ran.
	Error    string
	Duration time.Duration
}

// AssistantReply is the outcome of a Chat call.
type AssistantReply struct {
	Text       string
	Trace      []TraceEntry
	Rounds     int
	StopReason string
	Usage      llm.Usage
	States     []State
}

// Agent drives one conversation per Chat call against a fixed tool registry.
// An Agent holds no per-conversation state and may serve concurrent calls.
type Agent struct {
	client   llm.Client
	registry *tools.Registry
	opts     Options
}

// New builds an agent.
func New(client llm.Client, registry *tools.Registry, opts Options) *Agent {
	return &Agent{client: client, registry: registry, opts: opts.withDefaults()}
}

// ListTools returns the schemas offered to the model.
func (a *Agent) ListTools() []tools.Schema {
	return a.registry.Describe()
}

// Chat answers one user request with the default system prompt.
func (a *Agent) Chat(ctx context.Context, text string) (*AssistantReply, error) {
	return a.ChatWithPrompt(ctx, a.opts.SystemPrompt, text)
}

// ChatWithPrompt answers one user request. It returns a *BackendError when the
// model could not be reached within the retry budget.
func (a *Agent) ChatWithPrompt(ctx context.Context, system, text string) (*AssistantReply, error) {
	chatID := uuid.NewString()
	logger := log.With().Str("chat_id", chatID).Logger()

	m := newMachine()
	conv := []llm.Message{llm.UserMessage(text)}
	out := &AssistantReply{}
	schemas := a.registry.Describe()

	var (
		reply llm.Reply
		calls llm.ToolCalls
	)
	fail := func(err error, attempts int) (*AssistantReply, error) {
		_ = m.to(StateFailed)
		logger.Error().Err(err).Int("round", out.Rounds).Int("attempts", attempts).Msg("chat failed")
		return nil, &BackendError{Round: out.Rounds, Attempts: attempts, Trace: out.Trace, Err: err}
	}

	for !m.state.Terminal() {
		switch m.state {
		case StateAwaitingModel:
			out.Rounds++
			r, attempts, err := a.complete(ctx, llm.Request{
				System:   system,
				Messages: conv,
				Tools:    schemas,
				Timeout:  a.opts.ModelTimeout,
			})
			if err != nil {
				return fail(err, attempts)
			}
			reply = r
			out.Usage = out.Usage.Add(r.TokenUsage())
			if a.opts.TokenLimit != nil {
				if ok, msg := a.opts.TokenLimit(out.Usage.InputTokens, out.Usage.OutputTokens); !ok {
					_ = m.to(StateFailed)
					logger.Warn().Int("round", out.Rounds).Str("reason", msg).Msg("chat stopped by token limit")
					return nil, fmt.Errorf("%w in round %d: %s", ErrTokenBudgetExceeded, out.Rounds, msg)
				}
			}
			if err := m.to(StateInterpretingResponse); err != nil {
				return nil, err
			}

		case StateInterpretingResponse:
			switch r := reply.(type) {
			case llm.FinalText:
				out.Text = r.Text
				out.StopReason = StopFinalAnswer
				if err := m.to(StateDone); err != nil {
					return nil, err
				}
			case llm.ToolCalls:
				calls = r
				conv = append(conv, llm.Message{Role: llm.RoleAssistant, Text: r.Text, ToolCalls: r.Calls})
				if err := m.to(StateDispatchingTools); err != nil {
					return nil, err
				}
			default:
				return fail(fmt.Errorf("%w: unexpected reply %T", llm.ErrMalformedReply, reply), 1)
			}

		case StateDispatchingTools:
			for _, call := range calls.Calls {
				entry := a.dispatch(ctx, out.Rounds, call)
				out.Trace = append(out.Trace, entry)
				conv = append(conv, llm.ToolMessage(call, entry.Result))
			}
			if out.Rounds >= a.opts.MaxIterations {
				out.Text = synthesize(calls, out.Trace, out.Rounds)
				out.StopReason = StopIterationCap
				logger.Warn().Int("rounds", out.Rounds).Msg("iteration cap reached, answering from tool results")
				if err := m.to(StateDone); err != nil {
					return nil, err
				}
				continue
			}
			if err := m.to(StateAwaitingModel); err != nil {
				return nil, err
			}
		}
	}

	out.States = m.path
	logger.Info().
		Int("rounds", out.Rounds).
		Int("tool_calls", len(out.Trace)).
		Str("stop_reason", out.StopReason).
		Int64("input_tokens", out.Usage.InputTokens).
		Int64("output_tokens", out.Usage.OutputTokens).
		Msg("chat complete")
	return out, nil
}

func (a *Agent) dispatch(ctx context.Context, round int, call tools.Call) TraceEntry {
	start := time.Now()
	res, err := a.registry.Execute(ctx, call.Name, call.Arguments)
	entry := TraceEntry{
		Round:     round,
		CallID:    call.ID,
		Name:      call.Name,
		Arguments: call.Arguments,
		Result:    res,
		Duration:  time.Since(start),
	}
	if err != nil {
		entry.Error = err.Error()
		log.Warn().Err(err).Str("tool", call.Name).Int("round", round).Msg("tool call rejected")
	} else {
		log.Debug().Str("tool", call.Name).Int("round", round).Bool("is_error", res.IsError).Dur("took", entry.Duration).Msg("tool call")
	}
	return entry
}

// synthesize builds the best-effort answer used when the iteration cap stops
// the conversation: the model's last commentary plus what the final round of
// tools found.
func synthesize(last llm.ToolCalls, trace []TraceEntry, round int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "I reached the limit of %d rounds of lookups before finishing, so this answer is incomplete.", round)
	if t := strings.TrimSpace(last.Text); t != "" {
		sb.WriteString("\n\n")
		sb.WriteString(t)
	}
	var lines []string
	for _, e := range trace {
		if e.Round != round {
			continue
		}
		switch {
		case e.Result.IsError:
			lines = append(lines, fmt.Sprintf("- %s failed: %s", e.Name, e.Result.Rationale))
		case e.Result.Rationale != "":
			lines = append(lines, fmt.Sprintf("- %s: %s", e.Name, e.Result.Rationale))
		default:
			lines = append(lines, fmt.Sprintf("- %s returned a result", e.Name))
		}
	}
	if len(lines) > 0 {
		sb.WriteString("\n\nWhat the last lookups found:\n")
		sb.WriteString(strings.Join(lines, "\n"))
	}
	return sb.String()
}
