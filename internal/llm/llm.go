// Package llm is the seam between the agent loop and a language model
// backend. A backend either answers in text or asks for tool calls.
package llm

import (
	"context"
	"errors"
	"time"

	"github.com/mealwise/mealwise/internal/tools"
)

// ErrMalformedReply is returned when a backend reply is neither a final
// answer nor a usable set of tool calls.
var ErrMalformedReply = errors.New("malformed model reply")

// Role is the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one conversation turn. Assistant turns may carry tool calls;
// tool turns carry the result of exactly one call.
type Message struct {
	Role      Role
	Text      string
	ToolCalls []tools.Call

	// Tool turns only.
	ToolCallID string
	ToolName   string
	IsError    bool
}

// UserMessage builds a user turn.
func UserMessage(text string) Message { return Message{Role: RoleUser, Text: text} }

// ToolMessage builds the tool turn answering call.
func ToolMessage(call tools.Call, res tools.Result) Message {
	return Message{
		Role:       RoleTool,
		Text:       res.Content(),
		ToolCallID: call.ID,
		ToolName:   call.Name,
		IsError:    res.IsError,
	}
}

// Request is one completion call.
type Request struct {
	System   string
	Messages []Message
	Tools    []tools.Schema
	// Timeout bounds the call; zero means no timeout beyond ctx.
	Timeout time.Duration
}

// Usage counts tokens spent by a call.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Add returns the sum of two usages.
func (u Usage) Add(o Usage) Usage {
	return Usage{InputTokens: u.InputTokens + o.InputTokens, OutputTokens: u.OutputTokens + o.OutputTokens}
}

// Reply is either FinalText or ToolCalls.
type Reply interface {
	TokenUsage() Usage
	reply()
}

// FinalText ends the conversation.
type FinalText struct {
	Text  string
	Usage Usage
}

// ToolCalls asks for tools to run, in order. Text is any commentary the
// model emitted alongside the calls.
type ToolCalls struct {
	Calls []tools.Call
	Text  string
	Usage Usage
}

func (r FinalText) TokenUsage() Usage { return r.Usage }
func (r ToolCalls) TokenUsage() Usage { return r.Usage }
func (FinalText) reply()              {}
func (ToolCalls) reply()              {}

// Client is a language model backend.
type Client interface {
	Complete(ctx context.Context, req Request) (Reply, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req Request) (Reply, error)

// Complete calls f.
func (f ClientFunc) Complete(ctx context.Context, req Request) (Reply, error) { return f(ctx, req) }

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}
