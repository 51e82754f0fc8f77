package agent

import (
	"strings"
	"testing"
	"time"

	"github.com/mealwise/mealwise/internal/llm"
	"github.com/mealwise/mealwise/internal/tools"
)

// ─── State machine ────────────────────────────────────────────────────────────

func TestMachineTransitions(t *testing.T) {
	tests := []struct {
		from, to State
		ok       bool
	}{
		{StateAwaitingModel, StateInterpretingResponse, true},
		{StateAwaitingModel, StateFailed, true},
		{StateAwaitingModel, StateDispatchingTools, false},
		{StateInterpretingResponse, StateDispatchingTools, true},
		{StateInterpretingResponse, StateDone, true},
		{StateInterpretingResponse, StateAwaitingModel, false},
		{StateDispatchingTools, StateAwaitingModel, true},
		{StateDispatchingTools, StateDone, true},
		{StateDispatchingTools, StateFailed, false},
		{StateDone, StateAwaitingModel, false},
		{StateFailed, StateAwaitingModel, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			m := &machine{state: tt.from}
			err := m.to(tt.to)
			if (err == nil) != tt.ok {
				t.Fatalf("to(%s) error = %v, want ok=%v", tt.to, err, tt.ok)
			}
			if tt.ok && m.state != tt.to {
				t.Errorf("state = %s, want %s", m.state, tt.to)
			}
			if !tt.ok && m.state != tt.from {
				t.Errorf("rejected transition changed state to %s", m.state)
			}
		})
	}
}

func TestTerminal(t *testing.T) {
	for _, s := range []State{StateDone, StateFailed} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []State{StateAwaitingModel, StateInterpretingResponse, StateDispatchingTools} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

// ─── Backoff ──────────────────────────────────────────────────────────────────

func TestBackoffDelay(t *testing.T) {
	base, max := 500*time.Millisecond, 4*time.Second
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 500 * time.Millisecond},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 4 * time.Second},
		{10, 4 * time.Second},
	}
	for _, tt := range tests {
		if got := backoffDelay(base, max, tt.attempt); got != tt.want {
			t.Errorf("backoffDelay(attempt %d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{MaxRetries: -1, RetryBackoff: time.Second, MaxBackoff: time.Millisecond}.withDefaults()
	if o.MaxIterations != DefaultMaxIterations || o.ModelTimeout != DefaultModelTimeout {
		t.Errorf("defaults not applied: %+v", o)
	}
	if o.MaxRetries != 0 {
		t.Errorf("MaxRetries = %d, want 0", o.MaxRetries)
	}
	if o.MaxBackoff != time.Second {
		t.Errorf("MaxBackoff = %v, should be raised to RetryBackoff", o.MaxBackoff)
	}
	if o.SystemPrompt != BaseSystemPrompt {
		t.Error("SystemPrompt should default to BaseSystemPrompt")
	}
}

// ─── Synthesis ────────────────────────────────────────────────────────────────

func TestSynthesize(t *testing.T) {
	trace := []TraceEntry{
		{Round: 2, Name: "filter_courses", Result: tools.Result{Rationale: "found 3 mains"}},
		{Round: 3, Name: "swap_for_healthier", Result: tools.Failure("recipe 9 not found")},
		{Round: 3, Name: "summarize_recipe", Result: tools.Result{Data: map[string]interface{}{}}},
	}
	got := synthesize(llm.ToolCalls{Text: "Checking swaps."}, trace, 3)

	for _, want := range []string{
		"limit of 3 rounds",
		"Checking swaps.",
		"- swap_for_healthier failed: recipe 9 not found",
		"- summarize_recipe returned a result",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
	if strings.Contains(got, "found 3 mains") {
		t.Error("earlier rounds should not be summarised")
	}
}
