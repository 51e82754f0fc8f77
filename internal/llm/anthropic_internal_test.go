package llm

import (
	"errors"
	"net/http"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/mealwise/mealwise/internal/tools"
)

func TestToMessageParamsMergesToolResults(t *testing.T) {
	calls := []tools.Call{
		{ID: "c1", Name: "filter_courses", Arguments: map[string]interface{}{"category": "main"}},
		{ID: "c2", Name: "swap_for_healthier"},
	}
	msgs := []Message{
		UserMessage("healthy mains please"),
		{Role: RoleAssistant, Text: "Looking.", ToolCalls: calls},
		ToolMessage(calls[0], tools.Result{Rationale: "2 courses"}),
		ToolMessage(calls[1], tools.Failure("no match")),
		{Role: RoleAssistant, Text: "Here you go."},
	}

	out := toMessageParams(msgs)
	if len(out) != 4 {
		t.Fatalf("messages = %d, want 4", len(out))
	}
	wantRoles := []anthropic.MessageParamRole{
		anthropic.MessageParamRoleUser,
		anthropic.MessageParamRoleAssistant,
		anthropic.MessageParamRoleUser,
		anthropic.MessageParamRoleAssistant,
	}
	for i, m := range out {
		if m.Role.Value != wantRoles[i] {
			t.Errorf("message %d role = %s, want %s", i, m.Role.Value, wantRoles[i])
		}
	}
	if n := len(out[1].Content.Value); n != 3 {
		t.Errorf("assistant blocks = %d, want text + 2 tool uses", n)
	}
	if n := len(out[2].Content.Value); n != 2 {
		t.Errorf("tool result blocks = %d, want 2", n)
	}
}

func TestToToolParams(t *testing.T) {
	schemas := []tools.Schema{{Name: "a"}, {Name: "b"}}
	if got := toToolParams(schemas); len(got) != 2 {
		t.Errorf("tool params = %d, want 2", len(got))
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		status    int
		permanent bool
	}{
		{http.StatusBadRequest, true},
		{http.StatusUnprocessableEntity, true},
		{http.StatusUnauthorized, false},
		{http.StatusTooManyRequests, false},
		{http.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		err := classify(&anthropic.Error{StatusCode: tt.status})
		if IsPermanent(err) != tt.permanent {
			t.Errorf("status %d: permanent = %v, want %v", tt.status, IsPermanent(err), tt.permanent)
		}
	}
	if IsPermanent(classify(errors.New("connection reset"))) {
		t.Error("transport errors should be retryable")
	}
}
