package security

import (
	"crypto/sha256"
	"fmt"

	"github.com/rs/zerolog/log"
)

// AuditLogger logs security-relevant events with hashed identifiers
type AuditLogger struct {
	enabled bool
}

func NewAuditLogger(enabled bool) *AuditLogger {
	return &AuditLogger{enabled: enabled}
}

// ChatAudit is one chat request as seen by the audit log.
type ChatAudit struct {
	Prompt           string
	APIKey           string
	Source           string
	Intent           string
	ToolCalls        []string
	StopReason       string
	ValidationPassed bool
	ExecutionTimeMs  int64
	Error            string
}

// LogChat records a chat request. The prompt and API key are only ever logged
// as hashes.
func (a *AuditLogger) LogChat(c ChatAudit) {
	if !a.enabled {
		return
	}
	evt := log.Info().
		Str("event", "chat_audit").
		Str("prompt_hash", hashStr(c.Prompt)[:16]).
		Str("api_key_hash", hashStr(c.APIKey)[:16]).
		Str("source", c.Source).
		Str("intent", c.Intent).
		Strs("tool_calls", c.ToolCalls).
		Str("stop_reason", c.StopReason).
		Bool("validation_passed", c.ValidationPassed).
		Int64("execution_time_ms", c.ExecutionTimeMs)

	if c.Error != "" {
		evt = evt.Str("error", c.Error)
	}
	evt.Msg("chat audit")
}

// LogToolCall records a direct tool invocation made outside a chat.
func (a *AuditLogger) LogToolCall(tool, apiKey, source string, executionTimeMs int64, success bool, errMsg string) {
	if !a.enabled {
		return
	}
	evt := log.Info().
		Str("event", "tool_audit").
		Str("tool", tool).
		Str("api_key_hash", hashStr(apiKey)[:16]).
		Str("source", source).
		Int64("execution_time_ms", executionTimeMs).
		Bool("success", success)

	if errMsg != "" {
		evt = evt.Str("error", errMsg)
	}
	evt.Msg("audit")
}

func hashStr(s string) string {
	h := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", h)
}
