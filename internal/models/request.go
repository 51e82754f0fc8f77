package models

// ChatRequest for POST /api/v1/chat
type ChatRequest struct {
	Prompt string `json:"prompt"`
	// Source names the corpus, e.g. "dir:///data/mealrec" or "es://recipes".
	// Empty means the server's default corpus.
	Source       *string `json:"source,omitempty"`
	Timeout      int     `json:"timeout"` // seconds
	IncludeTrace bool    `json:"include_trace"`
}

// Chat timeout bounds in seconds.
const (
	DefaultChatTimeout = 120
	MinChatTimeout     = 10
)

// SetDefaults fills and clamps Timeout. maxTimeout is the server's agent
// timeout: it is both the default and the ceiling, so no chat outlives the
// HTTP write deadline derived from it. A non-positive maxTimeout means
// DefaultChatTimeout.
func (r *ChatRequest) SetDefaults(maxTimeout int) {
	if maxTimeout <= 0 {
		maxTimeout = DefaultChatTimeout
	}
	minTimeout := MinChatTimeout
	if minTimeout > maxTimeout {
		minTimeout = maxTimeout
	}
	if r.Timeout == 0 || r.Timeout > maxTimeout {
		r.Timeout = maxTimeout
	}
	if r.Timeout < minTimeout {
		r.Timeout = minTimeout
	}
}

// ToolCallRequest for POST /api/v1/tools/{name}
type ToolCallRequest struct {
	Arguments map[string]interface{} `json:"arguments"`
	Source    *string                `json:"source,omitempty"`
}

func (r *ToolCallRequest) SetDefaults() {
	if r.Arguments == nil {
		r.Arguments = map[string]interface{}{}
	}
}
