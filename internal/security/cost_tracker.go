package security

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

const tokensPerMillion = 1_000_000.0

// Default per-million-token prices in USD, used when the config leaves them unset.
const (
	DefaultInputCostPerMTok  = 3.0
	DefaultOutputCostPerMTok = 15.0
)

// CostTracker enforces a per-chat model token limit and logs token spend.
type CostTracker struct {
	maxTokens  int64
	inputCost  float64
	outputCost float64
}

// NewCostTracker returns a tracker. maxTokens <= 0 disables the limit.
func NewCostTracker(maxTokens int64, inputCostPerMTok, outputCostPerMTok float64) *CostTracker {
	if inputCostPerMTok <= 0 {
		inputCostPerMTok = DefaultInputCostPerMTok
	}
	if outputCostPerMTok <= 0 {
		outputCostPerMTok = DefaultOutputCostPerMTok
	}
	return &CostTracker{maxTokens: maxTokens, inputCost: inputCostPerMTok, outputCost: outputCostPerMTok}
}

// CheckLimits returns false and a message if a chat used more tokens than allowed.
func (ct *CostTracker) CheckLimits(inputTokens, outputTokens int64) (bool, string) {
	total := inputTokens + outputTokens
	if ct.maxTokens <= 0 || total <= ct.maxTokens {
		return true, ""
	}
	return false, fmt.Sprintf("token limit exceeded: used %d tokens, limit %d", total, ct.maxTokens)
}

// Cost returns the USD cost of a token count.
func (ct *CostTracker) Cost(inputTokens, outputTokens int64) float64 {
	return float64(inputTokens)/tokensPerMillion*ct.inputCost +
		float64(outputTokens)/tokensPerMillion*ct.outputCost
}

// LogChatCost logs chat cost info with hashed identifiers
func (ct *CostTracker) LogChatCost(prompt, apiKey string, inputTokens, outputTokens int64, rounds int, durationMs int64) {
	costUSD := ct.Cost(inputTokens, outputTokens)
	promptHash := hashStr(prompt)[:16]
	keyHash := hashStr(apiKey)[:16]

	log.Info().
		Str("event", "chat_cost").
		Str("prompt_hash", promptHash).
		Str("api_key_hash", keyHash).
		Int64("input_tokens", inputTokens).
		Int64("output_tokens", outputTokens).
		Int("rounds", rounds).
		Float64("cost_usd", costUSD).
		Int64("duration_ms", durationMs).
		Msgf("Chat cost: %d in / %d out tokens ($%.4f) | Rounds: %d | Duration: %dms",
			inputTokens, outputTokens, costUSD, rounds, durationMs)
}
