package agent

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/mealwise/mealwise/internal/llm"
	"github.com/rs/zerolog/log"
)

func backoffDelay(base, max time.Duration, attempt int) time.Duration {
	d := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if d > max || d <= 0 {
		d = max
	}
	return d
}

// complete asks the model for the next reply, retrying transient failures
// with exponential backoff. It returns the number of attempts made.
func (a *Agent) complete(ctx context.Context, req llm.Request) (llm.Reply, int, error) {
	maxAttempts := a.opts.MaxRetries + 1
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, attempt, err
		}

		reply, err := a.callOnce(ctx, req)
		if err == nil {
			return reply, attempt + 1, nil
		}
		lastErr = err

		if ctx.Err() != nil || llm.IsPermanent(err) || attempt == maxAttempts-1 {
			return nil, attempt + 1, lastErr
		}

		delay := backoffDelay(a.opts.RetryBackoff, a.opts.MaxBackoff, attempt)
		log.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Int("max_attempts", maxAttempts).
			Dur("backoff", delay).
			Msg("model call failed, retrying")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, attempt + 1, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, maxAttempts, lastErr
}

func (a *Agent) callOnce(ctx context.Context, req llm.Request) (llm.Reply, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.opts.ModelTimeout)
	defer cancel()

	reply, err := a.client.Complete(callCtx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("model call timed out after %s: %w", a.opts.ModelTimeout, err)
		}
		return nil, err
	}
	switch r := reply.(type) {
	case llm.FinalText:
		return r, nil
	case llm.ToolCalls:
		if len(r.Calls) == 0 {
			return nil, fmt.Errorf("%w: tool call reply without calls", llm.ErrMalformedReply)
		}
		return r, nil
	}
	return nil, fmt.Errorf("%w: unexpected reply %T", llm.ErrMalformedReply, reply)
}
