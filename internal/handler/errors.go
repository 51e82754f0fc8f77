package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/mealwise/mealwise/internal/agent"
	"github.com/mealwise/mealwise/internal/corpus"
	"github.com/mealwise/mealwise/internal/recipe"
	"github.com/mealwise/mealwise/internal/tools"
)

// statusFor maps domain errors to HTTP status codes. Order matters: a corpus
// error wraps ErrCorpusUnavailable together with its cause, and a timed-out
// chat is a *agent.BackendError wrapping the deadline.
func statusFor(err error) int {
	switch {
	case errors.Is(err, agent.ErrPromptRejected),
		errors.Is(err, corpus.ErrUnknownSource):
		return http.StatusBadRequest
	case errors.Is(err, corpus.ErrSourceNotPermitted):
		return http.StatusForbidden
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	// A corpus that fails validation is a server fault, whatever sentinel it carries.
	case errors.Is(err, agent.ErrCorpusUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, recipe.ErrInvalidQuery),
		errors.Is(err, tools.ErrInvalidArguments):
		return http.StatusBadRequest
	case errors.Is(err, recipe.ErrNotFound), errors.Is(err, tools.ErrUnknownTool):
		return http.StatusNotFound
	case errors.Is(err, agent.ErrBackendFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// sourceParam reads the optional ?source= query parameter.
func sourceParam(r *http.Request) *string {
	if s := r.URL.Query().Get("source"); s != "" {
		return &s
	}
	return nil
}
