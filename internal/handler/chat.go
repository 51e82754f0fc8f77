package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mealwise/mealwise/internal/models"
)

// ChatService answers chat requests. *agent.MealHandler implements it.
type ChatService interface {
	Handle(ctx context.Context, req *models.ChatRequest, apiKey string) (*models.ChatResponse, error)
}

// ChatHandler handles POST /api/v1/chat
type ChatHandler struct {
	meals ChatService
}

func NewChatHandler(meals ChatService) *ChatHandler {
	return &ChatHandler{meals: meals}
}

// Chat handles POST /api/v1/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Prompt == "" {
		models.WriteError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	apiKey := r.Header.Get("X-API-Key")

	resp, err := h.meals.Handle(r.Context(), &req, apiKey)
	if err != nil {
		// Rejected prompts come back with a partial response explaining why.
		if resp != nil {
			models.WriteJSON(w, statusFor(err), resp)
			return
		}
		models.WriteError(w, statusFor(err), err.Error())
		return
	}

	models.WriteJSON(w, http.StatusOK, resp)
}
