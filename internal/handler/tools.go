package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mealwise/mealwise/internal/models"
	"github.com/mealwise/mealwise/internal/tools"
)

// ToolService lists and runs tools. *agent.MealHandler implements it.
type ToolService interface {
	Tools(ctx context.Context, source *string) ([]tools.Schema, error)
	CallTool(ctx context.Context, req *models.ToolCallRequest, name, apiKey string) (tools.Result, error)
}

// ToolsHandler handles the tool endpoints
type ToolsHandler struct {
	svc ToolService
}

func NewToolsHandler(svc ToolService) *ToolsHandler {
	return &ToolsHandler{svc: svc}
}

// List handles GET /api/v1/tools
func (h *ToolsHandler) List(w http.ResponseWriter, r *http.Request) {
	schemas, err := h.svc.Tools(r.Context(), sourceParam(r))
	if err != nil {
		models.WriteError(w, statusFor(err), "failed to list tools: "+err.Error())
		return
	}
	infos := make([]models.ToolInfo, 0, len(schemas))
	for _, s := range schemas {
		infos = append(infos, models.ToolInfo{
			Name:        s.Name,
			Description: s.Description,
			InputSchema: s.JSONSchema(),
		})
	}
	models.WriteJSON(w, http.StatusOK, models.ToolsResponse{
		Status: "success",
		Tools:  infos,
		Count:  len(infos),
	})
}

// Call handles POST /api/v1/tools/{name}
func (h *ToolsHandler) Call(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req models.ToolCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.SetDefaults()

	res, err := h.svc.CallTool(r.Context(), &req, name, r.Header.Get("X-API-Key"))
	if err != nil {
		models.WriteError(w, statusFor(err), err.Error())
		return
	}

	status, code := "success", http.StatusOK
	if res.IsError {
		status, code = "error", http.StatusUnprocessableEntity
	}
	models.WriteJSON(w, code, models.ToolCallResponse{
		Status:    status,
		Tool:      name,
		Result:    res.Data,
		Rationale: res.Rationale,
		IsError:   res.IsError,
	})
}
