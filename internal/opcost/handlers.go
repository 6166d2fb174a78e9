package opcost

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/common"
)

// Handler exposes the operational-cost CRUD surface.
type Handler struct {
	Service  *Service
	Validate *validator.Validate
}

type addCostRequest struct {
	Name   string   `json:"name" validate:"required,max=120"`
	Amount *float64 `json:"amount" validate:"required,gte=0"`
}

// List handles GET /operational-costs.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.List(r.Context())
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, summary)
}

// Add handles POST /operational-costs.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	var req addCostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid JSON body", nil)
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, common.CodeValidation, "invalid request", nil)
		return
	}
	entry, err := h.Service.Add(r.Context(), req.Name, decimal.NewFromFloat(*req.Amount))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"entry": entry})
}

// Delete handles DELETE /operational-costs/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.RenderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
