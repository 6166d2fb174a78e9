package pricing

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/common"
)

// Handler exposes the pricing-input mutations and recalculation triggers.
type Handler struct {
	Service  *Service
	Validate *validator.Validate
}

type percentRequest struct {
	Value *float64 `json:"value" validate:"required,gte=0"`
}

type serviceChargeRequest struct {
	Value *float64 `json:"value" validate:"required,gte=0,lte=100"`
}

type lowStockRequest struct {
	Value *int `json:"value" validate:"required,gte=0"`
}

type recalcResponse struct {
	ItemsUpdated int `json:"items_updated"`
}

// UpdateTaxRate handles PUT /settings/tax-rate.
func (h *Handler) UpdateTaxRate(w http.ResponseWriter, r *http.Request) {
	var req percentRequest
	if !h.bind(w, r, &req) {
		return
	}
	settings, err := h.Service.ApplyTaxRate(r.Context(), decimal.NewFromFloat(*req.Value))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"settings": settings})
}

// UpdateGlobalDiscount handles PUT /settings/global-discount.
func (h *Handler) UpdateGlobalDiscount(w http.ResponseWriter, r *http.Request) {
	var req percentRequest
	if !h.bind(w, r, &req) {
		return
	}
	settings, err := h.Service.ApplyGlobalDiscount(r.Context(), decimal.NewFromFloat(*req.Value))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"settings": settings})
}

// UpdateServiceCharge handles PUT /settings/service-charge.
func (h *Handler) UpdateServiceCharge(w http.ResponseWriter, r *http.Request) {
	var req serviceChargeRequest
	if !h.bind(w, r, &req) {
		return
	}
	settings, err := h.Service.ApplyServiceCharge(r.Context(), decimal.NewFromFloat(*req.Value))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"settings": settings})
}

// UpdateLowStockAlert handles PUT /settings/low-stock-alert.
func (h *Handler) UpdateLowStockAlert(w http.ResponseWriter, r *http.Request) {
	var req lowStockRequest
	if !h.bind(w, r, &req) {
		return
	}
	settings, updated, err := h.Service.ApplyLowStockAlert(r.Context(), *req.Value)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"settings":      settings,
		"items_updated": updated,
	})
}

// RecomputeServiceCharge handles POST /settings/service-charge/recompute.
func (h *Handler) RecomputeServiceCharge(w http.ResponseWriter, r *http.Request) {
	res, err := h.Service.RecomputeServiceCharge(r.Context())
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, res)
}

// Recalculate handles POST /pricing/recalculate, the manual full-pass trigger.
func (h *Handler) Recalculate(w http.ResponseWriter, r *http.Request) {
	updated, err := h.Service.RecalculateAll(r.Context())
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, recalcResponse{ItemsUpdated: updated})
}

func (h *Handler) bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid JSON body", nil)
		return false
	}
	if err := h.Validate.Struct(dst); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, common.CodeValidation, "invalid request", validationDetails(err))
		return false
	}
	return true
}

func validationDetails(err error) any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]map[string]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, map[string]string{
			"field": fe.Field(),
			"rule":  fe.Tag(),
		})
	}
	return out
}
