package settings

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-kasir/internal/common"
)

// Handler exposes the settings document and payment-method catalog.
type Handler struct {
	Service  *Service
	Validate *validator.Validate
}

type profileRequest struct {
	StoreName     *string `json:"store_name" validate:"omitempty,max=120"`
	Address       *string `json:"address" validate:"omitempty,max=500"`
	LogoURL       *string `json:"logo_url" validate:"omitempty,max=500"`
	ReceiptFooter *string `json:"receipt_footer" validate:"omitempty,max=500"`
	Locale        *string `json:"locale" validate:"omitempty,max=20"`
}

type addMethodRequest struct {
	Method   string `json:"method" validate:"required,max=60"`
	IsActive *bool  `json:"is_active"`
	Logo     string `json:"logo" validate:"omitempty,max=500"`
}

type patchMethodRequest struct {
	IsActive *bool   `json:"is_active"`
	Logo     *string `json:"logo" validate:"omitempty,max=500"`
}

type addChannelRequest struct {
	Name     string `json:"name" validate:"required,max=60"`
	IsActive *bool  `json:"is_active"`
	Logo     string `json:"logo" validate:"omitempty,max=500"`
}

type patchChannelRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=60"`
	IsActive *bool   `json:"is_active"`
	Logo     *string `json:"logo" validate:"omitempty,max=500"`
}

// Get handles GET /settings.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Service.Get(r.Context())
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"settings": settings})
}

// UpdateProfile handles PUT /settings/profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !h.bind(w, r, &req) {
		return
	}
	settings, err := h.Service.UpdateProfile(r.Context(), ProfileUpdate{
		StoreName:     req.StoreName,
		Address:       req.Address,
		LogoURL:       req.LogoURL,
		ReceiptFooter: req.ReceiptFooter,
		Locale:        req.Locale,
	})
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"settings": settings})
}

// AddMethod handles POST /settings/payment-methods.
func (h *Handler) AddMethod(w http.ResponseWriter, r *http.Request) {
	var req addMethodRequest
	if !h.bind(w, r, &req) {
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	settings, err := h.Service.AddMethod(r.Context(), req.Method, req.Logo, active)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"settings": settings})
}

// UpdateMethod handles PATCH /settings/payment-methods/{method}.
func (h *Handler) UpdateMethod(w http.ResponseWriter, r *http.Request) {
	var req patchMethodRequest
	if !h.bind(w, r, &req) {
		return
	}
	settings, err := h.Service.UpdateMethod(r.Context(), chi.URLParam(r, "method"), MethodUpdate{
		IsActive: req.IsActive,
		Logo:     req.Logo,
	})
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"settings": settings})
}

// DeleteMethod handles DELETE /settings/payment-methods/{method}.
func (h *Handler) DeleteMethod(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Service.DeleteMethod(r.Context(), chi.URLParam(r, "method"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"settings": settings})
}

// AddChannel handles POST /settings/payment-methods/{method}/channels.
func (h *Handler) AddChannel(w http.ResponseWriter, r *http.Request) {
	var req addChannelRequest
	if !h.bind(w, r, &req) {
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	settings, err := h.Service.AddChannel(r.Context(), chi.URLParam(r, "method"), req.Name, req.Logo, active)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"settings": settings})
}

// UpdateChannel handles PATCH /settings/payment-methods/{method}/channels/{channel}.
func (h *Handler) UpdateChannel(w http.ResponseWriter, r *http.Request) {
	var req patchChannelRequest
	if !h.bind(w, r, &req) {
		return
	}
	settings, err := h.Service.UpdateChannel(r.Context(),
		chi.URLParam(r, "method"), chi.URLParam(r, "channel"), ChannelUpdate{
			Name:     req.Name,
			IsActive: req.IsActive,
			Logo:     req.Logo,
		})
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"settings": settings})
}

// DeleteChannel handles DELETE /settings/payment-methods/{method}/channels/{channel}.
func (h *Handler) DeleteChannel(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Service.DeleteChannel(r.Context(),
		chi.URLParam(r, "method"), chi.URLParam(r, "channel"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"settings": settings})
}

func (h *Handler) bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid JSON body", nil)
		return false
	}
	if err := h.Validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		var details any
		if errors.As(err, &verrs) {
			fields := make([]map[string]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, map[string]string{"field": fe.Field(), "rule": fe.Tag()})
			}
			details = fields
		}
		common.JSONError(w, http.StatusUnprocessableEntity, common.CodeValidation, "invalid request", details)
		return false
	}
	return true
}
