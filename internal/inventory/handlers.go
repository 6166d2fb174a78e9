// Package inventory exposes the read-only item listing. Items are seeded
// by migrations or upstream imports; their prices are written exclusively
// by the recalculation engine.
package inventory

import (
	"net/http"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/store"
)

// Handler serves the paginated inventory listing.
type Handler struct {
	Inventory      store.InventoryStore
	DefaultPerPage int
	MaxPerPage     int
}

// ListItems handles GET /inventory/items.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, h.DefaultPerPage)
	if h.MaxPerPage > 0 && perPage > h.MaxPerPage {
		perPage = h.MaxPerPage
	}
	offset := (page - 1) * perPage

	items, total, err := h.Inventory.ListItems(r.Context(), perPage, offset)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"items": items,
		"pagination": common.NewPagination(page, perPage, total),
	})
}
