package inventory

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/domain"
	"github.com/noah-isme/backend-kasir/internal/store/memory"
)

func TestListItemsPagination(t *testing.T) {
	mem := memory.New()
	for _, sku := range []string{"SKU-A", "SKU-B", "SKU-C"} {
		mem.PutItem(domain.InventoryItem{
			SKU:          sku,
			Name:         sku,
			SellingPrice: decimal.RequireFromString("1000"),
		})
	}
	h := &Handler{Inventory: mem, DefaultPerPage: 2, MaxPerPage: 100}

	req := httptest.NewRequest(http.MethodGet, "/inventory/items?page=2", nil)
	rec := httptest.NewRecorder()
	h.ListItems(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Items      []domain.InventoryItem `json:"items"`
		Pagination common.Pagination      `json:"pagination"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, "SKU-C", body.Items[0].SKU)
	assert.Equal(t, 3, body.Pagination.TotalItems)
	assert.Equal(t, 2, body.Pagination.Page)
}

func TestListItemsClampsLimit(t *testing.T) {
	mem := memory.New()
	mem.PutItem(domain.InventoryItem{SKU: "SKU-A", SellingPrice: decimal.RequireFromString("1")})
	h := &Handler{Inventory: mem, DefaultPerPage: 20, MaxPerPage: 50}

	req := httptest.NewRequest(http.MethodGet, "/inventory/items?limit=9999", nil)
	rec := httptest.NewRecorder()
	h.ListItems(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Pagination common.Pagination `json:"pagination"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 50, body.Pagination.PerPage)
}
