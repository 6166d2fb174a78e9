package store

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/domain"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrNoCostData is returned when no operational-cost entries exist.
	ErrNoCostData = errors.New("store: no operational cost data")
)

// SettingsStore persists the singleton settings document.
type SettingsStore interface {
	// GetOrInit returns the settings document, creating the default one if
	// none exists yet. It never returns ErrNotFound.
	GetOrInit(ctx context.Context) (domain.Settings, error)
	// Save writes the whole document back.
	Save(ctx context.Context, s domain.Settings) (domain.Settings, error)
}

// InventoryStore exposes the inventory operations the pricing engine needs.
type InventoryStore interface {
	ListItems(ctx context.Context, limit, offset int) ([]domain.InventoryItem, int, error)
	// AllItems streams the full collection for a recalculation pass.
	AllItems(ctx context.Context) ([]domain.InventoryItem, error)
	UpdateFinalPrice(ctx context.Context, id string, price decimal.Decimal) error
	// BulkSetMinimumStock overwrites minimum_stock on every item.
	BulkSetMinimumStock(ctx context.Context, value int) (int, error)
	// SumSellingPrices returns the total selling price across all items.
	SumSellingPrices(ctx context.Context) (decimal.Decimal, error)
}

// CostStore persists itemized operational-cost entries.
type CostStore interface {
	ListCosts(ctx context.Context) ([]domain.CostEntry, error)
	AddCost(ctx context.Context, entry domain.CostEntry) (domain.CostEntry, error)
	DeleteCost(ctx context.Context, id string) error
	// TotalCost sums all entries. When no entries exist it returns
	// ErrNoCostData so callers can distinguish "no data" from a zero total.
	TotalCost(ctx context.Context) (decimal.Decimal, error)
}

// EventStore appends domain events.
type EventStore interface {
	InsertEvent(ctx context.Context, topic string, payload []byte) (domain.DomainEvent, error)
}
