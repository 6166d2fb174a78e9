package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/domain"
	"github.com/noah-isme/backend-kasir/internal/store"
)

// Store is an in-memory implementation of the store interfaces, used by
// tests and local development without Postgres.
type Store struct {
	mu       sync.RWMutex
	settings *domain.Settings
	items    map[string]domain.InventoryItem
	costs    map[string]domain.CostEntry
	events   []domain.DomainEvent

	// FailFinalPriceFor makes UpdateFinalPrice fail for the given item IDs,
	// simulating a mid-pass persist failure.
	FailFinalPriceFor map[string]error
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		items: map[string]domain.InventoryItem{},
		costs: map[string]domain.CostEntry{},
	}
}

// GetOrInit implements store.SettingsStore.
func (s *Store) GetOrInit(_ context.Context) (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings == nil {
		def := domain.DefaultSettings()
		def.UpdatedAt = time.Now().UTC()
		s.settings = &def
	}
	return cloneSettings(*s.settings), nil
}

// Save implements store.SettingsStore.
func (s *Store) Save(_ context.Context, in domain.Settings) (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in.ID = 1
	in.UpdatedAt = time.Now().UTC()
	copied := cloneSettings(in)
	s.settings = &copied
	return cloneSettings(copied), nil
}

// PutItem inserts or replaces an inventory item. Test seeding helper.
func (s *Store) PutItem(item domain.InventoryItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	s.items[item.ID] = item
}

// Item returns a copy of the stored item by ID.
func (s *Store) Item(id string) (domain.InventoryItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	return item, ok
}

// ListItems implements store.InventoryStore.
func (s *Store) ListItems(_ context.Context, limit, offset int) ([]domain.InventoryItem, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.sortedItems()
	total := len(all)
	if offset >= total {
		return []domain.InventoryItem{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return all[offset:end], total, nil
}

// AllItems implements store.InventoryStore.
func (s *Store) AllItems(_ context.Context) ([]domain.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedItems(), nil
}

// UpdateFinalPrice implements store.InventoryStore.
func (s *Store) UpdateFinalPrice(_ context.Context, id string, price decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.FailFinalPriceFor[id]; ok {
		return err
	}
	item, ok := s.items[id]
	if !ok {
		return store.ErrNotFound
	}
	item.FinalPrice = price
	item.UpdatedAt = time.Now().UTC()
	s.items[id] = item
	return nil
}

// BulkSetMinimumStock implements store.InventoryStore.
func (s *Store) BulkSetMinimumStock(_ context.Context, value int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, item := range s.items {
		item.MinimumStock = value
		item.UpdatedAt = time.Now().UTC()
		s.items[id] = item
	}
	return len(s.items), nil
}

// SumSellingPrices implements store.InventoryStore.
func (s *Store) SumSellingPrices(_ context.Context) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum := decimal.Zero
	for _, item := range s.items {
		sum = sum.Add(item.SellingPrice)
	}
	return sum, nil
}

// ListCosts implements store.CostStore.
func (s *Store) ListCosts(_ context.Context) ([]domain.CostEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.CostEntry, 0, len(s.costs))
	for _, entry := range s.costs {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// AddCost implements store.CostStore.
func (s *Store) AddCost(_ context.Context, entry domain.CostEntry) (domain.CostEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.costs[entry.ID] = entry
	return entry, nil
}

// DeleteCost implements store.CostStore.
func (s *Store) DeleteCost(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.costs[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.costs, id)
	return nil
}

// TotalCost implements store.CostStore.
func (s *Store) TotalCost(_ context.Context) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.costs) == 0 {
		return decimal.Zero, store.ErrNoCostData
	}
	sum := decimal.Zero
	for _, entry := range s.costs {
		sum = sum.Add(entry.Amount)
	}
	return sum, nil
}

// InsertEvent implements store.EventStore.
func (s *Store) InsertEvent(_ context.Context, topic string, payload []byte) (domain.DomainEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev := domain.DomainEvent{
		ID:         uuid.NewString(),
		Topic:      topic,
		Payload:    append([]byte(nil), payload...),
		OccurredAt: time.Now().UTC(),
	}
	s.events = append(s.events, ev)
	return ev, nil
}

// Events returns a copy of all recorded events.
func (s *Store) Events() []domain.DomainEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.DomainEvent(nil), s.events...)
}

func (s *Store) sortedItems() []domain.InventoryItem {
	out := make([]domain.InventoryItem, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out
}

func cloneSettings(s domain.Settings) domain.Settings {
	methods := make([]domain.PaymentMethod, len(s.PaymentMethods))
	for i, m := range s.PaymentMethods {
		copied := m
		copied.Channels = append([]domain.Channel(nil), m.Channels...)
		methods[i] = copied
	}
	s.PaymentMethods = methods
	return s
}
