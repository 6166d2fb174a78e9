// Package opcost manages the operational-cost entries that feed the
// service-charge calculator.
package opcost

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/domain"
	"github.com/noah-isme/backend-kasir/internal/store"
)

// Service manages cost entries. The total over all entries is what the
// service-charge recompute reads.
type Service struct {
	Costs  store.CostStore
	Logger zerolog.Logger
}

// Summary is the list response: entries plus their running total. A nil
// Total (omitted in JSON) means no entries exist yet, which downstream
// consumers treat differently from an explicit zero.
type Summary struct {
	Entries []domain.CostEntry `json:"entries"`
	Total   *decimal.Decimal   `json:"total,omitempty"`
}

// List returns all cost entries with their total.
func (s *Service) List(ctx context.Context) (Summary, error) {
	entries, err := s.Costs.ListCosts(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list costs: %w", err)
	}
	summary := Summary{Entries: entries}
	total, err := s.Costs.TotalCost(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNoCostData) {
			return summary, nil
		}
		return Summary{}, fmt.Errorf("total costs: %w", err)
	}
	summary.Total = &total
	return summary, nil
}

// Add validates and inserts a cost entry.
func (s *Service) Add(ctx context.Context, name string, amount decimal.Decimal) (domain.CostEntry, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.CostEntry{}, common.ValidationError("cost name is required", map[string]any{"field": "name"})
	}
	if amount.Sign() < 0 {
		return domain.CostEntry{}, common.ValidationError("amount must be non-negative", map[string]any{"field": "amount"})
	}
	entry, err := s.Costs.AddCost(ctx, domain.CostEntry{Name: name, Amount: amount})
	if err != nil {
		return domain.CostEntry{}, fmt.Errorf("add cost: %w", err)
	}
	s.Logger.Info().Str("cost_id", entry.ID).Str("amount", entry.Amount.String()).Msg("cost entry added")
	return entry, nil
}

// Delete removes a cost entry by ID.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.Costs.DeleteCost(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return common.NotFoundError("cost entry not found")
		}
		return fmt.Errorf("delete cost: %w", err)
	}
	return nil
}
