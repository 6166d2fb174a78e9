package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/domain"
	"github.com/noah-isme/backend-kasir/internal/store"
)

// ListCosts returns all operational-cost entries oldest first.
func (s *Store) ListCosts(ctx context.Context) ([]domain.CostEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, amount::text, created_at
		FROM operational_costs
		ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list costs: %w", err)
	}
	defer rows.Close()
	entries := make([]domain.CostEntry, 0, 16)
	for rows.Next() {
		var (
			entry domain.CostEntry
			raw   string
		)
		if err := rows.Scan(&entry.ID, &entry.Name, &raw, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cost entry: %w", err)
		}
		if entry.Amount, err = scanDecimal(raw); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// AddCost inserts a new cost entry.
func (s *Store) AddCost(ctx context.Context, entry domain.CostEntry) (domain.CostEntry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO operational_costs (id, name, amount, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING created_at`,
		entry.ID, entry.Name, entry.Amount.String()).Scan(&entry.CreatedAt)
	if err != nil {
		return domain.CostEntry{}, fmt.Errorf("add cost: %w", err)
	}
	return entry, nil
}

// DeleteCost removes a cost entry by ID.
func (s *Store) DeleteCost(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM operational_costs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete cost: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// TotalCost sums all entries, distinguishing "no data" from a zero total.
func (s *Store) TotalCost(ctx context.Context) (decimal.Decimal, error) {
	var (
		count int
		raw   string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT count(*), COALESCE(sum(amount), 0)::text FROM operational_costs`).Scan(&count, &raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("total cost: %w", err)
	}
	if count == 0 {
		return decimal.Zero, store.ErrNoCostData
	}
	return scanDecimal(raw)
}
