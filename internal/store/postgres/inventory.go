package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/domain"
	"github.com/noah-isme/backend-kasir/internal/store"
)

const itemColumns = `id, sku, name, purchase_price::text, selling_price::text,
	final_price::text, minimum_stock, stock, updated_at`

// ListItems returns a page of inventory items ordered by SKU plus the total count.
func (s *Store) ListItems(ctx context.Context, limit, offset int) ([]domain.InventoryItem, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM inventory_items`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count items: %w", err)
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+itemColumns+`
		FROM inventory_items
		ORDER BY sku
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()
	items, err := collectItems(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// AllItems loads the full collection for a recalculation pass.
func (s *Store) AllItems(ctx context.Context) ([]domain.InventoryItem, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+itemColumns+` FROM inventory_items ORDER BY sku`)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

// UpdateFinalPrice persists the derived price for a single item.
func (s *Store) UpdateFinalPrice(ctx context.Context, id string, price decimal.Decimal) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE inventory_items SET final_price = $2, updated_at = now() WHERE id = $1`,
		id, price.String())
	if err != nil {
		return fmt.Errorf("update final price: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// BulkSetMinimumStock overwrites minimum_stock on every item and reports how
// many rows changed.
func (s *Store) BulkSetMinimumStock(ctx context.Context, value int) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE inventory_items SET minimum_stock = $1, updated_at = now()`, value)
	if err != nil {
		return 0, fmt.Errorf("propagate minimum stock: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// SumSellingPrices totals selling_price across all items.
func (s *Store) SumSellingPrices(ctx context.Context) (decimal.Decimal, error) {
	var raw string
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(sum(selling_price), 0)::text FROM inventory_items`).Scan(&raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum selling prices: %w", err)
	}
	return scanDecimal(raw)
}

func collectItems(rows pgx.Rows) ([]domain.InventoryItem, error) {
	items := make([]domain.InventoryItem, 0, 64)
	for rows.Next() {
		var (
			item     domain.InventoryItem
			purchase string
			selling  string
			final    string
		)
		if err := rows.Scan(&item.ID, &item.SKU, &item.Name, &purchase, &selling,
			&final, &item.MinimumStock, &item.Stock, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		var err error
		if item.PurchasePrice, err = scanDecimal(purchase); err != nil {
			return nil, err
		}
		if item.SellingPrice, err = scanDecimal(selling); err != nil {
			return nil, err
		}
		if item.FinalPrice, err = scanDecimal(final); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
