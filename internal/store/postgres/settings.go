package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-kasir/internal/domain"
)

const settingsColumns = `id, store_name, address, logo_url, receipt_footer, locale,
	tax_rate::text, global_discount::text, service_charge::text,
	calculated_service_charge::text, low_stock_alert, payment_methods, updated_at`

// GetOrInit returns the singleton settings row, inserting the default
// document when the table is empty.
func (s *Store) GetOrInit(ctx context.Context) (domain.Settings, error) {
	settings, err := s.getSettings(ctx)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Settings{}, fmt.Errorf("get settings: %w", err)
	}

	def := domain.DefaultSettings()
	created, err := s.Save(ctx, def)
	if err != nil {
		// Lost the insert race against a concurrent first read.
		if isUniqueViolation(err) {
			settings, err := s.getSettings(ctx)
			if err != nil {
				return domain.Settings{}, fmt.Errorf("get settings: %w", err)
			}
			return settings, nil
		}
		return domain.Settings{}, fmt.Errorf("init settings: %w", err)
	}
	return created, nil
}

// Save upserts the whole settings document.
func (s *Store) Save(ctx context.Context, in domain.Settings) (domain.Settings, error) {
	methods, err := json.Marshal(in.PaymentMethods)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("encode payment methods: %w", err)
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO settings (id, store_name, address, logo_url, receipt_footer, locale,
			tax_rate, global_discount, service_charge, calculated_service_charge,
			low_stock_alert, payment_methods, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		ON CONFLICT (id) DO UPDATE SET
			store_name = EXCLUDED.store_name,
			address = EXCLUDED.address,
			logo_url = EXCLUDED.logo_url,
			receipt_footer = EXCLUDED.receipt_footer,
			locale = EXCLUDED.locale,
			tax_rate = EXCLUDED.tax_rate,
			global_discount = EXCLUDED.global_discount,
			service_charge = EXCLUDED.service_charge,
			calculated_service_charge = EXCLUDED.calculated_service_charge,
			low_stock_alert = EXCLUDED.low_stock_alert,
			payment_methods = EXCLUDED.payment_methods,
			updated_at = now()
		RETURNING `+settingsColumns,
		in.StoreName, in.Address, in.LogoURL, in.ReceiptFooter, in.Locale,
		in.TaxRate.String(), in.GlobalDiscount.String(), in.ServiceCharge.String(),
		in.CalculatedServiceCharge.String(), in.LowStockAlert, methods)
	settings, err := scanSettings(row)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	return settings, nil
}

func (s *Store) getSettings(ctx context.Context) (domain.Settings, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+settingsColumns+` FROM settings WHERE id = 1`)
	return scanSettings(row)
}

func scanSettings(row pgx.Row) (domain.Settings, error) {
	var (
		out         domain.Settings
		taxRate     string
		discount    string
		charge      string
		calcCharge  string
		methodsJSON []byte
	)
	err := row.Scan(&out.ID, &out.StoreName, &out.Address, &out.LogoURL, &out.ReceiptFooter,
		&out.Locale, &taxRate, &discount, &charge, &calcCharge, &out.LowStockAlert,
		&methodsJSON, &out.UpdatedAt)
	if err != nil {
		return domain.Settings{}, err
	}
	if out.TaxRate, err = scanDecimal(taxRate); err != nil {
		return domain.Settings{}, fmt.Errorf("parse tax_rate: %w", err)
	}
	if out.GlobalDiscount, err = scanDecimal(discount); err != nil {
		return domain.Settings{}, fmt.Errorf("parse global_discount: %w", err)
	}
	if out.ServiceCharge, err = scanDecimal(charge); err != nil {
		return domain.Settings{}, fmt.Errorf("parse service_charge: %w", err)
	}
	if out.CalculatedServiceCharge, err = scanDecimal(calcCharge); err != nil {
		return domain.Settings{}, fmt.Errorf("parse calculated_service_charge: %w", err)
	}
	out.PaymentMethods = []domain.PaymentMethod{}
	if len(methodsJSON) > 0 {
		if err := json.Unmarshal(methodsJSON, &out.PaymentMethods); err != nil {
			return domain.Settings{}, fmt.Errorf("decode payment methods: %w", err)
		}
	}
	return out, nil
}
