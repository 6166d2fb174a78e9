package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/domain"
	"github.com/noah-isme/backend-kasir/internal/events"
	"github.com/noah-isme/backend-kasir/internal/lock"
	"github.com/noah-isme/backend-kasir/internal/obs"
	"github.com/noah-isme/backend-kasir/internal/store"
)

// Pass triggers, used as metric labels and event payload fields.
const (
	TriggerTaxRate       = "tax_rate"
	TriggerDiscount      = "global_discount"
	TriggerServiceCharge = "service_charge"
	TriggerRecompute     = "service_charge_recompute"
	TriggerManual        = "manual"
)

// Locker serializes recalculation passes. Satisfied by lock.Locker; tests
// may leave it nil to run passes unguarded.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Service owns the price recalculation pipeline: it mutates pricing inputs
// on the settings document and keeps every inventory item's final price
// consistent with them.
type Service struct {
	Settings  store.SettingsStore
	Inventory store.InventoryStore
	Costs     store.CostStore
	Bus       *events.Bus
	Lock      Locker
	LockTTL   time.Duration
	Logger    zerolog.Logger
}

// Recomputation reports the outcome of a service-charge derivation.
type Recomputation struct {
	Settings        domain.Settings     `json:"settings"`
	Detail          ServiceChargeDetail `json:"detail"`
	CostDataPresent bool                `json:"cost_data_present"`
	ItemsUpdated    int                 `json:"items_updated"`
}

// ApplyTaxRate validates and persists a new tax rate, then reprices the
// whole inventory from the updated settings snapshot.
func (s *Service) ApplyTaxRate(ctx context.Context, rate decimal.Decimal) (domain.Settings, error) {
	if rate.Sign() < 0 {
		return domain.Settings{}, common.ValidationError("tax rate must be non-negative", map[string]any{"field": "value"})
	}
	return s.applyPricingInput(ctx, TriggerTaxRate, func(settings *domain.Settings) {
		settings.TaxRate = rate
	})
}

// ApplyGlobalDiscount validates and persists a new global discount, then
// reprices the whole inventory.
func (s *Service) ApplyGlobalDiscount(ctx context.Context, pct decimal.Decimal) (domain.Settings, error) {
	if pct.Sign() < 0 {
		return domain.Settings{}, common.ValidationError("global discount must be non-negative", map[string]any{"field": "value"})
	}
	return s.applyPricingInput(ctx, TriggerDiscount, func(settings *domain.Settings) {
		settings.GlobalDiscount = pct
	})
}

// ApplyServiceCharge persists a user-set service charge. Unlike tax and
// discount the charge is capped at 100 percent.
func (s *Service) ApplyServiceCharge(ctx context.Context, pct decimal.Decimal) (domain.Settings, error) {
	if pct.Sign() < 0 {
		return domain.Settings{}, common.ValidationError("service charge must be non-negative", map[string]any{"field": "value"})
	}
	if pct.GreaterThan(maxServiceCharge) {
		return domain.Settings{}, common.ValidationError("service charge cannot exceed 100", map[string]any{"field": "value"})
	}
	return s.applyPricingInput(ctx, TriggerServiceCharge, func(settings *domain.Settings) {
		settings.ServiceCharge = pct
	})
}

// ApplyLowStockAlert persists a new low-stock threshold and overwrites
// minimum_stock on every inventory item. Per-item overrides do not survive
// a global push.
func (s *Service) ApplyLowStockAlert(ctx context.Context, value int) (domain.Settings, int, error) {
	if value < 0 {
		return domain.Settings{}, 0, common.ValidationError("low stock alert must be non-negative", map[string]any{"field": "value"})
	}
	settings, err := s.Settings.GetOrInit(ctx)
	if err != nil {
		return domain.Settings{}, 0, fmt.Errorf("load settings: %w", err)
	}
	settings.LowStockAlert = value
	saved, err := s.Settings.Save(ctx, settings)
	if err != nil {
		return domain.Settings{}, 0, fmt.Errorf("save settings: %w", err)
	}
	updated, err := s.Inventory.BulkSetMinimumStock(ctx, value)
	if err != nil {
		return saved, updated, fmt.Errorf("propagate minimum stock: %w", err)
	}
	if obs.MinimumStockPropagated != nil {
		obs.MinimumStockPropagated.Inc()
	}
	s.Logger.Info().Int("low_stock_alert", value).Int("items_updated", updated).
		Msg("minimum stock propagated")
	s.emit(ctx, events.TopicMinimumStockPropagated, map[string]any{
		"low_stock_alert": value,
		"items_updated":   updated,
	})
	return saved, updated, nil
}

// RecomputeServiceCharge derives the service charge from operational cost
// and projected monthly revenue, persists it as both the calculated record
// and the active value, and reprices the inventory. When no operational-cost
// entries exist the settings are returned unmodified: no data, no claim.
func (s *Service) RecomputeServiceCharge(ctx context.Context) (Recomputation, error) {
	totalCost, err := s.Costs.TotalCost(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNoCostData) {
			settings, getErr := s.Settings.GetOrInit(ctx)
			if getErr != nil {
				return Recomputation{}, fmt.Errorf("load settings: %w", getErr)
			}
			s.Logger.Info().Msg("service charge recompute skipped: no operational cost data")
			s.countRecompute("no_data")
			return Recomputation{Settings: settings, CostDataPresent: false}, nil
		}
		s.countRecompute("error")
		return Recomputation{}, fmt.Errorf("read operational cost: %w", err)
	}

	totalValue, err := s.Inventory.SumSellingPrices(ctx)
	if err != nil {
		s.countRecompute("error")
		return Recomputation{}, fmt.Errorf("sum inventory value: %w", err)
	}

	detail := ComputeServiceCharge(totalCost, totalValue)
	s.Logger.Info().
		Str("total_operational_cost", detail.TotalOperationalCost.String()).
		Str("total_inventory_value", detail.TotalInventoryValue.String()).
		Str("projected_monthly_revenue", detail.ProjectedMonthlyRevenue.String()).
		Str("service_charge_pct", detail.ServiceChargePct.String()).
		Msg("service charge derived")

	var saved domain.Settings
	updated, err := s.lockedPass(ctx, TriggerRecompute, func(ctx context.Context) (domain.Settings, error) {
		settings, err := s.Settings.GetOrInit(ctx)
		if err != nil {
			return domain.Settings{}, fmt.Errorf("load settings: %w", err)
		}
		settings.CalculatedServiceCharge = detail.ServiceChargePct
		settings.ServiceCharge = detail.ServiceChargePct
		if saved, err = s.Settings.Save(ctx, settings); err != nil {
			return domain.Settings{}, fmt.Errorf("save settings: %w", err)
		}
		return saved, nil
	})
	result := Recomputation{Settings: saved, Detail: detail, CostDataPresent: true, ItemsUpdated: updated}
	if err != nil {
		s.countRecompute("error")
		return result, err
	}
	s.countRecompute("ok")
	s.emit(ctx, events.TopicServiceChargeRecomputed, map[string]any{
		"service_charge_pct": detail.ServiceChargePct.String(),
		"items_updated":      updated,
	})
	return result, nil
}

// RecalculateAll runs a full repricing pass from the current settings.
// Exposed for the manual trigger endpoint.
func (s *Service) RecalculateAll(ctx context.Context) (int, error) {
	return s.lockedPass(ctx, TriggerManual, func(ctx context.Context) (domain.Settings, error) {
		settings, err := s.Settings.GetOrInit(ctx)
		if err != nil {
			return domain.Settings{}, fmt.Errorf("load settings: %w", err)
		}
		return settings, nil
	})
}

func (s *Service) applyPricingInput(ctx context.Context, trigger string, mutate func(*domain.Settings)) (domain.Settings, error) {
	var saved domain.Settings
	_, err := s.lockedPass(ctx, trigger, func(ctx context.Context) (domain.Settings, error) {
		settings, err := s.Settings.GetOrInit(ctx)
		if err != nil {
			return domain.Settings{}, fmt.Errorf("load settings: %w", err)
		}
		mutate(&settings)
		if saved, err = s.Settings.Save(ctx, settings); err != nil {
			return domain.Settings{}, fmt.Errorf("save settings: %w", err)
		}
		return saved, nil
	})
	if err != nil {
		return saved, err
	}
	s.emit(ctx, events.TopicSettingsUpdated, map[string]any{
		"trigger":         trigger,
		"tax_rate":        saved.TaxRate.String(),
		"global_discount": saved.GlobalDiscount.String(),
		"service_charge":  saved.ServiceCharge.String(),
	})
	return saved, nil
}

// lockedPass acquires the shared recalc lock, runs prepare to produce the
// settings snapshot (including any read-mutate-save of the document), then
// reprices the whole inventory from that snapshot. Holding the lock across
// the settings write as well as the pass means two concurrent input changes
// cannot leave the settings row from one write and the item prices from the
// other pass. On a mid-pass failure the error carries how many items were
// already rewritten; earlier writes are not rolled back.
func (s *Service) lockedPass(ctx context.Context, trigger string, prepare func(context.Context) (domain.Settings, error)) (int, error) {
	updated := 0
	run := func(ctx context.Context) error {
		settings, err := prepare(ctx)
		if err != nil {
			return err
		}
		updated, err = s.runPass(ctx, settings, trigger)
		return err
	}

	var err error
	if s.Lock != nil {
		err = s.Lock.WithLock(ctx, lock.RecalcKey, s.lockTTL(), run)
	} else {
		err = run(ctx)
	}
	if err != nil {
		s.observePass(trigger, "error", time.Now(), updated)
		return updated, err
	}
	s.emit(ctx, events.TopicPricesRecalculated, map[string]any{
		"trigger":       trigger,
		"items_updated": updated,
	})
	return updated, nil
}

// runPass reprices every item from one (discount, tax) snapshot taken from
// the provided settings. Callers hold the recalc lock.
func (s *Service) runPass(ctx context.Context, settings domain.Settings, trigger string) (int, error) {
	start := time.Now()
	discount := settings.GlobalDiscount
	tax := settings.TaxRate

	items, err := s.Inventory.AllItems(ctx)
	if err != nil {
		return 0, fmt.Errorf("load inventory: %w", err)
	}
	s.Logger.Info().
		Str("trigger", trigger).
		Str("global_discount", discount.String()).
		Str("tax_rate", tax.String()).
		Int("items", len(items)).
		Msg("recalculation pass started")

	updated := 0
	for _, item := range items {
		final := FinalPrice(item.SellingPrice, discount, tax)
		if err := s.Inventory.UpdateFinalPrice(ctx, item.ID, final); err != nil {
			return updated, fmt.Errorf("update final price for %s (%d/%d updated): %w",
				item.SKU, updated, len(items), err)
		}
		updated++
	}
	s.observePass(trigger, "ok", start, updated)
	s.Logger.Info().Str("trigger", trigger).Int("items_updated", updated).
		Msg("recalculation pass completed")
	return updated, nil
}

func (s *Service) lockTTL() time.Duration {
	if s.LockTTL > 0 {
		return s.LockTTL
	}
	return time.Minute
}

func (s *Service) emit(ctx context.Context, topic string, payload any) {
	if s.Bus == nil {
		return
	}
	if _, err := s.Bus.Emit(ctx, topic, payload); err != nil {
		s.Logger.Error().Err(err).Str("topic", topic).Msg("emit event")
	}
}

func (s *Service) observePass(trigger, result string, start time.Time, updated int) {
	if obs.RecalcPassTotal != nil {
		obs.RecalcPassTotal.WithLabelValues(trigger, result).Inc()
	}
	if result == "ok" && obs.RecalcItemsUpdated != nil {
		obs.RecalcItemsUpdated.Add(float64(updated))
	}
	if result == "ok" && obs.RecalcPassDuration != nil {
		obs.RecalcPassDuration.WithLabelValues(trigger).Observe(obs.DurationMillis(time.Since(start)))
	}
}

func (s *Service) countRecompute(result string) {
	if obs.ServiceChargeRecomputeTotal != nil {
		obs.ServiceChargeRecomputeTotal.WithLabelValues(result).Inc()
	}
}
