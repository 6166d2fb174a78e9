package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/domain"
	"github.com/noah-isme/backend-kasir/internal/events"
	"github.com/noah-isme/backend-kasir/internal/store/memory"
)

func newTestService(mem *memory.Store) *Service {
	return &Service{
		Settings:  mem,
		Inventory: mem,
		Costs:     mem,
		Bus:       &events.Bus{Store: mem},
		Logger:    zerolog.Nop(),
	}
}

func seedItem(mem *memory.Store, id, sku, selling string) {
	mem.PutItem(domain.InventoryItem{
		ID:           id,
		SKU:          sku,
		Name:         "item " + sku,
		SellingPrice: decimal.RequireFromString(selling),
	})
}

func TestApplyTaxRateRepricesInventory(t *testing.T) {
	mem := memory.New()
	seedItem(mem, "a", "SKU-A", "100000")
	seedItem(mem, "b", "SKU-B", "25000")
	svc := newTestService(mem)
	ctx := context.Background()

	_, err := svc.ApplyGlobalDiscount(ctx, decimal.RequireFromString("10"))
	require.NoError(t, err)

	saved, err := svc.ApplyTaxRate(ctx, decimal.RequireFromString("11"))
	require.NoError(t, err)
	assert.True(t, saved.TaxRate.Equal(decimal.RequireFromString("11")))

	got, ok := mem.Item("a")
	require.True(t, ok)
	// 100000 * 0.9 * 1.11
	assert.True(t, got.FinalPrice.Equal(decimal.RequireFromString("99900")),
		"final price = %s", got.FinalPrice)

	got, ok = mem.Item("b")
	require.True(t, ok)
	assert.True(t, got.FinalPrice.Equal(decimal.RequireFromString("24975")),
		"final price = %s", got.FinalPrice)
}

func TestApplyTaxRateRejectsNegative(t *testing.T) {
	svc := newTestService(memory.New())

	_, err := svc.ApplyTaxRate(context.Background(), decimal.RequireFromString("-1"))
	appErr, ok := common.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, common.CodeValidation, appErr.Code)
}

func TestApplyServiceChargeBounds(t *testing.T) {
	svc := newTestService(memory.New())
	ctx := context.Background()

	_, err := svc.ApplyServiceCharge(ctx, decimal.RequireFromString("100.01"))
	appErr, ok := common.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, common.CodeValidation, appErr.Code)

	saved, err := svc.ApplyServiceCharge(ctx, decimal.RequireFromString("100"))
	require.NoError(t, err)
	assert.True(t, saved.ServiceCharge.Equal(decimal.RequireFromString("100")))
}

func TestApplyLowStockAlertPropagates(t *testing.T) {
	mem := memory.New()
	seedItem(mem, "a", "SKU-A", "1000")
	seedItem(mem, "b", "SKU-B", "2000")
	seedItem(mem, "c", "SKU-C", "3000")
	svc := newTestService(mem)

	saved, updated, err := svc.ApplyLowStockAlert(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, 12, saved.LowStockAlert)
	assert.Equal(t, 3, updated)

	for _, id := range []string{"a", "b", "c"} {
		item, ok := mem.Item(id)
		require.True(t, ok)
		assert.Equal(t, 12, item.MinimumStock)
	}

	var seen bool
	for _, ev := range mem.Events() {
		if ev.Topic == events.TopicMinimumStockPropagated {
			seen = true
		}
	}
	assert.True(t, seen, "expected a propagation event")
}

func TestRecomputeServiceChargeNoCostData(t *testing.T) {
	mem := memory.New()
	seedItem(mem, "a", "SKU-A", "10000")
	svc := newTestService(mem)

	res, err := svc.RecomputeServiceCharge(context.Background())
	require.NoError(t, err)
	assert.False(t, res.CostDataPresent)
	assert.True(t, res.Settings.ServiceCharge.IsZero())
	assert.True(t, res.Settings.CalculatedServiceCharge.IsZero())
	assert.Zero(t, res.ItemsUpdated)
}

func TestRecomputeServiceChargeClampsAtCeiling(t *testing.T) {
	mem := memory.New()
	seedItem(mem, "a", "SKU-A", "10000")
	_, err := mem.AddCost(context.Background(), domain.CostEntry{
		Name:   "rent",
		Amount: decimal.RequireFromString("500000"),
	})
	require.NoError(t, err)
	svc := newTestService(mem)

	// 500000 / (10000 * 30) * 100 = 166.67, clamped to 100.
	res, err := svc.RecomputeServiceCharge(context.Background())
	require.NoError(t, err)
	assert.True(t, res.CostDataPresent)
	assert.True(t, res.Detail.ServiceChargePct.Equal(decimal.RequireFromString("100")))
	assert.True(t, res.Settings.ServiceCharge.Equal(decimal.RequireFromString("100")))
	assert.True(t, res.Settings.CalculatedServiceCharge.Equal(decimal.RequireFromString("100")))
	assert.Equal(t, 1, res.ItemsUpdated)
}

func TestRecomputeServiceChargeTypical(t *testing.T) {
	mem := memory.New()
	seedItem(mem, "a", "SKU-A", "60000")
	seedItem(mem, "b", "SKU-B", "40000")
	_, err := mem.AddCost(context.Background(), domain.CostEntry{
		Name:   "electricity",
		Amount: decimal.RequireFromString("150000"),
	})
	require.NoError(t, err)
	svc := newTestService(mem)

	// 150000 / (100000 * 30) * 100 = 5.
	res, err := svc.RecomputeServiceCharge(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Detail.ServiceChargePct.Equal(decimal.RequireFromString("5")),
		"pct = %s", res.Detail.ServiceChargePct)
	assert.Equal(t, 2, res.ItemsUpdated)
}

func TestRecalculateAllPartialFailure(t *testing.T) {
	mem := memory.New()
	seedItem(mem, "a", "SKU-A", "1000")
	seedItem(mem, "b", "SKU-B", "2000")
	seedItem(mem, "c", "SKU-C", "3000")
	boom := errors.New("write timeout")
	mem.FailFinalPriceFor = map[string]error{"b": boom}
	svc := newTestService(mem)

	updated, err := svc.RecalculateAll(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, updated, "items before the failure stay written")

	// The first item kept its rewritten price, the one after the failure
	// was never touched.
	first, _ := mem.Item("a")
	assert.False(t, first.FinalPrice.IsZero())
	last, _ := mem.Item("c")
	assert.True(t, last.FinalPrice.IsZero())
}

// flagLocker records whether the lock is currently held.
type flagLocker struct {
	held bool
}

func (l *flagLocker) WithLock(ctx context.Context, _ string, _ time.Duration, fn func(context.Context) error) error {
	l.held = true
	defer func() { l.held = false }()
	return fn(ctx)
}

// lockCheckStore reports whether each settings save happened under the lock.
type lockCheckStore struct {
	*memory.Store
	locker         *flagLocker
	savedUnderLock []bool
}

func (s *lockCheckStore) Save(ctx context.Context, in domain.Settings) (domain.Settings, error) {
	s.savedUnderLock = append(s.savedUnderLock, s.locker.held)
	return s.Store.Save(ctx, in)
}

func TestPricingInputSavedUnderRecalcLock(t *testing.T) {
	mem := memory.New()
	seedItem(mem, "a", "SKU-A", "10000")
	locker := &flagLocker{}
	settings := &lockCheckStore{Store: mem, locker: locker}
	svc := newTestService(mem)
	svc.Settings = settings
	svc.Lock = locker

	_, err := svc.ApplyTaxRate(context.Background(), decimal.RequireFromString("11"))
	require.NoError(t, err)
	require.Len(t, settings.savedUnderLock, 1)
	assert.True(t, settings.savedUnderLock[0],
		"settings write must not race a concurrent pass")
}

// mutatingInventory delegates to the in-memory store but changes the
// persisted settings after the first price write, simulating a concurrent
// settings update midway through a pass.
type mutatingInventory struct {
	*memory.Store
	writes int
}

func (m *mutatingInventory) UpdateFinalPrice(ctx context.Context, id string, price decimal.Decimal) error {
	m.writes++
	if m.writes == 1 {
		settings, _ := m.Store.GetOrInit(ctx)
		settings.TaxRate = decimal.RequireFromString("99")
		_, _ = m.Store.Save(ctx, settings)
	}
	return m.Store.UpdateFinalPrice(ctx, id, price)
}

func TestRecalculatePassUsesOneSnapshot(t *testing.T) {
	mem := memory.New()
	seedItem(mem, "a", "SKU-A", "10000")
	seedItem(mem, "b", "SKU-B", "10000")
	inv := &mutatingInventory{Store: mem}
	svc := newTestService(mem)
	svc.Inventory = inv
	ctx := context.Background()

	// Tax starts at zero; the mid-pass write bumps it to 99, but every
	// item in this pass must still be priced from the zero snapshot.
	updated, err := svc.RecalculateAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, updated)

	for _, id := range []string{"a", "b"} {
		item, ok := mem.Item(id)
		require.True(t, ok)
		assert.True(t, item.FinalPrice.Equal(decimal.RequireFromString("10000")),
			"item %s priced %s from a stale snapshot", id, item.FinalPrice)
	}
}

func TestRecalculateAllIdempotent(t *testing.T) {
	mem := memory.New()
	seedItem(mem, "a", "SKU-A", "9999")
	svc := newTestService(mem)
	ctx := context.Background()

	_, err := svc.ApplyGlobalDiscount(ctx, decimal.RequireFromString("3"))
	require.NoError(t, err)
	_, err = svc.ApplyTaxRate(ctx, decimal.RequireFromString("7.5"))
	require.NoError(t, err)

	before, _ := mem.Item("a")
	updated, err := svc.RecalculateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	after, _ := mem.Item("a")
	assert.True(t, before.FinalPrice.Equal(after.FinalPrice),
		"repeat pass changed %s to %s", before.FinalPrice, after.FinalPrice)
}
