package opcost

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/store/memory"
)

func TestListEmptyHasNoTotal(t *testing.T) {
	svc := &Service{Costs: memory.New(), Logger: zerolog.Nop()}

	summary, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, summary.Entries)
	assert.Nil(t, summary.Total, "no entries means no total, not zero")
}

func TestAddAndTotal(t *testing.T) {
	svc := &Service{Costs: memory.New(), Logger: zerolog.Nop()}
	ctx := context.Background()

	_, err := svc.Add(ctx, "sewa ruko", decimal.RequireFromString("1500000"))
	require.NoError(t, err)
	_, err = svc.Add(ctx, "listrik", decimal.RequireFromString("350000"))
	require.NoError(t, err)

	summary, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, summary.Entries, 2)
	require.NotNil(t, summary.Total)
	assert.True(t, summary.Total.Equal(decimal.RequireFromString("1850000")),
		"total = %s", summary.Total)
}

func TestAddValidation(t *testing.T) {
	svc := &Service{Costs: memory.New(), Logger: zerolog.Nop()}
	ctx := context.Background()

	_, err := svc.Add(ctx, "  ", decimal.RequireFromString("100"))
	appErr, ok := common.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, common.CodeValidation, appErr.Code)

	_, err = svc.Add(ctx, "listrik", decimal.RequireFromString("-5"))
	appErr, ok = common.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, common.CodeValidation, appErr.Code)
}

func TestDelete(t *testing.T) {
	svc := &Service{Costs: memory.New(), Logger: zerolog.Nop()}
	ctx := context.Background()

	entry, err := svc.Add(ctx, "internet", decimal.RequireFromString("250000"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, entry.ID))

	err = svc.Delete(ctx, entry.ID)
	appErr, ok := common.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, common.CodeNotFound, appErr.Code)
}
