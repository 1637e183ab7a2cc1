package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/sushi-bot/internal/exchange"
	"gitlab.com/yelinaung/sushi-bot/internal/models"
)

var baseTime = time.Date(2026, 4, 1, 19, 30, 0, 0, time.UTC)

func meal(id string, userID int64, brand string, region models.Region, total int64, plates int, offset time.Duration) *models.MealRecord {
	price := decimal.NewFromInt(total)
	return &models.MealRecord{
		ID:          id,
		UserID:      userID,
		BrandName:   brand,
		Date:        baseTime.Add(offset),
		Items:       []models.MealItem{{Name: "plate", Price: price, Quantity: 1, Type: models.ItemTypePlate}},
		Subtotal:    price,
		TotalPrice:  price,
		TotalPlates: plates,
		Region:      region,
	}
}

func newTestService() (*Service, *MemoryStore) {
	store := NewMemoryStore()
	return NewService(store, exchange.NewStaticService(nil, baseTime)), store
}

func TestService_RecordAssignsNumbers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService()

	first := meal("m1", 1, "Sushiro", models.RegionHK, 100, 5, 0)
	second := meal("m2", 1, "Kura Sushi", models.RegionHK, 50, 3, time.Hour)
	other := meal("m3", 2, "Sushiro", models.RegionHK, 70, 4, 0)

	require.NoError(t, svc.Record(ctx, first))
	require.NoError(t, svc.Record(ctx, second))
	require.NoError(t, svc.Record(ctx, other))

	assert.Equal(t, int64(1), first.UserMealNumber)
	assert.Equal(t, int64(2), second.UserMealNumber)
	assert.Equal(t, int64(1), other.UserMealNumber)
	assert.Equal(t, models.CurrencyHKD, first.CurrencySymbol)

	got, err := svc.Get(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "Kura Sushi", got.BrandName)
}

func TestService_RecordValidates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService()

	tests := []struct {
		name   string
		mutate func(*models.MealRecord)
	}{
		{"no brand", func(r *models.MealRecord) { r.BrandName = " " }},
		{"no items", func(r *models.MealRecord) { r.Items = nil }},
		{"negative total", func(r *models.MealRecord) { r.TotalPrice = decimal.NewFromInt(-1) }},
		{"negative item price", func(r *models.MealRecord) { r.Items[0].Price = decimal.NewFromInt(-1) }},
		{"negative plates", func(r *models.MealRecord) { r.TotalPlates = -2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := meal("x", 1, "Sushiro", models.RegionHK, 10, 1, 0)
			tt.mutate(rec)
			require.ErrorIs(t, svc.Record(ctx, rec), ErrInvalidRecord)
		})
	}
}

func TestService_ListNewestFirstWithFilters(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService()

	for i, region := range []models.Region{models.RegionHK, models.RegionTaiwan, models.RegionHK, models.RegionMainland} {
		rec := meal(fmt.Sprintf("m%d", i), 1, "Sushiro", region, 10, 1, time.Duration(i)*24*time.Hour)
		require.NoError(t, svc.Record(ctx, rec))
	}

	all, err := svc.List(ctx, 1, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "m3", all[0].ID)
	assert.Equal(t, "m0", all[3].ID)

	hk := models.RegionHK
	onlyHK, err := svc.List(ctx, 1, Filter{Region: &hk})
	require.NoError(t, err)
	require.Len(t, onlyHK, 2)
	assert.Equal(t, "m2", onlyHK[0].ID)

	window, err := svc.List(ctx, 1, Filter{From: baseTime.Add(24 * time.Hour), To: baseTime.Add(72 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, window, 2)
	assert.Equal(t, "m2", window[0].ID)
	assert.Equal(t, "m1", window[1].ID)

	limited, err := svc.List(ctx, 1, Filter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestService_Delete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, store := newTestService()

	rec := meal("m1", 1, "Sushiro", models.RegionHK, 10, 1, 0)
	require.NoError(t, svc.Record(ctx, rec))

	require.ErrorIs(t, svc.Delete(ctx, 2, "m1"), ErrNotFound)
	require.ErrorIs(t, svc.Delete(ctx, 1, "missing"), ErrNotFound)
	require.NoError(t, svc.Delete(ctx, 1, "m1"))

	_, err := store.GetByID(ctx, "m1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestService_StatsConvertsCurrencies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, store := newTestService()

	require.NoError(t, svc.Record(ctx, meal("m1", 1, "Sushiro", models.RegionHK, 100, 5, 0)))
	require.NoError(t, svc.Record(ctx, meal("m2", 1, "Sushiro", models.RegionTaiwan, 400, 10, time.Hour)))
	require.NoError(t, svc.Record(ctx, meal("m3", 1, "Kura Sushi", models.RegionMainland, 50, 2, 2*time.Hour)))
	require.NoError(t, svc.Record(ctx, meal("m4", 2, "Genki Sushi", models.RegionHK, 999, 9, 0)))

	stats, err := svc.Stats(ctx, 1, models.CurrencyHKD, Filter{Limit: 1})
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Meals)
	assert.Equal(t, 17, stats.Plates)
	assert.True(t, stats.Spend.Equal(decimal.NewFromInt(254)), "got %s", stats.Spend)
	assert.Equal(t, models.CurrencyHKD, stats.Currency)

	require.Len(t, stats.ByBrand, 2)
	assert.Equal(t, "Sushiro", stats.ByBrand[0].BrandName)
	assert.True(t, stats.ByBrand[0].Spend.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, 2, stats.ByBrand[0].Meals)

	stored, err := store.GetByID(ctx, "m2")
	require.NoError(t, err)
	assert.True(t, stored.TotalPrice.Equal(decimal.NewFromInt(400)), "stats never rewrite stored amounts")
	assert.Equal(t, models.CurrencyTWD, stored.CurrencySymbol)
}

func TestService_StatsEmpty(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService()
	stats, err := svc.Stats(context.Background(), 1, models.CurrencyCNY, Filter{})
	require.NoError(t, err)
	assert.Zero(t, stats.Meals)
	assert.True(t, stats.Spend.IsZero())
	assert.Empty(t, stats.ByBrand)
}
