package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/sushi-bot/internal/database"
	"gitlab.com/yelinaung/sushi-bot/internal/history"
	"gitlab.com/yelinaung/sushi-bot/internal/models"
)

func newMeal(id string, userID int64, date time.Time, region models.Region) *models.MealRecord {
	return &models.MealRecord{
		ID:        id,
		UserID:    userID,
		BrandID:   "sushiro",
		BrandName: "Sushiro",
		Date:      date,
		Items: []models.MealItem{
			{Name: "Red plate", Price: decimal.NewFromInt(12), Quantity: 3, Type: models.ItemTypePlate, Color: "#EF4444"},
			{Name: "Miso soup", Price: decimal.NewFromInt(10), Quantity: 1, Type: models.ItemTypeSide, Icon: "soup_kitchen"},
		},
		Subtotal:            decimal.NewFromInt(46),
		ServiceChargeAmount: decimal.RequireFromString("4.6"),
		ServiceChargeRule:   models.ServiceChargeConfig{Type: models.ServiceChargePercent, Value: decimal.NewFromInt(10)},
		HeadCount:           2,
		TotalPrice:          decimal.RequireFromString("50.6"),
		TotalPlates:         3,
		Region:              region,
		CurrencySymbol:      region.CurrencySymbol(),
	}
}

func TestMealRepository_CreateAndGet(t *testing.T) {
	tx := database.TestTx(t)
	ctx := context.Background()

	require.NoError(t, NewUserRepository(tx).UpsertUser(ctx, &models.User{ID: 600, Username: "eater"}))
	repo := NewMealRepository(tx)

	date := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	first := newMeal("m-1", 600, date, models.RegionHK)
	require.NoError(t, repo.Create(ctx, first))
	require.Equal(t, int64(1), first.UserMealNumber)
	require.False(t, first.CreatedAt.IsZero())

	second := newMeal("m-2", 600, date.Add(time.Hour), models.RegionHK)
	require.NoError(t, repo.Create(ctx, second))
	require.Equal(t, int64(2), second.UserMealNumber)

	got, err := repo.GetByID(ctx, "m-1")
	require.NoError(t, err)
	require.Equal(t, "Sushiro", got.BrandName)
	require.True(t, got.TotalPrice.Equal(decimal.RequireFromString("50.6")))
	require.Equal(t, models.ServiceChargePercent, got.ServiceChargeRule.Type)
	require.Equal(t, 2, got.HeadCount)
	require.Len(t, got.Items, 2)
	require.Equal(t, "Red plate", got.Items[0].Name)
	require.Equal(t, 3, got.Items[0].Quantity)
	require.Equal(t, models.ItemTypeSide, got.Items[1].Type)

	byNumber, err := repo.GetByUserAndNumber(ctx, 600, 2)
	require.NoError(t, err)
	require.Equal(t, "m-2", byNumber.ID)

	_, err = repo.GetByID(ctx, "missing")
	require.ErrorIs(t, err, history.ErrNotFound)
	_, err = repo.GetByUserAndNumber(ctx, 600, 99)
	require.ErrorIs(t, err, history.ErrNotFound)
}

func TestMealRepository_KeepsFullPrecision(t *testing.T) {
	tx := database.TestTx(t)
	ctx := context.Background()

	require.NoError(t, NewUserRepository(tx).UpsertUser(ctx, &models.User{ID: 601, Username: "precise"}))
	repo := NewMealRepository(tx)

	meal := newMeal("m-precise", 601, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC), models.RegionHK)
	meal.Items = []models.MealItem{
		{Name: "Odd plate", Price: decimal.RequireFromString("19.99"), Quantity: 1, Type: models.ItemTypePlate},
	}
	meal.Subtotal = decimal.RequireFromString("19.99")
	meal.ServiceChargeRule = models.ServiceChargeConfig{Type: models.ServiceChargePercent, Value: decimal.RequireFromString("12.5")}
	meal.ServiceChargeAmount = decimal.RequireFromString("2.49875")
	meal.TotalPrice = decimal.RequireFromString("22.48875")
	meal.TotalPlates = 1
	require.NoError(t, repo.Create(ctx, meal))

	got, err := repo.GetByID(ctx, "m-precise")
	require.NoError(t, err)
	require.True(t, got.ServiceChargeAmount.Equal(decimal.RequireFromString("2.49875")), got.ServiceChargeAmount.String())
	require.True(t, got.TotalPrice.Equal(decimal.RequireFromString("22.48875")), got.TotalPrice.String())
}

func TestMealRepository_NumbersArePerUser(t *testing.T) {
	tx := database.TestTx(t)
	ctx := context.Background()

	users := NewUserRepository(tx)
	require.NoError(t, users.UpsertUser(ctx, &models.User{ID: 601, Username: "a"}))
	require.NoError(t, users.UpsertUser(ctx, &models.User{ID: 602, Username: "b"}))
	repo := NewMealRepository(tx)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := newMeal("pa-1", 601, now, models.RegionHK)
	b := newMeal("pb-1", 602, now, models.RegionHK)
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))
	require.Equal(t, int64(1), a.UserMealNumber)
	require.Equal(t, int64(1), b.UserMealNumber)
}

func TestMealRepository_ListByUser(t *testing.T) {
	tx := database.TestTx(t)
	ctx := context.Background()

	require.NoError(t, NewUserRepository(tx).UpsertUser(ctx, &models.User{ID: 603, Username: "lister"}))
	repo := NewMealRepository(tx)

	base := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, newMeal("l-1", 603, base, models.RegionHK)))
	require.NoError(t, repo.Create(ctx, newMeal("l-2", 603, base.AddDate(0, 0, 1), models.RegionTaiwan)))
	require.NoError(t, repo.Create(ctx, newMeal("l-3", 603, base.AddDate(0, 0, 2), models.RegionHK)))

	t.Run("newest first with items", func(t *testing.T) {
		meals, err := repo.ListByUser(ctx, 603, history.Filter{})
		require.NoError(t, err)
		require.Len(t, meals, 3)
		require.Equal(t, "l-3", meals[0].ID)
		require.Equal(t, "l-1", meals[2].ID)
		require.Len(t, meals[1].Items, 2)
	})

	t.Run("region filter", func(t *testing.T) {
		region := models.RegionTaiwan
		meals, err := repo.ListByUser(ctx, 603, history.Filter{Region: &region})
		require.NoError(t, err)
		require.Len(t, meals, 1)
		require.Equal(t, "l-2", meals[0].ID)
		require.Equal(t, "NT$", meals[0].CurrencySymbol)
	})

	t.Run("date range is half open", func(t *testing.T) {
		meals, err := repo.ListByUser(ctx, 603, history.Filter{
			From: base.AddDate(0, 0, 1),
			To:   base.AddDate(0, 0, 2),
		})
		require.NoError(t, err)
		require.Len(t, meals, 1)
		require.Equal(t, "l-2", meals[0].ID)
	})

	t.Run("limit", func(t *testing.T) {
		meals, err := repo.ListByUser(ctx, 603, history.Filter{Limit: 2})
		require.NoError(t, err)
		require.Len(t, meals, 2)
	})

	t.Run("other user sees nothing", func(t *testing.T) {
		meals, err := repo.ListByUser(ctx, 9999, history.Filter{})
		require.NoError(t, err)
		require.Empty(t, meals)
	})
}

func TestMealRepository_Delete(t *testing.T) {
	tx := database.TestTx(t)
	ctx := context.Background()

	require.NoError(t, NewUserRepository(tx).UpsertUser(ctx, &models.User{ID: 604, Username: "deleter"}))
	repo := NewMealRepository(tx)

	require.NoError(t, repo.Create(ctx, newMeal("d-1", 604, time.Now(), models.RegionMainland)))
	require.NoError(t, repo.Delete(ctx, "d-1"))

	_, err := repo.GetByID(ctx, "d-1")
	require.ErrorIs(t, err, history.ErrNotFound)
	require.ErrorIs(t, repo.Delete(ctx, "d-1"), history.ErrNotFound)
}
