package repository

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/sushi-bot/internal/catalog"
	"gitlab.com/yelinaung/sushi-bot/internal/database"
	"gitlab.com/yelinaung/sushi-bot/internal/models"
)

func newPrivateBrand(id string, owner int64, name string) *models.Brand {
	b := catalog.NewBrandTemplate(name)
	b.ID = id
	b.OwnerID = &owner
	return b
}

func TestBrandRepository_CreateAndGet(t *testing.T) {
	tx := database.TestTx(t)
	ctx := context.Background()

	users := NewUserRepository(tx)
	require.NoError(t, users.UpsertUser(ctx, &models.User{ID: 500, Username: "owner"}))

	repo := NewBrandRepository(tx)
	brand := newPrivateBrand("b-1", 500, "Corner Sushi")
	brand.Plates[0].RegionalPrices = map[models.Region]decimal.Decimal{
		models.RegionTaiwan: decimal.NewFromInt(40),
	}
	brand.Tags = []string{"cheap", "local"}
	require.NoError(t, repo.Create(ctx, brand))

	got, err := repo.Get(ctx, "b-1")
	require.NoError(t, err)
	require.Equal(t, "Corner Sushi", got.Name)
	require.NotNil(t, got.OwnerID)
	require.Equal(t, int64(500), *got.OwnerID)
	require.False(t, got.IsShared)
	require.Equal(t, []string{"cheap", "local"}, got.Tags)
	require.Equal(t, models.ServiceChargePercent, got.DefaultServiceCharge.Type)
	require.True(t, got.DefaultServiceCharge.Value.Equal(decimal.NewFromInt(10)))

	require.Len(t, got.Plates, len(brand.Plates))
	require.Len(t, got.SideDishes, len(brand.SideDishes))
	require.Equal(t, brand.Plates[0].Name, got.Plates[0].Name)
	require.Equal(t, models.ItemTypePlate, got.Plates[0].Type)
	require.Equal(t, models.ItemTypeSide, got.SideDishes[0].Type)
	require.True(t, got.Plates[0].RegionalPrices[models.RegionTaiwan].Equal(decimal.NewFromInt(40)))

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestBrandRepository_List(t *testing.T) {
	tx := database.TestTx(t)
	ctx := context.Background()

	users := NewUserRepository(tx)
	require.NoError(t, users.UpsertUser(ctx, &models.User{ID: 501, Username: "alice"}))
	require.NoError(t, users.UpsertUser(ctx, &models.User{ID: 502, Username: "bob"}))

	repo := NewBrandRepository(tx)
	for _, b := range catalog.SharedTemplates()[:2] {
		require.NoError(t, repo.Create(ctx, b))
	}
	require.NoError(t, repo.Create(ctx, newPrivateBrand("alice-1", 501, "Alice Sushi")))
	require.NoError(t, repo.Create(ctx, newPrivateBrand("bob-1", 502, "Bob Sushi")))

	alice := int64(501)

	t.Run("shared first then own private brands", func(t *testing.T) {
		brands, err := repo.List(ctx, catalog.Filter{OwnerID: &alice})
		require.NoError(t, err)
		require.Len(t, brands, 3)
		require.True(t, brands[0].IsShared)
		require.True(t, brands[1].IsShared)
		require.Equal(t, "alice-1", brands[2].ID)
		require.NotEmpty(t, brands[2].Plates)
	})

	t.Run("shared only", func(t *testing.T) {
		brands, err := repo.List(ctx, catalog.Filter{SharedOnly: true})
		require.NoError(t, err)
		require.Len(t, brands, 2)
		require.Less(t, brands[0].SortOrder, brands[1].SortOrder)
	})

	t.Run("anonymous sees shared brands", func(t *testing.T) {
		brands, err := repo.List(ctx, catalog.Filter{})
		require.NoError(t, err)
		require.Len(t, brands, 2)
	})
}

func TestBrandRepository_Update(t *testing.T) {
	tx := database.TestTx(t)
	ctx := context.Background()

	users := NewUserRepository(tx)
	require.NoError(t, users.UpsertUser(ctx, &models.User{ID: 503, Username: "editor"}))

	repo := NewBrandRepository(tx)
	brand := newPrivateBrand("b-up", 503, "Before")
	require.NoError(t, repo.Create(ctx, brand))

	brand.Name = "After"
	brand.Plates = brand.Plates[:1]
	brand.Plates[0].BasePrice = decimal.NewFromInt(15)
	brand.DefaultServiceCharge = models.ServiceChargeConfig{Type: models.ServiceChargeHead, Value: decimal.NewFromInt(5)}
	require.NoError(t, repo.Update(ctx, brand))

	got, err := repo.Get(ctx, "b-up")
	require.NoError(t, err)
	require.Equal(t, "After", got.Name)
	require.Len(t, got.Plates, 1)
	require.True(t, got.Plates[0].BasePrice.Equal(decimal.NewFromInt(15)))
	require.Equal(t, models.ServiceChargeHead, got.DefaultServiceCharge.Type)

	missing := newPrivateBrand("nope", 503, "Nope")
	require.ErrorIs(t, repo.Update(ctx, missing), catalog.ErrNotFound)
}

func TestBrandRepository_LogoReorderDelete(t *testing.T) {
	tx := database.TestTx(t)
	ctx := context.Background()

	users := NewUserRepository(tx)
	require.NoError(t, users.UpsertUser(ctx, &models.User{ID: 504, Username: "misc"}))

	repo := NewBrandRepository(tx)
	require.NoError(t, repo.Create(ctx, newPrivateBrand("x-1", 504, "X One")))
	require.NoError(t, repo.Create(ctx, newPrivateBrand("x-2", 504, "X Two")))

	require.NoError(t, repo.UpdateLogo(ctx, "x-1", "https://cdn.example.com/logos/x-1.png"))
	got, err := repo.Get(ctx, "x-1")
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/logos/x-1.png", got.LogoURL)
	require.ErrorIs(t, repo.UpdateLogo(ctx, "missing", "u"), catalog.ErrNotFound)

	require.NoError(t, repo.Reorder(ctx, []string{"x-2", "x-1"}))
	owner := int64(504)
	brands, err := repo.List(ctx, catalog.Filter{OwnerID: &owner})
	require.NoError(t, err)
	require.Equal(t, "x-2", brands[0].ID)
	require.Equal(t, 1, brands[0].SortOrder)

	require.NoError(t, repo.Delete(ctx, "x-1"))
	_, err = repo.Get(ctx, "x-1")
	require.ErrorIs(t, err, catalog.ErrNotFound)
	require.ErrorIs(t, repo.Delete(ctx, "x-1"), catalog.ErrNotFound)
}
