package tally

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/sushi-bot/internal/models"
	"pgregory.net/rapid"
)

func testBrand() *models.Brand {
	return &models.Brand{
		ID:   SushiroBrandID,
		Name: "Sushiro",
		Plates: []models.CatalogItem{
			{ID: "p1", Name: "Red", BasePrice: decimal.NewFromInt(12), Type: models.ItemTypePlate, Color: "#EF4444"},
			{ID: "p2", Name: "Silver", BasePrice: decimal.NewFromInt(17), Type: models.ItemTypePlate},
		},
		SideDishes: []models.CatalogItem{
			{ID: "s1", Name: "Ramen", BasePrice: decimal.NewFromInt(32), Type: models.ItemTypeSide, Icon: "ramen_dining"},
		},
		DefaultServiceCharge: models.ServiceChargeConfig{Type: models.ServiceChargePercent, Value: decimal.NewFromInt(10)},
		IsShared:             true,
	}
}

func TestDefaultServiceCharge(t *testing.T) {
	t.Parallel()

	brand := testBrand()

	got := DefaultServiceCharge(brand, models.RegionMainland)
	require.Equal(t, models.ServiceChargeHead, got.Type)
	require.True(t, got.Value.Equal(decimal.NewFromInt(5)))

	got = DefaultServiceCharge(brand, models.RegionHK)
	require.Equal(t, models.ServiceChargePercent, got.Type)

	other := testBrand()
	other.ID = "kura"
	got = DefaultServiceCharge(other, models.RegionMainland)
	require.Equal(t, models.ServiceChargePercent, got.Type)

	empty := testBrand()
	empty.ID = "x"
	empty.DefaultServiceCharge = models.ServiceChargeConfig{}
	require.Equal(t, models.NoServiceCharge, DefaultServiceCharge(empty, models.RegionHK))
	require.Equal(t, models.NoServiceCharge, DefaultServiceCharge(nil, models.RegionHK))
}

func TestSession_Counts(t *testing.T) {
	t.Parallel()

	s := New(testBrand(), models.RegionHK)
	s.Increment(models.PlateKey("p1"))
	s.Increment(models.PlateKey("p1"))
	s.Increment(models.SideKey("s1"))
	s.Increment(models.PlateKey("missing"))
	s.Increment(models.SideKey("p1"))

	require.Equal(t, 2, s.Count(models.PlateKey("p1")))
	require.Equal(t, 1, s.Count(models.SideKey("s1")))
	require.Equal(t, 0, s.Count(models.PlateKey("missing")))
	require.Equal(t, 0, s.Count(models.SideKey("p1")))

	s.Decrement(models.SideKey("s1"))
	s.Decrement(models.SideKey("s1"))
	require.Equal(t, 0, s.Count(models.SideKey("s1")))
	require.False(t, s.IsEmpty())

	s.Reset()
	require.True(t, s.IsEmpty())
	require.Equal(t, 1, s.HeadCount)
}

func TestSession_HeadCount(t *testing.T) {
	t.Parallel()

	s := New(testBrand(), models.RegionMainland)
	s.DecHeadCount()
	require.Equal(t, 1, s.HeadCount)
	s.IncHeadCount()
	s.IncHeadCount()
	require.Equal(t, 3, s.HeadCount)
	s.SetHeadCount(-7)
	require.Equal(t, 1, s.HeadCount)
}

func TestSession_CycleServiceChargeType(t *testing.T) {
	t.Parallel()

	s := New(testBrand(), models.RegionHK)
	require.Equal(t, models.ServiceChargePercent, s.ServiceCharge.Type)

	s.CycleServiceChargeType()
	require.Equal(t, models.ServiceChargeHead, s.ServiceCharge.Type)
	require.True(t, s.ServiceCharge.Value.Equal(decimal.NewFromInt(5)))

	s.CycleServiceChargeType()
	require.Equal(t, models.NoServiceCharge, s.ServiceCharge)

	s.CycleServiceChargeType()
	require.Equal(t, models.ServiceChargePercent, s.ServiceCharge.Type)
	require.True(t, s.ServiceCharge.Value.Equal(decimal.NewFromInt(10)))
}

func TestSession_SetServiceChargeClampsNegative(t *testing.T) {
	t.Parallel()

	s := New(testBrand(), models.RegionHK)
	s.SetServiceCharge(models.ServiceChargeConfig{Type: models.ServiceChargeHead, Value: decimal.NewFromInt(-3)})
	require.True(t, s.ServiceCharge.Value.IsZero())
}

func TestSession_Bill(t *testing.T) {
	t.Parallel()

	s := New(testBrand(), models.RegionMainland)
	for range 9 {
		s.Increment(models.PlateKey("p1"))
	}
	s.SetHeadCount(2)

	bill := s.Bill()
	require.True(t, bill.Subtotal.Equal(decimal.NewFromInt(108)))
	require.True(t, bill.ServiceChargeAmount.Equal(decimal.NewFromInt(10)))
	require.True(t, bill.Total.Equal(decimal.NewFromInt(118)))
}

func TestSession_Checkout(t *testing.T) {
	t.Parallel()

	brand := testBrand()
	brand.LogoURL = "https://cdn.example.com/sushiro.png"
	s := New(brand, models.RegionTaiwan)
	s.Increment(models.PlateKey("p2"))
	s.Increment(models.SideKey("s1"))

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := s.Checkout("meal-1", 42, now)

	require.Equal(t, "meal-1", rec.ID)
	require.Equal(t, int64(42), rec.UserID)
	require.Equal(t, "Sushiro", rec.BrandName)
	require.Equal(t, brand.LogoURL, rec.BrandLogo)
	require.Equal(t, models.CurrencyTWD, rec.CurrencySymbol)
	require.Equal(t, 1, rec.TotalPlates)
	require.Len(t, rec.Items, 2)
	require.True(t, rec.TotalPrice.Equal(decimal.RequireFromString("53.9")))
	require.Equal(t, now, rec.Date)

	brand.Plates[1].BasePrice = decimal.NewFromInt(99)
	require.True(t, rec.Items[0].Price.Equal(decimal.NewFromInt(17)))
}

func TestSession_CountsNeverNegative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := New(testBrand(), models.RegionHK)
		keys := []models.ItemKey{models.PlateKey("p1"), models.PlateKey("p2"), models.SideKey("s1")}

		steps := rapid.IntRange(0, 50).Draw(t, "steps")
		for range steps {
			key := rapid.SampledFrom(keys).Draw(t, "key")
			if rapid.Bool().Draw(t, "inc") {
				s.Increment(key)
			} else {
				s.Decrement(key)
			}
		}

		for key, qty := range s.Counts {
			if qty < 0 {
				t.Fatalf("count for %v = %d", key, qty)
			}
		}
		if s.Bill().Subtotal.IsNegative() {
			t.Fatalf("negative subtotal")
		}
	})
}
