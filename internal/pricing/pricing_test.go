package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/sushi-bot/internal/models"
)

func plate(id string, price int64) models.CatalogItem {
	return models.CatalogItem{
		ID:        id,
		Name:      "plate " + id,
		BasePrice: decimal.NewFromInt(price),
		Type:      models.ItemTypePlate,
		Color:     "#EF4444",
	}
}

func side(id string, price int64) models.CatalogItem {
	return models.CatalogItem{
		ID:        id,
		Name:      "side " + id,
		BasePrice: decimal.NewFromInt(price),
		Type:      models.ItemTypeSide,
		Icon:      "ramen_dining",
	}
}

func percent(v string) models.ServiceChargeConfig {
	return models.ServiceChargeConfig{Type: models.ServiceChargePercent, Value: decimal.RequireFromString(v)}
}

func TestResolvePrice(t *testing.T) {
	t.Parallel()

	item := plate("p1", 12)
	item.RegionalPrices = map[models.Region]decimal.Decimal{
		models.RegionMainland: decimal.NewFromInt(10),
	}

	tests := []struct {
		name   string
		item   models.CatalogItem
		region models.Region
		want   string
	}{
		{"regional override", item, models.RegionMainland, "10"},
		{"region without override", item, models.RegionTaiwan, "12"},
		{"empty region", item, "", "12"},
		{"unknown region", item, models.Region("macau"), "12"},
		{"no regional prices", plate("p2", 17), models.RegionMainland, "17"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ResolvePrice(tt.item, tt.region)
			require.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestServiceCharge(t *testing.T) {
	t.Parallel()

	subtotal := decimal.NewFromInt(199)

	t.Run("percent", func(t *testing.T) {
		t.Parallel()
		got := ServiceCharge(subtotal, percent("10"), 1)
		require.True(t, got.Equal(decimal.RequireFromString("19.9")))
	})

	t.Run("head multiplies by head count", func(t *testing.T) {
		t.Parallel()
		cfg := models.ServiceChargeConfig{Type: models.ServiceChargeHead, Value: decimal.NewFromInt(5)}
		require.True(t, ServiceCharge(subtotal, cfg, 3).Equal(decimal.NewFromInt(15)))
	})

	t.Run("head count below one counts as one", func(t *testing.T) {
		t.Parallel()
		cfg := models.ServiceChargeConfig{Type: models.ServiceChargeHead, Value: decimal.NewFromInt(5)}
		require.True(t, ServiceCharge(subtotal, cfg, 0).Equal(decimal.NewFromInt(5)))
		require.True(t, ServiceCharge(subtotal, cfg, -4).Equal(decimal.NewFromInt(5)))
	})

	t.Run("none ignores value", func(t *testing.T) {
		t.Parallel()
		cfg := models.ServiceChargeConfig{Type: models.ServiceChargeNone, Value: decimal.NewFromInt(50)}
		require.True(t, ServiceCharge(subtotal, cfg, 2).IsZero())
	})

	t.Run("unknown type is zero", func(t *testing.T) {
		t.Parallel()
		cfg := models.ServiceChargeConfig{Type: "tip", Value: decimal.NewFromInt(50)}
		require.True(t, ServiceCharge(subtotal, cfg, 2).IsZero())
	})

	t.Run("negative value is zero", func(t *testing.T) {
		t.Parallel()
		require.True(t, ServiceCharge(subtotal, percent("-10"), 1).IsZero())
	})
}

func TestComputeBill(t *testing.T) {
	t.Parallel()

	t.Run("percent charge example", func(t *testing.T) {
		t.Parallel()
		items := []models.CatalogItem{plate("a", 12), plate("b", 17), plate("c", 22)}
		sel := Selections{
			models.PlateKey("a"): 5,
			models.PlateKey("b"): 3,
			models.PlateKey("c"): 4,
		}

		bill := ComputeBill(items, sel, percent("10"), 1, models.RegionHK)

		require.True(t, bill.Subtotal.Equal(decimal.NewFromInt(199)))
		require.True(t, bill.ServiceChargeAmount.Equal(decimal.RequireFromString("19.9")))
		require.True(t, bill.Total.Equal(decimal.RequireFromString("218.9")))
		require.Equal(t, 12, bill.TotalPlateCount)
		require.Len(t, bill.LineItems, 3)
	})

	t.Run("head charge example", func(t *testing.T) {
		t.Parallel()
		items := []models.CatalogItem{plate("a", 12)}
		cfg := models.ServiceChargeConfig{Type: models.ServiceChargeHead, Value: decimal.NewFromInt(5)}

		bill := ComputeBill(items, Selections{models.PlateKey("a"): 9}, cfg, 2, models.RegionMainland)

		require.True(t, bill.Subtotal.Equal(decimal.NewFromInt(108)))
		require.True(t, bill.ServiceChargeAmount.Equal(decimal.NewFromInt(10)))
		require.True(t, bill.Total.Equal(decimal.NewFromInt(118)))
	})

	t.Run("side dishes count towards spend but not plates", func(t *testing.T) {
		t.Parallel()
		items := []models.CatalogItem{plate("1", 12), side("1", 32)}
		sel := Selections{models.PlateKey("1"): 2, models.SideKey("1"): 3}

		bill := ComputeBill(items, sel, models.NoServiceCharge, 1, "")

		require.Equal(t, 2, bill.TotalPlateCount)
		require.True(t, bill.Subtotal.Equal(decimal.NewFromInt(2*12+3*32)))
		require.Equal(t, "ramen_dining", bill.LineItems[1].Icon)
		require.Empty(t, bill.LineItems[1].Color)
	})

	t.Run("zero and negative quantities are skipped", func(t *testing.T) {
		t.Parallel()
		items := []models.CatalogItem{plate("a", 12), plate("b", 17)}
		sel := Selections{models.PlateKey("a"): 0, models.PlateKey("b"): -3}

		bill := ComputeBill(items, sel, percent("10"), 1, "")

		require.True(t, bill.Subtotal.IsZero())
		require.True(t, bill.Total.IsZero())
		require.Empty(t, bill.LineItems)
	})

	t.Run("unknown selections are ignored", func(t *testing.T) {
		t.Parallel()
		bill := ComputeBill([]models.CatalogItem{plate("a", 12)}, Selections{models.PlateKey("zz"): 4}, percent("10"), 1, "")
		require.True(t, bill.Subtotal.IsZero())
	})

	t.Run("line items freeze regional price", func(t *testing.T) {
		t.Parallel()
		item := plate("a", 12)
		item.RegionalPrices = map[models.Region]decimal.Decimal{models.RegionTaiwan: decimal.NewFromInt(40)}
		items := []models.CatalogItem{item}

		bill := ComputeBill(items, Selections{models.PlateKey("a"): 1}, models.NoServiceCharge, 1, models.RegionTaiwan)
		items[0].RegionalPrices[models.RegionTaiwan] = decimal.NewFromInt(50)

		require.True(t, bill.LineItems[0].Price.Equal(decimal.NewFromInt(40)))
	})

	t.Run("line items follow catalog order", func(t *testing.T) {
		t.Parallel()
		items := []models.CatalogItem{plate("a", 1), plate("b", 2), side("c", 3)}
		sel := Selections{models.SideKey("c"): 1, models.PlateKey("b"): 1, models.PlateKey("a"): 1}

		bill := ComputeBill(items, sel, models.NoServiceCharge, 1, "")

		require.Equal(t, []string{"plate a", "plate b", "side c"}, []string{
			bill.LineItems[0].Name, bill.LineItems[1].Name, bill.LineItems[2].Name,
		})
	})

	t.Run("no rounding of intermediate sums", func(t *testing.T) {
		t.Parallel()
		items := []models.CatalogItem{{
			ID: "a", BasePrice: decimal.RequireFromString("0.333"), Type: models.ItemTypePlate,
		}}
		bill := ComputeBill(items, Selections{models.PlateKey("a"): 3}, models.NoServiceCharge, 1, "")
		require.True(t, bill.Total.Equal(decimal.RequireFromString("0.999")))
		require.Equal(t, "HK$1.00", Format(bill.Total, "HK$"))
	})
}

func TestDiscountedPrice(t *testing.T) {
	t.Parallel()

	got := DiscountedPrice(decimal.NewFromInt(200), decimal.NewFromInt(10))
	require.True(t, got.Equal(decimal.NewFromInt(180)))
}

func TestFormatPrice(t *testing.T) {
	t.Parallel()

	require.Equal(t, "¥218.90", Format(decimal.RequireFromString("218.9"), "¥"))
	require.Equal(t, "NT$219", FormatPrice(decimal.RequireFromString("218.9"), "NT$", 0))
}
