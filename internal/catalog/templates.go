package catalog

import (
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/sushi-bot/internal/models"
)

// Default colors and icons.
const (
	ColorRed    = "#EF4444"
	ColorBlue   = "#3B82F6"
	ColorGrey   = "#D1D5DB"
	ColorGold   = "#EAB308"
	ColorBlack  = "#111827"
	ColorGreen  = "#22C55E"
	ColorPink   = "#F472B6"
	IconDefault = "restaurant"
)

// CustomBrandDescription is the description given to user-made brands.
const CustomBrandDescription = "Custom brand"

func plate(id, name, color string, price int64) models.CatalogItem {
	return models.CatalogItem{
		ID:        id,
		Name:      name,
		BasePrice: decimal.NewFromInt(price),
		Type:      models.ItemTypePlate,
		Color:     color,
	}
}

func side(id, name, icon string, price int64) models.CatalogItem {
	return models.CatalogItem{
		ID:        id,
		Name:      name,
		BasePrice: decimal.NewFromInt(price),
		Type:      models.ItemTypeSide,
		Icon:      icon,
	}
}

func percentCharge(v int64) models.ServiceChargeConfig {
	return models.ServiceChargeConfig{Type: models.ServiceChargePercent, Value: decimal.NewFromInt(v)}
}

// NewBrandTemplate returns the starting menu for a user-created brand.
func NewBrandTemplate(name string) *models.Brand {
	return &models.Brand{
		Name:        name,
		Description: CustomBrandDescription,
		Plates: []models.CatalogItem{
			plate("1", "Red plate", ColorRed, 12),
			plate("2", "Blue plate", ColorBlue, 18),
		},
		SideDishes: []models.CatalogItem{
			side("1", "Miso soup", "soup_kitchen", 10),
		},
		DefaultServiceCharge: percentCharge(10),
	}
}

// SharedTemplates returns the built-in shared brands.
func SharedTemplates() []*models.Brand {
	brands := []*models.Brand{
		{
			ID:          "sushiro",
			Name:        "Sushiro",
			Description: "Japan's favourite conveyor-belt sushi",
			Tags:        []string{"hot"},
			Plates: []models.CatalogItem{
				plate("p1", "Red plate", ColorRed, 12),
				plate("p2", "Silver plate", ColorGrey, 17),
				plate("p3", "Gold plate", ColorGold, 22),
				plate("p4", "Black plate", ColorBlack, 27),
			},
			SideDishes: []models.CatalogItem{
				side("s1", "Ramen / Udon", "ramen_dining", 32),
				side("s2", "Tempura", "tapas", 27),
				side("s3", "Drinks", "local_bar", 18),
			},
			DefaultServiceCharge: percentCharge(10),
		},
		{
			ID:          "kura",
			Name:        "Kura Sushi",
			Description: "100% additive-free",
			Tags:        []string{"new"},
			Plates: []models.CatalogItem{
				plate("k1", "Regular plate", ColorBlue, 12),
				plate("k2", "Special plate", ColorRed, 24),
			},
			SideDishes: []models.CatalogItem{
				side("s1", "Miso soup", "soup_kitchen", 18),
			},
			DefaultServiceCharge: percentCharge(10),
		},
		{
			ID:          "genki",
			Name:        "Genki Sushi",
			Description: "The classic crowd pleaser",
			Plates: []models.CatalogItem{
				plate("g1", "Green plate", ColorGreen, 10),
				plate("g2", "Red plate", ColorRed, 14),
			},
			DefaultServiceCharge: percentCharge(10),
		},
		{
			ID:          "sushi_express",
			Name:        "Sushi Express",
			Description: "Great value",
			Plates: []models.CatalogItem{
				plate("se1", "Pink plate", ColorPink, 6),
			},
			DefaultServiceCharge: models.NoServiceCharge,
		},
		{
			ID:          "hama",
			Name:        "Hama Sushi",
			Description: "Made for family dinners",
			Plates: []models.CatalogItem{
				plate("h1", "Standard", ColorBlue, 10),
			},
			DefaultServiceCharge: percentCharge(10),
		},
		{
			ID:          "itamae",
			Name:        "Itamae Sushi",
			Description: "Hand-made by the chef",
			Plates: []models.CatalogItem{
				plate("i1", "Black gold", "#000000", 35),
			},
			DefaultServiceCharge: percentCharge(10),
		},
	}

	for i, b := range brands {
		b.IsShared = true
		b.SortOrder = i + 1
		for j := range b.Plates {
			b.Plates[j].SortOrder = j + 1
		}
		for j := range b.SideDishes {
			b.SideDishes[j].SortOrder = j + 1
		}
	}
	return brands
}
