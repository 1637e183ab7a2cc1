// Package pricing computes sushi bills: regional unit prices, subtotals,
// service charges and totals.
//
// Every function here is pure. Callers resolve catalog data into plain
// values first; nothing in this package performs I/O or returns an error.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/sushi-bot/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Selections maps catalog items to the quantity eaten.
type Selections map[models.ItemKey]int

// Bill is the result of ComputeBill.
type Bill struct {
	Subtotal            decimal.Decimal
	ServiceChargeAmount decimal.Decimal
	Total               decimal.Decimal
	TotalPlateCount     int
	LineItems           []models.MealItem
}

// ResolvePrice returns the item's price in region: the regional override
// when one exists, otherwise the base price.
func ResolvePrice(item models.CatalogItem, region models.Region) decimal.Decimal {
	if region == "" || item.RegionalPrices == nil {
		return item.BasePrice
	}
	if price, ok := item.RegionalPrices[region]; ok {
		return price
	}
	return item.BasePrice
}

// ServiceCharge computes the charge for subtotal under cfg.
// Unknown charge types and negative values yield zero. A head count
// below one counts as one diner.
func ServiceCharge(subtotal decimal.Decimal, cfg models.ServiceChargeConfig, headCount int) decimal.Decimal {
	if cfg.Value.IsNegative() {
		return decimal.Zero
	}
	switch cfg.Type {
	case models.ServiceChargePercent:
		if subtotal.IsNegative() {
			return decimal.Zero
		}
		return subtotal.Mul(cfg.Value).Div(hundred)
	case models.ServiceChargeHead:
		return cfg.Value.Mul(decimal.NewFromInt(int64(normalizeHeadCount(headCount))))
	default:
		return decimal.Zero
	}
}

// ComputeBill tallies selections against items and applies the service charge.
// Quantities below zero are clamped to zero and keys that match no item are
// ignored. Line items follow the order of items and carry the unit price
// resolved at call time, so later catalog edits never change them.
func ComputeBill(
	items []models.CatalogItem,
	selections Selections,
	cfg models.ServiceChargeConfig,
	headCount int,
	region models.Region,
) Bill {
	bill := Bill{
		Subtotal:  decimal.Zero,
		LineItems: make([]models.MealItem, 0),
	}

	for _, item := range items {
		qty := max(selections[item.Key()], 0)
		if qty == 0 {
			continue
		}

		price := ResolvePrice(item, region)
		if price.IsNegative() {
			price = decimal.Zero
		}
		bill.Subtotal = bill.Subtotal.Add(price.Mul(decimal.NewFromInt(int64(qty))))
		if item.Type == models.ItemTypePlate {
			bill.TotalPlateCount += qty
		}

		line := models.MealItem{
			Name:     item.Name,
			Price:    price,
			Quantity: qty,
			Type:     item.Type,
		}
		if item.Type == models.ItemTypePlate {
			line.Color = item.Color
		} else {
			line.Icon = item.Icon
		}
		bill.LineItems = append(bill.LineItems, line)
	}

	bill.ServiceChargeAmount = ServiceCharge(bill.Subtotal, cfg, headCount)
	bill.Total = bill.Subtotal.Add(bill.ServiceChargeAmount)
	return bill
}

// DiscountedPrice applies a percentage discount (10 means 10% off).
func DiscountedPrice(price, discountPercent decimal.Decimal) decimal.Decimal {
	return price.Mul(hundred.Sub(discountPercent)).Div(hundred)
}

// FormatPrice renders price with symbol, rounded to decimals places.
func FormatPrice(price decimal.Decimal, symbol string, decimals int32) string {
	return fmt.Sprintf("%s%s", symbol, price.StringFixed(decimals))
}

// Format renders an amount for display with two decimal places.
func Format(price decimal.Decimal, symbol string) string {
	return FormatPrice(price, symbol, 2)
}

func normalizeHeadCount(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
