package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/sushi-bot/internal/models"
)

// itemList returns the plate or side dish list of brand for itemType.
func itemList(brand *models.Brand, itemType models.ItemType) *[]models.CatalogItem {
	if itemType == models.ItemTypeSide {
		return &brand.SideDishes
	}
	return &brand.Plates
}

// SetItemPrice changes the price of the item at 1-based position pos. With
// a region, only that region's override is set.
func SetItemPrice(brand *models.Brand, itemType models.ItemType, pos int, price decimal.Decimal, region *models.Region) error {
	items := *itemList(brand, itemType)
	if pos < 1 || pos > len(items) {
		return fmt.Errorf("%w: no %s #%d", ErrInvalidBrand, itemType, pos)
	}
	if price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidBrand)
	}

	item := &items[pos-1]
	if region == nil {
		item.BasePrice = price
		return nil
	}
	if item.RegionalPrices == nil {
		item.RegionalPrices = make(map[models.Region]decimal.Decimal)
	}
	item.RegionalPrices[*region] = price
	return nil
}

// AddItem appends item to the matching list. The id is assigned on save.
func AddItem(brand *models.Brand, item models.CatalogItem) {
	list := itemList(brand, item.Type)
	item.ID = ""
	item.SortOrder = len(*list) + 1
	if item.Type == models.ItemTypePlate && item.Color == "" {
		item.Color = ColorGrey
	}
	if item.Type == models.ItemTypeSide && item.Icon == "" {
		item.Icon = IconDefault
	}
	*list = append(*list, item)
}

// RemoveItem deletes the item at 1-based position pos.
func RemoveItem(brand *models.Brand, itemType models.ItemType, pos int) error {
	list := itemList(brand, itemType)
	if pos < 1 || pos > len(*list) {
		return fmt.Errorf("%w: no %s #%d", ErrInvalidBrand, itemType, pos)
	}
	*list = append((*list)[:pos-1], (*list)[pos:]...)
	return nil
}
