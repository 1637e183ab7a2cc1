package catalog

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"gitlab.com/yelinaung/sushi-bot/internal/models"
)

// Validate normalizes brand in place and reports the first problem found.
// Names are trimmed, item types are set from the list they are in and an
// empty service charge type becomes none.
func Validate(brand *models.Brand) error {
	brand.Name = strings.TrimSpace(brand.Name)
	if brand.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidBrand)
	}
	if utf8.RuneCountInString(brand.Name) > models.MaxBrandNameLength {
		return fmt.Errorf("%w: name is longer than %d characters", ErrInvalidBrand, models.MaxBrandNameLength)
	}

	if brand.Region != nil {
		region, ok := models.ParseRegion(string(*brand.Region))
		if !ok {
			return fmt.Errorf("%w: unknown region %q", ErrInvalidBrand, *brand.Region)
		}
		brand.Region = &region
	}

	sc := &brand.DefaultServiceCharge
	if sc.Type == "" {
		sc.Type = models.ServiceChargeNone
	}
	t, ok := models.ParseServiceChargeType(string(sc.Type))
	if !ok {
		return fmt.Errorf("%w: unknown service charge type %q", ErrInvalidBrand, sc.Type)
	}
	sc.Type = t
	if sc.Value.IsNegative() {
		return fmt.Errorf("%w: service charge must not be negative", ErrInvalidBrand)
	}

	if err := validateItems(brand.Plates, models.ItemTypePlate); err != nil {
		return err
	}
	return validateItems(brand.SideDishes, models.ItemTypeSide)
}

func validateItems(items []models.CatalogItem, itemType models.ItemType) error {
	for i := range items {
		item := &items[i]
		item.Type = itemType
		item.Name = strings.TrimSpace(item.Name)
		if item.Name == "" {
			return fmt.Errorf("%w: %s %d has no name", ErrInvalidBrand, itemType, i+1)
		}
		if utf8.RuneCountInString(item.Name) > models.MaxItemNameLength {
			return fmt.Errorf("%w: %s name %q is longer than %d characters",
				ErrInvalidBrand, itemType, item.Name, models.MaxItemNameLength)
		}
		if item.BasePrice.IsNegative() {
			return fmt.Errorf("%w: %s %q has a negative price", ErrInvalidBrand, itemType, item.Name)
		}
		for region, price := range item.RegionalPrices {
			if !slices.Contains(models.AllRegions, region) {
				return fmt.Errorf("%w: %s %q has a price for unknown region %q", ErrInvalidBrand, itemType, item.Name, region)
			}
			if price.IsNegative() {
				return fmt.Errorf("%w: %s %q has a negative %s price", ErrInvalidBrand, itemType, item.Name, region)
			}
		}
	}
	return nil
}
