package admin

import (
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/sushi-bot/internal/models"
)

type itemDTO struct {
	ID             string                            `json:"id,omitempty"`
	Name           string                            `json:"name"`
	Price          decimal.Decimal                   `json:"price"`
	RegionalPrices map[models.Region]decimal.Decimal `json:"regional_prices,omitempty"`
	Color          string                            `json:"color,omitempty"`
	Icon           string                            `json:"icon,omitempty"`
	ImageURL       string                            `json:"image_url,omitempty"`
}

type brandDTO struct {
	ID            string                     `json:"id,omitempty"`
	OwnerID       *int64                     `json:"owner_id,omitempty"`
	Name          string                     `json:"name"`
	Description   string                     `json:"description"`
	LogoURL       string                     `json:"logo_url,omitempty"`
	Plates        []itemDTO                  `json:"plates"`
	SideDishes    []itemDTO                  `json:"side_dishes"`
	ServiceCharge models.ServiceChargeConfig `json:"service_charge"`
	Tags          []string                   `json:"tags,omitempty"`
	Region        *models.Region             `json:"region,omitempty"`
	IsShared      bool                       `json:"is_shared"`
	SortOrder     int                        `json:"sort_order"`
	CreatedAt     *time.Time                 `json:"created_at,omitempty"`
	UpdatedAt     *time.Time                 `json:"updated_at,omitempty"`
}

type orderRequest struct {
	IDs []string `json:"ids"`
}

type priceResponse struct {
	BrandID  string          `json:"brand_id"`
	Item     string          `json:"item"`
	Type     models.ItemType `json:"type"`
	Region   models.Region   `json:"region"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
	Display  string          `json:"display"`
}

func toBrandDTO(b *models.Brand) brandDTO {
	dto := brandDTO{
		ID:            b.ID,
		OwnerID:       b.OwnerID,
		Name:          b.Name,
		Description:   b.Description,
		LogoURL:       b.LogoURL,
		Plates:        toItemDTOs(b.Plates),
		SideDishes:    toItemDTOs(b.SideDishes),
		ServiceCharge: b.DefaultServiceCharge,
		Tags:          b.Tags,
		Region:        b.Region,
		IsShared:      b.IsShared,
		SortOrder:     b.SortOrder,
	}
	if !b.CreatedAt.IsZero() {
		dto.CreatedAt = &b.CreatedAt
	}
	if !b.UpdatedAt.IsZero() {
		dto.UpdatedAt = &b.UpdatedAt
	}
	return dto
}

func toItemDTOs(items []models.CatalogItem) []itemDTO {
	out := make([]itemDTO, len(items))
	for i, item := range items {
		out[i] = itemDTO{
			ID:             item.ID,
			Name:           item.Name,
			Price:          item.BasePrice,
			RegionalPrices: item.RegionalPrices,
			Color:          item.Color,
			Icon:           item.Icon,
			ImageURL:       item.ImageURL,
		}
	}
	return out
}

// toModel converts a request body; ownership and timestamps are left for
// the catalog service to decide.
func (d brandDTO) toModel() *models.Brand {
	return &models.Brand{
		ID:                   d.ID,
		Name:                 d.Name,
		Description:          d.Description,
		LogoURL:              d.LogoURL,
		Plates:               fromItemDTOs(d.Plates, models.ItemTypePlate),
		SideDishes:           fromItemDTOs(d.SideDishes, models.ItemTypeSide),
		DefaultServiceCharge: d.ServiceCharge,
		Tags:                 d.Tags,
		Region:               d.Region,
		SortOrder:            d.SortOrder,
	}
}

func fromItemDTOs(items []itemDTO, itemType models.ItemType) []models.CatalogItem {
	out := make([]models.CatalogItem, len(items))
	for i, item := range items {
		out[i] = models.CatalogItem{
			ID:             item.ID,
			Name:           item.Name,
			BasePrice:      item.Price,
			RegionalPrices: item.RegionalPrices,
			Type:           itemType,
			Color:          item.Color,
			Icon:           item.Icon,
			ImageURL:       item.ImageURL,
			SortOrder:      i + 1,
		}
	}
	return out
}
