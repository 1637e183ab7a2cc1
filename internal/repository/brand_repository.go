package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/sushi-bot/internal/catalog"
	"gitlab.com/yelinaung/sushi-bot/internal/database"
	"gitlab.com/yelinaung/sushi-bot/internal/models"
)

// BrandRepository stores brands with their plates and side dishes.
type BrandRepository struct {
	db database.PGXDB
}

var _ catalog.Store = (*BrandRepository)(nil)

// NewBrandRepository creates a new BrandRepository.
func NewBrandRepository(db database.PGXDB) *BrandRepository {
	return &BrandRepository{db: db}
}

const brandColumns = `id, owner_id, name, description, logo_url, service_charge_type, service_charge_value,
	tags, region, is_shared, sort_order, created_at, updated_at`

func scanBrand(row pgx.Row) (*models.Brand, error) {
	var b models.Brand
	var chargeType string
	var region *string
	err := row.Scan(&b.ID, &b.OwnerID, &b.Name, &b.Description, &b.LogoURL, &chargeType,
		&b.DefaultServiceCharge.Value, &b.Tags, &region, &b.IsShared, &b.SortOrder, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.DefaultServiceCharge.Type = models.ServiceChargeType(chargeType)
	if region != nil {
		r := models.Region(*region)
		b.Region = &r
	}
	return &b, nil
}

// List returns brands matching filter: shared brands by sort order, then
// private brands, each group by name.
func (r *BrandRepository) List(ctx context.Context, filter catalog.Filter) ([]models.Brand, error) {
	var region *string
	if filter.Region != nil {
		s := string(*filter.Region)
		region = &s
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+brandColumns+`
		FROM brands
		WHERE (NOT $1::boolean OR is_shared)
		  AND (is_shared OR owner_id = $2)
		  AND ($3::text IS NULL OR region IS NULL OR region = $3)
		ORDER BY is_shared DESC,
		         CASE WHEN sort_order > 0 THEN sort_order ELSE 2147483647 END,
		         name
	`, filter.SharedOnly, filter.OwnerID, region)
	if err != nil {
		return nil, fmt.Errorf("failed to query brands: %w", err)
	}
	defer rows.Close()

	var brands []models.Brand
	for rows.Next() {
		b, err := scanBrand(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan brand: %w", err)
		}
		brands = append(brands, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating brands: %w", err)
	}

	if err := r.loadItems(ctx, brands); err != nil {
		return nil, err
	}
	return brands, nil
}

// Get returns the brand with its items, or catalog.ErrNotFound.
func (r *BrandRepository) Get(ctx context.Context, id string) (*models.Brand, error) {
	b, err := scanBrand(r.db.QueryRow(ctx, `SELECT `+brandColumns+` FROM brands WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get brand: %w", err)
	}

	brands := []models.Brand{*b}
	if err := r.loadItems(ctx, brands); err != nil {
		return nil, err
	}
	return &brands[0], nil
}

// Create inserts the brand and its items in one transaction.
func (r *BrandRepository) Create(ctx context.Context, brand *models.Brand) error {
	return database.WithTx(ctx, r.db, func(tx database.PGXDB) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO brands (id, owner_id, name, description, logo_url, service_charge_type,
				service_charge_value, tags, region, is_shared, sort_order, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
				COALESCE($12, NOW()), COALESCE($13, NOW()))
		`, append(brandArgs(brand), nullTime(brand.CreatedAt), nullTime(brand.UpdatedAt))...)
		if err != nil {
			return fmt.Errorf("failed to create brand: %w", err)
		}
		return insertItems(ctx, tx, brand)
	})
}

// Update replaces the brand row and all of its items.
func (r *BrandRepository) Update(ctx context.Context, brand *models.Brand) error {
	return database.WithTx(ctx, r.db, func(tx database.PGXDB) error {
		tag, err := tx.Exec(ctx, `
			UPDATE brands SET
				owner_id = $2, name = $3, description = $4, logo_url = $5, service_charge_type = $6,
				service_charge_value = $7, tags = $8, region = $9, is_shared = $10, sort_order = $11,
				updated_at = COALESCE($12, NOW())
			WHERE id = $1
		`, append(brandArgs(brand), nullTime(brand.UpdatedAt))...)
		if err != nil {
			return fmt.Errorf("failed to update brand: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return catalog.ErrNotFound
		}

		if _, err := tx.Exec(ctx, `DELETE FROM brand_plates WHERE brand_id = $1`, brand.ID); err != nil {
			return fmt.Errorf("failed to clear plates: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM brand_side_dishes WHERE brand_id = $1`, brand.ID); err != nil {
			return fmt.Errorf("failed to clear side dishes: %w", err)
		}
		return insertItems(ctx, tx, brand)
	})
}

// Delete removes the brand; items go with it.
func (r *BrandRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM brands WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete brand: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// UpdateLogo sets the brand's logo URL.
func (r *BrandRepository) UpdateLogo(ctx context.Context, id, logoURL string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE brands SET logo_url = $2, updated_at = NOW() WHERE id = $1
	`, id, logoURL)
	if err != nil {
		return fmt.Errorf("failed to update logo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// Reorder writes 1-based sort orders following ids.
func (r *BrandRepository) Reorder(ctx context.Context, ids []string) error {
	return database.WithTx(ctx, r.db, func(tx database.PGXDB) error {
		for i, id := range ids {
			tag, err := tx.Exec(ctx, `UPDATE brands SET sort_order = $2 WHERE id = $1`, id, i+1)
			if err != nil {
				return fmt.Errorf("failed to reorder brand %s: %w", id, err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("brand %s: %w", id, catalog.ErrNotFound)
			}
		}
		return nil
	})
}

func brandArgs(b *models.Brand) []any {
	var region *string
	if b.Region != nil {
		s := string(*b.Region)
		region = &s
	}
	tags := b.Tags
	if tags == nil {
		tags = []string{}
	}
	chargeType := string(b.DefaultServiceCharge.Type)
	if chargeType == "" {
		chargeType = string(models.ServiceChargeNone)
	}
	return []any{
		b.ID, b.OwnerID, b.Name, b.Description, b.LogoURL, chargeType,
		b.DefaultServiceCharge.Value, tags, region, b.IsShared, b.SortOrder,
	}
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func insertItems(ctx context.Context, tx database.PGXDB, b *models.Brand) error {
	for i, p := range b.Plates {
		prices, err := encodeRegionalPrices(p.RegionalPrices)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO brand_plates (brand_id, id, name, price, regional_prices, color, image_url, sort_order)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, b.ID, p.ID, p.Name, p.BasePrice, prices, p.Color, p.ImageURL, i+1)
		if err != nil {
			return fmt.Errorf("failed to insert plate %q: %w", p.Name, err)
		}
	}
	for i, s := range b.SideDishes {
		prices, err := encodeRegionalPrices(s.RegionalPrices)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO brand_side_dishes (brand_id, id, name, price, regional_prices, icon, image_url, sort_order)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, b.ID, s.ID, s.Name, s.BasePrice, prices, s.Icon, s.ImageURL, i+1)
		if err != nil {
			return fmt.Errorf("failed to insert side dish %q: %w", s.Name, err)
		}
	}
	return nil
}

// loadItems fills plates and side dishes for brands with two queries.
func (r *BrandRepository) loadItems(ctx context.Context, brands []models.Brand) error {
	if len(brands) == 0 {
		return nil
	}
	index := make(map[string]*models.Brand, len(brands))
	ids := make([]string, len(brands))
	for i := range brands {
		ids[i] = brands[i].ID
		index[brands[i].ID] = &brands[i]
	}

	plates, err := r.queryItems(ctx, `
		SELECT brand_id, id, name, price, regional_prices, color, image_url, sort_order
		FROM brand_plates WHERE brand_id = ANY($1) ORDER BY brand_id, sort_order, id
	`, ids, models.ItemTypePlate)
	if err != nil {
		return err
	}
	sides, err := r.queryItems(ctx, `
		SELECT brand_id, id, name, price, regional_prices, icon, image_url, sort_order
		FROM brand_side_dishes WHERE brand_id = ANY($1) ORDER BY brand_id, sort_order, id
	`, ids, models.ItemTypeSide)
	if err != nil {
		return err
	}

	for _, it := range plates {
		b := index[it.brandID]
		b.Plates = append(b.Plates, it.item)
	}
	for _, it := range sides {
		b := index[it.brandID]
		b.SideDishes = append(b.SideDishes, it.item)
	}
	return nil
}

type brandItem struct {
	brandID string
	item    models.CatalogItem
}

func (r *BrandRepository) queryItems(ctx context.Context, sql string, ids []string, itemType models.ItemType) ([]brandItem, error) {
	rows, err := r.db.Query(ctx, sql, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s items: %w", itemType, err)
	}
	defer rows.Close()

	var items []brandItem
	for rows.Next() {
		var it brandItem
		var prices []byte
		var extra string
		if err := rows.Scan(&it.brandID, &it.item.ID, &it.item.Name, &it.item.BasePrice, &prices,
			&extra, &it.item.ImageURL, &it.item.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan %s item: %w", itemType, err)
		}
		it.item.Type = itemType
		if itemType == models.ItemTypePlate {
			it.item.Color = extra
		} else {
			it.item.Icon = extra
		}
		if it.item.RegionalPrices, err = decodeRegionalPrices(prices); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s items: %w", itemType, err)
	}
	return items, nil
}

func encodeRegionalPrices(prices map[models.Region]decimal.Decimal) ([]byte, error) {
	if len(prices) == 0 {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(prices)
	if err != nil {
		return nil, fmt.Errorf("failed to encode regional prices: %w", err)
	}
	return data, nil
}

func decodeRegionalPrices(data []byte) (map[models.Region]decimal.Decimal, error) {
	var prices map[models.Region]decimal.Decimal
	if err := json.Unmarshal(data, &prices); err != nil {
		return nil, fmt.Errorf("failed to decode regional prices: %w", err)
	}
	if len(prices) == 0 {
		return nil, nil
	}
	return prices, nil
}
