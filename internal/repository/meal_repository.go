package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/sushi-bot/internal/database"
	"gitlab.com/yelinaung/sushi-bot/internal/history"
	"gitlab.com/yelinaung/sushi-bot/internal/models"
)

// MealRepository stores meal records and their line items.
type MealRepository struct {
	db database.PGXDB
}

var _ history.Store = (*MealRepository)(nil)

// NewMealRepository creates a new MealRepository.
func NewMealRepository(db database.PGXDB) *MealRepository {
	return &MealRepository{db: db}
}

const mealColumns = `id, user_id, user_meal_number, brand_id, brand_name, brand_logo, meal_date,
	subtotal, service_charge_amount, service_charge_type, service_charge_value, head_count,
	total_price, total_plates, region, currency_symbol, created_at`

func scanMeal(row pgx.Row) (*models.MealRecord, error) {
	var m models.MealRecord
	var chargeType, region string
	err := row.Scan(&m.ID, &m.UserID, &m.UserMealNumber, &m.BrandID, &m.BrandName, &m.BrandLogo, &m.Date,
		&m.Subtotal, &m.ServiceChargeAmount, &chargeType, &m.ServiceChargeRule.Value, &m.HeadCount,
		&m.TotalPrice, &m.TotalPlates, &region, &m.CurrencySymbol, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	m.ServiceChargeRule.Type = models.ServiceChargeType(chargeType)
	m.Region = models.Region(region)
	return &m, nil
}

// Create inserts the meal and its items. The per-user meal number is the
// next one after the user's highest, taken under an advisory lock.
func (r *MealRepository) Create(ctx context.Context, rec *models.MealRecord) error {
	return database.WithTx(ctx, r.db, func(tx database.PGXDB) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, rec.UserID); err != nil {
			return fmt.Errorf("failed to lock meal numbering: %w", err)
		}

		chargeType := string(rec.ServiceChargeRule.Type)
		if chargeType == "" {
			chargeType = string(models.ServiceChargeNone)
		}
		err := tx.QueryRow(ctx, `
			INSERT INTO meal_records (id, user_id, user_meal_number, brand_id, brand_name, brand_logo, meal_date,
				subtotal, service_charge_amount, service_charge_type, service_charge_value, head_count,
				total_price, total_plates, region, currency_symbol)
			VALUES ($1, $2,
				(SELECT COALESCE(MAX(user_meal_number), 0) + 1 FROM meal_records WHERE user_id = $2),
				$3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			RETURNING user_meal_number, created_at
		`, rec.ID, rec.UserID, rec.BrandID, rec.BrandName, rec.BrandLogo, rec.Date,
			rec.Subtotal, rec.ServiceChargeAmount, chargeType, rec.ServiceChargeRule.Value, max(rec.HeadCount, 1),
			rec.TotalPrice, rec.TotalPlates, string(rec.Region), rec.CurrencySymbol,
		).Scan(&rec.UserMealNumber, &rec.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create meal: %w", err)
		}

		for i, item := range rec.Items {
			_, err := tx.Exec(ctx, `
				INSERT INTO meal_items (meal_id, position, name, price, quantity, item_type, color, icon)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			`, rec.ID, i+1, item.Name, item.Price, item.Quantity, string(item.Type), item.Color, item.Icon)
			if err != nil {
				return fmt.Errorf("failed to create meal item %q: %w", item.Name, err)
			}
		}
		return nil
	})
}

// GetByID returns the meal with its items, or history.ErrNotFound.
func (r *MealRepository) GetByID(ctx context.Context, id string) (*models.MealRecord, error) {
	return r.getOne(ctx, `SELECT `+mealColumns+` FROM meal_records WHERE id = $1`, id)
}

// GetByUserAndNumber returns a meal by its per-user number.
func (r *MealRepository) GetByUserAndNumber(ctx context.Context, userID, number int64) (*models.MealRecord, error) {
	return r.getOne(ctx, `
		SELECT `+mealColumns+` FROM meal_records WHERE user_id = $1 AND user_meal_number = $2
	`, userID, number)
}

func (r *MealRepository) getOne(ctx context.Context, sql string, args ...any) (*models.MealRecord, error) {
	m, err := scanMeal(r.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, history.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meal: %w", err)
	}
	meals := []models.MealRecord{*m}
	if err := r.loadItems(ctx, meals); err != nil {
		return nil, err
	}
	return &meals[0], nil
}

// ListByUser returns the user's meals matching filter, newest first.
func (r *MealRepository) ListByUser(ctx context.Context, userID int64, filter history.Filter) ([]models.MealRecord, error) {
	var region *string
	if filter.Region != nil {
		s := string(*filter.Region)
		region = &s
	}
	var limit *int
	if filter.Limit > 0 {
		limit = &filter.Limit
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+mealColumns+`
		FROM meal_records
		WHERE user_id = $1
		  AND ($2::text IS NULL OR region = $2)
		  AND ($3::timestamptz IS NULL OR meal_date >= $3)
		  AND ($4::timestamptz IS NULL OR meal_date < $4)
		ORDER BY meal_date DESC, user_meal_number DESC
		LIMIT $5
	`, userID, region, nullTime(filter.From), nullTime(filter.To), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query meals: %w", err)
	}
	defer rows.Close()

	var meals []models.MealRecord
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meal: %w", err)
		}
		meals = append(meals, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating meals: %w", err)
	}

	if err := r.loadItems(ctx, meals); err != nil {
		return nil, err
	}
	return meals, nil
}

// Delete removes the meal; its items are removed by cascade.
func (r *MealRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM meal_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete meal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return history.ErrNotFound
	}
	return nil
}

func (r *MealRepository) loadItems(ctx context.Context, meals []models.MealRecord) error {
	if len(meals) == 0 {
		return nil
	}
	index := make(map[string]*models.MealRecord, len(meals))
	ids := make([]string, len(meals))
	for i := range meals {
		ids[i] = meals[i].ID
		index[meals[i].ID] = &meals[i]
	}

	rows, err := r.db.Query(ctx, `
		SELECT meal_id, name, price, quantity, item_type, color, icon
		FROM meal_items WHERE meal_id = ANY($1) ORDER BY meal_id, position
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to query meal items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var mealID, itemType string
		var item models.MealItem
		if err := rows.Scan(&mealID, &item.Name, &item.Price, &item.Quantity, &itemType, &item.Color, &item.Icon); err != nil {
			return fmt.Errorf("failed to scan meal item: %w", err)
		}
		item.Type = models.ItemType(itemType)
		m := index[mealID]
		m.Items = append(m.Items, item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating meal items: %w", err)
	}
	return nil
}
