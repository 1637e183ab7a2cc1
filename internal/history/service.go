package history

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/sushi-bot/internal/exchange"
	"gitlab.com/yelinaung/sushi-bot/internal/logger"
	"gitlab.com/yelinaung/sushi-bot/internal/models"
	"gitlab.com/yelinaung/sushi-bot/internal/telemetry"
)

// Service records meals and computes lifetime statistics.
type Service struct {
	store    Store
	exchange exchange.Service
	metrics  *telemetry.Instruments
}

// NewService creates a Service. Mixed-currency totals are converted with
// converter.
func NewService(store Store, converter exchange.Service) *Service {
	return &Service{
		store:    store,
		exchange: converter,
		metrics:  telemetry.Default(),
	}
}

// Validate checks a record before it is stored.
func Validate(rec *models.MealRecord) error {
	if strings.TrimSpace(rec.BrandName) == "" {
		return fmt.Errorf("%w: brand name is required", ErrInvalidRecord)
	}
	if len(rec.Items) == 0 {
		return fmt.Errorf("%w: no items", ErrInvalidRecord)
	}
	for _, item := range rec.Items {
		if item.Quantity < 0 || item.Price.IsNegative() {
			return fmt.Errorf("%w: item %q has a negative quantity or price", ErrInvalidRecord, item.Name)
		}
	}
	if rec.Subtotal.IsNegative() || rec.ServiceChargeAmount.IsNegative() || rec.TotalPrice.IsNegative() {
		return fmt.Errorf("%w: negative totals", ErrInvalidRecord)
	}
	if rec.TotalPlates < 0 {
		return fmt.Errorf("%w: negative plate count", ErrInvalidRecord)
	}
	if rec.CurrencySymbol == "" {
		rec.CurrencySymbol = rec.Region.CurrencySymbol()
	}
	return nil
}

// Record validates and stores a finished meal.
func (s *Service) Record(ctx context.Context, rec *models.MealRecord) error {
	if err := Validate(rec); err != nil {
		return err
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return fmt.Errorf("failed to save meal: %w", err)
	}

	s.metrics.RecordMeal(ctx, string(rec.Region), rec.CurrencySymbol, rec.TotalPrice)
	logger.Log.Info().
		Str("user_id", logger.HashUserID(rec.UserID)).
		Int64("meal_number", rec.UserMealNumber).
		Str("brand_id", rec.BrandID).
		Int("plates", rec.TotalPlates).
		Msg("Meal recorded")
	return nil
}

// List returns the user's meals, newest first.
func (s *Service) List(ctx context.Context, userID int64, filter Filter) ([]models.MealRecord, error) {
	meals, err := s.store.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list meals: %w", err)
	}
	return meals, nil
}

// Get returns the user's meal with the given per-user number.
func (s *Service) Get(ctx context.Context, userID, number int64) (*models.MealRecord, error) {
	return s.store.GetByUserAndNumber(ctx, userID, number)
}

// Delete removes one of the user's meals. Meals of other users are
// reported as ErrNotFound.
func (s *Service) Delete(ctx context.Context, userID int64, id string) error {
	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rec.UserID != userID {
		return ErrNotFound
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete meal: %w", err)
	}
	return nil
}

// BrandStats is the spend at one brand.
type BrandStats struct {
	BrandName string
	Meals     int
	Plates    int
	Spend     decimal.Decimal
}

// Stats is a user's lifetime summary in one currency.
type Stats struct {
	Meals    int
	Plates   int
	Spend    decimal.Decimal
	Currency string
	// ByBrand is ordered by spend, highest first.
	ByBrand []BrandStats
}

// Stats summarizes the user's meals matching filter, converting every
// meal's total into currency. Stored records are not changed.
func (s *Service) Stats(ctx context.Context, userID int64, currency string, filter Filter) (*Stats, error) {
	filter.Limit = 0
	meals, err := s.List(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	stats := &Stats{Spend: decimal.Zero, Currency: currency}
	byBrand := make(map[string]*BrandStats)
	for i := range meals {
		meal := &meals[i]
		res, err := s.exchange.Convert(ctx, meal.TotalPrice, meal.CurrencySymbol, currency)
		if err != nil {
			return nil, fmt.Errorf("failed to convert meal total: %w", err)
		}

		stats.Meals++
		stats.Plates += meal.TotalPlates
		stats.Spend = stats.Spend.Add(res.Amount)

		bs, ok := byBrand[meal.BrandName]
		if !ok {
			bs = &BrandStats{BrandName: meal.BrandName, Spend: decimal.Zero}
			byBrand[meal.BrandName] = bs
		}
		bs.Meals++
		bs.Plates += meal.TotalPlates
		bs.Spend = bs.Spend.Add(res.Amount)
	}

	for _, bs := range byBrand {
		stats.ByBrand = append(stats.ByBrand, *bs)
	}
	slices.SortFunc(stats.ByBrand, func(a, b BrandStats) int {
		if c := b.Spend.Cmp(a.Spend); c != 0 {
			return c
		}
		return cmp.Compare(a.BrandName, b.BrandName)
	})
	return stats, nil
}
