package exchange

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ConversionResult contains converted amount details.
type ConversionResult struct {
	Amount   decimal.Decimal
	Rate     decimal.Decimal
	RateDate time.Time
}

// Service converts amounts between currencies.
type Service interface {
	Convert(ctx context.Context, amount decimal.Decimal, fromCurrency, toCurrency string) (ConversionResult, error)
}

// StaticService serves conversions from a fixed RateTable.
type StaticService struct {
	rates *RateTable
	asOf  time.Time
}

// Compile-time check that StaticService implements Service.
var _ Service = (*StaticService)(nil)

// NewStaticService returns a Service backed by rates. asOf is reported as
// the rate date of every conversion.
func NewStaticService(rates *RateTable, asOf time.Time) *StaticService {
	if rates == nil {
		rates = DefaultRates()
	}
	return &StaticService{rates: rates, asOf: asOf}
}

// Rates returns the underlying table.
func (s *StaticService) Rates() *RateTable {
	return s.rates
}

// Convert converts amount without rounding; callers round for display.
func (s *StaticService) Convert(
	ctx context.Context,
	amount decimal.Decimal,
	fromCurrency, toCurrency string,
) (ConversionResult, error) {
	if err := ctx.Err(); err != nil {
		return ConversionResult{}, err
	}
	if fromCurrency == "" || toCurrency == "" {
		return ConversionResult{}, errors.New("from and to currencies are required")
	}
	return ConversionResult{
		Amount:   s.rates.Convert(amount, fromCurrency, toCurrency),
		Rate:     s.rates.Convert(one, fromCurrency, toCurrency),
		RateDate: s.asOf,
	}, nil
}
