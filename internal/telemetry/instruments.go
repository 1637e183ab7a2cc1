package telemetry

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"gitlab.com/yelinaung/sushi-bot/internal/logger"
)

// Instrument names.
const (
	MetricMealsRecorded = "sushi.meals.recorded"
	MetricBrandsForked  = "sushi.brands.forked"
	MetricBillTotal     = "sushi.bill.total"
)

// Instruments holds the application's metric instruments.
type Instruments struct {
	MealsRecorded metric.Int64Counter
	BrandsForked  metric.Int64Counter
	BillTotal     metric.Float64Histogram
}

// NewInstruments creates the instruments on meter.
func NewInstruments(meter metric.Meter) (*Instruments, error) {
	meals, err := meter.Int64Counter(MetricMealsRecorded,
		metric.WithDescription("Meals saved to history"),
		metric.WithUnit("{meal}"))
	if err != nil {
		return nil, err
	}
	forked, err := meter.Int64Counter(MetricBrandsForked,
		metric.WithDescription("Shared brands copied into private brands"),
		metric.WithUnit("{brand}"))
	if err != nil {
		return nil, err
	}
	total, err := meter.Float64Histogram(MetricBillTotal,
		metric.WithDescription("Bill totals in the meal's own currency"))
	if err != nil {
		return nil, err
	}
	return &Instruments{MealsRecorded: meals, BrandsForked: forked, BillTotal: total}, nil
}

var (
	defaultInstruments     *Instruments
	defaultInstrumentsOnce sync.Once
)

// Default returns instruments bound to the global meter provider. Providers
// installed later by Setup are picked up through the global delegate.
func Default() *Instruments {
	defaultInstrumentsOnce.Do(func() {
		inst, err := NewInstruments(otel.Meter(ScopeName))
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Failed to create metric instruments, using no-op")
			inst, _ = NewInstruments(noop.NewMeterProvider().Meter(ScopeName))
		}
		defaultInstruments = inst
	})
	return defaultInstruments
}

// RecordMeal counts a saved meal and its total.
func (i *Instruments) RecordMeal(ctx context.Context, region, currency string, total decimal.Decimal) {
	attrs := metric.WithAttributes(
		attribute.String("region", region),
		attribute.String("currency", currency),
	)
	i.MealsRecorded.Add(ctx, 1, attrs)
	i.BillTotal.Record(ctx, total.InexactFloat64(), attrs)
}

// RecordFork counts a shared brand being forked.
func (i *Instruments) RecordFork(ctx context.Context, sourceBrandID string) {
	i.BrandsForked.Add(ctx, 1, metric.WithAttributes(attribute.String("source_brand", sourceBrandID)))
}
