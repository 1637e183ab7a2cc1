package bot

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-analyze/charts"
	"gitlab.com/yelinaung/sushi-bot/internal/history"
)

// maxChartSlices caps the pie; smaller brands are folded into "Other".
const maxChartSlices = 8

// GenerateSpendChart creates a pie chart of spend by brand.
// Returns PNG image as bytes.
func GenerateSpendChart(stats *history.Stats) ([]byte, error) {
	if stats == nil || len(stats.ByBrand) == 0 {
		return nil, errors.New("no meals to chart")
	}

	values, names := chartSlices(stats.ByBrand)

	p, err := charts.PieRender(
		values,
		charts.TitleOptionFunc(charts.TitleOption{
			Text: fmt.Sprintf("Spend by Restaurant (%s)", stats.Currency),
		}),
		charts.LegendLabelsOptionFunc(names),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	return buf, nil
}

// chartSlices turns brand stats, already sorted by spend, into pie values
// and labels.
func chartSlices(byBrand []history.BrandStats) ([]float64, []string) {
	values := make([]float64, 0, maxChartSlices)
	names := make([]string, 0, maxChartSlices)

	var other float64
	for i, bs := range byBrand {
		if i >= maxChartSlices-1 && len(byBrand) > maxChartSlices {
			other += bs.Spend.InexactFloat64()
			continue
		}
		values = append(values, bs.Spend.InexactFloat64())
		names = append(names, bs.BrandName)
	}
	if other > 0 {
		values = append(values, other)
		names = append(names, "Other")
	}
	return values, names
}

// generateChartFilename creates filename like "spend_2026-01-31.png".
func generateChartFilename(now time.Time) string {
	return fmt.Sprintf("spend_%s.png", now.Format(dateLayout))
}
