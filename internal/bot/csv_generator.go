package bot

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gitlab.com/yelinaung/sushi-bot/internal/models"
)

// GenerateMealsCSV generates a CSV file from a list of meals.
func GenerateMealsCSV(meals []models.MealRecord) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{
		"Number", "Date", "Brand", "Region", "Currency", "Plates", "Diners",
		"Subtotal", "Service Charge", "Total", "Items",
	}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i := range meals {
		m := &meals[i]
		items := make([]string, 0, len(m.Items))
		for _, item := range m.Items {
			items = append(items, fmt.Sprintf("%s x%d @ %s", item.Name, item.Quantity, item.Price.StringFixed(2)))
		}

		row := []string{
			strconv.FormatInt(m.UserMealNumber, 10),
			m.Date.Format("2006-01-02 15:04:05"),
			m.BrandName,
			string(m.Region),
			m.CurrencySymbol,
			strconv.Itoa(m.TotalPlates),
			strconv.Itoa(max(m.HeadCount, 1)),
			m.Subtotal.StringFixed(2),
			m.ServiceChargeAmount.StringFixed(2),
			m.TotalPrice.StringFixed(2),
			strings.Join(items, "; "),
		}

		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// generateCSVFilename creates filename like "meals_2026-01-31.csv".
func generateCSVFilename(now time.Time) string {
	return fmt.Sprintf("meals_%s.csv", now.Format(dateLayout))
}
