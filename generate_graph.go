//go:build ignore
// +build ignore

package main

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/sushi-bot/internal/bot"
	"gitlab.com/yelinaung/sushi-bot/internal/history"
	"gitlab.com/yelinaung/sushi-bot/internal/models"
)

func main() {
	stats := &history.Stats{
		Meals:    9,
		Currency: models.CurrencyHKD,
		ByBrand: []history.BrandStats{
			{BrandName: "Sushiro", Meals: 4, Spend: decimal.NewFromFloat(412.80)},
			{BrandName: "Kura Sushi", Meals: 2, Spend: decimal.NewFromFloat(198.00)},
			{BrandName: "Genki Sushi", Meals: 2, Spend: decimal.NewFromFloat(136.40)},
			{BrandName: "Itamae Sushi", Meals: 1, Spend: decimal.NewFromFloat(115.50)},
		},
	}
	for _, bs := range stats.ByBrand {
		stats.Spend = stats.Spend.Add(bs.Spend)
	}

	chartData, err := bot.GenerateSpendChart(stats)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile("graph.png", chartData, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✓ Created graph.png - Example spend by restaurant chart")
}
