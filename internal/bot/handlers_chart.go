package bot

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/sushi-bot/internal/history"
	"gitlab.com/yelinaung/sushi-bot/internal/logger"
	"gitlab.com/yelinaung/sushi-bot/internal/pricing"
)

const (
	periodAll   = "all"
	periodWeek  = "week"
	periodMonth = "month"
)

// periodFilter returns the meal filter and a caption for a /chart or
// /export period argument.
func periodFilter(period string, now time.Time) (history.Filter, string, bool) {
	switch strings.ToLower(strings.TrimSpace(period)) {
	case "", periodAll:
		return history.Filter{}, "All time", true
	case periodWeek:
		start, end := weekDateRange(now)
		return history.Filter{From: start, To: end},
			fmt.Sprintf("%s to %s", start.Format("Jan 2"), end.Add(-24*time.Hour).Format("Jan 2, 2006")), true
	case periodMonth:
		start, end := monthDateRange(now)
		return history.Filter{From: start, To: end}, start.Format("January 2006"), true
	}
	return history.Filter{}, "", false
}

// weekDateRange returns the Monday-based week containing now as a half-open range.
func weekDateRange(now time.Time) (time.Time, time.Time) {
	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	start := time.Date(now.Year(), now.Month(), now.Day()-weekday+1, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, 7)
}

// monthDateRange returns the calendar month containing now as a half-open range.
func monthDateRange(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 1, 0)
}

// handleChart handles the /chart command to generate a spend-by-brand chart.
func (b *Bot) handleChart(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleChartCore(ctx, tgBot, update)
}

// handleChartCore is the testable implementation of handleChart.
func (b *Bot) handleChartCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	filter, periodLabel, ok := periodFilter(extractCommandArgs(update.Message.Text, "/chart"), b.now())
	if !ok {
		sendHTML(ctx, tg, chatID, "❌ Invalid period. Use <code>/chart</code>, <code>/chart week</code> or <code>/chart month</code>.")
		return
	}

	stats, err := b.history.Stats(ctx, userID, b.cfg.ReportCurrency, filter)
	if err != nil {
		logger.Log.Error().Err(err).Str("user_id", logger.HashUserID(userID)).Msg("Failed to compute stats for chart")
		sendHTML(ctx, tg, chatID, "❌ Failed to generate chart. Please try again.")
		return
	}
	if stats.Meals == 0 {
		sendHTML(ctx, tg, chatID, "📊 No meals found for this period.")
		return
	}

	chartData, err := GenerateSpendChart(stats)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to generate chart")
		sendHTML(ctx, tg, chatID, "❌ Failed to generate chart. Please try again.")
		return
	}

	caption := fmt.Sprintf("📊 <b>Spend by Restaurant</b>\n\nTotal: %s\nMeals: %d\nPlates: %d\nPeriod: %s",
		escapeHTML(pricing.Format(stats.Spend, stats.Currency)), stats.Meals, stats.Plates, periodLabel)

	_, err = tg.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:    chatID,
		Document:  &models.InputFileUpload{Filename: generateChartFilename(b.now()), Data: bytes.NewReader(chartData)},
		Caption:   caption,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send chart document")
		sendHTML(ctx, tg, chatID, "❌ Failed to send chart. Please try again.")
		return
	}

	logger.Log.Info().
		Str("user_id", logger.HashUserID(userID)).
		Int("meal_count", stats.Meals).
		Str("total", stats.Spend.StringFixed(2)).
		Msg("Chart generated successfully")
}

// handleExport handles the /export command.
func (b *Bot) handleExport(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleExportCore(ctx, tgBot, update)
}

// handleExportCore is the testable implementation of handleExport.
func (b *Bot) handleExportCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	filter, periodLabel, ok := periodFilter(extractCommandArgs(update.Message.Text, "/export"), b.now())
	if !ok {
		sendHTML(ctx, tg, chatID, "❌ Invalid period. Use <code>/export</code>, <code>/export week</code> or <code>/export month</code>.")
		return
	}

	meals, err := b.history.List(ctx, userID, filter)
	if err != nil {
		logger.Log.Error().Err(err).Str("user_id", logger.HashUserID(userID)).Msg("Failed to list meals for export")
		sendHTML(ctx, tg, chatID, "❌ Failed to export meals. Please try again.")
		return
	}
	if len(meals) == 0 {
		sendHTML(ctx, tg, chatID, "📄 No meals to export.")
		return
	}

	data, err := GenerateMealsCSV(meals)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to generate CSV")
		sendHTML(ctx, tg, chatID, "❌ Failed to export meals. Please try again.")
		return
	}

	_, err = tg.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:    chatID,
		Document:  &models.InputFileUpload{Filename: generateCSVFilename(b.now()), Data: bytes.NewReader(data)},
		Caption:   fmt.Sprintf("📄 %d meals · %s", len(meals), periodLabel),
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send CSV document")
		sendHTML(ctx, tg, chatID, "❌ Failed to send export. Please try again.")
	}
}
