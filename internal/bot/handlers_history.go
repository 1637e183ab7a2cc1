package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/sushi-bot/internal/history"
	"gitlab.com/yelinaung/sushi-bot/internal/logger"
	appmodels "gitlab.com/yelinaung/sushi-bot/internal/models"
	"gitlab.com/yelinaung/sushi-bot/internal/pricing"
)

const (
	historyLimit   = 10
	statsTopBrands = 5
	dateLayout     = "2006-01-02"
)

// formatMealLine renders a one-line summary of a meal.
func formatMealLine(m *appmodels.MealRecord) string {
	return fmt.Sprintf("<b>#%d</b> %s · %s · %s · %d plates",
		m.UserMealNumber,
		escapeHTML(m.BrandName),
		m.Date.Format(dateLayout),
		escapeHTML(pricing.Format(m.TotalPrice, m.CurrencySymbol)),
		m.TotalPlates)
}

// formatMealDetail renders a meal with its frozen line items.
func formatMealDetail(m *appmodels.MealRecord) string {
	symbol := m.CurrencySymbol
	var sb strings.Builder
	fmt.Fprintf(&sb, "🧾 <b>Meal #%d</b> · %s\n", m.UserMealNumber, escapeHTML(m.BrandName))
	fmt.Fprintf(&sb, "%s · %s\n\n", m.Date.Format("2006-01-02 15:04"), m.Region.Name())

	for _, item := range m.Items {
		fmt.Fprintf(&sb, "%s ×%d @ %s = %s\n",
			escapeHTML(item.Name), item.Quantity,
			escapeHTML(pricing.Format(item.Price, symbol)),
			escapeHTML(pricing.Format(item.LineTotal(), symbol)))
	}

	fmt.Fprintf(&sb, "\nSubtotal: %s\n", escapeHTML(pricing.Format(m.Subtotal, symbol)))
	if m.ServiceChargeRule.Type != appmodels.ServiceChargeNone && m.ServiceChargeRule.Type != "" {
		fmt.Fprintf(&sb, "Service charge (%s): %s\n",
			escapeHTML(formatChargeRule(m.ServiceChargeRule, symbol)),
			escapeHTML(pricing.Format(m.ServiceChargeAmount, symbol)))
	}
	fmt.Fprintf(&sb, "<b>Total: %s</b>\n", escapeHTML(pricing.Format(m.TotalPrice, symbol)))
	fmt.Fprintf(&sb, "%d plates · %d diners", m.TotalPlates, max(m.HeadCount, 1))
	return sb.String()
}

// parseMealArg reads the meal number argument of /meal and /delete.
func parseMealArg(ctx context.Context, tg TelegramAPI, chatID int64, text, command string) (int64, bool) {
	args := extractCommandArgs(text, command)
	n, err := parsePosition(args)
	if err != nil {
		sendHTML(ctx, tg, chatID, fmt.Sprintf("Usage: <code>%s &lt;meal number&gt;</code>\n\nSee your meal numbers with /history.", command))
		return 0, false
	}
	return int64(n), true
}

// handleHistory handles the /history command.
func (b *Bot) handleHistory(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleHistoryCore(ctx, tgBot, update)
}

// handleHistoryCore is the testable implementation of handleHistory.
func (b *Bot) handleHistoryCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	meals, err := b.history.List(ctx, userID, history.Filter{Limit: historyLimit})
	if err != nil {
		logger.Log.Error().Err(err).Str("user_id", logger.HashUserID(userID)).Msg("Failed to list meals")
		sendHTML(ctx, tg, chatID, "❌ Failed to fetch your meals. Please try again.")
		return
	}
	if len(meals) == 0 {
		sendHTML(ctx, tg, chatID, "No meals yet. Start one with /brands.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📜 <b>Recent Meals</b>\n\n")
	for i := range meals {
		sb.WriteString(formatMealLine(&meals[i]))
		sb.WriteString("\n")
	}
	sb.WriteString("\nUse <code>/meal &lt;n&gt;</code> for details.")
	sendHTML(ctx, tg, chatID, sb.String())
}

// handleMeal handles the /meal command.
func (b *Bot) handleMeal(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleMealCore(ctx, tgBot, update)
}

// handleMealCore is the testable implementation of handleMeal.
func (b *Bot) handleMealCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID
	number, ok := parseMealArg(ctx, tg, chatID, update.Message.Text, "/meal")
	if !ok {
		return
	}

	meal, err := b.history.Get(ctx, userID, number)
	if errors.Is(err, history.ErrNotFound) {
		sendHTML(ctx, tg, chatID, fmt.Sprintf("❌ Meal #%d not found.", number))
		return
	}
	if err != nil {
		logger.Log.Error().Err(err).Str("user_id", logger.HashUserID(userID)).Msg("Failed to get meal")
		sendHTML(ctx, tg, chatID, "❌ Failed to fetch the meal. Please try again.")
		return
	}

	sendHTML(ctx, tg, chatID, formatMealDetail(meal))
}

// handleDeleteMeal handles the /delete command.
func (b *Bot) handleDeleteMeal(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleDeleteMealCore(ctx, tgBot, update)
}

// handleDeleteMealCore is the testable implementation of handleDeleteMeal.
func (b *Bot) handleDeleteMealCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID
	number, ok := parseMealArg(ctx, tg, chatID, update.Message.Text, "/delete")
	if !ok {
		return
	}

	meal, err := b.history.Get(ctx, userID, number)
	if err == nil {
		err = b.history.Delete(ctx, userID, meal.ID)
	}
	if errors.Is(err, history.ErrNotFound) {
		sendHTML(ctx, tg, chatID, fmt.Sprintf("❌ Meal #%d not found.", number))
		return
	}
	if err != nil {
		logger.Log.Error().Err(err).Str("user_id", logger.HashUserID(userID)).Msg("Failed to delete meal")
		sendHTML(ctx, tg, chatID, "❌ Failed to delete the meal. Please try again.")
		return
	}

	logger.Log.Info().Str("user_id", logger.HashUserID(userID)).Int64("meal_number", number).Msg("Meal deleted")
	sendHTML(ctx, tg, chatID, fmt.Sprintf("🗑 Meal #%d (%s) deleted.", number, escapeHTML(meal.BrandName)))
}

// handleStats handles the /stats command.
func (b *Bot) handleStats(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleStatsCore(ctx, tgBot, update)
}

// handleStatsCore is the testable implementation of handleStats.
func (b *Bot) handleStatsCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	currency := b.userRegion(ctx, userID).CurrencySymbol()
	if args := extractCommandArgs(update.Message.Text, "/stats"); args != "" {
		symbol, ok := parseCurrency(args, b.cfg.ExchangeRates)
		if !ok {
			sendHTML(ctx, tg, chatID, fmt.Sprintf("❌ Unknown currency <code>%s</code>. Try HKD, TWD or CNY.", escapeHTML(args)))
			return
		}
		currency = symbol
	}

	stats, err := b.history.Stats(ctx, userID, currency, history.Filter{})
	if err != nil {
		logger.Log.Error().Err(err).Str("user_id", logger.HashUserID(userID)).Msg("Failed to compute stats")
		sendHTML(ctx, tg, chatID, "❌ Failed to compute your stats. Please try again.")
		return
	}
	if stats.Meals == 0 {
		sendHTML(ctx, tg, chatID, "No meals yet. Start one with /brands.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📊 <b>Lifetime Stats</b>\n\n")
	fmt.Fprintf(&sb, "Meals: %d\n", stats.Meals)
	fmt.Fprintf(&sb, "Plates: %d\n", stats.Plates)
	fmt.Fprintf(&sb, "Spent: <b>%s</b>\n", escapeHTML(pricing.Format(stats.Spend, stats.Currency)))
	if stats.Plates > 0 {
		avg := stats.Spend.DivRound(decimal.NewFromInt(int64(stats.Plates)), 2)
		fmt.Fprintf(&sb, "Per plate: %s\n", escapeHTML(pricing.Format(avg, stats.Currency)))
	}

	sb.WriteString("\n<b>Top Restaurants:</b>\n")
	for i, bs := range stats.ByBrand {
		if i == statsTopBrands {
			break
		}
		fmt.Fprintf(&sb, "%d. %s · %d meals · %s\n", i+1, escapeHTML(bs.BrandName), bs.Meals,
			escapeHTML(pricing.Format(bs.Spend, stats.Currency)))
	}
	sb.WriteString("\n<i>Totals in other currencies are converted at fixed rates.</i>")
	sendHTML(ctx, tg, chatID, sb.String())
}
