package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/sushi-bot/internal/logger"
	appmodels "gitlab.com/yelinaung/sushi-bot/internal/models"
)

// extractCommandArgs strips the /command prefix (and optional @botname suffix)
// from a message and returns the remaining trimmed arguments.
func extractCommandArgs(text, command string) string {
	args := strings.TrimSpace(strings.TrimPrefix(text, command))
	if strings.HasPrefix(args, "@") {
		if spaceIdx := strings.Index(args, " "); spaceIdx != -1 {
			args = strings.TrimSpace(args[spaceIdx:])
		} else {
			args = ""
		}
	}
	return args
}

// escapeHTML escapes special HTML characters for Telegram HTML parse mode.
func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// formatGreeting returns a greeting suffix with the user's name.
func formatGreeting(firstName string) string {
	if firstName == "" {
		return ""
	}
	return ", " + escapeHTML(firstName)
}

// sendHTML sends an HTML message and logs failures.
func sendHTML(ctx context.Context, tg TelegramAPI, chatID int64, text string) {
	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Str("chat_id", logger.HashChatID(chatID)).Msg("Failed to send message")
	}
}

// handleStart handles the /start command.
func (b *Bot) handleStart(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleStartCore(ctx, tgBot, update)
}

// handleStartCore is the testable implementation of handleStart.
func (b *Bot) handleStartCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	firstName := ""
	if update.Message.From != nil {
		firstName = update.Message.From.FirstName
	}

	region := appmodels.DefaultRegion
	if update.Message.From != nil {
		region = b.userRegion(ctx, update.Message.From.ID)
	}

	text := fmt.Sprintf(`🍣 Welcome%s!

I add up your conveyor-belt sushi bill while you eat.

<b>Quick Start:</b>
• Pick a restaurant with /brands
• Tap ➕ for every plate you take
• Tap <b>Finish</b> to see the bill and save it

Your region is <b>%s</b> (%s). Change it with <code>/region</code>.
Use /help to see all available commands.`,
		formatGreeting(firstName), region.Name(), escapeHTML(region.CurrencySymbol()))

	logger.Log.Debug().Str("chat_id", logger.HashChatID(update.Message.Chat.ID)).Msg("Sending /start response")
	sendHTML(ctx, tg, update.Message.Chat.ID, text)
}

// handleHelp handles the /help command.
func (b *Bot) handleHelp(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleHelpCore(ctx, tgBot, update)
}

// handleHelpCore is the testable implementation of handleHelp.
func (b *Bot) handleHelpCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	text := `📚 <b>Available Commands</b>

<b>Eating:</b>
• <code>/brands</code> - Pick a restaurant and start counting plates
• <code>/region [mainland|hk|taiwan]</code> - Show or change your region

<b>History:</b>
• <code>/history</code> - Recent meals
• <code>/meal &lt;n&gt;</code> - Details of meal #n
• <code>/delete &lt;n&gt;</code> - Delete meal #n
• <code>/stats [currency]</code> - Lifetime totals
• <code>/chart</code> - Spend by restaurant
• <code>/export</code> - Download your meals as CSV

<b>Your Brands:</b>
• <code>/mybrands</code> - Brands you own
• <code>/newbrand &lt;name&gt;</code> - Create a brand
• <code>/setprice &lt;brand&gt; &lt;p|s&gt; &lt;item#&gt; &lt;price&gt; [region]</code>
• <code>/setcharge &lt;brand&gt; &lt;percent|head|none&gt; [value]</code>
• <code>/addplate &lt;brand&gt; &lt;name&gt; &lt;price&gt; [color]</code>
• <code>/addside &lt;brand&gt; &lt;name&gt; &lt;price&gt; [icon]</code>
• <code>/deletebrand &lt;brand&gt;</code>
• Send a photo captioned <code>/logo &lt;brand&gt;</code> to set a logo

<i>&lt;brand&gt; is a brand id or its number in your last /brands list. Editing a shared brand saves your own copy.</i>`

	sendHTML(ctx, tg, update.Message.Chat.ID, text)
}

// handleRegion handles the /region command.
func (b *Bot) handleRegion(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleRegionCore(ctx, tgBot, update)
}

// handleRegionCore is the testable implementation of handleRegion.
func (b *Bot) handleRegionCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID
	args := extractCommandArgs(update.Message.Text, "/region")

	if args == "" {
		region := b.userRegion(ctx, userID)
		options := make([]string, 0, len(appmodels.AllRegions))
		for _, r := range appmodels.AllRegions {
			options = append(options, fmt.Sprintf("<code>%s</code> (%s)", r, r.Name()))
		}
		sendHTML(ctx, tg, chatID, fmt.Sprintf("🌏 Your region is <b>%s</b> (%s).\n\nChange it with <code>/region &lt;name&gt;</code>: %s",
			region.Name(), escapeHTML(region.CurrencySymbol()), strings.Join(options, ", ")))
		return
	}

	region, ok := appmodels.ParseRegion(args)
	if !ok {
		sendHTML(ctx, tg, chatID, fmt.Sprintf("❌ Unknown region <code>%s</code>. Use mainland, hk or taiwan.", escapeHTML(args)))
		return
	}

	if err := b.users.UpdateRegion(ctx, userID, region); err != nil {
		logger.Log.Error().Err(err).Str("user_id", logger.HashUserID(userID)).Msg("Failed to update region")
		sendHTML(ctx, tg, chatID, "❌ Failed to update region. Please try again.")
		return
	}

	logger.Log.Info().Str("user_id", logger.HashUserID(userID)).Str("region", string(region)).Msg("Region updated")
	sendHTML(ctx, tg, chatID, fmt.Sprintf("✅ Region set to <b>%s</b>. Prices are now shown in %s.",
		region.Name(), escapeHTML(region.CurrencySymbol())))
}
