package bot

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/sushi-bot/internal/admin"
	"gitlab.com/yelinaung/sushi-bot/internal/logger"
)

// handleToken handles the /token command, which mints a dashboard token.
func (b *Bot) handleToken(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleTokenCore(ctx, tgBot, update)
}

// handleTokenCore is the testable implementation of handleToken.
func (b *Bot) handleTokenCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	if !b.identity(ctx, userID).IsAdmin {
		sendHTML(ctx, tg, chatID, "⛔ Only admins can use this command.")
		return
	}
	if b.cfg.AdminJWTSecret == "" {
		sendHTML(ctx, tg, chatID, "❌ The admin dashboard is not enabled on this bot.")
		return
	}

	token, err := admin.IssueToken(b.cfg.AdminJWTSecret, userID, true, admin.DefaultTokenTTL, b.now())
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to issue dashboard token")
		sendHTML(ctx, tg, chatID, "❌ Failed to issue a token. Please try again.")
		return
	}

	logger.Log.Info().Str("user_id", logger.HashUserID(userID)).Msg("Dashboard token issued")
	sendHTML(ctx, tg, chatID, fmt.Sprintf("🔑 Dashboard token (valid for %s):\n\n<code>%s</code>\n\n<i>Anyone holding this token can edit shared brands.</i>",
		admin.DefaultTokenTTL, token))
}
