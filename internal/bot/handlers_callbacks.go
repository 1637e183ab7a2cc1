package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/sushi-bot/internal/logger"
	appmodels "gitlab.com/yelinaung/sushi-bot/internal/models"
	"gitlab.com/yelinaung/sushi-bot/internal/tally"
)

const (
	sessionExpiredMsg = "⌛ This calculator has expired. Start again with /brands."
	staleMessageMsg   = "This calculator is no longer active."
	emptyBillMsg      = "Add at least one item first."
)

// answer acknowledges a callback query, optionally with a toast.
func answer(ctx context.Context, tg TelegramAPI, queryID, text string, alert bool) {
	_, err := tg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: queryID,
		Text:            text,
		ShowAlert:       alert,
	})
	if err != nil {
		logger.Log.Debug().Err(err).Msg("Failed to answer callback query")
	}
}

// editView replaces the text and keyboard of a calculator message.
func editView(ctx context.Context, tg TelegramAPI, chatID int64, messageID int, text string, keyboard *models.InlineKeyboardMarkup) {
	params := &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}
	if _, err := tg.EditMessageText(ctx, params); err != nil {
		logger.Log.Error().Err(err).Str("chat_id", logger.HashChatID(chatID)).Msg("Failed to edit calculator")
	}
}

// handleCallback handles every inline keyboard press.
func (b *Bot) handleCallback(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleCallbackCore(ctx, tgBot, update)
}

// handleCallbackCore is the testable implementation of handleCallback.
func (b *Bot) handleCallbackCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil {
		return
	}
	msg := cq.Message.Message
	if msg == nil {
		answer(ctx, tg, cq.ID, staleMessageMsg, false)
		return
	}

	switch data := cq.Data; {
	case strings.HasPrefix(data, brandCallbackPrefix):
		b.openCalculator(ctx, tg, cq, msg.Chat.ID, strings.TrimPrefix(data, brandCallbackPrefix))
	case data == cbNoop:
		answer(ctx, tg, cq.ID, "", false)
	case data == cbConfirm:
		b.confirmMeal(ctx, tg, cq, msg.Chat.ID, msg.ID)
	default:
		b.updateCalculator(ctx, tg, cq, msg.Chat.ID, msg.ID)
	}
}

// openCalculator starts a new session for the chosen brand, replacing any
// running one in the chat.
func (b *Bot) openCalculator(ctx context.Context, tg TelegramAPI, cq *models.CallbackQuery, chatID int64, brandID string) {
	userID := cq.From.ID
	brand, err := b.catalog.Get(ctx, b.identity(ctx, userID), brandID)
	if err != nil {
		answer(ctx, tg, cq.ID, "Brand not found.", true)
		return
	}

	s := tally.New(brand, b.userRegion(ctx, userID))
	text, keyboard := renderCalculator(s)
	sent, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: keyboard,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send calculator")
		answer(ctx, tg, cq.ID, "Failed to open calculator. Please try again.", true)
		return
	}

	s.MessageID = sent.ID
	b.sessions.Start(chatID, s)
	answer(ctx, tg, cq.ID, brand.Name, false)

	logger.Log.Info().
		Str("user_id", logger.HashUserID(userID)).
		Str("brand_id", brand.ID).
		Str("region", string(s.Region)).
		Msg("Calculator opened")
}

// applyAction mutates s for a calculator callback. It returns a toast for
// the user and whether the view changed.
func applyAction(s *tally.Session, data string) (string, bool) {
	switch {
	case strings.HasPrefix(data, cbIncPrefix):
		key, ok := parseItemCallback(strings.TrimPrefix(data, cbIncPrefix))
		if !ok {
			return "", false
		}
		before := s.Count(key)
		s.Increment(key)
		return "", s.Count(key) != before
	case strings.HasPrefix(data, cbDecPrefix):
		key, ok := parseItemCallback(strings.TrimPrefix(data, cbDecPrefix))
		if !ok || s.Count(key) == 0 {
			return "", false
		}
		s.Decrement(key)
		return "", true
	case data == cbHeadInc:
		s.IncHeadCount()
		return "", true
	case data == cbHeadDec:
		if s.HeadCount <= 1 {
			return "", false
		}
		s.DecHeadCount()
		return "", true
	case data == cbCharge:
		s.CycleServiceChargeType()
		return formatChargeLabel(s.ServiceCharge, s.Region.CurrencySymbol()), true
	case data == cbReset:
		if s.IsEmpty() && s.HeadCount == 1 {
			return "", false
		}
		s.Reset()
		return "Cleared", true
	case data == cbFinish:
		if s.IsEmpty() {
			return emptyBillMsg, false
		}
		s.Confirming = true
		return "", true
	case data == cbCancel:
		if !s.Confirming {
			return "", false
		}
		s.Confirming = false
		return "", true
	}
	return "", false
}

// updateCalculator applies a counting callback and redraws the message.
func (b *Bot) updateCalculator(ctx context.Context, tg TelegramAPI, cq *models.CallbackQuery, chatID int64, messageID int) {
	var (
		toast    string
		changed  bool
		stale    bool
		text     string
		keyboard *models.InlineKeyboardMarkup
	)

	live := b.sessions.Update(chatID, func(s *tally.Session) {
		if s.MessageID != messageID {
			stale = true
			return
		}
		toast, changed = applyAction(s, cq.Data)
		if changed {
			text, keyboard = renderSession(s)
		}
	})

	switch {
	case !live:
		answer(ctx, tg, cq.ID, sessionExpiredMsg, true)
		return
	case stale:
		answer(ctx, tg, cq.ID, staleMessageMsg, false)
		return
	}

	answer(ctx, tg, cq.ID, toast, false)
	if changed {
		editView(ctx, tg, chatID, messageID, text, keyboard)
	}
}

// confirmMeal checks out the session and records the meal.
func (b *Bot) confirmMeal(ctx context.Context, tg TelegramAPI, cq *models.CallbackQuery, chatID int64, messageID int) {
	userID := cq.From.ID

	var (
		rec   appmodels.MealRecord
		ready bool
		stale bool
	)
	live := b.sessions.Update(chatID, func(s *tally.Session) {
		if s.MessageID != messageID || !s.Confirming {
			stale = true
			return
		}
		if s.IsEmpty() {
			return
		}
		rec = s.Checkout(b.newID(), userID, b.now())
		// Claimed: a second confirm for this message is now stale.
		s.Confirming = false
		ready = true
	})

	switch {
	case !live:
		answer(ctx, tg, cq.ID, sessionExpiredMsg, true)
		return
	case stale:
		answer(ctx, tg, cq.ID, staleMessageMsg, false)
		return
	case !ready:
		answer(ctx, tg, cq.ID, emptyBillMsg, true)
		return
	}

	if err := b.history.Record(ctx, &rec); err != nil {
		logger.Log.Error().Err(err).Str("user_id", logger.HashUserID(userID)).Msg("Failed to record meal")
		b.sessions.Update(chatID, func(s *tally.Session) {
			if s.MessageID == messageID {
				s.Confirming = true
			}
		})
		answer(ctx, tg, cq.ID, "❌ Failed to save the meal. Please try again.", true)
		return
	}

	b.sessions.Remove(chatID)
	answer(ctx, tg, cq.ID, fmt.Sprintf("Meal #%d saved", rec.UserMealNumber), false)
	editView(ctx, tg, chatID, messageID, "✅ <b>Meal saved</b>\n\n"+formatMealDetail(&rec), nil)
}
