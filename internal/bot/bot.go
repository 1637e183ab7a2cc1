// Package bot provides the Telegram bot initialization and handlers.
package bot

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"gitlab.com/yelinaung/sushi-bot/internal/catalog"
	"gitlab.com/yelinaung/sushi-bot/internal/config"
	"gitlab.com/yelinaung/sushi-bot/internal/history"
	"gitlab.com/yelinaung/sushi-bot/internal/logger"
	"gitlab.com/yelinaung/sushi-bot/internal/models"
	"gitlab.com/yelinaung/sushi-bot/internal/tally"
)

// UserStore is the subset of the user repository the bot needs.
type UserStore interface {
	UpsertUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateRegion(ctx context.Context, id int64, region models.Region) error
}

// Bot wraps the Telegram bot with application dependencies.
type Bot struct {
	bot        *bot.Bot
	cfg        *config.Config
	users      UserStore
	catalog    *catalog.Service
	history    *history.Service
	sessions   *tally.Store
	httpClient *http.Client
	newID      func() string
	now        func() time.Time

	// listings remembers the brand ids of each user's last /brands reply so
	// commands can refer to brands by position.
	listingsMu sync.Mutex
	listings   map[int64][]string
}

// New creates a new Bot instance.
func New(cfg *config.Config, users UserStore, brands *catalog.Service, meals *history.Service) (*Bot, error) {
	b := newBot(cfg, users, brands, meals)

	opts := []bot.Option{
		bot.WithMiddlewares(b.whitelistMiddleware),
		bot.WithDefaultHandler(b.defaultHandler),
	}

	telegramBot, err := bot.New(cfg.TelegramBotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b.bot = telegramBot
	b.registerHandlers()

	return b, nil
}

func newBot(cfg *config.Config, users UserStore, brands *catalog.Service, meals *history.Service) *Bot {
	return &Bot{
		cfg:        cfg,
		users:      users,
		catalog:    brands,
		history:    meals,
		sessions:   tally.NewStore(cfg.SessionTTL),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		newID:      uuid.NewString,
		now:        time.Now,
		listings:   make(map[int64][]string),
	}
}

// Start begins polling for updates. It blocks until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	go b.startSessionSweeper(ctx)

	logger.Log.Info().Msg("Bot started polling")
	b.bot.Start(ctx)
}

// registerHandlers sets up command and callback handlers.
func (b *Bot) registerHandlers() {
	commands := []struct {
		pattern string
		handler bot.HandlerFunc
	}{
		{"start", b.handleStart},
		{"help", b.handleHelp},
		{"region", b.handleRegion},
		{"brands", b.handleBrands},
		{"mybrands", b.handleMyBrands},
		{"history", b.handleHistory},
		{"meal", b.handleMeal},
		{"deletebrand", b.handleDeleteBrand},
		{"delete", b.handleDeleteMeal},
		{"stats", b.handleStats},
		{"chart", b.handleChart},
		{"export", b.handleExport},
		{"setprice", b.handleSetPrice},
		{"setcharge", b.handleSetCharge},
		{"newbrand", b.handleNewBrand},
		{"addplate", b.handleAddPlate},
		{"addside", b.handleAddSide},
		{"token", b.handleToken},
	}
	// Command matching uses the bot_command entity, so /delete does not
	// also fire for /deletebrand.
	for _, c := range commands {
		b.bot.RegisterHandler(bot.HandlerTypeMessageText, c.pattern, bot.MatchTypeCommandStartOnly, c.handler)
	}

	// Every calculator callback goes through one dispatcher.
	b.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, b.handleCallback)
}

// whitelistMiddleware checks if the user is whitelisted before processing.
func (b *Bot) whitelistMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
		if !b.allowUpdate(ctx, tgBot, update) {
			return
		}
		next(ctx, tgBot, update)
	}
}

// allowUpdate reports whether update may be handled, registering the sender
// on the way through.
func (b *Bot) allowUpdate(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) bool {
	userID := extractUserID(update)
	if userID == 0 {
		return false
	}

	username := extractUsername(update)
	logUserAction(userID, update)

	if !b.cfg.IsUserWhitelisted(userID, username) {
		logger.Log.Warn().
			Str("user_id", logger.HashUserID(userID)).
			Msg("Blocked non-whitelisted user")
		if update.Message != nil {
			_, _ = tg.SendMessage(ctx, &bot.SendMessageParams{
				ChatID: update.Message.Chat.ID,
				Text:   "⛔ Sorry, you are not authorized to use this bot.",
			})
		}
		return false
	}

	if err := b.ensureUserRegistered(ctx, update); err != nil {
		logger.Log.Error().
			Str("user_id", logger.HashUserID(userID)).
			Err(err).
			Msg("Failed to register user")
	}
	return true
}

// logUserAction logs the user's input/action without message contents.
func logUserAction(userID int64, update *tgmodels.Update) {
	switch {
	case update.Message != nil:
		msg := update.Message
		event := logger.Log.Info().
			Str("user_id", logger.HashUserID(userID)).
			Str("chat_id", logger.HashChatID(msg.Chat.ID))

		if msg.Text != "" {
			event = event.Str("text", logger.SanitizeText(msg.Text))
		}
		if len(msg.Photo) > 0 {
			event = event.Str("type", "photo")
		}

		event.Msg("User input")

	case update.CallbackQuery != nil:
		logger.Log.Info().
			Str("user_id", logger.HashUserID(userID)).
			Str("data", update.CallbackQuery.Data).
			Msg("Callback query")
	}
}

// extractUsername gets the username from the update.
func extractUsername(update *tgmodels.Update) string {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.Username
	}
	if update.CallbackQuery != nil {
		return update.CallbackQuery.From.Username
	}
	return ""
}

// extractUserID gets the user ID from various update types.
func extractUserID(update *tgmodels.Update) int64 {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.ID
	}
	if update.CallbackQuery != nil {
		return update.CallbackQuery.From.ID
	}
	return 0
}

// ensureUserRegistered creates or updates the user record.
func (b *Bot) ensureUserRegistered(ctx context.Context, update *tgmodels.Update) error {
	var from *tgmodels.User
	switch {
	case update.Message != nil && update.Message.From != nil:
		from = update.Message.From
	case update.CallbackQuery != nil:
		from = &update.CallbackQuery.From
	default:
		return nil
	}

	user := &models.User{
		ID:        from.ID,
		Username:  from.Username,
		FirstName: from.FirstName,
		LastName:  from.LastName,
		Region:    b.cfg.DefaultRegion,
	}
	if err := b.users.UpsertUser(ctx, user); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// defaultHandler handles photos captioned with /logo and anything else the
// registered handlers did not match.
func (b *Bot) defaultHandler(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.defaultHandlerCore(ctx, tgBot, update)
}

func (b *Bot) defaultHandlerCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}

	if len(update.Message.Photo) > 0 {
		b.handleLogoPhotoCore(ctx, tg, update)
		return
	}

	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    update.Message.Chat.ID,
		Text:      "I didn't understand that. Use /brands to start a meal or /help to see all commands.",
		ParseMode: tgmodels.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send default response")
	}
}

// identity resolves the catalog identity of a Telegram user.
func (b *Bot) identity(ctx context.Context, userID int64) catalog.Identity {
	id := catalog.Identity{UserID: userID, IsAdmin: b.cfg.IsAdmin(userID)}
	if id.IsAdmin {
		return id
	}
	if user, err := b.users.GetUserByID(ctx, userID); err == nil {
		id.IsAdmin = user.IsAdmin
	}
	return id
}

// userRegion returns the user's chosen region, falling back to the
// configured default.
func (b *Bot) userRegion(ctx context.Context, userID int64) models.Region {
	user, err := b.users.GetUserByID(ctx, userID)
	if err != nil || user.Region == "" {
		return b.cfg.DefaultRegion
	}
	return user.Region
}
