package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/sushi-bot/internal/catalog"
	"gitlab.com/yelinaung/sushi-bot/internal/logger"
	appmodels "gitlab.com/yelinaung/sushi-bot/internal/models"
	"gitlab.com/yelinaung/sushi-bot/internal/pricing"
)

const (
	brandCallbackPrefix = "brand:"
	brandButtonsPerRow  = 2
)

// rememberListing stores the brand ids shown to userID, in display order.
func (b *Bot) rememberListing(userID int64, brands []appmodels.Brand) {
	ids := make([]string, len(brands))
	for i := range brands {
		ids[i] = brands[i].ID
	}

	b.listingsMu.Lock()
	defer b.listingsMu.Unlock()
	b.listings[userID] = ids
}

// replaceListed points the user's listing entries for oldID at newID, so a
// position keeps naming the private copy once a shared brand was forked.
func (b *Bot) replaceListed(userID int64, oldID, newID string) {
	if oldID == newID {
		return
	}

	b.listingsMu.Lock()
	defer b.listingsMu.Unlock()
	for i, id := range b.listings[userID] {
		if id == oldID {
			b.listings[userID][i] = newID
		}
	}
}

// resolveBrandRef turns a brand id or a 1-based position in the user's last
// /brands listing into a brand the user may see.
func (b *Bot) resolveBrandRef(ctx context.Context, userID int64, ref string) (*appmodels.Brand, error) {
	ref = strings.TrimSpace(ref)
	if n, err := strconv.Atoi(ref); err == nil {
		b.listingsMu.Lock()
		ids := b.listings[userID]
		if n < 1 || n > len(ids) {
			b.listingsMu.Unlock()
			return nil, fmt.Errorf("%w: no brand #%d in your last /brands list", catalog.ErrNotFound, n)
		}
		ref = ids[n-1]
		b.listingsMu.Unlock()
	}
	return b.catalog.Get(ctx, b.identity(ctx, userID), ref)
}

// brandErrorText turns a catalog error into a user-facing message.
func brandErrorText(err error) string {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return "❌ Brand not found. Use /brands to see the list."
	case errors.Is(err, catalog.ErrForbidden):
		return "⛔ You can only change your own brands."
	case errors.Is(err, catalog.ErrInvalidBrand):
		return "❌ " + escapeHTML(strings.TrimPrefix(err.Error(), catalog.ErrInvalidBrand.Error()+": "))
	case errors.Is(err, catalog.ErrNoObjectStore):
		return "❌ Logo uploads are not enabled on this bot."
	default:
		return "❌ Something went wrong. Please try again."
	}
}

// brandLabel is the name shown for a brand in listings.
func brandLabel(brand *appmodels.Brand, userID int64) string {
	label := brand.Name
	if brand.OwnedBy(userID) {
		label += " 👤"
	}
	return label
}

// handleBrands handles the /brands command.
func (b *Bot) handleBrands(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleBrandsCore(ctx, tgBot, update)
}

// handleBrandsCore is the testable implementation of handleBrands.
func (b *Bot) handleBrandsCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID
	region := b.userRegion(ctx, userID)

	brands, err := b.catalog.Visible(ctx, b.identity(ctx, userID), &region)
	if err != nil {
		logger.Log.Error().Err(err).Str("user_id", logger.HashUserID(userID)).Msg("Failed to list brands")
		sendHTML(ctx, tg, chatID, "❌ Failed to fetch brands. Please try again.")
		return
	}
	if len(brands) == 0 {
		sendHTML(ctx, tg, chatID, "No brands available yet. Create one with <code>/newbrand &lt;name&gt;</code>.")
		return
	}

	b.rememberListing(userID, brands)

	var sb strings.Builder
	fmt.Fprintf(&sb, "🍣 <b>Pick a restaurant</b> (%s)\n\n", region.Name())
	var rows [][]models.InlineKeyboardButton
	row := make([]models.InlineKeyboardButton, 0, brandButtonsPerRow)
	for i := range brands {
		label := brandLabel(&brands[i], userID)
		fmt.Fprintf(&sb, "%d. %s\n", i+1, escapeHTML(label))

		row = append(row, models.InlineKeyboardButton{
			Text:         label,
			CallbackData: brandCallbackPrefix + brands[i].ID,
		})
		if len(row) == brandButtonsPerRow {
			rows = append(rows, row)
			row = make([]models.InlineKeyboardButton, 0, brandButtonsPerRow)
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	_, err = tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        sb.String(),
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: &models.InlineKeyboardMarkup{InlineKeyboard: rows},
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send brand list")
	}
}

// handleMyBrands handles the /mybrands command.
func (b *Bot) handleMyBrands(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleMyBrandsCore(ctx, tgBot, update)
}

// handleMyBrandsCore is the testable implementation of handleMyBrands.
func (b *Bot) handleMyBrandsCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	brands, err := b.catalog.Owned(ctx, b.identity(ctx, userID))
	if err != nil {
		logger.Log.Error().Err(err).Str("user_id", logger.HashUserID(userID)).Msg("Failed to list own brands")
		sendHTML(ctx, tg, chatID, "❌ Failed to fetch your brands. Please try again.")
		return
	}
	if len(brands) == 0 {
		sendHTML(ctx, tg, chatID, "You have no brands of your own yet.\n\nCreate one with <code>/newbrand &lt;name&gt;</code> or edit a shared brand to get a copy.")
		return
	}

	region := b.userRegion(ctx, userID)
	var sb strings.Builder
	sb.WriteString("👤 <b>Your Brands</b>\n")
	for i := range brands {
		sb.WriteString("\n")
		sb.WriteString(formatBrandMenu(&brands[i], region))
	}
	sendHTML(ctx, tg, chatID, sb.String())
}

// formatBrandMenu renders a brand's numbered plates and side dishes with
// prices resolved for region.
func formatBrandMenu(brand *appmodels.Brand, region appmodels.Region) string {
	symbol := region.CurrencySymbol()
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>%s</b> <code>%s</code>\n", escapeHTML(brand.Name), escapeHTML(brand.ID))
	for i, item := range brand.Plates {
		fmt.Fprintf(&sb, "  p%d. %s %s\n", i+1, escapeHTML(item.Name), escapeHTML(pricing.Format(pricing.ResolvePrice(item, region), symbol)))
	}
	for i, item := range brand.SideDishes {
		fmt.Fprintf(&sb, "  s%d. %s %s\n", i+1, escapeHTML(item.Name), escapeHTML(pricing.Format(pricing.ResolvePrice(item, region), symbol)))
	}
	fmt.Fprintf(&sb, "  Service charge: %s\n", escapeHTML(formatChargeRule(brand.DefaultServiceCharge, symbol)))
	return sb.String()
}

// formatChargeRule describes a service charge rule.
func formatChargeRule(cfg appmodels.ServiceChargeConfig, symbol string) string {
	switch cfg.Type {
	case appmodels.ServiceChargePercent:
		return cfg.Value.String() + "%"
	case appmodels.ServiceChargeHead:
		return pricing.Format(cfg.Value, symbol) + " per person"
	default:
		return "none"
	}
}
