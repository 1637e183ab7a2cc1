package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/sushi-bot/internal/catalog"
	"gitlab.com/yelinaung/sushi-bot/internal/logger"
	appmodels "gitlab.com/yelinaung/sushi-bot/internal/models"
)

// editBrand resolves ref, applies edit to a copy of the brand and saves it.
// Shared brands come back as a new private copy.
func (b *Bot) editBrand(
	ctx context.Context,
	tg TelegramAPI,
	chatID, userID int64,
	ref, action string,
	edit func(*appmodels.Brand) error,
) {
	brand, err := b.resolveBrandRef(ctx, userID, ref)
	if err != nil {
		sendHTML(ctx, tg, chatID, brandErrorText(err))
		return
	}

	edited := brand.Clone()
	if err := edit(edited); err != nil {
		sendHTML(ctx, tg, chatID, brandErrorText(err))
		return
	}

	saved, err := b.catalog.Save(ctx, b.identity(ctx, userID), edited)
	if err != nil {
		logger.Log.Warn().Err(err).Str("user_id", logger.HashUserID(userID)).Str("brand_id", brand.ID).Msg("Brand edit rejected")
		sendHTML(ctx, tg, chatID, brandErrorText(err))
		return
	}

	b.replaceListed(userID, brand.ID, saved.ID)

	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ %s\n", action)
	if saved.ID != brand.ID {
		fmt.Fprintf(&sb, "<i>%s is shared, so this was saved as your own copy.</i>\n", escapeHTML(brand.Name))
	}
	sb.WriteString("\n")
	sb.WriteString(formatBrandMenu(saved, b.userRegion(ctx, userID)))
	sendHTML(ctx, tg, chatID, sb.String())
}

// handleSetPrice handles the /setprice command.
func (b *Bot) handleSetPrice(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleSetPriceCore(ctx, tgBot, update)
}

// handleSetPriceCore is the testable implementation of handleSetPrice.
func (b *Bot) handleSetPriceCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	chatID := update.Message.Chat.ID
	args, err := parseSetPriceArgs(extractCommandArgs(update.Message.Text, "/setprice"))
	if err != nil {
		sendHTML(ctx, tg, chatID, fmt.Sprintf("❌ %s\n\nUsage: <code>/setprice &lt;brand&gt; &lt;p|s&gt; &lt;item#&gt; &lt;price&gt; [region]</code>",
			escapeHTML(err.Error())))
		return
	}

	action := "Price updated"
	if args.Region != nil {
		action = fmt.Sprintf("%s price updated", args.Region.Name())
	}
	b.editBrand(ctx, tg, chatID, update.Message.From.ID, args.BrandRef, action, func(brand *appmodels.Brand) error {
		return catalog.SetItemPrice(brand, args.ItemType, args.Position, args.Price, args.Region)
	})
}

// handleSetCharge handles the /setcharge command.
func (b *Bot) handleSetCharge(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleSetChargeCore(ctx, tgBot, update)
}

// handleSetChargeCore is the testable implementation of handleSetCharge.
func (b *Bot) handleSetChargeCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	chatID := update.Message.Chat.ID
	ref, charge, err := parseSetChargeArgs(extractCommandArgs(update.Message.Text, "/setcharge"))
	if err != nil {
		sendHTML(ctx, tg, chatID, fmt.Sprintf("❌ %s\n\nUsage: <code>/setcharge &lt;brand&gt; &lt;percent|head|none&gt; [value]</code>",
			escapeHTML(err.Error())))
		return
	}

	b.editBrand(ctx, tg, chatID, update.Message.From.ID, ref, "Service charge updated", func(brand *appmodels.Brand) error {
		brand.DefaultServiceCharge = charge
		return nil
	})
}

// handleNewBrand handles the /newbrand command.
func (b *Bot) handleNewBrand(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleNewBrandCore(ctx, tgBot, update)
}

// handleNewBrandCore is the testable implementation of handleNewBrand.
func (b *Bot) handleNewBrandCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID
	name := extractCommandArgs(update.Message.Text, "/newbrand")
	if name == "" {
		sendHTML(ctx, tg, chatID, "Usage: <code>/newbrand &lt;name&gt;</code>")
		return
	}

	brand, err := b.catalog.Save(ctx, b.identity(ctx, userID), catalog.NewBrandTemplate(name))
	if err != nil {
		sendHTML(ctx, tg, chatID, brandErrorText(err))
		return
	}

	logger.Log.Info().Str("user_id", logger.HashUserID(userID)).Str("brand_id", brand.ID).Msg("Brand created")
	sendHTML(ctx, tg, chatID, "✅ Brand created\n\n"+formatBrandMenu(brand, b.userRegion(ctx, userID))+
		"\nAdd items with <code>/addplate</code> and <code>/addside</code>.")
}

// handleAddPlate handles the /addplate command.
func (b *Bot) handleAddPlate(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleAddItemCore(ctx, tgBot, update, appmodels.ItemTypePlate)
}

// handleAddSide handles the /addside command.
func (b *Bot) handleAddSide(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleAddItemCore(ctx, tgBot, update, appmodels.ItemTypeSide)
}

// handleAddItemCore is the testable implementation of handleAddPlate and
// handleAddSide.
func (b *Bot) handleAddItemCore(ctx context.Context, tg TelegramAPI, update *models.Update, itemType appmodels.ItemType) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	chatID := update.Message.Chat.ID
	command, extraName := "/addplate", "color"
	if itemType == appmodels.ItemTypeSide {
		command, extraName = "/addside", "icon"
	}

	args, err := parseAddItemArgs(extractCommandArgs(update.Message.Text, command))
	if err != nil {
		sendHTML(ctx, tg, chatID, fmt.Sprintf("❌ %s\n\nUsage: <code>%s &lt;brand&gt; &lt;name&gt; &lt;price&gt; [%s]</code>",
			escapeHTML(err.Error()), command, extraName))
		return
	}

	item := appmodels.CatalogItem{Name: args.Name, BasePrice: args.Price, Type: itemType}
	if itemType == appmodels.ItemTypePlate {
		color, ok := parsePlateColor(args.Extra)
		if !ok {
			sendHTML(ctx, tg, chatID, fmt.Sprintf("❌ Unknown color <code>%s</code>. Use a name like red or a hex value like #FF0000.",
				escapeHTML(args.Extra)))
			return
		}
		item.Color = color
	} else {
		item.Icon = args.Extra
	}

	label := "Plate"
	if itemType == appmodels.ItemTypeSide {
		label = "Side dish"
	}
	b.editBrand(ctx, tg, chatID, update.Message.From.ID, args.BrandRef, fmt.Sprintf("%s %s added", label, escapeHTML(args.Name)),
		func(brand *appmodels.Brand) error {
			catalog.AddItem(brand, item)
			return nil
		})
}

// handleDeleteBrand handles the /deletebrand command.
func (b *Bot) handleDeleteBrand(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleDeleteBrandCore(ctx, tgBot, update)
}

// handleDeleteBrandCore is the testable implementation of handleDeleteBrand.
func (b *Bot) handleDeleteBrandCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID
	ref := extractCommandArgs(update.Message.Text, "/deletebrand")
	if ref == "" {
		sendHTML(ctx, tg, chatID, "Usage: <code>/deletebrand &lt;brand&gt;</code>")
		return
	}

	brand, err := b.resolveBrandRef(ctx, userID, ref)
	if err != nil {
		sendHTML(ctx, tg, chatID, brandErrorText(err))
		return
	}
	if err := b.catalog.Delete(ctx, b.identity(ctx, userID), brand.ID); err != nil {
		sendHTML(ctx, tg, chatID, brandErrorText(err))
		return
	}

	logger.Log.Info().Str("user_id", logger.HashUserID(userID)).Str("brand_id", brand.ID).Msg("Brand deleted")
	sendHTML(ctx, tg, chatID, fmt.Sprintf("🗑 Brand %s deleted. Your meal history is kept.", escapeHTML(brand.Name)))
}
