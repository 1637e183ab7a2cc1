package bot

import (
	"fmt"
	"strings"

	"github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	appmodels "gitlab.com/yelinaung/sushi-bot/internal/models"
	"gitlab.com/yelinaung/sushi-bot/internal/pricing"
	"gitlab.com/yelinaung/sushi-bot/internal/tally"
)

// Calculator callback data.
const (
	cbIncPrefix  = "inc:"
	cbDecPrefix  = "dec:"
	cbHeadInc    = "head:+"
	cbHeadDec    = "head:-"
	cbCharge     = "charge"
	cbReset      = "reset"
	cbFinish     = "finish"
	cbConfirm    = "confirm"
	cbCancel     = "cancel"
	cbNoop       = "noop"
	itemNameCols = 18
)

// itemCallback builds the inc/dec callback data for an item.
func itemCallback(prefix string, key appmodels.ItemKey) string {
	return prefix + itemTypeCode(key.Type) + ":" + key.ID
}

// parseItemCallback parses "<p|s>:<id>" after the inc/dec prefix.
func parseItemCallback(rest string) (appmodels.ItemKey, bool) {
	code, id, ok := strings.Cut(rest, ":")
	if !ok || id == "" {
		return appmodels.ItemKey{}, false
	}
	itemType, ok := parseItemType(code)
	if !ok {
		return appmodels.ItemKey{}, false
	}
	return appmodels.ItemKey{Type: itemType, ID: id}, true
}

// truncateName shortens s to n runes for button labels.
func truncateName(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// formatChargeLabel describes the active service charge on the toggle button.
func formatChargeLabel(cfg appmodels.ServiceChargeConfig, symbol string) string {
	switch cfg.Type {
	case appmodels.ServiceChargePercent:
		return "Service " + cfg.Value.String() + "%"
	case appmodels.ServiceChargeHead:
		return "Service " + pricing.Format(cfg.Value, symbol) + "/person"
	default:
		return "No service charge"
	}
}

// formatBill renders the bill lines shared by the calculator and confirm views.
func formatBill(sb *strings.Builder, s *tally.Session, bill pricing.Bill) {
	symbol := s.Region.CurrencySymbol()

	for _, line := range bill.LineItems {
		if line.Quantity <= 0 {
			continue
		}
		fmt.Fprintf(sb, "%s ×%d  %s\n", escapeHTML(line.Name), line.Quantity, escapeHTML(pricing.Format(line.LineTotal(), symbol)))
	}
	if len(bill.LineItems) > 0 {
		sb.WriteString("\n")
	}

	fmt.Fprintf(sb, "Subtotal: %s\n", escapeHTML(pricing.Format(bill.Subtotal, symbol)))
	if s.ServiceCharge.Type != appmodels.ServiceChargeNone {
		fmt.Fprintf(sb, "Service charge (%s): %s\n",
			escapeHTML(formatChargeRule(s.ServiceCharge, symbol)),
			escapeHTML(pricing.Format(bill.ServiceChargeAmount, symbol)))
	}
	fmt.Fprintf(sb, "<b>Total: %s</b>", escapeHTML(pricing.Format(bill.Total, symbol)))
	if s.HeadCount > 1 {
		perHead := bill.Total.Div(decimal.NewFromInt(int64(s.HeadCount)))
		fmt.Fprintf(sb, "\n%s per person", escapeHTML(pricing.Format(perHead, symbol)))
	}
}

// renderCalculator renders the counting view of a session.
func renderCalculator(s *tally.Session) (string, *models.InlineKeyboardMarkup) {
	bill := s.Bill()
	symbol := s.Region.CurrencySymbol()

	var sb strings.Builder
	fmt.Fprintf(&sb, "🍣 <b>%s</b> · %s\n", escapeHTML(s.Brand.Name), s.Region.Name())
	fmt.Fprintf(&sb, "Plates: %d · Diners: %d\n\n", bill.TotalPlateCount, s.HeadCount)
	formatBill(&sb, s, bill)

	var rows [][]models.InlineKeyboardButton
	for _, item := range s.Brand.Items() {
		key := item.Key()
		label := fmt.Sprintf("%s ×%d · %s", truncateName(item.Name, itemNameCols), s.Count(key),
			pricing.Format(pricing.ResolvePrice(item, s.Region), symbol))
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: "➖", CallbackData: itemCallback(cbDecPrefix, key)},
			{Text: label, CallbackData: cbNoop},
			{Text: "➕", CallbackData: itemCallback(cbIncPrefix, key)},
		})
	}

	if s.ServiceCharge.Type == appmodels.ServiceChargeHead {
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: "➖", CallbackData: cbHeadDec},
			{Text: fmt.Sprintf("👥 %d", s.HeadCount), CallbackData: cbNoop},
			{Text: "➕", CallbackData: cbHeadInc},
		})
	}

	rows = append(rows,
		[]models.InlineKeyboardButton{
			{Text: "🔄 " + formatChargeLabel(s.ServiceCharge, symbol), CallbackData: cbCharge},
		},
		[]models.InlineKeyboardButton{
			{Text: "🗑 Reset", CallbackData: cbReset},
			{Text: "✅ Finish", CallbackData: cbFinish},
		},
	)

	return sb.String(), &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// renderConfirm renders the final bill with confirm and back buttons.
func renderConfirm(s *tally.Session) (string, *models.InlineKeyboardMarkup) {
	bill := s.Bill()

	var sb strings.Builder
	fmt.Fprintf(&sb, "🧾 <b>%s</b> · %s\n", escapeHTML(s.Brand.Name), s.Region.Name())
	fmt.Fprintf(&sb, "%d plates · %d diners\n\n", bill.TotalPlateCount, s.HeadCount)
	formatBill(&sb, s, bill)
	sb.WriteString("\n\nSave this meal?")

	keyboard := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "✅ Confirm", CallbackData: cbConfirm},
				{Text: "↩️ Back", CallbackData: cbCancel},
			},
		},
	}
	return sb.String(), keyboard
}

// renderSession picks the view matching the session state.
func renderSession(s *tally.Session) (string, *models.InlineKeyboardMarkup) {
	if s.Confirming {
		return renderConfirm(s)
	}
	return renderCalculator(s)
}
