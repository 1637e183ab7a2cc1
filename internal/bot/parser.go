package bot

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/sushi-bot/internal/catalog"
	"gitlab.com/yelinaung/sushi-bot/internal/exchange"
	"gitlab.com/yelinaung/sushi-bot/internal/models"
)

// maxPrice caps prices typed into commands.
var maxPrice = decimal.NewFromInt(100000)

// priceRegex matches prices like "12", "12.5", "12,50" with an optional
// currency symbol in front.
var priceRegex = regexp.MustCompile(`^(?:[A-Z]{0,3}\$|¥)?(\d{1,6}(?:[.,]\d{1,2})?)$`)

var errInvalidPrice = errors.New("invalid price")

// parsePrice parses a non-negative price of at most two decimal places.
func parsePrice(s string) (decimal.Decimal, error) {
	match := priceRegex.FindStringSubmatch(strings.TrimSpace(s))
	if match == nil {
		return decimal.Zero, fmt.Errorf("%w: %q", errInvalidPrice, s)
	}
	price, err := decimal.NewFromString(strings.ReplaceAll(match[1], ",", "."))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", errInvalidPrice, s)
	}
	if price.GreaterThan(maxPrice) {
		return decimal.Zero, fmt.Errorf("%w: %s is too large", errInvalidPrice, s)
	}
	return price, nil
}

// parseItemType accepts p/plate/plates and s/side/sides.
func parseItemType(s string) (models.ItemType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "p", "plate", "plates":
		return models.ItemTypePlate, true
	case "s", "side", "sides":
		return models.ItemTypeSide, true
	}
	return "", false
}

// itemTypeCode is the short form of t used in callback data.
func itemTypeCode(t models.ItemType) string {
	if t == models.ItemTypeSide {
		return "s"
	}
	return "p"
}

// parsePosition parses a 1-based position.
func parsePosition(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(s), "#"))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return n, nil
}

// setPriceArgs are the parsed arguments of /setprice.
type setPriceArgs struct {
	BrandRef string
	ItemType models.ItemType
	Position int
	Price    decimal.Decimal
	Region   *models.Region
}

// parseSetPriceArgs parses "<brand> <p|s> <item#> <price> [region]".
func parseSetPriceArgs(args string) (*setPriceArgs, error) {
	fields := strings.Fields(args)
	if len(fields) < 4 || len(fields) > 5 {
		return nil, errors.New("expected <brand> <p|s> <item#> <price> [region]")
	}

	itemType, ok := parseItemType(fields[1])
	if !ok {
		return nil, fmt.Errorf("unknown item type %q, use p or s", fields[1])
	}
	pos, err := parsePosition(fields[2])
	if err != nil {
		return nil, err
	}
	price, err := parsePrice(fields[3])
	if err != nil {
		return nil, err
	}

	out := &setPriceArgs{BrandRef: fields[0], ItemType: itemType, Position: pos, Price: price}
	if len(fields) == 5 {
		region, ok := models.ParseRegion(fields[4])
		if !ok {
			return nil, fmt.Errorf("unknown region %q", fields[4])
		}
		out.Region = &region
	}
	return out, nil
}

// parseSetChargeArgs parses "<brand> <percent|head|none> [value]".
func parseSetChargeArgs(args string) (string, models.ServiceChargeConfig, error) {
	fields := strings.Fields(args)
	if len(fields) < 2 || len(fields) > 3 {
		return "", models.ServiceChargeConfig{}, errors.New("expected <brand> <percent|head|none> [value]")
	}

	chargeType, ok := models.ParseServiceChargeType(fields[1])
	if !ok {
		return "", models.ServiceChargeConfig{}, fmt.Errorf("unknown service charge type %q", fields[1])
	}
	if chargeType == models.ServiceChargeNone {
		return fields[0], models.NoServiceCharge, nil
	}
	if len(fields) < 3 {
		return "", models.ServiceChargeConfig{}, fmt.Errorf("a value is required for %s", chargeType)
	}
	value, err := parsePrice(strings.TrimSuffix(fields[2], "%"))
	if err != nil {
		return "", models.ServiceChargeConfig{}, err
	}
	return fields[0], models.ServiceChargeConfig{Type: chargeType, Value: value}, nil
}

// addItemArgs are the parsed arguments of /addplate and /addside.
type addItemArgs struct {
	BrandRef string
	Name     string
	Price    decimal.Decimal
	// Extra is the plate color or side dish icon.
	Extra string
}

// parseAddItemArgs parses "<brand> <name...> <price> [extra]". The name may
// contain spaces; the price is the last or second-to-last field.
func parseAddItemArgs(args string) (*addItemArgs, error) {
	fields := strings.Fields(args)
	if len(fields) < 3 {
		return nil, errors.New("expected <brand> <name> <price>")
	}

	last := len(fields) - 1
	out := &addItemArgs{BrandRef: fields[0]}
	price, err := parsePrice(fields[last])
	if err != nil && len(fields) >= 4 {
		out.Extra = fields[last]
		last--
		price, err = parsePrice(fields[last])
	}
	if err != nil {
		return nil, err
	}
	out.Price = price

	out.Name = strings.Join(fields[1:last], " ")
	if out.Name == "" {
		return nil, errors.New("item name is required")
	}
	if len([]rune(out.Name)) > models.MaxItemNameLength {
		return nil, fmt.Errorf("item name is longer than %d characters", models.MaxItemNameLength)
	}
	return out, nil
}

var currencyAliases = map[string]string{
	"HKD": models.CurrencyHKD,
	"TWD": models.CurrencyTWD,
	"NTD": models.CurrencyTWD,
	"CNY": models.CurrencyCNY,
	"RMB": models.CurrencyCNY,
}

// parseCurrency accepts a currency symbol, an ISO code or a region name and
// returns the symbol, provided rates can convert into it.
func parseCurrency(s string, rates *exchange.RateTable) (string, bool) {
	s = strings.TrimSpace(s)
	symbol := s
	if alias, ok := currencyAliases[strings.ToUpper(s)]; ok {
		symbol = alias
	} else if region, ok := models.ParseRegion(s); ok {
		symbol = region.CurrencySymbol()
	}
	if rates == nil || !rates.Supports(symbol) {
		return "", false
	}
	return symbol, true
}

var plateColors = map[string]string{
	"red":   catalog.ColorRed,
	"blue":  catalog.ColorBlue,
	"grey":  catalog.ColorGrey,
	"gray":  catalog.ColorGrey,
	"gold":  catalog.ColorGold,
	"black": catalog.ColorBlack,
	"green": catalog.ColorGreen,
	"pink":  catalog.ColorPink,
}

var hexColorRegex = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// parsePlateColor accepts a color name or a #RRGGBB value. Empty input
// leaves the color to the catalog default.
func parsePlateColor(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	if c, ok := plateColors[strings.ToLower(s)]; ok {
		return c, true
	}
	if hexColorRegex.MatchString(s) {
		return strings.ToUpper(s), true
	}
	return "", false
}
