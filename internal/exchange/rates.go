// Package exchange converts amounts between the currencies used by the
// supported regions, for aggregate spend reporting.
package exchange

import (
	"fmt"
	"maps"
	"strings"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/sushi-bot/internal/models"
)

// ReferenceCurrency is the anchor of the default rate table.
const ReferenceCurrency = models.CurrencyHKD

var one = decimal.NewFromInt(1)

// RateTable is a fixed bilateral rate table anchored to one reference
// currency. ToReference[s] converts one unit of s into the reference
// currency; FromReference[s] converts one reference unit into s.
type RateTable struct {
	Reference     string
	ToReference   map[string]decimal.Decimal
	FromReference map[string]decimal.Decimal
}

// Amount is a value tagged with its currency symbol.
type Amount struct {
	Value    decimal.Decimal
	Currency string
}

// DefaultRates returns the HKD-anchored table.
func DefaultRates() *RateTable {
	return &RateTable{
		Reference: ReferenceCurrency,
		ToReference: map[string]decimal.Decimal{
			models.CurrencyHKD: one,
			models.CurrencyTWD: decimal.RequireFromString("0.25"),
			models.CurrencyCNY: decimal.RequireFromString("1.08"),
		},
		FromReference: map[string]decimal.Decimal{
			models.CurrencyHKD: one,
			models.CurrencyTWD: decimal.RequireFromString("4.0"),
			models.CurrencyCNY: decimal.RequireFromString("0.92"),
		},
	}
}

// Convert converts amount from one currency symbol to another.
// Converting to the same currency returns amount untouched. Unknown
// symbols use a rate of 1.
func (t *RateTable) Convert(amount decimal.Decimal, from, to string) decimal.Decimal {
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if from == to {
		return amount
	}
	return amount.Mul(rateOrOne(t.ToReference, from)).Mul(rateOrOne(t.FromReference, to))
}

// Total sums amounts after converting each one into target.
func (t *RateTable) Total(amounts []Amount, target string) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(t.Convert(a.Value, a.Currency, target))
	}
	return total
}

// Supports reports whether symbol has an entry in both directions.
func (t *RateTable) Supports(symbol string) bool {
	_, to := t.ToReference[symbol]
	_, from := t.FromReference[symbol]
	return to && from
}

// Currencies returns the symbols known to the table, reference first.
func (t *RateTable) Currencies() []string {
	out := []string{t.Reference}
	for _, symbol := range []string{models.CurrencyCNY, models.CurrencyHKD, models.CurrencyTWD} {
		if symbol != t.Reference && t.Supports(symbol) {
			out = append(out, symbol)
		}
	}
	for symbol := range t.ToReference {
		if !containsString(out, symbol) && t.Supports(symbol) {
			out = append(out, symbol)
		}
	}
	return out
}

// ParseRates applies overrides in the form "NT$=0.25:4.0,¥=1.08:0.92"
// on top of the default table. Each entry is symbol=toReference:fromReference.
func ParseRates(raw string) (*RateTable, error) {
	table := DefaultRates()
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return table, nil
	}

	to := maps.Clone(table.ToReference)
	from := maps.Clone(table.FromReference)

	for entry := range strings.SplitSeq(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		symbol, rates, ok := strings.Cut(entry, "=")
		symbol = strings.TrimSpace(symbol)
		if !ok || symbol == "" {
			return nil, fmt.Errorf("invalid rate entry %q: expected symbol=to:from", entry)
		}
		toStr, fromStr, ok := strings.Cut(rates, ":")
		if !ok {
			return nil, fmt.Errorf("invalid rate entry %q: expected symbol=to:from", entry)
		}
		toRate, err := parsePositiveRate(toStr)
		if err != nil {
			return nil, fmt.Errorf("invalid rate for %s: %w", symbol, err)
		}
		fromRate, err := parsePositiveRate(fromStr)
		if err != nil {
			return nil, fmt.Errorf("invalid rate for %s: %w", symbol, err)
		}
		to[symbol] = toRate
		from[symbol] = fromRate
	}

	table.ToReference = to
	table.FromReference = from
	return table, nil
}

func parsePositiveRate(s string) (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse rate %q: %w", s, err)
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("rate %q must be positive", s)
	}
	return rate, nil
}

func rateOrOne(rates map[string]decimal.Decimal, symbol string) decimal.Decimal {
	if rate, ok := rates[symbol]; ok {
		return rate
	}
	return one
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
