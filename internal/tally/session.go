// Package tally holds the per-chat calculator state: the brand being eaten
// at, the plate and side dish counts, head count and service charge rule.
package tally

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/sushi-bot/internal/models"
	"gitlab.com/yelinaung/sushi-bot/internal/pricing"
)

// SushiroBrandID is the shared Sushiro template. In mainland China it
// charges a flat fee per diner instead of a percentage.
const SushiroBrandID = "sushiro"

var (
	defaultPercentValue = decimal.NewFromInt(10)
	defaultHeadValue    = decimal.NewFromInt(5)
)

// DefaultServiceCharge returns the rule a new session starts with.
func DefaultServiceCharge(brand *models.Brand, region models.Region) models.ServiceChargeConfig {
	if brand == nil {
		return models.NoServiceCharge
	}
	if strings.EqualFold(brand.ID, SushiroBrandID) && region == models.RegionMainland {
		return models.ServiceChargeConfig{Type: models.ServiceChargeHead, Value: defaultHeadValue}
	}
	if brand.DefaultServiceCharge.Type == "" {
		return models.NoServiceCharge
	}
	return brand.DefaultServiceCharge
}

// Session is the state of one calculator. It is not safe for concurrent
// use; Store serializes access.
type Session struct {
	Brand         *models.Brand
	Region        models.Region
	Counts        pricing.Selections
	HeadCount     int
	ServiceCharge models.ServiceChargeConfig

	// MessageID is the chat message showing this calculator.
	MessageID  int
	Confirming bool
	UpdatedAt  time.Time
}

// New starts a session for brand in region.
func New(brand *models.Brand, region models.Region) *Session {
	return &Session{
		Brand:         brand,
		Region:        region,
		Counts:        make(pricing.Selections),
		HeadCount:     1,
		ServiceCharge: DefaultServiceCharge(brand, region),
	}
}

// Increment adds one of the item. Keys that are not on the brand's menu
// are ignored.
func (s *Session) Increment(key models.ItemKey) {
	if _, ok := s.Brand.Item(key); !ok {
		return
	}
	s.Counts[key]++
}

// Decrement removes one of the item, stopping at zero.
func (s *Session) Decrement(key models.ItemKey) {
	if s.Counts[key] <= 1 {
		delete(s.Counts, key)
		return
	}
	s.Counts[key]--
}

// Count returns the quantity selected for key.
func (s *Session) Count(key models.ItemKey) int {
	return s.Counts[key]
}

// SetHeadCount sets the number of diners, never below one.
func (s *Session) SetHeadCount(n int) {
	s.HeadCount = max(n, 1)
}

// IncHeadCount adds a diner.
func (s *Session) IncHeadCount() { s.SetHeadCount(s.HeadCount + 1) }

// DecHeadCount removes a diner, keeping at least one.
func (s *Session) DecHeadCount() { s.SetHeadCount(s.HeadCount - 1) }

// SetServiceCharge replaces the service charge rule. Negative values are
// stored as zero.
func (s *Session) SetServiceCharge(cfg models.ServiceChargeConfig) {
	if cfg.Value.IsNegative() {
		cfg.Value = decimal.Zero
	}
	s.ServiceCharge = cfg
}

// CycleServiceChargeType moves percent -> head -> none -> percent. The brand
// default value is reused when it has the target type.
func (s *Session) CycleServiceChargeType() {
	var next models.ServiceChargeType
	switch s.ServiceCharge.Type {
	case models.ServiceChargePercent:
		next = models.ServiceChargeHead
	case models.ServiceChargeHead:
		next = models.ServiceChargeNone
	default:
		next = models.ServiceChargePercent
	}

	def := DefaultServiceCharge(s.Brand, s.Region)
	switch {
	case next == models.ServiceChargeNone:
		s.ServiceCharge = models.NoServiceCharge
	case def.Type == next:
		s.ServiceCharge = def
	case next == models.ServiceChargePercent:
		s.ServiceCharge = models.ServiceChargeConfig{Type: next, Value: defaultPercentValue}
	default:
		s.ServiceCharge = models.ServiceChargeConfig{Type: next, Value: defaultHeadValue}
	}
}

// Reset clears every count and the head count.
func (s *Session) Reset() {
	clear(s.Counts)
	s.HeadCount = 1
	s.Confirming = false
}

// IsEmpty reports whether nothing has been selected.
func (s *Session) IsEmpty() bool {
	for _, qty := range s.Counts {
		if qty > 0 {
			return false
		}
	}
	return true
}

// Bill computes the current bill.
func (s *Session) Bill() pricing.Bill {
	return pricing.ComputeBill(s.Brand.Items(), s.Counts, s.ServiceCharge, s.HeadCount, s.Region)
}

// Checkout snapshots the session into a meal record. Line item prices are
// resolved now and never follow later catalog edits.
func (s *Session) Checkout(id string, userID int64, now time.Time) models.MealRecord {
	bill := s.Bill()
	return models.MealRecord{
		ID:                  id,
		UserID:              userID,
		BrandID:             s.Brand.ID,
		BrandName:           s.Brand.Name,
		BrandLogo:           s.Brand.LogoURL,
		Date:                now,
		Items:               bill.LineItems,
		Subtotal:            bill.Subtotal,
		ServiceChargeAmount: bill.ServiceChargeAmount,
		ServiceChargeRule:   s.ServiceCharge,
		HeadCount:           s.HeadCount,
		TotalPrice:          bill.Total,
		TotalPlates:         bill.TotalPlateCount,
		Region:              s.Region,
		CurrencySymbol:      s.Region.CurrencySymbol(),
		CreatedAt:           now,
	}
}
