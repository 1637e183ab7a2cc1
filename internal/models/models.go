// Package models defines the domain entities for the sushi bill calculator.
package models

import (
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MaxBrandNameLength is the maximum allowed length for brand names.
const MaxBrandNameLength = 50

// MaxItemNameLength is the maximum allowed length for plate and side dish names.
const MaxItemNameLength = 30

// Region is a geographic market with its own currency and price list.
type Region string

// Supported regions.
const (
	RegionMainland Region = "mainland"
	RegionHK       Region = "hk"
	RegionTaiwan   Region = "taiwan"
)

// DefaultRegion is used when a user has not picked one.
const DefaultRegion = RegionHK

// AllRegions lists every supported region in display order.
var AllRegions = []Region{RegionMainland, RegionHK, RegionTaiwan}

// Currency symbols for the supported regions.
const (
	CurrencyCNY = "¥"
	CurrencyHKD = "HK$"
	CurrencyTWD = "NT$"
)

// RegionNames maps regions to their display names.
var RegionNames = map[Region]string{
	RegionMainland: "Mainland China",
	RegionHK:       "Hong Kong",
	RegionTaiwan:   "Taiwan",
}

// ParseRegion normalizes s into a supported Region.
func ParseRegion(s string) (Region, bool) {
	r := Region(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(AllRegions, r) {
		return r, true
	}
	return "", false
}

// CurrencySymbol returns the currency symbol used in the region.
// Unknown regions fall back to HK$.
func (r Region) CurrencySymbol() string {
	switch r {
	case RegionMainland:
		return CurrencyCNY
	case RegionTaiwan:
		return CurrencyTWD
	default:
		return CurrencyHKD
	}
}

// Name returns the display name of the region.
func (r Region) Name() string {
	if name, ok := RegionNames[r]; ok {
		return name
	}
	return string(r)
}

// ItemType distinguishes plates from side dishes.
type ItemType string

// Catalog item types.
const (
	ItemTypePlate ItemType = "plate"
	ItemTypeSide  ItemType = "side"
)

// ItemKey identifies a catalog item within a brand. Plates and side dishes
// use separate id spaces, so the type is part of the key.
type ItemKey struct {
	Type ItemType
	ID   string
}

// PlateKey returns the key for a plate id.
func PlateKey(id string) ItemKey { return ItemKey{Type: ItemTypePlate, ID: id} }

// SideKey returns the key for a side dish id.
func SideKey(id string) ItemKey { return ItemKey{Type: ItemTypeSide, ID: id} }

// CatalogItem is a plate or side dish on a brand's menu.
type CatalogItem struct {
	ID             string
	Name           string
	BasePrice      decimal.Decimal
	RegionalPrices map[Region]decimal.Decimal
	Type           ItemType
	Color          string // plates: hex display color
	Icon           string // side dishes: material symbol name
	ImageURL       string
	SortOrder      int
}

// Key returns the item's ItemKey.
func (i CatalogItem) Key() ItemKey {
	return ItemKey{Type: i.Type, ID: i.ID}
}

// Clone returns a copy that shares no maps with i.
func (i CatalogItem) Clone() CatalogItem {
	c := i
	if i.RegionalPrices != nil {
		c.RegionalPrices = maps.Clone(i.RegionalPrices)
	}
	return c
}

// ServiceChargeType selects how the service charge is computed.
type ServiceChargeType string

// Service charge types.
const (
	ServiceChargePercent ServiceChargeType = "percent"
	ServiceChargeHead    ServiceChargeType = "head"
	ServiceChargeNone    ServiceChargeType = "none"
)

// ParseServiceChargeType normalizes s into a known ServiceChargeType.
func ParseServiceChargeType(s string) (ServiceChargeType, bool) {
	switch t := ServiceChargeType(strings.ToLower(strings.TrimSpace(s))); t {
	case ServiceChargePercent, ServiceChargeHead, ServiceChargeNone:
		return t, true
	}
	return "", false
}

// ServiceChargeConfig is a tagged service charge rule.
// For percent, Value is a percentage of the subtotal.
// For head, Value is a flat amount per diner.
// For none, Value is ignored.
type ServiceChargeConfig struct {
	Type  ServiceChargeType `json:"type"`
	Value decimal.Decimal   `json:"value"`
}

// NoServiceCharge is the zero-charge rule.
var NoServiceCharge = ServiceChargeConfig{Type: ServiceChargeNone, Value: decimal.Zero}

// Brand is a restaurant menu: plates, side dishes and a default service charge.
// Shared brands are read-only templates; private brands belong to one user.
type Brand struct {
	ID                   string
	OwnerID              *int64
	Name                 string
	Description          string
	LogoURL              string
	Plates               []CatalogItem
	SideDishes           []CatalogItem
	DefaultServiceCharge ServiceChargeConfig
	Tags                 []string
	Region               *Region
	IsShared             bool
	SortOrder            int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Items returns plates followed by side dishes.
func (b *Brand) Items() []CatalogItem {
	items := make([]CatalogItem, 0, len(b.Plates)+len(b.SideDishes))
	items = append(items, b.Plates...)
	items = append(items, b.SideDishes...)
	return items
}

// Item looks up a catalog item by key.
func (b *Brand) Item(key ItemKey) (CatalogItem, bool) {
	list := b.Plates
	if key.Type == ItemTypeSide {
		list = b.SideDishes
	}
	for _, item := range list {
		if item.ID == key.ID {
			return item, true
		}
	}
	return CatalogItem{}, false
}

// OwnedBy reports whether the brand is a private brand of userID.
func (b *Brand) OwnedBy(userID int64) bool {
	return !b.IsShared && b.OwnerID != nil && *b.OwnerID == userID
}

// Clone returns a deep copy of the brand.
func (b *Brand) Clone() *Brand {
	c := *b
	if b.OwnerID != nil {
		owner := *b.OwnerID
		c.OwnerID = &owner
	}
	if b.Region != nil {
		region := *b.Region
		c.Region = &region
	}
	c.Tags = slices.Clone(b.Tags)
	c.Plates = cloneItems(b.Plates)
	c.SideDishes = cloneItems(b.SideDishes)
	return &c
}

func cloneItems(items []CatalogItem) []CatalogItem {
	if items == nil {
		return nil
	}
	out := make([]CatalogItem, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}

// MealItem is one line of a finished bill. Price is frozen at checkout.
type MealItem struct {
	Name     string
	Price    decimal.Decimal
	Quantity int
	Type     ItemType
	Color    string
	Icon     string
}

// LineTotal returns price × quantity.
func (i MealItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// MealRecord is an immutable snapshot of a completed bill.
type MealRecord struct {
	ID                  string
	UserID              int64
	UserMealNumber      int64
	BrandID             string
	BrandName           string
	BrandLogo           string
	Date                time.Time
	Items               []MealItem
	Subtotal            decimal.Decimal
	ServiceChargeAmount decimal.Decimal
	ServiceChargeRule   ServiceChargeConfig
	HeadCount           int
	TotalPrice          decimal.Decimal
	TotalPlates         int
	Region              Region
	CurrencySymbol      string
	CreatedAt           time.Time
}

// User represents a Telegram user.
type User struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
	Region    Region
	Language  string
	IsAdmin   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
