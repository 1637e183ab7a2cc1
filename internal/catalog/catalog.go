// Package catalog manages restaurant brands: shared templates maintained
// by admins and private copies owned by individual users.
//
// Shared brands are never edited in place by users. Saving a user edit to a
// shared brand forks a new private brand with a fresh id, leaving the
// template untouched.
package catalog

import (
	"context"
	"errors"
	"io"

	"gitlab.com/yelinaung/sushi-bot/internal/models"
)

var (
	// ErrNotFound is returned when a brand does not exist or is not visible
	// to the caller.
	ErrNotFound = errors.New("brand not found")
	// ErrForbidden is returned when the caller may not change a brand.
	ErrForbidden = errors.New("not allowed to modify brand")
	// ErrInvalidBrand wraps validation failures.
	ErrInvalidBrand = errors.New("invalid brand")
	// ErrNoObjectStore is returned by logo uploads when storage is not configured.
	ErrNoObjectStore = errors.New("object storage is not configured")
)

// Filter narrows a brand listing.
type Filter struct {
	// OwnerID includes the user's private brands next to the shared ones.
	OwnerID *int64
	// SharedOnly excludes every private brand.
	SharedOnly bool
	// Region keeps brands without a region plus those in Region.
	Region *models.Region
}

// Store persists brands and their items.
type Store interface {
	List(ctx context.Context, filter Filter) ([]models.Brand, error)
	Get(ctx context.Context, id string) (*models.Brand, error)
	Create(ctx context.Context, brand *models.Brand) error
	Update(ctx context.Context, brand *models.Brand) error
	Delete(ctx context.Context, id string) error
	UpdateLogo(ctx context.Context, id, logoURL string) error
	Reorder(ctx context.Context, ids []string) error
}

// ObjectStore stores brand images and hands back public URLs.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
	// Owns reports whether url points into this store.
	Owns(url string) bool
}

// Identity is the resolved caller.
type Identity struct {
	UserID  int64
	IsAdmin bool
}
