// Package history records finished meals and reports on them.
//
// Meal records are write-once: they are created at checkout, read back and
// eventually deleted, never updated.
package history

import (
	"context"
	"errors"
	"time"

	"gitlab.com/yelinaung/sushi-bot/internal/models"
)

var (
	// ErrNotFound is returned when a meal does not exist or belongs to
	// another user.
	ErrNotFound = errors.New("meal not found")
	// ErrInvalidRecord wraps validation failures on Record.
	ErrInvalidRecord = errors.New("invalid meal record")
)

// Filter narrows a meal listing. Zero values mean no constraint.
type Filter struct {
	Region *models.Region
	From   time.Time
	To     time.Time
	Limit  int
}

// Matches reports whether rec passes the filter, ignoring Limit.
func (f Filter) Matches(rec *models.MealRecord) bool {
	if f.Region != nil && rec.Region != *f.Region {
		return false
	}
	if !f.From.IsZero() && rec.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !rec.Date.Before(f.To) {
		return false
	}
	return true
}

// Store persists meal records with their line items.
type Store interface {
	// Create stores rec and assigns its per-user meal number.
	Create(ctx context.Context, rec *models.MealRecord) error
	GetByID(ctx context.Context, id string) (*models.MealRecord, error)
	GetByUserAndNumber(ctx context.Context, userID, number int64) (*models.MealRecord, error)
	// ListByUser returns the user's meals, newest first.
	ListByUser(ctx context.Context, userID int64, filter Filter) ([]models.MealRecord, error)
	Delete(ctx context.Context, id string) error
}
