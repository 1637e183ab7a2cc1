package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/yelinaung/sushi-bot/internal/logger"
	"gitlab.com/yelinaung/sushi-bot/internal/models"
	"gitlab.com/yelinaung/sushi-bot/internal/telemetry"
)

// Service applies ownership rules on top of a Store.
type Service struct {
	store   Store
	objects ObjectStore
	metrics *telemetry.Instruments
	newID   func() string
	now     func() time.Time
}

// NewService creates a Service. objects may be nil, in which case logo
// uploads fail with ErrNoObjectStore.
func NewService(store Store, objects ObjectStore) *Service {
	return &Service{
		store:   store,
		objects: objects,
		metrics: telemetry.Default(),
		newID:   uuid.NewString,
		now:     time.Now,
	}
}

// Visible lists the shared brands plus the caller's own private brands,
// optionally narrowed to region.
func (s *Service) Visible(ctx context.Context, id Identity, region *models.Region) ([]models.Brand, error) {
	userID := id.UserID
	brands, err := s.store.List(ctx, Filter{OwnerID: &userID, Region: region})
	if err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}
	return brands, nil
}

// Owned lists the caller's private brands.
func (s *Service) Owned(ctx context.Context, id Identity) ([]models.Brand, error) {
	brands, err := s.Visible(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(brands, func(b models.Brand) bool { return !b.OwnedBy(id.UserID) }), nil
}

// Templates lists the shared brands.
func (s *Service) Templates(ctx context.Context) ([]models.Brand, error) {
	brands, err := s.store.List(ctx, Filter{SharedOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list shared brands: %w", err)
	}
	return brands, nil
}

// Get returns a brand the caller may see. Private brands of other users are
// reported as ErrNotFound unless the caller is an admin.
func (s *Service) Get(ctx context.Context, id Identity, brandID string) (*models.Brand, error) {
	brand, err := s.store.Get(ctx, brandID)
	if err != nil {
		return nil, err
	}
	if brand.IsShared || brand.OwnedBy(id.UserID) || id.IsAdmin {
		return brand, nil
	}
	return nil, ErrNotFound
}

// Save stores a user's edit of brand and returns the stored brand.
//
// New brands and edits of shared brands create a private brand with a new
// id owned by the caller; the shared brand is not touched. Private brands
// owned by the caller are updated in place.
func (s *Service) Save(ctx context.Context, id Identity, brand *models.Brand) (*models.Brand, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "catalog.Save",
		trace.WithAttributes(attribute.String("brand.id", brand.ID)))
	defer span.End()

	b := brand.Clone()
	if err := Validate(b); err != nil {
		return nil, err
	}

	if b.ID == "" {
		return s.createPrivate(ctx, id, b)
	}

	existing, err := s.store.Get(ctx, b.ID)
	if errors.Is(err, ErrNotFound) {
		return s.createPrivate(ctx, id, b)
	}
	if err != nil {
		return nil, err
	}

	if existing.IsShared {
		return s.fork(ctx, id, existing, b)
	}
	if !existing.OwnedBy(id.UserID) {
		return nil, ErrForbidden
	}

	b.OwnerID = existing.OwnerID
	b.IsShared = false
	b.SortOrder = existing.SortOrder
	b.CreatedAt = existing.CreatedAt
	b.UpdatedAt = s.now()
	s.assignItemIDs(b)
	if err := s.store.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to update brand: %w", err)
	}

	logger.Log.Debug().
		Str("brand_id", b.ID).
		Str("user_id", logger.HashUserID(id.UserID)).
		Msg("Brand updated")
	return b, nil
}

func (s *Service) fork(ctx context.Context, id Identity, shared, edited *models.Brand) (*models.Brand, error) {
	if edited.Description == "" {
		edited.Description = shared.Description
	}
	if edited.LogoURL == "" {
		edited.LogoURL = shared.LogoURL
	}
	fork, err := s.createPrivate(ctx, id, edited)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordFork(ctx, shared.ID)
	logger.Log.Info().
		Str("source_brand_id", shared.ID).
		Str("brand_id", fork.ID).
		Str("user_id", logger.HashUserID(id.UserID)).
		Msg("Forked shared brand into private copy")
	return fork, nil
}

func (s *Service) createPrivate(ctx context.Context, id Identity, b *models.Brand) (*models.Brand, error) {
	owner := id.UserID
	now := s.now()

	b.ID = s.newID()
	b.OwnerID = &owner
	b.IsShared = false
	b.SortOrder = 0
	b.CreatedAt = now
	b.UpdatedAt = now
	if b.Description == "" {
		b.Description = CustomBrandDescription
	}
	for i := range b.Plates {
		b.Plates[i].ID = s.newID()
	}
	for i := range b.SideDishes {
		b.SideDishes[i].ID = s.newID()
	}

	if err := s.store.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to create brand: %w", err)
	}
	return b, nil
}

// SaveTemplate creates or updates a shared brand. Admins only.
func (s *Service) SaveTemplate(ctx context.Context, id Identity, brand *models.Brand) (*models.Brand, error) {
	if !id.IsAdmin {
		return nil, ErrForbidden
	}

	b := brand.Clone()
	if err := Validate(b); err != nil {
		return nil, err
	}
	b.OwnerID = nil
	b.IsShared = true
	b.UpdatedAt = s.now()
	s.assignItemIDs(b)

	var existing *models.Brand
	if b.ID != "" {
		var err error
		existing, err = s.store.Get(ctx, b.ID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	if existing == nil {
		if b.ID == "" {
			b.ID = s.newID()
		}
		b.CreatedAt = b.UpdatedAt
		if err := s.store.Create(ctx, b); err != nil {
			return nil, fmt.Errorf("failed to create shared brand: %w", err)
		}
		return b, nil
	}

	if !existing.IsShared {
		return nil, fmt.Errorf("%w: %s is a private brand", ErrForbidden, b.ID)
	}
	b.CreatedAt = existing.CreatedAt
	if b.SortOrder == 0 {
		b.SortOrder = existing.SortOrder
	}
	if err := s.store.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to update shared brand: %w", err)
	}
	return b, nil
}

// Delete removes a brand. Users may delete their own private brands;
// admins may delete any brand.
func (s *Service) Delete(ctx context.Context, id Identity, brandID string) error {
	brand, err := s.store.Get(ctx, brandID)
	if err != nil {
		return err
	}
	if !id.IsAdmin && !brand.OwnedBy(id.UserID) {
		return ErrForbidden
	}
	if err := s.store.Delete(ctx, brandID); err != nil {
		return fmt.Errorf("failed to delete brand: %w", err)
	}
	s.deleteLogo(ctx, brand.LogoURL)
	return nil
}

// UploadLogo stores a new logo for the brand and returns the updated brand.
// A non-admin uploading to a shared brand gets a private fork carrying the
// logo. The previous logo is removed when it lives in our object store.
func (s *Service) UploadLogo(
	ctx context.Context,
	id Identity,
	brandID, filename, contentType string,
	body io.Reader,
) (*models.Brand, error) {
	if s.objects == nil {
		return nil, ErrNoObjectStore
	}

	brand, err := s.Get(ctx, id, brandID)
	if err != nil {
		return nil, err
	}
	forked := false
	switch {
	case brand.IsShared && !id.IsAdmin:
		forked = true
		brand, err = s.Save(ctx, id, brand)
		if err != nil {
			return nil, err
		}
	case !brand.IsShared && !id.IsAdmin && !brand.OwnedBy(id.UserID):
		return nil, ErrForbidden
	}

	key := LogoKey(brand.ID, filename, s.now())
	url, err := s.objects.Put(ctx, key, contentType, body)
	if err != nil {
		return nil, fmt.Errorf("failed to upload logo: %w", err)
	}
	if err := s.store.UpdateLogo(ctx, brand.ID, url); err != nil {
		return nil, fmt.Errorf("failed to save logo url: %w", err)
	}

	// A fork inherits the template's logo, which must stay in place.
	old := brand.LogoURL
	brand.LogoURL = url
	if old != url && !forked {
		s.deleteLogo(ctx, old)
	}
	return brand, nil
}

// LogoKey builds the object key for a brand logo.
func LogoKey(brandID, filename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" || ext == "." {
		ext = ".png"
	}
	return fmt.Sprintf("%s-%d%s", brandID, now.UnixMilli(), ext)
}

func (s *Service) deleteLogo(ctx context.Context, url string) {
	if url == "" || s.objects == nil || !s.objects.Owns(url) {
		return
	}
	if err := s.objects.Delete(ctx, url); err != nil {
		logger.Log.Warn().Err(err).Str("url", url).Msg("Failed to delete old logo")
	}
}

// Reorder sets the display order of shared brands. Admins only.
func (s *Service) Reorder(ctx context.Context, id Identity, brandIDs []string) error {
	if !id.IsAdmin {
		return ErrForbidden
	}
	if len(brandIDs) == 0 {
		return fmt.Errorf("%w: no brands to reorder", ErrInvalidBrand)
	}
	seen := make(map[string]struct{}, len(brandIDs))
	for _, bid := range brandIDs {
		if _, dup := seen[bid]; dup {
			return fmt.Errorf("%w: brand %s listed twice", ErrInvalidBrand, bid)
		}
		seen[bid] = struct{}{}
	}
	if err := s.store.Reorder(ctx, brandIDs); err != nil {
		return fmt.Errorf("failed to reorder brands: %w", err)
	}
	return nil
}

// Seed creates any built-in shared template that does not exist yet.
func (s *Service) Seed(ctx context.Context) (int, error) {
	created := 0
	for _, tpl := range SharedTemplates() {
		_, err := s.store.Get(ctx, tpl.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return created, err
		}
		now := s.now()
		tpl.CreatedAt = now
		tpl.UpdatedAt = now
		if err := s.store.Create(ctx, tpl); err != nil {
			return created, fmt.Errorf("failed to seed brand %s: %w", tpl.ID, err)
		}
		created++
	}
	return created, nil
}

func (s *Service) assignItemIDs(b *models.Brand) {
	for i := range b.Plates {
		if b.Plates[i].ID == "" {
			b.Plates[i].ID = s.newID()
		}
	}
	for i := range b.SideDishes {
		if b.SideDishes[i].ID == "" {
			b.SideDishes[i].ID = s.newID()
		}
	}
}
