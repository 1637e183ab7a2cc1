package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/sushi-bot/internal/database"
	"gitlab.com/yelinaung/sushi-bot/internal/models"
)

// ErrUserNotFound is returned when a user does not exist.
var ErrUserNotFound = errors.New("user not found")

// UserRepository handles user database operations.
type UserRepository struct {
	db database.PGXDB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db database.PGXDB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, first_name, last_name, region, language, is_admin, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	var region string
	err := row.Scan(&user.ID, &user.Username, &user.FirstName, &user.LastName,
		&region, &user.Language, &user.IsAdmin, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	user.Region = models.Region(region)
	return &user, nil
}

// UpsertUser creates or updates a user's Telegram profile. Region, language
// and the admin flag of an existing user are kept.
func (r *UserRepository) UpsertUser(ctx context.Context, user *models.User) error {
	region := user.Region
	if region == "" {
		region = models.DefaultRegion
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, username, first_name, last_name, region, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			updated_at = NOW()
	`, user.ID, user.Username, user.FirstName, user.LastName, string(region))
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by their Telegram ID.
func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetAllUsers retrieves every user.
func (r *UserRepository) GetAllUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// UpdateRegion sets the user's region.
func (r *UserRepository) UpdateRegion(ctx context.Context, id int64, region models.Region) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET region = $2, updated_at = NOW() WHERE id = $1
	`, id, string(region))
	if err != nil {
		return fmt.Errorf("failed to update region: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateLanguage sets the user's language.
func (r *UserRepository) UpdateLanguage(ctx context.Context, id int64, language string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET language = $2, updated_at = NOW() WHERE id = $1
	`, id, language)
	if err != nil {
		return fmt.Errorf("failed to update language: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetAdmin sets the user's admin flag.
func (r *UserRepository) SetAdmin(ctx context.Context, id int64, isAdmin bool) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET is_admin = $2, updated_at = NOW() WHERE id = $1
	`, id, isAdmin)
	if err != nil {
		return fmt.Errorf("failed to update admin flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
