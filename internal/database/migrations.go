package database

import (
	"context"
	"fmt"
)

// RunMigrations creates the database schema.
func RunMigrations(ctx context.Context, db PGXDB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY,
			username TEXT,
			first_name TEXT,
			last_name TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`ALTER TABLE users ADD COLUMN IF NOT EXISTS region TEXT NOT NULL DEFAULT 'hk'`,
		`ALTER TABLE users ADD COLUMN IF NOT EXISTS language TEXT NOT NULL DEFAULT 'en'`,
		`ALTER TABLE users ADD COLUMN IF NOT EXISTS is_admin BOOLEAN NOT NULL DEFAULT FALSE`,

		`CREATE TABLE IF NOT EXISTS brands (
			id TEXT PRIMARY KEY,
			owner_id BIGINT REFERENCES users(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			logo_url TEXT NOT NULL DEFAULT '',
			service_charge_type TEXT NOT NULL DEFAULT 'none',
			service_charge_value NUMERIC NOT NULL DEFAULT 0 CHECK (service_charge_value >= 0),
			tags TEXT[] NOT NULL DEFAULT '{}',
			region TEXT,
			is_shared BOOLEAN NOT NULL DEFAULT FALSE,
			sort_order INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CHECK (is_shared OR owner_id IS NOT NULL)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_brands_owner_id ON brands(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_brands_shared_sort ON brands(is_shared, sort_order)`,

		`CREATE TABLE IF NOT EXISTS brand_plates (
			brand_id TEXT NOT NULL REFERENCES brands(id) ON DELETE CASCADE,
			id TEXT NOT NULL,
			name TEXT NOT NULL,
			price NUMERIC NOT NULL CHECK (price >= 0),
			regional_prices JSONB NOT NULL DEFAULT '{}',
			color TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT '',
			sort_order INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (brand_id, id)
		)`,

		`CREATE TABLE IF NOT EXISTS brand_side_dishes (
			brand_id TEXT NOT NULL REFERENCES brands(id) ON DELETE CASCADE,
			id TEXT NOT NULL,
			name TEXT NOT NULL,
			price NUMERIC NOT NULL CHECK (price >= 0),
			regional_prices JSONB NOT NULL DEFAULT '{}',
			icon TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT '',
			sort_order INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (brand_id, id)
		)`,

		`CREATE TABLE IF NOT EXISTS meal_records (
			id TEXT PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			user_meal_number BIGINT NOT NULL,
			brand_id TEXT NOT NULL DEFAULT '',
			brand_name TEXT NOT NULL,
			brand_logo TEXT NOT NULL DEFAULT '',
			meal_date TIMESTAMPTZ NOT NULL,
			subtotal NUMERIC NOT NULL CHECK (subtotal >= 0),
			service_charge_amount NUMERIC NOT NULL DEFAULT 0 CHECK (service_charge_amount >= 0),
			service_charge_type TEXT NOT NULL DEFAULT 'none',
			service_charge_value NUMERIC NOT NULL DEFAULT 0,
			head_count INTEGER NOT NULL DEFAULT 1,
			total_price NUMERIC NOT NULL CHECK (total_price >= 0),
			total_plates INTEGER NOT NULL DEFAULT 0,
			region TEXT NOT NULL,
			currency_symbol TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user_id, user_meal_number)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_meal_records_user_date ON meal_records(user_id, meal_date DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_meal_records_region ON meal_records(region)`,

		`CREATE TABLE IF NOT EXISTS meal_items (
			id SERIAL PRIMARY KEY,
			meal_id TEXT NOT NULL REFERENCES meal_records(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			price NUMERIC NOT NULL CHECK (price >= 0),
			quantity INTEGER NOT NULL CHECK (quantity >= 0),
			item_type TEXT NOT NULL,
			color TEXT NOT NULL DEFAULT '',
			icon TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE INDEX IF NOT EXISTS idx_meal_items_meal_id ON meal_items(meal_id)`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}
