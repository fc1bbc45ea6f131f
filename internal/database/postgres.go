package database

import (
	"context"
	"fmt"
	"time"

	"github.com/brandonhuynh1/eventwish-api/internal/config"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// DSN builds the connection string, preferring an explicit URL
func DSN(cfg config.DatabaseConfig) string {
	if cfg.URL != "" {
		return cfg.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)
}

// NewPostgresConnection establishes a connection to the PostgreSQL database
func NewPostgresConnection(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

var migrations = []struct {
	name string
	stmt string
}{
	{"category_icons", `
		CREATE TABLE IF NOT EXISTS category_icons (
			id UUID PRIMARY KEY,
			category VARCHAR(50) UNIQUE NOT NULL,
			category_icon TEXT NOT NULL,
			icon_type VARCHAR(20) NOT NULL DEFAULT 'URL',
			resource_name VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`},
	{"templates", `
		CREATE TABLE IF NOT EXISTS templates (
			id UUID PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			category VARCHAR(50) NOT NULL,
			html_content TEXT NOT NULL DEFAULT '',
			css_content TEXT NOT NULL DEFAULT '',
			js_content TEXT NOT NULL DEFAULT '',
			preview_url TEXT NOT NULL DEFAULT '',
			status BOOLEAN NOT NULL DEFAULT TRUE,
			is_premium BOOLEAN NOT NULL DEFAULT FALSE,
			festival_tag VARCHAR(100) NOT NULL DEFAULT '',
			tags TEXT[] NOT NULL DEFAULT '{}',
			category_icon_id UUID REFERENCES category_icons(id) ON DELETE SET NULL,
			usage_count INTEGER NOT NULL DEFAULT 0,
			likes INTEGER NOT NULL DEFAULT 0,
			favorites INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`},
	{"users", `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			device_id VARCHAR(64) UNIQUE NOT NULL,
			uid VARCHAR(128),
			display_name VARCHAR(255) NOT NULL DEFAULT '',
			email VARCHAR(255) NOT NULL DEFAULT '',
			profile_photo TEXT NOT NULL DEFAULT '',
			preferred_theme VARCHAR(20) NOT NULL DEFAULT 'light',
			preferred_language VARCHAR(10) NOT NULL DEFAULT 'en',
			timezone VARCHAR(64) NOT NULL DEFAULT 'Asia/Kolkata',
			allow_festival_push BOOLEAN NOT NULL DEFAULT TRUE,
			allow_personal_push BOOLEAN NOT NULL DEFAULT TRUE,
			last_online TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			created TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			last_active_template VARCHAR(64),
			last_action_on_template VARCHAR(10),
			recent_templates_used TEXT[] NOT NULL DEFAULT '{}',
			likes TEXT[] NOT NULL DEFAULT '{}',
			favorites TEXT[] NOT NULL DEFAULT '{}'
		)`},
	{"user_categories", `
		CREATE TABLE IF NOT EXISTS user_categories (
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			category VARCHAR(50) NOT NULL,
			visit_count INTEGER NOT NULL DEFAULT 1,
			visit_date TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			source VARCHAR(20) NOT NULL DEFAULT 'direct',
			PRIMARY KEY (user_id, category)
		)`},
	{"engagement_logs", `
		CREATE TABLE IF NOT EXISTS engagement_logs (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			template_id VARCHAR(64) NOT NULL,
			action VARCHAR(10) NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`},
	{"ad_units", `
		CREATE TABLE IF NOT EXISTS ad_units (
			id UUID PRIMARY KEY,
			ad_unit_code VARCHAR(255) UNIQUE NOT NULL,
			ad_name VARCHAR(255) NOT NULL,
			ad_type VARCHAR(20) NOT NULL,
			status BOOLEAN NOT NULL DEFAULT TRUE,
			impressions INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`},
	{"coins_accounts", `
		CREATE TABLE IF NOT EXISTS coins_accounts (
			id UUID PRIMARY KEY,
			device_id VARCHAR(64) UNIQUE NOT NULL,
			coins INTEGER NOT NULL DEFAULT 0 CHECK (coins >= 0),
			is_unlocked BOOLEAN NOT NULL DEFAULT FALSE,
			unlock_timestamp TIMESTAMP WITH TIME ZONE,
			unlock_duration INTEGER NOT NULL DEFAULT 30,
			unlock_signature VARCHAR(128),
			last_reward_timestamp TIMESTAMP WITH TIME ZONE,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`},
	{"reward_history", `
		CREATE TABLE IF NOT EXISTS reward_history (
			id UUID PRIMARY KEY,
			account_id UUID NOT NULL REFERENCES coins_accounts(id) ON DELETE CASCADE,
			ad_unit_id VARCHAR(255) NOT NULL,
			ad_name VARCHAR(255) NOT NULL,
			coins_earned INTEGER NOT NULL,
			device_info TEXT NOT NULL DEFAULT '{}',
			timestamp TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`},
	{"shared_wishes", `
		CREATE TABLE IF NOT EXISTS shared_wishes (
			id UUID PRIMARY KEY,
			short_code VARCHAR(32) UNIQUE NOT NULL,
			template_id UUID REFERENCES templates(id) ON DELETE SET NULL,
			recipient_name VARCHAR(255) NOT NULL DEFAULT 'You',
			sender_name VARCHAR(255) NOT NULL DEFAULT 'Someone',
			customized_html TEXT NOT NULL DEFAULT '',
			css_content TEXT NOT NULL DEFAULT '',
			js_content TEXT NOT NULL DEFAULT '',
			preview_url TEXT NOT NULL DEFAULT '',
			views INTEGER NOT NULL DEFAULT 0,
			unique_views INTEGER NOT NULL DEFAULT 0,
			viewer_ips TEXT[] NOT NULL DEFAULT '{}',
			referrer TEXT NOT NULL DEFAULT '',
			device_info TEXT NOT NULL DEFAULT '',
			shared_via VARCHAR(50) NOT NULL DEFAULT '',
			share_count INTEGER NOT NULL DEFAULT 0,
			last_shared_at TIMESTAMP WITH TIME ZONE,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`},
	{"shared_wish_shares", `
		CREATE TABLE IF NOT EXISTS shared_wish_shares (
			id UUID PRIMARY KEY,
			wish_id UUID NOT NULL REFERENCES shared_wishes(id) ON DELETE CASCADE,
			platform VARCHAR(50) NOT NULL,
			timestamp TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`},
	{"indexes", `
		CREATE INDEX IF NOT EXISTS templates_category_status_idx ON templates(category, status, created_at DESC);
		CREATE INDEX IF NOT EXISTS templates_created_at_idx ON templates(created_at DESC);
		CREATE INDEX IF NOT EXISTS users_uid_idx ON users(uid);
		CREATE INDEX IF NOT EXISTS engagement_logs_user_id_idx ON engagement_logs(user_id);
		CREATE INDEX IF NOT EXISTS reward_history_account_id_idx ON reward_history(account_id, timestamp DESC);
		CREATE INDEX IF NOT EXISTS shared_wish_shares_wish_id_idx ON shared_wish_shares(wish_id, timestamp);
	`},
}

// RunMigrations applies database migrations to ensure the schema is up to date
func RunMigrations(db *sqlx.DB) error {
	for _, m := range migrations {
		if _, err := db.Exec(m.stmt); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", m.name, err)
		}
	}
	return nil
}
