package main

import (
	"context"

	"github.com/uptrace/bun"
)

// bootstrapSchema creates the tables on first run. Real deployments run
// migrations; this keeps the binary self-contained for development.
func bootstrapSchema(ctx context.Context, db *bun.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id UUID PRIMARY KEY,
			email VARCHAR NOT NULL UNIQUE,
			account_role VARCHAR NOT NULL,
			password_hash VARCHAR,
			has_password BOOLEAN DEFAULT FALSE,
			auth_provider VARCHAR NOT NULL DEFAULT 'local',
			provider_subject VARCHAR,
			is_email_verified BOOLEAN DEFAULT FALSE,
			verification_token VARCHAR,
			verification_expires_at TIMESTAMP,
			first_name VARCHAR,
			last_name VARCHAR,
			headline VARCHAR,
			skills JSONB,
			location VARCHAR,
			phone_number VARCHAR,
			profile_picture VARCHAR,
			login_attempts INTEGER DEFAULT 0,
			login_attempt_at TIMESTAMP,
			loggedin_at TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_provider_subject
			ON accounts (provider_subject) WHERE provider_subject IS NOT NULL`,
		`CREATE TABLE IF NOT EXISTS identity_links (
			id UUID PRIMARY KEY,
			account_id UUID NOT NULL,
			provider VARCHAR NOT NULL,
			subject VARCHAR NOT NULL,
			email VARCHAR,
			name VARCHAR,
			avatar_url VARCHAR,
			access_token VARCHAR,
			refresh_token VARCHAR,
			token_expires_at TIMESTAMP,
			profile_data JSONB,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (provider, subject)
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	return nil
}
