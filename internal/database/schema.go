package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/digitalforms/formlink/internal/utils"
)

// Schema statements are idempotent so startup can run them on every boot.
// Unique indexes on username, email and link_code enforce the global
// uniqueness invariants at the store level, not just in application code.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		username VARCHAR(64) NOT NULL,
		password_hash VARCHAR(100) NOT NULL,
		email VARCHAR(255) NOT NULL,
		full_name VARCHAR(255) NOT NULL,
		role VARCHAR(16) NOT NULL DEFAULT 'agent',
		department VARCHAR(128) NULL,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		last_login DATETIME NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_users_username (username),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS form_links (
		id CHAR(36) NOT NULL,
		user_id BIGINT UNSIGNED NOT NULL,
		unit_number VARCHAR(64) NOT NULL,
		sales_agent VARCHAR(255) NOT NULL,
		link_code CHAR(32) NOT NULL,
		client_email VARCHAR(255) NULL,
		expiry_days INT NOT NULL DEFAULT 14,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		expires_at DATETIME NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'active',
		submissions_count BIGINT UNSIGNED NOT NULL DEFAULT 0,
		notes TEXT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_form_links_code (link_code),
		KEY ix_form_links_owner (user_id, created_at),
		CONSTRAINT fk_form_links_user FOREIGN KEY (user_id) REFERENCES users (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS form_submissions (
		id CHAR(36) NOT NULL,
		link_id CHAR(36) NOT NULL,
		user_id BIGINT UNSIGNED NOT NULL,
		customer_name VARCHAR(255) NOT NULL,
		customer_email VARCHAR(255) NULL,
		submission_data JSON NOT NULL,
		submitted_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		status VARCHAR(16) NOT NULL DEFAULT 'pending',
		review_notes TEXT NULL,
		reviewed_by BIGINT UNSIGNED NULL,
		reviewed_at DATETIME NULL,
		PRIMARY KEY (id),
		KEY ix_form_submissions_owner (user_id, submitted_at),
		KEY ix_form_submissions_link (link_id),
		CONSTRAINT fk_form_submissions_link FOREIGN KEY (link_id) REFERENCES form_links (id),
		CONSTRAINT fk_form_submissions_user FOREIGN KEY (user_id) REFERENCES users (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS activity_log (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id BIGINT UNSIGNED NULL,
		action VARCHAR(64) NOT NULL,
		details TEXT NULL,
		ip_address VARCHAR(64) NULL,
		user_agent VARCHAR(512) NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY ix_activity_log_created (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates the four application tables when missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// EnsureAdmin seeds the bootstrap admin account on first initialization.
// It is a no-op when any admin already exists, so exactly one bootstrap
// admin comes out of a fresh database.
func EnsureAdmin(ctx context.Context, db *sql.DB, username, email, password string, bcryptCost int) (created bool, err error) {
	var exists bool
	if err := db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE role='admin')").Scan(&exists); err != nil {
		return false, fmt.Errorf("check admin: %w", err)
	}
	if exists {
		return false, nil
	}
	hash, err := utils.HashPassword(password, bcryptCost)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}
	_, err = db.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, email, full_name, role) VALUES (?,?,?,?, 'admin')",
		username, hash, email, "System Administrator")
	if err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	return true, nil
}
