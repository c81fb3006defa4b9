package db

import (
	"database/sql"
	"fmt"
)

// migrations is an ordered list of SQL statements to run.
// Every statement is idempotent so Open can run them on each start.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		email         TEXT    NOT NULL UNIQUE,
		password_hash TEXT    NOT NULL DEFAULT '',
		display_name  TEXT    NOT NULL DEFAULT '',
		phone         TEXT    NOT NULL DEFAULT '',
		created_at    DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS properties (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		title         TEXT    NOT NULL DEFAULT '',
		address       TEXT    NOT NULL DEFAULT '',
		city          TEXT    NOT NULL DEFAULT '',
		price         INTEGER NOT NULL CHECK (price >= 0),
		property_type TEXT    NOT NULL DEFAULT '',
		listing_type  TEXT    NOT NULL DEFAULT 'sale' CHECK (listing_type IN ('sale', 'rent')),
		bedrooms      REAL    CHECK (bedrooms IS NULL OR bedrooms >= 0),
		bathrooms     REAL    CHECK (bathrooms IS NULL OR bathrooms >= 0),
		sqft          INTEGER CHECK (sqft IS NULL OR sqft >= 0),
		year_built    INTEGER,
		features      TEXT    NOT NULL DEFAULT '[]',
		description   TEXT    NOT NULL DEFAULT '',
		images        TEXT    NOT NULL DEFAULT '[]',
		latitude      REAL,
		longitude     REAL,
		geohash       TEXT    NOT NULL DEFAULT '',
		owner_id      INTEGER NOT NULL DEFAULT 0,
		created_at    DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_properties_geohash ON properties (geohash)`,
	`CREATE TABLE IF NOT EXISTS bookmarks (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id     INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		property_id INTEGER NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
		saved_at    DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bookmarks_user ON bookmarks (user_id)`,
	`CREATE TABLE IF NOT EXISTS alerts (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id          INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name             TEXT    NOT NULL,
		criteria_json    TEXT    NOT NULL DEFAULT '{}',
		frequency        TEXT    NOT NULL CHECK (frequency IN ('immediate', 'daily', 'weekly')),
		active           INTEGER NOT NULL DEFAULT 1,
		match_count      INTEGER NOT NULL DEFAULT 0,
		last_checked_at  DATETIME,
		last_notified_at DATETIME,
		created_at       DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		alert_id   INTEGER REFERENCES alerts(id) ON DELETE SET NULL,
		title      TEXT    NOT NULL,
		body       TEXT    NOT NULL DEFAULT '',
		read       INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT     PRIMARY KEY,
		user_id    INTEGER  NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		expires_at DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS reset_tokens (
		id         INTEGER  PRIMARY KEY AUTOINCREMENT,
		token      TEXT     NOT NULL UNIQUE,
		user_id    INTEGER  NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		expires_at DATETIME NOT NULL,
		used       INTEGER  DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS revoked_tokens (
		jti        TEXT     PRIMARY KEY,
		expires_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS passkey_credentials (
		id              TEXT    PRIMARY KEY,
		user_id         INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name            TEXT    NOT NULL DEFAULT '',
		credential_json TEXT    NOT NULL,
		created_at      DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
}

// migrate runs all migrations in order.
func migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
