package auth

import (
	"database/sql"
	"fmt"
	"time"
)

// RevocationStore records bearer tokens that were signed out before they
// expired. Rows are only needed until the token's own expiry.
type RevocationStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewRevocationStore creates a revocation store.
func NewRevocationStore(db *sql.DB) *RevocationStore {
	return &RevocationStore{db: db, now: time.Now}
}

// Revoke rejects the token ID from now until expiresAt.
func (s *RevocationStore) Revoke(jti string, expiresAt time.Time) error {
	if jti == "" {
		return nil
	}
	if _, err := s.db.Exec(
		"INSERT OR REPLACE INTO revoked_tokens (jti, expires_at) VALUES (?, ?)",
		jti, expiresAt.UTC(),
	); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	return nil
}

// Revoked reports whether the token ID was signed out.
func (s *RevocationStore) Revoked(jti string) (bool, error) {
	var n int
	if err := s.db.QueryRow(
		"SELECT COUNT(*) FROM revoked_tokens WHERE jti = ?",
		jti,
	).Scan(&n); err != nil {
		return false, fmt.Errorf("querying revoked tokens: %w", err)
	}
	return n > 0, nil
}

// Cleanup drops rows for tokens that have expired anyway.
func (s *RevocationStore) Cleanup() error {
	if _, err := s.db.Exec(
		"DELETE FROM revoked_tokens WHERE expires_at < ?",
		s.now().UTC(),
	); err != nil {
		return fmt.Errorf("cleaning up revoked tokens: %w", err)
	}
	return nil
}
