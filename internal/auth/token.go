package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const resetTokenExpiry = 30 * time.Minute

// ResetTokenStore manages one-time password reset tokens in SQLite.
type ResetTokenStore struct {
	db *sql.DB
}

// NewResetTokenStore creates a reset token store.
func NewResetTokenStore(db *sql.DB) *ResetTokenStore {
	return &ResetTokenStore{db: db}
}

// Create generates a reset token for the user and returns it.
func (s *ResetTokenStore) Create(userID int64) (string, error) {
	token, err := randomHex(32)
	if err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}

	if _, err := s.db.Exec(
		"INSERT INTO reset_tokens (token, user_id, expires_at) VALUES (?, ?, ?)",
		token, userID, time.Now().Add(resetTokenExpiry),
	); err != nil {
		return "", fmt.Errorf("storing token: %w", err)
	}

	return token, nil
}

// Consume checks a token, marks it used and returns the user it was issued
// for. A token works once.
func (s *ResetTokenStore) Consume(token string) (int64, error) {
	var userID int64
	var used int
	var expiresAt time.Time

	err := s.db.QueryRow(
		"SELECT user_id, used, expires_at FROM reset_tokens WHERE token = ?",
		token,
	).Scan(&userID, &used, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, newError(CodeInvalidToken, "reset link is not valid")
	}
	if err != nil {
		return 0, fmt.Errorf("querying token: %w", err)
	}

	if used != 0 {
		return 0, newError(CodeInvalidToken, "reset link was already used")
	}
	if time.Now().After(expiresAt) {
		return 0, newError(CodeInvalidToken, "reset link has expired")
	}

	result, err := s.db.Exec(
		"UPDATE reset_tokens SET used = 1 WHERE token = ? AND used = 0",
		token,
	)
	if err != nil {
		return 0, fmt.Errorf("marking token used: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return 0, fmt.Errorf("checking affected rows: %w", err)
	} else if n == 0 {
		return 0, newError(CodeInvalidToken, "reset link was already used")
	}

	return userID, nil
}

// Cleanup removes expired tokens.
func (s *ResetTokenStore) Cleanup() error {
	if _, err := s.db.Exec(
		"DELETE FROM reset_tokens WHERE expires_at < ?",
		time.Now(),
	); err != nil {
		return fmt.Errorf("cleaning up tokens: %w", err)
	}
	return nil
}
