package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is a marketplace account.
type User struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Phone       string    `json:"phone"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	passwordHash string
}

// HasPassword reports whether the account can sign in with a password.
func (u *User) HasPassword() bool { return u.passwordHash != "" }

// UserStore manages accounts in SQLite.
type UserStore struct {
	db   *sql.DB
	cost int
}

// NewUserStore creates a user store.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db, cost: bcrypt.DefaultCost}
}

const userColumns = "id, email, password_hash, display_name, phone, created_at, updated_at"

// Create registers a new account. The email must not already be in use.
func (s *UserStore) Create(email, password, displayName, phone string) (*User, error) {
	email = NormalizeEmail(email)

	if _, err := s.GetByEmail(email); err == nil {
		return nil, newError(CodeEmailAlreadyInUse, "an account with this email already exists")
	} else if CodeOf(err) != CodeUserNotFound {
		return nil, err
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}

	result, err := s.db.Exec(
		"INSERT INTO users (email, password_hash, display_name, phone) VALUES (?, ?, ?, ?)",
		email, hash, strings.TrimSpace(displayName), strings.TrimSpace(phone),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, newError(CodeEmailAlreadyInUse, "an account with this email already exists")
		}
		return nil, fmt.Errorf("adding user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user ID: %w", err)
	}

	return s.GetByID(id)
}

// Authenticate checks an email and password.
func (s *UserStore) Authenticate(email, password string) (*User, error) {
	u, err := s.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if !u.HasPassword() {
		return nil, newError(CodeWrongPassword, "incorrect password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.passwordHash), []byte(password)); err != nil {
		return nil, newError(CodeWrongPassword, "incorrect password")
	}
	return u, nil
}

// GetByID returns a user by ID.
func (s *UserStore) GetByID(id int64) (*User, error) {
	return s.get("SELECT "+userColumns+" FROM users WHERE id = ?", id)
}

// GetByEmail returns a user by email, ignoring case.
func (s *UserStore) GetByEmail(email string) (*User, error) {
	return s.get("SELECT "+userColumns+" FROM users WHERE email = ?", NormalizeEmail(email))
}

// EmailByID returns the address alerts for the user are sent to.
func (s *UserStore) EmailByID(id int64) (string, error) {
	u, err := s.GetByID(id)
	if err != nil {
		return "", err
	}
	return u.Email, nil
}

// UpdateProfile changes the display name and phone.
func (s *UserStore) UpdateProfile(id int64, displayName, phone string) (*User, error) {
	result, err := s.db.Exec(
		"UPDATE users SET display_name = ?, phone = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		strings.TrimSpace(displayName), strings.TrimSpace(phone), id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	if err := requireUser(result); err != nil {
		return nil, err
	}
	return s.GetByID(id)
}

// SetPassword replaces the stored password hash.
func (s *UserStore) SetPassword(id int64, password string) error {
	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	result, err := s.db.Exec(
		"UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		hash, id,
	)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	return requireUser(result)
}

func (s *UserStore) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(b), nil
}

func (s *UserStore) get(query string, arg interface{}) (*User, error) {
	var u User
	err := s.db.QueryRow(query, arg).Scan(
		&u.ID, &u.Email, &u.passwordHash, &u.DisplayName, &u.Phone, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, newError(CodeUserNotFound, "no account matches")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &u, nil
}

func requireUser(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if rows == 0 {
		return newError(CodeUserNotFound, "no account matches")
	}
	return nil
}
