package auth

import (
	"database/sql"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/evcraddock/house-market/internal/db"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if cerr := d.Close(); cerr != nil {
			t.Errorf("close db: %v", cerr)
		}
	})
	return d
}

func testUserStore(t *testing.T) *UserStore {
	t.Helper()
	return testUserStoreOn(testDB(t))
}

func testUserStoreOn(d *sql.DB) *UserStore {
	s := NewUserStore(d)
	s.cost = bcrypt.MinCost
	return s
}

func TestCreateAndAuthenticate(t *testing.T) {
	s := testUserStore(t)

	u, err := s.Create(" Bob@Example.COM ", "Secret123", "Bob", "555-123-4567")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.Email != "bob@example.com" {
		t.Errorf("email = %q, want lower-cased", u.Email)
	}
	if u.DisplayName != "Bob" || u.Phone != "555-123-4567" {
		t.Errorf("user = %+v", u)
	}
	if u.passwordHash == "Secret123" || !u.HasPassword() {
		t.Error("password should be stored hashed")
	}

	got, err := s.Authenticate("BOB@example.com", "Secret123")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("id = %d, want %d", got.ID, u.ID)
	}
}

func TestAuthenticateErrors(t *testing.T) {
	s := testUserStore(t)
	if _, err := s.Create("bob@example.com", "Secret123", "", ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		code     string
	}{
		{"unknown email", "nobody@example.com", "Secret123", CodeUserNotFound},
		{"wrong password", "bob@example.com", "Secret124", CodeWrongPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Authenticate(tt.email, tt.password)
			if got := CodeOf(err); got != tt.code {
				t.Errorf("code = %q, want %q (err %v)", got, tt.code, err)
			}
		})
	}
}

func TestCreateDuplicateEmail(t *testing.T) {
	s := testUserStore(t)

	if _, err := s.Create("bob@example.com", "Secret123", "", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := s.Create("BOB@example.com", "Secret123", "", "")
	if CodeOf(err) != CodeEmailAlreadyInUse {
		t.Errorf("err = %v, want %s", err, CodeEmailAlreadyInUse)
	}
}

func TestUpdateProfile(t *testing.T) {
	s := testUserStore(t)
	u, err := s.Create("bob@example.com", "Secret123", "Bob", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := s.UpdateProfile(u.ID, " Robert ", "+1 512 555 0100")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.DisplayName != "Robert" || updated.Phone != "+1 512 555 0100" {
		t.Errorf("updated = %+v", updated)
	}

	if _, err := s.UpdateProfile(9999, "x", ""); CodeOf(err) != CodeUserNotFound {
		t.Errorf("missing user: err = %v", err)
	}
}

func TestSetPassword(t *testing.T) {
	s := testUserStore(t)
	u, err := s.Create("bob@example.com", "Secret123", "", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.SetPassword(u.ID, "Changed456"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	if _, err := s.Authenticate("bob@example.com", "Secret123"); CodeOf(err) != CodeWrongPassword {
		t.Errorf("old password still works: %v", err)
	}
	if _, err := s.Authenticate("bob@example.com", "Changed456"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
}

func TestEmailByID(t *testing.T) {
	s := testUserStore(t)
	u, err := s.Create("bob@example.com", "Secret123", "", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.EmailByID(u.ID)
	if err != nil {
		t.Fatalf("email by id: %v", err)
	}
	if got != "bob@example.com" {
		t.Errorf("email = %q", got)
	}
	if _, err := s.EmailByID(u.ID + 1); err == nil {
		t.Error("expected error for missing user")
	}
}
