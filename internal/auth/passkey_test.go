package auth

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-webauthn/webauthn/webauthn"
)

func testPasskeyStore(t *testing.T) (*PasskeyStore, int64) {
	t.Helper()
	d := testDB(t)
	return NewPasskeyStore(d), insertUser(t, d, "bob@example.com")
}

func TestPasskeySaveAndList(t *testing.T) {
	store, uid := testPasskeyStore(t)

	cred := &webauthn.Credential{
		ID:        []byte("test-credential-id"),
		PublicKey: []byte("test-public-key"),
	}

	if err := store.Save(uid, "My Laptop", cred); err != nil {
		t.Fatalf("save: %v", err)
	}

	stored, err := store.ListByUser(uid)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("got %d credentials, want 1", len(stored))
	}
	if stored[0].Name != "My Laptop" || stored[0].UserID != uid {
		t.Errorf("stored = %+v", stored[0])
	}
	if string(stored[0].Credential.ID) != string(cred.ID) {
		t.Errorf("credential ID mismatch")
	}

	creds, err := store.WebAuthnCredentials(uid)
	if err != nil {
		t.Fatalf("webauthn credentials: %v", err)
	}
	if len(creds) != 1 {
		t.Errorf("got %d credentials, want 1", len(creds))
	}
}

func TestPasskeyListEmpty(t *testing.T) {
	store, uid := testPasskeyStore(t)

	stored, err := store.ListByUser(uid + 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("got %d credentials, want 0", len(stored))
	}
}

func TestPasskeyDelete(t *testing.T) {
	store, uid := testPasskeyStore(t)

	cred := &webauthn.Credential{ID: []byte("delete-me"), PublicKey: []byte("key")}
	if err := store.Save(uid, "To Delete", cred); err != nil {
		t.Fatalf("save: %v", err)
	}

	id := fmt.Sprintf("%x", cred.ID)
	if err := store.Delete(id, uid+1); err == nil {
		t.Fatal("expected error deleting another user's credential")
	}
	if err := store.Delete(id, uid); err != nil {
		t.Fatalf("delete: %v", err)
	}

	stored, err := store.ListByUser(uid)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("got %d credentials after delete, want 0", len(stored))
	}
}

func TestPasskeyUser(t *testing.T) {
	cred := webauthn.Credential{ID: []byte("test"), PublicKey: []byte("key")}
	user := NewPasskeyUser(&User{ID: 17, Email: "bob@example.com"}, []webauthn.Credential{cred})

	if user.WebAuthnName() != "bob@example.com" {
		t.Errorf("name = %q", user.WebAuthnName())
	}
	if user.WebAuthnDisplayName() != "bob@example.com" {
		t.Errorf("display name = %q, want email fallback", user.WebAuthnDisplayName())
	}
	id, err := userIDFromHandle(user.WebAuthnID())
	if err != nil || id != 17 {
		t.Errorf("handle round trip = %d, %v", id, err)
	}
	if len(user.WebAuthnCredentials()) != 1 {
		t.Errorf("credentials = %d, want 1", len(user.WebAuthnCredentials()))
	}

	named := NewPasskeyUser(&User{ID: 1, Email: "a@example.com", DisplayName: "Ann"}, nil)
	if named.WebAuthnDisplayName() != "Ann" {
		t.Errorf("display name = %q", named.WebAuthnDisplayName())
	}
}

func TestPasskeyCeremonies(t *testing.T) {
	d := testDB(t)
	users := testUserStoreOn(d)
	u, err := users.Create("bob@example.com", "Secret123", "Bob", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	p, err := NewPasskeys("http://localhost:8080", NewPasskeyStore(d), users)
	if err != nil {
		t.Fatalf("new passkeys: %v", err)
	}

	r := httptest.NewRequest("POST", "/", strings.NewReader("{}"))
	if err := p.FinishRegistration(u, "Laptop", r); CodeOf(err) != CodeInvalidToken {
		t.Errorf("finish without begin: err = %v", err)
	}

	creation, err := p.BeginRegistration(u)
	if err != nil {
		t.Fatalf("begin registration: %v", err)
	}
	if len(creation.Response.Challenge) == 0 {
		t.Error("expected a challenge")
	}
	if p.Pending() != 1 {
		t.Errorf("pending = %d, want 1", p.Pending())
	}

	r = httptest.NewRequest("POST", "/", strings.NewReader("{}"))
	if err := p.FinishRegistration(u, "Laptop", r); CodeOf(err) != CodeInvalidToken {
		t.Errorf("bogus attestation: err = %v", err)
	}
	if p.Pending() != 0 {
		t.Errorf("pending = %d, want ceremony consumed", p.Pending())
	}

	id, assertion, err := p.BeginLogin()
	if err != nil {
		t.Fatalf("begin login: %v", err)
	}
	if id == "" || len(assertion.Response.Challenge) == 0 {
		t.Error("expected ceremony ID and challenge")
	}
	if _, err := p.FinishLogin("unknown", r); CodeOf(err) != CodeInvalidToken {
		t.Errorf("unknown ceremony: err = %v", err)
	}
	if p.Pending() != 1 {
		t.Errorf("pending = %d, want login ceremony kept", p.Pending())
	}
}
