package auth

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"
)

const ceremonyTimeout = 5 * time.Minute

// Passkeys runs WebAuthn registration and login ceremonies. In-flight
// ceremony state is held in memory.
type Passkeys struct {
	wan   *webauthn.WebAuthn
	store *PasskeyStore
	users *UserStore

	mu           sync.Mutex
	registration map[int64]ceremony
	login        map[string]ceremony
}

type ceremony struct {
	data    *webauthn.SessionData
	started time.Time
}

// NewPasskeys configures the relying party from the public base URL.
func NewPasskeys(baseURL string, store *PasskeyStore, users *UserStore) (*Passkeys, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	wan, err := webauthn.New(&webauthn.Config{
		RPDisplayName: "House Market",
		RPID:          parsed.Hostname(),
		RPOrigins:     []string{strings.TrimRight(baseURL, "/")},
	})
	if err != nil {
		return nil, fmt.Errorf("configuring webauthn: %w", err)
	}

	return &Passkeys{
		wan:          wan,
		store:        store,
		users:        users,
		registration: make(map[int64]ceremony),
		login:        make(map[string]ceremony),
	}, nil
}

// BeginRegistration starts adding a passkey to the user's account.
func (p *Passkeys) BeginRegistration(u *User) (*protocol.CredentialCreation, error) {
	creds, err := p.store.WebAuthnCredentials(u.ID)
	if err != nil {
		return nil, err
	}

	// Exclude existing credentials so the same key is not registered twice.
	exclude := make([]protocol.CredentialDescriptor, len(creds))
	for i, c := range creds {
		exclude[i] = c.Descriptor()
	}

	creation, session, err := p.wan.BeginRegistration(NewPasskeyUser(u, creds), webauthn.WithExclusions(exclude))
	if err != nil {
		return nil, fmt.Errorf("beginning registration: %w", err)
	}

	p.mu.Lock()
	p.expire()
	p.registration[u.ID] = ceremony{data: session, started: time.Now()}
	p.mu.Unlock()

	return creation, nil
}

// FinishRegistration verifies the authenticator response and stores the
// credential under name.
func (p *Passkeys) FinishRegistration(u *User, name string, r *http.Request) error {
	p.mu.Lock()
	c, ok := p.registration[u.ID]
	delete(p.registration, u.ID)
	p.mu.Unlock()

	if !ok {
		return newError(CodeInvalidToken, "no passkey registration in progress")
	}

	creds, err := p.store.WebAuthnCredentials(u.ID)
	if err != nil {
		return err
	}

	credential, err := p.wan.FinishRegistration(NewPasskeyUser(u, creds), *c.data, r)
	if err != nil {
		return newError(CodeInvalidToken, "passkey registration failed")
	}

	if name = strings.TrimSpace(name); name == "" {
		name = "Passkey"
	}
	return p.store.Save(u.ID, name, credential)
}

// BeginLogin starts a discoverable passkey login. The returned ceremony ID
// must be passed back to FinishLogin.
func (p *Passkeys) BeginLogin() (string, *protocol.CredentialAssertion, error) {
	assertion, session, err := p.wan.BeginDiscoverableLogin()
	if err != nil {
		return "", nil, fmt.Errorf("beginning passkey login: %w", err)
	}

	id := uuid.NewString()
	p.mu.Lock()
	p.expire()
	p.login[id] = ceremony{data: session, started: time.Now()}
	p.mu.Unlock()

	return id, assertion, nil
}

// FinishLogin verifies the assertion and returns the signed-in user.
func (p *Passkeys) FinishLogin(ceremonyID string, r *http.Request) (*User, error) {
	p.mu.Lock()
	c, ok := p.login[ceremonyID]
	delete(p.login, ceremonyID)
	p.mu.Unlock()

	if !ok {
		return nil, newError(CodeInvalidToken, "no passkey login in progress")
	}

	var found *User
	handler := func(rawID, userHandle []byte) (webauthn.User, error) {
		id, err := userIDFromHandle(userHandle)
		if err != nil {
			return nil, protocol.ErrBadRequest.WithDetails("unknown user")
		}
		u, err := p.users.GetByID(id)
		if err != nil {
			return nil, protocol.ErrBadRequest.WithDetails("unknown user")
		}
		creds, err := p.store.WebAuthnCredentials(id)
		if err != nil {
			return nil, err
		}
		found = u
		return NewPasskeyUser(u, creds), nil
	}

	if _, _, err := p.wan.FinishPasskeyLogin(handler, *c.data, r); err != nil || found == nil {
		return nil, newError(CodeInvalidToken, "passkey login failed")
	}
	return found, nil
}

// Pending returns the number of unfinished ceremonies.
func (p *Passkeys) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.registration) + len(p.login)
}

// expire drops abandoned ceremonies. Callers hold mu.
func (p *Passkeys) expire() {
	cutoff := time.Now().Add(-ceremonyTimeout)
	for id, c := range p.registration {
		if c.started.Before(cutoff) {
			delete(p.registration, id)
		}
	}
	for id, c := range p.login {
		if c.started.Before(cutoff) {
			delete(p.login, id)
		}
	}
}
