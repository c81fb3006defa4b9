package web

import (
	"net/http"

	"github.com/go-webauthn/webauthn/protocol"

	"github.com/evcraddock/house-market/internal/auth"
)

type passkeyLoginBeginResponse struct {
	Ceremony string                        `json:"ceremony"`
	Options  *protocol.CredentialAssertion `json:"options"`
}

// passkeys returns the ceremony runner, or writes 503 when WebAuthn is
// not configured.
func (s *Server) passkeys(w http.ResponseWriter) (*auth.Passkeys, bool) {
	if s.deps.Passkeys == nil {
		apiError(w, "passkeys are not configured", auth.CodePasskeyUnavailable, http.StatusServiceUnavailable)
		return nil, false
	}
	return s.deps.Passkeys, true
}

func (s *Server) handlePasskeyRegisterBegin(w http.ResponseWriter, r *http.Request) {
	pk, ok := s.passkeys(w)
	if !ok {
		return
	}
	u, err := s.deps.Auth.Profile(auth.UserIDFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	creation, err := pk.BeginRegistration(u)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, creation, http.StatusOK)
}

// handlePasskeyRegisterFinish takes the authenticator response as the body
// and the credential name as ?name=.
func (s *Server) handlePasskeyRegisterFinish(w http.ResponseWriter, r *http.Request) {
	pk, ok := s.passkeys(w)
	if !ok {
		return
	}
	u, err := s.deps.Auth.Profile(auth.UserIDFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := pk.FinishRegistration(u, r.URL.Query().Get("name"), r); err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, map[string]string{"status": "passkey registered"}, http.StatusCreated)
}

func (s *Server) handlePasskeyLoginBegin(w http.ResponseWriter, r *http.Request) {
	pk, ok := s.passkeys(w)
	if !ok {
		return
	}

	id, assertion, err := pk.BeginLogin()
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, passkeyLoginBeginResponse{Ceremony: id, Options: assertion}, http.StatusOK)
}

// handlePasskeyLoginFinish takes the assertion as the body and the
// ceremony ID from login/begin as ?ceremony=.
func (s *Server) handlePasskeyLoginFinish(w http.ResponseWriter, r *http.Request) {
	pk, ok := s.passkeys(w)
	if !ok {
		return
	}

	u, err := pk.FinishLogin(r.URL.Query().Get("ceremony"), r)
	if err != nil {
		apiError(w, "passkey login failed", auth.CodeInvalidToken, http.StatusUnauthorized)
		return
	}
	s.signedIn(w, r, u, http.StatusOK)
}
