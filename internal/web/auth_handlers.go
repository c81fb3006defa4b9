package web

import (
	"log/slog"
	"net/http"

	"github.com/evcraddock/house-market/internal/auth"
)

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInResponse struct {
	Token string     `json:"token"`
	User  *auth.User `json:"user"`
}

type profileRequest struct {
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type resetConfirmRequest struct {
	Token           string `json:"token"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req auth.SignUpInput
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := s.deps.Auth.SignUp(req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.signedIn(w, r, u, http.StatusCreated)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := s.deps.Auth.SignIn(clientIP(r), req.Email, req.Password)
	if err != nil {
		// Unknown accounts are reported as unauthorized like bad passwords.
		if code := auth.CodeOf(err); code == auth.CodeUserNotFound {
			apiError(w, "no account for that email", code, http.StatusUnauthorized)
			return
		}
		writeError(w, r, err)
		return
	}
	s.signedIn(w, r, u, http.StatusOK)
}

// signedIn starts a cookie session and returns a bearer token for u.
func (s *Server) signedIn(w http.ResponseWriter, r *http.Request, u *auth.User, status int) {
	if _, err := s.deps.Auth.Sessions().Create(w, u.ID); err != nil {
		writeError(w, r, err)
		return
	}
	token, err := s.deps.Auth.IssueToken(u)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, signInResponse{Token: token, User: u}, status)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	ended, err := s.deps.Auth.SignOut(w, r)
	for _, key := range ended {
		s.deps.Compare.Clear(key)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, map[string]string{"status": "signed out"}, http.StatusOK)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	u, err := s.deps.Auth.Profile(auth.UserIDFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, u, http.StatusOK)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := s.deps.Auth.UpdateProfile(auth.UserIDFrom(r.Context()), req.DisplayName, req.Phone)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, u, http.StatusOK)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := s.deps.Auth.ChangePassword(auth.UserIDFrom(r.Context()), req.CurrentPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, map[string]string{"status": "password changed"}, http.StatusOK)
}

// handleResetRequest answers the same way whether or not the account
// exists, so the endpoint cannot be used to discover addresses.
func (s *Server) handleResetRequest(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := s.deps.Auth.RequestReset(req.Email); err != nil {
		if auth.CodeOf(err) != auth.CodeUserNotFound {
			writeError(w, r, err)
			return
		}
		slog.Info("password reset for unknown email")
	}
	apiJSON(w, map[string]string{"status": "if that email is registered, a reset link has been sent"}, http.StatusAccepted)
}

func (s *Server) handleResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req resetConfirmRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.deps.Auth.ConfirmReset(req.Token, req.NewPassword, req.ConfirmPassword); err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, map[string]string{"status": "password reset"}, http.StatusOK)
}
