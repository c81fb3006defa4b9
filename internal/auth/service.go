package auth

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/evcraddock/house-market/internal/email"
)

// Mailer delivers password reset links.
type Mailer interface {
	Configured() bool
	Send(to, subject, body string) error
}

// SignUpInput is a registration request.
type SignUpInput struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	DisplayName     string `json:"display_name"`
	Phone           string `json:"phone"`
}

// Service implements the account operations exposed by the API.
type Service struct {
	cfg      Config
	users    *UserStore
	sessions *SessionStore
	resets   *ResetTokenStore
	tokens   *TokenIssuer
	revoked  *RevocationStore
	limiter  *Limiter
	mailer   Mailer
}

// NewService wires the auth stores over db. mailer may be nil.
func NewService(db *sql.DB, cfg Config, mailer Mailer) (*Service, error) {
	tokens, err := NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return nil, err
	}
	return &Service{
		cfg:      cfg,
		users:    NewUserStore(db),
		sessions: NewSessionStore(db),
		resets:   NewResetTokenStore(db),
		tokens:   tokens,
		revoked:  NewRevocationStore(db),
		limiter:  NewLimiter(0, 0),
		mailer:   mailer,
	}, nil
}

// Users returns the account store.
func (s *Service) Users() *UserStore { return s.users }

// Sessions returns the cookie session store.
func (s *Service) Sessions() *SessionStore { return s.sessions }

// Tokens returns the bearer token issuer.
func (s *Service) Tokens() *TokenIssuer { return s.tokens }

// Revocations returns the store of signed-out bearer tokens.
func (s *Service) Revocations() *RevocationStore { return s.revoked }

// SignOut ends every credential the request carries: the bearer token is
// revoked until it expires and the cookie session is deleted. It returns
// the session keys that ended so per-session state can be dropped.
func (s *Service) SignOut(w http.ResponseWriter, r *http.Request) ([]string, error) {
	var ended []string

	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		if claims, err := s.tokens.Parse(strings.TrimPrefix(header, "Bearer ")); err == nil {
			expires := s.tokens.now().Add(s.tokens.ttl)
			if claims.ExpiresAt != nil {
				expires = claims.ExpiresAt.Time
			}
			if err := s.revoked.Revoke(claims.ID, expires); err != nil {
				return nil, err
			}
			ended = append(ended, claims.ID)
		}
	}

	if _, sessionID, err := s.sessions.Validate(r); err == nil {
		ended = append(ended, sessionID)
	}
	if err := s.sessions.Destroy(w, r); err != nil {
		return ended, err
	}
	return ended, nil
}

// SignUp validates and registers a new account.
func (s *Service) SignUp(in SignUpInput) (*User, error) {
	if err := ValidateEmail(in.Email); err != nil {
		return nil, err
	}
	if err := ValidateNewPassword(in.Password, in.ConfirmPassword); err != nil {
		return nil, err
	}
	if err := ValidatePhone(in.Phone); err != nil {
		return nil, err
	}

	u, err := s.users.Create(in.Email, in.Password, in.DisplayName, in.Phone)
	if err != nil {
		return nil, err
	}
	slog.Info("user signed up", "user_id", u.ID)
	return u, nil
}

// SignIn checks credentials. Repeated failures from one IP are refused with
// auth/too-many-requests until the window passes.
func (s *Service) SignIn(ip, addr, password string) (*User, error) {
	if s.limiter.Blocked(ip) {
		slog.Warn("sign-in rate limited", "ip", ip)
		return nil, newError(CodeTooManyRequests, "too many failed sign-in attempts, try again later")
	}
	if err := ValidateEmail(addr); err != nil {
		return nil, err
	}

	u, err := s.users.Authenticate(addr, password)
	if err != nil {
		switch CodeOf(err) {
		case CodeUserNotFound, CodeWrongPassword:
			s.limiter.Fail(ip)
			slog.Info("sign-in failed", "ip", ip, "code", CodeOf(err))
		}
		return nil, err
	}

	s.limiter.Reset(ip)
	slog.Info("login success", "user_id", u.ID, "method", "password")
	return u, nil
}

// IssueToken returns a bearer token for API clients.
func (s *Service) IssueToken(u *User) (string, error) {
	return s.tokens.Issue(u)
}

// Profile returns the signed-in user.
func (s *Service) Profile(userID int64) (*User, error) {
	return s.users.GetByID(userID)
}

// UpdateProfile changes the display name and phone.
func (s *Service) UpdateProfile(userID int64, displayName, phone string) (*User, error) {
	if err := ValidatePhone(phone); err != nil {
		return nil, err
	}
	return s.users.UpdateProfile(userID, displayName, phone)
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(userID int64, current, password, confirm string) error {
	u, err := s.users.GetByID(userID)
	if err != nil {
		return err
	}
	if _, err := s.users.Authenticate(u.Email, current); err != nil {
		return err
	}
	if err := ValidateNewPassword(password, confirm); err != nil {
		return err
	}
	return s.users.SetPassword(userID, password)
}

// RequestReset issues a one-time reset link and mails it. Without a
// configured mailer, or in dev mode, the link is only logged. The link is
// returned for callers that display it.
func (s *Service) RequestReset(addr string) (string, error) {
	if err := ValidateEmail(addr); err != nil {
		return "", err
	}
	u, err := s.users.GetByEmail(addr)
	if err != nil {
		return "", err
	}

	token, err := s.resets.Create(u.ID)
	if err != nil {
		return "", err
	}
	link := fmt.Sprintf("%s/reset?token=%s", strings.TrimRight(s.cfg.BaseURL, "/"), token)

	if s.cfg.DevMode || s.mailer == nil || !s.mailer.Configured() {
		slog.Info("password reset link", "user_id", u.ID, "link", link)
		return link, nil
	}

	if err := s.mailer.Send(u.Email, "House Market: reset your password", email.FormatResetEmail(link)); err != nil {
		return "", fmt.Errorf("sending reset email: %w", err)
	}
	return link, nil
}

// ConfirmReset sets a new password using a reset token and signs the user
// out of every session.
func (s *Service) ConfirmReset(token, password, confirm string) error {
	if err := ValidateNewPassword(password, confirm); err != nil {
		return err
	}
	userID, err := s.resets.Consume(token)
	if err != nil {
		return err
	}
	if err := s.users.SetPassword(userID, password); err != nil {
		return err
	}
	if err := s.sessions.DestroyAll(userID); err != nil {
		slog.Warn("clearing sessions after reset", "user_id", userID, "error", err)
	}
	slog.Info("password reset", "user_id", userID)
	return nil
}
