package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

type contextKey int

const identityKey contextKey = iota

// Identity is the caller resolved from a bearer token or session cookie.
type Identity struct {
	UserID int64
	// SessionKey identifies the client session: the token ID for bearer
	// tokens, the session ID for cookies.
	SessionKey string
}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the caller identity, if any.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.UserID != 0
}

// UserIDFrom returns the signed-in user ID, or 0.
func UserIDFrom(ctx context.Context) int64 {
	id, _ := IdentityFrom(ctx)
	return id.UserID
}

// Identify resolves the caller from an Authorization: Bearer header or the
// session cookie. Requests without valid credentials continue anonymously.
func (s *Service) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := s.identify(r); ok {
			r = r.WithContext(WithIdentity(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Service) identify(r *http.Request) (Identity, bool) {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		claims, err := s.tokens.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			slog.Debug("rejected bearer token", "error", err)
			return Identity{}, false
		}
		revoked, err := s.revoked.Revoked(claims.ID)
		if err != nil {
			slog.Error("checking token revocation", "error", err)
			return Identity{}, false
		}
		if revoked {
			slog.Debug("rejected signed-out bearer token", "jti", claims.ID)
			return Identity{}, false
		}
		return Identity{UserID: claims.UserID, SessionKey: claims.ID}, true
	}

	userID, sessionID, err := s.sessions.Validate(r)
	if err != nil {
		return Identity{}, false
	}
	return Identity{UserID: userID, SessionKey: sessionID}, true
}

// RequireUser rejects anonymous requests with 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFrom(r.Context()); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			resp := map[string]string{"error": "sign in required", "code": CodeUnauthenticated}
			if err := json.NewEncoder(w).Encode(resp); err != nil {
				slog.Error("encoding response", "error", err)
			}
			return
		}
		next.ServeHTTP(w, r)
	})
}
