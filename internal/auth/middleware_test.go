package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func identityHandler(got *Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got, _ = IdentityFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestIdentifyBearerToken(t *testing.T) {
	svc := testService(t, nil)
	u := signUp(t, svc, "bob@example.com")
	token, err := svc.IssueToken(u)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := svc.Tokens().Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	var got Identity
	r := httptest.NewRequest("GET", "/api/alerts", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	svc.Identify(identityHandler(&got)).ServeHTTP(httptest.NewRecorder(), r)

	if got.UserID != u.ID || got.SessionKey != claims.ID {
		t.Errorf("identity = %+v", got)
	}
}

func TestIdentifySessionCookie(t *testing.T) {
	svc := testService(t, nil)
	u := signUp(t, svc, "bob@example.com")

	w := httptest.NewRecorder()
	sessionID, err := svc.Sessions().Create(w, u.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	var got Identity
	r := httptest.NewRequest("GET", "/api/alerts", nil)
	r.AddCookie(sessionCookieFrom(t, w))
	svc.Identify(identityHandler(&got)).ServeHTTP(httptest.NewRecorder(), r)

	if got.UserID != u.ID || got.SessionKey != sessionID {
		t.Errorf("identity = %+v", got)
	}
}

func TestIdentifyInvalidCredentialsIsAnonymous(t *testing.T) {
	svc := testService(t, nil)

	var got Identity
	r := httptest.NewRequest("GET", "/api/properties", nil)
	r.Header.Set("Authorization", "Bearer not-a-token")
	w := httptest.NewRecorder()
	svc.Identify(identityHandler(&got)).ServeHTTP(w, r)

	if w.Code != http.StatusOK || got.UserID != 0 {
		t.Errorf("status = %d identity = %+v", w.Code, got)
	}
}

func TestRequireUser(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequireUser(inner)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/alerts", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", w.Code)
	}

	r := httptest.NewRequest("GET", "/api/alerts", nil)
	r = r.WithContext(WithIdentity(r.Context(), Identity{UserID: 1, SessionKey: "k"}))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusNoContent {
		t.Errorf("signed-in status = %d, want 204", w.Code)
	}
	if UserIDFrom(r.Context()) != 1 {
		t.Errorf("user id = %d", UserIDFrom(r.Context()))
	}
}
