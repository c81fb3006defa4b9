package auth

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type fakeMailer struct {
	configured bool
	to         string
	body       string
	err        error
}

func (m *fakeMailer) Configured() bool { return m.configured }

func (m *fakeMailer) Send(to, subject, body string) error {
	m.to, m.body = to, body
	return m.err
}

func testService(t *testing.T, mailer Mailer) *Service {
	t.Helper()
	svc, err := NewService(testDB(t), Config{
		JWTSecret: "test-secret",
		JWTTTL:    time.Hour,
		BaseURL:   "http://localhost:8080",
	}, mailer)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	svc.users.cost = bcrypt.MinCost
	return svc
}

func signUp(t *testing.T, svc *Service, email string) *User {
	t.Helper()
	u, err := svc.SignUp(SignUpInput{
		Email:           email,
		Password:        "Secret123",
		ConfirmPassword: "Secret123",
		DisplayName:     "Bob",
	})
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	return u
}

func TestSignUpValidation(t *testing.T) {
	svc := testService(t, nil)
	signUp(t, svc, "taken@example.com")

	tests := []struct {
		name string
		in   SignUpInput
		code string
	}{
		{"bad email", SignUpInput{Email: "nope", Password: "Secret123", ConfirmPassword: "Secret123"}, CodeInvalidEmail},
		{"weak password", SignUpInput{Email: "a@example.com", Password: "short", ConfirmPassword: "short"}, CodeWeakPassword},
		{"mismatch", SignUpInput{Email: "a@example.com", Password: "Secret123", ConfirmPassword: "Secret321"}, CodePasswordMismatch},
		{"bad phone", SignUpInput{Email: "a@example.com", Password: "Secret123", ConfirmPassword: "Secret123", Phone: "phone"}, CodeInvalidPhone},
		{"taken", SignUpInput{Email: "Taken@example.com", Password: "Secret123", ConfirmPassword: "Secret123"}, CodeEmailAlreadyInUse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SignUp(tt.in)
			if got := CodeOf(err); got != tt.code {
				t.Errorf("code = %q, want %q", got, tt.code)
			}
		})
	}
}

func TestSignInAndToken(t *testing.T) {
	svc := testService(t, nil)
	u := signUp(t, svc, "bob@example.com")

	got, err := svc.SignIn("10.0.0.1", "bob@example.com", "Secret123")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("id = %d, want %d", got.ID, u.ID)
	}

	token, err := svc.IssueToken(got)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	claims, err := svc.Tokens().Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != u.ID {
		t.Errorf("claims user = %d", claims.UserID)
	}
}

func TestSignInRateLimited(t *testing.T) {
	svc := testService(t, nil)
	signUp(t, svc, "bob@example.com")

	for i := 0; i < rateLimitMaxFail; i++ {
		if _, err := svc.SignIn("10.0.0.1", "bob@example.com", "Wrong123"); CodeOf(err) != CodeWrongPassword {
			t.Fatalf("attempt %d: err = %v", i, err)
		}
	}

	_, err := svc.SignIn("10.0.0.1", "bob@example.com", "Secret123")
	if CodeOf(err) != CodeTooManyRequests {
		t.Fatalf("err = %v, want %s", err, CodeTooManyRequests)
	}

	if _, err := svc.SignIn("10.0.0.2", "bob@example.com", "Secret123"); err != nil {
		t.Errorf("other IP blocked: %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc := testService(t, nil)
	u := signUp(t, svc, "bob@example.com")

	if err := svc.ChangePassword(u.ID, "Wrong123", "Newpass456", "Newpass456"); CodeOf(err) != CodeWrongPassword {
		t.Errorf("wrong current: err = %v", err)
	}
	if err := svc.ChangePassword(u.ID, "Secret123", "weak", "weak"); CodeOf(err) != CodeWeakPassword {
		t.Errorf("weak new: err = %v", err)
	}
	if err := svc.ChangePassword(u.ID, "Secret123", "Newpass456", "Newpass456"); err != nil {
		t.Fatalf("change: %v", err)
	}
	if _, err := svc.SignIn("10.0.0.1", "bob@example.com", "Newpass456"); err != nil {
		t.Errorf("sign in with new password: %v", err)
	}
}

func TestUpdateProfileValidatesPhone(t *testing.T) {
	svc := testService(t, nil)
	u := signUp(t, svc, "bob@example.com")

	if _, err := svc.UpdateProfile(u.ID, "Bob", "not a phone"); CodeOf(err) != CodeInvalidPhone {
		t.Errorf("err = %v, want %s", err, CodeInvalidPhone)
	}
	got, err := svc.UpdateProfile(u.ID, "Robert", "512-555-0100")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.DisplayName != "Robert" {
		t.Errorf("display name = %q", got.DisplayName)
	}
}

func TestPasswordReset(t *testing.T) {
	mailer := &fakeMailer{configured: true}
	svc := testService(t, mailer)
	u := signUp(t, svc, "bob@example.com")

	w := httptest.NewRecorder()
	if _, err := svc.Sessions().Create(w, u.ID); err != nil {
		t.Fatalf("create session: %v", err)
	}

	link, err := svc.RequestReset("BOB@example.com")
	if err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if mailer.to != "bob@example.com" || !strings.Contains(mailer.body, link) {
		t.Errorf("mail to %q body %q", mailer.to, mailer.body)
	}
	token := link[strings.Index(link, "token=")+len("token="):]

	if err := svc.ConfirmReset(token, "Newpass456", "Newpass789"); CodeOf(err) != CodePasswordMismatch {
		t.Errorf("mismatch: err = %v", err)
	}
	if err := svc.ConfirmReset(token, "Newpass456", "Newpass456"); err != nil {
		t.Fatalf("confirm reset: %v", err)
	}
	if err := svc.ConfirmReset(token, "Other4567", "Other4567"); CodeOf(err) != CodeInvalidToken {
		t.Errorf("reused token: err = %v", err)
	}

	if _, err := svc.SignIn("10.0.0.1", "bob@example.com", "Newpass456"); err != nil {
		t.Errorf("sign in after reset: %v", err)
	}

	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(sessionCookieFrom(t, w))
	if _, _, err := svc.Sessions().Validate(r); err == nil {
		t.Error("existing session should be revoked by reset")
	}
}

func TestRequestResetErrors(t *testing.T) {
	mailer := &fakeMailer{configured: true, err: errors.New("smtp down")}
	svc := testService(t, mailer)
	signUp(t, svc, "bob@example.com")

	if _, err := svc.RequestReset("nobody@example.com"); CodeOf(err) != CodeUserNotFound {
		t.Errorf("unknown email: err = %v", err)
	}
	if _, err := svc.RequestReset("bob@example.com"); err == nil || !strings.Contains(err.Error(), "smtp down") {
		t.Errorf("mail failure: err = %v", err)
	}
}

func TestRequestResetWithoutMailerLogsLink(t *testing.T) {
	svc := testService(t, &fakeMailer{})
	signUp(t, svc, "bob@example.com")

	link, err := svc.RequestReset("bob@example.com")
	if err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if !strings.HasPrefix(link, "http://localhost:8080/reset?token=") {
		t.Errorf("link = %q", link)
	}
}
