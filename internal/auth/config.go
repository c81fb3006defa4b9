// Package auth provides email/password accounts, cookie sessions, bearer
// tokens, password reset and passkey sign-in.
package auth

import "time"

// Config holds authentication configuration.
type Config struct {
	JWTSecret string
	JWTTTL    time.Duration
	DevMode   bool
	BaseURL   string // e.g. http://localhost:8080
}
