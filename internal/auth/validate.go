package auth

import (
	"regexp"
	"strings"
	"unicode"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ().-]{6,19}$`)
)

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks the address shape.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(NormalizeEmail(email)) {
		return newError(CodeInvalidEmail, "email address is not valid")
	}
	return nil
}

// ValidatePhone checks an optional phone number. Empty is allowed.
func ValidatePhone(phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil
	}
	if !phonePattern.MatchString(phone) {
		return newError(CodeInvalidPhone, "phone number is not valid")
	}
	return nil
}

// ValidatePassword requires MinPasswordLength characters with an upper-case
// letter, a lower-case letter and a digit.
func ValidatePassword(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return newError(CodeWeakPassword, "password must be at least 8 characters")
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return newError(CodeWeakPassword, "password must contain upper-case, lower-case and a digit")
	}
	return nil
}

// ValidateNewPassword checks strength and that the confirmation matches.
func ValidateNewPassword(password, confirm string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}
	if password != confirm {
		return newError(CodePasswordMismatch, "passwords do not match")
	}
	return nil
}
