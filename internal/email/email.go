// Package email provides email formatting and SMTP sending for house-market.
package email

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/evcraddock/house-market/internal/property"
)

// SMTPConfig holds SMTP connection settings.
type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

// IsConfigured returns true if SMTP settings are present.
func (c SMTPConfig) IsConfigured() bool {
	return c.Host != "" && c.From != ""
}

// Mailer sends plain-text mail with fixed SMTP settings.
type Mailer struct {
	cfg  SMTPConfig
	send func(cfg SMTPConfig, to []string, subject, body string) error
}

// NewMailer creates a mailer. An unconfigured mailer reports
// Configured() == false and refuses to send.
func NewMailer(cfg SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg, send: Send}
}

// Configured reports whether SMTP settings are present.
func (m *Mailer) Configured() bool {
	return m != nil && m.cfg.IsConfigured()
}

// Send delivers one message to a single recipient.
func (m *Mailer) Send(to, subject, body string) error {
	return m.send(m.cfg, []string{to}, subject, body)
}

// FormatAlertEmail builds the body of a new-matches alert email.
func FormatAlertEmail(alertName string, matchCount int, props []*property.Property, baseURL string) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Hi,\n\nYour alert %q now matches %d %s.\n\n", alertName, matchCount, plural(matchCount, "property", "properties"))

	for i, p := range props {
		name := p.Address
		if name == "" {
			name = p.Title
		}
		if p.City != "" {
			name += ", " + p.City
		}
		fmt.Fprintf(&buf, "%d. %s\n", i+1, name)

		details := []string{"$" + formatWithCommas(p.Price)}
		if p.ListingType == property.ListingRent {
			details[0] += "/mo"
		}
		if p.Bedrooms != nil {
			details = append(details, fmt.Sprintf("%g bed", *p.Bedrooms))
		}
		if p.Bathrooms != nil {
			details = append(details, fmt.Sprintf("%g bath", *p.Bathrooms))
		}
		if p.Sqft != nil {
			details = append(details, fmt.Sprintf("%s sqft", formatWithCommas(*p.Sqft)))
		}
		fmt.Fprintf(&buf, "   %s\n", strings.Join(details, " | "))

		if baseURL != "" {
			fmt.Fprintf(&buf, "   %s/properties/%d\n", strings.TrimRight(baseURL, "/"), p.ID)
		}
		fmt.Fprintln(&buf)
	}

	fmt.Fprintf(&buf, "You can pause this alert at any time from your alerts page.\n")

	return buf.String()
}

// FormatResetEmail builds the body of a password reset email.
func FormatResetEmail(link string) string {
	return fmt.Sprintf(
		"Use the link below to choose a new House Market password:\n\n%s\n\nThis link expires in 30 minutes and can only be used once.",
		link,
	)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// Send sends an email via SMTP.
// Supports both port 465 (implicit TLS) and port 587 (STARTTLS).
func Send(cfg SMTPConfig, to []string, subject, body string) error {
	if !cfg.IsConfigured() {
		return fmt.Errorf("SMTP not configured")
	}

	msg := buildMessage(cfg.From, to, subject, body)

	addr := cfg.Host + ":" + cfg.Port

	if cfg.Port == "465" {
		return sendImplicitTLS(cfg, addr, to, msg)
	}
	return sendSTARTTLS(cfg, addr, to, msg)
}

// sendImplicitTLS connects over TLS directly (port 465/SMTPS).
func sendImplicitTLS(cfg SMTPConfig, addr string, to []string, msg string) error {
	tlsCfg := &tls.Config{ServerName: cfg.Host}
	conn, err := tls.Dial("tcp", addr, tlsCfg)
	if err != nil {
		return fmt.Errorf("TLS dial: %w", err)
	}

	c, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer func() {
		if quitErr := c.Quit(); quitErr != nil {
			err = fmt.Errorf("quit: %w", quitErr)
		}
	}()

	if cfg.User != "" {
		auth := smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := c.Mail(cfg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt to %s: %w", rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}

	return nil
}

// sendSTARTTLS connects plain then upgrades to TLS (port 587).
func sendSTARTTLS(cfg SMTPConfig, addr string, to []string, msg string) error {
	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, cfg.From, to, []byte(msg)); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}

func buildMessage(from string, to []string, subject, body string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\r\n", from)
	fmt.Fprintf(&sb, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&sb, "Subject: %s\r\n", subject)
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)
	return sb.String()
}

func formatWithCommas(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	return strings.Join(parts, ",")
}
