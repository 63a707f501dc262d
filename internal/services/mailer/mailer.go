// Package mailer abstracts message submission across delivery providers.
// A Mailer is selected once from the active EmailSetting; each variant owns
// its own wire format and credentials. Mailers never retry.
package mailer

import (
	"context"
	"fmt"
	"net/mail"
	"time"
)

// Attachment is a named binary payload ready for submission. Base64
// encoding, where a provider needs it, happens inside the variant.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is a single outbound email.
type Message struct {
	To          string
	ToName      string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Mailer submits one message through a delivery provider.
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// ConfigurationError reports a missing or inconsistent provider
// configuration. It aborts a dispatch before any send happens.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "email configuration error: " + e.Reason
}

// ValidationError reports a malformed message field. Per-recipient and
// non-fatal to a batch.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid message field %q: %s", e.Field, e.Reason)
}

// ProviderError wraps a network, authentication or protocol failure during
// submission. It carries enough context for diagnosis but never the
// credential secret.
type ProviderError struct {
	Provider string
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Settings carries the provider-variant fields a mailer needs. It mirrors
// the persisted EmailSetting record without importing the models package.
type Settings struct {
	Provider     string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPSecure   bool
	APIKey       string
	Domain       string
	FromEmail    string
	FromName     string
}

const defaultSubmitTimeout = 30 * time.Second

// New builds the mailer variant selected by the settings' provider
// discriminant, validating the fields that variant requires.
func New(s Settings) (Mailer, error) {
	if s.FromEmail == "" {
		return nil, &ConfigurationError{Reason: "from_email is required"}
	}
	switch s.Provider {
	case "smtp":
		if s.SMTPHost == "" || s.SMTPPort == 0 {
			return nil, &ConfigurationError{Reason: "smtp_host and smtp_port are required for the smtp provider"}
		}
		// Port 465 is implicit-TLS only; accepting it with the security flag
		// off would mean a silent plaintext session.
		if s.SMTPPort == 465 && !s.SMTPSecure {
			return nil, &ConfigurationError{Reason: "smtp_port 465 requires smtp_secure=true (implicit TLS)"}
		}
		return &smtpMailer{
			host:      s.SMTPHost,
			port:      s.SMTPPort,
			username:  s.SMTPUsername,
			password:  s.SMTPPassword,
			secure:    s.SMTPSecure,
			fromEmail: s.FromEmail,
			fromName:  s.FromName,
			timeout:   defaultSubmitTimeout,
		}, nil
	case "sendgrid":
		if s.APIKey == "" {
			return nil, &ConfigurationError{Reason: "api_key is required for the sendgrid provider"}
		}
		return newSendGridMailer(s), nil
	case "mailgun":
		if s.APIKey == "" || s.Domain == "" {
			return nil, &ConfigurationError{Reason: "api_key and domain are required for the mailgun provider"}
		}
		return newMailgunMailer(s), nil
	default:
		return nil, &ConfigurationError{Reason: fmt.Sprintf("unsupported provider: %s", s.Provider)}
	}
}

// validateMessage checks the fields every variant requires.
func validateMessage(msg *Message) error {
	if msg.To == "" {
		return &ValidationError{Field: "to", Reason: "recipient address is empty"}
	}
	if _, err := mail.ParseAddress(msg.To); err != nil {
		return &ValidationError{Field: "to", Reason: err.Error()}
	}
	if msg.Subject == "" {
		return &ValidationError{Field: "subject", Reason: "subject is empty"}
	}
	return nil
}
