package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSMTPSettings() Settings {
	return Settings{
		Provider:     "smtp",
		SMTPHost:     "smtp.example.com",
		SMTPPort:     587,
		SMTPUsername: "mailer",
		SMTPPassword: "secret",
		SMTPSecure:   true,
		FromEmail:    "noreply@example.com",
		FromName:     "Eventra",
	}
}

func TestNewSMTPMailer(t *testing.T) {
	m, err := New(validSMTPSettings())
	require.NoError(t, err)
	assert.IsType(t, &smtpMailer{}, m)
}

func TestNewRejectsPort465WithoutSecure(t *testing.T) {
	s := validSMTPSettings()
	s.SMTPPort = 465
	s.SMTPSecure = false

	m, err := New(s)
	assert.Nil(t, m)

	var confErr *ConfigurationError
	require.ErrorAs(t, err, &confErr)
	assert.Contains(t, confErr.Reason, "465")
}

func TestNewAcceptsPort465WithSecure(t *testing.T) {
	s := validSMTPSettings()
	s.SMTPPort = 465
	s.SMTPSecure = true

	_, err := New(s)
	assert.NoError(t, err)
}

func TestNewRequiresFromEmail(t *testing.T) {
	s := validSMTPSettings()
	s.FromEmail = ""

	_, err := New(s)
	var confErr *ConfigurationError
	require.ErrorAs(t, err, &confErr)
}

func TestNewRequiresSMTPHostAndPort(t *testing.T) {
	s := validSMTPSettings()
	s.SMTPHost = ""

	_, err := New(s)
	var confErr *ConfigurationError
	require.ErrorAs(t, err, &confErr)
}

func TestNewSendGridRequiresAPIKey(t *testing.T) {
	_, err := New(Settings{Provider: "sendgrid", FromEmail: "noreply@example.com"})
	var confErr *ConfigurationError
	require.ErrorAs(t, err, &confErr)

	m, err := New(Settings{Provider: "sendgrid", APIKey: "SG.key", FromEmail: "noreply@example.com"})
	require.NoError(t, err)
	assert.IsType(t, &sendGridMailer{}, m)
}

func TestNewMailgunRequiresAPIKeyAndDomain(t *testing.T) {
	_, err := New(Settings{Provider: "mailgun", APIKey: "key", FromEmail: "noreply@example.com"})
	var confErr *ConfigurationError
	require.ErrorAs(t, err, &confErr)

	m, err := New(Settings{
		Provider:  "mailgun",
		APIKey:    "key",
		Domain:    "mg.example.com",
		FromEmail: "noreply@example.com",
	})
	require.NoError(t, err)
	assert.IsType(t, &mailgunMailer{}, m)
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := New(Settings{Provider: "pigeon", FromEmail: "noreply@example.com"})
	var confErr *ConfigurationError
	require.ErrorAs(t, err, &confErr)
	assert.Contains(t, confErr.Reason, "pigeon")
}

func TestValidateMessage(t *testing.T) {
	err := validateMessage(&Message{To: "", Subject: "Hi"})
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "to", valErr.Field)

	err = validateMessage(&Message{To: "not-an-address", Subject: "Hi"})
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "to", valErr.Field)

	err = validateMessage(&Message{To: "guest@example.com", Subject: ""})
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "subject", valErr.Field)

	assert.NoError(t, validateMessage(&Message{To: "guest@example.com", Subject: "Hi"}))
}
