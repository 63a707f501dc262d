package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMIME(t *testing.T) {
	m := &smtpMailer{
		fromEmail: "noreply@example.com",
		fromName:  "Eventra",
	}

	raw := string(m.buildMIME(&Message{
		To:      "guest@example.com",
		ToName:  "Guest",
		Subject: "Welcome to the event",
		HTML:    "<p>Hello</p>",
		Attachments: []Attachment{
			{Filename: "ticket.png", ContentType: "image/png", Data: []byte("png-bytes")},
		},
	}))

	assert.Contains(t, raw, "From: Eventra <noreply@example.com>\r\n")
	assert.Contains(t, raw, "To: Guest <guest@example.com>\r\n")
	assert.Contains(t, raw, "Subject: Welcome to the event\r\n")
	assert.Contains(t, raw, "MIME-Version: 1.0\r\n")
	assert.Contains(t, raw, "Content-Type: multipart/mixed; boundary=")

	// HTML body is base64 encoded
	assert.Contains(t, raw, base64.StdEncoding.EncodeToString([]byte("<p>Hello</p>")))

	// Attachment part carries name, disposition and encoded data
	assert.Contains(t, raw, `Content-Type: image/png; name="ticket.png"`)
	assert.Contains(t, raw, `Content-Disposition: attachment; filename="ticket.png"`)
	assert.Contains(t, raw, base64.StdEncoding.EncodeToString([]byte("png-bytes")))

	// Closing boundary terminates the message
	assert.True(t, strings.HasSuffix(raw, "--\r\n"))
}

func TestBuildMIMEDefaultsAttachmentContentType(t *testing.T) {
	m := &smtpMailer{fromEmail: "noreply@example.com"}

	raw := string(m.buildMIME(&Message{
		To:      "guest@example.com",
		Subject: "Hi",
		HTML:    "<p>Hi</p>",
		Attachments: []Attachment{
			{Filename: "blob", Data: []byte{0x00, 0x01}},
		},
	}))

	assert.Contains(t, raw, `Content-Type: application/octet-stream; name="blob"`)
}

func TestSendImplicitTLSHonorsContext(t *testing.T) {
	m := &smtpMailer{
		host:      "smtp.example.com",
		port:      465,
		secure:    true,
		fromEmail: "noreply@example.com",
		timeout:   5 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The implicit TLS dial must observe the cancelled context and return
	// without waiting for the dial timeout
	err := m.Send(ctx, &Message{To: "guest@example.com", Subject: "Hi", HTML: "<p>Hi</p>"})
	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteBase64WrappedLineLength(t *testing.T) {
	data := make([]byte, 300)
	for i := range data {
		data[i] = byte(i)
	}

	var buf bytes.Buffer
	writeBase64Wrapped(&buf, data)

	for _, line := range strings.Split(strings.TrimRight(buf.String(), "\r\n"), "\r\n") {
		assert.LessOrEqual(t, len(line), 76)
	}

	// Decoding the joined lines round-trips the data
	joined := strings.ReplaceAll(buf.String(), "\r\n", "")
	decoded, err := base64.StdEncoding.DecodeString(joined)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}
