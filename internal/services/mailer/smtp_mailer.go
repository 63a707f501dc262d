package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"time"

	"github.com/sirupsen/logrus"
)

// smtpMailer submits messages through a direct SMTP relay. Port 465 uses
// implicit TLS; other ports upgrade with STARTTLS when the security flag is
// set. Plaintext fallback on a secure configuration is a hard error.
type smtpMailer struct {
	host      string
	port      int
	username  string
	password  string
	secure    bool
	fromEmail string
	fromName  string
	timeout   time.Duration
}

func (m *smtpMailer) Send(ctx context.Context, msg *Message) error {
	if err := validateMessage(msg); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	logrus.WithFields(logrus.Fields{
		"host":     m.host,
		"port":     m.port,
		"secure":   m.secure,
		"username": m.username,
		"to":       msg.To,
	}).Debug("Submitting message via SMTP relay")

	dialer := &net.Dialer{Timeout: m.timeout}

	var conn net.Conn
	var err error
	if m.secure && m.port == 465 {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: m.host}}
		conn, err = tlsDialer.DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return &ProviderError{Provider: "smtp", Op: "dial " + addr, Err: err}
	}

	// The per-submission timeout covers the whole SMTP conversation.
	deadline := time.Now().Add(m.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		conn.Close()
		return &ProviderError{Provider: "smtp", Op: "handshake", Err: err}
	}
	defer client.Quit()

	if m.secure && m.port != 465 {
		if ok, _ := client.Extension("STARTTLS"); !ok {
			return &ProviderError{Provider: "smtp", Op: "starttls",
				Err: fmt.Errorf("server %s does not support STARTTLS but smtp_secure is set", m.host)}
		}
		if err := client.StartTLS(&tls.Config{ServerName: m.host}); err != nil {
			return &ProviderError{Provider: "smtp", Op: "starttls", Err: err}
		}
	}

	if m.username != "" && m.password != "" {
		auth := smtp.PlainAuth("", m.username, m.password, m.host)
		if err := client.Auth(auth); err != nil {
			return &ProviderError{Provider: "smtp", Op: "auth as " + m.username, Err: err}
		}
	}

	if err := client.Mail(m.fromEmail); err != nil {
		return &ProviderError{Provider: "smtp", Op: "mail from", Err: err}
	}
	if err := client.Rcpt(msg.To); err != nil {
		return &ProviderError{Provider: "smtp", Op: "rcpt to", Err: err}
	}

	w, err := client.Data()
	if err != nil {
		return &ProviderError{Provider: "smtp", Op: "data", Err: err}
	}
	if _, err := w.Write(m.buildMIME(msg)); err != nil {
		return &ProviderError{Provider: "smtp", Op: "write body", Err: err}
	}
	if err := w.Close(); err != nil {
		return &ProviderError{Provider: "smtp", Op: "close body", Err: err}
	}

	return nil
}

// buildMIME assembles a multipart/mixed message with an HTML body part and
// base64-encoded attachment parts.
func (m *smtpMailer) buildMIME(msg *Message) []byte {
	var buf bytes.Buffer
	boundary := fmt.Sprintf("=_eventra_%d", time.Now().UnixNano())

	from := m.fromEmail
	if m.fromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", m.fromName), m.fromEmail)
	}
	to := msg.To
	if msg.ToName != "" {
		to = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", msg.ToName), msg.To)
	}

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=\"%s\"\r\n", boundary)
	buf.WriteString("\r\n")

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	buf.WriteString("Content-Transfer-Encoding: base64\r\n\r\n")
	writeBase64Wrapped(&buf, []byte(msg.HTML))

	for _, att := range msg.Attachments {
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		fmt.Fprintf(&buf, "--%s\r\n", boundary)
		fmt.Fprintf(&buf, "Content-Type: %s; name=\"%s\"\r\n", contentType, att.Filename)
		fmt.Fprintf(&buf, "Content-Disposition: attachment; filename=\"%s\"\r\n", att.Filename)
		buf.WriteString("Content-Transfer-Encoding: base64\r\n\r\n")
		writeBase64Wrapped(&buf, att.Data)
	}

	fmt.Fprintf(&buf, "--%s--\r\n", boundary)
	return buf.Bytes()
}

// writeBase64Wrapped writes base64 data in RFC 2045 76-character lines.
func writeBase64Wrapped(buf *bytes.Buffer, data []byte) {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 76 {
		buf.WriteString(encoded[:76])
		buf.WriteString("\r\n")
		encoded = encoded[76:]
	}
	buf.WriteString(encoded)
	buf.WriteString("\r\n")
}
