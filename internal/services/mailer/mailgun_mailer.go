package mailer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

const mailgunAPIBase = "https://api.mailgun.net/v3"

// mailgunMailer submits messages through the Mailgun v3 messages API using
// basic authorization and a multipart form body.
type mailgunMailer struct {
	apiKey    string
	domain    string
	fromEmail string
	fromName  string
	apiBase   string
	client    *http.Client
}

func newMailgunMailer(s Settings) *mailgunMailer {
	return &mailgunMailer{
		apiKey:    s.APIKey,
		domain:    s.Domain,
		fromEmail: s.FromEmail,
		fromName:  s.FromName,
		apiBase:   mailgunAPIBase,
		client:    &http.Client{Timeout: defaultSubmitTimeout},
	}
}

func (m *mailgunMailer) Send(ctx context.Context, msg *Message) error {
	if err := validateMessage(msg); err != nil {
		return err
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	from := m.fromEmail
	if m.fromName != "" {
		from = fmt.Sprintf("%s <%s>", m.fromName, m.fromEmail)
	}
	to := msg.To
	if msg.ToName != "" {
		to = fmt.Sprintf("%s <%s>", msg.ToName, msg.To)
	}

	fields := map[string]string{
		"from":    from,
		"to":      to,
		"subject": msg.Subject,
		"html":    msg.HTML,
	}
	for key, value := range fields {
		if err := form.WriteField(key, value); err != nil {
			return &ProviderError{Provider: "mailgun", Op: "encode form", Err: err}
		}
	}

	for _, att := range msg.Attachments {
		part, err := form.CreateFormFile("attachment", att.Filename)
		if err != nil {
			return &ProviderError{Provider: "mailgun", Op: "encode attachment", Err: err}
		}
		if _, err := part.Write(att.Data); err != nil {
			return &ProviderError{Provider: "mailgun", Op: "encode attachment", Err: err}
		}
	}

	if err := form.Close(); err != nil {
		return &ProviderError{Provider: "mailgun", Op: "encode form", Err: err}
	}

	endpoint := fmt.Sprintf("%s/%s/messages", m.apiBase, m.domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return &ProviderError{Provider: "mailgun", Op: "build request", Err: err}
	}
	req.SetBasicAuth("api", m.apiKey)
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := m.client.Do(req)
	if err != nil {
		return &ProviderError{Provider: "mailgun", Op: "submit", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &ProviderError{Provider: "mailgun", Op: "submit",
			Err: fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(respBody)))}
	}
	return nil
}
