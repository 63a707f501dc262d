package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const sendGridAPIURL = "https://api.sendgrid.com/v3/mail/send"

// sendGridMailer submits messages through the SendGrid v3 mail/send API
// using bearer token authorization.
type sendGridMailer struct {
	apiKey    string
	fromEmail string
	fromName  string
	apiURL    string
	client    *http.Client
}

func newSendGridMailer(s Settings) *sendGridMailer {
	return &sendGridMailer{
		apiKey:    s.APIKey,
		fromEmail: s.FromEmail,
		fromName:  s.FromName,
		apiURL:    sendGridAPIURL,
		client:    &http.Client{Timeout: defaultSubmitTimeout},
	}
}

type sgAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sgAttachment struct {
	Content     string `json:"content"`
	Type        string `json:"type,omitempty"`
	Filename    string `json:"filename"`
	Disposition string `json:"disposition"`
}

type sgPayload struct {
	Personalizations []struct {
		To []sgAddress `json:"to"`
	} `json:"personalizations"`
	From    sgAddress `json:"from"`
	Subject string    `json:"subject"`
	Content []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"content"`
	Attachments []sgAttachment `json:"attachments,omitempty"`
}

func (m *sendGridMailer) Send(ctx context.Context, msg *Message) error {
	if err := validateMessage(msg); err != nil {
		return err
	}

	payload := sgPayload{
		From:    sgAddress{Email: m.fromEmail, Name: m.fromName},
		Subject: msg.Subject,
	}
	payload.Personalizations = append(payload.Personalizations, struct {
		To []sgAddress `json:"to"`
	}{To: []sgAddress{{Email: msg.To, Name: msg.ToName}}})
	payload.Content = append(payload.Content, struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}{Type: "text/html", Value: msg.HTML})

	for _, att := range msg.Attachments {
		payload.Attachments = append(payload.Attachments, sgAttachment{
			Content:     base64.StdEncoding.EncodeToString(att.Data),
			Type:        att.ContentType,
			Filename:    att.Filename,
			Disposition: "attachment",
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &ProviderError{Provider: "sendgrid", Op: "encode payload", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewReader(body))
	if err != nil {
		return &ProviderError{Provider: "sendgrid", Op: "build request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return &ProviderError{Provider: "sendgrid", Op: "submit", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &ProviderError{Provider: "sendgrid", Op: "submit",
			Err: fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(respBody)))}
	}
	return nil
}
