package mailer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendGridSend(t *testing.T) {
	var gotAuth string
	var gotPayload sgPayload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	m := newSendGridMailer(Settings{
		Provider:  "sendgrid",
		APIKey:    "SG.testkey",
		FromEmail: "noreply@example.com",
		FromName:  "Eventra",
	})
	m.apiURL = server.URL

	err := m.Send(context.Background(), &Message{
		To:      "guest@example.com",
		ToName:  "Guest",
		Subject: "Welcome",
		HTML:    "<p>Hello</p>",
		Attachments: []Attachment{
			{Filename: "ticket.png", ContentType: "image/png", Data: []byte{0x89, 0x50, 0x4E, 0x47}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer SG.testkey", gotAuth)
	assert.Equal(t, "noreply@example.com", gotPayload.From.Email)
	assert.Equal(t, "Welcome", gotPayload.Subject)
	require.Len(t, gotPayload.Personalizations, 1)
	require.Len(t, gotPayload.Personalizations[0].To, 1)
	assert.Equal(t, "guest@example.com", gotPayload.Personalizations[0].To[0].Email)
	require.Len(t, gotPayload.Content, 1)
	assert.Equal(t, "text/html", gotPayload.Content[0].Type)
	require.Len(t, gotPayload.Attachments, 1)
	assert.Equal(t, "ticket.png", gotPayload.Attachments[0].Filename)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{0x89, 0x50, 0x4E, 0x47}), gotPayload.Attachments[0].Content)
}

func TestSendGridSendErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer server.Close()

	m := newSendGridMailer(Settings{Provider: "sendgrid", APIKey: "SG.bad", FromEmail: "noreply@example.com"})
	m.apiURL = server.URL

	err := m.Send(context.Background(), &Message{To: "guest@example.com", Subject: "Hi"})
	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "sendgrid", provErr.Provider)
	assert.Contains(t, err.Error(), "bad key")
	assert.NotContains(t, err.Error(), "SG.bad")
}

func TestSendGridSendValidatesFirst(t *testing.T) {
	m := newSendGridMailer(Settings{Provider: "sendgrid", APIKey: "SG.key", FromEmail: "noreply@example.com"})

	err := m.Send(context.Background(), &Message{To: "", Subject: "Hi"})
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
}
