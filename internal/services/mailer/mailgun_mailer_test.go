package mailer

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailgunSend(t *testing.T) {
	var gotPath string
	var gotUser, gotPass string
	var gotFields map[string]string
	var gotAttachment []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()

		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotFields = map[string]string{}
		for key, values := range r.MultipartForm.Value {
			gotFields[key] = values[0]
		}
		if files := r.MultipartForm.File["attachment"]; len(files) > 0 {
			f, err := files[0].Open()
			require.NoError(t, err)
			defer f.Close()
			gotAttachment, _ = io.ReadAll(f)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	m := newMailgunMailer(Settings{
		Provider:  "mailgun",
		APIKey:    "mg-key",
		Domain:    "mg.example.com",
		FromEmail: "noreply@example.com",
		FromName:  "Eventra",
	})
	m.apiBase = server.URL

	err := m.Send(context.Background(), &Message{
		To:      "guest@example.com",
		ToName:  "Guest",
		Subject: "Welcome",
		HTML:    "<p>Hello</p>",
		Attachments: []Attachment{
			{Filename: "ticket.png", ContentType: "image/png", Data: []byte("png-bytes")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "/mg.example.com/messages", gotPath)
	assert.Equal(t, "api", gotUser)
	assert.Equal(t, "mg-key", gotPass)
	assert.Equal(t, "Eventra <noreply@example.com>", gotFields["from"])
	assert.Equal(t, "Guest <guest@example.com>", gotFields["to"])
	assert.Equal(t, "Welcome", gotFields["subject"])
	assert.Equal(t, "<p>Hello</p>", gotFields["html"])
	assert.Equal(t, []byte("png-bytes"), gotAttachment)
}

func TestMailgunSendErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("invalid domain"))
	}))
	defer server.Close()

	m := newMailgunMailer(Settings{Provider: "mailgun", APIKey: "mg-key", Domain: "nope", FromEmail: "noreply@example.com"})
	m.apiBase = server.URL

	err := m.Send(context.Background(), &Message{To: "guest@example.com", Subject: "Hi"})
	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "mailgun", provErr.Provider)
	assert.Contains(t, err.Error(), "invalid domain")
}
