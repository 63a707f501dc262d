package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeQRPayload returns a payload passing the PNG signature and size checks.
func fakeQRPayload(size int) []byte {
	data := make([]byte, size)
	copy(data, pngMagic)
	return data
}

func TestParseAttachmentDescriptorRemote(t *testing.T) {
	d, err := ParseAttachmentDescriptor("https://cdn.example.com/files/1700000000_a1b2c3_agenda.pdf")
	require.NoError(t, err)
	assert.Equal(t, AttachmentRemote, d.Kind)
	assert.Equal(t, "https://cdn.example.com/files/1700000000_a1b2c3_agenda.pdf", d.URL)
}

func TestParseAttachmentDescriptorGenerateQR(t *testing.T) {
	d, err := ParseAttachmentDescriptor("QR:participant-123")
	require.NoError(t, err)
	assert.Equal(t, AttachmentGenerateQR, d.Kind)
	assert.Equal(t, "participant-123", d.ParticipantID)

	_, err = ParseAttachmentDescriptor("QR:")
	require.Error(t, err)
}

func TestParseAttachmentDescriptorInlineQR(t *testing.T) {
	payload := fakeQRPayload(4000)
	raw := fmt.Sprintf("QRDATA:participant-123:data:image/png;base64,%s",
		base64.StdEncoding.EncodeToString(payload))

	d, err := ParseAttachmentDescriptor(raw)
	require.NoError(t, err)
	assert.Equal(t, AttachmentInlineQR, d.Kind)
	assert.Equal(t, "participant-123", d.ParticipantID)
	assert.Equal(t, payload, d.Data)
}

func TestParseAttachmentDescriptorMalformed(t *testing.T) {
	for _, raw := range []string{
		"QRDATA:participant-123",
		"QRDATA::data:image/png;base64,AAAA",
		"QRDATA:p:data:image/jpeg;base64,AAAA",
		"QRDATA:p:data:image/png;base64,not base64!!!",
		"not a url at all",
	} {
		_, err := ParseAttachmentDescriptor(raw)
		var attErr *AttachmentError
		require.ErrorAs(t, err, &attErr, "descriptor %q should be rejected", raw)
	}
}

func TestValidateQRPayload(t *testing.T) {
	assert.NoError(t, validateQRPayload(fakeQRPayload(3500)))

	// Wrong signature
	bad := fakeQRPayload(3500)
	bad[0] = 0x00
	assert.Error(t, validateQRPayload(bad))

	// Undersized, likely a degenerate render
	assert.Error(t, validateQRPayload(fakeQRPayload(200)))
}

func TestAssembleDropsFailingDescriptors(t *testing.T) {
	service := NewAttachmentService()

	small := base64.StdEncoding.EncodeToString(fakeQRPayload(100))
	good := base64.StdEncoding.EncodeToString(fakeQRPayload(4000))

	attachments := service.Assemble(context.Background(), []string{
		"QRDATA:p1:data:image/png;base64," + good,
		"QRDATA:p2:data:image/png;base64," + small,
		"garbage descriptor",
	})

	require.Len(t, attachments, 1)
	assert.Equal(t, "qr_p1.png", attachments[0].Filename)
	assert.Equal(t, "image/png", attachments[0].ContentType)
}

func TestFetchRemoteDerivesFilename(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf; charset=binary")
		w.Write([]byte("%PDF-1.4 fake"))
	}))
	defer server.Close()

	service := NewAttachmentService()
	attachments := service.Assemble(context.Background(), []string{
		server.URL + "/files/1700000000_a1b2c3_agenda.pdf",
	})

	require.Len(t, attachments, 1)
	assert.Equal(t, "agenda.pdf", attachments[0].Filename)
	assert.Equal(t, "application/pdf", attachments[0].ContentType)
	assert.Equal(t, []byte("%PDF-1.4 fake"), attachments[0].Data)
}

func TestFetchRemotePrefersContentDisposition(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Disposition", `attachment; filename="badge.png"`)
		w.Write([]byte("png"))
	}))
	defer server.Close()

	service := NewAttachmentService()
	attachments := service.Assemble(context.Background(), []string{server.URL + "/x"})

	require.Len(t, attachments, 1)
	assert.Equal(t, "badge.png", attachments[0].Filename)
}

func TestFetchRemoteNonOKStatusIsDropped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	service := NewAttachmentService()
	attachments := service.Assemble(context.Background(), []string{server.URL + "/gone.pdf"})
	assert.Empty(t, attachments)
}

func TestGenerateQRFromAPI(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "image/png")
		w.Write(fakeQRPayload(4000))
	}))
	defer server.Close()

	t.Setenv("QR_API_URL", server.URL)
	service := NewAttachmentService()

	attachments := service.Assemble(context.Background(), []string{"QR:participant-123"})
	require.Len(t, attachments, 1)
	assert.Equal(t, "qr_participant-123.png", attachments[0].Filename)
	assert.Contains(t, gotQuery, "data=participant-123")
}

func TestGenerateQRRejectsDegenerateImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(fakeQRPayload(50))
	}))
	defer server.Close()

	t.Setenv("QR_API_URL", server.URL)
	service := NewAttachmentService()

	attachments := service.Assemble(context.Background(), []string{"QR:participant-123"})
	assert.Empty(t, attachments)
}
