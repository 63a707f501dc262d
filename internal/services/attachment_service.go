package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eventra/event-registration-backend/internal/config"
	"github.com/eventra/event-registration-backend/internal/services/mailer"
)

// Attachment descriptor kinds, parsed once at the boundary from the wire
// string forms: a bare URL, "QR:<participantID>", or
// "QRDATA:<participantID>:data:image/png;base64,<payload>".
type AttachmentKind int

const (
	AttachmentRemote AttachmentKind = iota
	AttachmentGenerateQR
	AttachmentInlineQR
)

// AttachmentDescriptor is the parsed form of a descriptor string.
type AttachmentDescriptor struct {
	Kind          AttachmentKind
	URL           string
	ParticipantID string
	Data          []byte
}

// AttachmentError reports a fetch, generate or decode failure for a single
// descriptor. It is recovered inside the assembler and never fails a send.
type AttachmentError struct {
	Descriptor string
	Err        error
}

func (e *AttachmentError) Error() string {
	return fmt.Sprintf("attachment %q: %v", e.Descriptor, e.Err)
}

func (e *AttachmentError) Unwrap() error {
	return e.Err
}

var (
	pngMagic = []byte{0x89, 0x50, 0x4E, 0x47}

	// A real QR PNG at the sizes we request is well above this; error pages
	// and degenerate renders come in far smaller.
	minQRPayloadSize = 3000

	// Uploaded files carry a "<timestamp>_<random>_" prefix on their stored
	// names; strip it when deriving a user-facing filename.
	uploadPrefixPattern = regexp.MustCompile(`^\d+_[A-Za-z0-9]+_`)

	inlineQRPattern = regexp.MustCompile(`^data:image/png;base64,(.+)$`)
)

// ParseAttachmentDescriptor parses one descriptor string into its tagged form.
func ParseAttachmentDescriptor(raw string) (*AttachmentDescriptor, error) {
	switch {
	case strings.HasPrefix(raw, "QRDATA:"):
		rest := strings.TrimPrefix(raw, "QRDATA:")
		idx := strings.Index(rest, ":")
		if idx <= 0 {
			return nil, &AttachmentError{Descriptor: raw, Err: fmt.Errorf("malformed QRDATA descriptor")}
		}
		participantID := rest[:idx]
		match := inlineQRPattern.FindStringSubmatch(rest[idx+1:])
		if match == nil {
			return nil, &AttachmentError{Descriptor: raw, Err: fmt.Errorf("QRDATA payload is not a PNG data URL")}
		}
		data, err := base64.StdEncoding.DecodeString(match[1])
		if err != nil {
			return nil, &AttachmentError{Descriptor: raw, Err: fmt.Errorf("failed to decode base64 payload: %w", err)}
		}
		return &AttachmentDescriptor{Kind: AttachmentInlineQR, ParticipantID: participantID, Data: data}, nil

	case strings.HasPrefix(raw, "QR:"):
		participantID := strings.TrimPrefix(raw, "QR:")
		if participantID == "" {
			return nil, &AttachmentError{Descriptor: raw, Err: fmt.Errorf("QR descriptor has no participant id")}
		}
		return &AttachmentDescriptor{Kind: AttachmentGenerateQR, ParticipantID: participantID}, nil

	default:
		if _, err := url.ParseRequestURI(raw); err != nil {
			return nil, &AttachmentError{Descriptor: raw, Err: fmt.Errorf("not a valid attachment URL: %w", err)}
		}
		return &AttachmentDescriptor{Kind: AttachmentRemote, URL: raw}, nil
	}
}

// AttachmentService turns attachment descriptors into validated binary
// payloads for one recipient.
type AttachmentService struct {
	client   *http.Client
	qrConfig *config.QRConfig
}

func NewAttachmentService() *AttachmentService {
	return &AttachmentService{
		client:   &http.Client{Timeout: 30 * time.Second},
		qrConfig: config.GetQRConfig(),
	}
}

// Assemble resolves every descriptor to a named binary payload. A failing
// descriptor is dropped with a logged warning; the remaining send proceeds.
func (s *AttachmentService) Assemble(ctx context.Context, descriptors []string) []mailer.Attachment {
	attachments := make([]mailer.Attachment, 0, len(descriptors))
	for _, raw := range descriptors {
		attachment, err := s.resolve(ctx, raw)
		if err != nil {
			logrus.Warnf("Skipping attachment: %v", err)
			continue
		}
		attachments = append(attachments, *attachment)
	}
	return attachments
}

func (s *AttachmentService) resolve(ctx context.Context, raw string) (*mailer.Attachment, error) {
	descriptor, err := ParseAttachmentDescriptor(raw)
	if err != nil {
		return nil, err
	}

	switch descriptor.Kind {
	case AttachmentRemote:
		return s.fetchRemote(ctx, descriptor.URL)
	case AttachmentGenerateQR:
		return s.generateQR(ctx, descriptor.ParticipantID)
	case AttachmentInlineQR:
		if err := validateQRPayload(descriptor.Data); err != nil {
			return nil, &AttachmentError{Descriptor: raw, Err: err}
		}
		return &mailer.Attachment{
			Filename:    fmt.Sprintf("qr_%s.png", descriptor.ParticipantID),
			ContentType: "image/png",
			Data:        descriptor.Data,
		}, nil
	default:
		return nil, &AttachmentError{Descriptor: raw, Err: fmt.Errorf("unknown descriptor kind")}
	}
}

// fetchRemote downloads an attachment over the network. Content type comes
// from the response header when present; the filename from a
// Content-Disposition header, else the URL path.
func (s *AttachmentService) fetchRemote(ctx context.Context, fileURL string) (*mailer.Attachment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, &AttachmentError{Descriptor: fileURL, Err: err}
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &AttachmentError{Descriptor: fileURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &AttachmentError{Descriptor: fileURL, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &AttachmentError{Descriptor: fileURL, Err: err}
	}

	contentType := resp.Header.Get("Content-Type")
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = strings.TrimSpace(contentType[:idx])
	}

	return &mailer.Attachment{
		Filename:    deriveFilename(fileURL, resp.Header.Get("Content-Disposition"), contentType),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// generateQR synthesizes a QR image encoding the participant id via the
// external QR API and expects a PNG back.
func (s *AttachmentService) generateQR(ctx context.Context, participantID string) (*mailer.Attachment, error) {
	descriptor := "QR:" + participantID

	endpoint := fmt.Sprintf("%s?size=%s&data=%s",
		s.qrConfig.BaseURL, s.qrConfig.Size, url.QueryEscape(participantID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &AttachmentError{Descriptor: descriptor, Err: err}
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &AttachmentError{Descriptor: descriptor, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &AttachmentError{Descriptor: descriptor, Err: fmt.Errorf("QR API returned %s", resp.Status)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &AttachmentError{Descriptor: descriptor, Err: err}
	}
	if err := validateQRPayload(data); err != nil {
		return nil, &AttachmentError{Descriptor: descriptor, Err: err}
	}

	return &mailer.Attachment{
		Filename:    fmt.Sprintf("qr_%s.png", participantID),
		ContentType: "image/png",
		Data:        data,
	}, nil
}

// validateQRPayload enforces the PNG signature and minimum-size checks on
// any QR-sourced payload, generated or decoded.
func validateQRPayload(data []byte) error {
	if len(data) < len(pngMagic) || !bytes.Equal(data[:len(pngMagic)], pngMagic) {
		return fmt.Errorf("payload does not start with the PNG signature")
	}
	if len(data) < minQRPayloadSize {
		return fmt.Errorf("payload too small (%d bytes), likely a degenerate image", len(data))
	}
	return nil
}

// deriveFilename picks a filename from the Content-Disposition header, else
// the URL path (upload prefix stripped), else a generic fallback with an
// extension inferred from the content type.
func deriveFilename(fileURL, contentDisposition, contentType string) string {
	if contentDisposition != "" {
		if _, params, err := mime.ParseMediaType(contentDisposition); err == nil {
			if name := params["filename"]; name != "" {
				return name
			}
		}
	}

	if parsed, err := url.Parse(fileURL); err == nil {
		base := path.Base(parsed.Path)
		if base != "" && base != "." && base != "/" {
			return uploadPrefixPattern.ReplaceAllString(base, "")
		}
	}

	switch contentType {
	case "image/png":
		return "attachment.png"
	case "image/jpeg":
		return "attachment.jpg"
	case "image/gif":
		return "attachment.gif"
	case "application/pdf":
		return "attachment.pdf"
	default:
		return "attachment.bin"
	}
}
