package config

import (
	"os"
)

// QRConfig contains the external QR code generation API configuration
type QRConfig struct {
	Name    string `json:"name"`
	BaseURL string `json:"base_url"`
	Size    string `json:"size"`
}

// GetQRConfig returns the QR generation API configuration
func GetQRConfig() *QRConfig {
	baseURL := os.Getenv("QR_API_URL")
	if baseURL == "" {
		baseURL = "https://api.qrserver.com/v1/create-qr-code/"
	}

	size := os.Getenv("QR_IMAGE_SIZE")
	if size == "" {
		size = "300x300"
	}

	return &QRConfig{
		Name:    "QRServer",
		BaseURL: baseURL,
		Size:    size,
	}
}
