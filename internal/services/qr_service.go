package services

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"

	"github.com/skip2/go-qrcode"
)

// QRService renders token secrets as PNG QR codes for member apps that do not
// draw their own.
type QRService struct {
	size int
}

func NewQRService(size int) *QRService {
	if size <= 0 {
		size = 256
	}
	return &QRService{size: size}
}

// Render returns a base64-encoded PNG of content.
func (s *QRService) Render(content string) (string, error) {
	qr, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("build qr code: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(s.size)); err != nil {
		return "", fmt.Errorf("encode qr png: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
