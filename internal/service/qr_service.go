package service

import (
	"fmt"
	"os"
	"path/filepath"

	qrcode "github.com/skip2/go-qrcode"
)

// QRService renders session tokens to PNG files under the uploads directory
// and hands back the URL they are served from. Rendering is decorative from
// the allocation core's point of view: a failed render is logged by the
// caller and the session transition stands.
type QRService struct {
	dir     string
	baseURL string
}

func NewQRService(dir, baseURL string) *QRService {
	return &QRService{dir: dir, baseURL: baseURL}
}

func (s *QRService) Render(sessionID int, token string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating QR directory: %w", err)
	}
	name := fmt.Sprintf("qr-%d.png", sessionID)
	path := filepath.Join(s.dir, name)
	if err := qrcode.WriteFile(token, qrcode.Medium, 256, path); err != nil {
		return "", fmt.Errorf("error rendering QR code for session %d: %w", sessionID, err)
	}
	return s.baseURL + "/" + name, nil
}
