package hub

import (
	"encoding/base64"
	"fmt"

	"github.com/desertthunder/ytdj/internal/shared"
	"github.com/skip2/go-qrcode"
)

const qrSize = 256

// QREncoder renders a URL as a base64-encoded PNG.
type QREncoder func(url string) (string, error)

// EncodeQR renders url at medium error correction.
func EncodeQR(url string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("%w: url", shared.ErrMissingArgument)
	}
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		return "", fmt.Errorf("%w: qr: %v", shared.ErrInvalidInput, err)
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
