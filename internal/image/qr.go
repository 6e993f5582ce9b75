package imagepkg

import (
	"fmt"
	"image/color"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	MinQRSize = 64
	MaxQRSize = 2048
)

// LinkQR encodes link as a size×size PNG QR code drawn in the banner's
// colors so it sits well next to the profile art.
func LinkQR(link string, size int) ([]byte, error) {
	if size < MinQRSize || size > MaxQRSize {
		return nil, fmt.Errorf("qr size %d out of range [%d, %d]", size, MinQRSize, MaxQRSize)
	}
	q, err := qrcode.New(link, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("encoding qr: %w", err)
	}
	q.ForegroundColor = bannerBackground
	q.BackgroundColor = color.White
	return q.PNG(size)
}
