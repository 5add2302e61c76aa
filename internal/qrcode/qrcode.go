// Package qrcode implements the QR encoder port.
package qrcode

import (
	"fmt"

	qr "github.com/skip2/go-qrcode"
)

const imageSize = 512

// Encoder renders text as a PNG QR code.
type Encoder struct{}

// NewEncoder creates an Encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// EncodePNG implements domain.QREncoder.
func (e *Encoder) EncodePNG(text string) ([]byte, error) {
	png, err := qr.Encode(text, qr.Medium, imageSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
