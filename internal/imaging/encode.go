package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// DefaultTransportSize bounds the longest edge of images sent for critique.
const DefaultTransportSize = 2048

// EncodedImage is a PNG ready to send over the wire.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Data        []byte `json:"-"`
	ImageBase64 string `json:"image_base64,omitempty"`
	MimeType    string `json:"mime_type"`
}

// EncodeForTransport encodes img as PNG, first shrinking it to fit within
// maxEdge x maxEdge when it is larger. maxEdge <= 0 disables resizing.
func EncodeForTransport(img image.Image, maxEdge int) (*EncodedImage, error) {
	b := img.Bounds()
	if maxEdge > 0 && (b.Dx() > maxEdge || b.Dy() > maxEdge) {
		img = imaging.Fit(img, maxEdge, maxEdge, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &EncodedImage{
		Width:    img.Bounds().Dx(),
		Height:   img.Bounds().Dy(),
		Data:     buf.Bytes(),
		MimeType: "image/png",
	}, nil
}

// WithBase64 fills ImageBase64 from Data for JSON responses.
func (e *EncodedImage) WithBase64() *EncodedImage {
	e.ImageBase64 = base64.StdEncoding.EncodeToString(e.Data)
	return e
}
