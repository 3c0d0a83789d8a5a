package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"net/http"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	// MaxDimension bounds the longest edge of a stored cover image.
	MaxDimension = 2048
	// WebPQuality is the fixed quality requested from the encoder.
	WebPQuality = 80
)

// ErrInvalidImage marks payloads that are not a decodable image in a
// supported format. Callers treat it as client error, not store failure.
var ErrInvalidImage = errors.New("invalid image")

// Transcode decodes an uploaded image, scales it down to MaxDimension if
// needed, and re-encodes it as webp. This is the "automatic format/quality
// transformation" the asset host contract requires.
func Transcode(content []byte) ([]byte, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}

	detected := http.DetectContentType(content)
	if !isAllowedImageMIME(detected) {
		return nil, fmt.Errorf("%w: unsupported type %s", ErrInvalidImage, detected)
	}

	decoded, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	decoded = boundDimensions(decoded)

	var buf bytes.Buffer
	if err := webp.Encode(&buf, decoded, &webp.Options{Quality: WebPQuality}); err != nil {
		return nil, fmt.Errorf("encoding webp: %w", err)
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(mime string) bool {
	switch mime {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	}
	return false
}

// boundDimensions scales the image so its longest edge is at most MaxDimension.
func boundDimensions(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= MaxDimension && h <= MaxDimension {
		return src
	}

	scale := float64(MaxDimension) / float64(w)
	if h > w {
		scale = float64(MaxDimension) / float64(h)
	}
	dstW := int(float64(w) * scale)
	dstH := int(float64(h) * scale)
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}
