package bitmap

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxPixels bounds the area of a decoded image. Two RGBA buffers of this
// size are alive while an image is normalised.
const MaxPixels = 48 << 20

var (
	// ErrEmpty is returned when there are no bytes to decode.
	ErrEmpty = errors.New("empty image data")
	// ErrTooLarge is returned for images whose declared area exceeds MaxPixels.
	ErrTooLarge = errors.New("image too large")
)

// Bitmap is a decoded image ready to be drawn.
type Bitmap struct {
	Image  *image.RGBA
	Format string
}

// Size returns the native pixel dimensions.
func (b *Bitmap) Size() image.Point {
	if b == nil || b.Image == nil {
		return image.Point{}
	}
	return b.Image.Bounds().Size()
}

// Decode parses data in any registered format and normalises it to an RGBA
// image whose bounds start at the origin.
func Decode(data []byte) (*Bitmap, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("decode %s %dx%d: %w", format, cfg.Width, cfg.Height, ErrTooLarge)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("decode %s: zero sized image", format)
	}
	return &Bitmap{Image: ToRGBA(img), Format: format}, nil
}

// ToRGBA copies img into a new RGBA image anchored at (0,0).
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) {
		return rgba
	}
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
