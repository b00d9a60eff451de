// Package clipboard moves exported composites and pasted photos through the
// system clipboard.
package clipboard

import (
	"errors"
	"image"
	"strings"

	"github.com/example/framestudio/internal/imagestate"
	"github.com/example/framestudio/internal/render"
)

var (
	// ErrNoImage is returned when the clipboard holds neither image data nor
	// a photo reference.
	ErrNoImage = errors.New("clipboard does not contain image data")
	// ErrUnsupported is returned on platforms without clipboard access.
	ErrUnsupported = errors.New("clipboard is not supported on this platform")

	errNoText = errors.New("clipboard does not contain text data")
)

// WriteImage encodes img as PNG and publishes it to the clipboard.
func WriteImage(img image.Image) error {
	data, err := render.PNGBytes(img)
	if err != nil {
		return err
	}
	return WritePNG(data)
}

// ReadPhoto returns a photo source for whatever is on the clipboard: image
// bytes when present, otherwise text treated as a reference (path, URL or
// data URI).
func ReadPhoto() (imagestate.Source, error) {
	return photoFrom(ReadImageData, ReadText)
}

func photoFrom(readImage func() ([]byte, error), readText func() (string, error)) (imagestate.Source, error) {
	data, err := readImage()
	if err == nil {
		return imagestate.Source{Name: "clipboard", Data: data}, nil
	}
	if !errors.Is(err, ErrNoImage) {
		return imagestate.Source{}, err
	}
	text, terr := readText()
	ref := strings.TrimSpace(text)
	if terr != nil || ref == "" || strings.ContainsAny(ref, "\r\n") {
		return imagestate.Source{}, ErrNoImage
	}
	return imagestate.Source{Ref: ref}, nil
}
