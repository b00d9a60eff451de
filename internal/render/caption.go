package render

import (
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// DefaultCaptionSize is the point size used when a caption sets none.
const DefaultCaptionSize = 48

// Caption is the informational text shown while no layer is ready.
type Caption struct {
	Text  string
	Color color.Color
	Size  float64
}

// DefaultCaption returns the placeholder used by the editor and CLI.
func DefaultCaption() Caption {
	return Caption{Text: "Add a photo to start", Color: color.RGBA{0x64, 0x74, 0x8b, 0xff}, Size: DefaultCaptionSize}
}

var (
	goregularOnce sync.Once
	goregularFont *opentype.Font
	goregularErr  error
	captionFaces  sync.Map // map[float64]font.Face
)

func faceForSize(size float64) (font.Face, error) {
	if size <= 0 {
		size = DefaultCaptionSize
	}
	if face, ok := captionFaces.Load(size); ok {
		return face.(font.Face), nil
	}
	goregularOnce.Do(func() {
		goregularFont, goregularErr = opentype.Parse(goregular.TTF)
	})
	if goregularErr != nil {
		return nil, goregularErr
	}
	face, err := opentype.NewFace(goregularFont, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, err
	}
	captionFaces.Store(size, face)
	return face, nil
}

// MeasureText returns the advance width and line height of text at size.
func MeasureText(text string, size float64) (width, height int, err error) {
	face, err := faceForSize(size)
	if err != nil {
		return 0, 0, err
	}
	m := face.Metrics()
	return font.MeasureString(face, text).Ceil(), m.Ascent.Ceil() + m.Descent.Ceil(), nil
}

func (c Caption) draw(dst *image.RGBA) {
	face, err := faceForSize(c.Size)
	if err != nil {
		return
	}
	col := c.Color
	if col == nil {
		col = color.Black
	}
	b := dst.Bounds()
	m := face.Metrics()
	w := font.MeasureString(face, c.Text)
	h := m.Ascent + m.Descent
	x := fixed.I(b.Min.X+b.Dx()/2) - w/2
	y := fixed.I(b.Min.Y+b.Dy()/2) - h/2 + m.Ascent
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(col), Face: face, Dot: fixed.Point26_6{X: x, Y: y}}
	d.DrawString(c.Text)
}
