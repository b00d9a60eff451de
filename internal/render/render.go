package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/example/framestudio/internal/imagestate"
)

// Background is the colour visible wherever no layer covers the surface.
var Background = color.White

// Renderer owns the raster surface and paints layers onto it.
type Renderer struct {
	surface *image.RGBA
	Caption Caption
}

// New allocates a renderer with a transparent surface of size.
func New(size image.Point) *Renderer {
	return &Renderer{surface: image.NewRGBA(image.Rectangle{Max: size})}
}

// Surface returns the current surface. It is overwritten by the next Paint.
func (r *Renderer) Surface() *image.RGBA { return r.surface }

// Size returns the surface dimensions.
func (r *Renderer) Size() image.Point { return r.surface.Bounds().Size() }

// Resize reallocates the surface when size differs from the current one.
func (r *Renderer) Resize(size image.Point) bool {
	if r.Size() == size {
		return false
	}
	r.surface = image.NewRGBA(image.Rectangle{Max: size})
	return true
}

// Snapshot returns a copy of the surface.
func (r *Renderer) Snapshot() *image.RGBA {
	out := image.NewRGBA(r.surface.Bounds())
	copy(out.Pix, r.surface.Pix)
	return out
}

// Paint redraws the surface from st and the ready layers. Nil layers are
// skipped.
func (r *Renderer) Paint(st imagestate.ImageState, photo, frame image.Image) {
	Paint(r.surface, st, photo, frame, r.Caption)
}

// Paint composites the layers onto dst: white background, the transformed
// photo, then the frame stretched over the whole surface. When neither layer
// is ready the caption is centred on the surface instead.
func Paint(dst *image.RGBA, st imagestate.ImageState, photo, frame image.Image, caption Caption) {
	b := dst.Bounds()
	draw.Draw(dst, b, image.Transparent, image.Point{}, draw.Src)
	draw.Draw(dst, b, image.NewUniform(Background), image.Point{}, draw.Src)

	if photo != nil && !photo.Bounds().Empty() {
		s2d := PhotoTransform(st, photo.Bounds(), b.Size())
		xdraw.CatmullRom.Transform(dst, s2d, photo, photo.Bounds(), xdraw.Over, nil)
	}

	if frame != nil && !frame.Bounds().Empty() {
		fb := frame.Bounds()
		if fb.Size() == b.Size() {
			draw.Draw(dst, b, frame, fb.Min, draw.Over)
		} else {
			xdraw.CatmullRom.Scale(dst, b, frame, fb, xdraw.Over, nil)
		}
	}

	if photo == nil && frame == nil && caption.Text != "" {
		caption.draw(dst)
	}
}

// quarterTurn returns exact cosine and sine for multiples of 90 degrees.
func quarterTurn(deg int) (cos, sin float64, ok bool) {
	switch deg {
	case 0:
		return 1, 0, true
	case 90:
		return 0, 1, true
	case 180:
		return -1, 0, true
	case 270:
		return 0, -1, true
	}
	return 0, 0, false
}

// PhotoTransform maps photo pixels onto a surface of the given size. The photo
// centre lands at the surface centre plus the offset, scaled by zoom/100 and
// rotated clockwise around that point.
func PhotoTransform(st imagestate.ImageState, src image.Rectangle, surface image.Point) f64.Aff3 {
	deg := st.NormalizedRotation()
	cos, sin, ok := quarterTurn(deg)
	if !ok {
		rad := float64(deg) * math.Pi / 180
		cos, sin = math.Cos(rad), math.Sin(rad)
	}
	s := st.Scale()
	cx := float64(surface.X)/2 + st.OffsetX
	cy := float64(surface.Y)/2 + st.OffsetY
	px := float64(src.Min.X) + float64(src.Dx())/2
	py := float64(src.Min.Y) + float64(src.Dy())/2

	a, bb := s*cos, -s*sin
	d, e := s*sin, s*cos
	return f64.Aff3{
		a, bb, cx - a*px - bb*py,
		d, e, cy - d*px - e*py,
	}
}

// PhotoBounds returns the surface-space bounding box covered by the photo.
func PhotoBounds(st imagestate.ImageState, src image.Rectangle, surface image.Point) image.Rectangle {
	m := PhotoTransform(st, src, surface)
	corners := [4][2]float64{
		{float64(src.Min.X), float64(src.Min.Y)},
		{float64(src.Max.X), float64(src.Min.Y)},
		{float64(src.Min.X), float64(src.Max.Y)},
		{float64(src.Max.X), float64(src.Max.Y)},
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range corners {
		x := m[0]*c[0] + m[1]*c[1] + m[2]
		y := m[3]*c[0] + m[4]*c[1] + m[5]
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	return image.Rect(
		int(math.Round(minX)), int(math.Round(minY)),
		int(math.Round(maxX)), int(math.Round(maxY)),
	)
}
