package glc

import (
	"image"
	"math"
	"sync"

	"github.com/anthonynsimon/bild/transform"
	"github.com/glc3d/glc/render/gpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// Surface is a 2D destination for the transformed image, such as a canvas.
type Surface interface {
	// Width is the width the surface wants images scaled to. Zero keeps the source size.
	Width() int
	Draw(img image.Image) error
}

// HostEnvironment resolves the surfaces a Glc draws into by id.
type HostEnvironment interface {
	RenderTarget(id string) (gpu.Target, error)
	Surface(id string) (Surface, error)
}

// Surfaces is the resource systems use to look up 2D surfaces.
type Surfaces struct {
	Env HostEnvironment
}

func (s *Surfaces) Lookup(id string) (Surface, error) {
	if s.Env == nil {
		return nil, errors.Wrapf(ErrSurfaceNotFound, "%q: no host environment", id)
	}
	return s.Env.Surface(id)
}

// ImageSurface is an in-memory Surface. It keeps every drawn frame.
type ImageSurface struct {
	mu          sync.Mutex
	TargetWidth int
	Frames      []*image.RGBA
}

func NewImageSurface(targetWidth int) *ImageSurface {
	return &ImageSurface{TargetWidth: targetWidth}
}

func (s *ImageSurface) Width() int {
	return s.TargetWidth
}

func (s *ImageSurface) Draw(img image.Image) error {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)

	s.mu.Lock()
	s.Frames = append(s.Frames, dst)
	s.mu.Unlock()
	return nil
}

// Last returns the most recent frame, or nil.
func (s *ImageSurface) Last() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Frames) == 0 {
		return nil
	}
	return s.Frames[len(s.Frames)-1]
}

func (s *ImageSurface) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Frames)
}

// Quantize converts float pixels to 8-bit RGBA, clamping each channel to [0,1]
// and flooring x*255.
func Quantize(img *Image) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, int(img.Width), int(img.Height)))
	for i, p := range img.Pixels {
		c := colorful.Color{R: float64(p[0]), G: float64(p[1]), B: float64(p[2])}.Clamped()
		a := mgl32.Clamp(p[3], 0, 1)
		if math.IsNaN(float64(a)) {
			a = 0
		}
		o := i * 4
		dst.Pix[o+0] = to8(c.R)
		dst.Pix[o+1] = to8(c.G)
		dst.Pix[o+2] = to8(c.B)
		dst.Pix[o+3] = to8(float64(a))
	}
	return dst
}

func to8(v float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}
	return uint8(math.Floor(v * 255))
}

// DrawToSurface writes img to s, then writes it again scaled to the surface
// width with the aspect ratio kept.
func DrawToSurface(img *Image, s Surface) error {
	src := Quantize(img)
	if err := s.Draw(src); err != nil {
		return errors.Wrap(err, "draw image")
	}

	w := s.Width()
	if w <= 0 {
		w = int(img.Width)
	}
	ratio := float64(img.Width) / float64(img.Height)
	h := int(float64(w) / ratio)
	if h < 1 {
		h = 1
	}
	if err := s.Draw(transform.Resize(src, w, h, transform.Linear)); err != nil {
		return errors.Wrap(err, "draw scaled image")
	}
	return nil
}
