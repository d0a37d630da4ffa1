package glc

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantize(t *testing.T) {
	img := &Image{Width: 2, Height: 2, Pixels: []mgl32.Vec4{
		{1, 0, 0.5, 1},
		{2, -1, 0.999, 0},
		{float32(math.NaN()), 0.2, 0.4, 0.6},
		{0, 0, 0, 1},
	}}

	rgba := Quantize(img)
	require.Equal(t, image.Rect(0, 0, 2, 2), rgba.Bounds())

	assert.Equal(t, color.RGBA{255, 0, 127, 255}, rgba.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{255, 0, 254, 0}, rgba.RGBAAt(1, 0))
	got := rgba.RGBAAt(0, 1)
	assert.Equal(t, uint8(51), got.G)
	assert.Equal(t, uint8(102), got.B)
	assert.Equal(t, uint8(153), got.A)
}

func TestDrawToSurface_KeepsAspect(t *testing.T) {
	img := &Image{Width: 4, Height: 2, Pixels: make([]mgl32.Vec4, 8)}
	for i := range img.Pixels {
		img.Pixels[i] = mgl32.Vec4{1, 1, 1, 1}
	}
	surface := NewImageSurface(10)

	require.NoError(t, DrawToSurface(img, surface))

	require.Equal(t, 2, surface.Len())
	assert.Equal(t, image.Rect(0, 0, 4, 2), surface.Frames[0].Bounds())
	assert.Equal(t, image.Rect(0, 0, 10, 5), surface.Last().Bounds())
	assert.GreaterOrEqual(t, surface.Last().RGBAAt(5, 2).R, uint8(254))
}

func TestDrawToSurface_HeightTruncates(t *testing.T) {
	img := &Image{Width: 3, Height: 2, Pixels: make([]mgl32.Vec4, 6)}
	surface := NewImageSurface(10)

	require.NoError(t, DrawToSurface(img, surface))
	assert.Equal(t, image.Rect(0, 0, 10, 6), surface.Last().Bounds())
}

func TestDrawToSurface_ZeroWidthKeepsSize(t *testing.T) {
	img := &Image{Width: 3, Height: 1, Pixels: make([]mgl32.Vec4, 3)}
	surface := NewImageSurface(0)

	require.NoError(t, DrawToSurface(img, surface))
	assert.Equal(t, image.Rect(0, 0, 3, 1), surface.Last().Bounds())
}

type failingSurface struct{}

func (failingSurface) Width() int                 { return 1 }
func (failingSurface) Draw(img image.Image) error { return errors.New("context lost") }

func TestDrawToSurface_Error(t *testing.T) {
	img := &Image{Width: 1, Height: 1, Pixels: []mgl32.Vec4{{1, 1, 1, 1}}}
	err := DrawToSurface(img, failingSurface{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context lost")
}

func TestSurfaces_Lookup(t *testing.T) {
	_, err := (&Surfaces{}).Lookup("x")
	assert.True(t, errors.Is(err, ErrSurfaceNotFound))

	s := NewImageSurface(1)
	host := NewMemoryHost().AddSurface("x", s)
	got, err := (&Surfaces{Env: host}).Lookup("x")
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = host.RenderTarget("x")
	assert.True(t, errors.Is(err, ErrSurfaceNotFound))
}
