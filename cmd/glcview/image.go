package main

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// loadRGBA decodes an image file into row-major 8-bit RGBA.
func loadRGBA(path string) (width, height uint32, pix []byte, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return 0, 0, nil, errors.Wrapf(err, "decode %s", path)
	}

	b := src.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)

	return uint32(b.Dx()), uint32(b.Dy()), rgba.Pix, nil
}
