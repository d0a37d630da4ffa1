package main

import (
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/glc3d/glc"
	"github.com/glc3d/glc/render/gpu"
	"github.com/pkg/errors"
)

const (
	windowTargetID = "window"
	pngSurfaceID   = "png"
)

// windowHost serves the window as the 3D render target and a PNG file as the
// 2D output surface.
type windowHost struct {
	target  gpu.Target
	surface *fileSurface
}

func (h *windowHost) RenderTarget(id string) (gpu.Target, error) {
	if id != windowTargetID || h.target == nil {
		return nil, errors.Wrapf(glc.ErrSurfaceNotFound, "render target %q", id)
	}
	return h.target, nil
}

func (h *windowHost) Surface(id string) (glc.Surface, error) {
	if id != pngSurfaceID || h.surface == nil {
		return nil, errors.Wrapf(glc.ErrSurfaceNotFound, "surface %q", id)
	}
	return h.surface, nil
}

// fileSurface writes every image drawn to it to a PNG file, replacing the
// previous one.
type fileSurface struct {
	path  string
	width int
}

func (s *fileSurface) Width() int {
	return s.width
}

func (s *fileSurface) Draw(img image.Image) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".glc-*.png")
	if err != nil {
		return errors.Wrap(err, "create output file")
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "encode %s", s.path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "write %s", s.path)
	}
	return errors.Wrapf(os.Rename(tmp.Name(), s.path), "replace %s", s.path)
}
