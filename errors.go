package glc

import (
	"github.com/glc3d/glc/cube"
	"github.com/pkg/errors"
)

var (
	ErrInvalidResolution = cube.ErrInvalidResolution
	ErrInvalidThreshold  = errors.New("histogram threshold must be positive")
	ErrInvalidCubeSize   = errors.New("cube size must be positive")
	ErrImageSize         = errors.New("pixel data does not match image dimensions")
	ErrSurfaceNotFound   = errors.New("surface not found")
	ErrNoRenderTarget    = errors.New("no render target")
	ErrClosed            = errors.New("glc is closed")
	ErrSampleCount       = errors.New("unsupported sample count")
)
