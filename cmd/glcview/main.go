// Command glcview shows the color cube histogram of an image in a desktop
// window. Drag to orbit, scroll or use up/down to zoom, left/right rotate the
// colors around the green axis. With -out the rotated image is written to a
// PNG file.
package main

import (
	"flag"
	"os"

	"github.com/glc3d/glc"
	"github.com/glc3d/glc/render/gpu"
	"github.com/pkg/errors"
)

const (
	dragSpeed     = 0.01
	zoomStep      = 1.0
	rotationStep  = 15.0
	defaultWidth  = 1280
	defaultHeight = 720
)

type options struct {
	configPath string
	imagePath  string
	outPath    string
	outWidth   int
	width      int
	height     int
	debug      bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "YAML config file")
	flag.StringVar(&opts.imagePath, "image", "", "image to analyze (png, jpeg, bmp, webp)")
	flag.StringVar(&opts.outPath, "out", "", "PNG file receiving the color rotated image")
	flag.IntVar(&opts.outWidth, "out-width", 512, "width the rotated image is scaled to")
	flag.IntVar(&opts.width, "width", defaultWidth, "window width")
	flag.IntVar(&opts.height, "height", defaultHeight, "window height")
	flag.BoolVar(&opts.debug, "debug", false, "debug logging")
	flag.Parse()

	logger := glc.NewDefaultLogger("glcview", opts.debug)
	if err := run(opts, logger); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func run(opts options, logger glc.Logger) error {
	cfg := glc.DefaultConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = glc.LoadConfig(opts.configPath); err != nil {
			return err
		}
	}
	cfg.Debug = cfg.Debug || opts.debug

	win, err := openWindow(opts.width, opts.height, "glc")
	if err != nil {
		return err
	}
	defer win.close()

	fw, fh := win.framebufferSize()
	target, err := gpu.NewSurfaceTarget(win.surfaceDescriptor(), fw, fh, cfg.SampleCount)
	if err != nil {
		return errors.Wrap(err, "open render target")
	}

	host := &windowHost{target: target}
	if opts.outPath != "" {
		host.surface = &fileSurface{path: opts.outPath, width: opts.outWidth}
	}

	g, err := glc.New(host, windowTargetID, cfg)
	if err != nil {
		target.Release()
		return err
	}
	defer g.Close()

	if opts.outPath != "" {
		g.SetOutputCanvas(pngSurfaceID)
	}
	if opts.imagePath != "" {
		w, h, pix, err := loadRGBA(opts.imagePath)
		if err != nil {
			return err
		}
		if err := g.SetInputImage(w, h, pix); err != nil {
			return err
		}
		logger.Infof("loaded %s (%dx%d)", opts.imagePath, w, h)
	}

	var (
		input    Input
		rotation float32
	)
	input.attach(win)

	for !win.shouldClose() {
		input.poll(win)
		if input.Pressed[KeyEscape] {
			break
		}

		if input.Resized {
			if w, h := win.framebufferSize(); w > 0 && h > 0 {
				if err := g.Resize(w, h); err != nil {
					return err
				}
			}
		}
		if w, h := win.framebufferSize(); w == 0 || h == 0 {
			// minimized
			continue
		}

		zoom := -input.Scroll * zoomStep
		if input.JustPressed[KeyUp] {
			zoom -= zoomStep
		}
		if input.JustPressed[KeyDown] {
			zoom += zoomStep
		}
		if input.MouseDeltaX != 0 || input.MouseDeltaY != 0 || zoom != 0 {
			g.MoveCamera(float32(input.MouseDeltaX*dragSpeed), float32(input.MouseDeltaY*dragSpeed), float32(zoom))
		}

		if input.JustPressed[KeyLeft] || input.JustPressed[KeyRight] {
			if input.JustPressed[KeyLeft] {
				rotation -= rotationStep
			}
			if input.JustPressed[KeyRight] {
				rotation += rotationStep
			}
			g.RotateColor(rotation)
			logger.Debugf("color rotation %.0f degrees", rotation)
		}

		if err := g.Update(); err != nil {
			return err
		}
	}

	stats := g.Stats()
	logger.Infof("last frame %d: %d drawn, %d skipped, %d failed", stats.Frame, stats.Drawn, stats.Skipped, stats.Failed)
	return nil
}
