package gpu

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pkg/errors"
)

const DefaultDepthFormat = wgpu.TextureFormatDepth24Plus

// SurfaceTarget renders into a window surface. With a sample count above one
// it renders into a multisampled texture resolved onto the surface.
type SurfaceTarget struct {
	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	config   *wgpu.SurfaceConfiguration
	wrapped  *WgpuDevice
	samples  uint32

	depthTexture *wgpu.Texture
	depthView    *wgpu.TextureView
	msaaTexture  *wgpu.Texture
	msaaView     *wgpu.TextureView

	// per frame
	frameTexture *wgpu.Texture
	frameView    *wgpu.TextureView
	encoder      *wgpu.CommandEncoder
	pass         *wgpu.RenderPassEncoder
}

// NewSurfaceTarget opens the device for the surface described by desc,
// typically wgpuglfw.GetSurfaceDescriptor(window).
func NewSurfaceTarget(desc *wgpu.SurfaceDescriptor, width, height, sampleCount uint32) (*SurfaceTarget, error) {
	if sampleCount == 0 {
		sampleCount = 1
	}
	instance := wgpu.CreateInstance(nil)
	surface := instance.CreateSurface(desc)
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		surface.Release()
		instance.Release()
		return nil, errors.Wrap(err, "request adapter")
	}
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "glc device",
	})
	if err != nil {
		adapter.Release()
		surface.Release()
		instance.Release()
		return nil, errors.Wrap(err, "request device")
	}
	wrapped, err := NewWgpuDevice(device)
	if err != nil {
		device.Release()
		adapter.Release()
		surface.Release()
		instance.Release()
		return nil, err
	}

	caps := surface.GetCapabilities(adapter)
	t := &SurfaceTarget{
		instance: instance,
		surface:  surface,
		adapter:  adapter,
		device:   device,
		queue:    device.GetQueue(),
		wrapped:  wrapped,
		samples:  sampleCount,
		config: &wgpu.SurfaceConfiguration{
			Usage:       wgpu.TextureUsageRenderAttachment,
			Format:      caps.Formats[0],
			Width:       width,
			Height:      height,
			PresentMode: wgpu.PresentModeFifo,
			AlphaMode:   caps.AlphaModes[0],
		},
	}
	if err := t.Resize(width, height); err != nil {
		t.Release()
		return nil, err
	}
	return t, nil
}

func (t *SurfaceTarget) Device() Device                  { return t.wrapped }
func (t *SurfaceTarget) Format() wgpu.TextureFormat      { return t.config.Format }
func (t *SurfaceTarget) DepthFormat() wgpu.TextureFormat { return DefaultDepthFormat }
func (t *SurfaceTarget) SampleCount() uint32             { return t.samples }
func (t *SurfaceTarget) Size() (width, height uint32)    { return t.config.Width, t.config.Height }

// Resize reconfigures the surface and recreates the depth and multisample textures.
func (t *SurfaceTarget) Resize(width, height uint32) error {
	if width == 0 || height == 0 {
		return errors.Errorf("invalid surface size %dx%d", width, height)
	}
	t.config.Width = width
	t.config.Height = height
	t.surface.Configure(t.adapter, t.device, t.config)

	t.releaseAttachments()

	var err error
	t.depthTexture, t.depthView, err = t.attachment("glc depth", DefaultDepthFormat)
	if err != nil {
		return err
	}
	if t.samples > 1 {
		t.msaaTexture, t.msaaView, err = t.attachment("glc msaa", t.config.Format)
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *SurfaceTarget) attachment(label string, format wgpu.TextureFormat) (*wgpu.Texture, *wgpu.TextureView, error) {
	tex, err := t.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          wgpu.Extent3D{Width: t.config.Width, Height: t.config.Height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   t.samples,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return nil, nil, errors.Wrapf(err, "create %s texture", label)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, nil, errors.Wrapf(err, "create %s view", label)
	}
	return tex, view, nil
}

func (t *SurfaceTarget) BeginFrame(clear wgpu.Color) (Pass, error) {
	if t.pass != nil {
		return nil, errors.New("frame already in progress")
	}
	tex, err := t.surface.GetCurrentTexture()
	if err != nil {
		return nil, errors.Wrap(err, "acquire surface texture")
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		return nil, errors.Wrap(err, "create surface view")
	}
	encoder, err := t.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		return nil, errors.Wrap(err, "create command encoder")
	}

	color := wgpu.RenderPassColorAttachment{
		View:       view,
		LoadOp:     wgpu.LoadOpClear,
		StoreOp:    wgpu.StoreOpStore,
		ClearValue: clear,
	}
	if t.msaaView != nil {
		color.View = t.msaaView
		color.ResolveTarget = view
	}

	t.frameTexture = tex
	t.frameView = view
	t.encoder = encoder
	t.pass = encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label:            "glc main pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{color},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            t.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1,
		},
	})
	return &wgpuPass{pass: t.pass}, nil
}

func (t *SurfaceTarget) EndFrame() error {
	if t.pass == nil {
		return errors.New("no frame in progress")
	}
	defer t.endFrameCleanup()

	if err := t.pass.End(); err != nil {
		return errors.Wrap(err, "end render pass")
	}
	cmdBuffer, err := t.encoder.Finish(nil)
	if err != nil {
		return errors.Wrap(err, "finish command encoder")
	}
	defer cmdBuffer.Release()

	t.queue.Submit(cmdBuffer)
	t.surface.Present()
	return nil
}

func (t *SurfaceTarget) endFrameCleanup() {
	t.pass.Release()
	t.pass = nil
	t.encoder.Release()
	t.encoder = nil
	t.frameView.Release()
	t.frameView = nil
	t.frameTexture.Release()
	t.frameTexture = nil
}

func (t *SurfaceTarget) releaseAttachments() {
	if t.depthView != nil {
		t.depthView.Release()
		t.depthTexture.Release()
		t.depthView, t.depthTexture = nil, nil
	}
	if t.msaaView != nil {
		t.msaaView.Release()
		t.msaaTexture.Release()
		t.msaaView, t.msaaTexture = nil, nil
	}
}

// Release frees the device and the surface. Later calls do nothing.
func (t *SurfaceTarget) Release() {
	if t.instance == nil {
		return
	}
	t.releaseAttachments()
	t.wrapped.Release()
	t.device.Release()
	t.adapter.Release()
	t.surface.Release()
	t.instance.Release()
	t.wrapped, t.device, t.adapter, t.surface, t.instance = nil, nil, nil, nil, nil
	t.queue = nil
}
