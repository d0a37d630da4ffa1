// Package gputest provides in-memory gpu.Device, gpu.Pass and gpu.Target
// implementations that record every call.
package gputest

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/glc3d/glc/render/gpu"
	"github.com/pkg/errors"
)

type Buffer struct {
	Label    string
	Usage    wgpu.BufferUsage
	Contents []byte
	Released bool
}

func (b *Buffer) Size() uint64 { return uint64(len(b.Contents)) }
func (b *Buffer) Release()     { b.Released = true }

type Pipeline struct {
	Desc     gpu.PipelineDescriptor
	Released bool
}

func (p *Pipeline) Release() { p.Released = true }

type BindGroup struct {
	Label    string
	Slot     gpu.BindSlot
	Buffer   gpu.Buffer
	Released bool
}

func (g *BindGroup) Release() { g.Released = true }

// Device records created resources. Setting FailBuffers or FailPipelines
// makes the matching calls return an error.
type Device struct {
	mu            sync.Mutex
	Buffers       []*Buffer
	Pipelines     []*Pipeline
	BindGroups    []*BindGroup
	Writes        int
	FailBuffers   bool
	FailPipelines bool
}

func NewDevice() *Device {
	return &Device{}
}

func (d *Device) CreateBufferInit(label string, contents []byte, usage wgpu.BufferUsage) (gpu.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailBuffers {
		return nil, errors.Errorf("buffer %q: out of memory", label)
	}
	b := &Buffer{Label: label, Usage: usage, Contents: append([]byte(nil), contents...)}
	d.Buffers = append(d.Buffers, b)
	return b, nil
}

func (d *Device) CreateBuffer(label string, size uint64, usage wgpu.BufferUsage) (gpu.Buffer, error) {
	return d.CreateBufferInit(label, make([]byte, size), usage)
}

func (d *Device) WriteBuffer(buffer gpu.Buffer, offset uint64, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := buffer.(*Buffer)
	if !ok {
		return errors.Errorf("foreign buffer %T", buffer)
	}
	if offset+uint64(len(data)) > uint64(len(b.Contents)) {
		return errors.Errorf("write of %d bytes at %d overflows buffer %q of %d bytes", len(data), offset, b.Label, len(b.Contents))
	}
	copy(b.Contents[offset:], data)
	d.Writes++
	return nil
}

func (d *Device) CreateRenderPipeline(desc *gpu.PipelineDescriptor) (gpu.RenderPipeline, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailPipelines {
		return nil, errors.Errorf("pipeline %q: shader compilation failed", desc.Label)
	}
	p := &Pipeline{Desc: *desc}
	d.Pipelines = append(d.Pipelines, p)
	return p, nil
}

func (d *Device) CreateBindGroup(label string, slot gpu.BindSlot, buffer gpu.Buffer) (gpu.BindGroup, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	g := &BindGroup{Label: label, Slot: slot, Buffer: buffer}
	d.BindGroups = append(d.BindGroups, g)
	return g, nil
}

// LiveBuffers returns the buffers not released yet.
func (d *Device) LiveBuffers() []*Buffer {
	d.mu.Lock()
	defer d.mu.Unlock()
	var live []*Buffer
	for _, b := range d.Buffers {
		if !b.Released {
			live = append(live, b)
		}
	}
	return live
}

// Command is one recorded pass call.
type Command struct {
	Op    string
	Slot  uint32
	Ref   any
	Count uint32
	Inst  uint32
}

func (c Command) String() string {
	switch c.Op {
	case "draw", "draw_indexed":
		return fmt.Sprintf("%s(%d, %d)", c.Op, c.Count, c.Inst)
	default:
		return fmt.Sprintf("%s(%d)", c.Op, c.Slot)
	}
}

type Pass struct {
	Commands []Command
}

func (p *Pass) SetPipeline(pipeline gpu.RenderPipeline) {
	p.Commands = append(p.Commands, Command{Op: "set_pipeline", Ref: pipeline})
}

func (p *Pass) SetBindGroup(slot gpu.BindSlot, group gpu.BindGroup) {
	p.Commands = append(p.Commands, Command{Op: "set_bind_group", Slot: uint32(slot), Ref: group})
}

func (p *Pass) SetVertexBuffer(slot uint32, buffer gpu.Buffer) {
	p.Commands = append(p.Commands, Command{Op: "set_vertex_buffer", Slot: slot, Ref: buffer})
}

func (p *Pass) SetIndexBuffer(buffer gpu.Buffer, format wgpu.IndexFormat) {
	p.Commands = append(p.Commands, Command{Op: "set_index_buffer", Ref: buffer})
}

func (p *Pass) DrawIndexed(indexCount, instanceCount uint32) {
	p.Commands = append(p.Commands, Command{Op: "draw_indexed", Count: indexCount, Inst: instanceCount})
}

func (p *Pass) Draw(vertexCount, instanceCount uint32) {
	p.Commands = append(p.Commands, Command{Op: "draw", Count: vertexCount, Inst: instanceCount})
}

// Draws returns the draw commands of the pass.
func (p *Pass) Draws() []Command {
	var draws []Command
	for _, c := range p.Commands {
		if c.Op == "draw" || c.Op == "draw_indexed" {
			draws = append(draws, c)
		}
	}
	return draws
}

// Target is a headless gpu.Target. Every finished frame is kept in Frames.
type Target struct {
	Dev     *Device
	Width   uint32
	Height  uint32
	Samples uint32
	Frames  []*Pass
	Clears  []wgpu.Color

	current  *Pass
	Released bool
}

func NewTarget(width, height, samples uint32) *Target {
	return &Target{Dev: NewDevice(), Width: width, Height: height, Samples: samples}
}

func (t *Target) Device() gpu.Device              { return t.Dev }
func (t *Target) Format() wgpu.TextureFormat      { return wgpu.TextureFormatBGRA8Unorm }
func (t *Target) DepthFormat() wgpu.TextureFormat { return gpu.DefaultDepthFormat }
func (t *Target) SampleCount() uint32             { return t.Samples }
func (t *Target) Size() (uint32, uint32)          { return t.Width, t.Height }

func (t *Target) BeginFrame(clear wgpu.Color) (gpu.Pass, error) {
	if t.current != nil {
		return nil, errors.New("frame already in progress")
	}
	t.current = &Pass{}
	t.Clears = append(t.Clears, clear)
	return t.current, nil
}

func (t *Target) EndFrame() error {
	if t.current == nil {
		return errors.New("no frame in progress")
	}
	t.Frames = append(t.Frames, t.current)
	t.current = nil
	return nil
}

func (t *Target) Resize(width, height uint32) error {
	if width == 0 || height == 0 {
		return errors.Errorf("invalid size %dx%d", width, height)
	}
	t.Width, t.Height = width, height
	return nil
}

func (t *Target) Release() { t.Released = true }

// LastFrame returns the most recently finished frame, or nil.
func (t *Target) LastFrame() *Pass {
	if len(t.Frames) == 0 {
		return nil
	}
	return t.Frames[len(t.Frames)-1]
}
