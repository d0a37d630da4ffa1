// Package gpu holds the GPU facing half of the color cube renderer: buffer
// layouts, the specialized pipeline cache, per-frame instance buffers and the
// wgpu backed device, pass and surface target.
package gpu

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// Buffer is a GPU resident buffer.
type Buffer interface {
	Size() uint64
	Release()
}

// RenderPipeline is a compiled render pipeline.
type RenderPipeline interface {
	Release()
}

// BindGroup binds one uniform buffer to a BindSlot.
type BindGroup interface {
	Release()
}

// BindSlot identifies a bind group index of the instanced pipeline.
type BindSlot uint32

const (
	ViewBindSlot BindSlot = 0 // view-projection of the camera
	MeshBindSlot BindSlot = 1 // model transform of the instanced entity
)

// UniformSize is the size of the uniform bound at every BindSlot (one mat4x4<f32>).
const UniformSize = 64

// Device creates GPU resources.
type Device interface {
	CreateBufferInit(label string, contents []byte, usage wgpu.BufferUsage) (Buffer, error)
	CreateBuffer(label string, size uint64, usage wgpu.BufferUsage) (Buffer, error)
	WriteBuffer(buffer Buffer, offset uint64, data []byte) error
	CreateRenderPipeline(desc *PipelineDescriptor) (RenderPipeline, error)
	CreateBindGroup(label string, slot BindSlot, buffer Buffer) (BindGroup, error)
}

// Pass records draw commands of one render pass.
type Pass interface {
	SetPipeline(pipeline RenderPipeline)
	SetBindGroup(slot BindSlot, group BindGroup)
	SetVertexBuffer(slot uint32, buffer Buffer)
	SetIndexBuffer(buffer Buffer, format wgpu.IndexFormat)
	DrawIndexed(indexCount, instanceCount uint32)
	Draw(vertexCount, instanceCount uint32)
}

// Target is the surface the 3D view renders into.
type Target interface {
	Device() Device
	Format() wgpu.TextureFormat
	DepthFormat() wgpu.TextureFormat
	SampleCount() uint32
	Size() (width, height uint32)
	// BeginFrame acquires the next surface texture and opens a pass on it.
	BeginFrame(clear wgpu.Color) (Pass, error)
	// EndFrame closes the pass opened by BeginFrame, submits and presents it.
	EndFrame() error
	Resize(width, height uint32) error
	Release()
}
