package gpu

import (
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pkg/errors"
)

var ErrNilPipelineDescriptor = errors.New("specializer returned a nil pipeline descriptor")

// PipelineKey selects a pipeline variant. Equal keys always yield the same pipeline.
type PipelineKey struct {
	SampleCount uint32
	Topology    wgpu.PrimitiveTopology
}

// PipelineDescriptor is everything needed to compile one pipeline variant.
type PipelineDescriptor struct {
	Label          string
	Shader         string
	VertexEntry    string
	FragmentEntry  string
	Buffers        []wgpu.VertexBufferLayout
	BindSlots      []BindSlot
	Topology       wgpu.PrimitiveTopology
	CullMode       wgpu.CullMode
	SampleCount    uint32
	ColorFormat    wgpu.TextureFormat
	DepthFormat    wgpu.TextureFormat // TextureFormatUndefined disables depth testing
	DepthWriteable bool
}

// Specializer turns a key into a pipeline descriptor.
type Specializer interface {
	Specialize(key PipelineKey) *PipelineDescriptor
}

// SpecializedPipelines compiles each key at most once and hands out the cached
// pipeline afterwards.
type SpecializedPipelines struct {
	mu          sync.Mutex
	specializer Specializer
	pipelines   map[PipelineKey]RenderPipeline
	hits        uint64
	misses      uint64
}

func NewSpecializedPipelines(specializer Specializer) *SpecializedPipelines {
	return &SpecializedPipelines{
		specializer: specializer,
		pipelines:   make(map[PipelineKey]RenderPipeline),
	}
}

// Specialize returns the pipeline for key, compiling it on device on first use.
func (s *SpecializedPipelines) Specialize(device Device, key PipelineKey) (RenderPipeline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.pipelines[key]; ok {
		s.hits++
		return p, nil
	}
	s.misses++

	desc := s.specializer.Specialize(key)
	if desc == nil {
		return nil, ErrNilPipelineDescriptor
	}
	p, err := device.CreateRenderPipeline(desc)
	if err != nil {
		return nil, errors.Wrapf(err, "compile pipeline %q (samples=%d topology=%d)", desc.Label, key.SampleCount, key.Topology)
	}
	s.pipelines[key] = p
	return p, nil
}

func (s *SpecializedPipelines) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pipelines)
}

// Stats returns cache hits and misses since creation.
func (s *SpecializedPipelines) Stats() (hits, misses uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits, s.misses
}

// Release drops every compiled pipeline.
func (s *SpecializedPipelines) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, p := range s.pipelines {
		p.Release()
		delete(s.pipelines, k)
	}
}

// InstancedPipeline specializes the instanced color cube shader.
type InstancedPipeline struct {
	Shader      string
	ColorFormat wgpu.TextureFormat
	DepthFormat wgpu.TextureFormat
}

func (p InstancedPipeline) Specialize(key PipelineKey) *PipelineDescriptor {
	samples := key.SampleCount
	if samples == 0 {
		samples = 1
	}
	return &PipelineDescriptor{
		Label:         "glc instanced pipeline",
		Shader:        p.Shader,
		VertexEntry:   "vs_main",
		FragmentEntry: "fs_main",
		Buffers: []wgpu.VertexBufferLayout{
			MeshVertexLayout(),
			InstanceVertexLayout(),
		},
		BindSlots:      []BindSlot{ViewBindSlot, MeshBindSlot},
		Topology:       key.Topology,
		CullMode:       wgpu.CullModeBack,
		SampleCount:    samples,
		ColorFormat:    p.ColorFormat,
		DepthFormat:    p.DepthFormat,
		DepthWriteable: true,
	}
}
