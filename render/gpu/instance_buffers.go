package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pkg/errors"
)

// InstanceBuffer is the per-frame vertex buffer of one instanced entity.
// Buffer is nil when Length is zero.
type InstanceBuffer struct {
	Buffer Buffer
	Length uint32
}

// InstanceBuffers owns one InstanceBuffer per key. Installing a new buffer
// releases the previous one of the same key.
type InstanceBuffers[K comparable] struct {
	buffers map[K]InstanceBuffer
}

func NewInstanceBuffers[K comparable]() *InstanceBuffers[K] {
	return &InstanceBuffers[K]{buffers: make(map[K]InstanceBuffer)}
}

// Upload replaces the buffer of key with one holding contents. An empty
// contents slice installs an InstanceBuffer without allocation.
func (s *InstanceBuffers[K]) Upload(device Device, key K, contents []byte, length uint32) (InstanceBuffer, error) {
	if prev, ok := s.buffers[key]; ok && prev.Buffer != nil {
		prev.Buffer.Release()
	}
	delete(s.buffers, key)

	if length == 0 || len(contents) == 0 {
		ib := InstanceBuffer{}
		s.buffers[key] = ib
		return ib, nil
	}

	buf, err := device.CreateBufferInit(
		fmt.Sprintf("instance data buffer %v", key),
		contents,
		wgpu.BufferUsageVertex|wgpu.BufferUsageCopyDst,
	)
	if err != nil {
		return InstanceBuffer{}, errors.Wrap(err, "create instance buffer")
	}
	ib := InstanceBuffer{Buffer: buf, Length: length}
	s.buffers[key] = ib
	return ib, nil
}

func (s *InstanceBuffers[K]) Get(key K) (InstanceBuffer, bool) {
	ib, ok := s.buffers[key]
	return ib, ok
}

// Retain releases every buffer whose key keep rejects.
func (s *InstanceBuffers[K]) Retain(keep func(K) bool) {
	for k, ib := range s.buffers {
		if keep(k) {
			continue
		}
		if ib.Buffer != nil {
			ib.Buffer.Release()
		}
		delete(s.buffers, k)
	}
}

func (s *InstanceBuffers[K]) Len() int {
	return len(s.buffers)
}

func (s *InstanceBuffers[K]) Release() {
	s.Retain(func(K) bool { return false })
}

// Uniform is a uniform buffer together with its bind group.
type Uniform struct {
	Buffer Buffer
	Group  BindGroup
}

// Uniforms keeps one Uniform per key, created on first write and rewritten in place afterwards.
type Uniforms[K comparable] struct {
	slot     BindSlot
	uniforms map[K]Uniform
}

func NewUniforms[K comparable](slot BindSlot) *Uniforms[K] {
	return &Uniforms[K]{slot: slot, uniforms: make(map[K]Uniform)}
}

func (u *Uniforms[K]) Write(device Device, key K, data []byte) (Uniform, error) {
	if len(data) != UniformSize {
		return Uniform{}, errors.Errorf("uniform for slot %d must be %d bytes, got %d", u.slot, UniformSize, len(data))
	}
	if cur, ok := u.uniforms[key]; ok {
		if err := device.WriteBuffer(cur.Buffer, 0, data); err != nil {
			return Uniform{}, errors.Wrap(err, "write uniform")
		}
		return cur, nil
	}

	label := fmt.Sprintf("uniform slot %d %v", u.slot, key)
	buf, err := device.CreateBufferInit(label, data, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
	if err != nil {
		return Uniform{}, errors.Wrap(err, "create uniform buffer")
	}
	group, err := device.CreateBindGroup(label, u.slot, buf)
	if err != nil {
		buf.Release()
		return Uniform{}, errors.Wrap(err, "create uniform bind group")
	}
	cur := Uniform{Buffer: buf, Group: group}
	u.uniforms[key] = cur
	return cur, nil
}

func (u *Uniforms[K]) Get(key K) (Uniform, bool) {
	cur, ok := u.uniforms[key]
	return cur, ok
}

func (u *Uniforms[K]) Retain(keep func(K) bool) {
	for k, cur := range u.uniforms {
		if keep(k) {
			continue
		}
		cur.Group.Release()
		cur.Buffer.Release()
		delete(u.uniforms, k)
	}
}

func (u *Uniforms[K]) Release() {
	u.Retain(func(K) bool { return false })
}

// GpuMesh is a base mesh uploaded to the GPU.
type GpuMesh struct {
	VertexBuffer Buffer
	IndexBuffer  Buffer
	VertexCount  uint32
	IndexCount   uint32
}

func (m *GpuMesh) Indexed() bool {
	return m.IndexBuffer != nil
}

func (m *GpuMesh) Release() {
	if m.VertexBuffer != nil {
		m.VertexBuffer.Release()
	}
	if m.IndexBuffer != nil {
		m.IndexBuffer.Release()
	}
}

// UploadMesh creates the vertex and, when indices are given, index buffers of a mesh.
func UploadMesh(device Device, label string, vertices []MeshVertex, indices []uint16) (*GpuMesh, error) {
	if len(vertices) == 0 {
		return nil, errors.Errorf("mesh %q has no vertices", label)
	}
	vb, err := device.CreateBufferInit(label+" vertex buffer", MeshVertexBytes(vertices), wgpu.BufferUsageVertex)
	if err != nil {
		return nil, errors.Wrapf(err, "upload mesh %q", label)
	}
	mesh := &GpuMesh{VertexBuffer: vb, VertexCount: uint32(len(vertices))}
	if len(indices) == 0 {
		return mesh, nil
	}
	ib, err := device.CreateBufferInit(label+" index buffer", IndexBytes(indices), wgpu.BufferUsageIndex)
	if err != nil {
		vb.Release()
		return nil, errors.Wrapf(err, "upload mesh %q indices", label)
	}
	mesh.IndexBuffer = ib
	mesh.IndexCount = uint32(len(indices))
	return mesh, nil
}
