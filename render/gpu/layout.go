package gpu

import (
	"encoding/binary"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/glc3d/glc/cube"
)

// Mesh attribute locations. Instance attributes are appended after them.
const (
	MeshPositionLocation = 0
	MeshNormalLocation   = 1
	MeshUVLocation       = 2

	InstancePositionScaleLocation = 3
	InstanceColorLocation         = 4
)

// Vertex buffer slots used by the instanced draw.
const (
	MeshVertexSlot     = 0
	InstanceVertexSlot = 1
)

// MeshVertexStride is the size of one MeshVertex in the vertex buffer.
const MeshVertexStride = 32

// MeshVertex is one vertex of a base mesh.
type MeshVertex struct {
	Position [3]float32
	Normal   [3]float32
	UV       [2]float32
}

// MeshVertexBytes packs vertices back to back, MeshVertexStride bytes each.
func MeshVertexBytes(vertices []MeshVertex) []byte {
	buf := make([]byte, 0, len(vertices)*MeshVertexStride)
	for _, v := range vertices {
		for _, f := range v.Position {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
		}
		for _, f := range v.Normal {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
		}
		for _, f := range v.UV {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
		}
	}
	return buf
}

// IndexBytes packs u16 indices, padded to a multiple of four bytes.
func IndexBytes(indices []uint16) []byte {
	buf := make([]byte, 0, len(indices)*2+2)
	for _, i := range indices {
		buf = binary.LittleEndian.AppendUint16(buf, i)
	}
	if len(buf)%4 != 0 {
		buf = append(buf, 0, 0)
	}
	return buf
}

// MeshVertexLayout describes MeshVertex at locations 0-2.
func MeshVertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: MeshVertexStride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{
				Format:         wgpu.VertexFormatFloat32x3,
				Offset:         0,
				ShaderLocation: MeshPositionLocation,
			},
			{
				Format:         wgpu.VertexFormatFloat32x3,
				Offset:         12,
				ShaderLocation: MeshNormalLocation,
			},
			{
				Format:         wgpu.VertexFormatFloat32x2,
				Offset:         24,
				ShaderLocation: MeshUVLocation,
			},
		},
	}
}

// InstanceVertexLayout describes cube.InstanceData stepping once per instance.
// Position and scale are read as one vec4 at location 3, color at location 4.
func InstanceVertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: cube.InstanceStride,
		StepMode:    wgpu.VertexStepModeInstance,
		Attributes: []wgpu.VertexAttribute{
			{
				Format:         wgpu.VertexFormatFloat32x4,
				Offset:         0,
				ShaderLocation: InstancePositionScaleLocation,
			},
			{
				Format:         wgpu.VertexFormatFloat32x4,
				Offset:         16,
				ShaderLocation: InstanceColorLocation,
			},
		},
	}
}

// Mat4Bytes packs a column-major 4x4 matrix as a uniform.
func Mat4Bytes(m [16]float32) []byte {
	buf := make([]byte, 0, UniformSize)
	for _, v := range m {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	return buf
}
