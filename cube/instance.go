package cube

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// InstanceStride is the size of one InstanceData element in the instance buffer.
//
//	offset  0: position (vec3<f32>)
//	offset 12: scale    (f32)       -- read together with position as one vec4
//	offset 16: color    (vec4<f32>)
const InstanceStride = 32

// InstanceData is the per-voxel record consumed by the instanced draw.
type InstanceData struct {
	Position mgl32.Vec3
	Scale    float32
	Color    [4]float32
}

// AppendBytes appends the little-endian GPU representation of d to buf.
func (d InstanceData) AppendBytes(buf []byte) []byte {
	buf = appendFloat32(buf, d.Position[0])
	buf = appendFloat32(buf, d.Position[1])
	buf = appendFloat32(buf, d.Position[2])
	buf = appendFloat32(buf, d.Scale)
	for _, c := range d.Color {
		buf = appendFloat32(buf, c)
	}
	return buf
}

// InstanceBytes packs instances back to back, InstanceStride bytes each.
func InstanceBytes(instances []InstanceData) []byte {
	if len(instances) == 0 {
		return nil
	}
	buf := make([]byte, 0, len(instances)*InstanceStride)
	for _, inst := range instances {
		buf = inst.AppendBytes(buf)
	}
	return buf
}

// Index flattens a grid coordinate of a cube with the given resolution.
func Index(xi, yi, zi, resolution int) int {
	return xi*resolution*resolution + yi*resolution + zi
}

func appendFloat32(buf []byte, f float32) []byte {
	return binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
}
