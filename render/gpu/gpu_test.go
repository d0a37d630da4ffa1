package gpu_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/glc3d/glc/cube"
	"github.com/glc3d/glc/render/gpu"
	"github.com/glc3d/glc/render/gpu/gputest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstanceVertexLayout(t *testing.T) {
	layout := gpu.InstanceVertexLayout()

	assert.Equal(t, uint64(32), layout.ArrayStride)
	assert.Equal(t, wgpu.VertexStepModeInstance, layout.StepMode)
	require.Len(t, layout.Attributes, 2)

	assert.Equal(t, uint32(3), layout.Attributes[0].ShaderLocation)
	assert.Equal(t, uint64(0), layout.Attributes[0].Offset)
	assert.Equal(t, wgpu.VertexFormatFloat32x4, layout.Attributes[0].Format)

	assert.Equal(t, uint32(4), layout.Attributes[1].ShaderLocation)
	assert.Equal(t, uint64(16), layout.Attributes[1].Offset)
	assert.Equal(t, wgpu.VertexFormatFloat32x4, layout.Attributes[1].Format)
}

func TestMeshVertexBytes(t *testing.T) {
	buf := gpu.MeshVertexBytes([]gpu.MeshVertex{
		{Position: [3]float32{1, 2, 3}, Normal: [3]float32{0, 0, 1}, UV: [2]float32{0.5, 0.25}},
	})
	require.Len(t, buf, gpu.MeshVertexStride)

	want := []float32{1, 2, 3, 0, 0, 1, 0.5, 0.25}
	for i, f := range want {
		assert.Equal(t, f, math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:])))
	}
}

func TestIndexBytes_Padded(t *testing.T) {
	assert.Len(t, gpu.IndexBytes([]uint16{0, 1, 2}), 8)
	assert.Len(t, gpu.IndexBytes([]uint16{0, 1, 2, 3}), 8)
}

type countingSpecializer struct {
	calls int
}

func (c *countingSpecializer) Specialize(key gpu.PipelineKey) *gpu.PipelineDescriptor {
	c.calls++
	return gpu.InstancedPipeline{ColorFormat: wgpu.TextureFormatBGRA8Unorm}.Specialize(key)
}

func TestSpecializedPipelines_CompilesOncePerKey(t *testing.T) {
	dev := gputest.NewDevice()
	counter := &countingSpecializer{}
	cache := gpu.NewSpecializedPipelines(counter)

	key := gpu.PipelineKey{SampleCount: 4, Topology: wgpu.PrimitiveTopologyTriangleList}
	first, err := cache.Specialize(dev, key)
	require.NoError(t, err)
	second, err := cache.Specialize(dev, key)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, counter.calls)
	assert.Len(t, dev.Pipelines, 1)

	other, err := cache.Specialize(dev, gpu.PipelineKey{SampleCount: 1, Topology: wgpu.PrimitiveTopologyTriangleList})
	require.NoError(t, err)
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, cache.Len())

	hits, misses := cache.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(2), misses)

	cache.Release()
	assert.True(t, dev.Pipelines[0].Released)
	assert.Equal(t, 0, cache.Len())
}

func TestSpecializedPipelines_DescriptorFromKey(t *testing.T) {
	dev := gputest.NewDevice()
	cache := gpu.NewSpecializedPipelines(gpu.InstancedPipeline{
		Shader:      "wgsl",
		ColorFormat: wgpu.TextureFormatBGRA8Unorm,
		DepthFormat: gpu.DefaultDepthFormat,
	})

	_, err := cache.Specialize(dev, gpu.PipelineKey{SampleCount: 4, Topology: wgpu.PrimitiveTopologyTriangleList})
	require.NoError(t, err)

	desc := dev.Pipelines[0].Desc
	assert.Equal(t, uint32(4), desc.SampleCount)
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, desc.Topology)
	assert.Equal(t, "wgsl", desc.Shader)
	require.Len(t, desc.Buffers, 2)
	assert.Equal(t, wgpu.VertexStepModeVertex, desc.Buffers[0].StepMode)
	assert.Equal(t, wgpu.VertexStepModeInstance, desc.Buffers[1].StepMode)
	assert.Equal(t, []gpu.BindSlot{gpu.ViewBindSlot, gpu.MeshBindSlot}, desc.BindSlots)
}

func TestSpecializedPipelines_CompileError(t *testing.T) {
	dev := gputest.NewDevice()
	dev.FailPipelines = true
	cache := gpu.NewSpecializedPipelines(gpu.InstancedPipeline{})

	p, err := cache.Specialize(dev, gpu.PipelineKey{SampleCount: 1})
	assert.Nil(t, p)
	assert.Error(t, err)
	assert.Equal(t, 0, cache.Len())
}

func TestInstanceBuffers_ReplaceReleasesPrevious(t *testing.T) {
	dev := gputest.NewDevice()
	store := gpu.NewInstanceBuffers[int]()

	data := cube.InstanceBytes(make([]cube.InstanceData, 8))
	first, err := store.Upload(dev, 7, data, 8)
	require.NoError(t, err)
	assert.Equal(t, uint64(8*cube.InstanceStride), first.Buffer.Size())

	second, err := store.Upload(dev, 7, data, 8)
	require.NoError(t, err)

	assert.True(t, first.Buffer.(*gputest.Buffer).Released)
	assert.False(t, second.Buffer.(*gputest.Buffer).Released)
	assert.Len(t, dev.LiveBuffers(), 1)
	assert.Equal(t, 1, store.Len())
}

func TestInstanceBuffers_EmptyInstallsNoBuffer(t *testing.T) {
	dev := gputest.NewDevice()
	store := gpu.NewInstanceBuffers[int]()

	ib, err := store.Upload(dev, 1, nil, 0)
	require.NoError(t, err)
	assert.Nil(t, ib.Buffer)
	assert.Equal(t, uint32(0), ib.Length)
	assert.Empty(t, dev.Buffers)

	got, ok := store.Get(1)
	assert.True(t, ok)
	assert.Nil(t, got.Buffer)
}

func TestInstanceBuffers_Retain(t *testing.T) {
	dev := gputest.NewDevice()
	store := gpu.NewInstanceBuffers[int]()
	data := cube.InstanceBytes(make([]cube.InstanceData, 2))
	for k := 0; k < 3; k++ {
		_, err := store.Upload(dev, k, data, 2)
		require.NoError(t, err)
	}

	store.Retain(func(k int) bool { return k == 1 })
	assert.Equal(t, 1, store.Len())
	assert.Len(t, dev.LiveBuffers(), 1)

	store.Release()
	assert.Empty(t, dev.LiveBuffers())
}

func TestUniforms_CreateThenWrite(t *testing.T) {
	dev := gputest.NewDevice()
	u := gpu.NewUniforms[string](gpu.ViewBindSlot)

	first, err := u.Write(dev, "cam", gpu.Mat4Bytes([16]float32{1}))
	require.NoError(t, err)
	second, err := u.Write(dev, "cam", gpu.Mat4Bytes([16]float32{2}))
	require.NoError(t, err)

	assert.Same(t, first.Buffer, second.Buffer)
	assert.Len(t, dev.Buffers, 1)
	assert.Len(t, dev.BindGroups, 1)
	assert.Equal(t, gpu.ViewBindSlot, dev.BindGroups[0].Slot)
	assert.Equal(t, 1, dev.Writes)
	assert.Equal(t, float32(2), math.Float32frombits(binary.LittleEndian.Uint32(dev.Buffers[0].Contents)))

	_, err = u.Write(dev, "cam", []byte{1, 2, 3})
	assert.Error(t, err)
}

func TestUploadMesh(t *testing.T) {
	dev := gputest.NewDevice()
	verts := make([]gpu.MeshVertex, 4)

	mesh, err := gpu.UploadMesh(dev, "quad", verts, []uint16{0, 1, 2, 2, 3, 0})
	require.NoError(t, err)
	assert.True(t, mesh.Indexed())
	assert.Equal(t, uint32(6), mesh.IndexCount)
	assert.Equal(t, uint32(4), mesh.VertexCount)

	flat, err := gpu.UploadMesh(dev, "tri", verts[:3], nil)
	require.NoError(t, err)
	assert.False(t, flat.Indexed())

	_, err = gpu.UploadMesh(dev, "empty", nil, nil)
	assert.Error(t, err)

	mesh.Release()
	flat.Release()
	assert.Empty(t, dev.LiveBuffers())
}
