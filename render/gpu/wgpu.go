package gpu

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pkg/errors"
)

type wgpuBuffer struct {
	buf *wgpu.Buffer
}

func (b *wgpuBuffer) Size() uint64 { return b.buf.GetSize() }
func (b *wgpuBuffer) Release()     { b.buf.Release() }

type wgpuPipeline struct {
	pipeline *wgpu.RenderPipeline
}

func (p *wgpuPipeline) Release() { p.pipeline.Release() }

type wgpuBindGroup struct {
	group *wgpu.BindGroup
}

func (g *wgpuBindGroup) Release() { g.group.Release() }

// WgpuDevice implements Device on a wgpu device. Bind group layouts of the
// uniform slots are created once and shared by every pipeline.
type WgpuDevice struct {
	device  *wgpu.Device
	queue   *wgpu.Queue
	layouts map[BindSlot]*wgpu.BindGroupLayout
}

func NewWgpuDevice(device *wgpu.Device) (*WgpuDevice, error) {
	d := &WgpuDevice{
		device:  device,
		queue:   device.GetQueue(),
		layouts: map[BindSlot]*wgpu.BindGroupLayout{},
	}
	for _, slot := range []BindSlot{ViewBindSlot, MeshBindSlot} {
		layout, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label: "glc uniform layout",
			Entries: []wgpu.BindGroupLayoutEntry{
				{
					Binding:    0,
					Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
					Buffer: wgpu.BufferBindingLayout{
						Type:             wgpu.BufferBindingTypeUniform,
						MinBindingSize:   UniformSize,
						HasDynamicOffset: false,
					},
				},
			},
		})
		if err != nil {
			d.Release()
			return nil, errors.Wrapf(err, "create bind group layout for slot %d", slot)
		}
		d.layouts[slot] = layout
	}
	return d, nil
}

func (d *WgpuDevice) Raw() *wgpu.Device { return d.device }

func (d *WgpuDevice) CreateBufferInit(label string, contents []byte, usage wgpu.BufferUsage) (Buffer, error) {
	buf, err := d.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    label,
		Contents: contents,
		Usage:    usage,
	})
	if err != nil {
		return nil, err
	}
	return &wgpuBuffer{buf: buf}, nil
}

func (d *WgpuDevice) CreateBuffer(label string, size uint64, usage wgpu.BufferUsage) (Buffer, error) {
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage,
	})
	if err != nil {
		return nil, err
	}
	return &wgpuBuffer{buf: buf}, nil
}

func (d *WgpuDevice) WriteBuffer(buffer Buffer, offset uint64, data []byte) error {
	b, ok := buffer.(*wgpuBuffer)
	if !ok {
		return errors.Errorf("buffer %T was not created by this device", buffer)
	}
	return d.queue.WriteBuffer(b.buf, offset, data)
}

func (d *WgpuDevice) CreateBindGroup(label string, slot BindSlot, buffer Buffer) (BindGroup, error) {
	layout, ok := d.layouts[slot]
	if !ok {
		return nil, errors.Errorf("no bind group layout for slot %d", slot)
	}
	b, ok := buffer.(*wgpuBuffer)
	if !ok {
		return nil, errors.Errorf("buffer %T was not created by this device", buffer)
	}
	group, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  label,
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding: 0,
				Buffer:  b.buf,
				Size:    wgpu.WholeSize,
			},
		},
	})
	if err != nil {
		return nil, err
	}
	return &wgpuBindGroup{group: group}, nil
}

func (d *WgpuDevice) CreateRenderPipeline(desc *PipelineDescriptor) (RenderPipeline, error) {
	shader, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          desc.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: desc.Shader},
	})
	if err != nil {
		return nil, errors.Wrap(err, "create shader module")
	}
	defer shader.Release()

	groupLayouts := make([]*wgpu.BindGroupLayout, 0, len(desc.BindSlots))
	for _, slot := range desc.BindSlots {
		layout, ok := d.layouts[slot]
		if !ok {
			return nil, errors.Errorf("no bind group layout for slot %d", slot)
		}
		groupLayouts = append(groupLayouts, layout)
	}
	pipelineLayout, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: groupLayouts,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create pipeline layout")
	}
	defer pipelineLayout.Release()

	var depth *wgpu.DepthStencilState
	if desc.DepthFormat != wgpu.TextureFormatUndefined {
		depth = &wgpu.DepthStencilState{
			Format:            desc.DepthFormat,
			DepthWriteEnabled: desc.DepthWriteable,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		}
	}

	pipeline, err := d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     shader,
			EntryPoint: desc.VertexEntry,
			Buffers:    desc.Buffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: desc.FragmentEntry,
			Targets: []wgpu.ColorTargetState{
				{
					Format:    desc.ColorFormat,
					Blend:     nil,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  desc.Topology,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  desc.CullMode,
		},
		DepthStencil: depth,
		Multisample: wgpu.MultisampleState{
			Count:                  desc.SampleCount,
			Mask:                   0xFFFFFFFF,
			AlphaToCoverageEnabled: false,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "create render pipeline")
	}
	return &wgpuPipeline{pipeline: pipeline}, nil
}

func (d *WgpuDevice) Release() {
	for slot, layout := range d.layouts {
		layout.Release()
		delete(d.layouts, slot)
	}
}

// wgpuPass records into a wgpu render pass. Handles from another backend are ignored.
type wgpuPass struct {
	pass *wgpu.RenderPassEncoder
}

func (p *wgpuPass) SetPipeline(pipeline RenderPipeline) {
	if wp, ok := pipeline.(*wgpuPipeline); ok {
		p.pass.SetPipeline(wp.pipeline)
	}
}

func (p *wgpuPass) SetBindGroup(slot BindSlot, group BindGroup) {
	if wg, ok := group.(*wgpuBindGroup); ok {
		p.pass.SetBindGroup(uint32(slot), wg.group, nil)
	}
}

func (p *wgpuPass) SetVertexBuffer(slot uint32, buffer Buffer) {
	if wb, ok := buffer.(*wgpuBuffer); ok {
		p.pass.SetVertexBuffer(slot, wb.buf, 0, wgpu.WholeSize)
	}
}

func (p *wgpuPass) SetIndexBuffer(buffer Buffer, format wgpu.IndexFormat) {
	if wb, ok := buffer.(*wgpuBuffer); ok {
		p.pass.SetIndexBuffer(wb.buf, format, 0, wgpu.WholeSize)
	}
}

func (p *wgpuPass) DrawIndexed(indexCount, instanceCount uint32) {
	p.pass.DrawIndexed(indexCount, instanceCount, 0, 0, 0)
}

func (p *wgpuPass) Draw(vertexCount, instanceCount uint32) {
	p.pass.Draw(vertexCount, instanceCount, 0, 0)
}
