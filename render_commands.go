package glc

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/glc3d/glc/render/gpu"
)

type RenderCommandResult int

const (
	RenderCommandSuccess RenderCommandResult = iota
	RenderCommandFailure
	RenderCommandSkip
)

// RenderContext is what render commands may read while drawing one view.
type RenderContext struct {
	World  *RenderWorld
	Assets *RenderAssets
	View   EntityId
}

// RenderCommand records one step of a draw into pass.
type RenderCommand func(ctx *RenderContext, item PhaseItem, pass gpu.Pass) RenderCommandResult

// DrawFunction runs its commands in order and stops at the first one that
// does not succeed.
type DrawFunction []RenderCommand

func (fn DrawFunction) Draw(ctx *RenderContext, item PhaseItem, pass gpu.Pass) RenderCommandResult {
	for _, c := range fn {
		if res := c(ctx, item, pass); res != RenderCommandSuccess {
			return res
		}
	}
	return RenderCommandSuccess
}

type DrawFunctionId int

type DrawFunctions struct {
	fns   []DrawFunction
	names map[string]DrawFunctionId
}

func (d *DrawFunctions) Add(name string, fn DrawFunction) DrawFunctionId {
	if d.names == nil {
		d.names = make(map[string]DrawFunctionId)
	}
	if _, ok := d.names[name]; ok {
		panic("draw function " + name + " already registered")
	}
	id := DrawFunctionId(len(d.fns))
	d.fns = append(d.fns, fn)
	d.names[name] = id
	return id
}

func (d *DrawFunctions) Get(id DrawFunctionId) (DrawFunction, bool) {
	if id < 0 || int(id) >= len(d.fns) {
		return nil, false
	}
	return d.fns[id], true
}

func (d *DrawFunctions) Id(name string) (DrawFunctionId, bool) {
	id, ok := d.names[name]
	return id, ok
}

const instancedDrawName = "instanced"

// InstancedDraw draws an InstancedMesh with one instanced draw call.
var InstancedDraw = DrawFunction{
	SetItemPipeline,
	SetViewBindGroup,
	SetMeshBindGroup,
	DrawMeshInstanced,
}

func SetItemPipeline(ctx *RenderContext, item PhaseItem, pass gpu.Pass) RenderCommandResult {
	if item.Pipeline == nil {
		return RenderCommandFailure
	}
	pass.SetPipeline(item.Pipeline)
	return RenderCommandSuccess
}

func SetViewBindGroup(ctx *RenderContext, item PhaseItem, pass gpu.Pass) RenderCommandResult {
	u, ok := ctx.World.viewUniforms.Get(ctx.View)
	if !ok {
		return RenderCommandFailure
	}
	pass.SetBindGroup(gpu.ViewBindSlot, u.Group)
	return RenderCommandSuccess
}

func SetMeshBindGroup(ctx *RenderContext, item PhaseItem, pass gpu.Pass) RenderCommandResult {
	u, ok := ctx.World.meshUniforms.Get(item.Entity)
	if !ok {
		return RenderCommandFailure
	}
	pass.SetBindGroup(gpu.MeshBindSlot, u.Group)
	return RenderCommandSuccess
}

// DrawMeshInstanced binds the base mesh at slot 0 and the instance buffer at
// slot 1. An entity without instances is skipped.
func DrawMeshInstanced(ctx *RenderContext, item PhaseItem, pass gpu.Pass) RenderCommandResult {
	ext, ok := ctx.World.instances[item.Entity]
	if !ok {
		return RenderCommandFailure
	}
	mesh, ok := ctx.Assets.Mesh(ext.Mesh)
	if !ok {
		return RenderCommandFailure
	}
	ib, ok := ctx.World.instanceBuffers.Get(item.Entity)
	if !ok {
		return RenderCommandFailure
	}
	if ib.Length == 0 || ib.Buffer == nil {
		return RenderCommandSkip
	}

	pass.SetVertexBuffer(gpu.MeshVertexSlot, mesh.VertexBuffer)
	pass.SetVertexBuffer(gpu.InstanceVertexSlot, ib.Buffer)
	if mesh.Indexed() {
		pass.SetIndexBuffer(mesh.IndexBuffer, wgpu.IndexFormatUint16)
		pass.DrawIndexed(mesh.IndexCount, ib.Length)
	} else {
		pass.Draw(mesh.VertexCount, ib.Length)
	}
	return RenderCommandSuccess
}
