package glc

import (
	"slices"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/glc3d/glc/cube"
	"github.com/glc3d/glc/render/gpu"
	"github.com/glc3d/glc/render/shaders"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// RenderTarget holds the surface the 3D view is drawn into.
type RenderTarget struct {
	Target gpu.Target
}

type Msaa struct {
	Samples uint32
}

type RenderSettings struct {
	ClearColor wgpu.Color
}

// RenderStats counts what the last frame did with its phase items.
type RenderStats struct {
	Frame   uint64
	Drawn   int
	Failed  int
	Skipped int
}

// ExtractedInstances is the render world copy of an InstancedMesh.
type ExtractedInstances struct {
	Data   []byte
	Length uint32
	Mesh   AssetId
	Model  mgl32.Mat4
}

type ExtractedView struct {
	ViewProj mgl32.Mat4
}

// PhaseItem is one queued draw of an instanced entity.
type PhaseItem struct {
	Entity   EntityId
	Pipeline gpu.RenderPipeline
	Draw     DrawFunctionId
}

// RenderWorld holds everything the render stages derive from the main world.
// It is rebuilt by Extract every frame; GPU buffers are owned by Prepare.
type RenderWorld struct {
	instances map[EntityId]ExtractedInstances
	views     map[EntityId]ExtractedView
	phases    map[EntityId][]PhaseItem

	instanceBuffers *gpu.InstanceBuffers[EntityId]
	viewUniforms    *gpu.Uniforms[EntityId]
	meshUniforms    *gpu.Uniforms[EntityId]
}

func NewRenderWorld() *RenderWorld {
	return &RenderWorld{
		instances:       make(map[EntityId]ExtractedInstances),
		views:           make(map[EntityId]ExtractedView),
		phases:          make(map[EntityId][]PhaseItem),
		instanceBuffers: gpu.NewInstanceBuffers[EntityId](),
		viewUniforms:    gpu.NewUniforms[EntityId](gpu.ViewBindSlot),
		meshUniforms:    gpu.NewUniforms[EntityId](gpu.MeshBindSlot),
	}
}

func (w *RenderWorld) InstanceBuffer(eid EntityId) (gpu.InstanceBuffer, bool) {
	return w.instanceBuffers.Get(eid)
}

func (w *RenderWorld) Phase(view EntityId) []PhaseItem {
	return w.phases[view]
}

func (w *RenderWorld) Release() {
	w.instanceBuffers.Release()
	w.viewUniforms.Release()
	w.meshUniforms.Release()
	clear(w.instances)
	clear(w.views)
	clear(w.phases)
}

type renderMesh struct {
	mesh    *gpu.GpuMesh
	version uint
}

// RenderAssets holds the GPU copies of AssetServer meshes.
type RenderAssets struct {
	meshes map[AssetId]renderMesh
}

func NewRenderAssets() *RenderAssets {
	return &RenderAssets{meshes: make(map[AssetId]renderMesh)}
}

func (a *RenderAssets) Mesh(id AssetId) (*gpu.GpuMesh, bool) {
	m, ok := a.meshes[id]
	return m.mesh, ok
}

func (a *RenderAssets) Release() {
	for id, m := range a.meshes {
		m.mesh.Release()
		delete(a.meshes, id)
	}
}

type PipelineCache struct {
	pipelines *gpu.SpecializedPipelines
}

func (c *PipelineCache) Len() int {
	return c.pipelines.Len()
}

// RenderModule adds the Extract, Prepare and Queue stages and draws every
// InstancedMesh once per camera into Target.
// It needs the AssetServer and Time resources.
type RenderModule struct {
	Target     gpu.Target
	ClearColor wgpu.Color
}

func (m RenderModule) Install(app *App, cmd *Commands) {
	if m.Target == nil {
		cmd.ReportError(ErrNoRenderTarget)
		return
	}

	app.UseStage(Extract, AfterStage(PreRender))
	app.UseStage(Prepare, AfterStage(Extract))
	app.UseStage(Queue, AfterStage(Prepare))

	draws := &DrawFunctions{}
	draws.Add(instancedDrawName, InstancedDraw)

	cmd.AddResources(
		&RenderTarget{Target: m.Target},
		&Msaa{Samples: max(m.Target.SampleCount(), 1)},
		&RenderSettings{ClearColor: m.ClearColor},
		&RenderStats{},
		NewRenderWorld(),
		NewRenderAssets(),
		&PipelineCache{pipelines: gpu.NewSpecializedPipelines(gpu.InstancedPipeline{
			Shader:      shaders.InstancedWGSL,
			ColorFormat: m.Target.Format(),
			DepthFormat: m.Target.DepthFormat(),
		})},
		draws,
	)

	app.UseSystem(System(extractInstancesSystem).InStage(Extract))
	app.UseSystem(System(extractViewsSystem).InStage(Extract))
	app.UseSystem(System(prepareMeshesSystem).InStage(Prepare))
	app.UseSystem(System(prepareInstanceBuffersSystem).InStage(Prepare))
	app.UseSystem(System(prepareViewUniformsSystem).InStage(Prepare))
	app.UseSystem(System(queueInstancedSystem).InStage(Queue))
	app.UseSystem(System(renderSystem).InStage(Render))
}

func extractInstancesSystem(cmd *Commands, world *RenderWorld) {
	clear(world.instances)
	MakeQuery3[InstancedMesh, Mesh, ModelTransform](cmd).Map(func(eid EntityId, im *InstancedMesh, mesh *Mesh, xf *ModelTransform) bool {
		world.instances[eid] = ExtractedInstances{
			Data:   cube.InstanceBytes(im.Instances),
			Length: uint32(len(im.Instances)),
			Mesh:   mesh.AssetId,
			Model:  xf.Matrix(),
		}
		return true
	})
}

func extractViewsSystem(cmd *Commands, world *RenderWorld, target *RenderTarget) {
	clear(world.views)
	w, h := target.Target.Size()
	aspect := float32(1)
	if w > 0 && h > 0 {
		aspect = float32(w) / float32(h)
	}
	MakeQuery1[OrbitCamera](cmd).Map(func(eid EntityId, cam *OrbitCamera) bool {
		world.views[eid] = ExtractedView{ViewProj: cam.ViewProjection(aspect)}
		return true
	})
}

func prepareMeshesSystem(cmd *Commands, assets *AssetServer, renderAssets *RenderAssets, target *RenderTarget) {
	device := target.Target.Device()
	for _, id := range assets.MeshIds() {
		asset, _ := assets.Mesh(id)
		if cur, ok := renderAssets.meshes[id]; ok {
			if cur.version == asset.Version {
				continue
			}
			cur.mesh.Release()
			delete(renderAssets.meshes, id)
		}
		mesh, err := gpu.UploadMesh(device, string(id), asset.Vertices, asset.Indices)
		if err != nil {
			cmd.ReportError(err)
			continue
		}
		renderAssets.meshes[id] = renderMesh{mesh: mesh, version: asset.Version}
	}
}

func prepareInstanceBuffersSystem(cmd *Commands, world *RenderWorld, target *RenderTarget) {
	device := target.Target.Device()
	for eid, ext := range world.instances {
		if _, err := world.instanceBuffers.Upload(device, eid, ext.Data, ext.Length); err != nil {
			cmd.ReportError(errors.Wrapf(err, "entity %d", eid))
		}
		if _, err := world.meshUniforms.Write(device, eid, gpu.Mat4Bytes(ext.Model)); err != nil {
			cmd.ReportError(errors.Wrapf(err, "entity %d", eid))
		}
	}
	live := func(eid EntityId) bool {
		_, ok := world.instances[eid]
		return ok
	}
	world.instanceBuffers.Retain(live)
	world.meshUniforms.Retain(live)
}

func prepareViewUniformsSystem(cmd *Commands, world *RenderWorld, target *RenderTarget) {
	device := target.Target.Device()
	for eid, view := range world.views {
		if _, err := world.viewUniforms.Write(device, eid, gpu.Mat4Bytes(view.ViewProj)); err != nil {
			cmd.ReportError(errors.Wrapf(err, "view %d", eid))
		}
	}
	world.viewUniforms.Retain(func(eid EntityId) bool {
		_, ok := world.views[eid]
		return ok
	})
}

func queueInstancedSystem(
	cmd *Commands,
	world *RenderWorld,
	cache *PipelineCache,
	msaa *Msaa,
	target *RenderTarget,
	draws *DrawFunctions,
) {
	clear(world.phases)
	if len(world.views) == 0 {
		return
	}
	drawId, ok := draws.Id(instancedDrawName)
	if !ok {
		panic("instanced draw function not registered")
	}

	key := gpu.PipelineKey{SampleCount: msaa.Samples, Topology: wgpu.PrimitiveTopologyTriangleList}
	before := cache.pipelines.Len()
	pipeline, err := cache.pipelines.Specialize(target.Target.Device(), key)
	if err != nil {
		cmd.ReportError(err)
		return
	}
	if cache.pipelines.Len() != before {
		cmd.Logger().Debugf("specialized instanced pipeline for %d samples", key.SampleCount)
	}

	entities := sortedKeys(world.instances)
	for view := range world.views {
		items := make([]PhaseItem, 0, len(entities))
		for _, eid := range entities {
			items = append(items, PhaseItem{Entity: eid, Pipeline: pipeline, Draw: drawId})
		}
		world.phases[view] = items
	}
}

func renderSystem(
	cmd *Commands,
	world *RenderWorld,
	renderAssets *RenderAssets,
	draws *DrawFunctions,
	target *RenderTarget,
	settings *RenderSettings,
	stats *RenderStats,
	t *Time,
) {
	*stats = RenderStats{Frame: t.Frame}

	pass, err := target.Target.BeginFrame(settings.ClearColor)
	if err != nil {
		cmd.ReportError(errors.Wrap(err, "begin frame"))
		return
	}

	for _, view := range sortedKeys(world.phases) {
		ctx := &RenderContext{World: world, Assets: renderAssets, View: view}
		for _, item := range world.phases[view] {
			fn, ok := draws.Get(item.Draw)
			if !ok {
				stats.Failed++
				continue
			}
			switch fn.Draw(ctx, item, pass) {
			case RenderCommandSuccess:
				stats.Drawn++
			case RenderCommandSkip:
				stats.Skipped++
			case RenderCommandFailure:
				stats.Failed++
				cmd.Logger().Debugf("draw of entity %d failed", item.Entity)
			}
		}
	}

	if err := target.Target.EndFrame(); err != nil {
		cmd.ReportError(errors.Wrap(err, "end frame"))
	}
}

func sortedKeys[V any](m map[EntityId]V) []EntityId {
	keys := make([]EntityId, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// releaseRenderResources frees every GPU resource owned by the render world.
func releaseRenderResources(app *App) {
	if w := Resource[RenderWorld](app); w != nil {
		w.Release()
	}
	if a := Resource[RenderAssets](app); a != nil {
		a.Release()
	}
	if c := Resource[PipelineCache](app); c != nil {
		c.pipelines.Release()
	}
}
