package glc

import (
	"slices"

	"github.com/glc3d/glc/render/gpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

type AssetId string

// Mesh points an entity at a MeshAsset.
type Mesh struct {
	AssetId AssetId
}

// MeshAsset is a CPU side mesh. Version grows on every change so the render
// world knows when to upload it again.
type MeshAsset struct {
	Version  uint
	Vertices []gpu.MeshVertex
	Indices  []uint16
}

type AssetServer struct {
	meshes map[AssetId]MeshAsset
}

type AssetServerModule struct{}

func (AssetServerModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(NewAssetServer())
}

func NewAssetServer() *AssetServer {
	return &AssetServer{meshes: make(map[AssetId]MeshAsset)}
}

func (server *AssetServer) LoadMesh(vertices []gpu.MeshVertex, indices []uint16) Mesh {
	id := makeAssetId()
	server.meshes[id] = MeshAsset{
		Vertices: vertices,
		Indices:  indices,
	}
	return Mesh{AssetId: id}
}

// UpdateMesh replaces the geometry of an existing mesh. Unknown ids are ignored.
func (server *AssetServer) UpdateMesh(id AssetId, vertices []gpu.MeshVertex, indices []uint16) bool {
	cur, ok := server.meshes[id]
	if !ok {
		return false
	}
	server.meshes[id] = MeshAsset{
		Version:  cur.Version + 1,
		Vertices: vertices,
		Indices:  indices,
	}
	return true
}

func (server *AssetServer) Mesh(id AssetId) (MeshAsset, bool) {
	m, ok := server.meshes[id]
	return m, ok
}

// MeshIds returns the ids of all meshes, sorted.
func (server *AssetServer) MeshIds() []AssetId {
	ids := make([]AssetId, 0, len(server.meshes))
	for id := range server.meshes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func makeAssetId() AssetId {
	return AssetId(uuid.NewString())
}

// UnitCubeMesh returns a cube of edge 1 centered at the origin, four vertices
// per face so every face has its own normal. Faces wind counter-clockwise
// seen from outside.
func UnitCubeMesh() ([]gpu.MeshVertex, []uint16) {
	faces := []struct{ n, u, v mgl32.Vec3 }{
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}},
	}
	corners := [4][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

	vertices := make([]gpu.MeshVertex, 0, 24)
	indices := make([]uint16, 0, 36)
	for _, f := range faces {
		base := uint16(len(vertices))
		center := f.n.Mul(0.5)
		for _, uv := range corners {
			p := center.
				Add(f.u.Mul(uv[0] - 0.5)).
				Add(f.v.Mul(uv[1] - 0.5))
			vertices = append(vertices, gpu.MeshVertex{
				Position: p,
				Normal:   f.n,
				UV:       uv,
			})
		}
		indices = append(indices, base, base+1, base+2, base+2, base+3, base)
	}
	return vertices, indices
}
