package cube

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// ErrInvalidResolution is returned for cubes with fewer than two cells per axis.
var ErrInvalidResolution = errors.New("color cube resolution must be at least 2")

// Step is the grid spacing of a cube with the given resolution, which is
// also the scale of a fully occupied voxel.
func Step(resolution uint32) float32 {
	return 1.0 / float32(resolution-1)
}

// Build creates the resolution^3 voxel grid of the color cube. Every voxel
// sits at its normalized grid coordinate, is colored by that coordinate and
// starts at full occupancy.
func Build(resolution uint32) ([]InstanceData, error) {
	if resolution < 2 {
		return nil, errors.Wrapf(ErrInvalidResolution, "got %d", resolution)
	}

	r := int(resolution)
	step := Step(resolution)
	data := make([]InstanceData, 0, r*r*r)

	for xi := 0; xi < r; xi++ {
		x := float32(xi) * step
		for yi := 0; yi < r; yi++ {
			y := float32(yi) * step
			for zi := 0; zi < r; zi++ {
				z := float32(zi) * step

				data = append(data, InstanceData{
					Position: mgl32.Vec3{x, y, z},
					Scale:    step,
					Color:    [4]float32{x, y, z, 1},
				})
			}
		}
	}

	return data, nil
}
