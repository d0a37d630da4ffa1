package cube

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// ErrInstanceCount is returned when an instance list does not match the cube resolution.
var ErrInstanceCount = errors.New("instance count does not match cube resolution")

// Bucket returns the cell index of a color channel value along one axis.
func Bucket(channel float32, resolution uint32) int {
	if math32.IsNaN(channel) {
		return 0
	}
	idx := math32.Floor(channel * float32(resolution))
	if idx < 0 {
		return 0
	}
	if idx > float32(resolution-1) {
		return int(resolution - 1)
	}
	return int(idx)
}

// BucketIndex returns the flattened voxel index a pixel falls into. Alpha is ignored.
func BucketIndex(pixel mgl32.Vec4, resolution uint32) int {
	r := int(resolution)
	return Index(
		Bucket(pixel[0], resolution),
		Bucket(pixel[1], resolution),
		Bucket(pixel[2], resolution),
		r,
	)
}

// Accumulate counts the pixels falling into every voxel of the cube.
func Accumulate(pixels []mgl32.Vec4, resolution uint32) []uint32 {
	r := int(resolution)
	counts := make([]uint32, r*r*r)
	for _, p := range pixels {
		counts[BucketIndex(p, resolution)]++
	}
	return counts
}

// UpdateHistogram recomputes every voxel scale from the pixel density of its
// bucket. Scales are reset first so repeated updates never accumulate, and are
// clamped to the grid step so voxels never outgrow their cell.
func UpdateHistogram(instances []InstanceData, pixels []mgl32.Vec4, resolution uint32, threshold float32) error {
	if resolution < 2 {
		return errors.Wrapf(ErrInvalidResolution, "got %d", resolution)
	}
	r := int(resolution)
	if len(instances) != r*r*r {
		return errors.Wrapf(ErrInstanceCount, "have %d instances for resolution %d", len(instances), resolution)
	}

	for i := range instances {
		instances[i].Scale = 0
	}

	// zero pixels means no occupancy
	if len(pixels) == 0 {
		return nil
	}

	step := Step(resolution)
	for _, p := range pixels {
		instances[BucketIndex(p, resolution)].Scale += step
	}

	thresholdTotal := threshold * float32(len(pixels))
	if thresholdTotal <= 0 || math32.IsNaN(thresholdTotal) || math32.IsInf(thresholdTotal, 0) {
		for i := range instances {
			instances[i].Scale = 0
		}
		return nil
	}

	for i := range instances {
		instances[i].Scale = mgl32.Clamp(instances[i].Scale/thresholdTotal, 0, step)
	}
	return nil
}
