package cube

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_GridLayout(t *testing.T) {
	for _, r := range []uint32{2, 3, 5, 8} {
		data, err := Build(r)
		require.NoError(t, err)
		require.Len(t, data, int(r*r*r))

		step := Step(r)
		seen := map[mgl32.Vec3]bool{}
		for xi := 0; xi < int(r); xi++ {
			for yi := 0; yi < int(r); yi++ {
				for zi := 0; zi < int(r); zi++ {
					inst := data[Index(xi, yi, zi, int(r))]
					want := mgl32.Vec3{float32(xi), float32(yi), float32(zi)}.Mul(1 / float32(r-1))

					assert.InDeltaSlice(t, want[:], inst.Position[:], 1e-6, "r=%d (%d,%d,%d)", r, xi, yi, zi)
					assert.Equal(t, [4]float32{inst.Position[0], inst.Position[1], inst.Position[2], 1}, inst.Color)
					assert.Equal(t, step, inst.Scale)
					assert.False(t, seen[inst.Position], "duplicate position %v", inst.Position)
					seen[inst.Position] = true
				}
			}
		}
	}
}

func TestBuild_RejectsSmallResolution(t *testing.T) {
	for _, r := range []uint32{0, 1} {
		data, err := Build(r)
		assert.Nil(t, data)
		assert.True(t, errors.Is(err, ErrInvalidResolution), "r=%d: %v", r, err)
	}
}

func TestInstanceBytes_Layout(t *testing.T) {
	inst := InstanceData{
		Position: mgl32.Vec3{0.25, 0.5, 0.75},
		Scale:    0.125,
		Color:    [4]float32{0.1, 0.2, 0.3, 1},
	}
	buf := InstanceBytes([]InstanceData{inst, inst})
	require.Len(t, buf, 2*InstanceStride)

	want := []float32{0.25, 0.5, 0.75, 0.125, 0.1, 0.2, 0.3, 1}
	for elem := 0; elem < 2; elem++ {
		for i, f := range want {
			off := elem*InstanceStride + i*4
			got := math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
			assert.Equal(t, f, got, "element %d float %d", elem, i)
		}
	}

	assert.Nil(t, InstanceBytes(nil))
}

func TestBucket_Clamps(t *testing.T) {
	assert.Equal(t, 0, Bucket(-0.5, 4))
	assert.Equal(t, 0, Bucket(0, 4))
	assert.Equal(t, 1, Bucket(0.25, 4))
	assert.Equal(t, 3, Bucket(0.99, 4))
	assert.Equal(t, 3, Bucket(1, 4))
	assert.Equal(t, 3, Bucket(7, 4))
	assert.Equal(t, 0, Bucket(float32(math.NaN()), 4))
}

func TestUpdateHistogram_SingleRedPixel(t *testing.T) {
	data, err := Build(2)
	require.NoError(t, err)

	err = UpdateHistogram(data, []mgl32.Vec4{{1, 0, 0, 1}}, 2, 1.0)
	require.NoError(t, err)

	red := Index(1, 0, 0, 2)
	for i, inst := range data {
		if i == red {
			assert.Equal(t, float32(1), inst.Scale)
			assert.Equal(t, mgl32.Vec3{1, 0, 0}, inst.Position)
		} else {
			assert.Equal(t, float32(0), inst.Scale, "voxel %d", i)
		}
	}
}

func TestUpdateHistogram_Idempotent(t *testing.T) {
	pixels := gradientPixels(17, 9)
	data, err := Build(6)
	require.NoError(t, err)

	require.NoError(t, UpdateHistogram(data, pixels, 6, 0.01))
	first := append([]InstanceData(nil), data...)
	require.NoError(t, UpdateHistogram(data, pixels, 6, 0.01))

	assert.Equal(t, first, data)
}

func TestUpdateHistogram_ScaleBounds(t *testing.T) {
	pixels := gradientPixels(31, 7)
	pixels = append(pixels, mgl32.Vec4{-3, 2, float32(math.NaN()), 1}, mgl32.Vec4{1, 1, 1, 0})

	for _, threshold := range []float32{0.0001, 0.01, 1, 100} {
		data, err := Build(5)
		require.NoError(t, err)
		require.NoError(t, UpdateHistogram(data, pixels, 5, threshold))

		step := Step(5)
		for i, inst := range data {
			assert.GreaterOrEqual(t, inst.Scale, float32(0), "voxel %d", i)
			assert.LessOrEqual(t, inst.Scale, step, "voxel %d", i)
		}
	}
}

func TestUpdateHistogram_ZeroPixels(t *testing.T) {
	data, err := Build(3)
	require.NoError(t, err)

	require.NoError(t, UpdateHistogram(data, nil, 3, 0.001))
	for i, inst := range data {
		assert.Equal(t, float32(0), inst.Scale, "voxel %d", i)
		assert.False(t, math.IsNaN(float64(inst.Scale)))
	}
}

func TestUpdateHistogram_InstanceCountMismatch(t *testing.T) {
	data, err := Build(3)
	require.NoError(t, err)

	err = UpdateHistogram(data[:5], nil, 3, 1)
	assert.True(t, errors.Is(err, ErrInstanceCount))
}

func TestAccumulate_SumsToPixelCount(t *testing.T) {
	pixels := gradientPixels(23, 11)
	counts := Accumulate(pixels, 7)
	require.Len(t, counts, 7*7*7)

	var total uint32
	for _, c := range counts {
		total += c
	}
	assert.Equal(t, uint32(len(pixels)), total)
}

func TestRotateColor_RoundTrip(t *testing.T) {
	q := mgl32.QuatRotate(mgl32.DegToRad(73), mgl32.Vec3{0, 1, 0})
	inv := q.Inverse()

	for _, c := range gradientPixels(9, 9) {
		back := RotateColor(inv, RotateColor(q, c))
		assert.InDeltaSlice(t, c[:], back[:], 1e-5)
	}
}

func TestRotateColor_KeepsAlphaAndCenter(t *testing.T) {
	q := mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0})

	center := RotateColor(q, mgl32.Vec4{0.5, 0.5, 0.5, 0.3})
	assert.InDeltaSlice(t, []float32{0.5, 0.5, 0.5, 0.3}, center[:], 1e-6)

	// a quarter turn around green swaps the red and blue axes
	red := RotateColor(q, mgl32.Vec4{1, 0.5, 0.5, 1})
	assert.InDeltaSlice(t, []float32{0.5, 0.5, 0, 1}, red[:], 1e-5)
}

func gradientPixels(w, h int) []mgl32.Vec4 {
	pixels := make([]mgl32.Vec4, 0, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			fx := float32(x) / float32(w-1)
			fy := float32(y) / float32(h-1)
			pixels = append(pixels, mgl32.Vec4{fx, fy, 1 - fx*fy, 1})
		}
	}
	return pixels
}
