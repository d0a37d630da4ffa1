package cube

import "github.com/go-gl/mathgl/mgl32"

// Center is the pivot of color space rotations.
var Center = mgl32.Vec3{0.5, 0.5, 0.5}

// RotateColor rotates the rgb part of c around the cube center. Alpha is kept.
// The result is not clamped to the unit cube.
func RotateColor(q mgl32.Quat, c mgl32.Vec4) mgl32.Vec4 {
	p := q.Rotate(c.Vec3().Sub(Center)).Add(Center)
	return p.Vec4(c[3])
}

// RotatePixels writes the rotation of every pixel of src into dst, which must
// be at least as long as src, and returns dst[:len(src)].
func RotatePixels(q mgl32.Quat, src, dst []mgl32.Vec4) []mgl32.Vec4 {
	dst = dst[:len(src)]
	for i, c := range src {
		dst[i] = RotateColor(q, c)
	}
	return dst
}
