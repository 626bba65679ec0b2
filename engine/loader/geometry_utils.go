package loader

import (
	"github.com/go-gl/mathgl/mgl32"
)

// generateNormals computes smooth per-vertex normals by accumulating area-weighted face normals
// of every triangle a vertex belongs to. Vertices touched by no triangle point up.
//
// Parameters:
//   - positions: vertex positions
//   - indices: the triangle index buffer
//
// Returns:
//   - []mgl32.Vec3: one unit normal per position
func generateNormals(positions []mgl32.Vec3, indices []uint32) []mgl32.Vec3 {
	n := len(positions)
	accum := make([]mgl32.Vec3, n)

	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		if int(i0) >= n || int(i1) >= n || int(i2) >= n {
			continue
		}
		p0 := positions[i0]
		face := positions[i1].Sub(p0).Cross(positions[i2].Sub(p0))
		accum[i0] = accum[i0].Add(face)
		accum[i1] = accum[i1].Add(face)
		accum[i2] = accum[i2].Add(face)
	}

	for i := range accum {
		if accum[i].Len() < 1e-6 {
			accum[i] = mgl32.Vec3{0, 1, 0}
			continue
		}
		accum[i] = accum[i].Normalize()
	}
	return accum
}

// sequentialIndices returns 0..n-1 for non-indexed geometry.
func sequentialIndices(n int) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = uint32(i)
	}
	return out
}

// decomposeMatrix splits a column-major affine matrix into translation, rotation and scale.
// Shear is discarded.
func decomposeMatrix(m mgl32.Mat4) (mgl32.Vec3, mgl32.Quat, mgl32.Vec3) {
	t := mgl32.Vec3{m[12], m[13], m[14]}

	sx := mgl32.Vec3{m[0], m[1], m[2]}.Len()
	sy := mgl32.Vec3{m[4], m[5], m[6]}.Len()
	sz := mgl32.Vec3{m[8], m[9], m[10]}.Len()
	if m.Mat3().Det() < 0 {
		sx = -sx
	}
	s := mgl32.Vec3{sx, sy, sz}

	safe := func(v float32) float32 {
		if v > -1e-4 && v < 1e-4 {
			return 1
		}
		return v
	}
	sx, sy, sz = safe(sx), safe(sy), safe(sz)

	r := mgl32.Mat4{
		m[0] / sx, m[1] / sx, m[2] / sx, 0,
		m[4] / sy, m[5] / sy, m[6] / sy, 0,
		m[8] / sz, m[9] / sz, m[10] / sz, 0,
		0, 0, 0, 1,
	}
	return t, mgl32.Mat4ToQuat(r).Normalize(), s
}

func vec3(v []float32, i int) mgl32.Vec3 {
	return mgl32.Vec3{v[i*3], v[i*3+1], v[i*3+2]}
}
