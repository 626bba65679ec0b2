package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// NewCapsuleGeometry builds a capsule centered on the origin along +Y: a cylinder of the
// given length capped by two hemispheres of the given radius. Total height is length+2*radius.
//
// Parameters:
//   - radius: cap and body radius
//   - length: length of the straight section
//   - capSegments: arc subdivisions per hemisphere
//   - radialSegments: subdivisions around the axis
//
// Returns:
//   - *Geometry: the capsule geometry
func NewCapsuleGeometry(radius, length float32, capSegments, radialSegments int) *Geometry {
	capSegments = max(capSegments, 1)
	half := length / 2

	type profilePoint struct {
		r, y   float32
		nr, ny float32
	}
	var profile []profilePoint
	for i := 0; i <= capSegments; i++ {
		a := float64(i) / float64(capSegments) * math.Pi / 2
		s, c := float32(math.Sin(a)), float32(math.Cos(a))
		profile = append(profile, profilePoint{r: radius * s, y: half + radius*c, nr: s, ny: c})
	}
	for i := 0; i <= capSegments; i++ {
		a := math.Pi/2 + float64(i)/float64(capSegments)*math.Pi/2
		s, c := float32(math.Sin(a)), float32(math.Cos(a))
		profile = append(profile, profilePoint{r: radius * s, y: -half + radius*c, nr: s, ny: c})
	}

	g := &Geometry{}
	lathe(g, len(profile), radialSegments, func(i int) (r, y, nr, ny float32) {
		p := profile[i]
		return p.r, p.y, p.nr, p.ny
	})
	return g
}

// NewSphereGeometry builds a UV sphere centered on the origin.
//
// Parameters:
//   - radius: sphere radius
//   - widthSegments: subdivisions around the Y axis
//   - heightSegments: subdivisions from pole to pole
//
// Returns:
//   - *Geometry: the sphere geometry
func NewSphereGeometry(radius float32, widthSegments, heightSegments int) *Geometry {
	heightSegments = max(heightSegments, 2)
	g := &Geometry{}
	lathe(g, heightSegments+1, widthSegments, func(i int) (r, y, nr, ny float32) {
		theta := float64(i) / float64(heightSegments) * math.Pi
		s, c := float32(math.Sin(theta)), float32(math.Cos(theta))
		return radius * s, radius * c, s, c
	})
	return g
}

// lathe revolves a profile around +Y. rings is the profile length; point returns the
// radius, height and the radial/vertical normal components of profile point i, ordered top to bottom.
func lathe(g *Geometry, rings, radialSegments int, point func(i int) (r, y, nr, ny float32)) {
	radialSegments = max(radialSegments, 3)
	for i := 0; i < rings; i++ {
		r, y, nr, ny := point(i)
		for j := 0; j <= radialSegments; j++ {
			phi := float64(j) / float64(radialSegments) * 2 * math.Pi
			sp, cp := float32(math.Sin(phi)), float32(math.Cos(phi))
			g.Positions = append(g.Positions, mgl32.Vec3{r * sp, y, r * cp})
			g.Normals = append(g.Normals, mgl32.Vec3{nr * sp, ny, nr * cp}.Normalize())
		}
	}
	stride := uint32(radialSegments + 1)
	for i := 0; i < rings-1; i++ {
		for j := 0; j < radialSegments; j++ {
			a := uint32(i)*stride + uint32(j)
			b := a + stride
			g.Indices = append(g.Indices, a, b, a+1, b, b+1, a+1)
		}
	}
}

// NewCircleGeometry builds a filled disc in the XY plane facing +Z.
//
// Parameters:
//   - radius: disc radius
//   - segments: subdivisions around the rim
//
// Returns:
//   - *Geometry: the disc geometry
func NewCircleGeometry(radius float32, segments int) *Geometry {
	segments = max(segments, 3)
	g := &Geometry{}
	g.Positions = append(g.Positions, mgl32.Vec3{0, 0, 0})
	g.Normals = append(g.Normals, mgl32.Vec3{0, 0, 1})
	for i := 0; i <= segments; i++ {
		a := float64(i) / float64(segments) * 2 * math.Pi
		g.Positions = append(g.Positions, mgl32.Vec3{radius * float32(math.Cos(a)), radius * float32(math.Sin(a)), 0})
		g.Normals = append(g.Normals, mgl32.Vec3{0, 0, 1})
	}
	for i := 1; i <= segments; i++ {
		g.Indices = append(g.Indices, uint32(i), uint32(i+1), 0)
	}
	return g
}

// NewRingGeometry builds a flat annulus in the XY plane facing +Z.
//
// Parameters:
//   - innerRadius: hole radius
//   - outerRadius: rim radius
//   - segments: subdivisions around the rim
//
// Returns:
//   - *Geometry: the ring geometry
func NewRingGeometry(innerRadius, outerRadius float32, segments int) *Geometry {
	segments = max(segments, 3)
	g := &Geometry{}
	for i := 0; i <= segments; i++ {
		a := float64(i) / float64(segments) * 2 * math.Pi
		c, s := float32(math.Cos(a)), float32(math.Sin(a))
		g.Positions = append(g.Positions,
			mgl32.Vec3{innerRadius * c, innerRadius * s, 0},
			mgl32.Vec3{outerRadius * c, outerRadius * s, 0},
		)
		g.Normals = append(g.Normals, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 0, 1})
	}
	for i := 0; i < segments; i++ {
		in0, out0 := uint32(2*i), uint32(2*i+1)
		in1, out1 := in0+2, out0+2
		g.Indices = append(g.Indices, in0, out0, out1, in0, out1, in1)
	}
	return g
}
