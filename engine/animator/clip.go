package animator

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-stage/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrInvalidTrack is returned when a track's keyframe arrays are inconsistent.
var ErrInvalidTrack = errors.New("invalid animation track")

// TrackPath names the node property a track animates.
type TrackPath int

const (
	// PathTranslation animates Node.Position.
	PathTranslation TrackPath = iota
	// PathRotation animates Node.Rotation.
	PathRotation
	// PathScale animates Node.Scale.
	PathScale
)

// String returns the glTF channel path name.
func (p TrackPath) String() string {
	switch p {
	case PathTranslation:
		return "translation"
	case PathRotation:
		return "rotation"
	case PathScale:
		return "scale"
	default:
		return fmt.Sprintf("TrackPath(%d)", int(p))
	}
}

// Components returns the number of floats per keyframe value.
func (p TrackPath) Components() int {
	if p == PathRotation {
		return 4
	}
	return 3
}

// Interpolation selects how values between keyframes are computed.
type Interpolation int

const (
	// InterpolationLinear lerps vectors and slerps rotations.
	InterpolationLinear Interpolation = iota
	// InterpolationStep holds each keyframe value until the next.
	InterpolationStep
	// InterpolationCubicSpline uses Hermite splines with per-key in/out tangents.
	InterpolationCubicSpline
)

// Track animates one property of one node.
type Track struct {
	// Target is the animated node. It must belong to the model the clip came from.
	Target *scene.Node

	Path          TrackPath
	Interpolation Interpolation

	// Times are keyframe timestamps in seconds, ascending.
	Times []float32

	// Values holds Path.Components() floats per key. Cubic spline tracks store
	// in-tangent, value, out-tangent for every key. Rotations are (x, y, z, w).
	Values []float32
}

// Validate checks the keyframe arrays against the path and interpolation.
func (t *Track) Validate() error {
	if t.Target == nil {
		return fmt.Errorf("%w: no target node", ErrInvalidTrack)
	}
	if len(t.Times) == 0 {
		return fmt.Errorf("%w: no keyframes", ErrInvalidTrack)
	}
	stride := t.Path.Components()
	if t.Interpolation == InterpolationCubicSpline {
		stride *= 3
	}
	if len(t.Values) != len(t.Times)*stride {
		return fmt.Errorf("%w: %d values for %d keys of %s", ErrInvalidTrack, len(t.Values), len(t.Times), t.Path)
	}
	return nil
}

// Clip is a named set of tracks. Clips belong to the model that produced them.
type Clip struct {
	Name string

	// Duration in seconds. Playback loops at this length.
	Duration float32

	// Index is the clip's position within its model's clip list.
	Index int

	Tracks []Track
}

// ComputeDuration returns the last keyframe time across all tracks.
func (c *Clip) ComputeDuration() float32 {
	var d float32
	for i := range c.Tracks {
		if n := len(c.Tracks[i].Times); n > 0 && c.Tracks[i].Times[n-1] > d {
			d = c.Tracks[i].Times[n-1]
		}
	}
	return d
}

// keyframe locates the interval containing time: keys i and i+1 with local factor u in [0, 1].
// Times before the first key clamp to it, times after the last clamp to the last.
func (t *Track) keyframe(time float32) (i int, u float32, span float32) {
	n := len(t.Times)
	if n == 1 || time <= t.Times[0] {
		return 0, 0, 0
	}
	if time >= t.Times[n-1] {
		return n - 1, 0, 0
	}
	next := sort.Search(n, func(k int) bool { return t.Times[k] > time })
	i = next - 1
	span = t.Times[next] - t.Times[i]
	if span <= 0 {
		return i, 0, 0
	}
	return i, (time - t.Times[i]) / span, span
}

// value returns component slice of key i. For cubic splines it returns the value part.
func (t *Track) value(i int) []float32 {
	c := t.Path.Components()
	if t.Interpolation == InterpolationCubicSpline {
		base := i*3*c + c
		return t.Values[base : base+c]
	}
	return t.Values[i*c : i*c+c]
}

func (t *Track) tangents(i int) (in, out []float32) {
	c := t.Path.Components()
	base := i * 3 * c
	return t.Values[base : base+c], t.Values[base+2*c : base+3*c]
}

// sample writes the interpolated value at time into dst (Path.Components() floats).
func (t *Track) sample(time float32, dst []float32) {
	i, u, span := t.keyframe(time)
	a := t.value(i)
	if u == 0 || t.Interpolation == InterpolationStep {
		copy(dst, a)
		return
	}
	b := t.value(i + 1)

	switch t.Interpolation {
	case InterpolationCubicSpline:
		_, outA := t.tangents(i)
		inB, _ := t.tangents(i + 1)
		u2 := u * u
		u3 := u2 * u
		h00 := 2*u3 - 3*u2 + 1
		h10 := u3 - 2*u2 + u
		h01 := -2*u3 + 3*u2
		h11 := u3 - u2
		for k := range dst {
			dst[k] = h00*a[k] + h10*span*outA[k] + h01*b[k] + h11*span*inB[k]
		}
		if t.Path == PathRotation {
			q := quatFrom(dst).Normalize()
			quatTo(q, dst)
		}
	default:
		if t.Path == PathRotation {
			q := slerp(quatFrom(a), quatFrom(b), u)
			quatTo(q, dst)
			return
		}
		for k := range dst {
			dst[k] = a[k] + (b[k]-a[k])*u
		}
	}
}

func quatFrom(v []float32) mgl32.Quat {
	return mgl32.Quat{W: v[3], V: mgl32.Vec3{v[0], v[1], v[2]}}
}

func quatTo(q mgl32.Quat, dst []float32) {
	dst[0], dst[1], dst[2], dst[3] = q.V[0], q.V[1], q.V[2], q.W
}

// slerp interpolates along the shortest arc.
func slerp(a, b mgl32.Quat, u float32) mgl32.Quat {
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	return mgl32.QuatSlerp(a, b, u).Normalize()
}
