// Package renderer draws a stage scene through a camera. The Renderer flattens the scene
// graph into a Frame (uniforms, CPU-skinned vertices, draw order) and hands it to a
// RendererBackend, which owns the GPU.
package renderer

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-stage/common"
	"github.com/Carmen-Shannon/oxy-stage/engine/camera"
	"github.com/Carmen-Shannon/oxy-stage/engine/light"
	"github.com/Carmen-Shannon/oxy-stage/engine/scene"
	"github.com/Carmen-Shannon/oxy-stage/engine/window"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrRendererDisposed is returned by Render after Dispose.
	ErrRendererDisposed = errors.New("renderer disposed")

	// ErrNoSurface is returned when the canvas cannot provide a surface to present to.
	ErrNoSurface = errors.New("canvas has no surface")
)

// Factory creates a renderer bound to a canvas. Sessions receive one instead of
// constructing renderers directly, so tests can substitute a recording backend.
type Factory func(canvas window.Canvas, options ...RendererBuilderOption) (Renderer, error)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend

	width, height int
	frames        int
	disposed      bool

	// per-mesh scratch reused across frames for CPU skinning
	skinScratch map[*scene.Mesh]*skinBuffers

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	presentMode          PresentMode
	msaa                 MSAASampleCount
}

type skinBuffers struct {
	positions, normals []mgl32.Vec3
}

// Renderer draws one session's scene. All methods must be called from the host loop.
type Renderer interface {
	// SetSize resizes the backbuffer. Zero or negative sizes are ignored.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	SetSize(width, height int)

	// Size returns the current backbuffer size.
	Size() (width, height int)

	// Render draws the scene as seen by cam and presents it.
	// Rendering into a zero-sized backbuffer is a no-op.
	//
	// Parameters:
	//   - s: the scene to draw
	//   - cam: the viewpoint
	//
	// Returns:
	//   - error: ErrRendererDisposed after Dispose, or a backend error
	Render(s scene.Scene, cam camera.Camera) error

	// FrameCount returns the number of frames handed to the backend.
	FrameCount() int

	// Dispose releases the backend. Safe to call more than once.
	Dispose()
}

var _ Renderer = &renderer{}

// NewRenderer creates a renderer for canvas. Without WithBackend the WebGPU backend is
// created from the canvas surface descriptor.
//
// Parameters:
//   - canvas: the canvas to draw into
//   - options: functional options applied in order
//
// Returns:
//   - Renderer: the renderer, sized to the canvas
//   - error: ErrNoSurface, or an error from backend creation
func NewRenderer(canvas window.Canvas, options ...RendererBuilderOption) (Renderer, error) {
	if canvas == nil {
		panic("renderer: NewRenderer requires a canvas")
	}
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: BackendTypeWGPU,
		presentMode: PresentModeVSync,
		msaa:        MSAA4x,
		skinScratch: make(map[*scene.Mesh]*skinBuffers),
	}
	for _, opt := range options {
		opt(r)
	}

	if r.backend == nil {
		switch r.backendType {
		case BackendTypeWGPU:
			fallthrough
		default:
			desc := canvas.SurfaceDescriptor()
			if desc == nil {
				return nil, ErrNoSurface
			}
			b, err := newWGPURendererBackend(desc, r.forceFallbackAdapter, r.msaa, r.presentMode)
			if err != nil {
				return nil, fmt.Errorf("create wgpu backend: %w", err)
			}
			r.backend = b
		}
	}

	w, h := canvas.ClientSize()
	if w > 0 && h > 0 {
		if err := r.backend.Configure(w, h); err != nil {
			r.backend.Release()
			return nil, fmt.Errorf("configure surface: %w", err)
		}
		r.width, r.height = w, h
	}
	return r, nil
}

func (r *renderer) SetSize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disposed || width <= 0 || height <= 0 {
		return
	}
	if width == r.width && height == r.height {
		return
	}
	if err := r.backend.Configure(width, height); err != nil {
		log.Printf("[Renderer] resize to %dx%d failed: %v", width, height, err)
		return
	}
	r.width, r.height = width, height
}

func (r *renderer) Size() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

func (r *renderer) FrameCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

func (r *renderer) Render(s scene.Scene, cam camera.Camera) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disposed {
		return ErrRendererDisposed
	}
	if r.width <= 0 || r.height <= 0 || s == nil || cam == nil {
		return nil
	}

	frame := r.buildFrame(s, cam)
	r.frames++
	return r.backend.Draw(frame)
}

func (r *renderer) Dispose() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disposed {
		return
	}
	r.disposed = true
	r.backend.Release()
	r.skinScratch = nil
}

// buildFrame flattens the scene into uniforms and an ordered draw list. Caller must hold mu.
func (r *renderer) buildFrame(s scene.Scene, cam camera.Camera) *Frame {
	frame := &Frame{
		Width:  r.width,
		Height: r.height,
		Clear:  s.Background(),
	}
	u := &frame.Uniforms
	u.ViewProj = cam.ViewProjectionMatrix()
	eye := cam.Position()
	u.CameraPos = [4]float32{eye[0], eye[1], eye[2], 1}
	u.LightViewProj = [16]float32(mgl32.Ident4())

	directional := 0
	for _, l := range s.Lights() {
		radiance := l.Color().Scale(l.Intensity())
		switch l.Type() {
		case light.LightTypeAmbient:
			u.Ambient[0] += radiance.R
			u.Ambient[1] += radiance.G
			u.Ambient[2] += radiance.B
		case light.LightTypeDirectional:
			if directional >= MaxDirectionalLights {
				continue
			}
			d := l.Direction()
			u.LightDirs[directional] = [4]float32{d[0], d[1], d[2], 0}
			u.LightColors[directional] = radiance.Vec4(1)
			directional++
			if l.CastsShadows() && frame.ShadowMapSize == 0 {
				frame.ShadowMapSize = common.Coalesce(l.ShadowMapSize(), light.ShadowMapResolutionLow)
				u.LightViewProj = shadowViewProjection(l.Position())
			}
		}
	}

	if fog := s.Fog(); fog != nil {
		u.FogColor = fog.Color.Vec4(1)
		u.Params[0] = fog.Near
		u.Params[1] = fog.Far
	}
	u.Params[2] = light.DefaultShadowBias
	if frame.Shadows() {
		u.Params[3] = 1
	}

	view := mgl32.Mat4(cam.ViewMatrix())
	seen := make(map[*scene.Mesh]bool)
	s.Root().TraverseWorld(func(n *scene.Node, world mgl32.Mat4) {
		for _, m := range n.Meshes {
			if m == nil || m.Geometry == nil || len(m.Geometry.Indices) == 0 || m.Material == nil {
				continue
			}
			seen[m] = true
			frame.Items = append(frame.Items, r.drawItem(m, world, view))
		}
	})
	for m := range r.skinScratch {
		if !seen[m] {
			delete(r.skinScratch, m)
		}
	}

	sortDrawItems(frame.Items)
	return frame
}

// drawItem builds the draw for one mesh. Caller must hold mu.
func (r *renderer) drawItem(m *scene.Mesh, world, view mgl32.Mat4) DrawItem {
	mat := m.Material
	item := DrawItem{
		Mesh:        m,
		Transparent: mat.Transparent || mat.Opacity < 1,
		CastShadow:  m.CastShadow,
		DoubleSided: mat.DoubleSided,
	}
	item.Object.Model = [16]float32(world)
	item.Object.Color = mat.Color.Vec4(mat.Opacity)
	emissive := mat.Emissive.Scale(mat.EmissiveIntensity)
	item.Object.Emissive = [4]float32{emissive.R, emissive.G, emissive.B, mat.Roughness}
	if m.ReceiveShadow {
		item.Object.Flags[0] = 1
	}
	item.Object.Flags[1] = mat.Metalness

	center := world.Col(3).Vec3()
	if m.Skinned() {
		buf := r.skinScratch[m]
		if buf == nil {
			buf = &skinBuffers{normals: []mgl32.Vec3{}}
			r.skinScratch[m] = buf
		}
		buf.positions, buf.normals = m.Deform(world, buf.positions, buf.normals)
		item.Positions = buf.positions
		item.Normals = buf.normals
		item.Object.Model = [16]float32(mgl32.Ident4())
		if len(buf.positions) > 0 {
			center = buf.positions[0]
		}
	}
	item.depth = -view.Mul4x1(center.Vec4(1))[2]
	return item
}

// sortDrawItems orders opaque items first in traversal order, then transparent items
// back to front.
func sortDrawItems(items []DrawItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := &items[i], &items[j]
		if a.Transparent != b.Transparent {
			return !a.Transparent
		}
		if a.Transparent {
			return a.depth > b.depth
		}
		return false
	})
}

// shadowViewProjection returns the orthographic view-projection of a directional light
// shining from position toward the origin, framing the stage disc.
func shadowViewProjection(position [3]float32) [16]float32 {
	var view, proj, out [16]float32
	up := [3]float32{0, 1, 0}
	if position[0] == 0 && position[2] == 0 {
		up = [3]float32{0, 0, 1}
	}
	common.LookAt(view[:], position[0], position[1], position[2], 0, 0, 0, up[0], up[1], up[2])
	e := light.DefaultShadowHalfExtent
	common.Orthographic(proj[:], -e, e, -e, e, light.DefaultShadowNear, light.DefaultShadowFar)
	common.Mul4(out[:], proj[:], view[:])
	return out
}
