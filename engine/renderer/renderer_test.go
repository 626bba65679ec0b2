package renderer_test

import (
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-stage/common"
	"github.com/Carmen-Shannon/oxy-stage/engine/camera"
	"github.com/Carmen-Shannon/oxy-stage/engine/light"
	"github.com/Carmen-Shannon/oxy-stage/engine/renderer"
	"github.com/Carmen-Shannon/oxy-stage/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/oxy-stage/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

func newTestRenderer(t *testing.T, w, h int) (renderer.Renderer, *renderertest.Backend) {
	t.Helper()
	backend := &renderertest.Backend{}
	r, err := renderer.NewRenderer(renderertest.NewCanvas(w, h), renderer.WithBackend(backend))
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r, backend
}

func triangleMesh(name string, mat *scene.Material) *scene.Mesh {
	return &scene.Mesh{
		Name: name,
		Geometry: &scene.Geometry{
			Positions: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
			Normals:   []mgl32.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
			Indices:   []uint32{0, 1, 2},
		},
		Material: mat,
	}
}

func testCamera() camera.Camera {
	return camera.NewCamera(camera.WithPosition(0, 1, 5), camera.WithTarget(0, 1, 0))
}

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func TestNewRendererRequiresSurface(t *testing.T) {
	_, err := renderer.NewRenderer(renderertest.NewCanvas(100, 100))
	if !errors.Is(err, renderer.ErrNoSurface) {
		t.Fatalf("err = %v, want ErrNoSurface", err)
	}
}

func TestNewRendererConfiguresCanvasSize(t *testing.T) {
	r, backend := newTestRenderer(t, 640, 480)
	if w, h := r.Size(); w != 640 || h != 480 {
		t.Fatalf("Size = %dx%d, want 640x480", w, h)
	}
	if len(backend.Configured) != 1 || backend.Configured[0] != [2]int{640, 480} {
		t.Fatalf("Configured = %v", backend.Configured)
	}
}

func TestSetSize(t *testing.T) {
	r, backend := newTestRenderer(t, 640, 480)

	r.SetSize(0, 300)
	r.SetSize(800, -1)
	r.SetSize(640, 480)
	if len(backend.Configured) != 1 {
		t.Fatalf("zero, negative and unchanged sizes reconfigured: %v", backend.Configured)
	}

	r.SetSize(1024, 768)
	if w, h := r.Size(); w != 1024 || h != 768 {
		t.Fatalf("Size = %dx%d, want 1024x768", w, h)
	}
	if got := backend.Configured[len(backend.Configured)-1]; got != [2]int{1024, 768} {
		t.Fatalf("last Configure = %v", got)
	}
}

func TestRenderBuildsFrame(t *testing.T) {
	r, backend := newTestRenderer(t, 640, 480)
	s := scene.NewScene(
		scene.WithBackground(0x0a0a0f),
		scene.WithFog(0x0a0a0f, 5, 15),
		scene.WithLights(
			light.NewLight(light.LightTypeAmbient, light.WithColor(0xffffff), light.WithIntensity(0.5)),
			light.NewLight(light.LightTypeDirectional, light.WithPosition(3, 4, 2), light.WithShadows(2048)),
			light.NewLight(light.LightTypeDirectional, light.WithPosition(-2, 2, -1), light.WithIntensity(0.6)),
		),
	)
	node := scene.NewNode("model")
	node.Position = mgl32.Vec3{1, 2, 3}
	mat := scene.NewMaterial("red")
	mat.Color = common.Color{R: 1}
	mat.Emissive = common.Color{G: 1}
	mat.EmissiveIntensity = 0.5
	mesh := triangleMesh("tri", mat)
	mesh.CastShadow = true
	mesh.ReceiveShadow = true
	node.Meshes = append(node.Meshes, mesh)
	s.Add(node)

	if err := r.Render(s, testCamera()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if backend.Frames != 1 || r.FrameCount() != 1 {
		t.Fatalf("frames = %d/%d, want 1", backend.Frames, r.FrameCount())
	}

	f := backend.Last
	if f.Clear != common.HexColor(0x0a0a0f) {
		t.Errorf("Clear = %v", f.Clear)
	}
	if f.ShadowMapSize != 2048 || !f.Shadows() || f.Casters() != 1 {
		t.Errorf("shadow map %d casters %d", f.ShadowMapSize, f.Casters())
	}
	u := f.Uniforms
	if !near(u.Ambient[0], 0.5) || !near(u.Ambient[2], 0.5) {
		t.Errorf("Ambient = %v", u.Ambient)
	}
	if !near(u.LightColors[1][0], 0.6) {
		t.Errorf("fill radiance = %v", u.LightColors[1])
	}
	if u.LightColors[2] != [4]float32{} {
		t.Errorf("unused light slot = %v", u.LightColors[2])
	}
	if u.Params[0] != 5 || u.Params[1] != 15 || u.Params[3] != 1 || u.FogColor[3] != 1 {
		t.Errorf("Params = %v FogColor = %v", u.Params, u.FogColor)
	}

	if len(f.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(f.Items))
	}
	item := f.Items[0]
	if item.Dynamic() {
		t.Error("rigid mesh marked dynamic")
	}
	if item.Object.Model[12] != 1 || item.Object.Model[13] != 2 || item.Object.Model[14] != 3 {
		t.Errorf("model translation = %v", item.Object.Model[12:15])
	}
	if item.Object.Color != [4]float32{1, 0, 0, 1} {
		t.Errorf("Color = %v", item.Object.Color)
	}
	if !near(item.Object.Emissive[1], 0.5) || item.Object.Emissive[3] != 1 {
		t.Errorf("Emissive = %v", item.Object.Emissive)
	}
	if item.Object.Flags[0] != 1 {
		t.Errorf("receive shadow flag = %v", item.Object.Flags[0])
	}
}

func TestRenderWithoutCasterSkipsShadows(t *testing.T) {
	r, backend := newTestRenderer(t, 64, 64)
	s := scene.NewScene(scene.WithLights(light.NewLight(light.LightTypeDirectional, light.WithPosition(3, 4, 2))))
	n := scene.NewNode("n")
	m := triangleMesh("tri", scene.NewMaterial("m"))
	m.CastShadow = true
	n.Meshes = append(n.Meshes, m)
	s.Add(n)

	if err := r.Render(s, testCamera()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if backend.Last.Shadows() || backend.Last.Casters() != 0 || backend.Last.Uniforms.Params[3] != 0 {
		t.Fatalf("shadows enabled without a caster light: %+v", backend.Last.Uniforms.Params)
	}
}

func TestRenderOrdersTransparentBackToFront(t *testing.T) {
	r, backend := newTestRenderer(t, 64, 64)
	s := scene.NewScene()

	add := func(name string, z float32, opacity float32) {
		n := scene.NewNode(name)
		n.Position = mgl32.Vec3{0, 0, z}
		mat := scene.NewMaterial(name)
		mat.Opacity = opacity
		n.Meshes = append(n.Meshes, triangleMesh(name, mat))
		s.Add(n)
	}
	add("glass-near", 2, 0.3)
	add("solid", 0, 1)
	add("glass-far", -2, 0.3)

	if err := r.Render(s, testCamera()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	var order []string
	for _, it := range backend.Last.Items {
		order = append(order, it.Mesh.Name)
	}
	want := []string{"solid", "glass-far", "glass-near"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
	if !backend.Last.Items[1].Transparent || backend.Last.Items[0].Transparent {
		t.Fatal("transparency flags not carried")
	}
}

func TestRenderSkinnedMeshOnCPU(t *testing.T) {
	r, backend := newTestRenderer(t, 64, 64)
	s := scene.NewScene()

	model := scene.NewNode("model")
	joint := scene.NewNode("joint")
	model.Add(joint)
	m := triangleMesh("skinned", scene.NewMaterial("skin"))
	m.Geometry.Joints = [][4]uint16{{0}, {0}, {0}}
	m.Geometry.Weights = [][4]float32{{1}, {1}, {1}}
	m.Skin = &scene.Skin{Joints: []*scene.Node{joint}, InverseBind: []mgl32.Mat4{mgl32.Ident4()}}
	model.Meshes = append(model.Meshes, m)
	s.Add(model)

	joint.Position = mgl32.Vec3{0, 5, 0}
	if err := r.Render(s, testCamera()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	item := backend.Last.Items[0]
	if !item.Dynamic() {
		t.Fatal("skinned mesh not dynamic")
	}
	if item.Object.Model != [16]float32(mgl32.Ident4()) {
		t.Errorf("skinned model matrix = %v, want identity", item.Object.Model)
	}
	if item.Positions[1] != (mgl32.Vec3{1, 5, 0}) {
		t.Errorf("deformed vertex = %v, want (1,5,0)", item.Positions[1])
	}

	joint.Position = mgl32.Vec3{0, -1, 0}
	_ = r.Render(s, testCamera())
	if got := backend.Last.Items[0].Positions[2]; got != (mgl32.Vec3{0, 0, 0}) {
		t.Errorf("second frame vertex = %v, want origin", got)
	}
}

func TestRenderZeroSizeIsNoop(t *testing.T) {
	r, backend := newTestRenderer(t, 0, 0)
	if err := r.Render(scene.NewScene(), testCamera()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if backend.Frames != 0 || len(backend.Configured) != 0 {
		t.Fatalf("zero-sized canvas drew %d frames, configured %v", backend.Frames, backend.Configured)
	}
}

func TestRenderPropagatesBackendError(t *testing.T) {
	r, backend := newTestRenderer(t, 64, 64)
	backend.FailDraws = true
	if err := r.Render(scene.NewScene(), testCamera()); !errors.Is(err, renderertest.ErrDrawFailed) {
		t.Fatalf("err = %v, want ErrDrawFailed", err)
	}
}

func TestDispose(t *testing.T) {
	r, backend := newTestRenderer(t, 64, 64)
	r.Dispose()
	r.Dispose()
	if !backend.Released {
		t.Fatal("backend not released")
	}
	if err := r.Render(scene.NewScene(), testCamera()); !errors.Is(err, renderer.ErrRendererDisposed) {
		t.Fatalf("err = %v, want ErrRendererDisposed", err)
	}
	r.SetSize(10, 10)
	if len(backend.Configured) != 1 {
		t.Fatal("SetSize after Dispose reconfigured the backend")
	}
}

func TestUniformLayouts(t *testing.T) {
	var f renderer.GPUFrameUniforms
	var o renderer.GPUObjectUniforms
	if f.Size() != 288 || len(f.Marshal()) != 288 {
		t.Errorf("frame uniforms size = %d/%d, want 288", f.Size(), len(f.Marshal()))
	}
	if o.Size() != 112 || len(o.Marshal()) != 112 {
		t.Errorf("object uniforms size = %d/%d, want 112", o.Size(), len(o.Marshal()))
	}

	o.Color = [4]float32{0, 0, 0, 1}
	buf := o.Marshal()
	if got := math.Float32frombits(uint32(buf[76]) | uint32(buf[77])<<8 | uint32(buf[78])<<16 | uint32(buf[79])<<24); got != 1 {
		t.Errorf("opacity at offset 76 = %v, want 1", got)
	}

	if got := len(renderer.InterleaveVertices([]mgl32.Vec3{{}, {}}, nil)); got != 48 {
		t.Errorf("interleaved size = %d, want 48", got)
	}
	if got := len(renderer.PackIndices([]uint32{1, 2, 3})); got != 12 {
		t.Errorf("packed indices = %d, want 12", got)
	}
}
