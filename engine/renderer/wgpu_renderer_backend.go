package renderer

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-stage/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
)

var errNotConfigured = errors.New("surface not configured")

// gpuMesh is the GPU side of one scene mesh: its vertex and index buffers plus the
// per-object uniform buffer and the bind group that exposes it.
type gpuMesh struct {
	vertexBuffer  *wgpu.Buffer
	indexBuffer   *wgpu.Buffer
	uniformBuffer *wgpu.Buffer
	bindGroup     *wgpu.BindGroup
	vertexBytes   int
	indexCount    uint32
}

func (m *gpuMesh) release() {
	if m.bindGroup != nil {
		m.bindGroup.Release()
	}
	for _, buf := range []*wgpu.Buffer{m.vertexBuffer, m.indexBuffer, m.uniformBuffer} {
		if buf != nil {
			buf.Release()
		}
	}
}

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat        wgpu.TextureFormat
	presentMode          wgpu.PresentMode
	sampleCount          MSAASampleCount
	msaaTexture          *wgpu.Texture
	msaaTextureView      *wgpu.TextureView
	depthTexture         *wgpu.Texture
	depthTextureView     *wgpu.TextureView
	renderPassDescriptor *wgpu.RenderPassDescriptor

	frameLayout       *wgpu.BindGroupLayout
	shadowFrameLayout *wgpu.BindGroupLayout
	objectLayout      *wgpu.BindGroupLayout

	opaquePipeline      *wgpu.RenderPipeline
	transparentPipeline *wgpu.RenderPipeline
	shadowPipeline      *wgpu.RenderPipeline

	frameBuffer          *wgpu.Buffer
	frameBindGroup       *wgpu.BindGroup
	shadowFrameBindGroup *wgpu.BindGroup

	// The shadow map is a Depth32Float texture rendered from the caster's point of view.
	// A 1x1 map stays bound when no light casts shadows.
	shadowTexture     *wgpu.Texture
	shadowTextureView *wgpu.TextureView
	shadowSampler     *wgpu.Sampler
	shadowMapSize     int

	meshes map[*scene.Mesh]*gpuMesh
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

// newWGPURendererBackend creates the instance, adapter, device and fixed pipelines for a surface.
// The calling goroutine is locked to its OS thread, as the surface requires.
func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, sampleCount MSAASampleCount, mode PresentMode) (*wgpuRendererBackendImpl, error) {
	runtime.LockOSThread()
	b := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeFifo,
		sampleCount: sampleCount,
		meshes:      make(map[*scene.Mesh]*gpuMesh),
	}
	if sampleCount < MSAAOff {
		b.sampleCount = MSAAOff
	}
	if mode == PresentModeUncapped {
		b.presentMode = wgpu.PresentModeImmediate
	}
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	b.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Stage Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("request device: %w", err)
	}
	b.device = d
	b.queue = d.GetQueue()

	capabilities := b.surface.GetCapabilities(b.adapter)
	if len(capabilities.Formats) == 0 {
		b.Release()
		return nil, errors.New("surface reports no formats")
	}
	b.surfaceFormat = capabilities.Formats[0]

	if err := b.createPipelines(); err != nil {
		b.Release()
		return nil, err
	}
	if err := b.ensureShadowMap(1); err != nil {
		b.Release()
		return nil, err
	}
	return b, nil
}

func (b *wgpuRendererBackendImpl) Configure(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	capabilities := b.surface.GetCapabilities(b.adapter)
	alphaMode := wgpu.CompositeAlphaModeAuto
	if len(capabilities.AlphaModes) > 0 {
		alphaMode = capabilities.AlphaModes[0]
	}
	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   alphaMode,
	})

	b.releaseTargets()
	count := uint32(b.sampleCount)
	msaaEnabled := count > 1

	if msaaEnabled {
		// The render pass draws into the MSAA texture; the resolved result is written
		// to the swapchain view as the ResolveTarget.
		tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label: "MSAA Texture",
			Size: wgpu.Extent3D{
				Width:              uint32(width),
				Height:             uint32(height),
				DepthOrArrayLayers: 1,
			},
			MipLevelCount: 1,
			SampleCount:   count,
			Dimension:     wgpu.TextureDimension2D,
			Format:        b.surfaceFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			return err
		}
		b.msaaTexture = tex
		if b.msaaTextureView, err = tex.CreateView(nil); err != nil {
			return err
		}
	}

	// Depth texture sample count must match the color attachment.
	depth, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   count,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return err
	}
	b.depthTexture = depth
	if b.depthTextureView, err = depth.CreateView(nil); err != nil {
		return err
	}

	storeOp := wgpu.StoreOpStore
	if msaaEnabled {
		storeOp = wgpu.StoreOpDiscard
	}
	b.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:    b.msaaTextureView, // nil when MSAA is off; set per frame
				LoadOp:  wgpu.LoadOpClear,
				StoreOp: storeOp,
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	}
	return nil
}

func (b *wgpuRendererBackendImpl) Draw(frame *Frame) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.renderPassDescriptor == nil {
		return errNotConfigured
	}
	if err := b.ensureShadowMap(frame.ShadowMapSize); err != nil {
		return err
	}
	b.queue.WriteBuffer(b.frameBuffer, 0, frame.Uniforms.Marshal())

	meshes := make([]*gpuMesh, len(frame.Items))
	live := make(map[*scene.Mesh]bool, len(frame.Items))
	for i := range frame.Items {
		gm, err := b.uploadMesh(&frame.Items[i])
		if err != nil {
			return fmt.Errorf("upload mesh %q: %w", frame.Items[i].Mesh.Name, err)
		}
		meshes[i] = gm
		live[frame.Items[i].Mesh] = true
	}
	for m, gm := range b.meshes {
		if !live[m] {
			gm.release()
			delete(b.meshes, m)
		}
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	defer surfaceTexture.Release()
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		return err
	}
	defer view.Release()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()

	if frame.Shadows() {
		pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
			DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
				View:            b.shadowTextureView,
				DepthLoadOp:     wgpu.LoadOpClear,
				DepthStoreOp:    wgpu.StoreOpStore,
				DepthClearValue: 1.0,
			},
		})
		pass.SetPipeline(b.shadowPipeline)
		pass.SetBindGroup(0, b.shadowFrameBindGroup, nil)
		for i := range frame.Items {
			if frame.Items[i].CastShadow {
				drawMesh(pass, meshes[i])
			}
		}
		pass.End()
	}

	attachment := &b.renderPassDescriptor.ColorAttachments[0]
	if b.sampleCount > 1 {
		attachment.ResolveTarget = view
	} else {
		attachment.View = view
	}
	attachment.ClearValue = wgpu.Color{
		R: float64(frame.Clear.R),
		G: float64(frame.Clear.G),
		B: float64(frame.Clear.B),
		A: 1,
	}
	pass := encoder.BeginRenderPass(b.renderPassDescriptor)
	pass.SetBindGroup(0, b.frameBindGroup, nil)
	var current *wgpu.RenderPipeline
	for i := range frame.Items {
		p := b.opaquePipeline
		if frame.Items[i].Transparent {
			p = b.transparentPipeline
		}
		if p != current {
			pass.SetPipeline(p)
			current = p
		}
		drawMesh(pass, meshes[i])
	}
	pass.End()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	defer commandBuffer.Release()
	b.queue.Submit(commandBuffer)
	b.surface.Present()
	return nil
}

func drawMesh(pass *wgpu.RenderPassEncoder, gm *gpuMesh) {
	pass.SetBindGroup(1, gm.bindGroup, nil)
	pass.SetVertexBuffer(0, gm.vertexBuffer, 0, wgpu.WholeSize)
	pass.SetIndexBuffer(gm.indexBuffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	pass.DrawIndexed(gm.indexCount, 1, 0, 0, 0)
}

// uploadMesh creates the mesh's buffers on first sight and writes its per-frame data.
// Caller must hold mu.
func (b *wgpuRendererBackendImpl) uploadMesh(item *DrawItem) (*gpuMesh, error) {
	geometry := item.Mesh.Geometry
	var vertexData []byte
	if item.Dynamic() {
		vertexData = InterleaveVertices(item.Positions, item.Normals)
	}

	gm := b.meshes[item.Mesh]
	if gm == nil {
		if vertexData == nil {
			vertexData = InterleaveVertices(geometry.Positions, geometry.Normals)
		}
		created, err := b.createMesh(item.Mesh.Name, vertexData, PackIndices(geometry.Indices))
		if err != nil {
			return nil, err
		}
		gm = created
		b.meshes[item.Mesh] = gm
	} else if vertexData != nil {
		if len(vertexData) != gm.vertexBytes {
			gm.release()
			created, err := b.createMesh(item.Mesh.Name, vertexData, PackIndices(geometry.Indices))
			if err != nil {
				delete(b.meshes, item.Mesh)
				return nil, err
			}
			gm = created
			b.meshes[item.Mesh] = gm
		} else {
			b.queue.WriteBuffer(gm.vertexBuffer, 0, vertexData)
		}
	}

	b.queue.WriteBuffer(gm.uniformBuffer, 0, item.Object.Marshal())
	return gm, nil
}

// createMesh allocates and fills the buffers for one mesh. Caller must hold mu.
func (b *wgpuRendererBackendImpl) createMesh(label string, vertexData, indexData []byte) (*gpuMesh, error) {
	gm := &gpuMesh{
		vertexBytes: len(vertexData),
		indexCount:  uint32(len(indexData) / 4),
	}
	var err error
	gm.vertexBuffer, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + " Vertex Buffer",
		Size:  uint64(len(vertexData)),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	b.queue.WriteBuffer(gm.vertexBuffer, 0, vertexData)

	gm.indexBuffer, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + " Index Buffer",
		Size:  uint64(len(indexData)),
		Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		gm.release()
		return nil, err
	}
	b.queue.WriteBuffer(gm.indexBuffer, 0, indexData)

	var object GPUObjectUniforms
	gm.uniformBuffer, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + " Object Buffer",
		Size:  uint64(object.Size()),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		gm.release()
		return nil, err
	}

	gm.bindGroup, err = b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  label + " Object Bind Group",
		Layout: b.objectLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: gm.uniformBuffer, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		gm.release()
		return nil, err
	}
	return gm, nil
}

// ensureShadowMap (re)creates the shadow map when its size changes and rebuilds the frame
// bind group that samples it. Caller must hold mu, except during construction.
func (b *wgpuRendererBackendImpl) ensureShadowMap(size int) error {
	if size < 1 {
		size = 1
	}
	if size == b.shadowMapSize && b.frameBindGroup != nil {
		return nil
	}

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Shadow Map",
		Size: wgpu.Extent3D{
			Width:              uint32(size),
			Height:             uint32(size),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth32Float,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return fmt.Errorf("create shadow map: %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return fmt.Errorf("create shadow map view: %w", err)
	}

	group, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Frame Bind Group",
		Layout: b.frameLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: b.frameBuffer, Size: wgpu.WholeSize},
			{Binding: 1, TextureView: view},
			{Binding: 2, Sampler: b.shadowSampler},
		},
	})
	if err != nil {
		view.Release()
		tex.Release()
		return fmt.Errorf("create frame bind group: %w", err)
	}

	if b.frameBindGroup != nil {
		b.frameBindGroup.Release()
	}
	if b.shadowTextureView != nil {
		b.shadowTextureView.Release()
	}
	if b.shadowTexture != nil {
		b.shadowTexture.Release()
	}
	b.frameBindGroup = group
	b.shadowTexture = tex
	b.shadowTextureView = view
	b.shadowMapSize = size
	return nil
}

// createPipelines builds the bind group layouts, the shared frame resources and the
// opaque, transparent and shadow pipelines.
func (b *wgpuRendererBackendImpl) createPipelines() error {
	var frame GPUFrameUniforms
	var object GPUObjectUniforms
	var err error

	b.frameLayout, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Frame Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: uint64(frame.Size())},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Texture:    wgpu.TextureBindingLayout{SampleType: wgpu.TextureSampleTypeDepth, ViewDimension: wgpu.TextureViewDimension2D},
			},
			{
				Binding:    2,
				Visibility: wgpu.ShaderStageFragment,
				Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeComparison},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create frame layout: %w", err)
	}
	b.shadowFrameLayout, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Shadow Frame Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: uint64(frame.Size())},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create shadow frame layout: %w", err)
	}
	b.objectLayout, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Object Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: uint64(object.Size())},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create object layout: %w", err)
	}

	b.frameBuffer, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Frame Buffer",
		Size:  uint64(frame.Size()),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create frame buffer: %w", err)
	}
	b.shadowFrameBindGroup, err = b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   "Shadow Frame Bind Group",
		Layout:  b.shadowFrameLayout,
		Entries: []wgpu.BindGroupEntry{{Binding: 0, Buffer: b.frameBuffer, Size: wgpu.WholeSize}},
	})
	if err != nil {
		return fmt.Errorf("create shadow frame bind group: %w", err)
	}
	b.shadowSampler, err = b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Shadow Comparison Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		Compare:       wgpu.CompareFunctionLess,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("create shadow sampler: %w", err)
	}

	lit, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Lit Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: litShaderSource},
	})
	if err != nil {
		return fmt.Errorf("compile lit shader: %w", err)
	}
	defer lit.Release()
	shadow, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Shadow Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shadowShaderSource},
	})
	if err != nil {
		return fmt.Errorf("compile shadow shader: %w", err)
	}
	defer shadow.Release()

	litLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Lit Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{b.frameLayout, b.objectLayout},
	})
	if err != nil {
		return err
	}
	defer litLayout.Release()
	shadowLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Shadow Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{b.shadowFrameLayout, b.objectLayout},
	})
	if err != nil {
		return err
	}
	defer shadowLayout.Release()

	vertexLayouts := []wgpu.VertexBufferLayout{{
		ArrayStride: vertexStride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
		},
	}}

	if b.opaquePipeline, err = b.createLitPipeline(lit, litLayout, vertexLayouts, false); err != nil {
		return fmt.Errorf("create opaque pipeline: %w", err)
	}
	if b.transparentPipeline, err = b.createLitPipeline(lit, litLayout, vertexLayouts, true); err != nil {
		return fmt.Errorf("create transparent pipeline: %w", err)
	}

	// Depth-only; one sample, slope-scaled bias against self-shadowing.
	b.shadowPipeline, err = b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "Shadow Render Pipeline",
		Layout: shadowLayout,
		Vertex: wgpu.VertexState{
			Module:     shadow,
			EntryPoint: "vs_shadow",
			Buffers:    vertexLayouts,
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:              wgpu.TextureFormatDepth32Float,
			DepthWriteEnabled:   true,
			DepthCompare:        wgpu.CompareFunctionLess,
			DepthBias:           2,
			DepthBiasSlopeScale: 2.0,
			StencilFront:        wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:         wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
	})
	if err != nil {
		return fmt.Errorf("create shadow pipeline: %w", err)
	}
	return nil
}

func (b *wgpuRendererBackendImpl) createLitPipeline(module *wgpu.ShaderModule, layout *wgpu.PipelineLayout, vertexLayouts []wgpu.VertexBufferLayout, transparent bool) (*wgpu.RenderPipeline, error) {
	target := wgpu.ColorTargetState{
		Format:    b.surfaceFormat,
		WriteMask: wgpu.ColorWriteMaskAll,
	}
	label := "Opaque Render Pipeline"
	if transparent {
		label = "Transparent Render Pipeline"
		target.Blend = &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		}
	}
	return b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  label,
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers:    vertexLayouts,
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: uint32(b.sampleCount),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: !transparent,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
	})
}

// releaseTargets frees the size-dependent textures. Caller must hold mu.
func (b *wgpuRendererBackendImpl) releaseTargets() {
	if b.msaaTextureView != nil {
		b.msaaTextureView.Release()
		b.msaaTextureView = nil
	}
	if b.msaaTexture != nil {
		b.msaaTexture.Release()
		b.msaaTexture = nil
	}
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
		b.depthTextureView = nil
	}
	if b.depthTexture != nil {
		b.depthTexture.Release()
		b.depthTexture = nil
	}
	b.renderPassDescriptor = nil
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for m, gm := range b.meshes {
		gm.release()
		delete(b.meshes, m)
	}
	b.releaseTargets()
	for _, p := range []*wgpu.RenderPipeline{b.opaquePipeline, b.transparentPipeline, b.shadowPipeline} {
		if p != nil {
			p.Release()
		}
	}
	for _, g := range []*wgpu.BindGroup{b.frameBindGroup, b.shadowFrameBindGroup} {
		if g != nil {
			g.Release()
		}
	}
	for _, l := range []*wgpu.BindGroupLayout{b.frameLayout, b.shadowFrameLayout, b.objectLayout} {
		if l != nil {
			l.Release()
		}
	}
	if b.shadowTextureView != nil {
		b.shadowTextureView.Release()
	}
	if b.shadowTexture != nil {
		b.shadowTexture.Release()
	}
	if b.shadowSampler != nil {
		b.shadowSampler.Release()
	}
	if b.frameBuffer != nil {
		b.frameBuffer.Release()
	}
	if b.queue != nil {
		b.queue.Release()
	}
	if b.device != nil {
		b.device.Release()
	}
	if b.adapter != nil {
		b.adapter.Release()
	}
	if b.surface != nil {
		b.surface.Release()
	}
	if b.instance != nil {
		b.instance.Release()
	}
	*b = wgpuRendererBackendImpl{mu: b.mu, meshes: map[*scene.Mesh]*gpuMesh{}}
}
