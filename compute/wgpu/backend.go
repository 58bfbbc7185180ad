// Package wgpu provides the "wgpu" compute backend: the adjustment chain
// dispatched as compute passes on a GPU through wgpu/hal.
package wgpu

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/tesla3327/literoom/compute"
)

//go:embed shaders/adjust.wgsl
var adjustShaderWGSL string

func init() {
	compute.Register("wgpu", func() compute.Backend { return &Backend{} })
}

// Backend runs adjustments on the GPU. A zero Backend is ready for Init.
type Backend struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	loadPipe   hal.ComputePipeline
	maskPipe   hal.ComputePipeline
	storePipe  hal.ComputePipeline

	gpuReady       bool
	externalDevice bool
}

var _ compute.Backend = (*Backend)(nil)

// Name implements compute.Backend.
func (b *Backend) Name() string { return "wgpu" }

// CanAccelerate implements compute.Backend. All chain operations run on
// the GPU.
func (b *Backend) CanAccelerate(op compute.OpKind) bool {
	switch op {
	case compute.OpAdjust, compute.OpMaskedAdjust, compute.OpToneCurve:
		return true
	}
	return false
}

// Init opens a GPU device and builds the compute pipelines. An error
// means no usable GPU; the router then probes the next backend.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.gpuReady {
		return nil
	}
	if err := b.initGPU(); err != nil {
		b.teardownLocked()
		return err
	}
	return nil
}

// Close releases GPU resources. Shared devices from SetDeviceProvider are
// not destroyed.
func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.teardownLocked()
}

func (b *Backend) teardownLocked() {
	b.destroyPipelines()
	if !b.externalDevice {
		if b.device != nil {
			b.device.Destroy()
		}
		if b.instance != nil {
			b.instance.Destroy()
		}
	}
	b.device = nil
	b.instance = nil
	b.queue = nil
	b.gpuReady = false
	b.externalDevice = false
}

// SetDeviceProvider switches the backend to a shared GPU device from an
// external provider, such as a host application that already owns one.
// The provider must expose HalDevice() any and HalQueue() any returning
// hal.Device and hal.Queue.
func (b *Backend) SetDeviceProvider(provider gpucontext.DeviceProvider) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return fmt.Errorf("wgpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("wgpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("wgpu: provider HalQueue is not hal.Queue")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.destroyPipelines()
	if !b.externalDevice && b.device != nil {
		b.device.Destroy()
	}
	if b.instance != nil {
		b.instance.Destroy()
		b.instance = nil
	}

	b.device = device
	b.queue = queue
	b.externalDevice = true

	if err := b.createPipelines(); err != nil {
		b.gpuReady = false
		return fmt.Errorf("wgpu: create pipelines with shared device: %w", err)
	}
	b.gpuReady = true
	return nil
}

func (b *Backend) initGPU() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	b.instance = instance

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return fmt.Errorf("no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	b.device = openDev.Device
	b.queue = openDev.Queue

	if err := b.createPipelines(); err != nil {
		return fmt.Errorf("create pipelines: %w", err)
	}
	b.gpuReady = true
	return nil
}

func (b *Backend) createPipelines() error {
	spirvBytes, err := naga.Compile(adjustShaderWGSL)
	if err != nil {
		return fmt.Errorf("compile adjust shader: %w", err)
	}
	spirv := make([]uint32, len(spirvBytes)/4)
	for i := range spirv {
		spirv[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}

	shader, err := b.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "adjust",
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return fmt.Errorf("create shader module: %w", err)
	}
	b.shader = shader

	bindLayout, err := b.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "adjust_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 3, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
			{Binding: 4, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}
	b.bindLayout = bindLayout

	pipeLayout, err := b.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "adjust_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{b.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	b.pipeLayout = pipeLayout

	for _, pipe := range []struct {
		entry string
		dst   *hal.ComputePipeline
	}{
		{"load_pass", &b.loadPipe},
		{"mask_pass", &b.maskPipe},
		{"store_pass", &b.storePipe},
	} {
		p, err := b.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
			Label: "adjust_" + pipe.entry, Layout: b.pipeLayout,
			Compute: hal.ComputeState{Module: b.shader, EntryPoint: pipe.entry},
		})
		if err != nil {
			return fmt.Errorf("create %s pipeline: %w", pipe.entry, err)
		}
		*pipe.dst = p
	}
	return nil
}

func (b *Backend) destroyPipelines() {
	if b.device == nil {
		return
	}
	for _, p := range []hal.ComputePipeline{b.loadPipe, b.maskPipe, b.storePipe} {
		if p != nil {
			b.device.DestroyComputePipeline(p)
		}
	}
	b.loadPipe, b.maskPipe, b.storePipe = nil, nil, nil
	if b.pipeLayout != nil {
		b.device.DestroyPipelineLayout(b.pipeLayout)
		b.pipeLayout = nil
	}
	if b.bindLayout != nil {
		b.device.DestroyBindGroupLayout(b.bindLayout)
		b.bindLayout = nil
	}
	if b.shader != nil {
		b.device.DestroyShaderModule(b.shader)
		b.shader = nil
	}
}
