package wgpu

import (
	"testing"
	"unsafe"

	"github.com/gogpu/naga"

	"github.com/tesla3327/literoom/adjust"
	"github.com/tesla3327/literoom/compute"
	"github.com/tesla3327/literoom/raster"
)

// TestShaderCompilation checks that the WGSL shader compiles to SPIR-V.
// This runs without a GPU.
func TestShaderCompilation(t *testing.T) {
	if adjustShaderWGSL == "" {
		t.Fatal("embedded shader source is empty")
	}
	spirv, err := naga.Compile(adjustShaderWGSL)
	if err != nil {
		t.Fatalf("naga.Compile: %v", err)
	}
	if len(spirv) == 0 || len(spirv)%4 != 0 {
		t.Fatalf("SPIR-V size %d is not a positive multiple of 4", len(spirv))
	}
}

func TestGPULayoutSizes(t *testing.T) {
	// Struct sizes must stay 16-byte aligned to match the WGSL layouts.
	if s := unsafe.Sizeof(gpuOps{}); s != 48 {
		t.Errorf("gpuOps size = %d, want 48", s)
	}
	if s := unsafe.Sizeof(gpuParams{}); s != 80 {
		t.Errorf("gpuParams size = %d, want 80", s)
	}
	if s := unsafe.Sizeof(gpuMask{}); s != 112 {
		t.Errorf("gpuMask size = %d, want 112", s)
	}
}

func TestMakeMasksSkipsDisabled(t *testing.T) {
	masks := makeMasks([]adjust.Mask{
		{Kind: adjust.MaskRadial, Enabled: false},
		{Kind: adjust.MaskLinear, Enabled: true, X0: 0.1, Y0: 0.2, X1: 0.5, Y1: 0.9, Invert: true},
	})
	if len(masks) != 1 {
		t.Fatalf("got %d masks, want 1", len(masks))
	}
	m := masks[0]
	if m.Kind != uint32(adjust.MaskLinear) || m.Invert != 1 {
		t.Errorf("mask = %+v", m)
	}
	wantDX, wantDY := float32(0.4), float32(0.7)
	if m.DX != wantDX || m.DY != wantDY {
		t.Errorf("direction = (%v,%v), want (%v,%v)", m.DX, m.DY, wantDX, wantDY)
	}
	if m.DLen2 != wantDX*wantDX+wantDY*wantDY {
		t.Errorf("DLen2 = %v", m.DLen2)
	}
}

func TestPackMasksNeverEmpty(t *testing.T) {
	data := packMasks(nil)
	if len(data) != int(unsafe.Sizeof(gpuMask{})) {
		t.Errorf("empty mask pack size = %d, want one zeroed entry", len(data))
	}
}

func TestLUTBytes(t *testing.T) {
	data, used := makeLUTBytes(nil)
	if used {
		t.Error("identity curve reported as used")
	}
	if len(data) != lutSize*4 {
		t.Fatalf("lut size = %d, want %d", len(data), lutSize*4)
	}

	data, used = makeLUTBytes([]adjust.CurvePoint{{X: 0, Y: 0.5}, {X: 1, Y: 0.5}})
	if !used {
		t.Error("flat curve reported as identity")
	}
	if len(data) != lutSize*4 {
		t.Fatalf("lut size = %d, want %d", len(data), lutSize*4)
	}
}

func TestPackUnpackPixels(t *testing.T) {
	r := raster.New(3, 2, raster.ChannelsRGBA)
	data := r.Data()
	for i := range data {
		data[i] = uint8(i * 11)
	}

	packed := packPixels(r)
	if len(packed) != 3*2*4 {
		t.Fatalf("packed size = %d", len(packed))
	}
	out := raster.New(3, 2, raster.ChannelsRGBA)
	unpackPixels(packed, out)
	for i := range data {
		if out.Data()[i] != data[i] {
			t.Fatalf("pixel byte %d = %d, want %d", i, out.Data()[i], data[i])
		}
	}
}

func TestPackPixelsRGBGetsOpaqueAlpha(t *testing.T) {
	r := raster.New(2, 1, raster.ChannelsRGB)
	copy(r.Data(), []uint8{10, 20, 30, 40, 50, 60})

	packed := packPixels(r)
	if packed[3] != 255 || packed[7] != 255 {
		t.Errorf("alpha bytes = %d,%d, want 255,255", packed[3], packed[7])
	}

	out := raster.New(2, 1, raster.ChannelsRGB)
	unpackPixels(packed, out)
	want := []uint8{10, 20, 30, 40, 50, 60}
	for i, v := range want {
		if out.Data()[i] != v {
			t.Fatalf("byte %d = %d, want %d", i, out.Data()[i], v)
		}
	}
}

func TestRegisteredInRegistry(t *testing.T) {
	if compute.Get("wgpu") == nil {
		t.Fatal("wgpu backend not registered")
	}
}

// TestGPURoundTrip runs a real dispatch when a GPU is present.
func TestGPURoundTrip(t *testing.T) {
	b := &Backend{}
	if err := b.Init(); err != nil {
		t.Skipf("no usable GPU: %v", err)
	}
	defer b.Close()

	src := raster.New(33, 17, raster.ChannelsRGBA)
	data := src.Data()
	for i := range data {
		data[i] = uint8(i * 7)
	}
	p := adjust.Parameters{Exposure: 0.5, Contrast: 20, Vibrance: 30}

	got, err := b.ApplyAdjustments(src, p)
	if err != nil {
		t.Fatalf("ApplyAdjustments: %v", err)
	}
	want := adjust.Apply(src, p)
	for i := range want.Data() {
		d := int(got.Data()[i]) - int(want.Data()[i])
		if d < 0 {
			d = -d
		}
		if d > 2 {
			t.Fatalf("byte %d differs from reference by %d", i, d)
		}
	}
}
