package adjust

import (
	"bytes"
	"math"
	"testing"

	"github.com/tesla3327/literoom/raster"
)

func TestCompileMasksSkipsDisabled(t *testing.T) {
	masks := []Mask{
		{Kind: MaskRadial, Enabled: false},
		{Kind: MaskLinear, Enabled: true, X1: 1},
	}
	compiled := compileMasks(masks)
	if len(compiled) != 1 {
		t.Fatalf("compiled %d masks, want 1", len(compiled))
	}
	if compiled[0].kind != MaskLinear {
		t.Error("wrong mask survived compilation")
	}
}

func TestDisabledMaskHasZeroEffect(t *testing.T) {
	r := raster.New(8, 8, raster.ChannelsRGBA)
	data := r.Data()
	for i := range data {
		data[i] = 100
	}

	p := Parameters{Masks: []Mask{{
		Kind:    MaskRadial,
		Enabled: false,
		CenterX: 0.5, CenterY: 0.5, RadiusX: 1, RadiusY: 1,
		Params: Parameters{Exposure: 3},
	}}}
	out := Apply(r, p)
	if !bytes.Equal(out.Data(), r.Data()) {
		t.Error("disabled mask changed pixel data")
	}
}

func TestLinearWeightRamp(t *testing.T) {
	m := compiledMask{kind: MaskLinear, ox: 0, oy: 0, dx: 1, dy: 0, dlen2: 1}

	if got := m.weight(0, 0.5); got != 1 {
		t.Errorf("weight at origin = %v, want 1", got)
	}
	if got := m.weight(1, 0.5); got != 0 {
		t.Errorf("weight at far end = %v, want 0", got)
	}
	if got := m.weight(0.5, 0.5); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("weight at midpoint = %v, want 0.5", got)
	}
	// Before the origin the effect is full strength.
	if got := m.weight(-0.5, 0.5); got != 1 {
		t.Errorf("weight before origin = %v, want 1", got)
	}
}

func TestLinearWeightDegenerate(t *testing.T) {
	m := compiledMask{kind: MaskLinear}
	if got := m.weight(0.5, 0.5); got != 0 {
		t.Errorf("degenerate gradient weight = %v, want 0", got)
	}
}

func TestRadialWeight(t *testing.T) {
	m := compiledMask{
		kind: MaskRadial,
		cx:   0.5, cy: 0.5, rx: 0.25, ry: 0.25,
		feather: 0.5,
	}

	if got := m.weight(0.5, 0.5); got != 1 {
		t.Errorf("weight at center = %v, want 1", got)
	}
	if got := m.weight(0.5+0.25, 0.5); got != 0 {
		t.Errorf("weight at boundary = %v, want 0", got)
	}
	mid := m.weight(0.5+0.25*0.75, 0.5) // middle of the feather band
	if mid <= 0 || mid >= 1 {
		t.Errorf("weight in feather band = %v, want in (0,1)", mid)
	}
}

func TestRadialWeightInverted(t *testing.T) {
	m := compiledMask{
		kind: MaskRadial,
		cx:   0.5, cy: 0.5, rx: 0.25, ry: 0.25,
		invert: true,
	}
	if got := m.weight(0.5, 0.5); got != 0 {
		t.Errorf("inverted center weight = %v, want 0", got)
	}
	if got := m.weight(0.95, 0.5); got != 1 {
		t.Errorf("inverted outside weight = %v, want 1", got)
	}
}

func TestRadialWeightZeroRadius(t *testing.T) {
	m := compiledMask{kind: MaskRadial, cx: 0.5, cy: 0.5}
	if got := m.weight(0.5, 0.5); got != 0 {
		t.Errorf("zero-radius weight = %v, want 0", got)
	}
}

func TestMaskedAdjustmentIsLocal(t *testing.T) {
	r := raster.New(16, 16, raster.ChannelsRGBA)
	data := r.Data()
	for i := range data {
		data[i] = 100
	}

	// Radial mask covering only the left half of the frame.
	p := Parameters{Masks: []Mask{{
		Kind:    MaskRadial,
		Enabled: true,
		CenterX: 0.0, CenterY: 0.5,
		RadiusX: 0.3, RadiusY: 0.5,
		Params: Parameters{Exposure: 2},
	}}}
	out := Apply(r, p)

	inside := out.Pixel(0, 8)
	outside := out.Pixel(15, 8)
	if inside[0] <= 100 {
		t.Errorf("masked region = %d, want brightened", inside[0])
	}
	if outside[0] != 100 {
		t.Errorf("unmasked region = %d, want untouched", outside[0])
	}
}

func TestMaskWeightScalesEffect(t *testing.T) {
	r := raster.New(1, 1, raster.ChannelsRGB)
	r.SetPixel(0, 0, [4]uint8{50, 50, 50, 0})

	full := Parameters{Masks: []Mask{{
		Kind: MaskRadial, Enabled: true,
		CenterX: 0.5, CenterY: 0.5, RadiusX: 10, RadiusY: 10,
		Params: Parameters{Exposure: 1},
	}}}
	direct := Apply(r, Parameters{Exposure: 1}).Pixel(0, 0)
	masked := Apply(r, full).Pixel(0, 0)

	// A mask at full weight matches the equivalent global edit.
	if direct != masked {
		t.Errorf("full-weight mask = %v, global edit = %v", masked, direct)
	}
}
