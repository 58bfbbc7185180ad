package adjust

import (
	"bytes"
	"math"
	"math/rand"
	"testing"

	"github.com/tesla3327/literoom/raster"
)

// testRaster builds a deterministic noise raster for engine tests.
func testRaster(t *testing.T, w, h int) *raster.Raster {
	t.Helper()
	r := raster.New(w, h, raster.ChannelsRGBA)
	rng := rand.New(rand.NewSource(1))
	data := r.Data()
	for i := range data {
		data[i] = uint8(rng.Intn(256))
	}
	return r
}

func TestApplyIdentity(t *testing.T) {
	r := testRaster(t, 32, 24)
	out := Apply(r, Parameters{})
	if out == r {
		t.Fatal("identity must still return a fresh raster")
	}
	if !bytes.Equal(out.Data(), r.Data()) {
		t.Error("identity parameters changed pixel data")
	}
}

func TestApplyIdentityWithIdentityCurve(t *testing.T) {
	r := testRaster(t, 8, 8)
	p := Parameters{Curve: []CurvePoint{{0, 0}, {1, 1}}}
	out := Apply(r, p)
	if !bytes.Equal(out.Data(), r.Data()) {
		t.Error("identity curve changed pixel data")
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	r := testRaster(t, 16, 16)
	before := append([]uint8(nil), r.Data()...)
	Apply(r, Parameters{Exposure: 1.5, Contrast: 40})
	if !bytes.Equal(r.Data(), before) {
		t.Error("Apply mutated its input raster")
	}
}

func TestExposureRoundTrip(t *testing.T) {
	// Keep samples below mid-gray so +1 stop cannot clip.
	r := raster.New(16, 16, raster.ChannelsRGBA)
	rng := rand.New(rand.NewSource(2))
	data := r.Data()
	for i := range data {
		if i%4 == 3 {
			data[i] = 255
			continue
		}
		data[i] = uint8(rng.Intn(120))
	}

	up := Apply(r, Parameters{Exposure: 1})
	down := Apply(up, Parameters{Exposure: -1})

	for i, want := range r.Data() {
		got := down.Data()[i]
		diff := int(got) - int(want)
		if diff < -1 || diff > 1 {
			t.Fatalf("sample %d: round trip %d -> %d, want within ±1", i, want, got)
		}
	}
}

func TestExposureDoubling(t *testing.T) {
	r := raster.New(1, 1, raster.ChannelsRGB)
	r.SetPixel(0, 0, [4]uint8{50, 80, 100, 0})
	out := Apply(r, Parameters{Exposure: 1})
	got := out.Pixel(0, 0)
	want := [4]uint8{100, 160, 200, 255}
	if got != want {
		t.Errorf("+1 stop = %v, want %v", got, want)
	}
}

func TestContrastPivot(t *testing.T) {
	r := raster.New(1, 1, raster.ChannelsRGB)
	r.SetPixel(0, 0, [4]uint8{128, 128, 128, 0})
	out := Apply(r, Parameters{Contrast: 80})
	got := out.Pixel(0, 0)
	// Mid-gray sits within rounding distance of the 0.5 pivot.
	for c := 0; c < 3; c++ {
		if got[c] < 127 || got[c] > 129 {
			t.Errorf("channel %d = %d, want ~128 (pivot unaffected)", c, got[c])
		}
	}
}

func TestContrastSpreads(t *testing.T) {
	r := raster.New(2, 1, raster.ChannelsRGB)
	r.SetPixel(0, 0, [4]uint8{64, 64, 64, 0})
	r.SetPixel(1, 0, [4]uint8{192, 192, 192, 0})
	out := Apply(r, Parameters{Contrast: 50})
	dark := out.Pixel(0, 0)
	bright := out.Pixel(1, 0)
	if dark[0] >= 64 {
		t.Errorf("dark sample %d, want < 64", dark[0])
	}
	if bright[0] <= 192 {
		t.Errorf("bright sample %d, want > 192", bright[0])
	}
}

func TestTemperatureDirection(t *testing.T) {
	r := raster.New(1, 1, raster.ChannelsRGB)
	r.SetPixel(0, 0, [4]uint8{128, 128, 128, 0})

	warm := Apply(r, Parameters{Temperature: 50}).Pixel(0, 0)
	if warm[0] <= 128 || warm[2] >= 128 {
		t.Errorf("warm shift = %v, want red up and blue down", warm)
	}

	cool := Apply(r, Parameters{Temperature: -50}).Pixel(0, 0)
	if cool[0] >= 128 || cool[2] <= 128 {
		t.Errorf("cool shift = %v, want red down and blue up", cool)
	}
}

func TestTintDirection(t *testing.T) {
	r := raster.New(1, 1, raster.ChannelsRGB)
	r.SetPixel(0, 0, [4]uint8{128, 128, 128, 0})

	green := Apply(r, Parameters{Tint: 50}).Pixel(0, 0)
	if green[1] <= 128 {
		t.Errorf("green shift = %v, want green up", green)
	}

	magenta := Apply(r, Parameters{Tint: -50}).Pixel(0, 0)
	if magenta[0] <= 128 || magenta[2] <= 128 {
		t.Errorf("magenta shift = %v, want red and blue up", magenta)
	}
}

func TestHighlightsTargetBrightPixels(t *testing.T) {
	r := raster.New(2, 1, raster.ChannelsRGB)
	r.SetPixel(0, 0, [4]uint8{40, 40, 40, 0})    // shadow pixel
	r.SetPixel(1, 0, [4]uint8{230, 230, 230, 0}) // highlight pixel

	out := Apply(r, Parameters{Highlights: -60})
	dark := out.Pixel(0, 0)
	bright := out.Pixel(1, 0)
	if dark[0] != 40 {
		t.Errorf("shadow pixel moved to %d under a highlights edit", dark[0])
	}
	if bright[0] >= 230 {
		t.Errorf("highlight pixel = %d, want reduced", bright[0])
	}
}

func TestShadowsTargetDarkPixels(t *testing.T) {
	r := raster.New(2, 1, raster.ChannelsRGB)
	r.SetPixel(0, 0, [4]uint8{40, 40, 40, 0})
	r.SetPixel(1, 0, [4]uint8{230, 230, 230, 0})

	out := Apply(r, Parameters{Shadows: 60})
	dark := out.Pixel(0, 0)
	bright := out.Pixel(1, 0)
	if dark[0] <= 40 {
		t.Errorf("shadow pixel = %d, want lifted", dark[0])
	}
	// The shadow mask tapers toward the highlights but never fully
	// reaches zero below pure white, so allow a small residual shift.
	if int(bright[0])-230 > 16 {
		t.Errorf("highlight pixel moved to %d under a shadows edit", bright[0])
	}
}

func TestWhitesGate(t *testing.T) {
	r := raster.New(2, 1, raster.ChannelsRGB)
	r.SetPixel(0, 0, [4]uint8{200, 200, 200, 0}) // below 0.9 gate
	r.SetPixel(1, 0, [4]uint8{240, 240, 240, 0}) // above gate

	out := Apply(r, Parameters{Whites: -50})
	if got := out.Pixel(0, 0); got[0] != 200 {
		t.Errorf("below-gate pixel moved to %d", got[0])
	}
	if got := out.Pixel(1, 0); got[0] >= 240 {
		t.Errorf("above-gate pixel = %d, want reduced", got[0])
	}
}

func TestBlacksGate(t *testing.T) {
	r := raster.New(2, 1, raster.ChannelsRGB)
	r.SetPixel(0, 0, [4]uint8{10, 10, 10, 0}) // below 0.1 gate
	r.SetPixel(1, 0, [4]uint8{80, 80, 80, 0}) // above gate

	out := Apply(r, Parameters{Blacks: 100})
	if got := out.Pixel(0, 0); got[0] <= 10 {
		t.Errorf("below-gate pixel = %d, want lifted", got[0])
	}
	if got := out.Pixel(1, 0); got[0] != 80 {
		t.Errorf("above-gate pixel moved to %d", got[0])
	}
}

func TestSaturation(t *testing.T) {
	r := raster.New(1, 1, raster.ChannelsRGB)
	r.SetPixel(0, 0, [4]uint8{180, 100, 100, 0})

	boosted := Apply(r, Parameters{Saturation: 60}).Pixel(0, 0)
	if boosted[0] <= 180 || boosted[1] >= 100 {
		t.Errorf("saturation boost = %v, want channels spread from gray", boosted)
	}

	gray := Apply(r, Parameters{Saturation: -100}).Pixel(0, 0)
	if gray[0] != gray[1] || gray[1] != gray[2] {
		t.Errorf("full desaturation = %v, want equal channels", gray)
	}
}

func TestVibranceSkinToneDamping(t *testing.T) {
	// Skin-like pixel: R > G > B with R-G above the heuristic delta.
	skin := raster.New(1, 1, raster.ChannelsRGB)
	skin.SetPixel(0, 0, [4]uint8{180, 140, 110, 0})

	// Cool pixel with the same channel spread, reordered.
	cool := raster.New(1, 1, raster.ChannelsRGB)
	cool.SetPixel(0, 0, [4]uint8{110, 140, 180, 0})

	p := Parameters{Vibrance: 80}
	skinShift := int(Apply(skin, p).Pixel(0, 0)[0]) - 180
	coolShift := int(Apply(cool, p).Pixel(0, 0)[2]) - 180
	if skinShift <= 0 || coolShift <= 0 {
		t.Fatalf("vibrance should push the dominant channel up (skin %+d, cool %+d)",
			skinShift, coolShift)
	}
	if skinShift >= coolShift {
		t.Errorf("skin shift %d, non-skin shift %d: heuristic should damp skin tones",
			skinShift, coolShift)
	}
}

func TestVibranceBackfeedsOnSaturation(t *testing.T) {
	// An already-saturated pixel should move less than a muted one.
	muted := raster.New(1, 1, raster.ChannelsRGB)
	muted.SetPixel(0, 0, [4]uint8{110, 140, 150, 0})
	vivid := raster.New(1, 1, raster.ChannelsRGB)
	vivid.SetPixel(0, 0, [4]uint8{0, 128, 255, 0})

	p := Parameters{Vibrance: 100}
	mutedShift := int(Apply(muted, p).Pixel(0, 0)[2]) - 150
	vividShift := int(Apply(vivid, p).Pixel(0, 0)[2]) - 255
	if mutedShift <= vividShift {
		t.Errorf("muted shift %d, vivid shift %d: vibrance should favor muted pixels",
			mutedShift, vividShift)
	}
	// The fully saturated pixel's boost scales by 1-saturation, so it
	// should barely move at all.
	if vividShift < -1 || vividShift > 1 {
		t.Errorf("vivid shift %d, want ~0 for a fully saturated pixel", vividShift)
	}
}

func TestToneCurveDarkens(t *testing.T) {
	r := raster.New(1, 1, raster.ChannelsRGB)
	r.SetPixel(0, 0, [4]uint8{128, 128, 128, 0})

	p := Parameters{Curve: []CurvePoint{{0, 0}, {0.5, 0.25}, {1, 1}}}
	out := Apply(r, p).Pixel(0, 0)
	if out[0] >= 128 {
		t.Errorf("curve output %d, want darker than 128", out[0])
	}
}

func TestAlphaPassthrough(t *testing.T) {
	r := raster.New(1, 1, raster.ChannelsRGBA)
	r.SetPixel(0, 0, [4]uint8{100, 100, 100, 137})
	out := Apply(r, Parameters{Exposure: 2}).Pixel(0, 0)
	if out[3] != 137 {
		t.Errorf("alpha = %d, want 137 untouched", out[3])
	}
}

func TestSmoothstep(t *testing.T) {
	tests := []struct {
		e0, e1, x, want float64
	}{
		{0, 1, -1, 0},
		{0, 1, 0, 0},
		{0, 1, 0.5, 0.5},
		{0, 1, 1, 1},
		{0, 1, 2, 1},
		{0.5, 1, 0.75, 0.5},
		{1, 1, 0.5, 0}, // degenerate interval: step
		{1, 1, 1.5, 1},
	}
	for _, tt := range tests {
		if got := smoothstep(tt.e0, tt.e1, tt.x); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("smoothstep(%v,%v,%v) = %v, want %v", tt.e0, tt.e1, tt.x, got, tt.want)
		}
	}
}

func TestIsIdentity(t *testing.T) {
	tests := []struct {
		name string
		p    Parameters
		want bool
	}{
		{"zero value", Parameters{}, true},
		{"identity curve", Parameters{Curve: []CurvePoint{{0, 0}, {1, 1}}}, true},
		{"disabled mask", Parameters{Masks: []Mask{{Kind: MaskRadial}}}, true},
		{"exposure", Parameters{Exposure: 0.1}, false},
		{"real curve", Parameters{Curve: []CurvePoint{{0, 0}, {0.4, 0.5}, {1, 1}}}, false},
		{"enabled mask", Parameters{Masks: []Mask{{Enabled: true}}}, false},
		{"crop", Parameters{Crop: raster.CropRect{X0: 0.1, Y0: 0, X1: 1, Y1: 1}}, false},
		{"rotation", Parameters{RotateTurns: 1}, false},
		{"full rotation", Parameters{RotateTurns: 4}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.IsIdentity(); got != tt.want {
				t.Errorf("IsIdentity = %v, want %v", got, tt.want)
			}
		})
	}
}

func BenchmarkApplyGlobal(b *testing.B) {
	r := raster.New(512, 512, raster.ChannelsRGBA)
	p := Parameters{Exposure: 0.5, Contrast: 20, Vibrance: 30}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Apply(r, p)
	}
}

func BenchmarkApplyIdentity(b *testing.B) {
	r := raster.New(512, 512, raster.ChannelsRGBA)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Apply(r, Parameters{})
	}
}
