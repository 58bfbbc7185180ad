package wgpu

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/tesla3327/literoom/adjust"
	"github.com/tesla3327/literoom/raster"
)

// Chain coefficients shared with the reference engine.
const (
	tempCoeff = 0.3
	tintCoeff = 0.2
)

const lutSize = 256

// gpuOps is the per-chain scalar block.
// Must match the Ops struct in adjust.wgsl.
type gpuOps struct {
	Exposure   float32
	Contrast   float32
	Temp       float32
	Tint       float32
	Highlights float32
	Shadows    float32
	Whites     float32
	Blacks     float32
	Saturation float32
	Vibrance   float32
	Pad0       float32
	Pad1       float32
}

// gpuParams is the per-pass uniform block.
// Must match the Params struct in adjust.wgsl.
type gpuParams struct {
	Width     uint32
	Height    uint32
	MaskCount uint32
	UseLUT    uint32
	MaskIndex uint32
	Pad0      uint32
	Pad1      uint32
	Pad2      uint32
	Ops       gpuOps
}

// gpuMask is one compiled mask in the storage buffer.
// Must match the MaskData struct in adjust.wgsl.
type gpuMask struct {
	Kind   uint32
	Invert uint32
	Pad0   uint32
	Pad1   uint32

	OX, OY, DX, DY float32
	DLen2          float32
	CX, CY, RX, RY float32
	Feather        float32
	Pad2, Pad3     float32

	Ops gpuOps
}

func makeOps(p adjust.Parameters) gpuOps {
	return gpuOps{
		Exposure:   float32(p.Exposure),
		Contrast:   float32(p.Contrast / 100),
		Temp:       float32(p.Temperature / 100 * tempCoeff),
		Tint:       float32(p.Tint / 100 * tintCoeff),
		Highlights: float32(p.Highlights / 100),
		Shadows:    float32(p.Shadows / 100),
		Whites:     float32(p.Whites / 100),
		Blacks:     float32(p.Blacks / 100),
		Saturation: float32(p.Saturation / 100),
		Vibrance:   float32(p.Vibrance / 100),
	}
}

// makeMasks compiles the enabled masks into GPU layout.
func makeMasks(masks []adjust.Mask) []gpuMask {
	var out []gpuMask
	for i := range masks {
		m := &masks[i]
		if !m.Enabled {
			continue
		}
		gm := gpuMask{
			Kind:    uint32(m.Kind),
			Ops:     makeOps(m.Params),
			OX:      float32(m.X0),
			OY:      float32(m.Y0),
			DX:      float32(m.X1 - m.X0),
			DY:      float32(m.Y1 - m.Y0),
			CX:      float32(m.CenterX),
			CY:      float32(m.CenterY),
			RX:      float32(m.RadiusX),
			RY:      float32(m.RadiusY),
			Feather: float32(clamp01(m.Feather)),
		}
		if m.Invert {
			gm.Invert = 1
		}
		gm.DLen2 = gm.DX*gm.DX + gm.DY*gm.DY
		out = append(out, gm)
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// makeLUTBytes returns the tone-curve table as float32 little-endian
// bytes. An identity table is produced when the curve has none, so the
// buffer binding is always valid.
func makeLUTBytes(points []adjust.CurvePoint) (data []byte, used bool) {
	src := adjust.CurveLUT(points)
	out := make([]byte, lutSize*4)
	for i := 0; i < lutSize; i++ {
		v := float32(i) / float32(lutSize-1)
		if src != nil {
			v = float32(src[i])
		}
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out, src != nil
}

func structToBytes(ptr unsafe.Pointer, size uintptr) []byte {
	return unsafe.Slice((*byte)(ptr), size)
}

func packMasks(masks []gpuMask) []byte {
	if len(masks) == 0 {
		// A zero-sized buffer cannot be bound; pad with one zeroed entry.
		masks = make([]gpuMask, 1)
	}
	maskSize := int(unsafe.Sizeof(gpuMask{}))
	out := make([]byte, maskSize*len(masks))
	for i := range masks {
		src := structToBytes(unsafe.Pointer(&masks[i]), unsafe.Sizeof(masks[i]))
		copy(out[i*maskSize:], src)
	}
	return out
}

// packPixels converts a raster to the packed RGBA uint32 layout the
// shader reads. RGB rasters get an opaque alpha.
func packPixels(r *raster.Raster) []byte {
	w, h := r.Width(), r.Height()
	src := r.Data()
	channels := r.Channels()
	out := make([]byte, w*h*4)
	for i := 0; i < w*h; i++ {
		s := i * channels
		rr := uint32(src[s+0])
		gg := uint32(src[s+1])
		bb := uint32(src[s+2])
		aa := uint32(255)
		if channels == raster.ChannelsRGBA {
			aa = uint32(src[s+3])
		}
		packed := rr | (gg << 8) | (bb << 16) | (aa << 24)
		binary.LittleEndian.PutUint32(out[i*4:], packed)
	}
	return out
}

// unpackPixels writes packed RGBA uint32 samples back into a raster,
// dropping alpha for RGB rasters.
func unpackPixels(packed []byte, dst *raster.Raster) {
	w, h := dst.Width(), dst.Height()
	channels := dst.Channels()
	data := dst.Data()
	for i := 0; i < w*h; i++ {
		val := binary.LittleEndian.Uint32(packed[i*4:])
		d := i * channels
		data[d+0] = uint8(val & 0xFF)
		data[d+1] = uint8((val >> 8) & 0xFF)
		data[d+2] = uint8((val >> 16) & 0xFF)
		if channels == raster.ChannelsRGBA {
			data[d+3] = uint8((val >> 24) & 0xFF)
		}
	}
}
