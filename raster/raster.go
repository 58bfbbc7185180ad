package raster

import (
	"fmt"
	"image"
	"image/color"
)

// Channel counts supported by Raster buffers.
const (
	// ChannelsRGB is a 3-channel interleaved RGB layout.
	ChannelsRGB = 3

	// ChannelsRGBA is a 4-channel interleaved RGBA layout.
	ChannelsRGBA = 4
)

// Raster is a decoded, uncompressed pixel buffer with known dimensions.
//
// Pixel samples are interleaved, 8 bits per channel, laid out row by row.
// A Raster is exclusively owned by whichever component currently holds it;
// once a Raster is placed in a cache it must never be mutated — adjustment
// passes produce a new Raster instead.
type Raster struct {
	width    int
	height   int
	channels int
	data     []uint8
}

// New creates a zeroed raster with the given dimensions and channel count.
// It panics if the dimensions are not positive or the channel count is not
// 3 or 4; malformed dimensions are a caller contract violation, not a
// recoverable error.
func New(width, height, channels int) *Raster {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("raster: invalid dimensions %dx%d", width, height))
	}
	if channels != ChannelsRGB && channels != ChannelsRGBA {
		panic(fmt.Sprintf("raster: invalid channel count %d", channels))
	}
	return &Raster{
		width:    width,
		height:   height,
		channels: channels,
		data:     make([]uint8, width*height*channels),
	}
}

// FromData wraps an existing pixel buffer.
// It panics if the buffer length does not equal width*height*channels.
func FromData(data []uint8, width, height, channels int) *Raster {
	r := New(width, height, channels)
	if len(data) != len(r.data) {
		panic(fmt.Sprintf("raster: buffer length %d does not match %dx%dx%d",
			len(data), width, height, channels))
	}
	r.data = data
	return r
}

// Width returns the raster width in pixels.
func (r *Raster) Width() int { return r.width }

// Height returns the raster height in pixels.
func (r *Raster) Height() int { return r.height }

// Channels returns the number of samples per pixel (3 or 4).
func (r *Raster) Channels() int { return r.channels }

// Data returns the raw interleaved pixel data.
func (r *Raster) Data() []uint8 { return r.data }

// SizeBytes returns the byte size of the pixel buffer.
func (r *Raster) SizeBytes() int { return len(r.data) }

// Clone returns a deep copy of the raster.
func (r *Raster) Clone() *Raster {
	out := New(r.width, r.height, r.channels)
	copy(out.data, r.data)
	return out
}

// Pixel returns the channel samples of a single pixel.
// Out-of-bounds coordinates return zeros.
func (r *Raster) Pixel(x, y int) (samples [4]uint8) {
	if x < 0 || x >= r.width || y < 0 || y >= r.height {
		return samples
	}
	i := (y*r.width + x) * r.channels
	for c := 0; c < r.channels; c++ {
		samples[c] = r.data[i+c]
	}
	if r.channels == ChannelsRGB {
		samples[3] = 255
	}
	return samples
}

// SetPixel sets the channel samples of a single pixel.
// Out-of-bounds coordinates are ignored.
func (r *Raster) SetPixel(x, y int, samples [4]uint8) {
	if x < 0 || x >= r.width || y < 0 || y >= r.height {
		return
	}
	i := (y*r.width + x) * r.channels
	for c := 0; c < r.channels; c++ {
		r.data[i+c] = samples[c]
	}
}

// ToImage converts the raster to an image.RGBA.
func (r *Raster) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	if r.channels == ChannelsRGBA {
		copy(img.Pix, r.data)
		return img
	}
	for y := 0; y < r.height; y++ {
		for x := 0; x < r.width; x++ {
			si := (y*r.width + x) * ChannelsRGB
			di := (y*r.width + x) * ChannelsRGBA
			img.Pix[di+0] = r.data[si+0]
			img.Pix[di+1] = r.data[si+1]
			img.Pix[di+2] = r.data[si+2]
			img.Pix[di+3] = 255
		}
	}
	return img
}

// FromImage creates an RGBA raster from an image.
func FromImage(img image.Image) *Raster {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	// Fast path for image.RGBA with a tight buffer.
	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == width*ChannelsRGBA {
		out := New(width, height, ChannelsRGBA)
		copy(out.data, rgba.Pix)
		return out
	}

	out := New(width, height, ChannelsRGBA)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			cr, cg, cb, ca := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			i := (y*width + x) * ChannelsRGBA
			out.data[i+0] = uint8(cr >> 8)
			out.data[i+1] = uint8(cg >> 8)
			out.data[i+2] = uint8(cb >> 8)
			out.data[i+3] = uint8(ca >> 8)
		}
	}
	return out
}

// At implements the image.Image interface.
func (r *Raster) At(x, y int) color.Color {
	s := r.Pixel(x, y)
	return color.RGBA{R: s[0], G: s[1], B: s[2], A: s[3]}
}

// Bounds implements the image.Image interface.
func (r *Raster) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.width, r.height)
}

// ColorModel implements the image.Image interface.
func (r *Raster) ColorModel() color.Model {
	return color.RGBAModel
}
