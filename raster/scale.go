package raster

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// Scale resizes a raster to fit a resolution class, preserving aspect ratio.
//
// Thumbnails are scaled with Catmull-Rom resampling for quality; previews
// use approximate bilinear resampling, which is several times faster and
// visually indistinguishable at preview sizes. Scale never upscales: a
// source smaller than the class target is returned unchanged, as is any
// source scaled to Full.
func Scale(r *Raster, class ResolutionClass) *Raster {
	target := class.LongEdge()
	if target == 0 {
		// Full keeps native resolution.
		return r
	}

	long := r.Width()
	if r.Height() > long {
		long = r.Height()
	}
	if long <= target {
		return r
	}

	ratio := float64(target) / float64(long)
	dw := int(float64(r.Width())*ratio + 0.5)
	dh := int(float64(r.Height())*ratio + 0.5)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	var scaler draw.Scaler
	switch class {
	case Thumbnail:
		scaler = draw.CatmullRom
	default:
		scaler = draw.ApproxBiLinear
	}

	src := r.ToImage()
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	scaler.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return FromImage(dst)
}

// CropRect is a normalized crop rectangle; all coordinates are fractions of
// the raster dimensions in [0,1] with X0 < X1 and Y0 < Y1.
type CropRect struct {
	X0, Y0, X1, Y1 float64
}

// IsZero reports whether the crop is unset (full frame).
func (c CropRect) IsZero() bool {
	return c == CropRect{} || (c.X0 == 0 && c.Y0 == 0 && c.X1 == 1 && c.Y1 == 1)
}

// Crop returns the sub-raster selected by a normalized crop rectangle.
// A zero or full-frame crop returns the input unchanged. It panics if the
// rectangle is inverted; that is a caller contract violation.
func Crop(r *Raster, rect CropRect) *Raster {
	if rect.IsZero() {
		return r
	}
	if rect.X1 <= rect.X0 || rect.Y1 <= rect.Y0 {
		panic(fmt.Sprintf("raster: inverted crop rect %+v", rect))
	}

	x0 := clampInt(int(rect.X0*float64(r.Width())+0.5), 0, r.Width()-1)
	y0 := clampInt(int(rect.Y0*float64(r.Height())+0.5), 0, r.Height()-1)
	x1 := clampInt(int(rect.X1*float64(r.Width())+0.5), x0+1, r.Width())
	y1 := clampInt(int(rect.Y1*float64(r.Height())+0.5), y0+1, r.Height())

	out := New(x1-x0, y1-y0, r.channels)
	rowBytes := (x1 - x0) * r.channels
	for y := y0; y < y1; y++ {
		src := (y*r.width + x0) * r.channels
		dst := (y - y0) * rowBytes
		copy(out.data[dst:dst+rowBytes], r.data[src:src+rowBytes])
	}
	return out
}

// Rotate90 rotates a raster clockwise by quarter turns. Turns is taken
// modulo 4; zero turns returns the input unchanged.
func Rotate90(r *Raster, turns int) *Raster {
	turns = ((turns % 4) + 4) % 4
	if turns == 0 {
		return r
	}

	w, h := r.width, r.height
	var out *Raster
	if turns == 2 {
		out = New(w, h, r.channels)
	} else {
		out = New(h, w, r.channels)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var dx, dy int
			switch turns {
			case 1:
				dx, dy = h-1-y, x
			case 2:
				dx, dy = w-1-x, h-1-y
			case 3:
				dx, dy = y, w-1-x
			}
			si := (y*w + x) * r.channels
			di := (dy*out.width + dx) * r.channels
			copy(out.data[di:di+r.channels], r.data[si:si+r.channels])
		}
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
