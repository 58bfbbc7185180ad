package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	// Register decoders for the formats a catalog is likely to contain.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decoding errors.
var (
	// ErrEmptyData is returned when the byte source produced no data.
	ErrEmptyData = errors.New("raster: empty data")

	// ErrDecodeFailed is returned when the byte source produced data that
	// no registered image format could decode.
	ErrDecodeFailed = errors.New("raster: decode failed")
)

// Decode decodes encoded image bytes into an RGBA raster.
// Supported formats: PNG, JPEG, GIF, WebP, TIFF, BMP.
func Decode(data []byte) (*Raster, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}
	return FromImage(img), nil
}
