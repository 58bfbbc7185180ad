package raster

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Raw framing errors.
var (
	// ErrBadFrame is returned when raw bytes do not carry a valid frame.
	ErrBadFrame = errors.New("raster: malformed raw frame")
)

// rawMagic identifies a raw raster frame.
var rawMagic = [4]byte{'l', 'r', 'r', '1'}

const rawHeaderSize = 4 + 4 + 4 + 4 // magic, width, height, channels

// EncodeRaw serializes a raster into the compact binary framing used by the
// persistent cache tier. The frame is a fixed header followed by the pixel
// buffer; it is not an interchange format.
func EncodeRaw(r *Raster) []byte {
	out := make([]byte, rawHeaderSize+len(r.data))
	copy(out[0:4], rawMagic[:])
	binary.LittleEndian.PutUint32(out[4:8], uint32(r.width))
	binary.LittleEndian.PutUint32(out[8:12], uint32(r.height))
	binary.LittleEndian.PutUint32(out[12:16], uint32(r.channels))
	copy(out[rawHeaderSize:], r.data)
	return out
}

// DecodeRaw parses a frame produced by EncodeRaw.
func DecodeRaw(data []byte) (*Raster, error) {
	if len(data) < rawHeaderSize {
		return nil, fmt.Errorf("%w: short frame (%d bytes)", ErrBadFrame, len(data))
	}
	if [4]byte(data[0:4]) != rawMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrBadFrame)
	}
	width := int(binary.LittleEndian.Uint32(data[4:8]))
	height := int(binary.LittleEndian.Uint32(data[8:12]))
	channels := int(binary.LittleEndian.Uint32(data[12:16]))
	if width <= 0 || height <= 0 || (channels != ChannelsRGB && channels != ChannelsRGBA) {
		return nil, fmt.Errorf("%w: header %dx%dx%d", ErrBadFrame, width, height, channels)
	}
	// The product is computed in uint64 so oversized header dimensions
	// cannot overflow int before the length check.
	need := uint64(width) * uint64(height) * uint64(channels)
	if uint64(len(data)-rawHeaderSize) != need {
		return nil, fmt.Errorf("%w: payload %d bytes, expected %d",
			ErrBadFrame, len(data)-rawHeaderSize, need)
	}
	out := New(width, height, channels)
	copy(out.data, data[rawHeaderSize:])
	return out, nil
}
