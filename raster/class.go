package raster

import "fmt"

// ResolutionClass is a named tier of output size. Each class has its own
// cache capacity and scheduling queue because per-item memory cost differs
// by orders of magnitude between tiers.
type ResolutionClass uint8

const (
	// Thumbnail is a fixed small rendering used for grid views.
	Thumbnail ResolutionClass = iota

	// Preview is a fixed larger rendering used for the edit view.
	Preview

	// Full is the native resolution, generated only for export and never
	// cached in the memory tier.
	Full

	numClasses
)

// Long-edge targets per class, in pixels.
const (
	thumbnailLongEdge = 512
	previewLongEdge   = 2560
)

// NumClasses is the number of defined resolution classes.
const NumClasses = int(numClasses)

// LongEdge returns the target long-edge size in pixels for the class.
// Full has no fixed target and returns 0.
func (c ResolutionClass) LongEdge() int {
	switch c {
	case Thumbnail:
		return thumbnailLongEdge
	case Preview:
		return previewLongEdge
	default:
		return 0
	}
}

// Valid reports whether c is a defined resolution class.
func (c ResolutionClass) Valid() bool {
	return c < numClasses
}

// String returns the class name.
func (c ResolutionClass) String() string {
	switch c {
	case Thumbnail:
		return "thumbnail"
	case Preview:
		return "preview"
	case Full:
		return "full"
	default:
		return fmt.Sprintf("ResolutionClass(%d)", uint8(c))
	}
}
