package sched

import "fmt"

// Priority is the scheduling weight of a generation request. Lower
// values are served first.
type Priority int

const (
	// Visible renders content currently on screen.
	Visible Priority = iota

	// NearVisible renders content just outside the viewport.
	NearVisible

	// Preload renders content expected to scroll in soon.
	Preload

	// Background renders speculative work, first to be cancelled.
	Background

	numPriorities
)

// Valid reports whether p is a defined priority.
func (p Priority) Valid() bool {
	return p >= Visible && p < numPriorities
}

// String returns the priority name.
func (p Priority) String() string {
	switch p {
	case Visible:
		return "visible"
	case NearVisible:
		return "near-visible"
	case Preload:
		return "preload"
	case Background:
		return "background"
	default:
		return fmt.Sprintf("Priority(%d)", int(p))
	}
}
