// Package pmm defines the building blocks of the contiguous physical frame
// allocator: the Frame type, the 2-bit FrameState encoding and the packed
// Bitmap. The Pools themselves live in package allocator.
package pmm

import "github.com/klyne-os/microkern/kernel/mem"

// Frame describes a physical memory frame index, counted in units of
// mem.FrameSize starting from absolute frame 0.
type Frame uint64

// InvalidFrame is returned by allocators when they fail to reserve a frame.
// GetFrames can return absolute frame 0 only from a pool whose range starts
// at frame 0 and whose bitmap is stored in an external info frame; a pool
// starting at frame 0 that stores its own bitmap reserves frame 0 at
// construction, so for such pools 0 cannot be a legitimate return value.
const InvalidFrame = Frame(0)

// IsValid returns true if this is not the sentinel InvalidFrame.
func (f Frame) IsValid() bool {
	return f != InvalidFrame
}

// Address returns the physical byte address of this frame.
func (f Frame) Address() uintptr {
	return uintptr(f) << mem.PageShift
}
