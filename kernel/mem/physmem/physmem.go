// Package physmem models the flat, identity-mapped physical address space
// that the frame allocator carves into pools. On real hardware this is
// simply RAM addressed linearly as frame_number*frame_size; this package
// gives that same addressing scheme a concrete, testable backing store so
// that pool bitmaps and allocated frame contents can be read and written
// without a real machine underneath. It is an external collaborator to the
// allocator (spec §6, "physical memory address mapping"), not part of the
// allocator's own logic.
package physmem

import "github.com/klyne-os/microkern/kernel/mem"

// Memory is a fixed-size byte arena addressed by frame number.
type Memory struct {
	bytes []byte
}

// New allocates a Memory large enough to back numFrames frames.
func New(numFrames uint64) *Memory {
	return &Memory{bytes: make([]byte, numFrames*uint64(mem.FrameSize))}
}

// NumFrames returns the number of frames backed by this arena.
func (m *Memory) NumFrames() uint64 {
	return uint64(len(m.bytes)) / uint64(mem.FrameSize)
}

// FrameBytes returns a slice view over the full contents of the frame with
// the given absolute frame number. Mutations to the returned slice are
// visible to subsequent reads against the same frame.
func (m *Memory) FrameBytes(frameNo uint64) []byte {
	start := frameNo * uint64(mem.FrameSize)
	return m.bytes[start : start+uint64(mem.FrameSize)]
}

// BytesAt returns a slice view of length n starting at the given absolute
// frame number's byte address. Used to resolve a pool's bitmap storage,
// which may be shorter than a full frame.
func (m *Memory) BytesAt(frameNo uint64, n int) []byte {
	start := frameNo * uint64(mem.FrameSize)
	return m.bytes[start : start+uint64(n)]
}
