package pmm

import "github.com/klyne-os/microkern/kernel"

// framesPerByte is the number of 2-bit frame-state slots packed into a
// single bitmap byte.
const framesPerByte = 4

// ErrCorruptBitmap is a sentinel kernel.Error describing a read of the
// reserved 0b11 bit pattern. A production kernel has no recovery path for
// a corrupt allocator bitmap, so callers are expected to feed it straight
// to kernel.Panic.
var ErrCorruptBitmap = &kernel.Error{Module: "pmm", Message: "bitmap entry holds the reserved 0b11 pattern"}

// Bitmap is a packed array of 2-bit FrameState values, 4 per byte, backed
// by a caller-supplied byte slice (typically a view into a physmem.Memory
// frame).
type Bitmap struct {
	raw []byte
}

// NewBitmap wraps raw as a Bitmap. raw is not copied; writes through the
// Bitmap mutate it in place.
func NewBitmap(raw []byte) *Bitmap {
	return &Bitmap{raw: raw}
}

// Len returns the number of frame-state slots this bitmap can hold.
func (b *Bitmap) Len() uint64 {
	return uint64(len(b.raw)) * framesPerByte
}

// Raw returns the backing byte slice, unmediated by the 2-bit encoding.
// Used by diagnostics and by tests comparing bitmap contents wholesale.
func (b *Bitmap) Raw() []byte {
	return b.raw
}

// Get returns the state recorded for the k-th frame slot. It returns
// ErrCorruptBitmap if the stored pattern is the reserved 0b11 value.
func (b *Bitmap) Get(k uint64) (FrameState, error) {
	byteIndex := k / framesPerByte
	shift := (k % framesPerByte) * 2

	state := FrameState((b.raw[byteIndex] >> shift) & 0b11)
	if state == reserved {
		return 0, ErrCorruptBitmap
	}

	return state, nil
}

// Set records state for the k-th frame slot. Exactly one byte of the
// backing storage is read and rewritten.
func (b *Bitmap) Set(k uint64, state FrameState) {
	byteIndex := k / framesPerByte
	shift := (k % framesPerByte) * 2

	mask := byte(0b11) << shift
	b.raw[byteIndex] = (b.raw[byteIndex] &^ mask) | (byte(state) << shift)
}
