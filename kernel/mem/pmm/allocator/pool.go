// Package allocator implements the contiguous physical frame allocator:
// Pool, the process-wide pool registry, and the static release entry point
// that routes a bare frame number back to its owning Pool.
package allocator

import (
	"github.com/klyne-os/microkern/kernel"
	"github.com/klyne-os/microkern/kernel/kfmt"
	"github.com/klyne-os/microkern/kernel/mem"
	"github.com/klyne-os/microkern/kernel/mem/physmem"
	"github.com/klyne-os/microkern/kernel/mem/pmm"
)

var errBitmapTooLarge = &kernel.Error{Module: "allocator", Message: "pool bitmap does not fit in a single frame"}

// Pool manages one contiguous region of physical frames, addressed as
// absolute frame numbers [baseFrameNo, baseFrameNo+nFrames).
type Pool struct {
	mem *physmem.Memory

	baseFrameNo uint64
	nFrames     uint64
	infoFrameNo uint64
	bitmap      *pmm.Bitmap
}

// NewPool constructs a Pool backed by physMem, spanning nFrames frames
// starting at baseFrameNo. If infoFrameNo is 0, the bitmap is carved out of
// the pool's own frame 0, which is then self-reserved; otherwise the
// bitmap is stored at the externally supplied infoFrameNo.
//
// NewPool halts via kernel.Panic if the bitmap required for nFrames frames
// would not fit in a single frame (spec.md §4.2.1's fatal precondition).
func NewPool(physMem *physmem.Memory, baseFrameNo, nFrames, infoFrameNo uint64) *Pool {
	if NeededInfoFrames(nFrames) != 1 {
		kernel.Panic(errBitmapTooLarge)
	}

	p := &Pool{
		mem:         physMem,
		baseFrameNo: baseFrameNo,
		nFrames:     nFrames,
		infoFrameNo: infoFrameNo,
	}

	register(p)

	bitmapFrame := infoFrameNo
	if bitmapFrame == 0 {
		bitmapFrame = baseFrameNo
	}
	bitmapLen := bitmapByteLen(nFrames)
	p.bitmap = pmm.NewBitmap(physMem.BytesAt(bitmapFrame, bitmapLen))

	for k := uint64(0); k < nFrames; k++ {
		p.bitmap.Set(k, pmm.Free)
	}
	if infoFrameNo == 0 {
		p.bitmap.Set(0, pmm.HeadOfSequence)
	}

	kfmt.Printf("[pmm] pool base=%d len=%d info=%d ready\n", baseFrameNo, nFrames, infoFrameNo)

	return p
}

// BaseFrameNo returns the absolute frame number of this pool's first frame.
func (p *Pool) BaseFrameNo() uint64 { return p.baseFrameNo }

// NFrames returns the number of frames this pool manages.
func (p *Pool) NFrames() uint64 { return p.nFrames }

// GetFrames allocates n contiguous Free frames (n ≥ 1) and returns the
// absolute frame number of the first frame in the run, or pmm.InvalidFrame
// (0) if no run of that length is available.
func (p *Pool) GetFrames(n uint64) pmm.Frame {
	if n == 0 || n > p.nFrames {
		return pmm.InvalidFrame
	}

	for start := uint64(0); start+n-1 < p.nFrames; {
		obstruction := -1
		for i := uint64(0); i < n; i++ {
			st, err := p.bitmap.Get(start + i)
			if err != nil {
				kernel.Panic(err)
			}
			if st != pmm.Free {
				obstruction = int(i)
				break
			}
		}

		if obstruction < 0 {
			p.MarkInaccessible(start, n)
			return pmm.Frame(start + p.baseFrameNo)
		}

		start = start + uint64(obstruction) + 1
	}

	return pmm.InvalidFrame
}

// MarkInaccessible forcibly reserves n consecutive frames starting at the
// relative frame index base, regardless of their prior state. It is used
// both internally by GetFrames and externally to exclude known-bad ranges
// such as memory holes.
func (p *Pool) MarkInaccessible(base, n uint64) {
	p.bitmap.Set(base, pmm.HeadOfSequence)
	for i := uint64(1); i < n; i++ {
		p.bitmap.Set(base+i, pmm.Used)
	}
}

// release frees the run beginning at relative frame index k, provided k is
// currently HeadOfSequence. Releasing a non-head frame logs a diagnostic
// and leaves the bitmap unchanged.
func (p *Pool) release(k uint64) {
	st, err := p.bitmap.Get(k)
	if err != nil {
		kernel.Panic(err)
	}

	if st != pmm.HeadOfSequence {
		kfmt.Printf("[pmm] release: frame %d is not a head of sequence\n", k+p.baseFrameNo)
		return
	}

	p.bitmap.Set(k, pmm.Free)
	for j := k + 1; j < p.nFrames; j++ {
		st, err := p.bitmap.Get(j)
		if err != nil {
			kernel.Panic(err)
		}
		if st != pmm.Used {
			break
		}
		p.bitmap.Set(j, pmm.Free)
	}
}

// bitmapByteLen returns the number of bytes needed to hold nFrames 2-bit
// state entries.
func bitmapByteLen(nFrames uint64) int {
	return int((nFrames*2 + 7) / 8)
}

// NeededInfoFrames returns the number of frames required to hold the
// bitmap for a pool of n frames. A pool always needs at least one info
// frame, even for n == 0, since the bitmap storage itself is never of
// zero size in practice (spec.md §8, "equals 1 for 0 ≤ n ≤ 16384").
func NeededInfoFrames(n uint64) uint64 {
	bits := n * 2
	frameBits := uint64(mem.FrameSize) * 8
	frames := (bits + frameBits - 1) / frameBits
	if frames == 0 {
		frames = 1
	}
	return frames
}
