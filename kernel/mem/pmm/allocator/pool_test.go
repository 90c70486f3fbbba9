package allocator

import (
	"encoding/binary"
	"testing"

	"github.com/klyne-os/microkern/kernel/mem/physmem"
	"github.com/klyne-os/microkern/kernel/mem/pmm"
	"github.com/stretchr/testify/assert"
)

// resetRegistry clears the process-wide registry between tests so that
// pools constructed by one test do not leak into another's static release
// routing. Production code never does this; the registry grows for the
// kernel's entire lifetime.
func resetRegistry(t *testing.T) {
	t.Helper()
	prev := registry
	registry = nil
	t.Cleanup(func() { registry = prev })
}

func writeWord(m *physmem.Memory, frameNo uint64, v uint32) {
	binary.LittleEndian.PutUint32(m.FrameBytes(frameNo)[:4], v)
}

func readWord(m *physmem.Memory, frameNo uint64) uint32 {
	return binary.LittleEndian.Uint32(m.FrameBytes(frameNo)[:4])
}

func TestNeededInfoFrames(t *testing.T) {
	assert.Equal(t, uint64(1), NeededInfoFrames(0))
	assert.Equal(t, uint64(1), NeededInfoFrames(1))
	assert.Equal(t, uint64(1), NeededInfoFrames(512))
	assert.Equal(t, uint64(1), NeededInfoFrames(16384))
	assert.Equal(t, uint64(2), NeededInfoFrames(16385))

	// Monotone nondecreasing.
	prev := uint64(0)
	for _, n := range []uint64{0, 1, 512, 4096, 16384, 16385, 32768, 65536} {
		got := NeededInfoFrames(n)
		assert.GreaterOrEqual(t, got, prev)
		prev = got
	}
}

func TestNewPoolSelfReservesFrameZero(t *testing.T) {
	resetRegistry(t)
	m := physmem.New(1024)
	p := NewPool(m, 512, 512, 0)

	st, err := p.bitmap.Get(0)
	assert.NoError(t, err)
	assert.Equal(t, pmm.HeadOfSequence, st)
}

func TestGetFramesExternallyBackedExhaustsAtBase(t *testing.T) {
	resetRegistry(t)
	m := physmem.New(2048)
	infoPool := NewPool(m, 0, 512, 0)
	info := infoPool.GetFrames(1)
	assert.True(t, info.IsValid())

	p := NewPool(m, 1024, 512, uint64(info))
	got := p.GetFrames(512)
	assert.Equal(t, pmm.Frame(1024), got)
}

func TestGetFramesSelfBackedReservesFrameZero(t *testing.T) {
	resetRegistry(t)
	m := physmem.New(1024)
	p := NewPool(m, 512, 512, 0)

	assert.Equal(t, pmm.InvalidFrame, p.GetFrames(512))
	assert.Equal(t, pmm.Frame(513), p.GetFrames(511))
}

func TestGetFramesFailsWhenPoolFull(t *testing.T) {
	resetRegistry(t)
	m := physmem.New(1024)
	p := NewPool(m, 512, 512, 0)

	assert.True(t, p.GetFrames(511).IsValid())
	assert.Equal(t, pmm.InvalidFrame, p.GetFrames(1))
}

func TestGetFramesAdvancesPastObstruction(t *testing.T) {
	resetRegistry(t)
	m := physmem.New(1024)
	p := NewPool(m, 512, 512, 0)

	// Reserve relative frames 5..7 directly, leaving 0(head),1-4 free,
	// 5-7 used, 8.. free. A request for 6 frames: the window at 1 meets
	// frame 5, so the scan resumes at 6 (not 2), steps over the reserved
	// frames 6 and 7, and lands on the first fit at 8.
	p.MarkInaccessible(5, 3)

	got := p.GetFrames(6)
	assert.Equal(t, pmm.Frame(512+8), got)
}

func TestReleaseNonHeadIsNoop(t *testing.T) {
	resetRegistry(t)
	m := physmem.New(1024)
	p := NewPool(m, 512, 512, 0)

	f := p.GetFrames(4)
	assert.True(t, f.IsValid())

	before := make([]byte, len(p.bitmap.Raw()))
	copy(before, p.bitmap.Raw())

	// relative index 2 is the second frame of the 4-frame run: Used, not
	// HeadOfSequence.
	rel := uint64(f) - p.baseFrameNo + 1
	p.release(rel)

	assert.Equal(t, before, p.bitmap.Raw())
}

func TestMarkInaccessibleThenReleaseRestoresFree(t *testing.T) {
	resetRegistry(t)
	m := physmem.New(2048)
	p := NewPool(m, 1024, 512, 0)

	p.MarkInaccessible(10, 5)
	ReleaseFrames(1024 + 10)

	for k := uint64(10); k < 15; k++ {
		st, err := p.bitmap.Get(k)
		assert.NoError(t, err)
		assert.Equal(t, pmm.Free, st)
	}
}

func TestScenario1ConstructAndExhaustKernelPool(t *testing.T) {
	resetRegistry(t)
	m := physmem.New(1024)
	p := NewPool(m, 512, 512, 0)

	f := p.GetFrames(511)
	assert.Equal(t, pmm.Frame(513), f)

	for i := uint64(0); i < 511; i++ {
		writeWord(m, 513+i, uint32(i))
	}
	for i := uint64(0); i < 511; i++ {
		assert.Equal(t, uint32(i), readWord(m, 513+i))
	}

	ReleaseFrames(513)

	f2 := p.GetFrames(511)
	assert.Equal(t, pmm.Frame(513), f2)
}

func TestScenario2RecursiveStripedAllocation(t *testing.T) {
	resetRegistry(t)
	m := physmem.New(1024)
	p := NewPool(m, 0, 1024, 0)

	var recurse func(i int)
	recurse = func(i int) {
		if i == 0 {
			return
		}
		n := uint64(i%4 + 1)
		f := p.GetFrames(n)
		if !assert.True(t, f.IsValid(), "allocation %d of %d frames failed", i, n) {
			return
		}

		for w := uint64(0); w < n; w++ {
			writeWord(m, uint64(f)+w, uint32(i))
		}

		recurse(i - 1)

		for w := uint64(0); w < n; w++ {
			assert.Equal(t, uint32(i), readWord(m, uint64(f)+w))
		}

		ReleaseFrames(uint64(f))
	}

	recurse(32)
}

func TestScenario3FragmentationFreeContiguousStress(t *testing.T) {
	resetRegistry(t)
	m := physmem.New(1024)
	p := NewPool(m, 0, 1024, 0)

	var allocations []pmm.Frame
	var n uint64
	for {
		remaining := p.nFrames - n
		if remaining == 0 {
			break
		}
		chunk := uint64(10)
		if remaining < 10 {
			chunk = remaining
		}
		f := p.GetFrames(chunk)
		if !f.IsValid() {
			break
		}
		allocations = append(allocations, f)
		n += chunk
	}

	counter := uint32(0)
	for _, f := range allocations {
		writeWord(m, uint64(f), counter)
		counter++
	}

	// Strictly increasing start addresses: sequential allocations never
	// reuse or go backwards while the pool has room.
	for i := 1; i < len(allocations); i++ {
		assert.Greater(t, uint64(allocations[i]), uint64(allocations[i-1]))
	}

	for i, f := range allocations {
		assert.Equal(t, uint32(i), readWord(m, uint64(f)))
	}
}

func TestScenario4MemoryHoleExclusion(t *testing.T) {
	resetRegistry(t)
	const mib = 1024 * 1024 / 4096
	m := physmem.New(9216)

	info := NewPool(m, 0, 512, 0).GetFrames(1)
	p := NewPool(m, 1024, 7168, uint64(info))

	holeStart := 15*mib - 1024
	p.MarkInaccessible(holeStart, 256)

	holeAbsStart := uint64(15 * mib)
	for {
		f := p.GetFrames(64)
		if !f.IsValid() {
			break
		}
		abs := uint64(f)
		assert.False(t, abs < holeAbsStart+256 && abs+64 > holeAbsStart,
			"GetFrames returned a run overlapping the excluded memory hole: %d", abs)
	}
}

func TestScenario5StaticReleaseRouting(t *testing.T) {
	resetRegistry(t)
	m := physmem.New(9216)

	a := NewPool(m, 512, 512, 0)
	infoB := a.GetFrames(1)
	b := NewPool(m, 1024, 7168, uint64(infoB))

	fa := a.GetFrames(1)
	fb := b.GetFrames(1)
	assert.True(t, fa.IsValid())
	assert.True(t, fb.IsValid())

	bBitmapBefore := make([]byte, len(b.bitmap.Raw()))
	copy(bBitmapBefore, b.bitmap.Raw())

	ReleaseFrames(uint64(fa))

	assert.Equal(t, bBitmapBefore, b.bitmap.Raw())

	st, err := a.bitmap.Get(uint64(fa) - a.baseFrameNo)
	assert.NoError(t, err)
	assert.Equal(t, pmm.Free, st)

	aBitmapBefore := make([]byte, len(a.bitmap.Raw()))
	copy(aBitmapBefore, a.bitmap.Raw())

	ReleaseFrames(uint64(fb))

	assert.Equal(t, aBitmapBefore, a.bitmap.Raw())
	st, err = b.bitmap.Get(uint64(fb) - b.baseFrameNo)
	assert.NoError(t, err)
	assert.Equal(t, pmm.Free, st)
}

func TestScenario6NeededInfoFramesIdentity(t *testing.T) {
	assert.Equal(t, uint64(1), NeededInfoFrames(512))
}

func TestRunWellFormedness(t *testing.T) {
	resetRegistry(t)
	m := physmem.New(1024)
	p := NewPool(m, 0, 1024, 0)

	f := p.GetFrames(7)
	assert.True(t, f.IsValid())

	for k := uint64(f) - p.baseFrameNo; k < uint64(f)-p.baseFrameNo+7; k++ {
		st, err := p.bitmap.Get(k)
		assert.NoError(t, err)
		if k == uint64(f)-p.baseFrameNo {
			assert.Equal(t, pmm.HeadOfSequence, st)
		} else {
			assert.Equal(t, pmm.Used, st)
		}
	}
}
