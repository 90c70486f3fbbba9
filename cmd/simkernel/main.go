// Command simkernel is a hosted stand-in for the freestanding kernel's
// early boot sequence. In place of the real rt0 trampoline handing control
// to Kmain with multiboot-supplied physical memory bounds, this binary
// wires up the reference-configuration pools directly and runs the
// construct/exhaust/recycle walkthrough against them, reporting the
// outcome on the console.
package main

import (
	"encoding/binary"

	"github.com/klyne-os/microkern/kernel"
	"github.com/klyne-os/microkern/kernel/kfmt"
	"github.com/klyne-os/microkern/kernel/mem/physmem"
	"github.com/klyne-os/microkern/kernel/mem/pmm/allocator"
	"github.com/klyne-os/microkern/kernel/paging"
)

const (
	kernelPoolBase = 512
	kernelPoolLen  = 512

	processPoolBase = 1024
	processPoolLen  = 7168

	memHoleStartAbs = 15 * 1024 * 1024 / 4096
	memHoleLen      = 1024 * 1024 / 4096
)

var errSimReturned = &kernel.Error{Module: "simkernel", Message: "main returned"}

func main() {
	physMem := physmem.New(processPoolBase + processPoolLen)

	kernelPool := allocator.NewPool(physMem, kernelPoolBase, kernelPoolLen, 0)

	runConstructExhaustRecycle(physMem, kernelPool)

	infoFrame := kernelPool.GetFrames(1)
	if !infoFrame.IsValid() {
		kernel.Panic(&kernel.Error{Module: "simkernel", Message: "could not reserve info frame for process pool"})
	}
	processPool := allocator.NewPool(physMem, processPoolBase, processPoolLen, uint64(infoFrame))

	processPool.MarkInaccessible(memHoleStartAbs-processPoolBase, memHoleLen)
	kfmt.Printf("[simkernel] excluded memory hole at frame %d, length %d\n", memHoleStartAbs, memHoleLen)

	if bootstrapper, ok := paging.NewBootstrapper(processPool); ok {
		kfmt.Printf("[simkernel] paging bootstrap: pdt=%d pt=%d\n",
			uint64(bootstrapper.PageDirectoryFrame()), uint64(bootstrapper.InitialPageTableFrame()))
	} else {
		kfmt.Printf("[simkernel] paging bootstrap failed: process pool exhausted\n")
	}

	kernel.Panic(errSimReturned)
}

// runConstructExhaustRecycle replays the kernel pool construct/exhaust/
// recycle scenario: allocate the entire usable pool, stamp a distinct
// 32-bit value into every word of it, verify the values read back
// unchanged, release the run, confirm the pool can satisfy the exact same
// request again, and release that second run as well.
func runConstructExhaustRecycle(physMem *physmem.Memory, pool *allocator.Pool) {
	first := pool.GetFrames(kernelPoolLen - 1)
	if !first.IsValid() {
		kernel.Panic(&kernel.Error{Module: "simkernel", Message: "kernel pool exhaustion test failed to allocate"})
	}

	for i := uint64(0); i < kernelPoolLen-1; i++ {
		binary.LittleEndian.PutUint32(physMem.FrameBytes(uint64(first)+i)[:4], uint32(i))
	}
	for i := uint64(0); i < kernelPoolLen-1; i++ {
		if got := binary.LittleEndian.Uint32(physMem.FrameBytes(uint64(first) + i)[:4]); got != uint32(i) {
			kernel.Panic(&kernel.Error{Module: "simkernel", Message: "kernel pool readback mismatch"})
		}
	}

	allocator.ReleaseFrames(uint64(first))

	second := pool.GetFrames(kernelPoolLen - 1)
	if second != first {
		kernel.Panic(&kernel.Error{Module: "simkernel", Message: "kernel pool did not recycle the released run"})
	}
	allocator.ReleaseFrames(uint64(second))

	kfmt.Printf("[simkernel] kernel pool construct/exhaust/recycle: ok (frame %d)\n", pool.BaseFrameNo())
}
