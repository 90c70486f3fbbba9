// Package paging demonstrates the minimal allocator contract a page-table
// bootstrapper needs: a page directory frame, an initial page table frame,
// and the ability to request further single frames for page tables created
// on demand. The paging subsystem itself — walking tables, handling
// faults, recursive mappings — is out of scope; only the shape of its
// dependency on the frame allocator is modeled here.
package paging

import "github.com/klyne-os/microkern/kernel/mem/pmm"

// FrameAllocator is the surface a Bootstrapper requires from a Pool: a
// single-frame request that returns pmm.InvalidFrame on exhaustion.
type FrameAllocator interface {
	GetFrames(n uint64) pmm.Frame
}

// Bootstrapper wires up the frames needed to bring up paging: one frame for
// the page directory and one for the first page table, both obtained via
// single-frame requests against a FrameAllocator (spec.md §4.4).
type Bootstrapper struct {
	alloc FrameAllocator

	pdtFrame       pmm.Frame
	pageTableFrame pmm.Frame
}

// NewBootstrapper reserves the page directory frame and the initial page
// table frame from alloc. It returns false if either request fails.
func NewBootstrapper(alloc FrameAllocator) (*Bootstrapper, bool) {
	pdt := alloc.GetFrames(1)
	if !pdt.IsValid() {
		return nil, false
	}

	pt := alloc.GetFrames(1)
	if !pt.IsValid() {
		return nil, false
	}

	return &Bootstrapper{alloc: alloc, pdtFrame: pdt, pageTableFrame: pt}, true
}

// PageDirectoryFrame returns the frame reserved for the page directory.
func (b *Bootstrapper) PageDirectoryFrame() pmm.Frame { return b.pdtFrame }

// InitialPageTableFrame returns the frame reserved for the first page table.
func (b *Bootstrapper) InitialPageTableFrame() pmm.Frame { return b.pageTableFrame }

// NewPageTable requests one additional frame to back a page table created
// on demand, e.g. when a virtual address outside the range covered by the
// initial table is mapped. It returns pmm.InvalidFrame if the backing pool
// is exhausted.
func (b *Bootstrapper) NewPageTable() pmm.Frame {
	return b.alloc.GetFrames(1)
}
