package allocator

import "sort"

// registry is the process-wide, sorted-by-base_frame_no collection of all
// live pools. It grows monotonically as pools are constructed and is read
// only by ReleaseFrames.
var registry []*Pool

// register inserts p into the registry at the position that keeps it
// sorted ascending by base frame number.
func register(p *Pool) {
	idx := sort.Search(len(registry), func(i int) bool {
		return registry[i].baseFrameNo >= p.baseFrameNo
	})

	registry = append(registry, nil)
	copy(registry[idx+1:], registry[idx:])
	registry[idx] = p
}

// ReleaseFrames is the static entry point for releasing an allocation: the
// caller supplies only the absolute frame number of the run's first frame
// (spec.md §4.3). The registry's sort order lets the owning pool be found
// by binary search on base_frame_no rather than a linear walk; the pool
// found is then asked to release the run starting at that relative index.
// If no pool owns absoluteFrameNo, the call silently does nothing.
func ReleaseFrames(absoluteFrameNo uint64) {
	// idx is the first pool whose base_frame_no is strictly greater than
	// absoluteFrameNo; the owning pool, if any, is the one just before it.
	idx := sort.Search(len(registry), func(i int) bool {
		return registry[i].baseFrameNo > absoluteFrameNo
	})

	if idx > 0 {
		p := registry[idx-1]
		if absoluteFrameNo <= p.baseFrameNo+p.nFrames-1 {
			p.release(absoluteFrameNo - p.baseFrameNo)
		}
	}
}
