package allocator

import (
	"testing"

	"github.com/klyne-os/microkern/kernel/mem/physmem"
	"github.com/stretchr/testify/assert"
)

func TestRegistrySortedByBaseFrameNo(t *testing.T) {
	resetRegistry(t)
	m := physmem.New(4096)

	NewPool(m, 1024, 512, 0)
	NewPool(m, 0, 512, 0)
	NewPool(m, 2048, 512, 0)

	assert.Len(t, registry, 3)
	assert.Equal(t, uint64(0), registry[0].baseFrameNo)
	assert.Equal(t, uint64(1024), registry[1].baseFrameNo)
	assert.Equal(t, uint64(2048), registry[2].baseFrameNo)
}

func TestRegistryRangeDisjointnessAcrossThreePools(t *testing.T) {
	resetRegistry(t)
	m := physmem.New(4096)

	NewPool(m, 0, 512, 0)
	NewPool(m, 512, 512, 0)
	NewPool(m, 1024, 1024, 0)

	for i, p := range registry {
		for j, q := range registry {
			if i == j {
				continue
			}
			pEnd := p.baseFrameNo + p.nFrames
			qEnd := q.baseFrameNo + q.nFrames
			overlap := p.baseFrameNo < qEnd && q.baseFrameNo < pEnd
			assert.False(t, overlap, "pool %d [%d,%d) overlaps pool %d [%d,%d)",
				i, p.baseFrameNo, pEnd, j, q.baseFrameNo, qEnd)
		}
	}
}

func TestReleaseFramesUnownedFrameIsNoop(t *testing.T) {
	resetRegistry(t)
	m := physmem.New(4096)

	NewPool(m, 512, 512, 0)

	// No pool owns absolute frame 3000; this must not panic or alter
	// anything.
	assert.NotPanics(t, func() { ReleaseFrames(3000) })
}
