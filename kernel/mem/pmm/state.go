package pmm

// FrameState describes the 2-bit state recorded for a single frame in a
// Pool's bitmap.
type FrameState uint8

const (
	// Free indicates that a frame is available for allocation.
	Free FrameState = 0b00

	// Used indicates that a frame has been handed out and is part of an
	// allocated run, but is not itself the run's first frame.
	Used FrameState = 0b01

	// HeadOfSequence indicates that a frame is the first frame of a
	// contiguous run of Used frames (or a run of length 1). Only frames
	// bearing this state can be released; releasing one releases the
	// entire run that follows it.
	HeadOfSequence FrameState = 0b10

	// reserved (0b11) never appears on a live bitmap; encountering it is
	// treated as bitmap corruption (spec.md §3, "0b11: reserved/fatal").
	reserved FrameState = 0b11
)

func (s FrameState) String() string {
	switch s {
	case Free:
		return "free"
	case Used:
		return "used"
	case HeadOfSequence:
		return "head"
	default:
		return "corrupt"
	}
}
