package kernel

import "github.com/klyne-os/microkern/kernel/kfmt"

var (
	// haltFn is mocked by tests. On real hardware this would trap into a
	// CPU halt instruction; a blocking wait loop is the documented
	// fallback for a pre-scheduler kernel context that has nowhere else
	// to hand control to.
	haltFn = func() {
		for {
		}
	}

	errRuntimePanic = &Error{Module: "rt", Message: "unknown cause"}
)

// Panic outputs the supplied error (if not nil) to the console and halts.
// Calls to Panic never return. This is the allocator's only fatal-error
// path: a construction precondition violation or observed bitmap
// corruption (the reserved 0b11 encoding) both route through here.
func Panic(e interface{}) {
	var err *Error

	switch t := e.(type) {
	case *Error:
		err = t
	case string:
		errRuntimePanic.Message = t
		err = errRuntimePanic
	case error:
		errRuntimePanic.Message = t.Error()
		err = errRuntimePanic
	}

	kfmt.Printf("\n-----------------------------------\n")
	if err != nil {
		kfmt.Printf("[%s] unrecoverable error: %s\n", err.Module, err.Message)
	}
	kfmt.Printf("*** kernel panic: system halted ***")
	kfmt.Printf("\n-----------------------------------\n")

	haltFn()
}
