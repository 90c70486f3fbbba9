// Package hal summarizes the hardware-abstraction collaborators that the
// physical frame allocator is driven by but does not itself implement: the
// bring-up console. The real VGA/EGA text-mode console and multiboot
// framebuffer discovery are out of scope for this module (see DESIGN.md);
// this package keeps only the narrow settable-collaborator seam the
// allocator's diagnostics write through.
package hal

import (
	"io"
	"os"
)

// Console is the character-output collaborator used for allocator
// diagnostics and fatal-error reporting.
type Console interface {
	io.Writer
	WriteByte(c byte) error
}

// stdoutConsole adapts os.Stdout to the Console interface.
type stdoutConsole struct {
	*os.File
}

func (c stdoutConsole) WriteByte(b byte) error {
	_, err := c.Write([]byte{b})
	return err
}

// ActiveConsole is the console currently receiving kernel diagnostic
// output. It defaults to stdout; tests swap it out to capture or silence
// output, mirroring the teacher's hal.ActiveTerminal indirection.
var ActiveConsole Console = stdoutConsole{os.Stdout}
