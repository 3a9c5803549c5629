package voice

import (
	"fmt"
	"io"
)

// TerminalTone rings the terminal bell as the record-start confirmation.
type TerminalTone struct {
	Out io.Writer
}

func (t TerminalTone) Play() {
	if t.Out != nil {
		fmt.Fprint(t.Out, "\a")
	}
}
