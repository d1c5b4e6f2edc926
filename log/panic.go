package log

import (
	"bytes"
	"runtime/debug"

	"github.com/rs/zerolog"
)

// Panic renders a recovered panic value with the stack that led to it. The
// goroutine header and capture frames above the recovery site are trimmed.
func Panic(value any) func(e *zerolog.Event) {
	return func(e *zerolog.Event) {
		stack := debug.Stack()
		if parts := bytes.SplitN(stack, []byte("\n"), 10); len(parts) == 10 {
			stack = parts[9]
		}
		e.Dict("panic", zerolog.Dict().Any("content", value).Bytes("stack_traces", stack))
	}
}
