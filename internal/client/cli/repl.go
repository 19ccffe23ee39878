package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL needs. *App satisfies it.
type execIface interface {
	Exec(ctx context.Context, args []string) error
}

// runREPL reads commands line by line from reader and dispatches them to a
// until EOF, "exit" or "quit", or ctx cancellation. The prompt shows the
// current connectivity mode from statusFn. Command errors are printed and
// the loop goes on. Commands that need more input read it from the same
// reader.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("admindata (%s) > ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			if err := a.Exec(ctx, parts); err != nil {
				printlnFn("Error:", err)
			}
		}
	}
}
