package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// command is a REPL command. Clinician-only commands are hidden from
// patients.
type command struct {
	name      string
	usage     string
	clinician bool
	run       func(ctx context.Context, args []string) error
}

// runREPL starts a simple read–eval–print loop.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to the matching entry of cmds. Unknown commands are reported
// back to the user. The loop exits on EOF, when ctx is done, or when the user
// types "exit" or "quit".
//
// Errors returned by command handlers are printed and the loop goes on.
func runREPL(ctx context.Context, cmds []command, clinician bool, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	byName := make(map[string]command, len(cmds))
	for _, c := range cmds {
		byName[c.name] = c
	}

	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprintf(w, "dmo %s> ", statusFn())

		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			fmt.Fprintln(w)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		name, args := parts[0], parts[1:]

		switch name {
		case "help":
			printHelp(w, cmds, clinician)
			continue
		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return
		}

		c, ok := byName[name]
		if !ok || (c.clinician && !clinician) {
			fmt.Fprintln(w, "Unknown command:", name)
			continue
		}
		if err := c.run(ctx, args); err != nil {
			fmt.Fprintln(w, "Error:", err)
		}
	}
}

func printHelp(w io.Writer, cmds []command, clinician bool) {
	fmt.Fprintln(w, "Available commands:")
	for _, c := range cmds {
		if c.clinician && !clinician {
			continue
		}
		fmt.Fprintf(w, "  %s\n", c.usage)
	}
	fmt.Fprintln(w, "  help\n  exit")
}

func usageError(usage string) error {
	return fmt.Errorf("usage: %s", usage)
}
