// happy2align: a requirements assistant served over MCP.
//
// It turns a vague software goal into subtopics, asks one tailored
// question per turn and ends with an editable step-by-step workflow.
//
// Usage:
//
//	happy2align serve                       # Start MCP server (stdio transport)
//	happy2align turn -s KEY I want an app   # Run one turn from the shell
//	happy2align status -s KEY               # Show a session
//	happy2align reset -s KEY                # Discard a session
//	happy2align sessions                    # List sessions
//	happy2align init                        # Write the default config file
//	happy2align version
package main

import (
	"errors"
	"os"

	"github.com/jessevdk/go-flags"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

// run parses args and executes the selected command. flags.Default prints
// parse and command errors to stderr.
func run(args []string) error {
	opts := &options{}
	parser := flags.NewParser(opts, flags.Default)
	parser.LongDescription = "A requirements assistant that clarifies a software goal one question at a time."
	registerCommands(parser, opts)
	_, err := parser.ParseArgs(args)
	return err
}
