// Command formflow lints, previews and runs journey definitions from the
// terminal.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
)

// CLI is the command tree.
type CLI struct {
	Globals

	Lint   LintCmd   `cmd:"" help:"Load journey definitions and report problems."`
	Render RenderCmd `cmd:"" help:"Render one step as HTML."`
	Run    RunCmd    `cmd:"" help:"Answer a journey interactively."`
	Sweep  SweepCmd  `cmd:"" help:"Purge stale records from a SQLite store."`
}

// Globals are shared by every command.
type Globals struct {
	LogLevel string `help:"Log level (debug, info, warn, error)." default:"warn" env:"FORMFLOW_LOG_LEVEL"`
	LogJSON  bool   `help:"Emit JSON logs." env:"FORMFLOW_LOG_JSON"`
	Locales  string `help:"Directory of translation catalogs." type:"existingdir" env:"FORMFLOW_LOCALES"`
	Locale   string `help:"Locale used for labels and messages." default:"en" env:"FORMFLOW_LOCALE"`

	Out io.Writer `kong:"-"`
	Err io.Writer `kong:"-"`
}

func main() {
	code := execute(os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}

func execute(args []string, stdout, stderr io.Writer) int {
	cli := CLI{Globals: Globals{Out: stdout, Err: stderr}}
	parser, err := kong.New(&cli,
		kong.Name("formflow"),
		kong.Description("Multi-step form journeys."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
	)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	if err := ctx.Run(&cli.Globals); err != nil {
		fmt.Fprintf(stderr, "formflow: %v\n", err)
		return 1
	}
	return 0
}
