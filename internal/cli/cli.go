// Package cli implements the slide-qa command line.
package cli

import (
	"flag"
	"fmt"
	"io"
)

const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

type Command struct {
	Name    string
	Summary string
	Usage   []string
	Run     func(args []string, stdout, stderr io.Writer) int
}

// Run dispatches args (without the program name) and returns the exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stdout)
		return ExitUsage
	}
	if isHelpArg(args[0]) {
		printUsage(stdout)
		return ExitOK
	}
	name := args[0]
	if isVersionArg(name) {
		name = "version"
	}

	cmd := findCommand(name)
	if cmd == nil {
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", name)
		printUsage(stderr)
		return ExitUsage
	}

	return cmd.Run(args[1:], stdout, stderr)
}

func findCommand(name string) *Command {
	for _, cmd := range commands {
		if cmd.Name == name {
			return cmd
		}
	}
	return nil
}

func isHelpArg(arg string) bool {
	switch arg {
	case "-h", "--help", "help":
		return true
	default:
		return false
	}
}

func isVersionArg(arg string) bool {
	return arg == "-v" || arg == "--version"
}

func wantsHelp(args []string) bool {
	for _, arg := range args {
		switch arg {
		case "-h", "--help":
			return true
		}
	}
	return false
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  slide-qa <command> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-9s %s\n", cmd.Name, cmd.Summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables:")
	fmt.Fprintln(w, "  SLIDEQA_LOG_LEVEL=debug    Enable debug logging")
	fmt.Fprintln(w, "\nUse \"slide-qa <command> --help\" for more information.")
}

func printCommandUsage(cmd *Command, w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	for _, line := range cmd.Usage {
		fmt.Fprintf(w, "  %s\n", line)
	}
	if cmd.Summary != "" {
		fmt.Fprintf(w, "\n%s\n", cmd.Summary)
	}
}

func command(name, summary string, usage []string, runner func(cmd *Command) func(args []string, stdout, stderr io.Writer) int) *Command {
	cmd := &Command{
		Name:    name,
		Summary: summary,
		Usage:   usage,
	}
	cmd.Run = runner(cmd)
	return cmd
}

var commands = []*Command{
	command("lint", "Check a deck for off-canvas and overlapping shapes", []string{
		"slide-qa lint <deck.pptx> [--export-map <path>] [--config <path>]",
	}, runLint),
	command("annotate", "Draw numbered shape marks onto a rendered slide", []string{
		"slide-qa annotate <image> --map <shape-map.json> --slide <index> --out <path>",
	}, runAnnotate),
	command("review", "Lint, render, annotate and critique a deck", []string{
		"slide-qa review <deck.pptx> [--out <dir>] [--config <path>]",
	}, runReview),
	command("serve", "Serve the pipeline as MCP tools over stdio", []string{
		"slide-qa serve [--config <path>]",
	}, runServe),
	command("version", "Print version information", []string{
		"slide-qa version",
	}, runVersion),
}

// parseArgs parses flags that may appear before, between or after
// positional arguments, and returns the positional arguments.
func parseArgs(flags *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := flags.Parse(args); err != nil {
			return nil, err
		}
		args = flags.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

// parseCommand applies the shared flag handling and checks the number of
// positional arguments. A non-negative code means the caller should return it.
func parseCommand(cmd *Command, flags *flag.FlagSet, args []string, stdout, stderr io.Writer, positional int) ([]string, int) {
	flags.SetOutput(stderr)
	pos, err := parseArgs(flags, args)
	if err != nil {
		if err == flag.ErrHelp {
			printCommandUsage(cmd, stdout)
			return nil, ExitOK
		}
		fmt.Fprintf(stderr, "invalid arguments: %v\n", err)
		printCommandUsage(cmd, stderr)
		return nil, ExitUsage
	}
	if len(pos) != positional {
		fmt.Fprintf(stderr, "expected %d argument(s), got %d\n", positional, len(pos))
		printCommandUsage(cmd, stderr)
		return nil, ExitUsage
	}
	return pos, -1
}
