package cli

import (
	"flag"
	"fmt"
	"io"

	"github.com/ironsheep/slide-qa/internal/config"
	"github.com/ironsheep/slide-qa/internal/linter"
)

// runLint builds the handler for the lint command. The exit code is 0 only
// when the deck was read and has no issues.
func runLint(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}

		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		exportMap := flags.String("export-map", "", "Write the shape map JSON to this path")
		configPath := flags.String("config", "", "Path to slide-qa.yml")
		pos, code := parseCommand(cmd, flags, args, stdout, stderr, 1)
		if code >= 0 {
			return code
		}

		cfg, code := loadConfig(*configPath, stderr)
		if code >= 0 {
			return code
		}

		res, err := linter.LintFile(pos[0], *exportMap, cfg.LintOptions())
		if err != nil {
			fmt.Fprintf(stderr, "Lint failed: %v\n", err)
			return ExitError
		}

		linter.PrintReport(stdout, res)
		if !res.Passed {
			return ExitError
		}
		if *exportMap != "" {
			fmt.Fprintf(stdout, "Shape map written to %s\n", *exportMap)
		}
		return ExitOK
	}
}

// loadConfig reads the configuration and installs the logger.
func loadConfig(path string, stderr io.Writer) (config.Config, int) {
	cfg, err := config.Load(path)
	if err != nil {
		config.SetupLogging(stderr, config.GetEnv("SLIDEQA_LOG_LEVEL", "info"))
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return config.Config{}, ExitError
	}
	config.SetupLogging(stderr, cfg.LogLevel)
	return cfg, -1
}
