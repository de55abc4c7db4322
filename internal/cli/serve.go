package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/ironsheep/slide-qa/internal/server"
)

func runServe(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}

		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		configPath := flags.String("config", "", "Path to slide-qa.yml")
		if _, code := parseCommand(cmd, flags, args, stdout, stderr, 0); code >= 0 {
			return code
		}

		// stdout carries the protocol; everything else goes to stderr.
		cfg, code := loadConfig(*configPath, stderr)
		if code >= 0 {
			return code
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		p, err := newPipeline(ctx, cfg)
		if err != nil {
			fmt.Fprintf(stderr, "Server error: %v\n", err)
			return ExitError
		}
		defer p.Close()

		server.Version = Version
		srv := server.New(server.Options{
			Lint:            cfg.LintOptions(),
			Critic:          p.critic,
			CritiqueTimeout: cfg.Critique.Timeout,
			MaxEdge:         cfg.Critique.MaxEdge,
			Loop:            cfg.LoopOptions(),
			Renderer:        cfg.Renderer(),
			Publisher:       p.publisher,
		})

		slog.Debug("Starting MCP server", "version", Version, "built", BuildTime, "commit", GitCommit)
		if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
			fmt.Fprintf(stderr, "Server error: %v\n", err)
			return ExitError
		}
		return ExitOK
	}
}
