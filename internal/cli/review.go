package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/ironsheep/slide-qa/internal/config"
	"github.com/ironsheep/slide-qa/internal/critique"
	"github.com/ironsheep/slide-qa/internal/loop"
	"github.com/ironsheep/slide-qa/internal/publish"
)

func runReview(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}

		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		outDir := flags.String("out", "", "Run directory, wiped before the run (default: output_dir from config)")
		configPath := flags.String("config", "", "Path to slide-qa.yml")
		pos, code := parseCommand(cmd, flags, args, stdout, stderr, 1)
		if code >= 0 {
			return code
		}

		cfg, code := loadConfig(*configPath, stderr)
		if code >= 0 {
			return code
		}
		if *outDir != "" {
			cfg.OutputDir = *outDir
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		p, err := newPipeline(ctx, cfg)
		if err != nil {
			fmt.Fprintf(stderr, "Review failed: %v\n", err)
			return ExitError
		}
		defer p.Close()

		run, err := loop.New(cfg.LoopOptions(), cfg.Renderer(), p.critic, p.publisher).Run(ctx, pos[0])
		printRun(stdout, run)
		if err != nil {
			fmt.Fprintf(stderr, "Review aborted: %v\n", err)
			return ExitError
		}
		return ExitOK
	}
}

// pipeline holds the external services a run talks to.
type pipeline struct {
	critic    critique.Critic
	publisher publish.Publisher
	gcs       *publish.GCS
}

func newPipeline(ctx context.Context, cfg config.Config) (*pipeline, error) {
	p := &pipeline{critic: critique.New(ctx, cfg.CritiqueConfig())}
	if cfg.Publish.Bucket != "" {
		gcs, err := publish.NewGCS(ctx, cfg.Publish.Bucket, cfg.Publish.Prefix)
		if err != nil {
			critique.Close(p.critic)
			return nil, fmt.Errorf("publisher: %w", err)
		}
		p.gcs = gcs
		p.publisher = gcs
	}
	return p, nil
}

func (p *pipeline) Close() {
	if err := critique.Close(p.critic); err != nil {
		slog.Warn("Failed to close critique client", "error", err)
	}
	if p.gcs != nil {
		if err := p.gcs.Close(); err != nil {
			slog.Warn("Failed to close storage client", "error", err)
		}
	}
}

func printRun(w io.Writer, run *loop.RunState) {
	if run == nil {
		return
	}
	fmt.Fprintf(w, "Run %s: %s after %d iteration(s)\n", run.RunID, run.State, run.Iteration)
	if len(run.Issues) > 0 {
		fmt.Fprintf(w, "Lint issues: %d\n", len(run.Issues))
		for _, issue := range run.Issues {
			fmt.Fprintf(w, "  - %s\n", issue)
		}
	}
	if run.ReportPath == "" {
		return
	}
	skipped := 0
	for _, c := range run.Critiques {
		if c.Skipped {
			skipped++
		}
	}
	fmt.Fprintf(w, "Report: %s\n", run.ReportPath)
	fmt.Fprintf(w, "Slides: %d reviewed, %d skipped, visual pass: %v\n", len(run.Critiques), skipped, run.VisualPassed)
}
