package loop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/slide-qa/internal/critique"
	"github.com/ironsheep/slide-qa/internal/imaging"
	"github.com/ironsheep/slide-qa/internal/linter"
	"github.com/ironsheep/slide-qa/internal/publish"
	"github.com/ironsheep/slide-qa/internal/render"
	"github.com/ironsheep/slide-qa/internal/shapemap"
)

var (
	// ErrLintFailed aborts a run whose candidate has lint issues.
	ErrLintFailed = errors.New("lint gate failed")

	// ErrRenderFailed aborts a run whose candidate could not be rendered.
	ErrRenderFailed = errors.New("render failed")
)

// Options configures an Orchestrator. Zero values select defaults.
type Options struct {
	// OutputDir is wiped at the start of every run.
	OutputDir string

	MaxIterations int
	Concurrency   int

	// CritiqueTimeout bounds each critique call.
	CritiqueTimeout time.Duration

	// Budget bounds the whole run. Zero means no bound.
	Budget time.Duration

	// MaxEdge bounds the longest edge of images sent for critique. Zero
	// selects imaging.DefaultTransportSize; a negative value sends renders
	// at full size.
	MaxEdge int

	Lint     linter.Options
	Annotate imaging.AnnotateOptions
}

func (o Options) withDefaults() Options {
	if o.OutputDir == "" {
		o.OutputDir = "slide-qa-out"
	}
	if o.MaxIterations < 1 {
		o.MaxIterations = 3
	}
	if o.Concurrency < 1 {
		o.Concurrency = 1
	}
	if o.CritiqueTimeout <= 0 {
		o.CritiqueTimeout = critique.DefaultTimeout
	}
	if o.MaxEdge == 0 {
		o.MaxEdge = imaging.DefaultTransportSize
	}
	return o
}

// Orchestrator drives runs. It is safe to reuse for sequential runs.
type Orchestrator struct {
	opts      Options
	renderer  render.Renderer
	critic    critique.Critic
	publisher publish.Publisher
	cache     *imaging.ImageCache
}

// New creates an Orchestrator. publisher may be nil.
func New(opts Options, renderer render.Renderer, critic critique.Critic, publisher publish.Publisher) *Orchestrator {
	if critic == nil {
		critic = critique.Disabled{Reason: "no critic"}
	}
	return &Orchestrator{
		opts:      opts.withDefaults(),
		renderer:  renderer,
		critic:    critic,
		publisher: publisher,
		cache:     imaging.NewImageCache(),
	}
}

// Run reviews the deck at input. The returned RunState is always non-nil
// and records how far the run got; the error is set when it was aborted.
func (o *Orchestrator) Run(ctx context.Context, input string) (*RunState, error) {
	if o.opts.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.Budget)
		defer cancel()
	}

	run := &RunState{RunID: uuid.NewString(), OutputDir: o.opts.OutputDir}
	log := slog.With("run_id", run.RunID)
	log.Info("Starting review run", "input", input, "output_dir", run.OutputDir)

	run.enter(StateInit)
	if err := o.initRun(run, input); err != nil {
		return o.abort(log, run, err)
	}

	for run.Iteration = 1; run.Iteration <= o.opts.MaxIterations; run.Iteration++ {
		log := log.With("iteration", run.Iteration)
		iterDir := filepath.Join(run.OutputDir, fmt.Sprintf("iter_%d", run.Iteration))

		run.enter(StateLintGate)
		m, err := o.lintGate(log, run, iterDir)
		if err != nil {
			return o.abort(log, run, err)
		}

		run.enter(StateRender)
		images, err := o.render(ctx, log, run, iterDir, len(m))
		if err != nil {
			return o.abort(log, run, err)
		}

		run.enter(StateAnnotateAndCritique)
		o.annotateAndCritique(ctx, log, run, iterDir, images, m)

		run.enter(StateReport)
		if err := o.report(run); err != nil {
			return o.abort(log, run, err)
		}
		log.Info("Iteration report written", "path", run.ReportPath, "visual_passed", run.VisualPassed)
		o.publish(ctx, log, run)

		if err := ctx.Err(); err != nil {
			return o.abort(log, run, fmt.Errorf("run budget exhausted: %w", err))
		}

		run.enter(StateAutoPatch)
		if !o.autoPatch(log, run) {
			break
		}
	}

	if run.Iteration > o.opts.MaxIterations {
		run.Iteration = o.opts.MaxIterations
	}
	run.enter(StateDone)
	log.Info("Review run finished", "iterations", run.Iteration, "visual_passed", run.VisualPassed)
	return run, nil
}

func (o *Orchestrator) abort(log *slog.Logger, run *RunState, err error) (*RunState, error) {
	log.Error("Review run aborted", "state", run.State, "error", err)
	run.enter(StateAborted)
	run.Error = err.Error()
	return run, err
}

// initRun wipes the run directory and copies the candidate into it.
func (o *Orchestrator) initRun(run *RunState, input string) error {
	if _, err := os.Stat(input); err != nil {
		return fmt.Errorf("candidate: %w", err)
	}
	if within(input, run.OutputDir) {
		return fmt.Errorf("candidate %s is inside the output directory %s, which is wiped on every run", input, run.OutputDir)
	}
	if err := os.RemoveAll(run.OutputDir); err != nil {
		return fmt.Errorf("failed to clear output directory: %w", err)
	}
	if err := os.MkdirAll(run.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	run.Candidate = filepath.Join(run.OutputDir, filepath.Base(input))
	if err := copyFile(input, run.Candidate); err != nil {
		return fmt.Errorf("failed to copy candidate: %w", err)
	}
	return nil
}

func (o *Orchestrator) lintGate(log *slog.Logger, run *RunState, iterDir string) (shapemap.ShapeMap, error) {
	res, err := linter.LintFile(run.Candidate, "", o.opts.Lint)
	run.LintPassed = res.Passed
	run.Issues = res.Issues
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLintFailed, err)
	}
	if !res.Passed {
		for _, issue := range res.Issues {
			log.Warn("Lint issue", "issue", issue.String())
		}
		return nil, fmt.Errorf("%w: %d issue(s)", ErrLintFailed, len(res.Issues))
	}

	run.ShapeMapPath = filepath.Join(iterDir, "shape_map.json")
	if err := res.Map.Write(run.ShapeMapPath); err != nil {
		return nil, err
	}
	log.Info("Lint gate passed", "slides", len(res.Map), "shape_map", run.ShapeMapPath)
	return res.Map, nil
}

func (o *Orchestrator) render(ctx context.Context, log *slog.Logger, run *RunState, iterDir string, slides int) ([]string, error) {
	run.RenderDir = filepath.Join(iterDir, "render")
	if o.renderer == nil {
		return nil, fmt.Errorf("%w: no renderer configured", ErrRenderFailed)
	}
	images, err := o.renderer.Render(ctx, run.Candidate, run.RenderDir, slides)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRenderFailed, err)
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrRenderFailed, render.ErrNoImages)
	}
	log.Info("Rendered slides", "images", len(images), "dir", run.RenderDir)
	return images, nil
}

// annotateAndCritique reviews every rendered image. Each worker writes only
// its own slot, so results stay in slide order without locking.
func (o *Orchestrator) annotateAndCritique(ctx context.Context, log *slog.Logger, run *RunState, iterDir string, images []string, m shapemap.ShapeMap) {
	markedDir := filepath.Join(iterDir, "marked")
	critiques := make([]critique.Critique, len(images))
	marked := make([]string, len(images))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.Concurrency)
	for i, img := range images {
		g.Go(func() error {
			critiques[i], marked[i] = o.reviewSlide(gctx, log, i, img, m, markedDir)
			return nil
		})
	}
	_ = g.Wait()

	run.Critiques = critiques
	run.Marked = run.Marked[:0]
	for _, p := range marked {
		if p != "" {
			run.Marked = append(run.Marked, p)
		}
	}

	run.VisualPassed = len(critiques) > 0
	for _, c := range critiques {
		if !c.Pass {
			run.VisualPassed = false
		}
	}
}

// reviewSlide annotates one render and asks the critic about it. Failures
// are returned as skipped critiques.
func (o *Orchestrator) reviewSlide(ctx context.Context, log *slog.Logger, slide int, imagePath string, m shapemap.ShapeMap, markedDir string) (critique.Critique, string) {
	log = log.With("slide", slide+1)
	defer o.cache.Evict(imagePath)

	outPath := filepath.Join(markedDir, fmt.Sprintf("slide-%d.png", slide+1))
	res, err := imaging.AnnotateSlide(o.cache, imagePath, m, slide, outPath, o.opts.Annotate)
	if err != nil {
		if errors.Is(err, imaging.ErrNoShapes) {
			log.Error("Shape map has no entry for rendered slide; render and map may be from different builds", "image", imagePath)
		} else {
			log.Warn("Annotation failed", "error", err)
		}
		return critique.Skipped(slide, err), ""
	}

	enc, err := imaging.EncodeForTransport(res.Image, o.opts.MaxEdge)
	if err != nil {
		log.Warn("Encoding failed", "error", err)
		return critique.Skipped(slide, err), res.Path
	}

	cctx, cancel := context.WithTimeout(ctx, o.opts.CritiqueTimeout)
	defer cancel()
	c, err := o.critic.Critique(cctx, slide, enc.Data)
	if err != nil {
		var te *critique.TransportError
		if errors.As(err, &te) && te.Status != 0 {
			log.Warn("Critique failed", "status", te.Status, "error", err)
		} else {
			log.Warn("Critique failed", "error", err)
		}
		return critique.Skipped(slide, err), res.Path
	}
	c.SlideIndex = slide
	log.Debug("Critique received", "pass", c.Pass, "chars", len(c.Text))
	return c, res.Path
}

func (o *Orchestrator) report(run *RunState) error {
	run.ReportPath = filepath.Join(run.OutputDir, fmt.Sprintf("iteration_%d_report.txt", run.Iteration))
	return WriteReport(run.ReportPath, run.Critiques)
}

func (o *Orchestrator) publish(ctx context.Context, log *slog.Logger, run *RunState) {
	if o.publisher == nil {
		return
	}
	files := append([]string{run.ShapeMapPath, run.ReportPath}, run.Marked...)
	if err := o.publisher.Publish(ctx, run.RunID, run.OutputDir, files); err != nil {
		log.Warn("Publishing artifacts failed", "error", err)
	}
}

// autoPatch would rewrite the candidate from the critiques before the next
// iteration. It is not implemented, so the loop always stops after the first
// report.
func (o *Orchestrator) autoPatch(log *slog.Logger, run *RunState) bool {
	log.Info("auto-patching paused for review", "report", run.ReportPath)
	return false
}

// within reports whether path lies inside dir.
func within(path, dir string) bool {
	absPath, err1 := filepath.Abs(path)
	absDir, err2 := filepath.Abs(dir)
	if err1 != nil || err2 != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absPath)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
