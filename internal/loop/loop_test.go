package loop

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/slide-qa/internal/critique"
	"github.com/ironsheep/slide-qa/internal/deck/decktest"
	"github.com/ironsheep/slide-qa/internal/imaging"
	"github.com/ironsheep/slide-qa/internal/render"
	"github.com/ironsheep/slide-qa/internal/shapemap"
)

const (
	slideW = 12192000
	slideH = 6858000
)

func cleanSlide(n int) []decktest.Shape {
	return []decktest.Shape{
		{ID: 2, Name: fmt.Sprintf("Title %d", n), Left: 500000, Top: 300000, Width: 8000000, Height: 1000000, Text: "Title"},
		{ID: 3, Name: fmt.Sprintf("Body %d", n), Left: 500000, Top: 2000000, Width: 8000000, Height: 3000000, Text: "Body"},
	}
}

func writeDeck(t *testing.T, slides ...[]decktest.Shape) string {
	t.Helper()
	return decktest.Deck{Width: slideW, Height: slideH, Slides: slides}.Write(t, t.TempDir(), "candidate.pptx")
}

type fakeRenderer struct {
	images int
	err    error
	calls  int
	slides int
}

func (f *fakeRenderer) Render(_ context.Context, input, outDir string, expectedSlides int) ([]string, error) {
	f.calls++
	f.slides = expectedSlides
	if f.err != nil {
		return nil, f.err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, 320, 180))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	var paths []string
	for i := 1; i <= f.images; i++ {
		p := filepath.Join(outDir, fmt.Sprintf("slide-%d.png", i))
		fh, err := os.Create(p)
		if err != nil {
			return nil, err
		}
		if err := png.Encode(fh, img); err != nil {
			fh.Close()
			return nil, err
		}
		fh.Close()
		paths = append(paths, p)
	}
	if len(paths) == 0 {
		return nil, render.ErrNoImages
	}
	return paths, nil
}

type fakeCritic struct {
	replies map[int]string
	errs    map[int]error
	delay   time.Duration

	mu       sync.Mutex
	seen     []int
	inFlight atomic.Int32
	peak     atomic.Int32
	width    atomic.Int32
}

func (f *fakeCritic) Critique(ctx context.Context, slide int, data []byte) (critique.Critique, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	f.mu.Lock()
	f.seen = append(f.seen, slide)
	f.mu.Unlock()

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return critique.Critique{}, fmt.Errorf("critic received a non-PNG payload: %w", err)
	}
	f.width.Store(int32(img.Bounds().Dx()))
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return critique.Critique{}, &critique.TransportError{Err: ctx.Err()}
		}
	}
	if err := f.errs[slide]; err != nil {
		return critique.Critique{}, err
	}
	return critique.NewCritique(slide, f.replies[slide]), nil
}

type fakePublisher struct {
	runID string
	root  string
	files []string
}

func (f *fakePublisher) Publish(_ context.Context, runID, root string, paths []string) error {
	f.runID, f.root, f.files = runID, root, paths
	return nil
}

func testOptions(t *testing.T) Options {
	return Options{OutputDir: filepath.Join(t.TempDir(), "run"), Concurrency: 2}
}

func TestRun_TransportSize(t *testing.T) {
	tests := []struct {
		name    string
		maxEdge int
		want    int32
	}{
		{"downscaled", 100, 100},
		{"default keeps small renders", 0, 320},
		{"negative disables resizing", -1, 320},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := writeDeck(t, cleanSlide(1))
			critic := &fakeCritic{}
			opts := testOptions(t)
			opts.MaxEdge = tt.maxEdge
			if _, err := New(opts, &fakeRenderer{images: 1}, critic, nil).Run(context.Background(), input); err != nil {
				t.Fatal(err)
			}
			if got := critic.width.Load(); got != tt.want {
				t.Errorf("critic saw width %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRun_ProducesOrderedReport(t *testing.T) {
	input := writeDeck(t, cleanSlide(1), cleanSlide(2), cleanSlide(3))
	renderer := &fakeRenderer{images: 3}
	critic := &fakeCritic{
		replies: map[int]string{0: "PASS", 1: "- [3] body text cut off at bottom"},
		errs:    map[int]error{2: &critique.TransportError{Status: 500, Body: "boom"}},
	}
	pub := &fakePublisher{}
	opts := testOptions(t)

	run, err := New(opts, renderer, critic, pub).Run(context.Background(), input)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if run.State != StateDone || run.Iteration != 1 {
		t.Errorf("state: got %v iteration %d", run.State, run.Iteration)
	}
	if _, err := uuid.Parse(run.RunID); err != nil {
		t.Errorf("RunID %q is not a UUID: %v", run.RunID, err)
	}
	if !run.LintPassed || run.VisualPassed {
		t.Errorf("gates: lint=%v visual=%v", run.LintPassed, run.VisualPassed)
	}
	if renderer.calls != 1 || renderer.slides != 3 {
		t.Errorf("renderer: calls=%d slides=%d", renderer.calls, renderer.slides)
	}

	if want := filepath.Join(opts.OutputDir, "iteration_1_report.txt"); run.ReportPath != want {
		t.Errorf("ReportPath: got %q, want %q", run.ReportPath, want)
	}
	report, err := os.ReadFile(run.ReportPath)
	if err != nil {
		t.Fatal(err)
	}
	want := "Slide 1:\nPASS\n\nSlide 2:\n- [3] body text cut off at bottom\n\nSlide 3: Critique Skipped/Failed.\n"
	if string(report) != want {
		t.Errorf("report:\n%q\nwant\n%q", report, want)
	}

	m, err := shapemap.Read(run.ShapeMapPath)
	if err != nil {
		t.Fatalf("shape map not persisted: %v", err)
	}
	if len(m) != 3 {
		t.Errorf("shape map slides: got %d", len(m))
	}
	if len(run.Marked) != 3 {
		t.Errorf("marked images: got %v", run.Marked)
	}
	for _, p := range run.Marked {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("marked image missing: %v", err)
		}
	}

	if pub.runID != run.RunID || pub.root != opts.OutputDir || len(pub.files) != 5 {
		t.Errorf("publisher: got %+v", pub)
	}
	if _, err := os.Stat(filepath.Join(opts.OutputDir, "candidate.pptx")); err != nil {
		t.Errorf("candidate not copied: %v", err)
	}
}

func TestRun_AllPass(t *testing.T) {
	input := writeDeck(t, cleanSlide(1), cleanSlide(2))
	critic := &fakeCritic{replies: map[int]string{0: "PASS", 1: "pass."}}

	run, err := New(testOptions(t), &fakeRenderer{images: 2}, critic, nil).Run(context.Background(), input)
	if err != nil {
		t.Fatal(err)
	}
	if !run.VisualPassed {
		t.Errorf("expected visual pass, got %+v", run.Critiques)
	}
}

func TestRun_EmptyCritiqueIsNotSkipped(t *testing.T) {
	input := writeDeck(t, cleanSlide(1))
	critic := &fakeCritic{replies: map[int]string{}}

	run, err := New(testOptions(t), &fakeRenderer{images: 1}, critic, nil).Run(context.Background(), input)
	if err != nil {
		t.Fatal(err)
	}
	report, _ := os.ReadFile(run.ReportPath)
	if string(report) != "Slide 1:\n\n" {
		t.Errorf("report: got %q", report)
	}
	if run.Critiques[0].Skipped {
		t.Error("empty critique must not be recorded as skipped")
	}
}

func TestRun_LintFailureAborts(t *testing.T) {
	overlapping := []decktest.Shape{
		{ID: 2, Name: "Title", Left: 0, Top: 0, Width: 4000000, Height: 2000000},
		{ID: 3, Name: "Picture", Left: 1000000, Top: 500000, Width: 4000000, Height: 2000000},
	}
	input := writeDeck(t, cleanSlide(1), overlapping)
	renderer := &fakeRenderer{images: 2}

	run, err := New(testOptions(t), renderer, &fakeCritic{}, nil).Run(context.Background(), input)
	if !errors.Is(err, ErrLintFailed) {
		t.Fatalf("expected ErrLintFailed, got %v", err)
	}
	if run.State != StateAborted || run.LintPassed || len(run.Issues) != 1 {
		t.Errorf("run: got %+v", run)
	}
	if renderer.calls != 0 {
		t.Error("renderer must not run after a failed lint gate")
	}
	if run.ReportPath != "" || run.ShapeMapPath != "" {
		t.Errorf("no artifacts expected, got report %q map %q", run.ReportPath, run.ShapeMapPath)
	}
}

func TestRun_UnreadableCandidateAborts(t *testing.T) {
	input := filepath.Join(t.TempDir(), "broken.pptx")
	if err := os.WriteFile(input, []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}

	run, err := New(testOptions(t), &fakeRenderer{images: 1}, &fakeCritic{}, nil).Run(context.Background(), input)
	if !errors.Is(err, ErrLintFailed) || run.State != StateAborted {
		t.Errorf("got state %v err %v", run.State, err)
	}
}

func TestRun_RenderFailures(t *testing.T) {
	tests := []struct {
		name     string
		renderer *fakeRenderer
		want     error
	}{
		{"no images", &fakeRenderer{images: 0}, render.ErrNoImages},
		{"converter error", &fakeRenderer{err: render.ErrPageMismatch}, render.ErrPageMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := writeDeck(t, cleanSlide(1))
			run, err := New(testOptions(t), tt.renderer, &fakeCritic{}, nil).Run(context.Background(), input)
			if !errors.Is(err, ErrRenderFailed) || !errors.Is(err, tt.want) {
				t.Errorf("got %v", err)
			}
			if run.State != StateAborted || run.ReportPath != "" {
				t.Errorf("run: got %+v", run)
			}
		})
	}
}

func TestRun_ExtraRenderIsSkippedAsMismatch(t *testing.T) {
	input := writeDeck(t, cleanSlide(1))
	critic := &fakeCritic{replies: map[int]string{0: "PASS", 1: "PASS"}}

	run, err := New(testOptions(t), &fakeRenderer{images: 2}, critic, nil).Run(context.Background(), input)
	if err != nil {
		t.Fatal(err)
	}
	second := run.Critiques[1]
	if !second.Skipped || !strings.Contains(second.Reason, imaging.ErrNoShapes.Error()) {
		t.Errorf("slide without map entry should be skipped as a mismatch, got %+v", second)
	}
	if len(critic.seen) != 1 {
		t.Errorf("critic should only see mapped slides, saw %v", critic.seen)
	}
	if run.VisualPassed {
		t.Error("a skipped slide must not pass")
	}
}

func TestRun_WipesStaleArtifacts(t *testing.T) {
	input := writeDeck(t, cleanSlide(1))
	opts := testOptions(t)
	stale := filepath.Join(opts.OutputDir, "iteration_7_report.txt")
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := New(opts, &fakeRenderer{images: 1}, &fakeCritic{}, nil).Run(context.Background(), input); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale artifact survived the run")
	}
}

func TestRun_RefusesInputInsideOutputDir(t *testing.T) {
	dir := t.TempDir()
	input := decktest.Deck{Width: slideW, Height: slideH, Slides: [][]decktest.Shape{cleanSlide(1)}}.Write(t, dir, "deck.pptx")

	run, err := New(Options{OutputDir: dir}, &fakeRenderer{images: 1}, &fakeCritic{}, nil).Run(context.Background(), input)
	if err == nil || run.State != StateAborted {
		t.Fatalf("expected abort, got %v", err)
	}
	if _, err := os.Stat(input); err != nil {
		t.Errorf("input must survive: %v", err)
	}
}

func TestRun_ConcurrencyLimit(t *testing.T) {
	slides := make([][]decktest.Shape, 6)
	for i := range slides {
		slides[i] = cleanSlide(i + 1)
	}
	input := writeDeck(t, slides...)
	critic := &fakeCritic{delay: 20 * time.Millisecond}

	opts := testOptions(t)
	opts.Concurrency = 2
	run, err := New(opts, &fakeRenderer{images: 6}, critic, nil).Run(context.Background(), input)
	if err != nil {
		t.Fatal(err)
	}
	if peak := critic.peak.Load(); peak > 2 || peak < 1 {
		t.Errorf("peak in-flight critiques: got %d, want 1..2", peak)
	}
	for i, c := range run.Critiques {
		if c.SlideIndex != i {
			t.Errorf("slot %d holds slide %d", i, c.SlideIndex)
		}
	}
}

func TestRun_CritiqueTimeoutSkipsSlide(t *testing.T) {
	input := writeDeck(t, cleanSlide(1))
	opts := testOptions(t)
	opts.CritiqueTimeout = 10 * time.Millisecond

	run, err := New(opts, &fakeRenderer{images: 1}, &fakeCritic{delay: time.Second}, nil).Run(context.Background(), input)
	if err != nil {
		t.Fatalf("a slow critic must not abort the run: %v", err)
	}
	if !run.Critiques[0].Skipped {
		t.Errorf("expected skipped critique, got %+v", run.Critiques[0])
	}
}

func TestRun_BudgetExhausted(t *testing.T) {
	input := writeDeck(t, cleanSlide(1))
	opts := testOptions(t)
	opts.Budget = 30 * time.Millisecond

	run, err := New(opts, &fakeRenderer{images: 1}, &fakeCritic{delay: time.Second}, nil).Run(context.Background(), input)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if run.State != StateAborted || run.ReportPath == "" {
		t.Errorf("report should still be written before aborting, got %+v", run)
	}
}

func TestRun_DisabledCritic(t *testing.T) {
	input := writeDeck(t, cleanSlide(1), cleanSlide(2))

	run, err := New(testOptions(t), &fakeRenderer{images: 2}, critique.Disabled{}, nil).Run(context.Background(), input)
	if err != nil {
		t.Fatal(err)
	}
	report, _ := os.ReadFile(run.ReportPath)
	want := "Slide 1: Critique Skipped/Failed.\n\nSlide 2: Critique Skipped/Failed.\n"
	if string(report) != want {
		t.Errorf("report: got %q", report)
	}
}

func TestStateString(t *testing.T) {
	if StateAnnotateAndCritique.String() != "annotate_and_critique" || State(99).String() != "unknown" {
		t.Error("unexpected state names")
	}
	text, _ := StateAutoPatch.MarshalText()
	if string(text) != "auto_patch" {
		t.Errorf("MarshalText: got %q", text)
	}
}

func TestFormatReport(t *testing.T) {
	got := FormatReport([]critique.Critique{
		critique.NewCritique(0, "  - [4] overlaps [5]\n"),
		critique.Skipped(1, errors.New("x")),
	})
	want := "Slide 1:\n- [4] overlaps [5]\n\nSlide 2: Critique Skipped/Failed.\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
