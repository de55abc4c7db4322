package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

var (
	// ErrNoImages means the renderer finished without producing any slide image.
	ErrNoImages = errors.New("renderer produced no images")

	// ErrPageMismatch means the rendered PDF does not have one page per slide.
	ErrPageMismatch = errors.New("rendered page count does not match slide count")
)

// DefaultTimeout bounds a whole render.
const DefaultTimeout = 5 * time.Minute

// DefaultSteps converts the deck to PDF with LibreOffice, then rasterizes
// each page with poppler.
var DefaultSteps = [][]string{
	{"soffice", "--headless", "--convert-to", "pdf", "--outdir", "{outdir}", "{input}"},
	{"pdftoppm", "-png", "-r", "110", "{outdir}/{stem}.pdf", "{outdir}/slide"},
}

// Renderer produces slide images for a document.
type Renderer interface {
	// Render writes images for input into outDir and returns their paths in
	// slide order. expectedSlides <= 0 disables the page-count check.
	Render(ctx context.Context, input, outDir string, expectedSlides int) ([]string, error)
}

// Command is a Renderer that runs a sequence of argv templates. Each
// argument may contain {input}, {outdir} and {stem}.
type Command struct {
	Steps   [][]string
	Timeout time.Duration
}

// NewCommand returns a Command using steps, or DefaultSteps when empty.
func NewCommand(steps [][]string, timeout time.Duration) *Command {
	if len(steps) == 0 {
		steps = DefaultSteps
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Command{Steps: steps, Timeout: timeout}
}

// Render implements Renderer.
func (c *Command) Render(ctx context.Context, input, outDir string, expectedSlides int) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create render directory: %w", err)
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	vars := map[string]string{"{input}": input, "{outdir}": outDir, "{stem}": stem}

	for i, step := range c.Steps {
		argv := expand(step, vars)
		if len(argv) == 0 {
			continue
		}
		slog.Debug("Running render step", "step", i+1, "argv", argv)
		if err := run(ctx, argv); err != nil {
			return nil, fmt.Errorf("render step %d (%s): %w", i+1, argv[0], err)
		}
	}

	pdf := filepath.Join(outDir, stem+".pdf")
	if expectedSlides > 0 {
		if err := checkPageCount(pdf, expectedSlides); err != nil {
			return nil, err
		}
	}

	images, err := Discover(outDir)
	if err != nil {
		return nil, err
	}
	if expectedSlides > 0 && len(images) != expectedSlides {
		slog.Warn("Rendered image count differs from slide count", "images", len(images), "slides", expectedSlides)
	}
	return images, nil
}

func expand(step []string, vars map[string]string) []string {
	argv := make([]string, len(step))
	for i, arg := range step {
		for k, v := range vars {
			arg = strings.ReplaceAll(arg, k, v)
		}
		argv[i] = arg
	}
	return argv
}

func run(ctx context.Context, argv []string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

// checkPageCount compares the page count of an intermediate PDF, if one was
// produced, with the slide count.
func checkPageCount(pdf string, expected int) error {
	if _, err := os.Stat(pdf); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat rendered PDF: %w", err)
	}
	pages, err := api.PageCountFile(pdf)
	if err != nil {
		return fmt.Errorf("failed to count pages of %s: %w", pdf, err)
	}
	if pages != expected {
		return fmt.Errorf("%w: %d pages, %d slides", ErrPageMismatch, pages, expected)
	}
	return nil
}
