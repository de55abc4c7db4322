package loop

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/slide-qa/internal/critique"
)

// FormatReport renders one block per slide in slide order, separated by a
// blank line. An empty critique is written as an empty block.
func FormatReport(critiques []critique.Critique) string {
	blocks := make([]string, len(critiques))
	for i, c := range critiques {
		n := i + 1
		if c.Skipped {
			blocks[i] = fmt.Sprintf("Slide %d: Critique Skipped/Failed.", n)
			continue
		}
		blocks[i] = fmt.Sprintf("Slide %d:\n%s", n, c.Text)
	}
	return strings.Join(blocks, "\n\n") + "\n"
}

// WriteReport writes the report to path, replacing it atomically.
func WriteReport(path string, critiques []critique.Critique) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*")
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if _, err := tmp.WriteString(FormatReport(critiques)); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
