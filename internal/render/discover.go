package render

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

// Discover returns the slide images in dir in natural order. An empty
// directory yields ErrNoImages.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read render directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoImages, dir)
	}

	SortNatural(names)
	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
	}
	return paths, nil
}

// SortNatural orders file names by prefix, then by trailing integer, so
// slide-2 sorts before slide-10.
func SortNatural(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		pi, ni, oki := splitTrailingNumber(names[i])
		pj, nj, okj := splitTrailingNumber(names[j])
		if pi != pj {
			return pi < pj
		}
		if oki && okj && ni != nj {
			return ni < nj
		}
		if oki != okj {
			return !oki
		}
		return names[i] < names[j]
	})
}

func splitTrailingNumber(name string) (string, int, bool) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	end := len(stem)
	start := end
	for start > 0 && stem[start-1] >= '0' && stem[start-1] <= '9' {
		start--
	}
	if start == end {
		return stem, 0, false
	}
	n, err := strconv.Atoi(stem[start:end])
	if err != nil {
		return stem, 0, false
	}
	return stem[:start], n, true
}
