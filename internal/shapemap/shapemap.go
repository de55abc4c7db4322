// Package shapemap holds the per-slide shape listing that ties lint geometry
// to the overlays drawn on rendered slides.
//
// The file form is a JSON object keyed by 0-based slide index:
//
//	{"0": [{"id": 2, "name": "Title 1", "bbox": [41, 45, 917, 143], "text": "Agenda"}]}
//
// bbox is [x, y, w, h] in the 0-1000 normalized space. Native placement and
// rotation are written alongside for diagnostics and are optional on read.
package shapemap

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ironsheep/slide-qa/internal/geometry"
)

// Entry is one shape as recorded in the map.
type Entry struct {
	ID   int    `json:"id"`
	Name string `json:"name"`

	// BBox is [x, y, w, h] in normalized 0-1000 space.
	BBox [4]int `json:"bbox"`
	Text string `json:"text"`

	// Native is [left, top, width, height] in document units.
	Native   *[4]int64 `json:"native,omitempty"`
	Rotation float64   `json:"rotation,omitempty"`
}

// NewEntry records a shape against its canvas.
func NewEntry(s geometry.Shape, canvas geometry.Canvas) Entry {
	native := s.Native()
	return Entry{
		ID:       s.ID,
		Name:     s.Name,
		BBox:     geometry.ToNormalized(s, canvas.Width, canvas.Height),
		Text:     s.Text,
		Native:   &native,
		Rotation: s.Rotation,
	}
}

// ShapeMap maps a 0-based slide index to the slide's shapes in document order.
type ShapeMap map[int][]Entry

// Add appends entry to slide, creating the slide's list if needed.
func (m ShapeMap) Add(slide int, entry Entry) {
	m[slide] = append(m[slide], entry)
}

// Ensure records slide as present even when it has no shapes.
func (m ShapeMap) Ensure(slide int) {
	if _, ok := m[slide]; !ok {
		m[slide] = []Entry{}
	}
}

// Lookup returns the entries for a slide key given as an int, an integral
// float, or a decimal string. The second result is false when the key is
// malformed or the slide has no entry.
func (m ShapeMap) Lookup(key interface{}) ([]Entry, bool) {
	idx, ok := SlideIndex(key)
	if !ok {
		return nil, false
	}
	entries, ok := m[idx]
	return entries, ok
}

// Slides returns the recorded slide indexes in ascending order.
func (m ShapeMap) Slides() []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// SlideIndex converts a slide key of any supported type to an index.
func SlideIndex(key interface{}) (int, bool) {
	switch k := key.(type) {
	case int:
		return k, true
	case int32:
		return int(k), true
	case int64:
		return int(k), true
	case uint:
		return int(k), true
	case float64:
		if k != math.Trunc(k) || math.IsInf(k, 0) {
			return 0, false
		}
		return int(k), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			return 0, false
		}
		return n, true
	case json.Number:
		n, err := strconv.Atoi(k.String())
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// MarshalJSON writes slide indexes as decimal string keys.
func (m ShapeMap) MarshalJSON() ([]byte, error) {
	out := make(map[string][]Entry, len(m))
	for k, v := range m {
		if v == nil {
			v = []Entry{}
		}
		out[strconv.Itoa(k)] = v
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts any decimal slide key.
func (m *ShapeMap) UnmarshalJSON(data []byte) error {
	var raw map[string][]Entry
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(ShapeMap, len(raw))
	for k, v := range raw {
		idx, ok := SlideIndex(k)
		if !ok {
			return fmt.Errorf("invalid slide key %q", k)
		}
		out[idx] = v
	}
	*m = out
	return nil
}

// Read loads a shape map file.
func Read(path string) (ShapeMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read shape map: %w", err)
	}
	var m ShapeMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse shape map %s: %w", path, err)
	}
	return m, nil
}

// Write saves the map as indented JSON. The file is written to a temporary
// name and renamed into place, so readers never observe a partial map.
func (m ShapeMap) Write(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode shape map: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create shape map directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".shapemap-*.json")
	if err != nil {
		return fmt.Errorf("failed to create shape map: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write shape map: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write shape map: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move shape map into place: %w", err)
	}
	return nil
}
