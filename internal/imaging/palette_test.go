package imaging

import (
	"image/color"
	"testing"
)

func TestMarkColor_DeterministicAndDistinct(t *testing.T) {
	seen := map[color.RGBA]int{}
	for i := 0; i < 12; i++ {
		c := MarkColor(i)
		if c != MarkColor(i) {
			t.Fatalf("MarkColor(%d) not deterministic", i)
		}
		if c.A != 255 {
			t.Errorf("MarkColor(%d) alpha: got %d", i, c.A)
		}
		if prev, ok := seen[c]; ok {
			t.Errorf("MarkColor(%d) repeats MarkColor(%d)", i, prev)
		}
		seen[c] = i
	}
}

func TestContrastText(t *testing.T) {
	tests := []struct {
		name string
		bg   color.Color
		want color.RGBA
	}{
		{"white", color.RGBA{255, 255, 255, 255}, color.RGBA{0, 0, 0, 255}},
		{"yellow", color.RGBA{255, 255, 0, 255}, color.RGBA{0, 0, 0, 255}},
		{"black", color.RGBA{0, 0, 0, 255}, color.RGBA{255, 255, 255, 255}},
		{"navy", color.RGBA{0, 0, 128, 255}, color.RGBA{255, 255, 255, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContrastText(tt.bg); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{"#FF0000", color.RGBA{255, 0, 0, 255}, false},
		{"00FF0080", color.RGBA{0, 255, 0, 128}, false},
		{"", color.RGBA{}, true},
		{"#FFF", color.RGBA{}, true},
		{"#GGGGGG", color.RGBA{}, true},
	}
	for _, tt := range tests {
		got, err := parseHexColor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseHexColor(%q) err: got %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseHexColor(%q): got %v, want %v", tt.in, got, tt.want)
		}
	}
}
