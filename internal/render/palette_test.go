package render

import (
	"image/color"
	"testing"
)

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func TestPalette(t *testing.T) {
	// Small fields use the fixed palette as-is.
	colors := palette(3)
	if len(colors) != 3 {
		t.Fatalf("expected 3 colours, got %d", len(colors))
	}
	for i := range colors {
		if colors[i] != driverPalette[i] {
			t.Errorf("colour %d: expected palette colour, got %v", i, colors[i])
		}
	}

	// Larger fields extend the palette with generated hues.
	colors = palette(8)
	if len(colors) != 8 {
		t.Fatalf("expected 8 colours, got %d", len(colors))
	}
	for i := range driverPalette {
		if colors[i] != driverPalette[i] {
			t.Errorf("colour %d: expected palette colour to come first", i)
		}
	}
}

func TestGenerateColors(t *testing.T) {
	tests := []struct {
		n        int
		expected int
	}{
		{0, 0},
		{1, 1},
		{5, 5},
		{10, 10},
		{100, 100},
	}

	for _, tt := range tests {
		colors := generateColors(tt.n)
		if len(colors) != tt.expected {
			t.Errorf("generateColors(%d): expected %d colours, got %d", tt.n, tt.expected, len(colors))
		}
	}

	// Verify colours are valid RGBA
	colors := generateColors(5)
	for i, c := range colors {
		rgba, ok := c.(color.RGBA)
		if !ok {
			t.Errorf("colour %d: expected color.RGBA, got %T", i, c)
			continue
		}
		if rgba.A != 255 {
			t.Errorf("colour %d: expected alpha 255, got %d", i, rgba.A)
		}
	}
}

func TestGenerateColors_Distinct(t *testing.T) {
	// Check that generated colours are distinct (different hues)
	colors := generateColors(6)
	if len(colors) != 6 {
		t.Fatalf("expected 6 colours, got %d", len(colors))
	}

	seen := make(map[uint32]bool)
	for _, c := range colors {
		rgba := c.(color.RGBA)
		key := uint32(rgba.R)<<16 | uint32(rgba.G)<<8 | uint32(rgba.B)
		if seen[key] {
			t.Error("duplicate colour found in generated palette")
		}
		seen[key] = true
	}
}

func TestHslToRGB(t *testing.T) {
	tests := []struct {
		h, s, l   float64
		expectedR uint8
		expectedG uint8
		expectedB uint8
	}{
		// Red (hue 0)
		{0.0, 1.0, 0.5, 255, 0, 0},
		// Green (hue 1/3)
		{1.0 / 3.0, 1.0, 0.5, 0, 255, 0},
		// Blue (hue 2/3)
		{2.0 / 3.0, 1.0, 0.5, 0, 0, 255},
		// White (lightness 1)
		{0.0, 0.0, 1.0, 255, 255, 255},
		// Black (lightness 0)
		{0.0, 0.0, 0.0, 0, 0, 0},
		// Grey (saturation 0)
		{0.0, 0.0, 0.5, 127, 127, 127},
	}

	for _, tt := range tests {
		r, g, b := hslToRGB(tt.h, tt.s, tt.l)

		// Allow small tolerance for floating point
		if abs(int(r)-int(tt.expectedR)) > 1 ||
			abs(int(g)-int(tt.expectedG)) > 1 ||
			abs(int(b)-int(tt.expectedB)) > 1 {
			t.Errorf("hslToRGB(%f, %f, %f): expected (%d, %d, %d), got (%d, %d, %d)",
				tt.h, tt.s, tt.l, tt.expectedR, tt.expectedG, tt.expectedB, r, g, b)
		}
	}
}

func TestHueToRGB(t *testing.T) {
	tests := []struct {
		p, q, t  float64
		expected float64
	}{
		// t < 0 case: t becomes 0.5 after +1
		{0.0, 1.0, -0.5, 1.0},
		// t > 1 case: t becomes 0.5 after -1
		{0.0, 1.0, 1.5, 1.0},
		// t < 1/6 case
		{0.0, 1.0, 0.1, 0.6},
		// t < 1/2 case
		{0.0, 1.0, 0.25, 1.0},
		// t < 2/3 case
		{0.0, 1.0, 0.6, 0.4},
	}

	for _, tt := range tests {
		result := hueToRGB(tt.p, tt.q, tt.t)
		// Allow small tolerance
		if diff := result - tt.expected; diff > 0.01 || diff < -0.01 {
			t.Errorf("hueToRGB(%f, %f, %f): expected %f, got %f", tt.p, tt.q, tt.t, tt.expected, result)
		}
	}
}

func TestWithAlpha(t *testing.T) {
	c := withAlpha(color.RGBA{R: 255, A: 255}, 128)
	nrgba, ok := c.(color.NRGBA)
	if !ok {
		t.Fatalf("expected color.NRGBA, got %T", c)
	}
	if nrgba.R != 255 || nrgba.G != 0 || nrgba.B != 0 {
		t.Errorf("expected (255, 0, 0), got (%d, %d, %d)", nrgba.R, nrgba.G, nrgba.B)
	}
	if nrgba.A != 128 {
		t.Errorf("expected alpha 128, got %d", nrgba.A)
	}
}
