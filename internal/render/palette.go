package render

import (
	"image/color"

	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// driverPalette colours the drivers in overlay figures, in configured
// order. Line panels and histograms share it so a driver keeps the same
// colour across a report.
var driverPalette = []color.Color{
	color.RGBA{R: 0xFF, G: 0x6B, B: 0x6B, A: 0xFF},
	color.RGBA{R: 0x4E, G: 0xCD, B: 0xC4, A: 0xFF},
	color.RGBA{R: 0x45, G: 0xB7, B: 0xD1, A: 0xFF},
	color.RGBA{R: 0x96, G: 0xCE, B: 0xB4, A: 0xFF},
	color.RGBA{R: 0xFE, G: 0xCA, B: 0x57, A: 0xFF},
}

// meanBarPalette colours the average-speed bars.
var meanBarPalette = []color.Color{
	color.RGBA{R: 0xFE, G: 0xCA, B: 0x57, A: 0xFF},
	color.RGBA{R: 0xFF, G: 0x9F, B: 0xF3, A: 0xFF},
	color.RGBA{R: 0x54, G: 0xA0, B: 0xFF, A: 0xFF},
}

// palette returns n distinct colours: the fixed driver palette first,
// extended with evenly spaced hues when the field is larger.
func palette(n int) []color.Color {
	if n <= len(driverPalette) {
		return driverPalette[:n]
	}
	out := make([]color.Color, 0, n)
	out = append(out, driverPalette...)
	return append(out, generateColors(n-len(driverPalette))...)
}

// generateColors creates a palette of distinct colors for plot lines
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}

	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64

	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}

	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	if t < 1.0/6.0 {
		return p + (q-p)*6*t
	}
	if t < 1.0/2.0 {
		return q
	}
	if t < 2.0/3.0 {
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}

// withAlpha makes a translucent copy of an opaque colour so overlaid
// fills stay readable.
func withAlpha(c color.Color, a uint8) color.Color {
	r, g, b, _ := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: a}
}

// swatch is a solid-colour legend thumbnail for plotters that do not
// provide their own, like histograms and polygon fills.
type swatch struct {
	c color.Color
}

func (s swatch) Thumbnail(dc *draw.Canvas) {
	pts := []vg.Point{
		{X: dc.Min.X, Y: dc.Min.Y},
		{X: dc.Min.X, Y: dc.Max.Y},
		{X: dc.Max.X, Y: dc.Max.Y},
		{X: dc.Max.X, Y: dc.Min.Y},
	}
	dc.FillPolygon(s.c, pts)
}
