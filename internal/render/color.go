package render

import (
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ParseHex parses #RGB or #RRGGBB. Bad input reads as white, matching the
// forgiving color handling elsewhere in the pipeline.
func ParseHex(s string) colorful.Color {
	s = strings.TrimSpace(s)
	if s == "" {
		return colorful.Color{R: 1, G: 1, B: 1}
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{R: 1, G: 1, B: 1}
	}
	return c
}

// LerpHex interpolates two hex colors per RGB channel and returns #rrggbb.
func LerpHex(from, to string, t float64) string {
	return ParseHex(from).BlendRgb(ParseHex(to), t).Hex()
}
