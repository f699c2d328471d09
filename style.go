package installart

import (
	"fmt"
	"image/color"
	"strings"

	"gopkg.in/yaml.v3"
)

// Color is a non-premultiplied RGBA color written as "#RRGGBB" or
// "#RRGGBBAA" in configuration.
type Color struct {
	R, G, B, A uint8
}

// Predefined colors.
var (
	ColorBlack = Color{0x00, 0x00, 0x00, 0xFF}
	ColorWhite = Color{0xFF, 0xFF, 0xFF, 0xFF}
)

// ParseColor parses a 6-char RGB or 8-char RGBA hex string.
// A leading "#" is stripped automatically.
func ParseColor(s string) (Color, error) {
	hex := strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(s), "#"))
	if len(hex) == 6 {
		hex += "FF"
	}
	if !isValidRGBA(hex) {
		return Color{}, fmt.Errorf("invalid color %q: want #RRGGBB or #RRGGBBAA", s)
	}
	return Color{
		R: parseHexByte(hex, 0),
		G: parseHexByte(hex, 2),
		B: parseHexByte(hex, 4),
		A: parseHexByte(hex, 6),
	}, nil
}

// MustColor is like ParseColor but panics on malformed input.
// Use it only for literals.
func MustColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

// String returns the color as "#RRGGBB", or "#RRGGBBAA" when not opaque.
func (c Color) String() string {
	if c.A == 0xFF {
		return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}

// RGBA converts to the premultiplied form used by image.RGBA.
func (c Color) RGBA() color.RGBA {
	return color.RGBAModel.Convert(color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}).(color.RGBA)
}

// Lerp interpolates each channel from a to b. t is clamped to [0, 1] and
// results are truncated toward zero.
func Lerp(a, b Color, t float64) Color {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	ch := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t)
	}
	return Color{
		R: ch(a.R, b.R),
		G: ch(a.G, b.G),
		B: ch(a.B, b.B),
		A: ch(a.A, b.A),
	}
}

// UnmarshalYAML reads a hex color scalar.
func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	parsed, err := ParseColor(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*c = parsed
	return nil
}

// MarshalYAML writes the color as a hex string.
func (c Color) MarshalYAML() (interface{}, error) {
	return c.String(), nil
}

// isValidRGBA checks that s is exactly 8 hex characters.
func isValidRGBA(s string) bool {
	if len(s) != 8 {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}

// parseHexByte parses two hex characters at offset into a uint8.
// Returns 0 on any error (out of range, invalid chars).
func parseHexByte(s string, offset int) uint8 {
	if offset+2 > len(s) {
		return 0
	}
	h := hexVal(s[offset])
	l := hexVal(s[offset+1])
	if h < 0 || l < 0 {
		return 0
	}
	return uint8(h<<4 | l)
}

func hexVal(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	default:
		return -1
	}
}
