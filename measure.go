package installart

import (
	"golang.org/x/image/font"
	"golang.org/x/text/unicode/norm"
)

// MeasureText returns the advance width of s in whole pixels. s is
// measured as given, without Unicode normalization.
func MeasureText(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}

// CenterX returns the left edge that centers a span of textW pixels on a
// canvas canvasW pixels wide. Text wider than the canvas gets a negative
// offset; nothing is wrapped or clipped.
func CenterX(canvasW, textW int) int {
	return floorDiv(canvasW-textW, 2)
}

// baseline returns the baseline y for a line whose top edge is at top.
func baseline(face font.Face, top int) int {
	return top + face.Metrics().Ascent.Ceil()
}

// normalizeText puts s in NFC so precomposed and decomposed input
// measure and draw the same.
func normalizeText(s string) string {
	return norm.NFC.String(s)
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
