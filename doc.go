// Package installart draws the background image shown behind an
// installer window, such as a macOS disk image: a vertical gradient,
// centered instruction text and an arrow pointing from the application
// icon to the Applications folder.
//
// Fonts are resolved from a preferred file, then named system families,
// and finally the built-in basicfont face, so rendering never fails for
// lack of a font.
package installart
