package installart

import (
	"fmt"
	"image"
	"image/draw"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Report describes how a canvas was composed.
type Report struct {
	Width  int
	Height int
	Lines  []LineReport
	// Fallback is true when any line was drawn with the fallback font.
	Fallback bool
	Arrow    Arrow
}

// LineReport records where one text line was placed and with which font.
type LineReport struct {
	Text      string
	Font      string
	Fallback  bool
	X         int
	Top       int
	TextWidth int
}

// Composer draws installer backgrounds. A Composer may be reused so
// that fonts are parsed once across the 1x and 2x renders.
type Composer struct {
	// FontCache is shared across renders. If nil, one is created from
	// the first Options' Font.Dirs.
	FontCache *FontCache
	// Logger receives debug events. Nil means no logging.
	Logger *zap.Logger
}

// NewComposer returns a Composer logging to l.
func NewComposer(l *zap.Logger) *Composer {
	if l == nil {
		l = zap.NewNop()
	}
	return &Composer{Logger: l}
}

// Compose renders the background described by o with a fresh Composer.
func Compose(o *Options) (*image.RGBA, *Report, error) {
	return NewComposer(nil).Compose(o)
}

// Compose validates o and renders the background: gradient, centered
// text lines, then the arrow with its optional shadow underneath.
func (c *Composer) Compose(o *Options) (*image.RGBA, *Report, error) {
	if o == nil {
		o = DefaultOptions()
	}
	if err := o.Validate(); err != nil {
		return nil, nil, err
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.FontCache == nil {
		c.FontCache = NewFontCache(o.Font.Dirs...)
		c.FontCache.SetLogger(c.Logger)
	}

	w, h := o.Width*o.Scale, o.Height*o.Scale
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	rep := &Report{Width: w, Height: h}

	fillGradient(img, o)
	for _, line := range o.Text {
		lr := c.drawTextLine(img, o, line)
		rep.Fallback = rep.Fallback || lr.Fallback
		rep.Lines = append(rep.Lines, lr)
	}

	rep.Arrow = ArrowGeometry(o)
	if o.Arrow.Shadow.Enabled {
		d := image.Pt(o.Arrow.Shadow.DX*o.Scale, o.Arrow.Shadow.DY*o.Scale)
		drawArrow(img, rep.Arrow.Add(d), o.Arrow.Shadow.Color)
	}
	drawArrow(img, rep.Arrow, o.Arrow.Color)

	c.Logger.Debug("composed background",
		zap.Int("width", w),
		zap.Int("height", h),
		zap.Bool("fontFallback", rep.Fallback),
		zap.Bool("shadow", o.Arrow.Shadow.Enabled))
	return img, rep, nil
}

// GradientColor returns the color of canvas row y for a canvas h rows
// tall: Gradient.Top at row 0 moving linearly toward Gradient.Bottom.
func GradientColor(o *Options, y, h int) Color {
	if h <= 0 {
		return o.Gradient.Top
	}
	return Lerp(o.Gradient.Top, o.Gradient.Bottom, float64(y)/float64(h))
}

// fillGradient paints the background color, then each row full width in
// its gradient color.
func fillGradient(img *image.RGBA, o *Options) {
	b := img.Bounds()
	draw.Draw(img, b, image.NewUniform(o.Background.RGBA()), image.Point{}, draw.Src)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := image.Rect(b.Min.X, y, b.Max.X, y+1)
		c := GradientColor(o, y-b.Min.Y, b.Dy())
		draw.Draw(img, row, image.NewUniform(c.RGBA()), image.Point{}, draw.Over)
	}
}

func (c *Composer) drawTextLine(img *image.RGBA, o *Options, line TextLine) LineReport {
	s := o.Scale
	face := c.FontCache.Resolve(o.Font, line.Size*float64(s), o.DPI)
	text := normalizeText(line.Text)
	tw := MeasureText(face, text)
	x := CenterX(img.Bounds().Dx(), tw)
	top := img.Bounds().Dy()/2 + line.OffsetY*s

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(o.TextColor.RGBA()),
		Face: face,
		Dot:  fixed.P(x, baseline(face, top)),
	}
	d.DrawString(text)

	return LineReport{
		Text:      text,
		Font:      face.Name,
		Fallback:  face.Fallback,
		X:         x,
		Top:       top,
		TextWidth: tw,
	}
}

// Result lists the files written by Render.
type Result struct {
	Paths   []string
	Reports []*Report
}

type renderPass struct {
	opts *Options
	path string
}

// Render composes o and saves it to o.Output, plus the 2x twin at
// o.RetinaPath() when o.Retina is set.
func (c *Composer) Render(o *Options) (*Result, error) {
	if o == nil {
		o = DefaultOptions()
	}
	passes := []renderPass{{o, o.Output}}
	if o.Retina {
		passes = append(passes, renderPass{o.Scaled(o.Scale * 2), o.RetinaPath()})
	}

	res := &Result{}
	for _, p := range passes {
		img, rep, err := c.Compose(p.opts)
		if err != nil {
			return nil, err
		}
		if err := SaveImage(img, p.path); err != nil {
			return nil, fmt.Errorf("save %s: %w", p.path, err)
		}
		res.Paths = append(res.Paths, p.path)
		res.Reports = append(res.Reports, rep)
	}
	return res, nil
}
