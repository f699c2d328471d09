package installart

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// TextLine is one line of centered instruction text.
type TextLine struct {
	Text string `yaml:"text"`
	// Size is the font size in points.
	Size float64 `yaml:"size"`
	// OffsetY is the top of the line relative to the vertical center.
	OffsetY int `yaml:"offset_y"`
}

// GradientOptions configures the vertical background ramp.
type GradientOptions struct {
	Top    Color `yaml:"top"`
	Bottom Color `yaml:"bottom"`
}

// FontSpec names the preferred font and the families tried after it.
type FontSpec struct {
	// Path is a .ttf/.otf file or a .ttc/.otc collection.
	Path string `yaml:"path"`
	// Index selects the face inside a collection.
	Index int `yaml:"index"`
	// Families are looked up among the system fonts when Path fails.
	Families []string `yaml:"families"`
	// Dirs are searched for fonts in addition to the OS font directories.
	Dirs []string `yaml:"dirs"`
}

// ShadowOptions configures the arrow drop shadow.
type ShadowOptions struct {
	Enabled bool  `yaml:"enabled"`
	DX      int   `yaml:"dx"`
	DY      int   `yaml:"dy"`
	Color   Color `yaml:"color"`
}

// ArrowOptions configures the horizontal arrow below the text.
type ArrowOptions struct {
	// OffsetY is the arrow's vertical position relative to the center.
	OffsetY int `yaml:"offset_y"`
	// HalfLength is the distance from the horizontal center to each end.
	HalfLength    int           `yaml:"half_length"`
	Width         int           `yaml:"width"`
	HeadLength    int           `yaml:"head_length"`
	HeadHalfWidth int           `yaml:"head_half_width"`
	Color         Color         `yaml:"color"`
	Shadow        ShadowOptions `yaml:"shadow"`
}

// Options configures background composition. All geometry is given at
// 1x and multiplied by Scale.
type Options struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	// Scale multiplies every dimension. 2 produces a Retina image.
	Scale int `yaml:"scale"`
	// DPI converts point sizes to pixels. Default: 72.
	DPI        float64         `yaml:"dpi"`
	Background Color           `yaml:"background"`
	Gradient   GradientOptions `yaml:"gradient"`
	Font       FontSpec        `yaml:"font"`
	Text       []TextLine      `yaml:"text"`
	TextColor  Color           `yaml:"text_color"`
	Arrow      ArrowOptions    `yaml:"arrow"`
	// Output is the destination file. The extension picks the format.
	Output string `yaml:"output"`
	// Retina also writes a 2x twin next to Output.
	Retina bool `yaml:"retina"`
}

// DefaultOptions returns the stock installer background: 600x400, a
// light gray-blue ramp, two instruction lines and a blue arrow.
func DefaultOptions() *Options {
	return &Options{
		Width:      600,
		Height:     400,
		Scale:      1,
		DPI:        72,
		Background: MustColor("#F0F0F0"),
		Gradient: GradientOptions{
			Top:    MustColor("#F0F0FA"),
			Bottom: MustColor("#DCDCE6"),
		},
		Font: FontSpec{
			Path:     "/System/Library/Fonts/Helvetica.ttc",
			Families: []string{"helvetica", "arial", "dejavu sans", "liberation sans"},
		},
		Text: []TextLine{
			{Text: "Drag Krepto to Applications", Size: 24, OffsetY: -40},
			{Text: "to install", Size: 16, OffsetY: -10},
		},
		TextColor: MustColor("#333333"),
		Arrow: ArrowOptions{
			OffsetY:       30,
			HalfLength:    50,
			Width:         3,
			HeadLength:    10,
			HeadHalfWidth: 5,
			Color:         MustColor("#007AFF"),
			Shadow: ShadowOptions{
				DX:    2,
				DY:    2,
				Color: MustColor("#00000040"),
			},
		},
		Output: "dmg_background.png",
	}
}

// LoadOptions reads a YAML file on top of DefaultOptions. Unknown keys
// are rejected.
func LoadOptions(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	opts, err := ParseOptions(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return opts, nil
}

// ParseOptions decodes YAML configuration on top of DefaultOptions.
func ParseOptions(data []byte) (*Options, error) {
	opts := DefaultOptions()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(opts); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return opts, nil
}

// supportedExts lists the output extensions SaveImage can encode.
var supportedExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".tif":  true,
	".tiff": true,
	".bmp":  true,
}

// Validate checks the options and returns an error describing all
// problems found, or nil if the options are usable.
func (o *Options) Validate() error {
	var errs []string

	if o.Width <= 0 {
		errs = append(errs, "width must be positive")
	}
	if o.Height <= 0 {
		errs = append(errs, "height must be positive")
	}
	if o.Scale <= 0 {
		errs = append(errs, "scale must be positive")
	}
	if o.DPI <= 0 {
		errs = append(errs, "dpi must be positive")
	}
	if len(o.Text) == 0 {
		errs = append(errs, "at least one text line is required")
	}
	for i, line := range o.Text {
		if line.Size <= 0 {
			errs = append(errs, fmt.Sprintf("text line %d: size must be positive", i+1))
		}
	}
	if o.Arrow.Width < 0 {
		errs = append(errs, "arrow width must not be negative")
	}
	if o.Arrow.HalfLength < 0 {
		errs = append(errs, "arrow half length must not be negative")
	}
	if o.Arrow.HeadLength < 0 || o.Arrow.HeadHalfWidth < 0 {
		errs = append(errs, "arrow head size must not be negative")
	}
	if o.Output == "" {
		errs = append(errs, "output path is empty")
	} else if ext := strings.ToLower(filepath.Ext(o.Output)); !supportedExts[ext] {
		errs = append(errs, fmt.Sprintf("unsupported output extension %q", ext))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid options:\n  %s", strings.Join(errs, "\n  "))
}

// Scaled returns a copy with Scale set to n. The copy shares no slices
// with o.
func (o *Options) Scaled(n int) *Options {
	cp := *o
	cp.Scale = n
	cp.Text = append([]TextLine(nil), o.Text...)
	cp.Font.Families = append([]string(nil), o.Font.Families...)
	cp.Font.Dirs = append([]string(nil), o.Font.Dirs...)
	return &cp
}

// RetinaPath returns Output with "@2x" inserted before the extension.
func (o *Options) RetinaPath() string {
	ext := filepath.Ext(o.Output)
	return strings.TrimSuffix(o.Output, ext) + "@2x" + ext
}
