// Command installart writes an installer background image.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/VantageDataChat/installart"
	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Set with -ldflags "-X main.commit=... -X main.date=...". The version
// itself is installart.Version.
var (
	commit = "none"
	date   = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("installart", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configPath  string
		output      string
		fontPath    string
		fontIndex   int
		title       string
		subtitle    string
		width       int
		height      int
		shadow      bool
		retina      bool
		verbose     bool
		showVersion bool
		showHelp    bool
	)
	fs.StringVarP(&configPath, "config", "c", "", "YAML file with style parameters")
	fs.StringVarP(&output, "output", "o", "", "Output image path; the extension picks the format (default dmg_background.png)")
	fs.StringVarP(&fontPath, "font", "f", "", "Preferred .ttf/.otf/.ttc font file")
	fs.IntVar(&fontIndex, "font-index", 0, "Face index inside a font collection")
	fs.StringVar(&title, "title", "", "First text line")
	fs.StringVar(&subtitle, "subtitle", "", "Second text line")
	fs.IntVar(&width, "width", 0, "Canvas width in points")
	fs.IntVar(&height, "height", 0, "Canvas height in points")
	fs.BoolVar(&shadow, "shadow", false, "Draw a drop shadow under the arrow")
	fs.BoolVar(&retina, "retina", false, "Also write a 2x image named <output>@2x")
	fs.BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
	fs.BoolVar(&showVersion, "version", false, "Show version information")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show help message")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if showHelp {
		printHelp(stdout, fs)
		return 0
	}
	if showVersion {
		fmt.Fprintf(stdout, "installart version %s (commit: %s, built: %s)\n",
			installart.Version, commit, date)
		return 0
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "Error: unexpected arguments: %v\n", fs.Args())
		return 2
	}

	l := newLogger(verbose, stderr)
	defer l.Sync() //nolint:errcheck

	opts := installart.DefaultOptions()
	if configPath != "" {
		loaded, err := installart.LoadOptions(configPath)
		if err != nil {
			l.Error("load config", zap.String("path", configPath), zap.Error(err))
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		opts = loaded
		l.Debug("loaded config", zap.String("path", configPath))
	}

	if fs.Changed("output") {
		opts.Output = output
	}
	if fs.Changed("font") {
		opts.Font.Path = fontPath
	}
	if fs.Changed("font-index") {
		opts.Font.Index = fontIndex
	}
	if fs.Changed("title") {
		setLine(opts, 0, title)
	}
	if fs.Changed("subtitle") {
		setLine(opts, 1, subtitle)
	}
	if fs.Changed("width") {
		opts.Width = width
	}
	if fs.Changed("height") {
		opts.Height = height
	}
	if fs.Changed("shadow") {
		opts.Arrow.Shadow.Enabled = shadow
	}
	if fs.Changed("retina") {
		opts.Retina = retina
	}

	res, err := installart.NewComposer(l).Render(opts)
	if err != nil {
		l.Error("render", zap.Error(err))
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	for i, path := range res.Paths {
		rep := res.Reports[i]
		fields := []zap.Field{
			zap.String("path", path),
			zap.Int("width", rep.Width),
			zap.Int("height", rep.Height),
			zap.Bool("fontFallback", rep.Fallback),
		}
		if info, err := os.Stat(path); err == nil {
			fields = append(fields, zap.String("size", humanize.Bytes(uint64(info.Size()))))
		}
		l.Info("wrote image", fields...)
		fmt.Fprintf(stdout, "Background image created: %s\n", path)
	}
	return 0
}

// setLine replaces the text of line i, appending a line below the
// previous one when the configuration has fewer.
func setLine(opts *installart.Options, i int, text string) {
	for len(opts.Text) <= i {
		next := installart.TextLine{Size: 16}
		if n := len(opts.Text); n > 0 {
			next.OffsetY = opts.Text[n-1].OffsetY + 30
		}
		opts.Text = append(opts.Text, next)
	}
	opts.Text[i].Text = text
}

// newLogger mirrors zap.NewDevelopment / zap.NewProduction but writes to w.
func newLogger(verbose bool, w io.Writer) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	level := zapcore.InfoLevel
	enc := zapcore.NewJSONEncoder(encCfg)
	if verbose {
		encCfg = zap.NewDevelopmentEncoderConfig()
		level = zapcore.DebugLevel
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(w), level)
	return zap.New(core)
}

func printHelp(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintln(w, "installart - installer background image generator")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  installart [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprint(w, fs.FlagUsages())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Precedence: built-in defaults < --config file < flags.")
}
