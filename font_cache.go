package installart

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/text/cases"
)

// FallbackFontName is reported when no scalable font could be loaded.
const FallbackFontName = "basicfont 7x13"

// fontKey uniquely identifies a face by font name, size and DPI.
type fontKey struct {
	name string
	size float64
	dpi  float64
}

// ResolvedFace is a face picked by FontCache.Resolve.
type ResolvedFace struct {
	font.Face
	// Name is the path, family name or FallbackFontName the face came from.
	Name string
	// Fallback is true when the built-in fixed font was substituted.
	Fallback bool
}

// FontCache manages TrueType font loading and face caching.
// It searches system font directories and user-specified directories
// for .ttf, .otf, .ttc and .otc files, then caches parsed fonts and faces.
type FontCache struct {
	mu      sync.RWMutex
	dirs    []string                  // directories to search for fonts
	fonts   map[string]*opentype.Font // folded font name -> parsed font
	files   map[string]*opentype.Font // path#index -> parsed font
	faces   map[fontKey]font.Face
	scanned bool
	log     *zap.Logger
}

// NewFontCache creates a FontCache that searches the given directories
// plus the OS default font directories.
func NewFontCache(extraDirs ...string) *FontCache {
	dirs := append(systemFontDirs(), extraDirs...)
	return &FontCache{
		dirs:  dirs,
		fonts: make(map[string]*opentype.Font),
		files: make(map[string]*opentype.Font),
		faces: make(map[fontKey]font.Face),
		log:   zap.NewNop(),
	}
}

// SetLogger sets the logger used to report font resolution.
func (fc *FontCache) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	fc.log = l
}

// foldName normalizes a font name for lookup. A Caser holds state, so
// each call gets its own.
func foldName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// Resolve picks a face for the given size: the font at spec.Path first,
// then each of spec.Families among the scanned fonts, and finally the
// built-in basicfont face. It never fails.
func (fc *FontCache) Resolve(spec FontSpec, sizePt, dpi float64) ResolvedFace {
	if spec.Path != "" {
		face, err := fc.fileFace(spec.Path, spec.Index, sizePt, dpi)
		if err == nil {
			fc.log.Debug("font resolved", zap.String("path", spec.Path), zap.Float64("size", sizePt))
			return ResolvedFace{Face: face, Name: spec.Path}
		}
		fc.log.Debug("preferred font unavailable", zap.String("path", spec.Path), zap.Error(err))
	}

	for _, family := range spec.Families {
		if face := fc.Face(family, sizePt, dpi); face != nil {
			fc.log.Debug("font resolved", zap.String("family", family), zap.Float64("size", sizePt))
			return ResolvedFace{Face: face, Name: family}
		}
	}

	fc.log.Debug("using fallback font", zap.String("font", FallbackFontName), zap.Float64("size", sizePt))
	return ResolvedFace{Face: basicfont.Face7x13, Name: FallbackFontName, Fallback: true}
}

// Face returns a font.Face for the named font from the scanned font
// directories or fonts registered with LoadFontData. Returns nil if not found.
func (fc *FontCache) Face(name string, sizePt, dpi float64) font.Face {
	fc.ensureScanned()

	key := fontKey{name: foldName(name), size: sizePt, dpi: dpi}

	fc.mu.RLock()
	if face, ok := fc.faces[key]; ok {
		fc.mu.RUnlock()
		return face
	}
	f := fc.fonts[key.name]
	fc.mu.RUnlock()
	if f == nil {
		return nil
	}

	face, err := newFace(f, sizePt, dpi)
	if err != nil {
		return nil
	}

	fc.mu.Lock()
	fc.faces[key] = face
	fc.mu.Unlock()
	return face
}

// fileFace returns a face for the font at path, parsing the file at most once.
func (fc *FontCache) fileFace(path string, index int, sizePt, dpi float64) (font.Face, error) {
	key := fontKey{name: fmt.Sprintf("file:%s#%d", path, index), size: sizePt, dpi: dpi}

	fc.mu.RLock()
	face, ok := fc.faces[key]
	fc.mu.RUnlock()
	if ok {
		return face, nil
	}

	f, err := fc.LoadFontFile(path, index)
	if err != nil {
		return nil, err
	}
	face, err = newFace(f, sizePt, dpi)
	if err != nil {
		return nil, fmt.Errorf("new face: %w", err)
	}

	fc.mu.Lock()
	fc.faces[key] = face
	fc.mu.Unlock()
	return face, nil
}

func newFace(f *opentype.Font, sizePt, dpi float64) (font.Face, error) {
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    sizePt,
		DPI:     dpi,
		Hinting: font.HintingFull,
	})
}

// LoadFontFile parses a TrueType/OpenType font or collection. For
// collections, index selects the font. The parsed font is also registered
// under its family name. Returns an error if the file exceeds maxFontFileSize.
func (fc *FontCache) LoadFontFile(path string, index int) (*opentype.Font, error) {
	fileKey := fmt.Sprintf("%s#%d", path, index)
	fc.mu.RLock()
	f, ok := fc.files[fileKey]
	fc.mu.RUnlock()
	if ok {
		return f, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxFontFileSize {
		return nil, fmt.Errorf("font file too large: %d bytes (max %d)", info.Size(), maxFontFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if isCollection(path) {
		coll, err := opentype.ParseCollection(data)
		if err != nil {
			return nil, fmt.Errorf("parse collection %s: %w", path, err)
		}
		if index < 0 || index >= coll.NumFonts() {
			return nil, fmt.Errorf("font index %d out of range (0-%d)", index, coll.NumFonts()-1)
		}
		f, err = coll.Font(index)
		if err != nil {
			return nil, fmt.Errorf("font %d of %s: %w", index, path, err)
		}
	} else {
		if index != 0 {
			return nil, fmt.Errorf("font index %d given for single font %s", index, path)
		}
		f, err = opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse font %s: %w", path, err)
		}
	}

	fc.mu.Lock()
	fc.files[fileKey] = f
	fc.registerByFamilyName(f)
	fc.mu.Unlock()
	return f, nil
}

// LoadFontData registers a TrueType/OpenType font from raw bytes.
func (fc *FontCache) LoadFontData(name string, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return err
	}
	fc.mu.Lock()
	fc.fonts[foldName(name)] = f
	fc.registerByFamilyName(f)
	fc.mu.Unlock()
	return nil
}

func (fc *FontCache) ensureScanned() {
	fc.mu.RLock()
	scanned := fc.scanned
	fc.mu.RUnlock()
	if scanned {
		return
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()
	if fc.scanned {
		return
	}
	fc.scanned = true

	for _, dir := range fc.dirs {
		fc.scanDirDepth(dir, 0)
	}
	fc.log.Debug("scanned font directories", zap.Strings("dirs", fc.dirs), zap.Int("fonts", len(fc.fonts)))
}

// maxFontScanDepth limits recursive directory traversal when scanning for fonts.
const maxFontScanDepth = 3

// maxFontFileSize limits the size of individual font files loaded into memory.
const maxFontFileSize = 20 << 20 // 20 MB

func isCollection(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".ttc") || strings.HasSuffix(lower, ".otc")
}

func (fc *FontCache) scanDirDepth(dir string, depth int) {
	if depth > maxFontScanDepth {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			fc.scanDirDepth(filepath.Join(dir, entry.Name()), depth+1)
			continue
		}
		name := entry.Name()
		lower := strings.ToLower(name)
		isTTC := isCollection(lower)
		isSingle := strings.HasSuffix(lower, ".ttf") || strings.HasSuffix(lower, ".otf")
		if !isTTC && !isSingle {
			continue
		}

		info, err := entry.Info()
		if err != nil || info.Size() > maxFontFileSize {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}

		baseName := foldName(strings.TrimSuffix(name, filepath.Ext(name)))
		if isTTC {
			fc.loadCollection(data, baseName)
		} else {
			fc.loadSingleFont(data, baseName)
		}
	}
}

// loadSingleFont parses a single TTF/OTF font and registers it by both
// file name and internal family name.
func (fc *FontCache) loadSingleFont(data []byte, baseName string) {
	f, err := opentype.Parse(data)
	if err != nil {
		return
	}
	fc.fonts[baseName] = f
	fc.registerByFamilyName(f)
}

// loadCollection parses a TTC/OTC collection and registers each font by
// its internal family name. The first font is also registered by file name.
func (fc *FontCache) loadCollection(data []byte, baseName string) {
	coll, err := opentype.ParseCollection(data)
	if err != nil {
		return
	}
	for i := 0; i < coll.NumFonts(); i++ {
		f, err := coll.Font(i)
		if err != nil {
			continue
		}
		if i == 0 {
			fc.fonts[baseName] = f
		}
		fc.registerByFamilyName(f)
	}
}

// registerByFamilyName registers f under the family and full names from
// its name table. The first font seen for a name wins so the regular
// face of a collection is not shadowed by its bold or italic siblings.
// Callers must hold fc.mu.
func (fc *FontCache) registerByFamilyName(f *opentype.Font) {
	for _, id := range []sfnt.NameID{sfnt.NameIDFamily, sfnt.NameIDFull} {
		name, err := f.Name(nil, id)
		if err != nil || name == "" {
			continue
		}
		k := foldName(name)
		if _, ok := fc.fonts[k]; !ok {
			fc.fonts[k] = f
		}
	}
}

// systemFontDirs returns OS-specific font directories.
func systemFontDirs() []string {
	switch runtime.GOOS {
	case "windows":
		windir := os.Getenv("WINDIR")
		if windir == "" {
			windir = `C:\Windows`
		}
		dirs := []string{filepath.Join(windir, "Fonts")}
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			dirs = append(dirs, filepath.Join(localAppData, "Microsoft", "Windows", "Fonts"))
		}
		return dirs
	case "darwin":
		home, _ := os.UserHomeDir()
		dirs := []string{
			"/System/Library/Fonts",
			"/Library/Fonts",
		}
		if home != "" {
			dirs = append(dirs, filepath.Join(home, "Library", "Fonts"))
		}
		return dirs
	default: // linux, freebsd, etc.
		home, _ := os.UserHomeDir()
		dirs := []string{
			"/usr/share/fonts",
			"/usr/local/share/fonts",
		}
		if home != "" {
			dirs = append(dirs, filepath.Join(home, ".local", "share", "fonts"))
			dirs = append(dirs, filepath.Join(home, ".fonts"))
		}
		return dirs
	}
}
