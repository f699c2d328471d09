package installart

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
)

// newIsolatedFontCache returns a cache that never scans system fonts.
func newIsolatedFontCache() *FontCache {
	fc := NewFontCache()
	fc.dirs = nil
	return fc
}

// writeGoRegular writes the embedded Go Regular font to dir.
func writeGoRegular(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "goregular.ttf")
	if err := os.WriteFile(path, goregular.TTF, 0o644); err != nil {
		t.Fatalf("write font: %v", err)
	}
	return path
}

func TestFontCache_ResolvePreferredFile(t *testing.T) {
	fc := newIsolatedFontCache()
	path := writeGoRegular(t, t.TempDir())

	face := fc.Resolve(FontSpec{Path: path}, 24, 72)
	if face.Fallback {
		t.Fatal("expected the preferred font, got fallback")
	}
	if face.Name != path {
		t.Errorf("expected name %q, got %q", path, face.Name)
	}
	if w := font.MeasureString(face, "Hello"); w <= 0 {
		t.Error("expected positive text width from TrueType face")
	}

	// Same size again is served from the cache.
	again := fc.Resolve(FontSpec{Path: path}, 24, 72)
	if again.Face != face.Face {
		t.Error("expected cached face for identical request")
	}
}

func TestFontCache_ResolveMissingFileFallsBack(t *testing.T) {
	fc := newIsolatedFontCache()
	face := fc.Resolve(FontSpec{Path: filepath.Join(t.TempDir(), "Helvetica.ttc")}, 24, 72)
	if !face.Fallback {
		t.Fatal("expected fallback for missing font file")
	}
	if face.Face != basicfont.Face7x13 {
		t.Error("expected basicfont fallback face")
	}
	if face.Name != FallbackFontName {
		t.Errorf("expected %q, got %q", FallbackFontName, face.Name)
	}
}

func TestFontCache_ResolveCorruptFileFallsBack(t *testing.T) {
	fc := newIsolatedFontCache()
	dir := t.TempDir()
	for _, name := range []string{"broken.ttf", "broken.ttc"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("not a font"), 0o644); err != nil {
			t.Fatal(err)
		}
		if face := fc.Resolve(FontSpec{Path: path}, 16, 72); !face.Fallback {
			t.Errorf("%s: expected fallback for unparsable font", name)
		}
	}
}

func TestFontCache_ResolveFamily(t *testing.T) {
	fc := newIsolatedFontCache()
	if err := fc.LoadFontData("Go Regular", goregular.TTF); err != nil {
		t.Fatalf("LoadFontData: %v", err)
	}
	spec := FontSpec{
		Path:     filepath.Join(t.TempDir(), "missing.ttf"),
		Families: []string{"nonexistent-font-xyz-12345", "GO REGULAR"},
	}
	face := fc.Resolve(spec, 16, 72)
	if face.Fallback {
		t.Fatal("expected family lookup to succeed")
	}
	if face.Name != "GO REGULAR" {
		t.Errorf("expected name %q, got %q", "GO REGULAR", face.Name)
	}
}

func TestFontCache_FamilyNameRegistered(t *testing.T) {
	fc := newIsolatedFontCache()
	path := writeGoRegular(t, t.TempDir())
	if _, err := fc.LoadFontFile(path, 0); err != nil {
		t.Fatalf("LoadFontFile: %v", err)
	}
	// Go Regular's name table says family "Go".
	if fc.Face("go", 12, 72) == nil {
		t.Error("expected font to be registered under its family name")
	}
}

func TestFontCache_LoadFontFileIndexOnSingleFont(t *testing.T) {
	fc := newIsolatedFontCache()
	path := writeGoRegular(t, t.TempDir())
	if _, err := fc.LoadFontFile(path, 1); err == nil {
		t.Error("expected error for collection index on a single font")
	}
}

func TestFontCache_LoadFontData(t *testing.T) {
	fc := newIsolatedFontCache()
	// Loading invalid data should fail
	if err := fc.LoadFontData("test", []byte("not a font")); err == nil {
		t.Error("expected error for invalid font data")
	}
}

func TestFontCache_Fallback(t *testing.T) {
	fc := newIsolatedFontCache()
	// A font name that definitely doesn't exist
	if face := fc.Face("nonexistent-font-xyz-12345", 12, 72); face != nil {
		t.Error("expected nil for nonexistent font")
	}
}

func TestFontCache_ScanDirectory(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeGoRegular(t, sub)

	fc := NewFontCache(dir)
	fc.dirs = []string{dir}
	if fc.Face("goregular", 12, 72) == nil {
		t.Error("expected font found by file name in scanned directory")
	}
}

func TestFontCache_SystemHelvetica(t *testing.T) {
	fc := NewFontCache()
	face := fc.Resolve(DefaultOptions().Font, 24, 72)
	if face.Fallback {
		t.Skip("no Helvetica-like font on this system, skipping")
	}
	if w := font.MeasureString(face, "Drag Krepto to Applications"); w <= 0 {
		t.Error("expected positive text width from system face")
	}
}
