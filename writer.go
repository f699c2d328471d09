package installart

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"go.uber.org/multierr"
)

// jpegQuality is used when the output extension selects JPEG.
const jpegQuality = 95

// SaveImage encodes img to path in the format named by its extension.
// Missing parent directories are created. The image is written to a
// temporary file in the same directory and renamed over path, so an
// existing file is replaced whole and the last writer wins.
func SaveImage(img image.Image, path string) (err error) {
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return fmt.Errorf("output format: %w", err)
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			os.Remove(tmp)
		}
	}()

	err = multierr.Combine(
		imaging.Encode(f, img, format, imaging.JPEGQuality(jpegQuality)),
		f.Chmod(0o644),
		f.Close(),
	)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
