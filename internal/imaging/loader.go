package imaging

import (
	"fmt"
	"image"
	"image/png"
	_ "image/jpeg" // Register JPEG format decoder
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
)

// LoadFrame reads an image file and converts it to a Frame.
//
// Parameters:
//   - path: File path to the image. Supported formats are PNG, JPEG and
//     TIFF (8 or 16 bits per sample).
//   - fluxMax: Intensity assigned to full-scale white.
//
// Returns:
//   - *Frame: The decoded frame, origin at (0, 0).
//   - error: Non-nil if the file cannot be opened or decoded.
func LoadFrame(path string, fluxMax float64) (*Frame, error) {
	img, err := imgio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load frame %s: %w", path, err)
	}
	return FrameFromImage(img, fluxMax), nil
}

// SavePNG writes img to path, creating parent directories as needed.
// The file is encoded with png.BestSpeed.
func SavePNG(img image.Image, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := imaging.Save(img, path, imaging.PNGCompressionLevel(png.BestSpeed)); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}
