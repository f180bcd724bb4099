package pipeline

import (
	"image"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ironsheep/trailscan/internal/detection"
	"github.com/ironsheep/trailscan/internal/imaging"
	"github.com/ironsheep/trailscan/internal/survey"
)

// DirSink stores debug snapshots as <Root>/<frame id>/<name>.png.
type DirSink struct {
	Root string
	Log  *zap.Logger
}

// ForFrame returns the sink for one frame's snapshots.
func (s *DirSink) ForFrame(id survey.FrameID) detection.DebugSink {
	return &frameDir{
		dir: filepath.Join(s.Root, id.String()),
		log: s.Log.With(zap.String("frame", id.String())),
	}
}

type frameDir struct {
	dir string
	log *zap.Logger
}

// Snapshot writes img. Failures are logged; debugging output never fails a
// frame.
func (f *frameDir) Snapshot(name string, img image.Image) {
	path := filepath.Join(f.dir, name+".png")
	if err := imaging.SavePNG(img, path); err != nil {
		f.log.Warn("Failed to save debug snapshot", zap.String("path", path), zap.Error(err))
		return
	}
	f.log.Debug("Saved debug snapshot", zap.String("path", path))
}
