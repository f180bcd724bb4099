// Package archive reads frames and catalogs from a survey directory tree.
//
// # Layout
//
// Files are grouped by run and camera column:
//
//	<root>/<run>/<camcol>/frame-<filter>-<run:06d>-<camcol>-<field:04d>.png
//	<root>/<run>/<camcol>/photoObj-<run:06d>-<camcol>-<field:04d>.csv
//
// Frames may also be stored as .tif or .tiff. One catalog serves all five
// filters of a field, so catalogs are cached after the first read.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ironsheep/trailscan/internal/imaging"
	"github.com/ironsheep/trailscan/internal/survey"
)

// ErrNotFound is returned when no file exists for a frame.
var ErrNotFound = errors.New("not found")

// frameExts lists accepted image extensions in lookup order.
var frameExts = []string{".png", ".tif", ".tiff"}

// Store serves frames and catalogs from Root. It is safe for concurrent use.
type Store struct {
	Root    string
	FluxMax float64

	catalogs *CatalogCache
}

// New returns a Store rooted at root scaling full-scale samples to fluxMax.
func New(root string, fluxMax float64) *Store {
	return &Store{Root: root, FluxMax: fluxMax, catalogs: NewCatalogCache()}
}

func (s *Store) dir(id survey.FrameID) string {
	return filepath.Join(s.Root, strconv.Itoa(id.Run), strconv.Itoa(id.Camcol))
}

// FramePath returns the path of the image for id.
func (s *Store) FramePath(id survey.FrameID) (string, error) {
	base := fmt.Sprintf("frame-%s-%06d-%d-%04d", id.Filter, id.Run, id.Camcol, id.Field)
	for _, ext := range frameExts {
		path := filepath.Join(s.dir(id), base+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("failed to stat %s: %w", path, err)
		}
	}
	return "", fmt.Errorf("frame %s: %w", id, ErrNotFound)
}

// CatalogPath returns the path of the catalog for id's field.
func (s *Store) CatalogPath(id survey.FrameID) string {
	name := fmt.Sprintf("photoObj-%06d-%d-%04d.csv", id.Run, id.Camcol, id.Field)
	return filepath.Join(s.dir(id), name)
}

// Image loads the frame for id.
func (s *Store) Image(ctx context.Context, id survey.FrameID) (*imaging.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.FramePath(id)
	if err != nil {
		return nil, err
	}
	return imaging.LoadFrame(path, s.FluxMax)
}

// Sources returns the catalog of id's field. The returned slice is shared
// between callers and must not be modified.
func (s *Store) Sources(ctx context.Context, id survey.FrameID) ([]survey.CatalogSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := s.CatalogPath(id)
	sources, err := s.catalogs.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("catalog for %s: %w: %w", id, ErrNotFound, err)
	}
	return sources, err
}

// Evict drops the cached catalog of id's field.
func (s *Store) Evict(id survey.FrameID) {
	s.catalogs.Evict(s.CatalogPath(id))
}
