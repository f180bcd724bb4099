// Package survey holds the identifiers and catalog records shared by every
// stage of trail detection.
//
// A frame is one exposure in one photometric band, addressed by run, camera
// column, filter and field. Catalog sources carry per-band photometry used to
// decide which known objects are masked out before line search.
package survey

import (
	"fmt"
	"math"
	"strings"
)

// Band is a photometric filter name.
type Band string

// Survey filters, bluest first.
const (
	BandU Band = "u"
	BandG Band = "g"
	BandR Band = "r"
	BandI Band = "i"
	BandZ Band = "z"
)

// Bands lists every filter in the order frames are processed.
var Bands = []Band{BandU, BandG, BandR, BandI, BandZ}

// ParseBand validates a filter name.
func ParseBand(s string) (Band, error) {
	b := Band(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Bands {
		if b == known {
			return b, nil
		}
	}
	return "", fmt.Errorf("unknown filter %q (expected one of u, g, r, i, z)", s)
}

// FrameID addresses a single field image in one band.
type FrameID struct {
	Run    int  `json:"run"`
	Camcol int  `json:"camcol"`
	Filter Band `json:"filter"`
	Field  int  `json:"field"`
}

// String formats the id as run-camcol-filter-field.
func (id FrameID) String() string {
	return fmt.Sprintf("%d-%d-%s-%d", id.Run, id.Camcol, id.Filter, id.Field)
}

// CatalogSource is one catalogued object overlapping a frame.
//
// Position is in frame pixel coordinates. PsfMag and Petro90 are keyed by
// band; a band missing from PsfMag or holding NaN is treated as unmeasured.
// Petro90 is the radius containing 90% of the Petrosian flux, in arcseconds.
// A negative NObserve or NDetect marks a count that could not be read.
type CatalogSource struct {
	X, Y     float64
	PsfMag   map[Band]float64
	Petro90  map[Band]float64
	NObserve int
	NDetect  int
}

// Mag returns the PSF magnitude in band b and whether it is usable.
func (s CatalogSource) Mag(b Band) (float64, bool) {
	m, ok := s.PsfMag[b]
	if !ok || math.IsNaN(m) || math.IsInf(m, 0) {
		return 0, false
	}
	return m, true
}
