package detection

import (
	"fmt"
	"image"
	"math"

	"github.com/ironsheep/trailscan/internal/imaging"
	"github.com/ironsheep/trailscan/internal/survey"
)

// SourceWarning records a catalog entry that could not be used.
type SourceWarning struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

func (w SourceWarning) String() string {
	return fmt.Sprintf("source %d: %s", w.Index, w.Reason)
}

// BuildMask blanks catalogued sources that could produce false trails.
//
// A source is drawn as a square box centred on its position when all of the
// following hold:
//   - its PSF magnitude in band is brighter than p.FilterCaps[band]
//   - no more than p.MagCount magnitude differences exceed p.MaxMagDiff
//   - it was detected in every observation (NObserve == NDetect)
//
// The box half-size is the Petrosian radius converted to pixels
// (petro90/pixscale + petroPad) when known, otherwise p.DefaultXY, and
// never more than p.MaxXY.
//
// Sources with a non-finite position, a negative observation count or no
// magnitude in band are skipped and reported as warnings. The result depends only on the inputs.
func BuildMask(width, height int, sources []survey.CatalogSource, band survey.Band, p MaskParams) (*imaging.Mask, []SourceWarning) {
	mask := imaging.NewMask(width, height)
	var warnings []SourceWarning

	for i, s := range sources {
		if !finite(s.X) || !finite(s.Y) {
			warnings = append(warnings, SourceWarning{Index: i, Reason: "non-finite position"})
			continue
		}
		if s.NObserve < 0 || s.NDetect < 0 {
			warnings = append(warnings, SourceWarning{Index: i, Reason: "unreadable observation counts"})
			continue
		}
		mag, ok := s.Mag(band)
		if !ok {
			warnings = append(warnings, SourceWarning{Index: i, Reason: fmt.Sprintf("missing psfMag_%s", band)})
			continue
		}
		if limit, ok := p.FilterCaps[band]; ok && mag >= limit {
			continue
		}
		if magOutliers(s, band, mag, p) > p.MagCount {
			continue
		}
		if s.NObserve != s.NDetect {
			continue
		}

		half := clipHalfSize(s, band, p)
		cx, cy := int(s.X), int(s.Y)
		mask.FillRect(image.Rect(cx-half, cy-half, cx+half, cy+half))
	}

	return mask, warnings
}

// magOutliers counts magnitude differences larger than p.MaxMagDiff. Bands
// without a usable magnitude are ignored.
func magOutliers(s survey.CatalogSource, band survey.Band, mag float64, p MaskParams) int {
	count := 0
	switch p.MagDiffMode {
	case MagDiffPairwise:
		for i, a := range survey.Bands {
			ma, ok := s.Mag(a)
			if !ok {
				continue
			}
			for _, b := range survey.Bands[i+1:] {
				if mb, ok := s.Mag(b); ok && math.Abs(ma-mb) > p.MaxMagDiff {
					count++
				}
			}
		}
	default:
		for _, b := range survey.Bands {
			if b == band {
				continue
			}
			if mb, ok := s.Mag(b); ok && math.Abs(mb-mag) > p.MaxMagDiff {
				count++
			}
		}
	}
	return count
}

func clipHalfSize(s survey.CatalogSource, band survey.Band, p MaskParams) int {
	half := p.DefaultXY
	if petro, ok := s.Petro90[band]; ok && finite(petro) && petro > 0 {
		half = int(petro/p.Pixscale) + p.PetroPad
	}
	return min(half, p.MaxXY)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
