package detection

import (
	"github.com/ironsheep/trailscan/internal/survey"
)

// Contour retrieval modes.
const (
	ContoursList     = "list"
	ContoursExternal = "external"
)

// Contour approximation methods.
const (
	ContoursNone   = "none"
	ContoursSimple = "simple"
)

// Magnitude difference modes for source masking.
const (
	MagDiffReference = "reference"
	MagDiffPairwise  = "pairwise"
)

// LineParams are the settings shared by the bright and dim passes.
type LineParams struct {
	DilateKernel      int     `mapstructure:"dilateKernel" yaml:"dilateKernel" validate:"gte=1"`
	ContoursMode      string  `mapstructure:"contoursMode" yaml:"contoursMode" validate:"oneof=list external"`
	ContoursMethod    string  `mapstructure:"contoursMethod" yaml:"contoursMethod" validate:"oneof=none simple"`
	MinAreaRectMinLen float64 `mapstructure:"minAreaRectMinLen" yaml:"minAreaRectMinLen" validate:"gt=0"`
	LwTresh           float64 `mapstructure:"lwTresh" yaml:"lwTresh" validate:"gt=0"`

	// HoughMethod is the rho resolution of the accumulator in pixels.
	HoughMethod    float64 `mapstructure:"houghMethod" yaml:"houghMethod" validate:"gt=0"`
	HoughThreshold int     `mapstructure:"houghThreshold" yaml:"houghThreshold" validate:"gte=1"`

	// HoughWindow is the half-width, in radians, of the angle range searched
	// in the equalized frame around a rectangle's normal. Zero searches all
	// angles.
	HoughWindow float64 `mapstructure:"houghWindow" yaml:"houghWindow" validate:"gte=0,lte=1.5708"`

	NlinesInSet    int     `mapstructure:"nlinesInSet" yaml:"nlinesInSet" validate:"gte=1"`
	ThetaTresh     float64 `mapstructure:"thetaTresh" yaml:"thetaTresh" validate:"gte=0"`
	LinesetTresh   float64 `mapstructure:"linesetTresh" yaml:"linesetTresh" validate:"gte=0"`
	Dro            float64 `mapstructure:"dro" yaml:"dro" validate:"gte=0"`

	// MergeCollinear folds accepted detections of one pass that lie within
	// MergeTheta radians and MergeRho pixels of a stronger one.
	MergeCollinear bool    `mapstructure:"mergeCollinear" yaml:"mergeCollinear"`
	MergeTheta     float64 `mapstructure:"mergeTheta" yaml:"mergeTheta" validate:"gte=0"`
	MergeRho       float64 `mapstructure:"mergeRho" yaml:"mergeRho" validate:"gte=0"`

	Debug bool `mapstructure:"debug" yaml:"debug"`
}

// BrightParams configure the bright pass.
type BrightParams struct {
	LineParams `mapstructure:",squash" yaml:",inline"`
}

// DimParams configure the dim pass.
type DimParams struct {
	LineParams `mapstructure:",squash" yaml:",inline"`

	// MinFlux zeroes fainter samples; AddFlux lifts the remaining positive
	// samples so they survive 8-bit rounding.
	MinFlux     float64 `mapstructure:"minFlux" yaml:"minFlux" validate:"gte=0"`
	AddFlux     float64 `mapstructure:"addFlux" yaml:"addFlux" validate:"gte=0"`
	ErodeKernel int     `mapstructure:"erodeKernel" yaml:"erodeKernel" validate:"gte=1"`
}

// MaskParams configure catalog source masking.
type MaskParams struct {
	// Pixscale is the plate scale in arcseconds per pixel.
	Pixscale  float64 `mapstructure:"pixscale" yaml:"pixscale" validate:"gt=0"`
	DefaultXY int     `mapstructure:"defaultxy" yaml:"defaultxy" validate:"gte=0"`
	MaxXY     int     `mapstructure:"maxxy" yaml:"maxxy" validate:"gte=0"`

	// FilterCaps holds the faintest PSF magnitude still masked, per band.
	// A band without a cap masks sources of any brightness.
	FilterCaps map[survey.Band]float64 `mapstructure:"filter_caps" yaml:"filter_caps" validate:"dive,keys,oneof=u g r i z,endkeys"`

	MagCount    int     `mapstructure:"magcount" yaml:"magcount" validate:"gte=0"`
	MaxMagDiff  float64 `mapstructure:"maxmagdiff" yaml:"maxmagdiff" validate:"gte=0"`
	MagDiffMode string  `mapstructure:"magDiffMode" yaml:"magDiffMode" validate:"oneof=reference pairwise"`

	// PetroPad is added to the Petrosian radius after conversion to pixels.
	PetroPad int  `mapstructure:"petroPad" yaml:"petroPad" validate:"gte=0"`
	Debug    bool `mapstructure:"debug" yaml:"debug"`
}

func defaultLineParams() LineParams {
	return LineParams{
		DilateKernel:      4,
		ContoursMode:      ContoursList,
		ContoursMethod:    ContoursNone,
		MinAreaRectMinLen: 1,
		LwTresh:           5,
		HoughMethod:       1,
		HoughThreshold:    1,
		HoughWindow:       0.35,
		NlinesInSet:       3,
		ThetaTresh:        0.15,
		LinesetTresh:      0.15,
		Dro:               25,
		MergeCollinear:    true,
		MergeTheta:        0.1,
		MergeRho:          10,
	}
}

// DefaultBright returns the bright pass defaults.
func DefaultBright() BrightParams {
	return BrightParams{LineParams: defaultLineParams()}
}

// DefaultDim returns the dim pass defaults.
func DefaultDim() DimParams {
	lp := defaultLineParams()
	lp.DilateKernel = 9
	lp.Dro = 20
	return DimParams{
		LineParams:  lp,
		MinFlux:     0.02,
		AddFlux:     0.5,
		ErodeKernel: 3,
	}
}

// DefaultMask returns the source masking defaults.
func DefaultMask() MaskParams {
	return MaskParams{
		Pixscale:  0.396,
		DefaultXY: 20,
		MaxXY:     60,
		FilterCaps: map[survey.Band]float64{
			survey.BandU: 22.0,
			survey.BandG: 22.2,
			survey.BandR: 22.2,
			survey.BandI: 21.3,
			survey.BandZ: 20.5,
		},
		MagCount:    3,
		MaxMagDiff:  3,
		MagDiffMode: MagDiffReference,
		PetroPad:    10,
	}
}

func (p LineParams) extractOptions() ExtractOptions {
	return ExtractOptions{
		Mode:    p.ContoursMode,
		Method:  p.ContoursMethod,
		MinLen:  p.MinAreaRectMinLen,
		LwTresh: p.LwTresh,
	}
}

func (p LineParams) thresholds() Thresholds {
	return Thresholds{
		ThetaTresh:   p.ThetaTresh,
		LinesetTresh: p.LinesetTresh,
		Dro:          p.Dro,
	}
}

func (p LineParams) merge(dets []Detection) []Detection {
	if !p.MergeCollinear {
		return dets
	}
	return mergeCollinear(dets, p.MergeTheta, p.MergeRho)
}
