package detection

import (
	"image"

	"github.com/ironsheep/trailscan/internal/imaging"
)

// Prepared is the output of a morphology pass.
type Prepared struct {
	// Equalized is the 8-bit equalized frame searched by the full-frame
	// Hough pass.
	Equalized *image.Gray

	// Features is the binary-like image whose blobs become rectangles.
	Features *image.Gray
}

// PreprocessBright prepares a frame for the bright pass: negative samples
// are clipped, masked pixels zeroed, the result converted to 8 bits,
// equalized and dilated.
func PreprocessBright(frame *imaging.Frame, mask *imaging.Mask, p BrightParams, sink DebugSink) Prepared {
	f := frame.Clone()
	for i, v := range f.Pix {
		if v < 0 {
			f.Pix[i] = 0
		}
	}
	if mask != nil {
		mask.ApplyToFrame(f)
	}

	equ := imaging.Equalize(imaging.ScaleAbs(f, 1, 0))
	snapshot(sink, "equBRIGHT", func() image.Image { return equ })

	dilated := imaging.Dilate(equ, p.DilateKernel)
	snapshot(sink, "dilateBRIGHT", func() image.Image { return dilated })

	return Prepared{Equalized: equ, Features: dilated}
}

// PreprocessDim prepares a frame for the dim pass: samples below MinFlux
// are zeroed and the rest lifted by AddFlux before 8-bit conversion and
// equalization. The mask is applied afterwards, then the image is opened
// with an erosion and a dilation.
func PreprocessDim(frame *imaging.Frame, mask *imaging.Mask, p DimParams, sink DebugSink) Prepared {
	f := frame.Clone()
	for i, v := range f.Pix {
		switch {
		case v < p.MinFlux:
			f.Pix[i] = 0
		case v > 0:
			f.Pix[i] = v + p.AddFlux
		}
	}

	equ := imaging.Equalize(imaging.ScaleAbs(f, 1, 0))
	if mask != nil {
		mask.ApplyToGray(equ)
	}
	snapshot(sink, "equDIM", func() image.Image { return equ })

	eroded := imaging.Erode(equ, p.ErodeKernel)
	snapshot(sink, "erodedDIM", func() image.Image { return eroded })

	opened := imaging.Dilate(eroded, p.DilateKernel)
	snapshot(sink, "openedDIM", func() image.Image { return opened })

	return Prepared{Equalized: equ, Features: opened}
}
