// Package imaging provides the pixel containers and low-level raster
// operations used by trail detection.
//
// Survey frames arrive as calibrated floating-point intensities and are
// held in a Frame. Everything downstream of 8-bit conversion works on
// *image.Gray so the standard library and third-party filters apply
// directly.
//
// # Coordinate System
//
// All pixel coordinates are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, Min is inclusive and Max is exclusive
//
// # Operations
//
//   - ScaleAbs: absolute value, rounding and saturation to 8 bits
//   - Equalize: global histogram equalization of an 8-bit image
//   - Dilate, Erode: grayscale morphology with a square kernel
//   - Mask: per-pixel exclusion map applied to frames and 8-bit images
//   - Overlay, DrawLine: color renderings for debug snapshots
//
// # Thread Safety
//
// Every function returns a new image and never modifies its input unless
// documented otherwise (the Mask.Apply methods work in place). Distinct images
// may be processed concurrently.
package imaging
