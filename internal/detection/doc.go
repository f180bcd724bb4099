// Package detection implements single-frame linear trail detection.
//
// A frame passes through four stages, each a pure function of its inputs:
//
//  1. Source masking: catalogued stars and galaxies bright enough to
//     produce spurious edges are blanked with square boxes (BuildMask).
//  2. Morphology: the masked frame is converted to 8 bits, histogram
//     equalized and dilated (bright pass) or eroded then dilated (dim
//     pass) so trails become solid elongated blobs.
//  3. Rectangle extraction: every connected blob boundary is fitted with a
//     minimum-area rectangle, and only long thin rectangles survive.
//  4. Dual Hough search and consistency check: the filled rectangle and the
//     equalized frame are searched independently for lines. The candidate
//     is accepted only when both line sets are tight and agree with each
//     other in angle and offset.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// Lines are in normal form x*cos(Theta) + y*sin(Theta) = Rho with Theta in
// [0, pi). A horizontal trail has Theta = pi/2.
//
// # Hough Accumulator
//
// The accumulator uses 180 angle bins of one degree and a configurable rho
// step. Every nonzero pixel votes. There is no peak suppression: the best
// bins are taken in order of votes, then lower Theta, then lower Rho, so
// results are deterministic.
//
// # Debug Snapshots
//
// Stages accept an optional DebugSink. Snapshot names follow the stage and
// the pass, for example "equBRIGHT", "dilateBRIGHT", "contoursDIM" and
// "boxhoughDIM". A nil sink disables capture and costs nothing.
package detection
