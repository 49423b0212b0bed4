// Package imaging provides the raster access layer for chart digitization.
//
// This package loads chart images, samples pixel colors, crops the vertical
// strip around a probe column, and exposes the user-painted highlight layer
// through the read-only Mask interface. All operations work with standard Go
// image.Image types.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - Strip ranges passed to CropBand are inclusive on both ends
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. ImageMask is an immutable
// snapshot and may be read from any goroutine. Individual operations are
// stateless.
//
// # Color Matching
//
// Label colors are hex strings ("#RRGGBB"). A mask pixel belongs to a label
// when its alpha is non-zero and its RGB distance to the label color is
// within the configured tolerance; see MatchesColor.
//
// # Luminance
//
// Brightness is computed with ITU-R BT.601 weights (0.299*R + 0.587*G +
// 0.114*B) on 8-bit, non-premultiplied components.
package imaging
