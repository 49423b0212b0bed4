// Package detection recovers curve positions from a chart image, one probe
// column at a time.
//
// A probe is a vertical line at a fixed pixel column. For each probe the
// detector samples a narrow horizontal band around the column, averages it
// into a one-dimensional brightness profile, and looks for sharp brightness
// changes where drawn curves cross the column. It then assigns exactly one
// row to every tracked label (curve) and maps those rows back to data values
// through the axis calibration.
//
// # Algorithm Overview
//
//  1. Profile: luma (0.299*R + 0.587*G + 0.114*B) averaged over the band,
//     one value per row of the calibrated y span
//  2. Derivative: absolute difference between neighbouring rows
//  3. Row masks: optional per-label row restrictions read from a painted
//     highlight layer
//  4. Picking: labels are served in order; each takes the best row that its
//     mask allows and that keeps a minimum distance from rows already taken,
//     falling back through progressively weaker tiers (see Tier)
//  5. Mapping: each row is converted to a data y value
//
// # Sensitivity
//
// Sensitivity in [0,1] controls the derivative threshold for accepting a
// peak as a curve crossing:
//
//	threshold = maxDiff * (0.15 + 0.7*(1 - sensitivity))
//
// Higher sensitivity lowers the threshold and accepts fainter curves.
//
// # Error Handling
//
// Detection never returns an error. Incomplete calibrations and empty
// sampling spans make Detect report ok=false; unreadable masks and missing
// candidates are absorbed by the fallback tiers.
//
// # Thread Safety
//
// Everything in this package is stateless. Concurrent calls are safe as long
// as the image and mask are not mutated while being read.
package detection
