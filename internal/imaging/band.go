package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
)

// CropBand extracts the vertical strip [px-band, px+band] x [startY, endY]
// (both ranges inclusive) as an NRGBA image rebased to (0,0). Columns that
// fall outside the image are dropped, so the result may be narrower than
// 2*band+1. An empty strip is returned as a zero-sized image.
//
// Row 0 of the result corresponds to startY only when startY lies inside the
// image; callers clamp the span first.
func CropBand(img image.Image, px, band, startY, endY int) *image.NRGBA {
	if band < 0 {
		band = 0
	}
	if endY < startY {
		return &image.NRGBA{}
	}
	return imaging.Crop(img, image.Rect(px-band, startY, px+band+1, endY+1))
}

// Smooth applies a Gaussian blur with the given radius. A non-positive
// radius returns img unchanged.
func Smooth(img *image.NRGBA, radius float64) *image.NRGBA {
	if radius <= 0 || img.Rect.Empty() {
		return img
	}
	return imaging.Clone(blur.Gaussian(img, radius))
}
