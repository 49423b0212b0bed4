package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// RenderResult contains an annotated image encoded as PNG.
type RenderResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Canvas is a drawable copy of an image used for annotation previews.
// Drawing outside the bounds is silently clipped.
type Canvas struct {
	img *image.RGBA
}

// NewCanvas copies src onto a fresh RGBA canvas.
func NewCanvas(src image.Image) *Canvas {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, src, b.Min, draw.Src)
	return &Canvas{img: dst}
}

// Image returns the underlying RGBA image.
func (c *Canvas) Image() *image.RGBA {
	return c.img
}

func (c *Canvas) set(x, y int, col color.Color) {
	if image.Pt(x, y).In(c.img.Rect) {
		c.img.Set(x, y, col)
	}
}

// VLine draws a full-height vertical line at column x.
func (c *Canvas) VLine(x int, col color.Color) {
	for y := c.img.Rect.Min.Y; y < c.img.Rect.Max.Y; y++ {
		c.set(x, y, col)
	}
}

// Line draws a one-pixel segment between two points.
func (c *Canvas) Line(x0, y0, x1, y1 float64, col color.Color) {
	if !finite(x0, y0, x1, y1) {
		return
	}
	steps := int(math.Ceil(math.Max(math.Abs(x1-x0), math.Abs(y1-y0))))
	if steps == 0 {
		c.set(int(math.Round(x0)), int(math.Round(y0)), col)
		return
	}
	// Long segments are clipped to a sane length.
	steps = min(steps, 4*(c.img.Rect.Dx()+c.img.Rect.Dy()))
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		c.set(int(math.Round(x0+t*(x1-x0))), int(math.Round(y0+t*(y1-y0))), col)
	}
}

// Cross draws an x-shaped marker of the given half-size centred on (x, y).
func (c *Canvas) Cross(x, y float64, size int, col color.Color) {
	if !finite(x, y) {
		return
	}
	cx, cy := int(math.Round(x)), int(math.Round(y))
	for d := -size; d <= size; d++ {
		c.set(cx+d, cy+d, col)
		c.set(cx+d, cy-d, col)
	}
}

// Label draws text on a filled background with its top-left at (x, y).
// Only digits and a few punctuation marks have glyphs; other runes leave a
// blank cell.
func (c *Canvas) Label(x, y int, text string, fg, bg color.Color) {
	const charWidth, labelHeight = 4, 7

	labelWidth := len(text) * charWidth
	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			c.set(x+dx, y+dy, bg)
		}
	}

	cx := x
	for _, ch := range text {
		if glyph, ok := glyphs[ch]; ok {
			for row, line := range glyph {
				for col, px := range line {
					if px == '1' {
						c.set(cx+col, y+row, fg)
					}
				}
			}
		}
		cx += charWidth
	}
}

// Render crops the canvas to region (the whole canvas when region is
// empty), scales it, and encodes it as base64 PNG. A scale of 0 means 1.
func (c *Canvas) Render(region image.Rectangle, scale float64) (*RenderResult, error) {
	bounds := c.img.Bounds()
	if region.Empty() {
		region = bounds
	}
	if !region.In(bounds) {
		return nil, fmt.Errorf("region %v outside image bounds %v", region, bounds)
	}
	if scale < 0 || math.IsNaN(scale) || scale > 8 {
		return nil, fmt.Errorf("scale must be between 0 and 8, got %v", scale)
	}

	out := imaging.Crop(c.img, region)
	if scale != 0 && scale != 1 {
		w := max(int(float64(out.Bounds().Dx())*scale), 1)
		h := max(int(float64(out.Bounds().Dy())*scale), 1)
		out = imaging.Resize(out, w, h, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return &RenderResult{
		Width:       out.Bounds().Dx(),
		Height:      out.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// NRGBA converts a parsed color to an opaque NRGBA value.
func NRGBA(c colorful.Color) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// 3x5 pixel font.
var glyphs = map[rune][]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
	',': {"000", "000", "000", "010", "010"},
	'.': {"000", "000", "000", "000", "010"},
	'-': {"000", "000", "111", "000", "000"},
}
