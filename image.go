package assemblifier

import (
	"errors"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/gift"
	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"
)

const (
	// DefaultColumns is the width images are scaled to when no column count
	// is given.
	DefaultColumns = 100

	// rowAspect compensates for terminal cells being taller than wide.
	rowAspect = 0.43
)

// FitColumns scales an image to the given number of columns, shrinking its
// height so that each pixel maps to one terminal cell.
func FitColumns(img image.Image, cols int) (*image.NRGBA, error) {
	if cols <= 0 {
		return nil, errors.New("assemblifier: FitColumns: columns must be positive")
	}

	b := img.Bounds()
	if b.Empty() {
		return nil, errors.New("assemblifier: FitColumns: image is empty")
	}

	rows := int(math.Round(float64(b.Dy()) / float64(b.Dx()) * float64(cols) * rowAspect))
	if rows < 1 {
		rows = 1
	}

	g := gift.New(gift.Resize(cols, rows, gift.LinearResampling))
	output := image.NewNRGBA(g.Bounds(b))
	g.Draw(output, img)

	return output, nil
}

// FromImage flattens an image into a tightly packed, non premultiplied RGBA
// buffer.
func FromImage(img image.Image) (pix []byte, width, height int) {
	b := img.Bounds()
	width, height = b.Dx(), b.Dy()

	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Stride == width*4 {
		start := nrgba.PixOffset(b.Min.X, b.Min.Y)
		return nrgba.Pix[start : start+width*height*4], width, height
	}

	output := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(output, output.Bounds(), img, b.Min, draw.Src)
	return output.Pix, width, height
}

// CubeColor returns the color of a terminal color code in the 6x6x6 cube.
// Codes outside 16 to 231 are black.
func CubeColor(code uint8) colorful.Color {
	if code < 16 || code > 231 {
		return colorful.Color{}
	}

	idx := code - 16
	return colorful.Color{
		R: float64(colorSteps[idx/36]) / 255.0,
		G: float64(colorSteps[idx/6%6]) / 255.0,
		B: float64(colorSteps[idx%6]) / 255.0,
	}
}

// Preview paints records in logical order onto an image, one pixel per
// cell.
func Preview(records []Record, width, height int) *image.NRGBA {
	output := image.NewNRGBA(image.Rect(0, 0, width, height))

	x, y := 0, 0
	for _, rec := range records {
		if rec.IsNewline() {
			x = 0
			y++
			continue
		}

		r, g, b := CubeColor(rec.Background).RGB255()
		col := color.NRGBA{R: r, G: g, B: b, A: 255}
		for i := 0; i < int(rec.Repeat); i++ {
			output.SetNRGBA(x, y, col)
			x++
		}
	}

	return output
}
