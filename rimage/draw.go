// Package rimage holds the image helpers used to visualize estimates.
package rimage

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/golang/geo/r2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"go.viam.com/utils"
	"golang.org/x/image/font/gofont/goregular"
)

var font *truetype.Font

// init sets up the fonts we want to use.
func init() {
	var err error
	font, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// Font returns the font we use for drawing.
func Font() *truetype.Font {
	return font
}

// DrawString writes a string to the given context at a particular point.
func DrawString(dc *gg.Context, text string, p r2.Point, c color.Color, size float64) {
	dc.SetFontFace(truetype.NewFace(Font(), &truetype.Options{Size: size}))
	dc.SetColor(c)
	dc.DrawStringWrapped(text, p.X, p.Y, 0, 0, float64(dc.Width()), 1, 0)
}

// DrawRectangleEmpty outlines r in the context.
func DrawRectangleEmpty(dc *gg.Context, r r2.Rect, c color.Color, width float64) {
	dc.SetColor(c)
	dc.SetLineWidth(width)
	dc.DrawRectangle(r.X.Lo, r.Y.Lo, r.X.Length(), r.Y.Length())
	dc.Stroke()
}

// ClassColor returns a saturated color for classID with hues spread evenly over numClasses.
// Class 0 is the background and is black.
func ClassColor(classID, numClasses int) color.RGBA {
	if classID <= 0 || numClasses <= 1 {
		return color.RGBA{A: math.MaxUint8}
	}
	hue := 360 * float64(classID-1) / float64(numClasses-1)
	r, g, b := colorful.Hsv(hue, 0.8, 0.9).RGB255()
	return color.RGBA{R: r, G: g, B: b, A: math.MaxUint8}
}

// WriteImageToFile encodes img as a PNG at path.
func WriteImageToFile(path string, img image.Image) (err error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "error creating image file")
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	if err := png.Encode(f, img); err != nil {
		return errors.Wrap(err, "error encoding png")
	}
	utils.UncheckedError(f.Sync())
	return nil
}
