package houghvoting

import (
	"image"
	"image/color"
	"image/draw"
	"strconv"

	"github.com/fogleman/gg"
	"github.com/golang/geo/r2"

	"go.viam.com/houghvoting/rimage"
)

// Overlay paints every pixel of labels in its class color, enlarged scale times, and outlines the
// box of each record tagged with its class id.
func Overlay(labels LabelSource, numClasses int, records []OutputRecord, scale int) image.Image {
	if scale < 1 {
		scale = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, labels.Width()*scale, labels.Height()*scale))
	for idx := 0; idx < labels.Len(); idx++ {
		p := pixelPoint(idx, labels.Width())
		x, y := int(p.X)*scale, int(p.Y)*scale
		fill := image.NewUniform(rimage.ClassColor(int(labels.Label(idx)), numClasses))
		draw.Draw(img, image.Rect(x, y, x+scale, y+scale), fill, image.Point{}, draw.Src)
	}

	dc := gg.NewContextForRGBA(img)
	s := float64(scale)
	for _, r := range records {
		box := r2.RectFromPoints(r.Box.Lo().Mul(s), r.Box.Hi().Mul(s))
		rimage.DrawRectangleEmpty(dc, box, color.White, 2)
		rimage.DrawString(dc, strconv.Itoa(r.ClassID), box.Lo().Add(r2.Point{X: 2, Y: 2}), color.White, 12)
	}
	return dc.Image()
}
