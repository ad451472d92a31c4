package houghvoting

import (
	"image"
	"image/color"
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"

	"go.viam.com/houghvoting/ml"
	"go.viam.com/houghvoting/rimage"
)

func TestOverlay(t *testing.T) {
	data := make([]int32, 16)
	for i := 1; i < len(data); i++ {
		data[i] = 1
	}
	labels, err := ml.NewLabelMap(4, 4, data)
	test.That(t, err, test.ShouldBeNil)
	records := []OutputRecord{{ClassID: 1, Box: r2.RectFromPoints(r2.Point{X: 1, Y: 1}, r2.Point{X: 2, Y: 2})}}

	img := Overlay(labels, 2, records, 10)
	test.That(t, img.Bounds(), test.ShouldResemble, image.Rect(0, 0, 40, 40))
	test.That(t, color.RGBAModel.Convert(img.At(5, 5)), test.ShouldResemble, color.RGBA{A: 255})
	test.That(t, color.RGBAModel.Convert(img.At(35, 35)), test.ShouldResemble, rimage.ClassColor(1, 2))
	test.That(t, color.RGBAModel.Convert(img.At(35, 35)), test.ShouldNotResemble, color.RGBA{A: 255})

	test.That(t, Overlay(labels, 2, nil, 0).Bounds(), test.ShouldResemble, image.Rect(0, 0, 4, 4))
}
