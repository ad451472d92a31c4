package rimage

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/fogleman/gg"
	"github.com/golang/geo/r2"
	"go.viam.com/test"
)

func TestClassColor(t *testing.T) {
	black := color.RGBA{A: 255}
	test.That(t, ClassColor(0, 5), test.ShouldResemble, black)
	test.That(t, ClassColor(1, 1), test.ShouldResemble, black)
	test.That(t, ClassColor(1, 5), test.ShouldNotResemble, ClassColor(2, 5))
	test.That(t, ClassColor(3, 5), test.ShouldResemble, ClassColor(3, 5))
	test.That(t, ClassColor(1, 5).A, test.ShouldEqual, uint8(255))
}

func TestDrawAndWrite(t *testing.T) {
	dc := gg.NewContext(40, 40)
	dc.SetColor(color.White)
	dc.Clear()
	DrawRectangleEmpty(dc, r2.RectFromPoints(r2.Point{X: 10, Y: 10}, r2.Point{X: 30, Y: 30}), color.Black, 2)
	DrawString(dc, "1", r2.Point{X: 12, Y: 12}, color.Black, 8)

	// the outline leaves the inside alone
	r, g, b, _ := dc.Image().At(20, 25).RGBA()
	test.That(t, []uint32{r, g, b}, test.ShouldResemble, []uint32{0xffff, 0xffff, 0xffff})
	r, _, _, _ = dc.Image().At(10, 20).RGBA()
	test.That(t, r, test.ShouldBeLessThan, uint32(0xffff))

	path := filepath.Join(t.TempDir(), "out.png")
	test.That(t, WriteImageToFile(path, dc.Image()), test.ShouldBeNil)
	f, err := os.Open(path)
	test.That(t, err, test.ShouldBeNil)
	defer f.Close()
	decoded, err := png.Decode(f)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, decoded.Bounds(), test.ShouldResemble, image.Rect(0, 0, 40, 40))
}
