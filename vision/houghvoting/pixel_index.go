package houghvoting

import (
	"sort"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// LabelSource is a per-pixel class map in row-major order.
type LabelSource interface {
	Width() int
	Height() int
	Len() int
	Label(idx int) int32
}

// VoteSource yields the 2D vote of a class at a flat pixel index.
type VoteSource interface {
	NumClasses() int
	Vote(idx, classID int) r2.Point
}

// ClassPixelIndex partitions the foreground pixels of one image by class.
type ClassPixelIndex struct {
	width  int
	pixels map[int][]int
	ids    []int
}

// NewClassPixelIndex collects the pixels of every non-background class in scan order and keeps the
// classes with at least minArea pixels. A label outside [0, numClasses) is an error.
func NewClassPixelIndex(labels LabelSource, numClasses, minArea int) (*ClassPixelIndex, error) {
	pixels := map[int][]int{}
	for idx := 0; idx < labels.Len(); idx++ {
		label := int(labels.Label(idx))
		if label < 0 || label >= numClasses {
			return nil, errors.Errorf("pixel %d has label %d outside [0, %d)", idx, label, numClasses)
		}
		if label == 0 {
			continue
		}
		pixels[label] = append(pixels[label], idx)
	}

	kept := lo.PickBy(pixels, func(_ int, list []int) bool {
		return len(list) >= minArea
	})
	ids := lo.Keys(kept)
	sort.Ints(ids)
	return &ClassPixelIndex{width: labels.Width(), pixels: kept, ids: ids}, nil
}

// ObjectIDs returns the surviving class ids in increasing order.
func (cpi *ClassPixelIndex) ObjectIDs() []int {
	return cpi.ids
}

// Pixels returns the flat pixel indices of classID in scan order.
func (cpi *ClassPixelIndex) Pixels(classID int) []int {
	return cpi.pixels[classID]
}

// Count returns the number of pixels of classID, zero if it was filtered out.
func (cpi *ClassPixelIndex) Count(classID int) int {
	return len(cpi.pixels[classID])
}

// Width of the indexed image.
func (cpi *ClassPixelIndex) Width() int {
	return cpi.width
}

// PixelPoint converts a flat pixel index to its (column, row) position.
func (cpi *ClassPixelIndex) PixelPoint(idx int) r2.Point {
	return pixelPoint(idx, cpi.width)
}

func pixelPoint(idx, width int) r2.Point {
	return r2.Point{X: float64(idx % width), Y: float64(idx / width)}
}
