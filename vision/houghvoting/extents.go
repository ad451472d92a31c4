package houghvoting

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Box3D holds the 8 corners of an axis aligned box centered at the object origin.
type Box3D [8]r3.Vector

// NewBox3D builds the corners (±x, ±y, ±z) from half-extents.
func NewBox3D(halfExtents r3.Vector) Box3D {
	var box Box3D
	i := 0
	for _, sx := range []float64{-1, 1} {
		for _, sy := range []float64{-1, 1} {
			for _, sz := range []float64{-1, 1} {
				box[i] = r3.Vector{X: sx * halfExtents.X, Y: sy * halfExtents.Y, Z: sz * halfExtents.Z}
				i++
			}
		}
	}
	return box
}

// Extent3DCatalog maps class ids to their canonical 3D boxes.
type Extent3DCatalog struct {
	boxes []Box3D
}

// NewExtent3DCatalog builds one box per row of half-extents; row i belongs to class i.
func NewExtent3DCatalog(extents [][]float64) (*Extent3DCatalog, error) {
	boxes := make([]Box3D, 0, len(extents))
	for i, row := range extents {
		if len(row) != 3 {
			return nil, errors.Errorf("extents of class %d must have 3 values, got %d", i, len(row))
		}
		boxes = append(boxes, NewBox3D(r3.Vector{X: row[0], Y: row[1], Z: row[2]}))
	}
	return &Extent3DCatalog{boxes: boxes}, nil
}

// NumClasses is the number of classes with a box.
func (c *Extent3DCatalog) NumClasses() int {
	return len(c.boxes)
}

// Box returns the box of classID.
func (c *Extent3DCatalog) Box(classID int) Box3D {
	return c.boxes[classID]
}
