package ml

import (
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"go.viam.com/houghvoting/utils"
)

// LabelMap is a row-major view of one image's per-pixel class labels.
type LabelMap struct {
	width, height int
	data          []int32
}

// NewLabelMap wraps data, which must hold width*height labels.
func NewLabelMap(width, height int, data []int32) (*LabelMap, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid label map size %dx%d", width, height)
	}
	if len(data) != width*height {
		return nil, errors.Errorf("label map of %dx%d needs %d values, got %d", width, height, width*height, len(data))
	}
	return &LabelMap{width: width, height: height, data: data}, nil
}

// Width of the image.
func (m *LabelMap) Width() int { return m.width }

// Height of the image.
func (m *LabelMap) Height() int { return m.height }

// Len is the number of pixels.
func (m *LabelMap) Len() int { return len(m.data) }

// Label returns the class at the flat pixel index idx.
func (m *LabelMap) Label(idx int) int32 {
	return m.data[idx]
}

// VoteMap is a row-major view of one image's per-pixel, per-class 2D votes. Votes of all classes
// for a pixel are interleaved: the vote of class c at pixel i sits at 2*numClasses*i + 2*c.
type VoteMap struct {
	width, height, numClasses int
	data                      []float32
}

// NewVoteMap wraps data, which must hold width*height*2*numClasses values.
func NewVoteMap(width, height, numClasses int, data []float32) (*VoteMap, error) {
	if numClasses <= 0 {
		return nil, errors.Errorf("invalid number of classes %d", numClasses)
	}
	want := width * height * 2 * numClasses
	if len(data) != want {
		return nil, errors.Errorf("vote map of %dx%d with %d classes needs %d values, got %d",
			width, height, numClasses, want, len(data))
	}
	return &VoteMap{width: width, height: height, numClasses: numClasses, data: data}, nil
}

// NumClasses is the number of classes with a vote channel pair.
func (m *VoteMap) NumClasses() int { return m.numClasses }

// Vote returns the vote of classID at the flat pixel index idx.
func (m *VoteMap) Vote(idx, classID int) r2.Point {
	offset := 2*m.numClasses*idx + 2*classID
	return r2.Point{X: float64(m.data[offset]), Y: float64(m.data[offset+1])}
}

// LabelMapsFromTensor splits a (B, H, W) integer tensor into one LabelMap per image.
func LabelMapsFromTensor(t *tensor.Dense) ([]*LabelMap, error) {
	shape := t.Shape()
	if len(shape) != 3 {
		return nil, errors.Errorf("label tensor must have rank 3 (batch, height, width), got shape %v", shape)
	}
	data, err := ConvertToInt32Slice(DataOf(t))
	if err != nil {
		return nil, errors.Wrap(err, "label tensor")
	}
	batch, height, width := shape[0], shape[1], shape[2]
	size := height * width
	maps := make([]*LabelMap, 0, batch)
	for b := 0; b < batch; b++ {
		m, err := NewLabelMap(width, height, data[b*size:(b+1)*size])
		if err != nil {
			return nil, err
		}
		maps = append(maps, m)
	}
	return maps, nil
}

// VoteMapsFromTensor splits a (B, H, W, 2C) float tensor into one VoteMap per image.
func VoteMapsFromTensor(t *tensor.Dense) ([]*VoteMap, error) {
	shape := t.Shape()
	if len(shape) != 4 {
		return nil, errors.Errorf("vertex tensor must have rank 4 (batch, height, width, 2*classes), got shape %v", shape)
	}
	if shape[3] == 0 || shape[3]%2 != 0 {
		return nil, errors.Errorf("vertex tensor channel count must be a positive even number, got %d", shape[3])
	}
	data, ok := DataOf(t).([]float32)
	if !ok {
		return nil, errors.Wrap(utils.NewUnexpectedTypeError([]float32{}, DataOf(t)), "vertex tensor")
	}
	batch, height, width, numClasses := shape[0], shape[1], shape[2], shape[3]/2
	size := height * width * shape[3]
	maps := make([]*VoteMap, 0, batch)
	for b := 0; b < batch; b++ {
		m, err := NewVoteMap(width, height, numClasses, data[b*size:(b+1)*size])
		if err != nil {
			return nil, err
		}
		maps = append(maps, m)
	}
	return maps, nil
}
