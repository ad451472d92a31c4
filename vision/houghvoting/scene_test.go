package houghvoting

import (
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"

	"go.viam.com/houghvoting/ml"
)

// radialScene fills a width x height image with classID whose votes all point at center.
func radialScene(tb testing.TB, width, height, numClasses, classID int, center r2.Point) (*ml.LabelMap, *ml.VoteMap) {
	tb.Helper()
	labels := make([]int32, width*height)
	votes := make([]float32, width*height*2*numClasses)
	for idx := range labels {
		labels[idx] = int32(classID)
		p := pixelPoint(idx, width)
		offset := 2*numClasses*idx + 2*classID
		votes[offset] = float32(center.X - p.X)
		votes[offset+1] = float32(center.Y - p.Y)
	}
	labelMap, err := ml.NewLabelMap(width, height, labels)
	test.That(tb, err, test.ShouldBeNil)
	voteMap, err := ml.NewVoteMap(width, height, numClasses, votes)
	test.That(tb, err, test.ShouldBeNil)
	return labelMap, voteMap
}

// radialInliers returns one correspondence per pixel of a width x height grid voting for center.
func radialInliers(width, height int, center r2.Point) []Correspondence {
	corrs := make([]Correspondence, 0, width*height)
	for idx := 0; idx < width*height; idx++ {
		p := pixelPoint(idx, width)
		corrs = append(corrs, Correspondence{Vote: center.Sub(p), Pixel: p})
	}
	return corrs
}
