package houghvoting

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/houghvoting/spatialmath"
)

const (
	// jitterFraction is the box shift, relative to its size, of the jittered records.
	jitterFraction = 0.05
	// QuaternionSlotSize is the width of one class slot in the target and weight rows.
	QuaternionSlotSize = 4
	// GroundTruthRowSize is the width of a ground-truth pose row.
	GroundTruthRowSize = 13
	// RecordsPerDetection is the canonical record plus its jittered copies.
	RecordsPerDetection = 1 + len(jitterSigns)
)

// jitterSigns are the (x, y) shift directions of the jittered records, in emission order.
var jitterSigns = [4][2]float64{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}}

// OutputRecord is one detection: a box and a pose for a class in an image of the batch.
type OutputRecord struct {
	BatchIndex  int
	ClassID     int
	Box         r2.Rect
	Quaternion  quat.Number
	Translation r3.Vector
}

// BoxRow returns (batch, class, x1, y1, x2, y2).
func (r OutputRecord) BoxRow() []float64 {
	return []float64{float64(r.BatchIndex), float64(r.ClassID), r.Box.X.Lo, r.Box.Y.Lo, r.Box.X.Hi, r.Box.Y.Hi}
}

// PoseRow returns (qw, qx, qy, qz, tx, ty, tz).
func (r OutputRecord) PoseRow() []float64 {
	q, t := r.Quaternion, r.Translation
	return []float64{q.Real, q.Imag, q.Jmag, q.Kmag, t.X, t.Y, t.Z}
}

// RecordFromRows is the inverse of BoxRow and PoseRow.
func RecordFromRows(box, pose []float64) (OutputRecord, error) {
	if len(box) != 6 || len(pose) != 7 {
		return OutputRecord{}, errors.Errorf("records need 6 box and 7 pose values, got %d and %d", len(box), len(pose))
	}
	return OutputRecord{
		BatchIndex:  int(box[0]),
		ClassID:     int(box[1]),
		Box:         r2.RectFromPoints(r2.Point{X: box[2], Y: box[3]}, r2.Point{X: box[4], Y: box[5]}),
		Quaternion:  quat.Number{Real: pose[0], Imag: pose[1], Jmag: pose[2], Kmag: pose[3]},
		Translation: r3.Vector{X: pose[4], Y: pose[5], Z: pose[6]},
	}, nil
}

// GroundTruthPose is a labeled pose of a class in an image of the batch.
type GroundTruthPose struct {
	BatchIndex  int
	ClassID     int
	Quaternion  quat.Number
	Translation r3.Vector
}

// GroundTruthFromRow parses a 13 value row: batch, class, 4 unused values, the quaternion
// (w, x, y, z) and the translation.
func GroundTruthFromRow(row []float64) (GroundTruthPose, error) {
	if len(row) != GroundTruthRowSize {
		return GroundTruthPose{}, errors.Errorf("ground truth rows must have %d values, got %d", GroundTruthRowSize, len(row))
	}
	return GroundTruthPose{
		BatchIndex:  int(row[0]),
		ClassID:     int(row[1]),
		Quaternion:  quat.Number{Real: row[6], Imag: row[7], Jmag: row[8], Kmag: row[9]},
		Translation: r3.Vector{X: row[10], Y: row[11], Z: row[12]},
	}, nil
}

// AssembleRecords emits, per final hypothesis, the canonical record followed by four records whose
// box is shifted by ±5% of its width and height in the order (-,-), (+,-), (-,+), (+,+).
func AssembleRecords(batchIndex int, finals []*FinalHypothesis) []OutputRecord {
	records := make([]OutputRecord, 0, RecordsPerDetection*len(finals))
	for _, f := range finals {
		canonical := OutputRecord{
			BatchIndex:  batchIndex,
			ClassID:     f.ClassID,
			Box:         f.Box,
			Quaternion:  spatialmath.Canonicalize(f.Pose.Orientation()),
			Translation: f.Pose.Point(),
		}
		records = append(records, canonical)

		size := f.Box.Size()
		for _, sign := range jitterSigns {
			jittered := canonical
			lo := r2.Point{
				X: f.Box.X.Lo + sign[0]*jitterFraction*size.X,
				Y: f.Box.Y.Lo + sign[1]*jitterFraction*size.Y,
			}
			jittered.Box = r2.RectFromPoints(lo, lo.Add(size))
			records = append(records, jittered)
		}
	}
	return records
}

// ComputeTargetWeight builds one target and one weight row of 4*numClasses values per record. When
// a ground truth with the record's batch and class exists, the first such quaternion is written to
// the class slot of the target and the weight slot is set to ones.
func ComputeTargetWeight(records []OutputRecord, gts []GroundTruthPose, numClasses int) ([][]float64, [][]float64) {
	target := make([][]float64, len(records))
	weight := make([][]float64, len(records))
	for i, r := range records {
		target[i] = make([]float64, QuaternionSlotSize*numClasses)
		weight[i] = make([]float64, QuaternionSlotSize*numClasses)
		if r.ClassID < 0 || r.ClassID >= numClasses {
			continue
		}
		for _, gt := range gts {
			if gt.BatchIndex != r.BatchIndex || gt.ClassID != r.ClassID {
				continue
			}
			slot := QuaternionSlotSize * r.ClassID
			q := gt.Quaternion
			copy(target[i][slot:slot+QuaternionSlotSize], []float64{q.Real, q.Imag, q.Jmag, q.Kmag})
			for k := 0; k < QuaternionSlotSize; k++ {
				weight[i][slot+k] = 1
			}
			break
		}
	}
	return target, weight
}
